package db

import (
	"database/sql"
)

// Database is a connection to the catalog's SQL store.
type Database interface {
	Connect() error
	Close() error
	DB() *sql.DB
}
