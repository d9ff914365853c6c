package badgerdb

import (
	"fmt"
	"os"

	"github.com/dgraph-io/badger/v4"
)

// Open opens (creating if needed) a badger database in dir.
// An empty dir opens an in-memory database.
func Open(dir string) (*badger.DB, error) {
	var opts badger.Options
	if dir == "" {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create badger directory: %w", err)
		}
		opts = badger.DefaultOptions(dir)
	}
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger database: %w", err)
	}
	return db, nil
}
