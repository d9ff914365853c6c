package badgerdb

import (
	"path/filepath"
	"testing"

	"github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen_OnDisk(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "catalog")
	db, err := Open(dir)
	require.NoError(t, err)

	require.NoError(t, db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte("k"), []byte("v"))
	}))
	require.NoError(t, db.Close())

	db, err = Open(dir)
	require.NoError(t, err)
	defer db.Close()

	err = db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte("k"))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			assert.Equal(t, "v", string(val))
			return nil
		})
	})
	assert.NoError(t, err)
}

func TestOpen_InMemory(t *testing.T) {
	db, err := Open("")
	require.NoError(t, err)
	assert.NoError(t, db.Close())
}
