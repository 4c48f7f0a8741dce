package boltdb

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/synckeeper/internal/client/storage"
)

func newTestStorage(t *testing.T) *Storage {
	t.Helper()
	ctx := context.Background()

	dbPath := filepath.Join(t.TempDir(), "test.db")
	s, err := New(ctx, dbPath)
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = s.Close()
	})
	return s
}

func TestPutGet(t *testing.T) {
	ctx := context.Background()
	s := newTestStorage(t)

	require.NoError(t, s.Put(ctx, "keeper-data", "ciphertext"))

	value, err := s.Get(ctx, "keeper-data")
	require.NoError(t, err)
	assert.Equal(t, "ciphertext", value)

	// Перезапись
	require.NoError(t, s.Put(ctx, "keeper-data", "newer"))
	value, err = s.Get(ctx, "keeper-data")
	require.NoError(t, err)
	assert.Equal(t, "newer", value)
}

func TestGetMissingKey(t *testing.T) {
	ctx := context.Background()
	s := newTestStorage(t)

	_, err := s.Get(ctx, "absent")
	require.Error(t, err)
	assert.ErrorIs(t, err, storage.ErrKeyNotFound)
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	s := newTestStorage(t)

	require.NoError(t, s.Put(ctx, "key", "value"))
	require.NoError(t, s.Delete(ctx, "key"))

	_, err := s.Get(ctx, "key")
	assert.ErrorIs(t, err, storage.ErrKeyNotFound)

	// Удаление отсутствующего ключа - не ошибка
	require.NoError(t, s.Delete(ctx, "never existed"))
}

func TestPersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "test.db")

	s, err := New(ctx, dbPath)
	require.NoError(t, err)
	require.NoError(t, s.Put(ctx, "keeper-sync", "1700000000123"))
	require.NoError(t, s.Close())

	reopened, err := New(ctx, dbPath)
	require.NoError(t, err)
	defer func() {
		_ = reopened.Close()
	}()

	value, err := reopened.Get(ctx, "keeper-sync")
	require.NoError(t, err)
	assert.Equal(t, "1700000000123", value)
}

func TestClosedStorage(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "test.db")

	s, err := New(ctx, dbPath)
	require.NoError(t, err)
	require.NoError(t, s.Close())

	_, err = s.Get(ctx, "key")
	assert.ErrorIs(t, err, storage.ErrStorageClosed)

	err = s.Put(ctx, "key", "value")
	assert.ErrorIs(t, err, storage.ErrStorageClosed)

	// Повторное закрытие безопасно
	require.NoError(t, s.Close())
}
