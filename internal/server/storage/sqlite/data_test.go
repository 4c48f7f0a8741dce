package sqlite

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/synckeeper/internal/models"
	"github.com/iudanet/synckeeper/internal/store"
)

func newTestStorage(t *testing.T) (*Storage, *models.Registry) {
	t.Helper()
	ctx := context.Background()

	registry, err := models.NewRegistry(models.DefaultRegistrations()...)
	require.NoError(t, err)

	s, err := New(ctx, ":memory:", registry)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = s.Close()
	})
	return s, registry
}

func TestSaveLoadRoundTrip(t *testing.T) {
	ctx := context.Background()
	s, registry := newTestStorage(t)

	original := store.New(registry, nil)
	_, err := original.Add(&models.Credential{
		Meta:     models.Meta{Created: 100, Modified: 250},
		Name:     "GitHub",
		Login:    "octocat",
		Password: "s3cret",
	})
	require.NoError(t, err)
	_, err = original.Add(&models.Note{
		Meta:    models.Meta{Created: 200},
		Name:    "wifi",
		Content: "pass1234",
	})
	require.NoError(t, err)
	require.NoError(t, original.ApplyTombstone(models.TypeNote,
		models.Tombstone{Created: 150, Deleted: 300}))

	require.NoError(t, s.Save(ctx, original))

	loaded := store.New(registry, nil)
	require.NoError(t, s.Load(ctx, loaded))

	// Снимок восстанавливается байт-в-байт
	originalData, err := original.Serialize()
	require.NoError(t, err)
	loadedData, err := loaded.Serialize()
	require.NoError(t, err)
	assert.Equal(t, originalData, loadedData)

	assert.Equal(t, int64(200), loaded.MaxID())
}

func TestSaveReplacesSnapshot(t *testing.T) {
	ctx := context.Background()
	s, registry := newTestStorage(t)

	first := store.New(registry, nil)
	_, err := first.Add(&models.Note{Meta: models.Meta{Created: 100}, Name: "old", Content: "x"})
	require.NoError(t, err)
	require.NoError(t, s.Save(ctx, first))

	// Второй снимок замещает первый целиком
	second := store.New(registry, nil)
	_, err = second.Add(&models.Note{Meta: models.Meta{Created: 200}, Name: "new", Content: "y"})
	require.NoError(t, err)
	require.NoError(t, s.Save(ctx, second))

	loaded := store.New(registry, nil)
	require.NoError(t, s.Load(ctx, loaded))

	_, ok := loaded.Get(models.TypeNote, 100)
	assert.False(t, ok)
	_, ok = loaded.Get(models.TypeNote, 200)
	assert.True(t, ok)
}

func TestLoadEmptyDatabase(t *testing.T) {
	ctx := context.Background()
	s, registry := newTestStorage(t)

	loaded := store.New(registry, nil)
	require.NoError(t, s.Load(ctx, loaded))

	for _, typeName := range registry.TypeNames() {
		assert.Empty(t, loaded.Records(typeName))
		assert.Empty(t, loaded.Tombstones(typeName))
	}
}

func TestLoadCorruptPayload(t *testing.T) {
	ctx := context.Background()
	s, registry := newTestStorage(t)

	_, err := s.DB().ExecContext(ctx,
		`INSERT INTO records (type_name, created, modified, payload) VALUES (?, ?, ?, ?)`,
		models.TypeNote, 100, 0, "{broken")
	require.NoError(t, err)

	loaded := store.New(registry, nil)
	require.Error(t, s.Load(ctx, loaded))
}
