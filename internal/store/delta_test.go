package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/synckeeper/internal/models"
)

func TestCompile(t *testing.T) {
	clock, _ := fixedClock(1000)
	s := newTestStore(t, clock)

	// created > since: ранг new
	_, err := s.Add(note(200, 0, "created after"))
	require.NoError(t, err)

	// created <= since, modified > since: ранг modified
	_, err = s.Add(note(100, 180, "modified after"))
	require.NoError(t, err)

	// Запись без изменений с момента since: не попадает в дельту
	_, err = s.Add(note(50, 120, "untouched"))
	require.NoError(t, err)

	// created > since И modified > since: только new, не modified
	_, err = s.Add(note(160, 190, "new and modified"))
	require.NoError(t, err)

	// Tombstone c deleted > since: ранг deleted
	require.NoError(t, s.ApplyTombstone(models.TypeNote, models.Tombstone{Created: 40, Deleted: 170}))

	// Tombstone старого удаления: не попадает
	require.NoError(t, s.ApplyTombstone(models.TypeNote, models.Tombstone{Created: 30, Deleted: 140}))

	changes := s.Compile(150)

	rs := changes[models.TypeNote]
	require.NotNil(t, rs)

	assert.Contains(t, rs.New, int64(200))
	assert.Contains(t, rs.New, int64(160))
	assert.Len(t, rs.New, 2)

	assert.Contains(t, rs.Modified, int64(100))
	assert.Len(t, rs.Modified, 1)
	assert.NotContains(t, rs.Modified, int64(160), "new не дублируется в modified")
	assert.NotContains(t, rs.Modified, int64(50))

	assert.Contains(t, rs.Deleted, int64(40))
	assert.Len(t, rs.Deleted, 1)

	// Компилятор никогда не производит конфликты
	assert.Empty(t, rs.Conflict)
}

func TestCompilePrunesEmptyTypes(t *testing.T) {
	clock, _ := fixedClock(1000)
	s := newTestStore(t, clock)

	_, err := s.Add(note(200, 0, "only note"))
	require.NoError(t, err)

	changes := s.Compile(100)

	assert.Contains(t, changes, models.TypeNote)
	assert.NotContains(t, changes, models.TypeCredential)
	assert.NotContains(t, changes, models.TypeCard)
}

func TestCompileEmptyDelta(t *testing.T) {
	clock, _ := fixedClock(1000)
	s := newTestStore(t, clock)

	_, err := s.Add(note(100, 0, "old"))
	require.NoError(t, err)

	changes := s.Compile(500)
	assert.True(t, changes.Empty())
}

func TestCompileSinceZero(t *testing.T) {
	// Первая синхронизация: вся история уходит рангом new
	clock, _ := fixedClock(1000)
	s := newTestStore(t, clock)

	_, err := s.Add(note(100, 150, "everything"))
	require.NoError(t, err)

	changes := s.Compile(0)
	rs := changes[models.TypeNote]
	require.NotNil(t, rs)
	assert.Contains(t, rs.New, int64(100))
	assert.Empty(t, rs.Modified)
}
