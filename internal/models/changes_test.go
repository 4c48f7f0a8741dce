package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/synckeeper/pkg/api"
)

func TestChangesWireRoundTrip(t *testing.T) {
	registry := newTestRegistry(t)

	changes := make(Changes)
	rs := changes.RankSet(TypeNote)
	rs.New[100] = &Note{Meta: Meta{Created: 100}, Name: "new", Content: "a"}
	rs.Modified[50] = &Note{Meta: Meta{Created: 50, Modified: 120}, Name: "mod", Content: "b"}
	rs.Deleted[30] = Tombstone{Created: 30, Deleted: 110}
	rs.Conflict[20] = []ConflictVersion{
		{Record: &Note{Meta: Meta{Created: 20, Modified: 90}, Name: "server", Content: "s"}},
		{Tombstone: &Tombstone{Created: 20, Deleted: 95}},
	}

	idx, err := changes.Wire()
	require.NoError(t, err)

	parsed, err := ParseChanges(registry, idx)
	require.NoError(t, err)

	got := parsed[TypeNote]
	require.NotNil(t, got)

	require.Contains(t, got.New, int64(100))
	assert.True(t, got.New[100].EqualPayload(rs.New[100]))

	require.Contains(t, got.Modified, int64(50))
	assert.Equal(t, int64(120), got.Modified[50].MetaInfo().Modified)

	require.Contains(t, got.Deleted, int64(30))
	assert.Equal(t, Tombstone{Created: 30, Deleted: 110}, got.Deleted[30])

	require.Contains(t, got.Conflict, int64(20))
	versions := got.Conflict[20]
	require.Len(t, versions, 2)
	assert.NotNil(t, versions[0].Record)
	require.NotNil(t, versions[1].Tombstone)
	assert.Equal(t, int64(95), versions[1].Tombstone.Deleted)
}

func TestChangesWirePrunesEmpty(t *testing.T) {
	changes := make(Changes)
	changes.RankSet(TypeNote) // пустой тип
	rs := changes.RankSet(TypeCard)
	rs.New[100] = &Card{Meta: Meta{Created: 100}, Name: "visa"}

	idx, err := changes.Wire()
	require.NoError(t, err)

	// Пустой тип и пустые ранги отсутствуют
	assert.NotContains(t, idx, TypeNote)
	require.Contains(t, idx, TypeCard)
	assert.Contains(t, idx[TypeCard], api.RankNew)
	assert.NotContains(t, idx[TypeCard], api.RankModified)
	assert.NotContains(t, idx[TypeCard], api.RankDeleted)
	assert.NotContains(t, idx[TypeCard], api.RankConflict)
}

func TestParseChangesErrors(t *testing.T) {
	registry := newTestRegistry(t)

	record := json.RawMessage(`{"_created":100,"name":"n","content":"c"}`)

	tests := []struct {
		idx  api.TypeIndex
		name string
	}{
		{
			name: "unknown type",
			idx: api.TypeIndex{
				"unknown": {api.RankNew: {"100": record}},
			},
		},
		{
			name: "unknown rank",
			idx: api.TypeIndex{
				TypeNote: {"renamed": {"100": record}},
			},
		},
		{
			name: "bad id key",
			idx: api.TypeIndex{
				TypeNote: {api.RankNew: {"abc": record}},
			},
		},
		{
			name: "id does not match created",
			idx: api.TypeIndex{
				TypeNote: {api.RankNew: {"999": record}},
			},
		},
		{
			name: "tombstone id mismatch",
			idx: api.TypeIndex{
				TypeNote: {api.RankDeleted: {"999": json.RawMessage(`{"_created":100,"_deleted":200}`)}},
			},
		},
		{
			name: "conflict versions not an array",
			idx: api.TypeIndex{
				TypeNote: {api.RankConflict: {"100": record}},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseChanges(registry, tt.idx)
			require.Error(t, err)
		})
	}
}

func TestChangesConflictCount(t *testing.T) {
	changes := make(Changes)
	rs := changes.RankSet(TypeNote)
	rs.Conflict[1] = []ConflictVersion{{Record: &Note{Meta: Meta{Created: 1}}}}
	rs.Conflict[2] = []ConflictVersion{{Record: &Note{Meta: Meta{Created: 2}}}}
	changes.RankSet(TypeCard).Conflict[3] = []ConflictVersion{{Record: &Card{Meta: Meta{Created: 3}}}}

	assert.Equal(t, 3, changes.ConflictCount())
	assert.False(t, changes.Empty())
}

func TestChangesPrune(t *testing.T) {
	changes := make(Changes)
	changes.RankSet(TypeNote)
	changes.RankSet(TypeCard).New[1] = &Card{Meta: Meta{Created: 1}}

	changes.Prune()

	assert.NotContains(t, changes, TypeNote)
	assert.Contains(t, changes, TypeCard)
	assert.False(t, changes.Empty())

	delete(changes, TypeCard)
	assert.True(t, changes.Empty())
}
