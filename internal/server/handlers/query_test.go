package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/synckeeper/internal/codec"
	"github.com/iudanet/synckeeper/internal/crypto"
	"github.com/iudanet/synckeeper/internal/models"
	"github.com/iudanet/synckeeper/internal/server/reconcile"
	"github.com/iudanet/synckeeper/internal/store"
	"github.com/iudanet/synckeeper/pkg/api"
)

// memPersist - серверная персистентность в памяти
type memPersist struct{}

func (m *memPersist) Load(ctx context.Context, st *store.Store) error { return nil }
func (m *memPersist) Save(ctx context.Context, st *store.Store) error { return nil }
func (m *memPersist) Close() error                                    { return nil }

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newTestHandler(t *testing.T) (*QueryHandler, *store.Store) {
	t.Helper()
	registry, err := models.NewRegistry(models.DefaultRegistrations()...)
	require.NoError(t, err)

	st := store.New(registry, nil)
	reconciler := reconcile.New(st, &memPersist{}, testLogger())
	return NewQueryHandler(testLogger(), reconciler), st
}

func postQuery(t *testing.T, h *QueryHandler, body any) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/query", bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json; charset=UTF-8")
	w := httptest.NewRecorder()
	h.HandleQuery(w, req)
	return w
}

func noteInstance(t *testing.T, created, modified int64, name string) json.RawMessage {
	t.Helper()
	rec := &models.Note{
		Meta:    models.Meta{Created: created, Modified: modified},
		Name:    name,
		Content: "x",
	}
	data, err := codec.Serialize(models.MarshalRecord(rec))
	require.NoError(t, err)
	return data
}

func TestHandleHashGet(t *testing.T) {
	h, st := newTestHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/hash", nil)
	w := httptest.NewRecorder()
	h.HandleHash(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "application/json")

	var hash string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &hash))

	data, err := st.Serialize()
	require.NoError(t, err)
	assert.Equal(t, crypto.Hash(data), hash)
}

func TestHandleHashRejectsPost(t *testing.T) {
	h, _ := newTestHandler(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/hash", nil)
	w := httptest.NewRecorder()
	h.HandleHash(w, req)

	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestHandleQueryHash(t *testing.T) {
	// Запрос hash доступен и через POST endpoint
	h, _ := newTestHandler(t)

	w := postQuery(t, h, api.Request{Query: api.QueryHash})
	require.Equal(t, http.StatusOK, w.Code)

	var hash string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &hash))
	assert.True(t, crypto.ValidHash(hash))
}

func TestHandleQueryAdd(t *testing.T) {
	h, st := newTestHandler(t)

	w := postQuery(t, h, api.Request{
		Query:    api.QueryAdd,
		Type:     models.TypeNote,
		Instance: noteInstance(t, 100, 0, "added"),
	})
	require.Equal(t, http.StatusOK, w.Code)

	var hash string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &hash))
	assert.True(t, crypto.ValidHash(hash))

	_, ok := st.Get(models.TypeNote, 100)
	assert.True(t, ok)
}

func TestHandleQueryAddConflict(t *testing.T) {
	h, _ := newTestHandler(t)

	first := postQuery(t, h, api.Request{
		Query:    api.QueryAdd,
		Type:     models.TypeNote,
		Instance: noteInstance(t, 100, 0, "first"),
	})
	require.Equal(t, http.StatusOK, first.Code)

	second := postQuery(t, h, api.Request{
		Query:    api.QueryAdd,
		Type:     models.TypeNote,
		Instance: noteInstance(t, 100, 0, "second"),
	})
	assert.Equal(t, http.StatusConflict, second.Code)

	var errResp api.ErrorResponse
	require.NoError(t, json.Unmarshal(second.Body.Bytes(), &errResp))
	assert.Equal(t, "id_conflict", errResp.Error)
}

func TestHandleQueryEditMissing(t *testing.T) {
	h, _ := newTestHandler(t)

	w := postQuery(t, h, api.Request{
		Query:    api.QueryEdit,
		Type:     models.TypeNote,
		Instance: noteInstance(t, 999, 1200, "phantom"),
	})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHandleQueryReconcile(t *testing.T) {
	h, st := newTestHandler(t)

	_, err := st.Add(&models.Note{Meta: models.Meta{Created: 200}, Name: "server side", Content: "x"})
	require.NoError(t, err)

	data, err := json.Marshal(api.ReconcileData{Sync: 150, Instances: api.TypeIndex{}})
	require.NoError(t, err)

	w := postQuery(t, h, api.Request{Query: api.QueryReconcile, Data: data})
	require.Equal(t, http.StatusOK, w.Code)

	var resp api.ReconcileResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, crypto.ValidHash(resp.Hash))
	assert.Contains(t, resp.Data, models.TypeNote)
	assert.Contains(t, resp.Data[models.TypeNote], api.RankNew)
}

func TestHandleQueryValidation(t *testing.T) {
	h, _ := newTestHandler(t)

	tests := []struct {
		body       any
		name       string
		wantStatus int
	}{
		{
			name:       "unknown query",
			body:       api.Request{Query: "drop"},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "add without type",
			body:       api.Request{Query: api.QueryAdd, Instance: json.RawMessage(`{}`)},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "add with unknown type",
			body:       api.Request{Query: api.QueryAdd, Type: "stranger", Instance: json.RawMessage(`{"_created":1}`)},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "reconcile with malformed data",
			body:       api.Request{Query: api.QueryReconcile, Data: json.RawMessage(`"nope"`)},
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := postQuery(t, h, tt.body)
			assert.Equal(t, tt.wantStatus, w.Code)
		})
	}
}

func TestHandleQueryMalformedBody(t *testing.T) {
	h, _ := newTestHandler(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/query", bytes.NewReader([]byte("not json")))
	w := httptest.NewRecorder()
	h.HandleQuery(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleQueryRejectsGet(t *testing.T) {
	h, _ := newTestHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/query", nil)
	w := httptest.NewRecorder()
	h.HandleQuery(w, req)

	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}
