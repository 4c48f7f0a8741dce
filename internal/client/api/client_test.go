package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/synckeeper/internal/crypto"
	"github.com/iudanet/synckeeper/pkg/api"
)

var testHash = crypto.Hash([]byte("authoritative state"))

func TestHashUsesGetEndpoint(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/v1/hash", r.URL.Path)
		assert.Equal(t, "node-42", r.Header.Get("X-Client-ID"))

		w.Header().Set("Content-Type", "application/json; charset=UTF-8")
		_ = json.NewEncoder(w).Encode(testHash)
	}))
	defer server.Close()

	client := NewClient(server.URL, "node-42")

	hash, err := client.Hash(context.Background())
	require.NoError(t, err)
	assert.Equal(t, testHash, hash)
}

func TestHashRejectsMalformedDigest(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode("not-a-digest")
	}))
	defer server.Close()

	client := NewClient(server.URL, "node-42")

	_, err := client.Hash(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTransport)
}

func TestMutationRequestShape(t *testing.T) {
	queries := []struct {
		call func(c *Client, ctx context.Context) (string, error)
		want string
	}{
		{
			want: api.QueryAdd,
			call: func(c *Client, ctx context.Context) (string, error) {
				return c.Add(ctx, "note", json.RawMessage(`{"_created":100}`))
			},
		},
		{
			want: api.QueryEdit,
			call: func(c *Client, ctx context.Context) (string, error) {
				return c.Edit(ctx, "note", json.RawMessage(`{"_created":100}`))
			},
		},
		{
			want: api.QueryDelete,
			call: func(c *Client, ctx context.Context) (string, error) {
				return c.Delete(ctx, "note", json.RawMessage(`{"_created":100,"_deleted":200}`))
			},
		},
	}

	for _, tt := range queries {
		t.Run(tt.want, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				// Все мутации уходят POST-ом на единый endpoint
				assert.Equal(t, http.MethodPost, r.Method)
				assert.Equal(t, "/api/v1/query", r.URL.Path)
				assert.True(t, strings.HasPrefix(r.Header.Get("Content-Type"), "application/json"))

				var req api.Request
				require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
				assert.Equal(t, tt.want, req.Query)
				assert.Equal(t, "note", req.Type)
				assert.NotEmpty(t, req.Instance)

				_ = json.NewEncoder(w).Encode(testHash)
			}))
			defer server.Close()

			client := NewClient(server.URL, "node-42")

			hash, err := tt.call(client, context.Background())
			require.NoError(t, err)
			assert.Equal(t, testHash, hash)
		})
	}
}

func TestReconcileRequestShape(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req api.Request
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, api.QueryReconcile, req.Query)

		var data api.ReconcileData
		require.NoError(t, json.Unmarshal(req.Data, &data))
		assert.Equal(t, int64(150), data.Sync)
		assert.Contains(t, data.Instances, "note")

		_ = json.NewEncoder(w).Encode(api.ReconcileResponse{
			Hash: testHash,
			Data: api.TypeIndex{},
		})
	}))
	defer server.Close()

	client := NewClient(server.URL, "node-42")

	instances := api.TypeIndex{
		"note": {api.RankNew: {"100": json.RawMessage(`{"_created":100}`)}},
	}
	resp, err := client.Reconcile(context.Background(), 150, instances)
	require.NoError(t, err)
	assert.Equal(t, testHash, resp.Hash)
}

func TestNonOKStatus(t *testing.T) {
	tests := []struct {
		name string
		body string
		code int
	}{
		{
			name: "structured error body",
			body: `{"error":"id_conflict","message":"record id already exists"}`,
			code: http.StatusConflict,
		},
		{
			name: "plain error body",
			body: "everything is broken",
			code: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.code)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			client := NewClient(server.URL, "node-42")

			_, err := client.Hash(context.Background())
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrTransport)
		})
	}
}

func TestNetworkFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // сервер уже недоступен

	client := NewClient(server.URL, "node-42")

	_, err := client.Hash(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTransport)
}

func TestContextCancellation(t *testing.T) {
	block := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-block
	}))
	defer server.Close()
	defer close(block)

	client := NewClient(server.URL, "node-42")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.Hash(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTransport)
}
