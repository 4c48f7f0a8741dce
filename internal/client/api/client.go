package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/iudanet/synckeeper/internal/crypto"
	"github.com/iudanet/synckeeper/pkg/api"
)

// ErrTransport indicates network failure, timeout or a non-OK response status
var ErrTransport = errors.New("transport error")

//go:generate moq -out client_mock.go . ClientAPI

// ClientAPI определяет интерфейс транспорта к авторитетному хранилищу.
// Все запросы кроме Hash уходят POST-ом на единый endpoint.
type ClientAPI interface {
	// Hash возвращает хеш авторитетной канонической сериализации
	Hash(ctx context.Context) (string, error)

	// Add отправляет новую запись; возвращает новый авторитетный хеш
	Add(ctx context.Context, typeName string, instance json.RawMessage) (string, error)

	// Edit отправляет измененную запись; возвращает новый авторитетный хеш
	Edit(ctx context.Context, typeName string, instance json.RawMessage) (string, error)

	// Delete отправляет tombstone удаления; возвращает новый авторитетный хеш
	Delete(ctx context.Context, typeName string, instance json.RawMessage) (string, error)

	// Reconcile отправляет дельту клиента и watermark последней
	// синхронизации; возвращает авторитетный хеш после слияния и
	// дельту для применения клиентом
	Reconcile(ctx context.Context, sync int64, instances api.TypeIndex) (*api.ReconcileResponse, error)

	// Resolve отправляет выбранные версии конфликтующих записей
	Resolve(ctx context.Context, data api.TypeIndex) (*api.ReconcileResponse, error)
}

// Client представляет HTTP клиент для взаимодействия с сервером
type Client struct {
	httpClient *http.Client
	baseURL    string
	nodeID     string
}

// NewClient создает новый API клиент.
// nodeID - идентификатор клиентского узла, уходит в заголовок
// X-Client-ID и серверные логи.
func NewClient(baseURL, nodeID string) *Client {
	return &Client{
		baseURL: baseURL,
		nodeID:  nodeID,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Hash запрашивает хеш авторитетного хранилища через GET endpoint
func (c *Client) Hash(ctx context.Context) (string, error) {
	var hash string
	if err := c.doRequest(ctx, http.MethodGet, "/api/v1/hash", nil, &hash); err != nil {
		return "", fmt.Errorf("hash request failed: %w", err)
	}
	if !crypto.ValidHash(hash) {
		return "", fmt.Errorf("%w: malformed hash %q", ErrTransport, hash)
	}
	return hash, nil
}

// Add отправляет запрос add
func (c *Client) Add(ctx context.Context, typeName string, instance json.RawMessage) (string, error) {
	return c.mutate(ctx, api.QueryAdd, typeName, instance)
}

// Edit отправляет запрос edit
func (c *Client) Edit(ctx context.Context, typeName string, instance json.RawMessage) (string, error) {
	return c.mutate(ctx, api.QueryEdit, typeName, instance)
}

// Delete отправляет запрос delete
func (c *Client) Delete(ctx context.Context, typeName string, instance json.RawMessage) (string, error) {
	return c.mutate(ctx, api.QueryDelete, typeName, instance)
}

// mutate выполняет один из трех мутирующих запросов.
// Ответ сервера - новый авторитетный хеш.
func (c *Client) mutate(ctx context.Context, query, typeName string, instance json.RawMessage) (string, error) {
	req := api.Request{
		Query:    query,
		Type:     typeName,
		Instance: instance,
	}

	var hash string
	if err := c.doRequest(ctx, http.MethodPost, "/api/v1/query", req, &hash); err != nil {
		return "", fmt.Errorf("%s request failed: %w", query, err)
	}
	if !crypto.ValidHash(hash) {
		return "", fmt.Errorf("%w: malformed hash %q", ErrTransport, hash)
	}
	return hash, nil
}

// Reconcile отправляет запрос reconcile
func (c *Client) Reconcile(ctx context.Context, sync int64, instances api.TypeIndex) (*api.ReconcileResponse, error) {
	data, err := json.Marshal(api.ReconcileData{Sync: sync, Instances: instances})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal reconcile data: %w", err)
	}

	req := api.Request{Query: api.QueryReconcile, Data: data}

	var resp api.ReconcileResponse
	if err := c.doRequest(ctx, http.MethodPost, "/api/v1/query", req, &resp); err != nil {
		return nil, fmt.Errorf("reconcile request failed: %w", err)
	}
	return &resp, nil
}

// Resolve отправляет запрос resolve
func (c *Client) Resolve(ctx context.Context, data api.TypeIndex) (*api.ReconcileResponse, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal resolve data: %w", err)
	}

	req := api.Request{Query: api.QueryResolve, Data: raw}

	var resp api.ReconcileResponse
	if err := c.doRequest(ctx, http.MethodPost, "/api/v1/query", req, &resp); err != nil {
		return nil, fmt.Errorf("resolve request failed: %w", err)
	}
	return &resp, nil
}

// doRequest выполняет HTTP запрос
func (c *Client) doRequest(ctx context.Context, method, path string, body, result any) error {
	url := c.baseURL + path

	var bodyReader io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json; charset=UTF-8")
	}
	req.Header.Set("X-Client-ID", c.nodeID)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrTransport, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: failed to read response body: %v", ErrTransport, err)
	}

	// Любой статус кроме 2xx - ошибка транспорта
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var errResp api.ErrorResponse
		if jerr := json.Unmarshal(respBody, &errResp); jerr == nil && errResp.Message != "" {
			return fmt.Errorf("%w: server error (%d): %s", ErrTransport, resp.StatusCode, errResp.Message)
		}
		return fmt.Errorf("%w: request failed with status %d: %s", ErrTransport, resp.StatusCode, string(respBody))
	}

	if result != nil {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("%w: failed to decode response: %v", ErrTransport, err)
		}
	}

	return nil
}
