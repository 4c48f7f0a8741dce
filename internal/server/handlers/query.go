package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/iudanet/synckeeper/internal/models"
	"github.com/iudanet/synckeeper/internal/server/reconcile"
	"github.com/iudanet/synckeeper/internal/store"
	"github.com/iudanet/synckeeper/pkg/api"
)

// Reconciler определяет интерфейс авторитетной стороны протокола
type Reconciler interface {
	Hash() (string, error)
	Add(ctx context.Context, typeName string, instance json.RawMessage) (string, error)
	Edit(ctx context.Context, typeName string, instance json.RawMessage) (string, error)
	Delete(ctx context.Context, typeName string, instance json.RawMessage) (string, error)
	Reconcile(ctx context.Context, lastSync int64, instances api.TypeIndex) (*api.ReconcileResponse, error)
	Resolve(ctx context.Context, instances api.TypeIndex) (*api.ReconcileResponse, error)
}

// QueryHandler обрабатывает запросы протокола синхронизации
type QueryHandler struct {
	logger     *slog.Logger
	reconciler Reconciler
}

// NewQueryHandler creates a new query handler
func NewQueryHandler(logger *slog.Logger, reconciler Reconciler) *QueryHandler {
	return &QueryHandler{
		logger:     logger,
		reconciler: reconciler,
	}
}

// HandleHash обрабатывает GET /api/v1/hash
// Единственный запрос протокола, доступный GET-ом: клиент сравнивает
// хеши перед тем, как гонять полноценный reconcile
func (h *QueryHandler) HandleHash(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}

	hash, err := h.reconciler.Hash()
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, hash)
}

// HandleQuery обрабатывает POST /api/v1/query
// Диспетчеризует по полю query тела запроса
func (h *QueryHandler) HandleQuery(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()

	var req api.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("Malformed query body", "error", err)
		h.writeErrorStatus(w, http.StatusBadRequest, "bad_request", "malformed request body")
		return
	}

	h.logger.Info("Query received",
		"query", req.Query,
		"type", req.Type,
		"client_id", r.Header.Get("X-Client-ID"))

	switch req.Query {
	case api.QueryHash:
		hash, err := h.reconciler.Hash()
		if err != nil {
			h.writeError(w, err)
			return
		}
		h.writeJSON(w, hash)

	case api.QueryAdd, api.QueryEdit, api.QueryDelete:
		h.handleMutation(ctx, w, req)

	case api.QueryReconcile:
		var data api.ReconcileData
		if err := json.Unmarshal(req.Data, &data); err != nil {
			h.writeErrorStatus(w, http.StatusBadRequest, "bad_request", "malformed reconcile data")
			return
		}
		resp, err := h.reconciler.Reconcile(ctx, data.Sync, data.Instances)
		if err != nil {
			h.writeError(w, err)
			return
		}
		h.writeJSON(w, resp)

	case api.QueryResolve:
		var instances api.TypeIndex
		if err := json.Unmarshal(req.Data, &instances); err != nil {
			h.writeErrorStatus(w, http.StatusBadRequest, "bad_request", "malformed resolve data")
			return
		}
		resp, err := h.reconciler.Resolve(ctx, instances)
		if err != nil {
			h.writeError(w, err)
			return
		}
		h.writeJSON(w, resp)

	default:
		h.writeErrorStatus(w, http.StatusBadRequest, "bad_request", "unknown query")
	}
}

// handleMutation обрабатывает три мутирующих запроса; ответ каждого -
// новый авторитетный хеш
func (h *QueryHandler) handleMutation(ctx context.Context, w http.ResponseWriter, req api.Request) {
	if req.Type == "" || len(req.Instance) == 0 {
		h.writeErrorStatus(w, http.StatusBadRequest, "bad_request", "type and instance are required")
		return
	}

	var hash string
	var err error
	switch req.Query {
	case api.QueryAdd:
		hash, err = h.reconciler.Add(ctx, req.Type, req.Instance)
	case api.QueryEdit:
		hash, err = h.reconciler.Edit(ctx, req.Type, req.Instance)
	case api.QueryDelete:
		hash, err = h.reconciler.Delete(ctx, req.Type, req.Instance)
	}
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, hash)
}

// writeJSON пишет успешный JSON ответ
func (h *QueryHandler) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json; charset=UTF-8")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("Failed to encode response", "error", err)
	}
}

// writeError отображает доменные ошибки на HTTP статусы
func (h *QueryHandler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrIDConflict):
		h.writeErrorStatus(w, http.StatusConflict, "id_conflict", err.Error())
	case errors.Is(err, store.ErrNoMatch):
		h.writeErrorStatus(w, http.StatusNotFound, "no_match", err.Error())
	case errors.Is(err, models.ErrUnknownType),
		errors.Is(err, models.ErrUnknownRank),
		errors.Is(err, models.ErrInvalidRecord),
		errors.Is(err, reconcile.ErrReconcile):
		h.writeErrorStatus(w, http.StatusBadRequest, "bad_request", err.Error())
	default:
		h.logger.Error("Query failed", "error", err)
		h.writeErrorStatus(w, http.StatusInternalServerError, "internal", "internal server error")
	}
}

// writeErrorStatus пишет JSON тело ошибки с заданным статусом
func (h *QueryHandler) writeErrorStatus(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json; charset=UTF-8")
	w.WriteHeader(status)
	resp := api.ErrorResponse{Error: code, Message: message}
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		h.logger.Error("Failed to encode error response", "error", err)
	}
}
