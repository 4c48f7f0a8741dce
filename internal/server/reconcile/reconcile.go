package reconcile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/iudanet/synckeeper/internal/codec"
	"github.com/iudanet/synckeeper/internal/crypto"
	"github.com/iudanet/synckeeper/internal/models"
	serverStorage "github.com/iudanet/synckeeper/internal/server/storage"
	"github.com/iudanet/synckeeper/internal/store"
	"github.com/iudanet/synckeeper/pkg/api"
)

// ErrReconcile indicates invalid reconciliation input: unknown rank,
// malformed instance or a choice the authoritative store cannot apply
var ErrReconcile = errors.New("invalid reconciliation data")

// Reconciler владеет авторитетным набором записей и выполняет
// трехстороннее слияние дельт клиентов. Мьютекс реконсилера - точка
// сериализации всей межклиентской конкурентности: два клиента,
// одновременно приславшие изменения, обрабатываются по очереди.
//
// Реконсилер никогда молча не теряет данные: каждый id любой из
// сторон попадает либо в примененное авторитетное состояние, либо
// в список конфликтов ответа.
type Reconciler struct {
	store   *store.Store
	persist serverStorage.DataStorage
	logger  *slog.Logger
	mu      sync.Mutex
}

// New создает реконсилер над авторитетным хранилищем.
func New(st *store.Store, persist serverStorage.DataStorage, logger *slog.Logger) *Reconciler {
	return &Reconciler{
		store:   st,
		persist: persist,
		logger:  logger,
	}
}

// hashLocked сериализует авторитетный набор и возвращает его хеш
func (r *Reconciler) hashLocked() (string, error) {
	data, err := r.store.Serialize()
	if err != nil {
		return "", err
	}
	return crypto.Hash(data), nil
}

// Hash возвращает хеш авторитетной канонической сериализации.
func (r *Reconciler) Hash() (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.hashLocked()
}

// parseRecord разбирает проволочный литерал активной записи
func (r *Reconciler) parseRecord(typeName string, instance json.RawMessage) (models.Record, error) {
	obj, err := codec.ParseObject(instance)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrReconcile, err)
	}
	if models.IsTombstone(obj) {
		return nil, fmt.Errorf("%w: expected record, got tombstone", ErrReconcile)
	}
	rec, err := r.store.Registry().ParseRecord(typeName, obj)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrReconcile, err)
	}
	return rec, nil
}

// commitLocked персистит авторитетный набор и возвращает его хеш
func (r *Reconciler) commitLocked(ctx context.Context) (string, error) {
	if err := r.persist.Save(ctx, r.store); err != nil {
		return "", fmt.Errorf("failed to persist authoritative set: %w", err)
	}
	return r.hashLocked()
}

// Add применяет запрос add: новая запись клиента.
// Коллизия id - ошибка; клиент разрешит расхождение следующим
// проходом reconcile.
func (r *Reconciler) Add(ctx context.Context, typeName string, instance json.RawMessage) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, err := r.parseRecord(typeName, instance)
	if err != nil {
		return "", err
	}
	if _, err := r.store.Add(rec); err != nil {
		return "", err
	}

	r.logger.Info("Record added", "type", typeName, "id", rec.MetaInfo().Created)
	return r.commitLocked(ctx)
}

// Edit применяет запрос edit: измененная запись клиента.
func (r *Reconciler) Edit(ctx context.Context, typeName string, instance json.RawMessage) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, err := r.parseRecord(typeName, instance)
	if err != nil {
		return "", err
	}
	if err := r.store.Replace(rec); err != nil {
		return "", err
	}

	r.logger.Info("Record replaced", "type", typeName, "id", rec.MetaInfo().Created)
	return r.commitLocked(ctx)
}

// Delete применяет запрос delete: tombstone клиента записывается
// как есть, чтобы обе стороны зафиксировали одинаковый момент
// удаления и канонические сериализации сошлись.
func (r *Reconciler) Delete(ctx context.Context, typeName string, instance json.RawMessage) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	obj, err := codec.ParseObject(instance)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrReconcile, err)
	}
	tomb, err := models.ParseTombstone(obj)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrReconcile, err)
	}
	if err := r.store.ApplyTombstone(typeName, tomb); err != nil {
		return "", err
	}

	r.logger.Info("Record deleted", "type", typeName, "id", tomb.Created)
	return r.commitLocked(ctx)
}

// clientVersion ищет id в дельте клиента по всем рангам
func clientVersion(client *models.RankSet, id int64) (models.ConflictVersion, bool) {
	if client == nil {
		return models.ConflictVersion{}, false
	}
	if rec, ok := client.New[id]; ok {
		return models.ConflictVersion{Record: rec}, true
	}
	if rec, ok := client.Modified[id]; ok {
		return models.ConflictVersion{Record: rec}, true
	}
	if tomb, ok := client.Deleted[id]; ok {
		t := tomb
		return models.ConflictVersion{Tombstone: &t}, true
	}
	return models.ConflictVersion{}, false
}

// serverVersion ищет id в авторитетном хранилище
func (r *Reconciler) serverVersion(typeName string, id int64) (models.ConflictVersion, bool) {
	if rec, ok := r.store.Get(typeName, id); ok {
		return models.ConflictVersion{Record: rec}, true
	}
	for _, tomb := range r.store.Tombstones(typeName) {
		if tomb.Created == id {
			t := tomb
			return models.ConflictVersion{Tombstone: &t}, true
		}
	}
	return models.ConflictVersion{}, false
}

// Reconcile выполняет трехстороннее слияние: авторитетный набор,
// watermark клиента и дельта клиента. Возвращает авторитетный хеш
// после слияния и дельту для применения клиентом.
func (r *Reconciler) Reconcile(ctx context.Context, lastSync int64, instances api.TypeIndex) (*api.ReconcileResponse, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	clientChanges, err := models.ParseChanges(r.store.Registry(), instances)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrReconcile, err)
	}

	// Серверная дельта относительно watermark-а клиента: что клиент
	// еще не видел
	serverChanges := r.store.Compile(lastSync)

	response := make(models.Changes)

	for _, typeName := range r.store.Registry().TypeNames() {
		client := clientChanges[typeName]
		server := serverChanges[typeName]
		if client == nil && server == nil {
			continue
		}
		rs := response.RankSet(typeName)

		// Серверные изменения размещаются в ответе предварительно;
		// id, о котором сообщили обе стороны, уходит в конфликт
		// парой [серверная версия, клиентская версия]
		if server != nil {
			for id, rec := range server.New {
				if cv, ok := clientVersion(client, id); ok {
					rs.Conflict[id] = []models.ConflictVersion{{Record: rec}, cv}
				} else {
					rs.New[id] = rec
				}
			}
			for id, rec := range server.Modified {
				if cv, ok := clientVersion(client, id); ok {
					rs.Conflict[id] = []models.ConflictVersion{{Record: rec}, cv}
				} else {
					rs.Modified[id] = rec
				}
			}
			for id, tomb := range server.Deleted {
				if cv, ok := clientVersion(client, id); ok {
					t := tomb
					rs.Conflict[id] = []models.ConflictVersion{{Tombstone: &t}, cv}
				} else {
					rs.Deleted[id] = tomb
				}
			}
		}

		if client == nil {
			continue
		}

		// Оставшиеся клиентские изменения применяются к авторитетному
		// набору либо уходят в конфликт
		for id, rec := range client.New {
			if _, taken := rs.Conflict[id]; taken {
				continue
			}
			if sv, ok := r.serverVersion(typeName, id); ok {
				rs.Conflict[id] = []models.ConflictVersion{sv, {Record: rec}}
				continue
			}
			if _, err := r.store.Add(rec); err != nil {
				return nil, err
			}
		}

		for id, rec := range client.Modified {
			if _, taken := rs.Conflict[id]; taken {
				continue
			}
			existing, ok := r.store.Get(typeName, id)
			if ok {
				existingModified := existing.MetaInfo().Modified
				if (existingModified == 0 || existingModified <= lastSync) &&
					rec.MetaInfo().Modified > existingModified {
					if err := r.store.Replace(rec); err != nil {
						return nil, err
					}
					continue
				}
			}
			// Серверной версии может не быть вовсе (правка записи,
			// неизвестной авторитетному набору)
			versions := make([]models.ConflictVersion, 0, 2)
			if sv, ok := r.serverVersion(typeName, id); ok {
				versions = append(versions, sv)
			}
			rs.Conflict[id] = append(versions, models.ConflictVersion{Record: rec})
		}

		for id, tomb := range client.Deleted {
			if _, taken := rs.Conflict[id]; taken {
				continue
			}
			if _, ok := r.store.Get(typeName, id); ok {
				if err := r.store.ApplyTombstone(typeName, tomb); err != nil {
					return nil, err
				}
				continue
			}
			t := tomb
			versions := make([]models.ConflictVersion, 0, 2)
			if sv, ok := r.serverVersion(typeName, id); ok {
				versions = append(versions, sv)
			}
			rs.Conflict[id] = append(versions, models.ConflictVersion{Tombstone: &t})
		}
	}

	response.Prune()

	hash, err := r.commitLocked(ctx)
	if err != nil {
		return nil, err
	}

	data, err := response.Wire()
	if err != nil {
		return nil, err
	}

	r.logger.Info("Reconciled",
		"last_sync", lastSync,
		"conflicts", response.ConflictCount(),
		"hash", hash)

	return &api.ReconcileResponse{Hash: hash, Data: data}, nil
}

// Resolve применяет выбранные версии конфликтующих записей.
// Выбранные записи применяются подстановкой или добавлением, выбранные
// tombstone-ы - записью следа удаления. Выбор записи, id которой уже
// лежит в tombstone-ах, отклоняется: записи не воскресают.
// Ответ несет примененные версии, чтобы разрешивший клиент привел
// свое хранилище к авторитетному состоянию.
func (r *Reconciler) Resolve(ctx context.Context, instances api.TypeIndex) (*api.ReconcileResponse, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	choices, err := models.ParseChanges(r.store.Registry(), instances)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrReconcile, err)
	}

	response := make(models.Changes)

	for typeName, rs := range choices {
		out := response.RankSet(typeName)

		applyRecord := func(id int64, rec models.Record) error {
			for _, tomb := range r.store.Tombstones(typeName) {
				if tomb.Created == id {
					return fmt.Errorf("%w: id %d is deleted and cannot be resurrected", ErrReconcile, id)
				}
			}
			if _, ok := r.store.Get(typeName, id); ok {
				if err := r.store.Replace(rec); err != nil {
					return err
				}
			} else if _, err := r.store.Add(rec); err != nil {
				return err
			}
			out.Modified[id] = rec
			return nil
		}

		for id, rec := range rs.New {
			if err := applyRecord(id, rec); err != nil {
				return nil, err
			}
		}
		for id, rec := range rs.Modified {
			if err := applyRecord(id, rec); err != nil {
				return nil, err
			}
		}
		for id, tomb := range rs.Deleted {
			if err := r.store.ApplyTombstone(typeName, tomb); err != nil {
				return nil, err
			}
			out.Deleted[id] = tomb
		}
		if len(rs.Conflict) > 0 {
			return nil, fmt.Errorf("%w: resolve choices cannot carry rank %s", ErrReconcile, api.RankConflict)
		}
	}

	response.Prune()

	hash, err := r.commitLocked(ctx)
	if err != nil {
		return nil, err
	}

	data, err := response.Wire()
	if err != nil {
		return nil, err
	}

	r.logger.Info("Conflicts resolved", "hash", hash)

	return &api.ReconcileResponse{Hash: hash, Data: data}, nil
}
