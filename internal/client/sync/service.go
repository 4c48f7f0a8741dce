package sync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	gosync "sync"

	httpClient "github.com/iudanet/synckeeper/internal/client/api"
	"github.com/iudanet/synckeeper/internal/client/cache"
	"github.com/iudanet/synckeeper/internal/codec"
	"github.com/iudanet/synckeeper/internal/crypto"
	"github.com/iudanet/synckeeper/internal/models"
	"github.com/iudanet/synckeeper/internal/store"
	"github.com/iudanet/synckeeper/pkg/api"
)

// SyncResult contains the outcome of one sync pass.
// Возвращается по значению и после возврата не меняется.
type SyncResult struct {
	// Conflicts - конфликтующие записи, ожидающие внешнего разрешения;
	// nil когда конфликтов нет
	Conflicts models.Changes
	// Hash - авторитетный хеш, с которым сошлись (или с которым
	// предстоит сойтись после разрешения конфликтов)
	Hash string
	// Time - момент успешной синхронизации, 0 при неуспехе
	Time int64
	// Succeeds - true когда хранилища сошлись
	Succeeds bool
}

// Engine управляет конечным автоматом синхронизации и владеет
// watermark-ом LastSync: он единственный, кто его записывает, и
// неуспешный проход никогда не продвигает watermark.
//
// Движок однописательный: публичные операции сериализуются мьютексом
// на все время конвейера предварительная синхронизация -> запись ->
// заключительная синхронизация.
type Engine struct {
	store     *store.Store
	cache     *cache.Cache
	apiClient httpClient.ClientAPI
	logger    *slog.Logger
	now       func() int64
	conflicts models.Changes
	state     State
	lastSync  int64
	mu        gosync.Mutex
}

// NewEngine создает движок синхронизации.
// now - инжектируемые часы в миллисекундах; nil означает store.Millis.
func NewEngine(st *store.Store, c *cache.Cache, apiClient httpClient.ClientAPI, logger *slog.Logger, now func() int64) *Engine {
	if now == nil {
		now = store.Millis
	}
	return &Engine{
		store:     st,
		cache:     c,
		apiClient: apiClient,
		logger:    logger,
		now:       now,
		state:     StateIdle,
	}
}

// Registry возвращает реестр типов хранилища.
func (e *Engine) Registry() *models.Registry {
	return e.store.Registry()
}

// State возвращает последнее состояние автомата.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// LastSync возвращает watermark последней успешной синхронизации.
func (e *Engine) LastSync() int64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lastSync
}

// Conflicts возвращает конфликты, ожидающие разрешения.
func (e *Engine) Conflicts() models.Changes {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.conflicts
}

// fail фиксирует неуспех автомата и оборачивает ошибку состоянием
func (e *Engine) fail(state State, err error) (SyncResult, error) {
	e.state = StateFailed
	return SyncResult{}, &SyncError{State: state, Err: err}
}

// Init читает локальный кеш, загружает хранилище и выполняет
// первый проход синхронизации. Отсутствие локальных данных -
// восстановимое состояние: загружается пустой набор и синхронизация
// идет с LastSync из кеша (0 до первой успешной синхронизации).
func (e *Engine) Init(ctx context.Context) (SyncResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	plaintext, err := e.cache.ReadData(ctx)
	if err != nil {
		return e.fail(StateComparing, err)
	}

	value, err := codec.Parse([]byte(plaintext))
	if err != nil {
		return e.fail(StateComparing, err)
	}
	if err := e.store.LoadFromCanonical(value); err != nil {
		return e.fail(StateComparing, err)
	}

	lastSync, err := e.cache.LastSync(ctx)
	if err != nil {
		return e.fail(StateComparing, err)
	}
	e.lastSync = lastSync

	e.logger.Info("Store loaded", "last_sync", lastSync)

	return e.syncLocked(ctx, "", "")
}

// Sync выполняет один проход синхронизации.
// Оба хеша опциональны: пустая строка означает пересчитать локальный
// или запросить удаленный.
func (e *Engine) Sync(ctx context.Context, localHash, remoteHash string) (SyncResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.syncLocked(ctx, localHash, remoteHash)
}

// syncLocked - тело прохода синхронизации; вызывается под мьютексом
func (e *Engine) syncLocked(ctx context.Context, localHash, remoteHash string) (SyncResult, error) {
	// Comparing: выясняем, расходятся ли хранилища
	e.state = StateComparing

	if localHash == "" {
		data, err := e.store.Serialize()
		if err != nil {
			return e.fail(StateComparing, err)
		}
		localHash = crypto.Hash(data)
	}

	if remoteHash == "" {
		h, err := e.apiClient.Hash(ctx)
		if err != nil {
			return e.fail(StateComparing, err)
		}
		remoteHash = h
	}

	if crypto.ValidHash(localHash) && localHash == remoteHash {
		return e.commit(ctx, remoteHash)
	}

	e.logger.Info("Stores diverged, reconciling",
		"local_hash", localHash, "remote_hash", remoteHash)

	// Reconciling: отправляем дельту с момента последней синхронизации
	e.state = StateReconciling

	delta := e.store.Compile(e.lastSync)
	instances, err := delta.Wire()
	if err != nil {
		return e.fail(StateReconciling, err)
	}

	resp, err := e.apiClient.Reconcile(ctx, e.lastSync, instances)
	if err != nil {
		return e.fail(StateReconciling, err)
	}

	conflicts, err := e.apply(resp.Data)
	if err != nil {
		return e.fail(StateReconciling, err)
	}

	if !conflicts.Empty() {
		// Resolving: разрешение конфликтов - внешний коллаборатор;
		// хранилище не мутировано, watermark не продвинут
		e.state = StateResolving
		e.conflicts = conflicts
		e.logger.Warn("Reconciliation produced conflicts",
			"count", conflicts.ConflictCount())
		return SyncResult{Succeeds: false, Hash: resp.Hash, Conflicts: conflicts}, nil
	}

	// Committing: проверяем, что применение ответа сошлось с
	// авторитетным хешом, и записываем результат насквозь
	e.state = StateCommitting

	data, err := e.store.Serialize()
	if err != nil {
		return e.fail(StateCommitting, err)
	}
	localHash = crypto.Hash(data)
	if localHash != resp.Hash {
		return e.fail(StateCommitting,
			fmt.Errorf("%w: local %s, remote %s", ErrSyncFailed, localHash, resp.Hash))
	}

	if _, err := e.cache.WriteData(ctx, string(data)); err != nil {
		return e.fail(StateCommitting, err)
	}

	return e.commit(ctx, resp.Hash)
}

// commit фиксирует успешную синхронизацию: продвигает и персистит
// LastSync, возвращает замороженный результат
func (e *Engine) commit(ctx context.Context, hash string) (SyncResult, error) {
	t := e.now()
	if err := e.cache.SetLastSync(ctx, t); err != nil {
		return e.fail(StateCommitting, err)
	}
	e.lastSync = t
	e.conflicts = nil
	e.state = StateSynced

	e.logger.Info("Synchronized", "hash", hash, "time", t)

	return SyncResult{Succeeds: true, Hash: hash, Time: t}, nil
}

// apply применяет дельту ответа reconcile/resolve к хранилищу.
// Ранг new добавляет, modified подставляет, deleted записывает
// tombstone (толерантно к уже отсутствующей записи). Конфликты
// собираются и возвращаются без мутации хранилища.
func (e *Engine) apply(idx api.TypeIndex) (models.Changes, error) {
	changes, err := models.ParseChanges(e.store.Registry(), idx)
	if err != nil {
		return nil, err
	}

	conflicts := make(models.Changes)

	for typeName, rs := range changes {
		for _, rec := range rs.New {
			if _, err := e.store.Add(rec); err != nil {
				return nil, fmt.Errorf("failed to apply new record: %w", err)
			}
		}
		for _, rec := range rs.Modified {
			if err := e.store.Replace(rec); err != nil {
				// Разрешение конфликта может выбрать версию, активной
				// копии которой у клиента нет
				if !errors.Is(err, store.ErrNoMatch) {
					return nil, fmt.Errorf("failed to apply modified record: %w", err)
				}
				if _, aerr := e.store.Add(rec); aerr != nil {
					return nil, fmt.Errorf("failed to apply modified record: %w", aerr)
				}
			}
		}
		for _, tomb := range rs.Deleted {
			if err := e.store.ApplyTombstone(typeName, tomb); err != nil {
				return nil, fmt.Errorf("failed to apply tombstone: %w", err)
			}
		}
		if len(rs.Conflict) > 0 {
			dst := conflicts.RankSet(typeName)
			for id, versions := range rs.Conflict {
				dst.Conflict[id] = versions
			}
		}
	}

	conflicts.Prune()
	return conflicts, nil
}

// Resolve применяет выбранные версии конфликтующих записей и заново
// входит в Comparing со свежими хешами. choices - отображение
// тип -> id -> выбранная версия: записи рангами new/modified,
// tombstone-ы рангом deleted.
func (e *Engine) Resolve(ctx context.Context, choices models.Changes) (SyncResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.state = StateResolving

	instances, err := choices.Wire()
	if err != nil {
		return e.fail(StateResolving, err)
	}

	resp, err := e.apiClient.Resolve(ctx, instances)
	if err != nil {
		return e.fail(StateResolving, err)
	}

	conflicts, err := e.apply(resp.Data)
	if err != nil {
		return e.fail(StateResolving, err)
	}
	if !conflicts.Empty() {
		e.conflicts = conflicts
		return SyncResult{Succeeds: false, Hash: resp.Hash, Conflicts: conflicts}, nil
	}
	e.conflicts = nil

	return e.syncLocked(ctx, "", resp.Hash)
}

// Save выполняет конвейер сохранения новой записи: предварительная
// синхронизация, выдача id, добавление, параллельная локальная и
// удаленная запись, заключительная синхронизация.
func (e *Engine) Save(ctx context.Context, rec models.Record) (SyncResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	pre, err := e.syncLocked(ctx, "", "")
	if err != nil {
		return pre, err
	}
	if !pre.Succeeds {
		return pre, &SyncError{State: StateResolving, Err: ErrConflictsPending}
	}

	rec.MetaInfo().Created = e.store.NewID()
	rec.MetaInfo().Modified = 0

	if _, err := e.store.Add(rec); err != nil {
		return e.fail(StateCommitting, err)
	}

	instance, err := codec.Serialize(models.MarshalRecord(rec))
	if err != nil {
		return e.fail(StateCommitting, err)
	}

	localHash, remoteHash, err := e.writeThrough(ctx, func() (string, error) {
		return e.apiClient.Add(ctx, rec.TypeName(), instance)
	})
	if err != nil {
		return e.fail(StateCommitting, err)
	}

	return e.syncLocked(ctx, localHash, remoteHash)
}

// Edit выполняет конвейер изменения существующей записи.
func (e *Engine) Edit(ctx context.Context, rec models.Record) (SyncResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	pre, err := e.syncLocked(ctx, "", "")
	if err != nil {
		return pre, err
	}
	if !pre.Succeeds {
		return pre, &SyncError{State: StateResolving, Err: ErrConflictsPending}
	}

	meta := rec.MetaInfo()
	meta.Modified = e.now()
	// Правка в ту же миллисекунду, что и создание: modified обязан
	// строго превышать created
	if meta.Modified <= meta.Created {
		meta.Modified = meta.Created + 1
	}

	if err := e.store.Replace(rec); err != nil {
		return e.fail(StateCommitting, err)
	}

	instance, err := codec.Serialize(models.MarshalRecord(rec))
	if err != nil {
		return e.fail(StateCommitting, err)
	}

	localHash, remoteHash, err := e.writeThrough(ctx, func() (string, error) {
		return e.apiClient.Edit(ctx, rec.TypeName(), instance)
	})
	if err != nil {
		return e.fail(StateCommitting, err)
	}

	return e.syncLocked(ctx, localHash, remoteHash)
}

// Delete выполняет конвейер удаления записи: локально остается
// tombstone, и тот же tombstone уходит на сервер, чтобы обе стороны
// зафиксировали одинаковый момент удаления.
func (e *Engine) Delete(ctx context.Context, rec models.Record) (SyncResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	pre, err := e.syncLocked(ctx, "", "")
	if err != nil {
		return pre, err
	}
	if !pre.Succeeds {
		return pre, &SyncError{State: StateResolving, Err: ErrConflictsPending}
	}

	tomb, err := e.store.Remove(rec, true)
	if err != nil {
		return e.fail(StateCommitting, err)
	}

	instance, err := codec.Serialize(models.MarshalTombstone(tomb))
	if err != nil {
		return e.fail(StateCommitting, err)
	}

	localHash, remoteHash, err := e.writeThrough(ctx, func() (string, error) {
		return e.apiClient.Delete(ctx, rec.TypeName(), instance)
	})
	if err != nil {
		return e.fail(StateCommitting, err)
	}

	return e.syncLocked(ctx, localHash, remoteHash)
}

// writeThrough выполняет локальную запись кеша и удаленный POST
// параллельно и дожидается обоих: два пути ввода-вывода независимы
// и не нуждаются в результатах друг друга. Возвращает хеш локального
// plaintext-а и новый авторитетный хеш.
func (e *Engine) writeThrough(ctx context.Context, post func() (string, error)) (string, string, error) {
	data, err := e.store.Serialize()
	if err != nil {
		return "", "", err
	}

	type remoteResult struct {
		hash string
		err  error
	}
	ch := make(chan remoteResult, 1)
	go func() {
		hash, err := post()
		ch <- remoteResult{hash: hash, err: err}
	}()

	localHash, localErr := e.cache.WriteData(ctx, string(data))
	remote := <-ch

	if localErr != nil {
		return "", "", fmt.Errorf("local write failed: %w", localErr)
	}
	if remote.err != nil {
		return "", "", fmt.Errorf("remote write failed: %w", remote.err)
	}

	return localHash, remote.hash, nil
}

// Search возвращает клоны активных записей типа по предикату.
// Read-only: не инициирует синхронизацию.
func (e *Engine) Search(typeName string, match func(models.Record) bool) ([]models.Record, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.store.Search(typeName, match)
}
