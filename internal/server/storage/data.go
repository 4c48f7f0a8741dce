package storage

import (
	"context"

	"github.com/iudanet/synckeeper/internal/store"
)

// DataStorage defines interface for authoritative record set persistence.
// Реконсилер держит авторитетный набор в памяти и после каждой
// примененной мутации сбрасывает снимок целиком: набор невелик, а
// атомарность снимка проще рассуждений об инкрементальных апдейтах.
type DataStorage interface {
	// Load загружает сохраненный набор в пустое хранилище.
	// Отсутствие сохраненных данных - не ошибка: хранилище остается пустым.
	Load(ctx context.Context, st *store.Store) error

	// Save замещает сохраненный снимок текущим содержимым хранилища
	Save(ctx context.Context, st *store.Store) error

	// Close releases storage resources
	Close() error
}
