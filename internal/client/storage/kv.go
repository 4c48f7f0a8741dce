package storage

import "context"

//go:generate moq -out kv_mock.go . KV

// KV определяет персистентное key-value хранилище, предоставляемое
// хостом: строковые ключи, строковые значения. Движок хранит в нем
// ровно два логических ключа на namespace: зашифрованную сериализацию
// набора записей и timestamp последней синхронизации.
// Хранилище считается однопроцессным; конкурентный доступ извне
// не определен.
type KV interface {
	// Get возвращает значение по ключу; ErrKeyNotFound если ключа нет
	Get(ctx context.Context, key string) (string, error)

	// Put записывает значение по ключу
	Put(ctx context.Context, key, value string) error

	// Delete удаляет ключ; отсутствие ключа не считается ошибкой
	Delete(ctx context.Context, key string) error

	// Close освобождает ресурсы хранилища
	Close() error
}
