package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/iudanet/synckeeper/internal/client/storage"
	"github.com/iudanet/synckeeper/internal/crypto"
)

// EmptySet - каноническая сериализация пустого набора записей,
// которую read отдает при отсутствии локальных данных
const EmptySet = "{}"

//go:generate moq -out prompter_mock.go . Prompter

// Prompter представляет внешнего коллаборатора для вопросов пользователю.
// Движок задает единственный вопрос: перезагрузить ли данные с
// авторитетного хранилища, когда локальный кеш отсутствует.
type Prompter interface {
	ConfirmRemoteReload(ctx context.Context) (bool, error)
}

// Cache - зашифрованный локальный кеш поверх host KV хранилища.
// Два логических ключа на namespace prefix K: K-data хранит
// зашифрованную каноническую сериализацию набора записей, K-sync -
// timestamp последней успешной синхронизации десятичной строкой.
type Cache struct {
	kv       storage.KV
	prompter Prompter
	logger   *slog.Logger
	prefix   string
	password string
}

// New создает кеш над host KV.
// password используется для вывода ключа шифрования; в разработке
// допустим crypto.DevPassword, перед развертыванием он обязан быть
// заменен на пользовательский.
func New(kv storage.KV, prompter Prompter, logger *slog.Logger, prefix, password string) *Cache {
	return &Cache{
		kv:       kv,
		prompter: prompter,
		logger:   logger,
		prefix:   prefix,
		password: password,
	}
}

// DataKey возвращает ключ зашифрованного набора записей.
func (c *Cache) DataKey() string { return c.prefix + "-data" }

// SyncKey возвращает ключ timestamp-а последней синхронизации.
func (c *Cache) SyncKey() string { return c.prefix + "-sync" }

// ReadData читает и расшифровывает набор записей.
// Отсутствие ключа - восстановимое состояние: пользователю задается
// вопрос о перезагрузке с сервера, и в обоих случаях возвращается
// пустой набор - при согласии первый же проход синхронизации с
// LastSync=0 вытянет авторитетный набор через reconcile.
// Ошибка расшифровки отдается вызывающему коду как есть.
func (c *Cache) ReadData(ctx context.Context) (string, error) {
	raw, err := c.kv.Get(ctx, c.DataKey())
	if err != nil {
		if errors.Is(err, storage.ErrKeyNotFound) {
			reload, perr := c.prompter.ConfirmRemoteReload(ctx)
			if perr != nil {
				return "", fmt.Errorf("reload prompt failed: %w", perr)
			}
			if reload {
				c.logger.Info("No local data, reloading from remote on next sync")
			} else {
				c.logger.Info("No local data, user declined remote reload, starting empty")
			}
			return EmptySet, nil
		}
		return "", fmt.Errorf("failed to read %s: %w", c.DataKey(), err)
	}

	box, err := crypto.ParseBox([]byte(raw))
	if err != nil {
		return "", fmt.Errorf("failed to parse cipher container: %w", err)
	}

	plaintext, err := crypto.Decrypt(box, c.password)
	if err != nil {
		return "", fmt.Errorf("failed to decrypt %s: %w", c.DataKey(), err)
	}

	return string(plaintext), nil
}

// WriteData шифрует и сохраняет набор записей.
// Возвращает hex хеш plaintext-а ДО шифрования: именно он осмыслен
// для сравнения с хешом авторитетного хранилища, и вызывающий код
// может передать его следующему проходу синхронизации, не пересчитывая.
func (c *Cache) WriteData(ctx context.Context, plaintext string) (string, error) {
	box, err := crypto.Encrypt([]byte(plaintext), c.password)
	if err != nil {
		return "", fmt.Errorf("failed to encrypt data: %w", err)
	}

	data, err := box.Marshal()
	if err != nil {
		return "", fmt.Errorf("failed to marshal cipher container: %w", err)
	}

	if err := c.kv.Put(ctx, c.DataKey(), string(data)); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", c.DataKey(), err)
	}

	return crypto.Hash([]byte(plaintext)), nil
}

// LastSync возвращает timestamp последней успешной синхронизации,
// 0 если синхронизация еще не выполнялась.
func (c *Cache) LastSync(ctx context.Context) (int64, error) {
	raw, err := c.kv.Get(ctx, c.SyncKey())
	if err != nil {
		if errors.Is(err, storage.ErrKeyNotFound) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to read %s: %w", c.SyncKey(), err)
	}

	ts, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("corrupt %s value %q: %w", c.SyncKey(), raw, err)
	}

	return ts, nil
}

// SetLastSync сохраняет timestamp последней успешной синхронизации.
func (c *Cache) SetLastSync(ctx context.Context, ts int64) error {
	if err := c.kv.Put(ctx, c.SyncKey(), strconv.FormatInt(ts, 10)); err != nil {
		return fmt.Errorf("failed to write %s: %w", c.SyncKey(), err)
	}
	return nil
}
