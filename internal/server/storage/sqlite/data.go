package sqlite

import (
	"context"
	"fmt"

	"github.com/iudanet/synckeeper/internal/codec"
	"github.com/iudanet/synckeeper/internal/models"
	"github.com/iudanet/synckeeper/internal/server/storage"
	"github.com/iudanet/synckeeper/internal/store"
)

// Load загружает сохраненный снимок в пустое хранилище.
// Payload каждой записи хранится ее каноническим литералом, так что
// восстановление - это обычный разбор через реестр типов.
func (s *Storage) Load(ctx context.Context, st *store.Store) error {
	rows, err := s.db.QueryContext(ctx,
		`SELECT type_name, payload FROM records ORDER BY created DESC`)
	if err != nil {
		return fmt.Errorf("failed to query records: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var typeName, payload string
		if err := rows.Scan(&typeName, &payload); err != nil {
			return fmt.Errorf("failed to scan record: %w", err)
		}

		obj, err := codec.ParseObject([]byte(payload))
		if err != nil {
			return fmt.Errorf("%w: %v", storage.ErrCorruptSnapshot, err)
		}
		rec, err := s.registry.ParseRecord(typeName, obj)
		if err != nil {
			return fmt.Errorf("%w: %v", storage.ErrCorruptSnapshot, err)
		}
		if _, err := st.Add(rec); err != nil {
			return fmt.Errorf("failed to load record: %w", err)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to iterate records: %w", err)
	}

	tombRows, err := s.db.QueryContext(ctx,
		`SELECT type_name, created, deleted FROM tombstones ORDER BY created DESC`)
	if err != nil {
		return fmt.Errorf("failed to query tombstones: %w", err)
	}
	defer tombRows.Close()

	for tombRows.Next() {
		var typeName string
		var created, deleted int64
		if err := tombRows.Scan(&typeName, &created, &deleted); err != nil {
			return fmt.Errorf("failed to scan tombstone: %w", err)
		}
		if err := st.ApplyTombstone(typeName, models.Tombstone{Created: created, Deleted: deleted}); err != nil {
			return fmt.Errorf("failed to load tombstone: %w", err)
		}
	}
	if err := tombRows.Err(); err != nil {
		return fmt.Errorf("failed to iterate tombstones: %w", err)
	}

	return nil
}

// Save замещает сохраненный снимок текущим содержимым хранилища.
// Снимок пишется одной транзакцией: частично записанное состояние
// никогда не видно.
func (s *Storage) Save(ctx context.Context, st *store.Store) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, `DELETE FROM records`); err != nil {
		return fmt.Errorf("failed to clear records: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM tombstones`); err != nil {
		return fmt.Errorf("failed to clear tombstones: %w", err)
	}

	for _, typeName := range st.Registry().TypeNames() {
		for _, rec := range st.Records(typeName) {
			payload, err := codec.Serialize(models.MarshalRecord(rec))
			if err != nil {
				return fmt.Errorf("failed to serialize record: %w", err)
			}
			meta := rec.MetaInfo()
			_, err = tx.ExecContext(ctx,
				`INSERT INTO records (type_name, created, modified, payload) VALUES (?, ?, ?, ?)`,
				typeName, meta.Created, meta.Modified, string(payload))
			if err != nil {
				return fmt.Errorf("failed to insert record: %w", err)
			}
		}

		for _, tomb := range st.Tombstones(typeName) {
			_, err = tx.ExecContext(ctx,
				`INSERT INTO tombstones (type_name, created, deleted) VALUES (?, ?, ?)`,
				typeName, tomb.Created, tomb.Deleted)
			if err != nil {
				return fmt.Errorf("failed to insert tombstone: %w", err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit snapshot: %w", err)
	}

	return nil
}
