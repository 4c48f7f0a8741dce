package store

import "errors"

// Ошибки хранилища записей. Хранилище отдает их вызывающему коду
// напрямую, без оборачивания в ошибки синхронизации.
var (
	// ErrIDConflict indicates that add would collide with an existing _created
	ErrIDConflict = errors.New("record id already exists")

	// ErrNoMatch indicates that a replace/remove target is absent
	ErrNoMatch = errors.New("no matching record")
)
