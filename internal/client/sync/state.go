package sync

import (
	"errors"
	"fmt"
)

// State представляет состояние конечного автомата синхронизации.
type State string

const (
	StateIdle        State = "idle"
	StateComparing   State = "comparing"
	StateReconciling State = "reconciling"
	StateResolving   State = "resolving"
	StateCommitting  State = "committing"
	StateSynced      State = "synced"
	StateFailed      State = "failed"
)

var (
	// ErrSyncFailed indicates that hashes still differ after all
	// reconciliation attempts
	ErrSyncFailed = errors.New("hashes differ after reconciliation")

	// ErrConflictsPending indicates that a mutating operation was
	// attempted while reconciliation conflicts await resolution
	ErrConflictsPending = errors.New("unresolved conflicts pending")
)

// SyncError оборачивает ошибку любой фазы синхронизации, фиксируя
// состояние автомата, в котором она произошла.
type SyncError struct {
	Err   error
	State State
}

func (e *SyncError) Error() string {
	return fmt.Sprintf("sync failed in state %s: %v", e.State, e.Err)
}

func (e *SyncError) Unwrap() error { return e.Err }
