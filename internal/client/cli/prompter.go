package cli

import (
	"context"

	"github.com/iudanet/synckeeper/internal/client/iocli"
)

// ReloadPrompter реализует вопрос движка о перезагрузке с сервера
// при отсутствии локального кеша.
type ReloadPrompter struct {
	io iocli.IO
}

// NewReloadPrompter создает prompter поверх терминального IO
func NewReloadPrompter(io iocli.IO) *ReloadPrompter {
	return &ReloadPrompter{io: io}
}

// ConfirmRemoteReload спрашивает пользователя, загрузить ли данные
// с авторитетного хранилища
func (p *ReloadPrompter) ConfirmRemoteReload(ctx context.Context) (bool, error) {
	return p.io.Confirm("Local cache not found. Reload data from the server?")
}
