package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/iudanet/synckeeper/internal/client/iocli"
	"github.com/iudanet/synckeeper/internal/client/sync"
	"github.com/iudanet/synckeeper/internal/crypto"
	"github.com/iudanet/synckeeper/internal/validation"
)

// EnvPassword - переменная окружения с паролем шифрования
const EnvPassword = "SYNCKEEPER_PASSWORD"

// Passwords задает неинтерактивные источники пароля шифрования
type Passwords struct {
	FromFile string
	FromArgs string
}

// Cli связывает команды клиента с движком синхронизации
type Cli struct {
	engine *sync.Engine
	io     iocli.IO
}

// New создает CLI поверх движка
func New(engine *sync.Engine, io iocli.IO) *Cli {
	return &Cli{
		engine: engine,
		io:     io,
	}
}

// ReadEncryptionPassword получает пароль шифрования по приоритету:
// 1. Переменная окружения SYNCKEEPER_PASSWORD
// 2. Файл из параметра -password-file
// 3. Параметр -password
// 4. Интерактивный запрос (fallback)
func ReadEncryptionPassword(io iocli.IO, passwords Passwords) (string, error) {
	password, err := sourcePassword(io, passwords)
	if err != nil {
		return "", err
	}
	if err := validation.ValidatePassword(password); err != nil {
		return "", fmt.Errorf("invalid password: %w", err)
	}
	return password, nil
}

// sourcePassword перебирает источники пароля в порядке приоритета
func sourcePassword(io iocli.IO, passwords Passwords) (string, error) {
	if envPassword := os.Getenv(EnvPassword); envPassword != "" {
		return envPassword, nil
	}

	if passwords.FromFile != "" {
		content, err := os.ReadFile(passwords.FromFile)
		if err != nil {
			return "", fmt.Errorf("failed to read password file: %w", err)
		}
		password := strings.TrimSpace(string(content))
		if password == "" {
			return "", fmt.Errorf("password file is empty")
		}
		return password, nil
	}

	if passwords.FromArgs != "" {
		return passwords.FromArgs, nil
	}

	password, err := io.ReadPassword("Encryption password: ")
	if err != nil {
		return "", err
	}
	if password == "" {
		// Пустой ввод откатывается на встроенный пароль разработки
		io.Println("WARNING: using built-in development password; replace before any real deployment")
		return crypto.DevPassword, nil
	}
	return password, nil
}

// PrintUsage печатает справку по командам
func PrintUsage(io iocli.IO) {
	io.Println("Usage: synckeeper [flags] <command> [args]")
	io.Println("")
	io.Println("Commands:")
	io.Println("  init                     load local cache and synchronize")
	io.Println("  add <type>               add a record (credential, note, card)")
	io.Println("  list [type]              list records")
	io.Println("  edit <type> <id>         edit a record")
	io.Println("  delete <type> <id>       delete a record")
	io.Println("  sync                     synchronize with the server")
	io.Println("  resolve                  resolve pending sync conflicts")
	io.Println("")
	io.Println("Flags: -server, -db, -prefix, -password, -password-file, -version")
}
