package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/google/uuid"

	apiClient "github.com/iudanet/synckeeper/internal/client/api"
	"github.com/iudanet/synckeeper/internal/client/cache"
	"github.com/iudanet/synckeeper/internal/client/cli"
	"github.com/iudanet/synckeeper/internal/client/iocli"
	"github.com/iudanet/synckeeper/internal/client/storage/boltdb"
	syncEngine "github.com/iudanet/synckeeper/internal/client/sync"
	"github.com/iudanet/synckeeper/internal/models"
	"github.com/iudanet/synckeeper/internal/store"
	"github.com/iudanet/synckeeper/internal/validation"
)

var (
	// Version information set via ldflags during build
	Version   = "dev"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

func main() {
	// Глобальные флаги
	showVersion := flag.Bool("version", false, "Show version information")
	serverURL := flag.String("server", "http://localhost:8080", "Server URL")
	dbPath := flag.String("db", "synckeeper-client.db", "Path to local database")
	prefix := flag.String("prefix", "synckeeper", "Local cache namespace prefix")
	password := flag.String("password", "", "Encryption password (prefer SYNCKEEPER_PASSWORD)")
	passwordFile := flag.String("password-file", "", "File with encryption password")

	flag.Parse()

	if *showVersion {
		printVersion()
		os.Exit(0)
	}

	stdio := iocli.NewStdio()

	args := flag.Args()
	if len(args) == 0 {
		cli.PrintUsage(stdio)
		os.Exit(1)
	}
	command := args[0]

	if err := run(command, args[1:], stdio, options{
		serverURL:    *serverURL,
		dbPath:       *dbPath,
		prefix:       *prefix,
		password:     *password,
		passwordFile: *passwordFile,
	}); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

type options struct {
	serverURL    string
	dbPath       string
	prefix       string
	password     string
	passwordFile string
}

// run собирает движок и выполняет команду
func run(command string, args []string, stdio iocli.IO, opts options) error {
	ctx := context.Background()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	}))

	if err := validation.ValidatePrefix(opts.prefix); err != nil {
		return fmt.Errorf("invalid prefix: %w", err)
	}

	password, err := cli.ReadEncryptionPassword(stdio, cli.Passwords{
		FromFile: opts.passwordFile,
		FromArgs: opts.password,
	})
	if err != nil {
		return err
	}

	// Открываем BoltDB storage
	kv, err := boltdb.New(ctx, opts.dbPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() {
		if err := kv.Close(); err != nil {
			logger.Error("failed to close database", "error", err)
		}
	}()

	registry, err := models.NewRegistry(models.DefaultRegistrations()...)
	if err != nil {
		return err
	}

	nodeID := uuid.New().String()
	localCache := cache.New(kv, cli.NewReloadPrompter(stdio), logger, opts.prefix, password)
	engine := syncEngine.NewEngine(
		store.New(registry, nil),
		localCache,
		apiClient.NewClient(opts.serverURL, nodeID),
		logger,
		nil,
	)

	c := cli.New(engine, stdio)

	commands := map[string]func() error{
		"init":    func() error { return nil },
		"add":     func() error { return c.RunAdd(ctx, args) },
		"list":    func() error { return c.RunList(ctx, args) },
		"edit":    func() error { return c.RunEdit(ctx, args) },
		"delete":  func() error { return c.RunDelete(ctx, args) },
		"sync":    func() error { return c.RunSync(ctx) },
		"resolve": func() error { return c.RunResolve(ctx) },
	}

	run, ok := commands[command]
	if !ok {
		cli.PrintUsage(stdio)
		return fmt.Errorf("unknown command: %s", command)
	}

	// Каждая команда начинается с загрузки локального кеша
	if err := c.RunInit(ctx); err != nil {
		return err
	}

	return run()
}

func printVersion() {
	fmt.Printf("SyncKeeper Client\n")
	fmt.Printf("Version:    %s\n", Version)
	fmt.Printf("Build Date: %s\n", BuildDate)
	fmt.Printf("Git Commit: %s\n", GitCommit)
}
