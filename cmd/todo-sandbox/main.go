package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/aristath/todobridge/internal/config"
	"github.com/aristath/todobridge/internal/persistence"
	"github.com/aristath/todobridge/internal/sandbox"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// sandboxConfig resolves the sandbox settings from config files, the
// environment and any flags given explicitly on the command line.
func sandboxConfig(args []string) (config.SandboxConfig, bool, error) {
	flagSet := pflag.NewFlagSet("todo-sandbox", pflag.ContinueOnError)
	configPath := flagSet.String("config", "", "project config file (default .todobridge/config.json)")
	addr := flagSet.String("addr", "", "listen address")
	dbPath := flagSet.String("db", "", "SQLite database path")
	apiKey := flagSet.String("api-key", "", "require this x-api-key on data requests")
	maxContent := flagSet.Int("max-content", 0, "reject todo content longer than this many characters")
	help := flagSet.BoolP("help", "h", false, "show help")

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			fmt.Fprintf(os.Stderr, "Usage: todo-sandbox [flags]\n\n%s", flagSet.FlagUsages())
			return config.SandboxConfig{}, false, nil
		}
		return config.SandboxConfig{}, false, err
	}
	if *help {
		fmt.Fprintf(os.Stderr, "Usage: todo-sandbox [flags]\n\n%s", flagSet.FlagUsages())
		return config.SandboxConfig{}, false, nil
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		return config.SandboxConfig{}, false, err
	}
	if err := config.ApplyEnv(cfg); err != nil {
		return config.SandboxConfig{}, false, err
	}

	sc := cfg.Sandbox
	if flagSet.Changed("addr") {
		sc.Addr = *addr
	}
	if flagSet.Changed("db") {
		sc.DBPath = *dbPath
	}
	if flagSet.Changed("api-key") {
		sc.APIKey = *apiKey
	}
	if flagSet.Changed("max-content") {
		sc.MaxContentLength = *maxContent
	}
	if sc.Addr == "" || sc.DBPath == "" {
		return config.SandboxConfig{}, false, fmt.Errorf("sandbox needs both an address and a database path")
	}
	return sc, true, nil
}

// loadConfig reads the conventional config files, with path replacing the
// project file when given.
func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.LoadDefault()
	}
	globalPath, _, err := config.DefaultPaths()
	if err != nil {
		return nil, err
	}
	return config.Load(globalPath, path)
}

func run(args []string) error {
	sc, ok, err := sandboxConfig(args)
	if err != nil || !ok {
		return err
	}

	// Create signal-aware context for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := persistence.NewSQLiteStore(ctx, sc.DBPath)
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer store.Close()

	if sc.APIKey == "" {
		log.Println("sandbox: no api key configured, accepting unauthenticated requests")
	}

	if err := sandbox.NewServer(store, sc).ListenAndServe(ctx); err != nil {
		return err
	}
	log.Println("sandbox: shutdown complete")
	return nil
}
