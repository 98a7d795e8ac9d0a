package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/pflag"

	"github.com/aristath/todobridge/internal/bridge"
	"github.com/aristath/todobridge/internal/config"
	"github.com/aristath/todobridge/internal/events"
	"github.com/aristath/todobridge/internal/remote"
	"github.com/aristath/todobridge/internal/tui"
)

const shutdownTimeout = 10 * time.Second

// options holds the command-line flags.
type options struct {
	configPath  string
	outputsPath string
	logFile     string
	help        bool
}

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func parseFlags(args []string) (options, *pflag.FlagSet, error) {
	var opts options
	flagSet := pflag.NewFlagSet("todobridge", pflag.ContinueOnError)
	flagSet.StringVar(&opts.configPath, "config", "", "project config file (default .todobridge/config.json)")
	flagSet.StringVar(&opts.outputsPath, "outputs", "", "backend outputs file to read the data connection from")
	flagSet.StringVar(&opts.logFile, "log-file", "", "write logs to this file (default from config)")
	flagSet.BoolVarP(&opts.help, "help", "h", false, "show help")

	if err := flagSet.Parse(args); err != nil {
		return opts, flagSet, err
	}
	if rest := flagSet.Args(); len(rest) > 0 {
		return opts, flagSet, fmt.Errorf("unexpected argument: %s", rest[0])
	}
	return opts, flagSet, nil
}

// loadConfig resolves the configuration in precedence order: defaults,
// global file, project file, outputs file, environment, flags.
func loadConfig(opts options) (cfg *config.Config, globalPath, projectPath string, err error) {
	globalPath, projectPath, err = config.DefaultPaths()
	if err != nil {
		return nil, "", "", err
	}
	if opts.configPath != "" {
		projectPath = opts.configPath
	}

	cfg, err = config.Load(globalPath, projectPath)
	if err != nil {
		return nil, "", "", err
	}
	if opts.outputsPath != "" {
		if err := config.MergeOutputs(cfg, opts.outputsPath); err != nil {
			return nil, "", "", err
		}
	}
	if err := config.ApplyEnv(cfg); err != nil {
		return nil, "", "", err
	}
	if opts.logFile != "" {
		cfg.Log.File = opts.logFile
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", "", fmt.Errorf("invalid config: %w", err)
	}
	return cfg, globalPath, projectPath, nil
}

// setupLogging sends the standard logger to path, or discards it when path is
// empty. The terminal belongs to the TUI.
func setupLogging(path string) (func(), error) {
	if path == "" {
		log.SetOutput(io.Discard)
		return func() {}, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("creating log directory: %w", err)
	}
	f, err := tea.LogToFile(path, "todobridge")
	if err != nil {
		return nil, fmt.Errorf("opening log file: %w", err)
	}
	return func() { f.Close() }, nil
}

func run(args []string) error {
	opts, flagSet, err := parseFlags(args)
	if errors.Is(err, pflag.ErrHelp) || opts.help {
		fmt.Fprintf(os.Stderr, "Usage: todobridge [flags]\n\n%s", flagSet.FlagUsages())
		return nil
	}
	if err != nil {
		return err
	}

	cfg, globalPath, projectPath, err := loadConfig(opts)
	if err != nil {
		return err
	}

	closeLog, err := setupLogging(cfg.Log.File)
	if err != nil {
		return err
	}
	defer closeLog()

	client, err := remote.NewClient(cfg.Data)
	if err != nil {
		return err
	}

	// Create signal-aware context for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	bus := events.NewEventBus()
	defer bus.Close()

	bridgeCtx, cancelBridge := context.WithCancel(ctx)
	defer cancelBridge()
	bridgeDone := bridge.New(client, bus).Start(bridgeCtx)
	log.Printf("todobridge: bridge started against %s", cfg.Data.URL)

	model := tui.New(bus, cfg, globalPath, projectPath)

	// Start Bubble Tea program in a goroutine so main can handle shutdown
	p := tea.NewProgram(model, tea.WithAltScreen())

	errChan := make(chan error, 1)
	go func() {
		_, err := p.Run()
		errChan <- err
	}()

	var runErr error
	select {
	case runErr = <-errChan:
		// Normal TUI exit (user pressed 'q')
	case <-ctx.Done():
		// Restore default signal handling so a second Ctrl+C forces exit
		stop()
		log.Println("todobridge: shutdown signal received")

		p.Quit()
		select {
		case runErr = <-errChan:
		case <-time.After(shutdownTimeout):
			log.Println("todobridge: TUI did not exit in time")
		}
	}

	// Stop dispatching and let in-flight calls finish.
	cancelBridge()
	select {
	case err := <-bridgeDone:
		if err != nil && !errors.Is(err, context.Canceled) {
			log.Printf("todobridge: bridge exited: %v", err)
		}
	case <-time.After(shutdownTimeout):
		log.Println("todobridge: shutdown timeout exceeded, abandoning in-flight requests")
	}

	log.Println("todobridge: shutdown complete")
	return runErr
}
