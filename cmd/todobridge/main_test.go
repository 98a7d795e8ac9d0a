package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"testing"
	"time"
)

// isolate points HOME and the working directory at a temp dir so the
// conventional config paths never see the developer's files.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Chdir(dir)
	return dir
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestParseFlags(t *testing.T) {
	opts, _, err := parseFlags([]string{"--config", "c.json", "--outputs", "o.json", "--log-file", "x.log"})
	if err != nil {
		t.Fatalf("parseFlags: %v", err)
	}
	if opts.configPath != "c.json" || opts.outputsPath != "o.json" || opts.logFile != "x.log" {
		t.Errorf("unexpected options: %+v", opts)
	}

	if _, _, err := parseFlags([]string{"extra"}); err == nil {
		t.Error("expected error for positional argument")
	}
	if opts, _, err := parseFlags([]string{"-h"}); err != nil || !opts.help {
		t.Errorf("expected help flag set, got help=%v err=%v", opts.help, err)
	}
}

func TestLoadConfigPrecedence(t *testing.T) {
	dir := isolate(t)

	writeFile(t, filepath.Join(dir, ".todobridge", "config.json"),
		`{"data":{"url":"http://project.example","api_key":"project-key"}}`)
	outputs := filepath.Join(dir, "amplify_outputs.json")
	writeFile(t, outputs, `{"data":{"url":"https://outputs.example/graphql","aws_region":"eu-west-1"}}`)
	t.Setenv("TODOBRIDGE_API_KEY", "env-key")

	cfg, _, projectPath, err := loadConfig(options{outputsPath: outputs, logFile: "custom.log"})
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.Data.URL != "https://outputs.example/graphql" {
		t.Errorf("expected outputs URL, got %q", cfg.Data.URL)
	}
	if cfg.Data.Region != "eu-west-1" {
		t.Errorf("expected outputs region, got %q", cfg.Data.Region)
	}
	if cfg.Data.APIKey != "env-key" {
		t.Errorf("expected env API key, got %q", cfg.Data.APIKey)
	}
	if cfg.Log.File != "custom.log" {
		t.Errorf("expected flag log file, got %q", cfg.Log.File)
	}
	if projectPath != filepath.Join(".todobridge", "config.json") {
		t.Errorf("unexpected project path %q", projectPath)
	}
}

func TestLoadConfigExplicitPath(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "alt.json")
	writeFile(t, path, `{"data":{"url":"http://alt.example"}}`)

	cfg, _, projectPath, err := loadConfig(options{configPath: path})
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.Data.URL != "http://alt.example" || projectPath != path {
		t.Errorf("expected explicit config used, got url=%q path=%q", cfg.Data.URL, projectPath)
	}
}

func TestLoadConfigErrors(t *testing.T) {
	dir := isolate(t)

	if _, _, _, err := loadConfig(options{outputsPath: filepath.Join(dir, "missing.json")}); err == nil {
		t.Error("expected error for missing outputs file")
	}

	writeFile(t, filepath.Join(dir, "bad.json"), `{"data":{"url":"ftp://nope"}}`)
	_, _, _, err := loadConfig(options{configPath: filepath.Join(dir, "bad.json")})
	if err == nil || !strings.Contains(err.Error(), "invalid config") {
		t.Errorf("expected invalid config error, got %v", err)
	}
}

func TestSetupLogging(t *testing.T) {
	defer log.SetOutput(os.Stderr)
	path := filepath.Join(t.TempDir(), "logs", "todobridge.log")

	closeLog, err := setupLogging(path)
	if err != nil {
		t.Fatalf("setupLogging: %v", err)
	}
	log.Print("hello")
	closeLog()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading log: %v", err)
	}
	if !strings.Contains(string(data), "hello") {
		t.Errorf("expected log line in file, got %q", data)
	}
}

// TestSignalContextCancellation verifies that signal.NotifyContext produces
// a context that cancels correctly when a signal is received.
func TestSignalContextCancellation(t *testing.T) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGUSR1)
	defer stop()

	if err := syscall.Kill(syscall.Getpid(), syscall.SIGUSR1); err != nil {
		t.Fatalf("Failed to send signal: %v", err)
	}

	select {
	case <-ctx.Done():
	case <-time.After(1 * time.Second):
		t.Fatal("Context was not cancelled after signal")
	}
}
