package config

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func readLevel(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	level := strings.TrimSpace(string(data))
	if level == "broken" {
		return "", errors.New("parse error")
	}
	return level, nil
}

func startWatcher(t *testing.T, path string) <-chan string {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	w := NewWatcher(path, readLevel, 10*time.Millisecond, logger)

	reloads := make(chan string, 8)
	w.OnReload(func(level string) { reloads <- level })
	if err := w.Start(ctx); err != nil {
		t.Fatalf("Start() error: %v", err)
	}
	return reloads
}

func TestWatcherReloadsOnWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("info"), 0o600); err != nil {
		t.Fatal(err)
	}
	reloads := startWatcher(t, path)

	if err := os.WriteFile(path, []byte("debug"), 0o600); err != nil {
		t.Fatal(err)
	}

	select {
	case got := <-reloads:
		if got != "debug" {
			t.Errorf("reloaded %q, want debug", got)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no reload after the config file was written")
	}
}

func TestWatcherSeesReplaceByRename(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(path, []byte("info"), 0o600); err != nil {
		t.Fatal(err)
	}
	reloads := startWatcher(t, path)

	tmp := filepath.Join(dir, ".config.toml.swp")
	if err := os.WriteFile(tmp, []byte("warn"), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := os.Rename(tmp, path); err != nil {
		t.Fatal(err)
	}

	select {
	case got := <-reloads:
		if got != "warn" {
			t.Errorf("reloaded %q, want warn", got)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no reload after the config file was replaced")
	}
}

func TestWatcherIgnoresOtherFilesAndBadConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(path, []byte("info"), 0o600); err != nil {
		t.Fatal(err)
	}
	reloads := startWatcher(t, path)

	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("LEDSTACK_LOGGING_LEVEL=debug"), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("broken"), 0o600); err != nil {
		t.Fatal(err)
	}

	select {
	case got := <-reloads:
		t.Fatalf("unexpected reload %q", got)
	case <-time.After(200 * time.Millisecond):
	}
}
