package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestInitConfigCreatesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	cfg, err := InitConfig(path)
	if err != nil {
		t.Fatalf("InitConfig: %v", err)
	}
	if *cfg != *DefaultConfig() {
		t.Errorf("config = %+v, want defaults", cfg)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("default file not written: %v", err)
	}

	again, err := LoadConfig(path)
	if err != nil || *again != *cfg {
		t.Errorf("reloaded config = %+v, %v", again, err)
	}
}

func TestLoadConfigOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	body := `
[server]
max_limit = 25
workers = 2

[widget]
debounce_ms = 50
multiple = true
`
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.MaxLimit != 25 || cfg.Server.Workers != 2 {
		t.Errorf("server = %+v", cfg.Server)
	}
	if cfg.Widget.Debounce() != 50*time.Millisecond || !cfg.Widget.Multiple {
		t.Errorf("widget = %+v", cfg.Widget)
	}
	if cfg.Server.MaxQuery != DefaultConfig().Server.MaxQuery {
		t.Error("unset keys keep their defaults")
	}
}

func TestPartialParseKeepsGoodSections(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	body := `
[server]
max_limit = "lots"

[catalog]
path = "/srv/options.toml"
language = "de"
`
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.MaxLimit != DefaultConfig().Server.MaxLimit {
		t.Errorf("bad value should fall back to default, got %d", cfg.Server.MaxLimit)
	}
	if cfg.Catalog.Path != "/srv/options.toml" || cfg.Catalog.Language != "de" {
		t.Errorf("catalog = %+v", cfg.Catalog)
	}
}

func TestUnparsableFileUsesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[server\nmax_limit ="), 0644); err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	if *cfg != *DefaultConfig() {
		t.Errorf("config = %+v, want defaults", cfg)
	}
}

func TestUpdateSaves(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	cfg := DefaultConfig()
	limit := 7
	if err := cfg.Update(path, &limit, nil, nil); err != nil {
		t.Fatal(err)
	}
	loaded, err := LoadConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Server.MaxLimit != 7 || loaded.Server.MaxQuery != cfg.Server.MaxQuery {
		t.Errorf("server = %+v", loaded.Server)
	}
}

func TestWatch(t *testing.T) {
	if err := Watch(context.Background(), "", func() {}); !errors.Is(err, ErrNoConfig) {
		t.Errorf("empty path err = %v", err)
	}

	path := filepath.Join(t.TempDir(), "config.toml")
	if err := SaveConfig(DefaultConfig(), path); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	changed := make(chan struct{}, 4)
	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, path, func() { changed <- struct{}{} })
	}()

	// Give the watcher time to register before writing.
	time.Sleep(100 * time.Millisecond)
	limit := 9
	if err := DefaultConfig().Update(path, &limit, nil, nil); err != nil {
		t.Fatal(err)
	}

	select {
	case <-changed:
	case <-time.After(3 * time.Second):
		t.Error("no change notification")
	}

	cancel()
	if err := <-done; err != nil {
		t.Errorf("Watch returned %v", err)
	}
}
