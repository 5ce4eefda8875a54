package main

import (
	"bytes"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/bastiangx/pickserve/pkg/config"
)

func TestConfigResetWritesDefaults(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("config dir comes from APPDATA on windows")
	}
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(home, ".config"))

	path, err := config.GetDefaultConfigPath()
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(path, home) {
		t.Fatalf("default path %s is outside %s", path, home)
	}
	if err := os.WriteFile(path, []byte("[server]\nmax_limit = 3\n"), 0644); err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetArgs([]string{"config", "--reset"})
	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
		rootCmd.SetOut(nil)
		resetConfig = false
	})

	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("config --reset: %v", err)
	}
	if !strings.Contains(buf.String(), path) {
		t.Errorf("output = %q, want the default path", buf.String())
	}

	cfg, err := config.LoadConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	if *cfg != *config.DefaultConfig() {
		t.Errorf("config after reset = %+v, want defaults", cfg)
	}
}
