package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	chdir(t, t.TempDir())
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Provider.BaseURL != "https://interface.carv.io/banana" {
		t.Errorf("unexpected base url %q", cfg.Provider.BaseURL)
	}
	if got := cfg.Policy.SpeedupFallback(); got != 8*time.Hour+10*time.Second {
		t.Errorf("unexpected speedup fallback %v", got)
	}
	if got := cfg.Policy.ClaimPad(); got != time.Second {
		t.Errorf("unexpected claim pad %v", got)
	}
	if got := cfg.Policy.MaxRun(); got != 7*24*time.Hour {
		t.Errorf("unexpected max run %v", got)
	}
	if cfg.Server.Addr != "" {
		t.Errorf("monitor should be disabled by default, got %q", cfg.Server.Addr)
	}
	if cfg.Limits.GlobalQPS != 5 {
		t.Errorf("unset qps should default to 5, got %v", cfg.Limits.GlobalQPS)
	}
	if cfg.Policy.MaxClickRejections != 0 {
		t.Errorf("click rejections should be unlimited by default, got %d", cfg.Policy.MaxClickRejections)
	}
}

func TestLoad_FileAndEnvOverride(t *testing.T) {
	chdir(t, t.TempDir())
	path := filepath.Join(t.TempDir(), "settings.yaml")
	body := `
provider:
  baseURL: http://127.0.0.1:8080/mock/banana
  timeoutMs: 1500
policy:
  clickBatchMin: 5
  speedupFallbackSec: 3600
limits:
  globalQPS: -1
`
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Provider.Timeout() != 1500*time.Millisecond {
		t.Errorf("timeout: %v", cfg.Provider.Timeout())
	}
	if cfg.Policy.ClickBatchMin != 5 {
		t.Errorf("clickBatchMin: %d", cfg.Policy.ClickBatchMin)
	}
	if cfg.Policy.SpeedupFallback() != time.Hour {
		t.Errorf("fallback: %v", cfg.Policy.SpeedupFallback())
	}
	if cfg.Limits.GlobalQPS != -1 {
		t.Errorf("negative qps should be kept to disable limiting, got %v", cfg.Limits.GlobalQPS)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("env override not applied: %q", cfg.Log.Level)
	}
}

func TestLoad_EmailValidation(t *testing.T) {
	chdir(t, t.TempDir())
	path := filepath.Join(t.TempDir(), "settings.yaml")
	if err := os.WriteFile(path, []byte("notify:\n  email:\n    enabled: true\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected validation error for enabled email without host")
	}
}

func TestLoad_BadYAML(t *testing.T) {
	chdir(t, t.TempDir())
	path := filepath.Join(t.TempDir(), "settings.yaml")
	if err := os.WriteFile(path, []byte("policy: [1, 2"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected parse error")
	}
}

// chdir changes the working directory for the duration of the test
// (equivalent of testing.T.Chdir, which requires Go 1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(prev); err != nil {
			t.Fatal(err)
		}
	})
}
