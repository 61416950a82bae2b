package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"otakufeed/internal/feed"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

const validYAML = `
feed:
  endpoint: "http://127.0.0.1:8000/v2/downloads"
  dial_timeout: "10s"
  queue_size: 32
  backoff_base: "125ms"
  backoff_max: "30s"
  cooldown: "5s"
logging:
  level: info
  console: true
  file:
    enabled: false
    path: ""
storage:
  driver: sqlite
  path: ./otakufeed.db
  busy_timeout: "5s"
stats:
  enabled: true
  schedule: "0 * * * *"
`

func TestLoadYAML(t *testing.T) {
	t.Parallel()
	cfg, err := Load(writeConfig(t, "config.yaml", validYAML))
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}

	if cfg.Feed.Endpoint != "http://127.0.0.1:8000/v2/downloads" {
		t.Fatalf("Endpoint = %q", cfg.Feed.Endpoint)
	}
	if got := cfg.Feed.QueueCapacity(); got != 32 {
		t.Fatalf("QueueCapacity() = %d, want 32", got)
	}
	if got := cfg.Feed.DialTimeoutValue(); got != 10*time.Second {
		t.Fatalf("DialTimeoutValue() = %v, want 10s", got)
	}
	sup := cfg.Feed.SupervisorConfig()
	if sup.BackoffBase != 125*time.Millisecond || sup.BackoffMax != 30*time.Second || sup.Cooldown != 5*time.Second {
		t.Fatalf("SupervisorConfig() = %+v", sup)
	}
	if !cfg.Stats.Enabled || cfg.Stats.CronSchedule() != "0 * * * *" {
		t.Fatalf("Stats = %+v", cfg.Stats)
	}
}

func TestLoadDefaults(t *testing.T) {
	t.Parallel()
	cfg, err := Load(writeConfig(t, "config.yaml", `
feed:
  endpoint: "http://localhost:8000"
logging:
  level: info
  console: true
  file:
    enabled: false
    path: ""
storage:
  driver: sqlite
  path: ./db.sqlite
`))
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}

	if got := cfg.Feed.QueueCapacity(); got != 16 {
		t.Fatalf("QueueCapacity() = %d, want 16", got)
	}
	sup := cfg.Feed.SupervisorConfig()
	if sup.BackoffBase != feed.DefaultBackoffBase {
		t.Fatalf("BackoffBase = %v", sup.BackoffBase)
	}
	if sup.Cooldown != feed.DefaultCooldown {
		t.Fatalf("Cooldown = %v", sup.Cooldown)
	}
	if got := cfg.Stats.CronSchedule(); got != "0 * * * *" {
		t.Fatalf("CronSchedule() = %q", got)
	}
	if got := cfg.Storage.BusyTimeoutValue(); got != 5*time.Second {
		t.Fatalf("BusyTimeoutValue() = %v", got)
	}
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	t.Parallel()
	_, err := Load(writeConfig(t, "config.yaml", validYAML+"\nwat: true\n"))
	if err == nil {
		t.Fatal("expected error for unknown key")
	}
}

func TestLoadRejectsMissingEndpoint(t *testing.T) {
	t.Parallel()
	bad := strings.Replace(validYAML, `endpoint: "http://127.0.0.1:8000/v2/downloads"`, `endpoint: ""`, 1)
	_, err := Load(writeConfig(t, "config.yaml", bad))
	if err == nil || !strings.Contains(err.Error(), "feed.endpoint") {
		t.Fatalf("err = %v, want feed.endpoint error", err)
	}
}

func TestLoadRejectsBadDuration(t *testing.T) {
	t.Parallel()
	bad := strings.Replace(validYAML, `cooldown: "5s"`, `cooldown: "five seconds"`, 1)
	_, err := Load(writeConfig(t, "config.yaml", bad))
	if err == nil || !strings.Contains(err.Error(), "feed.cooldown") {
		t.Fatalf("err = %v, want feed.cooldown error", err)
	}
}

func TestLoadJSON(t *testing.T) {
	t.Parallel()
	cfg, err := Load(writeConfig(t, "config.json", `{
  "feed": {"endpoint": "http://localhost:8000"},
  "logging": {"level": "debug", "console": true, "file": {"enabled": false, "path": ""}},
  "storage": {"driver": "sqlite", "path": "./db.sqlite"}
}`))
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.Logging.Level != "debug" {
		t.Fatalf("Level = %q", cfg.Logging.Level)
	}
}
