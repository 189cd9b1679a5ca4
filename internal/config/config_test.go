package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Port != 8089 {
		t.Fatalf("unexpected default port %d", cfg.Server.Port)
	}
	if cfg.Redis.Addr != "localhost:6379" {
		t.Fatalf("unexpected default redis addr %q", cfg.Redis.Addr)
	}
	if cfg.Auth.AdminLogin != "admin" {
		t.Fatalf("unexpected default admin login %q", cfg.Auth.AdminLogin)
	}
	if cfg.ListenAddr() != ":8089" {
		t.Fatalf("unexpected listen addr %q", cfg.ListenAddr())
	}
}

func TestLoadYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	data := []byte(`
server:
  port: 9000
  read_timeout: 5s
redis:
  addr: redis.internal:6379
  db: 2
logging:
  level: debug
`)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Port != 9000 {
		t.Fatalf("expected port override, got %d", cfg.Server.Port)
	}
	if cfg.Server.ReadTimeout.Std() != 5*time.Second {
		t.Fatalf("expected read timeout override, got %v", cfg.Server.ReadTimeout)
	}
	if cfg.Redis.Addr != "redis.internal:6379" || cfg.Redis.DB != 2 {
		t.Fatalf("expected redis override, got %+v", cfg.Redis)
	}
	if cfg.Logging.Level != "debug" {
		t.Fatalf("expected logging override, got %q", cfg.Logging.Level)
	}
	// Untouched sections keep their defaults.
	if cfg.Auth.Salt != "Otus" {
		t.Fatalf("expected default salt, got %q", cfg.Auth.Salt)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("SCORING_REDIS_ADDR", "env.redis:6380")
	t.Setenv("SCORING_SERVER_PORT", "9100")
	t.Setenv("SCORING_AUTH_SALT", "pepper")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Redis.Addr != "env.redis:6380" {
		t.Fatalf("expected env redis addr, got %q", cfg.Redis.Addr)
	}
	if cfg.Server.Port != 9100 {
		t.Fatalf("expected env port, got %d", cfg.Server.Port)
	}
	if cfg.Auth.Salt != "pepper" {
		t.Fatalf("expected env salt, got %q", cfg.Auth.Salt)
	}
}

func TestValidation(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("server:\n  port: -1\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected invalid port to fail")
	}

	if _, err := Load(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Fatal("expected missing explicit config file to fail")
	}
}
