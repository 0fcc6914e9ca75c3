package config

import (
	"bytes"
	"errors"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/theirongolddev/tally/internal/model"

	"github.com/google/uuid"
)

func TestLoadMissingReturnsDefaults(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("TALLY_USER", "")
	t.Setenv("TALLY_REMOTE_URL", "")
	t.Setenv("TALLY_TOKEN", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Addr != "127.0.0.1:8787" {
		t.Fatalf("Server.Addr = %q, want default", cfg.Server.Addr)
	}
	p := cfg.RetryPolicy()
	if p.Attempts != 3 || p.InitialDelay != time.Second {
		t.Fatalf("RetryPolicy = %+v, want 3 attempts at 1s", p)
	}
	if Exists() {
		t.Fatal("Exists reported a config that was never written")
	}
}

func TestSaveLoadRoundTripWithEnvOverride(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	t.Setenv("TALLY_USER", "")
	t.Setenv("TALLY_REMOTE_URL", "")
	t.Setenv("TALLY_TOKEN", "from-env")

	cfg := DefaultConfig()
	cfg.General.DBPath = filepath.Join(dir, "t.db")
	cfg.Remote.URL = "http://tally.internal:8787"
	cfg.Retry.InitialDelayMS = 250
	if err := Save(cfg); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.DBPath() != cfg.General.DBPath || got.Remote.URL != cfg.Remote.URL {
		t.Fatalf("round trip lost fields: %+v", got)
	}
	if got.Remote.Token != "from-env" {
		t.Fatalf("Remote.Token = %q, want env override", got.Remote.Token)
	}
	if d := got.RetryPolicy().InitialDelay; d != 250*time.Millisecond {
		t.Fatalf("InitialDelay = %v, want 250ms", d)
	}
}

func TestIdentity(t *testing.T) {
	cfg := DefaultConfig()
	id := &Identity{cfg: &cfg}

	if _, err := id.CurrentUser(); !errors.Is(err, model.ErrUnauthenticated) {
		t.Fatalf("CurrentUser(signed out) err = %v, want ErrUnauthenticated", err)
	}
	user := uuid.New()
	if err := id.SignIn(user); err != nil {
		t.Fatal(err)
	}
	got, err := id.CurrentUser()
	if err != nil || got != user {
		t.Fatalf("CurrentUser = %s, %v; want %s", got, err, user)
	}
	_ = id.SignOut()
	if cfg.General.UserID != "" {
		t.Fatalf("UserID after sign out = %q", cfg.General.UserID)
	}

	cfg.General.UserID = "not-a-uuid"
	if _, err := id.CurrentUser(); !errors.Is(err, model.ErrUnauthenticated) {
		t.Fatalf("CurrentUser(garbage) err = %v, want ErrUnauthenticated", err)
	}
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewLogger(LoggingConfig{Level: "info", Format: "json"}, &buf, "")
	if err != nil {
		t.Fatal(err)
	}
	logger.Debug("hidden")
	logger.Info("shown", "k", "v")
	out := buf.String()
	if strings.Contains(out, "hidden") || !strings.Contains(out, `"k":"v"`) {
		t.Fatalf("log output = %q", out)
	}

	if _, err := NewLogger(LoggingConfig{Format: "xml"}, &buf, ""); err == nil {
		t.Fatal("NewLogger accepted xml format")
	}
	if l, _ := ParseLevel("debug"); l != slog.LevelDebug {
		t.Fatalf("ParseLevel(debug) = %v", l)
	}
}
