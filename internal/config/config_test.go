package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("LINE_CHANNEL_SECRET", "secret")
	t.Setenv("LINE_CHANNEL_ACCESS_TOKEN", "token")
	t.Setenv("SESSION_BACKEND", "Redis")
	t.Setenv("SESSION_TTL", "20m")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Session.Backend != BackendRedis {
		t.Fatalf("backend = %q", cfg.Session.Backend)
	}
	if cfg.Session.TTL != 20*time.Minute {
		t.Fatalf("ttl = %v", cfg.Session.TTL)
	}
	if cfg.Redis.Addr != DefaultRedisAddr {
		t.Fatalf("redis addr = %q", cfg.Redis.Addr)
	}
	if cfg.Server.WebhookPath != DefaultWebhookPath || cfg.Server.Port != DefaultPort {
		t.Fatalf("server defaults not applied: %+v", cfg.Server)
	}
}

func TestLoadYAMLWithEnvOverlay(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yml := []byte(`
server:
  port: "9090"
  webhook_path: callback
line:
  channel_secret: from-file
  channel_access_token: token-file
  admin_user_id: Uadmin
outbound:
  reply_timeout: 3s
`)
	if err := os.WriteFile(path, yml, 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("LINE_CHANNEL_SECRET", "from-env")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Line.ChannelSecret != "from-env" {
		t.Fatalf("env should override file, got %q", cfg.Line.ChannelSecret)
	}
	if cfg.Line.AdminUserID != "Uadmin" {
		t.Fatalf("admin = %q", cfg.Line.AdminUserID)
	}
	if cfg.Server.Port != "9090" || cfg.Server.WebhookPath != "/callback" {
		t.Fatalf("server = %+v", cfg.Server)
	}
	if cfg.Outbound.ReplyTimeout != 3*time.Second {
		t.Fatalf("reply timeout = %v", cfg.Outbound.ReplyTimeout)
	}
	if cfg.Outbound.BatchTimeout != DefaultBatchTimeout {
		t.Fatalf("batch timeout = %v", cfg.Outbound.BatchTimeout)
	}
	if cfg.Session.TTL != DefaultSessionTTL {
		t.Fatalf("ttl = %v", cfg.Session.TTL)
	}
}

func TestNormalizeRequiresSecrets(t *testing.T) {
	err := Normalize(&Config{Line: LineConfig{ChannelAccessToken: "t"}})
	if !errors.Is(err, ErrMissingChannelSecret) {
		t.Fatalf("err = %v, want %v", err, ErrMissingChannelSecret)
	}
	err = Normalize(&Config{Line: LineConfig{ChannelSecret: "s"}})
	if !errors.Is(err, ErrMissingAccessToken) {
		t.Fatalf("err = %v, want %v", err, ErrMissingAccessToken)
	}
}

func TestNormalizeRejectsUnknownBackend(t *testing.T) {
	cfg := &Config{
		Line:    LineConfig{ChannelSecret: "s", ChannelAccessToken: "t"},
		Session: SessionConfig{Backend: "etcd"},
	}
	if err := Normalize(cfg); err == nil {
		t.Fatal("expected error for unknown backend")
	}
}

func TestTwilioEnabled(t *testing.T) {
	tw := TwilioConfig{AccountSID: "AC", AuthToken: "x", WhatsAppFrom: "whatsapp:+1"}
	if tw.Enabled() {
		t.Fatal("admin phone missing, should be disabled")
	}
	tw.AdminPhone = "+66800000000"
	if !tw.Enabled() {
		t.Fatal("expected enabled")
	}
}
