package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMissingFileYieldsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Mailbox.Protocol != "imap" {
		t.Errorf("protocol = %q, want imap", cfg.Mailbox.Protocol)
	}
	if cfg.Mailbox.Host != "imap.gmail.com" || cfg.Mailbox.Port != 993 {
		t.Errorf("mailbox defaults wrong: %s:%d", cfg.Mailbox.Host, cfg.Mailbox.Port)
	}
	if !cfg.Mailbox.UseTLS || cfg.Mailbox.Folder != "INBOX" {
		t.Errorf("mailbox TLS/folder defaults wrong: %+v", cfg.Mailbox)
	}
	if cfg.Mailbox.LookbackDays != 30 {
		t.Errorf("lookback = %d, want 30", cfg.Mailbox.LookbackDays)
	}
	if cfg.Relay.Provider != "smtp" || cfg.Relay.Host != "smtp.gmail.com" || cfg.Relay.Port != 587 {
		t.Errorf("relay defaults wrong: %+v", cfg.Relay)
	}
	if cfg.LogLevel != "info" || cfg.DataDir != "data" {
		t.Errorf("top-level defaults wrong: %+v", cfg)
	}
}

func TestLoadUnreadablePathYieldsDefaults(t *testing.T) {
	// A directory path fails with a wrapped *os.PathError, which must be
	// treated like a missing file.
	cfg, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Mailbox.Host != "imap.gmail.com" {
		t.Errorf("expected defaults, got mailbox host %q", cfg.Mailbox.Host)
	}
}

func TestLoadFromYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
log_level: debug
data_dir: /var/lib/outreach
target_domain: build-a-dress.com
keywords:
  - dress
  - fabric
mailbox:
  protocol: pop3
  host: pop.example.com
  port: 995
  username: inbox@example.com
  lookback_days: 7
relay:
  provider: resend
  resend_api_key: re_123
  from_email: outreach@build-a-dress.com
  from_name: Build A Dress
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.LogLevel != "debug" {
		t.Errorf("log_level = %q", cfg.LogLevel)
	}
	if cfg.TargetDomain != "build-a-dress.com" {
		t.Errorf("target_domain = %q", cfg.TargetDomain)
	}
	if len(cfg.Keywords) != 2 || cfg.Keywords[0] != "dress" {
		t.Errorf("keywords = %v", cfg.Keywords)
	}
	if cfg.Mailbox.Protocol != "pop3" || cfg.Mailbox.Port != 995 {
		t.Errorf("mailbox = %+v", cfg.Mailbox)
	}
	if cfg.Mailbox.LookbackDays != 7 {
		t.Errorf("lookback = %d", cfg.Mailbox.LookbackDays)
	}
	if cfg.Relay.Provider != "resend" || cfg.Relay.ResendAPIKey != "re_123" {
		t.Errorf("relay = %+v", cfg.Relay)
	}
	if cfg.DatabasePath() != filepath.Join("/var/lib/outreach", "outreach.db") {
		t.Errorf("db path = %q", cfg.DatabasePath())
	}
	if cfg.DigestPath() != filepath.Join("/var/lib/outreach", "haro_emails.md") {
		t.Errorf("digest path = %q", cfg.DigestPath())
	}
}

func TestLoadLegacyEnvironmentVariables(t *testing.T) {
	t.Setenv("IMAP_HOST", "imap.fastmail.com")
	t.Setenv("SMTP_USER", "me@fastmail.com")
	t.Setenv("SMTP_PASSWORD", "app-password")
	t.Setenv("SMTP_HOST", "smtp.fastmail.com")
	t.Setenv("SENDER_NAME", "Build A Dress")
	t.Setenv("TARGET_DOMAIN", "build-a-dress.com")

	cfg, err := Load(filepath.Join(t.TempDir(), "none.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Mailbox.Host != "imap.fastmail.com" {
		t.Errorf("mailbox host = %q", cfg.Mailbox.Host)
	}
	if cfg.Mailbox.Username != "me@fastmail.com" || cfg.Mailbox.Password != "app-password" {
		t.Errorf("mailbox credentials not bound: %+v", cfg.Mailbox)
	}
	if cfg.Relay.Host != "smtp.fastmail.com" {
		t.Errorf("relay host = %q", cfg.Relay.Host)
	}
	if cfg.Relay.FromName != "Build A Dress" {
		t.Errorf("from name = %q", cfg.Relay.FromName)
	}
	if cfg.TargetDomain != "build-a-dress.com" {
		t.Errorf("target domain = %q", cfg.TargetDomain)
	}
	// With no explicit from_email the relay falls back to its username.
	if cfg.Relay.FromEmail != "me@fastmail.com" {
		t.Errorf("from email = %q, want the relay username", cfg.Relay.FromEmail)
	}
}

func TestLoadPrefixedEnvironmentVariables(t *testing.T) {
	t.Setenv("OUTREACH_LOG_LEVEL", "warn")
	t.Setenv("OUTREACH_DATA_DIR", "/tmp/outreach-data")

	cfg, err := Load(filepath.Join(t.TempDir(), "none.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.LogLevel != "warn" {
		t.Errorf("log level = %q, want warn", cfg.LogLevel)
	}
	if cfg.DataDir != "/tmp/outreach-data" {
		t.Errorf("data dir = %q", cfg.DataDir)
	}
}
