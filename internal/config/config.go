package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// MailboxConfig holds the inbound mail account settings.
type MailboxConfig struct {
	// Protocol is "imap" or "pop3".
	Protocol string `mapstructure:"protocol" yaml:"protocol"`
	Host     string `mapstructure:"host" yaml:"host"`
	Port     int    `mapstructure:"port" yaml:"port"`
	Username string `mapstructure:"username" yaml:"username"`
	Password string `mapstructure:"password" yaml:"password"`
	UseTLS   bool   `mapstructure:"use_tls" yaml:"use_tls"`
	Folder   string `mapstructure:"folder" yaml:"folder"`

	// LookbackDays bounds the first fetch window when the ingest store is
	// empty or no stored date is parseable.
	LookbackDays int `mapstructure:"lookback_days" yaml:"lookback_days"`
}

// RelayConfig holds the outbound mail relay settings.
type RelayConfig struct {
	// Provider is "smtp", "resend" or "noop". Noop logs sends without
	// delivering, for dry runs.
	Provider     string `mapstructure:"provider" yaml:"provider"`
	Host         string `mapstructure:"host" yaml:"host"`
	Port         int    `mapstructure:"port" yaml:"port"`
	Username     string `mapstructure:"username" yaml:"username"`
	Password     string `mapstructure:"password" yaml:"password"`
	FromEmail    string `mapstructure:"from_email" yaml:"from_email"`
	FromName     string `mapstructure:"from_name" yaml:"from_name"`
	UseTLS       bool   `mapstructure:"use_tls" yaml:"use_tls"`
	ResendAPIKey string `mapstructure:"resend_api_key" yaml:"resend_api_key"`
}

// Config is the top-level application configuration, built once at process
// start and passed by reference into each engine.
type Config struct {
	LogLevel     string   `mapstructure:"log_level" yaml:"log_level"`
	DataDir      string   `mapstructure:"data_dir" yaml:"data_dir"`
	TargetDomain string   `mapstructure:"target_domain" yaml:"target_domain"`
	Keywords     []string `mapstructure:"keywords" yaml:"keywords"`

	Mailbox MailboxConfig `mapstructure:"mailbox" yaml:"mailbox"`
	Relay   RelayConfig   `mapstructure:"relay" yaml:"relay"`
}

// DatabasePath returns the SQLite database location under the data directory.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.DataDir, "outreach.db")
}

// DigestPath returns the location of the rendered markdown digest.
func (c *Config) DigestPath() string {
	return filepath.Join(c.DataDir, "haro_emails.md")
}

// legacyEnvKeys maps config keys to the environment variable names the
// older script-based setup used, so existing .env files keep working.
var legacyEnvKeys = map[string][]string{
	"mailbox.host":     {"IMAP_HOST"},
	"mailbox.port":     {"IMAP_PORT"},
	"mailbox.username": {"SMTP_USER"},
	"mailbox.password": {"SMTP_PASSWORD"},
	"relay.host":       {"SMTP_HOST"},
	"relay.port":       {"SMTP_PORT"},
	"relay.username":   {"SMTP_USER"},
	"relay.password":   {"SMTP_PASSWORD"},
	"relay.from_email": {"SMTP_FROM_EMAIL"},
	"relay.from_name":  {"SENDER_NAME", "SMTP_FROM_NAME", "BUSINESS_NAME"},
	"relay.use_tls":    {"SMTP_USE_TLS"},
	"target_domain":    {"TARGET_DOMAIN"},
}

// defaultConfig returns a configuration with sensible defaults applied.
func defaultConfig() *Config {
	return &Config{
		LogLevel: "info",
		DataDir:  "data",
		Mailbox: MailboxConfig{
			Protocol:     "imap",
			Host:         "imap.gmail.com",
			Port:         993,
			UseTLS:       true,
			Folder:       "INBOX",
			LookbackDays: 30,
		},
		Relay: RelayConfig{
			Provider: "smtp",
			Host:     "smtp.gmail.com",
			Port:     587,
			UseTLS:   true,
		},
	}
}

// Load reads configuration from the given YAML file path using Viper,
// overlaying OUTREACH_* environment variables and the legacy variable
// names. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.SetDefault("log_level", "info")
	v.SetDefault("data_dir", "data")
	v.SetDefault("mailbox.protocol", "imap")
	v.SetDefault("mailbox.host", "imap.gmail.com")
	v.SetDefault("mailbox.port", 993)
	v.SetDefault("mailbox.use_tls", true)
	v.SetDefault("mailbox.folder", "INBOX")
	v.SetDefault("mailbox.lookback_days", 30)
	v.SetDefault("relay.provider", "smtp")
	v.SetDefault("relay.host", "smtp.gmail.com")
	v.SetDefault("relay.port", 587)
	v.SetDefault("relay.use_tls", true)

	v.SetEnvPrefix("OUTREACH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for key, names := range legacyEnvKeys {
		vars := append([]string{key}, names...)
		if err := v.BindEnv(vars...); err != nil {
			return nil, fmt.Errorf("binding env for %s: %w", key, err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var pathErr *os.PathError
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &pathErr) && !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	cfg := defaultConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	// The relay from-address defaults to the authenticated user.
	if cfg.Relay.FromEmail == "" {
		cfg.Relay.FromEmail = cfg.Relay.Username
	}

	return cfg, nil
}
