package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/joho/godotenv"

	"outreach/internal/classify"
	"outreach/internal/config"
	"outreach/internal/credential"
	"outreach/internal/dispatch"
	"outreach/internal/extract"
	"outreach/internal/ingest"
	"outreach/internal/mailbox"
	"outreach/internal/model"
	"outreach/internal/relay"
	"outreach/internal/render"
	"outreach/internal/store"
	"outreach/internal/track"
)

const usage = `usage: outreach <command> [flags]

commands:
  sync        fetch new journalist-request emails into the local store
  prospects   extract outreach prospects from ingested messages
  dispatch    send outreach emails from a JSON batch file
  track       check prospect homepages for backlinks
  credential  store mailbox/relay passwords in the system keyring
`

func main() {
	// Best effort; the legacy workflow kept its settings in a .env file.
	_ = godotenv.Load()

	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var err error
	switch os.Args[1] {
	case "sync":
		err = runSync(ctx, os.Args[2:])
	case "prospects":
		err = runProspects(ctx, os.Args[2:])
	case "dispatch":
		err = runDispatch(ctx, os.Args[2:])
	case "track":
		err = runTrack(ctx, os.Args[2:])
	case "credential":
		err = runCredential(os.Args[2:])
	case "-h", "--help", "help":
		fmt.Print(usage)
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n%s", os.Args[1], usage)
		os.Exit(2)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func loadConfig(fs *flag.FlagSet, args []string) (*config.Config, *slog.Logger, error) {
	configPath := fs.String("config", "config.yaml", "path to configuration file")
	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return nil, nil, err
	}
	return cfg, setupLogger(cfg.LogLevel), nil
}

func runSync(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("sync", flag.ExitOnError)
	cfg, logger, err := loadConfig(fs, args)
	if err != nil {
		return err
	}

	if cfg.Mailbox.Password == "" {
		if pw, err := credential.Get(credential.KeyMailboxPassword); err == nil {
			cfg.Mailbox.Password = pw
		}
	}

	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	recv, err := newReceiver(&cfg.Mailbox, logger)
	if err != nil {
		if mailbox.IsAuthError(err) {
			return fmt.Errorf("mailbox login failed, check credentials: %w", err)
		}
		return err
	}
	defer recv.Close()

	engine := ingest.New(
		st,
		recv,
		classify.New(cfg.Keywords),
		render.NewDigest(cfg.DigestPath()),
		cfg.Mailbox.LookbackDays,
		logger,
	)

	result, err := engine.Sync(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("Sync complete: %d new, %d duplicate, %d decode failures (window since %s)\n",
		result.Ingested,
		result.SkippedDuplicate,
		result.DecodeFailures,
		result.WindowStart.Format("2006-01-02"))
	if result.RenderWarning != nil {
		fmt.Printf("Warning: digest not regenerated: %v\n", result.RenderWarning)
	}
	return nil
}

func runProspects(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("prospects", flag.ExitOnError)
	cfg, logger, err := loadConfig(fs, args)
	if err != nil {
		return err
	}

	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	msgs, err := st.ListMessages(ctx)
	if err != nil {
		return err
	}
	if len(msgs) == 0 {
		fmt.Println("No ingested messages; run sync first.")
		return nil
	}

	var batch []model.Prospect
	queries := 0
	for _, msg := range msgs {
		for _, q := range extract.SplitQueries(msg.Body) {
			queries++
			matched := extract.MatchKeywords(q.Text, cfg.Keywords)
			if p := extract.Prospect(q.Text, matched); p != nil {
				batch = append(batch, *p)
			}
		}
	}
	logger.Info("extracted prospects", "messages", len(msgs), "queries", queries, "prospects", len(batch))

	added, err := st.MergeProspects(ctx, batch)
	if err != nil {
		return err
	}
	fmt.Printf("Found %d prospects across %d queries, %d new\n", len(batch), queries, added)
	return nil
}

func runDispatch(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("dispatch", flag.ExitOnError)
	itemsPath := fs.String("items", filepath.Join("data", "outreach_emails.json"), "path to outreach items JSON")
	dryRun := fs.Bool("dry-run", false, "log sends instead of contacting the relay")
	cfg, logger, err := loadConfig(fs, args)
	if err != nil {
		return err
	}

	items, err := dispatch.LoadItems(*itemsPath)
	if err != nil {
		return err
	}
	if len(items) == 0 {
		fmt.Println("No outreach items to dispatch.")
		return nil
	}

	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	sender, err := newSender(cfg, *dryRun, logger)
	if err != nil {
		return err
	}

	validator := dispatch.NewValidator(net.DefaultResolver, logger)
	engine := dispatch.New(st, sender, validator, logger)

	summary, err := engine.Dispatch(ctx, items)
	if summary != nil {
		fmt.Printf("Dispatch summary: %d sent, %d failed, %d skipped, %d already contacted (%d total)\n",
			summary.Sent, summary.Failed, summary.Skipped, summary.AlreadyContacted, summary.Total())
	}
	return err
}

func runTrack(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("track", flag.ExitOnError)
	out := fs.String("out", "", "report path (default <data-dir>/backlink_check.json)")
	cfg, logger, err := loadConfig(fs, args)
	if err != nil {
		return err
	}
	if cfg.TargetDomain == "" {
		return fmt.Errorf("target_domain is not configured")
	}

	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	prospects, err := st.ListProspects(ctx)
	if err != nil {
		return err
	}
	if len(prospects) == 0 {
		fmt.Println("No prospects stored; run prospects first.")
		return nil
	}

	checker := track.NewChecker(cfg.TargetDomain, logger)
	report := checker.Check(ctx, prospects)

	path := *out
	if path == "" {
		path = filepath.Join(cfg.DataDir, "backlink_check.json")
	}
	if err := track.WriteReport(report, path); err != nil {
		return err
	}

	fmt.Printf("Backlinks: %d/%d found, report written to %s\n",
		report.Summary.BacklinksFound, report.Summary.TotalChecked, path)
	return nil
}

func runCredential(args []string) error {
	if len(args) < 2 || args[0] != "set" {
		return fmt.Errorf("usage: outreach credential set <mailbox|relay>")
	}

	var key string
	switch args[1] {
	case "mailbox":
		key = credential.KeyMailboxPassword
	case "relay":
		key = credential.KeyRelayPassword
	default:
		return fmt.Errorf("unknown credential %q (want mailbox or relay)", args[1])
	}

	fmt.Print("Password: ")
	value, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return fmt.Errorf("reading password: %w", err)
	}
	value = strings.TrimRight(value, "\r\n")
	if value == "" {
		return fmt.Errorf("empty password")
	}

	if err := credential.Set(key, value); err != nil {
		return err
	}
	fmt.Printf("Stored %s password in keyring.\n", args[1])
	return nil
}

func openStore(cfg *config.Config) (*store.Store, error) {
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}
	return store.New(cfg.DatabasePath())
}

func newReceiver(cfg *config.MailboxConfig, logger *slog.Logger) (mailbox.Receiver, error) {
	switch cfg.Protocol {
	case "pop3":
		return mailbox.DialPOP3(cfg, logger)
	case "imap", "":
		return mailbox.DialIMAP(cfg, logger)
	default:
		return nil, fmt.Errorf("unsupported mailbox protocol: %s", cfg.Protocol)
	}
}

func newSender(cfg *config.Config, dryRun bool, logger *slog.Logger) (relay.Sender, error) {
	if dryRun {
		return relay.NewNoopSender(logger), nil
	}

	switch cfg.Relay.Provider {
	case "noop":
		return relay.NewNoopSender(logger), nil
	case "resend":
		if cfg.Relay.ResendAPIKey == "" {
			return nil, fmt.Errorf("relay.resend_api_key is not configured")
		}
		from := cfg.Relay.FromEmail
		if cfg.Relay.FromName != "" {
			from = fmt.Sprintf("%s <%s>", cfg.Relay.FromName, cfg.Relay.FromEmail)
		}
		return relay.NewResendSender(cfg.Relay.ResendAPIKey, from, logger), nil
	case "smtp", "":
		if cfg.Relay.Password == "" {
			if pw, err := credential.Get(credential.KeyRelayPassword); err == nil {
				cfg.Relay.Password = pw
			}
		}
		return relay.NewSMTPSender(&cfg.Relay, logger), nil
	default:
		return nil, fmt.Errorf("unsupported relay provider: %s", cfg.Relay.Provider)
	}
}

func setupLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}
