// Package cmd provides the command-line interface for SEOWatch.
// It handles configuration loading, component wiring and process
// lifecycle for the monitoring daemon.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/avelane/seowatch/internal/api"
	"github.com/avelane/seowatch/internal/cache"
	"github.com/avelane/seowatch/internal/config"
	"github.com/avelane/seowatch/internal/crawler"
	"github.com/avelane/seowatch/internal/logging"
	"github.com/avelane/seowatch/internal/metrics"
	"github.com/avelane/seowatch/internal/monitoring"
	"github.com/avelane/seowatch/internal/notify"
	"github.com/avelane/seowatch/internal/pages"
	"github.com/avelane/seowatch/internal/reporting"
	"github.com/avelane/seowatch/internal/scheduler"
	"github.com/avelane/seowatch/internal/storage"
)

var (
	cfgFile   string
	version   string
	buildTime string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "seowatch",
	Short: "SEO monitoring daemon for bilingual marketing sites",
	Long: `SEOWatch crawls the configured pages of a marketing site on
per-page schedules, scores their SEO signals, syncs results to the
search-console API and raises alerts when failure rates or response
times cross their thresholds.`,
	Args: cobra.NoArgs,
	RunE: runMonitor,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// SetVersionInfo sets version information for the CLI
func SetVersionInfo(v, bt string) {
	version = v
	buildTime = bt
	rootCmd.Version = fmt.Sprintf("%s (built %s)", version, buildTime)
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./seowatch.yml)")

	rootCmd.Flags().Bool("show-config", false, "Display current configuration in YAML format and exit")

	rootCmd.Flags().StringP("site", "s", "", "Base URL of the monitored site")
	rootCmd.Flags().StringP("listen", "l", ":8090", "Admin API listen address")
	rootCmd.Flags().DurationP("timeout", "t", 30*time.Second, "HTTP request timeout")
	rootCmd.Flags().StringP("user-agent", "u", "SEOWatch/1.0", "HTTP User-Agent header")
	rootCmd.Flags().StringP("database", "d", "./seowatch.db", "Path to the SQLite archive (empty disables archiving)")
	rootCmd.Flags().String("log-level", "info", "Log level: debug, info, warn or error")
	rootCmd.Flags().String("log-file", "", "Log file path (empty logs to stdout only)")

	bindFlags := []struct {
		viperKey string
		flagName string
	}{
		{"site_base_url", "site"},
		{"listen_addr", "listen"},
		{"request_timeout", "timeout"},
		{"user_agent", "user-agent"},
		{"database_path", "database"},
		{"log_level", "log-level"},
		{"log_file", "log-file"},
	}
	for _, bind := range bindFlags {
		if err := viper.BindPFlag(bind.viperKey, rootCmd.Flags().Lookup(bind.flagName)); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to bind flag %s: %v\n", bind.flagName, err)
		}
	}
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName("seowatch")
	}

	viper.AutomaticEnv()
	viper.SetEnvPrefix("SW")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
	}
}

func showCurrentConfig(cfg *config.Config) error {
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Configuration validation failed: %v\n", err)
		fmt.Fprintf(os.Stderr, "Displaying configuration anyway...\n\n")
	}

	yamlData, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal configuration to YAML: %w", err)
	}

	fmt.Printf("# Current SEOWatch Configuration\n")
	fmt.Printf("# Generated at: %s\n", time.Now().Format(time.RFC3339))
	fmt.Printf("# Configuration file search paths: ./seowatch.yml\n")
	fmt.Printf("# Environment variables prefix: SW_\n\n")
	fmt.Print(string(yamlData))
	return nil
}

func runMonitor(cmd *cobra.Command, args []string) error {
	showConfig, _ := cmd.Flags().GetBool("show-config")

	cfg := config.DefaultConfig()
	if err := viper.Unmarshal(cfg); err != nil {
		return fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if showConfig {
		return showCurrentConfig(cfg)
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logCloser, err := logging.Setup(cfg.LogLevel, cfg.LogFile)
	if err != nil {
		return fmt.Errorf("failed to set up logging: %w", err)
	}
	defer logCloser.Close()

	metrics.Init()

	slog.Info("Starting SEOWatch", "version", version, "site", cfg.SiteBaseURL, "pages", len(cfg.Pages))

	app, err := buildApplication(cfg)
	if err != nil {
		return err
	}
	defer app.close()

	return app.run(cmd.Context())
}

// application holds the wired components and their teardown order.
type application struct {
	cfg       *config.Config
	archive   *storage.SQLiteArchive
	crawler   *crawler.SEOCrawler
	scheduler *scheduler.Scheduler
	monitor   *monitoring.Monitor
	server    *api.Server
	closers   []func()
}

func buildApplication(cfg *config.Config) (*application, error) {
	app := &application{cfg: cfg}

	// Archive is optional; the daemon runs fully in-memory without it.
	if cfg.DatabasePath != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.DatabasePath), 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
		archive, err := storage.NewSQLiteArchive(cfg.DatabasePath)
		if err != nil {
			return nil, fmt.Errorf("failed to open archive: %w", err)
		}
		app.archive = archive
		app.closers = append(app.closers, func() { _ = archive.Close() })
	}

	registry, err := pages.NewRegistry(cfg.SiteBaseURL, cfg.Pages)
	if err != nil {
		return nil, fmt.Errorf("invalid page set: %w", err)
	}

	httpFetcher := crawler.NewHTTPFetcher(cfg.UserAgent, cfg.RequestTimeout)
	app.closers = append(app.closers, httpFetcher.Close)

	var rendered crawler.Fetcher
	if registry.NeedsRendering() {
		renderedFetcher := crawler.NewRenderedFetcher(cfg.UserAgent, cfg.RenderTimeout)
		app.closers = append(app.closers, renderedFetcher.Close)
		rendered = renderedFetcher
	}
	app.crawler = crawler.NewSEOCrawler(httpFetcher, rendered, crawler.NewRateLimiter(cfg.RequestDelay))

	reporter := reporting.NewClient(cfg.Reporting, cfg.RequestTimeout, nil)
	if !reporter.IsConfigured() {
		slog.Info("Search-console reporting disabled, no API endpoint configured")
	}

	var store scheduler.OutcomeStore
	var alertStore monitoring.AlertStore
	if app.archive != nil {
		store = app.archive
		alertStore = app.archive
	}

	sched, err := scheduler.NewScheduler(registry, app.crawler, reporter, scheduler.Options{
		TickInterval: cfg.Scheduler.TickInterval,
		HistoryLimit: cfg.Scheduler.HistoryLimit,
		Store:        store,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build scheduler: %w", err)
	}
	app.scheduler = sched

	app.monitor = monitoring.NewMonitor(sched, cfg.Alerting, buildChannels(cfg.Notifications), monitoring.Options{
		Store: alertStore,
	})

	snapshotCache := cache.New(cfg.Cache)
	var archiveReader api.OutcomeArchive
	if app.archive != nil {
		archiveReader = app.archive
	}
	app.server = api.NewServer(cfg.ListenAddr, sched, app.monitor, archiveReader, snapshotCache, cfg.Cache.TTL)

	return app, nil
}

// buildChannels assembles the enabled notification channels.
func buildChannels(cfg config.NotificationConfig) []monitoring.Channel {
	var channels []monitoring.Channel
	if cfg.EmailEnabled && cfg.SMTPAddr != "" {
		channels = append(channels, notify.NewEmailChannel(cfg.SMTPAddr, cfg.SMTPFrom, cfg.Recipients))
		slog.Info("Email notifications enabled", "smtp", cfg.SMTPAddr, "recipients", len(cfg.Recipients))
	}
	if cfg.WebhookEnabled && cfg.WebhookURL != "" {
		channels = append(channels, notify.NewWebhookChannel(cfg.WebhookURL, 10*time.Second))
		slog.Info("Webhook notifications enabled")
	}
	if len(channels) == 0 {
		slog.Info("No notification channels configured, alerts are log-only")
	}
	return channels
}

// run starts the tickers and the admin API, then blocks until the
// context is cancelled or a termination signal arrives.
func (a *application) run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	a.scheduler.Start(ctx)
	a.monitor.Start(ctx)

	serverErr := make(chan error, 1)
	go func() {
		if err := a.server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case err := <-serverErr:
		return fmt.Errorf("admin API failed: %w", err)
	case <-ctx.Done():
	}

	slog.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := a.server.Shutdown(shutdownCtx); err != nil {
		slog.Warn("Admin API shutdown failed", "error", err)
	}

	a.scheduler.Stop()
	a.monitor.Stop()
	return nil
}

func (a *application) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}
