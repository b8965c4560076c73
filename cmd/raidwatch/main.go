package main

import (
	"context"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/raidwatch/raidwatch/internal/alerter"
	"github.com/raidwatch/raidwatch/internal/api"
	"github.com/raidwatch/raidwatch/internal/config"
	"github.com/raidwatch/raidwatch/internal/fetcher"
	"github.com/raidwatch/raidwatch/internal/metrics"
	"github.com/raidwatch/raidwatch/internal/notifier"
	"github.com/raidwatch/raidwatch/internal/poller"
	"github.com/raidwatch/raidwatch/internal/version"
	"github.com/raidwatch/raidwatch/internal/webui"
	"github.com/rs/zerolog"
)

func main() {
	// Captures the last 1000 log entries for the status page
	logBuffer := webui.NewLogBuffer(1000)

	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	level, err := zerolog.ParseLevel(os.Getenv("LOG_LEVEL"))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	logger := zerolog.New(io.MultiWriter(os.Stdout, logBuffer)).With().
		Timestamp().
		Str("version", version.Version).
		Str("commit", version.Commit).
		Logger()

	logger.Info().Str("build", version.String()).Msg("Starting raidwatch")

	configPath := os.Getenv("RAIDWATCH_CONFIG")
	cfg, err := config.Load(configPath)
	if err != nil {
		logger.Fatal().
			Err(err).
			Str("config_path", configPath).
			Msg("Failed to load configuration")
	}

	logger.Info().
		Int("region_count", len(cfg.Regions)).
		Strs("categories", cfg.Categories).
		Dur("interval", cfg.Poll.Interval).
		Str("notifier", cfg.Notifier.Type).
		Msg("Configuration loaded")

	f, err := fetcher.New(fetcher.Options{
		URL:      cfg.API.URL,
		Token:    cfg.API.Token,
		Timeout:  cfg.API.Timeout,
		RetryMax: cfg.API.RetryMax,
	}, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to create fetcher")
	}

	sender := newSender(cfg, logger)
	if err := sender.Validate(); err != nil {
		logger.Fatal().Err(err).Str("notifier", sender.Type()).Msg("Invalid notifier configuration")
	}
	n := notifier.NewNotifier(sender, logger)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	detector := alerter.NewDetector(cfg.TrackedCategory, cfg.Regions, logger)
	loop := poller.New(poller.Options{
		Interval:   cfg.Poll.Interval,
		Regions:    cfg.Regions,
		Categories: cfg.CategorySet(),
	}, f, detector, n, m, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var wg sync.WaitGroup
	if cfg.HTTP.Listen != "" {
		server := api.NewServer(loop, cfg.Regions, reg, logger, cfg.HTTP.Listen)
		server.SetLogBuffer(logBuffer)
		server.SetVersion(version.Version, version.Commit, version.BuildDate)

		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := server.Run(ctx); err != nil {
				logger.Error().Err(err).Msg("API server error")
			}
		}()
	}

	if err := n.Announce(ctx); err != nil {
		logger.Error().Err(err).Msg("Failed to send startup announcement")
	}

	logger.Info().Msg("raidwatch running, press Ctrl+C to stop")
	if err := loop.Run(ctx); err != nil {
		logger.Error().Err(err).Msg("Poll loop exited with error")
	}

	logger.Info().Msg("Shutting down...")
	wg.Wait()
	logger.Info().Msg("raidwatch stopped")
}

func newSender(cfg *config.Config, logger zerolog.Logger) notifier.Sender {
	switch cfg.Notifier.Type {
	case "apprise":
		return notifier.NewApprise(cfg.Notifier.Apprise.APIURL, cfg.Notifier.Apprise.Key)
	case "log":
		return notifier.NewLogSender(logger.With().Str("component", "notifier").Logger())
	default:
		return notifier.NewTelegram(cfg.Notifier.Telegram.APIURL, cfg.Notifier.Telegram.Token, cfg.Notifier.Telegram.ChatID)
	}
}
