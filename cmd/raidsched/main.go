package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"raidsched/internal/config"
	"raidsched/internal/digest"
	appLog "raidsched/internal/log"
	"raidsched/internal/schedule"
	"raidsched/internal/store"
	"raidsched/internal/web"
)

const version = "0.1.0"

// flagConfig holds CLI flag values that override the config file.
type flagConfig struct {
	configPath string
	listen     string
	logLevel   string
	digestOnce bool
}

func main() {
	flags := parseFlags()

	conf, err := config.Load(flags.configPath)
	if err != nil {
		appLog.Error("failed to load config", err, "config_path", flags.configPath)
		os.Exit(1)
	}

	// CLI flags override the config file when provided.
	if flags.listen != "" {
		conf.Listen = flags.listen
	}
	if flags.logLevel != "" {
		conf.LogLevel = flags.logLevel
	}
	appLog.SetLevel(appLog.ParseLevel(conf.LogLevel))
	appLog.Info("raidsched starting", "version", version)

	appLog.Info("effective config",
		"listen", conf.Listen,
		"default_timezone", conf.DefaultTimezone,
		"storage", conf.Storage.Backend,
		"digest_cron", conf.Digest.Cron,
		"digest_communities", len(conf.Digest.Communities),
		"basic_auth", conf.BasicAuthEnabled(),
	)

	// Root context with cancellation on SIGINT/SIGTERM.
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	st, closeStore, err := openStore(ctx, conf)
	if err != nil {
		appLog.Error("failed to open store", err, "backend", conf.Storage.Backend)
		os.Exit(1)
	}
	defer closeStore()

	engine := schedule.NewEngine(st, nil)
	job := digest.NewJob(engine, newNotifier(conf.Digest), nil, conf.Digest)

	if flags.digestOnce {
		if err := job.Run(ctx); err != nil {
			appLog.Error("digest run failed", err)
			os.Exit(1)
		}
		return
	}

	if conf.Digest.Cron != "" {
		c, err := digest.Schedule(job, conf.Digest.Cron, 2*time.Minute)
		if err != nil {
			appLog.Error("failed to schedule digest", err, "cron", conf.Digest.Cron)
			os.Exit(1)
		}
		c.Start()
		defer func() { <-c.Stop().Done() }()
		appLog.Info("digest scheduled", "cron", conf.Digest.Cron)
	}

	if err := web.StartServer(ctx, conf, engine); err != nil {
		appLog.Error("HTTP server failed", err, "listen", conf.Listen)
		os.Exit(1)
	}
	appLog.Info("raidsched exiting")
}

// openStore builds the configured backend. The returned func releases its
// resources.
func openStore(ctx context.Context, conf *config.Config) (store.Store, func(), error) {
	switch conf.Storage.Backend {
	case config.BackendMemory:
		return store.NewMemoryStore(conf.DefaultTimezone), func() {}, nil
	case config.BackendRedis:
		r := conf.Storage.Redis
		client, err := store.NewRedisClient(ctx, r.Addr, r.Password, r.DB)
		if err != nil {
			return nil, nil, err
		}
		closeFn := func() {
			if err := client.Close(); err != nil {
				appLog.Error("redis close failed", err)
			}
		}
		return store.NewRedisStore(client, r.KeyPrefix, conf.DefaultTimezone), closeFn, nil
	case config.BackendFile:
		return store.NewFileStore(conf.Storage.Dir, conf.DefaultTimezone), func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage backend %q", conf.Storage.Backend)
	}
}

func newNotifier(conf config.DigestConfig) digest.Notifier {
	if conf.WebhookURL != "" {
		return digest.NewWebhookNotifier(conf.WebhookURL)
	}
	return digest.LogNotifier{}
}

func parseFlags() flagConfig {
	var cfg flagConfig

	flag.StringVar(&cfg.configPath, "config", "/etc/raidsched/config.yaml", "Path to config file")
	flag.StringVar(&cfg.listen, "listen", "", "HTTP listen address (overrides config if set)")
	flag.StringVar(&cfg.logLevel, "log-level", "", "Log level: debug, info or error (overrides config if set)")
	flag.BoolVar(&cfg.digestOnce, "digest-once", false, "Send the digest once and exit")

	flag.Parse()

	return cfg
}
