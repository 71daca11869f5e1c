package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"agendabot/internal/agenda"
	"agendabot/internal/bot"
	"agendabot/internal/config"
	"agendabot/internal/ics"
	appLog "agendabot/internal/log"
	"agendabot/internal/web"
)

type flagConfig struct {
	configPath string
	listen     string
	fetchOnly  bool
	debug      bool
}

func main() {
	flags := parseFlags()
	appLog.SetDebug(flags.debug)
	defer appLog.Sync()

	appLog.Info("agendabot starting")

	conf, err := config.Load(flags.configPath)
	if err != nil {
		appLog.Error("failed to load config", err, "config_path", flags.configPath)
		os.Exit(1)
	}
	if flags.listen != "" {
		conf.Listen = flags.listen
	}
	if err := conf.Validate(); err != nil {
		appLog.Error("invalid config, fill in "+flags.configPath, err)
		os.Exit(1)
	}

	loc := conf.Location()
	appLog.Info("effective config",
		"timezone", conf.Timezone,
		"listen", conf.Listen,
		"post_cron", conf.PostCron,
		"refresh_cron", conf.Calendar.RefreshCron,
		"feed_path", conf.Calendar.FeedPath,
		"guilds", len(conf.Discord.Guilds),
		"channels", len(conf.Discord.Channels),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		appLog.Info("signal received, shutting down", "signal", sig.String())
		cancel()
	}()

	store := ics.NewStore(conf.Calendar.FeedPath)
	fetcher := ics.NewFetcher(store)
	svc := agenda.NewService(store, loc)

	// Startup fetch. A failure is not fatal: queries keep serving whatever
	// blob the store already holds.
	fetchCtx, fetchCancel := context.WithTimeout(ctx, 30*time.Second)
	if err := fetcher.Fetch(fetchCtx, conf.Calendar.URL); err != nil {
		appLog.Error("startup feed fetch failed", err)
	}
	fetchCancel()

	if flags.fetchOnly {
		appLog.Info("fetch-only mode, exiting")
		return
	}

	b, err := bot.New(conf, svc, fetcher)
	if err != nil {
		appLog.Error("failed to build bot", err)
		os.Exit(1)
	}
	if err := b.Start(); err != nil {
		appLog.Error("failed to start bot", err)
		os.Exit(1)
	}
	defer b.Stop()

	if conf.Listen != "" {
		srv := web.NewServer(conf, store, svc)
		go func() {
			if err := srv.Run(ctx); err != nil {
				appLog.Error("status server failed", err)
			}
		}()
	}

	<-ctx.Done()
	appLog.Info("agendabot exiting")
}

func parseFlags() flagConfig {
	var cfg flagConfig

	flag.StringVar(&cfg.configPath, "config", "/etc/agendabot/config.yaml", "Path to config file")
	flag.StringVar(&cfg.listen, "listen", "", "Status server listen address (overrides config if set)")
	flag.BoolVar(&cfg.fetchOnly, "fetch-only", false, "Fetch the feed once and exit")
	flag.BoolVar(&cfg.debug, "debug", false, "Enable debug logging")

	flag.Parse()

	return cfg
}
