package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	opts, err := parseFlags(os.Args[1:])
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		os.Exit(2)
	}

	cfg, err := resolveConfig(opts)
	if err != nil {
		fmt.Fprintln(os.Stderr, "[FATAL]", err)
		os.Exit(1)
	}

	if cfg.Daemon && !opts.Once {
		daemonize()
	}

	closer := initLogger(cfg)
	defer closer.Close()
	defer logger.Sync()

	logger.Infow("WowzaBouncer starting",
		"log_path", cfg.LogPath,
		"poll_interval_seconds", cfg.PollInterval,
		"cooldown_seconds", cfg.Cooldown,
		"event", cfg.Event,
		"category", cfg.Category,
	)

	bouncer := NewBouncer(cfg)
	if opts.Once {
		bouncer.runOnce()
		return
	}

	var reloads chan Config
	if cfg.WatchConfig {
		reloads = make(chan Config, 1)
		stop := make(chan struct{})
		defer close(stop)
		if err := watchConfig(opts, reloads, stop); err != nil {
			logger.Errorw("config reload disabled", "error", err)
		}
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	bouncer.Run(sigChan, reloads)
}
