package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"LocalBoard/internal/config"
	"LocalBoard/internal/coordinator"
	"LocalBoard/internal/logging"
	boardnet "LocalBoard/internal/net"
	"LocalBoard/internal/replica"
	"LocalBoard/internal/ui"
)

func main() {
	if err := mainInner(); err != nil {
		fmt.Fprintf(os.Stderr, "localboard: %v\n", err)
		os.Exit(1)
	}
}

func mainInner() error {
	cfg, err := config.Load(os.Args[1:], os.Stderr)
	if errors.Is(err, flag.ErrHelp) {
		return nil
	}
	if err != nil {
		return err
	}
	logger := logging.New(os.Stderr, cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(logger)

	if cfg.Discover {
		return discover(cfg)
	}
	if cfg.Headless && cfg.Link != "" {
		return errors.New("-headless hosts a board and cannot be combined with a link")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	target, shareLink := cfg.Link, ""
	if cfg.Link == "" {
		ep, shutdown, err := host(cfg, logger)
		if err != nil {
			return err
		}
		defer shutdown()
		shareLink = ep.Share

		if cfg.Headless {
			logger.Info("board ready", "link", shareLink)
			<-ctx.Done()
			return nil
		}
		target = ep.Local
	}

	return join(ctx, stop, cfg, target, shareLink, logger)
}

// host starts the coordinator and announces it. The returned func stops both.
func host(cfg *config.Config, logger *slog.Logger) (boardnet.HostEndpoints, func(), error) {
	coord := coordinator.New(coordinator.WithLogger(logger))
	srv := boardnet.NewServer(cfg, coord, logger)
	if err := srv.Start(); err != nil {
		return boardnet.HostEndpoints{}, nil, err
	}

	ep, err := boardnet.Endpoints(srv.Addr())
	if err != nil {
		_ = srv.Shutdown(context.Background())
		return boardnet.HostEndpoints{}, nil, err
	}

	var stopAdvertising func() error
	if cfg.Advertise {
		m, err := boardnet.Advertise(cfg.Name, ep.Port)
		if err != nil {
			logger.Warn("mDNS advertising disabled", "err", err)
		} else {
			stopAdvertising = m.Shutdown
		}
	}

	return ep, func() {
		if stopAdvertising != nil {
			if err := stopAdvertising(); err != nil {
				logger.Warn("failed to stop mDNS", "err", err)
			}
		}
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			logger.Warn("failed to stop server", "err", err)
		}
	}, nil
}

func join(ctx context.Context, stop context.CancelFunc, cfg *config.Config, target, shareLink string, logger *slog.Logger) error {
	client, err := boardnet.Dial(ctx, target, cfg.Name, logger)
	if err != nil {
		return err
	}
	defer client.Close()

	r := replica.New(client, nil, replica.WithLogger(logger))
	lost := make(chan error, 1)
	go func() {
		defer close(lost)
		err := client.Run(ctx, r)
		if err != nil {
			logger.Error("lost connection to board", "err", err)
		}
		if ctx.Err() == nil {
			lost <- err
		}
	}()

	ui.RunApp(ui.Options{Replica: r, ShareLink: shareLink, Logger: logger, Disconnected: lost, OnClose: stop})
	return nil
}

func discover(cfg *config.Config) error {
	n := 0
	err := boardnet.Browse(cfg.DiscoverTimeout, func(addr string) {
		n++
		fmt.Println(config.URLScheme + addr)
	})
	if err != nil {
		return err
	}
	if n == 0 {
		fmt.Fprintln(os.Stderr, "no boards found")
	}
	return nil
}
