package serverconn

import (
	"context"
	"fmt"
	"net"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/yuv418/echodawn/internal/protocol"
	"github.com/yuv418/echodawn/internal/session"
)

// Config is the server's top-level runtime configuration (spec §6).
type Config struct {
	IP       string
	Port     int
	CertPath string
	KeyPath  string

	EdssConfig session.PluginConfig

	MaxFrameSize uint64
}

func (c Config) addr() string {
	return fmt.Sprintf("%s:%d", c.IP, c.Port)
}

// Run binds the TLS listener and accepts connections until ctx is
// cancelled or the listener errors. The accept loop and the cancellation
// watcher run under an errgroup; each accepted connection runs in its own
// goroutine outside that group, so one connection's failure (including a
// panic) never affects another (spec §4.5 "Isolation").
func Run(ctx context.Context, cfg Config) error {
	ln, err := Listen(cfg.addr(), cfg.CertPath, cfg.KeyPath)
	if err != nil {
		return err
	}

	group, ctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		<-ctx.Done()
		return ln.Close()
	})

	maxFrameSize := cfg.MaxFrameSize
	if maxFrameSize == 0 {
		maxFrameSize = protocol.DefaultMaxFrameSize
	}

	log.Info().Str("addr", cfg.addr()).Msg("server bound and main loop starting")
	group.Go(func() error {
		for {
			conn, err := ln.Accept()
			if err != nil {
				select {
				case <-ctx.Done():
					return nil
				default:
					return fmt.Errorf("serverconn: accept: %w", err)
				}
			}
			runConnection(conn, cfg.EdssConfig, maxFrameSize)
		}
	})

	return group.Wait()
}

// runConnection spawns the per-connection task and recovers from any panic
// within it, logging instead of taking down the server (spec §4.5).
func runConnection(conn net.Conn, plugin session.PluginConfig, maxFrameSize uint64) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				log.Error().Interface("panic", r).Msg("panic in connection handler, connection dropped")
			}
		}()
		HandleConn(conn, plugin, maxFrameSize)
	}()
}
