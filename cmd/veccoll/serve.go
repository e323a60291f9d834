package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	chiTransport "github.com/kailas-cloud/veccoll/internal/transport/chi"
	"github.com/kailas-cloud/veccoll/internal/version"
)

func serveCommand(c *cli.Context) error {
	ctx, rt, err := openRuntime(c)
	if err != nil {
		return err
	}
	defer rt.close()

	addr := c.String("addr")
	if addr == "" {
		addr = fmt.Sprintf(":%d", rt.cfg.HTTP.Port)
	}

	server := chiTransport.NewServer(rt.report, rt.collections, rt.health, rt.logger)
	srv := &http.Server{
		Addr:         addr,
		Handler:      server.Routes(rt.cfg.HTTP.APIKeys),
		ReadTimeout:  time.Duration(rt.cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(rt.cfg.HTTP.WriteTimeoutSec) * time.Second,
		BaseContext:  func(_ net.Listener) context.Context { return ctx },
	}

	sigCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		rt.logger.Info("Starting HTTP server",
			zap.String("addr", addr),
			zap.String("version", version.Version),
			zap.String("commit", version.Commit),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-sigCtx.Done():
		rt.logger.Info("Received shutdown signal")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(rt.cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	rt.logger.Info("Server stopped gracefully")
	return nil
}
