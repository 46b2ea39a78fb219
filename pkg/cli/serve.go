package cli

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/m-mizutani/brave-versions/pkg/cli/config"
	controller "github.com/m-mizutani/brave-versions/pkg/controller/http"
	"github.com/m-mizutani/brave-versions/pkg/infra/storage"
	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

func cmdServe(fileCfg *config.File, workspaceCfg *config.Workspace) *cli.Command {
	var serverCfg config.Server

	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the manifest over HTTP",
		Flags: serverCfg.Flags(),
		Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
			return ctx, fileCfg.Apply(c)
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			logger := ctxlog.From(ctx)

			baseDir, err := workspaceCfg.Resolve()
			if err != nil {
				return err
			}
			manifestPath := serverCfg.ManifestPath(baseDir)

			logger.Info("Starting manifest server",
				slog.String("addr", serverCfg.Addr),
				slog.String("manifest", manifestPath),
				slog.Bool("reload", serverCfg.Reload),
			)

			// Create HTTP server with options
			server, err := controller.NewServer(
				ctx,
				storage.NewManifestFile(manifestPath),
				controller.WithAddr(serverCfg.Addr),
				controller.WithReload(serverCfg.Reload),
			)
			if err != nil {
				return goerr.Wrap(err, "failed to create HTTP server")
			}

			// Start server in goroutine
			go func() {
				logger.Info("HTTP server starting", slog.String("addr", serverCfg.Addr))
				if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					logger.Error("HTTP server error", slog.Any("error", err))
				}
			}()

			// Wait for interrupt signal
			sigChan := make(chan os.Signal, 1)
			signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

			select {
			case <-ctx.Done():
				logger.Info("Context cancelled, shutting down...")
			case sig := <-sigChan:
				logger.Info("Signal received, shutting down...", slog.Any("signal", sig))
			}

			// Graceful shutdown
			shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
			defer cancel()

			if err := server.Shutdown(shutdownCtx); err != nil {
				return goerr.Wrap(err, "failed to shutdown server gracefully")
			}

			logger.Info("Server shutdown complete")
			return nil
		},
	}
}
