package cli

import (
	"context"
	"errors"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/m-mizutani/brave-versions/pkg/cli/config"
	"github.com/m-mizutani/brave-versions/pkg/domain/types"
	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

// Run runs the CLI application
func Run(ctx context.Context, args []string) error {
	var (
		loggerCfg    config.Logger
		sentryCfg    config.Sentry
		fileCfg      config.File
		workspaceCfg config.Workspace
		logger       *slog.Logger
	)

	// .env has to be loaded before flags read their environment sources
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return goerr.Wrap(err, "failed to load .env")
	}

	flags := append(loggerCfg.Flags(), sentryCfg.Flags()...)
	flags = append(flags, fileCfg.Flags()...)
	flags = append(flags, workspaceCfg.Flags()...)

	app := &cli.Command{
		Name:    "brave-versions",
		Usage:   "Build a release manifest from brave-browser tags and GitHub releases",
		Version: types.Version,
		Flags:   flags,
		Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
			var err error
			logger, err = loggerCfg.Configure()
			if err != nil {
				return nil, err
			}

			if err := sentryCfg.Configure(); err != nil {
				return nil, err
			}

			slog.SetDefault(logger)
			ctx = ctxlog.With(ctx, logger)
			return ctx, nil
		},
		Commands: []*cli.Command{
			cmdSync(&fileCfg, &workspaceCfg),
			cmdServe(&fileCfg, &workspaceCfg),
		},
	}

	if err := app.Run(ctx, args); err != nil {
		if logger == nil {
			logger = slog.Default()
		}
		logger.Error("CLI execution failed", slog.Any("error", err))
		sentryCfg.Report(err)
		return err
	}

	return nil
}
