package cli

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/m-mizutani/brave-versions/pkg/cli/config"
	"github.com/m-mizutani/brave-versions/pkg/infra/git"
	"github.com/m-mizutani/brave-versions/pkg/usecase"
	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

func cmdSync(fileCfg *config.File, workspaceCfg *config.Workspace) *cli.Command {
	var (
		repoCfg     config.Repository
		githubCfg   config.GitHub
		storageCfg  config.Storage
		progressCfg config.Progress
	)

	flags := append(repoCfg.Flags(), githubCfg.Flags()...)
	flags = append(flags, storageCfg.Flags()...)
	flags = append(flags, progressCfg.Flags()...)

	return &cli.Command{
		Name:    "sync",
		Aliases: []string{"s"},
		Usage:   "Sync the repository, fetch releases and write the manifest",
		Flags:   flags,
		Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
			return ctx, fileCfg.Apply(c)
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
			defer stop()

			logger := ctxlog.From(ctx).With("run_id", uuid.NewString())
			ctx = ctxlog.With(ctx, logger)

			baseDir, err := workspaceCfg.Resolve()
			if err != nil {
				return err
			}

			logger.Info("Starting sync",
				slog.String("dir", baseDir),
				slog.Any("github", githubCfg),
				slog.Bool("cache", storageCfg.Cache),
			)

			githubClient, err := githubCfg.NewClient()
			if err != nil {
				return err
			}

			writers, closeWriters, err := storageCfg.ManifestWriters(ctx, baseDir)
			if err != nil {
				return err
			}
			defer closeWriters()

			progress := progressCfg.New()
			gitClient := git.NewClient()

			pagerOpts := []usecase.ReleasePagerOption{usecase.WithPagerProgress(progress)}
			if cache := storageCfg.ReleaseCache(baseDir); cache != nil {
				pagerOpts = append(pagerOpts, usecase.WithReleaseCache(cache))
			}

			syncUC := usecase.NewSync(
				gitClient,
				usecase.NewTagHistory(gitClient, progress),
				usecase.NewReleasePager(githubClient, pagerOpts...),
				progress,
				usecase.WithRepository(repoCfg.URL, repoCfg.CheckoutDir(baseDir)),
				usecase.WithSkipPull(repoCfg.SkipPull),
				usecase.WithManifestWriters(writers...),
			)

			if _, err := syncUC.Run(ctx); err != nil {
				return goerr.Wrap(err, "sync failed")
			}

			return nil
		},
	}
}
