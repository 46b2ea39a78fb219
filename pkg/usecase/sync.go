package usecase

import (
	"context"

	"github.com/m-mizutani/brave-versions/pkg/domain/interfaces"
	"github.com/m-mizutani/brave-versions/pkg/domain/model"
	"github.com/m-mizutani/brave-versions/pkg/utils/async"
	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
)

// DefaultRepositoryURL is the repository whose tags are read
const DefaultRepositoryURL = "https://github.com/brave/brave-browser"

type syncUseCase struct {
	git        interfaces.GitClient
	tagHistory interfaces.TagHistoryUseCase
	pager      interfaces.ReleasePagerUseCase
	progress   interfaces.Progress
	writers    []interfaces.ManifestWriter

	repoURL  string
	repoDir  string
	skipPull bool
}

// SyncOption is a functional option for the sync use case
type SyncOption func(*syncUseCase)

// WithRepository sets the clone URL and the local checkout directory
func WithRepository(url, dir string) SyncOption {
	return func(uc *syncUseCase) {
		uc.repoURL = url
		uc.repoDir = dir
	}
}

// WithSkipPull keeps an existing checkout as is
func WithSkipPull(skip bool) SyncOption {
	return func(uc *syncUseCase) {
		uc.skipPull = skip
	}
}

// WithManifestWriters sets where the manifest is written, in order
func WithManifestWriters(writers ...interfaces.ManifestWriter) SyncOption {
	return func(uc *syncUseCase) {
		uc.writers = append(uc.writers, writers...)
	}
}

// NewSync creates the use case that builds the manifest end to end
func NewSync(git interfaces.GitClient, tagHistory interfaces.TagHistoryUseCase, pager interfaces.ReleasePagerUseCase, progress interfaces.Progress, opts ...SyncOption) interfaces.SyncUseCase {
	uc := &syncUseCase{
		git:        git,
		tagHistory: tagHistory,
		pager:      pager,
		progress:   progress,
		repoURL:    DefaultRepositoryURL,
	}
	for _, opt := range opts {
		opt(uc)
	}
	return uc
}

// Run syncs the repository, reads both sources concurrently, reconciles them
// and writes the manifest to every writer
func (uc *syncUseCase) Run(ctx context.Context) (*model.Manifest, error) {
	logger := ctxlog.From(ctx)
	defer uc.progress.Stop()

	if uc.repoDir == "" {
		return nil, goerr.New("repository directory is required")
	}

	logger.Info("Syncing repository",
		"url", uc.repoURL,
		"dir", uc.repoDir,
		"skip_pull", uc.skipPull,
	)
	if err := uc.git.Sync(ctx, uc.repoURL, uc.repoDir, uc.skipPull); err != nil {
		return nil, goerr.Wrap(err, "failed to sync repository")
	}

	var (
		history   *model.TagHistory
		releases  *model.ReleaseCollection
		fromCache bool
	)

	err := async.Join(ctx,
		func(ctx context.Context) error {
			h, err := uc.tagHistory.Read(ctx, uc.repoDir)
			if err != nil {
				return goerr.Wrap(err, "failed to read tag history")
			}
			history = h
			return nil
		},
		func(ctx context.Context) error {
			r, cached, err := uc.pager.FetchReleases(ctx)
			if err != nil {
				return goerr.Wrap(err, "failed to fetch releases")
			}
			releases, fromCache = r, cached
			return nil
		},
	)
	if err != nil {
		return nil, err
	}

	if fromCache {
		updated, err := uc.pager.Update(ctx)
		if err != nil {
			logger.Warn("Failed to refresh cached releases, using cache as is", "error", err)
		} else {
			releases = updated
		}
	}

	manifest := Reconcile(history.Records, releases)

	for _, w := range uc.writers {
		if err := w.WriteManifest(ctx, manifest); err != nil {
			return nil, goerr.Wrap(err, "failed to write manifest", goerr.V("location", w.Location()))
		}
		logger.Info("Wrote manifest", "location", w.Location(), "releases", manifest.Len())
	}

	logger.Info("Sync completed",
		"tags", history.Records.Len(),
		"dropped_tags", len(history.Dropped),
		"releases", releases.Len(),
		"from_cache", fromCache,
		"manifest", manifest.Len(),
	)

	return manifest, nil
}
