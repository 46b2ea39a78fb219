package interfaces

import (
	"context"

	"github.com/m-mizutani/brave-versions/pkg/domain/model"
)

// TagHistoryUseCase reads per-tag metadata from a local repository
type TagHistoryUseCase interface {
	// Read lists qualifying tags and resolves each of them. Tags whose
	// metadata cannot be read are recorded as dropped, not returned as errors.
	Read(ctx context.Context, repoDir string) (*model.TagHistory, error)
}

// ReleasePagerUseCase fetches the release collection from the release API
type ReleasePagerUseCase interface {
	// FetchReleases returns the cached collection when available, otherwise
	// fetches everything. fromCache reports whether the cache was used.
	FetchReleases(ctx context.Context) (releases *model.ReleaseCollection, fromCache bool, err error)

	// FetchAll paginates the whole listing from scratch
	FetchAll(ctx context.Context) (*model.ReleaseCollection, error)

	// Update fetches the first page only and merges it into the collection
	Update(ctx context.Context) (*model.ReleaseCollection, error)
}

// SyncUseCase builds the manifest end to end
type SyncUseCase interface {
	Run(ctx context.Context) (*model.Manifest, error)
}
