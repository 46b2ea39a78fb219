package interfaces

import (
	"context"

	"github.com/m-mizutani/brave-versions/pkg/domain/model"
)

// GitHubClient defines operations for interacting with the release API
type GitHubClient interface {
	// ListReleases fetches one page of the release listing. perPage of 0
	// uses the API default.
	ListReleases(ctx context.Context, page, perPage int) (*model.ReleasePage, error)
}
