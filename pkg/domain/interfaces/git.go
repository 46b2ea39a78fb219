package interfaces

import (
	"context"

	"github.com/m-mizutani/brave-versions/pkg/domain/model"
)

// GitClient defines the version-control operations the pipeline needs
type GitClient interface {
	// Sync makes dir a local mirror of remoteURL: clone when dir does not
	// exist, otherwise pull unless skipPull is set
	Sync(ctx context.Context, remoteURL, dir string, skipPull bool) error

	// ListTags lists tags matching pattern with the commit they point to
	ListTags(ctx context.Context, dir, pattern string) ([]model.TagRef, error)

	// ShowFile returns the content of path as it existed at ref
	ShowFile(ctx context.Context, dir, ref, path string) ([]byte, error)
}
