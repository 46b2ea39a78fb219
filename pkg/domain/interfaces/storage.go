package interfaces

import (
	"context"

	"github.com/m-mizutani/brave-versions/pkg/domain/model"
)

// ReleaseCache persists the release collection between runs
type ReleaseCache interface {
	// Exists reports whether a cache has been written
	Exists(ctx context.Context) (bool, error)
	Load(ctx context.Context) (*model.ReleaseCollection, error)
	Save(ctx context.Context, releases *model.ReleaseCollection) error
}

// ManifestWriter publishes the final manifest
type ManifestWriter interface {
	WriteManifest(ctx context.Context, manifest *model.Manifest) error
	// Location describes where the manifest goes, for logging
	Location() string
}

// ManifestReader loads a previously written manifest
type ManifestReader interface {
	ReadManifest(ctx context.Context) (*model.Manifest, error)
}
