package config

import (
	"context"
	"path/filepath"

	"github.com/m-mizutani/brave-versions/pkg/domain/interfaces"
	"github.com/m-mizutani/brave-versions/pkg/infra/storage"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
	"google.golang.org/api/option"
)

// Storage holds release cache and manifest output configuration
type Storage struct {
	Cache       bool
	CacheDir    string
	Output      string
	GCSBucket   string
	GCSObject   string
	GCSEndpoint string
}

// Flags returns CLI flags for storage configuration
func (c *Storage) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{
			Name:        "cache",
			Usage:       "Reuse and refresh the local release cache",
			Value:       true,
			Destination: &c.Cache,
			Sources:     cli.EnvVars("BRAVE_VERSIONS_CACHE"),
		},
		&cli.StringFlag{
			Name:        "cache-dir",
			Usage:       "Release cache directory (default: $BRAVE_VERSIONS_DIR)",
			Destination: &c.CacheDir,
			Sources:     cli.EnvVars("BRAVE_VERSIONS_CACHE_DIR"),
		},
		&cli.StringFlag{
			Name:        "output",
			Aliases:     []string{"o"},
			Usage:       "Manifest file, YAML when ending in .yaml or .yml (default: $BRAVE_VERSIONS_DIR/final-releases.json)",
			Destination: &c.Output,
			Sources:     cli.EnvVars("BRAVE_VERSIONS_OUTPUT"),
		},
		&cli.StringFlag{
			Name:        "gcs-bucket",
			Usage:       "Also upload the manifest to this Cloud Storage bucket",
			Destination: &c.GCSBucket,
			Sources:     cli.EnvVars("BRAVE_VERSIONS_GCS_BUCKET"),
		},
		&cli.StringFlag{
			Name:        "gcs-object",
			Usage:       "Object name of the uploaded manifest",
			Value:       defaultManifestFileName,
			Destination: &c.GCSObject,
			Sources:     cli.EnvVars("BRAVE_VERSIONS_GCS_OBJECT"),
		},
		&cli.StringFlag{
			Name:        "gcs-endpoint",
			Usage:       "Cloud Storage endpoint, e.g. an emulator",
			Destination: &c.GCSEndpoint,
			Sources:     cli.EnvVars("BRAVE_VERSIONS_GCS_ENDPOINT"),
		},
	}
}

// ReleaseCache returns the release cache, or nil when caching is disabled
func (c *Storage) ReleaseCache(baseDir string) interfaces.ReleaseCache {
	if !c.Cache {
		return nil
	}
	dir := c.CacheDir
	if dir == "" {
		dir = baseDir
	}
	return storage.NewReleaseCache(filepath.Join(dir, storage.ReleaseCacheFileName))
}

// OutputPath returns the manifest file path
func (c *Storage) OutputPath(baseDir string) string {
	if c.Output != "" {
		return c.Output
	}
	return filepath.Join(baseDir, defaultManifestFileName)
}

// ManifestWriters returns the local file writer and, when a bucket is set,
// the Cloud Storage writer. Call the returned closer when done.
func (c *Storage) ManifestWriters(ctx context.Context, baseDir string) ([]interfaces.ManifestWriter, func(), error) {
	writers := []interfaces.ManifestWriter{
		storage.NewManifestFile(c.OutputPath(baseDir)),
	}

	if c.GCSBucket == "" {
		return writers, func() {}, nil
	}

	var opts []option.ClientOption
	if c.GCSEndpoint != "" {
		opts = append(opts, option.WithEndpoint(c.GCSEndpoint), option.WithoutAuthentication())
	}

	gcs, err := storage.NewGCSManifest(ctx, c.GCSBucket, c.GCSObject, opts...)
	if err != nil {
		return nil, nil, goerr.Wrap(err, "failed to set up manifest upload")
	}

	return append(writers, gcs), func() { _ = gcs.Close() }, nil
}
