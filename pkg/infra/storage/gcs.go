package storage

import (
	"context"
	"encoding/json"
	"fmt"

	"cloud.google.com/go/storage"
	"github.com/m-mizutani/brave-versions/pkg/domain/model"
	"github.com/m-mizutani/brave-versions/pkg/domain/types"
	"github.com/m-mizutani/goerr/v2"
	"google.golang.org/api/option"
)

// GCSManifest uploads the manifest as a JSON object to Cloud Storage
type GCSManifest struct {
	client *storage.Client
	bucket string
	object string
}

// NewGCSManifest creates a GCS writer for gs://bucket/object. opts are
// passed to the storage client, e.g. option.WithEndpoint for an emulator.
func NewGCSManifest(ctx context.Context, bucket, object string, opts ...option.ClientOption) (*GCSManifest, error) {
	if bucket == "" || object == "" {
		return nil, goerr.New("bucket and object are required", goerr.V("bucket", bucket), goerr.V("object", object))
	}

	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create storage client")
	}

	return &GCSManifest{
		client: client,
		bucket: bucket,
		object: object,
	}, nil
}

// Location returns the gs:// URL of the object
func (g *GCSManifest) Location() string {
	return fmt.Sprintf("gs://%s/%s", g.bucket, g.object)
}

// WriteManifest uploads the manifest, replacing the object
func (g *GCSManifest) WriteManifest(ctx context.Context, manifest *model.Manifest) error {
	w := g.client.Bucket(g.bucket).Object(g.object).NewWriter(ctx)
	w.ContentType = "application/json"

	if err := json.NewEncoder(w).Encode(manifest); err != nil {
		_ = w.Close()
		return goerr.Wrap(err, "failed to upload manifest",
			goerr.T(types.ErrTagStorage),
			goerr.V("location", g.Location()),
		)
	}

	if err := w.Close(); err != nil {
		return goerr.Wrap(err, "failed to finish manifest upload",
			goerr.T(types.ErrTagStorage),
			goerr.V("location", g.Location()),
		)
	}

	return nil
}

// Close releases the storage client
func (g *GCSManifest) Close() error {
	return g.client.Close()
}
