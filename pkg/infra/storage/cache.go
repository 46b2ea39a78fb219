package storage

import (
	"context"
	"encoding/json"
	"errors"
	"os"

	"github.com/m-mizutani/brave-versions/pkg/domain/model"
	"github.com/m-mizutani/brave-versions/pkg/domain/types"
	"github.com/m-mizutani/goerr/v2"
)

// ReleaseCacheFileName is the cache file name inside the cache directory
const ReleaseCacheFileName = "gh-releases.json"

// ReleaseCache stores the release collection as a JSON object keyed by tag
type ReleaseCache struct {
	path string
}

// NewReleaseCache creates a cache backed by the file at path
func NewReleaseCache(path string) *ReleaseCache {
	return &ReleaseCache{path: path}
}

// Path returns the cache file path
func (c *ReleaseCache) Path() string {
	return c.path
}

// Exists reports whether the cache file is present
func (c *ReleaseCache) Exists(ctx context.Context) (bool, error) {
	_, err := os.Stat(c.path)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, os.ErrNotExist):
		return false, nil
	default:
		return false, goerr.Wrap(err, "failed to stat release cache", goerr.T(types.ErrTagCache), goerr.V("path", c.path))
	}
}

// Load reads the cached collection
func (c *ReleaseCache) Load(ctx context.Context) (*model.ReleaseCollection, error) {
	data, err := os.ReadFile(c.path)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read release cache", goerr.T(types.ErrTagCache), goerr.V("path", c.path))
	}

	releases := model.NewReleaseCollection()
	if err := json.Unmarshal(data, releases); err != nil {
		return nil, goerr.Wrap(err, "failed to parse release cache", goerr.T(types.ErrTagCache), goerr.V("path", c.path))
	}

	return releases, nil
}

// Save replaces the cache with releases
func (c *ReleaseCache) Save(ctx context.Context, releases *model.ReleaseCollection) error {
	data, err := json.Marshal(releases)
	if err != nil {
		return goerr.Wrap(err, "failed to encode release cache", goerr.T(types.ErrTagStorage))
	}

	if err := writeFileAtomically(c.path, data); err != nil {
		return goerr.Wrap(err, "failed to write release cache", goerr.T(types.ErrTagStorage), goerr.V("path", c.path))
	}

	return nil
}
