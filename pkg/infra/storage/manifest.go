package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/m-mizutani/brave-versions/pkg/domain/model"
	"github.com/m-mizutani/brave-versions/pkg/domain/types"
	"github.com/m-mizutani/goerr/v2"
	"gopkg.in/yaml.v3"
)

// DefaultManifestFileName is the manifest file name inside the base directory
const DefaultManifestFileName = "final-releases.json"

// ManifestFile reads and writes the manifest on local disk. Files ending in
// .yaml or .yml are YAML, everything else is JSON.
type ManifestFile struct {
	path string
}

// NewManifestFile creates a ManifestFile for path
func NewManifestFile(path string) *ManifestFile {
	return &ManifestFile{path: path}
}

// Location returns the file path
func (f *ManifestFile) Location() string {
	return f.path
}

func (f *ManifestFile) isYAML() bool {
	ext := strings.ToLower(filepath.Ext(f.path))
	return ext == ".yaml" || ext == ".yml"
}

// WriteManifest encodes the manifest and atomically replaces the file
func (f *ManifestFile) WriteManifest(ctx context.Context, manifest *model.Manifest) error {
	var data []byte
	if f.isYAML() {
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(manifest); err != nil {
			return goerr.Wrap(err, "failed to encode manifest as YAML", goerr.T(types.ErrTagStorage))
		}
		if err := enc.Close(); err != nil {
			return goerr.Wrap(err, "failed to finish YAML manifest", goerr.T(types.ErrTagStorage))
		}
		data = buf.Bytes()
	} else {
		encoded, err := json.MarshalIndent(manifest, "", "  ")
		if err != nil {
			return goerr.Wrap(err, "failed to encode manifest as JSON", goerr.T(types.ErrTagStorage))
		}
		data = append(encoded, '\n')
	}

	if err := writeFileAtomically(f.path, data); err != nil {
		return goerr.Wrap(err, "failed to write manifest", goerr.T(types.ErrTagStorage), goerr.V("path", f.path))
	}
	return nil
}

// ReadManifest loads the manifest file
func (f *ManifestFile) ReadManifest(ctx context.Context) (*model.Manifest, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, goerr.Wrap(err, "manifest not found", goerr.T(types.ErrTagNotFound), goerr.V("path", f.path))
		}
		return nil, goerr.Wrap(err, "failed to read manifest", goerr.T(types.ErrTagStorage), goerr.V("path", f.path))
	}

	manifest := model.NewManifest()
	if f.isYAML() {
		err = yaml.Unmarshal(data, manifest)
	} else {
		err = json.Unmarshal(data, manifest)
	}
	if err != nil {
		return nil, goerr.Wrap(err, "failed to parse manifest", goerr.T(types.ErrTagStorage), goerr.V("path", f.path))
	}

	return manifest, nil
}
