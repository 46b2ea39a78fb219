package storage

import (
	"os"
	"path/filepath"

	"github.com/google/renameio/v2"
	"github.com/m-mizutani/goerr/v2"
)

// writeFileAtomically replaces path with data so readers never observe a
// partial file
func writeFileAtomically(path string, data []byte) error {
	if path == "" {
		return goerr.New("path is empty")
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return goerr.Wrap(err, "failed to create directory", goerr.V("dir", dir))
	}

	if err := renameio.WriteFile(path, data, 0644); err != nil {
		return goerr.Wrap(err, "failed to write file", goerr.V("path", path))
	}

	return nil
}
