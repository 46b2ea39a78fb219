package config

import (
	"os"
	"path/filepath"

	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

const (
	defaultWorkspaceDirName = ".brave-versions"
	defaultRepoDirName      = "brave-browser"
	defaultManifestFileName = "final-releases.json"
)

// Workspace holds the directory where the checkout, cache and manifest live
type Workspace struct {
	Dir string
}

// Flags returns CLI flags for workspace configuration
func (c *Workspace) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "dir",
			Usage:       "Working directory (default: $HOME/.brave-versions)",
			Destination: &c.Dir,
			Sources:     cli.EnvVars("BRAVE_VERSIONS_DIR"),
		},
	}
}

// Resolve returns the working directory, creating it if needed
func (c *Workspace) Resolve() (string, error) {
	dir := c.Dir
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", goerr.Wrap(err, "failed to get home directory")
		}
		dir = filepath.Join(home, defaultWorkspaceDirName)
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", goerr.Wrap(err, "failed to create working directory", goerr.V("dir", dir))
	}

	return dir, nil
}
