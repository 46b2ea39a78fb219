package config

import (
	"path/filepath"

	"github.com/m-mizutani/brave-versions/pkg/usecase"
	"github.com/urfave/cli/v3"
)

// Repository holds the source repository checkout configuration
type Repository struct {
	URL      string
	Dir      string
	SkipPull bool
}

// Flags returns CLI flags for repository configuration
func (c *Repository) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "repo-url",
			Usage:       "Clone URL of the repository whose tags are read",
			Value:       usecase.DefaultRepositoryURL,
			Destination: &c.URL,
			Sources:     cli.EnvVars("BRAVE_VERSIONS_REPO_URL"),
		},
		&cli.StringFlag{
			Name:        "repo-dir",
			Usage:       "Local checkout (default: $BRAVE_VERSIONS_DIR/brave-browser)",
			Destination: &c.Dir,
			Sources:     cli.EnvVars("BRAVE_VERSIONS_REPO_DIR"),
		},
		&cli.BoolFlag{
			Name:        "skip-pull",
			Usage:       "Use an existing checkout without pulling",
			Destination: &c.SkipPull,
			Sources:     cli.EnvVars("BRAVE_VERSIONS_SKIP_PULL"),
		},
	}
}

// CheckoutDir returns the local checkout, defaulting to a directory in baseDir
func (c *Repository) CheckoutDir(baseDir string) string {
	if c.Dir != "" {
		return c.Dir
	}
	return filepath.Join(baseDir, defaultRepoDirName)
}
