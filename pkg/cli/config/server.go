package config

import (
	"path/filepath"

	"github.com/urfave/cli/v3"
)

// Server holds manifest server configuration
type Server struct {
	Addr     string
	Manifest string
	Reload   bool
}

// Flags returns CLI flags for server configuration
func (c *Server) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "addr",
			Usage:       "Server address",
			Value:       "localhost:8080",
			Destination: &c.Addr,
			Sources:     cli.EnvVars("BRAVE_VERSIONS_ADDR"),
		},
		&cli.StringFlag{
			Name:        "manifest",
			Usage:       "Manifest file to serve (default: $BRAVE_VERSIONS_DIR/final-releases.json)",
			Destination: &c.Manifest,
			Sources:     cli.EnvVars("BRAVE_VERSIONS_MANIFEST"),
		},
		&cli.BoolFlag{
			Name:        "enable-reload",
			Usage:       "Expose POST /reload to re-read the manifest (unauthenticated)",
			Destination: &c.Reload,
			Sources:     cli.EnvVars("BRAVE_VERSIONS_ENABLE_RELOAD"),
		},
	}
}

// ManifestPath returns the manifest file, falling back to the default
// output of sync in baseDir
func (c *Server) ManifestPath(baseDir string) string {
	if c.Manifest != "" {
		return c.Manifest
	}
	return filepath.Join(baseDir, defaultManifestFileName)
}
