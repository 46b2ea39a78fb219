package config

import (
	"os"

	"github.com/m-mizutani/brave-versions/pkg/domain/interfaces"
	"github.com/m-mizutani/brave-versions/pkg/infra/progress"
	"github.com/urfave/cli/v3"
)

// Progress holds progress reporting configuration
type Progress struct {
	Enabled bool
}

// Flags returns CLI flags for progress configuration
func (c *Progress) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{
			Name:        "progress",
			Usage:       "Show progress bars on stderr",
			Value:       true,
			Destination: &c.Enabled,
			Sources:     cli.EnvVars("BRAVE_VERSIONS_PROGRESS"),
		},
	}
}

// New creates the progress reporter
func (c *Progress) New() interfaces.Progress {
	if !c.Enabled {
		return progress.NewNop()
	}
	return progress.New(os.Stderr)
}
