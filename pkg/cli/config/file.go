package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/pelletier/go-toml/v2"
	"github.com/urfave/cli/v3"
)

// File is an optional TOML file supplying flag values. Keys are flag names;
// tables prefix their keys, so [github] owner = "x" sets --github-owner.
type File struct {
	Path string
}

// Flags returns CLI flags for the config file
func (c *File) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "config",
			Aliases:     []string{"c"},
			Usage:       "TOML config file",
			Destination: &c.Path,
			Sources:     cli.EnvVars("BRAVE_VERSIONS_CONFIG"),
		},
	}
}

// Load reads the file into flag name / value pairs. No path means no values.
func (c *File) Load() (map[string]string, error) {
	if c.Path == "" {
		return nil, nil
	}

	data, err := os.ReadFile(c.Path)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read config file", goerr.V("path", c.Path))
	}

	var raw map[string]any
	if err := toml.Unmarshal(data, &raw); err != nil {
		return nil, goerr.Wrap(err, "failed to parse config file", goerr.V("path", c.Path))
	}

	values := make(map[string]string)
	flatten("", raw, values)
	return values, nil
}

// Apply sets every flag of cmd that was given neither on the command line
// nor in the environment from the config file
func (c *File) Apply(cmd *cli.Command) error {
	values, err := c.Load()
	if err != nil {
		return err
	}

	for _, flag := range cmd.Flags {
		names := flag.Names()
		if len(names) == 0 {
			continue
		}
		name := names[0]

		value, ok := values[name]
		if !ok || cmd.IsSet(name) {
			continue
		}
		if err := cmd.Set(name, value); err != nil {
			return goerr.Wrap(err, "invalid value in config file", goerr.V("flag", name), goerr.V("path", c.Path))
		}
	}

	return nil
}

func flatten(prefix string, m map[string]any, out map[string]string) {
	for k, v := range m {
		key := k
		if prefix != "" {
			key = prefix + "-" + k
		}

		switch v := v.(type) {
		case map[string]any:
			flatten(key, v, out)
		case []any:
			items := make([]string, len(v))
			for i, item := range v {
				items[i] = fmt.Sprint(item)
			}
			out[key] = strings.Join(items, ",")
		default:
			out[key] = fmt.Sprint(v)
		}
	}
}
