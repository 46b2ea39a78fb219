package config

import (
	"os"

	"github.com/m-mizutani/brave-versions/pkg/domain/interfaces"
	"github.com/m-mizutani/brave-versions/pkg/infra/github"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

// GitHub holds release API configuration
type GitHub struct {
	Owner   string
	Repo    string
	Token   string `masq:"secret"`
	BaseURL string

	AppID          int64
	InstallationID int64
	PrivateKey     string `masq:"secret"`
	PrivateKeyFile string
}

// Flags returns CLI flags for GitHub configuration
func (c *GitHub) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "github-owner",
			Usage:       "Owner of the repository whose releases are fetched",
			Value:       "brave",
			Destination: &c.Owner,
			Sources:     cli.EnvVars("BRAVE_VERSIONS_GITHUB_OWNER"),
		},
		&cli.StringFlag{
			Name:        "github-repo",
			Usage:       "Repository whose releases are fetched",
			Value:       "brave-browser",
			Destination: &c.Repo,
			Sources:     cli.EnvVars("BRAVE_VERSIONS_GITHUB_REPO"),
		},
		&cli.StringFlag{
			Name:        "github-token",
			Usage:       "GitHub API token, raises the rate limit",
			Destination: &c.Token,
			Sources:     cli.EnvVars("GITHUB_TOKEN", "BRAVE_VERSIONS_GITHUB_TOKEN"),
		},
		&cli.StringFlag{
			Name:        "github-base-url",
			Usage:       "GitHub API base URL (GitHub Enterprise)",
			Destination: &c.BaseURL,
			Sources:     cli.EnvVars("BRAVE_VERSIONS_GITHUB_BASE_URL"),
		},
		&cli.Int64Flag{
			Name:        "github-app-id",
			Usage:       "GitHub App ID, authenticates as an App installation instead of a token",
			Destination: &c.AppID,
			Sources:     cli.EnvVars("BRAVE_VERSIONS_GITHUB_APP_ID"),
		},
		&cli.Int64Flag{
			Name:        "github-installation-id",
			Usage:       "GitHub App installation ID",
			Destination: &c.InstallationID,
			Sources:     cli.EnvVars("BRAVE_VERSIONS_GITHUB_INSTALLATION_ID"),
		},
		&cli.StringFlag{
			Name:        "github-private-key",
			Usage:       "GitHub App private key (PEM)",
			Destination: &c.PrivateKey,
			Sources:     cli.EnvVars("BRAVE_VERSIONS_GITHUB_PRIVATE_KEY"),
		},
		&cli.StringFlag{
			Name:        "github-private-key-file",
			Usage:       "File containing the GitHub App private key",
			Destination: &c.PrivateKeyFile,
			Sources:     cli.EnvVars("BRAVE_VERSIONS_GITHUB_PRIVATE_KEY_FILE"),
		},
	}
}

// NewClient creates the release API client
func (c *GitHub) NewClient() (interfaces.GitHubClient, error) {
	var opts []github.Option
	if c.AppID != 0 {
		key, err := c.privateKey()
		if err != nil {
			return nil, err
		}
		opts = append(opts, github.WithAppInstallation(c.AppID, c.InstallationID, key))
	} else if c.Token != "" {
		opts = append(opts, github.WithToken(c.Token))
	}
	if c.BaseURL != "" {
		opts = append(opts, github.WithBaseURL(c.BaseURL))
	}

	client, err := github.NewClient(c.Owner, c.Repo, opts...)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create GitHub client")
	}
	return client, nil
}

func (c *GitHub) privateKey() ([]byte, error) {
	if c.InstallationID == 0 {
		return nil, goerr.New("installation ID is required for GitHub App authentication", goerr.V("app_id", c.AppID))
	}

	switch {
	case c.PrivateKey != "":
		return []byte(c.PrivateKey), nil
	case c.PrivateKeyFile != "":
		data, err := os.ReadFile(c.PrivateKeyFile)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to read GitHub App private key", goerr.V("path", c.PrivateKeyFile))
		}
		return data, nil
	default:
		return nil, goerr.New("private key is required for GitHub App authentication", goerr.V("app_id", c.AppID))
	}
}
