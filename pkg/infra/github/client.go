package github

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/bradleyfalzon/ghinstallation/v2"
	"github.com/google/go-github/v75/github"
	"github.com/m-mizutani/brave-versions/pkg/domain/interfaces"
	"github.com/m-mizutani/brave-versions/pkg/domain/model"
	"github.com/m-mizutani/brave-versions/pkg/domain/types"
	"github.com/m-mizutani/goerr/v2"
)

type client struct {
	githubClient *github.Client
	owner        string
	repo         string
}

// config holds optional client settings
type config struct {
	token      string
	baseURL    string
	httpClient *http.Client
	app        *appCredentials
}

type appCredentials struct {
	appID          int64
	installationID int64
	privateKey     []byte
}

// Option is a functional option for the GitHub client
type Option func(*config)

// WithToken authenticates requests with a bearer token
func WithToken(token string) Option {
	return func(c *config) {
		c.token = token
	}
}

// WithBaseURL points the client at another API root, e.g. a test server
func WithBaseURL(baseURL string) Option {
	return func(c *config) {
		c.baseURL = baseURL
	}
}

// WithHTTPClient sets the underlying HTTP client
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *config) {
		c.httpClient = httpClient
	}
}

// WithAppInstallation authenticates as a GitHub App installation. It cannot
// be combined with WithToken.
func WithAppInstallation(appID, installationID int64, privateKey []byte) Option {
	return func(c *config) {
		c.app = &appCredentials{
			appID:          appID,
			installationID: installationID,
			privateKey:     privateKey,
		}
	}
}

// NewClient creates a release API client for owner/repo
func NewClient(owner, repo string, opts ...Option) (interfaces.GitHubClient, error) {
	if owner == "" || repo == "" {
		return nil, goerr.New("owner and repo are required", goerr.V("owner", owner), goerr.V("repo", repo))
	}

	cfg := &config{}
	for _, opt := range opts {
		opt(cfg)
	}

	var baseURL *url.URL
	if cfg.baseURL != "" {
		u, err := url.Parse(strings.TrimRight(cfg.baseURL, "/") + "/")
		if err != nil {
			return nil, goerr.Wrap(err, "invalid GitHub base URL", goerr.V("base_url", cfg.baseURL))
		}
		baseURL = u
	}

	httpClient := cfg.httpClient
	if cfg.app != nil {
		if cfg.token != "" {
			return nil, goerr.New("token and GitHub App authentication are exclusive")
		}

		base := http.DefaultTransport
		if httpClient != nil && httpClient.Transport != nil {
			base = httpClient.Transport
		}

		itr, err := ghinstallation.New(base, cfg.app.appID, cfg.app.installationID, cfg.app.privateKey)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to create GitHub App transport",
				goerr.V("app_id", cfg.app.appID),
				goerr.V("installation_id", cfg.app.installationID),
			)
		}
		if baseURL != nil {
			itr.BaseURL = strings.TrimRight(baseURL.String(), "/")
		}
		httpClient = &http.Client{Transport: itr}
	}

	githubClient := github.NewClient(httpClient)
	if cfg.token != "" {
		githubClient = githubClient.WithAuthToken(cfg.token)
	}
	if baseURL != nil {
		githubClient.BaseURL = baseURL
	}

	return &client{
		githubClient: githubClient,
		owner:        owner,
		repo:         repo,
	}, nil
}

// ListReleases fetches one page of releases along with pagination and
// rate limit metadata
func (c *client) ListReleases(ctx context.Context, page, perPage int) (*model.ReleasePage, error) {
	releases, resp, err := c.githubClient.Repositories.ListReleases(ctx, c.owner, c.repo, &github.ListOptions{
		Page:    page,
		PerPage: perPage,
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list releases",
			goerr.T(types.ErrTagGitHubAPI),
			goerr.V("owner", c.owner),
			goerr.V("repo", c.repo),
			goerr.V("page", page),
		)
	}

	result := &model.ReleasePage{
		Page:     page,
		Releases: make([]*model.RemoteRelease, 0, len(releases)),
		NextPage: resp.NextPage,
		LastPage: resp.LastPage,
		Rate: model.RateLimit{
			Remaining: resp.Rate.Remaining,
			Reset:     resp.Rate.Reset.Time,
		},
	}

	for _, release := range releases {
		result.Releases = append(result.Releases, convertRelease(release))
	}

	return result, nil
}

// convertRelease keeps the fields the manifest needs. Author and uploader
// identities are dropped here.
func convertRelease(release *github.RepositoryRelease) *model.RemoteRelease {
	converted := &model.RemoteRelease{
		TagName:    release.GetTagName(),
		ID:         release.GetID(),
		Name:       release.GetName(),
		Prerelease: release.GetPrerelease(),
		Draft:      release.GetDraft(),
		Assets:     make([]*model.RemoteAsset, 0, len(release.Assets)),
	}

	if release.PublishedAt != nil {
		published := release.PublishedAt.Time
		converted.PublishedAt = &published
	}

	for _, asset := range release.Assets {
		converted.Assets = append(converted.Assets, &model.RemoteAsset{
			ID:                 asset.GetID(),
			Name:               asset.GetName(),
			BrowserDownloadURL: asset.GetBrowserDownloadURL(),
		})
	}

	return converted
}
