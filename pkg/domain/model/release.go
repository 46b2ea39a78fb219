package model

import (
	"strings"
	"time"
)

// RemoteRelease is a release as published on the release API, without
// author or uploader identity
type RemoteRelease struct {
	TagName     string         `json:"tag_name"`
	ID          int64          `json:"id"`
	Name        string         `json:"name"`
	PublishedAt *time.Time     `json:"published_at"`
	Prerelease  bool           `json:"prerelease"`
	Draft       bool           `json:"draft"`
	Assets      []*RemoteAsset `json:"assets"`
}

// RemoteAsset is a downloadable file attached to a release
type RemoteAsset struct {
	ID                 int64  `json:"id"`
	Name               string `json:"name"`
	BrowserDownloadURL string `json:"browser_download_url"`
}

// IsPublic reports whether the release is neither a draft nor a prerelease
func (r *RemoteRelease) IsPublic() bool {
	return !r.Draft && !r.Prerelease
}

// Channel derives the release track from the display name: its first
// whitespace-delimited word, lower-cased. "Release 1.50.114" -> "release".
func (r *RemoteRelease) Channel() string {
	fields := strings.Fields(r.Name)
	if len(fields) == 0 {
		return ""
	}
	return strings.ToLower(fields[0])
}

// ReleaseCollection maps tag name to release. Re-inserting a tag replaces
// the earlier release.
type ReleaseCollection = Index[*RemoteRelease]

// NewReleaseCollection creates an empty ReleaseCollection
func NewReleaseCollection() *ReleaseCollection {
	return NewIndex[*RemoteRelease]()
}

// RateLimit is the quota reported with a release API response
type RateLimit struct {
	Remaining int
	Reset     time.Time
}

// ReleasePage is one page of the release listing
type ReleasePage struct {
	Page     int
	Releases []*RemoteRelease
	NextPage int // 0 when there is no next page
	LastPage int // 0 when the response carries no last link
	Rate     RateLimit
}

// PageResult is the outcome of fetching one page. Exactly one of Data and
// Err is set.
type PageResult struct {
	Page int
	Data *ReleasePage
	Err  error
}

// OK reports whether the page was fetched
func (r *PageResult) OK() bool {
	return r.Err == nil && r.Data != nil
}
