package model

import "time"

// FinalRelease is one manifest entry
type FinalRelease struct {
	Tag          string       `json:"tag" yaml:"tag"`
	Name         string       `json:"name" yaml:"name"`
	Channel      string       `json:"channel" yaml:"channel"`
	Commit       string       `json:"commit" yaml:"commit"`
	Published    *time.Time   `json:"published" yaml:"published"`
	Dependencies Dependencies `json:"dependencies" yaml:"dependencies"`
	GitHub       GitHubInfo   `json:"github" yaml:"github"`
}

// Dependencies are the embedded dependency versions at the release tag
type Dependencies struct {
	Chrome   string `json:"chrome" yaml:"chrome"`
	Widevine string `json:"widevine" yaml:"widevine"`
}

// GitHubInfo identifies the release on the release API
type GitHubInfo struct {
	ReleaseID int64         `json:"release_id" yaml:"release_id"`
	Assets    []*FinalAsset `json:"assets" yaml:"assets"`
}

// FinalAsset identifies a downloadable file of a release
type FinalAsset struct {
	ID          int64  `json:"id" yaml:"id"`
	Name        string `json:"name" yaml:"name"`
	DownloadURL string `json:"download_url" yaml:"download_url"`
}

// Manifest maps tag name to its merged release
type Manifest = Index[*FinalRelease]

// NewManifest creates an empty Manifest
func NewManifest() *Manifest {
	return NewIndex[*FinalRelease]()
}
