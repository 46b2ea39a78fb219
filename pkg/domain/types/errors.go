package types

import "github.com/m-mizutani/goerr/v2"

// Error tags classify failures by how the pipeline reacts to them
var (
	// ErrTagRepositorySync marks a failed clone or pull. The pipeline aborts.
	ErrTagRepositorySync = goerr.NewTag("repository_sync")

	// ErrTagGitCommand marks a git subprocess that could not run or exited non-zero
	ErrTagGitCommand = goerr.NewTag("git_command")

	// ErrTagGitHubAPI marks a failed release API call
	ErrTagGitHubAPI = goerr.NewTag("github_api")

	// ErrTagMetadata marks a per-tag metadata file that is malformed or incomplete
	ErrTagMetadata = goerr.NewTag("tag_metadata")

	// ErrTagCache marks an unreadable release cache
	ErrTagCache = goerr.NewTag("cache")

	// ErrTagStorage marks a failed write of the cache or the manifest
	ErrTagStorage = goerr.NewTag("storage")

	// ErrTagNotFound marks a lookup of something that does not exist
	ErrTagNotFound = goerr.NewTag("not_found")
)
