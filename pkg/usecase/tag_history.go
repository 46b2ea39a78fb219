package usecase

import (
	"context"
	"strings"

	"github.com/m-mizutani/brave-versions/pkg/domain/interfaces"
	"github.com/m-mizutani/brave-versions/pkg/domain/model"
	"github.com/m-mizutani/brave-versions/pkg/domain/types"
	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/tidwall/gjson"
)

const (
	// DefaultTagPattern selects version tags
	DefaultTagPattern = "v*"
	// DefaultMetadataFile is read at every tag
	DefaultMetadataFile = "package.json"
	// DefaultChromeVersionPath locates the Chromium version in the metadata file
	DefaultChromeVersionPath = "config.projects.chrome.tag"
	// DefaultWidevineVersionPath locates the Widevine version in the metadata file
	DefaultWidevineVersionPath = "config.widevine.version"
)

// TagHistoryReader reads dependency versions embedded in the repository at
// every version tag
type TagHistoryReader struct {
	git          interfaces.GitClient
	progress     interfaces.Progress
	pattern      string
	metadataFile string
	chromePath   string
	widevinePath string
}

// TagHistoryOption is a functional option for TagHistoryReader
type TagHistoryOption func(*TagHistoryReader)

// WithTagPattern sets the tag glob passed to the tag listing
func WithTagPattern(pattern string) TagHistoryOption {
	return func(uc *TagHistoryReader) {
		uc.pattern = pattern
	}
}

// WithMetadataFile sets the file read at each tag and the gjson paths of
// the two dependency versions inside it
func WithMetadataFile(file, chromePath, widevinePath string) TagHistoryOption {
	return func(uc *TagHistoryReader) {
		uc.metadataFile = file
		uc.chromePath = chromePath
		uc.widevinePath = widevinePath
	}
}

// NewTagHistory creates a TagHistoryReader
func NewTagHistory(git interfaces.GitClient, progress interfaces.Progress, opts ...TagHistoryOption) *TagHistoryReader {
	uc := &TagHistoryReader{
		git:          git,
		progress:     progress,
		pattern:      DefaultTagPattern,
		metadataFile: DefaultMetadataFile,
		chromePath:   DefaultChromeVersionPath,
		widevinePath: DefaultWidevineVersionPath,
	}
	for _, opt := range opts {
		opt(uc)
	}
	return uc
}

// ListTags lists version tags with their commits, skipping pre-1.0 tags
func (uc *TagHistoryReader) ListTags(ctx context.Context, repoDir string) ([]model.TagRef, error) {
	refs, err := uc.git.ListTags(ctx, repoDir, uc.pattern)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list tags", goerr.V("repo_dir", repoDir))
	}

	tags := make([]model.TagRef, 0, len(refs))
	for _, ref := range refs {
		if ref.IsHistorical() {
			continue
		}
		tags = append(tags, ref)
	}

	return tags, nil
}

// ResolveRecord reads the metadata file at tag. It never fails: problems are
// reported through the resolution status.
func (uc *TagHistoryReader) ResolveRecord(ctx context.Context, repoDir string, tag model.TagRef) *model.TagResolution {
	data, err := uc.git.ShowFile(ctx, repoDir, tag.Name, uc.metadataFile)
	if err != nil {
		return &model.TagResolution{
			Tag:    tag,
			Status: model.TagMissingMetadata,
			Err:    err,
		}
	}

	chrome, widevine, err := uc.parseMetadata(data)
	if err != nil {
		return &model.TagResolution{
			Tag:    tag,
			Status: model.TagInvalidMetadata,
			Err:    goerr.Wrap(err, "invalid tag metadata", goerr.V("tag", tag.Name)),
		}
	}

	return &model.TagResolution{
		Tag:    tag,
		Status: model.TagResolved,
		Record: &model.TagRecord{
			Commit:          tag.Commit,
			ChromeVersion:   chrome,
			WidevineVersion: widevine,
		},
	}
}

// Read resolves every listed tag, one progress step per tag
func (uc *TagHistoryReader) Read(ctx context.Context, repoDir string) (*model.TagHistory, error) {
	logger := ctxlog.From(ctx)

	tags, err := uc.ListTags(ctx, repoDir)
	if err != nil {
		return nil, err
	}

	logger.Info("Reading tag metadata",
		"repo_dir", repoDir,
		"tags", len(tags),
		"file", uc.metadataFile,
	)

	history := model.NewTagHistory()
	bar := uc.progress.Start(len(tags), uc.metadataFile)

	for _, tag := range tags {
		if err := ctx.Err(); err != nil {
			return nil, goerr.Wrap(err, "tag history reading interrupted")
		}

		res := uc.ResolveRecord(ctx, repoDir, tag)
		history.Add(res)
		bar.Increment(tag.Name)

		if res.Status != model.TagResolved {
			logger.Debug("Dropped tag",
				"tag", tag.Name,
				"status", res.Status,
				"error", res.Err,
			)
		}
	}

	logger.Info("Read tag history",
		"resolved", history.Records.Len(),
		"dropped", len(history.Dropped),
	)

	return history, nil
}

func (uc *TagHistoryReader) parseMetadata(data []byte) (string, string, error) {
	if !gjson.ValidBytes(data) {
		return "", "", goerr.New("metadata is not valid JSON", goerr.T(types.ErrTagMetadata))
	}

	chrome, err := stringField(data, uc.chromePath)
	if err != nil {
		return "", "", err
	}
	widevine, err := stringField(data, uc.widevinePath)
	if err != nil {
		return "", "", err
	}

	return chrome, widevine, nil
}

// stringField returns the non-blank string at path
func stringField(data []byte, path string) (string, error) {
	result := gjson.GetBytes(data, path)
	if !result.Exists() {
		return "", goerr.New("metadata field is missing", goerr.T(types.ErrTagMetadata), goerr.V("path", path))
	}
	if result.Type != gjson.String {
		return "", goerr.New("metadata field is not a string",
			goerr.T(types.ErrTagMetadata),
			goerr.V("path", path),
			goerr.V("type", result.Type.String()),
		)
	}

	value := strings.TrimSpace(result.String())
	if value == "" {
		return "", goerr.New("metadata field is blank", goerr.T(types.ErrTagMetadata), goerr.V("path", path))
	}

	return value, nil
}
