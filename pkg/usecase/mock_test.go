package usecase_test

import (
	"context"
	"errors"
	"sync"

	"github.com/m-mizutani/brave-versions/pkg/domain/interfaces"
	"github.com/m-mizutani/brave-versions/pkg/domain/model"
)

// mockGitClient is a mock implementation of GitClient
type mockGitClient struct {
	syncFunc     func(ctx context.Context, remoteURL, dir string, skipPull bool) error
	listTagsFunc func(ctx context.Context, dir, pattern string) ([]model.TagRef, error)
	showFileFunc func(ctx context.Context, dir, ref, path string) ([]byte, error)
}

func (m *mockGitClient) Sync(ctx context.Context, remoteURL, dir string, skipPull bool) error {
	if m.syncFunc != nil {
		return m.syncFunc(ctx, remoteURL, dir, skipPull)
	}
	return nil
}

func (m *mockGitClient) ListTags(ctx context.Context, dir, pattern string) ([]model.TagRef, error) {
	if m.listTagsFunc != nil {
		return m.listTagsFunc(ctx, dir, pattern)
	}
	return nil, errors.New("mock not configured")
}

func (m *mockGitClient) ShowFile(ctx context.Context, dir, ref, path string) ([]byte, error) {
	if m.showFileFunc != nil {
		return m.showFileFunc(ctx, dir, ref, path)
	}
	return nil, errors.New("mock not configured")
}

// mockGitHubClient is a mock implementation of GitHubClient
type mockGitHubClient struct {
	listReleasesFunc func(ctx context.Context, page, perPage int) (*model.ReleasePage, error)

	mu    sync.Mutex
	calls []int
}

func (m *mockGitHubClient) ListReleases(ctx context.Context, page, perPage int) (*model.ReleasePage, error) {
	m.mu.Lock()
	m.calls = append(m.calls, page)
	m.mu.Unlock()

	if m.listReleasesFunc != nil {
		return m.listReleasesFunc(ctx, page, perPage)
	}
	return nil, errors.New("mock not configured")
}

func (m *mockGitHubClient) requestedPages() []int {
	m.mu.Lock()
	defer m.mu.Unlock()
	pages := make([]int, len(m.calls))
	copy(pages, m.calls)
	return pages
}

// mockReleaseCache is an in-memory ReleaseCache
type mockReleaseCache struct {
	stored  *model.ReleaseCollection
	loadErr error
	saveErr error
	saves   int
}

func (m *mockReleaseCache) Exists(ctx context.Context) (bool, error) {
	return m.stored != nil || m.loadErr != nil, nil
}

func (m *mockReleaseCache) Load(ctx context.Context) (*model.ReleaseCollection, error) {
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	return m.stored, nil
}

func (m *mockReleaseCache) Save(ctx context.Context, releases *model.ReleaseCollection) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.saves++
	m.stored = releases
	return nil
}

// mockProgress records bars and increments
type mockProgress struct {
	mu      sync.Mutex
	bars    []*mockBar
	stopped int
}

type mockBar struct {
	total  int
	title  string
	mu     *sync.Mutex
	labels []string
}

func (m *mockProgress) Start(total int, title string) interfaces.Bar {
	m.mu.Lock()
	defer m.mu.Unlock()
	bar := &mockBar{total: total, title: title, mu: &m.mu}
	m.bars = append(m.bars, bar)
	return bar
}

func (m *mockProgress) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stopped++
}

func (b *mockBar) Increment(label string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.labels = append(b.labels, label)
}

// mockManifestWriter keeps the last written manifest
type mockManifestWriter struct {
	location string
	written  *model.Manifest
	err      error
}

func (m *mockManifestWriter) WriteManifest(ctx context.Context, manifest *model.Manifest) error {
	if m.err != nil {
		return m.err
	}
	m.written = manifest
	return nil
}

func (m *mockManifestWriter) Location() string {
	return m.location
}

func release(tag, name string, id int64) *model.RemoteRelease {
	return &model.RemoteRelease{
		TagName: tag,
		ID:      id,
		Name:    name,
		Assets:  []*model.RemoteAsset{},
	}
}
