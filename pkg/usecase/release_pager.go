package usecase

import (
	"context"
	"time"

	"github.com/m-mizutani/brave-versions/pkg/domain/interfaces"
	"github.com/m-mizutani/brave-versions/pkg/domain/model"
	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"golang.org/x/sync/errgroup"
)

const (
	// DefaultPageSize is the number of releases requested per page
	DefaultPageSize = 100
	// DefaultBatchSize is the number of pages fetched concurrently
	DefaultBatchSize = 4
	// DefaultRateLimitLowWater is the remaining quota below which the pager
	// waits for the rate limit window to reset
	DefaultRateLimitLowWater = 10

	releaseProgressTitle = "gh releases"
)

// ReleasePager builds the release collection from the paginated release API,
// optionally seeded from a local cache
type ReleasePager struct {
	client    interfaces.GitHubClient
	cache     interfaces.ReleaseCache
	progress  interfaces.Progress
	pageSize  int
	batchSize int
	lowWater  int
	now       func() time.Time
	sleep     func(ctx context.Context, d time.Duration) error

	releases *model.ReleaseCollection
	skipped  []int
}

// ReleasePagerOption is a functional option for ReleasePager
type ReleasePagerOption func(*ReleasePager)

// WithReleaseCache enables the release cache. Without it the pager always
// fetches the whole listing and persists nothing.
func WithReleaseCache(cache interfaces.ReleaseCache) ReleasePagerOption {
	return func(p *ReleasePager) {
		p.cache = cache
	}
}

// WithPagerProgress sets the progress reporter
func WithPagerProgress(progress interfaces.Progress) ReleasePagerOption {
	return func(p *ReleasePager) {
		p.progress = progress
	}
}

// WithPageSize sets the page size of the listing requests
func WithPageSize(size int) ReleasePagerOption {
	return func(p *ReleasePager) {
		p.pageSize = size
	}
}

// WithBatchSize sets how many pages are requested at once
func WithBatchSize(size int) ReleasePagerOption {
	return func(p *ReleasePager) {
		p.batchSize = size
	}
}

// WithRateLimitLowWater sets the remaining quota that triggers backoff
func WithRateLimitLowWater(n int) ReleasePagerOption {
	return func(p *ReleasePager) {
		p.lowWater = n
	}
}

// WithClock replaces the time source and the backoff sleep
func WithClock(now func() time.Time, sleep func(ctx context.Context, d time.Duration) error) ReleasePagerOption {
	return func(p *ReleasePager) {
		p.now = now
		p.sleep = sleep
	}
}

// NewReleasePager creates a ReleasePager
func NewReleasePager(client interfaces.GitHubClient, opts ...ReleasePagerOption) *ReleasePager {
	p := &ReleasePager{
		client:    client,
		pageSize:  DefaultPageSize,
		batchSize: DefaultBatchSize,
		lowWater:  DefaultRateLimitLowWater,
		now:       time.Now,
		sleep:     sleepContext,
		releases:  model.NewReleaseCollection(),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.batchSize < 1 {
		p.batchSize = 1
	}
	return p
}

// Releases returns the collection built so far
func (p *ReleasePager) Releases() *model.ReleaseCollection {
	return p.releases
}

// InsertReleases upserts releases by tag name. A later insert of the same tag
// replaces the earlier one.
func (p *ReleasePager) InsertReleases(releases ...*model.RemoteRelease) {
	for _, r := range releases {
		if r == nil {
			continue
		}
		p.releases.Set(r.TagName, r)
	}
}

// FetchReleases returns the cached collection when one is available and
// non-empty, otherwise fetches the whole listing and caches it. A listing with
// skipped pages is returned but not cached, so the next run fetches it again.
func (p *ReleasePager) FetchReleases(ctx context.Context) (*model.ReleaseCollection, bool, error) {
	logger := ctxlog.From(ctx)

	if cached := p.loadCache(ctx); cached.Len() > 0 {
		for _, r := range cached.All() {
			p.InsertReleases(r)
		}
		logger.Info("Loaded releases from cache", "releases", p.releases.Len())
		return p.releases, true, nil
	}

	releases, err := p.FetchAll(ctx)
	if err != nil {
		return nil, false, err
	}

	if len(p.skipped) > 0 {
		logger.Warn("Release listing is incomplete, not writing cache",
			"skipped_pages", p.skipped,
		)
		return releases, false, nil
	}

	if err := p.saveCache(ctx); err != nil {
		return nil, false, err
	}

	return releases, false, nil
}

// SkippedPages returns the pages the last FetchAll failed to retrieve
func (p *ReleasePager) SkippedPages() []int {
	return p.skipped
}

// FetchAll paginates the whole release listing. Page 1 reveals the page
// count; the remaining pages are requested in concurrent batches and merged
// in page order. Failed pages after the first are skipped and reported by
// SkippedPages.
func (p *ReleasePager) FetchAll(ctx context.Context) (*model.ReleaseCollection, error) {
	logger := ctxlog.From(ctx)
	p.skipped = nil

	first, err := p.client.ListReleases(ctx, 1, p.pageSize)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to fetch first release page", goerr.V("page", 1))
	}
	p.InsertReleases(first.Releases...)

	pageCount := first.LastPage
	if pageCount < 1 {
		pageCount = 1
	}

	logger.Info("Fetching releases",
		"pages", pageCount,
		"page_size", p.pageSize,
		"batch_size", p.batchSize,
	)

	if pageCount == 1 {
		return p.releases, nil
	}

	var bar interfaces.Bar = nopBar{}
	if p.progress != nil {
		bar = p.progress.Start(pageCount-1, releaseProgressTitle)
	}

	batches := makeBatches(2, pageCount, p.batchSize)
	for i, batch := range batches {
		results := p.fetchBatch(ctx, batch, bar)

		var rate *model.RateLimit
		for _, res := range results {
			if !res.OK() {
				logger.Warn("Skipped release page",
					"page", res.Page,
					"error", res.Err,
				)
				p.skipped = append(p.skipped, res.Page)
				continue
			}

			p.InsertReleases(res.Data.Releases...)
			if rate == nil || res.Data.Rate.Remaining < rate.Remaining {
				r := res.Data.Rate
				rate = &r
			}
		}

		if i == len(batches)-1 || rate == nil || rate.Remaining >= p.lowWater {
			continue
		}

		wait := rate.Reset.Sub(p.now())
		if wait <= 0 {
			continue
		}

		logger.Warn("Getting close to rate limit, backing off",
			"remaining", rate.Remaining,
			"reset", rate.Reset,
			"wait", wait.String(),
		)
		if err := p.sleep(ctx, wait); err != nil {
			return nil, goerr.Wrap(err, "interrupted while waiting for rate limit reset")
		}
	}

	logger.Info("Fetched releases",
		"releases", p.releases.Len(),
		"skipped_pages", len(p.skipped),
	)

	return p.releases, nil
}

// Update fetches the first page at the API's default page size and merges it
// into the collection. It picks up releases published since the cache was
// written.
func (p *ReleasePager) Update(ctx context.Context) (*model.ReleaseCollection, error) {
	page, err := p.client.ListReleases(ctx, 1, 0)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to fetch latest releases", goerr.V("page", 1))
	}

	p.InsertReleases(page.Releases...)

	ctxlog.From(ctx).Info("Updated releases",
		"fetched", len(page.Releases),
		"releases", p.releases.Len(),
	)

	if err := p.saveCache(ctx); err != nil {
		return nil, err
	}

	return p.releases, nil
}

// fetchBatch requests every page of batch concurrently. Each result lands in
// its own slot so the collection is only touched by the caller.
func (p *ReleasePager) fetchBatch(ctx context.Context, batch []int, bar interfaces.Bar) []*model.PageResult {
	results := make([]*model.PageResult, len(batch))

	var eg errgroup.Group
	for i, page := range batch {
		eg.Go(func() error {
			data, err := p.client.ListReleases(ctx, page, p.pageSize)
			results[i] = &model.PageResult{Page: page, Data: data, Err: err}
			bar.Increment(releaseProgressTitle)
			return nil
		})
	}
	_ = eg.Wait()

	return results
}

func (p *ReleasePager) loadCache(ctx context.Context) *model.ReleaseCollection {
	if p.cache == nil {
		return nil
	}
	logger := ctxlog.From(ctx)

	exists, err := p.cache.Exists(ctx)
	if err != nil {
		logger.Warn("Failed to check release cache", "error", err)
		return nil
	}
	if !exists {
		return nil
	}

	releases, err := p.cache.Load(ctx)
	if err != nil {
		logger.Warn("Ignoring unreadable release cache", "error", err)
		return nil
	}
	return releases
}

func (p *ReleasePager) saveCache(ctx context.Context) error {
	if p.cache == nil {
		return nil
	}
	if err := p.cache.Save(ctx, p.releases); err != nil {
		return goerr.Wrap(err, "failed to save release cache")
	}
	return nil
}

// makeBatches splits pages from..to into consecutive groups of at most size
func makeBatches(from, to, size int) [][]int {
	var batches [][]int
	var current []int
	for page := from; page <= to; page++ {
		current = append(current, page)
		if len(current) == size {
			batches = append(batches, current)
			current = nil
		}
	}
	if len(current) > 0 {
		batches = append(batches, current)
	}
	return batches
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

type nopBar struct{}

func (nopBar) Increment(string) {}
