package usecase_test

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/goerr/v2"

	"github.com/m-mizutani/brave-versions/pkg/domain/model"
	"github.com/m-mizutani/brave-versions/pkg/domain/types"
	"github.com/m-mizutani/brave-versions/pkg/usecase"
)

var testNow = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

// pagedAPI serves lastPage pages of two releases each and tracks how many
// requests are in flight at once
type pagedAPI struct {
	lastPage  int
	remaining int
	reset     time.Time
	failPages map[int]bool
	rates     map[int]model.RateLimit

	mu        sync.Mutex
	inFlight  int
	peak      int
	completed map[int]bool
	violation string
}

func (a *pagedAPI) client(batchSize int) *mockGitHubClient {
	a.completed = map[int]bool{}
	return &mockGitHubClient{
		listReleasesFunc: func(ctx context.Context, page, perPage int) (*model.ReleasePage, error) {
			a.mu.Lock()
			a.inFlight++
			if a.inFlight > a.peak {
				a.peak = a.inFlight
			}
			// Every page of earlier batches must be done before this one starts
			if page >= 2 {
				batchStart := 2 + ((page-2)/batchSize)*batchSize
				for p := 1; p < batchStart; p++ {
					if !a.completed[p] {
						a.violation = fmt.Sprintf("page %d started before page %d finished", page, p)
					}
				}
			}
			a.mu.Unlock()

			time.Sleep(5 * time.Millisecond)

			a.mu.Lock()
			a.inFlight--
			a.completed[page] = true
			a.mu.Unlock()

			if a.failPages[page] {
				return nil, goerr.New("server error", goerr.T(types.ErrTagGitHubAPI), goerr.V("page", page))
			}

			rate := model.RateLimit{Remaining: a.remaining, Reset: a.reset}
			if r, ok := a.rates[page]; ok {
				rate = r
			}

			return &model.ReleasePage{
				Page: page,
				Releases: []*model.RemoteRelease{
					release(fmt.Sprintf("v1.%d.0", page*2), "Release", int64(page*2)),
					release(fmt.Sprintf("v1.%d.1", page*2), "Release", int64(page*2+1)),
				},
				LastPage: a.lastPage,
				Rate:     rate,
			}, nil
		},
	}
}

type sleepRecorder struct {
	durations []time.Duration
}

func (s *sleepRecorder) sleep(ctx context.Context, d time.Duration) error {
	s.durations = append(s.durations, d)
	return nil
}

func newTestPager(client *mockGitHubClient, sleeper *sleepRecorder, opts ...usecase.ReleasePagerOption) *usecase.ReleasePager {
	base := []usecase.ReleasePagerOption{
		usecase.WithClock(func() time.Time { return testNow }, sleeper.sleep),
	}
	return usecase.NewReleasePager(client, append(base, opts...)...)
}

func TestReleasePager_FetchAll(t *testing.T) {
	t.Run("requests every page once in bounded batches", func(t *testing.T) {
		api := &pagedAPI{lastPage: 11, remaining: 5000, reset: testNow.Add(time.Hour)}
		client := api.client(usecase.DefaultBatchSize)
		progress := &mockProgress{}
		sleeper := &sleepRecorder{}

		pager := newTestPager(client, sleeper, usecase.WithPagerProgress(progress))
		releases, err := pager.FetchAll(context.Background())
		gt.NoError(t, err)

		pages := client.requestedPages()
		gt.Value(t, pages[0]).Equal(1)
		sort.Ints(pages)
		gt.Value(t, pages).Equal([]int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11})

		gt.Number(t, api.peak).LessOrEqual(usecase.DefaultBatchSize)
		gt.Value(t, api.violation).Equal("")
		gt.Number(t, releases.Len()).Equal(22)
		gt.A(t, sleeper.durations).Length(0)

		gt.A(t, progress.bars).Length(1)
		gt.Value(t, progress.bars[0].total).Equal(10)
		gt.A(t, progress.bars[0].labels).Length(10)
	})

	t.Run("merges in page order", func(t *testing.T) {
		api := &pagedAPI{lastPage: 6, remaining: 5000}
		pager := newTestPager(api.client(usecase.DefaultBatchSize), &sleepRecorder{})

		releases, err := pager.FetchAll(context.Background())
		gt.NoError(t, err)

		var want []string
		for page := 1; page <= 6; page++ {
			want = append(want, fmt.Sprintf("v1.%d.0", page*2), fmt.Sprintf("v1.%d.1", page*2))
		}
		gt.Value(t, releases.Keys()).Equal(want)
	})

	t.Run("single page without last link", func(t *testing.T) {
		api := &pagedAPI{lastPage: 0, remaining: 5000}
		client := api.client(usecase.DefaultBatchSize)
		progress := &mockProgress{}

		pager := newTestPager(client, &sleepRecorder{}, usecase.WithPagerProgress(progress))
		releases, err := pager.FetchAll(context.Background())
		gt.NoError(t, err)
		gt.Value(t, client.requestedPages()).Equal([]int{1})
		gt.Number(t, releases.Len()).Equal(2)
		gt.A(t, progress.bars).Length(0)
	})

	t.Run("uses configured page size", func(t *testing.T) {
		var sizes []int
		client := &mockGitHubClient{
			listReleasesFunc: func(ctx context.Context, page, perPage int) (*model.ReleasePage, error) {
				sizes = append(sizes, perPage)
				return &model.ReleasePage{Page: page}, nil
			},
		}

		pager := newTestPager(client, &sleepRecorder{})
		_, err := pager.FetchAll(context.Background())
		gt.NoError(t, err)
		gt.Value(t, sizes).Equal([]int{usecase.DefaultPageSize})
	})

	t.Run("first page failure is returned", func(t *testing.T) {
		api := &pagedAPI{lastPage: 3, failPages: map[int]bool{1: true}}
		client := api.client(usecase.DefaultBatchSize)

		pager := newTestPager(client, &sleepRecorder{})
		_, err := pager.FetchAll(context.Background())
		gt.Error(t, err)
		gt.True(t, goerr.HasTag(err, types.ErrTagGitHubAPI))
		gt.Value(t, client.requestedPages()).Equal([]int{1})
	})

	t.Run("failed later page is skipped", func(t *testing.T) {
		api := &pagedAPI{lastPage: 4, remaining: 5000, failPages: map[int]bool{3: true}}
		pager := newTestPager(api.client(usecase.DefaultBatchSize), &sleepRecorder{})

		releases, err := pager.FetchAll(context.Background())
		gt.NoError(t, err)
		gt.Number(t, releases.Len()).Equal(6)
		gt.False(t, releases.Has("v1.6.0"))
		gt.True(t, releases.Has("v1.8.1"))
		gt.Value(t, pager.SkippedPages()).Equal([]int{3})
	})
}

func TestReleasePager_Backoff(t *testing.T) {
	testCases := []struct {
		name      string
		lastPage  int
		remaining int
		reset     time.Time
		sleeps    []time.Duration
	}{
		{
			name:      "below low water waits until reset",
			lastPage:  9,
			remaining: 9,
			reset:     testNow.Add(30 * time.Second),
			sleeps:    []time.Duration{30 * time.Second},
		},
		{
			name:      "at low water does not wait",
			lastPage:  9,
			remaining: 10,
			reset:     testNow.Add(30 * time.Second),
			sleeps:    nil,
		},
		{
			name:      "reset already passed",
			lastPage:  9,
			remaining: 1,
			reset:     testNow.Add(-time.Second),
			sleeps:    nil,
		},
		{
			name:      "no wait after last batch",
			lastPage:  5,
			remaining: 1,
			reset:     testNow.Add(30 * time.Second),
			sleeps:    nil,
		},
		{
			name:      "waits between every batch",
			lastPage:  14,
			remaining: 3,
			reset:     testNow.Add(time.Minute),
			sleeps:    []time.Duration{time.Minute, time.Minute, time.Minute},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			api := &pagedAPI{lastPage: tc.lastPage, remaining: tc.remaining, reset: tc.reset}
			sleeper := &sleepRecorder{}

			pager := newTestPager(api.client(usecase.DefaultBatchSize), sleeper)
			_, err := pager.FetchAll(context.Background())
			gt.NoError(t, err)
			gt.Value(t, sleeper.durations).Equal(tc.sleeps)
		})
	}

	t.Run("canceled while waiting", func(t *testing.T) {
		api := &pagedAPI{lastPage: 9, remaining: 0, reset: testNow.Add(time.Hour)}
		sleep := func(ctx context.Context, d time.Duration) error {
			return context.Canceled
		}

		pager := usecase.NewReleasePager(api.client(usecase.DefaultBatchSize),
			usecase.WithClock(func() time.Time { return testNow }, sleep))
		_, err := pager.FetchAll(context.Background())
		gt.Error(t, err)
	})

	t.Run("uses the lowest quota of the batch", func(t *testing.T) {
		api := &pagedAPI{
			lastPage:  9,
			remaining: 500,
			reset:     testNow.Add(10 * time.Second),
			rates: map[int]model.RateLimit{
				3: {Remaining: 5, Reset: testNow.Add(40 * time.Second)},
			},
		}
		sleeper := &sleepRecorder{}

		pager := newTestPager(api.client(usecase.DefaultBatchSize), sleeper)
		_, err := pager.FetchAll(context.Background())
		gt.NoError(t, err)
		gt.Value(t, sleeper.durations).Equal([]time.Duration{40 * time.Second})
	})

	t.Run("custom low water mark", func(t *testing.T) {
		api := &pagedAPI{lastPage: 9, remaining: 50, reset: testNow.Add(time.Second)}
		sleeper := &sleepRecorder{}

		pager := newTestPager(api.client(usecase.DefaultBatchSize), sleeper, usecase.WithRateLimitLowWater(100))
		_, err := pager.FetchAll(context.Background())
		gt.NoError(t, err)
		gt.Value(t, sleeper.durations).Equal([]time.Duration{time.Second})
	})
}

func TestReleasePager_InsertReleases(t *testing.T) {
	pager := usecase.NewReleasePager(&mockGitHubClient{})

	a := release("v1.0.0", "Release 1.0.0", 1)
	b := release("v1.1.0", "Beta 1.1.0", 2)

	pager.InsertReleases(a, b)
	pager.InsertReleases(a, b)
	gt.Value(t, pager.Releases().Keys()).Equal([]string{"v1.0.0", "v1.1.0"})

	// last write wins, first position kept
	replaced := release("v1.0.0", "Release 1.0.0 (respin)", 3)
	pager.InsertReleases(replaced, nil)
	gt.Value(t, pager.Releases().Keys()).Equal([]string{"v1.0.0", "v1.1.0"})
	got, ok := pager.Releases().Get("v1.0.0")
	gt.True(t, ok)
	gt.Value(t, got.ID).Equal(int64(3))
}

func TestReleasePager_FetchReleases(t *testing.T) {
	t.Run("uses cache without requests", func(t *testing.T) {
		cached := model.NewReleaseCollection()
		cached.Set("v1.0.0", release("v1.0.0", "Release", 1))
		cached.Set("v1.1.0", release("v1.1.0", "Release", 2))
		cache := &mockReleaseCache{stored: cached}
		client := &mockGitHubClient{}

		pager := usecase.NewReleasePager(client, usecase.WithReleaseCache(cache))
		releases, fromCache, err := pager.FetchReleases(context.Background())
		gt.NoError(t, err)
		gt.True(t, fromCache)
		gt.Value(t, releases.Keys()).Equal([]string{"v1.0.0", "v1.1.0"})
		gt.A(t, client.requestedPages()).Length(0)
		gt.Number(t, cache.saves).Equal(0)
	})

	t.Run("empty cache fetches and saves", func(t *testing.T) {
		cache := &mockReleaseCache{stored: model.NewReleaseCollection()}
		api := &pagedAPI{lastPage: 2, remaining: 5000}

		pager := newTestPager(api.client(usecase.DefaultBatchSize), &sleepRecorder{}, usecase.WithReleaseCache(cache))
		releases, fromCache, err := pager.FetchReleases(context.Background())
		gt.NoError(t, err)
		gt.False(t, fromCache)
		gt.Number(t, releases.Len()).Equal(4)
		gt.Number(t, cache.saves).Equal(1)
		gt.Number(t, cache.stored.Len()).Equal(4)
	})

	t.Run("unreadable cache is ignored", func(t *testing.T) {
		cache := &mockReleaseCache{loadErr: goerr.New("broken", goerr.T(types.ErrTagCache))}
		api := &pagedAPI{lastPage: 1, remaining: 5000}

		pager := newTestPager(api.client(usecase.DefaultBatchSize), &sleepRecorder{}, usecase.WithReleaseCache(cache))
		releases, fromCache, err := pager.FetchReleases(context.Background())
		gt.NoError(t, err)
		gt.False(t, fromCache)
		gt.Number(t, releases.Len()).Equal(2)
		gt.Number(t, cache.saves).Equal(1)
	})

	t.Run("without cache", func(t *testing.T) {
		api := &pagedAPI{lastPage: 1, remaining: 5000}

		pager := newTestPager(api.client(usecase.DefaultBatchSize), &sleepRecorder{})
		releases, fromCache, err := pager.FetchReleases(context.Background())
		gt.NoError(t, err)
		gt.False(t, fromCache)
		gt.Number(t, releases.Len()).Equal(2)
	})

	t.Run("incomplete listing is not cached", func(t *testing.T) {
		cache := &mockReleaseCache{}
		api := &pagedAPI{lastPage: 4, remaining: 5000, failPages: map[int]bool{3: true}}

		pager := newTestPager(api.client(usecase.DefaultBatchSize), &sleepRecorder{}, usecase.WithReleaseCache(cache))
		releases, fromCache, err := pager.FetchReleases(context.Background())
		gt.NoError(t, err)
		gt.False(t, fromCache)
		gt.False(t, releases.Has("v1.6.0"))
		gt.Number(t, cache.saves).Equal(0)

		// the next run fetches the whole listing again
		api.failPages = nil
		client := api.client(usecase.DefaultBatchSize)
		next := newTestPager(client, &sleepRecorder{}, usecase.WithReleaseCache(cache))
		releases, fromCache, err = next.FetchReleases(context.Background())
		gt.NoError(t, err)
		gt.False(t, fromCache)
		gt.True(t, releases.Has("v1.6.0"))
		gt.A(t, client.requestedPages()).Length(4)
		gt.Number(t, cache.saves).Equal(1)
	})

	t.Run("cache write failure is returned", func(t *testing.T) {
		cache := &mockReleaseCache{saveErr: goerr.New("disk full", goerr.T(types.ErrTagStorage))}
		api := &pagedAPI{lastPage: 1, remaining: 5000}

		pager := newTestPager(api.client(usecase.DefaultBatchSize), &sleepRecorder{}, usecase.WithReleaseCache(cache))
		_, _, err := pager.FetchReleases(context.Background())
		gt.Error(t, err)
		gt.True(t, goerr.HasTag(err, types.ErrTagStorage))
	})
}

func TestReleasePager_Update(t *testing.T) {
	cached := model.NewReleaseCollection()
	cached.Set("v1.0.0", release("v1.0.0", "Release", 1))
	cache := &mockReleaseCache{stored: cached}

	var sizes []int
	client := &mockGitHubClient{
		listReleasesFunc: func(ctx context.Context, page, perPage int) (*model.ReleasePage, error) {
			sizes = append(sizes, perPage)
			return &model.ReleasePage{
				Page: page,
				Releases: []*model.RemoteRelease{
					release("v1.1.0", "Release", 2),
					release("v1.0.0", "Release 1.0.0", 1),
				},
				LastPage: 30,
			}, nil
		},
	}

	pager := usecase.NewReleasePager(client, usecase.WithReleaseCache(cache))
	_, fromCache, err := pager.FetchReleases(context.Background())
	gt.NoError(t, err)
	gt.True(t, fromCache)

	releases, err := pager.Update(context.Background())
	gt.NoError(t, err)
	gt.Value(t, client.requestedPages()).Equal([]int{1})
	// API default page size
	gt.Value(t, sizes).Equal([]int{0})
	gt.Value(t, releases.Keys()).Equal([]string{"v1.0.0", "v1.1.0"})

	updated, _ := releases.Get("v1.0.0")
	gt.Value(t, updated.Name).Equal("Release 1.0.0")
	gt.Number(t, cache.saves).Equal(1)
}
