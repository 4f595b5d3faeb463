package catalog

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/basecruz/stockbridge/internal/shared"
)

type fakeLevels struct {
	mu       sync.Mutex
	calls    int
	firsts   [][]shared.ID
	levels   map[shared.ID][]ItemLevel
	pages    map[string]LevelPage
	nextFor  map[shared.ID]string
	failPage map[string]bool
}

func (f *fakeLevels) FetchLevels(ctx context.Context, ids []shared.ID, pageInfo string) (LevelPage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if pageInfo != "" {
		if f.failPage[pageInfo] {
			return LevelPage{}, errors.New("boom")
		}
		return f.pages[pageInfo], nil
	}
	f.firsts = append(f.firsts, append([]shared.ID(nil), ids...))
	var page LevelPage
	for _, id := range ids {
		page.Levels = append(page.Levels, f.levels[id]...)
		if next := f.nextFor[id]; next != "" {
			page.NextPageInfo = next
		}
	}
	return page, nil
}

type fakeLocations struct {
	calls   atomic.Int32
	release chan struct{}
	err     error
	list    []Location
}

func (f *fakeLocations) FetchLocations(ctx context.Context) ([]Location, error) {
	f.calls.Add(1)
	if f.release != nil {
		<-f.release
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.list, nil
}

type fakeProducts struct {
	page  Page
	err   error
	limit int
}

func (f *fakeProducts) FetchProducts(ctx context.Context, limit int, pageInfo string) (Page, error) {
	f.limit = limit
	return f.page, f.err
}

func ids(n int) []shared.ID {
	out := make([]shared.ID, n)
	for i := range out {
		out[i] = shared.ID(i + 1)
	}
	return out
}

func TestFetchLevelsChunksByFifty(t *testing.T) {
	src := &fakeLevels{}
	fetcher := NewLevelFetcher(src, 50, nil)

	input := append(ids(120), 1, 2, 3)
	fetcher.FetchLevels(context.Background(), input)

	require.Equal(t, 3, src.calls)
	require.Len(t, src.firsts, 3)
	require.Len(t, src.firsts[0], 50)
	require.Len(t, src.firsts[1], 50)
	require.Len(t, src.firsts[2], 20)
}

func TestFetchLevelsFollowsPaginationAndAppends(t *testing.T) {
	src := &fakeLevels{
		levels:  map[shared.ID][]ItemLevel{111: {{InventoryItemID: 111, LocationID: 70, Available: shared.Qty(5)}}},
		nextFor: map[shared.ID]string{111: "p2"},
		pages: map[string]LevelPage{
			"p2": {Levels: []ItemLevel{{InventoryItemID: 111, LocationID: 75, Available: shared.Qty(2)}}, NextPageInfo: "p3"},
			"p3": {Levels: []ItemLevel{{InventoryItemID: 222, LocationID: 70, Available: shared.Qty(1)}}},
		},
	}
	got := NewLevelFetcher(src, 50, nil).FetchLevels(context.Background(), []shared.ID{111, 222})

	require.Equal(t, 3, src.calls)
	require.Equal(t, []InventoryLevel{
		{LocationID: 70, Available: shared.Qty(5)},
		{LocationID: 75, Available: shared.Qty(2)},
	}, got[111])
	require.Len(t, got[222], 1)
}

func TestFetchLevelsChunkFailureKeepsSiblings(t *testing.T) {
	src := &fakeLevels{
		levels: map[shared.ID][]ItemLevel{
			1:  {{InventoryItemID: 1, LocationID: 70, Available: shared.Qty(1)}},
			60: {{InventoryItemID: 60, LocationID: 70, Available: shared.Qty(6)}},
		},
		nextFor:  map[shared.ID]string{1: "bad"},
		failPage: map[string]bool{"bad": true},
	}
	got := NewLevelFetcher(src, 50, nil).FetchLevels(context.Background(), ids(60))

	require.Len(t, got[1], 1, "first page of the failing chunk survives")
	require.Len(t, got[60], 1, "sibling chunk still fetched")
}

func TestFetchLevelsMergeIsOrderIndependent(t *testing.T) {
	levels := map[shared.ID][]ItemLevel{}
	for _, id := range ids(120) {
		levels[id] = []ItemLevel{{InventoryItemID: id, LocationID: 70, Available: shared.Qty(int64(id))}}
	}
	forward := NewLevelFetcher(&fakeLevels{levels: levels}, 50, nil).FetchLevels(context.Background(), ids(120))

	reversed := ids(120)
	for i, j := 0, len(reversed)-1; i < j; i, j = i+1, j-1 {
		reversed[i], reversed[j] = reversed[j], reversed[i]
	}
	backward := NewLevelFetcher(&fakeLevels{levels: levels}, 50, nil).FetchLevels(context.Background(), reversed)

	require.Equal(t, forward, backward)
}

func TestLocationDirectoryFetchesOnceUnderConcurrency(t *testing.T) {
	src := &fakeLocations{release: make(chan struct{}), list: []Location{{ID: 70, Name: "Santiago"}}}
	dir := NewLocationDirectory(src, nil)

	var wg sync.WaitGroup
	results := make([]string, 2)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = dir.Name(context.Background(), 70)
		}(i)
	}
	close(src.release)
	wg.Wait()

	require.Equal(t, int32(1), src.calls.Load())
	require.Equal(t, []string{"Santiago", "Santiago"}, results)

	require.Equal(t, "Santiago", dir.Name(context.Background(), 70))
	require.Equal(t, "Location 99", dir.Name(context.Background(), 99))
	require.Equal(t, int32(1), src.calls.Load())
}

func TestLocationDirectoryFailureDegradesAndIsMemoized(t *testing.T) {
	src := &fakeLocations{err: errors.New("down")}
	dir := NewLocationDirectory(src, nil)

	require.Empty(t, dir.Locations(context.Background()))
	require.Equal(t, "Location 70", dir.Name(context.Background(), 70))
	require.Equal(t, "Location 71", dir.Name(context.Background(), 71))
	require.Equal(t, int32(1), src.calls.Load())
}

func TestListProductsEnrichesVariants(t *testing.T) {
	products := &fakeProducts{page: Page{
		Products: []Product{
			{ID: 1, Variants: []Variant{{ID: 10, InventoryItemID: 111}}},
			{ID: 2, Variants: []Variant{{ID: 20, InventoryItemID: 222}, {ID: 21}}},
		},
		NextPageInfo: "next",
	}}
	levels := &fakeLevels{levels: map[shared.ID][]ItemLevel{
		111: {{InventoryItemID: 111, LocationID: 70, Available: shared.Qty(5)}},
	}}
	locations := &fakeLocations{list: []Location{{ID: 70, Name: "Santiago"}}}
	svc := NewService(products, NewEnricher(NewLevelFetcher(levels, 50, nil), NewLocationDirectory(locations, nil), nil))

	page, err := svc.ListProducts(context.Background(), 0, "")
	require.NoError(t, err)
	require.Equal(t, DefaultPageSize, products.limit)
	require.Equal(t, "next", page.NextPageInfo)
	require.Equal(t, []InventoryLevel{{LocationID: 70, LocationName: "Santiago", Available: shared.Qty(5)}}, page.Products[0].Variants[0].InventoryLevels)
	require.NotNil(t, page.Products[1].Variants[0].InventoryLevels)
	require.Empty(t, page.Products[1].Variants[0].InventoryLevels)
	require.Empty(t, page.Products[1].Variants[1].InventoryLevels)
	require.Equal(t, 1, levels.calls)
}

func TestListProductsUsesPlaceholderWhenLocationsFail(t *testing.T) {
	products := &fakeProducts{page: Page{Products: []Product{{ID: 1, Variants: []Variant{{ID: 10, InventoryItemID: 111}}}}}}
	levels := &fakeLevels{levels: map[shared.ID][]ItemLevel{
		111: {{InventoryItemID: 111, LocationID: 70, Available: shared.Qty(5)}},
	}}
	locations := &fakeLocations{err: errors.New("down")}
	svc := NewService(products, NewEnricher(NewLevelFetcher(levels, 50, nil), NewLocationDirectory(locations, nil), nil))

	page, err := svc.ListProducts(context.Background(), 2, "")
	require.NoError(t, err)
	require.Equal(t, "Location 70", page.Products[0].Variants[0].InventoryLevels[0].LocationName)
}

func TestListProductsPropagatesCatalogFailure(t *testing.T) {
	svc := NewService(&fakeProducts{err: errors.New("upstream")}, nil)
	_, err := svc.ListProducts(context.Background(), 2, "")
	require.Error(t, err)
}

func TestEnrichDegradesOnCancelledContext(t *testing.T) {
	original := []Product{{ID: 1, Variants: []Variant{{ID: 10, InventoryItemID: 111}}}}
	enricher := NewEnricher(NewLevelFetcher(&fakeLevels{}, 50, nil), NewLocationDirectory(&fakeLocations{}, nil), nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	got := enricher.Enrich(ctx, original)
	require.Equal(t, original, got)
	require.Nil(t, got[0].Variants[0].InventoryLevels)
}
