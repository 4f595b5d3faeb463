package perf

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"testing"
	"time"

	"github.com/basecruz/stockbridge/internal/catalog"
	"github.com/basecruz/stockbridge/internal/crossref"
	"github.com/basecruz/stockbridge/internal/externalstock"
	"github.com/basecruz/stockbridge/internal/shared"
)

type slowStock struct {
	delay time.Duration
}

func (s slowStock) StockBySKU(ctx context.Context, sku string) ([]externalstock.Row, error) {
	time.Sleep(s.delay)
	return []externalstock.Row{
		{Warehouse: "1", StockReal: shared.Qty(4)},
		{Warehouse: "18", StockReal: shared.Qty(9)},
	}, nil
}

func entries(n int) []crossref.Entry {
	out := make([]crossref.Entry, n)
	for i := range out {
		out[i] = crossref.Entry{
			SKU:           fmt.Sprintf("SKU-%03d", i),
			ProductName:   "Tyre",
			ShopifyStock:  shared.Qty(3),
			ShopifyLevels: []catalog.InventoryLevel{},
		}
	}
	return out
}

// Twenty SKUs through a window of five should cost about four upstream round trips.
func TestCrossReferenceLatencyTargets(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	service := crossref.NewService(nil, slowStock{delay: 20 * time.Millisecond}, logger, crossref.DefaultWindow, string(crossref.DefaultExcludedWarehouse))

	samples := make([]time.Duration, 0, 10)
	for i := 0; i < 10; i++ {
		start := time.Now()
		rows := service.CrossReference(context.Background(), entries(20))
		samples = append(samples, time.Since(start))
		if len(rows) != 20 {
			t.Fatalf("expected 20 rows after exclusion, got %d", len(rows))
		}
	}

	if p95 := percentile95(samples); p95 > 400*time.Millisecond {
		t.Fatalf("cross-reference latency regression: p95=%s threshold=%s", p95, 400*time.Millisecond)
	}
}

func BenchmarkGroupBySKU(b *testing.B) {
	rows := make([]crossref.Row, 0, 600)
	for i := 0; i < 200; i++ {
		for w := 0; w < 3; w++ {
			rows = append(rows, crossref.Row{
				Warehouse:   externalstock.WarehouseCode(fmt.Sprint(w + 1)),
				SKU:         fmt.Sprintf("SKU-%03d", i),
				StockReal:   int64(w),
				ProductName: "Tyre",
			})
		}
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = crossref.GroupBySKU(rows)
	}
}

func percentile95(samples []time.Duration) time.Duration {
	if len(samples) == 0 {
		return 0
	}
	sorted := append([]time.Duration(nil), samples...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	index := int(float64(len(sorted)-1) * 0.95)
	if index < 0 {
		index = 0
	}
	if index >= len(sorted) {
		index = len(sorted) - 1
	}
	return sorted[index]
}
