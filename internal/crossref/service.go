package crossref

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/basecruz/stockbridge/internal/catalog"
	"github.com/basecruz/stockbridge/internal/externalstock"
)

// Service runs the cross-reference between the catalog and the external stock source.
type Service struct {
	products ProductLister
	stock    StockSource
	logger   *slog.Logger
	window   int
	excluded externalstock.WarehouseCode
}

// NewService builds a Service. Non-positive window and empty excluded code fall back to
// the defaults.
func NewService(products ProductLister, stock StockSource, logger *slog.Logger, window int, excluded string) *Service {
	if window <= 0 {
		window = DefaultWindow
	}
	code := externalstock.WarehouseCode(strings.TrimSpace(excluded))
	if code == "" {
		code = DefaultExcludedWarehouse
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{products: products, stock: stock, logger: logger, window: window, excluded: code}
}

// Result is one page of the cross-reference.
type Result struct {
	Rows         []Row
	NextPageInfo string
}

// Run reads one catalog page and cross-references its SKUs. Only the catalog read can
// fail the call.
func (s *Service) Run(ctx context.Context, limit int, pageInfo string) (Result, error) {
	if s.products == nil {
		return Result{}, errors.New("crossref: product source not configured")
	}
	page, err := s.products.ListProducts(ctx, limit, pageInfo)
	if err != nil {
		return Result{}, err
	}
	entries := EntriesFromProducts(page.Products)
	if len(entries) == 0 {
		return Result{Rows: []Row{}, NextPageInfo: page.NextPageInfo}, nil
	}
	return Result{Rows: s.CrossReference(ctx, entries), NextPageInfo: page.NextPageInfo}, nil
}

// CrossReference queries the external source window by window. Items inside a window
// run concurrently and their rows are appended in completion order; the next window
// starts only once the current one has settled. Every entry yields at least one row.
func (s *Service) CrossReference(ctx context.Context, entries []Entry) []Row {
	rows := make([]Row, 0, len(entries))
	var mu sync.Mutex
	for start := 0; start < len(entries); start += s.window {
		end := min(start+s.window, len(entries))
		var g errgroup.Group
		for _, entry := range entries[start:end] {
			entry := entry
			g.Go(func() error {
				produced := s.lookup(ctx, entry)
				mu.Lock()
				rows = append(rows, produced...)
				mu.Unlock()
				return nil
			})
		}
		_ = g.Wait()
	}
	return rows
}

func (s *Service) lookup(ctx context.Context, entry Entry) []Row {
	if s.stock == nil {
		return []Row{placeholder(entry, WarehouseExternalError)}
	}
	found, err := s.stock.StockBySKU(ctx, entry.SKU)
	if err != nil {
		s.logger.Error("external stock query", slog.String("sku", entry.SKU), slog.Any("error", err))
		return []Row{placeholder(entry, WarehouseExternalError)}
	}
	rows := make([]Row, 0, len(found))
	for _, r := range found {
		if r.Warehouse.Matches(s.excluded) {
			continue
		}
		rows = append(rows, Row{
			Warehouse:     r.Warehouse,
			WarehouseName: WarehouseName(r.Warehouse),
			SKU:           entry.SKU,
			StockReal:     r.StockReal.OrZero(),
			ProductName:   entry.ProductName,
			ShopifyStock:  entry.ShopifyStock,
			ShopifyLevels: entry.ShopifyLevels,
		})
	}
	if len(rows) == 0 {
		return []Row{placeholder(entry, "")}
	}
	return rows
}

func placeholder(entry Entry, warehouse externalstock.WarehouseCode) Row {
	return Row{
		Warehouse:     warehouse,
		SKU:           entry.SKU,
		ProductName:   entry.ProductName,
		ShopifyStock:  entry.ShopifyStock,
		ShopifyLevels: entry.ShopifyLevels,
	}
}

// GroupBySKU folds rows into one record per SKU, ordered by first appearance. Within a
// record warehouses keep their first-appearance order and the last stock value wins.
func GroupBySKU(rows []Row) []Group {
	groups := make([]Group, 0)
	index := make(map[string]int)
	slots := make([]map[externalstock.WarehouseCode]int, 0)
	for _, row := range rows {
		gi, ok := index[row.SKU]
		if !ok {
			levels := row.ShopifyLevels
			if levels == nil {
				levels = []catalog.InventoryLevel{}
			}
			groups = append(groups, Group{
				SKU:           row.SKU,
				ProductName:   row.ProductName,
				ShopifyStock:  row.ShopifyStock,
				ShopifyLevels: levels,
				Warehouses:    []WarehouseStock{},
			})
			slots = append(slots, make(map[externalstock.WarehouseCode]int))
			gi = len(groups) - 1
			index[row.SKU] = gi
		}
		group := &groups[gi]
		if wi, seen := slots[gi][row.Warehouse]; seen {
			group.Warehouses[wi].StockReal = row.StockReal
			continue
		}
		slots[gi][row.Warehouse] = len(group.Warehouses)
		group.Warehouses = append(group.Warehouses, WarehouseStock{
			Warehouse:     row.Warehouse,
			WarehouseName: WarehouseName(row.Warehouse),
			StockReal:     row.StockReal,
		})
	}
	return groups
}
