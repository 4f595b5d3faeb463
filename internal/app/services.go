package app

import (
	"log/slog"
	"time"

	"github.com/basecruz/stockbridge/internal/catalog"
	"github.com/basecruz/stockbridge/internal/crossref"
	"github.com/basecruz/stockbridge/internal/externalstock"
	"github.com/basecruz/stockbridge/internal/inventory"
	"github.com/basecruz/stockbridge/internal/reconcile"
	"github.com/basecruz/stockbridge/internal/shopify"
)

// UpstreamObserver receives one sample per outbound call.
type UpstreamObserver interface {
	ObserveUpstream(service, endpoint string, status int, elapsed time.Duration)
}

// Services holds the domain services shared by the server and the worker.
type Services struct {
	Shopify   *shopify.Client
	External  *externalstock.Client
	Locations *catalog.LocationDirectory
	Catalog   *catalog.Service
	CrossRef  *crossref.Service
	Stock     *inventory.Applier
	Prices    *inventory.PriceApplier
	Reconcile *reconcile.Job
}

// NewServices wires the domain services from configuration. observer may be nil.
func NewServices(cfg *Config, logger *slog.Logger, observer UpstreamObserver) *Services {
	var (
		shopifyObserver  shopify.Observer
		externalObserver externalstock.Observer
	)
	if observer != nil {
		shopifyObserver = observer
		externalObserver = observer
	}

	shop := shopify.NewClient(shopify.Config{
		StoreDomain: cfg.ShopifyStoreDomain,
		AdminToken:  cfg.ShopifyAdminToken,
		APIVersion:  cfg.ShopifyAPIVersion,
		Timeout:     cfg.ShopifyTimeout,
	}, nil, logger, shopifyObserver)
	external := externalstock.NewClient(externalstock.Config{
		QueryURL: cfg.ExternalStockURL,
		FeedURL:  cfg.ExternalFeedURL,
		APIKey:   cfg.ExternalAPIKey,
		Timeout:  cfg.ExternalTimeout,
	}, nil, externalObserver)

	locations := catalog.NewLocationDirectory(shop, logger)
	levels := catalog.NewLevelFetcher(shop, cfg.LevelChunkSize, logger)
	catalogService := catalog.NewService(shop, catalog.NewEnricher(levels, locations, logger))
	stock := inventory.NewApplier(shop, locations, inventory.ParseLocationIDs(cfg.LocationIDs(), logger), logger)

	return &Services{
		Shopify:   shop,
		External:  external,
		Locations: locations,
		Catalog:   catalogService,
		CrossRef:  crossref.NewService(catalogService, external, logger, cfg.CrossRefWindow, cfg.ExcludedWarehouse),
		Stock:     stock,
		Prices:    inventory.NewPriceApplier(shop, logger),
		Reconcile: reconcile.NewJob(external, shop, levels, stock, logger),
	}
}
