package catalog

import (
	"context"
	"errors"
)

// Service coordinates catalog reads.
type Service struct {
	source   ProductSource
	enricher *Enricher
}

// NewService builds Service. A nil enricher disables inventory enrichment.
func NewService(source ProductSource, enricher *Enricher) *Service {
	return &Service{source: source, enricher: enricher}
}

// FetchProducts reads one page without enrichment. limit <= 0 selects DefaultPageSize.
func (s *Service) FetchProducts(ctx context.Context, limit int, pageInfo string) (Page, error) {
	if s == nil || s.source == nil {
		return Page{}, errors.New("catalog: service not configured")
	}
	if limit <= 0 {
		limit = DefaultPageSize
	}
	return s.source.FetchProducts(ctx, limit, pageInfo)
}

// ListProducts reads one page and attaches per-location stock to every variant.
// Enrichment never turns a successful read into a failure.
func (s *Service) ListProducts(ctx context.Context, limit int, pageInfo string) (Page, error) {
	page, err := s.FetchProducts(ctx, limit, pageInfo)
	if err != nil {
		return Page{}, err
	}
	if s.enricher != nil {
		page.Products = s.enricher.Enrich(ctx, page.Products)
	}
	return page, nil
}
