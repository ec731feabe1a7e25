package content

import (
	"context"

	"omerhsa-quotes/internal/common/logger"
	"omerhsa-quotes/internal/common/metrics"
	"omerhsa-quotes/internal/models"
)

// Listing is what a blog or academic page renders.
type Listing struct {
	Items       []models.ContentItem `json:"items"`
	Total       int                  `json:"total"`
	Count       int                  `json:"count"`
	ResultLabel string               `json:"resultLabel"`
	Categories  []string             `json:"categories"`
	Recent      *models.ContentItem  `json:"recent,omitempty"`
	Query       Query                `json:"query"`
}

type Service struct {
	catalog  *Catalog
	searcher Searcher
	logger   logger.Logger
}

// NewService serves listings from catalog. searcher may be nil.
func NewService(catalog *Catalog, searcher Searcher, log logger.Logger) *Service {
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &Service{catalog: catalog, searcher: searcher, logger: log}
}

// List filters the items of kind. The recent item and the category list are
// taken from the unfiltered listing. When the search backend fails the
// catalog is filtered in memory.
func (s *Service) List(ctx context.Context, kind models.ContentType, q Query) Listing {
	if q.Category == "" {
		q.Category = AllCategories
	}

	all := s.catalog.Items(kind)
	listing := Listing{
		Total:      len(all),
		Categories: Categories(all),
		Query:      q,
	}
	if len(all) > 0 {
		recent := all[0]
		listing.Recent = &recent
	}

	listing.Items = s.filter(ctx, kind, all, q)
	listing.Count = len(listing.Items)
	listing.ResultLabel = ResultLabel(listing.Count)
	return listing
}

func (s *Service) filter(ctx context.Context, kind models.ContentType, all []models.ContentItem, q Query) []models.ContentItem {
	if s.searcher != nil {
		items, err := s.searcher.Search(ctx, kind, q)
		if err == nil {
			metrics.ContentSearches.WithLabelValues("elasticsearch").Inc()
			return items
		}
		s.logger.Warn("content search failed, filtering catalog", map[string]interface{}{
			"kind":  string(kind),
			"error": err.Error(),
		})
	}
	metrics.ContentSearches.WithLabelValues("memory").Inc()
	return Filter(all, q)
}

// Reindex pushes the whole catalog to the search index.
func (s *Service) Reindex(ctx context.Context, idx *ElasticSearcher) (int, error) {
	if err := idx.EnsureIndex(ctx); err != nil {
		return 0, err
	}
	return idx.Index(ctx, s.catalog.Items(""))
}
