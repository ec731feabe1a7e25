package content

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"omerhsa-quotes/internal/common/errors"
	"omerhsa-quotes/internal/models"

	"github.com/elastic/go-elasticsearch/v8"
)

// Searcher runs a listing query against an index.
type Searcher interface {
	Search(ctx context.Context, kind models.ContentType, q Query) ([]models.ContentItem, error)
}

// indexedItem is the document stored per item. The folded fields hold
// Fold(title) and Fold(excerpt) so a wildcard query has the same
// semantics as Query.Matches.
type indexedItem struct {
	models.ContentItem
	TitleFolded   string `json:"titleFolded"`
	ExcerptFolded string `json:"excerptFolded"`
}

const indexMapping = `{
  "mappings": {
    "properties": {
      "slug":          {"type": "keyword"},
      "type":          {"type": "keyword"},
      "category":      {"type": "keyword"},
      "date":          {"type": "date"},
      "title":         {"type": "text"},
      "excerpt":       {"type": "text"},
      "titleFolded":   {"type": "keyword"},
      "excerptFolded": {"type": "keyword"},
      "tags":          {"type": "keyword"}
    }
  }
}`

type ElasticSearcher struct {
	client  *elasticsearch.Client
	index   string
	timeout time.Duration
}

func NewElasticSearcher(client *elasticsearch.Client, index string) *ElasticSearcher {
	return &ElasticSearcher{client: client, index: index, timeout: 3 * time.Second}
}

// EnsureIndex creates the index with its mapping if it does not exist.
func (s *ElasticSearcher) EnsureIndex(ctx context.Context) error {
	res, err := s.client.Indices.Exists([]string{s.index}, s.client.Indices.Exists.WithContext(ctx))
	if err != nil {
		return errors.NewSearchQueryFailedError(s.index, err)
	}
	res.Body.Close()
	if res.StatusCode == 200 {
		return nil
	}

	res, err = s.client.Indices.Create(s.index,
		s.client.Indices.Create.WithContext(ctx),
		s.client.Indices.Create.WithBody(strings.NewReader(indexMapping)),
	)
	if err != nil {
		return errors.NewSearchQueryFailedError(s.index, err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return errors.NewSearchQueryFailedError(s.index, fmt.Errorf("create index: %s", res.String()))
	}
	return nil
}

// Index bulk-indexes items keyed by type and slug and returns how many were written.
func (s *ElasticSearcher) Index(ctx context.Context, items []models.ContentItem) (int, error) {
	if len(items) == 0 {
		return 0, nil
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, item := range items {
		meta := map[string]interface{}{
			"index": map[string]interface{}{"_id": string(item.Type) + ":" + item.Slug},
		}
		doc := indexedItem{ContentItem: item, TitleFolded: Fold(item.Title), ExcerptFolded: Fold(item.Excerpt)}
		if err := enc.Encode(meta); err != nil {
			return 0, err
		}
		if err := enc.Encode(doc); err != nil {
			return 0, err
		}
	}

	res, err := s.client.Bulk(&buf,
		s.client.Bulk.WithContext(ctx),
		s.client.Bulk.WithIndex(s.index),
		s.client.Bulk.WithRefresh("true"),
	)
	if err != nil {
		return 0, errors.NewSearchQueryFailedError(s.index, err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return 0, errors.NewSearchQueryFailedError(s.index, fmt.Errorf("bulk: %s", res.String()))
	}

	var bulk struct {
		Errors bool `json:"errors"`
		Items  []map[string]struct {
			Status int `json:"status"`
		} `json:"items"`
	}
	if err := json.NewDecoder(res.Body).Decode(&bulk); err != nil {
		return 0, errors.NewSearchQueryFailedError(s.index, err)
	}
	written := 0
	for _, item := range bulk.Items {
		for _, op := range item {
			if op.Status < 300 {
				written++
			}
		}
	}
	if bulk.Errors {
		return written, errors.NewSearchQueryFailedError(s.index, fmt.Errorf("%d of %d documents failed", len(items)-written, len(items)))
	}
	return written, nil
}

func buildQuery(kind models.ContentType, q Query) map[string]interface{} {
	var filters []interface{}
	if kind != "" {
		filters = append(filters, map[string]interface{}{"term": map[string]interface{}{"type": string(kind)}})
	}
	if !q.allCategories() {
		filters = append(filters, map[string]interface{}{"term": map[string]interface{}{"category": q.Category}})
	}

	boolQuery := map[string]interface{}{"filter": filters}
	if term := Fold(strings.TrimSpace(q.Search)); term != "" {
		pattern := "*" + escapeWildcard(term) + "*"
		boolQuery["should"] = []interface{}{
			map[string]interface{}{"wildcard": map[string]interface{}{"titleFolded": map[string]interface{}{"value": pattern}}},
			map[string]interface{}{"wildcard": map[string]interface{}{"excerptFolded": map[string]interface{}{"value": pattern}}},
		}
		boolQuery["minimum_should_match"] = 1
	}

	return map[string]interface{}{
		"query": map[string]interface{}{"bool": boolQuery},
		"sort":  []interface{}{map[string]interface{}{"date": map[string]interface{}{"order": "desc"}}},
		"size":  500,
	}
}

func escapeWildcard(s string) string {
	return strings.NewReplacer(`\`, `\\`, `*`, `\*`, `?`, `\?`).Replace(s)
}

func (s *ElasticSearcher) Search(ctx context.Context, kind models.ContentType, q Query) ([]models.ContentItem, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	body, err := json.Marshal(buildQuery(kind, q))
	if err != nil {
		return nil, errors.NewSearchQueryFailedError(s.index, err)
	}

	res, err := s.client.Search(
		s.client.Search.WithContext(ctx),
		s.client.Search.WithIndex(s.index),
		s.client.Search.WithBody(bytes.NewReader(body)),
	)
	if err != nil {
		if ctx.Err() != nil {
			return nil, errors.NewSearchTimeoutError(s.index)
		}
		return nil, errors.NewSearchQueryFailedError(s.index, err)
	}
	defer res.Body.Close()

	if res.StatusCode == 404 {
		return nil, errors.NewIndexNotFoundError(s.index)
	}
	if res.IsError() {
		msg, _ := io.ReadAll(res.Body)
		return nil, errors.NewSearchQueryFailedError(s.index, fmt.Errorf("%s: %s", res.Status(), msg))
	}

	var parsed struct {
		Hits struct {
			Hits []struct {
				Source models.ContentItem `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, errors.NewSearchQueryFailedError(s.index, err)
	}

	out := make([]models.ContentItem, len(parsed.Hits.Hits))
	for i, hit := range parsed.Hits.Hits {
		out[i] = hit.Source
	}
	return out, nil
}
