package content

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"testing"

	"omerhsa-quotes/internal/common/config"
	"omerhsa-quotes/internal/common/database"
	"omerhsa-quotes/internal/common/errors"
	"omerhsa-quotes/internal/common/logger"
	"omerhsa-quotes/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testCatalog = `
blog:
  - slug: seguro-auto-honduras
    title: "Cómo elegir tu seguro de auto"
    excerpt: "Coberturas básicas para conductores en Tegucigalpa."
    publishDate: 2024-03-01
    image: /img/auto.jpg
    tags: [Autos, Consejos]
  - slug: gastos-medicos
    title: "Gastos médicos mayores"
    excerpt: "Qué cubre una póliza médica."
    publishDate: 2024-05-20
    author: "Lic. Ana Zelaya"
    tags: [Salud]
academic:
  - slug: riesgo-catastrofico
    title: "Riesgo catastrófico en Centroamérica"
    abstract: "Estudio sobre reaseguro y huracanes."
    publishDate: 2024-04-10
    author: "Dr. Luis Mejía"
    pdfUrl: /pdf/riesgo.pdf
`

func loadTestCatalog(t *testing.T) *Catalog {
	t.Helper()
	c, err := ParseCatalog([]byte(testCatalog))
	require.NoError(t, err)
	return c
}

func TestParseCatalog(t *testing.T) {
	c := loadTestCatalog(t)

	all := c.Items("")
	require.Len(t, all, 3)
	assert.Equal(t, "gastos-medicos", all[0].Slug, "newest first")
	assert.Equal(t, "riesgo-catastrofico", all[1].Slug)

	blog := c.Items(models.ContentBlog)
	require.Len(t, blog, 2)
	assert.Equal(t, "Lic. Ana Zelaya", blog[0].Author)
	assert.Equal(t, DefaultBlogAuthor, blog[1].Author)
	assert.Equal(t, "Autos", blog[1].Category)

	academic := c.Items(models.ContentAcademic)
	require.Len(t, academic, 1)
	assert.Equal(t, DefaultAcademicCategory, academic[0].Category)
	assert.Equal(t, "Estudio sobre reaseguro y huracanes.", academic[0].Excerpt)
	assert.Equal(t, "/pdf/riesgo.pdf", academic[0].PDFURL)
}

func TestParseCatalog_Invalid(t *testing.T) {
	_, err := ParseCatalog([]byte("blog:\n  - slug: x\n    title: y\n    publishDate: ayer\n"))
	assert.Error(t, err)

	_, err = ParseCatalog([]byte("academic:\n  - slug: x\n    title: y\n    publishDate: 2024-01-01\n"))
	assert.Error(t, err, "academic author is required")
}

func TestFilter(t *testing.T) {
	items := loadTestCatalog(t).Items("")

	tests := []struct {
		name  string
		query Query
		slugs []string
	}{
		{"zero value matches all", Query{}, []string{"gastos-medicos", "riesgo-catastrofico", "seguro-auto-honduras"}},
		{"todos", Query{Category: AllCategories}, []string{"gastos-medicos", "riesgo-catastrofico", "seguro-auto-honduras"}},
		{"category exact", Query{Category: "Salud"}, []string{"gastos-medicos"}},
		{"category is case sensitive", Query{Category: "salud"}, []string{}},
		{"search ignores case and accents", Query{Search: "MEDICO"}, []string{"gastos-medicos"}},
		{"search matches excerpt", Query{Search: "huracanes"}, []string{"riesgo-catastrofico"}},
		{"category and search combine", Query{Category: "Autos", Search: "medic"}, []string{}},
		{"search is trimmed", Query{Search: "  auto "}, []string{"seguro-auto-honduras"}},
		{"blank search matches all", Query{Search: "   "}, []string{"gastos-medicos", "riesgo-catastrofico", "seguro-auto-honduras"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Filter(items, tt.query)
			slugs := make([]string, len(got))
			for i, item := range got {
				slugs[i] = item.Slug
			}
			assert.Equal(t, tt.slugs, slugs)
		})
	}
}

func TestBuildQuery_TrimsSearchLikeFilter(t *testing.T) {
	trimmed := buildQuery(models.ContentBlog, Query{Search: " Médico  "})
	assert.Equal(t, buildQuery(models.ContentBlog, Query{Search: "médico"}), trimmed)

	blank := buildQuery(models.ContentBlog, Query{Search: "  "})
	boolQuery := blank["query"].(map[string]interface{})["bool"].(map[string]interface{})
	assert.NotContains(t, boolQuery, "should")
}

func TestQuery_Clear(t *testing.T) {
	q := Query{Category: "Salud", Search: "póliza"}
	assert.Equal(t, Query{Category: AllCategories}, q.Clear())
}

func TestFold(t *testing.T) {
	assert.Equal(t, "medico", Fold("Médico"))
	assert.Equal(t, "catastrofico en centroamerica", Fold("Catastrófico en Centroamérica"))
	assert.Equal(t, "nino", Fold("Niño"))
}

func TestResultLabel(t *testing.T) {
	assert.Equal(t, "1 resultado", ResultLabel(1))
	assert.Equal(t, "0 resultados", ResultLabel(0))
	assert.Equal(t, "3 resultados", ResultLabel(3))
}

type failingSearcher struct{ calls int }

func (f *failingSearcher) Search(ctx context.Context, kind models.ContentType, q Query) ([]models.ContentItem, error) {
	f.calls++
	return nil, errors.NewSearchTimeoutError("omerhsa-content")
}

func TestService_List(t *testing.T) {
	svc := NewService(loadTestCatalog(t), nil, logger.NewTestLogger(t))

	listing := svc.List(context.Background(), models.ContentBlog, Query{Search: "zzz"})
	assert.Equal(t, 2, listing.Total)
	assert.Equal(t, 0, listing.Count)
	assert.Equal(t, "0 resultados", listing.ResultLabel)
	assert.Equal(t, []string{"Salud", "Autos"}, listing.Categories)
	require.NotNil(t, listing.Recent)
	assert.Equal(t, "gastos-medicos", listing.Recent.Slug, "recent ignores the filter")
	assert.Equal(t, AllCategories, listing.Query.Category)
}

func TestService_FallsBackWhenSearchFails(t *testing.T) {
	searcher := &failingSearcher{}
	svc := NewService(loadTestCatalog(t), searcher, nil)

	listing := svc.List(context.Background(), "", Query{Search: "médica"})
	assert.Equal(t, 1, searcher.calls)
	require.Len(t, listing.Items, 1)
	assert.Equal(t, "gastos-medicos", listing.Items[0].Slug)
}

type fakeTransport struct {
	requests []*http.Request
	bodies   []string
	status   int
	response string
}

func (f *fakeTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	body := ""
	if req.Body != nil {
		data, _ := io.ReadAll(req.Body)
		body = string(data)
	}
	f.requests = append(f.requests, req)
	f.bodies = append(f.bodies, body)

	header := http.Header{}
	header.Set("Content-Type", "application/json")
	header.Set("X-Elastic-Product", "Elasticsearch")
	return &http.Response{
		StatusCode: f.status,
		Header:     header,
		Body:       io.NopCloser(bytes.NewBufferString(f.response)),
		Request:    req,
	}, nil
}

func newTestSearcher(t *testing.T, transport *fakeTransport) *ElasticSearcher {
	t.Helper()
	es, err := database.NewElasticsearch(config.ElasticsearchConfig{Addresses: []string{"http://es.local:9200"}}, transport)
	require.NoError(t, err)
	return NewElasticSearcher(es.Client, "omerhsa-content")
}

func TestElasticSearcher_Search(t *testing.T) {
	transport := &fakeTransport{
		status:   200,
		response: `{"hits":{"hits":[{"_source":{"slug":"gastos-medicos","title":"Gastos médicos mayores","type":"blog","category":"Salud","date":"2024-05-20T00:00:00Z"}}]}}`,
	}
	searcher := newTestSearcher(t, transport)

	items, err := searcher.Search(context.Background(), models.ContentBlog, Query{Category: "Salud", Search: "Médicos"})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "gastos-medicos", items[0].Slug)

	require.Len(t, transport.requests, 1)
	assert.True(t, strings.HasSuffix(transport.requests[0].URL.Path, "/omerhsa-content/_search"))
	body := transport.bodies[0]
	assert.Contains(t, body, `"*medicos*"`)
	assert.Contains(t, body, `"category":"Salud"`)
	assert.Contains(t, body, `"type":"blog"`)
}

func TestElasticSearcher_IndexMissing(t *testing.T) {
	searcher := newTestSearcher(t, &fakeTransport{status: 404, response: `{"error":{"type":"index_not_found_exception"}}`})

	_, err := searcher.Search(context.Background(), "", Query{})
	stdErr, ok := errors.As(err)
	require.True(t, ok)
	assert.Equal(t, errors.ErrCodeIndexNotFound, stdErr.Code)
}

func TestElasticSearcher_Index(t *testing.T) {
	transport := &fakeTransport{
		status:   200,
		response: `{"errors":false,"items":[{"index":{"status":201}},{"index":{"status":201}},{"index":{"status":200}}]}`,
	}
	searcher := newTestSearcher(t, transport)
	items := loadTestCatalog(t).Items("")

	n, err := searcher.Index(context.Background(), items)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	lines := strings.Split(strings.TrimSpace(transport.bodies[0]), "\n")
	require.Len(t, lines, 6)
	assert.Contains(t, lines[0], fmt.Sprintf(`"_id":"blog:%s"`, items[0].Slug))
	assert.Contains(t, lines[1], `"titleFolded":"gastos medicos mayores"`)
}
