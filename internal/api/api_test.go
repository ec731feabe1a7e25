package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"omerhsa-quotes/internal/common/auth"
	"omerhsa-quotes/internal/common/config"
	"omerhsa-quotes/internal/common/logger"
	"omerhsa-quotes/internal/contact"
	"omerhsa-quotes/internal/content"
	"omerhsa-quotes/internal/models"
	"omerhsa-quotes/internal/quote"
	"omerhsa-quotes/internal/session"
	"omerhsa-quotes/internal/site"
	"omerhsa-quotes/internal/wizard"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const testCatalog = `
blog:
  - slug: seguro-auto
    title: "Cómo elegir tu seguro de auto"
    excerpt: "Coberturas básicas."
    publishDate: 2024-03-01
    tags: [Autos]
  - slug: gastos-medicos
    title: "Gastos médicos mayores"
    excerpt: "Qué cubre una póliza médica."
    publishDate: 2024-05-20
    tags: [Salud]
academic:
  - slug: riesgo-catastrofico
    title: "Riesgo catastrófico"
    abstract: "Reaseguro y huracanes."
    publishDate: 2024-04-10
    author: "Dr. Luis Mejía"
`

type stubSubmitter struct {
	calls int
	err   error
}

func (s *stubSubmitter) Submit(ctx context.Context, q models.QuoteRequest) error {
	s.calls++
	return s.err
}

type testEnv struct {
	router    *gin.Engine
	submitter *stubSubmitter
	dbMock    sqlmock.Sqlmock
}

func newTestEnv(t *testing.T, gateEnabled bool) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	db, dbMock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	hash, err := bcrypt.GenerateFromPassword([]byte("s3creto"), bcrypt.MinCost)
	require.NoError(t, err)

	log := logger.NewTestLogger(t)
	sessions := session.NewManager(session.Options{
		Store:       session.NewStore(rdb, time.Hour),
		Tokens:      auth.NewTokenIssuer("test-secret", "omerhsa-quotes", time.Hour),
		Gate:        auth.NewGate([]auth.User{{Name: "Gerencia", Email: "gerencia@omerhsa.com", PasswordHash: string(hash)}}),
		GateEnabled: gateEnabled,
		Logger:      log,
	})

	cfg := quote.DefaultConfig()
	sub := &stubSubmitter{}
	quotes := quote.NewService(cfg, quote.NewDraftStore(rdb, cfg.DraftTTL), sub, log)
	t.Cleanup(quotes.Close)

	catalog, err := content.ParseCatalog([]byte(testCatalog))
	require.NoError(t, err)

	router := NewRouter(Options{
		SessionTTL: time.Hour,
		Quotes:     quotes,
		Sessions:   sessions,
		Content:    content.NewService(catalog, nil, log),
		Contact:    contact.NewService(contact.Options{DB: db, Logger: log}),
		Site:       site.NewDirectory(config.SiteConfig{}),
		Logger:     log,
	})
	return &testEnv{router: router, submitter: sub, dbMock: dbMock}
}

type envelope struct {
	Status    string            `json:"status"`
	Code      int               `json:"code"`
	ErrorCode string            `json:"error_code"`
	Message   string            `json:"message"`
	Errors    map[string]string `json:"errors"`
	TraceID   string            `json:"trace_id"`
	Data      json.RawMessage   `json:"data"`
}

// do sends body as JSON and returns the recorder and the decoded envelope.
func (e *testEnv) do(t *testing.T, method, path, token string, body interface{}) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set(SessionHeader, token)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)

	var env envelope
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	}
	return w, env
}

func (e *testEnv) token(t *testing.T) string {
	t.Helper()
	w, _ := e.do(t, http.MethodGet, "/api/session", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	token := w.Header().Get(SessionHeader)
	require.NotEmpty(t, token)
	return token
}

func decodeView(t *testing.T, env envelope) quote.View {
	t.Helper()
	var view quote.View
	require.NoError(t, json.Unmarshal(env.Data, &view))
	return view
}

func TestHealth(t *testing.T) {
	e := newTestEnv(t, false)

	w, _ := e.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Trace-ID"))
}

func TestReady_ReportsFailure(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := NewRouter(Options{Ready: func(ctx context.Context) error { return context.DeadlineExceeded }})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestSession_EstablishedOnce(t *testing.T) {
	e := newTestEnv(t, false)

	w, env := e.do(t, http.MethodGet, "/api/session", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	token := w.Header().Get(SessionHeader)
	require.NotEmpty(t, token)
	assert.NotEmpty(t, w.Result().Cookies())

	var first sessionView
	require.NoError(t, json.Unmarshal(env.Data, &first))
	assert.True(t, first.Allowed)

	w, env = e.do(t, http.MethodGet, "/api/session", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get(SessionHeader))

	var second sessionView
	require.NoError(t, json.Unmarshal(env.Data, &second))
	assert.Equal(t, first.Session.ID, second.Session.ID)
}

func TestSession_PreloaderShownOnce(t *testing.T) {
	e := newTestEnv(t, false)
	token := e.token(t)

	_, env := e.do(t, http.MethodGet, "/api/session", token, nil)
	assert.Contains(t, string(env.Data), `"show":true`)

	w, _ := e.do(t, http.MethodPost, "/api/session/preloader", token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	_, env = e.do(t, http.MethodGet, "/api/session", token, nil)
	assert.Contains(t, string(env.Data), `"show":false`)
}

func TestGate(t *testing.T) {
	e := newTestEnv(t, true)
	token := e.token(t)

	w, env := e.do(t, http.MethodPost, "/api/quote", token, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, msgGateRequired, env.Message)

	w, env = e.do(t, http.MethodPost, "/api/session/login", token, loginRequest{Email: "gerencia@omerhsa.com", Password: "otra"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, auth.InvalidCredentialsMessage, env.Message)

	w, env = e.do(t, http.MethodPost, "/api/session/login", token, loginRequest{Email: "Gerencia@omerhsa.com", Password: "s3creto"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Bienvenido, Gerencia", env.Message)

	w, _ = e.do(t, http.MethodPost, "/api/quote", token, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w, _ = e.do(t, http.MethodPost, "/api/session/logout", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	w, _ = e.do(t, http.MethodGet, "/api/quote", token, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestQuoteFlow(t *testing.T) {
	e := newTestEnv(t, false)
	token := e.token(t)

	w, _ := e.do(t, http.MethodGet, "/api/quote", token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, env := e.do(t, http.MethodPost, "/api/quote", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	view := decodeView(t, env)
	assert.Equal(t, wizard.StepSelection, view.State.Step)
	assert.Equal(t, 4, view.TotalSteps)

	w, env = e.do(t, http.MethodPost, "/api/quote/insurance", token, insuranceRequest{InsuranceType: " Auto "})
	require.Equal(t, http.StatusOK, w.Code)
	view = decodeView(t, env)
	assert.Equal(t, models.InsuranceAuto, view.State.InsuranceType)
	assert.Equal(t, wizard.StepPersonalInfo, view.State.Step)

	w, env = e.do(t, http.MethodPost, "/api/quote/next", token, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, env.Errors, "firstName")
	assert.Equal(t, wizard.StepPersonalInfo, decodeView(t, env).State.Step)

	w, _ = e.do(t, http.MethodPatch, "/api/quote/fields", token, fieldsRequest{Fields: map[string]string{
		"firstName": "María",
		"phone":     "9999-9999",
	}})
	require.Equal(t, http.StatusOK, w.Code)

	w, env = e.do(t, http.MethodPost, "/api/quote/next", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "auto", decodeView(t, env).DetailsKind)

	w, _ = e.do(t, http.MethodPatch, "/api/quote/fields", token, fieldsRequest{Fields: map[string]string{
		"vehicleModel": "Toyota Hilux",
		"vehicleYear":  "2020",
	}})
	require.Equal(t, http.StatusOK, w.Code)

	w, env = e.do(t, http.MethodPost, "/api/quote/next", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	view = decodeView(t, env)
	assert.Equal(t, wizard.StepReview, view.State.Step)
	assert.NotEmpty(t, view.Summary)

	w, env = e.do(t, http.MethodPost, "/api/quote/submit", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	view = decodeView(t, env)
	assert.Equal(t, models.StateSubmitted, view.State.Submission)
	assert.NotEmpty(t, view.SuccessMessage)
	assert.Equal(t, 1, e.submitter.calls)

	w, _ = e.do(t, http.MethodPost, "/api/quote/back", token, nil)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestQuoteFlow_RetryableFailure(t *testing.T) {
	e := newTestEnv(t, false)
	e.submitter.err = context.DeadlineExceeded
	token := e.token(t)

	e.do(t, http.MethodPost, "/api/quote", token, nil)
	e.do(t, http.MethodPost, "/api/quote/insurance", token, insuranceRequest{InsuranceType: "life"})
	e.do(t, http.MethodPatch, "/api/quote/fields", token, fieldsRequest{Fields: map[string]string{"firstName": "Ana", "phone": "2222-0000"}})
	e.do(t, http.MethodPost, "/api/quote/next", token, nil)
	w, _ := e.do(t, http.MethodPost, "/api/quote/next", token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w, env := e.do(t, http.MethodPost, "/api/quote/submit", token, nil)
	assert.Equal(t, http.StatusBadGateway, w.Code)
	view := decodeView(t, env)
	assert.True(t, view.CanRetry)
	assert.Equal(t, models.StateEditing, view.State.Submission)

	e.submitter.err = nil
	w, env = e.do(t, http.MethodPost, "/api/quote/submit", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.StateSubmitted, decodeView(t, env).State.Submission)
}

func TestQuote_Abandon(t *testing.T) {
	e := newTestEnv(t, false)
	token := e.token(t)

	e.do(t, http.MethodPost, "/api/quote", token, nil)
	w, _ := e.do(t, http.MethodDelete, "/api/quote", token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w, _ = e.do(t, http.MethodGet, "/api/quote", token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestQuote_BadPayload(t *testing.T) {
	e := newTestEnv(t, false)
	token := e.token(t)
	e.do(t, http.MethodPost, "/api/quote", token, nil)

	req := httptest.NewRequest(http.MethodPatch, "/api/quote/fields", bytes.NewBufferString("{"))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(SessionHeader, token)
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestContent(t *testing.T) {
	e := newTestEnv(t, false)
	token := e.token(t)

	tests := []struct {
		path      string
		wantCode  int
		wantCount int
	}{
		{"/api/content/blog", http.StatusOK, 2},
		{"/api/content/blog?category=Salud", http.StatusOK, 1},
		{"/api/content/blog?q=MEDICOS", http.StatusOK, 1},
		{"/api/content/academic", http.StatusOK, 1},
		{"/api/content/all", http.StatusOK, 3},
		{"/api/content/podcast", http.StatusNotFound, 0},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			w, env := e.do(t, http.MethodGet, tt.path, token, nil)
			require.Equal(t, tt.wantCode, w.Code)
			if tt.wantCode != http.StatusOK {
				return
			}
			var listing content.Listing
			require.NoError(t, json.Unmarshal(env.Data, &listing))
			assert.Equal(t, tt.wantCount, listing.Count)
		})
	}
}

func TestContact(t *testing.T) {
	e := newTestEnv(t, false)
	token := e.token(t)

	w, env := e.do(t, http.MethodPost, "/api/contact", token, contact.Input{Name: "Luis", Email: "no-es-correo"})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, env.Errors, "email")
	assert.Contains(t, env.Errors, "message")

	e.dbMock.ExpectExec("INSERT INTO contact_messages").WillReturnResult(sqlmock.NewResult(1, 1))
	w, env = e.do(t, http.MethodPost, "/api/contact", token, contact.Input{
		Name:    "Luis",
		Email:   "luis@correo.hn",
		Message: "Quisiera información de seguros de vida.",
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, contact.SuccessTitle, env.Message)
	assert.NoError(t, e.dbMock.ExpectationsWereMet())
}

func TestSite(t *testing.T) {
	e := newTestEnv(t, false)
	token := e.token(t)

	for _, path := range []string{"/api/site", "/api/site/insurers", "/api/site/faq", "/api/site/insurance-options"} {
		w, env := e.do(t, http.MethodGet, path, token, nil)
		assert.Equal(t, http.StatusOK, w.Code, path)
		assert.NotEmpty(t, env.Data, path)
	}
}
