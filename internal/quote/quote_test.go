package quote

import (
	"context"
	"fmt"
	"testing"
	"time"

	"omerhsa-quotes/internal/common/errors"
	"omerhsa-quotes/internal/common/logger"
	"omerhsa-quotes/internal/models"
	"omerhsa-quotes/internal/wizard"
	quoterecord "omerhsa-quotes/internal/workers/quote/quote-record"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)

type MockRecorder struct{ mock.Mock }

func (m *MockRecorder) Save(ctx context.Context, q models.QuoteRequest) (bool, error) {
	args := m.Called(ctx, q)
	return args.Bool(0), args.Error(1)
}

func (m *MockRecorder) UpdateStatus(ctx context.Context, in *quoterecord.Input) (time.Time, error) {
	args := m.Called(ctx, in)
	return fixedNow, args.Error(0)
}

type MockProcess struct{ mock.Mock }

func (m *MockProcess) StartProcess(ctx context.Context, processID string, vars map[string]interface{}) (int64, error) {
	args := m.Called(ctx, processID, vars)
	return args.Get(0).(int64), args.Error(1)
}

type MockLeads struct{ mock.Mock }

func (m *MockLeads) CreateForQuote(ctx context.Context, q models.QuoteRequest) (string, error) {
	args := m.Called(ctx, q)
	return args.String(0), args.Error(1)
}

type MockNotifier struct{ mock.Mock }

func (m *MockNotifier) NotifyQuote(ctx context.Context, q models.QuoteRequest) error {
	return m.Called(ctx, q).Error(0)
}

func statusIs(status models.QuoteStatus) interface{} {
	return mock.MatchedBy(func(in *quoterecord.Input) bool { return in.Status == status })
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.SubmitTimeout = 2 * time.Second
	cfg.Rules = wizard.Rules{MinVehicleYear: 1950, Now: func() time.Time { return fixedNow }}
	return cfg
}

func autoQuote() models.QuoteRequest {
	return models.QuoteRequest{
		ID:            "3f1c2a9e-7b1d-4a57-9b1e-0c3e2f6a9d10",
		SessionID:     "sess-1",
		InsuranceType: models.InsuranceAuto,
		Contact: models.Contact{
			FirstName: "María",
			LastName:  "Zelaya",
			Email:     "maria@correo.hn",
			Phone:     "9999-9999",
			Location:  "Tegucigalpa",
		},
		Vehicle:     &models.VehicleDetails{Model: "Toyota Hilux", Year: "2020", EstimatedValue: "650000"},
		SubmittedAt: fixedNow,
	}
}

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

func TestDraftStore_RoundTrip(t *testing.T) {
	mr, rdb := newRedis(t)
	store := NewDraftStore(rdb, time.Hour)
	ctx := context.Background()

	state := wizard.NewState("sess-1")
	require.NoError(t, state.SelectInsurance(models.InsuranceLife))
	require.NoError(t, state.SetField(wizard.FieldFirstName, "Carlos"))
	require.NoError(t, store.Save(ctx, *state))

	assert.Equal(t, time.Hour, mr.TTL("quote:draft:sess-1"))

	loaded, err := store.Load(ctx, "sess-1")
	require.NoError(t, err)
	assert.Equal(t, wizard.StepPersonalInfo, loaded.Step)
	assert.Equal(t, models.InsuranceLife, loaded.InsuranceType)
	assert.Equal(t, "Carlos", loaded.Contact.FirstName)

	require.NoError(t, store.Delete(ctx, "sess-1"))
	_, err = store.Load(ctx, "sess-1")
	assert.ErrorIs(t, err, ErrNoDraft)
}

func TestDraftStore_Lock(t *testing.T) {
	mr, rdb := newRedis(t)
	store := NewDraftStore(rdb, time.Hour)
	ctx := context.Background()

	ok, err := store.Lock(ctx, "sess-1", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = store.Lock(ctx, "sess-1", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	locked, err := store.Locked(ctx, "sess-1")
	require.NoError(t, err)
	assert.True(t, locked)

	mr.FastForward(2 * time.Minute)
	ok, err = store.Lock(ctx, "sess-1", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok, "lock expires with its ttl")

	require.NoError(t, store.Unlock(ctx, "sess-1"))
	locked, err = store.Locked(ctx, "sess-1")
	require.NoError(t, err)
	assert.False(t, locked)
}

func TestDraftStore_RedisErrors(t *testing.T) {
	rdb, rmock := redismock.NewClientMock()
	store := NewDraftStore(rdb, time.Hour)
	ctx := context.Background()

	rmock.ExpectSetNX("quote:lock:sess-1", "1", time.Minute).SetErr(fmt.Errorf("READONLY You can't write against a read only replica"))
	_, err := store.Lock(ctx, "sess-1", time.Minute)
	stdErr, ok := errors.As(err)
	require.True(t, ok)
	assert.Equal(t, errors.ErrCodeSessionStoreFailed, stdErr.Code)

	rmock.ExpectGet("quote:draft:sess-1").SetVal("{not json")
	_, err = store.Load(ctx, "sess-1")
	stdErr, ok = errors.As(err)
	require.True(t, ok)
	assert.Equal(t, errors.ErrCodeSessionStoreFailed, stdErr.Code)

	assert.NoError(t, rmock.ExpectationsWereMet())
}

func TestValidateRecord(t *testing.T) {
	comments := "Cobertura familiar"

	tests := []struct {
		name    string
		mutate  func(q *models.QuoteRequest)
		wantErr bool
	}{
		{"auto with vehicle", func(q *models.QuoteRequest) {}, false},
		{"auto carrying comments", func(q *models.QuoteRequest) { q.Comments = &comments }, true},
		{"auto without vehicle", func(q *models.QuoteRequest) { q.Vehicle = nil }, true},
		{"medical with comments", func(q *models.QuoteRequest) {
			q.InsuranceType = models.InsuranceMedical
			q.Vehicle = nil
			q.Comments = &comments
		}, false},
		{"life carrying vehicle", func(q *models.QuoteRequest) { q.InsuranceType = models.InsuranceLife }, true},
		{"empty email allowed", func(q *models.QuoteRequest) { q.Contact.Email = "" }, false},
		{"bad phone", func(q *models.QuoteRequest) { q.Contact.Phone = "555-1234" }, true},
		{"unknown location", func(q *models.QuoteRequest) { q.Contact.Location = "Roatán" }, true},
		{"unset type", func(q *models.QuoteRequest) { q.InsuranceType = models.InsuranceUnset }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := autoQuote()
			tt.mutate(&q)
			err := validateRecord(q)
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			stdErr, ok := errors.As(err)
			require.True(t, ok)
			assert.Equal(t, errors.ErrCodeValidationFailed, stdErr.Code)
			assert.False(t, stdErr.Retryable)
		})
	}
}

func TestPipeline_Inline(t *testing.T) {
	rec, leads, notifier := new(MockRecorder), new(MockLeads), new(MockNotifier)
	q := autoQuote()

	rec.On("Save", mock.Anything, q).Return(true, nil)
	leads.On("CreateForQuote", mock.Anything, q).Return("5725767000001234001", nil)
	rec.On("UpdateStatus", mock.Anything, mock.MatchedBy(func(in *quoterecord.Input) bool {
		return in.Status == models.QuoteCRMSynced && in.CRMLeadID == "5725767000001234001"
	})).Return(nil)
	notifier.On("NotifyQuote", mock.Anything, q).Return(nil)
	rec.On("UpdateStatus", mock.Anything, statusIs(models.QuoteNotified)).Return(nil)

	p := NewPipeline(PipelineOptions{Recorder: rec, Leads: leads, Notifier: notifier, Logger: logger.NewTestLogger(t)})
	require.NoError(t, p.Submit(context.Background(), q))

	rec.AssertExpectations(t)
	leads.AssertExpectations(t)
	notifier.AssertExpectations(t)
}

func TestPipeline_InlinePartialFailure(t *testing.T) {
	rec, leads, notifier := new(MockRecorder), new(MockLeads), new(MockNotifier)
	q := autoQuote()

	rec.On("Save", mock.Anything, q).Return(true, nil)
	leads.On("CreateForQuote", mock.Anything, q).Return("", errors.NewCRMAPIError("create lead", fmt.Errorf("503")))
	notifier.On("NotifyQuote", mock.Anything, q).Return(nil)
	rec.On("UpdateStatus", mock.Anything, statusIs(models.QuoteNotified)).Return(nil)

	p := NewPipeline(PipelineOptions{Recorder: rec, Leads: leads, Notifier: notifier})
	assert.NoError(t, p.Submit(context.Background(), q))
	rec.AssertNotCalled(t, "UpdateStatus", mock.Anything, statusIs(models.QuoteFailed))
}

func TestPipeline_InlineAllFailed(t *testing.T) {
	rec, leads, notifier := new(MockRecorder), new(MockLeads), new(MockNotifier)
	q := autoQuote()
	crmErr := errors.NewCRMAPIError("create lead", fmt.Errorf("503"))

	rec.On("Save", mock.Anything, q).Return(true, nil)
	leads.On("CreateForQuote", mock.Anything, q).Return("", crmErr)
	notifier.On("NotifyQuote", mock.Anything, q).Return(errors.NewNotificationSendFailedError("email", fmt.Errorf("throttled")))
	rec.On("UpdateStatus", mock.Anything, statusIs(models.QuoteFailed)).Return(nil)

	p := NewPipeline(PipelineOptions{Recorder: rec, Leads: leads, Notifier: notifier})
	err := p.Submit(context.Background(), q)
	assert.ErrorIs(t, err, crmErr)
	rec.AssertExpectations(t)
}

func TestPipeline_Process(t *testing.T) {
	rec, proc := new(MockRecorder), new(MockProcess)
	q := autoQuote()

	rec.On("Save", mock.Anything, q).Return(false, nil)
	proc.On("StartProcess", mock.Anything, "quote-request", mock.MatchedBy(func(vars map[string]interface{}) bool {
		return vars["quoteId"] == q.ID && vars["vehicleModel"] == "Toyota Hilux"
	})).Return(int64(2251799813685249), nil)
	rec.On("UpdateStatus", mock.Anything, mock.MatchedBy(func(in *quoterecord.Input) bool {
		return in.Status == models.QuoteDispatched && in.ProcessKey == 2251799813685249
	})).Return(fmt.Errorf("connection reset"))

	p := NewPipeline(PipelineOptions{Recorder: rec, Process: proc})
	require.NoError(t, p.Submit(context.Background(), q), "status update failures are not fatal")

	rec.AssertExpectations(t)
	proc.AssertExpectations(t)
}

func TestPipeline_PersistFailureStopsDispatch(t *testing.T) {
	rec, proc := new(MockRecorder), new(MockProcess)
	q := autoQuote()

	rec.On("Save", mock.Anything, q).Return(false, errors.NewDatabaseInsertFailedError(fmt.Errorf("connection refused")))

	p := NewPipeline(PipelineOptions{Recorder: rec, Process: proc})
	err := p.Submit(context.Background(), q)

	stdErr, ok := errors.As(err)
	require.True(t, ok)
	assert.Equal(t, errors.ErrCodeDatabaseInsertFailed, stdErr.Code)
	proc.AssertNotCalled(t, "StartProcess", mock.Anything, mock.Anything, mock.Anything)
}

func TestPipeline_RejectsInvalidRecord(t *testing.T) {
	rec := new(MockRecorder)
	q := autoQuote()
	q.Contact.Phone = ""

	p := NewPipeline(PipelineOptions{Recorder: rec})
	err := p.Submit(context.Background(), q)

	require.Error(t, err)
	assert.False(t, wizard.FromError(err).Retryable)
	rec.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}
