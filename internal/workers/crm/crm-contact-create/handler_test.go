package crmcontactcreate

import (
	"context"
	"testing"

	"omerhsa-quotes/internal/common/errors"
	commonhttp "omerhsa-quotes/internal/common/http"
	"omerhsa-quotes/internal/common/logger"
	"omerhsa-quotes/internal/common/zoho"
	"omerhsa-quotes/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockCRM struct {
	mock.Mock
}

func (m *MockCRM) SearchContacts(ctx context.Context, email string) ([]zoho.Contact, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]zoho.Contact), args.Error(1)
}

func (m *MockCRM) CreateContact(ctx context.Context, contact *zoho.Contact) (string, error) {
	args := m.Called(ctx, contact)
	return args.String(0), args.Error(1)
}

func newTestHandler(t *testing.T, crm ContactAPI) *Handler {
	t.Helper()
	h, err := NewHandler(HandlerOptions{CRM: crm, Logger: logger.NewTestLogger(t)})
	require.NoError(t, err)
	return h
}

func testMessage() models.ContactMessage {
	return models.ContactMessage{
		ID:      "msg-1",
		Name:    "María José Flores",
		Email:   "maria@correo.hn",
		Subject: "Seguro de vida",
		Message: "Quisiera información.",
	}
}

func TestService_CreatesContact(t *testing.T) {
	crm := &MockCRM{}
	crm.On("SearchContacts", mock.Anything, "maria@correo.hn").Return([]zoho.Contact{}, nil)
	crm.On("CreateContact", mock.Anything, mock.MatchedBy(func(c *zoho.Contact) bool {
		return c.FirstName == "María" &&
			c.LastName == "José Flores" &&
			c.Source == "Formulario de Contacto" &&
			c.Description == "Seguro de vida: Quisiera información."
	})).Return("contact-9", nil)

	id, err := newTestHandler(t, crm).Service().UpsertForMessage(context.Background(), testMessage())

	require.NoError(t, err)
	assert.Equal(t, "contact-9", id)
	crm.AssertExpectations(t)
}

func TestService_ReusesExistingContact(t *testing.T) {
	crm := &MockCRM{}
	crm.On("SearchContacts", mock.Anything, "maria@correo.hn").Return([]zoho.Contact{{ID: "contact-3"}}, nil)

	out, err := newTestHandler(t, crm).Execute(context.Background(), InputFromMessage(testMessage()))

	require.NoError(t, err)
	assert.True(t, out.Existing)
	assert.Equal(t, "contact-3", out.ContactID)
	crm.AssertNotCalled(t, "CreateContact", mock.Anything, mock.Anything)
}

func TestSplitName(t *testing.T) {
	tests := []struct {
		name, first, last string
	}{
		{"Ana", "Ana", "Ana"},
		{"Ana López", "Ana", "López"},
		{"María José Flores", "María", "José Flores"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			first, last := splitName(tt.name)
			assert.Equal(t, tt.first, first)
			assert.Equal(t, tt.last, last)
		})
	}
}

func TestService_ErrorRetryability(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		retryable bool
	}{
		{"rate limited", &commonhttp.StatusError{StatusCode: 429}, true},
		{"server error", &commonhttp.StatusError{StatusCode: 502}, true},
		{"unauthorized", &commonhttp.StatusError{StatusCode: 401}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			crm := &MockCRM{}
			crm.On("SearchContacts", mock.Anything, mock.Anything).Return([]zoho.Contact{}, nil)
			crm.On("CreateContact", mock.Anything, mock.Anything).Return("", tt.err)

			_, err := newTestHandler(t, crm).Service().UpsertForMessage(context.Background(), testMessage())
			stdErr, ok := errors.As(err)
			require.True(t, ok)
			assert.Equal(t, errors.ErrCodeCRMAPIError, stdErr.Code)
			assert.Equal(t, tt.retryable, stdErr.Retryable)
		})
	}
}

func TestService_NotConfigured(t *testing.T) {
	_, err := newTestHandler(t, nil).Execute(context.Background(), InputFromMessage(testMessage()))
	stdErr, ok := errors.As(err)
	require.True(t, ok)
	assert.Equal(t, errors.ErrCodeCRMNotConfigured, stdErr.Code)
}

func TestHandler_ParseInput(t *testing.T) {
	h := newTestHandler(t, &MockCRM{})

	input, err := h.parseInput(`{"messageId":"msg-1","name":"Ana","email":"ana@correo.hn","extra":true}`)
	require.NoError(t, err)
	assert.Equal(t, "Ana", input.Name)

	_, err = h.parseInput(`{"name":"Ana","email":"ana@correo"}`)
	stdErr, ok := errors.As(err)
	require.True(t, ok)
	assert.Equal(t, errors.ErrCodeValidationFailed, stdErr.Code)
}

func TestConfig_Validate(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())

	cfg.LeadSource = ""
	assert.Error(t, cfg.Validate())
}
