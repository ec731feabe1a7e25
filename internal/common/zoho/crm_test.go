package zoho

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateLead(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/Leads", r.URL.Path)
		assert.Equal(t, "Zoho-oauthtoken token-1", r.Header.Get("Authorization"))

		var body struct {
			Data []Lead `json:"data"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Len(t, body.Data, 1)
		assert.Equal(t, "Juan", body.Data[0].FirstName)
		assert.Equal(t, "9999-9999", body.Data[0].Phone)

		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"data":[{"code":"SUCCESS","details":{"id":"5000001"},"message":"record added","status":"success"}]}`))
	}))
	defer server.Close()

	client := NewCRMClient("key", "token-1", server.URL)
	id, err := client.CreateLead(context.Background(), &Lead{FirstName: "Juan", LastName: "Pérez", Phone: "9999-9999"})
	require.NoError(t, err)
	assert.Equal(t, "5000001", id)
}

func TestCreateContact_RejectedRecord(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":[{"code":"INVALID_DATA","details":{},"message":"invalid email","status":"error"}]}`))
	}))
	defer server.Close()

	_, err := NewCRMClient("key", "token", server.URL).CreateContact(context.Background(), &Contact{Email: "bad"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid email")
}

func TestSearchLeads(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantLen int
		wantErr bool
	}{
		{name: "match", status: http.StatusOK, body: `{"data":[{"id":"1","First_Name":"Juan","Last_Name":"Pérez","Phone":"9999-9999"}]}`, wantLen: 1},
		{name: "no content", status: http.StatusNoContent, wantLen: 0},
		{name: "server error", status: http.StatusBadGateway, body: `oops`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "juan@example.com", r.URL.Query().Get("email"))
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			leads, err := NewCRMClient("key", "token", server.URL).SearchLeads(context.Background(), "juan@example.com")
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Len(t, leads, tt.wantLen)
		})
	}
}
