package linktoken_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openfin/connect-manager/internal/linktoken"
)

func TestClient_Provision(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "client-1", body["client_id"])
		assert.Equal(t, "secret-1", body["secret"])
		assert.Equal(t, "OpenFin", body["client_name"])
		assert.Equal(t, []any{"transactions"}, body["products"])

		_, _ = w.Write([]byte(`{"link_token":"link-abc"}`))
	}))
	defer server.Close()

	client := linktoken.NewClient(server.URL, "client-1", "secret-1", "OpenFin")

	token, err := client.Provision(t.Context())
	require.NoError(t, err)
	assert.Equal(t, "link-abc", token)
}

func TestClient_ProvisionFailures(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		wantErr string
	}{
		{
			name: "error status",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				http.Error(w, "bad credentials", http.StatusUnauthorized)
			},
			wantErr: "status: 401",
		},
		{
			name: "empty token",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte(`{}`))
			},
			wantErr: "link token missing",
		},
		{
			name: "malformed body",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte(`not json`))
			},
			wantErr: "decoding response",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(tt.handler)
			defer server.Close()

			client := linktoken.NewClient(server.URL, "client-1", "secret-1", "OpenFin")

			_, err := client.Provision(t.Context())
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestClient_ProvisionCustomProducts(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, []any{"transactions", "auth"}, body["products"])

		_, _ = w.Write([]byte(`{"link_token":"link-xyz"}`))
	}))
	defer server.Close()

	client := linktoken.NewClient(server.URL, "client-1", "secret-1", "OpenFin",
		linktoken.WithProducts("transactions", "auth"))

	token, err := client.Provision(t.Context())
	require.NoError(t, err)
	assert.Equal(t, "link-xyz", token)
}
