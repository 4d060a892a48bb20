package usage_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openfin/connect-manager/internal/usage"
)

func TestClient_Report(t *testing.T) {
	var got string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		got = body["institutionId"]

		w.WriteHeader(http.StatusAccepted)
	}))
	defer server.Close()

	usage.NewClient(server.URL, nil).Report(t.Context(), "ins_1")

	assert.Equal(t, "ins_1", got)
}

func TestClient_ReportSwallowsFailures(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	server.Close() // report against a dead endpoint must not panic

	usage.NewClient(server.URL, nil).Report(t.Context(), "ins_1")
}
