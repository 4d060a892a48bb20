//go:build integration

package integration_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openfin/connect-manager/internal/business/server"
	"github.com/openfin/connect-manager/internal/config"
	"github.com/openfin/connect-manager/internal/connect"
	connectmemory "github.com/openfin/connect-manager/internal/connect/memory"
	"github.com/openfin/connect-manager/internal/institution"
	"github.com/openfin/connect-manager/internal/provider"
	"github.com/openfin/connect-manager/internal/provider/teller"
	"github.com/openfin/connect-manager/internal/usage"
)

type flowResponse struct {
	ID     string `json:"id"`
	State  string `json:"state"`
	Params struct {
		Step        string `json:"step"`
		Provider    string `json:"provider"`
		Token       string `json:"token"`
		CountryCode string `json:"countryCode"`
		Query       string `json:"q"`
	} `json:"params"`
	Encoded string `json:"encoded"`
	Results []struct {
		ID       string `json:"id"`
		Name     string `json:"name"`
		Provider string `json:"provider"`
	} `json:"results"`
	Widget *struct {
		Provider string `json:"provider"`
		URL      string `json:"url"`
	} `json:"widget"`
}

// TestAPIServer runs the whole stack over a unix socket: the HTTP API,
// the flow manager, the directory client against a stub directory, and
// the Teller adapter.
func TestAPIServer(t *testing.T) {
	directory := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("q") == "wells" {
			_, _ = w.Write([]byte(`{"data":[{"id":"ins_wells","name":"Wells Fargo","provider":"teller","country_code":"US","available_history":90}]}`))
			return
		}

		_, _ = w.Write([]byte(`{"data":[
			{"id":"ins_chase","name":"Chase","provider":"plaid","country_code":"US","available_history":730},
			{"id":"ins_wells","name":"Wells Fargo","provider":"teller","country_code":"US","available_history":90}
		]}`))
	}))
	defer directory.Close()

	sock := filepath.Join(t.TempDir(), "connect-manager.sock")

	cfg := &config.Config{}
	cfg.Application.Name = "connect-manager"
	cfg.Application.Environment = "integration"
	cfg.HTTP.Address = "unix://" + sock
	cfg.HTTP.ShutdownTimeout = time.Second

	manager := connect.NewManager(
		connectmemory.NewRepository(),
		institution.NewClient(directory.URL),
		provider.NewRegistry(teller.NewAdapter("app-1", "sandbox", teller.WithSettleDelay(time.Millisecond))),
		usage.NopReporter{},
	)

	serverCtx, stopServer := context.WithCancel(t.Context())
	serverDone := make(chan error, 1)
	go func() {
		serverDone <- server.StartHTTPServer(serverCtx, cfg, manager)
	}()

	client := &http.Client{
		Transport: &http.Transport{
			DialContext: func(ctx context.Context, _, _ string) (net.Conn, error) {
				return new(net.Dialer).DialContext(ctx, "unix", sock)
			},
		},
	}

	require.Eventually(t, func() bool {
		resp, err := client.Get("http://connect-manager/ping")
		if err != nil {
			return false
		}
		resp.Body.Close()

		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 50*time.Millisecond)

	// Open a flow.
	flow := doFlowRequest(t, client, http.MethodPost, "http://connect-manager/v1/flows", map[string]string{"countryCode": "US"}, http.StatusCreated)
	require.NotEmpty(t, flow.ID)
	assert.Equal(t, "searching", flow.State)
	assert.Len(t, flow.Results, 2)

	// Narrow the search.
	flow = doFlowRequest(t, client, http.MethodPost,
		fmt.Sprintf("http://connect-manager/v1/flows/%s/search", flow.ID),
		map[string]string{"q": "wells"}, http.StatusOK)
	require.Len(t, flow.Results, 1)
	assert.Equal(t, "ins_wells", flow.Results[0].ID)

	// Select the Teller institution and check the widget URL.
	flow = doFlowRequest(t, client, http.MethodPost,
		fmt.Sprintf("http://connect-manager/v1/flows/%s/select", flow.ID),
		map[string]string{"institutionId": "ins_wells"}, http.StatusOK)
	assert.Equal(t, "awaiting-authorization", flow.State)
	require.NotNil(t, flow.Widget)
	assert.Contains(t, flow.Widget.URL, "connect.teller.io")
	assert.Contains(t, flow.Widget.URL, "institution=ins_wells")

	// Relay the SDK success outcome.
	flow = doFlowRequest(t, client, http.MethodPost,
		fmt.Sprintf("http://connect-manager/v1/flows/%s/outcome", flow.ID),
		map[string]string{"event": "success", "token": "tok-1", "enrollmentId": "enr-1"}, http.StatusOK)
	assert.Equal(t, "linked", flow.State)
	assert.Equal(t, "account", flow.Params.Step)
	assert.Equal(t, "teller", flow.Params.Provider)
	assert.Equal(t, "tok-1", flow.Params.Token)

	// The encoded form carries everything needed to share the flow.
	assert.Contains(t, flow.Encoded, "step=account")
	assert.Contains(t, flow.Encoded, "provider=teller")

	// Close the flow.
	req, err := http.NewRequest(http.MethodDelete, "http://connect-manager/v1/flows/"+flow.ID, nil)
	require.NoError(t, err)
	resp, err := client.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	stopServer()

	select {
	case err := <-serverDone:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}

func doFlowRequest(t *testing.T, client *http.Client, method, url string, body map[string]string, wantStatus int) flowResponse {
	t.Helper()

	encoded, err := json.Marshal(body)
	require.NoError(t, err)

	req, err := http.NewRequest(method, url, bytes.NewReader(encoded))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, wantStatus, resp.StatusCode)

	var flow flowResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&flow))

	return flow
}
