package connectvalkey_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valkey-io/valkey-go"

	"github.com/openfin/connect-manager/internal/connect"
	connectvalkey "github.com/openfin/connect-manager/internal/connect/valkey"
	"github.com/openfin/connect-manager/internal/dbtest/valkeytest"
	"github.com/openfin/connect-manager/internal/serviceerr"
)

var valkeyClient valkey.Client

func TestMain(m *testing.M) {
	ctx := context.Background()

	client, _, terminate := valkeytest.Start(ctx)
	defer terminate(ctx)

	valkeyClient = client

	code := m.Run()
	os.Exit(code)
}

func TestRepository_RoundTrip(t *testing.T) {
	repo := connectvalkey.NewRepository(valkeyClient, "connect-test")

	params := connect.Params{
		Step:          connect.StepAccount,
		Provider:      connect.ProviderPlaid,
		InstitutionID: "ins_1",
		CountryCode:   "US",
		Token:         "tok-1",
	}

	require.NoError(t, repo.StoreParams(t.Context(), "flow-1", params))

	got, err := repo.LoadParams(t.Context(), "flow-1")
	require.NoError(t, err)
	assert.Equal(t, params, got)
}

func TestRepository_LoadMissing(t *testing.T) {
	repo := connectvalkey.NewRepository(valkeyClient, "connect-test")

	_, err := repo.LoadParams(t.Context(), "missing")
	assert.ErrorIs(t, err, serviceerr.ErrNotFound)
}

func TestRepository_Delete(t *testing.T) {
	repo := connectvalkey.NewRepository(valkeyClient, "connect-test")

	require.NoError(t, repo.StoreParams(t.Context(), "flow-del", connect.Params{CountryCode: "US"}))
	require.NoError(t, repo.DeleteParams(t.Context(), "flow-del"))

	_, err := repo.LoadParams(t.Context(), "flow-del")
	assert.ErrorIs(t, err, serviceerr.ErrNotFound)
}

func TestRepository_OverwriteKeepsLatest(t *testing.T) {
	repo := connectvalkey.NewRepository(valkeyClient, "connect-test")

	require.NoError(t, repo.StoreParams(t.Context(), "flow-2", connect.Params{CountryCode: "US", Query: "first"}))
	require.NoError(t, repo.StoreParams(t.Context(), "flow-2", connect.Params{CountryCode: "US", Query: "second"}))

	got, err := repo.LoadParams(t.Context(), "flow-2")
	require.NoError(t, err)
	assert.Equal(t, "second", got.Query)
}

func TestRepository_TTLExpiry(t *testing.T) {
	repo := connectvalkey.NewRepository(valkeyClient, "connect-ttl", connectvalkey.WithTTL(time.Second))

	require.NoError(t, repo.StoreParams(t.Context(), "flow-3", connect.Params{CountryCode: "US"}))

	assert.Eventually(t, func() bool {
		_, err := repo.LoadParams(t.Context(), "flow-3")
		return err != nil
	}, 5*time.Second, 100*time.Millisecond)
}

func TestRepository_PrefixIsolation(t *testing.T) {
	first := connectvalkey.NewRepository(valkeyClient, "instance-a")
	second := connectvalkey.NewRepository(valkeyClient, "instance-b")

	require.NoError(t, first.StoreParams(t.Context(), "flow-4", connect.Params{CountryCode: "US"}))

	_, err := second.LoadParams(t.Context(), "flow-4")
	assert.ErrorIs(t, err, serviceerr.ErrNotFound)
}
