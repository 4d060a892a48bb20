package connect_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openfin/connect-manager/internal/connect"
	connectmock "github.com/openfin/connect-manager/internal/connect/mock"
	"github.com/openfin/connect-manager/internal/institution"
	institutionmock "github.com/openfin/connect-manager/internal/institution/mock"
	"github.com/openfin/connect-manager/internal/provider"
	providermock "github.com/openfin/connect-manager/internal/provider/mock"
	"github.com/openfin/connect-manager/internal/serviceerr"
	usagemock "github.com/openfin/connect-manager/internal/usage/mock"
)

func TestManager_Open(t *testing.T) {
	repo := connectmock.NewInMemRepository()
	directory := institutionmock.NewInMemDirectory(institutionmock.WithInstitutions(instPlaid))
	manager := connect.NewManager(repo, directory, provider.NewRegistry(), usagemock.NewReporter())

	flow, err := manager.Open(t.Context(), "US")
	require.NoError(t, err)
	require.NotEmpty(t, flow.ID)

	assert.Equal(t, connect.StateSearching, flow.State())
	assert.Equal(t, []institution.Institution{instPlaid}, flow.Results())

	// Every observable write lands in the repository.
	stored, err := repo.LoadParams(t.Context(), flow.ID)
	require.NoError(t, err)
	assert.Equal(t, connect.StepConnect, stored.Step)
	assert.Equal(t, "US", stored.CountryCode)
}

func TestManager_OpenStoreFailure(t *testing.T) {
	repo := connectmock.NewInMemRepository(connectmock.WithStoreError(assert.AnError))
	manager := connect.NewManager(repo, institutionmock.NewInMemDirectory(), provider.NewRegistry(), usagemock.NewReporter())

	_, err := manager.Open(t.Context(), "US")
	assert.ErrorIs(t, err, assert.AnError)
}

func TestManager_GetReturnsLiveFlow(t *testing.T) {
	repo := connectmock.NewInMemRepository()
	manager := connect.NewManager(repo, institutionmock.NewInMemDirectory(), provider.NewRegistry(), usagemock.NewReporter())

	flow, err := manager.Open(t.Context(), "US")
	require.NoError(t, err)

	got, err := manager.Get(t.Context(), flow.ID)
	require.NoError(t, err)
	assert.Same(t, flow, got)
}

func TestManager_GetUnknownFlow(t *testing.T) {
	manager := connect.NewManager(connectmock.NewInMemRepository(), institutionmock.NewInMemDirectory(), provider.NewRegistry(), usagemock.NewReporter())

	_, err := manager.Get(t.Context(), "missing")
	assert.ErrorIs(t, err, serviceerr.ErrNotFound)
}

func TestManager_GetRehydratesFromRepository(t *testing.T) {
	// A new manager with the same repository stands in for a process
	// restart: the flow is rebuilt from its persisted params alone.
	repo := connectmock.NewInMemRepository(connectmock.WithParams("flow-1", connect.Params{
		Step:        connect.StepConnect,
		CountryCode: "US",
		Query:       "platypus",
	}))
	directory := institutionmock.NewInMemDirectory(institutionmock.WithInstitutions(instPlaid))
	manager := connect.NewManager(repo, directory, provider.NewRegistry(), usagemock.NewReporter())

	flow, err := manager.Get(t.Context(), "flow-1")
	require.NoError(t, err)

	assert.Equal(t, connect.StateSearching, flow.State())
	assert.Equal(t, "platypus", flow.Params().Query)
	assert.Equal(t, []institution.Institution{instPlaid}, flow.Results())
}

func TestManager_GetRehydratesLinkedFlow(t *testing.T) {
	repo := connectmock.NewInMemRepository(connectmock.WithParams("flow-2", connect.Params{
		Step:         connect.StepAccount,
		Provider:     connect.ProviderTeller,
		Token:        "tok-1",
		EnrollmentID: "enr-1",
		CountryCode:  "US",
	}))
	manager := connect.NewManager(repo, institutionmock.NewInMemDirectory(), provider.NewRegistry(), usagemock.NewReporter())

	flow, err := manager.Get(t.Context(), "flow-2")
	require.NoError(t, err)
	assert.Equal(t, connect.StateLinked, flow.State())
}

func TestManager_Close(t *testing.T) {
	repo := connectmock.NewInMemRepository()
	manager := connect.NewManager(repo, institutionmock.NewInMemDirectory(), provider.NewRegistry(), usagemock.NewReporter())

	flow, err := manager.Open(t.Context(), "US")
	require.NoError(t, err)

	require.NoError(t, manager.Close(t.Context(), flow.ID))

	assert.Equal(t, connect.StateClosed, flow.State())

	_, err = repo.LoadParams(t.Context(), flow.ID)
	assert.ErrorIs(t, err, serviceerr.ErrNotFound)

	_, err = manager.Get(t.Context(), flow.ID)
	assert.ErrorIs(t, err, serviceerr.ErrNotFound)
}

func TestManager_Resolve(t *testing.T) {
	repo := connectmock.NewInMemRepository()
	directory := institutionmock.NewInMemDirectory(institutionmock.WithInstitutions(instPlaid))
	adapter := providermock.NewAdapter(providermock.WithLinkToken("link-abc"))
	reporter := usagemock.NewReporter()
	manager := connect.NewManager(repo, directory, provider.NewRegistry(adapter), reporter)

	flow, err := manager.Open(t.Context(), "US")
	require.NoError(t, err)

	_, err = flow.Select(t.Context(), instPlaid)
	require.NoError(t, err)

	err = manager.Resolve(t.Context(), flow.ID, connect.Outcome{
		Event: connect.OutcomeSuccess,
		Token: "tok-1",
	})
	require.NoError(t, err)

	assert.Equal(t, connect.StateLinked, flow.State())

	// The linked params are mirrored so a shared link reproduces the
	// linked flow.
	assert.Eventually(t, func() bool {
		stored, err := repo.LoadParams(t.Context(), flow.ID)
		return err == nil && stored.Token == "tok-1" && stored.Step == connect.StepAccount
	}, time.Second, 5*time.Millisecond)
}

func TestManager_ResolveExit(t *testing.T) {
	directory := institutionmock.NewInMemDirectory(institutionmock.WithInstitutions(instPlaid))
	adapter := providermock.NewAdapter(providermock.WithLinkToken("link-abc"))
	manager := connect.NewManager(connectmock.NewInMemRepository(), directory, provider.NewRegistry(adapter), usagemock.NewReporter())

	flow, err := manager.Open(t.Context(), "US")
	require.NoError(t, err)

	_, err = flow.Select(t.Context(), instPlaid)
	require.NoError(t, err)

	require.NoError(t, manager.Resolve(t.Context(), flow.ID, connect.Outcome{Event: connect.OutcomeExit}))
	assert.Equal(t, connect.StateSearching, flow.State())
}

func TestManager_ResolveWithoutAttempt(t *testing.T) {
	manager := connect.NewManager(connectmock.NewInMemRepository(), institutionmock.NewInMemDirectory(), provider.NewRegistry(), usagemock.NewReporter())

	flow, err := manager.Open(t.Context(), "US")
	require.NoError(t, err)

	err = manager.Resolve(t.Context(), flow.ID, connect.Outcome{Event: connect.OutcomeSuccess})
	assert.ErrorIs(t, err, serviceerr.ErrNotFound)
}

func TestManager_ResolveUnknownEvent(t *testing.T) {
	directory := institutionmock.NewInMemDirectory(institutionmock.WithInstitutions(instPlaid))
	adapter := providermock.NewAdapter(providermock.WithLinkToken("link-abc"))
	manager := connect.NewManager(connectmock.NewInMemRepository(), directory, provider.NewRegistry(adapter), usagemock.NewReporter())

	flow, err := manager.Open(t.Context(), "US")
	require.NoError(t, err)

	_, err = flow.Select(t.Context(), instPlaid)
	require.NoError(t, err)

	err = manager.Resolve(t.Context(), flow.ID, connect.Outcome{Event: "retry"})
	assert.ErrorContains(t, err, "unrecognized outcome event")
}
