package connect

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/openfin/connect-manager/internal/institution"
	"github.com/openfin/connect-manager/internal/provider"
	"github.com/openfin/connect-manager/internal/serviceerr"
	"github.com/openfin/connect-manager/internal/usage"
)

// Manager tracks the live flows of this process and rebuilds a flow
// from the repository after a reload, so a flow survives as long as
// its shareable params do.
type Manager struct {
	repo      Repository
	directory institution.Directory
	adapters  *provider.Registry
	usage     usage.Reporter

	mu    sync.Mutex
	flows map[string]*Flow
}

// Flow is one live linking flow.
type Flow struct {
	ID string
	*Controller
}

func NewManager(repo Repository, directory institution.Directory, adapters *provider.Registry, reporter usage.Reporter) *Manager {
	return &Manager{
		repo:      repo,
		directory: directory,
		adapters:  adapters,
		usage:     reporter,
		flows:     make(map[string]*Flow),
	}
}

func (m *Manager) newFlow(ctx context.Context, id string, params Params) *Flow {
	store := NewStoreWith(params)

	// Every observable write is mirrored into the repository so the
	// flow can be reconstructed from its encoded params alone.
	persistCtx := context.WithoutCancel(ctx)
	store.Subscribe(func(p Params) {
		// Persistence is best-effort; the in-process flow stays
		// authoritative if the mirror write fails.
		_ = m.repo.StoreParams(persistCtx, id, p)
	})

	return &Flow{
		ID:         id,
		Controller: NewController(store, m.directory, m.adapters, m.usage),
	}
}

// Open creates a flow with the given initial country filter and runs
// the initial search.
func (m *Manager) Open(ctx context.Context, countryCode string) (*Flow, error) {
	id := uuid.NewString()
	flow := m.newFlow(ctx, id, Params{CountryCode: countryCode})

	if err := m.repo.StoreParams(ctx, id, flow.Params()); err != nil {
		return nil, fmt.Errorf("storing flow params: %w", err)
	}

	m.mu.Lock()
	m.flows[id] = flow
	m.mu.Unlock()

	flow.Open(ctx)

	return flow, nil
}

// Get returns a live flow, rehydrating it from the repository when the
// process no longer holds it.
func (m *Manager) Get(ctx context.Context, flowID string) (*Flow, error) {
	m.mu.Lock()
	flow, ok := m.flows[flowID]
	m.mu.Unlock()
	if ok {
		return flow, nil
	}

	params, err := m.repo.LoadParams(ctx, flowID)
	if err != nil {
		return nil, fmt.Errorf("loading flow params: %w", err)
	}

	flow = m.newFlow(ctx, flowID, params)
	flow.Resume(ctx)

	m.mu.Lock()
	// A concurrent Get may have rehydrated the same flow; keep the
	// first one so there is a single controller per flow.
	if existing, ok := m.flows[flowID]; ok {
		flow = existing
	} else {
		m.flows[flowID] = flow
	}
	m.mu.Unlock()

	return flow, nil
}

// Close closes the flow and discards its persisted params.
func (m *Manager) Close(ctx context.Context, flowID string) error {
	flow, err := m.Get(ctx, flowID)
	if err != nil {
		return err
	}

	flow.Close(ctx)

	m.mu.Lock()
	delete(m.flows, flowID)
	m.mu.Unlock()

	if err := m.repo.DeleteParams(ctx, flowID); err != nil {
		return fmt.Errorf("deleting flow params: %w", err)
	}

	return nil
}

// Resolve routes an externally delivered SDK outcome to the flow's
// outstanding authorization attempt.
func (m *Manager) Resolve(ctx context.Context, flowID string, outcome Outcome) error {
	flow, err := m.Get(ctx, flowID)
	if err != nil {
		return err
	}

	session, ok := flow.Session()
	if !ok {
		return serviceerr.ErrNotFound
	}

	switch outcome.Event {
	case OutcomeSuccess:
		session.Success(ctx, provider.Authorization{
			Token:         outcome.Token,
			EnrollmentID:  outcome.EnrollmentID,
			InstitutionID: outcome.InstitutionID,
		})
	case OutcomeExit:
		session.Exit()
	case OutcomeFailure:
		session.Fail(fmt.Errorf("provider reported failure: %s", outcome.Reason))
	default:
		return fmt.Errorf("unrecognized outcome event: %q", outcome.Event)
	}

	return nil
}

// Outcome is an SDK result relayed from the embedding frontend.
type Outcome struct {
	Event         string
	Token         string
	EnrollmentID  string
	InstitutionID string
	Reason        string
}

const (
	OutcomeSuccess = "success"
	OutcomeExit    = "exit"
	OutcomeFailure = "failure"
)
