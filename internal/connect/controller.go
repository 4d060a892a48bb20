// Package connect implements the bank-connection flow: the shared
// params record, its store, and the controller that reconciles the
// search surface, the provider adapters, and the backend collaborators
// into one consistent state machine.
package connect

import (
	"context"
	"errors"
	"fmt"
	"sync"

	slogctx "github.com/veqryn/slog-context"

	"github.com/openfin/connect-manager/internal/institution"
	"github.com/openfin/connect-manager/internal/provider"
	"github.com/openfin/connect-manager/internal/serviceerr"
	"github.com/openfin/connect-manager/internal/usage"
)

// State is the controller's position in the linking flow.
type State int

const (
	StateClosed State = iota
	StateSearching
	StateProvisioning
	StateAwaitingAuthorization
	StateLinked
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateSearching:
		return "searching"
	case StateProvisioning:
		return "provisioning"
	case StateAwaitingAuthorization:
		return "awaiting-authorization"
	case StateLinked:
		return "linked"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// SearchKey identifies one directory search. Responses carrying a
// superseded key are discarded, which removes the race between
// overlapping searches without cancelling the in-flight call.
type SearchKey struct {
	CountryCode string
	Query       string
}

// Input carries user edits of the search filters. A nil field means
// the filter did not change.
type Input struct {
	CountryCode *string
	Query       *string
}

// Controller owns all transition logic of one linking flow. Events are
// serialized under a single mutex; operations that suspend (searching,
// provisioning, launching) run outside of it and revalidate the state
// and attempt generation before applying their result, so a stale
// result from a superseded request can never move the flow.
type Controller struct {
	store     *Store
	directory institution.Directory
	adapters  *provider.Registry
	usage     usage.Reporter

	mu        sync.Mutex
	state     State
	searchKey SearchKey
	results   []institution.Institution
	// fetched tracks whether results were loaded at all and for which
	// country, to decide if reopening the flow needs a refetch.
	fetched        bool
	fetchedCountry string
	session        provider.Session
	gen            uint64
}

func NewController(store *Store, directory institution.Directory, adapters *provider.Registry, reporter usage.Reporter) *Controller {
	return &Controller{
		store:     store,
		directory: directory,
		adapters:  adapters,
		usage:     reporter,
	}
}

// State returns the controller's current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.state
}

// Params returns a snapshot of the flow params.
func (c *Controller) Params() Params {
	return c.store.Read()
}

// Results returns the currently displayed search results.
func (c *Controller) Results() []institution.Institution {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]institution.Institution, len(c.results))
	copy(out, c.results)

	return out
}

// Session returns the live provider session of the outstanding
// authorization attempt, if any.
func (c *Controller) Session() (provider.Session, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.session, c.session != nil
}

// Open transitions a closed flow to searching and runs the initial
// search with the current country and query. Reopening an already open
// flow refetches only when there are no results yet or the country
// changed since they were fetched.
func (c *Controller) Open(ctx context.Context) {
	c.mu.Lock()
	if c.state == StateClosed {
		c.state = StateSearching
	}
	params := c.store.Read()
	refetch := !c.fetched || len(c.results) == 0 || c.fetchedCountry != params.CountryCode
	c.mu.Unlock()

	c.store.Write(Patch{Step: Set(StepConnect)})

	if refetch {
		c.search(ctx, SearchKey{CountryCode: params.CountryCode, Query: params.Query})
	}
}

// Resume reconstructs the controller position from params decoded out
// of a shareable location reference.
func (c *Controller) Resume(ctx context.Context) {
	params := c.store.Read()

	if params.Step == StepAccount && params.Provider != ProviderNone && (params.Token != "" || params.EnrollmentID != "") {
		c.mu.Lock()
		c.state = StateLinked
		c.mu.Unlock()

		return
	}

	// A tampered or truncated encoding degrades to the search surface.
	if params.Step != StepNone {
		c.Open(ctx)
	}
}

// ApplyInput handles user edits of the search filters. A country
// change and a query change arriving together issue the country search
// first; the query search issued afterwards determines the displayed
// results (last write wins).
func (c *Controller) ApplyInput(ctx context.Context, in Input) {
	if in.CountryCode != nil {
		c.store.Write(Patch{CountryCode: in.CountryCode})
	}
	if in.Query != nil {
		c.store.Write(Patch{Query: in.Query})
	}

	if !c.isOpen() {
		// Searching while the surface is closed is wasted work.
		return
	}

	if in.CountryCode != nil {
		c.search(ctx, SearchKey{CountryCode: *in.CountryCode})
	}
	if in.Query != nil {
		c.search(ctx, SearchKey{CountryCode: c.store.Read().CountryCode, Query: *in.Query})
	}
}

func (c *Controller) isOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.state != StateClosed
}

// search runs one directory search under the given key. A failed
// search is rendered as zero results, never as an error.
func (c *Controller) search(ctx context.Context, key SearchKey) {
	c.mu.Lock()
	if c.state == StateClosed {
		c.mu.Unlock()
		return
	}
	c.searchKey = key
	c.mu.Unlock()

	results, err := c.directory.Search(ctx, key.CountryCode, key.Query)
	if err != nil {
		slogctx.Debug(ctx, "Directory search failed, showing empty results",
			"country_code", key.CountryCode, "query", key.Query, "error", err)
		results = nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == StateClosed || c.searchKey != key {
		// The key was superseded while the call was in flight.
		return
	}

	c.results = results
	c.fetched = true
	c.fetchedCountry = key.CountryCode
}

// Select starts an authorization attempt for the chosen institution.
// At most one attempt may be outstanding: a selection made while a
// previous attempt is provisioning or awaiting authorization is
// rejected with ErrFlowBusy and does not start a second launch. An
// institution whose provider has no launch path is a silent no-op.
func (c *Controller) Select(ctx context.Context, inst institution.Institution) (provider.Widget, error) {
	c.mu.Lock()
	switch c.state {
	case StateClosed, StateLinked:
		c.mu.Unlock()
		return provider.Widget{}, serviceerr.ErrFlowClosed
	case StateProvisioning, StateAwaitingAuthorization:
		c.mu.Unlock()
		slogctx.Debug(ctx, "Ignoring selection while an attempt is outstanding", "institution_id", inst.ID)

		return provider.Widget{}, serviceerr.ErrFlowBusy
	}

	adapter, ok := c.adapters.Get(inst.Provider)
	if !ok || !adapter.Available() {
		c.mu.Unlock()
		slogctx.Debug(ctx, "No launch path for provider", "provider", inst.Provider, "institution_id", inst.ID)

		return provider.Widget{}, nil
	}

	c.gen++
	gen := c.gen
	if adapter.NeedsLinkToken() {
		c.state = StateProvisioning
	} else {
		c.state = StateAwaitingAuthorization
	}
	c.mu.Unlock()

	sel := provider.Selection{
		InstitutionID: inst.ID,
		CountryCode:   inst.CountryCode,
	}

	var credential string
	if adapter.NeedsLinkToken() {
		token, err := adapter.Provision(ctx, sel)

		c.mu.Lock()
		if c.gen != gen || c.state != StateProvisioning {
			c.mu.Unlock()
			// The flow moved on while provisioning; the token is dropped.
			return provider.Widget{}, nil
		}
		if err != nil {
			c.state = StateSearching
			c.mu.Unlock()
			slogctx.Warn(ctx, "Link token provisioning failed",
				"provider", inst.Provider, "institution_id", inst.ID, "error", err)

			return provider.Widget{}, fmt.Errorf("%w: %w", serviceerr.ErrProvisioning, err)
		}
		c.state = StateAwaitingAuthorization
		c.mu.Unlock()

		credential = token
	}

	// Callbacks may fire long after the triggering request is gone.
	cbCtx := context.WithoutCancel(ctx)
	session := adapter.Launch(ctx, sel, credential, provider.Callbacks{
		OnSuccess: func(auth provider.Authorization) {
			c.completeAttempt(cbCtx, gen, Provider(inst.Provider), auth)
		},
		OnExit: func() {
			c.abandonAttempt(cbCtx, gen, inst.Provider, nil)
		},
		OnFailure: func(err error) {
			c.abandonAttempt(cbCtx, gen, inst.Provider, err)
		},
	})

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.gen != gen || c.state != StateAwaitingAuthorization {
		// Closed, or an outcome already fired during launch.
		return provider.Widget{}, nil
	}
	c.session = session

	if session == nil {
		// Defensive: adapters reporting Available should launch.
		c.state = StateSearching
		return provider.Widget{}, nil
	}

	return session.Widget(), nil
}

// completeAttempt handles the adapter success callback: params are
// written first, then the usage report is sent without blocking or
// gating on its result.
func (c *Controller) completeAttempt(ctx context.Context, gen uint64, prov Provider, auth provider.Authorization) {
	if auth.Token == "" && auth.EnrollmentID == "" {
		// A linked flow must carry the credential the provider issued;
		// a bare success is treated as a failed attempt.
		c.abandonAttempt(ctx, gen, string(prov), errors.New("success outcome carried no credential"))
		return
	}

	c.mu.Lock()
	if c.gen != gen || c.state != StateAwaitingAuthorization {
		c.mu.Unlock()
		return
	}
	c.state = StateLinked
	c.session = nil
	c.mu.Unlock()

	patch := Patch{
		Step:     Set(StepAccount),
		Provider: Set(prov),
		Token:    Set(auth.Token),
	}
	if auth.InstitutionID != "" {
		patch.InstitutionID = Set(auth.InstitutionID)
	}
	if auth.EnrollmentID != "" {
		patch.EnrollmentID = Set(auth.EnrollmentID)
	}
	c.store.Write(patch)

	slogctx.Info(ctx, "Bank authorization succeeded", "provider", prov, "institution_id", auth.InstitutionID)

	go c.usage.Report(ctx, auth.InstitutionID)
}

// abandonAttempt handles the adapter exit and failure callbacks, which
// are identical in flow effect: credential fields are cleared and the
// flow stays open on the search surface. A nil err is a user exit.
func (c *Controller) abandonAttempt(ctx context.Context, gen uint64, providerName string, err error) {
	c.mu.Lock()
	if c.gen != gen || (c.state != StateAwaitingAuthorization && c.state != StateProvisioning) {
		c.mu.Unlock()
		return
	}
	c.state = StateSearching
	c.session = nil
	c.mu.Unlock()

	c.store.Write(Patch{
		Step:          Set(StepConnect),
		Provider:      Set(ProviderNone),
		InstitutionID: Set(""),
		Token:         Set(""),
		EnrollmentID:  Set(""),
	})

	if err != nil {
		slogctx.Warn(ctx, "Bank authorization failed", "provider", providerName, "error", err)
	} else {
		slogctx.Debug(ctx, "Bank authorization cancelled by user", "provider", providerName)
	}
}

// Close moves the flow to closed from any state and clears all
// transient fields. In-flight searches, provisioning calls, and
// authorization attempts are not cancelled; their eventual results are
// stranded by the bumped generation and the reset search key.
func (c *Controller) Close(ctx context.Context) {
	c.mu.Lock()
	c.state = StateClosed
	c.gen++
	c.session = nil
	c.searchKey = SearchKey{}
	c.results = nil
	c.fetched = false
	c.fetchedCountry = ""
	c.mu.Unlock()

	c.store.Reset()

	slogctx.Debug(ctx, "Connect flow closed")
}
