package providermock

import (
	"context"
	"sync"

	"github.com/openfin/connect-manager/internal/provider"
)

type AdapterOption func(*Adapter)

// Adapter is a scripted provider adapter for controller tests. Launched
// sessions are recorded so tests can drive the outcome callbacks at
// whatever moment the scenario needs.
type Adapter struct {
	name           string
	available      bool
	needsLinkToken bool
	provisionToken string
	provisionErr   error

	mu        sync.Mutex
	provision int
	sessions  []*Session
}

func WithName(name string) AdapterOption {
	return func(a *Adapter) { a.name = name }
}

func WithLinkToken(token string) AdapterOption {
	return func(a *Adapter) {
		a.needsLinkToken = true
		a.provisionToken = token
	}
}

func WithProvisionError(err error) AdapterOption {
	return func(a *Adapter) {
		a.needsLinkToken = true
		a.provisionErr = err
	}
}

func WithUnavailable() AdapterOption {
	return func(a *Adapter) { a.available = false }
}

var _ = provider.Adapter(&Adapter{})

func NewAdapter(opts ...AdapterOption) *Adapter {
	a := &Adapter{
		name:      "plaid",
		available: true,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(a)
		}
	}

	return a
}

func (a *Adapter) Provider() string     { return a.name }
func (a *Adapter) Available() bool      { return a.available }
func (a *Adapter) NeedsLinkToken() bool { return a.needsLinkToken }

func (a *Adapter) Provision(_ context.Context, _ provider.Selection) (string, error) {
	a.mu.Lock()
	a.provision++
	a.mu.Unlock()

	if a.provisionErr != nil {
		return "", a.provisionErr
	}

	return a.provisionToken, nil
}

func (a *Adapter) Launch(_ context.Context, sel provider.Selection, credential string, cb provider.Callbacks) provider.Session {
	s := &Session{
		Provider:   a.name,
		Selection:  sel,
		Credential: credential,
		cb:         cb.Guarded(),
	}

	a.mu.Lock()
	a.sessions = append(a.sessions, s)
	a.mu.Unlock()

	return s
}

// Provisions returns how many times Provision was called.
func (a *Adapter) Provisions() int {
	a.mu.Lock()
	defer a.mu.Unlock()

	return a.provision
}

// Launches returns all sessions created so far.
func (a *Adapter) Launches() []*Session {
	a.mu.Lock()
	defer a.mu.Unlock()

	out := make([]*Session, len(a.sessions))
	copy(out, a.sessions)

	return out
}

// LastSession returns the most recently launched session, or nil.
func (a *Adapter) LastSession() *Session {
	a.mu.Lock()
	defer a.mu.Unlock()

	if len(a.sessions) == 0 {
		return nil
	}

	return a.sessions[len(a.sessions)-1]
}

type Session struct {
	Provider   string
	Selection  provider.Selection
	Credential string
	cb         provider.Callbacks
}

var _ = provider.Session(&Session{})

func (s *Session) Widget() provider.Widget {
	return provider.Widget{Provider: s.Provider, LinkToken: s.Credential}
}

func (s *Session) Success(_ context.Context, auth provider.Authorization) {
	if auth.InstitutionID == "" {
		auth.InstitutionID = s.Selection.InstitutionID
	}
	s.cb.OnSuccess(auth)
}

func (s *Session) Exit() {
	s.cb.OnExit()
}

func (s *Session) Fail(err error) {
	s.cb.OnFailure(err)
}
