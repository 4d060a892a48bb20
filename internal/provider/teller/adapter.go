// Package teller adapts Teller Connect to the provider contract.
// Teller launches without a pre-issued token; it is configured per
// institution, and reconfiguring the widget shows a blank frame for a
// moment, so the open is deferred by a short settle interval. That
// delay is entirely internal to this adapter.
package teller

import (
	"context"
	"net/url"
	"time"

	slogctx "github.com/veqryn/slog-context"

	"github.com/openfin/connect-manager/internal/provider"
)

const (
	providerName = "teller"

	connectBaseURL = "https://connect.teller.io/"

	// defaultSettleDelay masks the blank frame Teller Connect shows
	// right after being reconfigured for an institution.
	defaultSettleDelay = time.Second
)

type Adapter struct {
	applicationID string
	environment   string
	settleDelay   time.Duration
}

type AdapterOption func(*Adapter)

func WithSettleDelay(d time.Duration) AdapterOption {
	return func(a *Adapter) { a.settleDelay = d }
}

var _ = provider.Adapter(&Adapter{})

func NewAdapter(applicationID, environment string, opts ...AdapterOption) *Adapter {
	a := &Adapter{
		applicationID: applicationID,
		environment:   environment,
		settleDelay:   defaultSettleDelay,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(a)
		}
	}

	return a
}

func (a *Adapter) Provider() string     { return providerName }
func (a *Adapter) Available() bool      { return true }
func (a *Adapter) NeedsLinkToken() bool { return false }

func (a *Adapter) Provision(_ context.Context, _ provider.Selection) (string, error) {
	return "", nil
}

func (a *Adapter) Launch(ctx context.Context, sel provider.Selection, _ string, cb provider.Callbacks) provider.Session {
	s := &session{
		adapter:   a,
		selection: sel,
		cb:        cb.Guarded(),
	}

	s.settle = time.AfterFunc(a.settleDelay, func() {
		slogctx.Debug(ctx, "Teller Connect settled", "institution_id", sel.InstitutionID)
	})

	return s
}

type session struct {
	adapter   *Adapter
	selection provider.Selection
	cb        provider.Callbacks
	settle    *time.Timer
}

func (s *session) Widget() provider.Widget {
	q := url.Values{}
	q.Set("applicationId", s.adapter.applicationID)
	q.Set("environment", s.adapter.environment)
	q.Set("institution", s.selection.InstitutionID)

	return provider.Widget{
		Provider: providerName,
		URL:      connectBaseURL + "?" + q.Encode(),
	}
}

func (s *session) Success(_ context.Context, auth provider.Authorization) {
	s.settle.Stop()

	institutionID := auth.InstitutionID
	if institutionID == "" {
		institutionID = s.selection.InstitutionID
	}

	s.cb.OnSuccess(provider.Authorization{
		Token:         auth.Token,
		EnrollmentID:  auth.EnrollmentID,
		InstitutionID: institutionID,
	})
}

func (s *session) Exit() {
	s.settle.Stop()
	s.cb.OnExit()
}

func (s *session) Fail(err error) {
	s.settle.Stop()
	s.cb.OnFailure(err)
}
