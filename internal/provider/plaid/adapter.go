// Package plaid adapts the Plaid Link lifecycle to the provider
// contract. Plaid needs a link token provisioned before its widget can
// open, and on success hands back a public token that must still be
// exchanged for the access token before the flow can be linked.
package plaid

import (
	"context"
	"fmt"

	slogctx "github.com/veqryn/slog-context"

	"github.com/openfin/connect-manager/internal/linktoken"
	"github.com/openfin/connect-manager/internal/provider"
)

const providerName = "plaid"

type Adapter struct {
	provisioner linktoken.Provisioner
	client      *Client
}

var _ = provider.Adapter(&Adapter{})

func NewAdapter(provisioner linktoken.Provisioner, client *Client) *Adapter {
	return &Adapter{
		provisioner: provisioner,
		client:      client,
	}
}

func (a *Adapter) Provider() string     { return providerName }
func (a *Adapter) Available() bool      { return true }
func (a *Adapter) NeedsLinkToken() bool { return true }

func (a *Adapter) Provision(ctx context.Context, _ provider.Selection) (string, error) {
	token, err := a.provisioner.Provision(ctx)
	if err != nil {
		return "", fmt.Errorf("provisioning link token: %w", err)
	}

	return token, nil
}

func (a *Adapter) Launch(_ context.Context, sel provider.Selection, credential string, cb provider.Callbacks) provider.Session {
	return &session{
		adapter:   a,
		selection: sel,
		linkToken: credential,
		cb:        cb.Guarded(),
	}
}

type session struct {
	adapter   *Adapter
	selection provider.Selection
	linkToken string
	cb        provider.Callbacks
}

func (s *session) Widget() provider.Widget {
	return provider.Widget{
		Provider:  providerName,
		LinkToken: s.linkToken,
	}
}

// Success receives the public token from Plaid Link and exchanges it
// before reporting the authorization. A failed exchange is a launch
// failure: the user authorized, but no usable credential exists.
func (s *session) Success(ctx context.Context, auth provider.Authorization) {
	accessToken, err := s.adapter.client.ExchangePublicToken(ctx, auth.Token)
	if err != nil {
		slogctx.Error(ctx, "Failed to exchange the public token", "institution_id", s.selection.InstitutionID, "error", err)
		s.cb.OnFailure(err)

		return
	}

	institutionID := auth.InstitutionID
	if institutionID == "" {
		institutionID = s.selection.InstitutionID
	}

	s.cb.OnSuccess(provider.Authorization{
		Token:         accessToken,
		InstitutionID: institutionID,
	})
}

func (s *session) Exit() {
	s.cb.OnExit()
}

func (s *session) Fail(err error) {
	s.cb.OnFailure(err)
}
