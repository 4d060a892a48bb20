// Package gocardless reserves the dispatch slot for GoCardless-sourced
// institutions. The adapter is recognized but offers no launch path
// yet, so selecting one of its institutions leaves the flow searching
// instead of crashing it.
package gocardless

import (
	"context"

	"github.com/openfin/connect-manager/internal/provider"
)

const providerName = "gocardless"

type Adapter struct{}

var _ = provider.Adapter(Adapter{})

func NewAdapter() Adapter {
	return Adapter{}
}

func (Adapter) Provider() string     { return providerName }
func (Adapter) Available() bool      { return false }
func (Adapter) NeedsLinkToken() bool { return false }

func (Adapter) Provision(_ context.Context, _ provider.Selection) (string, error) {
	return "", nil
}

func (Adapter) Launch(_ context.Context, _ provider.Selection, _ string, _ provider.Callbacks) provider.Session {
	return nil
}
