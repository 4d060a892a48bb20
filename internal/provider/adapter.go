// Package provider defines the uniform contract the flow controller
// uses to drive one aggregator's embedded-SDK lifecycle, and the
// dispatch table that selects an adapter by provider name. Adding an
// aggregator means adding one Adapter implementation; the controller's
// transition logic never changes.
package provider

import "context"

// Selection identifies what the user picked in the search results.
type Selection struct {
	InstitutionID string
	CountryCode   string
}

// Authorization is the artifact a provider hands back when the user
// completes its authorization surface. For Plaid-style providers Token
// is a public token still to be exchanged; for Teller-style providers
// it is the access token itself, accompanied by an enrollment ID.
type Authorization struct {
	Token         string
	EnrollmentID  string
	InstitutionID string
}

// Callbacks receive the outcome of one launch. An adapter fires exactly
// one of them, at most once per launch.
type Callbacks struct {
	OnSuccess func(Authorization)
	OnExit    func()
	OnFailure func(error)
}

// Widget describes the embedded surface the frontend should present.
// Fields are provider-specific; zero values mean the provider has no
// surface of that kind.
type Widget struct {
	Provider  string
	URL       string
	LinkToken string
}

// Session is one live launch of a provider's authorization surface.
// The outcome methods route external SDK events to the callbacks given
// at launch; after the first outcome all further ones are dropped.
type Session interface {
	Widget() Widget
	Success(ctx context.Context, auth Authorization)
	Exit()
	Fail(err error)
}

// Adapter wraps one aggregator's SDK lifecycle.
type Adapter interface {
	// Provider returns the dispatch tag, e.g. "plaid".
	Provider() string

	// Available reports whether the adapter offers a launch path. A
	// recognized but unavailable adapter is a deliberate placeholder:
	// selecting its institutions is a no-op, not an error.
	Available() bool

	// NeedsLinkToken reports whether a credential must be provisioned
	// before Launch.
	NeedsLinkToken() bool

	// Provision obtains the ephemeral credential required by Launch.
	// Only called when NeedsLinkToken is true; a fresh credential is
	// obtained for every attempt, never cached across attempts.
	Provision(ctx context.Context, sel Selection) (string, error)

	// Launch opens the provider's authorization surface and returns the
	// session that will deliver its outcome. Launch may internally
	// delay the actual open by a settle interval; that delay is an
	// adapter detail and never visible to the caller.
	Launch(ctx context.Context, sel Selection, credential string, cb Callbacks) Session
}
