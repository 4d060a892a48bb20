package connect

// Step identifies which surface of the linking flow is visible.
type Step string

const (
	// StepNone means the flow is closed.
	StepNone    Step = ""
	StepConnect Step = "connect"
	StepAccount Step = "account"
)

// Provider names a supported financial-data aggregator.
type Provider string

const (
	ProviderNone       Provider = ""
	ProviderPlaid      Provider = "plaid"
	ProviderTeller     Provider = "teller"
	ProviderGoCardless Provider = "gocardless"
)

// Params is the shared state record for one in-progress linking flow.
//
// Provider and Token/EnrollmentID are set together or not at all, and
// Step == StepAccount implies both a provider and its credential are
// present. The Controller is the only writer of the credential fields.
type Params struct {
	Step          Step
	Provider      Provider
	InstitutionID string
	CountryCode   string
	Query         string
	Token         string
	EnrollmentID  string
}

// Patch is a partial update of Params. A nil field is left untouched,
// a pointer to the zero value clears the field.
type Patch struct {
	Step          *Step
	Provider      *Provider
	InstitutionID *string
	CountryCode   *string
	Query         *string
	Token         *string
	EnrollmentID  *string
}

// Set returns a pointer to v, for building patches.
func Set[T any](v T) *T {
	return &v
}

// IsZero reports whether the patch carries no fields.
func (p Patch) IsZero() bool {
	return p.Step == nil &&
		p.Provider == nil &&
		p.InstitutionID == nil &&
		p.CountryCode == nil &&
		p.Query == nil &&
		p.Token == nil &&
		p.EnrollmentID == nil
}

func (p Patch) apply(params Params) Params {
	if p.Step != nil {
		params.Step = *p.Step
	}
	if p.Provider != nil {
		params.Provider = *p.Provider
	}
	if p.InstitutionID != nil {
		params.InstitutionID = *p.InstitutionID
	}
	if p.CountryCode != nil {
		params.CountryCode = *p.CountryCode
	}
	if p.Query != nil {
		params.Query = *p.Query
	}
	if p.Token != nil {
		params.Token = *p.Token
	}
	if p.EnrollmentID != nil {
		params.EnrollmentID = *p.EnrollmentID
	}

	return params
}
