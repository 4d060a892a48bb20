package connect

import "net/url"

// Recognized keys of the shareable params encoding. An absent key means
// the field is unset, which keeps the encoded form embeddable in a
// location reference without noise.
const (
	keyStep          = "step"
	keyProvider      = "provider"
	keyInstitutionID = "institution_id"
	keyToken         = "token"
	keyEnrollmentID  = "enrollment_id"
	keyCountryCode   = "countryCode"
	keyQuery         = "q"
)

// Values encodes the params as a flat key/value mapping. Empty fields
// are omitted.
func (p Params) Values() url.Values {
	v := url.Values{}
	set := func(key, val string) {
		if val != "" {
			v.Set(key, val)
		}
	}

	set(keyStep, string(p.Step))
	set(keyProvider, string(p.Provider))
	set(keyInstitutionID, p.InstitutionID)
	set(keyToken, p.Token)
	set(keyEnrollmentID, p.EnrollmentID)
	set(keyCountryCode, p.CountryCode)
	set(keyQuery, p.Query)

	return v
}

// ParamsFromValues decodes params from their flat key/value encoding.
// Unrecognized step or provider values are treated as unset rather than
// failing, so a stale or foreign link degrades to a closed flow.
func ParamsFromValues(v url.Values) Params {
	p := Params{
		InstitutionID: v.Get(keyInstitutionID),
		Token:         v.Get(keyToken),
		EnrollmentID:  v.Get(keyEnrollmentID),
		CountryCode:   v.Get(keyCountryCode),
		Query:         v.Get(keyQuery),
	}

	switch step := Step(v.Get(keyStep)); step {
	case StepConnect, StepAccount:
		p.Step = step
	}

	switch provider := Provider(v.Get(keyProvider)); provider {
	case ProviderPlaid, ProviderTeller, ProviderGoCardless:
		p.Provider = provider
	}

	return p
}
