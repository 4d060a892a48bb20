package institutionmock

import (
	"context"
	"strings"

	"github.com/openfin/connect-manager/internal/institution"
)

type DirectoryOption func(*Directory)

// Directory is an in-memory institution directory for tests.
type Directory struct {
	institutions []institution.Institution
	searchErr    error
	searchFunc   func(ctx context.Context, countryCode, query string) ([]institution.Institution, error)
}

func WithInstitutions(institutions ...institution.Institution) DirectoryOption {
	return func(d *Directory) { d.institutions = append(d.institutions, institutions...) }
}

func WithSearchError(err error) DirectoryOption {
	return func(d *Directory) { d.searchErr = err }
}

// WithSearchFunc replaces the search implementation entirely, for tests
// that need to block or observe in-flight searches.
func WithSearchFunc(fn func(ctx context.Context, countryCode, query string) ([]institution.Institution, error)) DirectoryOption {
	return func(d *Directory) { d.searchFunc = fn }
}

var _ = institution.Directory(&Directory{})

func NewInMemDirectory(opts ...DirectoryOption) *Directory {
	d := &Directory{}
	for _, opt := range opts {
		if opt != nil {
			opt(d)
		}
	}

	return d
}

func (d *Directory) Search(ctx context.Context, countryCode, query string) ([]institution.Institution, error) {
	if d.searchFunc != nil {
		return d.searchFunc(ctx, countryCode, query)
	}
	if d.searchErr != nil {
		return nil, d.searchErr
	}

	var results []institution.Institution
	for _, inst := range d.institutions {
		if inst.CountryCode != countryCode {
			continue
		}
		if query != "" && !strings.Contains(strings.ToLower(inst.Name), strings.ToLower(query)) {
			continue
		}
		results = append(results, inst)
	}

	return results, nil
}
