package institution

import "context"

// Directory searches the institution catalogue for a country and an
// optional free-text query. Implementations may fail; callers must
// treat a failed search as zero results, never as a fatal error.
// Debouncing of the query input is the caller's concern.
type Directory interface {
	Search(ctx context.Context, countryCode, query string) ([]Institution, error)
}
