package connect

import "context"

// Repository persists the shareable params of live flows, keyed by
// flow ID. Entries live only as long as the user's session; this is
// the server-side twin of the location state the frontend mirrors, not
// durable storage.
type Repository interface {
	LoadParams(ctx context.Context, flowID string) (Params, error)
	StoreParams(ctx context.Context, flowID string, params Params) error
	DeleteParams(ctx context.Context, flowID string) error
}
