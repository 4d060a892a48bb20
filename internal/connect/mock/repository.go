package connectmock

import (
	"context"
	"sync"

	"github.com/openfin/connect-manager/internal/connect"
	"github.com/openfin/connect-manager/internal/serviceerr"
)

type RepositoryOption func(*Repository)

// Repository is an in-memory flow-params repository for tests.
type Repository struct {
	mu     sync.Mutex
	params map[string]connect.Params

	loadErr, storeErr, deleteErr error
}

func WithParams(flowID string, params connect.Params) RepositoryOption {
	return func(r *Repository) { r.params[flowID] = params }
}

func WithLoadError(err error) RepositoryOption {
	return func(r *Repository) { r.loadErr = err }
}

func WithStoreError(err error) RepositoryOption {
	return func(r *Repository) { r.storeErr = err }
}

func WithDeleteError(err error) RepositoryOption {
	return func(r *Repository) { r.deleteErr = err }
}

var _ = connect.Repository(&Repository{})

func NewInMemRepository(opts ...RepositoryOption) *Repository {
	r := &Repository{
		params: make(map[string]connect.Params),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}

	return r
}

func (r *Repository) LoadParams(_ context.Context, flowID string) (connect.Params, error) {
	if r.loadErr != nil {
		return connect.Params{}, r.loadErr
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if params, ok := r.params[flowID]; ok {
		return params, nil
	}

	return connect.Params{}, serviceerr.ErrNotFound
}

func (r *Repository) StoreParams(_ context.Context, flowID string, params connect.Params) error {
	if r.storeErr != nil {
		return r.storeErr
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.params[flowID] = params

	return nil
}

func (r *Repository) DeleteParams(_ context.Context, flowID string) error {
	if r.deleteErr != nil {
		return r.deleteErr
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.params[flowID]; !ok {
		return serviceerr.ErrNotFound
	}
	delete(r.params, flowID)

	return nil
}
