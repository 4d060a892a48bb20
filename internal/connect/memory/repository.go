// Package connectmemory keeps flow params in process memory, for
// single-instance deployments that do not run ValKey. Flows then only
// survive as long as the process, which is still within the session
// scope the subsystem promises.
package connectmemory

import (
	"context"
	"sync"

	"github.com/openfin/connect-manager/internal/connect"
	"github.com/openfin/connect-manager/internal/serviceerr"
)

type Repository struct {
	mu     sync.RWMutex
	params map[string]connect.Params
}

var _ = connect.Repository(&Repository{})

func NewRepository() *Repository {
	return &Repository{
		params: make(map[string]connect.Params),
	}
}

func (r *Repository) LoadParams(_ context.Context, flowID string) (connect.Params, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if params, ok := r.params[flowID]; ok {
		return params, nil
	}

	return connect.Params{}, serviceerr.ErrNotFound
}

func (r *Repository) StoreParams(_ context.Context, flowID string, params connect.Params) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.params[flowID] = params

	return nil
}

func (r *Repository) DeleteParams(_ context.Context, flowID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.params[flowID]; !ok {
		return serviceerr.ErrNotFound
	}
	delete(r.params, flowID)

	return nil
}
