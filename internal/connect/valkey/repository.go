// Package connectvalkey stores flow params in ValKey so a flow can be
// picked up by any instance behind the load balancer. Entries carry a
// session TTL and the value is the flat shareable encoding of the
// params, the same form the frontend mirrors into its location.
package connectvalkey

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/valkey-io/valkey-go"

	"github.com/openfin/connect-manager/internal/connect"
	"github.com/openfin/connect-manager/internal/serviceerr"
)

const defaultTTL = 12 * time.Hour

type Repository struct {
	valkey valkey.Client
	prefix string
	ttl    time.Duration
}

type RepositoryOption func(*Repository)

func WithTTL(ttl time.Duration) RepositoryOption {
	return func(r *Repository) { r.ttl = ttl }
}

var _ = connect.Repository(&Repository{})

func NewRepository(valkeyClient valkey.Client, prefix string, opts ...RepositoryOption) *Repository {
	prefix = strings.TrimSuffix(prefix, ":")

	r := &Repository{
		valkey: valkeyClient,
		prefix: prefix,
		ttl:    defaultTTL,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}

	return r
}

func (r *Repository) LoadParams(ctx context.Context, flowID string) (connect.Params, error) {
	encoded, err := r.valkey.Do(ctx, r.valkey.B().Get().Key(r.key(flowID)).Build()).ToString()
	if err != nil {
		valkeyErr, ok := valkey.IsValkeyErr(err)
		if ok && valkeyErr.IsNil() {
			return connect.Params{}, errors.Join(valkeyErr, serviceerr.ErrNotFound)
		}

		return connect.Params{}, fmt.Errorf("executing get command: %w", err)
	}

	values, err := url.ParseQuery(encoded)
	if err != nil {
		return connect.Params{}, fmt.Errorf("decoding flow params: %w", err)
	}

	return connect.ParamsFromValues(values), nil
}

func (r *Repository) StoreParams(ctx context.Context, flowID string, params connect.Params) error {
	cmd := r.valkey.B().Set().
		Key(r.key(flowID)).
		Value(params.Values().Encode()).
		Ex(r.ttl).
		Build()

	if err := r.valkey.Do(ctx, cmd).Error(); err != nil {
		return fmt.Errorf("executing set command: %w", err)
	}

	return nil
}

func (r *Repository) DeleteParams(ctx context.Context, flowID string) error {
	if err := r.valkey.Do(ctx, r.valkey.B().Del().Key(r.key(flowID)).Build()).Error(); err != nil {
		return fmt.Errorf("executing del command: %w", err)
	}

	return nil
}

func (r *Repository) key(flowID string) string {
	return fmt.Sprintf("%s:flow:%s", r.prefix, flowID)
}
