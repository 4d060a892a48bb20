package usagemock

import (
	"context"
	"sync"

	"github.com/openfin/connect-manager/internal/usage"
)

// Reporter records reported institution IDs for tests.
type Reporter struct {
	mu       sync.Mutex
	reported []string
}

var _ = usage.Reporter(&Reporter{})

func NewReporter() *Reporter {
	return &Reporter{}
}

func (r *Reporter) Report(_ context.Context, institutionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reported = append(r.reported, institutionID)
}

// Reported returns a copy of all institution IDs reported so far.
func (r *Reporter) Reported() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]string, len(r.reported))
	copy(out, r.reported)

	return out
}
