package serviceerr_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/openfin/connect-manager/internal/serviceerr"
)

func TestSentinelMessages(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		expectedMsg string
	}{
		{name: "ErrConflict", err: serviceerr.ErrConflict, expectedMsg: "already exists"},
		{name: "ErrNotFound", err: serviceerr.ErrNotFound, expectedMsg: "not found"},
		{name: "ErrFlowClosed", err: serviceerr.ErrFlowClosed, expectedMsg: "flow closed"},
		{name: "ErrFlowBusy", err: serviceerr.ErrFlowBusy, expectedMsg: "authorization attempt already in progress"},
		{name: "ErrUnknownProvider", err: serviceerr.ErrUnknownProvider, expectedMsg: "unknown provider"},
		{name: "ErrProvisioning", err: serviceerr.ErrProvisioning, expectedMsg: "link token provisioning failed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.EqualError(t, tt.err, tt.expectedMsg)
		})
	}
}

func TestSentinelWrapping(t *testing.T) {
	wrapped := fmt.Errorf("%w: %w", serviceerr.ErrProvisioning, assert.AnError)

	assert.ErrorIs(t, wrapped, serviceerr.ErrProvisioning)
	assert.ErrorIs(t, wrapped, assert.AnError)
	assert.NotErrorIs(t, wrapped, serviceerr.ErrNotFound)
}
