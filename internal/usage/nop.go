package usage

import "context"

// NopReporter drops every report, for deployments without a
// popularity ranking downstream.
type NopReporter struct{}

var _ = Reporter(NopReporter{})

func (NopReporter) Report(_ context.Context, _ string) {}
