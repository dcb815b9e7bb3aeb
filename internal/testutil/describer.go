package testutil

import (
	"context"
	"fmt"
	"sync"

	"github.com/actinia-org/actinia-gdi/internal/describe"
	"github.com/actinia-org/actinia-gdi/internal/ir"
)

// Describer matches engine.Describer without importing the engine.
type Describer interface {
	Describe(ctx context.Context, req describe.Request) (*ir.Module, error)
}

// RecordingDescriber wraps a Describer and records every request.
//
// Thread-safety: all methods are safe for concurrent use.
type RecordingDescriber struct {
	inner Describer

	mu       sync.Mutex
	requests []describe.Request
}

// NewRecordingDescriber wraps inner.
func NewRecordingDescriber(inner Describer) *RecordingDescriber {
	return &RecordingDescriber{inner: inner}
}

// Describe records req and delegates.
func (d *RecordingDescriber) Describe(ctx context.Context, req describe.Request) (*ir.Module, error) {
	d.mu.Lock()
	d.requests = append(d.requests, req)
	d.mu.Unlock()
	return d.inner.Describe(ctx, req)
}

// Requests returns a copy of the recorded requests in call order.
func (d *RecordingDescriber) Requests() []describe.Request {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]describe.Request(nil), d.requests...)
}

// Modules returns the requested module names in call order.
func (d *RecordingDescriber) Modules() []string {
	reqs := d.Requests()
	out := make([]string, len(reqs))
	for i, r := range reqs {
		out[i] = r.Module
	}
	return out
}

// FixtureDescriber returns a describe.Service reading the bundled dumps,
// with the embedded importer and exporter overrides.
func FixtureDescriber() *describe.Service {
	return describe.NewService(describe.DirSource{Dir: InterfaceDir()})
}

// FailingDescriber fails for the listed modules and delegates otherwise.
type FailingDescriber struct {
	Inner Describer
	Fail  map[string]error
}

// Describe returns the configured error for req.Module, if any.
func (d FailingDescriber) Describe(ctx context.Context, req describe.Request) (*ir.Module, error) {
	if err, ok := d.Fail[req.Module]; ok {
		if err == nil {
			err = fmt.Errorf("%w: %s", describe.ErrExecutionFailed, req.Module)
		}
		return nil, err
	}
	return d.Inner.Describe(ctx, req)
}
