package describe

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/actinia-org/actinia-gdi/internal/ir"
)

// Service resolves module names to descriptions: raw source, parser, then
// curated overrides.
type Service struct {
	source    Source
	overrides *Overrides
	logger    zerolog.Logger
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithOverrides replaces the default (embedded only) override chain.
func WithOverrides(o *Overrides) ServiceOption {
	return func(s *Service) {
		s.overrides = o
	}
}

// WithLogger sets the service logger.
func WithLogger(logger zerolog.Logger) ServiceOption {
	return func(s *Service) {
		s.logger = logger
	}
}

// NewService returns a service reading raw descriptions from source.
func NewService(source Source, opts ...ServiceOption) *Service {
	s := &Service{
		source:    source,
		overrides: NewOverrides(""),
		logger:    zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Describe returns the description of req.Module.
//
// When the engine does not know the module but a standalone override
// exists, the override alone describes it.
func (s *Service) Describe(ctx context.Context, req Request) (*ir.Module, error) {
	s.logger.Debug().Str("module", req.Module).Str("batch", req.BatchKey).Msg("describe")

	ov, found, err := s.overrides.Lookup(req.Module)
	if err != nil {
		return nil, err
	}

	raw, err := s.source.Fetch(ctx, req)
	if err != nil {
		if errors.Is(err, ErrModuleNotFound) && found && ov.Standalone() {
			s.logger.Debug().Str("module", req.Module).Msg("described by override only")
			return ov.Module(), nil
		}
		return nil, err
	}

	m, err := ParseInterfaceDescription(raw)
	if err != nil {
		return nil, err
	}
	if found {
		m = ov.Apply(m)
	}
	return m, nil
}

// Refresh drops any cached description of module. It is a no-op for
// sources without a cache.
func (s *Service) Refresh(ctx context.Context, module string) error {
	inv, ok := s.source.(Invalidator)
	if !ok {
		return nil
	}
	s.logger.Debug().Str("module", module).Msg("refresh cached description")
	return inv.Invalidate(ctx, module)
}

// ListModules enumerates engine modules when the source supports it.
func (s *Service) ListModules(ctx context.Context) ([]ir.Module, error) {
	lister, ok := s.source.(Lister)
	if !ok {
		return nil, ErrListingUnsupported
	}
	return lister.ListModules(ctx)
}
