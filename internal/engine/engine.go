package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/actinia-org/actinia-gdi/internal/describe"
	"github.com/actinia-org/actinia-gdi/internal/ir"
	"github.com/actinia-org/actinia-gdi/internal/store"
	"github.com/actinia-org/actinia-gdi/internal/templating"
)

// DefaultMaxDepth is the default maximum template nesting depth.
// A top-level template counts as depth 1.
const DefaultMaxDepth = 16

// Describer returns the interface description of an engine module.
// Implemented by *describe.Service.
type Describer interface {
	Describe(ctx context.Context, req describe.Request) (*ir.Module, error)
}

// ModuleLister enumerates engine modules. A Describer that also implements
// ModuleLister enables List(ctx, true).
type ModuleLister interface {
	ListModules(ctx context.Context) ([]ir.Module, error)
}

// Engine synthesizes virtual module descriptions from stored templates and
// fills templates into concrete process-chain steps.
//
// The engine holds no per-request state: every top-level call builds its own
// resolution context, so an Engine is safe for concurrent use as long as
// its store and describer are.
type Engine struct {
	templates store.Reader
	renderer  *templating.Renderer
	describer Describer
	ids       IDGenerator
	maxDepth  int
	logger    zerolog.Logger
}

// EngineOption allows configuration of engine parameters.
type EngineOption func(*Engine)

// WithMaxDepth sets the maximum template nesting depth.
//
// Default: 16 (DefaultMaxDepth). A value <= 0 leaves only the cycle guard.
func WithMaxDepth(depth int) EngineOption {
	return func(e *Engine) {
		e.maxDepth = depth
	}
}

// WithIDGenerator replaces the UUIDv7 resolution id generator.
func WithIDGenerator(ids IDGenerator) EngineOption {
	return func(e *Engine) {
		e.ids = ids
	}
}

// WithLogger sets the engine logger. Resolution ids, describe batch keys and
// nested template recursion are logged at debug level.
func WithLogger(logger zerolog.Logger) EngineOption {
	return func(e *Engine) {
		e.logger = logger
	}
}

// New creates an Engine reading templates from templates and describing
// engine modules through describer.
func New(templates store.Reader, describer Describer, opts ...EngineOption) *Engine {
	e := &Engine{
		templates: templates,
		renderer:  templating.NewRenderer(templates),
		describer: describer,
		ids:       UUIDv7Generator{},
		maxDepth:  DefaultMaxDepth,
		logger:    zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// isTemplate reports whether name refers to a stored template. Names the
// store rejects as invalid (e.g. containing path separators) are never
// templates.
func (e *Engine) isTemplate(ctx context.Context, name string) (bool, error) {
	_, err := e.templates.Get(ctx, name)
	switch {
	case err == nil:
		return true, nil
	case store.IsNotFound(err), errors.Is(err, store.ErrInvalidName):
		return false, nil
	default:
		return false, fmt.Errorf("look up template %q: %w", name, err)
	}
}

// Describe returns the description of name: a synthesized virtual module
// when name is a stored template, otherwise the engine module description.
func (e *Engine) Describe(ctx context.Context, name string) (*ir.Module, error) {
	isTpl, err := e.isTemplate(ctx, name)
	if err != nil {
		return nil, err
	}
	if isTpl {
		return e.Synthesize(ctx, name)
	}

	id := e.ids.Generate()
	req := describe.Request{Module: name, BatchKey: batchKey(id, 1)}
	e.logger.Debug().Str("module", name).Str("batch", req.BatchKey).Msg("describe engine module")

	m, err := e.describer.Describe(ctx, req)
	if err != nil {
		return nil, &InterfaceResolutionError{Module: name, Err: err}
	}
	return m, nil
}

// List returns module summaries. Templates are always listed (as
// actinia-module, skipping names containing "example"); engine modules are
// prepended when includeEngine is set and the describer can enumerate them.
//
// A template that fails to render is logged and skipped so one broken
// template does not hide the rest.
func (e *Engine) List(ctx context.Context, includeEngine bool) ([]ir.Module, error) {
	out := []ir.Module{}

	if includeEngine {
		lister, ok := e.describer.(ModuleLister)
		if !ok {
			return nil, describe.ErrListingUnsupported
		}
		mods, err := lister.ListModules(ctx)
		if err != nil {
			return nil, fmt.Errorf("list engine modules: %w", err)
		}
		out = append(out, mods...)
	}

	names, err := e.templates.Names(ctx)
	if err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}
	for _, name := range names {
		if strings.Contains(name, "example") {
			continue
		}
		tpl, _, err := e.renderer.Discover(ctx, name)
		if err != nil {
			e.logger.Warn().Err(err).Str("template", name).Msg("skipping template in listing")
			continue
		}
		out = append(out, ir.Module{
			ID:          tpl.ID,
			Description: tpl.Description,
			Categories:  []string{ir.CategoryActiniaModule},
			Parameters:  []ir.Parameter{},
			Returns:     []ir.Parameter{},
		})
	}
	return out, nil
}

// wrapTemplateErr classifies renderer failures. Not-found passes through
// (it already wraps ErrTemplateNotFound); everything else is a render error.
func wrapTemplateErr(name string, err error) error {
	if store.IsNotFound(err) {
		return err
	}
	if templating.IsExpressionError(err) || templating.IsDecodeError(err) {
		return &TemplateRenderError{Template: name, Err: err}
	}
	return fmt.Errorf("template %q: %w", name, err)
}

func batchKey(id string, seq int64) string {
	return fmt.Sprintf("%s/%d", id, seq)
}
