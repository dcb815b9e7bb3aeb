package engine

import (
	"context"

	"github.com/actinia-org/actinia-gdi/internal/ir"
	"github.com/actinia-org/actinia-gdi/internal/templating"
)

// Synthesize derives the self-description of the stored template name: one
// parameter or return per exposed placeholder, with descriptors taken from
// the underlying modules (or nested templates) the placeholders feed.
//
// Any resolution failure aborts the whole synthesis.
func (e *Engine) Synthesize(ctx context.Context, name string) (*ir.Module, error) {
	stack, err := templateStack(nil).push(name, e.maxDepth)
	if err != nil {
		return nil, err
	}
	r := newResolution(e.ids.Generate(), name, stack)
	e.logger.Debug().Str("resolution", r.id).Str("template", name).Msg("synthesize")

	m, _, err := e.synthesize(ctx, r)
	return m, err
}

func (e *Engine) synthesize(ctx context.Context, r *resolution) (*ir.Module, templating.Analysis, error) {
	tpl, analysis, err := e.renderer.Discover(ctx, r.template)
	if err != nil {
		return nil, templating.Analysis{}, wrapTemplateErr(r.template, err)
	}
	if err := e.collect(ctx, r, tpl); err != nil {
		return nil, templating.Analysis{}, err
	}
	params, returns, err := e.transform(ctx, r)
	if err != nil {
		return nil, templating.Analysis{}, err
	}

	return &ir.Module{
		ID:          tpl.ID,
		Description: tpl.Description,
		Categories:  []string{ir.CategoryActiniaModule},
		Parameters:  params,
		Returns:     returns,
	}, analysis, nil
}
