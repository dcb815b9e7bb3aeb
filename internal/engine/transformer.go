package engine

import (
	"context"
	"fmt"
	"strings"

	"github.com/actinia-org/actinia-gdi/internal/describe"
	"github.com/actinia-org/actinia-gdi/internal/ir"
)

// describePending describes every queued module not yet described in this
// top-level resolution, in queue order. A failure aborts the synthesis.
func (e *Engine) describePending(ctx context.Context, r *resolution) error {
	for _, module := range r.pending {
		if _, ok := r.described[module]; ok {
			continue
		}
		req := describe.Request{Module: module, BatchKey: batchKey(r.id, r.clock.Next())}
		e.logger.Debug().
			Str("resolution", r.id).
			Str("template", r.template).
			Str("module", module).
			Str("batch", req.BatchKey).
			Msg("describe module")

		m, err := e.describer.Describe(ctx, req)
		if err != nil {
			return &InterfaceResolutionError{
				Template: r.template,
				StepID:   r.pendingStep[module],
				Module:   module,
				Err:      err,
			}
		}
		r.described[module] = m
	}
	return nil
}

// transform turns the collected entries into the virtual module's
// parameters and returns, in first-discovery order. An exposed name is
// emitted once; later entries with the same name are dropped.
func (e *Engine) transform(ctx context.Context, r *resolution) (params, returns []ir.Parameter, err error) {
	if err := e.describePending(ctx, r); err != nil {
		return nil, nil, err
	}

	params, returns = []ir.Parameter{}, []ir.Parameter{}
	emitted := make(map[string]bool, len(r.entries))
	for _, en := range r.entries {
		if emitted[en.name] {
			continue
		}
		p, isReturn, err := r.resolve(en)
		if err != nil {
			return nil, nil, err
		}
		emitted[en.name] = true
		if isReturn {
			returns = append(returns, p)
		} else {
			params = append(params, p)
		}
	}
	return params, returns, nil
}

// resolve derives the exposed descriptor of one entry.
func (r *resolution) resolve(en entry) (ir.Parameter, bool, error) {
	switch en.kind {
	case kindExe:
		return ir.Parameter{
			Name:        en.name,
			Description: fmt.Sprintf("%s parameter of executable %s", en.name, en.module),
			Optional:    false,
			Schema:      ir.ParameterSchema{Type: ir.TypeString},
		}, false, nil

	case kindNested:
		nm := r.nested[en.module]
		src, isReturn, ok := nm.module.Lookup(en.key.Param)
		if !ok {
			if nm.analysis.IsFiltered(en.key.Param) {
				return ir.Parameter{
					Name:        en.name,
					Description: fmt.Sprintf("%s parameter of template %s", en.key.Param, en.module),
					Optional:    true,
					Schema:      ir.ParameterSchema{Type: ir.TypeString},
				}, false, nil
			}
			return ir.Parameter{}, false, r.unresolved(en, "nested template does not expose this parameter")
		}
		return annotate(src, en, false), isReturn, nil
	}

	m := r.described[en.module]
	switch en.kind {
	case kindImport:
		src, ok := m.LookupImport(en.key.Param)
		if !ok {
			return ir.Parameter{}, false, r.unresolved(en, "module declares no such import_descr key")
		}
		return annotate(src, en, true), false, nil
	case kindExport:
		src, ok := m.LookupExport(en.key.Param)
		if !ok {
			return ir.Parameter{}, false, r.unresolved(en, "module declares no such export key")
		}
		return annotate(src, en, true), true, nil
	default:
		src, isReturn, ok := m.Lookup(en.key.Param)
		if !ok {
			return ir.Parameter{}, false, r.unresolved(en, "module declares no such parameter")
		}
		return annotate(src, en, true), isReturn, nil
	}
}

func (r *resolution) unresolved(en entry, reason string) error {
	return &UnresolvedPlaceholderError{
		Template:    r.template,
		Placeholder: en.name,
		Module:      en.module,
		Param:       en.key.Param,
		Reason:      reason,
	}
}

// annotate copies src under the placeholder name. With provenance set the
// description gains " [generated from <module>.<param>]"; a step comment is
// appended as " - <comment>". Neither suffix is added twice. A step enum
// replaces the schema enum.
func annotate(src ir.Parameter, en entry, provenance bool) ir.Parameter {
	p := src.Clone()
	p.Name = en.name

	if provenance {
		suffix := fmt.Sprintf(" [generated from %s.%s]", en.module, en.key.Param)
		if !strings.Contains(p.Description, suffix) {
			p.Description += suffix
		}
	}
	if en.comment != "" {
		suffix := " - " + en.comment
		if !strings.Contains(p.Description, suffix) {
			p.Description += suffix
		}
	}
	if len(en.enum) > 0 {
		p.Schema.Enum = append([]string(nil), en.enum...)
	}
	return p
}
