package engine

import (
	"context"
	"fmt"

	"github.com/actinia-org/actinia-gdi/internal/ir"
)

// collect walks the discovery rendering of a template top to bottom and
// records every placeholder occurrence in r.
//
// Three step shapes are handled:
//   - exe steps: placeholders in params become bare string entries.
//   - template steps (module names a stored template): the nested template
//     is synthesized with a child resolution; placeholders in the step's
//     items are bound to the nested template's variables.
//   - engine module steps: placeholders in input/output values and in the
//     import_descr/exporter side maps; the module is queued for description
//     only if at least one item carried a placeholder.
func (e *Engine) collect(ctx context.Context, r *resolution, tpl *ir.Template) error {
	for i, step := range tpl.Template.List {
		stepID := step.ID
		if stepID == "" {
			stepID = fmt.Sprintf("#%d", i+1)
		}

		switch {
		case step.Exe != "":
			collectExe(r, stepID, step)
		case step.Module == "":
			return &TemplateRenderError{
				Template: r.template,
				Err:      fmt.Errorf("step %s has neither module nor exe", stepID),
			}
		default:
			isTpl, err := e.isTemplate(ctx, step.Module)
			if err != nil {
				return err
			}
			if isTpl {
				if err := e.collectNested(ctx, r, stepID, step); err != nil {
					return err
				}
				continue
			}
			collectModule(r, stepID, step)
		}
	}
	return nil
}

func collectExe(r *resolution, stepID string, step ir.Step) {
	for i, p := range step.Params {
		r.record(kindExe, stepID, fmt.Sprintf("params[%d]", i), step.Exe, p, "", nil)
	}
}

func collectModule(r *resolution, stepID string, step ir.Step) {
	used := false
	for _, it := range step.Items() {
		if r.record(kindModule, stepID, it.Param, step.Module, it.Value, it.Comment, it.Enum) {
			used = true
		}
		for _, k := range ir.SortedKeys(it.ImportDescr) {
			if r.record(kindImport, stepID, k, step.Module, it.ImportDescr[k], "", nil) {
				used = true
			}
		}
		for _, k := range ir.SortedKeys(it.Exporter) {
			if r.record(kindExport, stepID, k, step.Module, it.Exporter[k], "", nil) {
				used = true
			}
		}
	}
	if used {
		r.require(step.Module, stepID)
	}
}

// collectNested synthesizes the nested template once per level and binds
// the step's placeholders to its variables.
func (e *Engine) collectNested(ctx context.Context, r *resolution, stepID string, step ir.Step) error {
	if _, ok := r.nested[step.Module]; !ok {
		child, err := r.child(step.Module, e.maxDepth)
		if err != nil {
			return err
		}
		e.logger.Debug().
			Str("resolution", r.id).
			Str("template", r.template).
			Str("nested", step.Module).
			Int("depth", child.stack.depth()).
			Msg("resolve nested template")

		mod, analysis, err := e.synthesize(ctx, child)
		if err != nil {
			return err
		}
		r.nested[step.Module] = &nestedModule{module: mod, analysis: analysis}
	}

	for _, it := range step.Items() {
		r.record(kindNested, stepID, it.Param, step.Module, it.Value, it.Comment, it.Enum)
	}
	return nil
}
