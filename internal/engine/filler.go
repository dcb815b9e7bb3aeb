package engine

import (
	"context"
	"fmt"

	"github.com/actinia-org/actinia-gdi/internal/ir"
)

// Bindings builds the variable binding map of a fill request. Each item
// binds param to value; the keys of its import_descr/exporter side maps bind
// to their values. An item without param, or two items binding the same
// variable to different values, make the request invalid.
func Bindings(template string, items []ir.Item) (map[string]string, error) {
	bindings := make(map[string]string, len(items))
	bind := func(name, value string) error {
		if prev, ok := bindings[name]; ok && prev != value {
			return &InvalidRequestError{
				Template: template,
				Reason:   fmt.Sprintf("conflicting values for '%s'", name),
			}
		}
		bindings[name] = value
		return nil
	}

	for i, it := range items {
		if it.Param == "" {
			return nil, &InvalidRequestError{
				Template: template,
				Reason:   fmt.Sprintf("item %d has no param", i),
			}
		}
		if err := bind(it.Param, it.Value); err != nil {
			return nil, err
		}
		for _, side := range []map[string]string{it.ImportDescr, it.Exporter} {
			for _, k := range ir.SortedKeys(side) {
				if err := bind(k, side[k]); err != nil {
					return nil, err
				}
			}
		}
	}
	return bindings, nil
}

// Fill renders the stored template name with the supplied items and returns
// the concrete steps. Every declared variable that is neither bound nor
// defaulted yields a MissingParameterError; nothing is partially rendered.
// Template steps inside the result are expanded recursively.
func (e *Engine) Fill(ctx context.Context, name string, items []ir.Item) ([]ir.Step, error) {
	stack, err := templateStack(nil).push(name, e.maxDepth)
	if err != nil {
		return nil, err
	}
	return e.fill(ctx, name, items, stack)
}

func (e *Engine) fill(ctx context.Context, name string, items []ir.Item, stack templateStack) ([]ir.Step, error) {
	bindings, err := Bindings(name, items)
	if err != nil {
		return nil, err
	}

	analysis, err := e.renderer.Analyze(ctx, name)
	if err != nil {
		return nil, wrapTemplateErr(name, err)
	}
	var missing []string
	for _, v := range analysis.Required() {
		if _, ok := bindings[v]; !ok {
			missing = append(missing, v)
		}
	}
	if len(missing) > 0 {
		return nil, &MissingParameterError{Template: name, Name: missing[0], All: missing}
	}

	tpl, err := e.renderer.Render(ctx, name, bindings)
	if err != nil {
		return nil, wrapTemplateErr(name, err)
	}
	e.logger.Debug().Str("template", name).Int("depth", stack.depth()).Int("steps", len(tpl.Template.List)).Msg("filled template")

	return e.expandSteps(ctx, tpl.Template.List, stack)
}
