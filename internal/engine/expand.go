package engine

import (
	"context"

	"github.com/actinia-org/actinia-gdi/internal/ir"
)

// Expand replaces every step of pc whose module names a stored template with
// the template's filled steps, using the step's inputs and outputs as the
// fill request. Engine module, importer/exporter and exe steps pass through
// unchanged. The version defaults to ir.ProcessChainVersion.
func (e *Engine) Expand(ctx context.Context, pc ir.ProcessChain) (ir.ProcessChain, error) {
	steps, err := e.expandSteps(ctx, pc.List, nil)
	if err != nil {
		return ir.ProcessChain{}, err
	}
	version := pc.Version
	if version == "" {
		version = ir.ProcessChainVersion
	}
	return ir.ProcessChain{Version: version, List: steps}, nil
}

func (e *Engine) expandSteps(ctx context.Context, steps []ir.Step, stack templateStack) ([]ir.Step, error) {
	out := make([]ir.Step, 0, len(steps))
	for _, step := range steps {
		if step.Module == "" {
			out = append(out, step)
			continue
		}
		isTpl, err := e.isTemplate(ctx, step.Module)
		if err != nil {
			return nil, err
		}
		if !isTpl {
			out = append(out, step)
			continue
		}

		next, err := stack.push(step.Module, e.maxDepth)
		if err != nil {
			return nil, err
		}
		filled, err := e.fill(ctx, step.Module, step.Items(), next)
		if err != nil {
			return nil, err
		}
		out = append(out, filled...)
	}
	return out, nil
}
