package engine

import (
	"github.com/actinia-org/actinia-gdi/internal/ir"
	"github.com/actinia-org/actinia-gdi/internal/templating"
)

// entryKind says where an entry's descriptor comes from.
type entryKind int

const (
	// kindModule: a parameter or return of a described engine module.
	kindModule entryKind = iota
	// kindImport: a key of an item's import_descr side map.
	kindImport
	// kindExport: a key of an item's exporter side map.
	kindExport
	// kindExe: a placeholder in the params of a raw executable step.
	kindExe
	// kindNested: a placeholder bound to a nested template's variable.
	kindNested
)

// entry is one placeholder occurrence recorded by the collector.
type entry struct {
	kind    entryKind
	key     ir.StepParamKey
	module  string // engine module, executable or nested template name
	name    string // exposed placeholder name
	comment string
	enum    []string
}

// nestedModule is the synthesized description of a nested template together
// with its variable analysis (to recognize filtered variables).
type nestedModule struct {
	module   *ir.Module
	analysis templating.Analysis
}

// resolution is the per-call bookkeeping of one template synthesis.
//
// A fresh resolution is created for every template level. The clock and the
// described-module cache are shared across the whole nested tree so batch
// keys stay unique and each engine module is described at most once per
// top-level call. Everything else is owned by the level.
type resolution struct {
	id       string
	template string
	stack    templateStack

	clock     *Clock
	described map[string]*ir.Module

	seen    map[string]bool
	index   map[ir.StepParamKey]bool
	entries []entry

	pending     []string
	pendingStep map[string]string

	nested map[string]*nestedModule
}

func newResolution(id, template string, stack templateStack) *resolution {
	return &resolution{
		id:          id,
		template:    template,
		stack:       stack,
		clock:       NewClock(),
		described:   make(map[string]*ir.Module),
		seen:        make(map[string]bool),
		index:       make(map[ir.StepParamKey]bool),
		pendingStep: make(map[string]string),
		nested:      make(map[string]*nestedModule),
	}
}

// child returns the resolution for a nested template one level down.
func (r *resolution) child(template string, maxDepth int) (*resolution, error) {
	stack, err := r.stack.push(template, maxDepth)
	if err != nil {
		return nil, err
	}
	c := newResolution(r.id, template, stack)
	c.clock = r.clock
	c.described = r.described
	return c, nil
}

// record registers every placeholder of value under (stepID, param).
// It returns false when value carries no placeholder or was already seen in
// this template. A value with several placeholders gets one entry per
// placeholder, keyed additionally by the placeholder name.
func (r *resolution) record(kind entryKind, stepID, param, module, value, comment string, enum []string) bool {
	if !ir.HasPlaceholder(value) || r.seen[value] {
		return false
	}
	r.seen[value] = true
	names := ir.Placeholders(value)

	multi := len(names) > 1
	for _, name := range names {
		key := ir.StepParamKey{StepID: stepID, Param: param}
		if multi {
			key.Placeholder = name
		}
		if r.index[key] {
			continue
		}
		r.index[key] = true
		r.entries = append(r.entries, entry{
			kind:    kind,
			key:     key,
			module:  module,
			name:    name,
			comment: comment,
			enum:    enum,
		})
	}
	return true
}

// require queues module for description, remembering the first step that needed it.
func (r *resolution) require(module, stepID string) {
	if _, ok := r.pendingStep[module]; ok {
		return
	}
	r.pendingStep[module] = stepID
	r.pending = append(r.pending, module)
}
