package templating

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/actinia-org/actinia-gdi/internal/ir"
	"github.com/actinia-org/actinia-gdi/internal/store"
)

// Analysis lists the variables a template declares.
type Analysis struct {
	// Declared holds every free variable in order of first appearance.
	Declared []string
	// Filtered holds the declared variables that carry a default at every
	// occurrence. They never need a binding.
	Filtered []string
}

// IsFiltered reports whether name is covered by a default everywhere.
func (a Analysis) IsFiltered(name string) bool {
	for _, f := range a.Filtered {
		if f == name {
			return true
		}
	}
	return false
}

// Required returns the declared variables that must be bound, in order.
func (a Analysis) Required() []string {
	out := []string{}
	for _, name := range a.Declared {
		if !a.IsFiltered(name) {
			out = append(out, name)
		}
	}
	return out
}

func analyze(segments []segment) Analysis {
	a := Analysis{Declared: []string{}, Filtered: []string{}}
	total := map[string]int{}
	withDefault := map[string]int{}
	for _, seg := range segments {
		for _, name := range seg.vars {
			if total[name] == 0 {
				a.Declared = append(a.Declared, name)
			}
			total[name]++
			if seg.defaulted[name] {
				withDefault[name]++
			}
		}
	}
	for _, name := range a.Declared {
		if withDefault[name] == total[name] {
			a.Filtered = append(a.Filtered, name)
		}
	}
	return a
}

// AnalyzeSource reports the declared and filtered variables of source.
func AnalyzeSource(source []byte) (Analysis, error) {
	segments, err := scan(source)
	if err != nil {
		return Analysis{}, err
	}
	return analyze(segments), nil
}

// RenderSource substitutes bindings into source. Substituted text is JSON
// string escaped, so bindings may contain quotes or backslashes.
func RenderSource(source []byte, bindings map[string]string) ([]byte, error) {
	segments, err := scan(source)
	if err != nil {
		return nil, err
	}
	return splice(source, segments, func(seg segment) (string, error) {
		return seg.evaluate(bindings)
	})
}

// DiscoverSource renders source with every non-filtered variable bound to
// its own placeholder. Segments that only reference filtered variables
// evaluate to their defaults.
func DiscoverSource(source []byte) ([]byte, Analysis, error) {
	segments, err := scan(source)
	if err != nil {
		return nil, Analysis{}, err
	}
	a := analyze(segments)
	out, err := splice(source, segments, func(seg segment) (string, error) {
		var placeholders bytes.Buffer
		for _, name := range seg.vars {
			if !a.IsFiltered(name) {
				placeholders.WriteString(ir.Placeholder(name))
			}
		}
		if placeholders.Len() > 0 {
			return placeholders.String(), nil
		}
		return seg.evaluate(nil)
	})
	if err != nil {
		return nil, Analysis{}, err
	}
	return out, a, nil
}

func splice(source []byte, segments []segment, render func(segment) (string, error)) ([]byte, error) {
	var buf bytes.Buffer
	buf.Grow(len(source))
	last := 0
	for _, seg := range segments {
		buf.Write(source[last:seg.start])
		text, err := render(seg)
		if err != nil {
			return nil, &ExpressionError{Expression: seg.code, Err: err}
		}
		buf.WriteString(ir.EscapeJSONString(text))
		last = seg.end
	}
	buf.Write(source[last:])
	return buf.Bytes(), nil
}

// Renderer renders templates held in a store.
type Renderer struct {
	store store.Reader
}

// NewRenderer returns a renderer reading template sources from r.
func NewRenderer(r store.Reader) *Renderer {
	return &Renderer{store: r}
}

func (r *Renderer) source(ctx context.Context, name string) ([]byte, error) {
	rec, err := r.store.Get(ctx, name)
	if err != nil {
		return nil, err
	}
	return rec.Source, nil
}

// Analyze reports the variables declared by the named template.
func (r *Renderer) Analyze(ctx context.Context, name string) (Analysis, error) {
	src, err := r.source(ctx, name)
	if err != nil {
		return Analysis{}, err
	}
	a, err := AnalyzeSource(src)
	return a, withTemplate(name, err)
}

// Render fills the named template with bindings and decodes the result.
func (r *Renderer) Render(ctx context.Context, name string, bindings map[string]string) (*ir.Template, error) {
	src, err := r.source(ctx, name)
	if err != nil {
		return nil, err
	}
	out, err := RenderSource(src, bindings)
	if err != nil {
		return nil, withTemplate(name, err)
	}
	return decode(name, out)
}

// Discover renders the named template in placeholder form and decodes it.
func (r *Renderer) Discover(ctx context.Context, name string) (*ir.Template, Analysis, error) {
	out, a, err := r.DiscoverJSON(ctx, name)
	if err != nil {
		return nil, Analysis{}, err
	}
	tpl, err := decode(name, out)
	if err != nil {
		return nil, Analysis{}, err
	}
	return tpl, a, nil
}

// DiscoverJSON is Discover without decoding, for schema validation.
func (r *Renderer) DiscoverJSON(ctx context.Context, name string) ([]byte, Analysis, error) {
	src, err := r.source(ctx, name)
	if err != nil {
		return nil, Analysis{}, err
	}
	out, a, err := DiscoverSource(src)
	if err != nil {
		return nil, Analysis{}, withTemplate(name, err)
	}
	return out, a, nil
}

func decode(name string, data []byte) (*ir.Template, error) {
	var tpl ir.Template
	if err := json.Unmarshal(data, &tpl); err != nil {
		return nil, &DecodeError{Template: name, Err: err}
	}
	if tpl.ID == "" {
		return nil, &DecodeError{Template: name, Err: fmt.Errorf("missing id")}
	}
	return &tpl, nil
}

func withTemplate(name string, err error) error {
	if e, ok := err.(*ExpressionError); ok && e.Template == "" {
		e.Template = name
	}
	return err
}
