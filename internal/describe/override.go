package describe

import (
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/spf13/cast"

	"github.com/actinia-org/actinia-gdi/internal/ir"
)

//go:embed overrides/*.json
var embeddedOverrides embed.FS

// Override is a curated, hand-authored extension of a module description.
// Its entries take precedence over the engine's for the same names.
type Override struct {
	ID          string
	Description string
	Categories  []string
	Parameters  []ir.Parameter
	Returns     []ir.Parameter
	ImportDescr []ir.Parameter
	Export      []ir.Parameter
}

// Standalone reports whether the override fully describes a module on its
// own, for pseudo-modules the engine cannot describe.
func (o Override) Standalone() bool {
	return o.ID != "" && o.Description != ""
}

// Module returns the override as a complete description.
func (o Override) Module() *ir.Module {
	return o.Apply(&ir.Module{
		ID:         o.ID,
		Categories: []string{},
		Parameters: []ir.Parameter{},
		Returns:    []ir.Parameter{},
	})
}

// Apply merges the override into a copy of m. Scalar fields replace the
// engine's when set; list entries replace same-named entries or append.
func (o Override) Apply(m *ir.Module) *ir.Module {
	out := m.Clone()
	if o.Description != "" {
		out.Description = o.Description
	}
	if len(o.Categories) > 0 {
		out.Categories = append([]string(nil), o.Categories...)
	}
	out.Parameters = mergeParameters(out.Parameters, o.Parameters)
	out.Returns = mergeParameters(out.Returns, o.Returns)
	out.ImportDescr = mergeParameters(out.ImportDescr, o.ImportDescr)
	out.Export = mergeParameters(out.Export, o.Export)
	return out
}

func mergeParameters(base, extra []ir.Parameter) []ir.Parameter {
	if len(extra) == 0 {
		return base
	}
	out := append([]ir.Parameter(nil), base...)
	for _, p := range extra {
		replaced := false
		for i := range out {
			if out[i].Name == p.Name {
				out[i] = p.Clone()
				replaced = true
				break
			}
		}
		if !replaced {
			out = append(out, p.Clone())
		}
	}
	return out
}

// Overrides looks up override documents named <module>.json. A directory,
// when configured, shadows the documents shipped with the binary.
type Overrides struct {
	layers []fs.FS
}

// NewOverrides returns the lookup chain: dir first (if non-empty), then the
// embedded importer and exporter documents.
func NewOverrides(dir string) *Overrides {
	o := &Overrides{}
	if dir != "" {
		o.layers = append(o.layers, os.DirFS(dir))
	}
	sub, err := fs.Sub(embeddedOverrides, "overrides")
	if err == nil {
		o.layers = append(o.layers, sub)
	}
	return o
}

// Lookup returns the override for module. A missing document is reported as
// found == false, never as an error; a malformed one is an error.
func (o *Overrides) Lookup(module string) (Override, bool, error) {
	if o == nil || !fs.ValidPath(module) || module == "." {
		return Override{}, false, nil
	}
	for _, layer := range o.layers {
		data, err := fs.ReadFile(layer, module+".json")
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return Override{}, false, fmt.Errorf("read override %s: %w", module, err)
		}
		ov, err := ParseOverride(data)
		if err != nil {
			return Override{}, false, fmt.Errorf("override %s: %w", module, err)
		}
		return ov, true, nil
	}
	return Override{}, false, nil
}

type overrideDoc struct {
	ID          string           `json:"id"`
	Description string           `json:"description"`
	Categories  []string         `json:"categories"`
	Parameters  []map[string]any `json:"parameters"`
	Returns     []map[string]any `json:"returns"`
	ImportDescr []map[string]any `json:"import_descr"`
	Export      []map[string]any `json:"export"`
}

// ParseOverride decodes an override document. Entry values are coerced
// loosely: "default": 1 and "optional": "true" are accepted.
func ParseOverride(data []byte) (Override, error) {
	var doc overrideDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return Override{}, err
	}
	ov := Override{ID: doc.ID, Description: doc.Description, Categories: doc.Categories}
	lists := []struct {
		raw []map[string]any
		dst *[]ir.Parameter
		key string
	}{
		{doc.Parameters, &ov.Parameters, "parameters"},
		{doc.Returns, &ov.Returns, "returns"},
		{doc.ImportDescr, &ov.ImportDescr, "import_descr"},
		{doc.Export, &ov.Export, "export"},
	}
	for _, l := range lists {
		for i, raw := range l.raw {
			p, err := parameterFromMap(raw)
			if err != nil {
				return Override{}, fmt.Errorf("%s[%d]: %w", l.key, i, err)
			}
			*l.dst = append(*l.dst, p)
		}
	}
	return ov, nil
}

func parameterFromMap(raw map[string]any) (ir.Parameter, error) {
	name := cast.ToString(raw["name"])
	if name == "" {
		return ir.Parameter{}, fmt.Errorf("missing name")
	}
	p := ir.Parameter{
		Name:        name,
		Description: cast.ToString(raw["description"]),
		Optional:    cast.ToBool(raw["optional"]),
		Schema:      ir.ParameterSchema{Type: ir.TypeString},
	}
	if def, ok := raw["default"]; ok && def != nil {
		p.Default = ir.StringPtr(cast.ToString(def))
	}
	if schema, ok := raw["schema"].(map[string]any); ok {
		if t := cast.ToString(schema["type"]); t != "" {
			p.Schema.Type = t
		}
		p.Schema.Subtype = cast.ToString(schema["subtype"])
		if enum, ok := schema["enum"]; ok {
			values, err := cast.ToStringSliceE(enum)
			if err != nil {
				return ir.Parameter{}, fmt.Errorf("%s: enum: %w", name, err)
			}
			p.Schema.Enum = values
		}
	}
	return p, nil
}
