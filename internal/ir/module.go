package ir

// Well-known categories attached to module descriptions.
const (
	CategoryGrassModule   = "grass-module"
	CategoryActiniaModule = "actinia-module"
)

// Schema type names used in parameter descriptors.
const (
	TypeString  = "string"
	TypeNumber  = "number"
	TypeInteger = "integer"
	TypeBoolean = "boolean"
	TypeArray   = "array"
)

// Module is the interface description of an engine module or a virtual
// module synthesized from a template.
type Module struct {
	ID          string      `json:"id"`
	Description string      `json:"description"`
	Categories  []string    `json:"categories"`
	Parameters  []Parameter `json:"parameters"`
	Returns     []Parameter `json:"returns"`
	ImportDescr []Parameter `json:"import_descr,omitempty"`
	Export      []Parameter `json:"export,omitempty"`
}

// Parameter describes one input or output of a module.
type Parameter struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Optional    bool            `json:"optional"`
	Default     *string         `json:"default,omitempty"`
	Schema      ParameterSchema `json:"schema"`
}

// ParameterSchema carries the JSON-schema-like type information.
type ParameterSchema struct {
	Type    string   `json:"type"`
	Subtype string   `json:"subtype,omitempty"`
	Enum    []string `json:"enum,omitempty"`
}

// StringPtr returns a pointer to s, for building Parameter.Default.
func StringPtr(s string) *string {
	return &s
}

// Clone returns a deep copy of the parameter.
func (p Parameter) Clone() Parameter {
	out := p
	if p.Default != nil {
		out.Default = StringPtr(*p.Default)
	}
	if p.Schema.Enum != nil {
		out.Schema.Enum = append([]string(nil), p.Schema.Enum...)
	}
	return out
}

// Clone returns a deep copy of the module.
func (m *Module) Clone() *Module {
	if m == nil {
		return nil
	}
	out := *m
	out.Categories = append([]string(nil), m.Categories...)
	out.Parameters = cloneParameters(m.Parameters)
	out.Returns = cloneParameters(m.Returns)
	out.ImportDescr = cloneParameters(m.ImportDescr)
	out.Export = cloneParameters(m.Export)
	return &out
}

func cloneParameters(in []Parameter) []Parameter {
	if in == nil {
		return nil
	}
	out := make([]Parameter, len(in))
	for i, p := range in {
		out[i] = p.Clone()
	}
	return out
}

// Lookup finds a named entry among parameters, then returns.
// isReturn reports which list it came from.
func (m *Module) Lookup(name string) (p Parameter, isReturn bool, ok bool) {
	if p, ok := findParameter(m.Parameters, name); ok {
		return p, false, true
	}
	if p, ok := findParameter(m.Returns, name); ok {
		return p, true, true
	}
	return Parameter{}, false, false
}

// LookupImport finds a named importer side parameter.
func (m *Module) LookupImport(name string) (Parameter, bool) {
	return findParameter(m.ImportDescr, name)
}

// LookupExport finds a named exporter side parameter.
func (m *Module) LookupExport(name string) (Parameter, bool) {
	return findParameter(m.Export, name)
}

func findParameter(list []Parameter, name string) (Parameter, bool) {
	for _, p := range list {
		if p.Name == name {
			return p, true
		}
	}
	return Parameter{}, false
}

// Summary returns the module without parameter lists, as used in listings.
func (m *Module) Summary() Module {
	return Module{
		ID:          m.ID,
		Description: m.Description,
		Categories:  append([]string(nil), m.Categories...),
		Parameters:  []Parameter{},
		Returns:     []Parameter{},
	}
}
