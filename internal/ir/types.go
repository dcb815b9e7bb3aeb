package ir

import "sort"

// Template is a stored process-chain template. Its step values may contain
// {{ name }} placeholders that become the parameters of a virtual module.
type Template struct {
	ID          string   `json:"id"`
	Description string   `json:"description"`
	Template    StepList `json:"template"`
}

// StepList wraps the ordered steps of a template ("template": {"list": [...]}).
type StepList struct {
	List []Step `json:"list"`
}

// Step is one entry of a process chain. Exactly one of Module or Exe is set.
type Step struct {
	ID         string         `json:"id,omitempty"`
	Module     string         `json:"module,omitempty"`
	Exe        string         `json:"exe,omitempty"`
	Params     []string       `json:"params,omitempty"`
	Inputs     []Item         `json:"inputs,omitempty"`
	Outputs    []Item         `json:"outputs,omitempty"`
	Flags      string         `json:"flags,omitempty"`
	Stdin      string         `json:"stdin,omitempty"`
	Stdout     map[string]any `json:"stdout,omitempty"`
	Overwrite  bool           `json:"overwrite,omitempty"`
	Superquiet bool           `json:"superquiet,omitempty"`
	Verbose    bool           `json:"verbose,omitempty"`
}

// Items returns inputs followed by outputs, the order collection walks them.
func (s Step) Items() []Item {
	items := make([]Item, 0, len(s.Inputs)+len(s.Outputs))
	items = append(items, s.Inputs...)
	return append(items, s.Outputs...)
}

// Item is a parameter binding within a step.
//
// ImportDescr and Exporter are side maps for importer/exporter steps; their
// keys name importer or exporter sub-parameters.
type Item struct {
	Param       string            `json:"param"`
	Value       string            `json:"value"`
	Comment     string            `json:"comment,omitempty"`
	Enum        []string          `json:"enum,omitempty"`
	ImportDescr map[string]string `json:"import_descr,omitempty"`
	Exporter    map[string]string `json:"exporter,omitempty"`
}

// ProcessChain is the request body accepted by expansion: a version tag and
// an ordered list of steps, some of which may reference templates.
type ProcessChain struct {
	Version string `json:"version,omitempty"`
	List    []Step `json:"list"`
}

// SortedKeys returns the keys of a side map in lexical order.
func SortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
