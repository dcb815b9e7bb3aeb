package describe

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/actinia-org/actinia-gdi/internal/ir"
)

// xmlTask mirrors the <task> root of a GRASS --interface-description dump.
type xmlTask struct {
	XMLName     xml.Name       `xml:"task"`
	Name        string         `xml:"name,attr"`
	Description string         `xml:"description"`
	Keywords    string         `xml:"keywords"`
	Parameters  []xmlParameter `xml:"parameter"`
	Flags       []xmlFlag      `xml:"flag"`
}

type xmlParameter struct {
	Name        string        `xml:"name,attr"`
	Type        string        `xml:"type,attr"`
	Required    string        `xml:"required,attr"`
	Multiple    string        `xml:"multiple,attr"`
	Label       string        `xml:"label"`
	Description string        `xml:"description"`
	Default     *string       `xml:"default"`
	GisPrompt   *xmlGisPrompt `xml:"gisprompt"`
	Values      []xmlValue    `xml:"values>value"`
}

type xmlGisPrompt struct {
	Age     string `xml:"age,attr"`
	Element string `xml:"element,attr"`
	Prompt  string `xml:"prompt,attr"`
}

type xmlValue struct {
	Name        string `xml:"name"`
	Description string `xml:"description"`
}

type xmlFlag struct {
	Name        string `xml:"name,attr"`
	Label       string `xml:"label"`
	Description string `xml:"description"`
}

// flagDefault is the default every boolean flag carries.
const flagDefault = "False"

// ParseInterfaceDescription maps a GRASS interface-description document onto
// a module description.
//
// Parameters whose gisprompt has age="new" are returns; all others,
// including flags, are parameters. Declaration order is preserved.
func ParseInterfaceDescription(data []byte) (*ir.Module, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	dec.CharsetReader = func(charset string, input io.Reader) (io.Reader, error) {
		// GRASS declares UTF-8 or ASCII subsets of it.
		return input, nil
	}
	var task xmlTask
	if err := dec.Decode(&task); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDescription, err)
	}
	if task.Name == "" {
		return nil, fmt.Errorf("%w: task has no name", ErrInvalidDescription)
	}

	m := &ir.Module{
		ID:          task.Name,
		Description: strings.TrimSpace(task.Description),
		Categories:  parseCategories(task.Keywords),
		Parameters:  []ir.Parameter{},
		Returns:     []ir.Parameter{},
	}

	for _, xp := range task.Parameters {
		p := ir.Parameter{
			Name:        xp.Name,
			Description: joinDescription(xp.Label, xp.Description),
			Optional:    xp.Required != "yes",
			Schema:      parameterSchema(xp),
		}
		if xp.Default != nil {
			p.Default = ir.StringPtr(strings.TrimSpace(*xp.Default))
		}
		if xp.GisPrompt != nil && xp.GisPrompt.Age == "new" {
			m.Returns = append(m.Returns, p)
		} else {
			m.Parameters = append(m.Parameters, p)
		}
	}

	for _, xf := range task.Flags {
		m.Parameters = append(m.Parameters, ir.Parameter{
			Name:        xf.Name,
			Description: joinDescription(xf.Label, xf.Description),
			Optional:    true,
			Default:     ir.StringPtr(flagDefault),
			Schema:      ir.ParameterSchema{Type: ir.TypeBoolean},
		})
	}

	return m, nil
}

func parameterSchema(xp xmlParameter) ir.ParameterSchema {
	s := ir.ParameterSchema{Type: xp.Type}
	switch xp.Type {
	case "float", "double":
		s.Type = ir.TypeNumber
	case "":
		s.Type = ir.TypeString
	}
	if xp.Multiple == "yes" {
		s.Type = ir.TypeArray
	}
	if xp.GisPrompt != nil && xp.GisPrompt.Element != "" {
		s.Subtype = xp.GisPrompt.Element
	}
	for _, v := range xp.Values {
		name := strings.TrimSpace(v.Name)
		if name != "" {
			s.Enum = append(s.Enum, name)
		}
	}
	return s
}

// joinDescription combines label and description as "label. description".
func joinDescription(label, description string) string {
	label = strings.TrimSpace(label)
	description = strings.TrimSpace(description)
	switch {
	case label == "":
		return description
	case description == "":
		return label
	default:
		return label + ". " + description
	}
}

// parseCategories splits comma-separated keywords, drops spaces and adds
// the grass-module category. The result is sorted.
func parseCategories(keywords string) []string {
	seen := map[string]bool{ir.CategoryGrassModule: true}
	out := []string{ir.CategoryGrassModule}
	for _, kw := range strings.Split(strings.ReplaceAll(keywords, " ", ""), ",") {
		kw = strings.TrimSpace(kw)
		if kw == "" || seen[kw] {
			continue
		}
		seen[kw] = true
		out = append(out, kw)
	}
	sort.Strings(out)
	return out
}
