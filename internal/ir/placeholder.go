package ir

import (
	"regexp"
	"strings"
)

// placeholderPattern matches a self-bound placeholder such as "{{ dem }}".
// Rendering in discovery mode only ever produces this exact shape.
var placeholderPattern = regexp.MustCompile(`\{\{\s*([A-Za-z_][A-Za-z0-9_]*)\s*\}\}`)

// Placeholder returns the self-bound form of a variable name.
func Placeholder(name string) string {
	return "{{ " + name + " }}"
}

// Placeholders returns the variable names referenced by placeholders in
// value, in order of appearance and without duplicates.
func Placeholders(value string) []string {
	if !strings.Contains(value, "{{") {
		return nil
	}
	matches := placeholderPattern.FindAllStringSubmatch(value, -1)
	if len(matches) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(matches))
	names := make([]string, 0, len(matches))
	for _, m := range matches {
		if seen[m[1]] {
			continue
		}
		seen[m[1]] = true
		names = append(names, m[1])
	}
	return names
}

// HasPlaceholder reports whether value contains at least one placeholder.
func HasPlaceholder(value string) bool {
	return strings.Contains(value, "{{") && placeholderPattern.MatchString(value)
}

// StepParamKey identifies a placeholder-bearing parameter within a template.
// Placeholder is set only when one value carries several placeholders.
type StepParamKey struct {
	StepID      string
	Param       string
	Placeholder string
}

func (k StepParamKey) String() string {
	s := k.StepID + "." + k.Param
	if k.Placeholder != "" {
		s += "#" + k.Placeholder
	}
	return s
}
