// Package templating renders stored process-chain templates.
//
// A template is a JSON document whose string values may contain
// {{ expression }} segments. Expressions use the expr language; the only
// addition is a default filter:
//
//	"value": "{{ dem }}"
//	"value": "{{ zscale | default('1.0') }}"
//	"value": "{{ name ?? 'result' }}_slope"
//
// Three operations are provided:
//   - Analyze reports the variables a template declares and which of them
//     are covered by a default everywhere they occur (filtered variables)
//   - Render substitutes bindings and decodes the result
//   - Discover renders every non-filtered variable as its own placeholder,
//     "{{ name }}", so the result can be scanned by position
package templating
