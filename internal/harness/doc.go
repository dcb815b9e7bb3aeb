// Package harness provides scenario-based conformance testing for templates.
//
// A scenario stores a set of templates in a fresh in-memory store, runs
// engine operations against the bundled GRASS interface fixtures and checks
// the outcome. Describe requests are traced alongside the operations, so a
// scenario can assert how often and in which order engine modules were
// described.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: scenario_name
//	description: "What this scenario validates"
//	resolution_id: res
//	templates:
//	  slope: |
//	    {"id": "slope", "template": {"list": [...]}}
//	flow:
//	  - synthesize: slope
//	    expect:
//	      parameters: [dem]
//	      returns: [slope_out]
//	  - fill: slope
//	    items:
//	      - {param: dem, value: srtm}
//	    expect:
//	      error: MISSING_PARAMETER
//	  - expand: '{"list": [{"module": "slope", "inputs": [...]}]}'
//	assertions:
//	  - type: describe_count
//	    module: r.slope.aspect
//	    count: 1
//
// # Assertion Types
//
//   - describe_count: a module is described exactly N times over the flow
//   - describe_order: modules are described in the given order
//
// # Golden Files
//
// RunWithGolden serializes the trace in canonical JSON and compares it with
// testdata/golden/<name>.golden. Regenerate with:
//
//	go test ./internal/harness -update
package harness
