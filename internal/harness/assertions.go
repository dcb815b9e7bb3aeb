package harness

import (
	"fmt"
	"strings"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string       // Assertion type for categorization
	Expected string       // Human-readable expected outcome
	Actual   string       // Human-readable actual outcome
	Trace    []TraceEvent // Full trace for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	fmt.Fprintf(&buf, "\nFull trace:\n")
	for i, event := range e.Trace {
		fmt.Fprintf(&buf, "  [%d] %s %s", i+1, event.Type, event.Name)
		if event.Error != "" {
			fmt.Fprintf(&buf, " error=%s", event.Error)
		}
		buf.WriteByte('\n')
	}
	return buf.String()
}

// evaluateAssertion dispatches on the assertion type.
func evaluateAssertion(trace []TraceEvent, a Assertion) error {
	switch a.Type {
	case AssertDescribeCount:
		return assertDescribeCount(trace, a)
	case AssertDescribeOrder:
		return assertDescribeOrder(trace, a)
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
}

// assertDescribeCount checks that a module was described exactly Count times.
func assertDescribeCount(trace []TraceEvent, a Assertion) error {
	count := 0
	for _, ev := range trace {
		if ev.Type == EventDescribe && ev.Name == a.Module {
			count++
		}
	}
	if count == a.Count {
		return nil
	}
	return &AssertionError{
		Type:     AssertDescribeCount,
		Expected: fmt.Sprintf("%s described %d times", a.Module, a.Count),
		Actual:   fmt.Sprintf("described %d times", count),
		Trace:    trace,
	}
}

// assertDescribeOrder checks that modules were described in the given order.
// Other describe requests may appear in between.
func assertDescribeOrder(trace []TraceEvent, a Assertion) error {
	next := 0
	for _, ev := range trace {
		if next < len(a.Modules) && ev.Type == EventDescribe && ev.Name == a.Modules[next] {
			next++
		}
	}
	if next == len(a.Modules) {
		return nil
	}
	return &AssertionError{
		Type:     AssertDescribeOrder,
		Expected: fmt.Sprintf("describe order %v", a.Modules),
		Actual:   fmt.Sprintf("%s not described after %v", a.Modules[next], a.Modules[:next]),
		Trace:    trace,
	}
}
