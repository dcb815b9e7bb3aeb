package harness

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"sort"
	"strings"

	"github.com/actinia-org/actinia-gdi/internal/describe"
	"github.com/actinia-org/actinia-gdi/internal/engine"
	"github.com/actinia-org/actinia-gdi/internal/ir"
	"github.com/actinia-org/actinia-gdi/internal/store"
	"github.com/actinia-org/actinia-gdi/internal/testutil"
)

// DefaultResolutionID is used when a scenario does not fix one.
const DefaultResolutionID = "test-resolution"

// Harness runs one scenario against a real engine.
// Operations and describe requests are stamped from a single clock so the
// trace shows their interleaving.
type Harness struct {
	engine *engine.Engine
	clock  *engine.Clock
	result *Result
}

// tracingDescriber records every describe request in the harness trace.
type tracingDescriber struct {
	inner engine.Describer
	h     *Harness
}

func (d *tracingDescriber) Describe(ctx context.Context, req describe.Request) (*ir.Module, error) {
	m, err := d.inner.Describe(ctx, req)
	ev := TraceEvent{Type: EventDescribe, Name: req.Module, BatchKey: req.BatchKey, Seq: d.h.clock.Next()}
	if err != nil {
		ev.Error = err.Error()
	}
	d.h.result.Trace = append(d.h.result.Trace, ev)
	return m, err
}

// Run executes a scenario and returns the result.
//
// Each scenario runs in a fresh in-memory database for isolation.
//
// Execution flow:
// 1. Create fresh in-memory template store and store the templates
// 2. Build an engine over the interface fixtures with a fixed resolution id
// 3. Execute flow steps with expect validation
// 4. Evaluate assertions
func Run(scenario *Scenario) (*Result, error) {
	return RunWith(scenario, nil)
}

// RunWith is Run with describer serving scenarios that name no interfaces
// directory. A nil describer means the bundled fixtures.
func RunWith(scenario *Scenario, describer engine.Describer) (*Result, error) {
	ctx := context.Background()

	st, err := store.OpenSQLite(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	names := make([]string, 0, len(scenario.Templates))
	for name := range scenario.Templates {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := st.Create(ctx, name, []byte(scenario.Templates[name])); err != nil {
			return nil, fmt.Errorf("store template %s: %w", name, err)
		}
	}

	inner := describer
	switch {
	case scenario.Interfaces != "":
		inner = describe.NewService(describe.DirSource{Dir: scenario.Interfaces})
	case inner == nil:
		inner = testutil.FixtureDescriber()
	}

	id := scenario.ResolutionID
	if id == "" {
		id = DefaultResolutionID
	}

	h := &Harness{clock: engine.NewClock(), result: NewResult()}
	h.engine = engine.New(st, &tracingDescriber{inner: inner, h: h}, engine.WithIDGenerator(engine.NewFixedGenerator(id)))

	for i, step := range scenario.Flow {
		if err := h.executeStep(ctx, i, step); err != nil {
			return nil, err
		}
	}

	for _, a := range scenario.Assertions {
		if err := evaluateAssertion(h.result.Trace, a); err != nil {
			h.result.AddError(err.Error())
		}
	}
	return h.result, nil
}

// executeStep runs one flow step, appends its trace event and checks its
// expect clause. Only malformed steps return an error; engine failures are
// part of the trace.
func (h *Harness) executeStep(ctx context.Context, i int, step FlowStep) error {
	var (
		ev     TraceEvent
		result any
		opErr  error
	)

	switch {
	case step.Synthesize != "":
		ev = TraceEvent{Type: EventSynthesize, Name: step.Synthesize}
		m, err := h.engine.Synthesize(ctx, step.Synthesize)
		result, opErr = m, err
		if err == nil {
			ev.Result = m
		}
	case step.Fill != "":
		ev = TraceEvent{Type: EventFill, Name: step.Fill}
		steps, err := h.engine.Fill(ctx, step.Fill, Items(step.Items))
		result, opErr = steps, err
		if err == nil {
			ev.Result = steps
		}
	default:
		var pc ir.ProcessChain
		if err := json.Unmarshal([]byte(step.Expand), &pc); err != nil {
			return fmt.Errorf("flow[%d]: invalid process chain: %w", i, err)
		}
		ev = TraceEvent{Type: EventExpand, Name: fmt.Sprintf("flow[%d]", i)}
		out, err := h.engine.Expand(ctx, pc)
		result, opErr = out.List, err
		if err == nil {
			ev.Result = out
		}
	}

	if opErr != nil {
		ev.Error = errorCode(opErr)
	}
	ev.Seq = h.clock.Next()
	h.result.Trace = append(h.result.Trace, ev)

	if step.Expect != nil {
		for _, msg := range checkExpect(step.Expect, result, opErr) {
			h.result.AddError(fmt.Sprintf("flow[%d]: %s", i, msg))
		}
	} else if opErr != nil {
		h.result.AddError(fmt.Sprintf("flow[%d]: unexpected error: %v", i, opErr))
	}
	return nil
}

func errorCode(err error) string {
	if code, ok := engine.CodeOf(err); ok {
		return string(code)
	}
	return err.Error()
}

// checkExpect compares an operation outcome against its expect clause.
func checkExpect(want *ExpectClause, result any, err error) []string {
	var problems []string

	if want.Error != "" {
		if err == nil {
			return []string{fmt.Sprintf("expected error %s, got success", want.Error)}
		}
		if got := errorCode(err); got != want.Error {
			problems = append(problems, fmt.Sprintf("expected error %s, got %s", want.Error, got))
		}
		if want.Message != "" && !strings.Contains(err.Error(), want.Message) {
			problems = append(problems, fmt.Sprintf("expected error containing %q, got %q", want.Message, err.Error()))
		}
		return problems
	}
	if err != nil {
		return []string{fmt.Sprintf("unexpected error: %v", err)}
	}

	if m, ok := result.(*ir.Module); ok {
		if want.Parameters != nil && !slices.Equal(want.Parameters, parameterNames(m.Parameters)) {
			problems = append(problems, fmt.Sprintf("expected parameters %v, got %v", want.Parameters, parameterNames(m.Parameters)))
		}
		if want.Returns != nil && !slices.Equal(want.Returns, parameterNames(m.Returns)) {
			problems = append(problems, fmt.Sprintf("expected returns %v, got %v", want.Returns, parameterNames(m.Returns)))
		}
	}
	if steps, ok := result.([]ir.Step); ok && want.Steps != nil && len(steps) != *want.Steps {
		problems = append(problems, fmt.Sprintf("expected %d steps, got %d", *want.Steps, len(steps)))
	}
	return problems
}

func parameterNames(ps []ir.Parameter) []string {
	out := make([]string, len(ps))
	for i, p := range ps {
		out[i] = p.Name
	}
	return out
}
