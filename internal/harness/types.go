package harness

// Trace event types.
const (
	EventDescribe   = "describe"
	EventSynthesize = "synthesize"
	EventFill       = "fill"
	EventExpand     = "expand"
)

// TraceEvent records one engine operation or describe request.
type TraceEvent struct {
	Type     string `json:"type"`
	Name     string `json:"name"`
	BatchKey string `json:"batch_key,omitempty"`
	Result   any    `json:"result,omitempty"`
	Error    string `json:"error,omitempty"`
	Seq      int64  `json:"seq"`
}

// Result is the outcome of a test scenario execution.
type Result struct {
	// Pass indicates overall test success.
	// True if all expect clauses and assertions match.
	Pass bool `json:"pass"`

	// Trace contains all operations and describe requests in order.
	Trace []TraceEvent `json:"trace"`

	// Errors contains validation error messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// Describes returns the modules of all describe events in order.
func (r *Result) Describes() []string {
	out := []string{}
	for _, ev := range r.Trace {
		if ev.Type == EventDescribe {
			out = append(out, ev.Name)
		}
	}
	return out
}
