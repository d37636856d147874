package harness

// TraceEvent records one applied block or executed step.
type TraceEvent struct {
	Seq       int64    `json:"seq"`
	Op        string   `json:"op"`
	Args      any      `json:"args,omitempty"`
	IDs       []string `json:"ids,omitempty"`
	Removed   []string `json:"removed,omitempty"`
	Errors    []string `json:"errors,omitempty"`
	State     string   `json:"state,omitempty"`
	Applied   int      `json:"applied,omitempty"`
	Skipped   int      `json:"skipped,omitempty"`
	Revisions int      `json:"revisions,omitempty"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true when every expectation matched.
	Pass bool `json:"pass"`

	// Trace holds block applications and steps in execution order.
	Trace []TraceEvent `json:"trace"`

	// Errors holds one message per failed expectation.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a passing result with an empty trace.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError records a failed expectation and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// AddTrace appends ev with the next sequence number.
func (r *Result) AddTrace(ev TraceEvent) {
	ev.Seq = int64(len(r.Trace) + 1)
	r.Trace = append(r.Trace, ev)
}
