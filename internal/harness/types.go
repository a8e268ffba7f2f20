package harness

// TraceEvent records one executed step.
type TraceEvent struct {
	// Seq is the 1-based position of the step.
	Seq int `json:"seq"`

	// Expr is the expression of the step.
	Expr string `json:"expr"`

	// Outputs holds the values produced before the step ended.
	Outputs []any `json:"-"`

	// Rendered holds the text form of each output, with the scenario
	// directory replaced by $DIR.
	Rendered []string `json:"outputs"`

	// Error is the message of the error that ended the step, if any.
	Error string `json:"error,omitempty"`

	// Stdout and Stderr hold the lines written by printout and printerr.
	Stdout []string `json:"stdout,omitempty"`
	Stderr []string `json:"stderr,omitempty"`
}

// Result is the outcome of a scenario.
type Result struct {
	// Pass is true when every step met its expectation.
	Pass bool `json:"pass"`

	// Trace holds one event per executed step.
	Trace []TraceEvent `json:"trace"`

	// Errors holds one message per failed expectation.
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

// AddError adds a failure message and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
