package lookup

import "fmt"

// Step names a stage of the pipeline.
type Step string

const (
	StepTicker Step = "ticker"
	StepPrice  Step = "price"
)

// ErrNotFound is returned when no ticker can be resolved for a company,
// including when the company name itself is empty.
type ErrNotFound struct {
	Company string
}

func (e ErrNotFound) Error() string {
	if e.Company == "" {
		return "no company to look up"
	}
	return "ticker not found for " + e.Company
}

// LookupError wraps a collaborator failure (unreachable, error reply or
// timeout) at one step.
type LookupError struct {
	Step Step
	Err  error
}

func (e *LookupError) Error() string {
	return fmt.Sprintf("%s lookup failed: %v", e.Step, e.Err)
}

func (e *LookupError) Unwrap() error {
	return e.Err
}
