package submission

import "fmt"

// Result is the kind of a submission outcome.
type Result int

const (
	Succeeded Result = iota + 1
	Failed
)

func (r Result) String() string {
	switch r {
	case Succeeded:
		return "success"
	case Failed:
		return "failure"
	default:
		return fmt.Sprintf("Result(%d)", int(r))
	}
}

// Outcome is produced exactly once per submitted snapshot. Err carries the
// cause of a failure for debug logging; it is never shown to the user.
type Outcome struct {
	Result Result
	Err    error
}

// Success returns a successful outcome.
func Success() Outcome { return Outcome{Result: Succeeded} }

// Failure returns a failed outcome caused by err.
func Failure(err error) Outcome { return Outcome{Result: Failed, Err: err} }

// OK reports whether the submission succeeded.
func (o Outcome) OK() bool { return o.Result == Succeeded }
