package workflow

// State is a QueryWorkflow lifecycle state
type State int

const (
	Idle State = iota
	Submitting
	Answered
	Failed
	Reviewing
	Saved
	Discarded
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Submitting:
		return "submitting"
	case Answered:
		return "answered"
	case Failed:
		return "failed"
	case Reviewing:
		return "reviewing"
	case Saved:
		return "saved"
	case Discarded:
		return "discarded"
	default:
		return "unknown"
	}
}

// canSubmit reports whether a new submission cycle may start from s.
// Reviewing must be left through save or discard first.
func (s State) canSubmit() bool {
	switch s {
	case Idle, Answered, Saved, Discarded:
		return true
	default:
		return false
	}
}
