package readiness

// Outcome is the terminal result of a wait session.
type Outcome int

const (
	// OutcomeFailed indicates the session aborted on an inspector failure,
	// context cancellation, or a terminally failed resource.
	OutcomeFailed Outcome = iota
	// OutcomeReady indicates the resource reached its desired state.
	OutcomeReady
	// OutcomeTimedOut indicates the deadline expired before the desired state held.
	OutcomeTimedOut
	// OutcomeDeleted indicates the resource disappeared, as awaited.
	OutcomeDeleted
)

// String returns a human-readable outcome name.
func (o Outcome) String() string {
	switch o {
	case OutcomeReady:
		return "ready"
	case OutcomeTimedOut:
		return "timed out"
	case OutcomeDeleted:
		return "deleted"
	case OutcomeFailed:
		return "failed"
	default:
		return "unknown"
	}
}
