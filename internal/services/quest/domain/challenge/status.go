package challenge

// Status identifies a challenge lifecycle phase.
type Status string

const (
	StatusUnspecified   Status = ""
	StatusRecruiting    Status = statusRecruiting
	StatusRecruitFailed Status = statusRecruitFailed
	StatusExecuting     Status = statusExecuting
	StatusCompleted     Status = statusCompleted
)

// Statuses lists every lifecycle phase in transition order.
var Statuses = []Status{StatusRecruiting, StatusRecruitFailed, StatusExecuting, StatusCompleted}

// NormalizeStatus parses a status label into a canonical value.
func NormalizeStatus(value string) (Status, bool) {
	if normalized, ok := normalizeStatusLabel(value); ok {
		return Status(normalized), true
	}
	return StatusUnspecified, false
}

// Terminal reports whether no further transition is possible.
func (s Status) Terminal() bool {
	return s == StatusRecruitFailed || s == StatusCompleted
}
