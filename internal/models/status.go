package models

// TransactionStatus values are stable ordinals exposed to API callers.
// Do not reorder.
type TransactionStatus int

const (
	StatusPending TransactionStatus = iota
	StatusProcessing
	StatusCompleted
	StatusFailed
	StatusCancelled
	StatusRequiresApproval
	StatusApproved
	StatusRejected
	StatusReversed
)

var statusNames = map[TransactionStatus]string{
	StatusPending:          "pending",
	StatusProcessing:       "processing",
	StatusCompleted:        "completed",
	StatusFailed:           "failed",
	StatusCancelled:        "cancelled",
	StatusRequiresApproval: "requires_approval",
	StatusApproved:         "approved",
	StatusRejected:         "rejected",
	StatusReversed:         "reversed",
}

func (s TransactionStatus) String() string {
	name, ok := statusNames[s]
	if !ok {
		return "unknown"
	}
	return name
}

// IsTerminal reports whether no further transition is allowed, except the
// single Completed -> Reversed edge handled by CanTransitionTo.
func (s TransactionStatus) IsTerminal() bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusCancelled, StatusRejected, StatusReversed:
		return true
	}
	return false
}

var allowedTransitions = map[TransactionStatus][]TransactionStatus{
	StatusPending:          {StatusProcessing, StatusCompleted, StatusRequiresApproval, StatusRejected, StatusCancelled},
	StatusProcessing:       {StatusCompleted, StatusFailed, StatusCancelled},
	StatusRequiresApproval: {StatusApproved, StatusRejected, StatusCancelled},
	StatusApproved:         {StatusCompleted, StatusFailed},
	StatusCompleted:        {StatusReversed},
}

// CanTransitionTo enforces the transaction lifecycle: statuses never regress
// from a terminal state, and Completed -> Reversed is the only edge out of a
// completed record.
func (s TransactionStatus) CanTransitionTo(next TransactionStatus) bool {
	for _, allowed := range allowedTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}
