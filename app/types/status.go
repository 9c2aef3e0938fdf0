package types

// Transaction lifecycle statuses. Transitions only move forward:
// queued -> processing -> {completed|pending|failed|error};
// pending -> {completed|failed|cancelled|timeout|replaced}.
const (
	StatusQueued     = "queued"
	StatusProcessing = "processing"
	StatusPending    = "pending"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
	StatusCancelled  = "cancelled"
	StatusTimeout    = "timeout"
	StatusError      = "error"
	StatusReplaced   = "replaced"
	StatusNotFound   = "not_found"
)

const (
	SubscriptionBasic   = "basic"
	SubscriptionPremium = "premium"
)

func IsTerminalStatus(status string) bool {
	switch status {
	case StatusCompleted, StatusFailed, StatusCancelled, StatusTimeout, StatusError, StatusReplaced:
		return true
	default:
		return false
	}
}

func IsCancelableStatus(status string) bool {
	switch status {
	case StatusQueued, StatusProcessing, StatusPending:
		return true
	default:
		return false
	}
}

func IsValidSubscriptionType(subscriptionType string) bool {
	return subscriptionType == SubscriptionBasic || subscriptionType == SubscriptionPremium
}
