package tasks

import (
	"fmt"
)

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	FetchRequests Phase = iota
	SendReminder
)

func (p Phase) String() string {
	switch p {
	case FetchRequests:
		return "fetch_requests"
	case SendReminder:
		return "send_reminder"
	default:
		return ""
	}
}

func fetchRequestsUpdate() ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchRequests,
		Step:    1,
		Total:   1,
		Message: "Fetching testimonial requests...",
	}
}

func remindSentUpdate(step, total int, id, name string) ProgressUpdate {
	if name == "" {
		name = id
	}
	return ProgressUpdate{
		Phase:   SendReminder,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✓ Reminded %s", step, total, name),
	}
}

func remindFailedUpdate(step, total int, id string, err error) ProgressUpdate {
	return ProgressUpdate{
		Phase:   SendReminder,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✗ %s: %v", step, total, id, err),
	}
}
