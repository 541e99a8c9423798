package service

// Broadcaster sends match events to whoever is watching.
type Broadcaster interface {
	BroadcastMatchEvent(matchID string, eventType string, data any)
}

// Event types sent through a Broadcaster.
const (
	EventMatchCreated    = "match_created"
	EventActionCompleted = "action_completed"
	EventActionFailed    = "action_failed"
	EventActionCancelled = "action_cancelled"
	EventCommandApplied  = "command_applied"
	EventMatchOver       = "match_over"
)

// NoopBroadcaster is a no-op implementation for testing or offline replay.
type NoopBroadcaster struct{}

func (NoopBroadcaster) BroadcastMatchEvent(string, string, any) {}
