package outbox

import (
	"encoding/json"
	"time"
)

// ActorRef identifies who triggered the event, when known.
type ActorRef struct {
	RequestID string `json:"requestId,omitempty"`
	Source    string `json:"source,omitempty"`
}

// PayloadEnvelope is the stable payload structure stored in outbox_events.
type PayloadEnvelope struct {
	Version    int             `json:"version"`
	EventID    string          `json:"eventId"`
	OccurredAt time.Time       `json:"occurredAt"`
	Actor      *ActorRef       `json:"actor,omitempty"`
	Data       json.RawMessage `json:"data"`
}
