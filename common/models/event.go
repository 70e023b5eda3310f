package models

import (
	"fmt"
	"time"
)

// ChangeEventKind names the two event kinds the fan-out reacts to
type ChangeEventKind string

const (
	ChangeEventEntity     ChangeEventKind = "entity-changed"
	ChangeEventCollection ChangeEventKind = "collection-changed"
)

// ChangeEvent is published after a revision commits. The actor id excludes
// self-notification; the label composes the message text.
type ChangeEvent struct {
	Kind       ChangeEventKind `json:"kind"`
	TargetID   string          `json:"target_id"`
	EntityType EntityType      `json:"entity_type,omitempty"`
	ActorID    int64           `json:"actor_id"`
	Label      string          `json:"label"`
	OccurredAt time.Time       `json:"occurred_at"`
}

// RedirectLink is the notification's natural-key link for this event's target
func (e *ChangeEvent) RedirectLink() string {
	if e.Kind == ChangeEventCollection {
		return fmt.Sprintf("/collection/%s", e.TargetID)
	}
	return fmt.Sprintf("/%s/%s", e.EntityType, e.TargetID)
}
