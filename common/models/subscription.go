package models

import (
	"time"

	"github.com/google/uuid"
)

// EntitySubscription marks a subscriber's interest in one entity. The
// optional filter expression (CEL) decides per event whether the subscriber
// is notified; read-only for the update protocol.
type EntitySubscription struct {
	BBID         uuid.UUID `db:"bbid" json:"bbid"`
	SubscriberID int64     `db:"subscriber_id" json:"subscriber_id"`
	FilterExpr   *string   `db:"filter_expr" json:"filter_expr,omitempty"`
}

// CollectionSubscription marks a subscriber's interest in a collection
type CollectionSubscription struct {
	CollectionID uuid.UUID `db:"collection_id" json:"collection_id"`
	SubscriberID int64     `db:"subscriber_id" json:"subscriber_id"`
	FilterExpr   *string   `db:"filter_expr" json:"filter_expr,omitempty"`
}

// Notification is a per-subscriber record keyed by (subscriber, redirect
// link). At most one live row per key: a repeat event updates the row in
// place and resets the read flag.
type Notification struct {
	ID           int64     `db:"id" json:"id"`
	SubscriberID int64     `db:"subscriber_id" json:"subscriber_id"`
	RedirectLink string    `db:"redirect_link" json:"redirect_link"`
	Text         string    `db:"text" json:"text"`
	Read         bool      `db:"read" json:"read"`
	Timestamp    time.Time `db:"timestamp" json:"timestamp"`
}
