package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/openshelf/catalog/common/db"
	"github.com/openshelf/catalog/common/models"
)

// SubscriptionRepository handles database operations for subscriptions.
// Subscriptions are read-only for the revision protocol; the fan-out reads
// them and the subscription API writes them.
type SubscriptionRepository struct {
	db *db.DB
}

// NewSubscriptionRepository creates a new subscription repository
func NewSubscriptionRepository(database *db.DB) *SubscriptionRepository {
	return &SubscriptionRepository{db: database}
}

// ListEntitySubscribers retrieves all subscribers of an entity
func (r *SubscriptionRepository) ListEntitySubscribers(ctx context.Context, bbid uuid.UUID) ([]*models.EntitySubscription, error) {
	query := `
		SELECT bbid, subscriber_id, filter_expr
		FROM entity_subscription
		WHERE bbid = $1
	`

	rows, err := r.db.Query(ctx, query, bbid)
	if err != nil {
		return nil, fmt.Errorf("failed to list entity subscribers: %w", err)
	}
	defer rows.Close()

	var subs []*models.EntitySubscription
	for rows.Next() {
		sub := &models.EntitySubscription{}
		if err := rows.Scan(&sub.BBID, &sub.SubscriberID, &sub.FilterExpr); err != nil {
			return nil, fmt.Errorf("failed to scan entity subscription: %w", err)
		}
		subs = append(subs, sub)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating entity subscriptions: %w", err)
	}

	return subs, nil
}

// ListCollectionSubscribers retrieves all subscribers of a collection
func (r *SubscriptionRepository) ListCollectionSubscribers(ctx context.Context, collectionID uuid.UUID) ([]*models.CollectionSubscription, error) {
	query := `
		SELECT collection_id, subscriber_id, filter_expr
		FROM collection_subscription
		WHERE collection_id = $1
	`

	rows, err := r.db.Query(ctx, query, collectionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list collection subscribers: %w", err)
	}
	defer rows.Close()

	var subs []*models.CollectionSubscription
	for rows.Next() {
		sub := &models.CollectionSubscription{}
		if err := rows.Scan(&sub.CollectionID, &sub.SubscriberID, &sub.FilterExpr); err != nil {
			return nil, fmt.Errorf("failed to scan collection subscription: %w", err)
		}
		subs = append(subs, sub)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating collection subscriptions: %w", err)
	}

	return subs, nil
}

// Subscribe adds an entity subscription, ignoring duplicates
func (r *SubscriptionRepository) Subscribe(ctx context.Context, bbid uuid.UUID, subscriberID int64) error {
	query := `
		INSERT INTO entity_subscription (bbid, subscriber_id)
		VALUES ($1, $2)
		ON CONFLICT (bbid, subscriber_id) DO NOTHING
	`

	if _, err := r.db.Exec(ctx, query, bbid, subscriberID); err != nil {
		return fmt.Errorf("failed to subscribe: %w", err)
	}

	return nil
}

// Unsubscribe removes an entity subscription
func (r *SubscriptionRepository) Unsubscribe(ctx context.Context, bbid uuid.UUID, subscriberID int64) error {
	query := `DELETE FROM entity_subscription WHERE bbid = $1 AND subscriber_id = $2`

	if _, err := r.db.Exec(ctx, query, bbid, subscriberID); err != nil {
		return fmt.Errorf("failed to unsubscribe: %w", err)
	}

	return nil
}
