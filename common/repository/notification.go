package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/openshelf/catalog/common/cerrors"
	"github.com/openshelf/catalog/common/db"
	"github.com/openshelf/catalog/common/models"
)

// NotificationRepository handles database operations for notifications
type NotificationRepository struct {
	db *db.DB
}

// NewNotificationRepository creates a new notification repository
func NewNotificationRepository(database *db.DB) *NotificationRepository {
	return &NotificationRepository{db: database}
}

// Upsert inserts a notification or, when one exists for (subscriber,
// redirect link), updates it in place: new text, read reset to false, fresh
// timestamp. The natural key keeps at most one live row per target.
func (r *NotificationRepository) Upsert(ctx context.Context, subscriberID int64, redirectLink, text string) error {
	query := `
		INSERT INTO notification (subscriber_id, redirect_link, text, read, timestamp)
		VALUES ($1, $2, $3, FALSE, $4)
		ON CONFLICT (subscriber_id, redirect_link)
		DO UPDATE SET text = EXCLUDED.text, read = FALSE, timestamp = EXCLUDED.timestamp
	`

	if _, err := r.db.Exec(ctx, query, subscriberID, redirectLink, text, time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to upsert notification: %w", err)
	}

	return nil
}

// ListBySubscriber retrieves a subscriber's notifications, newest first
func (r *NotificationRepository) ListBySubscriber(ctx context.Context, subscriberID int64, limit int) ([]*models.Notification, error) {
	query := `
		SELECT id, subscriber_id, redirect_link, text, read, timestamp
		FROM notification
		WHERE subscriber_id = $1
		ORDER BY timestamp DESC
		LIMIT $2
	`

	rows, err := r.db.Query(ctx, query, subscriberID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	defer rows.Close()

	var notifications []*models.Notification
	for rows.Next() {
		n := &models.Notification{}
		err := rows.Scan(
			&n.ID,
			&n.SubscriberID,
			&n.RedirectLink,
			&n.Text,
			&n.Read,
			&n.Timestamp,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}
		notifications = append(notifications, n)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating notifications: %w", err)
	}

	return notifications, nil
}

// MarkRead sets the read flag of one notification owned by the subscriber
func (r *NotificationRepository) MarkRead(ctx context.Context, subscriberID, notificationID int64) error {
	query := `
		UPDATE notification
		SET read = TRUE
		WHERE id = $1 AND subscriber_id = $2
	`

	result, err := r.db.Exec(ctx, query, notificationID, subscriberID)
	if err != nil {
		return fmt.Errorf("failed to mark notification read: %w", err)
	}

	if result.RowsAffected() == 0 {
		return cerrors.NewNotFound("notification %d not found", notificationID)
	}

	return nil
}
