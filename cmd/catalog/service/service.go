package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/openshelf/catalog/common/logger"
	"github.com/openshelf/catalog/common/metrics"
	"github.com/openshelf/catalog/common/models"
	"github.com/openshelf/catalog/common/queue"
)

// UpdateResult reports what a create or update produced. Callers that only
// need success/failure can ignore everything but the error.
type UpdateResult struct {
	BBID       uuid.UUID `json:"bbid"`
	RevisionID int64     `json:"revision_id"`
	DataID     int64     `json:"data_id"`
}

// changePublisher emits change events after a revision commits. Publishing
// is fire-and-forget: a failed publish is logged and never fails the edit
// that already committed.
type changePublisher struct {
	queue   queue.Queue
	topic   string
	metrics *metrics.Metrics
	log     *logger.Logger
}

func newChangePublisher(q queue.Queue, topic string, m *metrics.Metrics, log *logger.Logger) *changePublisher {
	return &changePublisher{
		queue:   q,
		topic:   topic,
		metrics: m,
		log:     log,
	}
}

// entityChanged publishes an entity-changed event
func (p *changePublisher) entityChanged(ctx context.Context, entityType models.EntityType, bbid uuid.UUID, actorID int64, label string) {
	if p.queue == nil {
		return
	}

	event := models.ChangeEvent{
		Kind:       models.ChangeEventEntity,
		TargetID:   bbid.String(),
		EntityType: entityType,
		ActorID:    actorID,
		Label:      label,
		OccurredAt: time.Now().UTC(),
	}

	payload, err := json.Marshal(&event)
	if err != nil {
		p.log.Error("failed to marshal change event", "bbid", bbid, "error", err)
		return
	}

	if err := p.queue.Publish(ctx, p.topic, bbid.String(), payload); err != nil {
		p.log.Error("failed to publish change event", "bbid", bbid, "error", err)
		return
	}

	p.metrics.EventsPublished.Inc()
}
