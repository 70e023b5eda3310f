package fanout

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/openshelf/catalog/common/logger"
	"github.com/openshelf/catalog/common/metrics"
	"github.com/openshelf/catalog/common/models"
)

const upsertTimeout = 5 * time.Second

// SubscriberSource lists the subscribers a change event fans out to
type SubscriberSource interface {
	ListEntitySubscribers(ctx context.Context, bbid uuid.UUID) ([]*models.EntitySubscription, error)
	ListCollectionSubscribers(ctx context.Context, collectionID uuid.UUID) ([]*models.CollectionSubscription, error)
}

// EditorSource resolves editor names for message composition
type EditorSource interface {
	GetByID(ctx context.Context, editorID int64) (*models.Editor, error)
}

// NotificationSink persists composed notifications
type NotificationSink interface {
	Upsert(ctx context.Context, subscriberID int64, redirectLink, text string) error
}

// task is one subscriber's notification delivery
type task struct {
	subscriberID int64
	filterExpr   *string
	event        *models.ChangeEvent
	redirectLink string
	text         string
}

// Fanout consumes change events and delivers notifications to subscribers
// through a bounded worker pool. Delivery is best effort: a failed or dropped
// notification never propagates back to the edit that caused it.
type Fanout struct {
	subscribers SubscriberSource
	editors     EditorSource
	sink        NotificationSink
	filter      *FilterEvaluator
	metrics     *metrics.Metrics
	log         *logger.Logger

	mu     sync.RWMutex
	closed bool
	tasks  chan task
	wg     sync.WaitGroup
}

// Opts contains options for creating a Fanout
type Opts struct {
	Subscribers SubscriberSource
	Editors     EditorSource
	Sink        NotificationSink
	Metrics     *metrics.Metrics
	Logger      *logger.Logger
	Workers     int
	QueueSize   int
}

// New creates a fan-out with a bounded task queue
func New(opts *Opts) *Fanout {
	workers := opts.Workers
	if workers < 1 {
		workers = 1
	}
	queueSize := opts.QueueSize
	if queueSize < 1 {
		queueSize = 1
	}

	f := &Fanout{
		subscribers: opts.Subscribers,
		editors:     opts.Editors,
		sink:        opts.Sink,
		filter:      NewFilterEvaluator(),
		metrics:     opts.Metrics,
		log:         opts.Logger,
		tasks:       make(chan task, queueSize),
	}

	for i := 0; i < workers; i++ {
		f.wg.Add(1)
		go f.worker()
	}

	return f
}

// Handle is the queue subscription entry point for one change event
func (f *Fanout) Handle(ctx context.Context, key string, value []byte) error {
	event := &models.ChangeEvent{}
	if err := json.Unmarshal(value, event); err != nil {
		// A malformed event can never succeed; log and drop rather than
		// letting the queue redeliver it forever.
		f.log.Error("failed to decode change event", "key", key, "error", err)
		return nil
	}

	if err := f.fanOut(ctx, event); err != nil {
		f.log.Error("fan-out failed", "key", key, "error", err)
	}

	return nil
}

// fanOut composes the notification and enqueues one delivery per subscriber
func (f *Fanout) fanOut(ctx context.Context, event *models.ChangeEvent) error {
	targetID, err := uuid.Parse(event.TargetID)
	if err != nil {
		return fmt.Errorf("malformed target id %q: %w", event.TargetID, err)
	}

	text, err := f.composeText(ctx, event)
	if err != nil {
		return err
	}
	redirectLink := event.RedirectLink()

	subscribers, err := f.listSubscribers(ctx, event, targetID)
	if err != nil {
		return err
	}

	delivered := 0
	for _, sub := range subscribers {
		// The actor never hears about their own edit.
		if sub.subscriberID == event.ActorID {
			continue
		}

		t := task{
			subscriberID: sub.subscriberID,
			filterExpr:   sub.filterExpr,
			event:        event,
			redirectLink: redirectLink,
			text:         text,
		}

		if f.enqueue(t) {
			delivered++
		} else {
			f.metrics.FanoutDropped.Inc()
			f.log.Warn("fan-out queue full or stopped, dropping notification",
				"subscriber_id", sub.subscriberID, "target_id", event.TargetID)
		}
	}

	f.log.Info("change event fanned out",
		"kind", event.Kind,
		"target_id", event.TargetID,
		"subscribers", len(subscribers),
		"enqueued", delivered,
	)

	return nil
}

// subscriberRef is the common shape of entity and collection subscriptions
type subscriberRef struct {
	subscriberID int64
	filterExpr   *string
}

// listSubscribers loads the subscriber list for the event's target
func (f *Fanout) listSubscribers(ctx context.Context, event *models.ChangeEvent, targetID uuid.UUID) ([]subscriberRef, error) {
	if event.Kind == models.ChangeEventCollection {
		subs, err := f.subscribers.ListCollectionSubscribers(ctx, targetID)
		if err != nil {
			return nil, fmt.Errorf("failed to list collection subscribers: %w", err)
		}
		refs := make([]subscriberRef, 0, len(subs))
		for _, sub := range subs {
			refs = append(refs, subscriberRef{subscriberID: sub.SubscriberID, filterExpr: sub.FilterExpr})
		}
		return refs, nil
	}

	subs, err := f.subscribers.ListEntitySubscribers(ctx, targetID)
	if err != nil {
		return nil, fmt.Errorf("failed to list entity subscribers: %w", err)
	}
	refs := make([]subscriberRef, 0, len(subs))
	for _, sub := range subs {
		refs = append(refs, subscriberRef{subscriberID: sub.SubscriberID, filterExpr: sub.FilterExpr})
	}
	return refs, nil
}

// composeText builds the human-readable notification message
func (f *Fanout) composeText(ctx context.Context, event *models.ChangeEvent) (string, error) {
	actor, err := f.editors.GetByID(ctx, event.ActorID)
	if err != nil {
		return "", fmt.Errorf("failed to resolve actor: %w", err)
	}

	if event.Kind == models.ChangeEventCollection {
		return fmt.Sprintf("%s updated collection: %s", actor.Name, event.Label), nil
	}
	return fmt.Sprintf("%s edited %s: %s", actor.Name, event.EntityType, event.Label), nil
}

// enqueue submits a delivery unless the queue is full or the fan-out has
// closed. The shutdown check and the send share one lock, so an event that
// arrives during shutdown is dropped instead of hitting a closed channel.
func (f *Fanout) enqueue(t task) bool {
	f.mu.RLock()
	defer f.mu.RUnlock()

	if f.closed {
		return false
	}

	select {
	case f.tasks <- t:
		return true
	default:
		return false
	}
}

// worker delivers tasks until the task channel closes
func (f *Fanout) worker() {
	defer f.wg.Done()

	for t := range f.tasks {
		f.deliver(t)
	}
}

// deliver applies the subscription filter and upserts the notification
func (f *Fanout) deliver(t task) {
	matched, err := f.filter.Matches(t.filterExpr, t.event)
	if err != nil {
		// Fail open: a broken filter does not suppress notifications.
		f.log.Warn("subscription filter error, delivering anyway",
			"subscriber_id", t.subscriberID, "error", err)
	}
	if !matched {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), upsertTimeout)
	defer cancel()

	if err := f.sink.Upsert(ctx, t.subscriberID, t.redirectLink, t.text); err != nil {
		f.metrics.FanoutFailures.Inc()
		f.log.Error("failed to upsert notification",
			"subscriber_id", t.subscriberID, "redirect_link", t.redirectLink, "error", err)
		return
	}

	f.metrics.NotificationsUpserts.Inc()
}

// Close stops accepting tasks and waits for in-flight deliveries. It is safe
// to call while the queue subscription is still feeding Handle, and safe to
// call more than once.
func (f *Fanout) Close() error {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return nil
	}
	f.closed = true
	close(f.tasks)
	f.mu.Unlock()

	f.wg.Wait()
	return nil
}
