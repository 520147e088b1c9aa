// ABOUTME: Durable outbox for activity side effects of entity mutations
// ABOUTME: Delivers at least once to a sink; failures are logged and retried, never surfaced
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/harperreed/crmdesk/models"
	"go.uber.org/zap"
)

const Bucket = "outbox"

// Event is one pending activity write.
type Event struct {
	ID        string          `json:"id"`
	Origin    string          `json:"origin,omitempty"` // emitting device
	Activity  models.Activity `json:"activity"`
	Attempts  int             `json:"attempts"`
	LastError string          `json:"lastError,omitempty"`
	CreatedAt time.Time       `json:"createdAt"`
}

// Sink applies an event. Implementations must tolerate redelivery of the same id.
type Sink interface {
	Apply(ctx context.Context, eventID string, a models.Activity) error
}

// Persister matches store.Persister.
type Persister interface {
	Load(ctx context.Context, bucket string) ([]byte, error)
	Save(ctx context.Context, bucket string, payload []byte) error
}

// Metrics receives delivery outcomes; *telemetry.Metrics satisfies it.
type Metrics interface {
	OutboxDelivered()
	OutboxFailed()
	SetOutboxPending(n int)
}

type Outbox struct {
	sink      Sink
	persister Persister
	metrics   Metrics
	origin    string
	logger    *zap.Logger
	now       func() time.Time

	mu      sync.Mutex
	pending []Event

	// deliverMu serializes Deliver so events apply in order.
	deliverMu sync.Mutex
}

type Option func(*Outbox)

func WithPersister(p Persister) Option { return func(o *Outbox) { o.persister = p } }
func WithMetrics(m Metrics) Option     { return func(o *Outbox) { o.metrics = m } }
func WithOrigin(device string) Option  { return func(o *Outbox) { o.origin = device } }
func WithClock(now func() time.Time) Option {
	return func(o *Outbox) { o.now = now }
}

// New creates an outbox and restores undelivered events from the persister.
func New(ctx context.Context, sink Sink, logger *zap.Logger, opts ...Option) (*Outbox, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	o := &Outbox{
		sink:   sink,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.persister != nil {
		payload, err := o.persister.Load(ctx, Bucket)
		if err != nil {
			return nil, fmt.Errorf("failed to load outbox: %w", err)
		}
		if len(payload) > 0 {
			if err := json.Unmarshal(payload, &o.pending); err != nil {
				return nil, fmt.Errorf("failed to decode outbox: %w", err)
			}
		}
	}
	o.reportPending()
	return o, nil
}

// Emit queues an activity and returns its event id.
func (o *Outbox) Emit(ctx context.Context, a models.Activity) (string, error) {
	ev := Event{
		ID:        uuid.NewString(),
		Origin:    o.origin,
		Activity:  a,
		CreatedAt: o.now(),
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	o.pending = append(o.pending, ev)
	if err := o.saveLocked(ctx); err != nil {
		o.pending = o.pending[:len(o.pending)-1]
		return "", err
	}
	o.reportPendingLocked()
	return ev.ID, nil
}

// Origin names the device stamped on emitted events.
func (o *Outbox) Origin() string { return o.origin }

// Pending returns a copy of the undelivered events in emit order.
func (o *Outbox) Pending() []Event {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]Event, len(o.pending))
	for i, ev := range o.pending {
		ev.Activity = ev.Activity.Clone()
		out[i] = ev
	}
	return out
}

// Deliver applies pending events in order and returns how many succeeded.
// A failed event stays queued with its attempt count bumped.
func (o *Outbox) Deliver(ctx context.Context) int {
	o.deliverMu.Lock()
	defer o.deliverMu.Unlock()

	delivered := 0
	for _, ev := range o.Pending() {
		if ctx.Err() != nil {
			break
		}
		err := o.sink.Apply(ctx, ev.ID, ev.Activity)
		o.mu.Lock()
		if err != nil {
			o.markFailedLocked(ev.ID, err)
			if saveErr := o.saveLocked(ctx); saveErr != nil {
				o.logger.Warn("failed to persist outbox", zap.Error(saveErr))
			}
			o.mu.Unlock()
			o.logger.Warn("activity delivery failed",
				zap.String("event_id", ev.ID),
				zap.String("origin", ev.Origin),
				zap.String("type", string(ev.Activity.Type)),
				zap.Int("attempts", ev.Attempts+1),
				zap.Error(err))
			if o.metrics != nil {
				o.metrics.OutboxFailed()
			}
			continue
		}
		o.removeLocked(ev.ID)
		if saveErr := o.saveLocked(ctx); saveErr != nil {
			o.logger.Warn("failed to persist outbox", zap.Error(saveErr))
		}
		o.reportPendingLocked()
		o.mu.Unlock()
		delivered++
		if o.metrics != nil {
			o.metrics.OutboxDelivered()
		}
	}
	return delivered
}

// Run delivers on every tick until ctx is done.
func (o *Outbox) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := o.Deliver(ctx); n > 0 {
				o.logger.Debug("delivered activity events", zap.Int("count", n))
			}
		}
	}
}

func (o *Outbox) markFailedLocked(id string, err error) {
	for i := range o.pending {
		if o.pending[i].ID == id {
			o.pending[i].Attempts++
			o.pending[i].LastError = err.Error()
			return
		}
	}
}

func (o *Outbox) removeLocked(id string) {
	for i := range o.pending {
		if o.pending[i].ID == id {
			o.pending = append(o.pending[:i:i], o.pending[i+1:]...)
			return
		}
	}
}

func (o *Outbox) saveLocked(ctx context.Context) error {
	if o.persister == nil {
		return nil
	}
	pending := o.pending
	if pending == nil {
		pending = []Event{}
	}
	payload, err := json.Marshal(pending)
	if err != nil {
		return fmt.Errorf("failed to encode outbox: %w", err)
	}
	if err := o.persister.Save(ctx, Bucket, payload); err != nil {
		return fmt.Errorf("failed to save outbox: %w", err)
	}
	return nil
}

func (o *Outbox) reportPending() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.reportPendingLocked()
}

func (o *Outbox) reportPendingLocked() {
	if o.metrics != nil {
		o.metrics.SetOutboxPending(len(o.pending))
	}
}
