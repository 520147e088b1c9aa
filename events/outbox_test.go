package events

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/harperreed/crmdesk/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type recordingSink struct {
	mu      sync.Mutex
	applied map[string]models.Activity
	order   []string
	fail    error
}

func newSink() *recordingSink {
	return &recordingSink{applied: map[string]models.Activity{}}
}

func (s *recordingSink) Apply(_ context.Context, id string, a models.Activity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail != nil {
		return s.fail
	}
	if _, ok := s.applied[id]; !ok {
		s.order = append(s.order, id)
	}
	s.applied[id] = a
	return nil
}

func (s *recordingSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.applied)
}

type memPersister struct {
	data map[string][]byte
}

func (p *memPersister) Load(_ context.Context, bucket string) ([]byte, error) {
	return p.data[bucket], nil
}

func (p *memPersister) Save(_ context.Context, bucket string, payload []byte) error {
	p.data[bucket] = payload
	return nil
}

func draft(desc string) models.Activity {
	return models.Activity{Type: models.ActivityCallLogged, Description: desc}
}

func TestEmitThenDeliverInOrder(t *testing.T) {
	ctx := context.Background()
	sink := newSink()
	o, err := New(ctx, sink, zap.NewNop())
	require.NoError(t, err)

	first, err := o.Emit(ctx, draft("one"))
	require.NoError(t, err)
	second, err := o.Emit(ctx, draft("two"))
	require.NoError(t, err)
	assert.Len(t, o.Pending(), 2)

	assert.Equal(t, 2, o.Deliver(ctx))
	assert.Empty(t, o.Pending())
	assert.Equal(t, []string{first, second}, sink.order)
}

func TestFailedDeliveryIsRetried(t *testing.T) {
	ctx := context.Background()
	sink := newSink()
	sink.fail = errors.New("log unavailable")

	core, logs := observer.New(zap.WarnLevel)
	o, err := New(ctx, sink, zap.New(core))
	require.NoError(t, err)

	_, err = o.Emit(ctx, draft("one"))
	require.NoError(t, err)

	assert.Equal(t, 0, o.Deliver(ctx))
	pending := o.Pending()
	require.Len(t, pending, 1)
	assert.Equal(t, 1, pending[0].Attempts)
	assert.Equal(t, "log unavailable", pending[0].LastError)
	assert.Equal(t, 1, logs.FilterMessage("activity delivery failed").Len())

	sink.mu.Lock()
	sink.fail = nil
	sink.mu.Unlock()
	assert.Equal(t, 1, o.Deliver(ctx))
	assert.Equal(t, 1, sink.count())
}

func TestPendingSurvivesRestart(t *testing.T) {
	ctx := context.Background()
	p := &memPersister{data: map[string][]byte{}}

	o, err := New(ctx, newSink(), nil, WithPersister(p))
	require.NoError(t, err)
	id, err := o.Emit(ctx, draft("queued"))
	require.NoError(t, err)

	sink := newSink()
	restarted, err := New(ctx, sink, nil, WithPersister(p))
	require.NoError(t, err)
	require.Len(t, restarted.Pending(), 1)
	assert.Equal(t, id, restarted.Pending()[0].ID)

	assert.Equal(t, 1, restarted.Deliver(ctx))
	assert.Equal(t, "queued", sink.applied[id].Description)

	again, err := New(ctx, newSink(), nil, WithPersister(p))
	require.NoError(t, err)
	assert.Empty(t, again.Pending())
}

func TestEventsCarryOrigin(t *testing.T) {
	ctx := context.Background()
	p := &memPersister{data: map[string][]byte{}}
	o, err := New(ctx, newSink(), nil, WithPersister(p), WithOrigin("01JDEVICE"))
	require.NoError(t, err)
	_, err = o.Emit(ctx, draft("tagged"))
	require.NoError(t, err)

	restarted, err := New(ctx, newSink(), nil, WithPersister(p))
	require.NoError(t, err)
	require.Len(t, restarted.Pending(), 1)
	assert.Equal(t, "01JDEVICE", restarted.Pending()[0].Origin)
}

type countingMetrics struct {
	delivered, failed, pending int
}

func (m *countingMetrics) OutboxDelivered()       { m.delivered++ }
func (m *countingMetrics) OutboxFailed()          { m.failed++ }
func (m *countingMetrics) SetOutboxPending(n int) { m.pending = n }

func TestMetricsReported(t *testing.T) {
	ctx := context.Background()
	m := &countingMetrics{}
	o, err := New(ctx, newSink(), nil, WithMetrics(m))
	require.NoError(t, err)

	_, _ = o.Emit(ctx, draft("a"))
	_, _ = o.Emit(ctx, draft("b"))
	assert.Equal(t, 2, m.pending)

	o.Deliver(ctx)
	assert.Equal(t, 2, m.delivered)
	assert.Equal(t, 0, m.pending)
}

func TestRunStopsWithContext(t *testing.T) {
	sink := newSink()
	o, err := New(context.Background(), sink, nil)
	require.NoError(t, err)
	_, _ = o.Emit(context.Background(), draft("tick"))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		o.Run(ctx, 5*time.Millisecond)
		close(done)
	}()

	require.Eventually(t, func() bool { return sink.count() == 1 }, time.Second, 5*time.Millisecond)
	cancel()
	<-done
}
