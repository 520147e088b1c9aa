// ABOUTME: Generic in-memory entity repository with optional persistence and latency
// ABOUTME: Assigns monotonic identifiers and hands out defensive copies of records
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"
)

var ErrNotFound = errors.New("not found")

// NotFoundError names the missing record; it matches ErrNotFound.
type NotFoundError struct {
	Kind string
	ID   int64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found (id %d)", e.Kind, e.ID)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// Record is the pointer side of an entity type stored in a Memory repository.
type Record[T any] interface {
	*T
	GetID() int64
	SetID(int64)
	Touch(now time.Time, created bool)
	Clone() T
}

// Repository is the uniform contract every entity store satisfies.
type Repository[T any] interface {
	GetAll(ctx context.Context) ([]T, error)
	GetByID(ctx context.Context, id int64) (T, error)
	Create(ctx context.Context, rec T) (T, error)
	Update(ctx context.Context, id int64, mutate func(*T) error) (T, error)
	Delete(ctx context.Context, id int64) (T, error)
}

// Seedable is a Repository that can also bulk-load records with their
// identifiers, as fixture seeding does.
type Seedable[T any] interface {
	Repository[T]
	Len() int
	Import(ctx context.Context, recs []T) (int, error)
}

// Persister stores one opaque snapshot per bucket. Load returns nil, nil
// when the bucket has never been saved.
type Persister interface {
	Load(ctx context.Context, bucket string) ([]byte, error)
	Save(ctx context.Context, bucket string, payload []byte) error
}

// Observer receives one call per repository operation.
type Observer interface {
	ObserveStoreOp(bucket, op string, err error)
}

type options struct {
	minDelay  time.Duration
	maxDelay  time.Duration
	persister Persister
	observer  Observer
	now       func() time.Time
}

type Option func(*options)

// WithLatency delays each operation by a uniform duration in [min, max].
func WithLatency(min, max time.Duration) Option {
	return func(o *options) {
		if max < min {
			max = min
		}
		o.minDelay, o.maxDelay = min, max
	}
}

func WithPersister(p Persister) Option {
	return func(o *options) { o.persister = p }
}

func WithObserver(obs Observer) Option {
	return func(o *options) { o.observer = obs }
}

func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

type snapshot[T any] struct {
	NextID  int64 `json:"next_id"`
	Records []T   `json:"records"`
}

// Memory keeps records newest-first behind a RWMutex. Concurrent writers
// are serialized; the last write to a record wins.
type Memory[T any, P Record[T]] struct {
	bucket  string
	kind    string
	opts    options
	mu      sync.RWMutex
	records []T
	nextID  int64
}

// New creates an empty repository. bucket names the persisted snapshot,
// kind is used in error messages.
func New[T any, P Record[T]](bucket, kind string, opts ...Option) *Memory[T, P] {
	o := options{now: func() time.Time { return time.Now().UTC() }}
	for _, opt := range opts {
		opt(&o)
	}
	return &Memory[T, P]{bucket: bucket, kind: kind, opts: o, nextID: 1}
}

// Open creates a repository and hydrates it from the persister, if any.
func Open[T any, P Record[T]](ctx context.Context, bucket, kind string, opts ...Option) (*Memory[T, P], error) {
	m := New[T, P](bucket, kind, opts...)
	if m.opts.persister == nil {
		return m, nil
	}
	payload, err := m.opts.persister.Load(ctx, bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", bucket, err)
	}
	if len(payload) == 0 {
		return m, nil
	}
	var snap snapshot[T]
	if err := json.Unmarshal(payload, &snap); err != nil {
		return nil, fmt.Errorf("failed to decode %s snapshot: %w", bucket, err)
	}
	m.records = snap.Records
	m.nextID = snap.NextID
	for i := range m.records {
		if id := P(&m.records[i]).GetID(); id >= m.nextID {
			m.nextID = id + 1
		}
	}
	if m.nextID < 1 {
		m.nextID = 1
	}
	return m, nil
}

func (m *Memory[T, P]) Bucket() string { return m.bucket }

func (m *Memory[T, P]) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.records)
}

func (m *Memory[T, P]) wait(ctx context.Context) error {
	if m.opts.maxDelay <= 0 {
		return ctx.Err()
	}
	d := m.opts.minDelay
	if spread := m.opts.maxDelay - m.opts.minDelay; spread > 0 {
		d += time.Duration(rand.Int64N(int64(spread) + 1))
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (m *Memory[T, P]) observe(op string, err error) {
	if m.opts.observer != nil {
		m.opts.observer.ObserveStoreOp(m.bucket, op, err)
	}
}

func (m *Memory[T, P]) notFound(id int64) error {
	return &NotFoundError{Kind: m.kind, ID: id}
}

func (m *Memory[T, P]) indexOf(id int64) int {
	for i := range m.records {
		if P(&m.records[i]).GetID() == id {
			return i
		}
	}
	return -1
}

// persist saves the current state. Callers hold the write lock.
func (m *Memory[T, P]) persist(ctx context.Context) error {
	if m.opts.persister == nil {
		return nil
	}
	records := m.records
	if records == nil {
		records = []T{}
	}
	payload, err := json.Marshal(snapshot[T]{NextID: m.nextID, Records: records})
	if err != nil {
		return fmt.Errorf("failed to encode %s snapshot: %w", m.bucket, err)
	}
	if err := m.opts.persister.Save(ctx, m.bucket, payload); err != nil {
		return fmt.Errorf("failed to save %s: %w", m.bucket, err)
	}
	return nil
}

// commit swaps in the new state and persists it, restoring the old state
// when the save fails.
func (m *Memory[T, P]) commit(ctx context.Context, records []T, nextID int64) error {
	prevRecords, prevNext := m.records, m.nextID
	m.records, m.nextID = records, nextID
	if err := m.persist(ctx); err != nil {
		m.records, m.nextID = prevRecords, prevNext
		return err
	}
	return nil
}

func (m *Memory[T, P]) GetAll(ctx context.Context) ([]T, error) {
	if err := m.wait(ctx); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]T, len(m.records))
	for i := range m.records {
		out[i] = P(&m.records[i]).Clone()
	}
	m.observe("get_all", nil)
	return out, nil
}

func (m *Memory[T, P]) GetByID(ctx context.Context, id int64) (T, error) {
	var zero T
	if err := m.wait(ctx); err != nil {
		return zero, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	i := m.indexOf(id)
	if i < 0 {
		err := m.notFound(id)
		m.observe("get", err)
		return zero, err
	}
	m.observe("get", nil)
	return P(&m.records[i]).Clone(), nil
}

// Create assigns the next identifier and timestamps, then prepends the record.
func (m *Memory[T, P]) Create(ctx context.Context, rec T) (T, error) {
	var zero T
	if err := m.wait(ctx); err != nil {
		return zero, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	stored := P(&rec).Clone()
	P(&stored).SetID(m.nextID)
	P(&stored).Touch(m.opts.now(), true)

	records := make([]T, 0, len(m.records)+1)
	records = append(records, stored)
	records = append(records, m.records...)
	if err := m.commit(ctx, records, m.nextID+1); err != nil {
		m.observe("create", err)
		return zero, err
	}
	m.observe("create", nil)
	return P(&stored).Clone(), nil
}

// Update runs mutate on a copy of the record and stores the result.
// The identifier cannot be changed.
func (m *Memory[T, P]) Update(ctx context.Context, id int64, mutate func(*T) error) (T, error) {
	var zero T
	if err := m.wait(ctx); err != nil {
		return zero, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	i := m.indexOf(id)
	if i < 0 {
		err := m.notFound(id)
		m.observe("update", err)
		return zero, err
	}
	updated := P(&m.records[i]).Clone()
	if err := mutate(&updated); err != nil {
		m.observe("update", err)
		return zero, err
	}
	P(&updated).SetID(id)
	P(&updated).Touch(m.opts.now(), false)

	records := make([]T, len(m.records))
	copy(records, m.records)
	records[i] = updated
	if err := m.commit(ctx, records, m.nextID); err != nil {
		m.observe("update", err)
		return zero, err
	}
	m.observe("update", nil)
	return P(&updated).Clone(), nil
}

// Delete removes the record and returns it. Identifiers are never reused.
func (m *Memory[T, P]) Delete(ctx context.Context, id int64) (T, error) {
	var zero T
	if err := m.wait(ctx); err != nil {
		return zero, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	i := m.indexOf(id)
	if i < 0 {
		err := m.notFound(id)
		m.observe("delete", err)
		return zero, err
	}
	removed := m.records[i]
	records := make([]T, 0, len(m.records)-1)
	records = append(records, m.records[:i]...)
	records = append(records, m.records[i+1:]...)
	if err := m.commit(ctx, records, m.nextID); err != nil {
		m.observe("delete", err)
		return zero, err
	}
	m.observe("delete", nil)
	return removed, nil
}

// Import appends records with their existing identifiers in the given order.
// Records without an id get the next one; ids already present are skipped.
func (m *Memory[T, P]) Import(ctx context.Context, recs []T) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	records := make([]T, len(m.records), len(m.records)+len(recs))
	copy(records, m.records)
	nextID := m.nextID
	seen := make(map[int64]bool, len(records))
	for i := range records {
		seen[P(&records[i]).GetID()] = true
	}

	added := 0
	for _, rec := range recs {
		stored := P(&rec).Clone()
		id := P(&stored).GetID()
		if id <= 0 {
			id = nextID
			P(&stored).SetID(id)
		}
		if seen[id] {
			continue
		}
		seen[id] = true
		if id >= nextID {
			nextID = id + 1
		}
		records = append(records, stored)
		added++
	}
	if added == 0 {
		return 0, nil
	}
	if err := m.commit(ctx, records, nextID); err != nil {
		m.observe("import", err)
		return 0, err
	}
	m.observe("import", nil)
	return added, nil
}
