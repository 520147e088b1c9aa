// ABOUTME: Application service composing entity repositories, the activity log and the outbox
// ABOUTME: Every mutation that has an audit side effect emits it through the outbox
package crm

import (
	"context"
	"fmt"
	"time"

	"github.com/harperreed/crmdesk/activity"
	"github.com/harperreed/crmdesk/events"
	"github.com/harperreed/crmdesk/metrics"
	"github.com/harperreed/crmdesk/models"
	"github.com/harperreed/crmdesk/store"
	"go.uber.org/zap"
)

// Repos holds one repository per entity. Any implementation works; the
// constructors below return store.Memory repositories.
type Repos struct {
	Contacts   store.Seedable[models.Contact]
	Companies  store.Seedable[models.Company]
	Deals      store.Seedable[models.Deal]
	Tasks      store.Seedable[models.Task]
	Quotes     store.BatchRepository[models.Quote]
	Activities store.Repository[models.Activity]
}

// NewMemoryRepos creates empty repositories sharing the given store options.
func NewMemoryRepos(opts ...store.Option) Repos {
	return Repos{
		Contacts:   store.New[models.Contact]("contacts", "Contact", opts...),
		Companies:  store.New[models.Company]("companies", "Company", opts...),
		Deals:      store.New[models.Deal]("deals", "Deal", opts...),
		Tasks:      store.New[models.Task]("tasks", "Task", opts...),
		Quotes:     store.New[models.Quote]("quotes", "Quote", opts...),
		Activities: store.New[models.Activity]("activities", "Activity", opts...),
	}
}

// OpenRepos hydrates every repository from the persister passed in opts.
func OpenRepos(ctx context.Context, opts ...store.Option) (Repos, error) {
	var r Repos
	var err error
	if r.Contacts, err = store.Open[models.Contact](ctx, "contacts", "Contact", opts...); err != nil {
		return Repos{}, err
	}
	if r.Companies, err = store.Open[models.Company](ctx, "companies", "Company", opts...); err != nil {
		return Repos{}, err
	}
	if r.Deals, err = store.Open[models.Deal](ctx, "deals", "Deal", opts...); err != nil {
		return Repos{}, err
	}
	if r.Tasks, err = store.Open[models.Task](ctx, "tasks", "Task", opts...); err != nil {
		return Repos{}, err
	}
	if r.Quotes, err = store.Open[models.Quote](ctx, "quotes", "Quote", opts...); err != nil {
		return Repos{}, err
	}
	if r.Activities, err = store.Open[models.Activity](ctx, "activities", "Activity", opts...); err != nil {
		return Repos{}, err
	}
	return r, nil
}

type Service struct {
	repos    Repos
	recorder *activity.Recorder
	outbox   *events.Outbox
	policy   models.TransitionPolicy
	logger   *zap.Logger
	now      func() time.Time

	user          string
	asyncDelivery bool
	outboxOpts    []events.Option
}

type Option func(*Service)

func WithPolicy(p models.TransitionPolicy) Option { return func(s *Service) { s.policy = p } }
func WithLogger(l *zap.Logger) Option             { return func(s *Service) { s.logger = l } }
func WithClock(now func() time.Time) Option       { return func(s *Service) { s.now = now } }
func WithUser(user string) Option                 { return func(s *Service) { s.user = user } }

// WithAsyncDelivery leaves outbox delivery to Outbox().Run instead of
// draining after every mutation.
func WithAsyncDelivery() Option { return func(s *Service) { s.asyncDelivery = true } }

// WithOutboxOptions configures the outbox, typically with a persister and metrics.
func WithOutboxOptions(opts ...events.Option) Option {
	return func(s *Service) { s.outboxOpts = append(s.outboxOpts, opts...) }
}

func New(ctx context.Context, repos Repos, opts ...Option) (*Service, error) {
	s := &Service{
		repos:  repos,
		logger: zap.NewNop(),
		now:    func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	s.recorder = activity.NewRecorder(repos.Activities, s.user, s.now)

	outboxOpts := append([]events.Option{events.WithClock(s.now)}, s.outboxOpts...)
	outbox, err := events.New(ctx, s.recorder, s.logger.Named("outbox"), outboxOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to open outbox: %w", err)
	}
	s.outbox = outbox
	if !s.asyncDelivery {
		// Anything left over from a previous run goes out first.
		s.outbox.Deliver(ctx)
	}
	return s, nil
}

func (s *Service) Repos() Repos                    { return s.repos }
func (s *Service) Recorder() *activity.Recorder    { return s.recorder }
func (s *Service) Outbox() *events.Outbox          { return s.outbox }
func (s *Service) Policy() models.TransitionPolicy { return s.policy }

// MetricsSources exposes the collections the dashboard scans. Activities come
// from the recorder so they arrive newest-first.
func (s *Service) MetricsSources() metrics.Sources {
	return metrics.Sources{
		Contacts:   s.repos.Contacts,
		Companies:  s.repos.Companies,
		Deals:      s.repos.Deals,
		Tasks:      s.repos.Tasks,
		Activities: s.recorder,
	}
}

// emit queues an activity. Failures are logged and never reach the caller.
func (s *Service) emit(ctx context.Context, a models.Activity) {
	id, err := s.outbox.Emit(ctx, a)
	if err != nil {
		s.logger.Warn("failed to queue activity",
			zap.String("type", string(a.Type)),
			zap.Error(err))
		return
	}
	s.logger.Debug("queued activity", zap.String("event_id", id), zap.String("type", string(a.Type)))
	if !s.asyncDelivery {
		s.outbox.Deliver(ctx)
	}
}
