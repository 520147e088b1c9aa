// ABOUTME: Aggregation service that reads full collections and builds dashboard metrics
// ABOUTME: No caching; every call rescans the stores
package metrics

import (
	"context"
	"fmt"
	"time"

	"github.com/harperreed/crmdesk/models"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultMonthlyTarget  = 100000
	DefaultTopContacts    = 5
	DefaultRecentActivity = 10
	DefaultUpcomingTasks  = 10
)

type Lister[T any] interface {
	GetAll(ctx context.Context) ([]T, error)
}

type Getter[T any] interface {
	Lister[T]
	GetByID(ctx context.Context, id int64) (T, error)
}

// Sources are the collections the service scans.
type Sources struct {
	Contacts   Lister[models.Contact]
	Companies  Getter[models.Company]
	Deals      Lister[models.Deal]
	Tasks      Lister[models.Task]
	Activities Lister[models.Activity]
}

// FailureRecorder counts computations that were reported as zero.
type FailureRecorder interface {
	AggregationFailed(computation string)
}

type Service struct {
	src           Sources
	monthlyTarget float64
	now           func() time.Time
	logger        *zap.Logger
	failures      FailureRecorder
}

type Option func(*Service)

func WithMonthlyTarget(v float64) Option           { return func(s *Service) { s.monthlyTarget = v } }
func WithClock(now func() time.Time) Option        { return func(s *Service) { s.now = now } }
func WithLogger(l *zap.Logger) Option              { return func(s *Service) { s.logger = l } }
func WithFailureRecorder(f FailureRecorder) Option { return func(s *Service) { s.failures = f } }

func NewService(src Sources, opts ...Option) *Service {
	s := &Service{
		src:           src,
		monthlyTarget: DefaultMonthlyTarget,
		now:           time.Now,
		logger:        zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type PipelineMetrics struct {
	PipelineData       []StageSummary `json:"pipelineData"`
	ConversionRates    Conversion     `json:"conversionRates"`
	TotalPipelineValue float64        `json:"totalPipelineValue"`
	AverageDealSize    float64        `json:"averageDealSize"`
	TotalDeals         int            `json:"totalDeals"`
	TotalContacts      int            `json:"totalContacts"`
}

func (s *Service) PipelineMetrics(ctx context.Context, r DateRange) (PipelineMetrics, error) {
	var deals []models.Deal
	var contacts []models.Contact
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) { deals, err = s.src.Deals.GetAll(gctx); return err })
	g.Go(func() (err error) { contacts, err = s.src.Contacts.GetAll(gctx); return err })
	if err := g.Wait(); err != nil {
		return PipelineMetrics{}, fmt.Errorf("failed to load pipeline data: %w", err)
	}
	return BuildPipeline(deals, len(contacts), r, s.now()), nil
}

// BuildPipeline computes pipeline metrics for deals created within the range.
func BuildPipeline(deals []models.Deal, totalContacts int, r DateRange, now time.Time) PipelineMetrics {
	filtered := Filter(deals, r, now, func(d models.Deal) time.Time { return d.CreatedAt })
	m := PipelineMetrics{
		PipelineData:    PipelineData(filtered),
		ConversionRates: ConversionRates(filtered),
		TotalDeals:      len(filtered),
		TotalContacts:   totalContacts,
	}
	for _, d := range filtered {
		m.TotalPipelineValue += d.DealValue
	}
	if len(filtered) > 0 {
		m.AverageDealSize = m.TotalPipelineValue / float64(len(filtered))
	}
	return m
}

type PerformanceMetrics struct {
	TaskCompletionRate int     `json:"taskCompletionRate"`
	CompletedTasks     int     `json:"completedTasks"`
	TotalTasks         int     `json:"totalTasks"`
	MonthlyTarget      float64 `json:"monthlyTarget"`
	MonthlyRevenue     float64 `json:"monthlyRevenue"`
	TargetProgress     float64 `json:"targetProgress"`
	ActivitiesCount    int     `json:"activitiesCount"`
}

// PerformanceMetrics filters tasks and activities by the range. Revenue counts
// every Closed Won deal regardless of range.
func (s *Service) PerformanceMetrics(ctx context.Context, r DateRange) (PerformanceMetrics, error) {
	var tasks []models.Task
	var activities []models.Activity
	var deals []models.Deal
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) { tasks, err = s.src.Tasks.GetAll(gctx); return err })
	g.Go(func() (err error) { activities, err = s.src.Activities.GetAll(gctx); return err })
	g.Go(func() (err error) { deals, err = s.src.Deals.GetAll(gctx); return err })
	if err := g.Wait(); err != nil {
		return PerformanceMetrics{}, fmt.Errorf("failed to load performance data: %w", err)
	}

	now := s.now()
	tasks = Filter(tasks, r, now, func(t models.Task) time.Time { return t.CreatedAt })
	activities = Filter(activities, r, now, func(a models.Activity) time.Time { return a.Timestamp })

	m := PerformanceMetrics{
		TotalTasks:      len(tasks),
		MonthlyTarget:   s.monthlyTarget,
		ActivitiesCount: len(activities),
	}
	for _, t := range tasks {
		if t.Status == models.TaskCompleted {
			m.CompletedTasks++
		}
	}
	if m.TotalTasks > 0 {
		m.TaskCompletionRate = round(float64(m.CompletedTasks) / float64(m.TotalTasks) * 100)
	}
	for _, d := range deals {
		if d.Stage == models.StageClosedWon {
			m.MonthlyRevenue += d.DealValue
		}
	}
	if m.MonthlyTarget > 0 {
		m.TargetProgress = m.MonthlyRevenue / m.MonthlyTarget * 100
	}
	return m, nil
}

func (s *Service) TopContacts(ctx context.Context, limit int) ([]ContactMetrics, error) {
	if limit <= 0 {
		limit = DefaultTopContacts
	}
	var contacts []models.Contact
	var deals []models.Deal
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) { contacts, err = s.src.Contacts.GetAll(gctx); return err })
	g.Go(func() (err error) { deals, err = s.src.Deals.GetAll(gctx); return err })
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to load contact rankings: %w", err)
	}
	return RankContacts(contacts, deals, limit), nil
}

// RecentActivity returns the newest activities; the source is already sorted.
func (s *Service) RecentActivity(ctx context.Context, limit int) ([]models.Activity, error) {
	if limit <= 0 {
		limit = DefaultRecentActivity
	}
	activities, err := s.src.Activities.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load activities: %w", err)
	}
	if len(activities) > limit {
		activities = activities[:limit]
	}
	return activities, nil
}

func (s *Service) UpcomingTasks(ctx context.Context, limit int) ([]models.Task, error) {
	if limit <= 0 {
		limit = DefaultUpcomingTasks
	}
	tasks, err := s.src.Tasks.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load tasks: %w", err)
	}
	return Upcoming(tasks, limit), nil
}

func (s *Service) CompanyMetrics(ctx context.Context, companyID int64) (CompanyMetrics, error) {
	company, err := s.src.Companies.GetByID(ctx, companyID)
	if err != nil {
		return CompanyMetrics{}, err
	}
	var contacts []models.Contact
	var deals []models.Deal
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) { contacts, err = s.src.Contacts.GetAll(gctx); return err })
	g.Go(func() (err error) { deals, err = s.src.Deals.GetAll(gctx); return err })
	if err := g.Wait(); err != nil {
		return CompanyMetrics{}, fmt.Errorf("failed to load company data: %w", err)
	}
	return CompanyTotals(company, contacts, deals), nil
}

type CompanySummary struct {
	Company models.Company `json:"company"`
	CompanyMetrics
}

// CompanyOverview computes metrics for every company. A company whose
// metrics fail is reported with zero totals and the failure is logged.
func (s *Service) CompanyOverview(ctx context.Context) ([]CompanySummary, error) {
	companies, err := s.src.Companies.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load companies: %w", err)
	}
	out := make([]CompanySummary, 0, len(companies))
	for _, c := range companies {
		m, err := s.CompanyMetrics(ctx, c.ID)
		if err != nil {
			s.logger.Warn("company metrics failed, reporting zero",
				zap.Int64("company_id", c.ID),
				zap.String("company", c.Name),
				zap.Error(err))
			if s.failures != nil {
				s.failures.AggregationFailed("company_metrics")
			}
			m = CompanyMetrics{CompanyID: c.ID, Contacts: []models.Contact{}, Deals: []models.Deal{}}
		}
		out = append(out, CompanySummary{Company: c, CompanyMetrics: m})
	}
	return out, nil
}

type Dashboard struct {
	Range          DateRange          `json:"range"`
	Pipeline       PipelineMetrics    `json:"pipeline"`
	Performance    PerformanceMetrics `json:"performance"`
	TopContacts    []ContactMetrics   `json:"topContacts"`
	RecentActivity []models.Activity  `json:"recentActivity"`
	UpcomingTasks  []models.Task      `json:"upcomingTasks"`
}

// Dashboard runs every dashboard computation concurrently.
func (s *Service) Dashboard(ctx context.Context, r DateRange) (Dashboard, error) {
	d := Dashboard{Range: r}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) { d.Pipeline, err = s.PipelineMetrics(gctx, r); return err })
	g.Go(func() (err error) { d.Performance, err = s.PerformanceMetrics(gctx, r); return err })
	g.Go(func() (err error) { d.TopContacts, err = s.TopContacts(gctx, DefaultTopContacts); return err })
	g.Go(func() (err error) { d.RecentActivity, err = s.RecentActivity(gctx, DefaultRecentActivity); return err })
	g.Go(func() (err error) { d.UpcomingTasks, err = s.UpcomingTasks(gctx, DefaultUpcomingTasks); return err })
	if err := g.Wait(); err != nil {
		return Dashboard{}, err
	}
	return d, nil
}
