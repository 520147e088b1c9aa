package metrics

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/harperreed/crmdesk/models"
	"github.com/harperreed/crmdesk/store"
	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

var (
	testNow    = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	thisSpring = time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	lastYear   = time.Date(2024, 12, 1, 0, 0, 0, 0, time.UTC)
)

func deal(stage models.Stage, value float64, created time.Time) models.Deal {
	return models.Deal{Company: "Acme", Stage: stage, DealValue: value, CreatedAt: created}
}

func funnelDeals() []models.Deal {
	return []models.Deal{
		deal(models.StageLead, 1000, thisSpring),
		deal(models.StageLead, 2000, thisSpring),
		deal(models.StageLead, 3000, thisSpring),
		deal(models.StageQualified, 4000, thisSpring),
		deal(models.StageQualified, 5000, thisSpring),
		deal(models.StageProposal, 6000, thisSpring),
		deal(models.StageClosedWon, 7000, thisSpring),
		deal(models.StageClosedLost, 500, lastYear),
	}
}

func TestConversionRatesExample(t *testing.T) {
	deals := funnelDeals()[:7]
	c := ConversionRates(deals)

	assert.Equal(t, 14, c.Overall)
	rate, ok := c.Rate("Lead_to_Qualified")
	require.True(t, ok)
	assert.Equal(t, 67, rate)
	rate, _ = c.Rate("Qualified_to_Proposal")
	assert.Equal(t, 50, rate)
	rate, _ = c.Rate("Proposal_to_Closed Won")
	assert.Equal(t, 100, rate)
	_, ok = c.Rate("Lead_to_Proposal")
	assert.False(t, ok)
}

func TestConversionRatesEmpty(t *testing.T) {
	c := ConversionRates(nil)
	assert.Equal(t, 0, c.Overall)
	assert.Len(t, c.Steps, 3)
	for _, s := range c.Steps {
		assert.Equal(t, 0, s.Rate)
	}
}

func TestConversionIgnoresClosedLostInOverall(t *testing.T) {
	deals := []models.Deal{
		deal(models.StageClosedWon, 1, thisSpring),
		deal(models.StageClosedLost, 1, thisSpring),
	}
	assert.Equal(t, 100, ConversionRates(deals).Overall)
}

func TestPipelineGolden(t *testing.T) {
	m := BuildPipeline(funnelDeals(), 3, ThisYear, testNow)
	data, err := json.MarshalIndent(m, "", "  ")
	require.NoError(t, err)

	g := goldie.New(t)
	g.Assert(t, "pipeline_metrics", append(data, '\n'))
}

func TestPipelineAllTimeIncludesOldDeals(t *testing.T) {
	m := BuildPipeline(funnelDeals(), 0, AllTime, testNow)
	assert.Equal(t, 8, m.TotalDeals)
	assert.Equal(t, 1, m.PipelineData[4].Count)
	assert.Equal(t, 28500.0, m.TotalPipelineValue)
}

func TestDateRangeStart(t *testing.T) {
	start, ok := ThisMonth.Start(testNow)
	require.True(t, ok)
	assert.Equal(t, time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC), start)

	start, _ = ThisQuarter.Start(testNow)
	assert.Equal(t, time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC), start)

	start, _ = ThisYear.Start(testNow)
	assert.Equal(t, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), start)

	_, ok = AllTime.Start(testNow)
	assert.False(t, ok)

	assert.Equal(t, AllTime, ParseDateRange("lastDecade"))
	assert.Equal(t, ThisQuarter, ParseDateRange("thisQuarter"))
}

func TestRankContactsPrefersID(t *testing.T) {
	jane := models.Contact{ID: 1, Name: "Jane Doe"}
	john := models.Contact{ID: 2, Name: "John Roe"}
	deals := []models.Deal{
		{ContactID: models.ID(1), ContactName: "John Roe", DealValue: 100, Stage: models.StageLead},
		{ContactName: "john roe", DealValue: 50, Stage: models.StageClosedWon},
		{ContactID: models.ID(1), DealValue: 300, Stage: models.StageClosedLost},
	}

	ranked := RankContacts([]models.Contact{john, jane}, deals, 5)
	require.Len(t, ranked, 2)
	assert.Equal(t, "Jane Doe", ranked[0].Name)
	assert.Equal(t, 400.0, ranked[0].TotalValue)
	assert.Equal(t, 1, ranked[0].ActiveDeals)
	assert.Equal(t, 2, ranked[0].TotalDeals)
	assert.Equal(t, 50.0, ranked[1].TotalValue)
	assert.Equal(t, 1, ranked[1].WonDeals)

	assert.Len(t, RankContacts([]models.Contact{john, jane}, deals, 1), 1)
}

func TestUpcoming(t *testing.T) {
	tasks := []models.Task{
		{ID: 1, Status: models.TaskPending, DueDate: models.NewDate(2025, 3, 1)},
		{ID: 2, Status: models.TaskCompleted, DueDate: models.NewDate(2025, 1, 1)},
		{ID: 3, Status: models.TaskPending},
		{ID: 4, Status: models.TaskPending, DueDate: models.NewDate(2025, 2, 1)},
	}
	got := Upcoming(tasks, 10)
	require.Len(t, got, 2)
	assert.Equal(t, int64(4), got[0].ID)
	assert.Equal(t, int64(1), got[1].ID)
}

func TestCompanyTotals(t *testing.T) {
	acme := models.Company{ID: 1, Name: "Acme"}
	contacts := []models.Contact{
		{ID: 1, Company: "ACME"},
		{ID: 2, Company: "Acme", CompanyID: models.ID(9)},
		{ID: 3, Company: "Other", CompanyID: models.ID(1)},
	}
	deals := []models.Deal{
		{ID: 1, Company: "acme", DealValue: 100},
		{ID: 2, Company: "Globex", DealValue: 50},
	}
	m := CompanyTotals(acme, contacts, deals)
	assert.Equal(t, 2, m.ContactCount)
	assert.Equal(t, 1, m.DealCount)
	assert.Equal(t, 100.0, m.TotalDealValue)
}

type fixture struct {
	contacts   *store.Memory[models.Contact, *models.Contact]
	companies  *store.Memory[models.Company, *models.Company]
	deals      *store.Memory[models.Deal, *models.Deal]
	tasks      *store.Memory[models.Task, *models.Task]
	activities *store.Memory[models.Activity, *models.Activity]
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	ctx := context.Background()
	f := fixture{
		contacts:   store.New[models.Contact, *models.Contact]("contacts", "Contact"),
		companies:  store.New[models.Company, *models.Company]("companies", "Company"),
		deals:      store.New[models.Deal, *models.Deal]("deals", "Deal"),
		tasks:      store.New[models.Task, *models.Task]("tasks", "Task"),
		activities: store.New[models.Activity, *models.Activity]("activities", "Activity"),
	}
	_, err := f.contacts.Import(ctx, []models.Contact{
		{ID: 1, Name: "Jane Doe", Company: "Acme"},
		{ID: 2, Name: "John Roe", Company: "Globex"},
	})
	require.NoError(t, err)
	_, err = f.companies.Import(ctx, []models.Company{{ID: 1, Name: "Acme"}, {ID: 2, Name: "Globex"}})
	require.NoError(t, err)
	_, err = f.deals.Import(ctx, []models.Deal{
		{ID: 1, Company: "Acme", ContactID: models.ID(1), DealValue: 60000, Stage: models.StageClosedWon, CreatedAt: thisSpring},
		{ID: 2, Company: "Globex", ContactID: models.ID(2), DealValue: 1000, Stage: models.StageLead, CreatedAt: thisSpring},
	})
	require.NoError(t, err)
	_, err = f.tasks.Import(ctx, []models.Task{
		{ID: 1, Title: "a", Status: models.TaskCompleted, CreatedAt: thisSpring},
		{ID: 2, Title: "b", Status: models.TaskPending, DueDate: models.NewDate(2025, 7, 1), CreatedAt: thisSpring},
		{ID: 3, Title: "c", Status: models.TaskPending, CreatedAt: lastYear},
	})
	require.NoError(t, err)
	_, err = f.activities.Import(ctx, []models.Activity{
		{ID: 2, Type: models.ActivityCallLogged, Timestamp: thisSpring.Add(time.Hour)},
		{ID: 1, Type: models.ActivityEmailSent, Timestamp: lastYear},
	})
	require.NoError(t, err)
	return f
}

func (f fixture) service(opts ...Option) *Service {
	return NewService(Sources{
		Contacts:   f.contacts,
		Companies:  f.companies,
		Deals:      f.deals,
		Tasks:      f.tasks,
		Activities: f.activities,
	}, append([]Option{WithClock(func() time.Time { return testNow })}, opts...)...)
}

func TestPerformanceMetrics(t *testing.T) {
	s := newFixture(t).service()
	m, err := s.PerformanceMetrics(context.Background(), ThisYear)
	require.NoError(t, err)

	assert.Equal(t, 2, m.TotalTasks)
	assert.Equal(t, 1, m.CompletedTasks)
	assert.Equal(t, 50, m.TaskCompletionRate)
	assert.Equal(t, 100000.0, m.MonthlyTarget)
	assert.Equal(t, 60000.0, m.MonthlyRevenue)
	assert.InDelta(t, 60.0, m.TargetProgress, 0.001)
	assert.Equal(t, 1, m.ActivitiesCount)
}

func TestMonthlyTargetOption(t *testing.T) {
	s := newFixture(t).service(WithMonthlyTarget(120000))
	m, err := s.PerformanceMetrics(context.Background(), AllTime)
	require.NoError(t, err)
	assert.InDelta(t, 50.0, m.TargetProgress, 0.001)
	assert.Equal(t, 3, m.TotalTasks)
}

func TestDashboard(t *testing.T) {
	s := newFixture(t).service()
	d, err := s.Dashboard(context.Background(), ThisYear)
	require.NoError(t, err)

	assert.Equal(t, 2, d.Pipeline.TotalDeals)
	assert.Equal(t, 2, d.Pipeline.TotalContacts)
	require.Len(t, d.TopContacts, 2)
	assert.Equal(t, "Jane Doe", d.TopContacts[0].Name)
	require.Len(t, d.UpcomingTasks, 1)
	assert.Equal(t, "b", d.UpcomingTasks[0].Title)
	assert.Len(t, d.RecentActivity, 2)
}

func TestRecentActivityLimit(t *testing.T) {
	s := newFixture(t).service()
	got, err := s.RecentActivity(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, int64(2), got[0].ID)
}

func TestCompanyMetricsNotFound(t *testing.T) {
	s := newFixture(t).service()
	_, err := s.CompanyMetrics(context.Background(), 99)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

type flakyCompanies struct {
	*store.Memory[models.Company, *models.Company]
	failID int64
}

func (f flakyCompanies) GetByID(ctx context.Context, id int64) (models.Company, error) {
	if id == f.failID {
		return models.Company{}, errors.New("backend timeout")
	}
	return f.Memory.GetByID(ctx, id)
}

type failureCounter struct{ n int }

func (f *failureCounter) AggregationFailed(string) { f.n++ }

func TestCompanyOverviewDefaultsFailuresToZero(t *testing.T) {
	f := newFixture(t)
	core, logs := observer.New(zap.WarnLevel)
	counter := &failureCounter{}
	s := NewService(Sources{
		Contacts:   f.contacts,
		Companies:  flakyCompanies{Memory: f.companies, failID: 2},
		Deals:      f.deals,
		Tasks:      f.tasks,
		Activities: f.activities,
	}, WithLogger(zap.New(core)), WithFailureRecorder(counter))

	overview, err := s.CompanyOverview(context.Background())
	require.NoError(t, err)
	require.Len(t, overview, 2)

	byName := map[string]CompanySummary{}
	for _, o := range overview {
		byName[o.Company.Name] = o
	}
	assert.Equal(t, 1, byName["Acme"].ContactCount)
	assert.Equal(t, 60000.0, byName["Acme"].TotalDealValue)
	assert.Equal(t, 0, byName["Globex"].ContactCount)
	assert.Equal(t, 0.0, byName["Globex"].TotalDealValue)
	assert.Equal(t, 1, counter.n)
	assert.Equal(t, 1, logs.Len())
}
