package viz

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/harperreed/crmdesk/metrics"
	"github.com/harperreed/crmdesk/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleDeals() []models.Deal {
	acme := models.ID(1)
	return []models.Deal{
		{ID: 1, Company: "Acme", CompanyID: acme, ContactID: models.ID(1), DealValue: 5000, Stage: models.StageLead},
		{ID: 2, Company: "Acme", CompanyID: acme, DealValue: 2000, Stage: models.StageLead},
		{ID: 3, Company: "Globex", DealValue: 7000, Stage: models.StageClosedWon},
	}
}

func TestRenderDashboard(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	d := metrics.Dashboard{
		Range:    metrics.AllTime,
		Pipeline: metrics.BuildPipeline(sampleDeals(), 2, metrics.AllTime, now),
		Performance: metrics.PerformanceMetrics{
			TotalTasks: 4, CompletedTasks: 1, TaskCompletionRate: 25,
			MonthlyTarget: 100000, MonthlyRevenue: 7000, TargetProgress: 7,
		},
		UpcomingTasks: []models.Task{{Title: "Call Jane", DueDate: models.NewDate(2025, 3, 12), Priority: models.PriorityHigh}},
		RecentActivity: []models.Activity{
			{Type: models.ActivityDealCreated, Description: "New deal created: Acme", Timestamp: now},
		},
	}

	out := RenderDashboard(d)
	assert.Contains(t, out, "CRMDESK DASHBOARD")
	assert.Contains(t, out, "PIPELINE OVERVIEW")
	assert.Contains(t, out, "██████████")
	assert.Contains(t, out, "Lead → Qualified: 0%")
	assert.Contains(t, out, "Tasks: 1/4 completed (25%)")
	assert.Contains(t, out, "$7K of $100K target")
	assert.Contains(t, out, "Call Jane")
	assert.Contains(t, out, "New deal created: Acme")
}

func TestRenderDashboardEmpty(t *testing.T) {
	out := RenderDashboard(metrics.Dashboard{Pipeline: metrics.BuildPipeline(nil, 0, metrics.AllTime, time.Now())})
	assert.Contains(t, out, "░░░░░░░░░░")
	assert.NotContains(t, out, "TOP CONTACTS")
	assert.NotContains(t, out, "UPCOMING TASKS")
}

func TestMoney(t *testing.T) {
	assert.Equal(t, "$950", money(950))
	assert.Equal(t, "$5K", money(5000))
	assert.Equal(t, "$1250K", money(1250000))
}

func TestRenderTimeline(t *testing.T) {
	assert.Contains(t, RenderTimeline(nil), "No activity yet")

	ts := time.Date(2025, 1, 2, 9, 30, 0, 0, time.UTC)
	out := RenderTimeline([]models.Activity{{Type: models.ActivityCallLogged, Description: "Call logged", Timestamp: ts, User: "Current User"}})
	assert.True(t, strings.HasPrefix(out, "2025-01-02 09:30"))
	assert.Contains(t, out, "call_logged")
}

func TestStageGraph(t *testing.T) {
	pipeline := metrics.PipelineData(sampleDeals())
	out, err := StageGraph(context.Background(), pipeline)
	require.NoError(t, err)
	assert.Contains(t, out, "digraph")
	assert.Contains(t, out, "Closed Won")
	assert.Contains(t, out, "2 deals")
	assert.Contains(t, out, "reopen")
}

func TestAccountGraph(t *testing.T) {
	companies := []models.Company{{ID: 1, Name: "Acme"}, {ID: 2, Name: "Globex"}}
	contacts := []models.Contact{{ID: 1, Name: "Jane Doe", Email: "jane@acme.test", CompanyID: models.ID(1)}}

	out, err := AccountGraph(context.Background(), companies, contacts, sampleDeals())
	require.NoError(t, err)
	assert.Contains(t, out, "Jane Doe")
	assert.Contains(t, out, "works at")
	assert.Contains(t, out, "company_2")
	assert.Contains(t, out, "deal_3")
	assert.Contains(t, out, "label=contact")
}
