// ABOUTME: Tests for the MCP tool, resource and prompt handlers
// ABOUTME: Runs each handler against seeded in-memory repositories
package handlers

import (
	"context"
	"testing"

	"github.com/harperreed/crmdesk/crm"
	"github.com/harperreed/crmdesk/metrics"
	"github.com/harperreed/crmdesk/models"
	"github.com/harperreed/crmdesk/seed"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupService(t *testing.T) (*crm.Service, *metrics.Service) {
	t.Helper()
	ctx := context.Background()
	repos := crm.NewMemoryRepos()
	_, err := seed.Load(ctx, seed.Fixtures(), repos, nil)
	require.NoError(t, err)
	svc, err := crm.New(ctx, repos)
	require.NoError(t, err)
	return svc, metrics.NewService(svc.MetricsSources())
}

func TestAddContactResolvesCompany(t *testing.T) {
	svc, _ := setupService(t)
	h := NewContactHandlers(svc)

	_, out, err := h.AddContact(context.Background(), nil, AddContactInput{
		Name:    "Jane Doe",
		Email:   "jane@acme.example.com",
		Phone:   "555-0199",
		Company: "acme corp",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(5), out.ID)
	require.NotNil(t, out.CompanyID)
	assert.Equal(t, int64(1), *out.CompanyID)
	assert.Nil(t, out.LastContactDate)
}

func TestAddContactValidation(t *testing.T) {
	svc, _ := setupService(t)
	h := NewContactHandlers(svc)

	_, _, err := h.AddContact(context.Background(), nil, AddContactInput{Name: "No Email", Phone: "555"})
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrValidation)
}

func TestFindContactsSorted(t *testing.T) {
	svc, _ := setupService(t)
	h := NewContactHandlers(svc)

	_, out, err := h.FindContacts(context.Background(), nil, FindContactsInput{})
	require.NoError(t, err)
	assert.Equal(t, 4, out.TotalItems)
	require.Len(t, out.Contacts, 4)
	assert.Equal(t, "David Wilson", out.Contacts[0].Name)

	_, out, err = h.FindContacts(context.Background(), nil, FindContactsInput{Query: "globex"})
	require.NoError(t, err)
	require.Len(t, out.Contacts, 1)
	assert.Equal(t, "Michael Chen", out.Contacts[0].Name)
}

func TestLogInteractionTouchesContact(t *testing.T) {
	svc, _ := setupService(t)
	h := NewContactHandlers(svc)
	ctx := context.Background()

	_, _, err := h.LogInteraction(ctx, nil, LogInteractionInput{ContactID: 2, Kind: "fax"})
	require.Error(t, err)

	_, _, err = h.LogInteraction(ctx, nil, LogInteractionInput{ContactID: 2, Kind: "call", Notes: "intro", Duration: 15})
	require.NoError(t, err)

	_, contact, err := h.GetContact(ctx, nil, IDInput{ID: 2})
	require.NoError(t, err)
	assert.NotNil(t, contact.LastContactDate)
}

func TestCreateDealDefaultsToLead(t *testing.T) {
	svc, _ := setupService(t)
	h := NewDealHandlers(svc)

	_, out, err := h.CreateDeal(context.Background(), nil, CreateDealInput{
		Company:           "Initech",
		DealValue:         3000,
		ExpectedCloseDate: "2025-06-01",
	})
	require.NoError(t, err)
	assert.Equal(t, "Lead", out.Stage)
	require.NotNil(t, out.CompanyID)
	assert.Equal(t, int64(3), *out.CompanyID)

	_, _, err = h.CreateDeal(context.Background(), nil, CreateDealInput{
		Company:           "Initech",
		DealValue:         3000,
		ExpectedCloseDate: "June",
	})
	assert.Error(t, err)
}

func TestMoveDealFollowsStageRules(t *testing.T) {
	svc, _ := setupService(t)
	h := NewDealHandlers(svc)
	ctx := context.Background()

	_, _, err := h.MoveDeal(ctx, nil, MoveDealInput{ID: 3, Stage: "Closed Won"})
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrInvalidTransition)

	_, out, err := h.MoveDeal(ctx, nil, MoveDealInput{ID: 3, Stage: "qualified"})
	require.NoError(t, err)
	assert.Equal(t, "Qualified", out.Deal.Stage)
	assert.Contains(t, out.Allowed, "Proposal")

	changes, err := svc.ListActivities(ctx, models.ActivityDealStageChanged)
	require.NoError(t, err)
	require.Len(t, changes, 1)
	assert.Equal(t, "Lead", changes[0].Details["oldStage"])
}

func TestFindDealsTotals(t *testing.T) {
	svc, _ := setupService(t)
	h := NewDealHandlers(svc)

	_, out, err := h.FindDeals(context.Background(), nil, FindDealsInput{CompanyID: 1})
	require.NoError(t, err)
	assert.Len(t, out.Deals, 2)
	assert.Equal(t, 65000.0, out.TotalValue)
}

func TestCreateTaskRequiresLink(t *testing.T) {
	svc, _ := setupService(t)
	h := NewTaskHandlers(svc)
	ctx := context.Background()

	_, _, err := h.CreateTask(ctx, nil, CreateTaskInput{Title: "Call back", DueDate: "2025-02-01"})
	require.ErrorIs(t, err, models.ErrValidation)

	_, _, err = h.CreateTask(ctx, nil, CreateTaskInput{Title: "Call back", DueDate: "2025-02-01", DealID: 42})
	require.Error(t, err)

	_, out, err := h.CreateTask(ctx, nil, CreateTaskInput{Title: "Call back", DueDate: "2025-02-01", ContactID: 4})
	require.NoError(t, err)
	assert.Equal(t, "pending", out.Status)
	assert.Equal(t, "call", out.Type)
	assert.Equal(t, "medium", out.Priority)
}

func TestCompleteTaskRecordsActivity(t *testing.T) {
	svc, _ := setupService(t)
	h := NewTaskHandlers(svc)
	ctx := context.Background()

	_, out, err := h.CompleteTask(ctx, nil, IDInput{ID: 2})
	require.NoError(t, err)
	assert.Equal(t, "completed", out.Status)

	_, _, err = h.CompleteTask(ctx, nil, IDInput{ID: 2})
	require.NoError(t, err)

	completed, err := svc.ListActivities(ctx, models.ActivityTaskCompleted)
	require.NoError(t, err)
	assert.Len(t, completed, 1)
}

func TestQuoteBatchesReportPerRecord(t *testing.T) {
	svc, _ := setupService(t)
	h := NewQuoteHandlers(svc)
	ctx := context.Background()

	_, _, err := h.SetQuoteStatus(ctx, nil, SetQuoteStatusInput{IDs: []int64{1}, Status: "Lost"})
	require.Error(t, err)

	_, out, err := h.SetQuoteStatus(ctx, nil, SetQuoteStatusInput{IDs: []int64{1, 99}, Status: "Accepted"})
	require.NoError(t, err)
	assert.Equal(t, 1, out.Succeeded)
	assert.Equal(t, 1, out.Failed)
	assert.True(t, out.Results[0].OK)
	assert.NotEmpty(t, out.Results[1].Error)

	_, found, err := h.FindQuotes(ctx, nil, FindQuotesInput{Status: "Accepted"})
	require.NoError(t, err)
	require.Len(t, found.Quotes, 1)
	assert.Equal(t, int64(1), found.Quotes[0].ID)

	_, out, err = h.DeleteQuotes(ctx, nil, DeleteQuotesInput{IDs: []int64{1, 2}})
	require.NoError(t, err)
	assert.Equal(t, 2, out.Succeeded)
}

func TestCompanyOverview(t *testing.T) {
	svc, m := setupService(t)
	h := NewCompanyHandlers(svc, m)

	_, out, err := h.CompanyOverview(context.Background(), nil, IDInput{ID: 1})
	require.NoError(t, err)
	assert.Equal(t, "Acme Corp", out.Company.Name)
	assert.Equal(t, 2, out.ContactCount)
	assert.Equal(t, 2, out.DealCount)
	assert.Equal(t, 65000.0, out.TotalDealValue)
}

func TestQueryCRM(t *testing.T) {
	svc, _ := setupService(t)
	h := NewQueryHandlers(svc)
	ctx := context.Background()

	_, out, err := h.QueryCRM(ctx, nil, QueryCRMInput{
		EntityType: "deal",
		Filters:    map[string]any{"min_amount": float64(10000)},
	})
	require.NoError(t, err)
	assert.Equal(t, 3, out.Count)

	_, out, err = h.QueryCRM(ctx, nil, QueryCRMInput{
		EntityType: "task",
		Filters:    map[string]any{"status": "pending"},
		Limit:      1,
	})
	require.NoError(t, err)
	require.Equal(t, 1, out.Count)
	assert.Equal(t, "Discovery call", out.Results[0].(TaskOutput).Title)

	_, _, err = h.QueryCRM(ctx, nil, QueryCRMInput{EntityType: "relationship"})
	assert.Error(t, err)
}

func TestTimelineRequiresTarget(t *testing.T) {
	svc, _ := setupService(t)
	h := NewActivityHandlers(svc)
	ctx := context.Background()

	_, _, err := h.GetTimeline(ctx, nil, TimelineInput{})
	require.Error(t, err)

	_, err = svc.UpdateStage(ctx, 2, models.StageProposal)
	require.NoError(t, err)

	_, out, err := h.GetTimeline(ctx, nil, TimelineInput{ContactID: 2})
	require.NoError(t, err)
	require.Equal(t, 1, out.Count)
	assert.Equal(t, "deal_stage_changed", out.Activities[0].Type)

	_, _, err = h.ListActivities(ctx, nil, ListActivitiesInput{Type: "coffee"})
	assert.Error(t, err)
}

func TestGetDashboard(t *testing.T) {
	svc, m := setupService(t)
	h := NewDashboardHandlers(svc, m)

	_, out, err := h.GetDashboard(context.Background(), nil, DashboardInput{})
	require.NoError(t, err)
	assert.Equal(t, "all", out.Range)
	assert.Equal(t, 5, out.TotalDeals)
	assert.Equal(t, 4, out.TotalContacts)
	assert.Equal(t, 40000.0, out.MonthlyRevenue)
	assert.Len(t, out.Pipeline, len(models.Stages))
	assert.Contains(t, out.Rendered, "PIPELINE OVERVIEW")
	require.NotEmpty(t, out.TopContacts)
	assert.Equal(t, "David Wilson", out.TopContacts[0].Name)
}

func TestGenerateGraph(t *testing.T) {
	svc, m := setupService(t)
	h := NewDashboardHandlers(svc, m)
	ctx := context.Background()

	_, out, err := h.GenerateGraph(ctx, nil, GenerateGraphInput{Type: "pipeline"})
	require.NoError(t, err)
	assert.Contains(t, out.DOTSource, "digraph")
	assert.Positive(t, out.EdgeCount)

	_, out, err = h.GenerateGraph(ctx, nil, GenerateGraphInput{Type: "accounts"})
	require.NoError(t, err)
	assert.Contains(t, out.DOTSource, "Sarah Johnson")

	_, _, err = h.GenerateGraph(ctx, nil, GenerateGraphInput{Type: "org-chart"})
	assert.Error(t, err)
}

func readResource(t *testing.T, h *ResourceHandlers, uri string) (string, error) {
	t.Helper()
	res, err := h.ReadResource(context.Background(), &mcp.ReadResourceRequest{
		Params: &mcp.ReadResourceParams{URI: uri},
	})
	if err != nil {
		return "", err
	}
	require.Len(t, res.Contents, 1)
	assert.Equal(t, "application/json", res.Contents[0].MIMEType)
	return res.Contents[0].Text, nil
}

func TestReadResource(t *testing.T) {
	svc, m := setupService(t)
	h := NewResourceHandlers(svc, m)

	text, err := readResource(t, h, "crm://companies/1")
	require.NoError(t, err)
	assert.Contains(t, text, "Sarah Johnson")
	assert.Contains(t, text, "totalDealValue")

	text, err = readResource(t, h, "crm://deals/3")
	require.NoError(t, err)
	assert.Contains(t, text, "nextStages")

	text, err = readResource(t, h, "crm://pipeline")
	require.NoError(t, err)
	assert.Contains(t, text, "Lead_to_Qualified")

	_, err = readResource(t, h, "crm://deals/abc")
	assert.Error(t, err)
	_, err = readResource(t, h, "crm://relationships")
	assert.Error(t, err)
	_, err = readResource(t, h, "http://contacts")
	assert.Error(t, err)
}

func getPrompt(h *PromptHandlers, name string, args map[string]string) (*mcp.GetPromptResult, error) {
	return h.GetPrompt(context.Background(), &mcp.GetPromptRequest{
		Params: &mcp.GetPromptParams{Name: name, Arguments: args},
	})
}

func promptText(t *testing.T, res *mcp.GetPromptResult) string {
	t.Helper()
	require.Len(t, res.Messages, 1)
	content, ok := res.Messages[0].Content.(*mcp.TextContent)
	require.True(t, ok)
	return content.Text
}

func TestGetPrompt(t *testing.T) {
	svc, m := setupService(t)
	h := NewPromptHandlers(svc, m)

	res, err := getPrompt(h, "company-overview", map[string]string{"company_id": "1"})
	require.NoError(t, err)
	text := promptText(t, res)
	assert.Contains(t, text, "Complete overview of: Acme Corp")
	assert.Contains(t, text, "Total Deal Value: $65000")

	res, err = getPrompt(h, "follow-up-suggestions", nil)
	require.NoError(t, err)
	assert.Contains(t, promptText(t, res), "Michael Chen at Globex (never contacted) [task pending]")

	res, err = getPrompt(h, "deal-analysis", nil)
	require.NoError(t, err)
	assert.Contains(t, promptText(t, res), "Total Deals: 5")

	_, err = getPrompt(h, "contact-summary", nil)
	assert.Error(t, err)
	_, err = getPrompt(h, "relationship-map", nil)
	assert.Error(t, err)
}
