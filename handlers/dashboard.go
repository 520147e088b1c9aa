// ABOUTME: Dashboard and graph MCP tool handlers
// ABOUTME: Exposes metrics aggregates and graphviz renderings of pipeline and accounts
package handlers

import (
	"context"
	"fmt"
	"strings"

	"github.com/harperreed/crmdesk/crm"
	"github.com/harperreed/crmdesk/metrics"
	"github.com/harperreed/crmdesk/viz"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type DashboardHandlers struct {
	svc     *crm.Service
	metrics *metrics.Service
}

func NewDashboardHandlers(svc *crm.Service, m *metrics.Service) *DashboardHandlers {
	return &DashboardHandlers{svc: svc, metrics: m}
}

type DashboardInput struct {
	Range string `json:"range,omitempty" jsonschema:"thisMonth, thisQuarter, thisYear or all (default all)"`
}

type StageOutput struct {
	Stage string  `json:"stage"`
	Count int     `json:"count"`
	Value float64 `json:"value"`
}

type ContactRankOutput struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	TotalValue  float64 `json:"total_value"`
	ActiveDeals int     `json:"active_deals"`
	WonDeals    int     `json:"won_deals"`
	TotalDeals  int     `json:"total_deals"`
}

type DashboardOutput struct {
	Range              string              `json:"range"`
	Pipeline           []StageOutput       `json:"pipeline"`
	ConversionRates    map[string]int      `json:"conversion_rates"`
	TotalPipelineValue float64             `json:"total_pipeline_value"`
	AverageDealSize    float64             `json:"average_deal_size"`
	TotalDeals         int                 `json:"total_deals"`
	TotalContacts      int                 `json:"total_contacts"`
	TaskCompletionRate int                 `json:"task_completion_rate"`
	MonthlyRevenue     float64             `json:"monthly_revenue"`
	MonthlyTarget      float64             `json:"monthly_target"`
	TargetProgress     float64             `json:"target_progress"`
	ActivitiesCount    int                 `json:"activities_count"`
	TopContacts        []ContactRankOutput `json:"top_contacts"`
	RecentActivity     []ActivityOutput    `json:"recent_activity"`
	UpcomingTasks      []TaskOutput        `json:"upcoming_tasks"`
	Rendered           string              `json:"rendered"`
}

func (h *DashboardHandlers) GetDashboard(ctx context.Context, _ *mcp.CallToolRequest, input DashboardInput) (*mcp.CallToolResult, DashboardOutput, error) {
	r := metrics.ParseDateRange(input.Range)
	d, err := h.metrics.Dashboard(ctx, r)
	if err != nil {
		return nil, DashboardOutput{}, fmt.Errorf("failed to build dashboard: %w", err)
	}
	out := DashboardOutput{
		Range:              string(d.Range),
		ConversionRates:    d.Pipeline.ConversionRates.Map(),
		TotalPipelineValue: d.Pipeline.TotalPipelineValue,
		AverageDealSize:    d.Pipeline.AverageDealSize,
		TotalDeals:         d.Pipeline.TotalDeals,
		TotalContacts:      d.Pipeline.TotalContacts,
		TaskCompletionRate: d.Performance.TaskCompletionRate,
		MonthlyRevenue:     d.Performance.MonthlyRevenue,
		MonthlyTarget:      d.Performance.MonthlyTarget,
		TargetProgress:     d.Performance.TargetProgress,
		ActivitiesCount:    d.Performance.ActivitiesCount,
		RecentActivity:     mapOutputs(d.RecentActivity, activityToOutput),
		UpcomingTasks:      mapOutputs(d.UpcomingTasks, taskToOutput),
		Rendered:           viz.RenderDashboard(d),
	}
	for _, s := range d.Pipeline.PipelineData {
		out.Pipeline = append(out.Pipeline, StageOutput{Stage: string(s.Stage), Count: s.Count, Value: s.Value})
	}
	for _, c := range d.TopContacts {
		out.TopContacts = append(out.TopContacts, ContactRankOutput{
			ID:          c.ID,
			Name:        c.Name,
			TotalValue:  c.TotalValue,
			ActiveDeals: c.ActiveDeals,
			WonDeals:    c.WonDeals,
			TotalDeals:  c.TotalDeals,
		})
	}
	return nil, out, nil
}

type GenerateGraphInput struct {
	Type string `json:"type" jsonschema:"Graph type: pipeline or accounts"`
}

type GenerateGraphOutput struct {
	GraphType string `json:"graph_type"`
	DOTSource string `json:"dot_source"`
	EdgeCount int    `json:"edge_count"`
}

func (h *DashboardHandlers) GenerateGraph(ctx context.Context, _ *mcp.CallToolRequest, input GenerateGraphInput) (*mcp.CallToolResult, GenerateGraphOutput, error) {
	repos := h.svc.Repos()
	var dot string
	switch input.Type {
	case "pipeline":
		deals, err := repos.Deals.GetAll(ctx)
		if err != nil {
			return nil, GenerateGraphOutput{}, err
		}
		dot, err = viz.StageGraph(ctx, metrics.PipelineData(deals))
		if err != nil {
			return nil, GenerateGraphOutput{}, fmt.Errorf("failed to generate graph: %w", err)
		}
	case "accounts":
		companies, err := repos.Companies.GetAll(ctx)
		if err != nil {
			return nil, GenerateGraphOutput{}, err
		}
		contacts, err := repos.Contacts.GetAll(ctx)
		if err != nil {
			return nil, GenerateGraphOutput{}, err
		}
		deals, err := repos.Deals.GetAll(ctx)
		if err != nil {
			return nil, GenerateGraphOutput{}, err
		}
		dot, err = viz.AccountGraph(ctx, companies, contacts, deals)
		if err != nil {
			return nil, GenerateGraphOutput{}, fmt.Errorf("failed to generate graph: %w", err)
		}
	default:
		return nil, GenerateGraphOutput{}, fmt.Errorf("unknown graph type: %s (valid types: pipeline, accounts)", input.Type)
	}
	return nil, GenerateGraphOutput{
		GraphType: input.Type,
		DOTSource: dot,
		EdgeCount: strings.Count(dot, "->"),
	}, nil
}
