// ABOUTME: MCP resource handlers for exposing CRM data
// ABOUTME: Read-only JSON views of contacts, companies, deals, tasks and the pipeline under crm://
package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/harperreed/crmdesk/crm"
	"github.com/harperreed/crmdesk/metrics"
	"github.com/harperreed/crmdesk/models"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const resourceScheme = "crm://"

type ResourceHandlers struct {
	svc     *crm.Service
	metrics *metrics.Service
}

func NewResourceHandlers(svc *crm.Service, m *metrics.Service) *ResourceHandlers {
	return &ResourceHandlers{svc: svc, metrics: m}
}

// ReadResource routes crm://<collection>[/<id>] to the matching reader.
func (h *ResourceHandlers) ReadResource(ctx context.Context, request *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	uri := request.Params.URI
	if !strings.HasPrefix(uri, resourceScheme) {
		return nil, fmt.Errorf("invalid URI scheme: expected %s", resourceScheme)
	}
	parts := strings.Split(strings.TrimPrefix(uri, resourceScheme), "/")

	var id int64
	if len(parts) > 1 {
		parsed, err := strconv.ParseInt(parts[1], 10, 64)
		if err != nil || parsed <= 0 {
			return nil, fmt.Errorf("invalid %s id: %s", strings.TrimSuffix(parts[0], "s"), parts[1])
		}
		id = parsed
	}

	var payload any
	var err error
	switch parts[0] {
	case "contacts":
		payload, err = h.contacts(ctx, id)
	case "companies":
		payload, err = h.companies(ctx, id)
	case "deals":
		payload, err = h.deals(ctx, id)
	case "tasks":
		payload, err = h.tasks(ctx)
	case "pipeline":
		payload, err = h.pipeline(ctx)
	case "dashboard":
		payload, err = h.metrics.Dashboard(ctx, metrics.AllTime)
	default:
		return nil, fmt.Errorf("unknown resource: %s", parts[0])
	}
	if err != nil {
		return nil, err
	}
	return jsonResource(uri, payload)
}

func jsonResource(uri string, payload any) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s: %w", uri, err)
	}
	return &mcp.ReadResourceResult{Contents: []*mcp.ResourceContents{
		{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}}, nil
}

func (h *ResourceHandlers) contacts(ctx context.Context, id int64) (any, error) {
	if id == 0 {
		page, err := h.svc.ListContacts(ctx, crm.ContactQuery{PageSize: -1})
		if err != nil {
			return nil, fmt.Errorf("failed to fetch contacts: %w", err)
		}
		return page.Items, nil
	}
	contact, err := h.svc.GetContact(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch contact: %w", err)
	}
	timeline, err := h.svc.ContactTimeline(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch contact timeline: %w", err)
	}
	return struct {
		models.Contact
		Timeline []models.Activity `json:"timeline"`
	}{contact, timeline}, nil
}

func (h *ResourceHandlers) companies(ctx context.Context, id int64) (any, error) {
	if id == 0 {
		companies, err := h.svc.ListCompanies(ctx, crm.CompanyQuery{})
		if err != nil {
			return nil, fmt.Errorf("failed to fetch companies: %w", err)
		}
		return companies, nil
	}
	company, err := h.svc.GetCompany(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch company: %w", err)
	}
	m, err := h.metrics.CompanyMetrics(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch company metrics: %w", err)
	}
	return metrics.CompanySummary{Company: company, CompanyMetrics: m}, nil
}

func (h *ResourceHandlers) deals(ctx context.Context, id int64) (any, error) {
	if id == 0 {
		deals, err := h.svc.ListDeals(ctx, crm.DealQuery{})
		if err != nil {
			return nil, fmt.Errorf("failed to fetch deals: %w", err)
		}
		return deals, nil
	}
	deal, err := h.svc.GetDeal(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch deal: %w", err)
	}
	timeline, err := h.svc.DealTimeline(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch deal timeline: %w", err)
	}
	return struct {
		models.Deal
		NextStages []models.Stage    `json:"nextStages"`
		Timeline   []models.Activity `json:"timeline"`
	}{deal, models.AllowedTransitions(deal.Stage), timeline}, nil
}

func (h *ResourceHandlers) tasks(ctx context.Context) (any, error) {
	page, err := h.svc.ListTasks(ctx, crm.TaskQuery{PageSize: -1})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch tasks: %w", err)
	}
	return page.Items, nil
}

func (h *ResourceHandlers) pipeline(ctx context.Context) (any, error) {
	p, err := h.metrics.PipelineMetrics(ctx, metrics.AllTime)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch pipeline: %w", err)
	}
	return p, nil
}
