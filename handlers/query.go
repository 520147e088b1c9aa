// ABOUTME: Universal query tool handler
// ABOUTME: Implements flexible filtering across all CRM entity types
package handlers

import (
	"context"
	"fmt"

	"github.com/harperreed/crmdesk/crm"
	"github.com/harperreed/crmdesk/models"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type QueryHandlers struct {
	svc *crm.Service
}

func NewQueryHandlers(svc *crm.Service) *QueryHandlers {
	return &QueryHandlers{svc: svc}
}

type QueryCRMInput struct {
	EntityType string         `json:"entity_type" jsonschema:"Type of entity to query (contact, company, deal, task, quote, activity)"`
	Query      string         `json:"query,omitempty" jsonschema:"Search text"`
	Filters    map[string]any `json:"filters,omitempty" jsonschema:"Additional filters: stage, company_id, min_amount, max_amount, status, contact_id, deal_id, type"`
	Limit      int            `json:"limit,omitempty" jsonschema:"Maximum results to return (default 10)"`
}

type QueryCRMOutput struct {
	EntityType string `json:"entity_type"`
	Results    []any  `json:"results"`
	Count      int    `json:"count"`
}

func (h *QueryHandlers) QueryCRM(ctx context.Context, _ *mcp.CallToolRequest, input QueryCRMInput) (*mcp.CallToolResult, QueryCRMOutput, error) {
	if input.Limit == 0 {
		input.Limit = 10
	}

	var results []any
	var err error
	switch input.EntityType {
	case "contact":
		results, err = h.queryContacts(ctx, input)
	case "company":
		results, err = h.queryCompanies(ctx, input)
	case "deal":
		results, err = h.queryDeals(ctx, input)
	case "task":
		results, err = h.queryTasks(ctx, input)
	case "quote":
		results, err = h.queryQuotes(ctx, input)
	case "activity":
		results, err = h.queryActivities(ctx, input)
	default:
		return nil, QueryCRMOutput{}, fmt.Errorf("invalid entity_type: %s (valid: contact, company, deal, task, quote, activity)", input.EntityType)
	}
	if err != nil {
		return nil, QueryCRMOutput{}, err
	}
	if len(results) > input.Limit {
		results = results[:input.Limit]
	}
	if results == nil {
		results = []any{}
	}
	return nil, QueryCRMOutput{EntityType: input.EntityType, Results: results, Count: len(results)}, nil
}

func filterID(filters map[string]any, key string) *int64 {
	if v, ok := filters[key].(float64); ok && v > 0 {
		return models.ID(int64(v))
	}
	return nil
}

func filterString(filters map[string]any, key string) string {
	s, _ := filters[key].(string)
	return s
}

func filterAmount(filters map[string]any, key string) (float64, bool) {
	v, ok := filters[key].(float64)
	return v, ok
}

func toAny[T, O any](items []T, conv func(T) O) []any {
	out := make([]any, len(items))
	for i, it := range items {
		out[i] = conv(it)
	}
	return out
}

func (h *QueryHandlers) queryContacts(ctx context.Context, input QueryCRMInput) ([]any, error) {
	page, err := h.svc.ListContacts(ctx, crm.ContactQuery{Search: input.Query, PageSize: -1})
	if err != nil {
		return nil, fmt.Errorf("failed to find contacts: %w", err)
	}
	contacts := page.Items
	if companyID := filterID(input.Filters, "company_id"); companyID != nil {
		kept := contacts[:0:0]
		for _, c := range contacts {
			if c.CompanyID != nil && *c.CompanyID == *companyID {
				kept = append(kept, c)
			}
		}
		contacts = kept
	}
	return toAny(contacts, contactToOutput), nil
}

func (h *QueryHandlers) queryCompanies(ctx context.Context, input QueryCRMInput) ([]any, error) {
	companies, err := h.svc.ListCompanies(ctx, crm.CompanyQuery{Search: input.Query})
	if err != nil {
		return nil, fmt.Errorf("failed to find companies: %w", err)
	}
	return toAny(companies, companyToOutput), nil
}

func (h *QueryHandlers) queryDeals(ctx context.Context, input QueryCRMInput) ([]any, error) {
	q := crm.DealQuery{Search: input.Query, CompanyID: filterID(input.Filters, "company_id")}
	if s := filterString(input.Filters, "stage"); s != "" {
		stage, err := models.ParseStage(s)
		if err != nil {
			return nil, err
		}
		q.Stage = stage
	}
	deals, err := h.svc.ListDeals(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("failed to find deals: %w", err)
	}
	minAmount, hasMin := filterAmount(input.Filters, "min_amount")
	maxAmount, hasMax := filterAmount(input.Filters, "max_amount")
	kept := deals[:0:0]
	for _, d := range deals {
		if hasMin && d.DealValue < minAmount {
			continue
		}
		if hasMax && d.DealValue > maxAmount {
			continue
		}
		kept = append(kept, d)
	}
	return toAny(kept, dealToOutput), nil
}

func (h *QueryHandlers) queryTasks(ctx context.Context, input QueryCRMInput) ([]any, error) {
	page, err := h.svc.ListTasks(ctx, crm.TaskQuery{
		Search:    input.Query,
		Status:    models.TaskStatus(filterString(input.Filters, "status")),
		ContactID: filterID(input.Filters, "contact_id"),
		DealID:    filterID(input.Filters, "deal_id"),
		PageSize:  -1,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to find tasks: %w", err)
	}
	return toAny(page.Items, taskToOutput), nil
}

func (h *QueryHandlers) queryQuotes(ctx context.Context, input QueryCRMInput) ([]any, error) {
	page, err := h.svc.ListQuotes(ctx, crm.QuoteQuery{
		Search:   input.Query,
		Status:   filterString(input.Filters, "status"),
		PageSize: -1,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to find quotes: %w", err)
	}
	return toAny(page.Items, quoteToOutput), nil
}

func (h *QueryHandlers) queryActivities(ctx context.Context, input QueryCRMInput) ([]any, error) {
	list, err := h.svc.ListActivities(ctx, models.ActivityType(filterString(input.Filters, "type")))
	if err != nil {
		return nil, fmt.Errorf("failed to find activities: %w", err)
	}
	contactID := filterID(input.Filters, "contact_id")
	dealID := filterID(input.Filters, "deal_id")
	kept := list[:0:0]
	for _, a := range list {
		if contactID != nil && (a.ContactID == nil || *a.ContactID != *contactID) {
			continue
		}
		if dealID != nil && (a.DealID == nil || *a.DealID != *dealID) {
			continue
		}
		kept = append(kept, a)
	}
	return toAny(kept, activityToOutput), nil
}
