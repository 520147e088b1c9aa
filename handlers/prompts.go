// ABOUTME: MCP prompt handlers for reusable CRM workflow templates
// ABOUTME: Builds analysis prompts from live contact, deal, task and company data
package handlers

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/harperreed/crmdesk/crm"
	"github.com/harperreed/crmdesk/metrics"
	"github.com/harperreed/crmdesk/models"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const defaultFollowUpDays = 30

type PromptHandlers struct {
	svc     *crm.Service
	metrics *metrics.Service
	now     func() time.Time
}

func NewPromptHandlers(svc *crm.Service, m *metrics.Service) *PromptHandlers {
	return &PromptHandlers{svc: svc, metrics: m, now: time.Now}
}

// GetPrompt generates the prompt message for the named template.
func (h *PromptHandlers) GetPrompt(ctx context.Context, request *mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	args := request.Params.Arguments
	switch request.Params.Name {
	case "contact-summary":
		return h.contactSummary(ctx, args)
	case "deal-analysis":
		return h.dealAnalysis(ctx)
	case "follow-up-suggestions":
		return h.followUpSuggestions(ctx, args)
	case "company-overview":
		return h.companyOverview(ctx, args)
	default:
		return nil, fmt.Errorf("unknown prompt: %s", request.Params.Name)
	}
}

func promptResult(description, text string) *mcp.GetPromptResult {
	return &mcp.GetPromptResult{
		Description: description,
		Messages: []*mcp.PromptMessage{
			{
				Role:    "user",
				Content: &mcp.TextContent{Text: text},
			},
		},
	}
}

func idArgument(args map[string]string, name string) (int64, error) {
	raw, ok := args[name]
	if !ok || raw == "" {
		return 0, fmt.Errorf("%s is required", name)
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s: %s", name, raw)
	}
	return id, nil
}

func (h *PromptHandlers) contactSummary(ctx context.Context, args map[string]string) (*mcp.GetPromptResult, error) {
	id, err := idArgument(args, "contact_id")
	if err != nil {
		return nil, err
	}
	contact, err := h.svc.GetContact(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch contact: %w", err)
	}
	timeline, err := h.svc.ContactTimeline(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch timeline: %w", err)
	}
	tasks, err := h.svc.TasksByContact(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch tasks: %w", err)
	}

	var b strings.Builder
	b.WriteString("Please provide a comprehensive summary of this contact:\n\n")
	fmt.Fprintf(&b, "Name: %s\n", contact.Name)
	fmt.Fprintf(&b, "Email: %s\n", contact.Email)
	fmt.Fprintf(&b, "Phone: %s\n", contact.Phone)
	fmt.Fprintf(&b, "Company: %s\n", contact.Company)
	if contact.LastContactDate != nil {
		fmt.Fprintf(&b, "Last Contacted: %s\n", contact.LastContactDate.Format(time.DateOnly))
	} else {
		b.WriteString("Last Contacted: never\n")
	}
	if len(tasks) > 0 {
		fmt.Fprintf(&b, "\nTasks: %d\n", len(tasks))
		for _, t := range tasks {
			fmt.Fprintf(&b, "  - %s (%s, due %s, %s)\n", t.Title, t.Type, t.DueDate, t.Status)
		}
	}
	if len(timeline) > 0 {
		b.WriteString("\nRecent activity:\n")
		for i, a := range timeline {
			if i == 10 {
				break
			}
			fmt.Fprintf(&b, "  - %s %s\n", a.Timestamp.Format(time.DateOnly), a.Description)
		}
	}

	b.WriteString("\nPlease analyze this contact and provide:")
	b.WriteString("\n1. A brief summary of the relationship so far")
	b.WriteString("\n2. Recommendations for next steps or follow-up actions")
	b.WriteString("\n3. Any patterns or insights from their interaction history")

	return promptResult(fmt.Sprintf("Summary for contact: %s", contact.Name), b.String()), nil
}

func (h *PromptHandlers) dealAnalysis(ctx context.Context) (*mcp.GetPromptResult, error) {
	p, err := h.metrics.PipelineMetrics(ctx, metrics.AllTime)
	if err != nil {
		return nil, fmt.Errorf("failed to compute pipeline: %w", err)
	}

	var b strings.Builder
	b.WriteString("Please analyze the current deal pipeline:\n\n")
	fmt.Fprintf(&b, "Total Deals: %d\n", p.TotalDeals)
	fmt.Fprintf(&b, "Total Value: $%.0f\n", p.TotalPipelineValue)
	fmt.Fprintf(&b, "Average Deal Size: $%.0f\n\n", p.AverageDealSize)
	b.WriteString("Pipeline by Stage:\n")
	for _, s := range p.PipelineData {
		fmt.Fprintf(&b, "  - %s: %d deals, $%.0f\n", s.Stage, s.Count, s.Value)
	}
	b.WriteString("\nConversion:\n")
	for _, step := range p.ConversionRates.Steps {
		fmt.Fprintf(&b, "  - %s to %s: %d%%\n", step.From, step.To, step.Rate)
	}
	fmt.Fprintf(&b, "  - Overall: %d%%\n", p.ConversionRates.Overall)

	b.WriteString("\nPlease provide:")
	b.WriteString("\n1. Analysis of pipeline health and distribution")
	b.WriteString("\n2. Recommendations for deals that may need attention")
	b.WriteString("\n3. Suggestions for improving conversion rates")

	return promptResult("Deal pipeline analysis", b.String()), nil
}

func (h *PromptHandlers) followUpSuggestions(ctx context.Context, args map[string]string) (*mcp.GetPromptResult, error) {
	days := defaultFollowUpDays
	if raw, ok := args["days_since_contact"]; ok && raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return nil, fmt.Errorf("invalid days_since_contact: %s", raw)
		}
		days = n
	}
	page, err := h.svc.ListContacts(ctx, crm.ContactQuery{SortField: "lastContactDate", PageSize: -1})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch contacts: %w", err)
	}
	pending, err := h.svc.TasksByStatus(ctx, models.TaskPending)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch tasks: %w", err)
	}
	hasTask := make(map[int64]bool)
	for _, t := range pending {
		if t.ContactID != nil {
			hasTask[*t.ContactID] = true
		}
	}

	cutoff := h.now().AddDate(0, 0, -days)
	var b strings.Builder
	fmt.Fprintf(&b, "Contacts that may need follow-up (no contact in %d+ days):\n\n", days)
	count := 0
	for _, c := range page.Items {
		switch {
		case c.LastContactDate == nil:
			fmt.Fprintf(&b, "- %s at %s (never contacted)", c.Name, c.Company)
		case c.LastContactDate.Before(cutoff):
			fmt.Fprintf(&b, "- %s at %s (last contacted %s)", c.Name, c.Company, c.LastContactDate.Format(time.DateOnly))
		default:
			continue
		}
		if hasTask[c.ID] {
			b.WriteString(" [task pending]")
		}
		b.WriteString("\n")
		count++
	}
	if count == 0 {
		b.WriteString("All contacts have been contacted recently.\n")
	}

	b.WriteString("\nPlease:")
	b.WriteString("\n1. Prioritize which contacts to reach out to first")
	b.WriteString("\n2. Suggest personalized outreach approaches for each")
	b.WriteString("\n3. Identify any patterns in follow-up gaps")

	return promptResult("Follow-up suggestions for contacts", b.String()), nil
}

func (h *PromptHandlers) companyOverview(ctx context.Context, args map[string]string) (*mcp.GetPromptResult, error) {
	id, err := idArgument(args, "company_id")
	if err != nil {
		return nil, err
	}
	company, err := h.svc.GetCompany(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch company: %w", err)
	}
	m, err := h.metrics.CompanyMetrics(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to compute company metrics: %w", err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Complete overview of: %s\n\n", company.Name)
	fmt.Fprintf(&b, "Industry: %s\n", company.Industry)
	if company.Website != "" {
		fmt.Fprintf(&b, "Website: %s\n", company.Website)
	}

	fmt.Fprintf(&b, "\nContacts: %d people\n", m.ContactCount)
	for _, c := range m.Contacts {
		fmt.Fprintf(&b, "  - %s <%s>\n", c.Name, c.Email)
	}
	fmt.Fprintf(&b, "\nDeals: %d\n", m.DealCount)
	for _, d := range m.Deals {
		fmt.Fprintf(&b, "  - $%.0f (%s)\n", d.DealValue, d.Stage)
	}
	if m.DealCount > 0 {
		fmt.Fprintf(&b, "\nTotal Deal Value: $%.0f\n", m.TotalDealValue)
	}
	if company.Notes != "" {
		fmt.Fprintf(&b, "\nNotes: %s\n", company.Notes)
	}

	b.WriteString("\nPlease provide:")
	b.WriteString("\n1. A summary of the relationship with this company")
	b.WriteString("\n2. Key opportunities or risks")
	b.WriteString("\n3. Recommended next actions")

	return promptResult(fmt.Sprintf("Overview of %s", company.Name), b.String()), nil
}
