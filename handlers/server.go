// ABOUTME: MCP server assembly
// ABOUTME: Registers every CRM tool, resource and prompt on one server
package handlers

import (
	"github.com/harperreed/crmdesk/crm"
	"github.com/harperreed/crmdesk/metrics"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// NewServer builds an MCP server over the CRM service. Run it with
// server.Run(ctx, &mcp.StdioTransport{}).
func NewServer(svc *crm.Service, m *metrics.Service, version string) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{
		Name:    "crmdesk",
		Version: version,
	}, nil)

	registerContactTools(server, NewContactHandlers(svc))
	registerCompanyTools(server, NewCompanyHandlers(svc, m))
	registerDealTools(server, NewDealHandlers(svc))
	registerTaskTools(server, NewTaskHandlers(svc))
	registerQuoteTools(server, NewQuoteHandlers(svc))
	registerActivityTools(server, NewActivityHandlers(svc))

	dashboard := NewDashboardHandlers(svc, m)
	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_dashboard",
		Description: "Pipeline, conversion, performance and top contact metrics for a date range",
	}, dashboard.GetDashboard)
	mcp.AddTool(server, &mcp.Tool{
		Name:        "generate_graph",
		Description: "Render the deal pipeline or the company/contact/deal account map as GraphViz DOT",
	}, dashboard.GenerateGraph)

	query := NewQueryHandlers(svc)
	mcp.AddTool(server, &mcp.Tool{
		Name:        "query_crm",
		Description: "Universal query tool for flexible filtering across all CRM entity types (contact, company, deal, task, quote, activity)",
	}, query.QueryCRM)

	registerResources(server, NewResourceHandlers(svc, m))
	registerPrompts(server, NewPromptHandlers(svc, m))
	return server
}

func registerContactTools(server *mcp.Server, h *ContactHandlers) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "add_contact",
		Description: "Add a new contact to the CRM",
	}, h.AddContact)
	mcp.AddTool(server, &mcp.Tool{
		Name:        "find_contacts",
		Description: "Search, sort and page through contacts",
	}, h.FindContacts)
	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_contact",
		Description: "Fetch one contact by id",
	}, h.GetContact)
	mcp.AddTool(server, &mcp.Tool{
		Name:        "update_contact",
		Description: "Update an existing contact's information",
	}, h.UpdateContact)
	mcp.AddTool(server, &mcp.Tool{
		Name:        "delete_contact",
		Description: "Delete a contact and unlink its deals and tasks",
	}, h.DeleteContact)
	mcp.AddTool(server, &mcp.Tool{
		Name:        "log_contact_interaction",
		Description: "Log a call or email with a contact and update the last contact date",
	}, h.LogInteraction)
}

func registerCompanyTools(server *mcp.Server, h *CompanyHandlers) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "add_company",
		Description: "Add a new company to the CRM",
	}, h.AddCompany)
	mcp.AddTool(server, &mcp.Tool{
		Name:        "find_companies",
		Description: "Search for companies by name, industry or website",
	}, h.FindCompanies)
	mcp.AddTool(server, &mcp.Tool{
		Name:        "update_company",
		Description: "Update an existing company",
	}, h.UpdateCompany)
	mcp.AddTool(server, &mcp.Tool{
		Name:        "delete_company",
		Description: "Delete a company and unlink its contacts and deals",
	}, h.DeleteCompany)
	mcp.AddTool(server, &mcp.Tool{
		Name:        "company_overview",
		Description: "Contacts, deals and total deal value for a company",
	}, h.CompanyOverview)
}

func registerDealTools(server *mcp.Server, h *DealHandlers) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "create_deal",
		Description: "Create a new deal; the stage defaults to Lead",
	}, h.CreateDeal)
	mcp.AddTool(server, &mcp.Tool{
		Name:        "find_deals",
		Description: "Search deals by text, stage or company",
	}, h.FindDeals)
	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_deal",
		Description: "Fetch one deal by id",
	}, h.GetDeal)
	mcp.AddTool(server, &mcp.Tool{
		Name:        "update_deal",
		Description: "Update an existing deal's information including stage and value",
	}, h.UpdateDeal)
	mcp.AddTool(server, &mcp.Tool{
		Name:        "move_deal",
		Description: "Move a deal to another pipeline stage",
	}, h.MoveDeal)
	mcp.AddTool(server, &mcp.Tool{
		Name:        "delete_deal",
		Description: "Delete a deal and unlink its tasks",
	}, h.DeleteDeal)
}

func registerTaskTools(server *mcp.Server, h *TaskHandlers) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "create_task",
		Description: "Create a follow-up task linked to a contact or deal",
	}, h.CreateTask)
	mcp.AddTool(server, &mcp.Tool{
		Name:        "find_tasks",
		Description: "List tasks by status, contact or deal, soonest due first",
	}, h.FindTasks)
	mcp.AddTool(server, &mcp.Tool{
		Name:        "update_task",
		Description: "Update an existing task",
	}, h.UpdateTask)
	mcp.AddTool(server, &mcp.Tool{
		Name:        "complete_task",
		Description: "Mark a task as completed",
	}, h.CompleteTask)
	mcp.AddTool(server, &mcp.Tool{
		Name:        "delete_task",
		Description: "Delete a task",
	}, h.DeleteTask)
}

func registerQuoteTools(server *mcp.Server, h *QuoteHandlers) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "create_quote",
		Description: "Create a quote with billing and shipping details",
	}, h.CreateQuote)
	mcp.AddTool(server, &mcp.Tool{
		Name:        "find_quotes",
		Description: "Search and page through quotes, optionally by status",
	}, h.FindQuotes)
	mcp.AddTool(server, &mcp.Tool{
		Name:        "set_quote_status",
		Description: "Set the status of one or more quotes",
	}, h.SetQuoteStatus)
	mcp.AddTool(server, &mcp.Tool{
		Name:        "delete_quotes",
		Description: "Delete one or more quotes",
	}, h.DeleteQuotes)
}

func registerActivityTools(server *mcp.Server, h *ActivityHandlers) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_timeline",
		Description: "Activity timeline for a contact, a deal, or both merged",
	}, h.GetTimeline)
	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_activities",
		Description: "Most recent activities, optionally filtered by type",
	}, h.ListActivities)
	mcp.AddTool(server, &mcp.Tool{
		Name:        "delete_activity",
		Description: "Delete an activity log entry",
	}, h.DeleteActivity)
}

func registerResources(server *mcp.Server, h *ResourceHandlers) {
	for _, r := range []*mcp.Resource{
		{URI: "crm://contacts", Name: "contacts", Description: "All contacts"},
		{URI: "crm://companies", Name: "companies", Description: "All companies"},
		{URI: "crm://deals", Name: "deals", Description: "All deals"},
		{URI: "crm://tasks", Name: "tasks", Description: "All tasks by due date"},
		{URI: "crm://pipeline", Name: "pipeline", Description: "Pipeline totals and conversion rates"},
		{URI: "crm://dashboard", Name: "dashboard", Description: "Full dashboard metrics"},
	} {
		r.MIMEType = "application/json"
		server.AddResource(r, h.ReadResource)
	}
	for _, t := range []*mcp.ResourceTemplate{
		{URITemplate: "crm://contacts/{id}", Name: "contact", Description: "One contact with its timeline"},
		{URITemplate: "crm://companies/{id}", Name: "company", Description: "One company with its contacts, deals and totals"},
		{URITemplate: "crm://deals/{id}", Name: "deal", Description: "One deal with next stages and timeline"},
	} {
		t.MIMEType = "application/json"
		server.AddResourceTemplate(t, h.ReadResource)
	}
}

func registerPrompts(server *mcp.Server, h *PromptHandlers) {
	server.AddPrompt(&mcp.Prompt{
		Name:        "contact-summary",
		Description: "Summarize a contact with tasks and recent activity",
		Arguments:   []*mcp.PromptArgument{{Name: "contact_id", Description: "Contact ID", Required: true}},
	}, h.GetPrompt)
	server.AddPrompt(&mcp.Prompt{
		Name:        "deal-analysis",
		Description: "Analyze pipeline health and conversion",
	}, h.GetPrompt)
	server.AddPrompt(&mcp.Prompt{
		Name:        "follow-up-suggestions",
		Description: "Contacts that have not been reached recently",
		Arguments:   []*mcp.PromptArgument{{Name: "days_since_contact", Description: "Days without contact (default 30)"}},
	}, h.GetPrompt)
	server.AddPrompt(&mcp.Prompt{
		Name:        "company-overview",
		Description: "Overview of a company's contacts and deals",
		Arguments:   []*mcp.PromptArgument{{Name: "company_id", Description: "Company ID", Required: true}},
	}, h.GetPrompt)
}
