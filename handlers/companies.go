// ABOUTME: Company MCP tool handlers
// ABOUTME: Implements add, find, update, delete and the per-company overview
package handlers

import (
	"context"
	"fmt"

	"github.com/harperreed/crmdesk/crm"
	"github.com/harperreed/crmdesk/metrics"
	"github.com/harperreed/crmdesk/models"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type CompanyHandlers struct {
	svc     *crm.Service
	metrics *metrics.Service
}

func NewCompanyHandlers(svc *crm.Service, m *metrics.Service) *CompanyHandlers {
	return &CompanyHandlers{svc: svc, metrics: m}
}

type AddCompanyInput struct {
	Name     string `json:"name" jsonschema:"Company name (required)"`
	Industry string `json:"industry" jsonschema:"Industry (required)"`
	Website  string `json:"website,omitempty" jsonschema:"Website URL starting with http:// or https://"`
	Address  string `json:"address,omitempty" jsonschema:"Postal address"`
	Notes    string `json:"notes,omitempty" jsonschema:"Additional notes"`
}

func (h *CompanyHandlers) AddCompany(ctx context.Context, _ *mcp.CallToolRequest, input AddCompanyInput) (*mcp.CallToolResult, CompanyOutput, error) {
	created, err := h.svc.CreateCompany(ctx, models.Company{
		Name:     input.Name,
		Industry: input.Industry,
		Website:  input.Website,
		Address:  input.Address,
		Notes:    input.Notes,
	})
	if err != nil {
		return nil, CompanyOutput{}, fmt.Errorf("failed to create company: %w", err)
	}
	return nil, companyToOutput(created), nil
}

type FindCompaniesInput struct {
	Query string `json:"query,omitempty" jsonschema:"Search across name, industry and website"`
	Limit int    `json:"limit,omitempty" jsonschema:"Maximum number of results (default 10)"`
}

type FindCompaniesOutput struct {
	Companies []CompanyOutput `json:"companies"`
}

func (h *CompanyHandlers) FindCompanies(ctx context.Context, _ *mcp.CallToolRequest, input FindCompaniesInput) (*mcp.CallToolResult, FindCompaniesOutput, error) {
	limit := input.Limit
	if limit == 0 {
		limit = 10
	}
	companies, err := h.svc.ListCompanies(ctx, crm.CompanyQuery{Search: input.Query})
	if err != nil {
		return nil, FindCompaniesOutput{}, fmt.Errorf("failed to find companies: %w", err)
	}
	if len(companies) > limit {
		companies = companies[:limit]
	}
	return nil, FindCompaniesOutput{Companies: mapOutputs(companies, companyToOutput)}, nil
}

type UpdateCompanyInput struct {
	ID       int64  `json:"id" jsonschema:"Company ID (required)"`
	Name     string `json:"name,omitempty" jsonschema:"Updated name"`
	Industry string `json:"industry,omitempty" jsonschema:"Updated industry"`
	Website  string `json:"website,omitempty" jsonschema:"Updated website"`
	Address  string `json:"address,omitempty" jsonschema:"Updated address"`
	Notes    string `json:"notes,omitempty" jsonschema:"Updated notes"`
}

func (h *CompanyHandlers) UpdateCompany(ctx context.Context, _ *mcp.CallToolRequest, input UpdateCompanyInput) (*mcp.CallToolResult, CompanyOutput, error) {
	if err := requireID(input.ID); err != nil {
		return nil, CompanyOutput{}, err
	}
	var patch crm.CompanyPatch
	if input.Name != "" {
		patch.Name = &input.Name
	}
	if input.Industry != "" {
		patch.Industry = &input.Industry
	}
	if input.Website != "" {
		patch.Website = &input.Website
	}
	if input.Address != "" {
		patch.Address = &input.Address
	}
	if input.Notes != "" {
		patch.Notes = &input.Notes
	}
	updated, err := h.svc.UpdateCompany(ctx, input.ID, patch)
	if err != nil {
		return nil, CompanyOutput{}, fmt.Errorf("failed to update company: %w", err)
	}
	return nil, companyToOutput(updated), nil
}

func (h *CompanyHandlers) DeleteCompany(ctx context.Context, _ *mcp.CallToolRequest, input IDInput) (*mcp.CallToolResult, DeleteOutput, error) {
	if err := requireID(input.ID); err != nil {
		return nil, DeleteOutput{}, err
	}
	removed, err := h.svc.DeleteCompany(ctx, input.ID)
	if err != nil {
		return nil, DeleteOutput{}, fmt.Errorf("failed to delete company: %w", err)
	}
	return nil, DeleteOutput{Success: true, Message: fmt.Sprintf("Deleted company %s", removed.Name)}, nil
}

type CompanyOverviewOutput struct {
	Company        CompanyOutput   `json:"company"`
	ContactCount   int             `json:"contact_count"`
	DealCount      int             `json:"deal_count"`
	TotalDealValue float64         `json:"total_deal_value"`
	Contacts       []ContactOutput `json:"contacts"`
	Deals          []DealOutput    `json:"deals"`
}

func (h *CompanyHandlers) CompanyOverview(ctx context.Context, _ *mcp.CallToolRequest, input IDInput) (*mcp.CallToolResult, CompanyOverviewOutput, error) {
	if err := requireID(input.ID); err != nil {
		return nil, CompanyOverviewOutput{}, err
	}
	company, err := h.svc.GetCompany(ctx, input.ID)
	if err != nil {
		return nil, CompanyOverviewOutput{}, err
	}
	m, err := h.metrics.CompanyMetrics(ctx, input.ID)
	if err != nil {
		return nil, CompanyOverviewOutput{}, fmt.Errorf("failed to compute company metrics: %w", err)
	}
	return nil, CompanyOverviewOutput{
		Company:        companyToOutput(company),
		ContactCount:   m.ContactCount,
		DealCount:      m.DealCount,
		TotalDealValue: m.TotalDealValue,
		Contacts:       mapOutputs(m.Contacts, contactToOutput),
		Deals:          mapOutputs(m.Deals, dealToOutput),
	}, nil
}
