// ABOUTME: Deal MCP tool handlers
// ABOUTME: Implements create, find, update, stage moves and deletion of deals
package handlers

import (
	"context"
	"fmt"

	"github.com/harperreed/crmdesk/crm"
	"github.com/harperreed/crmdesk/models"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type DealHandlers struct {
	svc *crm.Service
}

func NewDealHandlers(svc *crm.Service) *DealHandlers {
	return &DealHandlers{svc: svc}
}

type CreateDealInput struct {
	Company           string  `json:"company" jsonschema:"Company name (required)"`
	CompanyID         int64   `json:"company_id,omitempty" jsonschema:"Company ID"`
	ContactID         int64   `json:"contact_id,omitempty" jsonschema:"Primary contact ID"`
	ContactName       string  `json:"contact_name,omitempty" jsonschema:"Contact name when no contact ID is given"`
	DealValue         float64 `json:"deal_value" jsonschema:"Deal value in dollars (required, positive)"`
	Stage             string  `json:"stage,omitempty" jsonschema:"Lead, Qualified, Proposal, Closed Won or Closed Lost (default Lead)"`
	ExpectedCloseDate string  `json:"expected_close_date" jsonschema:"Expected close date YYYY-MM-DD (required)"`
	Description       string  `json:"description,omitempty" jsonschema:"Deal description"`
}

func (h *DealHandlers) CreateDeal(ctx context.Context, _ *mcp.CallToolRequest, input CreateDealInput) (*mcp.CallToolResult, DealOutput, error) {
	closeDate, err := parseDate("expected_close_date", input.ExpectedCloseDate)
	if err != nil {
		return nil, DealOutput{}, err
	}
	var stage models.Stage
	if input.Stage != "" {
		if stage, err = models.ParseStage(input.Stage); err != nil {
			return nil, DealOutput{}, err
		}
	}
	created, err := h.svc.CreateDeal(ctx, models.Deal{
		Company:           input.Company,
		CompanyID:         optionalID(input.CompanyID),
		ContactID:         optionalID(input.ContactID),
		ContactName:       input.ContactName,
		DealValue:         input.DealValue,
		Stage:             stage,
		ExpectedCloseDate: closeDate,
		Description:       input.Description,
	})
	if err != nil {
		return nil, DealOutput{}, fmt.Errorf("failed to create deal: %w", err)
	}
	return nil, dealToOutput(created), nil
}

type FindDealsInput struct {
	Query     string `json:"query,omitempty" jsonschema:"Search across company, contact name and description"`
	Stage     string `json:"stage,omitempty" jsonschema:"Filter by stage"`
	CompanyID int64  `json:"company_id,omitempty" jsonschema:"Filter by company ID"`
}

type FindDealsOutput struct {
	Deals      []DealOutput `json:"deals"`
	TotalValue float64      `json:"total_value"`
}

func (h *DealHandlers) FindDeals(ctx context.Context, _ *mcp.CallToolRequest, input FindDealsInput) (*mcp.CallToolResult, FindDealsOutput, error) {
	q := crm.DealQuery{Search: input.Query, CompanyID: optionalID(input.CompanyID)}
	if input.Stage != "" {
		stage, err := models.ParseStage(input.Stage)
		if err != nil {
			return nil, FindDealsOutput{}, err
		}
		q.Stage = stage
	}
	deals, err := h.svc.ListDeals(ctx, q)
	if err != nil {
		return nil, FindDealsOutput{}, fmt.Errorf("failed to find deals: %w", err)
	}
	out := FindDealsOutput{Deals: mapOutputs(deals, dealToOutput)}
	for _, d := range deals {
		out.TotalValue += d.DealValue
	}
	return nil, out, nil
}

func (h *DealHandlers) GetDeal(ctx context.Context, _ *mcp.CallToolRequest, input IDInput) (*mcp.CallToolResult, DealOutput, error) {
	if err := requireID(input.ID); err != nil {
		return nil, DealOutput{}, err
	}
	d, err := h.svc.GetDeal(ctx, input.ID)
	if err != nil {
		return nil, DealOutput{}, err
	}
	return nil, dealToOutput(d), nil
}

type UpdateDealInput struct {
	ID                int64   `json:"id" jsonschema:"Deal ID (required)"`
	DealValue         float64 `json:"deal_value,omitempty" jsonschema:"Updated deal value"`
	ContactID         int64   `json:"contact_id,omitempty" jsonschema:"Updated contact ID"`
	Stage             string  `json:"stage,omitempty" jsonschema:"New stage, checked against the stage rules"`
	ExpectedCloseDate string  `json:"expected_close_date,omitempty" jsonschema:"Updated close date YYYY-MM-DD"`
	Description       string  `json:"description,omitempty" jsonschema:"Updated description"`
}

func (h *DealHandlers) UpdateDeal(ctx context.Context, _ *mcp.CallToolRequest, input UpdateDealInput) (*mcp.CallToolResult, DealOutput, error) {
	if err := requireID(input.ID); err != nil {
		return nil, DealOutput{}, err
	}
	var patch crm.DealPatch
	if input.DealValue != 0 {
		patch.DealValue = &input.DealValue
	}
	if input.ContactID != 0 {
		patch.ContactID = &input.ContactID
	}
	if input.Description != "" {
		patch.Description = &input.Description
	}
	if input.ExpectedCloseDate != "" {
		d, err := parseDate("expected_close_date", input.ExpectedCloseDate)
		if err != nil {
			return nil, DealOutput{}, err
		}
		patch.ExpectedCloseDate = &d
	}
	if input.Stage != "" {
		stage, err := models.ParseStage(input.Stage)
		if err != nil {
			return nil, DealOutput{}, err
		}
		patch.Stage = &stage
	}
	updated, err := h.svc.UpdateDeal(ctx, input.ID, patch)
	if err != nil {
		return nil, DealOutput{}, fmt.Errorf("failed to update deal: %w", err)
	}
	return nil, dealToOutput(updated), nil
}

type MoveDealInput struct {
	ID    int64  `json:"id" jsonschema:"Deal ID (required)"`
	Stage string `json:"stage" jsonschema:"Target stage (required)"`
}

type MoveDealOutput struct {
	Deal    DealOutput `json:"deal"`
	Allowed []string   `json:"allowed_next_stages"`
}

func (h *DealHandlers) MoveDeal(ctx context.Context, _ *mcp.CallToolRequest, input MoveDealInput) (*mcp.CallToolResult, MoveDealOutput, error) {
	if err := requireID(input.ID); err != nil {
		return nil, MoveDealOutput{}, err
	}
	stage, err := models.ParseStage(input.Stage)
	if err != nil {
		return nil, MoveDealOutput{}, err
	}
	updated, err := h.svc.UpdateStage(ctx, input.ID, stage)
	if err != nil {
		return nil, MoveDealOutput{}, fmt.Errorf("failed to move deal: %w", err)
	}
	out := MoveDealOutput{Deal: dealToOutput(updated), Allowed: []string{}}
	for _, next := range models.AllowedTransitions(updated.Stage) {
		out.Allowed = append(out.Allowed, string(next))
	}
	return nil, out, nil
}

func (h *DealHandlers) DeleteDeal(ctx context.Context, _ *mcp.CallToolRequest, input IDInput) (*mcp.CallToolResult, DeleteOutput, error) {
	if err := requireID(input.ID); err != nil {
		return nil, DeleteOutput{}, err
	}
	removed, err := h.svc.DeleteDeal(ctx, input.ID)
	if err != nil {
		return nil, DeleteOutput{}, fmt.Errorf("failed to delete deal: %w", err)
	}
	return nil, DeleteOutput{Success: true, Message: fmt.Sprintf("Deleted deal %s", removed.DisplayName())}, nil
}
