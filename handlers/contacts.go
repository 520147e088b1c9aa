// ABOUTME: Contact MCP tool handlers
// ABOUTME: Implements add, find, get, update, delete and interaction logging for contacts
package handlers

import (
	"context"
	"fmt"

	"github.com/harperreed/crmdesk/crm"
	"github.com/harperreed/crmdesk/models"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type ContactHandlers struct {
	svc *crm.Service
}

func NewContactHandlers(svc *crm.Service) *ContactHandlers {
	return &ContactHandlers{svc: svc}
}

type AddContactInput struct {
	Name      string `json:"name" jsonschema:"Contact name (required)"`
	Email     string `json:"email" jsonschema:"Contact email address (required)"`
	Phone     string `json:"phone" jsonschema:"Contact phone number (required)"`
	Company   string `json:"company,omitempty" jsonschema:"Company name, matched to an existing company when possible"`
	CompanyID int64  `json:"company_id,omitempty" jsonschema:"Company ID, takes precedence over company"`
}

func (h *ContactHandlers) AddContact(ctx context.Context, _ *mcp.CallToolRequest, input AddContactInput) (*mcp.CallToolResult, ContactOutput, error) {
	contact := models.Contact{
		Name:      input.Name,
		Email:     input.Email,
		Phone:     input.Phone,
		Company:   input.Company,
		CompanyID: optionalID(input.CompanyID),
	}
	created, err := h.svc.CreateContact(ctx, contact)
	if err != nil {
		return nil, ContactOutput{}, fmt.Errorf("failed to create contact: %w", err)
	}
	return nil, contactToOutput(created), nil
}

type FindContactsInput struct {
	Query     string `json:"query,omitempty" jsonschema:"Search across name, email, company and phone"`
	SortField string `json:"sort_field,omitempty" jsonschema:"name, email, company, phone or lastContactDate (default name)"`
	SortDir   string `json:"sort_dir,omitempty" jsonschema:"asc or desc (default asc)"`
	Page      int    `json:"page,omitempty" jsonschema:"Page number starting at 1"`
}

type FindContactsOutput struct {
	Contacts   []ContactOutput `json:"contacts"`
	Page       int             `json:"page"`
	TotalPages int             `json:"total_pages"`
	TotalItems int             `json:"total_items"`
}

func (h *ContactHandlers) FindContacts(ctx context.Context, _ *mcp.CallToolRequest, input FindContactsInput) (*mcp.CallToolResult, FindContactsOutput, error) {
	page, err := h.svc.ListContacts(ctx, crm.ContactQuery{
		Search:    input.Query,
		SortField: input.SortField,
		SortDir:   crm.SortDirection(input.SortDir),
		Page:      input.Page,
	})
	if err != nil {
		return nil, FindContactsOutput{}, fmt.Errorf("failed to find contacts: %w", err)
	}
	return nil, FindContactsOutput{
		Contacts:   mapOutputs(page.Items, contactToOutput),
		Page:       page.Page,
		TotalPages: page.TotalPages,
		TotalItems: page.TotalItems,
	}, nil
}

func (h *ContactHandlers) GetContact(ctx context.Context, _ *mcp.CallToolRequest, input IDInput) (*mcp.CallToolResult, ContactOutput, error) {
	if err := requireID(input.ID); err != nil {
		return nil, ContactOutput{}, err
	}
	c, err := h.svc.GetContact(ctx, input.ID)
	if err != nil {
		return nil, ContactOutput{}, err
	}
	return nil, contactToOutput(c), nil
}

type UpdateContactInput struct {
	ID        int64  `json:"id" jsonschema:"Contact ID (required)"`
	Name      string `json:"name,omitempty" jsonschema:"Updated contact name"`
	Email     string `json:"email,omitempty" jsonschema:"Updated email address"`
	Phone     string `json:"phone,omitempty" jsonschema:"Updated phone number"`
	Company   string `json:"company,omitempty" jsonschema:"Updated company name"`
	CompanyID int64  `json:"company_id,omitempty" jsonschema:"Updated company ID"`
}

func (h *ContactHandlers) UpdateContact(ctx context.Context, _ *mcp.CallToolRequest, input UpdateContactInput) (*mcp.CallToolResult, ContactOutput, error) {
	if err := requireID(input.ID); err != nil {
		return nil, ContactOutput{}, err
	}
	var patch crm.ContactPatch
	if input.Name != "" {
		patch.Name = &input.Name
	}
	if input.Email != "" {
		patch.Email = &input.Email
	}
	if input.Phone != "" {
		patch.Phone = &input.Phone
	}
	if input.Company != "" {
		patch.Company = &input.Company
	}
	if input.CompanyID != 0 {
		patch.CompanyID = &input.CompanyID
	}
	updated, err := h.svc.UpdateContact(ctx, input.ID, patch)
	if err != nil {
		return nil, ContactOutput{}, fmt.Errorf("failed to update contact: %w", err)
	}
	return nil, contactToOutput(updated), nil
}

func (h *ContactHandlers) DeleteContact(ctx context.Context, _ *mcp.CallToolRequest, input IDInput) (*mcp.CallToolResult, DeleteOutput, error) {
	if err := requireID(input.ID); err != nil {
		return nil, DeleteOutput{}, err
	}
	removed, err := h.svc.DeleteContact(ctx, input.ID)
	if err != nil {
		return nil, DeleteOutput{}, fmt.Errorf("failed to delete contact: %w", err)
	}
	return nil, DeleteOutput{Success: true, Message: fmt.Sprintf("Deleted contact %s", removed.Name)}, nil
}

type LogInteractionInput struct {
	ContactID int64  `json:"contact_id" jsonschema:"Contact ID (required)"`
	DealID    int64  `json:"deal_id,omitempty" jsonschema:"Related deal ID"`
	Kind      string `json:"kind" jsonschema:"call or email (required)"`
	Subject   string `json:"subject,omitempty" jsonschema:"Email subject"`
	Notes     string `json:"notes,omitempty" jsonschema:"Notes about the interaction"`
	Duration  int    `json:"duration,omitempty" jsonschema:"Call duration in minutes"`
}

func (h *ContactHandlers) LogInteraction(ctx context.Context, _ *mcp.CallToolRequest, input LogInteractionInput) (*mcp.CallToolResult, ActivityOutput, error) {
	if input.ContactID <= 0 {
		return nil, ActivityOutput{}, fmt.Errorf("contact_id is required")
	}
	if _, err := h.svc.GetContact(ctx, input.ContactID); err != nil {
		return nil, ActivityOutput{}, err
	}
	contactID := models.ID(input.ContactID)
	dealID := optionalID(input.DealID)

	var a models.Activity
	var err error
	switch input.Kind {
	case "call":
		a, err = h.svc.LogCall(ctx, contactID, dealID, input.Notes, input.Duration)
	case "email":
		a, err = h.svc.LogEmail(ctx, contactID, dealID, input.Subject, input.Notes)
	default:
		return nil, ActivityOutput{}, fmt.Errorf("invalid kind %q (valid: call, email)", input.Kind)
	}
	if err != nil {
		return nil, ActivityOutput{}, fmt.Errorf("failed to log interaction: %w", err)
	}
	return nil, activityToOutput(a), nil
}
