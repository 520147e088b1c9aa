// ABOUTME: Quote MCP tool handlers
// ABOUTME: Implements create, find, status changes and batch deletion of quotes
package handlers

import (
	"context"
	"fmt"

	"github.com/harperreed/crmdesk/crm"
	"github.com/harperreed/crmdesk/models"
	"github.com/harperreed/crmdesk/store"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type QuoteHandlers struct {
	svc *crm.Service
}

func NewQuoteHandlers(svc *crm.Service) *QuoteHandlers {
	return &QuoteHandlers{svc: svc}
}

type CreateQuoteInput struct {
	Company        string  `json:"company" jsonschema:"Company name (required)"`
	ContactName    string  `json:"contact_name" jsonschema:"Contact name (required)"`
	DealTitle      string  `json:"deal_title" jsonschema:"Deal title (required)"`
	Amount         float64 `json:"amount" jsonschema:"Quote amount (required, positive)"`
	DeliveryMethod string  `json:"delivery_method,omitempty" jsonschema:"Delivery method (default Email)"`
	QuoteDate      string  `json:"quote_date" jsonschema:"Quote date YYYY-MM-DD (required)"`
	ExpiresOn      string  `json:"expires_on" jsonschema:"Expiry date YYYY-MM-DD, after the quote date (required)"`
	BillToName     string  `json:"bill_to_name" jsonschema:"Billing name (required)"`
	BillStreet     string  `json:"bill_street" jsonschema:"Billing street (required)"`
	BillCity       string  `json:"bill_city" jsonschema:"Billing city (required)"`
	BillState      string  `json:"bill_state,omitempty" jsonschema:"Billing state"`
	BillCountry    string  `json:"bill_country,omitempty" jsonschema:"Billing country"`
	BillPincode    string  `json:"bill_pincode,omitempty" jsonschema:"Billing postal code"`
	ShipToName     string  `json:"ship_to_name,omitempty" jsonschema:"Shipping name"`
	ShipStreet     string  `json:"ship_street,omitempty" jsonschema:"Shipping street"`
	ShipCity       string  `json:"ship_city,omitempty" jsonschema:"Shipping city"`
	SameAsBilling  bool    `json:"same_as_billing,omitempty" jsonschema:"Copy the billing address to shipping"`
}

func (in CreateQuoteInput) toQuote() (models.Quote, error) {
	quoteDate, err := parseDate("quote_date", in.QuoteDate)
	if err != nil {
		return models.Quote{}, err
	}
	expires, err := parseDate("expires_on", in.ExpiresOn)
	if err != nil {
		return models.Quote{}, err
	}
	q := models.Quote{
		Company:        in.Company,
		ContactName:    in.ContactName,
		DealTitle:      in.DealTitle,
		Amount:         in.Amount,
		DeliveryMethod: in.DeliveryMethod,
		QuoteDate:      quoteDate,
		ExpiresOn:      expires,
		BillToName:     in.BillToName,
		BillStreet:     in.BillStreet,
		BillCity:       in.BillCity,
		BillState:      in.BillState,
		BillCountry:    in.BillCountry,
		BillPincode:    in.BillPincode,
		ShipToName:     in.ShipToName,
		ShipStreet:     in.ShipStreet,
		ShipCity:       in.ShipCity,
	}
	if in.SameAsBilling {
		q.CopyBillingToShipping()
	}
	return q, nil
}

func (h *QuoteHandlers) CreateQuote(ctx context.Context, _ *mcp.CallToolRequest, input CreateQuoteInput) (*mcp.CallToolResult, QuoteOutput, error) {
	q, err := input.toQuote()
	if err != nil {
		return nil, QuoteOutput{}, err
	}
	created, err := h.svc.CreateQuote(ctx, q)
	if err != nil {
		return nil, QuoteOutput{}, fmt.Errorf("failed to create quote: %w", err)
	}
	return nil, quoteToOutput(created), nil
}

type FindQuotesInput struct {
	Query  string `json:"query,omitempty" jsonschema:"Search company, contact and deal title"`
	Status string `json:"status,omitempty" jsonschema:"Draft, Sent, Accepted, Rejected, Expired or all"`
	Page   int    `json:"page,omitempty" jsonschema:"Page number starting at 1"`
}

type FindQuotesOutput struct {
	Quotes     []QuoteOutput `json:"quotes"`
	Page       int           `json:"page"`
	TotalPages int           `json:"total_pages"`
	TotalItems int           `json:"total_items"`
}

func (h *QuoteHandlers) FindQuotes(ctx context.Context, _ *mcp.CallToolRequest, input FindQuotesInput) (*mcp.CallToolResult, FindQuotesOutput, error) {
	page, err := h.svc.ListQuotes(ctx, crm.QuoteQuery{Search: input.Query, Status: input.Status, Page: input.Page})
	if err != nil {
		return nil, FindQuotesOutput{}, fmt.Errorf("failed to find quotes: %w", err)
	}
	return nil, FindQuotesOutput{
		Quotes:     mapOutputs(page.Items, quoteToOutput),
		Page:       page.Page,
		TotalPages: page.TotalPages,
		TotalItems: page.TotalItems,
	}, nil
}

type SetQuoteStatusInput struct {
	IDs    []int64 `json:"ids" jsonschema:"Quote IDs (required)"`
	Status string  `json:"status" jsonschema:"Draft, Sent, Accepted, Rejected or Expired (required)"`
}

type BatchItem struct {
	ID    int64  `json:"id"`
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

type BatchOutput struct {
	Succeeded int         `json:"succeeded"`
	Failed    int         `json:"failed"`
	Results   []BatchItem `json:"results"`
}

func batchToOutput(results []store.BatchResult[models.Quote]) BatchOutput {
	out := BatchOutput{Results: make([]BatchItem, len(results))}
	out.Succeeded, out.Failed = store.Summarize(results)
	for i, r := range results {
		out.Results[i] = BatchItem{ID: r.ID, OK: r.OK()}
		if r.Err != nil {
			out.Results[i].Error = r.Err.Error()
		}
	}
	return out
}

func (h *QuoteHandlers) SetQuoteStatus(ctx context.Context, _ *mcp.CallToolRequest, input SetQuoteStatusInput) (*mcp.CallToolResult, BatchOutput, error) {
	if len(input.IDs) == 0 {
		return nil, BatchOutput{}, fmt.Errorf("ids is required")
	}
	status := models.QuoteStatus(input.Status)
	if !status.Valid() {
		return nil, BatchOutput{}, fmt.Errorf("invalid status %q", input.Status)
	}
	return nil, batchToOutput(h.svc.UpdateQuoteStatuses(ctx, input.IDs, status)), nil
}

type DeleteQuotesInput struct {
	IDs []int64 `json:"ids" jsonschema:"Quote IDs to delete (required)"`
}

func (h *QuoteHandlers) DeleteQuotes(ctx context.Context, _ *mcp.CallToolRequest, input DeleteQuotesInput) (*mcp.CallToolResult, BatchOutput, error) {
	if len(input.IDs) == 0 {
		return nil, BatchOutput{}, fmt.Errorf("ids is required")
	}
	return nil, batchToOutput(h.svc.DeleteQuotes(ctx, input.IDs)), nil
}
