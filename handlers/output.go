// ABOUTME: Flat output shapes for MCP tool results
// ABOUTME: Dates and timestamps are rendered as strings so tool schemas stay simple
package handlers

import (
	"fmt"
	"time"

	"github.com/harperreed/crmdesk/models"
)

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339)
}

func formatTimePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := formatTime(*t)
	return &s
}

func parseDate(field, s string) (models.Date, error) {
	d, err := models.ParseDate(s)
	if err != nil {
		return models.Date{}, fmt.Errorf("invalid %s: %w", field, err)
	}
	return d, nil
}

// optionalID treats 0 as absent.
func optionalID(id int64) *int64 {
	if id == 0 {
		return nil
	}
	return models.ID(id)
}

type ContactOutput struct {
	ID              int64   `json:"id"`
	Name            string  `json:"name"`
	Email           string  `json:"email"`
	Phone           string  `json:"phone"`
	Company         string  `json:"company"`
	CompanyID       *int64  `json:"company_id,omitempty"`
	LastContactDate *string `json:"last_contact_date,omitempty"`
	CreatedAt       string  `json:"created_at"`
	UpdatedAt       string  `json:"updated_at"`
}

func contactToOutput(c models.Contact) ContactOutput {
	return ContactOutput{
		ID:              c.ID,
		Name:            c.Name,
		Email:           c.Email,
		Phone:           c.Phone,
		Company:         c.Company,
		CompanyID:       c.CompanyID,
		LastContactDate: formatTimePtr(c.LastContactDate),
		CreatedAt:       formatTime(c.CreatedAt),
		UpdatedAt:       formatTime(c.UpdatedAt),
	}
}

type CompanyOutput struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Industry  string `json:"industry"`
	Website   string `json:"website,omitempty"`
	Address   string `json:"address,omitempty"`
	Notes     string `json:"notes,omitempty"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

func companyToOutput(c models.Company) CompanyOutput {
	return CompanyOutput{
		ID:        c.ID,
		Name:      c.Name,
		Industry:  c.Industry,
		Website:   c.Website,
		Address:   c.Address,
		Notes:     c.Notes,
		CreatedAt: formatTime(c.CreatedAt),
		UpdatedAt: formatTime(c.UpdatedAt),
	}
}

type DealOutput struct {
	ID                int64   `json:"id"`
	Company           string  `json:"company"`
	CompanyID         *int64  `json:"company_id,omitempty"`
	ContactID         *int64  `json:"contact_id,omitempty"`
	ContactName       string  `json:"contact_name,omitempty"`
	DealValue         float64 `json:"deal_value"`
	Stage             string  `json:"stage"`
	ExpectedCloseDate string  `json:"expected_close_date,omitempty"`
	Description       string  `json:"description,omitempty"`
	CreatedAt         string  `json:"created_at"`
	UpdatedAt         string  `json:"updated_at"`
}

func dealToOutput(d models.Deal) DealOutput {
	return DealOutput{
		ID:                d.ID,
		Company:           d.Company,
		CompanyID:         d.CompanyID,
		ContactID:         d.ContactID,
		ContactName:       d.ContactName,
		DealValue:         d.DealValue,
		Stage:             string(d.Stage),
		ExpectedCloseDate: d.ExpectedCloseDate.String(),
		Description:       d.Description,
		CreatedAt:         formatTime(d.CreatedAt),
		UpdatedAt:         formatTime(d.UpdatedAt),
	}
}

type TaskOutput struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Type        string `json:"type"`
	DueDate     string `json:"due_date"`
	Priority    string `json:"priority"`
	Status      string `json:"status"`
	ContactID   *int64 `json:"contact_id,omitempty"`
	DealID      *int64 `json:"deal_id,omitempty"`
	CreatedAt   string `json:"created_at"`
	UpdatedAt   string `json:"updated_at"`
}

func taskToOutput(t models.Task) TaskOutput {
	return TaskOutput{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		Type:        string(t.Type),
		DueDate:     t.DueDate.String(),
		Priority:    string(t.Priority),
		Status:      string(t.Status),
		ContactID:   t.ContactID,
		DealID:      t.DealID,
		CreatedAt:   formatTime(t.CreatedAt),
		UpdatedAt:   formatTime(t.UpdatedAt),
	}
}

type QuoteOutput struct {
	ID             int64   `json:"id"`
	Company        string  `json:"company"`
	ContactName    string  `json:"contact_name"`
	DealTitle      string  `json:"deal_title"`
	Amount         float64 `json:"amount"`
	Status         string  `json:"status"`
	DeliveryMethod string  `json:"delivery_method"`
	QuoteDate      string  `json:"quote_date"`
	ExpiresOn      string  `json:"expires_on"`
	BillTo         string  `json:"bill_to"`
	ShipTo         string  `json:"ship_to"`
	CreatedAt      string  `json:"created_at"`
}

func quoteToOutput(q models.Quote) QuoteOutput {
	return QuoteOutput{
		ID:             q.ID,
		Company:        q.Company,
		ContactName:    q.ContactName,
		DealTitle:      q.DealTitle,
		Amount:         q.Amount,
		Status:         string(q.Status),
		DeliveryMethod: q.DeliveryMethod,
		QuoteDate:      q.QuoteDate.String(),
		ExpiresOn:      q.ExpiresOn.String(),
		BillTo:         fmt.Sprintf("%s, %s, %s", q.BillToName, q.BillStreet, q.BillCity),
		ShipTo:         fmt.Sprintf("%s, %s, %s", q.ShipToName, q.ShipStreet, q.ShipCity),
		CreatedAt:      formatTime(q.CreatedAt),
	}
}

type ActivityOutput struct {
	ID          int64          `json:"id"`
	Type        string         `json:"type"`
	ContactID   *int64         `json:"contact_id,omitempty"`
	DealID      *int64         `json:"deal_id,omitempty"`
	TaskID      *int64         `json:"task_id,omitempty"`
	Description string         `json:"description"`
	Details     map[string]any `json:"details,omitempty"`
	Timestamp   string         `json:"timestamp"`
	User        string         `json:"user"`
}

func activityToOutput(a models.Activity) ActivityOutput {
	return ActivityOutput{
		ID:          a.ID,
		Type:        string(a.Type),
		ContactID:   a.ContactID,
		DealID:      a.DealID,
		TaskID:      a.TaskID,
		Description: a.Description,
		Details:     a.Details,
		Timestamp:   formatTime(a.Timestamp),
		User:        a.User,
	}
}

func mapOutputs[T, O any](items []T, conv func(T) O) []O {
	out := make([]O, len(items))
	for i, it := range items {
		out[i] = conv(it)
	}
	return out
}

type DeleteOutput struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type IDInput struct {
	ID int64 `json:"id" jsonschema:"Record ID (required)"`
}

func requireID(id int64) error {
	if id <= 0 {
		return fmt.Errorf("id is required")
	}
	return nil
}
