// ABOUTME: Field-level validation for CRM records
// ABOUTME: Collects every failing field into a ValidationError keyed by field name
package models

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"
)

var ErrValidation = errors.New("validation failed")

var (
	emailPattern   = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	websitePattern = regexp.MustCompile(`^https?://.+`)
)

// ValidationError maps field names to messages.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, e.Fields[k]))
	}
	return fmt.Sprintf("validation failed: %s", strings.Join(parts, "; "))
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

type fieldErrors map[string]string

func (f fieldErrors) required(field, value, msg string) {
	if strings.TrimSpace(value) == "" {
		f[field] = msg
	}
}

func (f fieldErrors) err() error {
	if len(f) == 0 {
		return nil
	}
	return &ValidationError{Fields: f}
}

func ValidateContact(c Contact) error {
	errs := fieldErrors{}
	errs.required("name", c.Name, "Name is required")
	if strings.TrimSpace(c.Email) == "" {
		errs["email"] = "Email is required"
	} else if !emailPattern.MatchString(c.Email) {
		errs["email"] = "Please enter a valid email"
	}
	errs.required("phone", c.Phone, "Phone is required")
	errs.required("company", c.Company, "Company is required")
	return errs.err()
}

func ValidateCompany(c Company) error {
	errs := fieldErrors{}
	errs.required("name", c.Name, "Company name is required")
	errs.required("industry", c.Industry, "Industry is required")
	if c.Website != "" && !websitePattern.MatchString(c.Website) {
		errs["website"] = "Please enter a valid website URL"
	}
	return errs.err()
}

func ValidateDeal(d Deal) error {
	errs := fieldErrors{}
	errs.required("company", d.Company, "Company is required")
	if d.DealValue <= 0 {
		errs["dealValue"] = "Please enter a valid deal value"
	}
	if d.ExpectedCloseDate.IsZero() {
		errs["expectedCloseDate"] = "Expected close date is required"
	}
	if d.Stage != "" && !d.Stage.Valid() {
		errs["stage"] = fmt.Sprintf("Unknown stage %q", d.Stage)
	}
	return errs.err()
}

func ValidateTask(t Task) error {
	errs := fieldErrors{}
	errs.required("title", t.Title, "Title is required")
	if t.DueDate.IsZero() {
		errs["dueDate"] = "Due date is required"
	}
	if t.ContactID == nil && t.DealID == nil {
		errs["link"] = "Please link to at least one contact or deal"
	}
	switch t.Type {
	case "", TaskCall, TaskEmail, TaskMeeting:
	default:
		errs["type"] = fmt.Sprintf("Unknown task type %q", t.Type)
	}
	switch t.Priority {
	case "", PriorityLow, PriorityMedium, PriorityHigh:
	default:
		errs["priority"] = fmt.Sprintf("Unknown priority %q", t.Priority)
	}
	switch t.Status {
	case "", TaskPending, TaskCompleted:
	default:
		errs["status"] = fmt.Sprintf("Unknown status %q", t.Status)
	}
	return errs.err()
}

func ValidateQuote(q Quote) error {
	errs := fieldErrors{}
	errs.required("company", q.Company, "Company is required")
	errs.required("contactName", q.ContactName, "Contact is required")
	errs.required("dealTitle", q.DealTitle, "Deal is required")
	if q.QuoteDate.IsZero() {
		errs["quoteDate"] = "Quote date is required"
	}
	if q.ExpiresOn.IsZero() {
		errs["expiresOn"] = "Expiry date is required"
	}
	if q.Amount <= 0 {
		errs["amount"] = "Valid amount is required"
	}
	errs.required("billToName", q.BillToName, "Bill to name is required")
	errs.required("billStreet", q.BillStreet, "Bill street is required")
	errs.required("billCity", q.BillCity, "Bill city is required")
	errs.required("shipToName", q.ShipToName, "Ship to name is required")
	errs.required("shipStreet", q.ShipStreet, "Ship street is required")
	errs.required("shipCity", q.ShipCity, "Ship city is required")
	if !q.QuoteDate.IsZero() && !q.ExpiresOn.IsZero() && !q.QuoteDate.Before(q.ExpiresOn) {
		errs["expiresOn"] = "Expiry date must be after quote date"
	}
	if q.Status != "" && !q.Status.Valid() {
		errs["status"] = fmt.Sprintf("Unknown status %q", q.Status)
	}
	return errs.err()
}
