// ABOUTME: Data models for CRM entities
// ABOUTME: Defines Contact, Company, Deal, Task, Activity and Quote records with copy helpers
package models

import (
	"time"
)

// ID returns a pointer to the given identifier, for nullable relation fields.
func ID(v int64) *int64 {
	return &v
}

func cloneID(p *int64) *int64 {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneTime(p *time.Time) *time.Time {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

type Contact struct {
	ID              int64      `json:"Id"`
	Name            string     `json:"name"`
	Email           string     `json:"email"`
	Phone           string     `json:"phone"`
	Company         string     `json:"company"`
	CompanyID       *int64     `json:"companyId,omitempty"`
	LastContactDate *time.Time `json:"lastContactDate"`
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt"`
}

func (c Contact) Clone() Contact {
	c.CompanyID = cloneID(c.CompanyID)
	c.LastContactDate = cloneTime(c.LastContactDate)
	return c
}

func (c *Contact) GetID() int64   { return c.ID }
func (c *Contact) SetID(id int64) { c.ID = id }

// Touch stamps the record on create (created=true) or update.
func (c *Contact) Touch(now time.Time, created bool) {
	if created {
		c.CreatedAt = now
	}
	c.UpdatedAt = now
}

type Company struct {
	ID        int64     `json:"Id"`
	Name      string    `json:"name"`
	Industry  string    `json:"industry"`
	Website   string    `json:"website,omitempty"`
	Address   string    `json:"address,omitempty"`
	Notes     string    `json:"notes,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (c Company) Clone() Company { return c }

func (c *Company) GetID() int64   { return c.ID }
func (c *Company) SetID(id int64) { c.ID = id }

func (c *Company) Touch(now time.Time, created bool) {
	if created {
		c.CreatedAt = now
	}
	c.UpdatedAt = now
}

type Deal struct {
	ID                int64     `json:"Id"`
	Company           string    `json:"company"`
	CompanyID         *int64    `json:"companyId,omitempty"`
	ContactID         *int64    `json:"contactId,omitempty"`
	ContactName       string    `json:"contactName"`
	DealValue         float64   `json:"dealValue"`
	Stage             Stage     `json:"stage"`
	ExpectedCloseDate Date      `json:"expectedCloseDate"`
	Description       string    `json:"description,omitempty"`
	CreatedAt         time.Time `json:"createdAt"`
	UpdatedAt         time.Time `json:"updatedAt"`
}

func (d Deal) Clone() Deal {
	d.CompanyID = cloneID(d.CompanyID)
	d.ContactID = cloneID(d.ContactID)
	return d
}

func (d *Deal) GetID() int64   { return d.ID }
func (d *Deal) SetID(id int64) { d.ID = id }

func (d *Deal) Touch(now time.Time, created bool) {
	if created {
		d.CreatedAt = now
	}
	d.UpdatedAt = now
}

// DisplayName is the label used in activity descriptions.
func (d Deal) DisplayName() string {
	if d.Company != "" {
		return d.Company
	}
	return d.ContactName
}

type TaskType string

const (
	TaskCall    TaskType = "call"
	TaskEmail   TaskType = "email"
	TaskMeeting TaskType = "meeting"
)

type TaskPriority string

const (
	PriorityLow    TaskPriority = "low"
	PriorityMedium TaskPriority = "medium"
	PriorityHigh   TaskPriority = "high"
)

type TaskStatus string

const (
	TaskPending   TaskStatus = "pending"
	TaskCompleted TaskStatus = "completed"
)

type Task struct {
	ID          int64        `json:"Id"`
	Title       string       `json:"title"`
	Description string       `json:"description,omitempty"`
	Type        TaskType     `json:"type"`
	DueDate     Date         `json:"dueDate"`
	Priority    TaskPriority `json:"priority"`
	Status      TaskStatus   `json:"status"`
	ContactID   *int64       `json:"contactId"`
	DealID      *int64       `json:"dealId"`
	CreatedAt   time.Time    `json:"createdAt"`
	UpdatedAt   time.Time    `json:"updatedAt"`
}

func (t Task) Clone() Task {
	t.ContactID = cloneID(t.ContactID)
	t.DealID = cloneID(t.DealID)
	return t
}

func (t *Task) GetID() int64   { return t.ID }
func (t *Task) SetID(id int64) { t.ID = id }

func (t *Task) Touch(now time.Time, created bool) {
	if created {
		t.CreatedAt = now
	}
	t.UpdatedAt = now
}

type ActivityType string

const (
	ActivityDealStageChanged ActivityType = "deal_stage_changed"
	ActivityTaskCompleted    ActivityType = "task_completed"
	ActivityContactUpdated   ActivityType = "contact_updated"
	ActivityDealCreated      ActivityType = "deal_created"
	ActivityTaskCreated      ActivityType = "task_created"
	ActivityCallLogged       ActivityType = "call_logged"
	ActivityEmailSent        ActivityType = "email_sent"
)

// ActivityTypes lists every recorded activity kind.
var ActivityTypes = []ActivityType{
	ActivityDealStageChanged,
	ActivityTaskCompleted,
	ActivityContactUpdated,
	ActivityDealCreated,
	ActivityTaskCreated,
	ActivityCallLogged,
	ActivityEmailSent,
}

func (t ActivityType) Valid() bool {
	for _, v := range ActivityTypes {
		if v == t {
			return true
		}
	}
	return false
}

// Activity is an immutable log entry. Details carries type-specific values.
type Activity struct {
	ID          int64          `json:"Id"`
	Type        ActivityType   `json:"type"`
	ContactID   *int64         `json:"contactId"`
	DealID      *int64         `json:"dealId"`
	TaskID      *int64         `json:"taskId,omitempty"`
	Description string         `json:"description"`
	Details     map[string]any `json:"details"`
	Timestamp   time.Time      `json:"timestamp"`
	User        string         `json:"user"`
	EventID     string         `json:"eventId,omitempty"`
}

func (a Activity) Clone() Activity {
	a.ContactID = cloneID(a.ContactID)
	a.DealID = cloneID(a.DealID)
	a.TaskID = cloneID(a.TaskID)
	if a.Details != nil {
		details := make(map[string]any, len(a.Details))
		for k, v := range a.Details {
			details[k] = v
		}
		a.Details = details
	}
	return a
}

func (a *Activity) GetID() int64   { return a.ID }
func (a *Activity) SetID(id int64) { a.ID = id }

// Touch only fills a missing timestamp; activities are never updated in place.
func (a *Activity) Touch(now time.Time, created bool) {
	if created && a.Timestamp.IsZero() {
		a.Timestamp = now
	}
}

type QuoteStatus string

const (
	QuoteDraft    QuoteStatus = "Draft"
	QuoteSent     QuoteStatus = "Sent"
	QuoteAccepted QuoteStatus = "Accepted"
	QuoteRejected QuoteStatus = "Rejected"
	QuoteExpired  QuoteStatus = "Expired"
)

var QuoteStatuses = []QuoteStatus{QuoteDraft, QuoteSent, QuoteAccepted, QuoteRejected, QuoteExpired}

func (s QuoteStatus) Valid() bool {
	for _, v := range QuoteStatuses {
		if v == s {
			return true
		}
	}
	return false
}

const DefaultDeliveryMethod = "Email"

type Quote struct {
	ID             int64       `json:"Id"`
	Company        string      `json:"company"`
	ContactName    string      `json:"contactName"`
	DealTitle      string      `json:"dealTitle"`
	Amount         float64     `json:"amount"`
	Status         QuoteStatus `json:"status"`
	DeliveryMethod string      `json:"deliveryMethod"`
	QuoteDate      Date        `json:"quoteDate"`
	ExpiresOn      Date        `json:"expiresOn"`

	BillToName  string `json:"billToName"`
	BillStreet  string `json:"billStreet"`
	BillCity    string `json:"billCity"`
	BillState   string `json:"billState,omitempty"`
	BillCountry string `json:"billCountry,omitempty"`
	BillPincode string `json:"billPincode,omitempty"`

	ShipToName  string `json:"shipToName"`
	ShipStreet  string `json:"shipStreet"`
	ShipCity    string `json:"shipCity"`
	ShipState   string `json:"shipState,omitempty"`
	ShipCountry string `json:"shipCountry,omitempty"`
	ShipPincode string `json:"shipPincode,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (q Quote) Clone() Quote { return q }

func (q *Quote) GetID() int64   { return q.ID }
func (q *Quote) SetID(id int64) { q.ID = id }

func (q *Quote) Touch(now time.Time, created bool) {
	if created {
		q.CreatedAt = now
	}
	q.UpdatedAt = now
}

// CopyBillingToShipping mirrors the "same as billing" option.
func (q *Quote) CopyBillingToShipping() {
	q.ShipToName = q.BillToName
	q.ShipStreet = q.BillStreet
	q.ShipCity = q.BillCity
	q.ShipState = q.BillState
	q.ShipCountry = q.BillCountry
	q.ShipPincode = q.BillPincode
}
