// ABOUTME: List queries with search, filters, sorting and pagination
// ABOUTME: Pages are 1-based; an out-of-range page returns no items
package crm

import (
	"cmp"
	"slices"
	"strings"

	"github.com/harperreed/crmdesk/models"
)

const (
	ContactPageSize = 50
	QuotePageSize   = 10
	TaskPageSize    = 25
)

// Page is one slice of a filtered, sorted listing.
type Page[T any] struct {
	Items      []T `json:"items"`
	Page       int `json:"page"`
	PageSize   int `json:"pageSize"`
	TotalItems int `json:"totalItems"`
	TotalPages int `json:"totalPages"`
}

// paginate returns everything on one page when size is not positive.
func paginate[T any](items []T, page, size int) Page[T] {
	if page < 1 {
		page = 1
	}
	p := Page[T]{Page: page, PageSize: size, TotalItems: len(items), Items: []T{}}
	if size <= 0 {
		p.PageSize = len(items)
		p.TotalPages = 1
		p.Items = items
		return p
	}
	p.TotalPages = len(items) / size
	if len(items)%size != 0 {
		p.TotalPages++
	}
	// Checked before multiplying so a huge page number cannot overflow start.
	if page > p.TotalPages {
		return p
	}
	start := (page - 1) * size
	end := min(start+size, len(items))
	p.Items = items[start:end]
	return p
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), needle)
}

func matchesSearch(query string, fields ...string) bool {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return true
	}
	for _, f := range fields {
		if containsFold(f, q) {
			return true
		}
	}
	return false
}

type SortDirection string

const (
	Asc  SortDirection = "asc"
	Desc SortDirection = "desc"
)

type ContactQuery struct {
	Search    string
	SortField string // name, email, company, phone or lastContactDate
	SortDir   SortDirection
	Page      int
	PageSize  int
}

func contactSortKey(c models.Contact, field string) string {
	switch field {
	case "email":
		return strings.ToLower(c.Email)
	case "company":
		return strings.ToLower(c.Company)
	case "phone":
		return strings.ToLower(c.Phone)
	default:
		return strings.ToLower(c.Name)
	}
}

// compareContacts orders never-contacted records before any contact date
// in ascending order.
func compareContacts(a, b models.Contact, field string) int {
	if field == "lastContactDate" {
		switch {
		case a.LastContactDate == nil && b.LastContactDate == nil:
			return 0
		case a.LastContactDate == nil:
			return -1
		case b.LastContactDate == nil:
			return 1
		}
		return a.LastContactDate.Compare(*b.LastContactDate)
	}
	return cmp.Compare(contactSortKey(a, field), contactSortKey(b, field))
}

func (q ContactQuery) apply(all []models.Contact) Page[models.Contact] {
	out := make([]models.Contact, 0, len(all))
	for _, c := range all {
		if matchesSearch(q.Search, c.Name, c.Email, c.Company, c.Phone) {
			out = append(out, c)
		}
	}
	field := q.SortField
	if field == "" {
		field = "name"
	}
	slices.SortStableFunc(out, func(a, b models.Contact) int {
		r := compareContacts(a, b, field)
		if q.SortDir == Desc {
			return -r
		}
		return r
	})
	size := q.PageSize
	if size == 0 {
		size = ContactPageSize
	}
	return paginate(out, q.Page, size)
}

// QuoteQuery filters by status; an empty status or "all" keeps every quote.
type QuoteQuery struct {
	Search   string
	Status   string
	Page     int
	PageSize int
}

func (q QuoteQuery) apply(all []models.Quote) Page[models.Quote] {
	out := make([]models.Quote, 0, len(all))
	for _, quote := range all {
		if q.Status != "" && q.Status != "all" && string(quote.Status) != q.Status {
			continue
		}
		if matchesSearch(q.Search, quote.Company, quote.ContactName, quote.DealTitle) {
			out = append(out, quote)
		}
	}
	size := q.PageSize
	if size == 0 {
		size = QuotePageSize
	}
	return paginate(out, q.Page, size)
}

type TaskQuery struct {
	Search    string
	Status    models.TaskStatus
	ContactID *int64
	DealID    *int64
	Page      int
	PageSize  int
}

// apply keeps store order for equal due dates and lists undated tasks last.
func (q TaskQuery) apply(all []models.Task) Page[models.Task] {
	out := make([]models.Task, 0, len(all))
	for _, t := range all {
		if q.Status != "" && t.Status != q.Status {
			continue
		}
		if q.ContactID != nil && !sameID(t.ContactID, *q.ContactID) {
			continue
		}
		if q.DealID != nil && !sameID(t.DealID, *q.DealID) {
			continue
		}
		if matchesSearch(q.Search, t.Title, t.Description) {
			out = append(out, t)
		}
	}
	slices.SortStableFunc(out, func(a, b models.Task) int {
		switch {
		case a.DueDate.IsZero() && b.DueDate.IsZero():
			return 0
		case a.DueDate.IsZero():
			return 1
		case b.DueDate.IsZero():
			return -1
		}
		return a.DueDate.Compare(b.DueDate.Time)
	})
	size := q.PageSize
	if size == 0 {
		size = TaskPageSize
	}
	return paginate(out, q.Page, size)
}

type CompanyQuery struct {
	Search string
}

func (q CompanyQuery) apply(all []models.Company) []models.Company {
	out := make([]models.Company, 0, len(all))
	for _, c := range all {
		if matchesSearch(q.Search, c.Name, c.Industry, c.Website) {
			out = append(out, c)
		}
	}
	return out
}

// DealQuery filters by stage and by company id or name.
type DealQuery struct {
	Search    string
	Stage     models.Stage
	CompanyID *int64
}

func (q DealQuery) apply(all []models.Deal) []models.Deal {
	out := make([]models.Deal, 0, len(all))
	for _, d := range all {
		if q.Stage != "" && d.Stage != q.Stage {
			continue
		}
		if q.CompanyID != nil && !sameID(d.CompanyID, *q.CompanyID) {
			continue
		}
		if matchesSearch(q.Search, d.Company, d.ContactName, d.Description) {
			out = append(out, d)
		}
	}
	return out
}

func sameID(p *int64, id int64) bool {
	return p != nil && *p == id
}
