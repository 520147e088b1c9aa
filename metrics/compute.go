// ABOUTME: Pure aggregation functions over deal, task and contact collections
// ABOUTME: Pipeline totals, conversion rates, date range filters and rankings
package metrics

import (
	"encoding/json"
	"fmt"
	"math"
	"slices"
	"strings"
	"time"

	"github.com/harperreed/crmdesk/models"
)

type DateRange string

const (
	ThisMonth   DateRange = "thisMonth"
	ThisQuarter DateRange = "thisQuarter"
	ThisYear    DateRange = "thisYear"
	AllTime     DateRange = "all"
)

// ParseDateRange accepts the named ranges; anything else means all time.
func ParseDateRange(s string) DateRange {
	switch DateRange(s) {
	case ThisMonth, ThisQuarter, ThisYear:
		return DateRange(s)
	default:
		return AllTime
	}
}

// Start returns the first instant of the range in now's location.
// ok is false for AllTime.
func (r DateRange) Start(now time.Time) (start time.Time, ok bool) {
	loc := now.Location()
	switch r {
	case ThisMonth:
		return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, loc), true
	case ThisQuarter:
		q := (int(now.Month()) - 1) / 3
		return time.Date(now.Year(), time.Month(q*3+1), 1, 0, 0, 0, 0, loc), true
	case ThisYear:
		return time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, loc), true
	default:
		return time.Time{}, false
	}
}

// Filter keeps items whose date is on or after the range start.
func Filter[T any](items []T, r DateRange, now time.Time, dateOf func(T) time.Time) []T {
	start, ok := r.Start(now)
	if !ok {
		return items
	}
	out := make([]T, 0, len(items))
	for _, it := range items {
		if !dateOf(it).Before(start) {
			out = append(out, it)
		}
	}
	return out
}

// round matches half-up rounding of percentages.
func round(x float64) int {
	return int(math.Floor(x + 0.5))
}

type StageSummary struct {
	Stage models.Stage `json:"stage"`
	Count int          `json:"count"`
	Value float64      `json:"value"`
}

// PipelineData totals count and value for every stage, in pipeline order.
func PipelineData(deals []models.Deal) []StageSummary {
	out := make([]StageSummary, len(models.Stages))
	for i, stage := range models.Stages {
		out[i].Stage = stage
	}
	for _, d := range deals {
		for i := range out {
			if out[i].Stage == d.Stage {
				out[i].Count++
				out[i].Value += d.DealValue
			}
		}
	}
	return out
}

type ConversionStep struct {
	From models.Stage
	To   models.Stage
	Rate int
}

func (s ConversionStep) Key() string {
	return fmt.Sprintf("%s_to_%s", s.From, s.To)
}

type Conversion struct {
	Steps   []ConversionStep
	Overall int
}

// Rate looks up a step by its "From_to_To" key.
func (c Conversion) Rate(key string) (int, bool) {
	if key == "overall" {
		return c.Overall, true
	}
	for _, s := range c.Steps {
		if s.Key() == key {
			return s.Rate, true
		}
	}
	return 0, false
}

func (c Conversion) Map() map[string]int {
	m := make(map[string]int, len(c.Steps)+1)
	for _, s := range c.Steps {
		m[s.Key()] = s.Rate
	}
	m["overall"] = c.Overall
	return m
}

func (c Conversion) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.Map())
}

// ConversionRates compares adjacent funnel stages by current count. The
// overall rate is Closed Won over every deal in the funnel.
func ConversionRates(deals []models.Deal) Conversion {
	counts := make(map[models.Stage]int)
	for _, d := range deals {
		counts[d.Stage]++
	}

	var c Conversion
	funnelTotal := 0
	for i, stage := range models.FunnelStages {
		funnelTotal += counts[stage]
		if i == len(models.FunnelStages)-1 {
			break
		}
		next := models.FunnelStages[i+1]
		rate := 0
		if cur := counts[stage]; cur > 0 {
			rate = round(float64(counts[next]) / float64(cur) * 100)
		}
		c.Steps = append(c.Steps, ConversionStep{From: stage, To: next, Rate: rate})
	}
	if funnelTotal > 0 {
		c.Overall = round(float64(counts[models.StageClosedWon]) / float64(funnelTotal) * 100)
	}
	return c
}

type ContactMetrics struct {
	models.Contact
	TotalValue  float64 `json:"totalValue"`
	ActiveDeals int     `json:"activeDeals"`
	WonDeals    int     `json:"wonDeals"`
	TotalDeals  int     `json:"totalDeals"`
}

// dealBelongsTo prefers the contact id; the name is only consulted for
// deals that carry no contact id.
func dealBelongsTo(d models.Deal, c models.Contact) bool {
	if d.ContactID != nil {
		return *d.ContactID == c.ID
	}
	return d.ContactName != "" && strings.EqualFold(d.ContactName, c.Name)
}

// RankContacts computes per-contact deal totals sorted by total value.
func RankContacts(contacts []models.Contact, deals []models.Deal, limit int) []ContactMetrics {
	out := make([]ContactMetrics, 0, len(contacts))
	for _, c := range contacts {
		m := ContactMetrics{Contact: c}
		for _, d := range deals {
			if !dealBelongsTo(d, c) {
				continue
			}
			m.TotalDeals++
			m.TotalValue += d.DealValue
			switch {
			case d.Stage == models.StageClosedWon:
				m.WonDeals++
			case !d.Stage.Closed():
				m.ActiveDeals++
			}
		}
		out = append(out, m)
	}
	slices.SortStableFunc(out, func(a, b ContactMetrics) int {
		switch {
		case a.TotalValue > b.TotalValue:
			return -1
		case a.TotalValue < b.TotalValue:
			return 1
		default:
			return 0
		}
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// Upcoming returns pending tasks with a due date, soonest first.
func Upcoming(tasks []models.Task, limit int) []models.Task {
	out := make([]models.Task, 0, len(tasks))
	for _, t := range tasks {
		if t.Status == models.TaskPending && !t.DueDate.IsZero() {
			out = append(out, t)
		}
	}
	slices.SortStableFunc(out, func(a, b models.Task) int {
		return a.DueDate.Compare(b.DueDate.Time)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

type CompanyMetrics struct {
	CompanyID      int64            `json:"companyId"`
	ContactCount   int              `json:"contactCount"`
	DealCount      int              `json:"dealCount"`
	TotalDealValue float64          `json:"totalDealValue"`
	Contacts       []models.Contact `json:"contacts"`
	Deals          []models.Deal    `json:"deals"`
}

func belongsToCompany(id *int64, name string, company models.Company) bool {
	if id != nil {
		return *id == company.ID
	}
	return strings.EqualFold(name, company.Name)
}

// CompanyTotals collects the contacts and deals linked to a company.
func CompanyTotals(company models.Company, contacts []models.Contact, deals []models.Deal) CompanyMetrics {
	m := CompanyMetrics{
		CompanyID: company.ID,
		Contacts:  []models.Contact{},
		Deals:     []models.Deal{},
	}
	for _, c := range contacts {
		if belongsToCompany(c.CompanyID, c.Company, company) {
			m.Contacts = append(m.Contacts, c)
		}
	}
	for _, d := range deals {
		if belongsToCompany(d.CompanyID, d.Company, company) {
			m.Deals = append(m.Deals, d)
			m.TotalDealValue += d.DealValue
		}
	}
	m.ContactCount = len(m.Contacts)
	m.DealCount = len(m.Deals)
	return m
}
