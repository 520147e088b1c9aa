// ABOUTME: Quote operations with per-record batch results
// ABOUTME: New quotes default to Draft status and Email delivery
package crm

import (
	"context"
	"fmt"

	"github.com/harperreed/crmdesk/models"
	"github.com/harperreed/crmdesk/store"
	"go.uber.org/zap"
)

func (s *Service) ListQuotes(ctx context.Context, q QuoteQuery) (Page[models.Quote], error) {
	all, err := s.repos.Quotes.GetAll(ctx)
	if err != nil {
		return Page[models.Quote]{}, err
	}
	return q.apply(all), nil
}

func (s *Service) GetQuote(ctx context.Context, id int64) (models.Quote, error) {
	return s.repos.Quotes.GetByID(ctx, id)
}

func prepareQuote(q models.Quote) (models.Quote, error) {
	if q.Status == "" {
		q.Status = models.QuoteDraft
	}
	if q.DeliveryMethod == "" {
		q.DeliveryMethod = models.DefaultDeliveryMethod
	}
	if err := models.ValidateQuote(q); err != nil {
		return models.Quote{}, err
	}
	return q, nil
}

func (s *Service) CreateQuote(ctx context.Context, q models.Quote) (models.Quote, error) {
	q, err := prepareQuote(q)
	if err != nil {
		return models.Quote{}, err
	}
	return s.repos.Quotes.Create(ctx, q)
}

// UpdateQuote replaces the editable fields of a quote with q.
func (s *Service) UpdateQuote(ctx context.Context, id int64, q models.Quote) (models.Quote, error) {
	q, err := prepareQuote(q)
	if err != nil {
		return models.Quote{}, err
	}
	return s.repos.Quotes.Update(ctx, id, func(existing *models.Quote) error {
		created := existing.CreatedAt
		*existing = q
		existing.CreatedAt = created
		return nil
	})
}

func (s *Service) UpdateQuoteStatus(ctx context.Context, id int64, status models.QuoteStatus) (models.Quote, error) {
	if !status.Valid() {
		return models.Quote{}, &models.ValidationError{Fields: map[string]string{
			"status": fmt.Sprintf("Unknown status %q", status),
		}}
	}
	return s.repos.Quotes.Update(ctx, id, func(q *models.Quote) error {
		q.Status = status
		return nil
	})
}

func (s *Service) DeleteQuote(ctx context.Context, id int64) (models.Quote, error) {
	return s.repos.Quotes.Delete(ctx, id)
}

// CreateQuotes validates and stores each quote independently.
func (s *Service) CreateQuotes(ctx context.Context, quotes []models.Quote) []store.BatchResult[models.Quote] {
	results := make([]store.BatchResult[models.Quote], len(quotes))
	valid := make([]models.Quote, 0, len(quotes))
	slots := make([]int, 0, len(quotes))
	for i, q := range quotes {
		prepared, err := prepareQuote(q)
		if err != nil {
			results[i] = store.BatchResult[models.Quote]{Record: q, Err: err}
			continue
		}
		valid = append(valid, prepared)
		slots = append(slots, i)
	}
	for j, r := range s.repos.Quotes.CreateBatch(ctx, valid) {
		results[slots[j]] = r
	}
	s.logBatch("create", results)
	return results
}

// UpdateQuoteStatuses moves several quotes to the same status.
func (s *Service) UpdateQuoteStatuses(ctx context.Context, ids []int64, status models.QuoteStatus) []store.BatchResult[models.Quote] {
	updates := make([]store.BatchUpdate[models.Quote], len(ids))
	for i, id := range ids {
		updates[i] = store.BatchUpdate[models.Quote]{ID: id, Mutate: func(q *models.Quote) error {
			if !status.Valid() {
				return &models.ValidationError{Fields: map[string]string{
					"status": fmt.Sprintf("Unknown status %q", status),
				}}
			}
			q.Status = status
			return nil
		}}
	}
	results := s.repos.Quotes.UpdateBatch(ctx, updates)
	s.logBatch("update", results)
	return results
}

func (s *Service) DeleteQuotes(ctx context.Context, ids []int64) []store.BatchResult[models.Quote] {
	results := s.repos.Quotes.DeleteBatch(ctx, ids)
	s.logBatch("delete", results)
	return results
}

func (s *Service) logBatch(op string, results []store.BatchResult[models.Quote]) {
	ok, failed := store.Summarize(results)
	if failed > 0 {
		s.logger.Warn("quote batch had failures",
			zap.String("op", op),
			zap.Int("succeeded", ok),
			zap.Int("failed", failed))
	}
}
