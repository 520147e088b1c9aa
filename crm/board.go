// ABOUTME: Kanban view of the deal pipeline with optimistic stage moves
// ABOUTME: A failed move discards local state by reloading every column
package crm

import (
	"context"
	"fmt"
	"sync"

	"github.com/harperreed/crmdesk/models"
	"go.uber.org/zap"
)

// Column is one stage of the board.
type Column struct {
	Stage models.Stage  `json:"stage"`
	Deals []models.Deal `json:"deals"`
	Value float64       `json:"value"`
}

type Board struct {
	svc *Service

	mu      sync.Mutex
	columns map[models.Stage][]models.Deal
}

func (s *Service) Board() *Board {
	return &Board{svc: s, columns: map[models.Stage][]models.Deal{}}
}

// Load replaces every column with the deals currently in the store.
func (b *Board) Load(ctx context.Context) error {
	deals, err := b.svc.repos.Deals.GetAll(ctx)
	if err != nil {
		return fmt.Errorf("failed to load board: %w", err)
	}
	columns := make(map[models.Stage][]models.Deal, len(models.Stages))
	for _, d := range deals {
		columns[d.Stage] = append(columns[d.Stage], d)
	}
	b.mu.Lock()
	b.columns = columns
	b.mu.Unlock()
	return nil
}

// Columns returns the board in pipeline order.
func (b *Board) Columns() []Column {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Column, 0, len(models.Stages))
	for _, stage := range models.Stages {
		col := Column{Stage: stage, Deals: make([]models.Deal, 0, len(b.columns[stage]))}
		for _, d := range b.columns[stage] {
			col.Deals = append(col.Deals, d.Clone())
			col.Value += d.DealValue
		}
		out = append(out, col)
	}
	return out
}

// Move shows the deal in its new column right away, then persists the
// stage change. If that fails the board is reloaded and the error returned.
func (b *Board) Move(ctx context.Context, dealID int64, to models.Stage) (models.Deal, error) {
	if !b.moveLocal(dealID, to) {
		return models.Deal{}, fmt.Errorf("deal %d is not on the board", dealID)
	}
	updated, err := b.svc.UpdateStage(ctx, dealID, to)
	if err != nil {
		b.svc.logger.Warn("stage move failed, reloading board",
			zap.Int64("deal_id", dealID),
			zap.String("to", string(to)),
			zap.Error(err))
		if reloadErr := b.Load(ctx); reloadErr != nil {
			b.svc.logger.Error("failed to reload board", zap.Error(reloadErr))
		}
		return models.Deal{}, err
	}
	b.replace(updated)
	return updated, nil
}

func (b *Board) moveLocal(dealID int64, to models.Stage) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	for stage, deals := range b.columns {
		for i, d := range deals {
			if d.ID != dealID {
				continue
			}
			b.columns[stage] = append(deals[:i:i], deals[i+1:]...)
			d.Stage = to
			b.columns[to] = append([]models.Deal{d}, b.columns[to]...)
			return true
		}
	}
	return false
}

func (b *Board) replace(deal models.Deal) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, d := range b.columns[deal.Stage] {
		if d.ID == deal.ID {
			b.columns[deal.Stage][i] = deal
			return
		}
	}
}
