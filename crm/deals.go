// ABOUTME: Deal operations including stage transitions under the configured policy
// ABOUTME: Creating a deal and moving it between stages both record activities
package crm

import (
	"context"
	"fmt"

	"github.com/harperreed/crmdesk/activity"
	"github.com/harperreed/crmdesk/models"
	"go.uber.org/zap"
)

// DealPatch carries the fields to change. Stage changes go through UpdateStage.
type DealPatch struct {
	Company           *string       `json:"company,omitempty"`
	CompanyID         *int64        `json:"companyId,omitempty"`
	ContactID         *int64        `json:"contactId,omitempty"`
	ContactName       *string       `json:"contactName,omitempty"`
	DealValue         *float64      `json:"dealValue,omitempty"`
	Stage             *models.Stage `json:"stage,omitempty"`
	ExpectedCloseDate *models.Date  `json:"expectedCloseDate,omitempty"`
	Description       *string       `json:"description,omitempty"`
}

func (s *Service) ListDeals(ctx context.Context, q DealQuery) ([]models.Deal, error) {
	all, err := s.repos.Deals.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	return q.apply(all), nil
}

func (s *Service) DealsByStage(ctx context.Context, stage models.Stage) ([]models.Deal, error) {
	return s.ListDeals(ctx, DealQuery{Stage: stage})
}

func (s *Service) GetDeal(ctx context.Context, id int64) (models.Deal, error) {
	return s.repos.Deals.GetByID(ctx, id)
}

// linkDeal resolves the company and copies the contact name from the contact.
func (s *Service) linkDeal(ctx context.Context, d *models.Deal) error {
	var err error
	if d.CompanyID, d.Company, err = s.resolveCompany(ctx, d.CompanyID, d.Company); err != nil {
		return fmt.Errorf("failed to resolve company: %w", err)
	}
	if d.ContactID != nil {
		contact, err := s.repos.Contacts.GetByID(ctx, *d.ContactID)
		if err != nil {
			return fmt.Errorf("failed to resolve contact: %w", err)
		}
		d.ContactName = contact.Name
	}
	return nil
}

func (s *Service) CreateDeal(ctx context.Context, d models.Deal) (models.Deal, error) {
	if d.Stage == "" {
		d.Stage = models.StageLead
	}
	if err := models.ValidateDeal(d); err != nil {
		return models.Deal{}, err
	}
	if err := s.linkDeal(ctx, &d); err != nil {
		return models.Deal{}, err
	}
	created, err := s.repos.Deals.Create(ctx, d)
	if err != nil {
		return models.Deal{}, err
	}
	s.emit(ctx, activity.DealCreated(created))
	return created, nil
}

// UpdateDeal applies field changes and, when the patch names a stage, the
// stage move in one mutation. A rejected move leaves the deal untouched.
func (s *Service) UpdateDeal(ctx context.Context, id int64, p DealPatch) (models.Deal, error) {
	current, err := s.repos.Deals.GetByID(ctx, id)
	if err != nil {
		return models.Deal{}, err
	}
	if p.Stage != nil {
		if err := s.policy.Check(current.Stage, *p.Stage); err != nil {
			return models.Deal{}, err
		}
	}

	next := current.Clone()
	if p.Company != nil {
		next.Company = *p.Company
		next.CompanyID = nil
	}
	if p.CompanyID != nil {
		next.CompanyID = p.CompanyID
		if *p.CompanyID == 0 {
			next.CompanyID = nil
		}
	}
	if p.ContactID != nil {
		next.ContactID = p.ContactID
		if *p.ContactID == 0 {
			next.ContactID = nil
		}
	}
	if p.ContactName != nil {
		next.ContactName = *p.ContactName
	}
	if p.DealValue != nil {
		next.DealValue = *p.DealValue
	}
	if p.ExpectedCloseDate != nil {
		next.ExpectedCloseDate = *p.ExpectedCloseDate
	}
	if p.Description != nil {
		next.Description = *p.Description
	}
	if err := models.ValidateDeal(next); err != nil {
		return models.Deal{}, err
	}
	if err := s.linkDeal(ctx, &next); err != nil {
		return models.Deal{}, err
	}

	var oldStage models.Stage
	updated, err := s.repos.Deals.Update(ctx, id, func(d *models.Deal) error {
		// The stage may have moved since the read above; check against the stored one.
		oldStage = d.Stage
		next.Stage = d.Stage
		if p.Stage != nil {
			if err := s.policy.Check(d.Stage, *p.Stage); err != nil {
				return err
			}
			next.Stage = *p.Stage
		}
		*d = next
		return nil
	})
	if err != nil {
		return models.Deal{}, err
	}
	s.stageChanged(ctx, updated, oldStage)
	return updated, nil
}

// UpdateStage moves a deal to a new stage and records the change. Moving to
// the current stage changes nothing and records nothing.
func (s *Service) UpdateStage(ctx context.Context, id int64, stage models.Stage) (models.Deal, error) {
	var oldStage models.Stage
	updated, err := s.repos.Deals.Update(ctx, id, func(d *models.Deal) error {
		if err := s.policy.Check(d.Stage, stage); err != nil {
			return err
		}
		oldStage = d.Stage
		d.Stage = stage
		return nil
	})
	if err != nil {
		return models.Deal{}, err
	}
	s.stageChanged(ctx, updated, oldStage)
	return updated, nil
}

func (s *Service) stageChanged(ctx context.Context, d models.Deal, oldStage models.Stage) {
	if oldStage == d.Stage {
		return
	}
	s.logger.Info("deal stage changed",
		zap.Int64("deal_id", d.ID),
		zap.String("from", string(oldStage)),
		zap.String("to", string(d.Stage)))
	s.emit(ctx, activity.DealStageChanged(d, oldStage, d.Stage))
}

// DeleteDeal removes the deal and clears its id from tasks.
func (s *Service) DeleteDeal(ctx context.Context, id int64) (models.Deal, error) {
	removed, err := s.repos.Deals.Delete(ctx, id)
	if err != nil {
		return models.Deal{}, err
	}
	tasks, err := s.repos.Tasks.GetAll(ctx)
	if err != nil {
		return removed, fmt.Errorf("failed to unlink tasks: %w", err)
	}
	for _, t := range tasks {
		if !sameID(t.DealID, id) {
			continue
		}
		if _, err := s.repos.Tasks.Update(ctx, t.ID, func(t *models.Task) error {
			t.DealID = nil
			return nil
		}); err != nil {
			return removed, fmt.Errorf("failed to unlink task %d: %w", t.ID, err)
		}
	}
	return removed, nil
}
