// ABOUTME: Task operations; every task links to a contact or a deal
// ABOUTME: New tasks start pending and completing one records an activity
package crm

import (
	"context"
	"fmt"

	"github.com/harperreed/crmdesk/activity"
	"github.com/harperreed/crmdesk/models"
)

type TaskPatch struct {
	Title       *string              `json:"title,omitempty"`
	Description *string              `json:"description,omitempty"`
	Type        *models.TaskType     `json:"type,omitempty"`
	DueDate     *models.Date         `json:"dueDate,omitempty"`
	Priority    *models.TaskPriority `json:"priority,omitempty"`
	ContactID   *int64               `json:"contactId,omitempty"`
	DealID      *int64               `json:"dealId,omitempty"`
}

func (s *Service) ListTasks(ctx context.Context, q TaskQuery) (Page[models.Task], error) {
	all, err := s.repos.Tasks.GetAll(ctx)
	if err != nil {
		return Page[models.Task]{}, err
	}
	return q.apply(all), nil
}

func (s *Service) GetTask(ctx context.Context, id int64) (models.Task, error) {
	return s.repos.Tasks.GetByID(ctx, id)
}

func (s *Service) tasksWhere(ctx context.Context, keep func(models.Task) bool) ([]models.Task, error) {
	all, err := s.repos.Tasks.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]models.Task, 0, len(all))
	for _, t := range all {
		if keep(t) {
			out = append(out, t)
		}
	}
	return out, nil
}

func (s *Service) TasksByContact(ctx context.Context, contactID int64) ([]models.Task, error) {
	return s.tasksWhere(ctx, func(t models.Task) bool { return sameID(t.ContactID, contactID) })
}

func (s *Service) TasksByDeal(ctx context.Context, dealID int64) ([]models.Task, error) {
	return s.tasksWhere(ctx, func(t models.Task) bool { return sameID(t.DealID, dealID) })
}

func (s *Service) TasksByStatus(ctx context.Context, status models.TaskStatus) ([]models.Task, error) {
	return s.tasksWhere(ctx, func(t models.Task) bool { return t.Status == status })
}

// checkTaskLinks rejects links to contacts or deals that do not exist.
func (s *Service) checkTaskLinks(ctx context.Context, t models.Task) error {
	if t.ContactID != nil {
		if _, err := s.repos.Contacts.GetByID(ctx, *t.ContactID); err != nil {
			return fmt.Errorf("failed to link task: %w", err)
		}
	}
	if t.DealID != nil {
		if _, err := s.repos.Deals.GetByID(ctx, *t.DealID); err != nil {
			return fmt.Errorf("failed to link task: %w", err)
		}
	}
	return nil
}

func (s *Service) CreateTask(ctx context.Context, t models.Task) (models.Task, error) {
	t.Status = models.TaskPending
	if t.Type == "" {
		t.Type = models.TaskCall
	}
	if t.Priority == "" {
		t.Priority = models.PriorityMedium
	}
	if err := models.ValidateTask(t); err != nil {
		return models.Task{}, err
	}
	if err := s.checkTaskLinks(ctx, t); err != nil {
		return models.Task{}, err
	}
	created, err := s.repos.Tasks.Create(ctx, t)
	if err != nil {
		return models.Task{}, err
	}
	s.emit(ctx, activity.TaskCreated(created))
	return created, nil
}

// UpdateTask changes task fields; status changes go through UpdateTaskStatus.
// A link id of 0 clears that link.
func (s *Service) UpdateTask(ctx context.Context, id int64, p TaskPatch) (models.Task, error) {
	current, err := s.repos.Tasks.GetByID(ctx, id)
	if err != nil {
		return models.Task{}, err
	}
	next := current.Clone()
	if p.Title != nil {
		next.Title = *p.Title
	}
	if p.Description != nil {
		next.Description = *p.Description
	}
	if p.Type != nil {
		next.Type = *p.Type
	}
	if p.DueDate != nil {
		next.DueDate = *p.DueDate
	}
	if p.Priority != nil {
		next.Priority = *p.Priority
	}
	if p.ContactID != nil {
		next.ContactID = p.ContactID
		if *p.ContactID == 0 {
			next.ContactID = nil
		}
	}
	if p.DealID != nil {
		next.DealID = p.DealID
		if *p.DealID == 0 {
			next.DealID = nil
		}
	}
	if err := models.ValidateTask(next); err != nil {
		return models.Task{}, err
	}
	if err := s.checkTaskLinks(ctx, next); err != nil {
		return models.Task{}, err
	}
	return s.repos.Tasks.Update(ctx, id, func(t *models.Task) error {
		status := t.Status
		*t = next
		t.Status = status
		return nil
	})
}

// UpdateTaskStatus records a task_completed activity when a pending task
// is completed. Reopening a task records nothing.
func (s *Service) UpdateTaskStatus(ctx context.Context, id int64, status models.TaskStatus) (models.Task, error) {
	if status != models.TaskPending && status != models.TaskCompleted {
		return models.Task{}, &models.ValidationError{Fields: map[string]string{
			"status": fmt.Sprintf("Unknown status %q", status),
		}}
	}
	var old models.TaskStatus
	updated, err := s.repos.Tasks.Update(ctx, id, func(t *models.Task) error {
		old = t.Status
		t.Status = status
		return nil
	})
	if err != nil {
		return models.Task{}, err
	}
	if old != models.TaskCompleted && status == models.TaskCompleted {
		s.emit(ctx, activity.TaskCompleted(updated))
	}
	return updated, nil
}

func (s *Service) DeleteTask(ctx context.Context, id int64) (models.Task, error) {
	return s.repos.Tasks.Delete(ctx, id)
}
