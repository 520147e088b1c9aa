// ABOUTME: Manual activity logging and timeline queries
// ABOUTME: Logging a call or email also stamps the contact's last contact date
package crm

import (
	"context"

	"github.com/harperreed/crmdesk/activity"
	"github.com/harperreed/crmdesk/models"
)

// LogCall records a call directly, bypassing the outbox, since the activity
// is the mutation itself.
func (s *Service) LogCall(ctx context.Context, contactID, dealID *int64, notes string, duration int) (models.Activity, error) {
	a, err := s.recorder.CreateCallActivity(ctx, contactID, dealID, notes, duration)
	if err != nil {
		return models.Activity{}, err
	}
	s.touchContact(ctx, contactID)
	return a, nil
}

func (s *Service) LogEmail(ctx context.Context, contactID, dealID *int64, subject, notes string) (models.Activity, error) {
	a, err := s.recorder.CreateEmailActivity(ctx, contactID, dealID, subject, notes)
	if err != nil {
		return models.Activity{}, err
	}
	s.touchContact(ctx, contactID)
	return a, nil
}

// ContactTimeline includes activities on the contact's deals.
func (s *Service) ContactTimeline(ctx context.Context, contactID int64) ([]models.Activity, error) {
	deals, err := s.repos.Deals.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	var dealIDs []int64
	for _, d := range deals {
		if sameID(d.ContactID, contactID) {
			dealIDs = append(dealIDs, d.ID)
		}
	}
	return s.recorder.TimelineForContact(ctx, contactID, dealIDs...)
}

func (s *Service) DealTimeline(ctx context.Context, dealID int64) ([]models.Activity, error) {
	return s.recorder.TimelineForDeal(ctx, dealID)
}

// CombinedTimeline merges the contact and deal timelines without duplicates.
func (s *Service) CombinedTimeline(ctx context.Context, contactID, dealID int64) ([]models.Activity, error) {
	contact, err := s.ContactTimeline(ctx, contactID)
	if err != nil {
		return nil, err
	}
	deal, err := s.DealTimeline(ctx, dealID)
	if err != nil {
		return nil, err
	}
	return activity.MergeTimelines(contact, deal), nil
}

func (s *Service) ListActivities(ctx context.Context, t models.ActivityType) ([]models.Activity, error) {
	if t == "" {
		return s.recorder.GetAll(ctx)
	}
	return s.recorder.ByType(ctx, t)
}

func (s *Service) GetActivity(ctx context.Context, id int64) (models.Activity, error) {
	return s.recorder.GetByID(ctx, id)
}

func (s *Service) DeleteActivity(ctx context.Context, id int64) (models.Activity, error) {
	return s.recorder.Delete(ctx, id)
}
