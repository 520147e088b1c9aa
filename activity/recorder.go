// ABOUTME: Append-only activity log with typed constructors and timeline queries
// ABOUTME: Timelines are newest-first; Apply makes outbox delivery idempotent
package activity

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/harperreed/crmdesk/models"
	"github.com/harperreed/crmdesk/store"
)

const DefaultUser = "Current User"

type Recorder struct {
	repo store.Repository[models.Activity]
	user string
	now  func() time.Time

	// applyMu makes the duplicate check and the insert in Apply atomic.
	applyMu sync.Mutex
}

// NewRecorder wraps an activity repository. An empty user falls back to DefaultUser.
func NewRecorder(repo store.Repository[models.Activity], user string, now func() time.Time) *Recorder {
	if user == "" {
		user = DefaultUser
	}
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &Recorder{repo: repo, user: user, now: now}
}

// Create stores an activity, filling a missing timestamp and user.
func (r *Recorder) Create(ctx context.Context, a models.Activity) (models.Activity, error) {
	if !a.Type.Valid() {
		return models.Activity{}, fmt.Errorf("unknown activity type %q", a.Type)
	}
	if a.Timestamp.IsZero() {
		a.Timestamp = r.now()
	}
	if a.User == "" {
		a.User = r.user
	}
	created, err := r.repo.Create(ctx, a)
	if err != nil {
		return models.Activity{}, fmt.Errorf("failed to record activity: %w", err)
	}
	return created, nil
}

// Apply records the activity for an outbox event unless that event was
// already recorded.
func (r *Recorder) Apply(ctx context.Context, eventID string, a models.Activity) error {
	r.applyMu.Lock()
	defer r.applyMu.Unlock()

	if eventID != "" {
		all, err := r.repo.GetAll(ctx)
		if err != nil {
			return err
		}
		for _, existing := range all {
			if existing.EventID == eventID {
				return nil
			}
		}
	}
	a.EventID = eventID
	_, err := r.Create(ctx, a)
	return err
}

func (r *Recorder) CreateDealStageActivity(ctx context.Context, deal models.Deal, oldStage, newStage models.Stage) (models.Activity, error) {
	return r.Create(ctx, DealStageChanged(deal, oldStage, newStage))
}

func (r *Recorder) CreateTaskCompletedActivity(ctx context.Context, task models.Task) (models.Activity, error) {
	return r.Create(ctx, TaskCompleted(task))
}

func (r *Recorder) CreateContactUpdatedActivity(ctx context.Context, contact models.Contact, changes []string) (models.Activity, error) {
	return r.Create(ctx, ContactUpdated(contact, changes))
}

func (r *Recorder) CreateDealCreatedActivity(ctx context.Context, deal models.Deal) (models.Activity, error) {
	return r.Create(ctx, DealCreated(deal))
}

func (r *Recorder) CreateTaskCreatedActivity(ctx context.Context, task models.Task) (models.Activity, error) {
	return r.Create(ctx, TaskCreated(task))
}

func (r *Recorder) CreateCallActivity(ctx context.Context, contactID, dealID *int64, notes string, duration int) (models.Activity, error) {
	return r.Create(ctx, CallLogged(contactID, dealID, notes, duration))
}

func (r *Recorder) CreateEmailActivity(ctx context.Context, contactID, dealID *int64, subject, notes string) (models.Activity, error) {
	return r.Create(ctx, EmailSent(contactID, dealID, subject, notes))
}

func (r *Recorder) GetByID(ctx context.Context, id int64) (models.Activity, error) {
	return r.repo.GetByID(ctx, id)
}

func (r *Recorder) Delete(ctx context.Context, id int64) (models.Activity, error) {
	return r.repo.Delete(ctx, id)
}

// GetAll returns every activity, newest first.
func (r *Recorder) GetAll(ctx context.Context) ([]models.Activity, error) {
	return r.filter(ctx, func(models.Activity) bool { return true })
}

func (r *Recorder) ByContact(ctx context.Context, contactID int64) ([]models.Activity, error) {
	return r.filter(ctx, func(a models.Activity) bool { return matches(a.ContactID, contactID) })
}

func (r *Recorder) ByDeal(ctx context.Context, dealID int64) ([]models.Activity, error) {
	return r.filter(ctx, func(a models.Activity) bool { return matches(a.DealID, dealID) })
}

func (r *Recorder) ByType(ctx context.Context, t models.ActivityType) ([]models.Activity, error) {
	return r.filter(ctx, func(a models.Activity) bool { return a.Type == t })
}

// TimelineForContact returns activities linked to the contact, plus those on
// any of the given deals (the contact's deals).
func (r *Recorder) TimelineForContact(ctx context.Context, contactID int64, dealIDs ...int64) ([]models.Activity, error) {
	deals := make(map[int64]bool, len(dealIDs))
	for _, id := range dealIDs {
		deals[id] = true
	}
	return r.filter(ctx, func(a models.Activity) bool {
		if matches(a.ContactID, contactID) {
			return true
		}
		return a.DealID != nil && deals[*a.DealID]
	})
}

func (r *Recorder) TimelineForDeal(ctx context.Context, dealID int64) ([]models.Activity, error) {
	return r.ByDeal(ctx, dealID)
}

// CombinedTimeline merges the contact and deal timelines without duplicates.
func (r *Recorder) CombinedTimeline(ctx context.Context, contactID, dealID int64) ([]models.Activity, error) {
	byContact, err := r.ByContact(ctx, contactID)
	if err != nil {
		return nil, err
	}
	byDeal, err := r.ByDeal(ctx, dealID)
	if err != nil {
		return nil, err
	}
	return MergeTimelines(byContact, byDeal), nil
}

func (r *Recorder) filter(ctx context.Context, keep func(models.Activity) bool) ([]models.Activity, error) {
	all, err := r.repo.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]models.Activity, 0, len(all))
	for _, a := range all {
		if keep(a) {
			out = append(out, a)
		}
	}
	SortNewestFirst(out)
	return out, nil
}

func matches(p *int64, id int64) bool {
	return p != nil && *p == id
}

// SortNewestFirst orders by timestamp descending, then by id descending.
func SortNewestFirst(list []models.Activity) {
	slices.SortStableFunc(list, func(a, b models.Activity) int {
		if c := b.Timestamp.Compare(a.Timestamp); c != 0 {
			return c
		}
		return cmp.Compare(b.ID, a.ID)
	})
}

// MergeTimelines concatenates lists, keeps the first copy of each id and
// sorts newest first.
func MergeTimelines(lists ...[]models.Activity) []models.Activity {
	seen := make(map[int64]bool)
	var merged []models.Activity
	for _, list := range lists {
		for _, a := range list {
			if seen[a.ID] {
				continue
			}
			seen[a.ID] = true
			merged = append(merged, a)
		}
	}
	SortNewestFirst(merged)
	return merged
}
