package activity

import (
	"context"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/harperreed/crmdesk/models"
	"github.com/harperreed/crmdesk/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time {
	c.t = c.t.Add(time.Minute)
	return c.t
}

func newRecorder(t *testing.T) *Recorder {
	t.Helper()
	clock := &fakeClock{t: time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)}
	repo := store.New[models.Activity, *models.Activity]("activities", "Activity")
	return NewRecorder(repo, "", clock.now)
}

func TestCreateFillsDefaults(t *testing.T) {
	r := newRecorder(t)
	a, err := r.Create(context.Background(), models.Activity{Type: models.ActivityCallLogged, Description: "x"})
	require.NoError(t, err)

	assert.Equal(t, int64(1), a.ID)
	assert.Equal(t, DefaultUser, a.User)
	assert.False(t, a.Timestamp.IsZero())
}

func TestCreateKeepsGivenTimestampAndUser(t *testing.T) {
	r := newRecorder(t)
	ts := time.Date(2020, 5, 5, 0, 0, 0, 0, time.UTC)
	a, err := r.Create(context.Background(), models.Activity{Type: models.ActivityEmailSent, Timestamp: ts, User: "sam"})
	require.NoError(t, err)
	assert.Equal(t, ts, a.Timestamp)
	assert.Equal(t, "sam", a.User)
}

func TestCreateRejectsUnknownType(t *testing.T) {
	r := newRecorder(t)
	_, err := r.Create(context.Background(), models.Activity{Type: "meeting_booked"})
	assert.Error(t, err)
}

func TestBuilderDescriptions(t *testing.T) {
	deal := models.Deal{ID: 7, Company: "Acme", ContactID: models.ID(3), DealValue: 5000}
	task := models.Task{ID: 9, Title: "Follow up", Type: models.TaskCall, DueDate: models.NewDate(2025, 2, 1), DealID: models.ID(7)}

	stage := DealStageChanged(deal, models.StageLead, models.StageQualified)
	assert.Equal(t, "Deal stage changed from Lead to Qualified", stage.Description)
	assert.Equal(t, "Lead", stage.Details["oldStage"])
	assert.Equal(t, "Qualified", stage.Details["newStage"])
	assert.Equal(t, "Acme", stage.Details["dealName"])
	assert.Equal(t, int64(3), *stage.ContactID)

	assert.Equal(t, "New deal created: Acme", DealCreated(deal).Description)
	assert.Equal(t, "Task completed: Follow up", TaskCompleted(task).Description)
	assert.Equal(t, "New task created: Follow up", TaskCreated(task).Description)
	assert.Equal(t, "2025-02-01", TaskCreated(task).Details["dueDate"])
	assert.Equal(t, "Contact updated: Jane", ContactUpdated(models.Contact{ID: 1, Name: "Jane"}, []string{"phone"}).Description)

	assert.Equal(t, "Call logged", CallLogged(models.ID(1), nil, "", 0).Description)
	assert.Equal(t, "Call logged (15 minutes)", CallLogged(models.ID(1), nil, "", 15).Description)
	assert.Equal(t, "Email sent", EmailSent(nil, models.ID(7), "", "").Description)
	assert.Equal(t, "Email sent: Proposal", EmailSent(nil, models.ID(7), "Proposal", "").Description)
}

func TestTimelinesNewestFirst(t *testing.T) {
	ctx := context.Background()
	r := newRecorder(t)

	first, _ := r.CreateCallActivity(ctx, models.ID(1), nil, "intro", 10)
	second, _ := r.CreateEmailActivity(ctx, models.ID(1), models.ID(5), "Pricing", "")
	third, _ := r.CreateDealStageActivity(ctx, models.Deal{ID: 5, Company: "Acme"}, models.StageLead, models.StageQualified)
	_, _ = r.CreateCallActivity(ctx, models.ID(2), nil, "other", 0)

	byContact, err := r.ByContact(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, []int64{second.ID, first.ID}, ids(byContact))

	byDeal, err := r.TimelineForDeal(ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, []int64{third.ID, second.ID}, ids(byDeal))

	combined, err := r.CombinedTimeline(ctx, 1, 5)
	require.NoError(t, err)
	assert.Equal(t, []int64{third.ID, second.ID, first.ID}, ids(combined))

	withDeals, err := r.TimelineForContact(ctx, 1, 5)
	require.NoError(t, err)
	assert.Equal(t, ids(combined), ids(withDeals))

	calls, err := r.ByType(ctx, models.ActivityCallLogged)
	require.NoError(t, err)
	assert.Len(t, calls, 2)
}

func TestMergeTimelinesDedupes(t *testing.T) {
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	a := models.Activity{ID: 1, Timestamp: base}
	b := models.Activity{ID: 2, Timestamp: base.Add(time.Hour)}
	c := models.Activity{ID: 3, Timestamp: base}

	merged := MergeTimelines([]models.Activity{a, b}, []models.Activity{b, c})
	assert.Equal(t, []int64{2, 3, 1}, ids(merged))

	for i := 1; i < len(merged); i++ {
		if merged[i].Timestamp.After(merged[i-1].Timestamp) {
			t.Fatalf("timeline not sorted at %d", i)
		}
	}
}

func TestGetAllIdempotent(t *testing.T) {
	ctx := context.Background()
	r := newRecorder(t)
	_, _ = r.CreateCallActivity(ctx, models.ID(1), nil, "", 0)
	_, _ = r.CreateEmailActivity(ctx, models.ID(1), nil, "", "")

	one, err := r.GetAll(ctx)
	require.NoError(t, err)
	two, err := r.GetAll(ctx)
	require.NoError(t, err)
	if diff := cmp.Diff(one, two); diff != "" {
		t.Fatalf("GetAll differs (-first +second):\n%s", diff)
	}
}

func TestApplyIsIdempotent(t *testing.T) {
	ctx := context.Background()
	r := newRecorder(t)
	draft := CallLogged(models.ID(1), nil, "", 5)

	require.NoError(t, r.Apply(ctx, "evt-1", draft))
	require.NoError(t, r.Apply(ctx, "evt-1", draft))
	require.NoError(t, r.Apply(ctx, "evt-2", draft))

	all, err := r.GetAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestDeleteActivity(t *testing.T) {
	ctx := context.Background()
	r := newRecorder(t)
	a, _ := r.CreateCallActivity(ctx, models.ID(1), nil, "", 0)

	_, err := r.Delete(ctx, a.ID)
	require.NoError(t, err)
	_, err = r.GetByID(ctx, a.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestChangedFields(t *testing.T) {
	before := models.Contact{ID: 1, Name: "Jane", Phone: "1", UpdatedAt: time.Now()}
	after := before
	after.Phone = "2"
	after.Company = "Acme"
	after.UpdatedAt = before.UpdatedAt.Add(time.Hour)

	assert.Equal(t, []string{"company", "phone"}, ChangedFields(before, after))
	assert.Empty(t, ChangedFields(before, before))
}

func ids(list []models.Activity) []int64 {
	out := make([]int64, len(list))
	for i, a := range list {
		out[i] = a.ID
	}
	return out
}
