package seed

import (
	"context"
	"testing"
	"testing/fstest"

	"github.com/harperreed/crmdesk/crm"
	"github.com/harperreed/crmdesk/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBundledFixturesAreValid(t *testing.T) {
	problems, err := Validate(Fixtures())
	require.NoError(t, err)
	assert.Empty(t, problems)
}

func TestLoadBundledFixtures(t *testing.T) {
	ctx := context.Background()
	repos := crm.NewMemoryRepos()

	report, err := Load(ctx, Fixtures(), repos, nil)
	require.NoError(t, err)
	assert.Equal(t, 4, report["contacts.json"])
	assert.Equal(t, 5, report["deals.json"])

	deal, err := repos.Deals.GetByID(ctx, 4)
	require.NoError(t, err)
	assert.Equal(t, models.StageClosedWon, deal.Stage)
	assert.Equal(t, "2025-01-05", deal.ExpectedCloseDate.String())

	// New records continue after the highest fixture id.
	created, err := repos.Deals.Create(ctx, models.Deal{Company: "Hooli", DealValue: 1, ExpectedCloseDate: models.NewDate(2025, 5, 1)})
	require.NoError(t, err)
	assert.Equal(t, int64(6), created.ID)
}

func TestLoadSkipsPopulatedStores(t *testing.T) {
	ctx := context.Background()
	repos := crm.NewMemoryRepos()
	_, err := repos.Contacts.Create(ctx, models.Contact{Name: "Existing"})
	require.NoError(t, err)

	report, err := Load(ctx, Fixtures(), repos, nil)
	require.NoError(t, err)
	_, imported := report["contacts.json"]
	assert.False(t, imported)
	assert.Equal(t, 1, repos.Contacts.Len())
	assert.Equal(t, 3, repos.Companies.Len())
}

func TestLoadMissingAndBrokenFiles(t *testing.T) {
	ctx := context.Background()

	report, err := Load(ctx, fstest.MapFS{}, crm.NewMemoryRepos(), nil)
	require.NoError(t, err)
	assert.Empty(t, report)

	broken := fstest.MapFS{"tasks.json": &fstest.MapFile{Data: []byte(`{"not": "a list"}`)}}
	_, err = Load(ctx, broken, crm.NewMemoryRepos(), nil)
	assert.ErrorContains(t, err, "tasks.json")
}

func TestValidateReportsBadRecords(t *testing.T) {
	fsys := fstest.MapFS{"tasks.json": &fstest.MapFile{Data: []byte(`[{"Id": 7, "title": "orphan", "dueDate": "2025-01-01"}]`)}}
	problems, err := Validate(fsys)
	require.NoError(t, err)
	require.Contains(t, problems, "tasks.json#7")
	assert.ErrorIs(t, problems["tasks.json#7"], models.ErrValidation)
}
