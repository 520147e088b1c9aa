// ABOUTME: Imports JSON fixtures into empty repositories at startup
// ABOUTME: Ships a small embedded data set used when no fixtures directory is configured
package seed

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/harperreed/crmdesk/crm"
	"github.com/harperreed/crmdesk/models"
	"github.com/harperreed/crmdesk/store"
	"go.uber.org/zap"
)

//go:embed fixtures/*.json
var embedded embed.FS

// Fixtures is the bundled sample data.
func Fixtures() fs.FS {
	sub, err := fs.Sub(embedded, "fixtures")
	if err != nil {
		panic(err)
	}
	return sub
}

// Report counts imported records per file.
type Report map[string]int

// LoadDir imports fixtures from a directory on disk.
func LoadDir(ctx context.Context, dir string, repos crm.Repos, logger *zap.Logger) (Report, error) {
	return Load(ctx, os.DirFS(dir), repos, logger)
}

// Load imports each fixture file into its repository when that repository
// is empty. Missing files are skipped.
func Load(ctx context.Context, fsys fs.FS, repos crm.Repos, logger *zap.Logger) (Report, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	report := Report{}
	steps := []func() error{
		func() error { return importFile(ctx, fsys, "companies.json", repos.Companies, report, logger) },
		func() error { return importFile(ctx, fsys, "contacts.json", repos.Contacts, report, logger) },
		func() error { return importFile(ctx, fsys, "deals.json", repos.Deals, report, logger) },
		func() error { return importFile(ctx, fsys, "tasks.json", repos.Tasks, report, logger) },
		func() error { return importFile(ctx, fsys, "quotes.json", repos.Quotes, report, logger) },
	}
	for _, step := range steps {
		if err := step(); err != nil {
			return report, err
		}
	}
	return report, nil
}

func importFile[T any](ctx context.Context, fsys fs.FS, name string, repo store.Seedable[T], report Report, logger *zap.Logger) error {
	if repo.Len() > 0 {
		logger.Debug("store not empty, skipping fixture", zap.String("file", name))
		return nil
	}
	data, err := fs.ReadFile(fsys, name)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", name, err)
	}
	var recs []T
	if err := json.Unmarshal(data, &recs); err != nil {
		return fmt.Errorf("failed to decode %s: %w", name, err)
	}
	n, err := repo.Import(ctx, recs)
	if err != nil {
		return fmt.Errorf("failed to import %s: %w", name, err)
	}
	report[name] = n
	logger.Info("imported fixtures", zap.String("file", name), zap.Int("records", n))
	return nil
}

// Validate checks every fixture record with the same rules used on create
// and returns the problems found, keyed by file and id.
func Validate(fsys fs.FS) (map[string]error, error) {
	problems := map[string]error{}
	if err := validateFile(fsys, "contacts.json", models.ValidateContact, func(c models.Contact) int64 { return c.ID }, problems); err != nil {
		return nil, err
	}
	if err := validateFile(fsys, "companies.json", models.ValidateCompany, func(c models.Company) int64 { return c.ID }, problems); err != nil {
		return nil, err
	}
	if err := validateFile(fsys, "deals.json", models.ValidateDeal, func(d models.Deal) int64 { return d.ID }, problems); err != nil {
		return nil, err
	}
	if err := validateFile(fsys, "tasks.json", models.ValidateTask, func(t models.Task) int64 { return t.ID }, problems); err != nil {
		return nil, err
	}
	if err := validateFile(fsys, "quotes.json", models.ValidateQuote, func(q models.Quote) int64 { return q.ID }, problems); err != nil {
		return nil, err
	}
	return problems, nil
}

func validateFile[T any](fsys fs.FS, name string, validate func(T) error, idOf func(T) int64, problems map[string]error) error {
	data, err := fs.ReadFile(fsys, name)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", name, err)
	}
	var recs []T
	if err := json.Unmarshal(data, &recs); err != nil {
		return fmt.Errorf("failed to decode %s: %w", name, err)
	}
	for _, r := range recs {
		if err := validate(r); err != nil {
			problems[fmt.Sprintf("%s#%d", name, idOf(r))] = err
		}
	}
	return nil
}
