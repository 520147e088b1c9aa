// ABOUTME: Deal CLI commands
// ABOUTME: Create, list, move through the pipeline and delete deals
package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/harperreed/crmdesk/crm"
	"github.com/harperreed/crmdesk/models"
)

// AddDealCommand adds a new deal; the stage defaults to Lead.
func AddDealCommand(ctx context.Context, app *App, args []string) error {
	fs := newFlagSet("add-deal")
	company := fs.String("company", "", "Company name (required)")
	contactID := fs.Int64("contact", 0, "Primary contact ID")
	contactName := fs.String("contact-name", "", "Contact name when no contact ID is given")
	value := fs.Float64("value", 0, "Deal value in dollars (required)")
	stage := fs.String("stage", string(models.StageLead), "Pipeline stage")
	closeDate := fs.String("close", "", "Expected close date YYYY-MM-DD (required)")
	description := fs.String("description", "", "Deal description")
	if err := fs.Parse(args); err != nil {
		return err
	}

	st, err := models.ParseStage(*stage)
	if err != nil {
		return err
	}
	closeOn, err := models.ParseDate(*closeDate)
	if err != nil {
		return fmt.Errorf("invalid --close: %w", err)
	}

	deal, err := app.Service.CreateDeal(ctx, models.Deal{
		Company:           *company,
		ContactID:         optionalID(*contactID),
		ContactName:       *contactName,
		DealValue:         *value,
		Stage:             st,
		ExpectedCloseDate: closeOn,
		Description:       *description,
	})
	if err != nil {
		return fmt.Errorf("failed to create deal: %w", err)
	}
	fmt.Fprintf(app.Out, "✓ Deal created: %s $%.0f (ID: %d)\n", deal.DisplayName(), deal.DealValue, deal.ID)
	fmt.Fprintf(app.Out, "  Stage: %s\n", deal.Stage)
	fmt.Fprintf(app.Out, "  Expected close: %s\n", deal.ExpectedCloseDate)
	return nil
}

// ListDealsCommand lists deals, optionally by stage or company.
func ListDealsCommand(ctx context.Context, app *App, args []string) error {
	fs := newFlagSet("list-deals")
	query := fs.String("query", "", "Search company, contact and description")
	stage := fs.String("stage", "", "Filter by stage")
	companyID := fs.Int64("company", 0, "Filter by company ID")
	if err := fs.Parse(args); err != nil {
		return err
	}

	q := crm.DealQuery{Search: *query, CompanyID: optionalID(*companyID)}
	if *stage != "" {
		st, err := models.ParseStage(*stage)
		if err != nil {
			return err
		}
		q.Stage = st
	}
	deals, err := app.Service.ListDeals(ctx, q)
	if err != nil {
		return fmt.Errorf("failed to find deals: %w", err)
	}
	if len(deals) == 0 {
		fmt.Fprintln(app.Out, "No deals found")
		return nil
	}

	w := newTable(app.Out)
	_, _ = fmt.Fprintln(w, "ID\tCOMPANY\tCONTACT\tVALUE\tSTAGE\tCLOSE")
	_, _ = fmt.Fprintln(w, "--\t-------\t-------\t-----\t-----\t-----")
	total := 0.0
	for _, d := range deals {
		_, _ = fmt.Fprintf(w, "%d\t%s\t%s\t$%.0f\t%s\t%s\n",
			d.ID, dash(d.Company), dash(d.ContactName), d.DealValue, d.Stage, d.ExpectedCloseDate)
		total += d.DealValue
	}
	_ = w.Flush()

	fmt.Fprintf(app.Out, "\nTotal: %d deal(s), $%.0f\n", len(deals), total)
	return nil
}

// MoveDealCommand moves a deal to another stage: move-deal <id> <stage>.
func MoveDealCommand(ctx context.Context, app *App, args []string) error {
	fs := newFlagSet("move-deal")
	if err := fs.Parse(args); err != nil {
		return err
	}
	id, err := positionalID(fs, "deal")
	if err != nil {
		return err
	}
	if fs.NArg() < 2 {
		return fmt.Errorf("target stage is required")
	}
	stage, err := models.ParseStage(strings.Join(fs.Args()[1:], " "))
	if err != nil {
		return err
	}

	deal, err := app.Service.UpdateStage(ctx, id, stage)
	if err != nil {
		return fmt.Errorf("failed to move deal: %w", err)
	}
	fmt.Fprintf(app.Out, "✓ Deal %d is now %s\n", deal.ID, deal.Stage)
	if next := models.AllowedTransitions(deal.Stage); len(next) > 0 {
		names := make([]string, len(next))
		for i, s := range next {
			names[i] = string(s)
		}
		fmt.Fprintf(app.Out, "  Next: %s\n", strings.Join(names, ", "))
	}
	return nil
}

// DeleteDealCommand deletes a deal and unlinks its tasks.
func DeleteDealCommand(ctx context.Context, app *App, args []string) error {
	fs := newFlagSet("delete-deal")
	if err := fs.Parse(args); err != nil {
		return err
	}
	id, err := positionalID(fs, "deal")
	if err != nil {
		return err
	}
	removed, err := app.Service.DeleteDeal(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to delete deal: %w", err)
	}
	fmt.Fprintf(app.Out, "✓ Deal deleted: %s\n", removed.DisplayName())
	return nil
}
