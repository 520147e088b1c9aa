// ABOUTME: Quote CLI commands
// ABOUTME: List quotes and apply batch status changes or deletions
package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/harperreed/crmdesk/crm"
	"github.com/harperreed/crmdesk/models"
	"github.com/harperreed/crmdesk/store"
)

// ListQuotesCommand lists quotes one page at a time.
func ListQuotesCommand(ctx context.Context, app *App, args []string) error {
	fs := newFlagSet("list-quotes")
	query := fs.String("query", "", "Search company, contact and deal title")
	status := fs.String("status", "all", "Draft, Sent, Accepted, Rejected, Expired or all")
	page := fs.Int("page", 1, "Page number")
	if err := fs.Parse(args); err != nil {
		return err
	}

	result, err := app.Service.ListQuotes(ctx, crm.QuoteQuery{Search: *query, Status: *status, Page: *page})
	if err != nil {
		return fmt.Errorf("failed to find quotes: %w", err)
	}
	if result.TotalItems == 0 {
		fmt.Fprintln(app.Out, "No quotes found")
		return nil
	}

	w := newTable(app.Out)
	_, _ = fmt.Fprintln(w, "ID\tCOMPANY\tDEAL\tAMOUNT\tSTATUS\tEXPIRES")
	_, _ = fmt.Fprintln(w, "--\t-------\t----\t------\t------\t-------")
	for _, q := range result.Items {
		_, _ = fmt.Fprintf(w, "%d\t%s\t%s\t$%.0f\t%s\t%s\n",
			q.ID, q.Company, q.DealTitle, q.Amount, q.Status, q.ExpiresOn)
	}
	_ = w.Flush()

	fmt.Fprintf(app.Out, "\nPage %d of %d (%d quote(s))\n", result.Page, result.TotalPages, result.TotalItems)
	return nil
}

func parseIDs(args []string) ([]int64, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("at least one quote ID is required")
	}
	ids := make([]int64, len(args))
	for i, a := range args {
		id, err := strconv.ParseInt(a, 10, 64)
		if err != nil || id <= 0 {
			return nil, fmt.Errorf("invalid quote ID: %s", a)
		}
		ids[i] = id
	}
	return ids, nil
}

func printBatch(app *App, verb string, results []store.BatchResult[models.Quote]) {
	ok, failed := store.Summarize(results)
	for _, r := range results {
		if r.OK() {
			fmt.Fprintf(app.Out, "✓ Quote %d %s\n", r.ID, verb)
		} else {
			fmt.Fprintf(app.Out, "✗ Quote %d: %v\n", r.ID, r.Err)
		}
	}
	fmt.Fprintf(app.Out, "\n%d succeeded, %d failed\n", ok, failed)
}

// SetQuoteStatusCommand sets the status of several quotes: quote-status --status Sent 1 2 3.
func SetQuoteStatusCommand(ctx context.Context, app *App, args []string) error {
	fs := newFlagSet("quote-status")
	status := fs.String("status", "", "Draft, Sent, Accepted, Rejected or Expired (required)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	s := models.QuoteStatus(*status)
	if !s.Valid() {
		return fmt.Errorf("invalid status %q", *status)
	}
	ids, err := parseIDs(fs.Args())
	if err != nil {
		return err
	}
	printBatch(app, "updated", app.Service.UpdateQuoteStatuses(ctx, ids, s))
	return nil
}

func DeleteQuotesCommand(ctx context.Context, app *App, args []string) error {
	fs := newFlagSet("delete-quotes")
	if err := fs.Parse(args); err != nil {
		return err
	}
	ids, err := parseIDs(fs.Args())
	if err != nil {
		return err
	}
	printBatch(app, "deleted", app.Service.DeleteQuotes(ctx, ids))
	return nil
}
