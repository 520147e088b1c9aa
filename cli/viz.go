// ABOUTME: Visualization CLI commands
// ABOUTME: Terminal dashboard, activity timelines, kanban board and graphviz output
package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/harperreed/crmdesk/metrics"
	"github.com/harperreed/crmdesk/models"
	"github.com/harperreed/crmdesk/viz"
)

// DashboardCommand renders the dashboard for a date range.
func DashboardCommand(ctx context.Context, app *App, args []string) error {
	fs := newFlagSet("dashboard")
	rangeName := fs.String("range", string(metrics.AllTime), "thisMonth, thisQuarter, thisYear or all")
	if err := fs.Parse(args); err != nil {
		return err
	}
	d, err := app.Metrics.Dashboard(ctx, metrics.ParseDateRange(*rangeName))
	if err != nil {
		return fmt.Errorf("failed to build dashboard: %w", err)
	}
	fmt.Fprint(app.Out, viz.RenderDashboard(d))
	return nil
}

// TimelineCommand prints the activity timeline of a contact, a deal or both.
func TimelineCommand(ctx context.Context, app *App, args []string) error {
	fs := newFlagSet("timeline")
	contactID := fs.Int64("contact", 0, "Contact ID")
	dealID := fs.Int64("deal", 0, "Deal ID")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var list []models.Activity
	var err error
	switch {
	case *contactID > 0 && *dealID > 0:
		list, err = app.Service.CombinedTimeline(ctx, *contactID, *dealID)
	case *contactID > 0:
		list, err = app.Service.ContactTimeline(ctx, *contactID)
	case *dealID > 0:
		list, err = app.Service.DealTimeline(ctx, *dealID)
	default:
		list, err = app.Metrics.RecentActivity(ctx, metrics.DefaultRecentActivity)
	}
	if err != nil {
		return fmt.Errorf("failed to load timeline: %w", err)
	}
	fmt.Fprint(app.Out, viz.RenderTimeline(list))
	return nil
}

// BoardCommand prints the kanban board, or moves a deal first:
// board [--move <id> --to <stage>].
func BoardCommand(ctx context.Context, app *App, args []string) error {
	fs := newFlagSet("board")
	move := fs.Int64("move", 0, "Deal ID to move")
	to := fs.String("to", "", "Target stage for --move")
	if err := fs.Parse(args); err != nil {
		return err
	}

	board := app.Service.Board()
	if err := board.Load(ctx); err != nil {
		return fmt.Errorf("failed to load board: %w", err)
	}
	if *move > 0 {
		stage, err := models.ParseStage(*to)
		if err != nil {
			return err
		}
		if _, err := board.Move(ctx, *move, stage); err != nil {
			return fmt.Errorf("failed to move deal: %w", err)
		}
	}

	for _, col := range board.Columns() {
		fmt.Fprintf(app.Out, "%s (%d, $%.0f)\n", col.Stage, len(col.Deals), col.Value)
		for _, d := range col.Deals {
			fmt.Fprintf(app.Out, "  #%d %s $%.0f\n", d.ID, d.DisplayName(), d.DealValue)
		}
	}
	return nil
}

// GraphCommand writes GraphViz DOT for the pipeline or the account map.
func GraphCommand(ctx context.Context, app *App, args []string) error {
	fs := newFlagSet("graph")
	output := fs.String("output", "", "Output file (default: stdout)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 1 {
		return fmt.Errorf("graph type is required (pipeline or accounts)")
	}

	repos := app.Service.Repos()
	deals, err := repos.Deals.GetAll(ctx)
	if err != nil {
		return err
	}
	var dot string
	switch fs.Arg(0) {
	case "pipeline":
		dot, err = viz.StageGraph(ctx, metrics.PipelineData(deals))
	case "accounts":
		companies, cerr := repos.Companies.GetAll(ctx)
		if cerr != nil {
			return cerr
		}
		contacts, cerr := repos.Contacts.GetAll(ctx)
		if cerr != nil {
			return cerr
		}
		dot, err = viz.AccountGraph(ctx, companies, contacts, deals)
	default:
		return fmt.Errorf("unknown graph type: %s (valid types: pipeline, accounts)", fs.Arg(0))
	}
	if err != nil {
		return err
	}

	if *output != "" {
		return os.WriteFile(*output, []byte(dot), 0644)
	}
	fmt.Fprintln(app.Out, strings.TrimRight(dot, "\n"))
	return nil
}
