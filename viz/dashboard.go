// ABOUTME: Terminal dashboard rendering
// ABOUTME: Draws pipeline bars, conversion rates, targets and upcoming work
package viz

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/harperreed/crmdesk/metrics"
	"github.com/harperreed/crmdesk/models"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("170"))

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("39"))

	stageStyle = lipgloss.NewStyle().Width(13)

	mutedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))
)

const rule = "━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━"

func RenderDashboard(d metrics.Dashboard) string {
	var out strings.Builder

	out.WriteString(rule + "\n")
	out.WriteString("  " + titleStyle.Render("CRMDESK DASHBOARD") + "\n")
	out.WriteString(rule + "\n\n")

	out.WriteString(headerStyle.Render("PIPELINE OVERVIEW") + "\n")
	renderPipeline(&out, d.Pipeline.PipelineData)
	out.WriteString("\n")

	out.WriteString(headerStyle.Render("CONVERSION") + "\n")
	for _, step := range d.Pipeline.ConversionRates.Steps {
		fmt.Fprintf(&out, "  %s → %s: %d%%\n", step.From, step.To, step.Rate)
	}
	fmt.Fprintf(&out, "  Overall: %d%%\n\n", d.Pipeline.ConversionRates.Overall)

	out.WriteString(headerStyle.Render("STATS") + "\n")
	fmt.Fprintf(&out, "  %d contacts  %d deals  %s pipeline  %s avg deal\n",
		d.Pipeline.TotalContacts, d.Pipeline.TotalDeals,
		money(d.Pipeline.TotalPipelineValue), money(d.Pipeline.AverageDealSize))
	fmt.Fprintf(&out, "  Tasks: %d/%d completed (%d%%)  Activities: %d\n",
		d.Performance.CompletedTasks, d.Performance.TotalTasks,
		d.Performance.TaskCompletionRate, d.Performance.ActivitiesCount)
	fmt.Fprintf(&out, "  Revenue: %s of %s target (%.0f%%)\n\n",
		money(d.Performance.MonthlyRevenue), money(d.Performance.MonthlyTarget), d.Performance.TargetProgress)

	if len(d.TopContacts) > 0 {
		out.WriteString(headerStyle.Render("TOP CONTACTS") + "\n")
		for _, c := range d.TopContacts {
			fmt.Fprintf(&out, "  %-20s %10s  %d active  %d won\n", c.Name, money(c.TotalValue), c.ActiveDeals, c.WonDeals)
		}
		out.WriteString("\n")
	}

	if len(d.UpcomingTasks) > 0 {
		out.WriteString(headerStyle.Render("UPCOMING TASKS") + "\n")
		for _, t := range d.UpcomingTasks {
			fmt.Fprintf(&out, "  %s  %s %s\n", t.DueDate, t.Title, mutedStyle.Render(string(t.Priority)))
		}
		out.WriteString("\n")
	}

	if len(d.RecentActivity) > 0 {
		out.WriteString(headerStyle.Render("RECENT ACTIVITY") + "\n")
		for _, a := range d.RecentActivity {
			fmt.Fprintf(&out, "  %s  %s\n", a.Timestamp.Format("Jan 02 15:04"), a.Description)
		}
	}

	return out.String()
}

func renderPipeline(out *strings.Builder, pipeline []metrics.StageSummary) {
	// Find max count for scaling
	maxCount := 0
	for _, s := range pipeline {
		if s.Count > maxCount {
			maxCount = s.Count
		}
	}
	if maxCount == 0 {
		maxCount = 1
	}

	for _, s := range pipeline {
		// Calculate bar length (0-10 blocks)
		barLength := (s.Count * 10) / maxCount
		bar := strings.Repeat("█", barLength) + strings.Repeat("░", 10-barLength)

		fmt.Fprintf(out, "  %s %s  %2d (%s)\n", stageStyle.Render(string(s.Stage)), bar, s.Count, money(s.Value))
	}
}

// money abbreviates dollar amounts to whole thousands above $1K.
func money(v float64) string {
	if v >= 1000 || v <= -1000 {
		return fmt.Sprintf("$%.0fK", v/1000)
	}
	return fmt.Sprintf("$%.0f", v)
}

// RenderTimeline prints activities one per line, newest first as given.
func RenderTimeline(activities []models.Activity) string {
	if len(activities) == 0 {
		return mutedStyle.Render("No activity yet") + "\n"
	}
	var out strings.Builder
	for _, a := range activities {
		fmt.Fprintf(&out, "%s  %-18s %s  %s\n",
			a.Timestamp.Format("2006-01-02 15:04"), a.Type, a.Description, mutedStyle.Render(a.User))
	}
	return out.String()
}
