// ABOUTME: Task CLI commands
// ABOUTME: Create, list, complete and delete follow-up tasks
package cli

import (
	"context"
	"fmt"

	"github.com/harperreed/crmdesk/crm"
	"github.com/harperreed/crmdesk/models"
)

// AddTaskCommand creates a pending task linked to a contact or deal.
func AddTaskCommand(ctx context.Context, app *App, args []string) error {
	fs := newFlagSet("add-task")
	title := fs.String("title", "", "Task title (required)")
	description := fs.String("description", "", "Task details")
	kind := fs.String("type", string(models.TaskCall), "call, email or meeting")
	due := fs.String("due", "", "Due date YYYY-MM-DD (required)")
	priority := fs.String("priority", string(models.PriorityMedium), "low, medium or high")
	contactID := fs.Int64("contact", 0, "Linked contact ID")
	dealID := fs.Int64("deal", 0, "Linked deal ID")
	if err := fs.Parse(args); err != nil {
		return err
	}

	dueDate, err := models.ParseDate(*due)
	if err != nil {
		return fmt.Errorf("invalid --due: %w", err)
	}
	task, err := app.Service.CreateTask(ctx, models.Task{
		Title:       *title,
		Description: *description,
		Type:        models.TaskType(*kind),
		DueDate:     dueDate,
		Priority:    models.TaskPriority(*priority),
		ContactID:   optionalID(*contactID),
		DealID:      optionalID(*dealID),
	})
	if err != nil {
		return fmt.Errorf("failed to create task: %w", err)
	}
	fmt.Fprintf(app.Out, "✓ Task created: %s (ID: %d, due %s)\n", task.Title, task.ID, task.DueDate)
	return nil
}

// ListTasksCommand lists tasks soonest due first.
func ListTasksCommand(ctx context.Context, app *App, args []string) error {
	fs := newFlagSet("list-tasks")
	query := fs.String("query", "", "Search title and description")
	status := fs.String("status", "", "pending or completed")
	contactID := fs.Int64("contact", 0, "Filter by contact ID")
	dealID := fs.Int64("deal", 0, "Filter by deal ID")
	page := fs.Int("page", 1, "Page number")
	if err := fs.Parse(args); err != nil {
		return err
	}

	result, err := app.Service.ListTasks(ctx, crm.TaskQuery{
		Search:    *query,
		Status:    models.TaskStatus(*status),
		ContactID: optionalID(*contactID),
		DealID:    optionalID(*dealID),
		Page:      *page,
	})
	if err != nil {
		return fmt.Errorf("failed to find tasks: %w", err)
	}
	if result.TotalItems == 0 {
		fmt.Fprintln(app.Out, "No tasks found")
		return nil
	}

	w := newTable(app.Out)
	_, _ = fmt.Fprintln(w, "ID\tTITLE\tTYPE\tDUE\tPRIORITY\tSTATUS")
	_, _ = fmt.Fprintln(w, "--\t-----\t----\t---\t--------\t------")
	for _, t := range result.Items {
		_, _ = fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\n",
			t.ID, t.Title, t.Type, dash(t.DueDate.String()), t.Priority, t.Status)
	}
	_ = w.Flush()

	fmt.Fprintf(app.Out, "\nPage %d of %d (%d task(s))\n", result.Page, result.TotalPages, result.TotalItems)
	return nil
}

// CompleteTaskCommand marks a task completed.
func CompleteTaskCommand(ctx context.Context, app *App, args []string) error {
	fs := newFlagSet("complete-task")
	reopen := fs.Bool("reopen", false, "Set the task back to pending")
	if err := fs.Parse(args); err != nil {
		return err
	}
	id, err := positionalID(fs, "task")
	if err != nil {
		return err
	}
	status := models.TaskCompleted
	if *reopen {
		status = models.TaskPending
	}
	task, err := app.Service.UpdateTaskStatus(ctx, id, status)
	if err != nil {
		return fmt.Errorf("failed to update task: %w", err)
	}
	fmt.Fprintf(app.Out, "✓ Task %s: %s\n", task.Status, task.Title)
	return nil
}

func DeleteTaskCommand(ctx context.Context, app *App, args []string) error {
	fs := newFlagSet("delete-task")
	if err := fs.Parse(args); err != nil {
		return err
	}
	id, err := positionalID(fs, "task")
	if err != nil {
		return err
	}
	removed, err := app.Service.DeleteTask(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}
	fmt.Fprintf(app.Out, "✓ Task deleted: %s\n", removed.Title)
	return nil
}
