// ABOUTME: Task MCP tool handlers
// ABOUTME: Implements create, find, update, complete and delete for tasks
package handlers

import (
	"context"
	"fmt"

	"github.com/harperreed/crmdesk/crm"
	"github.com/harperreed/crmdesk/models"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type TaskHandlers struct {
	svc *crm.Service
}

func NewTaskHandlers(svc *crm.Service) *TaskHandlers {
	return &TaskHandlers{svc: svc}
}

type CreateTaskInput struct {
	Title       string `json:"title" jsonschema:"Task title (required)"`
	Description string `json:"description,omitempty" jsonschema:"Task details"`
	Type        string `json:"type,omitempty" jsonschema:"call, email or meeting (default call)"`
	DueDate     string `json:"due_date" jsonschema:"Due date YYYY-MM-DD (required)"`
	Priority    string `json:"priority,omitempty" jsonschema:"low, medium or high (default medium)"`
	ContactID   int64  `json:"contact_id,omitempty" jsonschema:"Linked contact ID (contact or deal required)"`
	DealID      int64  `json:"deal_id,omitempty" jsonschema:"Linked deal ID (contact or deal required)"`
}

func (h *TaskHandlers) CreateTask(ctx context.Context, _ *mcp.CallToolRequest, input CreateTaskInput) (*mcp.CallToolResult, TaskOutput, error) {
	due, err := parseDate("due_date", input.DueDate)
	if err != nil {
		return nil, TaskOutput{}, err
	}
	created, err := h.svc.CreateTask(ctx, models.Task{
		Title:       input.Title,
		Description: input.Description,
		Type:        models.TaskType(input.Type),
		DueDate:     due,
		Priority:    models.TaskPriority(input.Priority),
		ContactID:   optionalID(input.ContactID),
		DealID:      optionalID(input.DealID),
	})
	if err != nil {
		return nil, TaskOutput{}, fmt.Errorf("failed to create task: %w", err)
	}
	return nil, taskToOutput(created), nil
}

type FindTasksInput struct {
	Query     string `json:"query,omitempty" jsonschema:"Search title and description"`
	Status    string `json:"status,omitempty" jsonschema:"pending or completed"`
	ContactID int64  `json:"contact_id,omitempty" jsonschema:"Filter by contact ID"`
	DealID    int64  `json:"deal_id,omitempty" jsonschema:"Filter by deal ID"`
	Page      int    `json:"page,omitempty" jsonschema:"Page number starting at 1"`
}

type FindTasksOutput struct {
	Tasks      []TaskOutput `json:"tasks"`
	Page       int          `json:"page"`
	TotalPages int          `json:"total_pages"`
	TotalItems int          `json:"total_items"`
}

func (h *TaskHandlers) FindTasks(ctx context.Context, _ *mcp.CallToolRequest, input FindTasksInput) (*mcp.CallToolResult, FindTasksOutput, error) {
	page, err := h.svc.ListTasks(ctx, crm.TaskQuery{
		Search:    input.Query,
		Status:    models.TaskStatus(input.Status),
		ContactID: optionalID(input.ContactID),
		DealID:    optionalID(input.DealID),
		Page:      input.Page,
	})
	if err != nil {
		return nil, FindTasksOutput{}, fmt.Errorf("failed to find tasks: %w", err)
	}
	return nil, FindTasksOutput{
		Tasks:      mapOutputs(page.Items, taskToOutput),
		Page:       page.Page,
		TotalPages: page.TotalPages,
		TotalItems: page.TotalItems,
	}, nil
}

type UpdateTaskInput struct {
	ID          int64  `json:"id" jsonschema:"Task ID (required)"`
	Title       string `json:"title,omitempty" jsonschema:"Updated title"`
	Description string `json:"description,omitempty" jsonschema:"Updated details"`
	DueDate     string `json:"due_date,omitempty" jsonschema:"Updated due date YYYY-MM-DD"`
	Priority    string `json:"priority,omitempty" jsonschema:"Updated priority"`
	Status      string `json:"status,omitempty" jsonschema:"pending or completed"`
}

func (h *TaskHandlers) UpdateTask(ctx context.Context, _ *mcp.CallToolRequest, input UpdateTaskInput) (*mcp.CallToolResult, TaskOutput, error) {
	if err := requireID(input.ID); err != nil {
		return nil, TaskOutput{}, err
	}
	var patch crm.TaskPatch
	if input.Title != "" {
		patch.Title = &input.Title
	}
	if input.Description != "" {
		patch.Description = &input.Description
	}
	if input.DueDate != "" {
		d, err := parseDate("due_date", input.DueDate)
		if err != nil {
			return nil, TaskOutput{}, err
		}
		patch.DueDate = &d
	}
	if input.Priority != "" {
		p := models.TaskPriority(input.Priority)
		patch.Priority = &p
	}
	task, err := h.svc.UpdateTask(ctx, input.ID, patch)
	if err != nil {
		return nil, TaskOutput{}, fmt.Errorf("failed to update task: %w", err)
	}
	if input.Status != "" && models.TaskStatus(input.Status) != task.Status {
		if task, err = h.svc.UpdateTaskStatus(ctx, input.ID, models.TaskStatus(input.Status)); err != nil {
			return nil, TaskOutput{}, fmt.Errorf("failed to update task status: %w", err)
		}
	}
	return nil, taskToOutput(task), nil
}

func (h *TaskHandlers) CompleteTask(ctx context.Context, _ *mcp.CallToolRequest, input IDInput) (*mcp.CallToolResult, TaskOutput, error) {
	if err := requireID(input.ID); err != nil {
		return nil, TaskOutput{}, err
	}
	task, err := h.svc.UpdateTaskStatus(ctx, input.ID, models.TaskCompleted)
	if err != nil {
		return nil, TaskOutput{}, fmt.Errorf("failed to complete task: %w", err)
	}
	return nil, taskToOutput(task), nil
}

func (h *TaskHandlers) DeleteTask(ctx context.Context, _ *mcp.CallToolRequest, input IDInput) (*mcp.CallToolResult, DeleteOutput, error) {
	if err := requireID(input.ID); err != nil {
		return nil, DeleteOutput{}, err
	}
	removed, err := h.svc.DeleteTask(ctx, input.ID)
	if err != nil {
		return nil, DeleteOutput{}, fmt.Errorf("failed to delete task: %w", err)
	}
	return nil, DeleteOutput{Success: true, Message: fmt.Sprintf("Deleted task %s", removed.Title)}, nil
}
