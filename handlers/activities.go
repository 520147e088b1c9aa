// ABOUTME: Activity log MCP tool handlers
// ABOUTME: Timelines per contact or deal, filtered listing and deletion
package handlers

import (
	"context"
	"fmt"

	"github.com/harperreed/crmdesk/crm"
	"github.com/harperreed/crmdesk/models"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type ActivityHandlers struct {
	svc *crm.Service
}

func NewActivityHandlers(svc *crm.Service) *ActivityHandlers {
	return &ActivityHandlers{svc: svc}
}

type TimelineInput struct {
	ContactID int64 `json:"contact_id,omitempty" jsonschema:"Contact ID"`
	DealID    int64 `json:"deal_id,omitempty" jsonschema:"Deal ID"`
}

type ActivitiesOutput struct {
	Activities []ActivityOutput `json:"activities"`
	Count      int              `json:"count"`
}

func activitiesOutput(list []models.Activity) ActivitiesOutput {
	return ActivitiesOutput{Activities: mapOutputs(list, activityToOutput), Count: len(list)}
}

// GetTimeline returns the contact timeline, the deal timeline or both merged.
func (h *ActivityHandlers) GetTimeline(ctx context.Context, _ *mcp.CallToolRequest, input TimelineInput) (*mcp.CallToolResult, ActivitiesOutput, error) {
	var list []models.Activity
	var err error
	switch {
	case input.ContactID > 0 && input.DealID > 0:
		list, err = h.svc.CombinedTimeline(ctx, input.ContactID, input.DealID)
	case input.ContactID > 0:
		list, err = h.svc.ContactTimeline(ctx, input.ContactID)
	case input.DealID > 0:
		list, err = h.svc.DealTimeline(ctx, input.DealID)
	default:
		return nil, ActivitiesOutput{}, fmt.Errorf("contact_id or deal_id is required")
	}
	if err != nil {
		return nil, ActivitiesOutput{}, fmt.Errorf("failed to load timeline: %w", err)
	}
	return nil, activitiesOutput(list), nil
}

type ListActivitiesInput struct {
	Type  string `json:"type,omitempty" jsonschema:"Activity type filter, e.g. deal_created or call_logged"`
	Limit int    `json:"limit,omitempty" jsonschema:"Maximum results (default 20)"`
}

func (h *ActivityHandlers) ListActivities(ctx context.Context, _ *mcp.CallToolRequest, input ListActivitiesInput) (*mcp.CallToolResult, ActivitiesOutput, error) {
	if input.Type != "" && !models.ActivityType(input.Type).Valid() {
		return nil, ActivitiesOutput{}, fmt.Errorf("invalid activity type: %s", input.Type)
	}
	if input.Limit <= 0 {
		input.Limit = 20
	}
	list, err := h.svc.ListActivities(ctx, models.ActivityType(input.Type))
	if err != nil {
		return nil, ActivitiesOutput{}, fmt.Errorf("failed to list activities: %w", err)
	}
	if len(list) > input.Limit {
		list = list[:input.Limit]
	}
	return nil, activitiesOutput(list), nil
}

func (h *ActivityHandlers) DeleteActivity(ctx context.Context, _ *mcp.CallToolRequest, input IDInput) (*mcp.CallToolResult, DeleteOutput, error) {
	if err := requireID(input.ID); err != nil {
		return nil, DeleteOutput{}, err
	}
	if _, err := h.svc.DeleteActivity(ctx, input.ID); err != nil {
		return nil, DeleteOutput{}, fmt.Errorf("failed to delete activity: %w", err)
	}
	return nil, DeleteOutput{Success: true, Message: fmt.Sprintf("Deleted activity %d", input.ID)}, nil
}
