// ABOUTME: Constructors for each activity kind with their generated descriptions
// ABOUTME: Drafts carry no id or timestamp; the recorder fills those in
package activity

import (
	"fmt"

	"github.com/harperreed/crmdesk/models"
)

func DealStageChanged(deal models.Deal, oldStage, newStage models.Stage) models.Activity {
	dealID := deal.ID
	return models.Activity{
		Type:        models.ActivityDealStageChanged,
		DealID:      &dealID,
		ContactID:   copyID(deal.ContactID),
		Description: fmt.Sprintf("Deal stage changed from %s to %s", oldStage, newStage),
		Details: map[string]any{
			"dealName": deal.DisplayName(),
			"oldStage": string(oldStage),
			"newStage": string(newStage),
		},
	}
}

func TaskCompleted(task models.Task) models.Activity {
	taskID := task.ID
	return models.Activity{
		Type:        models.ActivityTaskCompleted,
		TaskID:      &taskID,
		ContactID:   copyID(task.ContactID),
		DealID:      copyID(task.DealID),
		Description: fmt.Sprintf("Task completed: %s", task.Title),
		Details: map[string]any{
			"taskTitle": task.Title,
			"taskType":  string(task.Type),
		},
	}
}

func ContactUpdated(contact models.Contact, changes []string) models.Activity {
	contactID := contact.ID
	return models.Activity{
		Type:        models.ActivityContactUpdated,
		ContactID:   &contactID,
		Description: fmt.Sprintf("Contact updated: %s", contact.Name),
		Details: map[string]any{
			"contactName": contact.Name,
			"changes":     append([]string(nil), changes...),
		},
	}
}

func DealCreated(deal models.Deal) models.Activity {
	dealID := deal.ID
	return models.Activity{
		Type:        models.ActivityDealCreated,
		DealID:      &dealID,
		ContactID:   copyID(deal.ContactID),
		Description: fmt.Sprintf("New deal created: %s", deal.DisplayName()),
		Details: map[string]any{
			"dealName":  deal.DisplayName(),
			"dealValue": deal.DealValue,
		},
	}
}

func TaskCreated(task models.Task) models.Activity {
	taskID := task.ID
	return models.Activity{
		Type:        models.ActivityTaskCreated,
		TaskID:      &taskID,
		ContactID:   copyID(task.ContactID),
		DealID:      copyID(task.DealID),
		Description: fmt.Sprintf("New task created: %s", task.Title),
		Details: map[string]any{
			"taskTitle": task.Title,
			"dueDate":   task.DueDate.String(),
		},
	}
}

// CallLogged records a manual call; duration is in minutes and 0 means unknown.
func CallLogged(contactID, dealID *int64, notes string, duration int) models.Activity {
	desc := "Call logged"
	if duration > 0 {
		desc = fmt.Sprintf("Call logged (%d minutes)", duration)
	}
	return models.Activity{
		Type:        models.ActivityCallLogged,
		ContactID:   copyID(contactID),
		DealID:      copyID(dealID),
		Description: desc,
		Details: map[string]any{
			"notes":    notes,
			"duration": duration,
		},
	}
}

func EmailSent(contactID, dealID *int64, subject, notes string) models.Activity {
	desc := "Email sent"
	if subject != "" {
		desc = fmt.Sprintf("Email sent: %s", subject)
	}
	return models.Activity{
		Type:        models.ActivityEmailSent,
		ContactID:   copyID(contactID),
		DealID:      copyID(dealID),
		Description: desc,
		Details: map[string]any{
			"subject": subject,
			"notes":   notes,
		},
	}
}

func copyID(p *int64) *int64 {
	if p == nil {
		return nil
	}
	return models.ID(*p)
}
