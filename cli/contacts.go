// ABOUTME: Contact CLI commands
// ABOUTME: Human-friendly commands for managing contacts and logging interactions
package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/harperreed/crmdesk/crm"
	"github.com/harperreed/crmdesk/models"
)

// AddContactCommand adds a new contact.
func AddContactCommand(ctx context.Context, app *App, args []string) error {
	fs := newFlagSet("add-contact")
	name := fs.String("name", "", "Contact name (required)")
	email := fs.String("email", "", "Email address (required)")
	phone := fs.String("phone", "", "Phone number (required)")
	company := fs.String("company", "", "Company name")
	companyID := fs.Int64("company-id", 0, "Company ID")
	if err := fs.Parse(args); err != nil {
		return err
	}

	contact, err := app.Service.CreateContact(ctx, models.Contact{
		Name:      *name,
		Email:     *email,
		Phone:     *phone,
		Company:   *company,
		CompanyID: optionalID(*companyID),
	})
	if err != nil {
		return fmt.Errorf("failed to create contact: %w", err)
	}

	fmt.Fprintf(app.Out, "✓ Contact created: %s (ID: %d)\n", contact.Name, contact.ID)
	fmt.Fprintf(app.Out, "  Email: %s\n", contact.Email)
	fmt.Fprintf(app.Out, "  Phone: %s\n", contact.Phone)
	if contact.Company != "" {
		fmt.Fprintf(app.Out, "  Company: %s\n", contact.Company)
	}
	return nil
}

// ListContactsCommand lists contacts one page at a time.
func ListContactsCommand(ctx context.Context, app *App, args []string) error {
	fs := newFlagSet("list-contacts")
	query := fs.String("query", "", "Search by name, email, company or phone")
	sortField := fs.String("sort", "name", "Sort by name, email, company, phone or lastContactDate")
	desc := fs.Bool("desc", false, "Sort descending")
	page := fs.Int("page", 1, "Page number")
	if err := fs.Parse(args); err != nil {
		return err
	}

	q := crm.ContactQuery{Search: *query, SortField: *sortField, SortDir: crm.Asc, Page: *page}
	if *desc {
		q.SortDir = crm.Desc
	}
	result, err := app.Service.ListContacts(ctx, q)
	if err != nil {
		return fmt.Errorf("failed to find contacts: %w", err)
	}
	if result.TotalItems == 0 {
		fmt.Fprintln(app.Out, "No contacts found")
		return nil
	}

	w := newTable(app.Out)
	_, _ = fmt.Fprintln(w, "ID\tNAME\tEMAIL\tPHONE\tCOMPANY\tLAST CONTACT")
	_, _ = fmt.Fprintln(w, "--\t----\t-----\t-----\t-------\t------------")
	for _, c := range result.Items {
		last := "never"
		if c.LastContactDate != nil {
			last = c.LastContactDate.Format(time.DateOnly)
		}
		_, _ = fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\n", c.ID, c.Name, c.Email, c.Phone, dash(c.Company), last)
	}
	_ = w.Flush()

	fmt.Fprintf(app.Out, "\nPage %d of %d (%d contact(s))\n", result.Page, result.TotalPages, result.TotalItems)
	return nil
}

// UpdateContactCommand updates an existing contact. Flags come before the id.
func UpdateContactCommand(ctx context.Context, app *App, args []string) error {
	fs := newFlagSet("update-contact")
	name := fs.String("name", "", "Contact name")
	email := fs.String("email", "", "Email address")
	phone := fs.String("phone", "", "Phone number")
	company := fs.String("company", "", "Company name")
	if err := fs.Parse(args); err != nil {
		return err
	}
	id, err := positionalID(fs, "contact")
	if err != nil {
		return err
	}

	var patch crm.ContactPatch
	if flagSet(fs, "name") {
		patch.Name = name
	}
	if flagSet(fs, "email") {
		patch.Email = email
	}
	if flagSet(fs, "phone") {
		patch.Phone = phone
	}
	if flagSet(fs, "company") {
		patch.Company = company
	}

	updated, err := app.Service.UpdateContact(ctx, id, patch)
	if err != nil {
		return fmt.Errorf("failed to update contact: %w", err)
	}
	fmt.Fprintf(app.Out, "✓ Contact updated: %s (ID: %d)\n", updated.Name, updated.ID)
	return nil
}

// DeleteContactCommand deletes a contact and unlinks its deals and tasks.
func DeleteContactCommand(ctx context.Context, app *App, args []string) error {
	fs := newFlagSet("delete-contact")
	if err := fs.Parse(args); err != nil {
		return err
	}
	id, err := positionalID(fs, "contact")
	if err != nil {
		return err
	}
	removed, err := app.Service.DeleteContact(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to delete contact: %w", err)
	}
	fmt.Fprintf(app.Out, "✓ Contact deleted: %s\n", removed.Name)
	return nil
}

// LogInteractionCommand records a call or email and updates the last contact date.
func LogInteractionCommand(ctx context.Context, app *App, args []string) error {
	fs := newFlagSet("log")
	kind := fs.String("kind", "call", "call or email")
	dealID := fs.Int64("deal", 0, "Related deal ID")
	subject := fs.String("subject", "", "Email subject")
	notes := fs.String("notes", "", "Notes")
	duration := fs.Int("duration", 0, "Call duration in minutes")
	if err := fs.Parse(args); err != nil {
		return err
	}
	id, err := positionalID(fs, "contact")
	if err != nil {
		return err
	}
	contact, err := app.Service.GetContact(ctx, id)
	if err != nil {
		return err
	}

	var a models.Activity
	switch *kind {
	case "call":
		a, err = app.Service.LogCall(ctx, &id, optionalID(*dealID), *notes, *duration)
	case "email":
		a, err = app.Service.LogEmail(ctx, &id, optionalID(*dealID), *subject, *notes)
	default:
		return fmt.Errorf("invalid kind %q (valid: call, email)", *kind)
	}
	if err != nil {
		return fmt.Errorf("failed to log interaction: %w", err)
	}
	fmt.Fprintf(app.Out, "✓ %s for %s\n", a.Description, contact.Name)
	return nil
}
