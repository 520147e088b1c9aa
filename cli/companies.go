// ABOUTME: Company CLI commands
// ABOUTME: Add, list, update, delete and summarize companies
package cli

import (
	"context"
	"fmt"

	"github.com/harperreed/crmdesk/crm"
	"github.com/harperreed/crmdesk/models"
)

// AddCompanyCommand adds a new company.
func AddCompanyCommand(ctx context.Context, app *App, args []string) error {
	fs := newFlagSet("add-company")
	name := fs.String("name", "", "Company name (required)")
	industry := fs.String("industry", "", "Industry (required)")
	website := fs.String("website", "", "Website URL")
	address := fs.String("address", "", "Postal address")
	notes := fs.String("notes", "", "Notes about the company")
	if err := fs.Parse(args); err != nil {
		return err
	}

	company, err := app.Service.CreateCompany(ctx, models.Company{
		Name:     *name,
		Industry: *industry,
		Website:  *website,
		Address:  *address,
		Notes:    *notes,
	})
	if err != nil {
		return fmt.Errorf("failed to create company: %w", err)
	}
	fmt.Fprintf(app.Out, "✓ Company created: %s (ID: %d)\n", company.Name, company.ID)
	return nil
}

// ListCompaniesCommand lists companies with their contact and deal totals.
func ListCompaniesCommand(ctx context.Context, app *App, args []string) error {
	fs := newFlagSet("list-companies")
	query := fs.String("query", "", "Search by name, industry or website")
	if err := fs.Parse(args); err != nil {
		return err
	}

	companies, err := app.Service.ListCompanies(ctx, crm.CompanyQuery{Search: *query})
	if err != nil {
		return fmt.Errorf("failed to find companies: %w", err)
	}
	if len(companies) == 0 {
		fmt.Fprintln(app.Out, "No companies found")
		return nil
	}

	w := newTable(app.Out)
	_, _ = fmt.Fprintln(w, "ID\tNAME\tINDUSTRY\tCONTACTS\tDEALS\tVALUE")
	_, _ = fmt.Fprintln(w, "--\t----\t--------\t--------\t-----\t-----")
	for _, c := range companies {
		m, err := app.Metrics.CompanyMetrics(ctx, c.ID)
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintf(w, "%d\t%s\t%s\t%d\t%d\t$%.0f\n",
			c.ID, c.Name, dash(c.Industry), m.ContactCount, m.DealCount, m.TotalDealValue)
	}
	_ = w.Flush()

	fmt.Fprintf(app.Out, "\nTotal: %d company(ies)\n", len(companies))
	return nil
}

// UpdateCompanyCommand updates an existing company. Flags come before the id.
func UpdateCompanyCommand(ctx context.Context, app *App, args []string) error {
	fs := newFlagSet("update-company")
	name := fs.String("name", "", "Company name")
	industry := fs.String("industry", "", "Industry")
	website := fs.String("website", "", "Website URL")
	address := fs.String("address", "", "Postal address")
	notes := fs.String("notes", "", "Notes")
	if err := fs.Parse(args); err != nil {
		return err
	}
	id, err := positionalID(fs, "company")
	if err != nil {
		return err
	}

	var patch crm.CompanyPatch
	if flagSet(fs, "name") {
		patch.Name = name
	}
	if flagSet(fs, "industry") {
		patch.Industry = industry
	}
	if flagSet(fs, "website") {
		patch.Website = website
	}
	if flagSet(fs, "address") {
		patch.Address = address
	}
	if flagSet(fs, "notes") {
		patch.Notes = notes
	}

	updated, err := app.Service.UpdateCompany(ctx, id, patch)
	if err != nil {
		return fmt.Errorf("failed to update company: %w", err)
	}
	fmt.Fprintf(app.Out, "✓ Company updated: %s (ID: %d)\n", updated.Name, updated.ID)
	return nil
}

// DeleteCompanyCommand deletes a company and unlinks its contacts and deals.
func DeleteCompanyCommand(ctx context.Context, app *App, args []string) error {
	fs := newFlagSet("delete-company")
	if err := fs.Parse(args); err != nil {
		return err
	}
	id, err := positionalID(fs, "company")
	if err != nil {
		return err
	}
	removed, err := app.Service.DeleteCompany(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to delete company: %w", err)
	}
	fmt.Fprintf(app.Out, "✓ Company deleted: %s\n", removed.Name)
	return nil
}
