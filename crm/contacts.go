// ABOUTME: Contact and company operations
// ABOUTME: Company links are resolved by id, falling back to a case-insensitive name match
package crm

import (
	"context"
	"fmt"
	"strings"

	"github.com/harperreed/crmdesk/activity"
	"github.com/harperreed/crmdesk/models"
	"go.uber.org/zap"
)

// ContactPatch carries the fields to change; nil fields are left alone.
// A CompanyID of 0 clears the company link.
type ContactPatch struct {
	Name      *string `json:"name,omitempty"`
	Email     *string `json:"email,omitempty"`
	Phone     *string `json:"phone,omitempty"`
	Company   *string `json:"company,omitempty"`
	CompanyID *int64  `json:"companyId,omitempty"`
}

func (s *Service) ListContacts(ctx context.Context, q ContactQuery) (Page[models.Contact], error) {
	all, err := s.repos.Contacts.GetAll(ctx)
	if err != nil {
		return Page[models.Contact]{}, err
	}
	return q.apply(all), nil
}

func (s *Service) GetContact(ctx context.Context, id int64) (models.Contact, error) {
	return s.repos.Contacts.GetByID(ctx, id)
}

// resolveCompany fills whichever of the company id and name is missing.
func (s *Service) resolveCompany(ctx context.Context, id *int64, name string) (*int64, string, error) {
	if id != nil {
		company, err := s.repos.Companies.GetByID(ctx, *id)
		if err != nil {
			return nil, "", err
		}
		return models.ID(company.ID), company.Name, nil
	}
	if strings.TrimSpace(name) == "" {
		return nil, name, nil
	}
	companies, err := s.repos.Companies.GetAll(ctx)
	if err != nil {
		return nil, "", err
	}
	for _, c := range companies {
		if strings.EqualFold(c.Name, name) {
			return models.ID(c.ID), c.Name, nil
		}
	}
	return nil, name, nil
}

func (s *Service) CreateContact(ctx context.Context, c models.Contact) (models.Contact, error) {
	var err error
	if c.CompanyID, c.Company, err = s.resolveCompany(ctx, c.CompanyID, c.Company); err != nil {
		return models.Contact{}, fmt.Errorf("failed to resolve company: %w", err)
	}
	if err := models.ValidateContact(c); err != nil {
		return models.Contact{}, err
	}
	c.LastContactDate = nil
	return s.repos.Contacts.Create(ctx, c)
}

// UpdateContact applies the patch and records which fields actually changed.
func (s *Service) UpdateContact(ctx context.Context, id int64, p ContactPatch) (models.Contact, error) {
	before, err := s.repos.Contacts.GetByID(ctx, id)
	if err != nil {
		return models.Contact{}, err
	}

	next := before.Clone()
	if p.Name != nil {
		next.Name = *p.Name
	}
	if p.Email != nil {
		next.Email = *p.Email
	}
	if p.Phone != nil {
		next.Phone = *p.Phone
	}
	switch {
	case p.CompanyID != nil && *p.CompanyID == 0:
		next.CompanyID = nil
		next.Company = ""
		if p.Company != nil {
			next.Company = *p.Company
		}
	case p.CompanyID != nil:
		next.CompanyID = p.CompanyID
	case p.Company != nil:
		next.Company = *p.Company
		next.CompanyID = nil
	}
	if err := models.ValidateContact(next); err != nil {
		return models.Contact{}, err
	}
	if p.CompanyID == nil || *p.CompanyID != 0 {
		if next.CompanyID, next.Company, err = s.resolveCompany(ctx, next.CompanyID, next.Company); err != nil {
			return models.Contact{}, fmt.Errorf("failed to resolve company: %w", err)
		}
	}

	updated, err := s.repos.Contacts.Update(ctx, id, func(c *models.Contact) error {
		c.Name, c.Email, c.Phone = next.Name, next.Email, next.Phone
		c.Company, c.CompanyID = next.Company, next.CompanyID
		return nil
	})
	if err != nil {
		return models.Contact{}, err
	}

	if changes := activity.ChangedFields(before, updated); len(changes) > 0 {
		s.emit(ctx, activity.ContactUpdated(updated, changes))
	}
	return updated, nil
}

// DeleteContact removes the contact and clears its id from deals and tasks.
// Deals keep the contact name they were created with.
func (s *Service) DeleteContact(ctx context.Context, id int64) (models.Contact, error) {
	removed, err := s.repos.Contacts.Delete(ctx, id)
	if err != nil {
		return models.Contact{}, err
	}

	deals, err := s.repos.Deals.GetAll(ctx)
	if err != nil {
		return removed, fmt.Errorf("failed to unlink deals: %w", err)
	}
	for _, d := range deals {
		if !sameID(d.ContactID, id) {
			continue
		}
		if _, err := s.repos.Deals.Update(ctx, d.ID, func(d *models.Deal) error {
			d.ContactID = nil
			return nil
		}); err != nil {
			return removed, fmt.Errorf("failed to unlink deal %d: %w", d.ID, err)
		}
	}

	tasks, err := s.repos.Tasks.GetAll(ctx)
	if err != nil {
		return removed, fmt.Errorf("failed to unlink tasks: %w", err)
	}
	for _, t := range tasks {
		if !sameID(t.ContactID, id) {
			continue
		}
		if _, err := s.repos.Tasks.Update(ctx, t.ID, func(t *models.Task) error {
			t.ContactID = nil
			return nil
		}); err != nil {
			return removed, fmt.Errorf("failed to unlink task %d: %w", t.ID, err)
		}
	}
	s.logger.Info("deleted contact", zap.Int64("contact_id", id), zap.String("name", removed.Name))
	return removed, nil
}

func (s *Service) touchContact(ctx context.Context, contactID *int64) {
	if contactID == nil {
		return
	}
	now := s.now()
	if _, err := s.repos.Contacts.Update(ctx, *contactID, func(c *models.Contact) error {
		c.LastContactDate = &now
		return nil
	}); err != nil {
		s.logger.Warn("failed to update last contact date",
			zap.Int64("contact_id", *contactID),
			zap.Error(err))
	}
}

type CompanyPatch struct {
	Name     *string `json:"name,omitempty"`
	Industry *string `json:"industry,omitempty"`
	Website  *string `json:"website,omitempty"`
	Address  *string `json:"address,omitempty"`
	Notes    *string `json:"notes,omitempty"`
}

func (s *Service) ListCompanies(ctx context.Context, q CompanyQuery) ([]models.Company, error) {
	all, err := s.repos.Companies.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	return q.apply(all), nil
}

func (s *Service) GetCompany(ctx context.Context, id int64) (models.Company, error) {
	return s.repos.Companies.GetByID(ctx, id)
}

// FindCompanyByName matches case-insensitively.
func (s *Service) FindCompanyByName(ctx context.Context, name string) (models.Company, bool, error) {
	id, _, err := s.resolveCompany(ctx, nil, name)
	if err != nil || id == nil {
		return models.Company{}, false, err
	}
	c, err := s.repos.Companies.GetByID(ctx, *id)
	if err != nil {
		return models.Company{}, false, err
	}
	return c, true, nil
}

func (s *Service) CreateCompany(ctx context.Context, c models.Company) (models.Company, error) {
	if err := models.ValidateCompany(c); err != nil {
		return models.Company{}, err
	}
	return s.repos.Companies.Create(ctx, c)
}

func (s *Service) UpdateCompany(ctx context.Context, id int64, p CompanyPatch) (models.Company, error) {
	return s.repos.Companies.Update(ctx, id, func(c *models.Company) error {
		if p.Name != nil {
			c.Name = *p.Name
		}
		if p.Industry != nil {
			c.Industry = *p.Industry
		}
		if p.Website != nil {
			c.Website = *p.Website
		}
		if p.Address != nil {
			c.Address = *p.Address
		}
		if p.Notes != nil {
			c.Notes = *p.Notes
		}
		return models.ValidateCompany(*c)
	})
}

// DeleteCompany removes the company and clears its id from contacts and
// deals; the company name they carry is kept.
func (s *Service) DeleteCompany(ctx context.Context, id int64) (models.Company, error) {
	removed, err := s.repos.Companies.Delete(ctx, id)
	if err != nil {
		return models.Company{}, err
	}
	contacts, err := s.repos.Contacts.GetAll(ctx)
	if err != nil {
		return removed, fmt.Errorf("failed to unlink contacts: %w", err)
	}
	for _, c := range contacts {
		if sameID(c.CompanyID, id) {
			if _, err := s.repos.Contacts.Update(ctx, c.ID, func(c *models.Contact) error {
				c.CompanyID = nil
				return nil
			}); err != nil {
				return removed, fmt.Errorf("failed to unlink contact %d: %w", c.ID, err)
			}
		}
	}
	deals, err := s.repos.Deals.GetAll(ctx)
	if err != nil {
		return removed, fmt.Errorf("failed to unlink deals: %w", err)
	}
	for _, d := range deals {
		if sameID(d.CompanyID, id) {
			if _, err := s.repos.Deals.Update(ctx, d.ID, func(d *models.Deal) error {
				d.CompanyID = nil
				return nil
			}); err != nil {
				return removed, fmt.Errorf("failed to unlink deal %d: %w", d.ID, err)
			}
		}
	}
	return removed, nil
}
