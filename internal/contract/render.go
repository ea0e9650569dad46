package contract

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rentdesk/rentdesk/internal/db"
	"github.com/rentdesk/rentdesk/internal/events"
	"github.com/rentdesk/rentdesk/internal/models"
	"github.com/rentdesk/rentdesk/internal/templates"
)

// RenderRequest selects a stored template and the values to fill it with.
// When TenantID is set, the tenant's details seed the values and Values
// overlays them.
type RenderRequest struct {
	TemplateID string
	TenantID   string
	Values     templates.Values
}

// RenderResult is a filled-in contract body.
type RenderResult struct {
	TemplateID      string   `json:"template_id"`
	TenantID        string   `json:"tenant_id,omitempty"`
	Content         string   `json:"content"`
	Unresolved      []string `json:"unresolved"`
	MissingRequired []string `json:"missing_required"`
}

// Render fills a stored template. Placeholders without a value are left in
// place and reported in Unresolved.
func (s *Service) Render(ctx context.Context, req RenderRequest) (*RenderResult, error) {
	tmpl, err := s.Get(ctx, req.TemplateID)
	if err != nil {
		return nil, err
	}

	values := make(templates.Values)
	if req.TenantID != "" {
		tenant, err := s.GetTenant(ctx, req.TenantID)
		if err != nil {
			return nil, err
		}
		for key, value := range tenant.TemplateValues() {
			values[key] = templates.String(value)
		}
	}
	for key, value := range req.Values {
		values[key] = value
	}

	result := &RenderResult{
		TemplateID:      tmpl.ID,
		TenantID:        req.TenantID,
		Content:         templates.Render(tmpl.Content, values),
		Unresolved:      templates.Unresolved(tmpl.Content, values),
		MissingRequired: templates.MissingRequired(tmpl.Variables, values),
	}

	s.logger.Debug().
		Str("template_id", tmpl.ID).
		Int("values", len(values)).
		Int("unresolved", len(result.Unresolved)).
		Msg("template rendered")
	s.recordEvent("template.rendered", events.LogTemplateRendered(ctx, s.events, tmpl.ID, req.TenantID, len(values), result.Unresolved))

	return result, nil
}

// Preview renders a template and strips markup unsafe to display. The
// sanitizer re-serializes the document, so the result is equivalent HTML
// rather than Render's exact escaping (an apostrophe comes back as &#39;,
// not &#039;).
func (s *Service) Preview(ctx context.Context, req RenderRequest) (*RenderResult, error) {
	result, err := s.Render(ctx, req)
	if err != nil {
		return nil, err
	}
	result.Content = previewSanitizer().Sanitize(result.Content)
	return result, nil
}

// TenantInput holds the fields of a new tenant.
type TenantInput struct {
	FullName         string
	IDCard           string
	Phone            string
	Email            string
	CurrentAddress   string
	PermanentAddress string
}

// TenantUpdate holds a partial tenant update. Nil fields are left untouched.
type TenantUpdate struct {
	FullName         *string
	IDCard           *string
	Phone            *string
	Email            *string
	CurrentAddress   *string
	PermanentAddress *string
}

// CreateTenant validates and stores a tenant. The ID card number must not
// belong to another tenant.
func (s *Service) CreateTenant(ctx context.Context, input TenantInput) (*models.Tenant, error) {
	tenant := &models.Tenant{
		UserID:           s.userID,
		FullName:         strings.TrimSpace(input.FullName),
		IDCard:           strings.TrimSpace(input.IDCard),
		Phone:            strings.TrimSpace(input.Phone),
		Email:            strings.TrimSpace(input.Email),
		CurrentAddress:   strings.TrimSpace(input.CurrentAddress),
		PermanentAddress: strings.TrimSpace(input.PermanentAddress),
	}
	if err := s.checkTenant(ctx, tenant); err != nil {
		return nil, err
	}
	if err := s.tenants.Create(ctx, tenant); err != nil {
		return nil, fmt.Errorf("failed to create tenant: %w", err)
	}

	s.logger.Info().Str("tenant_id", tenant.ID).Msg("tenant created")
	s.recordEvent("tenant.created", events.LogTenantCreated(ctx, s.events, tenant.ID))
	return tenant, nil
}

// UpdateTenant applies a partial update to a stored tenant.
func (s *Service) UpdateTenant(ctx context.Context, id string, input TenantUpdate) (*models.Tenant, error) {
	tenant, err := s.GetTenant(ctx, id)
	if err != nil {
		return nil, err
	}

	for _, field := range []struct {
		dst *string
		src *string
	}{
		{&tenant.FullName, input.FullName},
		{&tenant.IDCard, input.IDCard},
		{&tenant.Phone, input.Phone},
		{&tenant.Email, input.Email},
		{&tenant.CurrentAddress, input.CurrentAddress},
		{&tenant.PermanentAddress, input.PermanentAddress},
	} {
		if field.src != nil {
			*field.dst = strings.TrimSpace(*field.src)
		}
	}

	if err := s.checkTenant(ctx, tenant); err != nil {
		return nil, err
	}
	if err := s.tenants.Update(ctx, tenant); err != nil {
		if errors.Is(err, db.ErrTenantNotFound) {
			return nil, ErrTenantNotFound
		}
		return nil, fmt.Errorf("failed to update tenant: %w", err)
	}

	s.recordEvent("tenant.updated", events.LogTenantUpdated(ctx, s.events, tenant.ID))
	return tenant, nil
}

// DeleteTenant removes a tenant.
func (s *Service) DeleteTenant(ctx context.Context, id string) error {
	if err := s.tenants.Delete(ctx, id); err != nil {
		if errors.Is(err, db.ErrTenantNotFound) {
			return ErrTenantNotFound
		}
		return fmt.Errorf("failed to delete tenant: %w", err)
	}
	s.recordEvent("tenant.deleted", events.LogTenantDeleted(ctx, s.events, id))
	return nil
}

func (s *Service) checkTenant(ctx context.Context, tenant *models.Tenant) error {
	if err := tenant.Validate(); err != nil {
		return err
	}
	taken, err := s.tenants.IDCardExists(ctx, tenant.IDCard, tenant.ID)
	if err != nil {
		return err
	}
	if taken {
		return fmt.Errorf("%w: %s", ErrIDCardExists, tenant.IDCard)
	}
	return nil
}

// GetTenant returns a stored tenant.
func (s *Service) GetTenant(ctx context.Context, id string) (*models.Tenant, error) {
	tenant, err := s.tenants.Get(ctx, id)
	if err != nil {
		if errors.Is(err, db.ErrTenantNotFound) {
			return nil, ErrTenantNotFound
		}
		return nil, fmt.Errorf("failed to get tenant: %w", err)
	}
	return tenant, nil
}

// ListTenants returns one page of tenants.
func (s *Service) ListTenants(ctx context.Context, params models.TenantListParams) (*models.TenantListPage, error) {
	page, err := s.tenants.List(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("failed to list tenants: %w", err)
	}
	return page, nil
}
