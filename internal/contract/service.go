// Package contract provides the contract template service: saving templates
// with reconciled variables, listing, cloning and rendering them.
package contract

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rentdesk/rentdesk/internal/db"
	"github.com/rentdesk/rentdesk/internal/events"
	"github.com/rentdesk/rentdesk/internal/logging"
	"github.com/rentdesk/rentdesk/internal/models"
	"github.com/rentdesk/rentdesk/internal/templates"
	"github.com/rs/zerolog"
)

// Service errors.
var (
	ErrTemplateNotFound = errors.New("template not found")
	ErrTenantNotFound   = errors.New("tenant not found")
	ErrIDCardExists     = errors.New("id card already registered to another tenant")
)

// DefaultUserID owns records when no user is configured.
const DefaultUserID = "local"

// Service manages contract templates and the tenants used to render them.
type Service struct {
	templates *db.ContractTemplateRepository
	tenants   *db.TenantRepository
	events    events.Repository
	userID    string
	logger    zerolog.Logger
}

// ServiceOption configures the Service.
type ServiceOption func(*Service)

// WithEventRepository enables the event log.
func WithEventRepository(repo events.Repository) ServiceOption {
	return func(s *Service) {
		s.events = repo
	}
}

// WithUserID sets the owner recorded on new rows.
func WithUserID(userID string) ServiceOption {
	return func(s *Service) {
		if strings.TrimSpace(userID) != "" {
			s.userID = strings.TrimSpace(userID)
		}
	}
}

// WithLogger overrides the component logger.
func WithLogger(logger zerolog.Logger) ServiceOption {
	return func(s *Service) {
		s.logger = logger
	}
}

// NewService creates a new Service.
func NewService(templateRepo *db.ContractTemplateRepository, tenantRepo *db.TenantRepository, opts ...ServiceOption) *Service {
	s := &Service{
		templates: templateRepo,
		tenants:   tenantRepo,
		userID:    DefaultUserID,
		logger:    logging.Component("contract"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateInput holds the fields of a new template.
type CreateInput struct {
	Name      string
	Content   string
	Variables []models.TemplateVariable
	IsDefault bool
}

// UpdateInput holds a partial update. Nil fields are left untouched.
// A non-nil, empty Variables asks for variables to be re-synthesized from
// the (possibly new) content.
type UpdateInput struct {
	Name      *string
	Content   *string
	Variables *[]models.TemplateVariable
	IsDefault *bool
}

// Create validates and stores a template. Without declared variables, one
// is synthesized per placeholder in the content.
func (s *Service) Create(ctx context.Context, input CreateInput) (*models.ContractTemplate, error) {
	synthesized := len(input.Variables) == 0
	tmpl := &models.ContractTemplate{
		UserID:    s.userID,
		Name:      strings.TrimSpace(input.Name),
		Content:   input.Content,
		Variables: templates.Reconcile(input.Content, input.Variables),
		IsDefault: input.IsDefault,
	}
	if err := tmpl.Validate(); err != nil {
		return nil, err
	}

	if err := s.templates.Create(ctx, tmpl); err != nil {
		return nil, fmt.Errorf("failed to create template: %w", err)
	}

	s.logger.Info().
		Str("template_id", tmpl.ID).
		Int("variables", len(tmpl.Variables)).
		Bool("synthesized", synthesized).
		Msg("template created")
	s.recordEvent("template.created", events.LogTemplateSaved(ctx, s.events, models.EventTypeTemplateCreated, tmpl, synthesized))

	return tmpl, nil
}

// Update applies a partial update to a stored template.
func (s *Service) Update(ctx context.Context, id string, input UpdateInput) (*models.ContractTemplate, error) {
	tmpl, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		tmpl.Name = strings.TrimSpace(*input.Name)
	}
	if input.Content != nil {
		tmpl.Content = *input.Content
	}
	if input.IsDefault != nil {
		tmpl.IsDefault = *input.IsDefault
	}

	synthesized := false
	if input.Variables != nil {
		synthesized = len(*input.Variables) == 0
		tmpl.Variables = templates.Reconcile(tmpl.Content, *input.Variables)
	}

	if err := tmpl.Validate(); err != nil {
		return nil, err
	}

	if err := s.templates.Update(ctx, tmpl); err != nil {
		if errors.Is(err, db.ErrContractTemplateNotFound) {
			return nil, ErrTemplateNotFound
		}
		return nil, fmt.Errorf("failed to update template: %w", err)
	}

	if input.Content != nil && input.Variables == nil {
		if report := templates.Describe(tmpl.Content, tmpl.Variables); len(report.Undeclared) > 0 {
			s.logger.Debug().
				Str("template_id", tmpl.ID).
				Strs("undeclared", report.Undeclared).
				Msg("content has placeholders without declarations")
		}
	}

	s.recordEvent("template.updated", events.LogTemplateSaved(ctx, s.events, models.EventTypeTemplateUpdated, tmpl, synthesized))
	return tmpl, nil
}

// Get returns a stored template.
func (s *Service) Get(ctx context.Context, id string) (*models.ContractTemplate, error) {
	tmpl, err := s.templates.Get(ctx, id)
	if err != nil {
		if errors.Is(err, db.ErrContractTemplateNotFound) {
			return nil, ErrTemplateNotFound
		}
		return nil, fmt.Errorf("failed to get template: %w", err)
	}
	return tmpl, nil
}

// List returns one page of templates.
func (s *Service) List(ctx context.Context, params models.TemplateListParams) (*models.TemplateListPage, error) {
	page, err := s.templates.List(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("failed to list templates: %w", err)
	}
	return page, nil
}

// Delete removes a template.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.templates.Delete(ctx, id); err != nil {
		if errors.Is(err, db.ErrContractTemplateNotFound) {
			return ErrTemplateNotFound
		}
		return fmt.Errorf("failed to delete template: %w", err)
	}
	s.recordEvent("template.deleted", events.LogTemplateDeleted(ctx, s.events, id))
	return nil
}

// Clone copies a template's content and variables under a new name. An
// empty name becomes "<name> (Copy)". Clones are never default.
func (s *Service) Clone(ctx context.Context, id, newName string) (*models.ContractTemplate, error) {
	source, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	name := strings.TrimSpace(newName)
	if name == "" {
		name = source.Name + " (Copy)"
	}

	variables := make([]models.TemplateVariable, len(source.Variables))
	copy(variables, source.Variables)

	clone := &models.ContractTemplate{
		UserID:    s.userID,
		Name:      name,
		Content:   source.Content,
		Variables: variables,
		IsDefault: false,
	}
	if err := clone.Validate(); err != nil {
		return nil, err
	}
	if err := s.templates.Create(ctx, clone); err != nil {
		return nil, fmt.Errorf("failed to clone template: %w", err)
	}

	s.recordEvent("template.cloned", events.LogTemplateCloned(ctx, s.events, source.ID, clone))
	return clone, nil
}

// Import stores a template loaded from a file.
func (s *Service) Import(ctx context.Context, tmpl *templates.Template) (*models.ContractTemplate, error) {
	if tmpl == nil {
		return nil, fmt.Errorf("template is required")
	}
	return s.Create(ctx, CreateInput{
		Name:      tmpl.Name,
		Content:   tmpl.Content,
		Variables: tmpl.Variables,
		IsDefault: tmpl.IsDefault,
	})
}

func (s *Service) recordEvent(name string, err error) {
	if err == nil || s.events == nil {
		return
	}
	s.logger.Warn().Err(err).Str("event", name).Msg("failed to record event")
}
