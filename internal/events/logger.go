// Package events provides helper functions for logging rentdesk events.
package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rentdesk/rentdesk/internal/models"
)

// Repository is the minimal interface needed to write events.
type Repository interface {
	Create(ctx context.Context, event *models.Event) error
}

// LogTemplateSaved records a template.created or template.updated event.
func LogTemplateSaved(ctx context.Context, repo Repository, eventType models.EventType, tmpl *models.ContractTemplate, synthesized bool) error {
	if eventType != models.EventTypeTemplateCreated && eventType != models.EventTypeTemplateUpdated {
		return fmt.Errorf("unexpected event type %q for template save", eventType)
	}
	if tmpl == nil {
		return fmt.Errorf("template is required")
	}

	keys := make([]string, 0, len(tmpl.Variables))
	for _, v := range tmpl.Variables {
		keys = append(keys, v.Key)
	}

	return logTemplateEvent(ctx, repo, eventType, tmpl.ID, models.TemplateSavedPayload{
		Name:          tmpl.Name,
		VariableKeys:  keys,
		Synthesized:   synthesized,
		ContentLength: len(tmpl.Content),
	})
}

// LogTemplateDeleted records a template.deleted event.
func LogTemplateDeleted(ctx context.Context, repo Repository, templateID string) error {
	return logTemplateEvent(ctx, repo, models.EventTypeTemplateDeleted, templateID, nil)
}

// LogTemplateCloned records a template.cloned event on the new template.
func LogTemplateCloned(ctx context.Context, repo Repository, sourceID string, clone *models.ContractTemplate) error {
	if clone == nil {
		return fmt.Errorf("template is required")
	}
	return logTemplateEvent(ctx, repo, models.EventTypeTemplateCloned, clone.ID, models.TemplateClonedPayload{
		SourceID: sourceID,
		Name:     clone.Name,
	})
}

// LogTemplateRendered records a template.rendered event. Values are not stored.
func LogTemplateRendered(ctx context.Context, repo Repository, templateID, tenantID string, valueCount int, unresolved []string) error {
	return logTemplateEvent(ctx, repo, models.EventTypeTemplateRendered, templateID, models.TemplateRenderedPayload{
		TenantID:   tenantID,
		ValueCount: valueCount,
		Unresolved: unresolved,
	})
}

// LogTenantCreated records a tenant.created event.
func LogTenantCreated(ctx context.Context, repo Repository, tenantID string) error {
	return logTenantEvent(ctx, repo, models.EventTypeTenantCreated, tenantID)
}

// LogTenantUpdated records a tenant.updated event.
func LogTenantUpdated(ctx context.Context, repo Repository, tenantID string) error {
	return logTenantEvent(ctx, repo, models.EventTypeTenantUpdated, tenantID)
}

// LogTenantDeleted records a tenant.deleted event.
func LogTenantDeleted(ctx context.Context, repo Repository, tenantID string) error {
	return logTenantEvent(ctx, repo, models.EventTypeTenantDeleted, tenantID)
}

// Tenant events carry no payload; personal details stay in the tenants table.
func logTenantEvent(ctx context.Context, repo Repository, eventType models.EventType, tenantID string) error {
	if repo == nil {
		return fmt.Errorf("event repository is required")
	}
	if tenantID == "" {
		return fmt.Errorf("tenant id is required")
	}
	return repo.Create(ctx, &models.Event{
		Type:       eventType,
		EntityType: models.EntityTypeTenant,
		EntityID:   tenantID,
	})
}

func logTemplateEvent(ctx context.Context, repo Repository, eventType models.EventType, templateID string, payload any) error {
	if repo == nil {
		return fmt.Errorf("event repository is required")
	}
	if templateID == "" {
		return fmt.Errorf("template id is required")
	}

	var data json.RawMessage
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to marshal %s payload: %w", eventType, err)
		}
		data = encoded
	}

	return repo.Create(ctx, &models.Event{
		Type:       eventType,
		EntityType: models.EntityTypeTemplate,
		EntityID:   templateID,
		Payload:    data,
	})
}
