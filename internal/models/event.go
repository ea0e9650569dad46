package models

import (
	"encoding/json"
	"strings"
	"time"
)

// EventType names what happened, as "<entity>.<verb>".
type EventType string

const (
	EventTypeTemplateCreated  EventType = "template.created"
	EventTypeTemplateUpdated  EventType = "template.updated"
	EventTypeTemplateDeleted  EventType = "template.deleted"
	EventTypeTemplateCloned   EventType = "template.cloned"
	EventTypeTemplateRendered EventType = "template.rendered"
	EventTypeTenantCreated    EventType = "tenant.created"
	EventTypeTenantUpdated    EventType = "tenant.updated"
	EventTypeTenantDeleted    EventType = "tenant.deleted"
)

// EntityType is the kind of record an event is about.
type EntityType string

const (
	EntityTypeTemplate EntityType = "template"
	EntityTypeTenant   EntityType = "tenant"
)

// Event is one entry in the append-only audit log. Rendered values are never
// stored, only counts and unresolved keys.
type Event struct {
	ID         string            `json:"id"`
	Timestamp  time.Time         `json:"timestamp"`
	Type       EventType         `json:"type"`
	EntityType EntityType        `json:"entity_type"`
	EntityID   string            `json:"entity_id"`
	Payload    json.RawMessage   `json:"payload,omitempty"`
	Metadata   map[string]string `json:"metadata,omitempty"`
}

// Validate requires the type and the entity the event refers to.
func (e *Event) Validate() error {
	var errs ValidationErrors
	for _, field := range []struct{ name, value string }{
		{"type", string(e.Type)},
		{"entity_type", string(e.EntityType)},
		{"entity_id", e.EntityID},
	} {
		if strings.TrimSpace(field.value) == "" {
			errs.AddMessage(field.name, "is required")
		}
	}
	return errs.Err()
}

// TemplateSavedPayload is the payload for template.created and template.updated events.
type TemplateSavedPayload struct {
	Name          string   `json:"name"`
	VariableKeys  []string `json:"variable_keys"`
	Synthesized   bool     `json:"synthesized"`
	ContentLength int      `json:"content_length"`
}

// TemplateClonedPayload is the payload for template.cloned events.
type TemplateClonedPayload struct {
	SourceID string `json:"source_id"`
	Name     string `json:"name"`
}

// TemplateRenderedPayload is the payload for template.rendered events.
type TemplateRenderedPayload struct {
	TenantID   string   `json:"tenant_id,omitempty"`
	ValueCount int      `json:"value_count"`
	Unresolved []string `json:"unresolved,omitempty"`
}
