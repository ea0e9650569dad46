package rentd

import (
	"encoding/json"
	"fmt"

	"github.com/rentdesk/rentdesk/internal/models"
	"github.com/rentdesk/rentdesk/internal/templates"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
)

// PingResponse reports daemon liveness.
type PingResponse struct {
	Version   string `json:"version"`
	Hostname  string `json:"hostname"`
	Timestamp string `json:"timestamp"`
	Uptime    string `json:"uptime"`
}

// ExtractRequest asks for the placeholder keys of a body.
type ExtractRequest struct {
	Content string `json:"content"`
}

// ExtractResponse lists keys in first-appearance order.
type ExtractResponse struct {
	Keys []string `json:"keys"`
}

// RenderRequest renders an ad-hoc body.
type RenderRequest struct {
	Content string           `json:"content"`
	Values  templates.Values `json:"values"`
}

// RenderResponse is a rendered body plus the keys left in place.
type RenderResponse struct {
	Content    string   `json:"content"`
	Unresolved []string `json:"unresolved"`
}

// ReconcileRequest pairs a body with its declared variables.
type ReconcileRequest struct {
	Content   string                    `json:"content"`
	Variables []models.TemplateVariable `json:"variables"`
}

// ReconcileResponse holds the variables that would be stored.
type ReconcileResponse struct {
	Variables []models.TemplateVariable `json:"variables"`
}

// GetTemplateRequest selects a stored template.
type GetTemplateRequest struct {
	ID string `json:"id"`
}

// ListTemplatesRequest filters and pages stored templates.
type ListTemplatesRequest struct {
	Page      int    `json:"page,omitempty"`
	PageSize  int    `json:"page_size,omitempty"`
	Search    string `json:"search,omitempty"`
	IsDefault *bool  `json:"is_default,omitempty"`
	SortBy    string `json:"sort_by,omitempty"`
	SortOrder string `json:"sort_order,omitempty"`
}

func (r ListTemplatesRequest) params() models.TemplateListParams {
	return models.TemplateListParams{
		Page:      r.Page,
		PageSize:  r.PageSize,
		Search:    r.Search,
		IsDefault: r.IsDefault,
		SortBy:    models.TemplateSortField(r.SortBy),
		SortOrder: models.SortOrder(r.SortOrder),
	}
}

// RenderTemplateRequest renders a stored template, optionally for a tenant.
type RenderTemplateRequest struct {
	TemplateID string           `json:"template_id"`
	TenantID   string           `json:"tenant_id,omitempty"`
	Values     templates.Values `json:"values,omitempty"`
	Sanitize   bool             `json:"sanitize,omitempty"`
}

// encodeStruct converts v to a Struct through its JSON form.
func encodeStruct(v any) (*structpb.Struct, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode message: %w", err)
	}
	out := &structpb.Struct{}
	if err := protojson.Unmarshal(data, out); err != nil {
		return nil, fmt.Errorf("encode message: %w", err)
	}
	return out, nil
}

// decodeStruct fills dst from the JSON form of in.
func decodeStruct(in *structpb.Struct, dst any) error {
	if in == nil {
		in = &structpb.Struct{}
	}
	data, err := protojson.Marshal(in)
	if err != nil {
		return fmt.Errorf("decode message: %w", err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("decode message: %w", err)
	}
	return nil
}
