package models

import (
	"strconv"
	"strings"
	"time"
	"unicode/utf8"
)

// Field limits enforced before a template is stored.
const (
	MaxVariableKeyLength         = 100
	MaxVariableLabelLength       = 200
	MaxVariableDescriptionLength = 500
	MinTemplateNameLength        = 2
	MaxTemplateNameLength        = 200
	MinTemplateContentLength     = 10
)

// VariableType is informational metadata for form rendering. The renderer
// stringifies every value regardless of type.
type VariableType string

const (
	VariableTypeText     VariableType = "text"
	VariableTypeNumber   VariableType = "number"
	VariableTypeDate     VariableType = "date"
	VariableTypeCurrency VariableType = "currency"
)

// Valid reports whether t is a known variable type.
func (t VariableType) Valid() bool {
	switch t {
	case VariableTypeText, VariableTypeNumber, VariableTypeDate, VariableTypeCurrency:
		return true
	default:
		return false
	}
}

// TemplateVariable declares the contract of one {{key}} placeholder.
type TemplateVariable struct {
	Key         string       `json:"key" yaml:"key"`
	Label       string       `json:"label" yaml:"label"`
	Type        VariableType `json:"type" yaml:"type"`
	Required    bool         `json:"required" yaml:"required"`
	Description string       `json:"description,omitempty" yaml:"description,omitempty"`
}

// IsVariableKey reports whether key matches ^[a-z_]+$.
func IsVariableKey(key string) bool {
	if key == "" {
		return false
	}
	for i := 0; i < len(key); i++ {
		c := key[i]
		if (c < 'a' || c > 'z') && c != '_' {
			return false
		}
	}
	return true
}

// Validate checks the variable against the storage constraints.
func (v TemplateVariable) Validate() error {
	validation := &ValidationErrors{}
	switch {
	case v.Key == "":
		validation.AddMessage("key", "key is required")
	case len(v.Key) > MaxVariableKeyLength:
		validation.AddMessage("key", "key must be at most 100 characters")
	case !IsVariableKey(v.Key):
		validation.AddMessage("key", "key must contain only lowercase letters and underscores")
	}
	if strings.TrimSpace(v.Label) == "" {
		validation.AddMessage("label", "label is required")
	} else if utf8.RuneCountInString(v.Label) > MaxVariableLabelLength {
		validation.AddMessage("label", "label must be at most 200 characters")
	}
	if !v.Type.Valid() {
		validation.AddMessage("type", "type must be one of text, number, date, currency")
	}
	if utf8.RuneCountInString(v.Description) > MaxVariableDescriptionLength {
		validation.AddMessage("description", "description must be at most 500 characters")
	}
	return validation.Err()
}

// ValidateVariables validates each variable and rejects duplicate keys.
func ValidateVariables(vars []TemplateVariable) error {
	validation := &ValidationErrors{}
	seen := make(map[string]struct{}, len(vars))
	for i, v := range vars {
		field := "variables[" + strconv.Itoa(i) + "]"
		if err := v.Validate(); err != nil {
			if ve, ok := err.(*ValidationErrors); ok {
				validation.Merge(field, ve)
			}
		}
		if v.Key == "" {
			continue
		}
		if _, exists := seen[v.Key]; exists {
			validation.AddMessage(field+".key", "duplicate key "+v.Key)
			continue
		}
		seen[v.Key] = struct{}{}
	}
	return validation.Err()
}

// ContractTemplate is a stored contract body plus its variable declarations.
type ContractTemplate struct {
	// ID is the unique identifier for the template.
	ID string `json:"id"`

	// UserID is the owner recorded with the row.
	UserID string `json:"user_id,omitempty"`

	// Name is the display name.
	Name string `json:"name"`

	// Content is the template body containing {{key}} placeholders.
	Content string `json:"content"`

	// Variables declares the placeholders used in Content.
	Variables []TemplateVariable `json:"variables"`

	// IsDefault marks the template preselected for new contracts.
	IsDefault bool `json:"is_default"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Validate checks name, content and variables.
func (t *ContractTemplate) Validate() error {
	validation := &ValidationErrors{}
	name := utf8.RuneCountInString(strings.TrimSpace(t.Name))
	if name < MinTemplateNameLength {
		validation.AddMessage("name", "name must be at least 2 characters")
	} else if name > MaxTemplateNameLength {
		validation.AddMessage("name", "name must be at most 200 characters")
	}
	if utf8.RuneCountInString(t.Content) < MinTemplateContentLength {
		validation.AddMessage("content", "content must be at least 10 characters")
	}
	if err := ValidateVariables(t.Variables); err != nil {
		if ve, ok := err.(*ValidationErrors); ok {
			validation.Merge("", ve)
		}
	}
	return validation.Err()
}

// TemplateSortField selects the list ordering column.
type TemplateSortField string

const (
	TemplateSortName      TemplateSortField = "name"
	TemplateSortCreatedAt TemplateSortField = "created_at"
	TemplateSortUpdatedAt TemplateSortField = "updated_at"
)

// SortOrder is asc or desc.
type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// Paging defaults.
const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// TemplateListParams filters and pages a template listing.
type TemplateListParams struct {
	Page      int
	PageSize  int
	Search    string
	IsDefault *bool
	SortBy    TemplateSortField
	SortOrder SortOrder
}

// Normalize fills defaults and clamps out-of-range values.
func (p TemplateListParams) Normalize() TemplateListParams {
	p.Page, p.PageSize = normalizePage(p.Page, p.PageSize)
	p.Search = strings.TrimSpace(p.Search)
	switch p.SortBy {
	case TemplateSortName, TemplateSortCreatedAt, TemplateSortUpdatedAt:
	default:
		p.SortBy = TemplateSortCreatedAt
	}
	if p.SortOrder != SortAsc {
		p.SortOrder = SortDesc
	}
	return p
}

// TemplateListPage is one page of templates.
type TemplateListPage struct {
	Templates  []*ContractTemplate `json:"data"`
	Total      int                 `json:"total"`
	Page       int                 `json:"page"`
	PageSize   int                 `json:"page_size"`
	TotalPages int                 `json:"total_pages"`
}

// TotalPages returns ceil(total / pageSize).
func TotalPages(total, pageSize int) int {
	if pageSize <= 0 || total <= 0 {
		return 0
	}
	return (total + pageSize - 1) / pageSize
}

func normalizePage(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}
	return page, pageSize
}
