package models

import (
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"
)

// Tenant is a renter whose details seed contract render values.
type Tenant struct {
	ID               string    `json:"id"`
	UserID           string    `json:"user_id,omitempty"`
	FullName         string    `json:"full_name"`
	IDCard           string    `json:"id_card,omitempty"`
	Phone            string    `json:"phone"`
	Email            string    `json:"email,omitempty"`
	CurrentAddress   string    `json:"current_address,omitempty"`
	PermanentAddress string    `json:"permanent_address,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// Tenant field limits.
const (
	MinTenantNameLength    = 2
	MaxTenantNameLength    = 100
	MaxTenantAddressLength = 500
	IDCardLength           = 12
)

// Validate checks the tenant against the form rules: a 2..100 character
// name, a 12-digit CCCD number, a Vietnamese mobile number, an optional
// email and addresses of at most 500 characters.
func (t *Tenant) Validate() error {
	validation := &ValidationErrors{}
	name := utf8.RuneCountInString(strings.TrimSpace(t.FullName))
	if name < MinTenantNameLength {
		validation.AddMessage("full_name", "full name must be at least 2 characters")
	} else if name > MaxTenantNameLength {
		validation.AddMessage("full_name", "full name must be at most 100 characters")
	}
	if !IsIDCard(t.IDCard) {
		validation.AddMessage("id_card", "id card must be exactly 12 digits")
	}
	if !IsPhone(t.Phone) {
		validation.AddMessage("phone", "phone must be 10 digits starting with 03, 05, 07, 08 or 09")
	}
	if t.Email != "" {
		if addr, err := mail.ParseAddress(t.Email); err != nil || addr.Address != t.Email {
			validation.AddMessage("email", "email is invalid")
		}
	}
	if utf8.RuneCountInString(t.CurrentAddress) > MaxTenantAddressLength {
		validation.AddMessage("current_address", "address must be at most 500 characters")
	}
	if utf8.RuneCountInString(t.PermanentAddress) > MaxTenantAddressLength {
		validation.AddMessage("permanent_address", "address must be at most 500 characters")
	}
	return validation.Err()
}

// IsIDCard reports whether s matches ^[0-9]{12}$.
func IsIDCard(s string) bool {
	return len(s) == IDCardLength && allDigits(s)
}

// IsPhone reports whether s matches ^0[35789][0-9]{8}$.
func IsPhone(s string) bool {
	if len(s) != 10 || s[0] != '0' || !strings.ContainsRune("35789", rune(s[1])) {
		return false
	}
	return allDigits(s[2:])
}

func allDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// TemplateValues maps the tenant onto the standard tenant_* template keys.
// Empty optional fields are omitted so their placeholders stay visible.
func (t *Tenant) TemplateValues() map[string]string {
	values := map[string]string{
		"tenant_full_name": t.FullName,
		"tenant_phone":     t.Phone,
	}
	if t.IDCard != "" {
		values["tenant_id_card"] = t.IDCard
	}
	if t.Email != "" {
		values["tenant_email"] = t.Email
	}
	if t.CurrentAddress != "" {
		values["tenant_current_address"] = t.CurrentAddress
	}
	return values
}

// TenantSortField selects the tenant list ordering column.
type TenantSortField string

const (
	TenantSortFullName  TenantSortField = "full_name"
	TenantSortCreatedAt TenantSortField = "created_at"
	TenantSortUpdatedAt TenantSortField = "updated_at"
)

// TenantListParams filters and pages a tenant listing. Search matches name,
// phone, ID card and email.
type TenantListParams struct {
	Page      int
	PageSize  int
	Search    string
	SortBy    TenantSortField
	SortOrder SortOrder
}

// Normalize fills defaults and clamps out-of-range values.
func (p TenantListParams) Normalize() TenantListParams {
	p.Page, p.PageSize = normalizePage(p.Page, p.PageSize)
	p.Search = strings.TrimSpace(p.Search)
	switch p.SortBy {
	case TenantSortFullName, TenantSortCreatedAt, TenantSortUpdatedAt:
	default:
		p.SortBy = TenantSortCreatedAt
	}
	if p.SortOrder != SortAsc {
		p.SortOrder = SortDesc
	}
	return p
}

// TenantListPage is one page of tenants.
type TenantListPage struct {
	Tenants    []*Tenant `json:"data"`
	Total      int       `json:"total"`
	Page       int       `json:"page"`
	PageSize   int       `json:"page_size"`
	TotalPages int       `json:"total_pages"`
}
