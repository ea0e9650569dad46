package models

import (
	"errors"
	"strings"
	"testing"
)

func validTenant() Tenant {
	return Tenant{
		FullName: "Nguyễn Văn A",
		IDCard:   "079123456789",
		Phone:    "0901234567",
	}
}

func TestTenantValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Tenant)
		field  string
	}{
		{name: "valid", mutate: func(*Tenant) {}},
		{name: "short name", mutate: func(tn *Tenant) { tn.FullName = "A" }, field: "full_name"},
		{name: "long name", mutate: func(tn *Tenant) { tn.FullName = strings.Repeat("a", 101) }, field: "full_name"},
		{name: "missing id card", mutate: func(tn *Tenant) { tn.IDCard = "" }, field: "id_card"},
		{name: "id card with letters", mutate: func(tn *Tenant) { tn.IDCard = "07912345678x" }, field: "id_card"},
		{name: "id card too short", mutate: func(tn *Tenant) { tn.IDCard = "07912345678" }, field: "id_card"},
		{name: "phone not a number", mutate: func(tn *Tenant) { tn.Phone = "not-a-phone" }, field: "phone"},
		{name: "phone bad prefix", mutate: func(tn *Tenant) { tn.Phone = "0412345678" }, field: "phone"},
		{name: "phone too long", mutate: func(tn *Tenant) { tn.Phone = "09012345678" }, field: "phone"},
		{name: "bad email", mutate: func(tn *Tenant) { tn.Email = "not-an-email" }, field: "email"},
		{name: "good email", mutate: func(tn *Tenant) { tn.Email = "a@example.com" }},
		{name: "long address", mutate: func(tn *Tenant) { tn.CurrentAddress = strings.Repeat("đ", 501) }, field: "current_address"},
		{name: "address at limit", mutate: func(tn *Tenant) { tn.PermanentAddress = strings.Repeat("đ", 500) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tenant := validTenant()
			tt.mutate(&tenant)
			err := tenant.Validate()
			if tt.field == "" {
				if err != nil {
					t.Fatalf("expected valid tenant, got %v", err)
				}
				return
			}
			if !errors.Is(err, ErrValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
			var ve *ValidationErrors
			if !errors.As(err, &ve) || ve.Errors[0].Field != tt.field {
				t.Fatalf("expected error on %s, got %v", tt.field, err)
			}
		})
	}
}

func TestIsPhone(t *testing.T) {
	for _, phone := range []string{"0312345678", "0512345678", "0712345678", "0812345678", "0912345678"} {
		if !IsPhone(phone) {
			t.Fatalf("expected %s to be valid", phone)
		}
	}
	for _, phone := range []string{"", "0112345678", "912345678", "09123456a8", "+84912345678"} {
		if IsPhone(phone) {
			t.Fatalf("expected %s to be invalid", phone)
		}
	}
}

func TestTenantListParamsNormalize(t *testing.T) {
	p := TenantListParams{SortBy: "phone", SortOrder: "sideways", PageSize: 500}.Normalize()
	if p.SortBy != TenantSortCreatedAt || p.SortOrder != SortDesc || p.PageSize != MaxPageSize || p.Page != 1 {
		t.Fatalf("unexpected normalized params: %+v", p)
	}
	p = TenantListParams{SortBy: TenantSortFullName, SortOrder: SortAsc}.Normalize()
	if p.SortBy != TenantSortFullName || p.SortOrder != SortAsc {
		t.Fatalf("valid sort was changed: %+v", p)
	}
}
