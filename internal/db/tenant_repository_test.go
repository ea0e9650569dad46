package db

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rentdesk/rentdesk/internal/models"
)

func TestTenantRepository_CreateGetList(t *testing.T) {
	database := setupTestDB(t)
	defer database.Close()

	repo := NewTenantRepository(database)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	ann := &models.Tenant{
		UserID:         "user-1",
		FullName:       "Ann Nguyen",
		Phone:          "0901000001",
		Email:          "ann@example.com",
		CurrentAddress: "12 Le Loi",
		CreatedAt:      base,
	}
	bob := &models.Tenant{
		UserID:    "user-1",
		FullName:  "Bob Tran",
		Phone:     "0901000002",
		CreatedAt: base.Add(time.Minute),
	}
	for _, tenant := range []*models.Tenant{ann, bob} {
		if err := repo.Create(ctx, tenant); err != nil {
			t.Fatalf("Create %s: %v", tenant.FullName, err)
		}
	}

	got, err := repo.Get(ctx, ann.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Email != "ann@example.com" || got.CurrentAddress != "12 Le Loi" || got.IDCard != "" {
		t.Fatalf("unexpected tenant: %+v", got)
	}

	page, err := repo.List(ctx, models.TenantListParams{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if page.Total != 2 || len(page.Tenants) != 2 || page.Tenants[0].FullName != "Bob Tran" {
		t.Fatalf("unexpected page: %+v", page)
	}

	page, err = repo.List(ctx, models.TenantListParams{Search: "example.com"})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if page.Total != 1 || page.Tenants[0].ID != ann.ID {
		t.Fatalf("unexpected search page: %+v", page)
	}
}

func TestTenantRepository_Errors(t *testing.T) {
	database := setupTestDB(t)
	defer database.Close()

	repo := NewTenantRepository(database)
	ctx := context.Background()

	if err := repo.Create(ctx, &models.Tenant{FullName: "No Owner"}); !errors.Is(err, ErrInvalidTenant) {
		t.Fatalf("expected ErrInvalidTenant, got %v", err)
	}
	if _, err := repo.Get(ctx, "missing"); !errors.Is(err, ErrTenantNotFound) {
		t.Fatalf("expected ErrTenantNotFound, got %v", err)
	}
}

func TestTenantRepository_UpdateDeleteIDCard(t *testing.T) {
	database := setupTestDB(t)
	defer database.Close()

	repo := NewTenantRepository(database)
	ctx := context.Background()

	tenant := &models.Tenant{UserID: "user-1", FullName: "Ann Nguyen", IDCard: "079000000001", Phone: "0901000001"}
	if err := repo.Create(ctx, tenant); err != nil {
		t.Fatalf("Create: %v", err)
	}

	exists, err := repo.IDCardExists(ctx, "079000000001", "")
	if err != nil || !exists {
		t.Fatalf("expected id card to exist, got %v, %v", exists, err)
	}
	exists, err = repo.IDCardExists(ctx, "079000000001", tenant.ID)
	if err != nil || exists {
		t.Fatalf("excluded tenant must not count, got %v, %v", exists, err)
	}

	tenant.Phone = "0987654321"
	tenant.Email = "ann@example.com"
	if err := repo.Update(ctx, tenant); err != nil {
		t.Fatalf("Update: %v", err)
	}
	got, err := repo.Get(ctx, tenant.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Phone != "0987654321" || got.Email != "ann@example.com" || !got.UpdatedAt.After(got.CreatedAt) {
		t.Fatalf("unexpected tenant after update: %+v", got)
	}

	if err := repo.Update(ctx, &models.Tenant{ID: "missing", FullName: "X Y"}); !errors.Is(err, ErrTenantNotFound) {
		t.Fatalf("expected ErrTenantNotFound, got %v", err)
	}

	if err := repo.Delete(ctx, tenant.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := repo.Delete(ctx, tenant.ID); !errors.Is(err, ErrTenantNotFound) {
		t.Fatalf("expected ErrTenantNotFound, got %v", err)
	}
	exists, err = repo.IDCardExists(ctx, "079000000001", "")
	if err != nil || exists {
		t.Fatalf("deleted tenant still holds id card: %v, %v", exists, err)
	}
}

func TestTenantRepository_ListSearchAndSort(t *testing.T) {
	database := setupTestDB(t)
	defer database.Close()

	repo := NewTenantRepository(database)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	for i, tenant := range []*models.Tenant{
		{FullName: "Đặng Thị Hoa", IDCard: "079000000003", Phone: "0901000003"},
		{FullName: "An Trần", IDCard: "079000000001", Phone: "0901000001"},
		{FullName: "Bình Lê", IDCard: "079000000002", Phone: "0901000002"},
	} {
		tenant.UserID = "user-1"
		tenant.CreatedAt = base.Add(time.Duration(i) * time.Minute)
		if err := repo.Create(ctx, tenant); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}

	names := func(page *models.TenantListPage) []string {
		out := make([]string, 0, len(page.Tenants))
		for _, tenant := range page.Tenants {
			out = append(out, tenant.FullName)
		}
		return out
	}

	page, err := repo.List(ctx, models.TenantListParams{SortBy: models.TenantSortFullName, SortOrder: models.SortAsc})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if got := names(page); got[0] != "An Trần" || got[1] != "Bình Lê" {
		t.Fatalf("unexpected name order: %v", got)
	}

	page, err = repo.List(ctx, models.TenantListParams{SortBy: "bogus"})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if got := names(page); got[0] != "Bình Lê" {
		t.Fatalf("expected newest first by default, got %v", got)
	}

	for search, want := range map[string]string{
		"ĐẶNG THỊ":     "Đặng Thị Hoa",
		"trần":         "An Trần",
		"079000000002": "Bình Lê",
	} {
		page, err := repo.List(ctx, models.TenantListParams{Search: search})
		if err != nil {
			t.Fatalf("List %q: %v", search, err)
		}
		if page.Total != 1 || page.Tenants[0].FullName != want {
			t.Fatalf("search %q: got %v", search, names(page))
		}
	}
}
