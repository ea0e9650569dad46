package db

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/rentdesk/rentdesk/internal/models"
)

func TestEventRepository_CreateAndGet(t *testing.T) {
	database := setupTestDB(t)
	defer database.Close()

	repo := NewEventRepository(database)
	ctx := context.Background()

	payload, _ := json.Marshal(models.TemplateClonedPayload{SourceID: "tmpl-1", Name: "Copy"})
	event := &models.Event{
		Type:       models.EventTypeTemplateCloned,
		EntityType: models.EntityTypeTemplate,
		EntityID:   "tmpl-2",
		Payload:    payload,
		Metadata:   map[string]string{"source": "cli"},
	}
	if err := repo.Create(ctx, event); err != nil {
		t.Fatalf("Create: %v", err)
	}

	got, err := repo.Get(ctx, event.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Type != models.EventTypeTemplateCloned || got.EntityID != "tmpl-2" {
		t.Fatalf("unexpected event: %+v", got)
	}
	if got.Metadata["source"] != "cli" {
		t.Fatalf("unexpected metadata: %v", got.Metadata)
	}

	var decoded models.TemplateClonedPayload
	if err := json.Unmarshal(got.Payload, &decoded); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if decoded.SourceID != "tmpl-1" {
		t.Fatalf("unexpected payload: %+v", decoded)
	}

	if err := repo.Create(ctx, &models.Event{Type: models.EventTypeTemplateCreated}); !errors.Is(err, ErrInvalidEvent) {
		t.Fatalf("expected ErrInvalidEvent, got %v", err)
	}
	if _, err := repo.Get(ctx, "missing"); !errors.Is(err, ErrEventNotFound) {
		t.Fatalf("expected ErrEventNotFound, got %v", err)
	}
}

func TestEventRepository_QueryPagination(t *testing.T) {
	database := setupTestDB(t)
	defer database.Close()

	repo := NewEventRepository(database)
	ctx := context.Background()
	base := time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		event := &models.Event{
			Timestamp:  base.Add(time.Duration(i) * time.Second),
			Type:       models.EventTypeTemplateRendered,
			EntityType: models.EntityTypeTemplate,
			EntityID:   "tmpl-1",
		}
		if err := repo.Create(ctx, event); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}

	entityID := "tmpl-1"
	page, err := repo.Query(ctx, EventQuery{EntityID: &entityID, Limit: 2})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(page.Events) != 2 || page.NextCursor == "" {
		t.Fatalf("unexpected first page: %d events, cursor %q", len(page.Events), page.NextCursor)
	}

	seen := len(page.Events)
	for page.NextCursor != "" {
		page, err = repo.Query(ctx, EventQuery{EntityID: &entityID, Limit: 2, Cursor: page.NextCursor})
		if err != nil {
			t.Fatalf("Query: %v", err)
		}
		seen += len(page.Events)
	}
	if seen != 5 {
		t.Fatalf("expected 5 events across pages, got %d", seen)
	}

	events, err := repo.ListByEntity(ctx, models.EntityTypeTemplate, "tmpl-1", 0)
	if err != nil {
		t.Fatalf("ListByEntity: %v", err)
	}
	if len(events) != 5 || !events[0].Timestamp.Equal(base) {
		t.Fatalf("unexpected ListByEntity result: %d events", len(events))
	}
}

func TestEventRepository_QueryFilters(t *testing.T) {
	database := setupTestDB(t)
	defer database.Close()

	repo := NewEventRepository(database)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)

	seed := []models.Event{
		{Timestamp: base, Type: models.EventTypeTemplateCreated, EntityType: models.EntityTypeTemplate, EntityID: "tmpl-1"},
		{Timestamp: base.Add(time.Minute), Type: models.EventTypeTenantCreated, EntityType: models.EntityTypeTenant, EntityID: "tenant-1"},
		{Timestamp: base.Add(2 * time.Minute), Type: models.EventTypeTemplateRendered, EntityType: models.EntityTypeTemplate, EntityID: "tmpl-1"},
	}
	for i := range seed {
		if err := repo.Create(ctx, &seed[i]); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}

	rendered := models.EventTypeTemplateRendered
	page, err := repo.Query(ctx, EventQuery{Type: &rendered})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(page.Events) != 1 || page.Events[0].Type != rendered || page.NextCursor != "" {
		t.Fatalf("unexpected type filter result: %+v", page)
	}

	since := base.Add(30 * time.Second)
	until := base.Add(2 * time.Minute)
	page, err = repo.Query(ctx, EventQuery{Since: &since, Until: &until})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(page.Events) != 1 || page.Events[0].EntityID != "tenant-1" {
		t.Fatalf("unexpected time window result: %d events", len(page.Events))
	}

	tenants := models.EntityTypeTenant
	events, err := repo.ListByEntity(ctx, tenants, "tmpl-1", 0)
	if err != nil {
		t.Fatalf("ListByEntity: %v", err)
	}
	if len(events) != 0 {
		t.Fatalf("entity type must be part of the match, got %d events", len(events))
	}
}
