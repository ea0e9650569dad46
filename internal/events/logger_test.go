package events

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/rentdesk/rentdesk/internal/models"
)

type fakeRepo struct {
	last *models.Event
}

func (r *fakeRepo) Create(ctx context.Context, event *models.Event) error {
	r.last = event
	return nil
}

func TestLogTemplateSaved(t *testing.T) {
	repo := &fakeRepo{}
	tmpl := &models.ContractTemplate{
		ID:      "tmpl-1",
		Name:    "Lease",
		Content: "Rent {{monthly_rent}}",
		Variables: []models.TemplateVariable{
			{Key: "monthly_rent"},
		},
	}

	if err := LogTemplateSaved(context.Background(), repo, models.EventTypeTemplateCreated, tmpl, true); err != nil {
		t.Fatalf("LogTemplateSaved failed: %v", err)
	}

	if repo.last == nil {
		t.Fatal("expected event to be created")
	}
	if repo.last.Type != models.EventTypeTemplateCreated {
		t.Fatalf("unexpected event type: %q", repo.last.Type)
	}
	if repo.last.EntityID != "tmpl-1" || repo.last.EntityType != models.EntityTypeTemplate {
		t.Fatalf("unexpected entity: %s/%s", repo.last.EntityType, repo.last.EntityID)
	}

	var payload models.TemplateSavedPayload
	if err := json.Unmarshal(repo.last.Payload, &payload); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if !payload.Synthesized || len(payload.VariableKeys) != 1 || payload.VariableKeys[0] != "monthly_rent" {
		t.Fatalf("unexpected payload: %+v", payload)
	}
}

func TestLogTemplateSavedRejectsOtherTypes(t *testing.T) {
	repo := &fakeRepo{}
	err := LogTemplateSaved(context.Background(), repo, models.EventTypeTemplateDeleted, &models.ContractTemplate{ID: "x"}, false)
	if err == nil {
		t.Fatal("expected error for non-save event type")
	}
	if repo.last != nil {
		t.Fatal("no event should be written")
	}
}

func TestLogTemplateRendered(t *testing.T) {
	repo := &fakeRepo{}
	if err := LogTemplateRendered(context.Background(), repo, "tmpl-1", "tenant-1", 3, []string{"deposit"}); err != nil {
		t.Fatalf("LogTemplateRendered failed: %v", err)
	}

	var payload models.TemplateRenderedPayload
	if err := json.Unmarshal(repo.last.Payload, &payload); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if payload.TenantID != "tenant-1" || payload.ValueCount != 3 || len(payload.Unresolved) != 1 {
		t.Fatalf("unexpected payload: %+v", payload)
	}
}

func TestLogRequiresRepository(t *testing.T) {
	if err := LogTemplateDeleted(context.Background(), nil, "tmpl-1"); err == nil {
		t.Fatal("expected error for nil repository")
	}
	if err := LogTenantCreated(context.Background(), &fakeRepo{}, ""); err == nil {
		t.Fatal("expected error for empty tenant id")
	}
}

func TestLogTenantEvents(t *testing.T) {
	repo := &fakeRepo{}
	if err := LogTenantUpdated(context.Background(), repo, "tenant-1"); err != nil {
		t.Fatalf("LogTenantUpdated failed: %v", err)
	}
	if repo.last.Type != models.EventTypeTenantUpdated || repo.last.EntityType != models.EntityTypeTenant {
		t.Fatalf("unexpected event: %+v", repo.last)
	}
	if err := LogTenantDeleted(context.Background(), repo, "tenant-1"); err != nil {
		t.Fatalf("LogTenantDeleted failed: %v", err)
	}
	if repo.last.Type != models.EventTypeTenantDeleted || len(repo.last.Payload) != 0 {
		t.Fatalf("unexpected event: %+v", repo.last)
	}
}
