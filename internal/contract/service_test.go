package contract

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/rentdesk/rentdesk/internal/db"
	"github.com/rentdesk/rentdesk/internal/models"
	"github.com/rentdesk/rentdesk/internal/templates"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func setupService(t *testing.T) (*Service, *db.EventRepository) {
	t.Helper()

	database, err := db.OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })
	require.NoError(t, database.Migrate(context.Background()))

	eventRepo := db.NewEventRepository(database)
	svc := NewService(
		db.NewContractTemplateRepository(database),
		db.NewTenantRepository(database),
		WithEventRepository(eventRepo),
		WithUserID("owner-1"),
		WithLogger(zerolog.Nop()),
	)
	return svc, eventRepo
}

func variableKeys(vars []models.TemplateVariable) []string {
	keys := make([]string, 0, len(vars))
	for _, v := range vars {
		keys = append(keys, v.Key)
	}
	return keys
}

func TestCreateSynthesizesVariables(t *testing.T) {
	svc, events := setupService(t)
	ctx := context.Background()

	tmpl, err := svc.Create(ctx, CreateInput{
		Name:    "  Standard lease  ",
		Content: "Tenant {{tenant_full_name}} pays {{monthly_rent}} monthly to {{tenant_full_name}}.",
	})
	require.NoError(t, err)
	require.Equal(t, "Standard lease", tmpl.Name)
	require.Equal(t, "owner-1", tmpl.UserID)

	want := []models.TemplateVariable{
		{Key: "tenant_full_name", Label: "Tenant Full Name", Type: models.VariableTypeText, Required: true},
		{Key: "monthly_rent", Label: "Monthly Rent", Type: models.VariableTypeText, Required: true},
	}
	if diff := cmp.Diff(want, tmpl.Variables); diff != "" {
		t.Fatalf("variables mismatch (-want +got):\n%s", diff)
	}

	stored, err := svc.Get(ctx, tmpl.ID)
	require.NoError(t, err)
	if diff := cmp.Diff(want, stored.Variables); diff != "" {
		t.Fatalf("stored variables mismatch (-want +got):\n%s", diff)
	}

	logged, err := events.ListByEntity(ctx, models.EntityTypeTemplate, tmpl.ID, 0)
	require.NoError(t, err)
	require.Len(t, logged, 1)
	require.Equal(t, models.EventTypeTemplateCreated, logged[0].Type)
}

func TestCreateKeepsDeclaredVariables(t *testing.T) {
	svc, _ := setupService(t)

	declared := []models.TemplateVariable{
		{Key: "deposit", Label: "Security deposit", Type: models.VariableTypeCurrency, Required: false},
	}
	tmpl, err := svc.Create(context.Background(), CreateInput{
		Name:      "Deposit only",
		Content:   "Rent {{monthly_rent}} and deposit {{deposit}}.",
		Variables: declared,
	})
	require.NoError(t, err)

	// Declared list wins as-is, even though monthly_rent is not declared.
	if diff := cmp.Diff(declared, tmpl.Variables); diff != "" {
		t.Fatalf("variables mismatch (-want +got):\n%s", diff)
	}
}

func TestCreateValidation(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, CreateInput{Name: "x", Content: "short"})
	require.Error(t, err)
	require.True(t, errors.Is(err, models.ErrValidation))

	_, err = svc.Create(ctx, CreateInput{
		Name:    "Bad vars",
		Content: "Body long enough {{rent}}",
		Variables: []models.TemplateVariable{
			{Key: "Rent", Label: "Rent", Type: models.VariableTypeText},
		},
	})
	require.ErrorIs(t, err, models.ErrValidation)

	_, err = svc.Create(ctx, CreateInput{
		Name:    "Long key",
		Content: "Body {{" + strings.Repeat("a", models.MaxVariableKeyLength+1) + "}}",
	})
	require.ErrorIs(t, err, models.ErrValidation)
}

func TestUpdate(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	tmpl, err := svc.Create(ctx, CreateInput{
		Name:    "Lease",
		Content: "Landlord {{landlord_name}} signs.",
	})
	require.NoError(t, err)

	newContent := "Landlord {{landlord_name}} rents to {{tenant_full_name}}."
	updated, err := svc.Update(ctx, tmpl.ID, UpdateInput{Content: &newContent})
	require.NoError(t, err)
	require.Equal(t, newContent, updated.Content)
	require.Equal(t, []string{"landlord_name"}, variableKeys(updated.Variables), "variables untouched when not supplied")

	empty := []models.TemplateVariable{}
	updated, err = svc.Update(ctx, tmpl.ID, UpdateInput{Variables: &empty})
	require.NoError(t, err)
	require.Equal(t, []string{"landlord_name", "tenant_full_name"}, variableKeys(updated.Variables))

	isDefault := true
	name := "Lease v2"
	updated, err = svc.Update(ctx, tmpl.ID, UpdateInput{Name: &name, IsDefault: &isDefault})
	require.NoError(t, err)
	require.Equal(t, "Lease v2", updated.Name)
	require.True(t, updated.IsDefault)

	_, err = svc.Update(ctx, "missing", UpdateInput{Name: &name})
	require.ErrorIs(t, err, ErrTemplateNotFound)
}

func TestDelete(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	tmpl, err := svc.Create(ctx, CreateInput{Name: "Temp", Content: "Temporary {{x}} body"})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, tmpl.ID))
	_, err = svc.Get(ctx, tmpl.ID)
	require.ErrorIs(t, err, ErrTemplateNotFound)
	require.ErrorIs(t, svc.Delete(ctx, tmpl.ID), ErrTemplateNotFound)
}

func TestClone(t *testing.T) {
	svc, events := setupService(t)
	ctx := context.Background()

	source, err := svc.Create(ctx, CreateInput{
		Name:      "Residential",
		Content:   "Rent {{monthly_rent}} due on {{payment_day}}.",
		IsDefault: true,
	})
	require.NoError(t, err)

	clone, err := svc.Clone(ctx, source.ID, "")
	require.NoError(t, err)
	require.NotEqual(t, source.ID, clone.ID)
	require.Equal(t, "Residential (Copy)", clone.Name)
	require.False(t, clone.IsDefault)
	require.Equal(t, source.Content, clone.Content)
	if diff := cmp.Diff(source.Variables, clone.Variables); diff != "" {
		t.Fatalf("clone variables mismatch (-want +got):\n%s", diff)
	}

	named, err := svc.Clone(ctx, source.ID, "Office")
	require.NoError(t, err)
	require.Equal(t, "Office", named.Name)

	logged, err := events.ListByEntity(ctx, models.EntityTypeTemplate, clone.ID, 0)
	require.NoError(t, err)
	require.Len(t, logged, 1)
	require.Equal(t, models.EventTypeTemplateCloned, logged[0].Type)

	_, err = svc.Clone(ctx, "missing", "")
	require.ErrorIs(t, err, ErrTemplateNotFound)
}

func TestList(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	for _, name := range []string{"Bravo", "Alpha", "Charlie"} {
		_, err := svc.Create(ctx, CreateInput{Name: name, Content: "Body of " + name + " {{x}}"})
		require.NoError(t, err)
	}

	page, err := svc.List(ctx, models.TemplateListParams{
		SortBy:    models.TemplateSortName,
		SortOrder: models.SortAsc,
		PageSize:  2,
	})
	require.NoError(t, err)
	require.Equal(t, 3, page.Total)
	require.Equal(t, 2, page.TotalPages)
	require.Len(t, page.Templates, 2)
	require.Equal(t, "Alpha", page.Templates[0].Name)
	require.Equal(t, "Bravo", page.Templates[1].Name)
}

func TestRenderWithTenant(t *testing.T) {
	svc, events := setupService(t)
	ctx := context.Background()

	tmpl, err := svc.Create(ctx, CreateInput{
		Name:    "Lease",
		Content: "<p>{{tenant_full_name}} pays {{monthly_rent}}; deposit {{deposit}}</p>",
	})
	require.NoError(t, err)

	tenant, err := svc.CreateTenant(ctx, TenantInput{FullName: "Tom & Jerry", IDCard: "079123456789", Phone: "0901234567"})
	require.NoError(t, err)

	result, err := svc.Render(ctx, RenderRequest{
		TemplateID: tmpl.ID,
		TenantID:   tenant.ID,
		Values:     templates.Values{"monthly_rent": templates.Int(12000000)},
	})
	require.NoError(t, err)
	require.Equal(t, "<p>Tom &amp; Jerry pays 12000000; deposit {{deposit}}</p>", result.Content)
	require.Equal(t, []string{"deposit"}, result.Unresolved)
	require.Equal(t, []string{"deposit"}, result.MissingRequired)

	logged, err := events.ListByEntity(ctx, models.EntityTypeTemplate, tmpl.ID, 0)
	require.NoError(t, err)
	require.Len(t, logged, 2)
	require.Equal(t, models.EventTypeTemplateRendered, logged[1].Type)
}

func TestRenderOverlayWinsOverTenant(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	tmpl, err := svc.Create(ctx, CreateInput{Name: "Lease", Content: "Tenant: {{tenant_full_name}}"})
	require.NoError(t, err)
	tenant, err := svc.CreateTenant(ctx, TenantInput{FullName: "Stored Name", IDCard: "079123456780", Phone: "0351234567"})
	require.NoError(t, err)

	result, err := svc.Render(ctx, RenderRequest{
		TemplateID: tmpl.ID,
		TenantID:   tenant.ID,
		Values:     templates.Values{"tenant_full_name": templates.String("Override")},
	})
	require.NoError(t, err)
	require.Equal(t, "Tenant: Override", result.Content)
	require.Empty(t, result.Unresolved)
	require.Empty(t, result.MissingRequired)
}

func TestRenderErrors(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	_, err := svc.Render(ctx, RenderRequest{TemplateID: "missing"})
	require.ErrorIs(t, err, ErrTemplateNotFound)

	tmpl, err := svc.Create(ctx, CreateInput{Name: "Lease", Content: "Tenant: {{tenant_full_name}}"})
	require.NoError(t, err)
	_, err = svc.Render(ctx, RenderRequest{TemplateID: tmpl.ID, TenantID: "missing"})
	require.ErrorIs(t, err, ErrTenantNotFound)
}

func TestPreviewStripsScripts(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	tmpl, err := svc.Create(ctx, CreateInput{
		Name:    "Unsafe",
		Content: `<p onclick="steal()">Hello {{name}}</p><script>alert(1)</script>`,
	})
	require.NoError(t, err)

	result, err := svc.Preview(ctx, RenderRequest{
		TemplateID: tmpl.ID,
		Values:     templates.Values{"name": templates.String("Ann")},
	})
	require.NoError(t, err)
	require.Contains(t, result.Content, "Hello Ann")
	require.NotContains(t, result.Content, "<script")
	require.NotContains(t, result.Content, "onclick")
}

func TestPreviewNormalizesEscaping(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	tmpl, err := svc.Create(ctx, CreateInput{Name: "Quote", Content: "<p>{{name}}</p>"})
	require.NoError(t, err)
	req := RenderRequest{
		TemplateID: tmpl.ID,
		Values:     templates.Values{"name": templates.String("O'Neil")},
	}

	rendered, err := svc.Render(ctx, req)
	require.NoError(t, err)
	require.Equal(t, "<p>O&#039;Neil</p>", rendered.Content)

	preview, err := svc.Preview(ctx, req)
	require.NoError(t, err)
	require.Equal(t, "<p>O&#39;Neil</p>", preview.Content)
}

func TestImport(t *testing.T) {
	svc, _ := setupService(t)

	builtins, err := templates.LoadBuiltinTemplates()
	require.NoError(t, err)
	require.NotEmpty(t, builtins)

	stored, err := svc.Import(context.Background(), builtins[0])
	require.NoError(t, err)
	require.Equal(t, builtins[0].Name, stored.Name)
	require.Equal(t, templates.Extract(builtins[0].Content), variableKeys(stored.Variables))

	_, err = svc.Import(context.Background(), nil)
	require.Error(t, err)
}

func TestTenants(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	_, err := svc.CreateTenant(ctx, TenantInput{FullName: "A", Phone: ""})
	require.ErrorIs(t, err, models.ErrValidation)

	created, err := svc.CreateTenant(ctx, TenantInput{
		FullName: " Nguyễn Văn A ",
		IDCard:   "079123456789",
		Phone:    "0901234567",
		Email:    "a@example.com",
	})
	require.NoError(t, err)
	require.Equal(t, "Nguyễn Văn A", created.FullName)

	got, err := svc.GetTenant(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, "a@example.com", got.Email)

	for _, search := range []string{"nguyễn", "NGUYỄN VĂN", "079123456789", "0901"} {
		page, err := svc.ListTenants(ctx, models.TenantListParams{Search: search})
		require.NoError(t, err)
		require.Equal(t, 1, page.Total, "search %q", search)
	}

	_, err = svc.GetTenant(ctx, "missing")
	require.ErrorIs(t, err, ErrTenantNotFound)
}

func TestCreateTenantRejectsInvalidAndDuplicate(t *testing.T) {
	svc, events := setupService(t)
	ctx := context.Background()

	first, err := svc.CreateTenant(ctx, TenantInput{FullName: "Tran Thi B", IDCard: "079123456789", Phone: "0912345678"})
	require.NoError(t, err)

	_, err = svc.CreateTenant(ctx, TenantInput{FullName: "Le Van C", IDCard: "079123456789", Phone: "not-a-phone"})
	require.ErrorIs(t, err, models.ErrValidation)

	_, err = svc.CreateTenant(ctx, TenantInput{FullName: "Le Van C", IDCard: "079123456789", Phone: "0987654321"})
	require.ErrorIs(t, err, ErrIDCardExists)

	page, err := svc.ListTenants(ctx, models.TenantListParams{Search: "079123456789"})
	require.NoError(t, err)
	require.Equal(t, 1, page.Total)
	require.Equal(t, first.ID, page.Tenants[0].ID)

	logged, err := events.ListByEntity(ctx, models.EntityTypeTenant, first.ID, 0)
	require.NoError(t, err)
	require.Len(t, logged, 1)
}

func TestUpdateAndDeleteTenant(t *testing.T) {
	svc, events := setupService(t)
	ctx := context.Background()

	ann, err := svc.CreateTenant(ctx, TenantInput{FullName: "Ann Nguyen", IDCard: "079000000001", Phone: "0901000001"})
	require.NoError(t, err)
	bob, err := svc.CreateTenant(ctx, TenantInput{FullName: "Bob Tran", IDCard: "079000000002", Phone: "0901000002"})
	require.NoError(t, err)

	phone := "0781234567"
	address := "12 Le Loi, Q1"
	updated, err := svc.UpdateTenant(ctx, ann.ID, TenantUpdate{Phone: &phone, CurrentAddress: &address})
	require.NoError(t, err)
	require.Equal(t, "0781234567", updated.Phone)
	require.Equal(t, "Ann Nguyen", updated.FullName)
	require.Equal(t, "079000000001", updated.IDCard)

	// Keeping its own number is not a conflict.
	sameCard := "079000000001"
	_, err = svc.UpdateTenant(ctx, ann.ID, TenantUpdate{IDCard: &sameCard})
	require.NoError(t, err)

	takenCard := bob.IDCard
	_, err = svc.UpdateTenant(ctx, ann.ID, TenantUpdate{IDCard: &takenCard})
	require.ErrorIs(t, err, ErrIDCardExists)

	badCard := "12345"
	_, err = svc.UpdateTenant(ctx, ann.ID, TenantUpdate{IDCard: &badCard})
	require.ErrorIs(t, err, models.ErrValidation)

	_, err = svc.UpdateTenant(ctx, "missing", TenantUpdate{Phone: &phone})
	require.ErrorIs(t, err, ErrTenantNotFound)

	require.NoError(t, svc.DeleteTenant(ctx, bob.ID))
	_, err = svc.GetTenant(ctx, bob.ID)
	require.ErrorIs(t, err, ErrTenantNotFound)
	require.ErrorIs(t, svc.DeleteTenant(ctx, bob.ID), ErrTenantNotFound)

	logged, err := events.ListByEntity(ctx, models.EntityTypeTenant, ann.ID, 0)
	require.NoError(t, err)
	require.Len(t, logged, 3)
	require.Equal(t, models.EventTypeTenantUpdated, logged[1].Type)

	logged, err = events.ListByEntity(ctx, models.EntityTypeTenant, bob.ID, 0)
	require.NoError(t, err)
	require.Equal(t, models.EventTypeTenantDeleted, logged[len(logged)-1].Type)
}

func TestListTemplatesSearchFoldsUnicode(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, CreateInput{Name: "Hợp đồng thuê nhà", Content: "Bên thuê {{tenant_full_name}}"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, CreateInput{Name: "Room rental", Content: "Tenant {{tenant_full_name}}"})
	require.NoError(t, err)

	for _, search := range []string{"hợp đồng", "HỢP ĐỒNG", "HỢP", "BÊN THUÊ"} {
		page, err := svc.List(ctx, models.TemplateListParams{Search: search})
		require.NoError(t, err)
		require.Equal(t, 1, page.Total, "search %q", search)
		require.Equal(t, "Hợp đồng thuê nhà", page.Templates[0].Name)
	}
}
