package rentd

import (
	"context"
	"testing"

	"github.com/rentdesk/rentdesk/internal/contract"
	"github.com/rentdesk/rentdesk/internal/db"
	"github.com/rs/zerolog"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

func newContractService(t *testing.T) *contract.Service {
	t.Helper()

	database, err := db.OpenInMemory()
	if err != nil {
		t.Fatalf("OpenInMemory: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	if err := database.Migrate(context.Background()); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	return contract.NewService(
		db.NewContractTemplateRepository(database),
		db.NewTenantRepository(database),
		contract.WithLogger(zerolog.Nop()),
	)
}

func mustStruct(t *testing.T, fields map[string]any) *structpb.Struct {
	t.Helper()
	s, err := structpb.NewStruct(fields)
	if err != nil {
		t.Fatalf("NewStruct: %v", err)
	}
	return s
}

func TestServerPing(t *testing.T) {
	server := NewServer(zerolog.Nop(), WithVersion("test-version"))

	resp, err := server.Ping(context.Background(), &structpb.Struct{})
	if err != nil {
		t.Fatalf("Ping() error = %v", err)
	}

	var ping PingResponse
	if err := decodeStruct(resp, &ping); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if ping.Version != "test-version" {
		t.Errorf("Version = %q, want %q", ping.Version, "test-version")
	}
	if ping.Timestamp == "" {
		t.Error("Timestamp should be set")
	}
}

func TestServerExtract(t *testing.T) {
	server := NewServer(zerolog.Nop())

	resp, err := server.Extract(context.Background(), mustStruct(t, map[string]any{
		"content": "{{b}} {{a}} {{b}} {{Bad}}",
	}))
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}

	var out ExtractResponse
	if err := decodeStruct(resp, &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(out.Keys) != 2 || out.Keys[0] != "b" || out.Keys[1] != "a" {
		t.Fatalf("Keys = %v, want [b a]", out.Keys)
	}
}

func TestServerRenderNumbers(t *testing.T) {
	server := NewServer(zerolog.Nop())

	resp, err := server.Render(context.Background(), mustStruct(t, map[string]any{
		"content": "Rent {{rent}} for {{tenant}}, deposit {{deposit}}",
		"values": map[string]any{
			"rent":   12000000,
			"tenant": "A & B",
		},
	}))
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}

	var out RenderResponse
	if err := decodeStruct(resp, &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	want := "Rent 12000000 for A &amp; B, deposit {{deposit}}"
	if out.Content != want {
		t.Fatalf("Content = %q, want %q", out.Content, want)
	}
	if len(out.Unresolved) != 1 || out.Unresolved[0] != "deposit" {
		t.Fatalf("Unresolved = %v", out.Unresolved)
	}
}

func TestServerRenderRejectsBadValues(t *testing.T) {
	server := NewServer(zerolog.Nop())

	_, err := server.Render(context.Background(), mustStruct(t, map[string]any{
		"content": "{{a}}",
		"values":  map[string]any{"a": true},
	}))
	if status.Code(err) != codes.InvalidArgument {
		t.Fatalf("code = %v, want InvalidArgument (err %v)", status.Code(err), err)
	}
}

func TestServerReconcile(t *testing.T) {
	server := NewServer(zerolog.Nop())

	resp, err := server.Reconcile(context.Background(), mustStruct(t, map[string]any{
		"content": "{{monthly_rent}} {{deposit}}",
	}))
	if err != nil {
		t.Fatalf("Reconcile() error = %v", err)
	}

	var out ReconcileResponse
	if err := decodeStruct(resp, &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(out.Variables) != 2 || out.Variables[0].Label != "Monthly Rent" || !out.Variables[1].Required {
		t.Fatalf("unexpected variables: %+v", out.Variables)
	}
}

func TestServerStoreMethodsRequireService(t *testing.T) {
	server := NewServer(zerolog.Nop())

	_, err := server.GetTemplate(context.Background(), mustStruct(t, map[string]any{"id": "x"}))
	if status.Code(err) != codes.FailedPrecondition {
		t.Fatalf("code = %v, want FailedPrecondition", status.Code(err))
	}
}

func TestServerGetTemplateNotFound(t *testing.T) {
	server := NewServer(zerolog.Nop(), WithContractService(newContractService(t)))

	_, err := server.GetTemplate(context.Background(), mustStruct(t, map[string]any{"id": "missing"}))
	if status.Code(err) != codes.NotFound {
		t.Fatalf("code = %v, want NotFound", status.Code(err))
	}

	_, err = server.GetTemplate(context.Background(), &structpb.Struct{})
	if status.Code(err) != codes.InvalidArgument {
		t.Fatalf("code = %v, want InvalidArgument", status.Code(err))
	}
}
