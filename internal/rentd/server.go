package rentd

import (
	"context"
	"errors"
	"os"
	"strings"
	"time"

	"github.com/rentdesk/rentdesk/internal/contract"
	"github.com/rentdesk/rentdesk/internal/models"
	"github.com/rentdesk/rentdesk/internal/templates"
	"github.com/rs/zerolog"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

// Server implements TemplateServiceServer.
type Server struct {
	contracts *contract.Service
	logger    zerolog.Logger
	startedAt time.Time
	hostname  string
	version   string
}

// ServerOption configures the Server.
type ServerOption func(*Server)

// WithVersion sets the daemon version.
func WithVersion(version string) ServerOption {
	return func(s *Server) {
		s.version = version
	}
}

// WithContractService enables the stored-template methods.
func WithContractService(svc *contract.Service) ServerOption {
	return func(s *Server) {
		s.contracts = svc
	}
}

// NewServer creates the gRPC service implementation.
func NewServer(logger zerolog.Logger, opts ...ServerOption) *Server {
	hostname, _ := os.Hostname()

	s := &Server{
		logger:    logger,
		startedAt: time.Now(),
		hostname:  hostname,
		version:   "dev",
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Ping reports version and uptime.
func (s *Server) Ping(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	now := time.Now()
	return s.respond(PingResponse{
		Version:   s.version,
		Hostname:  s.hostname,
		Timestamp: now.UTC().Format(time.RFC3339Nano),
		Uptime:    now.Sub(s.startedAt).Round(time.Millisecond).String(),
	})
}

// Extract returns the placeholder keys of a body.
func (s *Server) Extract(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req ExtractRequest
	if err := decodeRequest(in, &req); err != nil {
		return nil, err
	}
	return s.respond(ExtractResponse{Keys: templates.Extract(req.Content)})
}

// Render renders an ad-hoc body.
func (s *Server) Render(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req RenderRequest
	if err := decodeRequest(in, &req); err != nil {
		return nil, err
	}
	return s.respond(RenderResponse{
		Content:    templates.Render(req.Content, req.Values),
		Unresolved: templates.Unresolved(req.Content, req.Values),
	})
}

// Reconcile returns the variable list that would be stored for a body.
func (s *Server) Reconcile(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req ReconcileRequest
	if err := decodeRequest(in, &req); err != nil {
		return nil, err
	}
	return s.respond(ReconcileResponse{Variables: templates.Reconcile(req.Content, req.Variables)})
}

// GetTemplate returns a stored template.
func (s *Server) GetTemplate(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	if err := s.requireStore(); err != nil {
		return nil, err
	}
	var req GetTemplateRequest
	if err := decodeRequest(in, &req); err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.ID) == "" {
		return nil, status.Error(codes.InvalidArgument, "id is required")
	}

	tmpl, err := s.contracts.Get(ctx, req.ID)
	if err != nil {
		return nil, s.statusError(MethodGetTemplate, err)
	}
	return s.respond(tmpl)
}

// ListTemplates returns one page of stored templates.
func (s *Server) ListTemplates(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	if err := s.requireStore(); err != nil {
		return nil, err
	}
	var req ListTemplatesRequest
	if err := decodeRequest(in, &req); err != nil {
		return nil, err
	}

	page, err := s.contracts.List(ctx, req.params())
	if err != nil {
		return nil, s.statusError(MethodListTemplates, err)
	}
	return s.respond(page)
}

// RenderTemplate renders a stored template.
func (s *Server) RenderTemplate(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	if err := s.requireStore(); err != nil {
		return nil, err
	}
	var req RenderTemplateRequest
	if err := decodeRequest(in, &req); err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.TemplateID) == "" {
		return nil, status.Error(codes.InvalidArgument, "template_id is required")
	}

	renderReq := contract.RenderRequest{
		TemplateID: req.TemplateID,
		TenantID:   req.TenantID,
		Values:     req.Values,
	}
	var (
		result *contract.RenderResult
		err    error
	)
	if req.Sanitize {
		result, err = s.contracts.Preview(ctx, renderReq)
	} else {
		result, err = s.contracts.Render(ctx, renderReq)
	}
	if err != nil {
		return nil, s.statusError(MethodRenderTemplate, err)
	}
	return s.respond(result)
}

func (s *Server) requireStore() error {
	if s.contracts == nil {
		return status.Error(codes.FailedPrecondition, "template store is not configured")
	}
	return nil
}

func (s *Server) respond(v any) (*structpb.Struct, error) {
	out, err := encodeStruct(v)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to encode response")
		return nil, status.Error(codes.Internal, err.Error())
	}
	return out, nil
}

func (s *Server) statusError(method string, err error) error {
	switch {
	case errors.Is(err, contract.ErrTemplateNotFound), errors.Is(err, contract.ErrTenantNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, models.ErrValidation):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	default:
		s.logger.Error().Err(err).Str("method", method).Msg("request failed")
		return status.Error(codes.Internal, "internal error")
	}
}

func decodeRequest(in *structpb.Struct, dst any) error {
	if err := decodeStruct(in, dst); err != nil {
		return status.Error(codes.InvalidArgument, err.Error())
	}
	return nil
}
