package rentd

import (
	"context"
	"fmt"

	"github.com/rentdesk/rentdesk/internal/contract"
	"github.com/rentdesk/rentdesk/internal/models"
	"github.com/rentdesk/rentdesk/internal/templates"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/structpb"
)

// Client calls a rentd daemon.
type Client struct {
	conn *grpc.ClientConn
}

// Dial connects to addr without transport security. Extra options are
// applied after the defaults.
func Dial(addr string, opts ...grpc.DialOption) (*Client, error) {
	dialOpts := append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	}, opts...)

	conn, err := grpc.NewClient(addr, dialOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", addr, err)
	}
	return &Client{conn: conn}, nil
}

// Close closes the connection.
func (c *Client) Close() error {
	return c.conn.Close()
}

// Ping checks the daemon is serving.
func (c *Client) Ping(ctx context.Context) (*PingResponse, error) {
	var resp PingResponse
	if err := c.invoke(ctx, MethodPing, struct{}{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Extract returns the placeholder keys of content.
func (c *Client) Extract(ctx context.Context, content string) ([]string, error) {
	var resp ExtractResponse
	if err := c.invoke(ctx, MethodExtract, ExtractRequest{Content: content}, &resp); err != nil {
		return nil, err
	}
	if resp.Keys == nil {
		resp.Keys = []string{}
	}
	return resp.Keys, nil
}

// Render renders content with values.
func (c *Client) Render(ctx context.Context, content string, values templates.Values) (*RenderResponse, error) {
	var resp RenderResponse
	if err := c.invoke(ctx, MethodRender, RenderRequest{Content: content, Values: values}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Reconcile returns the variables that would be stored for content.
func (c *Client) Reconcile(ctx context.Context, content string, declared []models.TemplateVariable) ([]models.TemplateVariable, error) {
	var resp ReconcileResponse
	if err := c.invoke(ctx, MethodReconcile, ReconcileRequest{Content: content, Variables: declared}, &resp); err != nil {
		return nil, err
	}
	return resp.Variables, nil
}

// GetTemplate fetches a stored template.
func (c *Client) GetTemplate(ctx context.Context, id string) (*models.ContractTemplate, error) {
	var resp models.ContractTemplate
	if err := c.invoke(ctx, MethodGetTemplate, GetTemplateRequest{ID: id}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ListTemplates lists stored templates.
func (c *Client) ListTemplates(ctx context.Context, req ListTemplatesRequest) (*models.TemplateListPage, error) {
	var resp models.TemplateListPage
	if err := c.invoke(ctx, MethodListTemplates, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// RenderTemplate renders a stored template.
func (c *Client) RenderTemplate(ctx context.Context, req RenderTemplateRequest) (*contract.RenderResult, error) {
	var resp contract.RenderResult
	if err := c.invoke(ctx, MethodRenderTemplate, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) invoke(ctx context.Context, method string, req, resp any) error {
	in, err := encodeStruct(req)
	if err != nil {
		return err
	}
	out := new(structpb.Struct)
	if err := c.conn.Invoke(ctx, method, in, out); err != nil {
		return err
	}
	return decodeStruct(out, resp)
}
