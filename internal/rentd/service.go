// Package rentd serves the template engine and the template store over gRPC.
package rentd

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "rentdesk.v1.TemplateService"

// Full method names.
const (
	MethodPing           = "/" + ServiceName + "/Ping"
	MethodExtract        = "/" + ServiceName + "/Extract"
	MethodRender         = "/" + ServiceName + "/Render"
	MethodReconcile      = "/" + ServiceName + "/Reconcile"
	MethodGetTemplate    = "/" + ServiceName + "/GetTemplate"
	MethodListTemplates  = "/" + ServiceName + "/ListTemplates"
	MethodRenderTemplate = "/" + ServiceName + "/RenderTemplate"
)

// TemplateServiceServer is the server API. Every message is a
// google.protobuf.Struct carrying the JSON form of the request or response
// types in messages.go.
type TemplateServiceServer interface {
	Ping(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Extract(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Render(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Reconcile(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetTemplate(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListTemplates(context.Context, *structpb.Struct) (*structpb.Struct, error)
	RenderTemplate(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

// ServiceDesc describes TemplateService for grpc.Server.RegisterService.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*TemplateServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Ping", Handler: unaryHandler(MethodPing, TemplateServiceServer.Ping)},
		{MethodName: "Extract", Handler: unaryHandler(MethodExtract, TemplateServiceServer.Extract)},
		{MethodName: "Render", Handler: unaryHandler(MethodRender, TemplateServiceServer.Render)},
		{MethodName: "Reconcile", Handler: unaryHandler(MethodReconcile, TemplateServiceServer.Reconcile)},
		{MethodName: "GetTemplate", Handler: unaryHandler(MethodGetTemplate, TemplateServiceServer.GetTemplate)},
		{MethodName: "ListTemplates", Handler: unaryHandler(MethodListTemplates, TemplateServiceServer.ListTemplates)},
		{MethodName: "RenderTemplate", Handler: unaryHandler(MethodRenderTemplate, TemplateServiceServer.RenderTemplate)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "rentdesk/v1/template_service.proto",
}

// RegisterTemplateServiceServer registers srv on s.
func RegisterTemplateServiceServer(s grpc.ServiceRegistrar, srv TemplateServiceServer) {
	s.RegisterService(&ServiceDesc, srv)
}

type unaryMethod func(TemplateServiceServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unaryHandler(fullMethod string, call unaryMethod) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(TemplateServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{
			Server:     srv,
			FullMethod: fullMethod,
		}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(TemplateServiceServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}
