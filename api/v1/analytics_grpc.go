// Package v1 describes the analytics.v1.ProductAnalytics gRPC service.
//
// Requests and responses are google.protobuf.Struct documents, so the
// service needs no generated message types. Field names are snake_case;
// dates are RFC 3339 strings.
package v1

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

const ServiceName = "analytics.v1.ProductAnalytics"

const (
	ProductAnalytics_RunABTest_FullMethodName               = "/analytics.v1.ProductAnalytics/RunABTest"
	ProductAnalytics_GetConversionMetrics_FullMethodName    = "/analytics.v1.ProductAnalytics/GetConversionMetrics"
	ProductAnalytics_GetFunnel_FullMethodName               = "/analytics.v1.ProductAnalytics/GetFunnel"
	ProductAnalytics_GetSegmentMetrics_FullMethodName       = "/analytics.v1.ProductAnalytics/GetSegmentMetrics"
	ProductAnalytics_GetRevenueTrend_FullMethodName         = "/analytics.v1.ProductAnalytics/GetRevenueTrend"
	ProductAnalytics_GetCohorts_FullMethodName              = "/analytics.v1.ProductAnalytics/GetCohorts"
	ProductAnalytics_GetConversionRateChange_FullMethodName = "/analytics.v1.ProductAnalytics/GetConversionRateChange"
	ProductAnalytics_PrioritizeFeatures_FullMethodName      = "/analytics.v1.ProductAnalytics/PrioritizeFeatures"
)

// ProductAnalyticsClient is the client API for the ProductAnalytics service.
type ProductAnalyticsClient interface {
	RunABTest(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	GetConversionMetrics(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	GetFunnel(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	GetSegmentMetrics(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	GetRevenueTrend(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	GetCohorts(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	GetConversionRateChange(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	PrioritizeFeatures(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
}

type productAnalyticsClient struct {
	cc grpc.ClientConnInterface
}

func NewProductAnalyticsClient(cc grpc.ClientConnInterface) ProductAnalyticsClient {
	return &productAnalyticsClient{cc}
}

func (c *productAnalyticsClient) invoke(ctx context.Context, method string, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *productAnalyticsClient) RunABTest(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, ProductAnalytics_RunABTest_FullMethodName, in, opts...)
}

func (c *productAnalyticsClient) GetConversionMetrics(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, ProductAnalytics_GetConversionMetrics_FullMethodName, in, opts...)
}

func (c *productAnalyticsClient) GetFunnel(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, ProductAnalytics_GetFunnel_FullMethodName, in, opts...)
}

func (c *productAnalyticsClient) GetSegmentMetrics(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, ProductAnalytics_GetSegmentMetrics_FullMethodName, in, opts...)
}

func (c *productAnalyticsClient) GetRevenueTrend(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, ProductAnalytics_GetRevenueTrend_FullMethodName, in, opts...)
}

func (c *productAnalyticsClient) GetCohorts(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, ProductAnalytics_GetCohorts_FullMethodName, in, opts...)
}

func (c *productAnalyticsClient) GetConversionRateChange(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, ProductAnalytics_GetConversionRateChange_FullMethodName, in, opts...)
}

func (c *productAnalyticsClient) PrioritizeFeatures(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, ProductAnalytics_PrioritizeFeatures_FullMethodName, in, opts...)
}

// ProductAnalyticsServer is the server API for the ProductAnalytics service.
// Implementations must embed UnimplementedProductAnalyticsServer.
type ProductAnalyticsServer interface {
	RunABTest(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetConversionMetrics(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetFunnel(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetSegmentMetrics(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetRevenueTrend(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetCohorts(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetConversionRateChange(context.Context, *structpb.Struct) (*structpb.Struct, error)
	PrioritizeFeatures(context.Context, *structpb.Struct) (*structpb.Struct, error)
	mustEmbedUnimplementedProductAnalyticsServer()
}

// UnimplementedProductAnalyticsServer must be embedded to have
// forward compatible implementations.
type UnimplementedProductAnalyticsServer struct{}

func (UnimplementedProductAnalyticsServer) RunABTest(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method RunABTest not implemented")
}
func (UnimplementedProductAnalyticsServer) GetConversionMetrics(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method GetConversionMetrics not implemented")
}
func (UnimplementedProductAnalyticsServer) GetFunnel(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method GetFunnel not implemented")
}
func (UnimplementedProductAnalyticsServer) GetSegmentMetrics(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method GetSegmentMetrics not implemented")
}
func (UnimplementedProductAnalyticsServer) GetRevenueTrend(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method GetRevenueTrend not implemented")
}
func (UnimplementedProductAnalyticsServer) GetCohorts(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method GetCohorts not implemented")
}
func (UnimplementedProductAnalyticsServer) GetConversionRateChange(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method GetConversionRateChange not implemented")
}
func (UnimplementedProductAnalyticsServer) PrioritizeFeatures(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method PrioritizeFeatures not implemented")
}
func (UnimplementedProductAnalyticsServer) mustEmbedUnimplementedProductAnalyticsServer() {}

func RegisterProductAnalyticsServer(s grpc.ServiceRegistrar, srv ProductAnalyticsServer) {
	s.RegisterService(&ProductAnalytics_ServiceDesc, srv)
}

type unaryCall func(srv ProductAnalyticsServer, ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)

func unaryHandler(fullMethod string, call unaryCall) func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(ProductAnalyticsServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{
			Server:     srv,
			FullMethod: fullMethod,
		}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(ProductAnalyticsServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// ProductAnalytics_ServiceDesc is the grpc.ServiceDesc for the ProductAnalytics service.
var ProductAnalytics_ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*ProductAnalyticsServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "RunABTest",
			Handler:    unaryHandler(ProductAnalytics_RunABTest_FullMethodName, ProductAnalyticsServer.RunABTest),
		},
		{
			MethodName: "GetConversionMetrics",
			Handler:    unaryHandler(ProductAnalytics_GetConversionMetrics_FullMethodName, ProductAnalyticsServer.GetConversionMetrics),
		},
		{
			MethodName: "GetFunnel",
			Handler:    unaryHandler(ProductAnalytics_GetFunnel_FullMethodName, ProductAnalyticsServer.GetFunnel),
		},
		{
			MethodName: "GetSegmentMetrics",
			Handler:    unaryHandler(ProductAnalytics_GetSegmentMetrics_FullMethodName, ProductAnalyticsServer.GetSegmentMetrics),
		},
		{
			MethodName: "GetRevenueTrend",
			Handler:    unaryHandler(ProductAnalytics_GetRevenueTrend_FullMethodName, ProductAnalyticsServer.GetRevenueTrend),
		},
		{
			MethodName: "GetCohorts",
			Handler:    unaryHandler(ProductAnalytics_GetCohorts_FullMethodName, ProductAnalyticsServer.GetCohorts),
		},
		{
			MethodName: "GetConversionRateChange",
			Handler:    unaryHandler(ProductAnalytics_GetConversionRateChange_FullMethodName, ProductAnalyticsServer.GetConversionRateChange),
		},
		{
			MethodName: "PrioritizeFeatures",
			Handler:    unaryHandler(ProductAnalytics_PrioritizeFeatures_FullMethodName, ProductAnalyticsServer.PrioritizeFeatures),
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "analytics/v1/analytics.proto",
}
