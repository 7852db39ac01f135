// Package gameserver carries transactions, results and snapshots between a
// predicting client and the authority over gRPC. Messages are
// google.protobuf.Struct values holding the JSON form of the domain types,
// so no generated code is required.
package gameserver

import (
	"context"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "stash.v1.InventoryService"

const (
	methodSubmit   = "Submit"
	methodSnapshot = "Snapshot"
	methodClaim    = "Claim"
	methodRelease  = "Release"
	methodFloor    = "Floor"
)

func fullMethod(name string) string {
	return "/" + ServiceName + "/" + name
}

// InventoryService is the server API of the authority.
type InventoryService interface {
	// Submit executes one transaction and returns its Result.
	Submit(context.Context, *structpb.Struct) (*structpb.Struct, error)
	// Snapshot returns authoritative inventory snapshots.
	Snapshot(context.Context, *structpb.Struct) (*structpb.Struct, error)
	// Claim marks a slot pending for a controller.
	Claim(context.Context, *structpb.Struct) (*structpb.Struct, error)
	// Release clears a controller's pending claim on a slot.
	Release(context.Context, *structpb.Struct) (*structpb.Struct, error)
	// Floor lists the world items lying in a room.
	Floor(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

type unaryFn func(InventoryService, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unary(name string, fn unaryFn) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(structpb.Struct)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return fn(srv.(InventoryService), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod(name)}
			handler := func(ctx context.Context, req any) (any, error) {
				return fn(srv.(InventoryService), ctx, req.(*structpb.Struct))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

// InventoryServiceDesc describes InventoryService for grpc.Server.
var InventoryServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*InventoryService)(nil),
	Methods: []grpc.MethodDesc{
		unary(methodSubmit, InventoryService.Submit),
		unary(methodSnapshot, InventoryService.Snapshot),
		unary(methodClaim, InventoryService.Claim),
		unary(methodRelease, InventoryService.Release),
		unary(methodFloor, InventoryService.Floor),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "stash/v1/inventory.proto",
}

// RegisterInventoryService registers srv on s.
func RegisterInventoryService(s grpc.ServiceRegistrar, srv InventoryService) {
	s.RegisterService(&InventoryServiceDesc, srv)
}

// NewGRPCServer returns a grpc.Server serving svc and the standard health
// service, with svc reported as SERVING.
func NewGRPCServer(svc InventoryService, logger *zap.Logger, opts ...grpc.ServerOption) (*grpc.Server, *health.Server) {
	if logger == nil {
		logger = zap.NewNop()
	}
	opts = append(opts, grpc.ChainUnaryInterceptor(loggingInterceptor(logger)))
	gs := grpc.NewServer(opts...)
	RegisterInventoryService(gs, svc)
	hs := health.NewServer()
	healthpb.RegisterHealthServer(gs, hs)
	hs.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)
	return gs, hs
}

func loggingInterceptor(logger *zap.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		logger.Debug("rpc handled",
			zap.String("method", info.FullMethod),
			zap.Stringer("code", status.Code(err)),
			zap.Duration("elapsed", time.Since(start)),
		)
		return resp, err
	}
}
