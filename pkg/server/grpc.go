package server

import (
	"google.golang.org/grpc"
	"google.golang.org/grpc/reflection"
)

// RegistrationFunc registers a grpc service with the server.
type RegistrationFunc func(*grpc.Server)

// NewGRPCServer builds a gRPC server from opts (interceptors, limits) and runs every registerFunc on it.
// Reflection is registered first when enabled so tools like grpcurl can list the health service.
func NewGRPCServer(enableReflection bool, opts []grpc.ServerOption, registerFunc ...RegistrationFunc) *grpc.Server {
	grpcServer := grpc.NewServer(opts...)

	if enableReflection {
		reflection.Register(grpcServer)
	}

	for _, regFunc := range registerFunc {
		regFunc(grpcServer)
	}

	return grpcServer
}
