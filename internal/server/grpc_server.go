package server

import (
	"context"
	"fmt"
	"log/slog"
	"net"

	"google.golang.org/grpc"
	"google.golang.org/grpc/reflection"

	"github.com/oggyb/match-engine/internal/config"
)

// NewGRPCServer builds a gRPC server with the interceptor chain and
// registers all provided services.
func NewGRPCServer(cfg *config.Config, log *slog.Logger, registrars ...Registrar) *grpc.Server {
	interceptors := []grpc.UnaryServerInterceptor{
		RequestLogger(log),
		Metrics(),
	}
	if cfg.Auth.JWTSecret != "" {
		interceptors = append(interceptors, Auth(cfg.Auth.JWTSecret))
	}

	grpcServer := grpc.NewServer(grpc.ChainUnaryInterceptor(interceptors...))

	// register all services
	for _, r := range registrars {
		r.Register(grpcServer)
	}

	// enable reflection for easier debugging with grpcurl
	reflection.Register(grpcServer)

	return grpcServer
}

// StartGRPCServer serves until ctx is done, then drains in-flight calls.
func StartGRPCServer(ctx context.Context, cfg *config.Config, grpcServer *grpc.Server) error {
	addr := fmt.Sprintf("%s:%s", cfg.GRPC.Host, cfg.GRPC.Port)
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	go func() {
		<-ctx.Done()
		grpcServer.GracefulStop()
	}()

	if err := grpcServer.Serve(lis); err != nil {
		return fmt.Errorf("grpc serve: %w", err)
	}
	return nil
}
