package server

import "google.golang.org/grpc"

// Registrar attaches one service implementation to the server built by
// NewGRPCServer.
type Registrar interface {
	Register(s *grpc.Server)
}
