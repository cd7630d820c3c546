package grpcevm

import (
	"context"
	"fmt"
	"net"

	"google.golang.org/grpc"

	"github.com/xln-finance/xln/internal/runtime"
)

// serviceDesc is the hand-assembled equivalent of what protoc would
// generate from a .proto file, grounded on the teacher's internal/grpc
// server not relying on codegen either (internal/grpc/server.go builds a
// bare *grpc.Server and registers handlers directly).
var serviceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*evmBackendServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "SubmitSettlement",
			Handler:    submitSettlementHandler,
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "xln/grpcevm.proto",
}

// Server adapts a local runtime.EvmBackend implementation to the gRPC
// service surface, letting a real reth/erigon/monad-backed process be
// reached over the network from the jurisdiction process that enqueues
// settlements (spec §5's "async boundary outside the core").
type Server struct {
	backend    runtime.EvmBackend
	grpcServer *grpc.Server
}

// NewServer wraps backend (any runtime.EvmBackend, typically a real RPC
// client to the chosen evmType) as a gRPC service.
func NewServer(backend runtime.EvmBackend) *Server {
	s := &Server{backend: backend}
	s.grpcServer = grpc.NewServer()
	s.grpcServer.RegisterService(&serviceDesc, evmBackendServer(s))
	return s
}

// SubmitSettlement implements evmBackendServer by delegating to the
// wrapped backend.
func (s *Server) SubmitSettlement(ctx context.Context, req *SubmitSettlementRequest) (*SubmitSettlementResponse, error) {
	txHash, err := s.backend.SubmitSettlement(ctx, req.JurisdictionName, req.Calldata)
	if err != nil {
		return nil, fmt.Errorf("grpcevm: submit settlement: %w", err)
	}
	return &SubmitSettlementResponse{TxHash: txHash}, nil
}

// Serve blocks accepting connections on lis until the server is stopped.
func (s *Server) Serve(lis net.Listener) error {
	return s.grpcServer.Serve(lis)
}

// Stop gracefully stops the server.
func (s *Server) Stop() {
	s.grpcServer.GracefulStop()
}
