// Package grpcevm wires the EvmBackend capability (spec §5: "the
// implementation MUST surface RPC calls as an async boundary outside the
// core") onto a real gRPC transport for jurisdictions configured with
// evmType in {reth, erigon, monad}. It is grounded on the teacher's
// internal/grpc package: a hand-assembled grpc.ServiceDesc with plain Go
// request/response structs (internal/grpc/handlers.go carries
// GetLedgerRequest/GetLedgerResponse the same way, with no .proto
// codegen anywhere in goXRPLd), paired with a JSON wire codec registered
// through google.golang.org/grpc/encoding so the hand-written structs
// can cross the wire without a protobuf compiler.
package grpcevm

import (
	"context"

	"google.golang.org/grpc"
)

// SubmitSettlementRequest is the wire form of EvmBackend.SubmitSettlement.
type SubmitSettlementRequest struct {
	JurisdictionName string
	Calldata         []byte
}

// SubmitSettlementResponse carries the transaction hash a later j_event
// callback will key idempotence on (spec §4.5.2).
type SubmitSettlementResponse struct {
	TxHash string
}

// evmBackendServer is the interface the generated-by-hand ServiceDesc
// below dispatches to, implemented by Server.
type evmBackendServer interface {
	SubmitSettlement(context.Context, *SubmitSettlementRequest) (*SubmitSettlementResponse, error)
}

const serviceName = "xln.evm.EvmBackend"

// submitSettlementHandler matches grpc.MethodHandler's exact signature —
// the same shape protoc-gen-go-grpc would emit into a _grpc.pb.go file —
// so it can be registered in serviceDesc.Methods below without codegen.
func submitSettlementHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	req := new(SubmitSettlementRequest)
	if err := dec(req); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(evmBackendServer).SubmitSettlement(ctx, req)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: "/" + serviceName + "/SubmitSettlement",
	}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(evmBackendServer).SubmitSettlement(ctx, req.(*SubmitSettlementRequest))
	}
	return interceptor(ctx, req, info, handler)
}
