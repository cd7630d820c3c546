package grpcevm

import (
	"context"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// Client implements runtime.EvmBackend over a gRPC connection to a
// Server, using the xlnjson wire codec registered in codec.go.
type Client struct {
	conn *grpc.ClientConn
}

// Dial opens a gRPC connection to addr. Transport credentials default to
// plaintext (insecure); real EVM backends reachable only over TLS should
// pass their own grpc.WithTransportCredentials in opts, which takes
// precedence since it is appended last. The caller owns the returned
// Client and must call Close when done.
func Dial(addr string, opts ...grpc.DialOption) (*Client, error) {
	dialOpts := append([]grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}, opts...)
	conn, err := grpc.NewClient(addr, dialOpts...)
	if err != nil {
		return nil, fmt.Errorf("grpcevm: dial %s: %w", addr, err)
	}
	return &Client{conn: conn}, nil
}

// NewClient wraps an already-established connection, used by tests that
// dial an in-process bufconn listener.
func NewClient(conn *grpc.ClientConn) *Client {
	return &Client{conn: conn}
}

// Close releases the underlying connection.
func (c *Client) Close() error {
	return c.conn.Close()
}

// SubmitSettlement implements runtime.EvmBackend.
func (c *Client) SubmitSettlement(ctx context.Context, jurisdictionName string, calldata []byte) (string, error) {
	req := &SubmitSettlementRequest{JurisdictionName: jurisdictionName, Calldata: calldata}
	resp := new(SubmitSettlementResponse)
	fullMethod := "/" + serviceName + "/SubmitSettlement"
	if err := c.conn.Invoke(ctx, fullMethod, req, resp, grpc.CallContentSubtype(codecName)); err != nil {
		return "", fmt.Errorf("grpcevm: submit settlement: %w", err)
	}
	return resp.TxHash, nil
}
