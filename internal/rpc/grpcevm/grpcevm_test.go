package grpcevm

import (
	"context"
	"net"
	"testing"

	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/test/bufconn"

	"github.com/xln-finance/xln/internal/runtime"
)

type fakeBackend struct {
	lastJurisdiction string
	lastCalldata     []byte
}

func (f *fakeBackend) SubmitSettlement(_ context.Context, jurisdictionName string, calldata []byte) (string, error) {
	f.lastJurisdiction = jurisdictionName
	f.lastCalldata = calldata
	return "0xabc123", nil
}

func dialBufconn(t *testing.T, lis *bufconn.Listener) *grpc.ClientConn {
	t.Helper()
	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	return conn
}

func TestSubmitSettlementRoundTrip(t *testing.T) {
	backend := &fakeBackend{}
	var _ runtime.EvmBackend = backend

	server := NewServer(backend)
	lis := bufconn.Listen(1024 * 1024)
	go func() {
		_ = server.Serve(lis)
	}()
	defer server.Stop()

	conn := dialBufconn(t, lis)
	defer conn.Close()

	client := NewClient(conn)
	txHash, err := client.SubmitSettlement(context.Background(), "j1", []byte{0x01, 0x02})
	require.NoError(t, err)
	require.Equal(t, "0xabc123", txHash)
	require.Equal(t, "j1", backend.lastJurisdiction)
	require.Equal(t, []byte{0x01, 0x02}, backend.lastCalldata)
}
