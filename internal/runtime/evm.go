package runtime

import "context"

// EvmBackend is the capability parameter spec §5 requires for any
// jurisdiction configured with a real EVM RPC (`evmType ∈ {reth,
// erigon, monad}`): the core's per-tick function stays pure and
// synchronous, and any actual network call is pushed behind this
// interface so it can be mocked or omitted entirely for the in-process
// `browservm` simulator. internal/rpc/grpcevm.Client is this module's
// implementation that reaches a backend over the network. Runtime keeps
// the configured backend in its Evm field; ApplyRuntimeInput itself makes
// no SubmitSettlement call.
type EvmBackend interface {
	// SubmitSettlement asks the backend to post a settlement transaction
	// on behalf of jurisdiction name, returning the transaction hash the
	// eventual j_event callback will be keyed on.
	SubmitSettlement(ctx context.Context, jurisdictionName string, calldata []byte) (txHash string, err error)
}

// NoopEvmBackend is the capability used for `browservm` jurisdictions,
// which never leave the in-process simulator.
type NoopEvmBackend struct{}

func (NoopEvmBackend) SubmitSettlement(context.Context, string, []byte) (string, error) {
	return "", nil
}
