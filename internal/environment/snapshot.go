package environment

import (
	"github.com/xln-finance/xln/internal/entitymachine"
	"github.com/xln-finance/xln/internal/gossip"
	"github.com/xln-finance/xln/internal/jurisdiction"
	"github.com/xln-finance/xln/internal/xlntypes"
)

// RuntimeInput records the (runtimeTxs, entityInputs) pair that produced
// a tick, retained verbatim inside the snapshot it generated so §8's
// replay-determinism property can re-derive the same state from
// history[0] alone.
type RuntimeInput struct {
	CreateXlnomy   []jurisdiction.Config
	ImportReplica  []ImportReplicaInput
	EntityInputs   []EntityInput
}

// ImportReplicaInput is the wire form of the importReplica RuntimeTx.
type ImportReplicaInput struct {
	EntityID   xlntypes.EntityID
	SignerID   xlntypes.SignerID
	Config     entitymachine.ReplicaConfig
	IsProposer bool
	Position   entitymachine.Position
}

// EntityInput is one (entityId, signerId, entityTxs) triple from
// applyRuntimeInput's step 2 (spec §4.7).
type EntityInput struct {
	EntityID xlntypes.EntityID
	SignerID xlntypes.SignerID
	Txs      []entitymachine.Tx
}

// Snapshot is spec §3's EnvSnapshot: the value pushed into history on
// every tick, deeply immutable from the moment it is appended.
type Snapshot struct {
	Height      uint64
	Timestamp   int64
	Description string
	Title       string

	EReplicas map[string]*entitymachine.Replica
	JReplicas []jurisdiction.Projection

	RuntimeInput   RuntimeInput
	RuntimeOutputs []entitymachine.Outputs

	GossipProfiles []gossip.Profile
}

// snapshot deep-clones e's current state into a Snapshot (spec §3
// "Snapshots are created on every process call, never mutated, never
// deleted").
func (e *Environment) snapshot(input RuntimeInput, outputs []entitymachine.Outputs, nowMs int64, description, title string) Snapshot {
	eReplicas := make(map[string]*entitymachine.Replica, len(e.EReplicas))
	for key, r := range e.EReplicas {
		eReplicas[key] = r.Clone()
	}

	jReplicas := make([]jurisdiction.Projection, 0, len(e.Xlnomies))
	for _, j := range e.Xlnomies {
		jReplicas = append(jReplicas, j.Snapshot())
	}

	return Snapshot{
		Height:         uint64(len(e.History)),
		Timestamp:      nowMs,
		Description:    description,
		Title:          title,
		EReplicas:      eReplicas,
		JReplicas:      jReplicas,
		RuntimeInput:   input,
		RuntimeOutputs: outputs,
		GossipProfiles: e.Gossip.GetProfiles(),
	}
}

// AppendSnapshot records s as the newest entry in history (append-only,
// spec §3).
func (e *Environment) AppendSnapshot(s Snapshot) {
	e.History = append(e.History, s)
}

// SnapshotNow is the exported entry point the runtime calls at the end
// of every tick (spec §4.7 step 5).
func (e *Environment) SnapshotNow(input RuntimeInput, outputs []entitymachine.Outputs, nowMs int64) Snapshot {
	return e.snapshot(input, outputs, nowMs, "", "")
}
