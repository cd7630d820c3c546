// Package snapshotstore provides optional persistent storage for
// Environment history (spec §3 "Snapshots... never mutated, never
// deleted"). The runtime's core operation never requires it: the default
// Environment keeps its entire History slice in memory (spec §6). This
// package exists for the caller that wants ticks to survive a restart,
// grounded on the teacher's internal/storage/nodestore content-addressable
// design, simplified from ledger objects to env-history records and with
// the hand-rolled compression/negative-cache/batch-writer machinery
// dropped (see DESIGN.md: pebble's own block compression already covers
// the concern, and nothing in this module ever probes for a record it
// expects to be absent, so a negative cache has no caller).
package snapshotstore

import (
	"fmt"

	"github.com/xln-finance/xln/internal/codec"
)

// RecordKind identifies what a Record's Data holds.
type RecordKind uint32

const (
	RecordUnknown RecordKind = iota
	// RecordEnvSnapshot holds one encoded environment.Snapshot.
	RecordEnvSnapshot
	// RecordEntityReplica holds one encoded entitymachine.Replica.
	RecordEntityReplica
	// RecordJurisdictionProjection holds one encoded jurisdiction.Projection.
	RecordJurisdictionProjection
)

func (k RecordKind) String() string {
	switch k {
	case RecordEnvSnapshot:
		return "EnvSnapshot"
	case RecordEntityReplica:
		return "EntityReplica"
	case RecordJurisdictionProjection:
		return "JurisdictionProjection"
	default:
		return fmt.Sprintf("RecordKind(%d)", uint32(k))
	}
}

// Record is one content-addressed entry: Hash is always codec.Hash(Data),
// matching the "stateHash = sha256(...)" convention used throughout the
// core state machines.
type Record struct {
	Kind   RecordKind
	Hash   codec.Hash256
	Height uint64
	Data   []byte
}

// NewRecord builds a Record, computing Hash from data.
func NewRecord(kind RecordKind, height uint64, data []byte) Record {
	return Record{Kind: kind, Hash: codec.Hash(data), Height: height, Data: append([]byte(nil), data...)}
}

// Store is the persistence surface every backend implements (spec §6's
// "optional, off by default" storage layer).
type Store interface {
	// Put persists r, keyed by r.Hash.
	Put(r Record) error
	// Get retrieves the record stored under hash, or ErrNotFound.
	Get(hash codec.Hash256) (Record, error)
	// Has reports whether hash is present. PebbleStore answers it with a
	// full Get, which decodes the payload.
	Has(hash codec.Hash256) (bool, error)
	// ForEach iterates every stored record in unspecified order.
	ForEach(fn func(Record) error) error
	// Close releases any resources the backend holds.
	Close() error
}
