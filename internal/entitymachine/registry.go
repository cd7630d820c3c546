package entitymachine

import "github.com/xln-finance/xln/internal/xlntypes"

// Registry gives Process cross-entity visibility into the single-process
// simulator (spec §9 "Arena pattern": the Environment owns every entity's
// replicas by value and resolves references on demand rather than
// addressing them over a network). directPayment's hop-by-hop routing
// (spec §4.5.1) is the only reason an EntityMachine needs to reach
// outside its own replica.
type Registry interface {
	// Get returns the replica for (entityID, signerID), if present.
	Get(entityID xlntypes.EntityID, signerID xlntypes.SignerID) (*Replica, bool)
	// DefaultSigner returns the signer this registry treats as the
	// addressable default for entityID (the proposer in the common
	// single-validator case), used when a hop does not name a signer.
	DefaultSigner(entityID xlntypes.EntityID) (xlntypes.SignerID, bool)
}
