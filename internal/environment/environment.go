// Package environment implements Environment, the single mutable root
// spec §3 describes: it owns every jurisdiction and entity replica by
// value in flat maps and resolves cross-references by id rather than by
// pointer, the "arena pattern" spec §9 calls for to avoid ownership
// cycles between entities, accounts and jurisdictions. It is grounded
// on the teacher's internal/di package (a flat service locator keyed by
// string, resolved on demand) generalized from dependency injection to
// domain-object resolution.
package environment

import (
	"github.com/xln-finance/xln/internal/entitymachine"
	"github.com/xln-finance/xln/internal/gossip"
	"github.com/xln-finance/xln/internal/jurisdiction"
	"github.com/xln-finance/xln/internal/xlnerr"
	"github.com/xln-finance/xln/internal/xlntypes"
)

// replicaKey renders the "entityId:signerId" composite key spec §3's
// eReplicas mapping uses.
func replicaKey(entityID xlntypes.EntityID, signerID xlntypes.SignerID) string {
	return entityID.String() + ":" + string(signerID)
}

// Environment is spec §3's Environment, the single mutable root.
type Environment struct {
	Xlnomies      map[xlntypes.JurisdictionName]*jurisdiction.Machine
	ActiveXlnomy  xlntypes.JurisdictionName
	EReplicas     map[string]*entitymachine.Replica
	History       []Snapshot
	Gossip        *gossip.Directory

	// defaultSigner maps an entity to the first signer id it was
	// imported under, used by entitymachine.Registry.DefaultSigner for
	// directPayment hops that don't name a signer explicitly.
	defaultSigner map[xlntypes.EntityID]xlntypes.SignerID

	// LastJEvent mirrors spec §3's "lastJEvent: optional most-recent
	// jurisdiction event (for UI ripples)".
	LastJEvent *jurisdiction.Event
}

// New constructs an empty Environment.
func New() *Environment {
	return &Environment{
		Xlnomies:      make(map[xlntypes.JurisdictionName]*jurisdiction.Machine),
		EReplicas:     make(map[string]*entitymachine.Replica),
		Gossip:        gossip.New(gossip.DefaultConfig()),
		defaultSigner: make(map[xlntypes.EntityID]xlntypes.SignerID),
	}
}

// CreateXlnomy implements the createXlnomy RuntimeTx (spec §6): creates
// a new jurisdiction and, if none is yet active, makes it the active
// one.
func (e *Environment) CreateXlnomy(config jurisdiction.Config) error {
	if _, exists := e.Xlnomies[config.Name]; exists {
		return xlnerr.Newf(xlnerr.KindDuplicateReplica, "jurisdiction already exists", map[string]any{"name": string(config.Name)})
	}
	e.Xlnomies[config.Name] = jurisdiction.New(config)
	if e.ActiveXlnomy == "" {
		e.ActiveXlnomy = config.Name
	}
	return nil
}

// ImportReplica implements the importReplica RuntimeTx (spec §6):
// creates a new EntityReplica, keyed by (entityID, signerID). Re-import
// of an existing key is rejected (spec §7 DuplicateReplica).
func (e *Environment) ImportReplica(entityID xlntypes.EntityID, signerID xlntypes.SignerID, config entitymachine.ReplicaConfig, isProposer bool, position entitymachine.Position) error {
	key := replicaKey(entityID, signerID)
	if _, exists := e.EReplicas[key]; exists {
		return xlnerr.Newf(xlnerr.KindDuplicateReplica, "entity replica already imported", map[string]any{"entity": entityID.String(), "signer": string(signerID)})
	}
	e.EReplicas[key] = entitymachine.NewReplica(entityID, signerID, config, isProposer, position)
	if _, ok := e.defaultSigner[entityID]; !ok {
		e.defaultSigner[entityID] = signerID
	}
	return nil
}

// Get implements entitymachine.Registry.
func (e *Environment) Get(entityID xlntypes.EntityID, signerID xlntypes.SignerID) (*entitymachine.Replica, bool) {
	r, ok := e.EReplicas[replicaKey(entityID, signerID)]
	return r, ok
}

// DefaultSigner implements entitymachine.Registry.
func (e *Environment) DefaultSigner(entityID xlntypes.EntityID) (xlntypes.SignerID, bool) {
	s, ok := e.defaultSigner[entityID]
	return s, ok
}

var _ entitymachine.Registry = (*Environment)(nil)
