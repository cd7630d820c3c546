// Package gossip implements the advisory entity directory (spec §9): a
// mutex-protected, idempotent-by-timestamp profile store. It is grounded
// on the teacher's internal/peermanagement/discovery/discovery.go, which
// keeps the same shape — a Config/DefaultConfig pair plus a
// sync.RWMutex-guarded map of peer records — generalized from XRPL peer
// discovery to XLN entity profile announcement.
package gossip

import (
	"sync"
	"time"

	"github.com/xln-finance/xln/internal/xlntypes"
)

// AccountSummary is the advisory per-counterparty line an entity
// publishes about one of its open accounts, used by routing heuristics
// that want a hint about where capacity might exist without querying
// the counterparty directly.
type AccountSummary struct {
	CounterpartyID xlntypes.EntityID
	TokenIDs       []xlntypes.TokenID
}

// Metadata is the advisory, self-reported information an entity
// publishes about itself (spec §9): a display name, a hierarchy
// position hint, its public key, and board membership if it is a
// multi-signer entity.
type Metadata struct {
	Name            string
	Position        string
	EntityPublicKey []byte
	Board           []xlntypes.SignerID
}

// Profile is one entity's advisory directory entry.
type Profile struct {
	EntityID  xlntypes.EntityID
	Metadata  Metadata
	Accounts  []AccountSummary
	Timestamp int64 // unix millis; higher always wins on announce
}

// Config tunes the directory's retention behavior, mirroring the
// teacher's discovery.Config (PeerTTL-equivalent knobs kept minimal
// since gossip here is purely in-memory and advisory, not used for
// consensus).
type Config struct {
	// StaleAfter marks a profile eligible for pruning once this much
	// time has elapsed since its Timestamp with no re-announce.
	StaleAfter time.Duration
}

// DefaultConfig returns the directory defaults (spec §9 does not
// mandate specific retention, so this is an implementation choice
// generous enough not to prune actively-used entities).
func DefaultConfig() Config {
	return Config{StaleAfter: 24 * time.Hour}
}

// Directory is the advisory entity profile store. Every method is safe
// for concurrent use.
type Directory struct {
	mu       sync.RWMutex
	config   Config
	profiles map[xlntypes.EntityID]Profile
}

// New constructs an empty Directory.
func New(config Config) *Directory {
	return &Directory{
		config:   config,
		profiles: make(map[xlntypes.EntityID]Profile),
	}
}

// Announce idempotently upserts a profile (spec §9 operation
// announce): a profile with a Timestamp not newer than the one already
// on file is silently ignored, making repeated announces of the same
// snapshot a no-op.
func (d *Directory) Announce(p Profile) {
	d.mu.Lock()
	defer d.mu.Unlock()

	existing, ok := d.profiles[p.EntityID]
	if ok && existing.Timestamp >= p.Timestamp {
		return
	}
	d.profiles[p.EntityID] = p
}

// GetProfile returns the known profile for id, if any.
func (d *Directory) GetProfile(id xlntypes.EntityID) (Profile, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	p, ok := d.profiles[id]
	return p, ok
}

// GetProfiles returns every known profile (spec §9 operation
// getProfiles), snapshotted under the read lock so callers may range
// over the result without holding the directory lock.
func (d *Directory) GetProfiles() []Profile {
	d.mu.RLock()
	defer d.mu.RUnlock()

	out := make([]Profile, 0, len(d.profiles))
	for _, p := range d.profiles {
		out = append(out, p)
	}
	return out
}

// Prune removes profiles whose Timestamp is older than now minus
// StaleAfter. It is advisory housekeeping only; nothing downstream
// depends on prompt pruning for correctness.
func (d *Directory) Prune(nowMillis int64) int {
	d.mu.Lock()
	defer d.mu.Unlock()

	cutoff := nowMillis - d.config.StaleAfter.Milliseconds()
	removed := 0
	for id, p := range d.profiles {
		if p.Timestamp < cutoff {
			delete(d.profiles, id)
			removed++
		}
	}
	return removed
}

// Count returns the number of known profiles.
func (d *Directory) Count() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.profiles)
}
