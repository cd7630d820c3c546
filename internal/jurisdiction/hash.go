package jurisdiction

import (
	"math/big"

	"github.com/xln-finance/xln/internal/codec"
	"github.com/xln-finance/xln/internal/xlntypes"
)

// hashState computes the canonical stateRoot (spec §4.6: "hash(canonical
// (reserves, collaterals, blockNumber))"), sorting entities/channel keys
// as spec §4.1 requires for deterministic mapping encoding.
func hashState(reserves map[xlntypes.EntityID]map[xlntypes.TokenID]*big.Int, collaterals map[string]map[xlntypes.TokenID]*collateralEntry, blockNumber uint64) codec.Hash256 {
	entities := make([]xlntypes.EntityID, 0, len(reserves))
	for id := range reserves {
		entities = append(entities, id)
	}
	sortEntityIDs(entities)

	channelKeys := codec.SortedStringKeys(collateralsAsAny(collaterals))

	w := codec.NewWriter(256)
	w.Uint64(blockNumber)

	w.Len(len(entities))
	for _, id := range entities {
		w.Bytes32(id)
		tokenIDs := tokenIDsOf(reserves[id])
		w.Len(len(tokenIDs))
		for _, tokenID := range tokenIDs {
			w.Uint64(uint64(tokenID))
			w.BigInt(reserves[id][tokenID])
		}
	}

	w.Len(len(channelKeys))
	for _, key := range channelKeys {
		w.String(key)
		byToken := collaterals[key]
		tokenIDs := tokenIDsOfCollateral(byToken)
		w.Len(len(tokenIDs))
		for _, tokenID := range tokenIDs {
			entry := byToken[tokenID]
			w.Uint64(uint64(tokenID))
			w.BigInt(entry.Collateral)
			w.BigInt(entry.Ondelta)
		}
	}

	return codec.HashWithPrefix(codec.PrefixJurisdictionBlock, w.Bytes())
}

func collateralsAsAny(in map[string]map[xlntypes.TokenID]*collateralEntry) map[string]struct{} {
	out := make(map[string]struct{}, len(in))
	for k := range in {
		out[k] = struct{}{}
	}
	return out
}

func tokenIDsOf(m map[xlntypes.TokenID]*big.Int) []xlntypes.TokenID {
	ids := make([]xlntypes.TokenID, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sortTokenIDs(ids)
	return ids
}

func tokenIDsOfCollateral(m map[xlntypes.TokenID]*collateralEntry) []xlntypes.TokenID {
	ids := make([]xlntypes.TokenID, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sortTokenIDs(ids)
	return ids
}

func sortTokenIDs(ids []xlntypes.TokenID) {
	for i := 1; i < len(ids); i++ {
		for j := i; j > 0 && ids[j-1] > ids[j]; j-- {
			ids[j-1], ids[j] = ids[j], ids[j-1]
		}
	}
}

func sortEntityIDs(ids []xlntypes.EntityID) {
	for i := 1; i < len(ids); i++ {
		for j := i; j > 0 && ids[j-1].Compare(ids[j]) > 0; j-- {
			ids[j-1], ids[j] = ids[j], ids[j-1]
		}
	}
}
