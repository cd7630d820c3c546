package entitymachine

import (
	"math/big"

	"github.com/xln-finance/xln/internal/accountmachine"
	"github.com/xln-finance/xln/internal/xlnerr"
	"github.com/xln-finance/xln/internal/xlntypes"
)

// Process applies txs to the (entityID, signerID) replica in reg (spec
// §4.5): enqueue, and — only if this replica IsProposer — drain the
// mempool into a new EntityFrame, driving each tx's handler in turn.
// Non-proposer replicas only buffer the txs; nothing in this module
// delivers the proposer's frames to them, so they do not advance
// (spec §9, single-proposer consensus).
func Process(reg Registry, entityID xlntypes.EntityID, signerID xlntypes.SignerID, txs []Tx) (Outputs, error) {
	r, ok := reg.Get(entityID, signerID)
	if !ok {
		return Outputs{}, xlnerr.New(xlnerr.KindReplicaMissing, "no such entity replica")
	}

	r.Mempool = append(r.Mempool, txs...)
	if !r.IsProposer {
		return Outputs{}, nil
	}

	drained := r.Mempool
	r.Mempool = nil

	var out Outputs
	for _, tx := range drained {
		processTx(reg, r, tx, &out)
	}

	r.CurrentFrame = Frame{
		Height:    r.CurrentFrame.Height + 1,
		StateHash: hashState(r.State),
		EntityTxs: drained,
	}
	return out, nil
}

func processTx(reg Registry, r *Replica, tx Tx, out *Outputs) {
	switch tx.Type {
	case TxOpenAccount:
		handleOpenAccount(r, tx.OpenAccount, out)
	case TxDirectPayment:
		handleDirectPayment(reg, r, tx.DirectPayment, out)
	case TxJEvent:
		handleJEvent(r, tx.JEvent, out)
	case TxAccountInput:
		handleAccountInput(r, tx.AccountInput, out)
	default:
		out.Errors = append(out.Errors, xlnerr.New(xlnerr.KindUnknownTxType, "unrecognized entity tx type"))
	}
}

// emitSettlementRequests scans a just-committed AccountFrame for
// settleOnchain AccountTxs and turns each into a SettlementRequest
// addressed to the entity's home jurisdiction (spec §4.4 transition 6:
// "emits a J-event request to the jurisdiction"). The on-chain values
// themselves are only updated later, by the resulting j_event callback.
func emitSettlementRequests(r *Replica, counterparty xlntypes.EntityID, frame accountmachine.Frame, out *Outputs) {
	left, right := r.EntityID, counterparty
	if !xlntypes.IsLeft(left, right) {
		left, right = right, left
	}
	for _, tx := range frame.AccountTxs {
		if tx.Type != accountmachine.TxSettleOnchain {
			continue
		}
		out.SettlementRequests = append(out.SettlementRequests, SettlementRequest{
			Jurisdiction:        r.Config.Jurisdiction,
			Left:                left,
			Right:               right,
			TokenID:             tx.TokenID,
			RequestedCollateral: new(big.Int).Set(tx.Amount),
		})
	}
}

func ensureAccount(r *Replica, counterparty xlntypes.EntityID) *accountmachine.Machine {
	acct, ok := r.State.Accounts[counterparty]
	if !ok {
		acct = accountmachine.New(counterparty, xlntypes.IsLeft(r.EntityID, counterparty))
		r.State.Accounts[counterparty] = acct
	}
	return acct
}

// handleOpenAccount idempotently creates the local AccountMachine for
// data.Target and mirrors the request so the target's own replica opens
// the matching bilateral account (spec §4.4 "openAccount initialises an
// AccountMachine... on both sides").
func handleOpenAccount(r *Replica, data *OpenAccountData, out *Outputs) {
	if data == nil {
		out.Errors = append(out.Errors, xlnerr.New(xlnerr.KindInvalidRoute, "openAccount missing data"))
		return
	}
	_, existed := r.State.Accounts[data.Target]
	ensureAccount(r, data.Target)
	if existed {
		return
	}
	out.Outbound = append(out.Outbound, Outbound{
		TargetEntityID: data.Target,
		Tx:             Tx{Type: TxOpenAccount, OpenAccount: &OpenAccountData{Target: r.EntityID}},
	})
}

// handleDirectPayment lowers an n-hop route into n independent per-hop
// addPayment AccountTxs (spec §4.5.1), executing each hop directly
// against the owning entity's AccountMachine via reg (the single-process
// "Arena" model, spec §9) rather than waiting for a network round trip.
// Each hop is proposed immediately and its Outbound accountInput/PROPOSE
// message queued for the runtime's intra-tick delivery loop. Failure
// partway through is explicit non-atomicity (spec §9 Open Question 1):
// hops already proposed are NOT rolled back.
func handleDirectPayment(reg Registry, r *Replica, data *DirectPaymentData, out *Outputs) {
	if data == nil || data.Amount == nil || data.Amount.Sign() <= 0 {
		out.Errors = append(out.Errors, xlnerr.New(xlnerr.KindInvalidAmount, "directPayment amount must be positive"))
		return
	}

	hops := data.Route
	if len(hops) == 0 || hops[len(hops)-1] != data.Target {
		hops = append(append([]xlntypes.EntityID{}, data.Route...), data.Target)
	}
	// Spec §4.5.1's route format is [r0, r1, ..., rn] with r0 = self: strip
	// that leading self-entry so the loop below only ever walks the actual
	// hop targets, instead of mistaking the payer's own id for the first
	// counterparty.
	if len(hops) > 0 && hops[0] == r.EntityID {
		hops = hops[1:]
	}

	current := r.EntityID
	currentReplica := r
	for i, next := range hops {
		if currentReplica == nil {
			signer, ok := reg.DefaultSigner(current)
			if !ok {
				out.Errors = append(out.Errors, xlnerr.Newf(xlnerr.KindReplicaMissing, "no replica for route hop", map[string]any{"hop": i, "entity": current.String()}))
				return
			}
			currentReplica, ok = reg.Get(current, signer)
			if !ok {
				out.Errors = append(out.Errors, xlnerr.Newf(xlnerr.KindReplicaMissing, "no replica for route hop", map[string]any{"hop": i, "entity": current.String()}))
				return
			}
		}

		acct := ensureAccount(currentReplica, next)
		derived := acct.Derive(data.TokenID)
		if derived.OutCapacity.Cmp(data.Amount) < 0 {
			out.Errors = append(out.Errors, xlnerr.Newf(xlnerr.KindInsufficientCapacity, "insufficient capacity at hop", map[string]any{
				"hop":       i,
				"entity":    current.String(),
				"required":  data.Amount.String(),
				"available": derived.OutCapacity.String(),
			}))
			return
		}

		if _, err := acct.SubmitLocal(accountmachine.TxAddPayment, data.TokenID, new(big.Int).Set(data.Amount)); err != nil {
			out.Errors = append(out.Errors, err)
			return
		}
		frame, err := acct.Propose()
		if err != nil {
			out.Errors = append(out.Errors, err)
			return
		}
		if frame == nil {
			// Another proposal from this side is already in flight for this
			// pair; the queued tx stays in this account's mempool and goes
			// out with the next proposal made on it.
			current = next
			currentReplica = nil
			continue
		}

		out.Outbound = append(out.Outbound, Outbound{
			TargetEntityID: next,
			Tx: Tx{
				Type: TxAccountInput,
				AccountInput: &AccountInputData{
					From:    current,
					To:      next,
					Message: accountmachine.Message{Type: accountmachine.MsgPropose, Frame: *frame, Height: frame.Height},
				},
			},
		})

		current = next
		currentReplica = nil
	}
}

// handleJEvent applies a jurisdiction callback idempotently, keyed by
// (blockNumber, transactionHash, entity, tokenId) (spec §4.5.2).
// ReserveUpdated sets an absolute balance; CollateralUpdated writes the
// account's Delta directly, bypassing propose/commit entirely since the
// settlement already happened on-chain.
func handleJEvent(r *Replica, data *JEventData, out *Outputs) {
	if data == nil {
		out.Errors = append(out.Errors, xlnerr.New(xlnerr.KindInvalidRoute, "j_event missing data"))
		return
	}
	key := data.IdempotenceKey()
	if _, seen := r.State.appliedJEvents[key]; seen {
		return
	}
	r.State.appliedJEvents[key] = struct{}{}

	switch data.Kind {
	case JEventReserveUpdated:
		balance := new(big.Int).Set(data.NewBalance)
		r.State.Reserves[data.TokenID] = balance
		out.ReserveMirrors = append(out.ReserveMirrors, ReserveMirror{
			Entity:     r.EntityID,
			TokenID:    data.TokenID,
			NewBalance: new(big.Int).Set(balance),
		})
	case JEventCollateralUpdated:
		acct := ensureAccount(r, data.Counterparty)
		acct.EnsureToken(data.TokenID)
		d := acct.Deltas[data.TokenID]
		if data.Collateral != nil {
			d.Collateral.Set(data.Collateral)
		}
		if data.Ondelta != nil {
			d.Ondelta.Set(data.Ondelta)
		}
		left, right := r.EntityID, data.Counterparty
		if !xlntypes.IsLeft(left, right) {
			left, right = right, left
		}
		out.CollateralMirrors = append(out.CollateralMirrors, CollateralMirror{
			Left:       left,
			Right:      right,
			TokenID:    data.TokenID,
			Collateral: new(big.Int).Set(d.Collateral),
			Ondelta:    new(big.Int).Set(d.Ondelta),
		})
	default:
		out.Errors = append(out.Errors, xlnerr.New(xlnerr.KindUnknownTxType, "unrecognized j_event kind"))
	}
}

// handleAccountInput dispatches a bilateral PROPOSE/ACK/REJECT message
// to the AccountMachine shared with data.From (spec §4.4), generating
// further Outbound ACK/REJECT messages as the protocol requires.
func handleAccountInput(r *Replica, data *AccountInputData, out *Outputs) {
	if data == nil {
		out.Errors = append(out.Errors, xlnerr.New(xlnerr.KindInvalidRoute, "accountInput missing data"))
		return
	}
	acct := ensureAccount(r, data.From)

	switch data.Message.Type {
	case accountmachine.MsgPropose:
		accepted, _, err := acct.ApplyRemotePropose(data.Message.Frame)
		if err != nil {
			out.Errors = append(out.Errors, err)
			return
		}
		replyType := accountmachine.MsgReject
		if accepted {
			replyType = accountmachine.MsgAck
		}
		out.Outbound = append(out.Outbound, Outbound{
			TargetEntityID: data.From,
			Tx: Tx{
				Type: TxAccountInput,
				AccountInput: &AccountInputData{
					From:    r.EntityID,
					To:      data.From,
					Message: accountmachine.Message{Type: replyType, Height: data.Message.Frame.Height},
				},
			},
		})
		if accepted {
			emitSettlementRequests(r, data.From, data.Message.Frame, out)
		}
	case accountmachine.MsgAck:
		if err := acct.ApplyRemoteAck(data.Message.Height); err != nil {
			out.Errors = append(out.Errors, err)
			return
		}
		emitSettlementRequests(r, data.From, acct.CurrentFrame, out)
	case accountmachine.MsgReject:
		if err := acct.ApplyRemoteReject(data.Message.Height); err != nil {
			out.Errors = append(out.Errors, err)
		}
	default:
		out.Errors = append(out.Errors, xlnerr.New(xlnerr.KindUnknownTxType, "unrecognized account message type"))
	}
}
