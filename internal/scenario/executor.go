package scenario

import (
	"fmt"
	"math/big"
	"math/rand"
	"time"

	"github.com/xln-finance/xln/internal/entitymachine"
	"github.com/xln-finance/xln/internal/environment"
	"github.com/xln-finance/xln/internal/jurisdiction"
	"github.com/xln-finance/xln/internal/runtime"
	"github.com/xln-finance/xln/internal/xlntypes"
)

const defaultJurisdiction = xlntypes.JurisdictionName("j1")

// executor carries the mutable state one Execute pass accumulates:
// the declared grid, which indices have been imported, and the
// deterministic random source payRandom draws from.
type executor struct {
	env *environment.Environment
	rt  *runtime.Runtime
	rng *rand.Rand

	grid     []gridEntity
	imported map[int]bool

	// signers records the signer id each index was imported under.
	// env.DefaultSigner cannot serve this purpose: ImportReplica
	// RuntimeTxs are only applied when the section's RuntimeInput is
	// handed to the runtime, which happens after buildInput has already
	// finished assembling that same section's openAccount/payRandom
	// entries, so the environment's own registry is still one section
	// behind while a section is being built.
	signers map[int]xlntypes.SignerID
}

// Execute implements executeScenario(env, scenario) → {success,
// framesGenerated, errors} (spec §6). env must already exist; Execute
// creates the scenario's default jurisdiction on first use if the
// scenario never issues its own createXlnomy.
func Execute(env *environment.Environment, sc Scenario) ExecuteResult {
	ex := &executor{
		env:      env,
		rt:       runtime.New(env, nil),
		rng:      rand.New(rand.NewSource(sc.Seed)),
		imported: make(map[int]bool),
		signers:  make(map[int]xlntypes.SignerID),
	}

	startHeight := len(env.History)
	var result ExecuteResult

	for _, section := range sc.Sections {
		input, err := ex.buildInput(section)
		if err != nil {
			result.Errors = append(result.Errors, err)
			continue
		}
		if _, err := ex.rt.ApplyRuntimeInput(input, section.TimestampMs); err != nil {
			result.Errors = append(result.Errors, err)
		}
	}

	result.FramesGenerated = len(env.History) - startHeight
	result.Success = len(result.Errors) == 0
	return result
}

// buildInput turns one section's actions into a single RuntimeInput,
// mutating ex.grid/ex.imported as grid/import actions are seen so later
// actions in the same or a later section can reference them.
func (ex *executor) buildInput(section Section) (environment.RuntimeInput, error) {
	var input environment.RuntimeInput

	for _, action := range section.Actions {
		switch action.Kind {
		case ActionGrid:
			ex.applyGrid(action)
		case ActionImport:
			if err := ex.applyImport(action, &input); err != nil {
				return input, err
			}
		case ActionOpenAccount:
			tx, err := ex.buildOpenAccount(action)
			if err != nil {
				return input, err
			}
			input.EntityInputs = append(input.EntityInputs, tx)
		case ActionPayRandom:
			txs, err := ex.buildPayRandom(action)
			if err != nil {
				return input, err
			}
			input.EntityInputs = append(input.EntityInputs, txs...)
		}
	}

	return input, nil
}

// applyGrid declares n*m*k candidate entities in row-major order, the
// way a scenario's "grid 3 3" line lays out a 3x3 plane of entities
// before any of them are imported as live replicas.
func (ex *executor) applyGrid(a Action) {
	ex.grid = ex.grid[:0]
	ex.imported = make(map[int]bool)

	index := 1
	for z := 0; z < a.GridZ; z++ {
		for y := 0; y < a.GridY; y++ {
			for x := 0; x < a.GridX; x++ {
				var id xlntypes.EntityID
				if a.GridType == KindLazy {
					id = xlntypes.LazyEntityID(defaultJurisdiction, fmt.Sprintf("grid-%d", index), uint64(index))
				} else {
					id = xlntypes.NumberedEntityID(uint64(index))
				}
				ex.grid = append(ex.grid, gridEntity{
					Index:    index,
					ID:       id,
					Position: entitymachine.Position{X: float64(x), Y: float64(y), Z: float64(z)},
				})
				index++
			}
		}
	}
}

// applyImport turns the grid entities in [from,to] into ImportReplica
// RuntimeTxs, one proposer-based single-signer replica per entity.
func (ex *executor) applyImport(a Action, input *environment.RuntimeInput) error {
	if len(ex.env.Xlnomies) == 0 {
		if err := ex.env.CreateXlnomy(jurisdiction.Config{
			Name:       defaultJurisdiction,
			EvmType:    "browservm",
			BlockDelay: time.Second,
		}); err != nil {
			return err
		}
	}

	for i := a.ImportFrom; i <= a.ImportTo; i++ {
		ge, err := ex.gridEntity(i)
		if err != nil {
			return err
		}
		signer := xlntypes.SignerID(fmt.Sprintf("signer-%d", i))
		input.ImportReplica = append(input.ImportReplica, environment.ImportReplicaInput{
			EntityID: ge.ID,
			SignerID: signer,
			Config: entitymachine.ReplicaConfig{
				Mode:         "proposer-based",
				Threshold:    1,
				Validators:   []xlntypes.SignerID{signer},
				Shares:       map[xlntypes.SignerID]int{signer: 1},
				Jurisdiction: defaultJurisdiction,
			},
			IsProposer: true,
			Position:   ge.Position,
		})
		ex.imported[i] = true
		ex.signers[i] = signer
	}
	return nil
}

func (ex *executor) buildOpenAccount(a Action) (environment.EntityInput, error) {
	from, err := ex.importedEntity(a.From)
	if err != nil {
		return environment.EntityInput{}, err
	}
	to, err := ex.importedEntity(a.To)
	if err != nil {
		return environment.EntityInput{}, err
	}
	return environment.EntityInput{
		EntityID: from.ID,
		SignerID: ex.signers[a.From],
		Txs: []entitymachine.Tx{{
			Type:        entitymachine.TxOpenAccount,
			OpenAccount: &entitymachine.OpenAccountData{Target: to.ID},
		}},
	}, nil
}

// buildPayRandom draws a.Count random (payer, payee, route-length)
// triples from the imported entities, each becoming a directPayment
// EntityTx from the payer.
func (ex *executor) buildPayRandom(a Action) ([]environment.EntityInput, error) {
	pool := ex.importedIndices()
	if len(pool) < 2 {
		return nil, fmt.Errorf("payRandom: fewer than two imported entities")
	}

	inputs := make([]environment.EntityInput, 0, a.Count)
	for n := 0; n < a.Count; n++ {
		fromIdx := pool[ex.rng.Intn(len(pool))]
		toIdx := pool[ex.rng.Intn(len(pool))]
		for toIdx == fromIdx {
			toIdx = pool[ex.rng.Intn(len(pool))]
		}
		from, _ := ex.gridEntity(fromIdx)
		to, _ := ex.gridEntity(toIdx)

		hops := a.MinHops
		if a.MaxHops > a.MinHops {
			hops += ex.rng.Intn(a.MaxHops - a.MinHops + 1)
		}
		route := ex.randomRoute(from.Index, to.Index, hops, pool)

		inputs = append(inputs, environment.EntityInput{
			EntityID: from.ID,
			SignerID: ex.signers[fromIdx],
			Txs: []entitymachine.Tx{{
				Type: entitymachine.TxDirectPayment,
				DirectPayment: &entitymachine.DirectPaymentData{
					Target:      to.ID,
					TokenID:     0,
					Amount:      big.NewInt(a.Amount),
					Route:       route,
					Description: "payRandom",
				},
			}},
		})
	}
	return inputs, nil
}

// randomRoute picks hops-1 intermediate imported entities (excluding
// from/to) to pad the route between from and to out to the requested
// length. When no further intermediate can be drawn it stops early and
// keeps the intermediates padded so far (the direct from→to route when
// none were found).
func (ex *executor) randomRoute(fromIdx, toIdx, hops int, pool []int) []xlntypes.EntityID {
	from, _ := ex.gridEntity(fromIdx)
	to, _ := ex.gridEntity(toIdx)
	route := []xlntypes.EntityID{from.ID}

	need := hops - 1
	for i := 0; i < need; i++ {
		// A draw landing on fromIdx/toIdx is rejected and retried rather
		// than skipped, so a small pool never silently shortens the route
		// below the requested hop count. Bounded by len(pool) attempts:
		// once every pool entry has been tried, no intermediate is left to
		// find and the route falls back to whatever was padded so far.
		var idx int
		found := false
		for attempt := 0; attempt < len(pool); attempt++ {
			idx = pool[ex.rng.Intn(len(pool))]
			if idx != fromIdx && idx != toIdx {
				found = true
				break
			}
		}
		if !found {
			break
		}
		ge, _ := ex.gridEntity(idx)
		route = append(route, ge.ID)
	}
	route = append(route, to.ID)
	return route
}

func (ex *executor) gridEntity(index int) (gridEntity, error) {
	for _, ge := range ex.grid {
		if ge.Index == index {
			return ge, nil
		}
	}
	return gridEntity{}, fmt.Errorf("scenario: no grid entity at index %d", index)
}

func (ex *executor) importedEntity(index int) (gridEntity, error) {
	if !ex.imported[index] {
		return gridEntity{}, fmt.Errorf("scenario: entity %d has not been imported", index)
	}
	return ex.gridEntity(index)
}

// importedIndices returns the imported grid indices in ascending order:
// payRandom must draw reproducibly from ex.rng given a fixed seed, which
// a map's randomized iteration order would silently break.
func (ex *executor) importedIndices() []int {
	indices := make([]int, 0, len(ex.imported))
	for i := range ex.imported {
		indices = append(indices, i)
	}
	for i := 1; i < len(indices); i++ {
		for j := i; j > 0 && indices[j-1] > indices[j]; j-- {
			indices[j-1], indices[j] = indices[j], indices[j-1]
		}
	}
	return indices
}
