package oracle

import (
	"fmt"
	"hash/fnv"

	"github.com/crytic/hydrafuzz/contracts"
)

// typedBugBugIdxShift is the number of extra low bits reserved below every typed-bug index, so
// that when other oracle categories are added later their bug-index ranges cannot collide with
// this one's. ityfuzz defines this per-oracle-category shift in oracles::TYPED_BUG_BUG_IDX; this
// core implements only the typed-bug oracle, so the shift is fixed at 0.
const typedBugBugIdxShift = 0

// TypedBugOracle reports every typed-bug marker recorded during a step (ctx.Result.TypedBugs,
// taken from vmexec.EVMState.TypedBugs) as a bug whose index is a hash of the bug ID together
// with the firing program counter. Markers are not deduplicated: each one yields its own report.
// Grounded on ityfuzz's TypedBugOracle.
type TypedBugOracle struct {
	artifacts *contracts.Artifacts
}

// NewTypedBugOracle returns a TypedBugOracle resolving addresses/source locations from artifacts.
func NewTypedBugOracle(artifacts *contracts.Artifacts) *TypedBugOracle {
	return &TypedBugOracle{artifacts: artifacts}
}

// Transition is a no-op: TypedBugOracle carries no per-sequence state across inputs.
func (o *TypedBugOracle) Transition(ctx *Ctx, stage uint64) uint64 {
	return stage
}

// Oracle reports one BugReport per typed-bug marker fired during this step's execution, returning
// their computed bug indices.
func (o *TypedBugOracle) Oracle(ctx *Ctx, stage uint64) []uint64 {
	if ctx.Result == nil || len(ctx.Result.TypedBugs) == 0 {
		return nil
	}

	var indices []uint64
	for _, bug := range ctx.Result.TypedBugs {
		h := fnv.New64a()
		_, _ = h.Write([]byte(bug.BugID))
		var pcBytes [8]byte
		for i := 0; i < 8; i++ {
			pcBytes[i] = byte(bug.PC >> (8 * i))
		}
		_, _ = h.Write(pcBytes[:])
		realBugIdx := h.Sum64() << (8 + typedBugBugIdxShift)

		name := bug.Addr.String()
		var loc *contracts.SourceMapLocation
		if o.artifacts != nil {
			if n, ok := o.artifacts.AddressToName[bug.Addr]; ok {
				name = n
			}
			if srcmap, ok := o.artifacts.AddressToSourceMap[bug.Addr]; ok {
				if l, ok := srcmap[int(bug.PC)]; ok {
					loc = &l
				}
			}
		}

		PushBugReport(BugReport{
			Name:        "TypedBug",
			Message:     fmt.Sprintf("invariant %s violated", bug.BugID),
			BugIdx:      realBugIdx,
			Address:     bug.Addr,
			AddressName: name,
			SourceLoc:   loc,
		})
		indices = append(indices, realBugIdx)
	}
	return indices
}
