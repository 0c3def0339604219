package vmexec

import "github.com/crytic/hydrafuzz/evmtypes"

// StagedVMState is one entry in the infant corpus: a saved EVMState together with the provenance
// of how it was reached (the index of the last input applied, the traced tokens, and a trace
// description). This is the Go shape of the "infant corpus" entity
// spec.md §3 describes as distinct from the main transaction-sequence corpus.
type StagedVMState struct {
	// State is the saved world at this point in a transaction sequence.
	State *EVMState

	// FromInputIndex is the index, in whatever input sequence produced this state, of the last
	// input applied before it was staged. -1 for the initial post-deployment state.
	FromInputIndex int

	// TracedTokens is the set of ERC-20 addresses known to have a nonzero balance under any
	// fuzzer-controlled account in this state. Nothing in this module adds entries to it; Fork
	// carries it forward.
	TracedTokens map[evmtypes.Address]bool

	// Trace, if non-empty, is a human-readable description of the call sequence that reached this
	// state — used purely for bug-report provenance, never re-parsed.
	Trace string
}

// NewStagedVMState wraps a freshly-produced EVMState as the initial entry of the infant corpus
// (spec.md §4.1 step 11, "seed the staged state into the infant corpus").
func NewStagedVMState(state *EVMState) *StagedVMState {
	return &StagedVMState{
		State:          state,
		FromInputIndex: -1,
		TracedTokens:   make(map[evmtypes.Address]bool),
	}
}

// Fork produces a new StagedVMState whose EVMState is an independent copy of this one's, carrying
// forward the traced-token set, as performed whenever a fuzz step stages a new state after
// executing an EVMInput against a parent staged state.
func (s *StagedVMState) Fork(fromInputIndex int) *StagedVMState {
	clone := NewStagedVMState(s.State.Fork())
	clone.FromInputIndex = fromInputIndex
	for addr := range s.TracedTokens {
		clone.TracedTokens[addr] = true
	}
	clone.Trace = s.Trace
	return clone
}
