// Package scheduler declares the two pluggable scheduling surfaces the corpus initializer and
// fuzz loop drive — which input/ABI to mutate next, and which staged VM state to fork from next —
// without committing to any particular selection policy. The concrete RNG/coverage-weighted
// scheduling algorithm is explicitly out of scope for this core (spec.md §1); only the interface
// shape and a minimal round-robin default are implemented here, grounded on libafl's
// schedulers::Scheduler trait (the collaborator ityfuzz's SC type parameter is bound to).
package scheduler

import "github.com/crytic/hydrafuzz/fuzzinput"

// InputScheduler selects which queued EVMInput to run next and is notified whenever a new input
// (or, separately, a batch of mutation artifacts) is added to the corpus. This is the Go shape of
// libafl's Scheduler trait's on_add hook plus medusa's artifact-addition callback, kept abstract
// since this core only needs to thread the hook through, not implement a real weighting policy.
type InputScheduler interface {
	// OnAdd is called once for every new EVMInput added to the corpus (whether a seed, a mutated
	// child, or a synthetic Borrow), receiving its assigned index.
	OnAdd(index int, input *fuzzinput.EVMInput)

	// OnAddArtifacts is called when a batch of mutation artifacts (e.g. newly observed
	// coverage-relevant constants) is folded into the corpus, independent of any single input.
	OnAddArtifacts(artifacts [][]byte)

	// Next returns the index of the next input to run.
	Next() (int, bool)
}

// StagedStateScheduler selects which infant-corpus StagedVMState to fork the next transaction
// sequence from.
type StagedStateScheduler interface {
	// OnAdd is called once for every new staged state added to the infant corpus, receiving its
	// assigned index.
	OnAdd(index int)

	// Next returns the index of the next staged state to fork from.
	Next() (int, bool)
}

// RoundRobinInputScheduler is the minimal default InputScheduler: every added input is visited
// exactly once, in insertion order, before wrapping around. It exists only to make the pipeline
// runnable end-to-end; a real fuzzer would replace it with a coverage/energy-weighted policy
// (explicitly out of scope here).
type RoundRobinInputScheduler struct {
	indices []int
	cursor  int
}

// NewRoundRobinInputScheduler returns an empty round-robin scheduler.
func NewRoundRobinInputScheduler() *RoundRobinInputScheduler {
	return &RoundRobinInputScheduler{}
}

func (s *RoundRobinInputScheduler) OnAdd(index int, input *fuzzinput.EVMInput) {
	s.indices = append(s.indices, index)
}

func (s *RoundRobinInputScheduler) OnAddArtifacts(artifacts [][]byte) {}

func (s *RoundRobinInputScheduler) Next() (int, bool) {
	if len(s.indices) == 0 {
		return 0, false
	}
	idx := s.indices[s.cursor%len(s.indices)]
	s.cursor++
	return idx, true
}

// RoundRobinStagedStateScheduler is StagedStateScheduler's equivalent minimal default.
type RoundRobinStagedStateScheduler struct {
	indices []int
	cursor  int
}

// NewRoundRobinStagedStateScheduler returns an empty round-robin scheduler.
func NewRoundRobinStagedStateScheduler() *RoundRobinStagedStateScheduler {
	return &RoundRobinStagedStateScheduler{}
}

func (s *RoundRobinStagedStateScheduler) OnAdd(index int) {
	s.indices = append(s.indices, index)
}

func (s *RoundRobinStagedStateScheduler) Next() (int, bool) {
	if len(s.indices) == 0 {
		return 0, false
	}
	idx := s.indices[s.cursor%len(s.indices)]
	s.cursor++
	return idx, true
}
