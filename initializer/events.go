package initializer

import (
	"github.com/crytic/hydrafuzz/contracts"
	"github.com/crytic/hydrafuzz/evmtypes"
	"github.com/crytic/hydrafuzz/events"
)

// InitializerEvents defines the event emitters published during Initialize, mirroring medusa's
// FuzzerWorkerEvents pattern of one named EventEmitter field per lifecycle point a driver or
// reporting layer might want to observe.
type InitializerEvents struct {
	// ContractDeployed emits once per contract successfully deployed or set-code installed.
	ContractDeployed events.EventEmitter[ContractDeployedEvent]

	// CorpusInitialized emits once, after seedCorpus has staged the infant corpus's first entry.
	CorpusInitialized events.EventEmitter[CorpusInitializedEvent]
}

// ContractDeployedEvent describes a single contract having been deployed (or set-code installed)
// and its ABI recovered/classified during CorpusInitializer.deployContracts.
type ContractDeployedEvent struct {
	Address  evmtypes.Address
	Contract *contracts.Contract
}

// CorpusInitializedEvent describes the completion of CorpusInitializer.Initialize: the seed input
// count enqueued and the resulting artifact set.
type CorpusInitializedEvent struct {
	SeedInputCount int
	Artifacts      *contracts.Artifacts
}
