// Package contracts defines the loader-time view of a contract under test and the artifacts the
// corpus initializer produces once every contract has been deployed, ABI-recovered, and
// classified.
package contracts

import (
	"github.com/crytic/hydrafuzz/abi"
	"github.com/crytic/hydrafuzz/evmtypes"
)

// SourceMapLocation is a single resolved PC -> source file/line mapping entry, consulted when
// annotating a BugReport.
type SourceMapLocation struct {
	File   string
	Line   int
	Offset int
}

// BuildArtifact carries whatever compiler build metadata (contract name, source path, raw
// sourcemap string) accompanied a contract at load time. Its shape is intentionally opaque here:
// recompilation/build-system concerns are out of scope (spec.md Non-goals).
type BuildArtifact struct {
	SourcePath string
	RawSrcMap  string
}

// Contract is the loader-time view of a single contract under test: everything the corpus
// initializer needs in order to deploy it, recover or confirm its ABI, and register it for
// seeding.
type Contract struct {
	// Name is the contract's display name, as given by the loader (e.g. a compiler artifact name
	// or, for an on-chain target, the address string itself).
	Name string

	// Code is the raw bytecode to deploy (init bytecode), or the already-deployed runtime
	// bytecode when IsCodeDeployed is true.
	Code []byte

	// ConstructorArgs is the ABI-encoded constructor argument payload appended to Code at deploy
	// time. Unused when IsCodeDeployed is true.
	ConstructorArgs []byte

	// DeployedAddress is the address the contract should be deployed to, or — once
	// initialization completes — the address it was actually deployed to.
	DeployedAddress evmtypes.Address

	// ABI is the set of callable functions known for this contract. Empty until either supplied
	// by the loader or recovered via bytecode/Heimdall analysis.
	ABI []abi.ABIConfig

	// SourceMap is this contract's resolved PC -> source-location table, if known.
	SourceMap map[int]SourceMapLocation

	// Build carries opaque build-system metadata for source-map fallback resolution.
	Build *BuildArtifact

	// IsCodeDeployed indicates the contract is already live on-chain (off-chain/on-chain target
	// mode) rather than needing a constructor run (on-disk target mode).
	IsCodeDeployed bool
}

// SetupData optionally supplies a pre-staged initial VM state/environment for the loader to seed
// the infant corpus from, instead of the executor's freshly-initialized state.
type SetupData struct {
	State interface{} // concrete *vmexec.EVMState, kept as `any` here to avoid an import cycle.
	Env   interface{} // concrete vm.Env equivalent.
}

// ContractLoader is the pluggable collaborator which discovers contracts — whether from an
// on-disk glob of compiled artifacts or from an already-deployed on-chain address — and hands
// them to the corpus initializer. Its own discovery mechanism (filesystem walking, chain RPC) is
// external to this core (spec.md §1); only the resulting Contracts/SetupData shape is specified.
type ContractLoader struct {
	Contracts []*Contract
	SetupData *SetupData
}

// NewContractLoader wraps an already-discovered contract list.
func NewContractLoader(contracts []*Contract) *ContractLoader {
	return &ContractLoader{Contracts: contracts}
}
