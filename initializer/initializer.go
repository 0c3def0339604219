// Package initializer implements the corpus initializer: the ordered setup procedure that turns a
// ContractLoader's raw contracts into deployed, ABI-recovered, classified contracts; seeds the
// main corpus with one input per callable function; and stages the resulting world as the infant
// corpus's first entry. Grounded on ityfuzz's src/evm/corpus_initializer.rs
// EVMCorpusInitializer::initialize/initialize_contract/initialize_corpus/add_abi.
package initializer

import (
	"encoding/hex"
	"math/big"
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/crytic/hydrafuzz/abi"
	"github.com/crytic/hydrafuzz/contracts"
	"github.com/crytic/hydrafuzz/evmtypes"
	"github.com/crytic/hydrafuzz/flashloan"
	"github.com/crytic/hydrafuzz/fuzzconfig"
	"github.com/crytic/hydrafuzz/fuzzinput"
	"github.com/crytic/hydrafuzz/onchain"
	"github.com/crytic/hydrafuzz/scheduler"
	"github.com/crytic/hydrafuzz/utils"
	"github.com/crytic/hydrafuzz/vmexec"
)

// skippedFunctionPrefixes and skippedFunctionNames are never seeded as fuzz inputs: invariant/
// Echidna-style check functions and the Foundry setUp/failed lifecycle hooks, exactly the
// exclusion list add_abi applies before seeding.
var skippedFunctionPrefixes = []string{"invariant_", "echidna_"}
var skippedFunctionNames = map[string]bool{"setUp": true, "failed": true}

func isSkippedFunction(name string) bool {
	if skippedFunctionNames[name] {
		return true
	}
	for _, prefix := range skippedFunctionPrefixes {
		if strings.HasPrefix(name, prefix) {
			return true
		}
	}
	return false
}

// unknownSelectorHeimdallDivisor sets the share of a contract's bytecode-extracted selectors that
// must remain unresolved against the global ABIMap before the initializer falls back to the
// Heimdall decompiler: the fallback runs when unknown*30 >= total, i.e. at least 1/30 unknown.
const unknownSelectorHeimdallDivisor = 30

// CorpusInitializer runs the full deploy/recover/classify/seed pipeline against a ContractLoader.
type CorpusInitializer struct {
	host       *vmexec.FuzzHost
	state      *vmexec.EVMState
	abiMap     *abi.ABIMap
	config     *fuzzconfig.FuzzConfig
	flashMid   *flashloan.Middleware
	heimdall   *onchain.HeimdallClient
	valueGen   abi.ValueGenerator
	inputSched scheduler.InputScheduler
	stateSched scheduler.StagedStateScheduler
	logger     zerolog.Logger

	artifacts *contracts.Artifacts
	callers   []evmtypes.Address

	// nextInputIndex is shared between the Borrow inputs enqueued during deployment and the seed
	// ABI inputs enqueued afterward, so every input handed to the scheduler gets a distinct index.
	nextInputIndex int

	// StagedStates is the infant corpus itself: every StagedVMState handed to the
	// StagedStateScheduler, indexed the same way.
	StagedStates []*vmexec.StagedVMState

	// Events exposes the lifecycle event emitters a driver or reporting layer can subscribe to.
	Events InitializerEvents
}

// New returns a CorpusInitializer wired to the given executor, flash-loan middleware, and
// schedulers. valueGen supplies the ABI value generator used to allocate each seed input's
// BoxedABI payload.
func New(host *vmexec.FuzzHost, state *vmexec.EVMState, abiMap *abi.ABIMap, config *fuzzconfig.FuzzConfig, flashMid *flashloan.Middleware, heimdall *onchain.HeimdallClient, valueGen abi.ValueGenerator, inputSched scheduler.InputScheduler, stateSched scheduler.StagedStateScheduler, logger zerolog.Logger) *CorpusInitializer {
	return &CorpusInitializer{
		host:       host,
		state:      state,
		abiMap:     abiMap,
		config:     config,
		flashMid:   flashMid,
		heimdall:   heimdall,
		valueGen:   valueGen,
		inputSched: inputSched,
		stateSched: stateSched,
		logger:     logger.With().Str("component", "initializer").Logger(),
		artifacts:  contracts.NewArtifacts(),
	}
}

// Initialize runs the full ordered setup procedure against loader and returns the resolved
// Artifacts, matching EVMCorpusInitializer::initialize's five-step call sequence.
func (c *CorpusInitializer) Initialize(loader *contracts.ContractLoader) (*contracts.Artifacts, error) {
	c.setupDefaultCallers()
	c.setupContractCallers()
	c.initCheatcodeContract()
	if err := c.deployContracts(loader); err != nil {
		return nil, errors.Wrap(err, "deploying contracts")
	}
	c.seedCorpus(loader)
	return c.artifacts, nil
}

// setupDefaultCallers funds the two synthetic EOA callers and registers them with the scheduler's
// caller pool, matching setup_default_callers.
func (c *CorpusInitializer) setupDefaultCallers() {
	for _, caller := range evmtypes.DefaultCallerAddresses {
		c.callers = append(c.callers, caller)
		c.state.SetBalance(caller, vmexec.InitialBalance)
	}
}

// setupContractCallers installs the revert-stub bytecode at the two synthetic contract-account
// callers and funds them, matching setup_contract_callers.
func (c *CorpusInitializer) setupContractCallers() {
	for _, caller := range evmtypes.ContractCallerAddresses {
		c.callers = append(c.callers, caller)
		c.host.SetCode(c.state, caller, evmtypes.RevertStubBytecode)
		c.state.SetBalance(caller, vmexec.InitialBalance)
	}
}

// initCheatcodeContract installs the same revert-stub bytecode at the well-known cheatcode
// address, matching init_cheatcode_contract.
func (c *CorpusInitializer) initCheatcodeContract() {
	c.host.SetCode(c.state, evmtypes.CheatcodeAddress, evmtypes.RevertStubBytecode)
}

// randCaller returns the fuzzer-controlled caller used for deployments and seed inputs; the
// concrete RNG-weighted choice a real scheduler would make is out of scope here, so this always
// returns the first registered caller (the first default EOA caller).
func (c *CorpusInitializer) randCaller() evmtypes.Address {
	if len(c.callers) == 0 {
		return evmtypes.Address{}
	}
	return c.callers[0]
}

// deployContracts runs contract.is_code_deployed ? set-code : deploy for every loader contract,
// then recovers/classifies its ABI, matching initialize_contract.
func (c *CorpusInitializer) deployContracts(loader *contracts.ContractLoader) error {
	c.state.SetBalance(c.randCaller(), vmexec.InitialBalance)

	for _, contract := range loader.Contracts {
		c.logger.Debug().Str("contract", contract.Name).Msg("deploying contract")

		var deployedAddr evmtypes.Address
		if !contract.IsCodeDeployed {
			initCode := append(append([]byte{}, contract.Code...), contract.ConstructorArgs...)
			addr, res, err := c.host.Deploy(c.state, c.randCaller(), initCode, big.NewInt(0))
			if err == nil && res.Err != nil {
				err = res.Err
			}
			if err != nil {
				c.logger.Error().Err(err).Str("contract", contract.Name).Msg("failed to deploy contract")
				continue
			}
			deployedAddr = addr
		} else {
			deployedAddr = contract.DeployedAddress
			c.host.SetCode(c.state, deployedAddr, contract.Code)
		}
		contract.DeployedAddress = deployedAddr

		if len(contract.ABI) == 0 {
			c.recoverABI(contract)
		}

		c.artifacts.AddressToSourceMap[deployedAddr] = contract.SourceMap
		c.artifacts.AddressToABI[deployedAddr] = contract.ABI
		c.artifacts.AddressToBytecode[deployedAddr] = evmtypes.NewBytecode(c.host.Code(c.state, deployedAddr))
		c.artifacts.AddressToName[deployedAddr] = contracts.DisplayName(contract.Name, deployedAddr)
		if contract.Build != nil {
			c.artifacts.BuildArtifacts[deployedAddr] = contract.Build
		}

		c.handleContractInsertion(deployedAddr, contract.ABI)

		_ = c.Events.ContractDeployed.Publish(ContractDeployedEvent{Address: deployedAddr, Contract: contract})
	}
	return nil
}

// recoverABI runs the three-layer ABI recovery fallback: bytecode selector extraction against the
// global ABIMap, then Heimdall decompilation when at least 1/30 of the selectors remain unknown
// (see unknownSelectorHeimdallDivisor).
func (c *CorpusInitializer) recoverABI(contract *contracts.Contract) {
	c.logger.Debug().Str("contract", contract.Name).Msg("contract has no abi, attempting recovery")

	selectors := evmtypes.ExtractSelectors(contract.Code)
	var recovered []abi.ABIConfig
	unknown := 0
	for _, sel := range selectors {
		if cfg, ok := c.abiMap.Get(sel); ok {
			recovered = append(recovered, cfg)
		} else {
			unknown++
		}
	}

	if len(selectors) > 0 && unknown*unknownSelectorHeimdallDivisor >= len(selectors) && c.heimdall != nil {
		c.logger.Debug().Str("contract", contract.Name).Msg("too many unknown selectors, decompiling with heimdall")
		decompiled, err := c.heimdall.Decompile(hex.EncodeToString(contract.Code))
		if err != nil {
			c.logger.Warn().Err(err).Str("contract", contract.Name).Msg("heimdall decompilation failed")
		} else {
			recovered = recovered[:0]
			for _, cfg := range decompiled {
				if known, ok := c.abiMap.Get(cfg.Function); ok {
					recovered = append(recovered, known)
				} else {
					recovered = append(recovered, cfg)
				}
			}
		}
	}
	contract.ABI = recovered
}

// handleContractInsertion classifies the contract via the flash-loan middleware and, when it is
// recognized as an ERC-20 or a pair, fires the corresponding enqueue/registration callback,
// matching the handle_contract_insertion! macro.
func (c *CorpusInitializer) handleContractInsertion(addr evmtypes.Address, abis []abi.ABIConfig) {
	if c.flashMid == nil {
		return
	}
	isERC20, isPair := c.flashMid.ClassifyContract(addr, abis)
	if isERC20 {
		borrow := fuzzinput.NewBorrowInput(c.randCaller(), addr)
		c.inputSched.OnAdd(c.nextInputIndex, borrow)
		c.nextInputIndex++
	}
	if isPair {
		c.registerPairReserveSlot(addr)
	}
}

// registerPairReserveSlot calls the executor's FindStaticCallReadSlot for the pair, mirroring
// on_pair_insertion. The returned slot is discarded: nothing is registered for the pair here.
func (c *CorpusInitializer) registerPairReserveSlot(pair evmtypes.Address) {
	_ = c.host.FindStaticCallReadSlot(c.state, pair)
}

// seedCorpus walks every deployed contract's recovered ABI and seeds one EVMInput per callable,
// non-constructor, non-skipped function, then stages the resulting world as the infant corpus's
// first entry, matching initialize_corpus/add_abi.
func (c *CorpusInitializer) seedCorpus(loader *contracts.ContractLoader) {
	for _, contract := range loader.Contracts {
		if c.config.IsBlacklisted(contract.DeployedAddress) {
			continue
		}
		callable := utils.SliceWhere(contract.ABI, func(cfg abi.ABIConfig) bool {
			return !cfg.IsConstructor
		})
		for _, cfg := range callable {
			if isSkippedFunction(cfg.FunctionName) {
				c.logger.Debug().Str("function", cfg.FunctionName).Msg("skipping function")
				continue
			}
			if cfg.IsStatic && !c.config.StaticFuzzing {
				continue
			}

			boxed, err := abi.NewBoxedABI(cfg.TypeString, c.valueGen)
			if err != nil {
				c.logger.Warn().Err(err).Str("function", cfg.FunctionName).Msg("failed to parse arg types")
				continue
			}
			boxed.SetFuncWithSignature(cfg.Function, cfg.FunctionName, cfg.TypeString)

			c.artifacts.AddressToABIObjects[contract.DeployedAddress] = append(
				c.artifacts.AddressToABIObjects[contract.DeployedAddress], boxed)

			input := fuzzinput.NewSeedABIInput(c.randCaller(), contract.DeployedAddress, cfg, boxed)
			c.inputSched.OnAdd(c.nextInputIndex, input)
			c.nextInputIndex++
		}
	}

	stagedState := c.state
	if loader.SetupData != nil {
		if s, ok := loader.SetupData.State.(*vmexec.EVMState); ok && s != nil {
			stagedState = s
		}
	}
	staged := vmexec.NewStagedVMState(stagedState)
	c.StagedStates = append(c.StagedStates, staged)
	c.stateSched.OnAdd(len(c.StagedStates) - 1)

	_ = c.Events.CorpusInitialized.Publish(CorpusInitializedEvent{SeedInputCount: c.nextInputIndex, Artifacts: c.artifacts})
}
