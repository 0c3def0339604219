package cmd

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math/big"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/crytic/hydrafuzz/abi"
	"github.com/crytic/hydrafuzz/cmd/exitcodes"
	"github.com/crytic/hydrafuzz/contracts"
	"github.com/crytic/hydrafuzz/evmtypes"
	"github.com/crytic/hydrafuzz/flashloan"
	"github.com/crytic/hydrafuzz/fuzzconfig"
	"github.com/crytic/hydrafuzz/fuzzinput"
	"github.com/crytic/hydrafuzz/initializer"
	"github.com/crytic/hydrafuzz/onchain"
	"github.com/crytic/hydrafuzz/oracle"
	"github.com/crytic/hydrafuzz/scheduler"
	"github.com/crytic/hydrafuzz/vmexec"
)

// fuzzCmd represents the command provider for fuzzing. It is intentionally thin: the concrete
// scheduler RNG and the real contract-discovery mechanism are out of scope, so this command only
// wires a ContractLoader through the corpus initializer and drives the scheduler-selected inputs
// against the oracle runner.
var fuzzCmd = &cobra.Command{
	Use:           "fuzz",
	Short:         "Starts a fuzzing campaign",
	Long:          `Starts a flash-loan economic-exploit fuzzing campaign against a set of deployed contracts`,
	Args:          cobra.NoArgs,
	RunE:          cmdRunFuzz,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	fuzzCmd.Flags().String("contracts", "", "path to a JSON file describing the contracts to fuzz (required)")
	fuzzCmd.Flags().String("network", "local", "pegged-token network for on-chain path discovery (eth, bsc, polygon, local)")
	fuzzCmd.Flags().String("heimdall", "", "Heimdall decompiler endpoint, used when bytecode ABI recovery leaves too many selectors unknown")
	fuzzCmd.Flags().Int64("seed", 0, "seed for the ABI value generator")
	fuzzCmd.Flags().Bool("static", false, "also seed view/pure functions")
	fuzzCmd.Flags().Int("txns", 1000, "number of scheduled inputs to execute before reporting")

	if err := fuzzCmd.MarkFlagRequired("contracts"); err != nil {
		cmdLogger.Panic("failed to initialize the fuzz command", err)
	}

	rootCmd.AddCommand(fuzzCmd)
}

// contractSpec is the on-disk shape of a single contract entry in the --contracts file. ABI
// recovery (bytecode selector extraction, Heimdall fallback) happens inside the corpus
// initializer, so a spec only needs to describe what to deploy or attach to, not its ABI.
type contractSpec struct {
	Name            string `json:"name"`
	Code            string `json:"code"`
	ConstructorArgs string `json:"constructorArgs"`
	DeployedAddress string `json:"deployedAddress"`
	IsCodeDeployed  bool   `json:"isCodeDeployed"`
}

// loadContractsFile reads a --contracts JSON file into a contracts.ContractLoader. This is the
// concrete, JSON-based discovery mechanism the CLI layer supplies; the corpus initializer itself
// is agnostic to how contracts were discovered.
func loadContractsFile(path string) (*contracts.ContractLoader, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading contracts file: %w", err)
	}

	var specs []contractSpec
	if err := json.Unmarshal(raw, &specs); err != nil {
		return nil, fmt.Errorf("parsing contracts file: %w", err)
	}

	loaded := make([]*contracts.Contract, 0, len(specs))
	for _, spec := range specs {
		code, err := hex.DecodeString(trimHexPrefix(spec.Code))
		if err != nil {
			return nil, fmt.Errorf("decoding code for contract %q: %w", spec.Name, err)
		}

		if !spec.IsCodeDeployed && spec.ConstructorArgs != "" {
			args, err := hex.DecodeString(trimHexPrefix(spec.ConstructorArgs))
			if err != nil {
				return nil, fmt.Errorf("decoding constructor args for contract %q: %w", spec.Name, err)
			}
			code = append(code, args...)
		}

		contract := &contracts.Contract{
			Name:           spec.Name,
			Code:           code,
			IsCodeDeployed: spec.IsCodeDeployed,
		}
		if spec.DeployedAddress != "" {
			contract.DeployedAddress = evmtypes.FixedAddress(spec.DeployedAddress)
		}
		loaded = append(loaded, contract)
	}

	return contracts.NewContractLoader(loaded), nil
}

func trimHexPrefix(s string) string {
	if len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		return s[2:]
	}
	return s
}

// recordingInputScheduler decorates a scheduler.InputScheduler so the driver loop can look up the
// actual *fuzzinput.EVMInput behind an index the scheduler hands back, since the scheduler
// interface itself only threads indices through (its real coverage-weighted selection policy is
// out of scope, see scheduler.InputScheduler).
type recordingInputScheduler struct {
	scheduler.InputScheduler
	inputs map[int]*fuzzinput.EVMInput
}

func newRecordingInputScheduler(inner scheduler.InputScheduler) *recordingInputScheduler {
	return &recordingInputScheduler{InputScheduler: inner, inputs: make(map[int]*fuzzinput.EVMInput)}
}

func (s *recordingInputScheduler) OnAdd(index int, input *fuzzinput.EVMInput) {
	s.inputs[index] = input
	s.InputScheduler.OnAdd(index, input)
}

// cmdRunFuzz wires vmexec/abi/flashloan/onchain/oracle/scheduler into a CorpusInitializer, then
// repeatedly pops a scheduled input and staged state, executes the input, and evaluates every
// registered oracle against the result.
func cmdRunFuzz(cmd *cobra.Command, args []string) error {
	contractsPath, _ := cmd.Flags().GetString("contracts")
	network, _ := cmd.Flags().GetString("network")
	heimdallEndpoint, _ := cmd.Flags().GetString("heimdall")
	seed, _ := cmd.Flags().GetInt64("seed")
	static, _ := cmd.Flags().GetBool("static")
	txnCount, _ := cmd.Flags().GetInt("txns")

	loader, err := loadContractsFile(contractsPath)
	if err != nil {
		cmdLogger.Error("failed to load contracts", err)
		return err
	}

	chain := vmexec.NewMiddlewareChain()
	host := vmexec.NewFuzzHost(chain)
	state := vmexec.NewEVMState()
	abiMap := abi.NewABIMap()
	valueGen := abi.NewRandomValueGenerator(seed)

	config := fuzzconfig.NewFuzzConfig(network)
	config.StaticFuzzing = static
	config.HeimdallEndpoint = heimdallEndpoint

	var heimdall *onchain.HeimdallClient
	if heimdallEndpoint != "" {
		heimdall = onchain.NewHeimdallClient(heimdallEndpoint)
	}

	callers := make(map[evmtypes.Address]bool, len(evmtypes.DefaultCallerAddresses)+len(evmtypes.ContractCallerAddresses))
	for _, c := range evmtypes.DefaultCallerAddresses {
		callers[c] = true
	}
	for _, c := range evmtypes.ContractCallerAddresses {
		callers[c] = true
	}
	flashMid := flashloan.NewMiddleware(flashloan.DummyPriceOracle{}, callers)
	chain.Register(flashMid)

	inputSched := newRecordingInputScheduler(scheduler.NewRoundRobinInputScheduler())
	stateSched := scheduler.NewRoundRobinStagedStateScheduler()

	corpusInit := initializer.New(host, state, abiMap, config, flashMid, heimdall, valueGen, inputSched, stateSched, cmdLogger.Zerolog())

	corpusInit.Events.ContractDeployed.Subscribe(func(e initializer.ContractDeployedEvent) error {
		cmdLogger.Info(fmt.Sprintf("deployed %s at %s", e.Contract.Name, e.Address.Hex()))
		return nil
	})

	artifacts, err := corpusInit.Initialize(loader)
	if err != nil {
		cmdLogger.Error("failed to initialize corpus", err)
		return exitcodes.NewErrorWithExitCode(err, exitcodes.ExitCodeFuzzerError)
	}

	typedBugOracle := oracle.NewTypedBugOracle(artifacts)
	runner := oracle.NewRunner(typedBugOracle)

	oracle.Events.BugDetected.Subscribe(func(e oracle.BugDetectedEvent) error {
		cmdLogger.Warn(fmt.Sprintf("bug detected: %s", e.Report.String()))
		return nil
	})

	// Stop the campaign early on an interrupt, reporting whatever was found so far.
	interrupted := make(chan os.Signal, 1)
	signal.Notify(interrupted, os.Interrupt)
	stop := false
	go func() {
		<-interrupted
		stop = true
	}()

	for i := 0; i < txnCount && !stop; i++ {
		inputIdx, ok := inputSched.Next()
		if !ok {
			break
		}
		input, ok := inputSched.inputs[inputIdx]
		if !ok {
			continue
		}

		stateIdx, ok := stateSched.Next()
		if !ok || stateIdx >= len(corpusInit.StagedStates) {
			break
		}
		preState := corpusInit.StagedStates[stateIdx]
		postState := preState.Fork(inputIdx)

		flashMid.AnalyzeCall(input.Contract, input.TxnValue, postState.State.Flashloan)

		txnValue := big.NewInt(0)
		if input.TxnValue != nil {
			txnValue = input.TxnValue.ToBig()
		}

		calldata := input.DirectData
		if input.Data != nil {
			packed, err := input.Data.Pack()
			if err != nil {
				cmdLogger.Warn(fmt.Sprintf("failed to pack input %d: %v", inputIdx, err))
				continue
			}
			calldata = packed
		}

		result, err := host.Call(postState.State, input.Caller, input.Contract, calldata, txnValue)
		if err != nil {
			cmdLogger.Debug(fmt.Sprintf("input %d reverted: %v", inputIdx, err))
		}

		bugs := runner.Run(&oracle.Ctx{
			PreState:  preState,
			PostState: postState,
			Input:     input,
			Result:    result,
			Artifacts: artifacts,
		})
		if len(bugs) > 0 {
			corpusInit.StagedStates = append(corpusInit.StagedStates, postState)
			stateSched.OnAdd(len(corpusInit.StagedStates) - 1)
		}
	}

	reports := oracle.Reports()
	cmdLogger.Info(fmt.Sprintf("fuzzing campaign finished: %d bug report(s)", len(reports)))
	for _, r := range reports {
		fmt.Println(r.String())
	}

	if len(reports) > 0 {
		return exitcodes.NewErrorWithExitCode(fmt.Errorf("%d bug(s) found", len(reports)), exitcodes.ExitCodeTestFailed)
	}
	return nil
}
