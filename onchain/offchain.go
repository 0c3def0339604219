package onchain

import (
	"strings"

	"github.com/crytic/hydrafuzz/evmtypes"
	"github.com/crytic/hydrafuzz/vmexec"
)

// Selector bytes for the fixed set of standard Uniswap-V2 ABI calls the off-chain cache
// self-executes. Matching the original's reserve-slot static-call selector (0x0902f1ac) plus the
// ERC-20/pair surface this core already classifies contracts by.
var (
	selectorToken0      = [4]byte{0x0d, 0xfe, 0x16, 0x81}
	selectorToken1      = [4]byte{0xd2, 0x12, 0x20, 0xa7}
	selectorDecimals    = [4]byte{0x31, 0x3c, 0xe5, 0x67}
	selectorGetReserves = [4]byte{0x09, 0x02, 0xf1, 0xac}
	selectorBalanceOf   = [4]byte{0x70, 0xa0, 0x82, 0x31}
)

// OffChainConfig derives a ChainConfig entirely from already-deployed bytecode, by self-executing
// the standard V2 pair/token selectors as static calls against the executor rather than querying
// any live chain. This is the core's answer to the original's "no subgraph/RPC available" case:
// since every contract under test is already loaded into EVMState, token0/token1/decimals/
// getReserves/balanceOf can all be answered locally (spec.md §4.3).
type OffChainConfig struct {
	host  *vmexec.FuzzHost
	state *vmexec.EVMState

	// knownPairs is every address the corpus initializer has already classified as a
	// Uniswap-V2-style pair, the search space GetPair filters against.
	knownPairs []evmtypes.Address

	pairCache    map[string][]PairData
	reservesCache map[evmtypes.Address][2]*evmtypes.U256
	balanceCache  map[[2]evmtypes.Address]*evmtypes.U256
}

// NewOffChainConfig returns an OffChainConfig driving static calls through host against state,
// searching only the given set of addresses already classified as pairs.
func NewOffChainConfig(host *vmexec.FuzzHost, state *vmexec.EVMState, knownPairs []evmtypes.Address) *OffChainConfig {
	return &OffChainConfig{
		host:          host,
		state:         state,
		knownPairs:    knownPairs,
		pairCache:     make(map[string][]PairData),
		reservesCache: make(map[evmtypes.Address][2]*evmtypes.U256),
		balanceCache:  make(map[[2]evmtypes.Address]*evmtypes.U256),
	}
}

func (c *OffChainConfig) staticCall(caller, target evmtypes.Address, selector [4]byte) ([]byte, error) {
	return c.host.StaticCall(c.state, caller, target, selector[:])
}

func (c *OffChainConfig) staticCallData(caller, target evmtypes.Address, calldata []byte) ([]byte, error) {
	return c.host.StaticCall(c.state, caller, target, calldata)
}

func (c *OffChainConfig) token0(pair evmtypes.Address) (evmtypes.Address, bool) {
	ret, err := c.staticCall(evmtypes.Address{}, pair, selectorToken0)
	if err != nil || len(ret) < 32 {
		return evmtypes.Address{}, false
	}
	return evmtypes.Address(ret[12:32]), true
}

func (c *OffChainConfig) token1(pair evmtypes.Address) (evmtypes.Address, bool) {
	ret, err := c.staticCall(evmtypes.Address{}, pair, selectorToken1)
	if err != nil || len(ret) < 32 {
		return evmtypes.Address{}, false
	}
	return evmtypes.Address(ret[12:32]), true
}

func (c *OffChainConfig) decimals(token evmtypes.Address) uint8 {
	ret, err := c.staticCall(evmtypes.Address{}, token, selectorDecimals)
	if err != nil || len(ret) < 32 {
		return 18
	}
	return ret[31]
}

// reserves self-executes getReserves() and returns (reserve0, reserve1) as hex strings, caching
// per-pair so repeated lookups across a route discovery pass don't re-run the call.
func (c *OffChainConfig) reserves(pair evmtypes.Address) (string, string) {
	if cached, ok := c.reservesCache[pair]; ok {
		return cached[0].Hex(), cached[1].Hex()
	}
	ret, err := c.staticCall(evmtypes.Address{}, pair, selectorGetReserves)
	if err != nil || len(ret) < 64 {
		return "0x0", "0x0"
	}
	r0 := new(evmtypes.U256).SetBytes(ret[0:32])
	r1 := new(evmtypes.U256).SetBytes(ret[32:64])
	c.reservesCache[pair] = [2]*evmtypes.U256{r0, r1}
	return r0.Hex(), r1.Hex()
}

// GetPair implements ChainConfig.GetPair by scanning every known pair for one whose token0/token1
// matches the requested token, returning a single "v2" hop per match (the off-chain derivation has
// no subgraph to enumerate candidate pairs from, so it can only confirm pairs already discovered
// during contract insertion — spec.md §4.3's "derive entirely off-chain" constraint).
func (c *OffChainConfig) GetPair(token string, network string, isPegged bool, weth string) []PairData {
	key := strings.ToLower(token)
	if cached, ok := c.pairCache[key]; ok {
		return cached
	}

	var results []PairData
	for _, pair := range c.knownPairs {
		t0, ok0 := c.token0(pair)
		t1, ok1 := c.token1(pair)
		if !ok0 || !ok1 {
			continue
		}
		var side uint8
		var next evmtypes.Address
		switch {
		case strings.EqualFold(t0.String(), token):
			side, next = 0, t1
		case strings.EqualFold(t1.String(), token):
			side, next = 1, t0
		default:
			continue
		}
		r0, r1 := c.reserves(pair)
		results = append(results, PairData{
			Src:             "v2",
			In:              side,
			Next:            next.String(),
			Pair:            pair.String(),
			InitialReserve0: r0,
			InitialReserve1: r1,
			SrcExact:        "UniswapV2",
			Decimals0:       c.decimals(t0),
			Decimals1:       c.decimals(t1),
		})
	}
	c.pairCache[key] = results
	return results
}

// FetchReserve implements ChainConfig.FetchReserve by re-running the cached/self-executed
// getReserves() static call for the given pair address string.
func (c *OffChainConfig) FetchReserve(pair string) (string, string) {
	return c.reserves(evmtypes.FixedAddress(pair))
}

// BalanceOf self-executes balanceOf(address) against token for owner, reporting how much of a
// classified ERC-20 that account holds.
func (c *OffChainConfig) BalanceOf(token, owner evmtypes.Address) *evmtypes.U256 {
	key := [2]evmtypes.Address{token, owner}
	if cached, ok := c.balanceCache[key]; ok {
		return cached
	}
	calldata := append(append([]byte{}, selectorBalanceOf[:]...), make([]byte, 12)...)
	calldata = append(calldata, owner.Bytes()...)
	ret, err := c.staticCallData(evmtypes.Address{}, token, calldata)
	if err != nil || len(ret) < 32 {
		return new(evmtypes.U256)
	}
	bal := new(evmtypes.U256).SetBytes(ret[:32])
	c.balanceCache[key] = bal
	return bal
}
