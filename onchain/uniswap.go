package onchain

import (
	"math"
	"math/big"
	"strings"

	"github.com/crytic/hydrafuzz/evmtypes"
)

// MaxHops bounds the BFS/DFS token-pair graph walk, matching ityfuzz's MAX_HOPS constant: beyond
// this many hops a candidate route is abandoned rather than followed further.
const MaxHops = 2

// PairContext is one resolved hop in a discovered swap path: the pair address, which token the
// hop leads to, which side of the pair the input sits on, and the reserves observed when the hop
// was discovered. Grounded on ityfuzz's PairContext (src/evm/tokens/mod.rs, referenced but not
// retained in the example pack; reconstructed from its field usage in uniswap.rs).
type PairContext struct {
	PairAddress     evmtypes.Address
	NextHop         evmtypes.Address
	Side            uint8
	DexName         string
	InitialReserve0 *evmtypes.U256
	InitialReserve1 *evmtypes.U256
}

// PathContext is one full candidate route from a token to a pegged asset: a sequence of ordinary
// "v2" hops, followed by a fixed-point terminal conversion rate into the pegged asset (and, when
// that terminal hop is a real pair rather than a 1:1 WETH identity, the pair itself).
type PathContext struct {
	Route             []*PairContext
	FinalPeggedRatio  uint32
	FinalPeggedPair   *PairContext
}

// TokenContext is the fully resolved swap-path record the flash-loan oracle registers for a
// classified ERC-20: every discovered route to a pegged asset, plus whether the token already is
// the chain's wrapped native asset.
type TokenContext struct {
	Swaps       []PathContext
	IsWeth      bool
	WethAddress evmtypes.Address
	Address     evmtypes.Address
}

// peggedTokens lists, per network, the well-known stablecoin/wrapped-native addresses path
// discovery treats as terminal — exactly ityfuzz's getPeggedToken table.
var peggedTokens = map[string]map[string]string{
	"eth": {
		"WETH":   "0xc02aaa39b223fe8d0a0e5c4f27ead9083c756cc2",
		"USDC":   "0xa0b86991c6218b36c1d19d4a2e9eb0ce3606eb48",
		"USDT":   "0xdac17f958d2ee523a2206206994597c13d831ec7",
		"DAI":    "0x6b175474e89094c44da98b954eedeac495271d0f",
		"WBTC":   "0x2260fac5e5542a773aa44fbcfedf7c193bc2c599",
		"WMATIC": "0x7d1afa7b718fb893db30a3abc0cfc608aacfebb0",
	},
	"bsc": {
		"WBNB": "0xbb4cdb9cbd36b01bd1cbaebf2de08d9173bc095c",
		"USDC": "0x8ac76a51cc950d9822d68b83fe1ad97b32cd580d",
		"USDT": "0x55d398326f99059ff775485246999027b3197955",
		"DAI":  "0x1af3f329e8be154074d8769d1ffa4ee058b1dbc3",
		"WBTC": "0x7130d2a12b9bcbfae4f2634d864a1ee1ce3ead9c",
		"WETH": "0x2170ed0880ac9a755fd29b2688956bd959f933f8",
		"BUSD": "0xe9e7cea3dedca5984780bafc599bd69add087d56",
		"CAKE": "0x0e09fabb73bd3ade0a17ecc321fd13a19e81ce82",
	},
	"polygon": {
		"WMATIC": "0x0d500b1d8e8ef31e21c99d1db9a6444d3adf1270",
		"USDC":   "0x2791bca1f2de4661ed88a30c99a7a9449aa84174",
		"USDT":   "0xc2132d05d31c914a87c6611c10748aeb04b58e8f",
		"DAI":    "0x8f3cf7ad23cd3cadbd9735aff958023239c6a063",
		"WBTC":   "0x1bfd67037b42cf73acf2047067bd4f2c47d9bfd6",
		"WETH":   "0x7ceb23fd6bc0add59e62ac25578270cff1b9f619",
	},
	"local": {
		"ZERO": "0x0000000000000000000000000000000000000000",
	},
}

// GetPeggedToken returns the network's pegged-token name-to-address table.
func GetPeggedToken(network string) map[string]string {
	return peggedTokens[network]
}

// GetWeth returns the network's wrapped-native-asset address, matching ityfuzz's get_weth: eth
// uses WETH, bsc uses WBNB, polygon uses WMATIC, a local/dev network uses the zero address.
func GetWeth(network string) string {
	table := GetPeggedToken(network)
	switch network {
	case "eth":
		return table["WETH"]
	case "bsc":
		return table["WBNB"]
	case "polygon":
		return table["WMATIC"]
	case "local":
		return table["ZERO"]
	default:
		return ""
	}
}

func isPeggedAddress(network, addr string) bool {
	addr = strings.ToLower(addr)
	for _, v := range GetPeggedToken(network) {
		if strings.ToLower(v) == addr {
			return true
		}
	}
	return false
}

// PathDiscoverer runs the token-pair graph walk (BFS collection up to MaxHops, then DFS emission
// of every root-to-pegged-asset route) against a ChainConfig, matching ityfuzz's
// find_path_subgraph/get_all_hops/dfs trio.
type PathDiscoverer struct {
	chain   ChainConfig
	network string
}

// NewPathDiscoverer returns a PathDiscoverer for the given network, backed by chain (either an
// OffChainConfig or a live-endpoint ChainConfig implementation).
func NewPathDiscoverer(chain ChainConfig, network string) *PathDiscoverer {
	return &PathDiscoverer{chain: chain, network: network}
}

func (d *PathDiscoverer) getPair(token string, isPegged bool) []PairData {
	token = strings.ToLower(token)
	weth := GetWeth(d.network)
	if token == strings.ToLower(weth) {
		return nil
	}
	pegged := isPegged || isPeggedAddress(d.network, token)
	pairs := d.chain.GetPair(token, d.network, pegged, weth)
	if len(pairs) > 10 {
		filtered := pairs[:0]
		for _, p := range pairs {
			if isPeggedAddress(d.network, p.Next) {
				filtered = append(filtered, p)
			}
		}
		pairs = filtered
	}
	return pairs
}

func (d *PathDiscoverer) getAllHops(token string, hop int, known map[string]bool) map[string][]PairData {
	known[token] = true
	hops := make(map[string][]PairData)
	if hop > MaxHops {
		return hops
	}
	hops[token] = d.getPair(token, false)
	for _, p := range hops[token] {
		if isPeggedAddress(d.network, p.Next) || known[p.Next] {
			continue
		}
		for k, v := range d.getAllHops(p.Next, hop+1, known) {
			hops[k] = v
		}
	}
	return hops
}

// addReserveInfo attaches live reserve data to a hop and reports whether the pair carries
// significant liquidity, directly mirroring ityfuzz's add_reserve_info: a "pegged_weth" hop is
// always significant (there is no real pair to check), otherwise both reserves must exceed
// 10^(decimals-1).
func (d *PathDiscoverer) addReserveInfo(pair *PairData) bool {
	if pair.Src == "pegged_weth" {
		return true
	}
	r0hex, r1hex := d.chain.FetchReserve(pair.Pair)
	pair.InitialReserve0 = r0hex
	pair.InitialReserve1 = r1hex

	r0 := parseHexReserve(r0hex)
	r1 := parseHexReserve(r1hex)

	minR0 := minSignificantReserve(pair.Decimals0)
	minR1 := minSignificantReserve(pair.Decimals1)
	return r0.Cmp(minR0) > 0 && r1.Cmp(minR1) > 0
}

func parseHexReserve(hexStr string) *evmtypes.U256 {
	v := new(evmtypes.U256)
	if hexStr == "" {
		return v
	}
	hexStr = strings.TrimPrefix(hexStr, "0x")
	if hexStr == "" {
		return v
	}
	if parsed, err := v.SetFromHex("0x" + hexStr); err == nil {
		return parsed
	}
	return v
}

func minSignificantReserve(decimals uint8) *evmtypes.U256 {
	if decimals == 0 {
		return new(evmtypes.U256)
	}
	v := evmtypes.NewU256(10)
	return v.Exp(v, evmtypes.NewU256(uint64(decimals-1)))
}

// getPeggedNextHop resolves the terminal conversion into a pegged asset: a trivial 1:1 rate when
// the token already is the chain's WETH, otherwise the live reserve ratio against whichever pair
// the chain reports first, scaled by 1e6 and rounded, matching ityfuzz's get_pegged_next_hop.
func (d *PathDiscoverer) getPeggedNextHop(token string) PairData {
	weth := GetWeth(d.network)
	if strings.EqualFold(token, weth) {
		return PairData{Src: "pegged_weth", Rate: 1_000_000}
	}

	candidates := d.getPair(token, true)
	if len(candidates) == 0 {
		return PairData{Src: "pegged_weth", Rate: 1_000_000}
	}
	peg := candidates[0]
	d.addReserveInfo(&peg)

	p0 := parseHexReserve(peg.InitialReserve0)
	p1 := parseHexReserve(peg.InitialReserve1)
	p0f, _ := new(big.Float).SetInt(p0.ToBig()).Float64()
	p1f, _ := new(big.Float).SetInt(p1.ToBig()).Float64()

	if peg.In == 0 {
		peg.Rate = uint32(math.Round(p1f / p0f * 1_000_000.0))
	} else {
		peg.Rate = uint32(math.Round(p0f / p1f * 1_000_000.0))
	}
	peg.Src = "pegged"
	return peg
}

func (d *PathDiscoverer) dfs(token string, path []PairData, visited map[string]bool, hops map[string][]PairData, routes *[][]PairData) {
	if isPeggedAddress(d.network, token) {
		newPath := append(append([]PairData{}, path...), d.getPeggedNextHop(token))
		*routes = append(*routes, newPath)
		return
	}
	visited[token] = true
	hopList, ok := hops[token]
	if !ok {
		return
	}
	for _, hop := range hopList {
		if visited[hop.Next] {
			continue
		}
		d.dfs(hop.Next, append(path, hop), visited, hops, routes)
	}
}

// FindSwapPaths returns every discovered pegged-asset route for token, after dropping routes that
// cross a low-liquidity hop, matching ityfuzz's find_path_subgraph's final filter pass.
func (d *PathDiscoverer) FindSwapPaths(token string) []PathContext {
	if isPeggedAddress(d.network, token) {
		hop := d.getPeggedNextHop(token)
		return []PathContext{pairDataRouteToPathContext([]PairData{hop})}
	}

	known := make(map[string]bool)
	hops := d.getAllHops(token, 0, known)

	var routes [][]PairData
	d.dfs(token, nil, make(map[string]bool), hops, &routes)

	var significant [][]PairData
	for _, route := range routes {
		ok := true
		for i := range route {
			if !d.addReserveInfo(&route[i]) {
				ok = false
			}
		}
		if ok {
			significant = append(significant, route)
		}
	}

	paths := make([]PathContext, 0, len(significant))
	for _, route := range significant {
		paths = append(paths, pairDataRouteToPathContext(route))
	}
	return paths
}

func pairDataRouteToPathContext(route []PairData) PathContext {
	var ctx PathContext
	for _, hop := range route {
		switch hop.Src {
		case "v2":
			ctx.Route = append(ctx.Route, pairDataToContext(hop))
		case "pegged":
			ctx.FinalPeggedRatio = hop.Rate
			pc := pairDataToContext(hop)
			ctx.FinalPeggedPair = pc
		case "pegged_weth":
			ctx.FinalPeggedRatio = hop.Rate
			ctx.FinalPeggedPair = nil
		}
	}
	return ctx
}

func pairDataToContext(hop PairData) *PairContext {
	return &PairContext{
		PairAddress:     evmtypes.FixedAddress(hop.Pair),
		NextHop:         evmtypes.FixedAddress(hop.Next),
		Side:            hop.In,
		DexName:         hop.SrcExact,
		InitialReserve0: parseHexReserve(hop.InitialReserve0),
		InitialReserve1: parseHexReserve(hop.InitialReserve1),
	}
}

// FetchTokenContext resolves a full TokenContext for token: its discovered swap paths plus
// whether it already is the chain's wrapped native asset, matching ityfuzz's fetch_uniswap_path.
func (d *PathDiscoverer) FetchTokenContext(token evmtypes.Address) TokenContext {
	tokenHex := strings.ToLower(token.String())
	weth := GetWeth(d.network)
	return TokenContext{
		Swaps:       d.FindSwapPaths(tokenHex),
		IsWeth:      strings.EqualFold(tokenHex, weth),
		WethAddress: evmtypes.FixedAddress(weth),
		Address:     token,
	}
}
