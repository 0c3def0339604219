// Package onchain implements the two ways a deployed ERC-20's Uniswap-style swap path into a
// pegged asset can be discovered: an off-chain cache that self-executes standard V2 selectors
// against already-loaded bytecode (OffChainConfig), and an on-chain collaborator interface for a
// live chain endpoint (ChainConfig) that the path-discovery DFS in uniswap.go is written against
// regardless of which backs it. Grounded on ityfuzz's src/evm/tokens/uniswap.rs and
// src/evm/onchain/endpoints.rs.
package onchain

// PairData is one hop of a discovered swap path: which DEX it came from, the pair/next-token
// addresses, which side of the pair the input token sits on, and (once reserve info is attached)
// the raw reserves and the computed fixed-point exchange rate for a terminal "pegged" hop.
// Grounded on ityfuzz's PairData struct (src/evm/onchain/endpoints.rs).
type PairData struct {
	// Src identifies how this hop was derived: "v2" for a normal Uniswap-V2 pair hop, "pegged"
	// for a terminal hop into a known pegged asset via a real pair, "pegged_weth" for the
	// trivial 1:1 terminal hop when the token already is the chain's wrapped native asset.
	Src string

	// Rate is the fixed-point (scaled by 1e6) exchange rate for a "pegged"/"pegged_weth" hop;
	// zero for ordinary "v2" hops (their rate is implied by live reserves, not fixed here).
	Rate uint32

	// In is which side (0 or 1) of the pair the input token occupies.
	In uint8

	// Next is the token address reached by swapping through this hop.
	Next string

	// Pair is the pair/pool contract address for this hop.
	Pair string

	// InitialReserve0/InitialReserve1 are the reserve amounts observed when this hop was
	// discovered, as big-endian hex strings (matching the source format).
	InitialReserve0 string
	InitialReserve1 string

	// SrcExact names the exact DEX variant (e.g. "UniswapV2", "SushiSwap") this hop came from.
	SrcExact string

	// Decimals0/Decimals1 are the two tokens' decimal places, used by the reserve-significance
	// check to decide whether a pair has enough liquidity to be worth routing through.
	Decimals0 uint8
	Decimals1 uint8
}

// ChainConfig is the live-chain collaborator the on-chain path-discovery DFS is written against:
// whatever backs it must answer these two questions about a token/pair. OffChainConfig, the only
// implementation in this module, answers them entirely from already-loaded bytecode; no
// RPC-backed implementation exists here.
type ChainConfig interface {
	// GetPair returns every known pair hop for `token` on `network`, optionally biased toward
	// pegged-asset destinations when `isPegged` is set.
	GetPair(token string, network string, isPegged bool, weth string) []PairData

	// FetchReserve returns (reserve0Hex, reserve1Hex) for the given pair address, as big-endian
	// hex strings.
	FetchReserve(pair string) (string, string)
}
