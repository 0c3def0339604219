// Package fuzzconfig holds the explicit configuration struct threaded through the corpus
// initializer, replacing the global BLACKLIST_ADDR the original implementation relies on (spec.md
// §9's first Open Question — resolved in favor of an explicit, caller-supplied struct rather than
// a package-level mutable global, matching medusa's own fuzzconfig.FuzzConfig pattern of
// constructing the fuzzer from a fully-populated config value).
package fuzzconfig

import "github.com/crytic/hydrafuzz/evmtypes"

// FuzzConfig is every run-level option the corpus initializer needs, collected into one value
// instead of scattered package globals.
type FuzzConfig struct {
	// BlacklistAddresses lists addresses the initializer must never seed transactions against —
	// the replacement for the original's global BLACKLIST_ADDR constant.
	BlacklistAddresses map[evmtypes.Address]bool

	// Network selects the pegged-token table used by on-chain path discovery ("eth", "bsc",
	// "polygon", or "local" for a target with no real chain analogue).
	Network string

	// UsePresets enables loading previously-captured seed inputs for known contract ABIs rather
	// than generating every seed from scratch. Off-scope in this core's concrete loader (no
	// concrete preset store is implemented), kept as a plain flag so the initializer's control
	// flow matches the original's shape.
	UsePresets bool

	// StaticFuzzing, when true, also seeds Static (view/pure) ABI functions; when false they are
	// skipped and only functions that can mutate state are seeded.
	StaticFuzzing bool

	// HeimdallEndpoint is the Heimdall decompiler service URL consulted when bytecode-level
	// selector recovery leaves too many selectors unresolved. Empty disables the fallback.
	HeimdallEndpoint string
}

// NewFuzzConfig returns a FuzzConfig with an empty blacklist and the given network.
func NewFuzzConfig(network string) *FuzzConfig {
	return &FuzzConfig{
		BlacklistAddresses: make(map[evmtypes.Address]bool),
		Network:            network,
	}
}

// IsBlacklisted reports whether addr must be excluded from seeding.
func (c *FuzzConfig) IsBlacklisted(addr evmtypes.Address) bool {
	return c.BlacklistAddresses[addr]
}
