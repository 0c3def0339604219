// Package abi provides the signature-to-ABI map and the boxed, mutable ABI value used as a fuzz
// input's payload. It builds on medusa-geth's accounts/abi package for the ABI type system, the
// same dependency medusa itself uses for ABI value generation (see
// fuzzing/valuegeneration/abi_values.go in the example corpus).
package abi

import (
	"fmt"
	"strings"

	gethabi "github.com/crytic/medusa-geth/accounts/abi"
	"golang.org/x/exp/slices"
)

// ABIConfig describes one callable function recovered either from a compiled build artifact or
// from bytecode-level selector recovery.
type ABIConfig struct {
	// Function is the 4-byte selector.
	Function [4]byte

	// FunctionName is the human-readable function name (e.g. "transfer").
	FunctionName string

	// TypeString is the canonical Solidity ABI type string used to re-derive the argument types,
	// e.g. "function transfer(address,uint256)".
	TypeString string

	// IsConstructor indicates this ABI entry describes the contract's constructor.
	IsConstructor bool

	// IsStatic indicates the function is view/pure and does not mutate state.
	IsStatic bool

	// IsPayable indicates the function accepts ETH value.
	IsPayable bool
}

// ABIMap is a global mapping from 4-byte selector to the ABIConfig that defines it. A selector
// maps to at most one ABIConfig at a time; re-inserting a selector overwrites the previous entry
// (last write wins), matching spec.md's invariant that `ABIMap` is "globally unique per selector".
type ABIMap struct {
	signatureToABI map[[4]byte]ABIConfig
}

// NewABIMap returns an empty ABIMap.
func NewABIMap() *ABIMap {
	return &ABIMap{signatureToABI: make(map[[4]byte]ABIConfig)}
}

// Insert registers (or overwrites) the ABIConfig for its selector.
func (m *ABIMap) Insert(cfg ABIConfig) {
	m.signatureToABI[cfg.Function] = cfg
}

// Get looks up the ABIConfig registered for a selector, if any.
func (m *ABIMap) Get(selector [4]byte) (ABIConfig, bool) {
	cfg, ok := m.signatureToABI[selector]
	return cfg, ok
}

// Len reports how many selectors are currently registered.
func (m *ABIMap) Len() int {
	return len(m.signatureToABI)
}

// erc20RequiredNames and pairRequiredNames are the canonical name sets used to recognize ERC-20 tokens
// and Uniswap-V2-style pairs purely from their ABI surface (spec.md §3 invariants).
var (
	erc20RequiredNames = []string{"balanceOf", "transfer", "transferFrom", "approve"}
	pairRequiredNames  = []string{"skim", "sync", "swap"}
)

// HasAllNames reports whether `names` is a superset of `required`.
func HasAllNames(names map[string]bool, required []string) bool {
	present := make([]string, 0, len(names))
	for name := range names {
		present = append(present, name)
	}
	for _, r := range required {
		if !slices.Contains(present, r) {
			return false
		}
	}
	return true
}

// IsERC20ABI reports whether the given function-name set is a superset of the required ERC-20
// surface: balanceOf, transfer, transferFrom, approve.
func IsERC20ABI(names map[string]bool) bool {
	return HasAllNames(names, erc20RequiredNames)
}

// IsPairABI reports whether the given function-name set is a superset of the required
// UniswapV2-pair surface: skim, sync, swap.
func IsPairABI(names map[string]bool) bool {
	return HasAllNames(names, pairRequiredNames)
}

// NameSet reduces a slice of ABIConfig to the set of function names it declares, the form
// IsERC20ABI/IsPairABI consume.
func NameSet(cfgs []ABIConfig) map[string]bool {
	names := make(map[string]bool, len(cfgs))
	for _, c := range cfgs {
		names[c.FunctionName] = true
	}
	return names
}

// ParseArgTypes parses a function's argument-list type string, e.g. "(address,uint256,bool)",
// into the list of gethabi.Type it describes. This is the payload shape BoxedABI mutates.
func ParseArgTypes(typeString string) ([]gethabi.Type, error) {
	inner := strings.TrimSpace(typeString)
	inner = strings.TrimPrefix(inner, "(")
	inner = strings.TrimSuffix(inner, ")")
	if inner == "" {
		return nil, nil
	}

	parts := splitTopLevel(inner)
	types := make([]gethabi.Type, 0, len(parts))
	for _, p := range parts {
		t, err := gethabi.NewType(strings.TrimSpace(p), "", nil)
		if err != nil {
			return nil, fmt.Errorf("parsing abi arg type %q: %w", p, err)
		}
		types = append(types, t)
	}
	return types, nil
}

// splitTopLevel splits a comma-separated type list on commas that are not nested inside
// parentheses, so that tuple/array element types are not split incorrectly.
func splitTopLevel(s string) []string {
	var parts []string
	depth := 0
	last := 0
	for i, r := range s {
		switch r {
		case '(':
			depth++
		case ')':
			depth--
		case ',':
			if depth == 0 {
				parts = append(parts, s[last:i])
				last = i + 1
			}
		}
	}
	parts = append(parts, s[last:])
	return parts
}
