// Package flashloan implements the flash-loan economic-exploit oracle middleware: ERC-20/pair
// classification on contract insertion, the owed/earned value ledger accumulated across a
// transaction sequence, and the reserve/balance recheck flags. Grounded on ityfuzz's src/evm/onchain/flashloan.rs, rebuilt as a vmexec.Middleware.
package flashloan

import "github.com/crytic/hydrafuzz/evmtypes"

// PriceOracle reports a token's approximate price and decimals. The middleware holds one, but
// nothing in this module calls FetchTokenPrice: the fuzzer's exploit signal is the owed/earned
// ledger, not USD valuation, so DummyPriceOracle is the only implementation.
type PriceOracle interface {
	// FetchTokenPrice returns (priceInCents, decimals) for a token, or false if unknown.
	FetchTokenPrice(token evmtypes.Address) (priceCents uint32, decimals uint32, ok bool)
}

// DummyPriceOracle reports a fixed $100.00/18-decimals price for every token, matching ityfuzz's
// DummyPriceOracle placeholder (a real price feed is an external collaborator, out of scope here).
type DummyPriceOracle struct{}

// FetchTokenPrice always returns (10000, 18, true).
func (DummyPriceOracle) FetchTokenPrice(evmtypes.Address) (uint32, uint32, bool) {
	return 10000, 18, true
}
