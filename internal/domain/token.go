package domain

// TokenRecord is a persisted dex-paid token.
// Corresponds to the tokens table, keyed by token_name.
//
// Invariants maintained by the stores:
//   - FirstMarketCap is set on first insert and never changes.
//   - AllTimeHigh is monotonically non-decreasing across upserts.
type TokenRecord struct {
	TokenName      string
	Symbol         string
	MarketCap      float64 // most recently observed market cap (USD)
	FirstMarketCap float64 // market cap at first detection
	AllTimeHigh    float64 // max market cap ever observed
	PairCreatedAt  *int64  // Unix timestamp in milliseconds (nullable)
	DexPaidAt      *int64  // payment approval timestamp in milliseconds (nullable)
	Holders        int64
	Volume24h      float64
	HasSocials     bool
	LoggedAt       int64 // first-insert timestamp in milliseconds
}
