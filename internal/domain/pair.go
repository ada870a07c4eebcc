package domain

// PairSnapshot is one trading pair as reported by the screener at poll time.
// Transient: recomputed on every enrichment call. Callers treat the first
// snapshot in a result as the primary pair for the token.
type PairSnapshot struct {
	Name          string   // base token name
	Symbol        string   // base token symbol
	MarketCap     float64  // USD, 0 when absent
	PairCreatedAt *int64   // Unix timestamp in milliseconds (nullable)
	Volume24h     float64  // 24h volume in USD, 0 when absent
	LiquidityUSD  *float64 // pool liquidity in USD, nil when unknown
	Buys          int64    // 24h buy transaction count
	Sells         int64    // 24h sell transaction count
	Holders       int64    // total holder count, 0 when absent
	HasSocials    bool     // any social link present on the pair info
	PriceUSD      *float64 // current price in USD (nullable)
}
