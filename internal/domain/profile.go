package domain

// TokenProfile is a candidate surfaced by the discovery feed.
// Ephemeral: profiles are re-fetched on every poll and never persisted.
type TokenProfile struct {
	TokenAddress string // token mint address, unique per chain
	ChainID      string // chain identifier, e.g. "solana"
	URL          string // profile page on the screener (informational)
	Description  string // optional promo text
}
