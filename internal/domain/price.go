package domain

// PriceSample is one tick of the price tracking job.
// Corresponds to the prices table. Append-only.
type PriceSample struct {
	TokenName    string
	TokenAddress string
	Timestamp    int64    // Unix timestamp in milliseconds
	PriceUSD     *float64 // nil when enrichment returned no pairs at sample time
}
