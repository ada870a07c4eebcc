package domain

// PaymentRecord is the outcome of a payment-status check for a token profile.
// When Paid is false the timestamp is nil.
type PaymentRecord struct {
	Paid             bool
	PaymentTimestamp *int64 // Unix timestamp in milliseconds (nullable)
}
