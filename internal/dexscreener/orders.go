package dexscreener

import (
	"context"
	"encoding/json"

	"solana-dexpaid-bot/internal/domain"
)

// Order type/status values that mark a profile listing as paid.
const (
	orderTypeTokenProfile = "tokenProfile"
	orderStatusApproved   = "approved"
)

// orderEntry mirrors one element of /orders/v1/{chain}/{addr}.
type orderEntry struct {
	Type             string `json:"type"`
	Status           string `json:"status"`
	PaymentTimestamp *int64 `json:"paymentTimestamp"`
}

// CheckPaid reports whether the token's profile listing has an approved
// payment. The first approved tokenProfile order in API order wins and
// supplies the payment timestamp. Any fetch or decode failure yields an
// unpaid record, never an error: a token we cannot verify is a token we skip.
func (c *Client) CheckPaid(ctx context.Context, chainID, tokenAddress string) domain.PaymentRecord {
	raw, err := c.getJSON(ctx, "/orders/v1/"+chainID+"/"+tokenAddress)
	if err != nil {
		return domain.PaymentRecord{}
	}

	var elements []json.RawMessage
	if err := json.Unmarshal(raw, &elements); err != nil {
		// Non-list payload (error object, HTML error page that slipped
		// through, etc.) means the status is unknown.
		return domain.PaymentRecord{}
	}

	for _, el := range elements {
		// Entries are decoded one by one so a junk element cannot hide an
		// approved order elsewhere in the list.
		var order orderEntry
		if err := json.Unmarshal(el, &order); err != nil {
			continue
		}
		if order.Type == orderTypeTokenProfile && order.Status == orderStatusApproved {
			return domain.PaymentRecord{
				Paid:             true,
				PaymentTimestamp: order.PaymentTimestamp,
			}
		}
	}
	return domain.PaymentRecord{}
}
