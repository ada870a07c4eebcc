package dexscreener

import (
	"context"
	"encoding/json"
	"fmt"

	"solana-dexpaid-bot/internal/domain"
)

// profileEntry mirrors one element of /token-profiles/latest/v1.
type profileEntry struct {
	TokenAddress string `json:"tokenAddress"`
	ChainID      string `json:"chainId"`
	URL          string `json:"url"`
	Description  string `json:"description"`
}

// LatestProfiles fetches the most recently listed token profiles across all
// chains. Returns ErrNoData when the feed is unreachable.
func (c *Client) LatestProfiles(ctx context.Context) ([]domain.TokenProfile, error) {
	raw, err := c.getJSON(ctx, "/token-profiles/latest/v1")
	if err != nil {
		return nil, err
	}

	var entries []profileEntry
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("decode token profiles: %w", err)
	}

	profiles := make([]domain.TokenProfile, 0, len(entries))
	for _, e := range entries {
		profiles = append(profiles, domain.TokenProfile{
			TokenAddress: e.TokenAddress,
			ChainID:      e.ChainID,
			URL:          e.URL,
			Description:  e.Description,
		})
	}
	return profiles, nil
}
