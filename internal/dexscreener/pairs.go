package dexscreener

import (
	"context"
	"encoding/json"
	"strconv"

	"solana-dexpaid-bot/internal/domain"
)

// pairEntry mirrors one pair object of /token-pairs/v1/{chain}/{addr}.
// Every nested block is optional; absence of a numeric field means zero.
type pairEntry struct {
	BaseToken struct {
		Name   string `json:"name"`
		Symbol string `json:"symbol"`
	} `json:"baseToken"`
	MarketCap     float64   `json:"marketCap"`
	PairCreatedAt *int64    `json:"pairCreatedAt"`
	PriceUSD      priceText `json:"priceUsd"`
	Volume        struct {
		H24 float64 `json:"h24"`
	} `json:"volume"`
	Liquidity *struct {
		USD *float64 `json:"usd"`
	} `json:"liquidity"`
	Txns struct {
		H24 struct {
			Buys  int64 `json:"buys"`
			Sells int64 `json:"sells"`
		} `json:"h24"`
	} `json:"txns"`
	Holders *struct {
		Total int64 `json:"total"`
	} `json:"holders"`
	Info *struct {
		Socials []struct {
			Type string `json:"type"`
			URL  string `json:"url"`
		} `json:"socials"`
	} `json:"info"`
}

// priceText holds the priceUsd field, which the API emits as either a JSON
// string or a bare number. Anything else decodes to empty instead of failing,
// so an odd price never drops the whole pair.
type priceText string

func (p *priceText) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*p = priceText(s)
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err == nil {
		*p = priceText(strconv.FormatFloat(f, 'f', -1, 64))
		return nil
	}
	*p = ""
	return nil
}

// pairsWrapper is the {"pairs": [...]} envelope some API versions emit.
type pairsWrapper struct {
	Pairs []pairEntry `json:"pairs"`
}

// TokenPairs fetches all trading pairs for a token and normalizes them into
// snapshots. An empty result is a normal outcome: it covers fetch failure,
// unrecognized payload shape, and a token with no pairs alike.
func (c *Client) TokenPairs(ctx context.Context, chainID, tokenAddress string) []domain.PairSnapshot {
	raw, err := c.getJSON(ctx, "/token-pairs/v1/"+chainID+"/"+tokenAddress)
	if err != nil {
		return nil
	}

	entries := decodePairsPayload(raw)
	if len(entries) == 0 {
		return nil
	}

	snapshots := make([]domain.PairSnapshot, 0, len(entries))
	for _, e := range entries {
		snapshots = append(snapshots, snapshotFromEntry(e))
	}
	return snapshots
}

// decodePairsPayload flattens the three payload shapes observed from the API
// into a single pair list:
//
//  1. bare array of pair objects:            [ {...}, {...} ]
//  2. array wrapping pairs envelopes:        [ {"pairs": [...]} ]
//  3. single object with a pairs array:      {"pairs": [...]}
//
// Anything else decodes to nil.
func decodePairsPayload(raw json.RawMessage) []pairEntry {
	var elements []json.RawMessage
	if err := json.Unmarshal(raw, &elements); err == nil {
		var entries []pairEntry
		for _, el := range elements {
			var wrapped pairsWrapper
			if err := json.Unmarshal(el, &wrapped); err == nil && wrapped.Pairs != nil {
				entries = append(entries, wrapped.Pairs...)
				continue
			}
			var entry pairEntry
			if err := json.Unmarshal(el, &entry); err == nil {
				entries = append(entries, entry)
			}
		}
		return entries
	}

	var wrapped pairsWrapper
	if err := json.Unmarshal(raw, &wrapped); err == nil {
		return wrapped.Pairs
	}

	return nil
}

// snapshotFromEntry derives the flat snapshot the rest of the bot consumes.
func snapshotFromEntry(e pairEntry) domain.PairSnapshot {
	s := domain.PairSnapshot{
		Name:          e.BaseToken.Name,
		Symbol:        e.BaseToken.Symbol,
		MarketCap:     e.MarketCap,
		PairCreatedAt: e.PairCreatedAt,
		Volume24h:     e.Volume.H24,
		Buys:          e.Txns.H24.Buys,
		Sells:         e.Txns.H24.Sells,
	}
	if e.Liquidity != nil && e.Liquidity.USD != nil {
		usd := *e.Liquidity.USD
		s.LiquidityUSD = &usd
	}
	if e.Holders != nil {
		s.Holders = e.Holders.Total
	}
	if e.Info != nil && len(e.Info.Socials) > 0 {
		s.HasSocials = true
	}
	if e.PriceUSD != "" {
		if price, err := strconv.ParseFloat(string(e.PriceUSD), 64); err == nil {
			s.PriceUSD = &price
		}
	}
	return s
}
