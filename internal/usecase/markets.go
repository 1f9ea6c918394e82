package usecase

import "strings"

const (
	MarketTokyo   = "Tokyo"
	MarketLondon  = "London"
	MarketNewYork = "New_York"
)

// MarketForPair returns the primary venue for a currency pair: JPY pairs trade in Tokyo,
// EUR pairs in London, other USD pairs in New York, everything else in London.
func MarketForPair(pair string) string {
	p := strings.ToUpper(pair)
	switch {
	case strings.Contains(p, "JPY"):
		return MarketTokyo
	case strings.Contains(p, "EUR"):
		return MarketLondon
	case strings.Contains(p, "USD"):
		return MarketNewYork
	default:
		return MarketLondon
	}
}
