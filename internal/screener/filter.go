package screener

import (
	"math"

	"market-movers-alerts/internal/fetcher"
)

// Reason explains why a snapshot was rejected.
type Reason string

const (
	ReasonAdmitted  Reason = ""
	ReasonMalformed Reason = "malformed"
	ReasonIlliquid  Reason = "illiquid"
	ReasonTooSmall  Reason = "too small"
	ReasonTooLarge  Reason = "too large"
)

// Limits are the liquidity and market-cap admission rules. Zero disables a
// rule; MaxMarketCap = 0 means unbounded above.
type Limits struct {
	MinVolume24h float64
	MinMarketCap float64
	MaxMarketCap float64
}

// Admit applies the admission rules in order. A snapshot with an unknown
// (NaN) market cap passes the upper bound but fails the lower one: absent cap
// data is not penalized by the ceiling, only by the floor.
func Admit(s fetcher.Snapshot, l Limits) (bool, Reason) {
	if s.Symbol == "" || !finite(s.Price) || !finite(s.Pct24h) {
		return false, ReasonMalformed
	}
	if l.MinVolume24h > 0 {
		if !finite(s.Volume24h) || s.Volume24h < l.MinVolume24h {
			return false, ReasonIlliquid
		}
	}
	if l.MinMarketCap > 0 {
		if !finite(s.MarketCap) || s.MarketCap < l.MinMarketCap {
			return false, ReasonTooSmall
		}
	}
	if l.MaxMarketCap > 0 && finite(s.MarketCap) && s.MarketCap > l.MaxMarketCap {
		return false, ReasonTooLarge
	}
	return true, ReasonAdmitted
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
