package alerting

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"market-movers-alerts/internal/dedup"
)

// fmtPrice renders a USD price: four decimals at or above 1, eight
// significant digits below, trailing zeros trimmed.
func fmtPrice(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fmt.Sprint(v)
	}

	d := decimal.NewFromFloat(v)
	var s string
	if v >= 1 {
		s = d.StringFixed(4)
	} else {
		places := int32(7)
		if v > 0 {
			places = 7 - int32(math.Floor(math.Log10(v)))
		}
		s = d.StringFixed(places)
	}

	if strings.Contains(s, ".") {
		s = strings.TrimRight(s, "0")
		s = strings.TrimRight(s, ".")
	}
	return s
}

// fmtUSD abbreviates a USD amount (K/M/B/T). Unknown values render empty.
func fmtUSD(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return ""
	}
	switch {
	case v >= 1e12:
		return decimal.NewFromFloat(v / 1e12).StringFixed(2) + "T"
	case v >= 1e9:
		return decimal.NewFromFloat(v / 1e9).StringFixed(2) + "B"
	case v >= 1e6:
		return decimal.NewFromFloat(v / 1e6).StringFixed(2) + "M"
	case v >= 1e3:
		return decimal.NewFromFloat(v / 1e3).StringFixed(2) + "K"
	default:
		return decimal.NewFromFloat(v).StringFixed(0)
	}
}

func pctStr(p float64) string {
	if p >= 0 {
		return fmt.Sprintf("+%.2f%%", p)
	}
	return fmt.Sprintf("%.2f%%", p)
}

// extraBits renders the optional volume / market-cap message segment.
func extraBits(ev dedup.Event, opts Options) string {
	var bits []string
	if opts.ShowVolume {
		bits = append(bits, fmt.Sprintf("Vol 24h: %s USD", fmtUSD(ev.Snapshot.Volume24h)))
	}
	if opts.ShowMarketCap {
		bits = append(bits, fmt.Sprintf("MC: %s USD", fmtUSD(ev.Snapshot.MarketCap)))
	}
	if len(bits) == 0 {
		return ""
	}
	return " — " + strings.Join(bits, " | ")
}

// renderAssetMessage builds the per-asset notification body.
func renderAssetMessage(ev dedup.Event, opts Options, now time.Time) string {
	day := now.Format("2006-01-02")
	hm := now.Format("15:04")

	if ev.Direction == dedup.DirectionDown {
		return fmt.Sprintf("%s <b>%s</b> dropped %.2f%% over the last 24h (as of %s %s)\nCurrent price: %s USD%s",
			opts.DownIcon, ev.Snapshot.Symbol, ev.Snapshot.Pct24h, hm, day,
			fmtPrice(ev.Snapshot.Price), extraBits(ev, opts))
	}
	return fmt.Sprintf("%s <b>%s</b> gained +%.2f%% over the last 24h (as of %s %s)\nCurrent price: %s USD%s",
		opts.UpIcon, ev.Snapshot.Symbol, ev.Snapshot.Pct24h, hm, day,
		fmtPrice(ev.Snapshot.Price), extraBits(ev, opts))
}

// renderDigest builds the single digest message: down section first, blank
// line, then up section. Empty sections are omitted; both lists must already
// be sorted and capped.
func renderDigest(downs, ups []dedup.Event, opts Options, now time.Time) string {
	day := now.Format("2006-01-02")
	hm := now.Format("15:04")

	var lines []string
	if len(downs) > 0 {
		lines = append(lines, fmt.Sprintf("%s Down ≤ -%.0f%% (as of %s %s)", opts.DownIcon, math.Abs(opts.DownThreshold), hm, day))
		for _, ev := range downs {
			lines = append(lines, digestLine(ev, opts.DownIcon, opts))
		}
	}
	if len(ups) > 0 {
		if len(lines) > 0 {
			lines = append(lines, "")
		}
		lines = append(lines, fmt.Sprintf("%s Up ≥ +%.0f%% (as of %s %s)", opts.UpIcon, opts.UpThreshold, hm, day))
		for _, ev := range ups {
			lines = append(lines, digestLine(ev, opts.UpIcon, opts))
		}
	}
	return strings.Join(lines, "\n")
}

func digestLine(ev dedup.Event, icon string, opts Options) string {
	return fmt.Sprintf("%s <b>%s</b> %s — %s USD%s",
		icon, ev.Snapshot.Symbol, pctStr(ev.Snapshot.Pct24h), fmtPrice(ev.Snapshot.Price), extraBits(ev, opts))
}
