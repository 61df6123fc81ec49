package alerting

import (
	"math"
	"strings"
	"testing"
	"time"

	"market-movers-alerts/internal/dedup"
	"market-movers-alerts/internal/fetcher"
)

func TestFmtPrice(t *testing.T) {
	cases := []struct {
		in   float64
		want string
	}{
		{50000, "50000"},
		{1.5, "1.5"},
		{1.23456, "1.2346"},
		{0.5, "0.5"},
		{0.00012345678, "0.00012345678"},
		{0.000123456789, "0.00012345679"},
	}
	for _, tc := range cases {
		if got := fmtPrice(tc.in); got != tc.want {
			t.Errorf("fmtPrice(%v) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestFmtUSD(t *testing.T) {
	cases := []struct {
		in   float64
		want string
	}{
		{2.5e12, "2.50T"},
		{3.1e9, "3.10B"},
		{2e6, "2.00M"},
		{1500, "1.50K"},
		{999, "999"},
		{math.NaN(), ""},
	}
	for _, tc := range cases {
		if got := fmtUSD(tc.in); got != tc.want {
			t.Errorf("fmtUSD(%v) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestPctStr(t *testing.T) {
	if got := pctStr(12.345); got != "+12.35%" {
		t.Fatalf("positive pct: %q", got)
	}
	if got := pctStr(-45.0); got != "-45.00%" {
		t.Fatalf("negative pct: %q", got)
	}
}

func digestOpts() Options {
	return Options{
		UpIcon:        "UP",
		DownIcon:      "DN",
		UpThreshold:   100,
		DownThreshold: -40,
	}
}

func downEvent(symbol string, pct float64) dedup.Event {
	return dedup.Event{
		Snapshot:  fetcher.Snapshot{Symbol: symbol, Price: 1, Pct24h: pct, Volume24h: 5e6, MarketCap: 1e8},
		Direction: dedup.DirectionDown,
	}
}

func upEvent(symbol string, pct float64) dedup.Event {
	ev := downEvent(symbol, pct)
	ev.Direction = dedup.DirectionUp
	return ev
}

func TestRenderDigestSections(t *testing.T) {
	now := time.Date(2024, 5, 1, 15, 4, 0, 0, time.UTC)

	msg := renderDigest(
		[]dedup.Event{downEvent("ABC", -45)},
		[]dedup.Event{upEvent("XYZ", 110)},
		digestOpts(), now,
	)

	parts := strings.Split(msg, "\n\n")
	if len(parts) != 2 {
		t.Fatalf("down and up sections should be separated by a blank line:\n%s", msg)
	}
	if !strings.Contains(parts[0], "Down ≤ -40%") || !strings.Contains(parts[0], "ABC") {
		t.Fatalf("down section malformed:\n%s", parts[0])
	}
	if !strings.Contains(parts[1], "Up ≥ +100%") || !strings.Contains(parts[1], "XYZ") {
		t.Fatalf("up section malformed:\n%s", parts[1])
	}
}

func TestRenderDigestOmitsEmptySection(t *testing.T) {
	now := time.Date(2024, 5, 1, 15, 4, 0, 0, time.UTC)

	msg := renderDigest(nil, []dedup.Event{upEvent("XYZ", 110)}, digestOpts(), now)
	if strings.Contains(msg, "Down") {
		t.Fatalf("empty down section should be omitted:\n%s", msg)
	}
	if strings.Contains(msg, "\n\n") {
		t.Fatalf("single section should carry no blank separator:\n%s", msg)
	}
}

func TestRenderAssetMessageExtras(t *testing.T) {
	now := time.Date(2024, 5, 1, 15, 4, 0, 0, time.UTC)
	opts := digestOpts()
	opts.ShowVolume = true
	opts.ShowMarketCap = true

	msg := renderAssetMessage(downEvent("ABC", -45), opts, now)
	if !strings.Contains(msg, "Vol 24h: 5.00M USD") {
		t.Fatalf("volume segment missing:\n%s", msg)
	}
	if !strings.Contains(msg, "MC: 100.00M USD") {
		t.Fatalf("market cap segment missing:\n%s", msg)
	}
	if !strings.Contains(msg, "<b>ABC</b>") {
		t.Fatalf("symbol should be bold:\n%s", msg)
	}
}
