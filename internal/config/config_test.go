package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err == nil {
		t.Fatal("an explicitly named missing config file should error")
	}

	cfg, err = Load("")
	if err != nil {
		t.Fatalf("defaults alone should validate: %v", err)
	}

	if cfg.Source.Provider != "auto" {
		t.Fatalf("default provider should be auto, got %q", cfg.Source.Provider)
	}
	if cfg.Thresholds.UpPct != 100 || cfg.Thresholds.DownPct != -40 {
		t.Fatalf("unexpected default thresholds: %+v", cfg.Thresholds)
	}
	if cfg.Dedup.ResendDeltaUp != 5 || cfg.Dedup.ResendDeltaDown != 5 {
		t.Fatalf("unexpected default resend deltas: %+v", cfg.Dedup)
	}
	if cfg.Delivery.Mode != "digest" {
		t.Fatalf("default delivery mode should be digest, got %q", cfg.Delivery.Mode)
	}
	if cfg.Delivery.SendSpacing != 200*time.Millisecond {
		t.Fatalf("unexpected default send spacing: %v", cfg.Delivery.SendSpacing)
	}
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := `
source:
  provider: paprika
thresholds:
  up_pct: 50
  down_pct: -20
delivery:
  mode: per-asset
  max_down_items: 10
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Source.Provider != "paprika" {
		t.Fatalf("provider not read from file: %q", cfg.Source.Provider)
	}
	if cfg.Thresholds.UpPct != 50 || cfg.Thresholds.DownPct != -20 {
		t.Fatalf("thresholds not read from file: %+v", cfg.Thresholds)
	}
	if got := cfg.Delivery.ResolveMaxDownItems(); got != 10 {
		t.Fatalf("explicit down cap should win, got %d", got)
	}
	if got := cfg.Delivery.ResolveMaxUpItems(); got != 60 {
		t.Fatalf("up cap should fall back to the run cap, got %d", got)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	base := func() *Config {
		cfg, err := Load("")
		if err != nil {
			t.Fatal(err)
		}
		return cfg
	}

	cfg := base()
	cfg.Source.Provider = "binance"
	if err := cfg.Validate(); err == nil {
		t.Fatal("unknown provider should be rejected")
	}

	cfg = base()
	cfg.Dedup.ResendDeltaUp = -1
	if err := cfg.Validate(); err == nil {
		t.Fatal("negative resend delta should be rejected")
	}

	cfg = base()
	cfg.Delivery.Mode = "carrier-pigeon"
	if err := cfg.Validate(); err == nil {
		t.Fatal("unknown delivery mode should be rejected")
	}

	cfg = base()
	cfg.Delivery.Telegram.Enabled = true
	if err := cfg.Validate(); err == nil {
		t.Fatal("telegram without credentials should be rejected")
	}

	cfg = base()
	cfg.Dedup.Timezone = "Not/AZone"
	if err := cfg.Validate(); err == nil {
		t.Fatal("invalid timezone should be rejected")
	}
}
