package fetcher

import (
	"context"
	"errors"
	"testing"
)

type stubFetcher struct {
	snaps []Snapshot
	err   error
	calls int
}

func (s *stubFetcher) FetchSnapshots(ctx context.Context) ([]Snapshot, error) {
	s.calls++
	return s.snaps, s.err
}

func TestFallbackPrimaryWins(t *testing.T) {
	primary := &stubFetcher{snaps: []Snapshot{{Symbol: "BTC"}}}
	secondary := &stubFetcher{snaps: []Snapshot{{Symbol: "ETH"}}}

	f := NewFallback(primary, secondary, noopLogger())
	snaps, err := f.FetchSnapshots(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(snaps) != 1 || snaps[0].Symbol != "BTC" {
		t.Fatalf("expected primary result, got %#v", snaps)
	}
	if secondary.calls != 0 {
		t.Fatal("secondary should not be consulted when primary succeeds")
	}
}

func TestFallbackSecondaryOnPrimaryFailure(t *testing.T) {
	primary := &stubFetcher{err: errors.New("down")}
	secondary := &stubFetcher{snaps: []Snapshot{{Symbol: "ETH"}}}

	f := NewFallback(primary, secondary, noopLogger())
	snaps, err := f.FetchSnapshots(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(snaps) != 1 || snaps[0].Symbol != "ETH" {
		t.Fatalf("expected fallback result, got %#v", snaps)
	}
}

func TestFallbackBothFail(t *testing.T) {
	f := NewFallback(&stubFetcher{err: errors.New("a")}, &stubFetcher{err: errors.New("b")}, noopLogger())
	if _, err := f.FetchSnapshots(context.Background()); err == nil {
		t.Fatal("both providers failing should return an error")
	}
}
