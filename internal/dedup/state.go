package dedup

// Watermark records the most extreme already-alerted 24h change for one
// symbol on one day. Nil means no alert of that direction has fired yet;
// a nil pointer is deliberately distinct from zero.
type Watermark struct {
	Up   *float64 `json:"up"`
	Down *float64 `json:"down"`
}

// State is the persisted watermark collection: day key (YYYY-MM-DD in the
// reference timezone) -> uppercase symbol -> watermark. Day buckets are
// created lazily on the first fired alert of that day.
type State map[string]map[string]Watermark

// Lookup returns the watermark for (day, symbol), zero-valued if absent.
func (s State) Lookup(day, symbol string) Watermark {
	return s[day][symbol]
}

func (s State) put(day, symbol string, wm Watermark) {
	bucket := s[day]
	if bucket == nil {
		bucket = make(map[string]Watermark)
		s[day] = bucket
	}
	bucket[symbol] = wm
}
