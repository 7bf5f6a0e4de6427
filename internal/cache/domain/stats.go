package domain

// Stats is a point-in-time snapshot of cache engine counters.
// Hits and misses are counted per Get/GetOrSet lookup; Errors counts
// swallowed store failures, which are also reported as misses.
type Stats struct {
	Hits          uint64
	Misses        uint64
	Sets          uint64
	Errors        uint64
	Invalidations uint64
}

// HitRate returns the fraction of lookups served from the store, in [0, 1].
// Returns 0 when no lookups have been recorded.
func (s Stats) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}

// WarmupResult collects per-category outcomes of a best-effort warm-up run.
// Individual item failures are counted, never raised.
type WarmupResult struct {
	UsersWarmed   int
	UserErrors    int
	SymbolsLoaded int
	SymbolErrors  int
}
