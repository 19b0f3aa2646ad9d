package streak

// Record is a member's streak in days.
type Record struct {
	Current int
	Longest int
}

// CacheState is what the streak cache knows about a member.
// It is either Uncomputed or Bootstrapped.
type CacheState interface {
	cacheState()
}

// Uncomputed means no streak has ever been stored for the member.
type Uncomputed struct{}

// Bootstrapped holds the last stored streak of the member.
type Bootstrapped struct {
	Record
}

func (Uncomputed) cacheState()   {}
func (Bootstrapped) cacheState() {}

// StateOf converts an optional stored record into a CacheState.
func StateOf(rec *Record) CacheState {
	if rec == nil {
		return Uncomputed{}
	}

	return Bootstrapped{Record: *rec}
}

// trustedLongest returns the cached longest streak if it can seed the fast path.
// A zero longest is indistinguishable from "never scanned" and forces a full scan.
func trustedLongest(state CacheState) (int, bool) {
	switch s := state.(type) {
	case Bootstrapped:
		return s.Longest, s.Longest > 0
	case Uncomputed:
		return 0, false
	}

	return 0, false
}
