package refresh

import "time"

// NextAnchor returns the next refresh anchor after now in now's location:
// noon today if it is still ahead, otherwise the coming midnight.
func NextAnchor(now time.Time) time.Time {
	y, m, d := now.Date()
	loc := now.Location()

	noon := time.Date(y, m, d, 12, 0, 0, 0, loc)
	if now.Before(noon) {
		return noon
	}

	return time.Date(y, m, d+1, 0, 0, 0, 0, loc)
}
