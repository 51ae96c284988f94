package blogkit

import "time"

// dropExpired deletes the entries of m whose last activity is at or before
// cutoff.
func dropExpired[K comparable, V any](m map[K]V, cutoff time.Time, last func(V) time.Time) {
	for k, v := range m {
		if !last(v).After(cutoff) {
			delete(m, k)
		}
	}
}

// since returns the suffix of ts (sorted oldest first) that is after cutoff.
func since(ts []time.Time, cutoff time.Time) []time.Time {
	i := 0
	for i < len(ts) && !ts[i].After(cutoff) {
		i++
	}
	return ts[i:]
}
