package utils

// MinInt64 returns the smaller of two 64-bit integers.
func MinInt64(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}

// AbsInt64 returns the absolute value of a 64-bit integer.
func AbsInt64(x int64) int64 {
	if x < 0 {
		return -x
	}
	return x
}

// ShortenID abbreviates an address or transaction id for display,
// keeping the first and last three characters.
func ShortenID(id string) string {
	if len(id) <= 8 {
		return id
	}
	return id[:3] + ".." + id[len(id)-3:]
}
