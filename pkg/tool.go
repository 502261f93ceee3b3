package pkg

// Contains check source have target
func Contains[T comparable](slice []T, val T) bool {
	for _, v := range slice {
		if v == val {
			return true
		}
	}
	return false
}

// Dedupe keep first occurrence order, drop zero values
func Dedupe[T comparable](slice []T) []T {
	var zero T
	seen := make(map[T]struct{}, len(slice))
	out := make([]T, 0, len(slice))
	for _, v := range slice {
		if v == zero {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
