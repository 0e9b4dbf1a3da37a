package fn

func Map[T any, V any](items []T, selector func(T) V) []V {
	results := make([]V, 0, len(items))
	for _, item := range items {
		results = append(results, selector(item))
	}
	return results
}

func Filter[T any](items []T, keep func(T) bool) []T {
	var results []T
	for _, item := range items {
		if keep(item) {
			results = append(results, item)
		}
	}
	return results
}

func Count[T any](items []T, match func(T) bool) int {
	n := 0
	for _, item := range items {
		if match(item) {
			n++
		}
	}
	return n
}
