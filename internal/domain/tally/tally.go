// Package tally holds the filtering and counting helpers shared by the task
// and alert domains.
package tally

import "slices"

// Allows reports whether v passes a set filter. An empty set imposes no
// constraint; otherwise v must be a member.
func Allows[T comparable](set []T, v T) bool {
	return len(set) == 0 || slices.Contains(set, v)
}

// Select returns the items matching pred, in their original order. The result
// is never nil.
func Select[T any](items []T, pred func(T) bool) []T {
	out := make([]T, 0, len(items))
	for _, it := range items {
		if pred(it) {
			out = append(out, it)
		}
	}
	return out
}

// Count returns how many items match pred.
func Count[T any](items []T, pred func(T) bool) int {
	n := 0
	for _, it := range items {
		if pred(it) {
			n++
		}
	}
	return n
}

// CountBy counts items per key over a closed set of keys. Every key is present
// in the result, zero when unused; items whose key is outside the set are not
// counted.
func CountBy[T any, K comparable](items []T, keys []K, key func(T) K) map[K]int {
	out := make(map[K]int, len(keys))
	for _, k := range keys {
		out[k] = 0
	}
	for _, it := range items {
		k := key(it)
		if _, ok := out[k]; ok {
			out[k]++
		}
	}
	return out
}
