package aggregate

import (
	"cmp"
	"math"
	"sort"
)

// Generic collectors shared by the numeric and textual result families.
// Exact value equality is the binning rule throughout: distinct floating
// values are distinct bins, matching the discrete-bucket semantics of the
// original aggregation layer.

// distinctCount returns the number of distinct values observed.
func distinctCount[T comparable](values []T) int {
	seen := make(map[T]struct{}, len(values))
	for _, v := range values {
		seen[v] = struct{}{}
	}
	return len(seen)
}

// mostFrequent returns the most common value, ties broken by first
// encounter order.
func mostFrequent[T comparable](values []T) T {
	var zero T
	if len(values) == 0 {
		return zero
	}
	counts := make(map[T]int, len(values))
	best := values[0]
	bestCount := 0
	for _, v := range values {
		counts[v]++
		if counts[v] > bestCount {
			best, bestCount = v, counts[v]
		}
	}
	return best
}

// minOf returns the smallest value.
func minOf[T cmp.Ordered](values []T) T {
	out := values[0]
	for _, v := range values[1:] {
		if v < out {
			out = v
		}
	}
	return out
}

// maxOf returns the largest value.
func maxOf[T cmp.Ordered](values []T) T {
	out := values[0]
	for _, v := range values[1:] {
		if v > out {
			out = v
		}
	}
	return out
}

// minIndex returns the first index achieving the smallest value.
func minIndex[T cmp.Ordered](values []T) int {
	idx := 0
	for i, v := range values[1:] {
		if v < values[idx] {
			idx = i + 1
		}
	}
	return idx
}

// maxIndex returns the first index achieving the largest value.
func maxIndex[T cmp.Ordered](values []T) int {
	idx := 0
	for i, v := range values[1:] {
		if v > values[idx] {
			idx = i + 1
		}
	}
	return idx
}

// entropy returns the Shannon entropy of the empirical value distribution,
// with the log base set to the number of distinct values so the result falls
// in [0, 1]. Zero or one distinct value yields zero.
func entropy[T comparable](values []T) float64 {
	counts := make(map[T]int, len(values))
	for _, v := range values {
		counts[v]++
	}
	k := len(counts)
	if k <= 1 {
		return 0
	}
	n := float64(len(values))
	h := 0.0
	for _, c := range counts {
		p := float64(c) / n
		h -= p * math.Log(p)
	}
	return h / math.Log(float64(k))
}

// mutualInformation returns the mutual information, in nats, between the two
// paired value sequences using exact-match bins.
func mutualInformation[A, B comparable](xs []A, ys []B) float64 {
	n := len(xs)
	if n == 0 || n != len(ys) {
		return 0
	}
	type pair struct {
		a A
		b B
	}
	xCounts := make(map[A]int, n)
	yCounts := make(map[B]int, n)
	joint := make(map[pair]int, n)
	for i := range xs {
		xCounts[xs[i]]++
		yCounts[ys[i]]++
		joint[pair{xs[i], ys[i]}]++
	}
	fn := float64(n)
	mi := 0.0
	for p, c := range joint {
		pxy := float64(c) / fn
		px := float64(xCounts[p.a]) / fn
		py := float64(yCounts[p.b]) / fn
		mi += pxy * math.Log(pxy/(px*py))
	}
	if mi < 0 {
		// Guard against negative rounding residue.
		return 0
	}
	return mi
}

// Numeric-only statistics.

func sumOf(values []float64) float64 {
	s := 0.0
	for _, v := range values {
		s += v
	}
	return s
}

func meanOf(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	return sumOf(values) / float64(len(values))
}

// varianceOf is the population variance.
func varianceOf(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	m := meanOf(values)
	acc := 0.0
	for _, v := range values {
		d := v - m
		acc += d * d
	}
	return acc / float64(len(values))
}

// medianOf is the 50th percentile, with the conventional midpoint average
// for even counts.
func medianOf(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return (sorted[mid-1] + sorted[mid]) / 2
}
