package bucketsort

import (
	"fmt"
	"math/rand"

	"golang.org/x/exp/constraints"
)

// A Pivot selects how Quicksort picks the pivot of each
// sub-range.
type Pivot int

const (
	// MedianOfThreePivot uses the median of the first,
	// middle and last elements.
	MedianOfThreePivot Pivot = iota

	// FirstPivot always uses the first element. It is
	// quadratic on sorted input.
	FirstPivot

	// RandomPivot picks a uniformly random element.
	RandomPivot

	numPivots
)

// ParsePivot parses the names produced by Pivot.String.
func ParsePivot(name string) (Pivot, error) {
	for p := Pivot(0); p < numPivots; p++ {
		if p.String() == name {
			return p, nil
		}
	}
	return 0, fmt.Errorf("unknown pivot strategy: %q", name)
}

// Valid reports whether p is one of the defined
// strategies.
func (p Pivot) Valid() bool {
	return p >= 0 && p < numPivots
}

func (p Pivot) String() string {
	switch p {
	case MedianOfThreePivot:
		return "median"
	case FirstPivot:
		return "first"
	case RandomPivot:
		return "random"
	}
	return fmt.Sprintf("Pivot(%d)", int(p))
}

// Quicksort sorts list[start:end] in place, leaving the
// rest of list untouched, and returns the number of
// element comparisons it made.
//
// The range must lie within list.
func Quicksort[T constraints.Float](list []T, start, end int) int {
	return QuicksortPivot(list, start, end, MedianOfThreePivot, nil)
}

// QuicksortPivot is like Quicksort with an explicit pivot
// strategy. RandomPivot draws from rng, or from the
// global source if rng is nil.
//
// It recurses into the smaller side of each partition and
// loops on the larger, so the stack stays logarithmic
// even when the pivot choice is poor.
func QuicksortPivot[T constraints.Float](list []T, start, end int, pivot Pivot, rng *rand.Rand) int {
	if !pivot.Valid() {
		panic(fmt.Sprintf("invalid pivot strategy: %v", pivot))
	}
	var comparisons int
	for end-start > 1 {
		mid := partition(list, start, end, choosePivot(list, start, end, pivot, rng))
		comparisons += end - start - 1
		if mid-start < end-mid-1 {
			comparisons += QuicksortPivot(list, start, mid, pivot, rng)
			start = mid + 1
		} else {
			comparisons += QuicksortPivot(list, mid+1, end, pivot, rng)
			end = mid
		}
	}
	return comparisons
}

// partition moves every element <= list[pivotIdx] in
// [start, end) in front of it and returns the pivot's
// final index.
func partition[T constraints.Float](list []T, start, end, pivotIdx int) int {
	pivot := list[pivotIdx]
	list[pivotIdx], list[end-1] = list[end-1], pivot

	store := start
	for i := start; i < end-1; i++ {
		if list[i] <= pivot {
			list[i], list[store] = list[store], list[i]
			store++
		}
	}
	list[store], list[end-1] = list[end-1], list[store]
	return store
}

func choosePivot[T constraints.Float](list []T, start, end int, pivot Pivot, rng *rand.Rand) int {
	switch pivot {
	case FirstPivot:
		return start
	case RandomPivot:
		if rng == nil {
			return start + rand.Intn(end-start)
		}
		return start + rng.Intn(end-start)
	default:
		return medianOfThree(list, start, start+(end-start)/2, end-1)
	}
}

func medianOfThree[T constraints.Float](list []T, a, b, c int) int {
	if list[a] < list[b] {
		if list[b] < list[c] {
			return b
		} else if list[a] < list[c] {
			return c
		}
		return a
	}
	if list[a] < list[c] {
		return a
	} else if list[b] < list[c] {
		return c
	}
	return b
}
