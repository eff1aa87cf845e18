package bucketsort

import "math"

// BucketOf returns the bucket of v among p equal-width
// buckets covering [0, 1), which is floor(v*p).
//
// The result is clamped to [0, p-1], so 1.0 and values
// that round up to p land in the last bucket. The clamp
// is monotonic, so finite values outside [0, 1) still
// end up in order, in the first or last bucket.
func BucketOf(v float64, p int) int {
	if p <= 0 {
		panic("bucket count must be positive")
	}
	x := math.Floor(v * float64(p))
	if !(x >= 0) {
		// Negative (or NaN).
		return 0
	}
	if x >= float64(p-1) {
		return p - 1
	}
	return int(x)
}

// Classify splits a segment into p buckets by BucketOf.
// Within a bucket, values keep their order in segment.
func Classify(segment []float64, p int) [][]float64 {
	buckets := make([][]float64, p)
	for _, v := range segment {
		b := BucketOf(v, p)
		buckets[b] = append(buckets[b], v)
	}
	return buckets
}
