package bucketsort

import (
	"fmt"
	"math"
	"math/rand"
	"testing"
)

func TestBucketOf(t *testing.T) {
	below1 := math.Nextafter(1, 0)
	tests := []struct {
		v        float64
		p        int
		expected int
	}{
		{0, 1, 0},
		{0.99, 1, 0},
		{0, 4, 0},
		{0.25, 4, 1},
		{0.4999, 2, 0},
		{0.5, 2, 1},
		{1, 2, 1},
		{1, 7, 6},
		{below1, 3, 2},
		{below1, 1 << 20, 1<<20 - 1},
		{-0.5, 5, 0},
		{42, 5, 4},
	}
	for _, test := range tests {
		if actual := BucketOf(test.v, test.p); actual != test.expected {
			t.Errorf("BucketOf(%v, %d): expected %d but got %d", test.v, test.p, test.expected, actual)
		}
	}
}

func TestBucketOfNeverOverflows(t *testing.T) {
	for p := 1; p <= 64; p++ {
		for _, v := range []float64{1, math.Nextafter(1, 0), 1 - 1e-17} {
			if b := BucketOf(v, p); b != p-1 {
				t.Errorf("BucketOf(%v, %d) = %d", v, p, b)
			}
		}
	}
}

func TestClassify(t *testing.T) {
	for _, p := range []int{1, 2, 3, 16} {
		p := p
		t.Run(fmt.Sprintf("P=%d", p), func(t *testing.T) {
			segment := make([]float64, 500)
			for i := range segment {
				segment[i] = rand.Float64()
			}
			buckets := Classify(segment, p)
			if len(buckets) != p {
				t.Fatalf("expected %d buckets but got %d", p, len(buckets))
			}
			var total int
			maxBelow := math.Inf(-1)
			for k, bucket := range buckets {
				total += len(bucket)
				minHere, maxHere := math.Inf(1), math.Inf(-1)
				for _, x := range bucket {
					if b := BucketOf(x, p); b != k {
						t.Errorf("bucket %d holds %v, which belongs in bucket %d", k, x, b)
					}
					minHere = math.Min(minHere, x)
					maxHere = math.Max(maxHere, x)
				}
				if len(bucket) == 0 {
					continue
				}
				if minHere <= maxBelow {
					t.Errorf("bucket %d starts at %v, not above earlier buckets (%v)", k, minHere, maxBelow)
				}
				maxBelow = maxHere
			}
			if total != len(segment) {
				t.Errorf("expected %d values but got %d", len(segment), total)
			}
		})
	}
}

func TestClassifyKeepsOrder(t *testing.T) {
	buckets := Classify([]float64{0.9, 0.1, 0.8, 0.2}, 2)
	expected := [][]float64{{0.1, 0.2}, {0.9, 0.8}}
	for k := range expected {
		if len(buckets[k]) != len(expected[k]) {
			t.Fatalf("bucket %d: expected %v but got %v", k, expected[k], buckets[k])
		}
		for i, x := range expected[k] {
			if buckets[k][i] != x {
				t.Fatalf("bucket %d: expected %v but got %v", k, expected[k], buckets[k])
			}
		}
	}
}
