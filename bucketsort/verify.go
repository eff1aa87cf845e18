package bucketsort

import "math"

// Verification is the outcome of Verify.
type Verification struct {
	Sorted bool

	// FirstViolation is the first index i with
	// list[i] > list[i+1], or -1 if Sorted.
	FirstViolation int
}

// Verify checks that list is non-decreasing.
func Verify(list []float64) Verification {
	for i := 0; i+1 < len(list); i++ {
		if list[i] > list[i+1] {
			return Verification{FirstViolation: i}
		}
	}
	return Verification{Sorted: true, FirstViolation: -1}
}

// Conservation compares what went into a run with what
// came out of it, summed over every participant.
type Conservation struct {
	InCount  int
	OutCount int
	InSum    float64
	OutSum   float64

	// OK is true if the counts match and the sums agree
	// up to floating-point rounding.
	OK bool
}

// newConservation evaluates the totals
// [inCount, inSum, outCount, outSum, absSum].
func newConservation(totals []float64) Conservation {
	res := Conservation{
		InCount:  int(totals[0]),
		InSum:    totals[1],
		OutCount: int(totals[2]),
		OutSum:   totals[3],
	}
	// Summation order differs between the two sums, so
	// allow error proportional to n*eps*sum(|x|).
	tolerance := 4 * float64(res.InCount+1) * epsilon * math.Max(1, totals[4])
	res.OK = res.InCount == res.OutCount && math.Abs(res.InSum-res.OutSum) <= tolerance
	return res
}

const epsilon = 0x1p-52

func conservationVector(segment, result []float64) []float64 {
	var inSum, outSum, absSum float64
	for _, x := range segment {
		inSum += x
		absSum += math.Abs(x)
	}
	for _, x := range result {
		outSum += x
	}
	return []float64{float64(len(segment)), inSum, float64(len(result)), outSum, absSum}
}
