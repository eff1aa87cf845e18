package simulator

import (
	"math"
	"testing"
)

func TestGreedyDropSwitcher(t *testing.T) {
	switcher := &GreedyDropSwitcher{
		SendRates: []float64{1.0, 2.0, 3.0},
		RecvRates: []float64{2.0, 1.0, 1.0},
	}
	tests := []struct {
		in  []float64
		out []float64
	}{
		{
			in: []float64{
				0, 1, 0,
				0, 0, 1,
				1, 0, 0,
			},
			out: []float64{
				0, 1, 0,
				0, 0, 1,
				2, 0, 0,
			},
		},
		{
			in: []float64{
				1, 0, 0,
				1, 0, 0,
				1, 0, 0,
			},
			out: []float64{
				1.0 / 3.0, 0, 0,
				2.0 / 3.0, 0, 0,
				3.0 / 3.0, 0, 0,
			},
		},
		{
			in: []float64{
				1, 1, 1,
				1, 1, 1,
				1, 1, 1,
			},
			out: []float64{
				1.0 / 3.0, 1.0 / 6.0, 1.0 / 6.0,
				2.0 / 3.0, 2.0 / 6.0, 2.0 / 6.0,
				3.0 / 3.0, 3.0 / 6.0, 3.0 / 6.0,
			},
		},
	}
	for i, test := range tests {
		mat := &ConnMat{numNodes: 3, rates: append([]float64{}, test.in...)}
		switcher.SwitchedRates(mat)
		for j, actual := range mat.rates {
			if math.Abs(actual-test.out[j]) > 0.001 {
				t.Errorf("test %d: expected %v but got %v", i, test.out, mat.rates)
				break
			}
		}
	}
}
