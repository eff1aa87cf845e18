package bucketsort

import "testing"

func TestVerify(t *testing.T) {
	tests := []struct {
		list     []float64
		expected Verification
	}{
		{nil, Verification{Sorted: true, FirstViolation: -1}},
		{[]float64{0.5}, Verification{Sorted: true, FirstViolation: -1}},
		{[]float64{0.1, 0.1, 0.2}, Verification{Sorted: true, FirstViolation: -1}},
		{[]float64{0.1, 0.3, 0.2, 0.1}, Verification{FirstViolation: 1}},
		{[]float64{0.9, 0.1}, Verification{FirstViolation: 0}},
	}
	for _, test := range tests {
		if actual := Verify(test.list); actual != test.expected {
			t.Errorf("Verify(%v): expected %+v but got %+v", test.list, test.expected, actual)
		}
	}
}

func TestConservation(t *testing.T) {
	in := []float64{0.1, 0.2, 0.3}
	out := []float64{0.3, 0.1, 0.2}
	if c := newConservation(conservationVector(in, out)); !c.OK {
		t.Errorf("expected conservation to hold: %+v", c)
	}
	if c := newConservation(conservationVector(in, out[:2])); c.OK {
		t.Errorf("expected count mismatch: %+v", c)
	}
	if c := newConservation(conservationVector(in, []float64{0.3, 0.1, 0.25})); c.OK {
		t.Errorf("expected sum mismatch: %+v", c)
	}
}
