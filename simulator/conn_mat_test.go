package simulator

import "testing"

func TestConnMatRowsAndColumns(t *testing.T) {
	mat := NewConnMat(3)
	mat.Set(0, 1, 4)
	mat.Set(0, 2, 2)
	mat.Set(2, 1, 6)
	mat.Add(2, 1, 1)

	sources := []float64{6, 0, 7}
	dests := []float64{0, 11, 2}
	for i := 0; i < 3; i++ {
		if actual := mat.SumSource(i); actual != sources[i] {
			t.Errorf("row %d: expected %f but got %f", i, sources[i], actual)
		}
		if actual := mat.SumDest(i); actual != dests[i] {
			t.Errorf("column %d: expected %f but got %f", i, dests[i], actual)
		}
	}

	mat.ScaleSource(0, 0.5)
	mat.ScaleDest(1, 2)
	expected := []float64{
		0, 4, 1,
		0, 0, 0,
		0, 14, 0,
	}
	for i, x := range expected {
		if actual := mat.Get(i/3, i%3); actual != x {
			t.Errorf("entry (%d, %d): expected %f but got %f", i/3, i%3, x, actual)
		}
	}
}

func TestConnMatTotal(t *testing.T) {
	mat := NewConnMat(2)
	mat.Set(0, 0, 5)
	mat.Set(0, 1, 1)
	mat.Set(1, 0, 2)
	if actual := mat.Total(true); actual != 8 {
		t.Errorf("expected total 8 but got %f", actual)
	}
	if actual := mat.Total(false); actual != 3 {
		t.Errorf("expected off-diagonal total 3 but got %f", actual)
	}

	clone := mat.Clone()
	clone.Add(1, 1, 10)
	if mat.Get(1, 1) != 0 || clone.Get(1, 1) != 10 {
		t.Error("clone shares storage with the original")
	}
}

func TestConnMatBounds(t *testing.T) {
	mat := NewConnMat(2)
	for _, idx := range [][2]int{{-1, 0}, {0, 2}, {2, 2}} {
		idx := idx
		func() {
			defer func() {
				if recover() == nil {
					t.Errorf("expected panic for index %v", idx)
				}
			}()
			mat.Get(idx[0], idx[1])
		}()
	}
	if mat.Get(1, 1) != 0 {
		t.Error("new matrix should be zero")
	}
}
