package telemetry

import (
	"math"
	"testing"
)

func TestSummarize(t *testing.T) {
	s := Summarize([]float64{5, 3, 1, 4, 2})

	if s.Mean != 3 {
		t.Errorf("mean = %v, want 3", s.Mean)
	}
	if math.Abs(s.Std-math.Sqrt(2.5)) > 1e-9 {
		t.Errorf("std = %v, want %v", s.Std, math.Sqrt(2.5))
	}
	if s.P10 != 1 || s.P50 != 3 || s.P90 != 5 {
		t.Errorf("quantiles = %v/%v/%v, want 1/3/5", s.P10, s.P50, s.P90)
	}
	if s.Max != 5 {
		t.Errorf("max = %v, want 5", s.Max)
	}
}

func TestSummarize_DoesNotReorderInput(t *testing.T) {
	in := []float64{3, 1, 2}
	Summarize(in)
	if in[0] != 3 || in[1] != 1 || in[2] != 2 {
		t.Errorf("input reordered: %v", in)
	}
}

func TestSummarize_Edges(t *testing.T) {
	if got := Summarize(nil); got != (Summary{}) {
		t.Errorf("empty summary = %+v, want zero", got)
	}

	one := Summarize([]float64{7})
	if one.Mean != 7 || one.P50 != 7 || one.Max != 7 {
		t.Errorf("single-value summary = %+v", one)
	}
	if one.Std != 0 {
		t.Errorf("single-value std = %v, want 0", one.Std)
	}
}
