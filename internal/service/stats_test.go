package service

import (
	"math"
	"testing"
)

func TestSummarize(t *testing.T) {
	sum := summarize([]float64{60, 70, 80, 90})
	if sum == nil {
		t.Fatal("expected summary, got nil")
	}
	if sum.Count != 4 {
		t.Errorf("Count = %d, want 4", sum.Count)
	}
	if sum.Mean != 75 {
		t.Errorf("Mean = %v, want 75", sum.Mean)
	}
	// Even count: the upper-middle element, not the average of the two.
	if sum.Median != 80 {
		t.Errorf("Median = %v, want 80", sum.Median)
	}
	if sum.Min != 60 || sum.Max != 90 {
		t.Errorf("Min/Max = %v/%v, want 60/90", sum.Min, sum.Max)
	}
	// Population stddev: sqrt(((15^2)*2 + (5^2)*2)/4) = sqrt(125).
	want := math.Sqrt(125)
	if math.Abs(sum.StdDev-want) > 1e-9 {
		t.Errorf("StdDev = %v, want %v", sum.StdDev, want)
	}
}

func TestSummarizeSingleValue(t *testing.T) {
	sum := summarize([]float64{42})
	if sum == nil {
		t.Fatal("expected summary, got nil")
	}
	if sum.Mean != 42 || sum.Median != 42 || sum.Min != 42 || sum.Max != 42 {
		t.Errorf("single-value summary = %+v", sum)
	}
	if sum.StdDev != 0 {
		t.Errorf("StdDev = %v, want 0", sum.StdDev)
	}
}

func TestSummarizeEmpty(t *testing.T) {
	if sum := summarize(nil); sum != nil {
		t.Errorf("expected nil summary for empty input, got %+v", sum)
	}
}

func TestPercentageOf(t *testing.T) {
	if got := percentageOf(7.5, 10); got != 75 {
		t.Errorf("percentageOf(7.5, 10) = %v, want 75", got)
	}
	if got := percentageOf(5, 0); got != 0 {
		t.Errorf("percentageOf(5, 0) = %v, want 0", got)
	}
}

func TestLetterGrade(t *testing.T) {
	cases := []struct {
		pct  float64
		want string
	}{
		{100, "A+"},
		{97, "A+"},
		{96.9, "A"},
		{93, "A"},
		{90, "A-"},
		{87, "B+"},
		{85, "B"},
		{80, "B-"},
		{77, "C+"},
		{73, "C"},
		{70, "C-"},
		{67, "D+"},
		{63, "D"},
		{60, "D-"},
		{59.9, "F"},
		{0, "F"},
	}
	for _, tc := range cases {
		if got := letterGrade(tc.pct); got != tc.want {
			t.Errorf("letterGrade(%v) = %q, want %q", tc.pct, got, tc.want)
		}
	}
}
