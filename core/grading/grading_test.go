package grading

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGrade_boundaries(t *testing.T) {
	tests := []struct {
		marks float64
		want  string
	}{
		{0, GradeF},
		{39, GradeF},
		{40, GradeD},
		{49, GradeD},
		{50, GradeC},
		{59, GradeC},
		{60, GradeB},
		{69, GradeB},
		{70, GradeBPlus},
		{79, GradeBPlus},
		{80, GradeA},
		{89, GradeA},
		{90, GradeAPlus},
		{100, GradeAPlus},
	}
	for _, tt := range tests {
		pct, grade := Compute(tt.marks, 100)
		assert.InDelta(t, tt.marks, pct, 1e-9, "percentage for %v/100", tt.marks)
		assert.Equal(t, tt.want, grade, "grade for %v/100", tt.marks)
	}
}

func TestGrade_closedAbove(t *testing.T) {
	assert.Equal(t, GradeAPlus, Grade(90))
	assert.Equal(t, GradeA, Grade(89.999))
	assert.Equal(t, GradeD, Grade(40))
	assert.Equal(t, GradeF, Grade(39.999))
}

func TestCompute(t *testing.T) {
	tests := []struct {
		name      string
		marks     float64
		total     float64
		wantPct   float64
		wantGrade string
	}{
		{name: "85 of 100", marks: 85, total: 100, wantPct: 85, wantGrade: GradeA},
		{name: "39 of 100", marks: 39, total: 100, wantPct: 39, wantGrade: GradeF},
		{name: "45 of 50", marks: 45, total: 50, wantPct: 90, wantGrade: GradeAPlus},
		{name: "zero total", marks: 10, total: 0, wantPct: 0, wantGrade: GradeF},
		{name: "negative total", marks: 10, total: -5, wantPct: 0, wantGrade: GradeF},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pct, grade := Compute(tt.marks, tt.total)
			assert.False(t, math.IsNaN(pct) || math.IsInf(pct, 0))
			assert.Equal(t, tt.wantPct, pct)
			assert.Equal(t, tt.wantGrade, grade)
		})
	}
}

func TestGrade_monotonic(t *testing.T) {
	rank := map[string]int{GradeF: 0, GradeD: 1, GradeC: 2, GradeB: 3, GradeBPlus: 4, GradeA: 5, GradeAPlus: 6}
	for _, total := range []float64{1, 7, 50, 100, 250} {
		prev := -1
		for marks := 0.0; marks <= total; marks += total / 200 {
			r := rank[Grade(Percentage(marks, total))]
			if r < prev {
				t.Fatalf("grade decreased at marks=%v total=%v", marks, total)
			}
			prev = r
		}
	}
}
