package attendance

import (
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sessions(class, student string, present, total int) []Attendance {
	recs := make([]Attendance, 0, total)
	for i := 0; i < total; i++ {
		status := StatusAbsent
		if i < present {
			status = StatusPresent
		}
		recs = append(recs, Attendance{
			ID:      fmt.Sprintf("%s-%s-%d", class, student, i),
			Student: student,
			Class:   class,
			Subject: fmt.Sprintf("subj-%d", i),
			Status:  status,
		})
	}
	return recs
}

func TestPercentage(t *testing.T) {
	c1 := sessions("C1", "S1", 7, 10)

	tests := []struct {
		name    string
		records []Attendance
		student string
		class   string
		want    float64
	}{
		{name: "no records", records: nil, student: "S1", class: "C1", want: 0},
		{name: "zero sessions for class", records: c1, student: "S1", class: "C2", want: 0},
		{name: "7 of 10", records: c1, student: "S1", class: "C1", want: 70},
		{name: "other student", records: c1, student: "S2", class: "C1", want: 0},
		{
			name:    "late is not present",
			records: []Attendance{{Student: "S1", Class: "C1", Status: StatusLate}, {Student: "S1", Class: "C1", Status: StatusPresent}},
			student: "S1", class: "C1", want: 50,
		},
		{
			name:    "denominator counts every student's sessions",
			records: append(sessions("C1", "S1", 2, 2), sessions("C1", "S2", 2, 2)...),
			student: "S1", class: "C1", want: 50,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Percentage(tt.records, tt.student, tt.class)
			assert.InDelta(t, tt.want, got, 1e-9)
			assert.False(t, math.IsNaN(got))
		})
	}
}

func TestSummarize(t *testing.T) {
	records := append(sessions("C1", "S1", 7, 10), sessions("C2", "S1", 1, 4)...)
	records = append(records, sessions("C2", "S2", 4, 4)...)
	records = append(records, sessions("C3", "S2", 1, 1)...)
	records = append(records, Attendance{Student: "S1", Class: "C2", Status: StatusLate})

	got := Summarize(records, "S1")
	require.Len(t, got, 2)

	assert.Equal(t, "C1", got[0].Class)
	assert.Equal(t, 10, got[0].Total)
	assert.Equal(t, 7, got[0].Present)
	assert.Equal(t, 3, got[0].Absent)
	assert.InDelta(t, 70, got[0].Percentage, 1e-9)

	assert.Equal(t, "C2", got[1].Class)
	assert.Equal(t, 9, got[1].Total)
	assert.Equal(t, 1, got[1].Present)
	assert.Equal(t, 3, got[1].Absent)
	assert.Equal(t, 1, got[1].Late)
	assert.InDelta(t, 100.0/9, got[1].Percentage, 1e-9)

	for _, sum := range got {
		assert.InDelta(t, Percentage(records, "S1", sum.Class), sum.Percentage, 1e-9)
	}

	assert.Empty(t, Summarize(records, "nobody"))
}
