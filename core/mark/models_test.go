package mark

import (
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/campus/core"
	"github.com/trezcool/campus/core/grading"
)

func TestMark_applyGrade(t *testing.T) {
	m := Mark{Marks: 85, TotalMarks: 100}
	require.NoError(t, m.applyGrade())
	assert.InDelta(t, 85, m.Percentage, 1e-9)
	assert.Equal(t, grading.GradeA, m.Grade)

	m = Mark{Marks: 39, TotalMarks: 100}
	require.NoError(t, m.applyGrade())
	assert.Equal(t, grading.GradeF, m.Grade)

	m = Mark{Marks: 10, TotalMarks: 0}
	assert.Equal(t, ErrInvalidTotal, m.applyGrade())
}

func TestNewMark_Validate(t *testing.T) {
	validate := core.NewValidator(core.NewTranslator())

	tests := []struct {
		name       string
		nm         NewMark
		wantFields []string
	}{
		{name: "valid", nm: NewMark{Student: "s1", Subject: "Maths", Exam: "Mid", Marks: 85, TotalMarks: 100}},
		{name: "zero marks", nm: NewMark{Student: "s1", Subject: "Maths", Exam: "Mid", Marks: 0, TotalMarks: 100}},
		{name: "zero total", nm: NewMark{Student: "s1", Subject: "Maths", Exam: "Mid", Marks: 0, TotalMarks: 0}, wantFields: []string{"totalMarks"}},
		{name: "negative marks", nm: NewMark{Student: "s1", Subject: "Maths", Exam: "Mid", Marks: -1, TotalMarks: 100}, wantFields: []string{"marks"}},
		{name: "bonus marks", nm: NewMark{Student: "s1", Subject: "Maths", Exam: "Mid", Marks: 101, TotalMarks: 100}},
		{name: "missing keys", nm: NewMark{Subject: "  ", Marks: 1, TotalMarks: 10}, wantFields: []string{"student", "subject", "exam"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.nm.Validate(validate)
			if len(tt.wantFields) == 0 {
				require.NoError(t, err)
				return
			}
			vErrs, ok := err.(validator.ValidationErrors)
			require.True(t, ok, "got %v", err)
			var fields []string
			for _, fe := range vErrs {
				fields = append(fields, fe.Field())
			}
			assert.ElementsMatch(t, tt.wantFields, fields)
		})
	}
}

func TestNewReportCard(t *testing.T) {
	rc := NewReportCard("s1", nil)
	assert.Empty(t, rc.Marks)
	assert.Zero(t, rc.Percentage)
	assert.Empty(t, rc.Grade)

	rc = NewReportCard("s1", []Mark{
		{Subject: "Maths", Exam: "Mid", Marks: 45, TotalMarks: 50},
		{Subject: "Physics", Exam: "Mid", Marks: 40, TotalMarks: 50},
	})
	assert.InDelta(t, 85, rc.Obtained, 1e-9)
	assert.InDelta(t, 100, rc.Total, 1e-9)
	assert.InDelta(t, 85, rc.Percentage, 1e-9)
	assert.Equal(t, grading.GradeA, rc.Grade)
}
