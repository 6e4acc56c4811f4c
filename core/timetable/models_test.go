package timetable

import (
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/campus/core"
)

func newTestValidator() *validator.Validate {
	translator := core.NewTranslator()
	validate := core.NewValidator(translator)
	InitValidators(validate, translator)
	return validate
}

func TestNewTimeTable_Validate(t *testing.T) {
	validate := newTestValidator()

	slot := func(day, start, end string) Slot {
		return Slot{Day: day, StartTime: start, EndTime: end, Subject: "Maths", Faculty: "f1", Class: "CS-A"}
	}

	tests := []struct {
		name       string
		slots      []Slot
		wantFields []string
	}{
		{name: "no slots"},
		{name: "valid", slots: []Slot{slot("monday", "09:00", "10:00"), slot(" Friday ", "14:30", "15:30")}},
		{name: "bad day", slots: []Slot{slot("Funday", "09:00", "10:00")}, wantFields: []string{"day"}},
		{name: "bad clock", slots: []Slot{slot("Monday", "9am", "10:00")}, wantFields: []string{"startTime"}},
		{name: "ends before start", slots: []Slot{slot("Monday", "10:00", "09:00")}, wantFields: []string{"endTime"}},
		{name: "zero length", slots: []Slot{slot("Monday", "10:00", "10:00")}, wantFields: []string{"endTime"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			nt := NewTimeTable{Name: "CS Sem 1", AcademicYear: "2024-2025", Slots: tt.slots}
			err := nt.Validate(validate)
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

	t.Run("normalizes days", func(t *testing.T) {
		nt := NewTimeTable{Name: "x", AcademicYear: "2024", Slots: []Slot{slot(" tuesday", "08:00", "09:00")}}
		require.NoError(t, nt.Validate(validate))
		assert.Equal(t, "Tuesday", nt.Slots[0].Day)
	})
}

func TestClassDay_Validate(t *testing.T) {
	validate := newTestValidator()

	cd := ClassDay{
		Class: "CS-A",
		Day:   "wednesday",
		Periods: []Period{
			{Period: 2, Subject: "Physics", StartTime: "10:00", EndTime: "11:00"},
			{Period: 1, Subject: "Maths", StartTime: "09:00", EndTime: "10:00"},
		},
	}
	require.NoError(t, cd.Validate(validate))
	assert.Equal(t, "Wednesday", cd.Day)
	assert.Equal(t, 1, cd.Periods[0].Period, "sorted by period")

	cd.Periods[1].Period = 1
	assert.Equal(t, ErrDuplicatePeriod, cd.Validate(validate))

	empty := ClassDay{Class: "CS-A", Day: "Monday"}
	assert.Error(t, empty.Validate(validate))
}

func TestSortSchedule(t *testing.T) {
	entries := []ScheduleEntry{
		{Slot: Slot{Day: "Friday", StartTime: "09:00"}},
		{Slot: Slot{Day: "Monday", StartTime: "14:00"}},
		{Slot: Slot{Day: "Monday", StartTime: "08:30"}},
		{Slot: Slot{Day: "Wednesday", StartTime: "11:00"}},
	}
	sortSchedule(entries)

	var got []string
	for _, e := range entries {
		got = append(got, e.Day+" "+e.StartTime)
	}
	assert.Equal(t, []string{"Monday 08:30", "Monday 14:00", "Wednesday 11:00", "Friday 09:00"}, got)
}
