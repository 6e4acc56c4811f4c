package timetable

import (
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/campus/core"
)

var (
	afterStartTag  = "after_start"
	afterStartText = "must be later than the start time"
)

// InitValidators registers the timetable validations on validate.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	validate.RegisterStructValidation(timeRangeValidation, Slot{}, Period{})
	core.RegisterCustomTranslation(validate, translator, afterStartTag, afterStartText)
}

// timeRangeValidation checks that a Slot or Period ends after it starts.
// Both times are zero-padded "HH:MM" once valid, so they compare as strings.
func timeRangeValidation(sl validator.StructLevel) {
	var start, end string
	switch v := sl.Current().Interface().(type) {
	case Slot:
		start, end = v.StartTime, v.EndTime
	case Period:
		start, end = v.StartTime, v.EndTime
	default:
		return
	}
	if core.IsClock(start) && core.IsClock(end) && end <= start {
		sl.ReportError(end, "endTime", "EndTime", afterStartTag, "")
	}
}
