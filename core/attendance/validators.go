package attendance

import (
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/campus/core"
)

var (
	statusTag  = "attendance_status"
	statusText = "must be one of: present, absent, late"

	markedViaTag  = "marked_via"
	markedViaText = "must be one of: scanner, manual, code"
)

// InitValidators registers the attendance validations on validate.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(statusTag, oneOf(AllStatuses))
	core.RegisterCustomTranslation(validate, translator, statusTag, statusText)

	_ = validate.RegisterValidation(markedViaTag, oneOf(AllVias))
	core.RegisterCustomTranslation(validate, translator, markedViaTag, markedViaText)
}

func oneOf(values []string) validator.Func {
	return func(fl validator.FieldLevel) bool {
		v := fl.Field().String()
		for _, val := range values {
			if v == val {
				return true
			}
		}
		return false
	}
}
