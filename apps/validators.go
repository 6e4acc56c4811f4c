package apps

import (
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/campus/core"
	"github.com/trezcool/campus/core/attendance"
	"github.com/trezcool/campus/core/busroute"
	"github.com/trezcool/campus/core/timetable"
	"github.com/trezcool/campus/core/user"
)

// NewValidator returns a validator knowing every domain validation, and the translator for its errors.
func NewValidator() (*validator.Validate, ut.Translator) {
	translator := core.NewTranslator()
	validate := core.NewValidator(translator)
	user.InitValidators(validate, translator)
	attendance.InitValidators(validate, translator)
	busroute.InitValidators(validate, translator)
	timetable.InitValidators(validate, translator)
	return validate, translator
}
