package busroute

import (
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/campus/core"
)

var (
	priorityTag  = "priority"
	priorityText = "must be one of: low, medium, high"
)

// InitValidators registers the bus route validations on validate.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(priorityTag, priorityValidation)
	core.RegisterCustomTranslation(validate, translator, priorityTag, priorityText)
}

func priorityValidation(fl validator.FieldLevel) bool {
	return contains(AllPriorities, fl.Field().String())
}
