package class

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/darasa/core"
)

var (
	classTimeTag  = "classtime"
	classTimeText = "must be a 24h time in HH:MM format"
)

func init() {
	_ = core.Validate.RegisterValidation(classTimeTag, classTimeValidation)
	core.RegisterCustomTranslation(classTimeTag, classTimeText)
}

// classTimeValidation checks that a schedule bound is a zero-padded "HH:MM".
// Zero-padding matters: it keeps plain string comparison consistent with
// chronological order.
func classTimeValidation(fl validator.FieldLevel) bool {
	_, err := time.Parse("15:04", fl.Field().String())
	return err == nil
}
