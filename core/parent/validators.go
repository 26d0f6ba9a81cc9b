package parent

import (
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/user"
)

func init() {
	core.Validate.RegisterStructValidation(parentStructValidation, SelfRegistration{})
	core.Validate.RegisterStructValidation(parentStructValidation, ActivateParent{})
}

// parentStructValidation applies the back-office password policy to
// parent-chosen passwords as well.
func parentStructValidation(sl validator.StructLevel) {
	switch prt := sl.Current().Interface().(type) {
	case SelfRegistration:
		user.ValidatePassword(prt.Password, sl, prt.Email, prt.Name)
	case ActivateParent:
		user.ValidatePassword(prt.Password, sl)
	}
}
