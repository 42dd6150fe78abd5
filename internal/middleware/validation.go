package middleware

import (
	"errors"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/mediconnect/clinical-api/internal/model"
	"github.com/mediconnect/clinical-api/pkg/httputil"
)

// Validators are the custom binding tags used by request models.
var Validators = map[string]validator.Func{
	"action_type": func(fl validator.FieldLevel) bool {
		return model.ActionType(fl.Field().String()).Valid()
	},
	"action_status": func(fl validator.FieldLevel) bool {
		return model.ActionStatus(fl.Field().String()).Valid()
	},
	"priority": func(fl validator.FieldLevel) bool {
		return model.Priority(fl.Field().String()).Valid()
	},
	"org_type": func(fl validator.FieldLevel) bool {
		return model.OrganizationType(fl.Field().String()).Valid()
	},
	"user_role": func(fl validator.FieldLevel) bool {
		return model.Role(fl.Field().String()).Valid()
	},
}

// RegisterValidators installs the custom tags on gin's validator and makes
// errors report json field names.
func RegisterValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return errors.New("gin binding validator is not go-playground/validator")
	}

	v.RegisterTagNameFunc(httputil.JSONTagName)
	for tag, fn := range Validators {
		if err := v.RegisterValidation(tag, fn); err != nil {
			return err
		}
	}
	return nil
}
