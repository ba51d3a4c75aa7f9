package validation

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/zfogg/formdesk/internal/models"
	"github.com/zfogg/formdesk/internal/tasks"
)

// RegisterBindings adds the domain validators used in request binding tags:
// tag, recurrence_unit and role.
func RegisterBindings() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return fmt.Errorf("unexpected binding engine %T", binding.Validator.Engine())
	}
	return Register(v)
}

// Register adds the domain validators to v and reports fields by their
// JSON names.
func Register(v *validator.Validate) error {
	v.RegisterTagNameFunc(jsonName)

	validators := map[string]validator.Func{
		"tag": func(fl validator.FieldLevel) bool {
			return tasks.ValidTag(fl.Field().String())
		},
		"recurrence_unit": func(fl validator.FieldLevel) bool {
			return models.RecurrenceUnit(fl.Field().String()).Valid()
		},
		"role": func(fl validator.FieldLevel) bool {
			return models.Role(fl.Field().String()).Valid()
		},
	}
	for name, fn := range validators {
		if err := v.RegisterValidation(name, fn); err != nil {
			return fmt.Errorf("register %s validator: %w", name, err)
		}
	}
	return nil
}

func jsonName(field reflect.StructField) string {
	name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
	switch name {
	case "-":
		return ""
	case "":
		return field.Name
	}
	return name
}
