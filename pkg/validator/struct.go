package validator

import (
	"errors"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	apperrors "github.com/yi-nology/asset_tracker/pkg/errors"
)

var (
	once     sync.Once
	instance *validator.Validate
)

// Instance returns the shared validator with the custom tags registered.
func Instance() *validator.Validate {
	once.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name == "" {
				return fld.Name
			}
			return name
		})
		_ = v.RegisterValidation("serial", func(fl validator.FieldLevel) bool {
			_, ok := SanitizeSerial(fl.Field().String())
			return ok
		})
		instance = v
	})
	return instance
}

// Struct validates a command and converts failures into a VALIDATION_FAILED
// AppError carrying one FieldError per offending field.
func Struct(cmd interface{}) error {
	err := Instance().Struct(cmd)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apperrors.Validation(err.Error())
	}
	fields := make([]apperrors.FieldError, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, apperrors.FieldError{
			Field:   fe.Field(),
			Code:    fe.Tag(),
			Message: fieldMessage(fe),
		})
	}
	return apperrors.Validation("invalid "+fields[0].Field, fields...)
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "oneof":
		return fe.Field() + " must be one of: " + fe.Param()
	case "max":
		return fe.Field() + " exceeds " + fe.Param()
	case "min":
		return fe.Field() + " must be at least " + fe.Param()
	case "serial":
		return fe.Field() + " is not a valid serial number"
	default:
		return fe.Field() + " failed " + fe.Tag()
	}
}
