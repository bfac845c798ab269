package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/hashicorp/go-multierror"

	"github.com/idelchi/gocryptor/internal/encryption"
	"github.com/idelchi/gocryptor/internal/engine"
)

// messages maps validation tags onto readable error messages. %s is the field name, %v the parameter.
var messages = map[string]string{
	"required":  "%s is required",
	"min":       "%s must be at least %v",
	"oneof":     "%s must be one of [%v]",
	"extension": "%s must be a dot followed by letters, digits or underscores",
	"backend":   "%s must be one of the supported backends",
	"mode":      "%s must be one of the supported modes",
	"password":  fmt.Sprintf("%%s must be at least %d bytes", engine.MinPasswordLength),
}

// newValidator returns a validator knowing the custom tags of Config.
// Field names in errors are taken from the mapstructure tag, which is also the flag name.
func newValidator() (*validator.Validate, error) {
	validate := validator.New(validator.WithRequiredStructEnabled())

	custom := map[string]validator.Func{
		"extension": validateExtension,
		"backend":   validateBackend,
		"mode":      validateMode,
		"password":  validatePassword,
	}

	for tag, fn := range custom {
		if err := validate.RegisterValidation(tag, fn); err != nil {
			return nil, fmt.Errorf("registering %s validation: %w", tag, err)
		}
	}

	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		const splitSize = 2

		name := strings.SplitN(fld.Tag.Get("mapstructure"), ",", splitSize)[0]
		if name == "" || name == "-" {
			return strings.ToLower(fld.Name)
		}

		return name
	})

	return validate, nil
}

func validateExtension(fl validator.FieldLevel) bool {
	return engine.ValidExtension(fl.Field().String())
}

// validatePassword counts bytes, not runes, to agree with the key derivation input.
func validatePassword(fl validator.FieldLevel) bool {
	return len(fl.Field().String()) >= engine.MinPasswordLength
}

func validateBackend(fl validator.FieldLevel) bool {
	_, err := encryption.ParseBackend(fl.Field().String())

	return err == nil
}

func validateMode(fl validator.FieldLevel) bool {
	_, err := encryption.ParseMode(fl.Field().String())

	return err == nil
}

// translate turns validator errors into one readable error per failed field.
func translate(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	var errs *multierror.Error

	for _, fe := range verrs {
		format, ok := messages[fe.Tag()]
		if !ok {
			errs = multierror.Append(errs, fmt.Errorf("%s failed the %q check", fe.Field(), fe.Tag()))

			continue
		}

		if strings.Contains(format, "%v") {
			errs = multierror.Append(errs, fmt.Errorf(format, fe.Field(), fe.Param()))
		} else {
			errs = multierror.Append(errs, fmt.Errorf(format, fe.Field()))
		}
	}

	return errs.ErrorOrNil()
}
