package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// validate reports fields by their koanf keys, so errors name the same
// dotted path users write in YAML or APP_ variables.
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		if name := f.Tag.Get("koanf"); name != "" && name != "-" {
			return name
		}

		return f.Name
	})

	return v
}

// FieldError is one invalid configuration key.
type FieldError struct {
	// Key is the dotted config key, e.g. "client.base_url".
	Key     string
	Message string
}

func (e *FieldError) Error() string {
	return e.Key + " " + e.Message
}

// Validate checks c and returns every invalid key at once. Each joined
// error is a *FieldError.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("config validation failed: %w", err)
	}

	errs := make([]error, 0, len(verrs))
	for _, fe := range verrs {
		errs = append(errs, &FieldError{Key: configKey(fe.Namespace()), Message: fieldMessage(fe)})
	}

	return fmt.Errorf("config validation failed:\n%w", errors.Join(errs...))
}

func fieldMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "is required"
	case "required_if":
		return "is required when " + e.Param()
	case "min":
		return "must be at least " + e.Param()
	case "max":
		return "must be at most " + e.Param()
	case "oneof":
		return "must be one of: " + e.Param()
	case "url", "http_url":
		return "must be a valid URL"
	case "startswith":
		return fmt.Sprintf("must start with %q", e.Param())
	default:
		return "failed validation: " + e.Tag()
	}
}

// configKey drops the root struct name: "Config.client.base_url" becomes
// "client.base_url".
func configKey(namespace string) string {
	if _, rest, ok := strings.Cut(namespace, "."); ok {
		return rest
	}

	return namespace
}
