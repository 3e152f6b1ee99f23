// Package schema validates decoded manifests, listings and configuration against their struct tags.
package schema

import (
	"errors"
	"regexp"
	"strings"
	"sync"

	"github.com/Masterminds/semver/v3"
	"github.com/go-playground/validator/v10"
	"go.trai.ch/zerr"
)

var namePattern = regexp.MustCompile(`^[a-z0-9][a-z0-9._+-]*$`)

var instance = sync.OnceValue(func() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("pkgname", func(fl validator.FieldLevel) bool {
		return namePattern.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("pkgversion", func(fl validator.FieldLevel) bool {
		_, err := semver.NewVersion(fl.Field().String())
		return err == nil
	})
	_ = v.RegisterValidation("constraint", func(fl validator.FieldLevel) bool {
		_, err := semver.NewConstraint(fl.Field().String())
		return err == nil
	})
	return v
})

// Validate checks v against its validate tags. Failures are wrapped in sentinel, with
// every offending field listed in the "fields" metadata.
func Validate(v any, sentinel error) error {
	err := instance().Struct(v)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return zerr.Wrap(sentinel, err.Error())
	}

	fields := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		fields = append(fields, fe.Namespace()+" ("+fe.Tag()+")")
	}
	wrapped := zerr.Wrap(sentinel, "validation failed: "+strings.Join(fields, ", "))
	return zerr.With(wrapped, "fields", fields)
}

// ValidName reports whether s is a valid package or repository name.
func ValidName(s string) bool {
	return namePattern.MatchString(s)
}
