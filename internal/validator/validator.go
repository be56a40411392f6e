// Package validator holds the shared go-playground validator instance and
// the custom tags used on domain types.
package validator

import (
	"errors"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/jatinverma85276/Credit-Card-Optimiser/internal/domain"
)

// Validate is the process-wide validator. Custom tags are registered in init.
var Validate *validator.Validate

var nonSpaceRe = regexp.MustCompile(`\S`)

func init() {
	Validate = validator.New(validator.WithRequiredStructEnabled())

	// notblank: string is non-empty and not only whitespace.
	_ = Validate.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return nonSpaceRe.MatchString(fl.Field().String())
	})
}

// Struct validates s and converts the first failure into a
// *domain.ErrValidation.
func Struct(s any) error {
	err := Validate.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return &domain.ErrValidation{
			Field:   fieldPath(fe.Namespace()),
			Message: "failed on '" + fe.Tag() + "'",
		}
	}
	return &domain.ErrValidation{Field: "body", Message: err.Error()}
}

// fieldPath drops the root struct name: "Card.RewardRules[0].Merchants[1]"
// becomes "RewardRules[0].Merchants[1]".
func fieldPath(ns string) string {
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return ns
}
