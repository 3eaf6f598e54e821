// Package security filters free-text input from buyers.
package security

import (
	"strconv"
	"strings"

	validator "github.com/go-playground/validator/v10"
)

// DefaultMaxLength bounds free-text input in runes.
const DefaultMaxLength = 100

// deniedFragments are rejected case-insensitively. This blocks the listed substrings only;
// it neither escapes nor neutralizes anything else.
var deniedFragments = []string{"<script>", "../", ";", "--"}

// InputValidator rejects empty, oversized or denylisted text.
type InputValidator struct {
	validate *validator.Validate
}

// NewInputValidator registers the safetext rule on a fresh validator.
func NewInputValidator() *InputValidator {
	v := validator.New()
	// RegisterValidation only fails for an empty tag or nil func.
	_ = v.RegisterValidation("safetext", func(fl validator.FieldLevel) bool {
		return !containsDenied(fl.Field().String())
	})
	return &InputValidator{validate: v}
}

// Valid checks text against DefaultMaxLength.
func (iv *InputValidator) Valid(text string) bool {
	return iv.ValidN(text, DefaultMaxLength)
}

// ValidN checks text against maxLength.
func (iv *InputValidator) ValidN(text string, maxLength int) bool {
	if text == "" || maxLength <= 0 {
		return false
	}
	rules := "required,max=" + strconv.Itoa(maxLength) + ",safetext"
	return iv.validate.Var(text, rules) == nil
}

func containsDenied(text string) bool {
	lower := strings.ToLower(text)
	for _, fragment := range deniedFragments {
		if strings.Contains(lower, fragment) {
			return true
		}
	}
	return false
}
