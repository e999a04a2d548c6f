package client

import (
	"errors"
	"reflect"
	"strings"
	"sync"
	"unicode"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
)

// ValidationError carries the translated messages of a rejected input. It
// is returned before any request is made.
type ValidationError struct {
	Messages []string
}

func (e *ValidationError) Error() string {
	if len(e.Messages) == 0 {
		return "invalid input"
	}
	return e.Messages[0]
}

func IsValidationError(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

type inputValidator struct {
	once       sync.Once
	validate   *validator.Validate
	translator ut.Translator
}

func (v *inputValidator) Struct(obj any) error {
	v.lazyinit()

	err := v.validate.Struct(obj)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	out := &ValidationError{}
	for _, fe := range fieldErrs {
		out.Messages = append(out.Messages, fe.Translate(v.translator))
	}
	return out
}

func (v *inputValidator) lazyinit() {
	v.once.Do(func() {
		v.validate = validator.New(validator.WithRequiredStructEnabled())
		v.validate.RegisterTagNameFunc(func(f reflect.StructField) string {
			return fieldLabel(f.Name)
		})

		en := en.New()
		uni := ut.New(en, en)
		v.translator, _ = uni.GetTranslator("en")

		_ = en_translations.RegisterDefaultTranslations(v.validate, v.translator)
		v.registerCustomTranslations()
	})
}

func (v *inputValidator) registerCustomTranslations() {
	register := func(tag, text string, withParam bool) {
		_ = v.validate.RegisterTranslation(tag, v.translator, func(ut ut.Translator) error {
			return ut.Add(tag, text, true)
		}, func(ut ut.Translator, fe validator.FieldError) string {
			if withParam {
				t, _ := ut.T(tag, fe.Field(), fe.Param())
				return t
			}
			t, _ := ut.T(tag, fe.Field())
			return t
		})
	}

	register("required", "{0} is required", false)
	register("min", "{0} must be at least {1} characters", true)
	register("max", "{0} must be at most {1} characters", true)
	register("email", "{0} must be a valid email address", false)
	register("eqfield", "Passwords do not match", false)
}

// fieldLabel turns a Go field name into words: NewPassword -> "New password".
func fieldLabel(name string) string {
	var b strings.Builder
	for i, r := range name {
		if i > 0 && unicode.IsUpper(r) {
			b.WriteByte(' ')
			r = unicode.ToLower(r)
		}
		b.WriteRune(r)
	}
	return b.String()
}
