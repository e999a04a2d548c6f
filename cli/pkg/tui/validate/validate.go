package validate

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// ErrorHandler has the shape of textinput.ValidateFunc.
type ErrorHandler func(str string) error

func WithinLen(min, max int, name string) ErrorHandler {
	return func(str string) error {
		n := utf8.RuneCountInString(str)
		if n >= min && n <= max {
			return nil
		}

		return fmt.Errorf(
			"%s must be between %d and %d characters",
			name,
			min,
			max,
		)
	}
}

func MinLen(min int, name string) ErrorHandler {
	return func(str string) error {
		if utf8.RuneCountInString(str) < min {
			return fmt.Errorf("%s must be at least %d characters", name, min)
		}
		return nil
	}
}

func MaxLen(max int, name string) ErrorHandler {
	return func(str string) error {
		if utf8.RuneCountInString(str) > max {
			return fmt.Errorf("%s must be at most %d characters", name, max)
		}
		return nil
	}
}

func NotEmpty(name string) ErrorHandler {
	return func(str string) error {
		if strings.TrimSpace(str) == "" {
			return fmt.Errorf("%s cannot be empty", name)
		}
		return nil
	}
}

// Matches checks str against the value other returns at call time.
func Matches(other func() string, name string) ErrorHandler {
	return func(str string) error {
		if str != other() {
			return fmt.Errorf("%s does not match", name)
		}
		return nil
	}
}

func Compose(input ...ErrorHandler) ErrorHandler {
	return func(str string) error {
		for _, f := range input {
			err := f(str)
			if err != nil {
				return err
			}
		}
		return nil
	}
}

// Optional skips h for an empty string.
func Optional(h ErrorHandler) ErrorHandler {
	return func(str string) error {
		if str == "" {
			return nil
		}
		return h(str)
	}
}
