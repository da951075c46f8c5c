package auth

import (
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

const (
	MinUsernameLen = 3

	// UsernameCharsTag is the validator tag enforcing the username character set
	UsernameCharsTag = "username_chars"
)

// Messages returned by ValidateLogin
const (
	MsgUsernameTooShort = "username must be at least 3 characters"
	MsgUsernameCharset  = "username may only contain letters, digits, and _ @ . -"
	MsgPasswordRequired = "password is required"
	MsgPasswordTooWeak  = "password does not meet strength requirements"
)

var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_@.-]+$`)

var (
	loginValidator     *validator.Validate
	loginValidatorOnce sync.Once
)

// ValidationError holds every violated login input rule
type ValidationError struct {
	Errors []string
}

func (e *ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "validation failed"
	}
	return "validation failed: " + strings.Join(e.Errors, "; ")
}

// LoginValidationResult is the accept/reject decision for a username/password pair
type LoginValidationResult struct {
	IsValid bool     `json:"isValid"`
	Errors  []string `json:"errors"`
}

// Err returns a *ValidationError when the input was rejected, nil otherwise
func (r LoginValidationResult) Err() error {
	if r.IsValid {
		return nil
	}
	return &ValidationError{Errors: r.Errors}
}

// RegisterValidations adds the username_chars tag to v so request DTOs can
// share the same username rule.
func RegisterValidations(v *validator.Validate) error {
	return v.RegisterValidation(UsernameCharsTag, func(fl validator.FieldLevel) bool {
		return usernamePattern.MatchString(fl.Field().String())
	})
}

func getLoginValidator() *validator.Validate {
	loginValidatorOnce.Do(func() {
		v := validator.New()
		if err := RegisterValidations(v); err != nil {
			panic(err)
		}
		loginValidator = v
	})
	return loginValidator
}

// ValidateLogin checks username format and password strength. All violated
// rules are collected so the caller can show every problem at once.
func ValidateLogin(username, password string) LoginValidationResult {
	v := getLoginValidator()
	errs := make([]string, 0)

	// Each rule is checked on its own; a tag list would stop at the first failure.
	if v.Var(username, fmt.Sprintf("min=%d", MinUsernameLen)) != nil {
		errs = append(errs, MsgUsernameTooShort)
	}
	if v.Var(username, UsernameCharsTag) != nil {
		errs = append(errs, MsgUsernameCharset)
	}

	if v.Var(password, "required") != nil {
		errs = append(errs, MsgPasswordRequired)
	}
	if !Analyze(password).IsValid {
		errs = append(errs, MsgPasswordTooWeak)
	}

	return LoginValidationResult{
		IsValid: len(errs) == 0,
		Errors:  errs,
	}
}
