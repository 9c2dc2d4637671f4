package auth

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/jrsteele09/go-board-client/internal/errors"
)

// passwordSymbols are the only non-alphanumeric characters a password may use.
const passwordSymbols = "!%*#?&"

const minPasswordLength = 8

// Validator checks form input before it is sent to the API.
type Validator struct{}

// NewValidator creates a new Validator instance
func NewValidator() *Validator {
	return &Validator{}
}

// ValidateUserCredentials validates login credentials
func (v *Validator) ValidateUserCredentials(username, password string) error {
	if err := v.ValidateUsername(username); err != nil {
		return err
	}
	if password == "" {
		return fmt.Errorf("%w: password is required", errors.ErrBadRequest)
	}
	return nil
}

// ValidateUsername checks that username looks like an email address.
func (v *Validator) ValidateUsername(username string) error {
	username = strings.TrimSpace(username)
	if username == "" {
		return fmt.Errorf("%w: username is required", errors.ErrBadRequest)
	}

	at := strings.Index(username, "@")
	if at <= 0 || !strings.Contains(username[at+1:], ".") {
		return fmt.Errorf("%w: username must be an email address", errors.ErrBadRequest)
	}
	return nil
}

// ValidatePassword enforces the board's password policy: at least eight
// characters drawn from letters, digits and !%*#?&, with at least one of each
// of the three.
func (v *Validator) ValidatePassword(password string) error {
	if len(password) < minPasswordLength {
		return fmt.Errorf("%w: password must be at least %d characters", errors.ErrBadRequest, minPasswordLength)
	}

	var letter, digit, symbol bool
	for _, r := range password {
		switch {
		case r < unicode.MaxASCII && unicode.IsLetter(r):
			letter = true
		case r < unicode.MaxASCII && unicode.IsDigit(r):
			digit = true
		case strings.ContainsRune(passwordSymbols, r):
			symbol = true
		default:
			return fmt.Errorf("%w: password may only contain letters, digits and %s", errors.ErrBadRequest, passwordSymbols)
		}
	}

	if !letter || !digit || !symbol {
		return fmt.Errorf("%w: password needs a letter, a digit and one of %s", errors.ErrBadRequest, passwordSymbols)
	}
	return nil
}

// ValidateSignup checks every signup field. A confirmation that differs from
// the password is reported as errors.ErrPasswordMismatch.
func (v *Validator) ValidateSignup(req SignupRequest) error {
	if req.Username == "" || req.Name == "" || req.Password == "" || req.ConfirmPassword == "" {
		return fmt.Errorf("%w: all fields are required", errors.ErrBadRequest)
	}
	if err := v.ValidateUsername(req.Username); err != nil {
		return err
	}
	if err := v.ValidatePassword(req.Password); err != nil {
		return err
	}
	if req.Password != req.ConfirmPassword {
		return errors.ErrPasswordMismatch
	}
	return nil
}
