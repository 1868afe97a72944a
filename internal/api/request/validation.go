package request

import (
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Aliases double as the local part of a user principal name and a resource
// group name segment, so the character set is the intersection of both.
var aliasRegex = regexp.MustCompile(`^[a-z][a-z0-9._-]{0,62}$`)

func init() {
	validate.RegisterValidation("alias", func(fl validator.FieldLevel) bool {
		return aliasRegex.MatchString(fl.Field().String())
	})
}

func Decode(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	if err := validate.Struct(v); err != nil {
		return fmt.Errorf("validation error: %w", err)
	}
	return nil
}

func RequireID(s string) (string, error) {
	if s == "" {
		return "", fmt.Errorf("missing required ID")
	}
	return s, nil
}
