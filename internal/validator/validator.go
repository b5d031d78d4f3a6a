// Package validator holds the custom validation rules shared by gin request
// binding and the credential helpers.
package validator

import (
	"regexp"
	"strings"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var usernameRegex = regexp.MustCompile(`^[A-Za-z0-9._-]{3,50}$`)

var (
	once     sync.Once
	standard *validator.Validate
)

// Register installs the custom tags on gin's binding engine.
func Register() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		registerTags(v)
	}
}

func registerTags(v *validator.Validate) {
	_ = v.RegisterValidation("username", validateUsername)
	_ = v.RegisterValidation("pos_role", validateRole)
	_ = v.RegisterValidation("pin", validatePIN)
}

// Var validates a single value against tag using a package-owned engine that
// carries the same custom tags as the gin one.
func Var(value any, tag string) error {
	once.Do(func() {
		standard = validator.New()
		registerTags(standard)
	})
	return standard.Var(value, tag)
}

func validateUsername(fl validator.FieldLevel) bool {
	return usernameRegex.MatchString(fl.Field().String())
}

func validateRole(fl validator.FieldLevel) bool {
	switch strings.ToLower(fl.Field().String()) {
	case "owner", "admin", "manager", "cashier":
		return true
	}
	return false
}

func validatePIN(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	if len(s) < 4 || len(s) > 6 {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
