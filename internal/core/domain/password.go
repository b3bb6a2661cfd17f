package domain

import "unicode"

const (
	// PasswordMinLength is the minimum length accepted for new passwords.
	PasswordMinLength = 8
	// PasswordMaxBytes is the longest input bcrypt will hash.
	PasswordMaxBytes = 72
)

// PasswordRule is one strength requirement for new passwords.
type PasswordRule struct {
	Message string
	Check   func(string) bool
}

// PasswordRules are applied on registration and by the admin CLI.
var PasswordRules = []PasswordRule{
	{
		Message: "La contraseña debe tener al menos una letra mayúscula",
		Check:   func(s string) bool { return containsRune(s, unicode.IsUpper) },
	},
	{
		Message: "La contraseña debe tener al menos una letra minúscula",
		Check:   func(s string) bool { return containsRune(s, unicode.IsLower) },
	},
	{
		Message: "La contraseña debe tener al menos un número",
		Check:   func(s string) bool { return containsRune(s, unicode.IsDigit) },
	},
	{
		Message: "La contraseña debe tener al menos un símbolo (por ejemplo: !@#$%^&*)",
		Check: func(s string) bool {
			return containsRune(s, func(r rune) bool {
				return !unicode.IsLetter(r) && !unicode.IsDigit(r)
			})
		},
	},
}

// CheckPassword returns a ValidationError listing every unmet rule, or nil.
func CheckPassword(password string) error {
	var msgs []string
	if len([]rune(password)) < PasswordMinLength {
		msgs = append(msgs, "La contraseña debe tener al menos 8 caracteres")
	}
	if len(password) > PasswordMaxBytes {
		msgs = append(msgs, "La contraseña no puede superar los 72 bytes")
	}
	for _, rule := range PasswordRules {
		if !rule.Check(password) {
			msgs = append(msgs, rule.Message)
		}
	}
	if len(msgs) > 0 {
		return NewValidationError(msgs...)
	}
	return nil
}

func containsRune(s string, pred func(rune) bool) bool {
	for _, r := range s {
		if pred(r) {
			return true
		}
	}
	return false
}
