package service

import (
	"net/mail"
	"regexp"
	"strings"
	"unicode"
)

// PasswordPolicy is checked on registration and password change.
type PasswordPolicy struct {
	MinLength      int
	RequireUpper   bool
	RequireLower   bool
	RequireDigit   bool
	RequireSpecial bool
}

var DefaultPasswordPolicy = PasswordPolicy{
	MinLength:      8,
	RequireUpper:   true,
	RequireLower:   true,
	RequireDigit:   true,
	RequireSpecial: true,
}

// Check returns one message per unmet rule.
func (p PasswordPolicy) Check(pw string) []string {
	var out problems

	if n := len([]rune(pw)); n < p.MinLength {
		out.add("password must be at least %d characters", p.MinLength)
	}

	var upper, lower, digit, special bool
	for _, r := range pw {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		case unicode.IsPunct(r) || unicode.IsSymbol(r) || unicode.IsSpace(r):
			special = true
		}
	}

	if p.RequireUpper && !upper {
		out.add("password must contain an uppercase letter")
	}
	if p.RequireLower && !lower {
		out.add("password must contain a lowercase letter")
	}
	if p.RequireDigit && !digit {
		out.add("password must contain a digit")
	}
	if p.RequireSpecial && !special {
		out.add("password must contain a special character")
	}

	return out
}

var usernamePattern = regexp.MustCompile(`^[A-Za-z0-9_.-]{3,32}$`)

func checkUsername(out *problems, username string) {
	switch {
	case username == "":
		out.add("username is required")
	case !usernamePattern.MatchString(username):
		out.add("username must be 3-32 characters of letters, digits, '.', '_' or '-'")
	}
}

func checkEmail(out *problems, email string) {
	if email == "" {
		out.add("email is required")
		return
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email || !strings.Contains(email[strings.LastIndex(email, "@")+1:], ".") {
		out.add("email is not a valid address")
	}
}

// normaliseEmail trims and lower-cases so uniqueness is case-insensitive.
func normaliseEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
