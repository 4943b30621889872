package domain

import "time"

type User struct {
	ID           string
	Username     string
	Email        string
	PasswordHash string // argon2id PHC, or legacy bcrypt until next login
	Role         Role
	Currency     Currency
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
