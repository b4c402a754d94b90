package domain

import "time"

type User struct {
	ID           int64
	Username     string // unique, case sensitive
	PasswordHash string // argon2id PHC string
	CreatedAt    time.Time
}
