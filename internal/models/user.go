package models

import "time"

const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	Role         string    `json:"role"` // admin | user
	Active       bool      `json:"active"`
	Staff        bool      `json:"staff"`
	Superuser    bool      `json:"superuser"`
	CreatedAt    time.Time `json:"created_at"`
}
