package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

const (
	UserStatusActive = "active"
	UserStatusLocked = "locked"

	RoleAdministrator = "Administrator"
	RoleUser          = "User"
)

type User struct {
	Base
	Email            string         `db:"email" json:"email"`
	Name             string         `db:"name" json:"name"`
	PasswordHash     string         `db:"password_hash" json:"-"`
	RoleID           uuid.UUID      `db:"role_id" json:"role_id"`
	RoleName         string         `db:"role_name" json:"role,omitempty"`
	Status           string         `db:"status" json:"status"`
	FCMTokens        pq.StringArray `db:"fcm_tokens" json:"fcm_tokens,omitempty"`
	LoginAttempts    int            `db:"login_attempts" json:"-"`
	LastLoginAttempt *time.Time     `db:"last_login_attempt" json:"-"`
	LastLoginAt      *time.Time     `db:"last_login_at" json:"last_login_at,omitempty"`
}

type Role struct {
	ID        uuid.UUID `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
