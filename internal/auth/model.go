package auth

import (
	"time"
)

type Account struct {
	ID                 uint   `gorm:"primaryKey"`
	Username           string `gorm:"uniqueIndex;not null"`
	Email              string `gorm:"uniqueIndex;not null"`
	PasswordHash       string `gorm:"not null"`
	Bio                string
	AvatarURL          string
	FailedLoginCount   int `gorm:"not null;default:0"`
	LockoutEndTime     *time.Time
	ResetCode          *string
	ResetCodeExpiresAt *time.Time
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

func (Account) TableName() string {
	return "users"
}

// LockedAt reports whether the account is inside an active lockout window.
func (a *Account) LockedAt(now time.Time) bool {
	return a.LockoutEndTime != nil && a.LockoutEndTime.After(now)
}

// Login attempt outcomes recorded in the audit trail.
const (
	LoginOutcomeSuccess = "SUCCESS"
	LoginOutcomeFailed  = "FAILED"
)

// LoginHistory is an append-only audit row, one per login attempt.
// Rows are never updated or deleted.
type LoginHistory struct {
	ID         uint   `gorm:"primaryKey"`
	Identifier string `gorm:"not null"`
	Status     string `gorm:"not null"`
	IPAddress  string
	UserAgent  string
	CreatedAt  time.Time
}

func (LoginHistory) TableName() string {
	return "login_history"
}
