package model

import "time"

// Role is an account's authorization level.
type Role string

const (
	RoleStudent Role = "student"
	RoleAdmin   Role = "admin"
)

// Account is a registered user. PasswordHash holds a bcrypt digest and is
// never serialized.
type Account struct {
	ID           string    `gorm:"primaryKey;size:36" json:"id"`
	Username     string    `gorm:"uniqueIndex;size:64;not null" json:"username"`
	FullName     string    `gorm:"uniqueIndex;size:128;not null" json:"fullName"`
	StudentID    string    `gorm:"uniqueIndex;size:32;not null" json:"studentId"`
	Phone        string    `gorm:"uniqueIndex;size:32;not null" json:"phone,omitempty"`
	Email        string    `gorm:"uniqueIndex;size:256;not null" json:"email"`
	Role         Role      `gorm:"size:16;not null;default:student" json:"role"`
	PasswordHash string    `gorm:"size:72;not null" json:"-"`
	CreatedAt    time.Time `gorm:"not null" json:"createdAt,omitempty"`
	UpdatedAt    time.Time `json:"-"`
}
