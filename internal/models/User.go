package models

import (
	"time"

	"gorm.io/gorm"
)

// User is an admin-portal account. Accounts are created by a super admin only.
type User struct {
	gorm.Model
	Email          string     `json:"email" gorm:"uniqueIndex;not null"`
	Username       string     `json:"username" gorm:"uniqueIndex;not null"`
	HashedPassword string     `json:"-" gorm:"not null"`
	FullName       string     `json:"full_name"`
	Role           Role       `json:"role" gorm:"type:varchar(32);not null"`
	IsActive       bool       `json:"is_active" gorm:"not null"`
	LastLogin      *time.Time `json:"last_login"`
}
