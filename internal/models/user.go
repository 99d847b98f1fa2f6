package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// UserAuth represents a user account with credentials and verification state.
// Standardized: Go (PascalCase) -> DB (snake_case) -> JSON (camelCase)
type UserAuth struct {
	ID       string    `gorm:"primaryKey;type:uuid" json:"userID"`
	Name     string    `gorm:"not null" json:"name"`
	DOB      time.Time `json:"dob"`
	Email    string    `gorm:"unique;not null" json:"email"`
	Username string    `gorm:"unique;not null" json:"username"`
	Password string    `gorm:"not null" json:"-"`

	// Email verification & password reset
	EmailVerified        bool       `gorm:"default:false" json:"emailVerified"`
	VerificationToken    string     `json:"-"`
	ResetPasswordToken   string     `json:"-"`
	ResetPasswordExpires *time.Time `json:"-"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// TableName specifies the table name for UserAuth model
func (UserAuth) TableName() string {
	return "user_auths"
}

// BeforeCreate assigns the row id so inserts never rely on a database default
func (u *UserAuth) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}

// PublicUser is the directory view of a user (no credentials, no email)
type PublicUser struct {
	UserID     string      `json:"userID"`
	Username   string      `json:"username"`
	Name       string      `json:"name"`
	PublicInfo interface{} `json:"publicInfo"`
}
