package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// UserProfile holds the public and anonymous (MaskON) identities of a user.
// The anonymous identity must stay unique so MaskON posts cannot collide.
type UserProfile struct {
	ID     string `gorm:"primaryKey;type:uuid" json:"profileID"`
	UserID string `gorm:"type:uuid;uniqueIndex;not null" json:"userID"`

	Privacy bool `gorm:"default:false" json:"privacy"`

	// Free-form public info: bio, skills, achievements, portfolio
	PublicInfo datatypes.JSON `json:"publicInfo"`

	AnonymousIdentity string `gorm:"unique;not null" json:"anonymousIdentity"`
	AnonymousDetails  string `json:"anonymousDetails"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// TableName specifies the table name for UserProfile model
func (UserProfile) TableName() string {
	return "user_profiles"
}

func (p *UserProfile) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}
