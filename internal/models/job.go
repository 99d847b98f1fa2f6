package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Job is a job-board posting owned by a user
type Job struct {
	ID     string `gorm:"primaryKey;type:uuid" json:"jobID"`
	UserID string `gorm:"type:uuid;not null;index" json:"-"`

	Title          string  `gorm:"not null" json:"title"`
	Description    string  `gorm:"not null" json:"description"`
	Price          float64 `gorm:"not null" json:"price"`
	ContractPeriod string  `gorm:"not null" json:"contractPeriod"`
	IsComplete     bool    `gorm:"default:false" json:"isComplete"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// TableName specifies the table name for Job model
func (Job) TableName() string {
	return "jobs"
}

func (j *Job) BeforeCreate(tx *gorm.DB) error {
	if j.ID == "" {
		j.ID = uuid.NewString()
	}
	return nil
}

// PublicJob is a job with its poster's public identity attached
type PublicJob struct {
	Job
	User PublicUser `json:"user"`
}
