package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// FriendRequest is a pending, directed request from one user to another
type FriendRequest struct {
	ID     string `gorm:"primaryKey;type:uuid" json:"requestID"`
	FromID string `gorm:"type:uuid;not null;uniqueIndex:idx_friend_request_pair" json:"fromID"`
	ToID   string `gorm:"type:uuid;not null;uniqueIndex:idx_friend_request_pair" json:"toID"`

	CreatedAt time.Time `json:"createdAt"`
}

// TableName specifies the table name for FriendRequest model
func (FriendRequest) TableName() string {
	return "friend_requests"
}

func (fr *FriendRequest) BeforeCreate(tx *gorm.DB) error {
	if fr.ID == "" {
		fr.ID = uuid.NewString()
	}
	return nil
}

// Friendship is one direction of an accepted friend relation.
// Accepting a request inserts both directions so listing stays a single query.
type Friendship struct {
	ID       string `gorm:"primaryKey;type:uuid" json:"-"`
	UserID   string `gorm:"type:uuid;not null;uniqueIndex:idx_friendship_pair" json:"userID"`
	FriendID string `gorm:"type:uuid;not null;uniqueIndex:idx_friendship_pair" json:"friendID"`

	CreatedAt time.Time `json:"createdAt"`
}

// TableName specifies the table name for Friendship model
func (Friendship) TableName() string {
	return "friendships"
}

func (f *Friendship) BeforeCreate(tx *gorm.DB) error {
	if f.ID == "" {
		f.ID = uuid.NewString()
	}
	return nil
}

// FriendInfo is the wire shape for friend and friend-request listings
type FriendInfo struct {
	UserID   string `json:"userID"`
	Username string `json:"username"`
}
