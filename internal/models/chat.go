package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Conversation is a two-party encrypted message thread. The participant pair
// is fixed at creation; lookups treat (A,B) and (B,A) as the same pair.
type Conversation struct {
	ID           string `gorm:"primaryKey;type:uuid" json:"chatID"`
	ParticipantA string `gorm:"type:uuid;not null;index" json:"-"`
	ParticipantB string `gorm:"type:uuid;not null;index" json:"-"`

	Messages []ChatMessage `gorm:"foreignKey:ConversationID;constraint:OnDelete:CASCADE" json:"-"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// TableName specifies the table name for Conversation model
func (Conversation) TableName() string {
	return "conversations"
}

func (c *Conversation) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}

// Participants returns both participant ids
func (c *Conversation) Participants() []string {
	return []string{c.ParticipantA, c.ParticipantB}
}

// HasParticipant reports whether the given user belongs to the conversation
func (c *Conversation) HasParticipant(userID string) bool {
	return c.ParticipantA == userID || c.ParticipantB == userID
}

// ChatMessage is a single encrypted entry owned by a Conversation.
// Ciphertext and IV are hex-encoded; the IV is regenerated on every edit.
type ChatMessage struct {
	ID             string `gorm:"primaryKey;type:uuid" json:"messageID"`
	ConversationID string `gorm:"type:uuid;not null;index" json:"-"`

	Sender    string `gorm:"type:uuid;not null" json:"sender"`
	Recipient string `gorm:"type:uuid" json:"recipient,omitempty"`

	Ciphertext string `gorm:"not null" json:"-"`
	IV         string `gorm:"not null" json:"-"`

	// Timestamp moves forward on edit; CreatedAt keeps the send order stable
	Timestamp time.Time `json:"timestamp"`
	CreatedAt time.Time `json:"-"`
}

// TableName specifies the table name for ChatMessage model
func (ChatMessage) TableName() string {
	return "chat_messages"
}

func (m *ChatMessage) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	return nil
}

// DecryptedMessage is the plaintext projection of a ChatMessage. Corrupted is
// set when the stored ciphertext no longer decrypts (wrong key, tampering);
// the rest of the thread stays readable.
type DecryptedMessage struct {
	MessageID string    `json:"messageID"`
	Sender    string    `json:"sender"`
	Recipient string    `json:"recipient,omitempty"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
	Corrupted bool      `json:"corrupted,omitempty"`
}

// ConversationSummary is the wire shape for conversation listings, with
// participant display names resolved for rendering
type ConversationSummary struct {
	ChatID       string       `json:"chatID"`
	Participants []FriendInfo `json:"participants"`
	CreatedAt    time.Time    `json:"createdAt"`
	UpdatedAt    time.Time    `json:"updatedAt"`
}
