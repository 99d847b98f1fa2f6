package chat

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/maskoff-app/maskoffgo/internal/models"
)

// Store is the persistence boundary of the conversation service. A GORM
// implementation backs production; tests use an in-memory fake.
type Store interface {
	Create(participantA, participantB string) (*models.Conversation, error)
	FindByParticipants(a, b string) (*models.Conversation, error)
	Get(id string) (*models.Conversation, error)
	ListByParticipant(userID string) ([]models.Conversation, error)
	AddMessage(conversationID string, msg *models.ChatMessage) error
	GetMessage(conversationID, messageID string) (*models.ChatMessage, error)
	UpdateMessage(msg *models.ChatMessage) error
	DeleteMessage(conversationID, messageID string) error
	DeleteConversation(id string) error
	Usernames(userIDs []string) (map[string]string, error)
}

// GormStore persists conversations in PostgreSQL
type GormStore struct {
	db *gorm.DB
}

// NewGormStore creates a GORM-backed conversation store
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func storageErr(err error) error {
	return fmt.Errorf("%w: %v", ErrStorage, err)
}

// Create allocates a new empty conversation for the pair
func (s *GormStore) Create(participantA, participantB string) (*models.Conversation, error) {
	conv := &models.Conversation{
		ParticipantA: participantA,
		ParticipantB: participantB,
	}
	if err := s.db.Create(conv).Error; err != nil {
		return nil, storageErr(err)
	}
	return conv, nil
}

// FindByParticipants looks up a conversation for the unordered pair (a, b)
func (s *GormStore) FindByParticipants(a, b string) (*models.Conversation, error) {
	var conv models.Conversation
	err := s.db.
		Where("(participant_a = ? AND participant_b = ?) OR (participant_a = ? AND participant_b = ?)", a, b, b, a).
		First(&conv).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, storageErr(err)
	}
	return &conv, nil
}

// Get loads a conversation with its messages in send order
func (s *GormStore) Get(id string) (*models.Conversation, error) {
	var conv models.Conversation
	err := s.db.
		Preload("Messages", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		}).
		First(&conv, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, storageErr(err)
	}
	return &conv, nil
}

// ListByParticipant returns every conversation the user belongs to
func (s *GormStore) ListByParticipant(userID string) ([]models.Conversation, error) {
	var convs []models.Conversation
	err := s.db.
		Where("participant_a = ? OR participant_b = ?", userID, userID).
		Order("updated_at DESC").
		Find(&convs).Error
	if err != nil {
		return nil, storageErr(err)
	}
	return convs, nil
}

// AddMessage appends a message and bumps the conversation's updatedAt
func (s *GormStore) AddMessage(conversationID string, msg *models.ChatMessage) error {
	msg.ConversationID = conversationID
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(msg).Error; err != nil {
			return storageErr(err)
		}
		return s.touch(tx, conversationID)
	})
}

// GetMessage loads one message of a conversation
func (s *GormStore) GetMessage(conversationID, messageID string) (*models.ChatMessage, error) {
	var msg models.ChatMessage
	err := s.db.First(&msg, "id = ? AND conversation_id = ?", messageID, conversationID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, storageErr(err)
	}
	return &msg, nil
}

// UpdateMessage overwrites a message in place and bumps the conversation
func (s *GormStore) UpdateMessage(msg *models.ChatMessage) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(msg).Error; err != nil {
			return storageErr(err)
		}
		return s.touch(tx, msg.ConversationID)
	})
}

// DeleteMessage removes a message from its conversation. Deleting an id that
// does not exist is an error, matching edit semantics.
func (s *GormStore) DeleteMessage(conversationID, messageID string) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Delete(&models.ChatMessage{}, "id = ? AND conversation_id = ?", messageID, conversationID)
		if res.Error != nil {
			return storageErr(res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return s.touch(tx, conversationID)
	})
}

// DeleteConversation removes the aggregate; messages cascade at the DB level
func (s *GormStore) DeleteConversation(id string) error {
	res := s.db.Select("Messages").Delete(&models.Conversation{ID: id})
	if res.Error != nil {
		return storageErr(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Usernames resolves user ids to display usernames for rendering
func (s *GormStore) Usernames(userIDs []string) (map[string]string, error) {
	var users []models.UserAuth
	if err := s.db.Select("id", "username").Where("id IN ?", userIDs).Find(&users).Error; err != nil {
		return nil, storageErr(err)
	}
	out := make(map[string]string, len(users))
	for _, u := range users {
		out[u.ID] = u.Username
	}
	return out, nil
}

func (s *GormStore) touch(tx *gorm.DB, conversationID string) error {
	err := tx.Model(&models.Conversation{}).
		Where("id = ?", conversationID).
		Update("updated_at", time.Now()).Error
	if err != nil {
		return storageErr(err)
	}
	return nil
}
