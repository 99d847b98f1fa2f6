package chat

import (
	"errors"
	"log"
	"time"

	"github.com/maskoff-app/maskoffgo/internal/crypto"
	"github.com/maskoff-app/maskoffgo/internal/models"
	"github.com/maskoff-app/maskoffgo/internal/ws"
)

// Service orchestrates conversation mutations and fanout. Every mutating
// operation commits the store change first, then notifies affected
// participants; a client reacting to the push always sees the new state.
// Fanout failures never fail the mutation.
type Service struct {
	store    Store
	cipher   *crypto.MessageCipher
	notifier ws.Notifier
}

// NewService wires the conversation service
func NewService(store Store, cipher *crypto.MessageCipher, notifier ws.Notifier) *Service {
	return &Service{store: store, cipher: cipher, notifier: notifier}
}

// CreateConversation finds or creates the conversation for the caller and
// recipient pair and notifies both sides. Creating twice for the same pair
// returns the existing conversation.
func (s *Service) CreateConversation(callerID, recipientID string) (*models.Conversation, error) {
	conv, err := s.findOrCreate(callerID, recipientID)
	if err != nil {
		return nil, err
	}
	s.notifier.NotifyUsers(conv.Participants(), ws.UpdateEvent(ws.UpdateChats))
	return conv, nil
}

// ListConversations returns the caller's conversations with participant
// display names resolved
func (s *Service) ListConversations(userID string) ([]models.ConversationSummary, error) {
	convs, err := s.store.ListByParticipant(userID)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(convs)*2)
	for i := range convs {
		ids = append(ids, convs[i].Participants()...)
	}
	names, err := s.store.Usernames(ids)
	if err != nil {
		return nil, err
	}

	out := make([]models.ConversationSummary, 0, len(convs))
	for i := range convs {
		c := &convs[i]
		summary := models.ConversationSummary{
			ChatID:    c.ID,
			CreatedAt: c.CreatedAt,
			UpdatedAt: c.UpdatedAt,
		}
		for _, p := range c.Participants() {
			summary.Participants = append(summary.Participants, models.FriendInfo{
				UserID:   p,
				Username: names[p],
			})
		}
		out = append(out, summary)
	}
	return out, nil
}

// SendMessage appends an encrypted message, creating the conversation for the
// pair if none exists, then notifies both participants.
func (s *Service) SendMessage(senderID, recipientID, text string) (*models.Conversation, error) {
	conv, err := s.findOrCreate(senderID, recipientID)
	if err != nil {
		return nil, err
	}

	ciphertext, iv, err := s.cipher.Encrypt(text)
	if err != nil {
		return nil, err
	}

	msg := &models.ChatMessage{
		Sender:     senderID,
		Recipient:  recipientID,
		Ciphertext: ciphertext,
		IV:         iv,
		Timestamp:  time.Now(),
	}
	if err := s.store.AddMessage(conv.ID, msg); err != nil {
		return nil, err
	}

	s.notifier.NotifyUsers(conv.Participants(), ws.UpdateEvent(ws.UpdateChats))
	return conv, nil
}

// Messages returns the decrypted message sequence of a conversation. The
// plaintext is computed on every read, never cached. A message that fails to
// decrypt is flagged instead of aborting the whole thread.
func (s *Service) Messages(callerID, conversationID string) ([]models.DecryptedMessage, error) {
	conv, err := s.participantConversation(callerID, conversationID)
	if err != nil {
		return nil, err
	}

	out := make([]models.DecryptedMessage, 0, len(conv.Messages))
	for i := range conv.Messages {
		m := &conv.Messages[i]
		entry := models.DecryptedMessage{
			MessageID: m.ID,
			Sender:    m.Sender,
			Recipient: m.Recipient,
			Timestamp: m.Timestamp,
		}
		plaintext, err := s.cipher.Decrypt(m.Ciphertext, m.IV)
		if err != nil {
			if !errors.Is(err, crypto.ErrDecryption) {
				return nil, err
			}
			log.Printf("chat: message %s in conversation %s failed to decrypt: %v", m.ID, conv.ID, err)
			entry.Corrupted = true
		} else {
			entry.Message = plaintext
		}
		out = append(out, entry)
	}
	return out, nil
}

// EditMessage re-encrypts a message in place with a fresh IV and timestamp.
// Edit is a destructive replace; the previous ciphertext is gone. Only the
// original sender may edit. Other participants are notified.
func (s *Service) EditMessage(callerID, conversationID, messageID, newText string) error {
	conv, err := s.participantConversation(callerID, conversationID)
	if err != nil {
		return err
	}

	msg, err := s.store.GetMessage(conversationID, messageID)
	if err != nil {
		return err
	}
	if msg.Sender != callerID {
		return ErrNotSender
	}

	ciphertext, iv, err := s.cipher.Encrypt(newText)
	if err != nil {
		return err
	}
	msg.Ciphertext = ciphertext
	msg.IV = iv
	msg.Timestamp = time.Now()
	if err := s.store.UpdateMessage(msg); err != nil {
		return err
	}

	s.notifyOthers(conv, callerID)
	return nil
}

// DeleteMessage removes a message permanently (no tombstone). Deleting a
// missing id is an error. Only the original sender may delete. Other
// participants are notified.
func (s *Service) DeleteMessage(callerID, conversationID, messageID string) error {
	conv, err := s.participantConversation(callerID, conversationID)
	if err != nil {
		return err
	}

	msg, err := s.store.GetMessage(conversationID, messageID)
	if err != nil {
		return err
	}
	if msg.Sender != callerID {
		return ErrNotSender
	}

	if err := s.store.DeleteMessage(conversationID, messageID); err != nil {
		return err
	}

	s.notifyOthers(conv, callerID)
	return nil
}

// DeleteConversation hard-deletes the whole thread, cascading to all
// messages, and notifies every former participant.
func (s *Service) DeleteConversation(callerID, conversationID string) error {
	conv, err := s.participantConversation(callerID, conversationID)
	if err != nil {
		return err
	}

	if err := s.store.DeleteConversation(conversationID); err != nil {
		return err
	}

	s.notifier.NotifyUsers(conv.Participants(), ws.UpdateEvent(ws.UpdateChats))
	return nil
}

// findOrCreate resolves the conversation for an unordered pair, creating it
// lazily on first use
func (s *Service) findOrCreate(a, b string) (*models.Conversation, error) {
	conv, err := s.store.FindByParticipants(a, b)
	if errors.Is(err, ErrNotFound) {
		return s.store.Create(a, b)
	}
	if err != nil {
		return nil, err
	}
	return conv, nil
}

func (s *Service) participantConversation(callerID, conversationID string) (*models.Conversation, error) {
	conv, err := s.store.Get(conversationID)
	if err != nil {
		return nil, err
	}
	if !conv.HasParticipant(callerID) {
		return nil, ErrNotParticipant
	}
	return conv, nil
}

func (s *Service) notifyOthers(conv *models.Conversation, actorID string) {
	for _, p := range conv.Participants() {
		if p != actorID {
			s.notifier.NotifyUser(p, ws.UpdateEvent(ws.UpdateChats))
		}
	}
}
