package chat

import (
	"errors"
	"fmt"
	"sort"
	"testing"
	"time"

	"github.com/maskoff-app/maskoffgo/internal/crypto"
	"github.com/maskoff-app/maskoffgo/internal/models"
	"github.com/maskoff-app/maskoffgo/internal/ws"
)

// memStore is an in-memory Store for service tests
type memStore struct {
	seq   int
	convs map[string]*models.Conversation
	users map[string]string
}

func newMemStore() *memStore {
	return &memStore{
		convs: make(map[string]*models.Conversation),
		users: map[string]string{"u1": "alice", "u2": "bob", "u3": "carol"},
	}
}

func (s *memStore) nextID(prefix string) string {
	s.seq++
	return fmt.Sprintf("%s-%d", prefix, s.seq)
}

func (s *memStore) Create(a, b string) (*models.Conversation, error) {
	conv := &models.Conversation{
		ID:           s.nextID("conv"),
		ParticipantA: a,
		ParticipantB: b,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}
	s.convs[conv.ID] = conv
	return conv, nil
}

func (s *memStore) FindByParticipants(a, b string) (*models.Conversation, error) {
	for _, c := range s.convs {
		if (c.ParticipantA == a && c.ParticipantB == b) || (c.ParticipantA == b && c.ParticipantB == a) {
			return c, nil
		}
	}
	return nil, ErrNotFound
}

func (s *memStore) Get(id string) (*models.Conversation, error) {
	c, ok := s.convs[id]
	if !ok {
		return nil, ErrNotFound
	}
	return c, nil
}

func (s *memStore) ListByParticipant(userID string) ([]models.Conversation, error) {
	var out []models.Conversation
	for _, c := range s.convs {
		if c.HasParticipant(userID) {
			out = append(out, *c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *memStore) AddMessage(conversationID string, msg *models.ChatMessage) error {
	c, ok := s.convs[conversationID]
	if !ok {
		return ErrNotFound
	}
	msg.ID = s.nextID("msg")
	msg.ConversationID = conversationID
	msg.CreatedAt = time.Now()
	c.Messages = append(c.Messages, *msg)
	c.UpdatedAt = time.Now()
	return nil
}

func (s *memStore) GetMessage(conversationID, messageID string) (*models.ChatMessage, error) {
	c, ok := s.convs[conversationID]
	if !ok {
		return nil, ErrNotFound
	}
	for i := range c.Messages {
		if c.Messages[i].ID == messageID {
			m := c.Messages[i]
			return &m, nil
		}
	}
	return nil, ErrNotFound
}

func (s *memStore) UpdateMessage(msg *models.ChatMessage) error {
	c, ok := s.convs[msg.ConversationID]
	if !ok {
		return ErrNotFound
	}
	for i := range c.Messages {
		if c.Messages[i].ID == msg.ID {
			c.Messages[i] = *msg
			c.UpdatedAt = time.Now()
			return nil
		}
	}
	return ErrNotFound
}

func (s *memStore) DeleteMessage(conversationID, messageID string) error {
	c, ok := s.convs[conversationID]
	if !ok {
		return ErrNotFound
	}
	for i := range c.Messages {
		if c.Messages[i].ID == messageID {
			c.Messages = append(c.Messages[:i], c.Messages[i+1:]...)
			c.UpdatedAt = time.Now()
			return nil
		}
	}
	return ErrNotFound
}

func (s *memStore) DeleteConversation(id string) error {
	if _, ok := s.convs[id]; !ok {
		return ErrNotFound
	}
	delete(s.convs, id)
	return nil
}

func (s *memStore) Usernames(userIDs []string) (map[string]string, error) {
	out := make(map[string]string)
	for _, id := range userIDs {
		if name, ok := s.users[id]; ok {
			out[id] = name
		}
	}
	return out, nil
}

// fakeNotifier records every fanout call
type fakeNotifier struct {
	calls []fanoutCall
}

type fanoutCall struct {
	users []string
	event ws.Event
}

func (n *fakeNotifier) NotifyUser(userID string, event ws.Event) {
	n.calls = append(n.calls, fanoutCall{users: []string{userID}, event: event})
}

func (n *fakeNotifier) NotifyUsers(userIDs []string, event ws.Event) {
	n.calls = append(n.calls, fanoutCall{users: userIDs, event: event})
}

func (n *fakeNotifier) notified() []string {
	var out []string
	for _, c := range n.calls {
		out = append(out, c.users...)
	}
	sort.Strings(out)
	return out
}

func newTestService() (*Service, *memStore, *fakeNotifier) {
	store := newMemStore()
	notifier := &fakeNotifier{}
	return NewService(store, crypto.NewMessageCipher("test-secret"), notifier), store, notifier
}

func TestSendThenList(t *testing.T) {
	svc, _, notifier := newTestService()

	conv, err := svc.SendMessage("u1", "u2", "hello")
	if err != nil {
		t.Fatalf("SendMessage failed: %v", err)
	}

	msgs, err := svc.Messages("u1", conv.ID)
	if err != nil {
		t.Fatalf("Messages failed: %v", err)
	}
	if len(msgs) != 1 {
		t.Fatalf("expected 1 message, got %d", len(msgs))
	}
	if msgs[0].Message != "hello" {
		t.Errorf("plaintext = %q, want %q", msgs[0].Message, "hello")
	}
	if msgs[0].Sender != "u1" {
		t.Errorf("sender = %q, want u1", msgs[0].Sender)
	}

	// Both participants are notified about the new message
	got := notifier.notified()
	want := []string{"u1", "u2"}
	if len(got) != 2 || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("notified %v, want %v", got, want)
	}
	for _, c := range notifier.calls {
		if c.event.Type != "UPDATE_DATA" || c.event.Update != ws.UpdateChats {
			t.Errorf("unexpected event %+v", c.event)
		}
	}
}

func TestSendReusesExistingConversation(t *testing.T) {
	svc, store, _ := newTestService()

	conv1, err := svc.SendMessage("u1", "u2", "first")
	if err != nil {
		t.Fatal(err)
	}
	// Reverse direction must land in the same conversation
	conv2, err := svc.SendMessage("u2", "u1", "second")
	if err != nil {
		t.Fatal(err)
	}
	if conv1.ID != conv2.ID {
		t.Errorf("messages between the same pair created two conversations: %s vs %s", conv1.ID, conv2.ID)
	}
	if len(store.convs) != 1 {
		t.Errorf("expected 1 conversation, got %d", len(store.convs))
	}

	msgs, err := svc.Messages("u2", conv1.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(msgs) != 2 || msgs[0].Message != "first" || msgs[1].Message != "second" {
		t.Errorf("unexpected message sequence: %+v", msgs)
	}
}

func TestCreateConversationDedupes(t *testing.T) {
	svc, _, _ := newTestService()

	conv1, err := svc.CreateConversation("u1", "u2")
	if err != nil {
		t.Fatal(err)
	}
	conv2, err := svc.CreateConversation("u2", "u1")
	if err != nil {
		t.Fatal(err)
	}
	if conv1.ID != conv2.ID {
		t.Errorf("create for the same pair should return the existing conversation")
	}
}

func TestEditDestroysPriorCiphertext(t *testing.T) {
	svc, store, notifier := newTestService()

	conv, err := svc.SendMessage("u1", "u2", "original")
	if err != nil {
		t.Fatal(err)
	}
	before := store.convs[conv.ID].Messages[0]
	notifier.calls = nil

	if err := svc.EditMessage("u1", conv.ID, before.ID, "edited"); err != nil {
		t.Fatalf("EditMessage failed: %v", err)
	}

	after := store.convs[conv.ID].Messages[0]
	if after.IV == before.IV {
		t.Error("edit must re-encrypt with a fresh iv")
	}
	if after.Ciphertext == before.Ciphertext {
		t.Error("edit must replace the ciphertext")
	}
	if !after.Timestamp.After(before.Timestamp) && !after.Timestamp.Equal(before.Timestamp) {
		t.Error("edit must refresh the timestamp")
	}

	msgs, err := svc.Messages("u2", conv.ID)
	if err != nil {
		t.Fatal(err)
	}
	if msgs[0].Message != "edited" {
		t.Errorf("decrypted message = %q, want %q", msgs[0].Message, "edited")
	}

	// Only the other participant is notified about the edit
	got := notifier.notified()
	if len(got) != 1 || got[0] != "u2" {
		t.Errorf("edit notified %v, want [u2]", got)
	}
}

func TestEditAuthorization(t *testing.T) {
	svc, store, _ := newTestService()

	conv, err := svc.SendMessage("u1", "u2", "mine")
	if err != nil {
		t.Fatal(err)
	}
	msgID := store.convs[conv.ID].Messages[0].ID

	if err := svc.EditMessage("u2", conv.ID, msgID, "hijack"); !errors.Is(err, ErrNotSender) {
		t.Errorf("participant editing another's message: got %v, want ErrNotSender", err)
	}
	if err := svc.EditMessage("u3", conv.ID, msgID, "hijack"); !errors.Is(err, ErrNotParticipant) {
		t.Errorf("outsider editing a message: got %v, want ErrNotParticipant", err)
	}
	if err := svc.EditMessage("u1", conv.ID, "msg-missing", "x"); !errors.Is(err, ErrNotFound) {
		t.Errorf("editing a missing message: got %v, want ErrNotFound", err)
	}
}

func TestDeleteMessageMissingIDIsError(t *testing.T) {
	svc, _, _ := newTestService()

	conv, err := svc.SendMessage("u1", "u2", "hello")
	if err != nil {
		t.Fatal(err)
	}
	if err := svc.DeleteMessage("u1", conv.ID, "msg-missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("got %v, want ErrNotFound", err)
	}
}

func TestDeleteMessage(t *testing.T) {
	svc, store, notifier := newTestService()

	conv, err := svc.SendMessage("u1", "u2", "to be removed")
	if err != nil {
		t.Fatal(err)
	}
	msgID := store.convs[conv.ID].Messages[0].ID
	notifier.calls = nil

	if err := svc.DeleteMessage("u1", conv.ID, msgID); err != nil {
		t.Fatalf("DeleteMessage failed: %v", err)
	}

	msgs, err := svc.Messages("u1", conv.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(msgs) != 0 {
		t.Errorf("message should be gone, got %d entries", len(msgs))
	}
	got := notifier.notified()
	if len(got) != 1 || got[0] != "u2" {
		t.Errorf("delete notified %v, want [u2]", got)
	}
}

func TestDeleteConversationCascades(t *testing.T) {
	svc, _, notifier := newTestService()

	conv, err := svc.SendMessage("u1", "u2", "one")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := svc.SendMessage("u1", "u2", "two"); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.SendMessage("u2", "u1", "three"); err != nil {
		t.Fatal(err)
	}
	notifier.calls = nil

	if err := svc.DeleteConversation("u1", conv.ID); err != nil {
		t.Fatalf("DeleteConversation failed: %v", err)
	}

	for _, user := range []string{"u1", "u2"} {
		list, err := svc.ListConversations(user)
		if err != nil {
			t.Fatal(err)
		}
		if len(list) != 0 {
			t.Errorf("conversation still listed for %s after delete", user)
		}
	}
	if _, err := svc.Messages("u1", conv.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("fetching deleted conversation: got %v, want ErrNotFound", err)
	}

	// All former participants are notified
	got := notifier.notified()
	if len(got) != 2 || got[0] != "u1" || got[1] != "u2" {
		t.Errorf("delete-conversation notified %v, want [u1 u2]", got)
	}
}

func TestEditLastWriteWins(t *testing.T) {
	svc, store, _ := newTestService()

	conv, err := svc.SendMessage("u1", "u2", "v0")
	if err != nil {
		t.Fatal(err)
	}
	msgID := store.convs[conv.ID].Messages[0].ID

	if err := svc.EditMessage("u1", conv.ID, msgID, "v1"); err != nil {
		t.Fatal(err)
	}
	if err := svc.EditMessage("u1", conv.ID, msgID, "v2"); err != nil {
		t.Fatal(err)
	}

	msgs, err := svc.Messages("u1", conv.ID)
	if err != nil {
		t.Fatal(err)
	}
	// The later commit wins in full; never a mix of the two writes
	if msgs[0].Message != "v2" {
		t.Errorf("final plaintext = %q, want %q", msgs[0].Message, "v2")
	}
}

func TestCorruptedMessageIsFlaggedNotFatal(t *testing.T) {
	svc, store, _ := newTestService()

	conv, err := svc.SendMessage("u1", "u2", "good")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := svc.SendMessage("u1", "u2", "bad"); err != nil {
		t.Fatal(err)
	}

	// Corrupt the second message's stored ciphertext
	store.convs[conv.ID].Messages[1].Ciphertext = "deadbeef"

	msgs, err := svc.Messages("u2", conv.ID)
	if err != nil {
		t.Fatalf("bulk read should not fail on one corrupt message: %v", err)
	}
	if len(msgs) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(msgs))
	}
	if msgs[0].Message != "good" || msgs[0].Corrupted {
		t.Errorf("healthy message mangled: %+v", msgs[0])
	}
	if !msgs[1].Corrupted || msgs[1].Message != "" {
		t.Errorf("corrupt message should be flagged with no plaintext: %+v", msgs[1])
	}
}

func TestListConversationsAttachesUsernames(t *testing.T) {
	svc, _, _ := newTestService()

	if _, err := svc.SendMessage("u1", "u2", "hi"); err != nil {
		t.Fatal(err)
	}

	list, err := svc.ListConversations("u1")
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 {
		t.Fatalf("expected 1 conversation, got %d", len(list))
	}
	names := map[string]string{}
	for _, p := range list[0].Participants {
		names[p.UserID] = p.Username
	}
	if names["u1"] != "alice" || names["u2"] != "bob" {
		t.Errorf("participant names not resolved: %v", names)
	}
}
