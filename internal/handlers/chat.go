package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/jung-kurt/gofpdf"

	"github.com/maskoff-app/maskoffgo/internal/chat"
	"github.com/maskoff-app/maskoffgo/internal/middleware"
	"github.com/maskoff-app/maskoffgo/internal/models"
)

// respondChatError maps conversation service errors to HTTP statuses
func respondChatError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, chat.ErrNotFound):
		respondError(w, http.StatusNotFound, "Chat not found")
	case errors.Is(err, chat.ErrNotParticipant), errors.Is(err, chat.ErrNotSender):
		respondError(w, http.StatusForbidden, err.Error())
	default:
		respondError(w, http.StatusInternalServerError, err.Error())
	}
}

// createChat explicitly creates (or returns) the conversation with a recipient
func (r *Router) createChat(w http.ResponseWriter, req *http.Request) {
	callerID := middleware.UserID(req)

	var body struct {
		RecipientID string `json:"recipientID"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil || body.RecipientID == "" {
		respondError(w, http.StatusBadRequest, "recipientID is required")
		return
	}

	conv, err := r.chats.CreateConversation(callerID, body.RecipientID)
	if err != nil {
		respondChatError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, conv)
}

// listChats returns the caller's conversations with participant names
func (r *Router) listChats(w http.ResponseWriter, req *http.Request) {
	callerID := middleware.UserID(req)

	chats, err := r.chats.ListConversations(callerID)
	if err != nil {
		respondChatError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"chats": chats})
}

// sendMessage appends a message, creating the chat if needed
func (r *Router) sendMessage(w http.ResponseWriter, req *http.Request) {
	callerID := middleware.UserID(req)

	var body struct {
		RecipientID string `json:"recipientID"`
		Text        string `json:"text"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil || body.RecipientID == "" || body.Text == "" {
		respondError(w, http.StatusBadRequest, "Missing recipientID or text")
		return
	}

	conv, err := r.chats.SendMessage(callerID, body.RecipientID, body.Text)
	if err != nil {
		respondChatError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Message sent",
		"chat":    conv,
	})
}

// getMessages returns the decrypted message sequence of a chat
func (r *Router) getMessages(w http.ResponseWriter, req *http.Request) {
	callerID := middleware.UserID(req)
	chatID := mux.Vars(req)["chatID"]

	messages, err := r.chats.Messages(callerID, chatID)
	if err != nil {
		respondChatError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"messages": messages})
}

// editMessage re-encrypts one of the caller's messages in place
func (r *Router) editMessage(w http.ResponseWriter, req *http.Request) {
	callerID := middleware.UserID(req)
	vars := mux.Vars(req)

	var body struct {
		NewText string `json:"newText"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil || body.NewText == "" {
		respondError(w, http.StatusBadRequest, "newText is required")
		return
	}

	if err := r.chats.EditMessage(callerID, vars["chatID"], vars["messageID"], body.NewText); err != nil {
		respondChatError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "Message edited"})
}

// deleteMessage removes one of the caller's messages
func (r *Router) deleteMessage(w http.ResponseWriter, req *http.Request) {
	callerID := middleware.UserID(req)
	vars := mux.Vars(req)

	if err := r.chats.DeleteMessage(callerID, vars["chatID"], vars["messageID"]); err != nil {
		respondChatError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "Message deleted"})
}

// deleteChat removes a whole conversation and its messages
func (r *Router) deleteChat(w http.ResponseWriter, req *http.Request) {
	callerID := middleware.UserID(req)
	chatID := mux.Vars(req)["chatID"]

	if err := r.chats.DeleteConversation(callerID, chatID); err != nil {
		respondChatError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "Chat deleted"})
}

// exportChat renders the caller's decrypted transcript as a PDF download
func (r *Router) exportChat(w http.ResponseWriter, req *http.Request) {
	callerID := middleware.UserID(req)
	chatID := mux.Vars(req)["chatID"]

	messages, err := r.chats.Messages(callerID, chatID)
	if err != nil {
		respondChatError(w, err)
		return
	}

	senderIDs := make([]string, 0, len(messages))
	for _, m := range messages {
		senderIDs = append(senderIDs, m.Sender)
	}
	names := make(map[string]string)
	var users []models.UserAuth
	if len(senderIDs) > 0 {
		r.db.Select("id", "username").Where("id IN ?", senderIDs).Find(&users)
	}
	for _, u := range users {
		names[u.ID] = u.Username
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("MaskOFF chat transcript", false)
	pdf.AddPage()
	pdf.SetFont("Arial", "B", 14)
	pdf.Cell(0, 10, "Chat transcript")
	pdf.Ln(12)
	pdf.SetFont("Arial", "", 10)

	for _, m := range messages {
		sender := names[m.Sender]
		if sender == "" {
			sender = m.Sender
		}
		line := fmt.Sprintf("[%s] %s:", m.Timestamp.Format("2006-01-02 15:04"), sender)
		if m.Corrupted {
			line += " (message could not be decrypted)"
		} else {
			line += " " + m.Message
		}
		pdf.MultiCell(0, 5, line, "", "L", false)
		pdf.Ln(2)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to render transcript")
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=chat-%s.pdf", chatID))
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}
