package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/maskoff-app/maskoffgo/internal/middleware"
	"github.com/maskoff-app/maskoffgo/internal/models"
	"github.com/maskoff-app/maskoffgo/internal/ws"
)

// sendFriendRequest creates a pending request and pings the recipient
func (r *Router) sendFriendRequest(w http.ResponseWriter, req *http.Request) {
	callerID := middleware.UserID(req)

	var body struct {
		FriendID string `json:"friendID"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil || body.FriendID == "" {
		respondError(w, http.StatusBadRequest, "friendID is required")
		return
	}
	if body.FriendID == callerID {
		respondError(w, http.StatusBadRequest, "Cannot befriend yourself")
		return
	}

	var friend models.UserAuth
	if err := r.db.First(&friend, "id = ?", body.FriendID).Error; err != nil {
		respondError(w, http.StatusNotFound, "Friend user not found")
		return
	}

	var count int64
	r.db.Model(&models.FriendRequest{}).
		Where("from_id = ? AND to_id = ?", callerID, body.FriendID).
		Count(&count)
	if count > 0 {
		respondError(w, http.StatusBadRequest, "Friend request already sent")
		return
	}

	request := models.FriendRequest{FromID: callerID, ToID: body.FriendID}
	if err := r.db.Create(&request).Error; err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to create friend request")
		return
	}

	r.hub.NotifyUser(body.FriendID, ws.UpdateEvent(ws.UpdateFriends))
	respondJSON(w, http.StatusOK, map[string]string{"message": "Friend request sent"})
}

// deleteFriendRequest rejects (or cancels) a pending request
func (r *Router) deleteFriendRequest(w http.ResponseWriter, req *http.Request) {
	callerID := middleware.UserID(req)

	var body struct {
		FriendID string `json:"friendID"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil || body.FriendID == "" {
		respondError(w, http.StatusBadRequest, "friendID is required")
		return
	}

	res := r.db.
		Where("(from_id = ? AND to_id = ?) OR (from_id = ? AND to_id = ?)",
			body.FriendID, callerID, callerID, body.FriendID).
		Delete(&models.FriendRequest{})
	if res.Error != nil {
		respondError(w, http.StatusInternalServerError, "Failed to delete friend request")
		return
	}
	if res.RowsAffected == 0 {
		respondError(w, http.StatusNotFound, "Friend request not found")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "Friend request deleted"})
}

// listFriendRequests returns pending requests addressed to the caller
func (r *Router) listFriendRequests(w http.ResponseWriter, req *http.Request) {
	callerID := middleware.UserID(req)

	var requests []models.FriendRequest
	if err := r.db.Where("to_id = ?", callerID).Find(&requests).Error; err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to fetch friend requests")
		return
	}

	out := make([]models.FriendInfo, 0, len(requests))
	for _, fr := range requests {
		var sender models.UserAuth
		if err := r.db.Select("id", "username").First(&sender, "id = ?", fr.FromID).Error; err != nil {
			continue
		}
		out = append(out, models.FriendInfo{UserID: sender.ID, Username: sender.Username})
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"friendRequests": out})
}

// acceptFriendRequest turns a pending request into a symmetric friendship
func (r *Router) acceptFriendRequest(w http.ResponseWriter, req *http.Request) {
	callerID := middleware.UserID(req)

	var body struct {
		FriendID string `json:"friendID"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil || body.FriendID == "" {
		respondError(w, http.StatusBadRequest, "friendID is required")
		return
	}

	var friend models.UserAuth
	if err := r.db.First(&friend, "id = ?", body.FriendID).Error; err != nil {
		respondError(w, http.StatusNotFound, "User not found")
		return
	}

	res := r.db.Where("from_id = ? AND to_id = ?", body.FriendID, callerID).Delete(&models.FriendRequest{})
	if res.Error != nil {
		respondError(w, http.StatusInternalServerError, "Failed to accept friend request")
		return
	}
	if res.RowsAffected == 0 {
		respondError(w, http.StatusNotFound, "Friend request not found")
		return
	}

	// Both directions, so each side's friend list is one query
	pairs := []models.Friendship{
		{UserID: callerID, FriendID: body.FriendID},
		{UserID: body.FriendID, FriendID: callerID},
	}
	for _, p := range pairs {
		var count int64
		r.db.Model(&models.Friendship{}).
			Where("user_id = ? AND friend_id = ?", p.UserID, p.FriendID).
			Count(&count)
		if count == 0 {
			if err := r.db.Create(&p).Error; err != nil {
				respondError(w, http.StatusInternalServerError, "Failed to store friendship")
				return
			}
		}
	}

	r.hub.NotifyUsers([]string{callerID, body.FriendID}, ws.UpdateEvent(ws.UpdateFriends))
	respondJSON(w, http.StatusOK, map[string]string{"message": "Friend request accepted"})
}

// listFriends returns the caller's friends with usernames
func (r *Router) listFriends(w http.ResponseWriter, req *http.Request) {
	callerID := middleware.UserID(req)

	var friendships []models.Friendship
	if err := r.db.Where("user_id = ?", callerID).Find(&friendships).Error; err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to fetch friends")
		return
	}

	out := make([]models.FriendInfo, 0, len(friendships))
	for _, f := range friendships {
		var friend models.UserAuth
		if err := r.db.Select("id", "username").First(&friend, "id = ?", f.FriendID).Error; err != nil {
			continue
		}
		out = append(out, models.FriendInfo{UserID: friend.ID, Username: friend.Username})
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"friends": out})
}
