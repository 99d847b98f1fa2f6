package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
	qrcode "github.com/skip2/go-qrcode"
	"gorm.io/datatypes"

	"github.com/maskoff-app/maskoffgo/internal/middleware"
	"github.com/maskoff-app/maskoffgo/internal/models"
)

// getUser returns combined auth and profile details for a user
func (r *Router) getUser(w http.ResponseWriter, req *http.Request) {
	userID := mux.Vars(req)["userID"]

	var user models.UserAuth
	if err := r.db.First(&user, "id = ?", userID).Error; err != nil {
		respondError(w, http.StatusNotFound, "User not found.")
		return
	}

	var profile models.UserProfile
	r.db.First(&profile, "user_id = ?", userID)

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"user":    user,
		"profile": profile,
	})
}

// updateProfile updates public or anonymous info on the caller's own profile
func (r *Router) updateProfile(w http.ResponseWriter, req *http.Request) {
	userID := mux.Vars(req)["userID"]
	if userID != middleware.UserID(req) {
		respondError(w, http.StatusForbidden, "Not authorized to update this profile.")
		return
	}

	var body struct {
		PublicInfo    json.RawMessage `json:"publicInfo"`
		AnonymousInfo *struct {
			AnonymousIdentity string `json:"anonymousIdentity"`
			Details           string `json:"details"`
		} `json:"anonymousInfo"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	var profile models.UserProfile
	if err := r.db.First(&profile, "user_id = ?", userID).Error; err != nil {
		respondError(w, http.StatusNotFound, "Profile not found.")
		return
	}

	if body.PublicInfo != nil {
		profile.PublicInfo = datatypes.JSON(body.PublicInfo)
	}
	if body.AnonymousInfo != nil {
		if body.AnonymousInfo.AnonymousIdentity != "" {
			profile.AnonymousIdentity = body.AnonymousInfo.AnonymousIdentity
		}
		profile.AnonymousDetails = body.AnonymousInfo.Details
	}

	if err := r.db.Save(&profile).Error; err != nil {
		respondError(w, http.StatusConflict, "Failed to update profile (anonymous identity might be taken)")
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Profile updated",
		"profile": profile,
	})
}

// listUsers returns the public directory: basic info only
func (r *Router) listUsers(w http.ResponseWriter, req *http.Request) {
	var users []models.UserAuth
	if err := r.db.Find(&users).Error; err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to fetch users")
		return
	}

	var profiles []models.UserProfile
	r.db.Find(&profiles)
	publicInfo := make(map[string]datatypes.JSON, len(profiles))
	for _, p := range profiles {
		publicInfo[p.UserID] = p.PublicInfo
	}

	out := make([]models.PublicUser, 0, len(users))
	for _, u := range users {
		entry := models.PublicUser{
			UserID:   u.ID,
			Username: u.Username,
			Name:     u.Name,
		}
		if info, ok := publicInfo[u.ID]; ok && len(info) > 0 {
			entry.PublicInfo = json.RawMessage(info)
		} else {
			entry.PublicInfo = map[string]interface{}{}
		}
		out = append(out, entry)
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"users": out})
}

// profileQR renders a QR code PNG pointing at a user's public profile page
func (r *Router) profileQR(w http.ResponseWriter, req *http.Request) {
	userID := mux.Vars(req)["userID"]

	var user models.UserAuth
	if err := r.db.First(&user, "id = ?", userID).Error; err != nil {
		respondError(w, http.StatusNotFound, "User not found.")
		return
	}

	png, err := qrcode.Encode(fmt.Sprintf("%s/profile/%s", r.cfg.AppURL, user.ID), qrcode.Medium, 256)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to generate QR code")
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	w.Write(png)
}
