package handlers

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/maskoff-app/maskoffgo/internal/models"
	"github.com/maskoff-app/maskoffgo/internal/utils"
)

// RegisterRequest represents a registration request
type RegisterRequest struct {
	Name            string          `json:"name"`
	DOB             string          `json:"dob"`
	Email           string          `json:"email"`
	Username        string          `json:"username"`
	Password        string          `json:"password"`
	ConfirmPassword string          `json:"confirmPassword"`
	PublicInfo      json.RawMessage `json:"publicInfo"`
	AnonymousInfo   struct {
		AnonymousIdentity string `json:"anonymousIdentity"`
		Details           string `json:"details"`
	} `json:"anonymousInfo"`
}

// LoginRequest represents a login request
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// register creates a UserAuth plus its UserProfile and sends the
// verification email
func (r *Router) register(w http.ResponseWriter, req *http.Request) {
	var body RegisterRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	if body.Name == "" || body.Email == "" || body.Username == "" || body.Password == "" || body.ConfirmPassword == "" {
		respondError(w, http.StatusBadRequest, "All compulsory fields are required.")
		return
	}
	if body.Password != body.ConfirmPassword {
		respondError(w, http.StatusBadRequest, "Passwords do not match.")
		return
	}

	var count int64
	r.db.Model(&models.UserAuth{}).Where("email = ?", body.Email).Count(&count)
	if count > 0 {
		respondError(w, http.StatusConflict, "Email already in use.")
		return
	}
	r.db.Model(&models.UserAuth{}).Where("username = ?", body.Username).Count(&count)
	if count > 0 {
		respondError(w, http.StatusConflict, "Username already taken.")
		return
	}

	hashed, err := utils.HashPassword(body.Password)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to hash password")
		return
	}

	verifyToken, err := utils.RandomToken(20)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to generate verification token")
		return
	}

	user := models.UserAuth{
		Name:              body.Name,
		Email:             body.Email,
		Username:          body.Username,
		Password:          hashed,
		VerificationToken: verifyToken,
	}
	if body.DOB != "" {
		if dob, err := time.Parse("2006-01-02", body.DOB); err == nil {
			user.DOB = dob
		}
	}

	anonymousIdentity := body.AnonymousInfo.AnonymousIdentity
	if anonymousIdentity == "" {
		suffix, _ := utils.RandomToken(4)
		anonymousIdentity = "Mask-" + suffix
	}
	profile := models.UserProfile{
		PublicInfo:        datatypes.JSON(body.PublicInfo),
		AnonymousIdentity: anonymousIdentity,
		AnonymousDetails:  body.AnonymousInfo.Details,
	}

	// Account and profile stand or fall together; a profile conflict must not
	// leave an orphaned account reserving the email and username.
	var profileConflict bool
	txErr := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&user).Error; err != nil {
			return err
		}
		profile.UserID = user.ID
		if err := tx.Create(&profile).Error; err != nil {
			profileConflict = true
			return err
		}
		return nil
	})
	if txErr != nil {
		if profileConflict {
			respondError(w, http.StatusConflict, "Anonymous identity already taken.")
		} else {
			respondError(w, http.StatusBadRequest, "Failed to create user")
		}
		return
	}

	verifyURL := fmt.Sprintf("%s/verify-email?userID=%s&token=%s", r.cfg.AppURL, user.ID, verifyToken)
	if err := r.mail.SendVerificationEmail(req.Context(), user.Email, user.Name, user.Username, verifyURL); err != nil {
		// Registration stands; the user can request a new mail
		log.Printf("Failed to send verification email to %s: %v", user.Email, err)
	}

	accessToken, refreshToken, err := utils.GenerateTokens(&user, r.cfg.JWTSecret)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "User created but failed to generate tokens")
		return
	}

	respondJSON(w, http.StatusCreated, map[string]interface{}{
		"message": "User registered successfully. Please verify your email.",
		"tokens": map[string]string{
			"accessToken":  accessToken,
			"refreshToken": refreshToken,
		},
		"user":    user,
		"profile": profile,
	})
}

// verifyEmail confirms an address from the emailed link
func (r *Router) verifyEmail(w http.ResponseWriter, req *http.Request) {
	userID := req.URL.Query().Get("userID")
	token := req.URL.Query().Get("token")
	if userID == "" || token == "" {
		respondError(w, http.StatusBadRequest, "Missing parameters.")
		return
	}

	var user models.UserAuth
	if err := r.db.First(&user, "id = ?", userID).Error; err != nil {
		respondError(w, http.StatusNotFound, "User not found.")
		return
	}
	if user.VerificationToken == "" || user.VerificationToken != token {
		respondError(w, http.StatusBadRequest, "Invalid verification token.")
		return
	}

	user.EmailVerified = true
	user.VerificationToken = ""
	if err := r.db.Save(&user).Error; err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to verify email")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "Email verified successfully."})
}

// forgotPassword issues a reset token and emails the reset link
func (r *Router) forgotPassword(w http.ResponseWriter, req *http.Request) {
	var body struct {
		Email string `json:"email"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil || body.Email == "" {
		respondError(w, http.StatusBadRequest, "Email is required.")
		return
	}

	var user models.UserAuth
	if err := r.db.First(&user, "email = ?", body.Email).Error; err != nil {
		respondError(w, http.StatusNotFound, "User not found.")
		return
	}

	token, err := utils.RandomToken(20)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to generate reset token")
		return
	}
	expires := time.Now().Add(time.Hour)
	user.ResetPasswordToken = token
	user.ResetPasswordExpires = &expires
	if err := r.db.Save(&user).Error; err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to store reset token")
		return
	}

	resetURL := fmt.Sprintf("%s/reset-password?userID=%s&token=%s", r.cfg.AppURL, user.ID, token)
	if err := r.mail.SendForgotPasswordEmail(req.Context(), user.Email, user.Name, user.Username, resetURL); err != nil {
		log.Printf("Failed to send reset email to %s: %v", user.Email, err)
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"message": "Password reset instructions have been sent to your email.",
	})
}

// resetPassword sets a new password from an emailed token
func (r *Router) resetPassword(w http.ResponseWriter, req *http.Request) {
	var body struct {
		UserID             string `json:"userID"`
		Token              string `json:"token"`
		NewPassword        string `json:"newPassword"`
		ConfirmNewPassword string `json:"confirmNewPassword"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil ||
		body.UserID == "" || body.Token == "" || body.NewPassword == "" || body.ConfirmNewPassword == "" {
		respondError(w, http.StatusBadRequest, "Missing parameters.")
		return
	}
	if body.NewPassword != body.ConfirmNewPassword {
		respondError(w, http.StatusBadRequest, "Passwords do not match.")
		return
	}

	var user models.UserAuth
	if err := r.db.First(&user, "id = ?", body.UserID).Error; err != nil {
		respondError(w, http.StatusNotFound, "User not found.")
		return
	}
	if user.ResetPasswordToken == "" || user.ResetPasswordToken != body.Token ||
		user.ResetPasswordExpires == nil || time.Now().After(*user.ResetPasswordExpires) {
		respondError(w, http.StatusBadRequest, "Invalid or expired reset token.")
		return
	}

	hashed, err := utils.HashPassword(body.NewPassword)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to hash password")
		return
	}
	user.Password = hashed
	user.ResetPasswordToken = ""
	user.ResetPasswordExpires = nil
	if err := r.db.Save(&user).Error; err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to reset password")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "Password reset successfully."})
}

// login handles user login
func (r *Router) login(w http.ResponseWriter, req *http.Request) {
	var body LoginRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	var user models.UserAuth
	if err := r.db.First(&user, "username = ?", body.Username).Error; err != nil {
		respondError(w, http.StatusNotFound, "User not found.")
		return
	}
	if !utils.CheckPasswordHash(body.Password, user.Password) {
		respondError(w, http.StatusUnauthorized, "Invalid credentials.")
		return
	}

	accessToken, refreshToken, err := utils.GenerateTokens(&user, r.cfg.JWTSecret)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to generate tokens")
		return
	}

	var profile models.UserProfile
	r.db.First(&profile, "user_id = ?", user.ID)

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"tokens": map[string]string{
			"accessToken":  accessToken,
			"refreshToken": refreshToken,
		},
		"user":    user,
		"profile": profile,
	})
}
