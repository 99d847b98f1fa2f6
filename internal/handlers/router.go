package handlers

import (
	"encoding/json"
	"net/http"
	"os"

	"github.com/gorilla/mux"

	"github.com/maskoff-app/maskoffgo/internal/chat"
	"github.com/maskoff-app/maskoffgo/internal/config"
	"github.com/maskoff-app/maskoffgo/internal/database"
	"github.com/maskoff-app/maskoffgo/internal/mailer"
	"github.com/maskoff-app/maskoffgo/internal/middleware"
	"github.com/maskoff-app/maskoffgo/internal/moderation"
	"github.com/maskoff-app/maskoffgo/internal/ws"
)

// Router wraps the mux router and the services the handlers depend on
type Router struct {
	*mux.Router
	db         *database.DB
	cfg        *config.Config
	hub        *ws.Hub
	chats      *chat.Service
	mail       *mailer.Mailer
	moderation *moderation.Service
}

// NewRouter creates a new HTTP router with all routes
func NewRouter(db *database.DB, cfg *config.Config, hub *ws.Hub, chats *chat.Service, mail *mailer.Mailer, mod *moderation.Service) *Router {
	r := &Router{
		Router:     mux.NewRouter(),
		db:         db,
		cfg:        cfg,
		hub:        hub,
		chats:      chats,
		mail:       mail,
		moderation: mod,
	}

	// Health check endpoint
	r.HandleFunc("/health", r.healthCheck).Methods("GET")

	// WebSocket push channel; the client authenticates in-band with an AUTH message
	r.HandleFunc("/ws", func(w http.ResponseWriter, req *http.Request) {
		ws.ServeWs(r.hub, w, req)
	})

	// Public API routes
	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/register", r.register).Methods("POST")
	api.HandleFunc("/verify-email", r.verifyEmail).Methods("GET")
	api.HandleFunc("/forgot-password", r.forgotPassword).Methods("POST")
	api.HandleFunc("/reset-password", r.resetPassword).Methods("POST")
	api.HandleFunc("/users/login", r.login).Methods("POST")
	api.HandleFunc("/users", r.listUsers).Methods("GET")
	api.HandleFunc("/user/{userID}/qr", r.profileQR).Methods("GET")
	api.HandleFunc("/posts", r.listPosts).Methods("GET")
	api.HandleFunc("/jobs", r.listJobs).Methods("GET")
	api.HandleFunc("/jobs/{jobID}", r.getJob).Methods("GET")
	api.HandleFunc("/users/{userID}/jobs", r.listUserJobs).Methods("GET")

	// Protected API routes
	auth := r.PathPrefix("/api").Subrouter()
	auth.Use(middleware.Auth(cfg.JWTSecret))

	auth.HandleFunc("/user/{userID}", r.getUser).Methods("GET")
	auth.HandleFunc("/profile/{userID}", r.updateProfile).Methods("PUT")

	auth.HandleFunc("/friends/request", r.sendFriendRequest).Methods("POST")
	auth.HandleFunc("/friends/request", r.deleteFriendRequest).Methods("DELETE")
	auth.HandleFunc("/friends/requests", r.listFriendRequests).Methods("GET")
	auth.HandleFunc("/friends/accept", r.acceptFriendRequest).Methods("POST")
	auth.HandleFunc("/friends", r.listFriends).Methods("GET")

	auth.HandleFunc("/chat/create", r.createChat).Methods("POST")
	auth.HandleFunc("/chats", r.listChats).Methods("GET")
	auth.HandleFunc("/chat/send", r.sendMessage).Methods("POST")
	auth.HandleFunc("/chat/messages/{chatID}", r.getMessages).Methods("GET")
	auth.HandleFunc("/chat/message/{chatID}/{messageID}", r.editMessage).Methods("PUT")
	auth.HandleFunc("/chat/message/{chatID}/{messageID}", r.deleteMessage).Methods("DELETE")
	auth.HandleFunc("/chat/{chatID}/export", r.exportChat).Methods("GET")
	auth.HandleFunc("/chat/{chatID}", r.deleteChat).Methods("DELETE")

	auth.HandleFunc("/posts", r.createPost).Methods("POST")
	auth.HandleFunc("/posts/{postID}", r.updatePost).Methods("PUT")
	auth.HandleFunc("/posts/{postID}", r.deletePost).Methods("DELETE")
	auth.HandleFunc("/posts/{postID}/comments", r.addComment).Methods("POST")
	auth.HandleFunc("/posts/{postID}/upvote", r.upvotePost).Methods("POST")
	auth.HandleFunc("/posts/{postID}/downvote", r.downvotePost).Methods("POST")

	auth.HandleFunc("/jobs", r.createJob).Methods("POST")
	auth.HandleFunc("/jobs/{jobID}", r.updateJob).Methods("PUT")
	auth.HandleFunc("/jobs/{jobID}", r.deleteJob).Methods("DELETE")

	// Static files - the SPA build, when present
	if dir := os.Getenv("FRONTEND_DIR"); dir != "" {
		r.PathPrefix("/").Handler(http.FileServer(http.Dir(dir)))
	}

	return r
}

// healthCheck returns the health status of the API
func (r *Router) healthCheck(w http.ResponseWriter, req *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
	})
}

// respondJSON sends a JSON response
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// respondError sends an error response
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{
		"error": message,
	})
}
