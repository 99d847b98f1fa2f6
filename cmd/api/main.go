package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/maskoff-app/maskoffgo/internal/chat"
	"github.com/maskoff-app/maskoffgo/internal/config"
	"github.com/maskoff-app/maskoffgo/internal/crypto"
	"github.com/maskoff-app/maskoffgo/internal/database"
	"github.com/maskoff-app/maskoffgo/internal/handlers"
	"github.com/maskoff-app/maskoffgo/internal/mailer"
	"github.com/maskoff-app/maskoffgo/internal/models"
	"github.com/maskoff-app/maskoffgo/internal/moderation"
	"github.com/maskoff-app/maskoffgo/internal/ws"
)

func main() {
	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// 2. Initialize database (detects embedded vs external automatically)
	db, err := database.Connect(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	// Note: db.Close() is called manually in shutdown handler below

	// 3. Auto-migrate schema
	log.Println("Synchronizing database schema...")
	err = db.AutoMigrate(
		&models.UserAuth{},
		&models.UserProfile{},
		&models.FriendRequest{},
		&models.Friendship{},
		&models.Conversation{},
		&models.ChatMessage{},
		&models.Post{},
		&models.Comment{},
		&models.PostVote{},
		&models.Job{},
	)
	if err != nil {
		log.Printf("Migration warning: %v", err)
	} else {
		log.Println("Schema synchronized successfully")
	}

	// 4. Wire services
	hub := ws.NewHub()
	cipher := crypto.NewMessageCipher(cfg.AESSecretKey)
	chatService := chat.NewService(chat.NewGormStore(db.DB), cipher, hub)
	mail := mailer.New(cfg.Mailer)
	mod := moderation.New(context.Background(), db.DB, cfg.Moderation)

	router := handlers.NewRouter(db, cfg, hub, chatService, mail, mod)

	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	// Channel to listen for shutdown signals
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)

	// Start server in goroutine
	go func() {
		log.Printf("MaskOFF server starting on port %s", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for shutdown signal
	sig := <-shutdown
	log.Printf("Received signal: %v. Shutting down gracefully...", sig)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
	}

	mod.Close()

	log.Println("Closing database connection...")
	if err := db.Close(); err != nil {
		log.Printf("Database close error: %v", err)
	}

	log.Println("Shutdown complete")
}
