package moderation

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
	"gorm.io/gorm"

	"github.com/maskoff-app/maskoffgo/internal/config"
	"github.com/maskoff-app/maskoffgo/internal/models"
)

// Service runs optional Gemini-based content review over new posts. It never
// blocks or rejects a request: a post judged unsafe is only flagged for human
// review. Without a GEMINI_API_KEY the service is inert.
type Service struct {
	db     *gorm.DB
	client *genai.Client
	model  *genai.GenerativeModel
}

// New creates the moderation service. Returns a disabled service when no API
// key is configured.
func New(ctx context.Context, db *gorm.DB, cfg config.ModerationConfig) *Service {
	if cfg.GeminiAPIKey == "" {
		log.Println("Moderation disabled (no GEMINI_API_KEY)")
		return &Service{db: db}
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.GeminiAPIKey))
	if err != nil {
		log.Printf("Moderation: failed to create genai client: %v", err)
		return &Service{db: db}
	}

	return &Service{
		db:     db,
		client: client,
		model:  client.GenerativeModel(cfg.Model),
	}
}

// Enabled reports whether a Gemini client is configured
func (s *Service) Enabled() bool {
	return s.model != nil
}

// Close closes the underlying client connection
func (s *Service) Close() {
	if s.client != nil {
		s.client.Close()
	}
}

// ReviewPostAsync reviews a post in the background. The HTTP request that
// created the post has already been answered.
func (s *Service) ReviewPostAsync(postID, content string) {
	if !s.Enabled() {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		flagged, err := s.review(ctx, content)
		if err != nil {
			log.Printf("Moderation: review of post %s failed: %v", postID, err)
			return
		}
		if !flagged {
			return
		}
		if err := s.db.Model(&models.Post{}).Where("id = ?", postID).Update("flagged", true).Error; err != nil {
			log.Printf("Moderation: failed to flag post %s: %v", postID, err)
			return
		}
		log.Printf("Moderation: post %s flagged for review", postID)
	}()
}

func (s *Service) review(ctx context.Context, content string) (bool, error) {
	prompt := "You are a content moderator for a social job board. " +
		"Answer with the single word SAFE or UNSAFE. " +
		"UNSAFE means harassment, hate speech, doxxing, or scam content.\n\nPost:\n" + content

	resp, err := s.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return false, fmt.Errorf("gemini generation error: %w", err)
	}
	if len(resp.Candidates) == 0 || len(resp.Candidates[0].Content.Parts) == 0 {
		return false, fmt.Errorf("empty response from gemini")
	}

	var verdict string
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			verdict += string(txt)
		}
	}
	return strings.Contains(strings.ToUpper(verdict), "UNSAFE"), nil
}
