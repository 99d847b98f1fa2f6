package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/maskoff-app/maskoffgo/internal/middleware"
	"github.com/maskoff-app/maskoffgo/internal/models"
	"github.com/maskoff-app/maskoffgo/internal/ws"
)

// createPost creates a feed post; MaskON posts carry the caller's anonymous
// identity instead of their username
func (r *Router) createPost(w http.ResponseWriter, req *http.Request) {
	callerID := middleware.UserID(req)

	var body struct {
		Content     string          `json:"content"`
		Tags        json.RawMessage `json:"tags"`
		IsAnonymous bool            `json:"isAnonymous"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil || body.Content == "" {
		respondError(w, http.StatusBadRequest, "Content is required.")
		return
	}

	var user models.UserAuth
	if err := r.db.First(&user, "id = ?", callerID).Error; err != nil {
		respondError(w, http.StatusNotFound, "User not found.")
		return
	}

	post := models.Post{
		UserID:      callerID,
		Author:      user.Username,
		Content:     body.Content,
		IsAnonymous: body.IsAnonymous,
		Tags:        datatypes.JSON(body.Tags),
	}
	if body.IsAnonymous {
		var profile models.UserProfile
		if err := r.db.First(&profile, "user_id = ?", callerID).Error; err == nil {
			post.AnonymousIdentity = profile.AnonymousIdentity
			post.AnonymousDetails = profile.AnonymousDetails
		}
	}

	if err := r.db.Create(&post).Error; err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to create post")
		return
	}

	r.moderation.ReviewPostAsync(post.ID, post.Content)
	respondJSON(w, http.StatusCreated, map[string]interface{}{
		"message": "Post created successfully.",
		"post":    post.ToPublic(),
	})
}

// listPosts returns the public feed, newest first
func (r *Router) listPosts(w http.ResponseWriter, req *http.Request) {
	var posts []models.Post
	err := r.db.
		Preload("Comments", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC") }).
		Order("created_at DESC").
		Find(&posts).Error
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to fetch posts")
		return
	}

	out := make([]models.PublicPost, 0, len(posts))
	for i := range posts {
		out = append(out, posts[i].ToPublic())
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"posts": out})
}

// updatePost edits the caller's own post
func (r *Router) updatePost(w http.ResponseWriter, req *http.Request) {
	callerID := middleware.UserID(req)
	postID := mux.Vars(req)["postID"]

	var body struct {
		Content     string          `json:"content"`
		Tags        json.RawMessage `json:"tags"`
		IsAnonymous *bool           `json:"isAnonymous"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	var post models.Post
	if err := r.db.First(&post, "id = ?", postID).Error; err != nil {
		respondError(w, http.StatusNotFound, "Post not found")
		return
	}
	if post.UserID != callerID {
		respondError(w, http.StatusForbidden, "Not authorized to update this post.")
		return
	}

	if body.Content != "" {
		post.Content = body.Content
	}
	if body.Tags != nil {
		post.Tags = datatypes.JSON(body.Tags)
	}
	if body.IsAnonymous != nil {
		post.IsAnonymous = *body.IsAnonymous
	}

	if err := r.db.Save(&post).Error; err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to update post")
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Post updated",
		"post":    post.ToPublic(),
	})
}

// deletePost removes the caller's own post with its comments and votes
func (r *Router) deletePost(w http.ResponseWriter, req *http.Request) {
	callerID := middleware.UserID(req)
	postID := mux.Vars(req)["postID"]

	var post models.Post
	if err := r.db.First(&post, "id = ?", postID).Error; err != nil {
		respondError(w, http.StatusNotFound, "Post not found")
		return
	}
	if post.UserID != callerID {
		respondError(w, http.StatusForbidden, "Not authorized to delete this post.")
		return
	}

	if err := r.db.Select("Comments", "Votes").Delete(&post).Error; err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to delete post")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "Post deleted"})
}

// addComment appends a comment; anonymous comments mask the author
func (r *Router) addComment(w http.ResponseWriter, req *http.Request) {
	callerID := middleware.UserID(req)
	postID := mux.Vars(req)["postID"]

	var body struct {
		Content     string `json:"content"`
		IsAnonymous bool   `json:"isAnonymous"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil || body.Content == "" {
		respondError(w, http.StatusBadRequest, "Content is required.")
		return
	}

	var post models.Post
	if err := r.db.First(&post, "id = ?", postID).Error; err != nil {
		respondError(w, http.StatusNotFound, "Post not found")
		return
	}

	var user models.UserAuth
	if err := r.db.First(&user, "id = ?", callerID).Error; err != nil {
		respondError(w, http.StatusNotFound, "User not found.")
		return
	}

	comment := models.Comment{
		PostID:  postID,
		UserID:  callerID,
		Author:  user.Username,
		Content: body.Content,
	}
	if body.IsAnonymous {
		var profile models.UserProfile
		if err := r.db.First(&profile, "user_id = ?", callerID).Error; err == nil {
			comment.AnonymousIdentity = profile.AnonymousIdentity
			comment.AnonymousDetails = profile.AnonymousDetails
		}
	}

	if err := r.db.Create(&comment).Error; err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to add comment")
		return
	}

	// Hint the post owner to refresh their feed
	if post.UserID != callerID {
		r.hub.NotifyUser(post.UserID, ws.UpdateEvent(ws.UpdatePosts))
	}
	respondJSON(w, http.StatusCreated, map[string]interface{}{
		"message": "Comment added",
		"comment": comment.ToPublic(),
	})
}

// upvotePost records a +1 vote for the caller
func (r *Router) upvotePost(w http.ResponseWriter, req *http.Request) {
	r.votePost(w, req, 1)
}

// downvotePost records a -1 vote for the caller
func (r *Router) downvotePost(w http.ResponseWriter, req *http.Request) {
	r.votePost(w, req, -1)
}

// votePost upserts the caller's vote and recomputes the post's counters.
// Voting the same way twice is a no-op; switching sides replaces the vote.
func (r *Router) votePost(w http.ResponseWriter, req *http.Request, value int) {
	callerID := middleware.UserID(req)
	postID := mux.Vars(req)["postID"]

	var post models.Post
	if err := r.db.First(&post, "id = ?", postID).Error; err != nil {
		respondError(w, http.StatusNotFound, "Post not found")
		return
	}

	var vote models.PostVote
	err := r.db.First(&vote, "post_id = ? AND user_id = ?", postID, callerID).Error
	switch {
	case err == nil:
		if vote.Value != value {
			vote.Value = value
			if err := r.db.Save(&vote).Error; err != nil {
				respondError(w, http.StatusInternalServerError, "Failed to record vote")
				return
			}
		}
	case errors.Is(err, gorm.ErrRecordNotFound):
		vote = models.PostVote{PostID: postID, UserID: callerID, Value: value}
		if err := r.db.Create(&vote).Error; err != nil {
			respondError(w, http.StatusInternalServerError, "Failed to record vote")
			return
		}
	default:
		respondError(w, http.StatusInternalServerError, "Failed to look up vote")
		return
	}

	var upvotes, downvotes int64
	r.db.Model(&models.PostVote{}).Where("post_id = ? AND value = 1", postID).Count(&upvotes)
	r.db.Model(&models.PostVote{}).Where("post_id = ? AND value = -1", postID).Count(&downvotes)
	post.Upvotes = int(upvotes)
	post.Downvotes = int(downvotes)
	if err := r.db.Save(&post).Error; err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to update post counters")
		return
	}

	if post.UserID != callerID {
		r.hub.NotifyUser(post.UserID, ws.UpdateEvent(ws.UpdatePosts))
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"message":   "Vote recorded",
		"upvotes":   post.Upvotes,
		"downvotes": post.Downvotes,
	})
}
