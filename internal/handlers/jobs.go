package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/maskoff-app/maskoffgo/internal/middleware"
	"github.com/maskoff-app/maskoffgo/internal/models"
	"github.com/maskoff-app/maskoffgo/internal/ws"
)

// withPoster attaches the poster's public identity to a job
func (r *Router) withPoster(job models.Job) models.PublicJob {
	out := models.PublicJob{Job: job}
	out.User = models.PublicUser{UserID: job.UserID, Username: "Unknown User", PublicInfo: map[string]interface{}{}}

	var user models.UserAuth
	if err := r.db.Select("id", "username", "name").First(&user, "id = ?", job.UserID).Error; err != nil {
		return out
	}
	out.User.Username = user.Username
	out.User.Name = user.Name

	var profile models.UserProfile
	if err := r.db.First(&profile, "user_id = ?", job.UserID).Error; err == nil && len(profile.PublicInfo) > 0 {
		out.User.PublicInfo = json.RawMessage(profile.PublicInfo)
	}
	return out
}

// createJob creates a job posting owned by the caller
func (r *Router) createJob(w http.ResponseWriter, req *http.Request) {
	callerID := middleware.UserID(req)

	var body struct {
		Title          string  `json:"title"`
		Description    string  `json:"description"`
		Price          float64 `json:"price"`
		ContractPeriod string  `json:"contractPeriod"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil ||
		body.Title == "" || body.Description == "" || body.Price == 0 || body.ContractPeriod == "" {
		respondError(w, http.StatusBadRequest, "Title, description, price, and contract period are required.")
		return
	}

	job := models.Job{
		UserID:         callerID,
		Title:          body.Title,
		Description:    body.Description,
		Price:          body.Price,
		ContractPeriod: body.ContractPeriod,
	}
	if err := r.db.Create(&job).Error; err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to create job")
		return
	}

	respondJSON(w, http.StatusCreated, map[string]interface{}{
		"message": "Job created successfully.",
		"job":     r.withPoster(job),
	})
}

// listJobs returns all job postings with poster info
func (r *Router) listJobs(w http.ResponseWriter, req *http.Request) {
	var jobs []models.Job
	if err := r.db.Order("created_at DESC").Find(&jobs).Error; err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to fetch jobs")
		return
	}

	out := make([]models.PublicJob, 0, len(jobs))
	for _, job := range jobs {
		out = append(out, r.withPoster(job))
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"jobs": out})
}

// getJob returns a single job posting
func (r *Router) getJob(w http.ResponseWriter, req *http.Request) {
	jobID := mux.Vars(req)["jobID"]

	var job models.Job
	if err := r.db.First(&job, "id = ?", jobID).Error; err != nil {
		respondError(w, http.StatusNotFound, "Job not found.")
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"job": r.withPoster(job)})
}

// updateJob edits the caller's own job posting
func (r *Router) updateJob(w http.ResponseWriter, req *http.Request) {
	callerID := middleware.UserID(req)
	jobID := mux.Vars(req)["jobID"]

	var body struct {
		Title          string  `json:"title"`
		Description    string  `json:"description"`
		Price          float64 `json:"price"`
		ContractPeriod string  `json:"contractPeriod"`
		IsComplete     *bool   `json:"isComplete"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	var job models.Job
	if err := r.db.First(&job, "id = ?", jobID).Error; err != nil {
		respondError(w, http.StatusNotFound, "Job not found.")
		return
	}
	if job.UserID != callerID {
		respondError(w, http.StatusForbidden, "Not authorized to update this job.")
		return
	}

	if body.Title != "" {
		job.Title = body.Title
	}
	if body.Description != "" {
		job.Description = body.Description
	}
	if body.Price != 0 {
		job.Price = body.Price
	}
	if body.ContractPeriod != "" {
		job.ContractPeriod = body.ContractPeriod
	}
	if body.IsComplete != nil {
		job.IsComplete = *body.IsComplete
	}

	if err := r.db.Save(&job).Error; err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to update job")
		return
	}

	// Hint the owner's other sessions to refresh the job board
	r.hub.NotifyUser(job.UserID, ws.UpdateEvent(ws.UpdateJobs))
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Job updated",
		"job":     job,
	})
}

// deleteJob removes the caller's own job posting
func (r *Router) deleteJob(w http.ResponseWriter, req *http.Request) {
	callerID := middleware.UserID(req)
	jobID := mux.Vars(req)["jobID"]

	var job models.Job
	if err := r.db.First(&job, "id = ?", jobID).Error; err != nil {
		respondError(w, http.StatusNotFound, "Job not found.")
		return
	}
	if job.UserID != callerID {
		respondError(w, http.StatusForbidden, "Not authorized to delete this job.")
		return
	}

	if err := r.db.Delete(&job).Error; err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to delete job")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "Job deleted"})
}

// listUserJobs returns every job posted by one user
func (r *Router) listUserJobs(w http.ResponseWriter, req *http.Request) {
	userID := mux.Vars(req)["userID"]

	var jobs []models.Job
	if err := r.db.Where("user_id = ?", userID).Order("created_at DESC").Find(&jobs).Error; err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to fetch jobs")
		return
	}

	out := make([]models.PublicJob, 0, len(jobs))
	for _, job := range jobs {
		out = append(out, r.withPoster(job))
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"jobs": out})
}
