package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/visiona-app/visiona/internal/entitlement"
	"github.com/visiona-app/visiona/internal/generation"
	"github.com/visiona-app/visiona/internal/models"
	"github.com/visiona-app/visiona/internal/replicate"
	"github.com/visiona-app/visiona/internal/user"
)

type TrainingService interface {
	StartTraining(ctx context.Context, userID int64, triggerWord, modelName string, photoURLs []string) (*models.Model, error)
	RefreshStatus(ctx context.Context, modelID, userID int64) (*models.Model, *replicate.TrainingStatus, error)
}

type GenerationService interface {
	Generate(ctx context.Context, userID int64, req generation.Request) ([]*models.Generation, error)
}

type QuotaService interface {
	Summary(ctx context.Context, userID int64) (*entitlement.QuotaSummary, error)
}

type GalleryStore interface {
	ListModelsByUser(ctx context.Context, userID int64) ([]*models.Model, error)
	ListGenerationsByUser(ctx context.Context, userID int64, offset, limit int) ([]*models.Generation, error)
	DeleteGenerationForUser(ctx context.Context, generationID, userID int64) error
	ListPhotosByUser(ctx context.Context, userID int64) ([]*models.Photo, error)
}

type Handler struct {
	training  TrainingService
	generator GenerationService
	quota     QuotaService
	store     GalleryStore
}

func NewHandler(training TrainingService, generator GenerationService, quota QuotaService, store GalleryStore) *Handler {
	return &Handler{
		training:  training,
		generator: generator,
		quota:     quota,
		store:     store,
	}
}

type StartTrainingRequest struct {
	TriggerWord string   `json:"trigger_word"`
	ModelName   string   `json:"model_name"`
	PhotoURLs   []string `json:"photo_urls,omitempty"`
}

type StartTrainingResponse struct {
	Model *models.Model `json:"model"`
	JobID string        `json:"job_id"`
}

func (h *Handler) StartTraining(w http.ResponseWriter, r *http.Request) {
	dbUser, ok := user.GetDBUserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "User not found in context.")
		return
	}

	var req StartTrainingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	if req.TriggerWord == "" || req.ModelName == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "trigger_word and model_name are required.")
		return
	}

	photoURLs := req.PhotoURLs
	if len(photoURLs) == 0 {
		photos, err := h.store.ListPhotosByUser(r.Context(), dbUser.ID)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		for _, p := range photos {
			photoURLs = append(photoURLs, p.FileURL)
		}
	}

	model, err := h.training.StartTraining(r.Context(), dbUser.ID, req.TriggerWord, req.ModelName, photoURLs)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, StartTrainingResponse{
		Model: model,
		JobID: model.JobID,
	})
}

type TrainingStatusResponse struct {
	Model    *models.Model             `json:"model"`
	Training *replicate.TrainingStatus `json:"training,omitempty"`
}

func (h *Handler) GetTrainingStatus(w http.ResponseWriter, r *http.Request) {
	dbUser, ok := user.GetDBUserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "User not found in context.")
		return
	}

	modelID, err := strconv.ParseInt(mux.Vars(r)["modelID"], 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "Model ID is required.")
		return
	}

	model, training, err := h.training.RefreshStatus(r.Context(), modelID, dbUser.ID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, TrainingStatusResponse{
		Model:    model,
		Training: training,
	})
}

func (h *Handler) ListModels(w http.ResponseWriter, r *http.Request) {
	dbUser, ok := user.GetDBUserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "User not found in context.")
		return
	}

	modelsList, err := h.store.ListModelsByUser(r.Context(), dbUser.ID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, modelsList)
}

type GenerateResponse struct {
	Images []*models.Generation `json:"images"`
}

func (h *Handler) Generate(w http.ResponseWriter, r *http.Request) {
	dbUser, ok := user.GetDBUserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "User not found in context.")
		return
	}

	var req generation.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	if req.ModelID == 0 || req.Prompt == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "model_id and prompt are required.")
		return
	}

	images, err := h.generator.Generate(r.Context(), dbUser.ID, req)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, GenerateResponse{Images: images})
}

func (h *Handler) ListGenerations(w http.ResponseWriter, r *http.Request) {
	dbUser, ok := user.GetDBUserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "User not found in context.")
		return
	}

	offset := queryInt(r, "start", 0)
	limit := queryInt(r, "limit", 50)

	generations, err := h.store.ListGenerationsByUser(r.Context(), dbUser.ID, offset, limit)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, generations)
}

func (h *Handler) DeleteGeneration(w http.ResponseWriter, r *http.Request) {
	dbUser, ok := user.GetDBUserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "User not found in context.")
		return
	}

	generationID, err := strconv.ParseInt(mux.Vars(r)["generationID"], 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "Generation ID is required.")
		return
	}

	if err := h.store.DeleteGenerationForUser(r.Context(), generationID, dbUser.ID); err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, map[string]string{"message": "Generation deleted"})
}

func (h *Handler) GetQuotaSummary(w http.ResponseWriter, r *http.Request) {
	dbUser, ok := user.GetDBUserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "User not found in context.")
		return
	}

	summary, err := h.quota.Summary(r.Context(), dbUser.ID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, summary)
}

func (h *Handler) GetCurrentUser(w http.ResponseWriter, r *http.Request) {
	dbUser, ok := user.GetDBUserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "User not found in context.")
		return
	}

	writeJSON(w, dbUser)
}

func queryInt(r *http.Request, key string, defaultValue int) int {
	if value := r.URL.Query().Get(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil && intValue >= 0 {
			return intValue
		}
	}
	return defaultValue
}
