package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"slices"
	"time"

	"cloud.google.com/go/storage"
	"github.com/google/uuid"
	"github.com/visiona-app/visiona/internal/models"
	"github.com/visiona-app/visiona/internal/user"
)

type UploadURLRequest struct {
	ContentType string `json:"contentType"`
	Length      int    `json:"length"`
}

type UploadURLResponse struct {
	URL        string `json:"url"`
	ObjectName string `json:"objectName"`
	FileURL    string `json:"fileUrl"`
}

type ConfirmUploadRequest struct {
	ObjectName string `json:"objectName"`
}

var WHITELISTED_IMAGE_TYPES = []string{
	"image/jpeg",
	"image/png",
	"image/webp",
}

var imageExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
}

var uploadMethod string = "PUT"

type PhotoStore interface {
	CreatePhoto(ctx context.Context, photo *models.Photo) error
	ListPhotosByUser(ctx context.Context, userID int64) ([]*models.Photo, error)
}

type PhotoHandler struct {
	store      PhotoStore
	bucketName string
}

func NewPhotoHandler(store PhotoStore, bucketName string) *PhotoHandler {
	return &PhotoHandler{
		store:      store,
		bucketName: bucketName,
	}
}

func (h *PhotoHandler) generateSignedURL(objectName string, contentType string) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	client, err := storage.NewClient(ctx)
	if err != nil {
		return "", fmt.Errorf("client connection error: %w", err)
	}
	defer client.Close() // no need for err check

	expirationTime := time.Now().Add(90 * time.Second)
	bucket := client.Bucket(h.bucketName)
	url, err := bucket.SignedURL(objectName, &storage.SignedURLOptions{
		Expires:     expirationTime,
		Method:      uploadMethod,
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("failed to generate signed URL: %w", err)
	}
	return url, nil
}

func (h *PhotoHandler) objectName(userID int64, extension string) string {
	return fmt.Sprintf("%d_%s%s", userID, uuid.New().String(), extension)
}

func (h *PhotoHandler) fileURL(objectName string) string {
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", h.bucketName, objectName)
}

func (h *PhotoHandler) GetUploadURL(w http.ResponseWriter, r *http.Request) {
	dbUser, ok := user.GetDBUserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "User not found in context.")
		return
	}

	var reqBody UploadURLRequest
	if err := json.NewDecoder(r.Body).Decode(&reqBody); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	if !slices.Contains(WHITELISTED_IMAGE_TYPES, reqBody.ContentType) {
		writeError(w, http.StatusBadRequest, "invalid_content_type", fmt.Sprintf("invalid content type: %s", reqBody.ContentType))
		return
	}

	if reqBody.Length <= 0 {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid length")
		return
	}

	objectName := h.objectName(dbUser.ID, imageExtensions[reqBody.ContentType])
	url, err := h.generateSignedURL(objectName, reqBody.ContentType)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
		return
	}

	writeJSON(w, UploadURLResponse{
		URL:        url,
		ObjectName: objectName,
		FileURL:    h.fileURL(objectName),
	})
}

func (h *PhotoHandler) ConfirmUpload(w http.ResponseWriter, r *http.Request) {
	dbUser, ok := user.GetDBUserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "User not found in context.")
		return
	}

	var reqBody ConfirmUploadRequest
	if err := json.NewDecoder(r.Body).Decode(&reqBody); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	if reqBody.ObjectName == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "objectName is required.")
		return
	}

	photo := &models.Photo{
		UserID:     dbUser.ID,
		ObjectName: reqBody.ObjectName,
		FileURL:    h.fileURL(reqBody.ObjectName),
	}
	if err := h.store.CreatePhoto(r.Context(), photo); err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, photo)
}

func (h *PhotoHandler) ListPhotos(w http.ResponseWriter, r *http.Request) {
	dbUser, ok := user.GetDBUserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "User not found in context.")
		return
	}

	photos, err := h.store.ListPhotosByUser(r.Context(), dbUser.ID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, photos)
}
