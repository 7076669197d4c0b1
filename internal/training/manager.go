package training

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/visiona-app/visiona/internal/audit"
	"github.com/visiona-app/visiona/internal/entitlement"
	"github.com/visiona-app/visiona/internal/models"
	"github.com/visiona-app/visiona/internal/replicate"
	"github.com/visiona-app/visiona/internal/store"
)

const minTrainingPhotos = 5

// Training hyperparameters are fixed; users only choose photos and the
// trigger word.
var trainingHyperparameters = map[string]any{
	"train_batch_size": 1,
	"num_train_epochs": 4000,
	"learning_rate":    1e-4,
	"resolution":       512,
	"mixed_precision":  "fp16",
}

var (
	ErrInsufficientPhotos = errors.New("at least 5 photos are required for training")
	ErrModelNotFound      = errors.New("model not found")
)

type Trainer interface {
	SubmitTraining(ctx context.Context, req replicate.TrainingRequest) (string, error)
	GetTrainingStatus(ctx context.Context, jobID string) (*replicate.TrainingStatus, error)
}

type Store interface {
	CreateModel(ctx context.Context, model *models.Model) error
	GetModelForUser(ctx context.Context, modelID, userID int64) (*models.Model, error)
	UpdateModelStatus(ctx context.Context, modelID int64, status models.ModelStatus) error
}

// Manager owns the Model status state machine: Processing on submission, then
// Ready or Failed from status polls. Terminal states are sticky.
type Manager struct {
	store   Store
	quota   *entitlement.QuotaGuard
	trainer Trainer
	audit   audit.Writer
	log     *slog.Logger
}

func NewManager(store Store, quota *entitlement.QuotaGuard, trainer Trainer, auditWriter audit.Writer, log *slog.Logger) *Manager {
	return &Manager{
		store:   store,
		quota:   quota,
		trainer: trainer,
		audit:   auditWriter,
		log:     log,
	}
}

func (m *Manager) StartTraining(ctx context.Context, userID int64, triggerWord, modelName string, photoURLs []string) (*models.Model, error) {
	if len(photoURLs) < minTrainingPhotos {
		return nil, ErrInsufficientPhotos
	}

	if err := m.quota.CheckModelQuota(ctx, userID); err != nil {
		return nil, err
	}

	jobID, err := m.trainer.SubmitTraining(ctx, replicate.TrainingRequest{
		InputImages:     photoURLs,
		TriggerWord:     triggerWord,
		Hyperparameters: trainingHyperparameters,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to submit training job: %w", err)
	}

	model := &models.Model{
		UserID:      userID,
		JobID:       jobID,
		Name:        modelName,
		TriggerWord: triggerWord,
		Status:      models.ModelStatusProcessing,
		Parameters:  trainingHyperparameters,
	}
	if err := m.store.CreateModel(ctx, model); err != nil {
		return nil, fmt.Errorf("failed to store model: %w", err)
	}

	if err := m.audit.Record(ctx, userID, "model_training_started", map[string]any{
		"model_id":     model.ID,
		"job_id":       jobID,
		"trigger_word": triggerWord,
		"photo_count":  len(photoURLs),
	}); err != nil {
		m.log.Error("failed to write audit entry", "action", "model_training_started", "err", err)
	}

	return model, nil
}

// RefreshStatus polls the external training job and persists the mapped
// status when it changed. Repeated calls with no underlying change write
// nothing, and a terminal status is never overwritten regardless of what the
// external service reports.
func (m *Manager) RefreshStatus(ctx context.Context, modelID, userID int64) (*models.Model, *replicate.TrainingStatus, error) {
	model, err := m.store.GetModelForUser(ctx, modelID, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, nil, ErrModelNotFound
		}
		return nil, nil, err
	}

	training, err := m.trainer.GetTrainingStatus(ctx, model.JobID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to query training status: %w", err)
	}

	if model.Status.IsTerminal() {
		return model, training, nil
	}

	mapped := mapExternalStatus(training.Status)
	if mapped == model.Status {
		return model, training, nil
	}

	if err := m.store.UpdateModelStatus(ctx, model.ID, mapped); err != nil {
		return nil, nil, fmt.Errorf("failed to update model status: %w", err)
	}

	oldStatus := model.Status
	model.Status = mapped

	if err := m.audit.Record(ctx, userID, "model_status_changed", map[string]any{
		"model_id":   model.ID,
		"job_id":     model.JobID,
		"old_status": oldStatus,
		"new_status": mapped,
	}); err != nil {
		m.log.Error("failed to write audit entry", "action", "model_status_changed", "err", err)
	}

	return model, training, nil
}

func mapExternalStatus(status string) models.ModelStatus {
	switch status {
	case replicate.StatusSucceeded:
		return models.ModelStatusReady
	case replicate.StatusFailed:
		return models.ModelStatusFailed
	default:
		return models.ModelStatusProcessing
	}
}
