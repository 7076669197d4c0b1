package store

import (
	"context"
	"errors"
	"time"

	"github.com/visiona-app/visiona/internal/models"
)

// ErrNotFound is returned when a row lookup matches nothing.
var ErrNotFound = errors.New("not found")

type Store interface {
	InitializeDatabase(ctx context.Context) error

	CreateModel(ctx context.Context, model *models.Model) error
	GetModelForUser(ctx context.Context, modelID, userID int64) (*models.Model, error)
	ListModelsByUser(ctx context.Context, userID int64) ([]*models.Model, error)
	CountModelsByUser(ctx context.Context, userID int64) (int, error)
	UpdateModelStatus(ctx context.Context, modelID int64, status models.ModelStatus) error

	CreateGeneration(ctx context.Context, generation *models.Generation) error
	CountGenerationsSince(ctx context.Context, userID int64, since time.Time) (int, error)
	ListGenerationsByUser(ctx context.Context, userID int64, offset, limit int) ([]*models.Generation, error)
	DeleteGenerationForUser(ctx context.Context, generationID, userID int64) error

	CreatePaymentRecord(ctx context.Context, record *models.PaymentRecord) error
	ListPaymentRecordsByUser(ctx context.Context, userID int64) ([]*models.PaymentRecord, error)
	GetPaymentRecordByChargeRef(ctx context.Context, chargeRef string) (*models.PaymentRecord, error)
	GetPaymentRecordByCustomerRef(ctx context.Context, customerRef string) (*models.PaymentRecord, error)
	UpdatePaymentRecordStatus(ctx context.Context, recordID int64, status string) error

	CreatePhoto(ctx context.Context, photo *models.Photo) error
	ListPhotosByUser(ctx context.Context, userID int64) ([]*models.Photo, error)

	Close() error
}
