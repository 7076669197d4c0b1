package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/bun"
	"github.com/visiona-app/visiona/internal/models"
)

type PostgresStore struct {
	db *bun.DB
}

func NewPostgresStore(db *bun.DB) (*PostgresStore, error) {
	store := &PostgresStore{db: db}

	ctx := context.Background()
	if err := store.InitializeDatabase(ctx); err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	return store, nil
}

func (s *PostgresStore) InitializeDatabase(ctx context.Context) error {
	_, err := s.db.NewCreateTable().
		Model((*models.ModelDB)(nil)).
		IfNotExists().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to create models table: %w", err)
	}

	_, err = s.db.NewCreateTable().
		Model((*models.GenerationDB)(nil)).
		IfNotExists().
		ForeignKey(`("model_id") REFERENCES "models" ("id")`).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to create generations table: %w", err)
	}

	_, err = s.db.NewCreateTable().
		Model((*models.PaymentRecordDB)(nil)).
		IfNotExists().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to create payment_records table: %w", err)
	}

	_, err = s.db.NewCreateTable().
		Model((*models.PhotoDB)(nil)).
		IfNotExists().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to create photos table: %w", err)
	}

	_, err = s.db.NewCreateIndex().
		Model((*models.ModelDB)(nil)).
		Index("idx_models_user_id").
		Column("user_id").
		IfNotExists().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to create models user_id index: %w", err)
	}

	_, err = s.db.NewCreateIndex().
		Model((*models.GenerationDB)(nil)).
		Index("idx_generations_user_created").
		Column("user_id", "created_at").
		IfNotExists().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to create generations user/created index: %w", err)
	}

	_, err = s.db.NewCreateIndex().
		Model((*models.PaymentRecordDB)(nil)).
		Index("idx_payment_records_user_id").
		Column("user_id").
		IfNotExists().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to create payment_records user_id index: %w", err)
	}

	_, err = s.db.NewCreateIndex().
		Model((*models.PaymentRecordDB)(nil)).
		Index("idx_payment_records_customer_ref").
		Column("customer_ref").
		IfNotExists().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to create payment_records customer_ref index: %w", err)
	}

	_, err = s.db.NewCreateIndex().
		Model((*models.PhotoDB)(nil)).
		Index("idx_photos_user_id").
		Column("user_id").
		IfNotExists().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to create photos user_id index: %w", err)
	}

	return nil
}

func (s *PostgresStore) CreateModel(ctx context.Context, model *models.Model) error {
	now := time.Now()
	modelDB := models.ModelFromDomain(model)
	modelDB.CreatedAt = now
	modelDB.UpdatedAt = now

	_, err := s.db.NewInsert().
		Model(modelDB).
		Returning("id").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to create model: %w", err)
	}
	model.ID = modelDB.ID
	model.CreatedAt = modelDB.CreatedAt
	model.UpdatedAt = modelDB.UpdatedAt
	return nil
}

func (s *PostgresStore) GetModelForUser(ctx context.Context, modelID, userID int64) (*models.Model, error) {
	var modelDB models.ModelDB
	err := s.db.NewSelect().
		Model(&modelDB).
		Where("id = ?", modelID).
		Where("user_id = ?", userID).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get model: %w", err)
	}
	return modelDB.ToModel(), nil
}

func (s *PostgresStore) ListModelsByUser(ctx context.Context, userID int64) ([]*models.Model, error) {
	var modelsDB []*models.ModelDB
	err := s.db.NewSelect().
		Model(&modelsDB).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list models: %w", err)
	}

	result := make([]*models.Model, 0, len(modelsDB))
	for _, m := range modelsDB {
		result = append(result, m.ToModel())
	}
	return result, nil
}

func (s *PostgresStore) CountModelsByUser(ctx context.Context, userID int64) (int, error) {
	count, err := s.db.NewSelect().
		Model((*models.ModelDB)(nil)).
		Where("user_id = ?", userID).
		Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to count models: %w", err)
	}
	return count, nil
}

func (s *PostgresStore) UpdateModelStatus(ctx context.Context, modelID int64, status models.ModelStatus) error {
	_, err := s.db.NewUpdate().
		Model((*models.ModelDB)(nil)).
		Set("status = ?", status).
		Set("updated_at = ?", time.Now()).
		Where("id = ?", modelID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to update model status: %w", err)
	}
	return nil
}

func (s *PostgresStore) CreateGeneration(ctx context.Context, generation *models.Generation) error {
	generationDB := models.GenerationFromDomain(generation)
	generationDB.CreatedAt = time.Now()

	_, err := s.db.NewInsert().
		Model(generationDB).
		Returning("id").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to create generation: %w", err)
	}
	generation.ID = generationDB.ID
	generation.CreatedAt = generationDB.CreatedAt
	return nil
}

func (s *PostgresStore) CountGenerationsSince(ctx context.Context, userID int64, since time.Time) (int, error) {
	count, err := s.db.NewSelect().
		Model((*models.GenerationDB)(nil)).
		Where("user_id = ?", userID).
		Where("created_at >= ?", since).
		Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to count generations: %w", err)
	}
	return count, nil
}

func (s *PostgresStore) ListGenerationsByUser(ctx context.Context, userID int64, offset, limit int) ([]*models.Generation, error) {
	var generationsDB []*models.GenerationDB
	query := s.db.NewSelect().
		Model(&generationsDB).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Offset(offset)
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Scan(ctx); err != nil {
		return nil, fmt.Errorf("failed to list generations: %w", err)
	}

	result := make([]*models.Generation, 0, len(generationsDB))
	for _, g := range generationsDB {
		result = append(result, g.ToGeneration())
	}
	return result, nil
}

func (s *PostgresStore) DeleteGenerationForUser(ctx context.Context, generationID, userID int64) error {
	res, err := s.db.NewDelete().
		Model((*models.GenerationDB)(nil)).
		Where("id = ?", generationID).
		Where("user_id = ?", userID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to delete generation: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) CreatePaymentRecord(ctx context.Context, record *models.PaymentRecord) error {
	now := time.Now()
	recordDB := models.PaymentRecordFromDomain(record)
	recordDB.CreatedAt = now
	recordDB.UpdatedAt = now

	_, err := s.db.NewInsert().
		Model(recordDB).
		Returning("id").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to create payment record: %w", err)
	}
	record.ID = recordDB.ID
	record.CreatedAt = recordDB.CreatedAt
	record.UpdatedAt = recordDB.UpdatedAt
	return nil
}

func (s *PostgresStore) ListPaymentRecordsByUser(ctx context.Context, userID int64) ([]*models.PaymentRecord, error) {
	var recordsDB []*models.PaymentRecordDB
	err := s.db.NewSelect().
		Model(&recordsDB).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list payment records: %w", err)
	}

	result := make([]*models.PaymentRecord, 0, len(recordsDB))
	for _, r := range recordsDB {
		result = append(result, r.ToPaymentRecord())
	}
	return result, nil
}

func (s *PostgresStore) GetPaymentRecordByChargeRef(ctx context.Context, chargeRef string) (*models.PaymentRecord, error) {
	var recordDB models.PaymentRecordDB
	err := s.db.NewSelect().
		Model(&recordDB).
		Where("charge_ref = ?", chargeRef).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get payment record by charge ref: %w", err)
	}
	return recordDB.ToPaymentRecord(), nil
}

func (s *PostgresStore) GetPaymentRecordByCustomerRef(ctx context.Context, customerRef string) (*models.PaymentRecord, error) {
	var recordDB models.PaymentRecordDB
	err := s.db.NewSelect().
		Model(&recordDB).
		Where("customer_ref = ?", customerRef).
		Order("created_at DESC").
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get payment record by customer ref: %w", err)
	}
	return recordDB.ToPaymentRecord(), nil
}

func (s *PostgresStore) UpdatePaymentRecordStatus(ctx context.Context, recordID int64, status string) error {
	_, err := s.db.NewUpdate().
		Model((*models.PaymentRecordDB)(nil)).
		Set("status = ?", status).
		Set("updated_at = ?", time.Now()).
		Where("id = ?", recordID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to update payment record status: %w", err)
	}
	return nil
}

func (s *PostgresStore) CreatePhoto(ctx context.Context, photo *models.Photo) error {
	photoDB := &models.PhotoDB{
		UserID:     photo.UserID,
		ObjectName: photo.ObjectName,
		FileURL:    photo.FileURL,
		CreatedAt:  time.Now(),
	}

	_, err := s.db.NewInsert().
		Model(photoDB).
		Returning("id").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to create photo: %w", err)
	}
	photo.ID = photoDB.ID
	photo.CreatedAt = photoDB.CreatedAt
	return nil
}

func (s *PostgresStore) ListPhotosByUser(ctx context.Context, userID int64) ([]*models.Photo, error) {
	var photosDB []*models.PhotoDB
	err := s.db.NewSelect().
		Model(&photosDB).
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list photos: %w", err)
	}

	result := make([]*models.Photo, 0, len(photosDB))
	for _, p := range photosDB {
		result = append(result, p.ToPhoto())
	}
	return result, nil
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}
