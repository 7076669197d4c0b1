package user

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/uptrace/bun"
	"github.com/visiona-app/visiona/internal/models"
	"github.com/visiona-app/visiona/internal/store"
)

type Repository interface {
	InitializeDatabase(ctx context.Context) error
	GetBySubject(ctx context.Context, subjectID string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
	GetOrCreate(ctx context.Context, subjectID, email, firstName, lastName string) (*models.User, error)
	UpdateEmail(ctx context.Context, userID int64, email string) error
}

type UserRepository struct {
	db *bun.DB
}

func NewUserRepository(db *bun.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) InitializeDatabase(ctx context.Context) error {
	_, err := r.db.NewCreateTable().
		Model((*models.UserDB)(nil)).
		IfNotExists().
		Exec(ctx)
	if err != nil {
		return err
	}

	_, err = r.db.NewCreateIndex().
		Model((*models.UserDB)(nil)).
		Index("idx_users_subject_id").
		Column("subject_id").
		IfNotExists().
		Exec(ctx)
	return err
}

func (r *UserRepository) GetBySubject(ctx context.Context, subjectID string) (*models.User, error) {
	userDB := new(models.UserDB)
	err := r.db.NewSelect().
		Model(userDB).
		Where("subject_id = ?", subjectID).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return userDB.ToUser(), nil
}

func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	userDB := models.UserFromDomain(user)
	userDB.CreatedAt = time.Now()
	userDB.UpdatedAt = time.Now()
	_, err := r.db.NewInsert().
		Model(userDB).
		Returning("id").
		Exec(ctx)
	if err != nil {
		return err
	}
	user.ID = userDB.ID
	user.CreatedAt = userDB.CreatedAt
	user.UpdatedAt = userDB.UpdatedAt
	return nil
}

func (r *UserRepository) GetOrCreate(ctx context.Context, subjectID, email, firstName, lastName string) (*models.User, error) {
	user, err := r.GetBySubject(ctx, subjectID)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}

	newUser := &models.User{
		SubjectID: subjectID,
		Email:     email,
		FirstName: firstName,
		LastName:  lastName,
	}

	if err := r.Create(ctx, newUser); err != nil {
		return nil, err
	}

	return newUser, nil
}

func (r *UserRepository) UpdateEmail(ctx context.Context, userID int64, email string) error {
	_, err := r.db.NewUpdate().
		Model((*models.UserDB)(nil)).
		Set("email = ?", email).
		Set("updated_at = ?", time.Now()).
		Where("id = ?", userID).
		Exec(ctx)
	return err
}
