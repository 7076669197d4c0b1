package user

import (
	"context"

	"github.com/visiona-app/visiona/internal/models"
)

type Service interface {
	GetOrCreate(ctx context.Context, subjectID, email, firstName, lastName string) (*models.User, error)
}

type UserService struct {
	repo Repository
}

func NewUserService(repo Repository) *UserService {
	return &UserService{repo: repo}
}

// GetOrCreate lazily provisions a user row on first authenticated access.
// Email is the only mutable field; it tracks the identity provider.
func (s *UserService) GetOrCreate(ctx context.Context, subjectID, email, firstName, lastName string) (*models.User, error) {
	user, err := s.repo.GetOrCreate(ctx, subjectID, email, firstName, lastName)
	if err != nil {
		return nil, err
	}

	if email != "" && user.Email != email {
		if err := s.repo.UpdateEmail(ctx, user.ID, email); err != nil {
			return nil, err
		}
		user.Email = email
	}

	return user, nil
}
