package users

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/miguelserrato/tapiceros-backend/pkg/db"
	"github.com/miguelserrato/tapiceros-backend/pkg/db/models"
	pkgerrors "github.com/miguelserrato/tapiceros-backend/pkg/errors"
	"github.com/miguelserrato/tapiceros-backend/pkg/pagination"
	"github.com/miguelserrato/tapiceros-backend/pkg/types"
)

// Service defines user profile operations.
type Service interface {
	Get(ctx context.Context, id uuid.UUID) (*models.User, error)
	List(ctx context.Context, params pagination.Params) ([]models.User, *types.Pagination, error)
	UpdateProfile(ctx context.Context, id uuid.UUID, input UpdateProfileInput) (*models.User, error)
	SetDeviceToken(ctx context.Context, id uuid.UUID, token string) error
}

type service struct {
	repo Repository
}

// NewService wires the users service.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "users repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.User, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, db.Translate(err, "load user")
	}
	return user, nil
}

func (s *service) List(ctx context.Context, params pagination.Params) ([]models.User, *types.Pagination, error) {
	params = params.Normalize(20, 100)
	rows, total, err := s.repo.List(ctx, params.Offset(), params.Limit)
	if err != nil {
		return nil, nil, db.Translate(err, "list users")
	}
	return rows, params.Envelope(total), nil
}

func (s *service) UpdateProfile(ctx context.Context, id uuid.UUID, input UpdateProfileInput) (*models.User, error) {
	user, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.FirstName != nil {
		user.FirstName = strings.TrimSpace(*input.FirstName)
	}
	if input.LastName != nil {
		user.LastName = strings.TrimSpace(*input.LastName)
	}
	if input.Phone != nil {
		user.Phone = input.Phone
	}
	if input.CompanyName != nil {
		user.CompanyName = input.CompanyName
	}
	if input.Bio != nil {
		user.Bio = input.Bio
	}
	if input.AvatarURL != nil {
		user.AvatarURL = input.AvatarURL
	}
	if input.City != nil {
		user.City = input.City
	}

	if err := s.repo.Update(ctx, user); err != nil {
		return nil, db.Translate(err, "update user")
	}
	return user, nil
}

func (s *service) SetDeviceToken(ctx context.Context, id uuid.UUID, token string) error {
	if id == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	var value *string
	if trimmed := strings.TrimSpace(token); trimmed != "" {
		value = &trimmed
	}
	if err := s.repo.UpdateDeviceToken(ctx, id, value); err != nil {
		return db.Translate(err, "update device token")
	}
	return nil
}
