package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/repo"
)

type UserService struct {
	Repo *repo.GormRepo
}

func (s *UserService) ListUsers(ctx context.Context, page int) (Page[models.User], error) {
	page, offset, limit := window(page, AdminOrdersPageSize, AdminOrdersPageSize)
	total, users, err := s.Repo.ListUsers(ctx, offset, limit)
	if err != nil {
		return Page[models.User]{}, storage(err)
	}
	return newPage(users, total, page, limit), nil
}

func (s *UserService) UpdateUserRole(ctx context.Context, id uuid.UUID, role string) (*models.User, error) {
	if role != models.RoleCustomer && role != models.RoleAdmin {
		return nil, validation("role must be %q or %q", models.RoleCustomer, models.RoleAdmin)
	}
	if err := s.Repo.UpdateUserRole(ctx, id, role); err != nil {
		return nil, notFound(err, ErrUserNotFound)
	}
	user, err := s.Repo.UserByID(ctx, id)
	if err != nil {
		return nil, notFound(err, ErrUserNotFound)
	}
	return user, nil
}
