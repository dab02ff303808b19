package service

import (
	"context"

	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/repo"
)

type AdminService struct {
	Repo *repo.GormRepo
}

func (s *AdminService) Stats(ctx context.Context) (*repo.SalesSummary, error) {
	return s.Repo.SalesSummary(ctx)
}

func (s *AdminService) ListUsers(ctx context.Context, offset, limit int) (int64, []models.User, error) {
	return s.Repo.ListUsers(ctx, offset, limit)
}
