package services

import (
	"context"
	"log/slog"

	"github.com/joshua-takyi/gatherly/internal/models"
)

type CategoryService struct {
	categoriesRepo models.CategoriesRepo
	logger         *slog.Logger
}

func NewCategoryService(categoriesRepo models.CategoriesRepo, logger *slog.Logger) *CategoryService {
	return &CategoryService{
		categoriesRepo: categoriesRepo,
		logger:         logger,
	}
}

func (cs *CategoryService) ListCategories(ctx context.Context) ([]*models.Category, error) {
	return cs.categoriesRepo.ListCategories(ctx)
}

// SeedCategories inserts the default categories that are missing and
// returns how many were created.
func (cs *CategoryService) SeedCategories(ctx context.Context) (int, error) {
	created := 0
	for _, name := range models.DefaultCategories {
		ok, err := cs.categoriesRepo.EnsureCategory(ctx, name)
		if err != nil {
			return created, err
		}
		if ok {
			created++
			cs.logger.Debug("Category created", "name", name)
		}
	}
	cs.logger.Info("Categories seeded", "created", created, "total", len(models.DefaultCategories))
	return created, nil
}
