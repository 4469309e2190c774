package service

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/singleflight"

	"github.com/fjod/go_shop/internal/domain"
	"github.com/fjod/go_shop/internal/repository"
)

// CatalogService is the read-only product lookup collaborator. Identical
// concurrent batch lookups are collapsed with singleflight so a burst of
// cart views for the same session hits the database once.
type CatalogService struct {
	repo repository.ProductRepository
	sfg  singleflight.Group
}

func NewCatalogService(repo repository.ProductRepository) *CatalogService {
	return &CatalogService{repo: repo}
}

func (s *CatalogService) GetProduct(ctx context.Context, id int64) (*domain.Product, error) {
	return s.repo.GetProduct(ctx, id)
}

func (s *CatalogService) GetProducts(ctx context.Context, ids []int64) ([]*domain.Product, error) {
	v, err, _ := s.sfg.Do(batchKey(ids), func() (interface{}, error) {
		return s.repo.GetProducts(ctx, ids)
	})
	if err != nil {
		return nil, err
	}
	return v.([]*domain.Product), nil
}

func batchKey(ids []int64) string {
	// callers pass sorted ids, so the key is stable for a given cart
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = fmt.Sprint(id)
	}
	return strings.Join(parts, ",")
}
