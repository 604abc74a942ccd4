package services

import (
	"context"

	"github.com/devhub-se/apiserver/types"
)

// NewsRepository defines persistence operations for news articles.
type NewsRepository interface {
	List(ctx context.Context) ([]types.News, error)
	GetByID(ctx context.Context, id int) (types.News, error)
	Create(ctx context.Context, article types.News) (types.News, error)
	Update(ctx context.Context, article types.News) (types.News, error)
	Delete(ctx context.Context, id int) error
}

// NewsService encapsulates news use-cases.
type NewsService struct {
	repo NewsRepository
}

func NewNewsService(repo NewsRepository) *NewsService {
	return &NewsService{repo: repo}
}

func (s *NewsService) List(ctx context.Context) ([]types.News, error) {
	return s.repo.List(ctx)
}

func (s *NewsService) Get(ctx context.Context, id int) (types.News, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *NewsService) Create(ctx context.Context, article types.News) (types.News, error) {
	return s.repo.Create(ctx, article)
}

func (s *NewsService) Update(ctx context.Context, article types.News) (types.News, error) {
	return s.repo.Update(ctx, article)
}

func (s *NewsService) Delete(ctx context.Context, id int) error {
	return s.repo.Delete(ctx, id)
}
