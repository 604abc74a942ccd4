package services

import (
	"context"

	"github.com/devhub-se/apiserver/types"
)

// SnippetRepository defines persistence operations for snippets.
type SnippetRepository interface {
	List(ctx context.Context, language string) ([]types.Snippet, error)
	GetByID(ctx context.Context, id int) (types.Snippet, error)
	Create(ctx context.Context, snippet types.Snippet) (types.Snippet, error)
	Update(ctx context.Context, snippet types.Snippet) (types.Snippet, error)
	Delete(ctx context.Context, id int) error
}

// SnippetService encapsulates snippet use-cases.
type SnippetService struct {
	repo SnippetRepository
}

func NewSnippetService(repo SnippetRepository) *SnippetService {
	return &SnippetService{repo: repo}
}

func (s *SnippetService) List(ctx context.Context, language string) ([]types.Snippet, error) {
	return s.repo.List(ctx, language)
}

func (s *SnippetService) Get(ctx context.Context, id int) (types.Snippet, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *SnippetService) Create(ctx context.Context, snippet types.Snippet) (types.Snippet, error) {
	return s.repo.Create(ctx, snippet)
}

func (s *SnippetService) Update(ctx context.Context, snippet types.Snippet) (types.Snippet, error) {
	return s.repo.Update(ctx, snippet)
}

func (s *SnippetService) Delete(ctx context.Context, id int) error {
	return s.repo.Delete(ctx, id)
}
