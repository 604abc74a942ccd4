package services

import (
	"context"

	"github.com/devhub-se/apiserver/types"
)

// CategoryRepository defines persistence operations for categories.
type CategoryRepository interface {
	List(ctx context.Context) ([]types.Category, error)
	GetByID(ctx context.Context, id int) (types.Category, error)
	GetByName(ctx context.Context, name string) (types.Category, error)
	Create(ctx context.Context, category types.Category) (types.Category, error)
	Delete(ctx context.Context, id int) error
}

// SubcategoryRepository defines persistence operations for subcategories.
type SubcategoryRepository interface {
	ListByCategory(ctx context.Context, categoryID int) ([]types.Subcategory, error)
	GetByID(ctx context.Context, id int) (types.Subcategory, error)
	Create(ctx context.Context, subcategory types.Subcategory) (types.Subcategory, error)
	Delete(ctx context.Context, id int) error
}

// ThreadRepository defines persistence operations for threads.
type ThreadRepository interface {
	ListBySubcategory(ctx context.Context, subcategoryID int) ([]types.Thread, error)
	GetByID(ctx context.Context, id int) (types.Thread, error)
	Create(ctx context.Context, thread types.Thread) (types.Thread, error)
	Update(ctx context.Context, thread types.Thread) (types.Thread, error)
	Delete(ctx context.Context, id int) error
}

// PostRepository defines persistence operations for posts.
type PostRepository interface {
	ListByThread(ctx context.Context, threadID int) ([]types.Post, error)
	GetByID(ctx context.Context, id int) (types.Post, error)
	Create(ctx context.Context, post types.Post) (types.Post, error)
	Update(ctx context.Context, post types.Post) (types.Post, error)
	Delete(ctx context.Context, id int) error
}

// ForumService encapsulates forum use-cases across categories,
// subcategories, threads, and posts.
type ForumService struct {
	categories    CategoryRepository
	subcategories SubcategoryRepository
	threads       ThreadRepository
	posts         PostRepository
}

func NewForumService(
	categories CategoryRepository,
	subcategories SubcategoryRepository,
	threads ThreadRepository,
	posts PostRepository,
) *ForumService {
	return &ForumService{
		categories:    categories,
		subcategories: subcategories,
		threads:       threads,
		posts:         posts,
	}
}

func (s *ForumService) ListCategories(ctx context.Context) ([]types.Category, error) {
	return s.categories.List(ctx)
}

func (s *ForumService) GetCategory(ctx context.Context, id int) (types.Category, error) {
	return s.categories.GetByID(ctx, id)
}

func (s *ForumService) GetCategoryByName(ctx context.Context, name string) (types.Category, error) {
	return s.categories.GetByName(ctx, name)
}

func (s *ForumService) CreateCategory(ctx context.Context, category types.Category) (types.Category, error) {
	return s.categories.Create(ctx, category)
}

func (s *ForumService) DeleteCategory(ctx context.Context, id int) error {
	return s.categories.Delete(ctx, id)
}

func (s *ForumService) ListSubcategories(ctx context.Context, categoryID int) ([]types.Subcategory, error) {
	return s.subcategories.ListByCategory(ctx, categoryID)
}

func (s *ForumService) GetSubcategory(ctx context.Context, id int) (types.Subcategory, error) {
	return s.subcategories.GetByID(ctx, id)
}

func (s *ForumService) CreateSubcategory(ctx context.Context, subcategory types.Subcategory) (types.Subcategory, error) {
	return s.subcategories.Create(ctx, subcategory)
}

func (s *ForumService) DeleteSubcategory(ctx context.Context, id int) error {
	return s.subcategories.Delete(ctx, id)
}

func (s *ForumService) ListThreads(ctx context.Context, subcategoryID int) ([]types.Thread, error) {
	return s.threads.ListBySubcategory(ctx, subcategoryID)
}

func (s *ForumService) GetThread(ctx context.Context, id int) (types.Thread, error) {
	return s.threads.GetByID(ctx, id)
}

func (s *ForumService) CreateThread(ctx context.Context, thread types.Thread) (types.Thread, error) {
	return s.threads.Create(ctx, thread)
}

func (s *ForumService) UpdateThread(ctx context.Context, thread types.Thread) (types.Thread, error) {
	return s.threads.Update(ctx, thread)
}

func (s *ForumService) DeleteThread(ctx context.Context, id int) error {
	return s.threads.Delete(ctx, id)
}

func (s *ForumService) ListPosts(ctx context.Context, threadID int) ([]types.Post, error) {
	return s.posts.ListByThread(ctx, threadID)
}

func (s *ForumService) GetPost(ctx context.Context, id int) (types.Post, error) {
	return s.posts.GetByID(ctx, id)
}

func (s *ForumService) CreatePost(ctx context.Context, post types.Post) (types.Post, error) {
	return s.posts.Create(ctx, post)
}

func (s *ForumService) UpdatePost(ctx context.Context, post types.Post) (types.Post, error) {
	return s.posts.Update(ctx, post)
}

func (s *ForumService) DeletePost(ctx context.Context, id int) error {
	return s.posts.Delete(ctx, id)
}
