package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/devhub-se/apiserver/internal/authz"
	"github.com/devhub-se/apiserver/internal/events"
	"github.com/devhub-se/apiserver/internal/services"
	"github.com/devhub-se/apiserver/internal/store"
	"github.com/devhub-se/apiserver/types"
	"github.com/go-chi/chi/v5"
)

// ForumHandler provides HTTP handlers for categories, subcategories,
// threads, and posts.
type ForumHandler struct {
	forumService *services.ForumService
	publisher    *events.Publisher
}

// NewForumHandler constructs a handler with the provided dependencies.
func NewForumHandler(forumService *services.ForumService, publisher *events.Publisher) *ForumHandler {
	return &ForumHandler{
		forumService: forumService,
		publisher:    publisher,
	}
}

// ForumRouter registers forum routes on the given router. Mutating routes
// are wrapped in guards; handlers below assume the guard already ran.
func ForumRouter(r chi.Router, forumService *services.ForumService, guard *Guard, publisher *events.Publisher) {
	handler := NewForumHandler(forumService, publisher)
	roles := guard.Engine().Roles()

	threadResource := authz.Resource{
		Name:       "thread",
		Lookup:     threadLookup(forumService),
		AdminRoles: roles.ForumAdmins(),
	}
	postResource := authz.Resource{
		Name:       "post",
		Lookup:     postLookup(forumService),
		AdminRoles: roles.ForumAdmins(),
	}
	categoryAdmin := guard.RequireRole("category", roles.ForumAdmins())
	subcategoryAdmin := guard.RequireRole("subcategory", roles.ForumAdmins())

	r.Get("/categories", handler.ListCategories)
	r.With(guard.RequireAuth, categoryAdmin).Post("/categories", handler.CreateCategory)
	r.With(guard.RequireAuth, categoryAdmin).Delete("/categories/{categoryID}", handler.DeleteCategory)

	r.Get("/categories/{categoryID}/subcategories", handler.ListSubcategories)
	r.With(guard.RequireAuth, subcategoryAdmin).Post("/categories/{categoryID}/subcategories", handler.CreateSubcategory)
	r.With(guard.RequireAuth, subcategoryAdmin).Delete("/subcategories/{subcategoryID}", handler.DeleteSubcategory)

	r.Get("/subcategories/{subcategoryID}/threads", handler.ListThreads)
	r.With(guard.RequireAuth).Post("/subcategories/{subcategoryID}/threads", handler.CreateThread)

	r.Get("/threads/{threadID}", handler.GetThread)
	r.With(guard.RequireAuth, guard.RequireOwner(threadResource, "threadID")).Put("/threads/{threadID}", handler.UpdateThread)
	r.With(guard.RequireAuth, guard.RequireOwner(threadResource, "threadID")).Delete("/threads/{threadID}", handler.DeleteThread)

	r.With(guard.RequireAuth).Post("/threads/{threadID}/posts", handler.CreatePost)
	r.With(guard.RequireAuth, guard.RequireOwner(postResource, "postID")).Put("/posts/{postID}", handler.UpdatePost)
	r.With(guard.RequireAuth, guard.RequireOwner(postResource, "postID")).Delete("/posts/{postID}", handler.DeletePost)
}

func threadLookup(forumService *services.ForumService) authz.Lookup {
	return func(ctx context.Context, id int) (authz.Owned, error) {
		thread, err := forumService.GetThread(ctx, id)
		if err != nil {
			return nil, err
		}
		return thread, nil
	}
}

func postLookup(forumService *services.ForumService) authz.Lookup {
	return func(ctx context.Context, id int) (authz.Owned, error) {
		post, err := forumService.GetPost(ctx, id)
		if err != nil {
			return nil, err
		}
		return post, nil
	}
}

func (h *ForumHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.forumService.ListCategories(r.Context())
	if err != nil {
		writeMessage(w, http.StatusInternalServerError, "Failed to list categories")
		return
	}
	writeJSON(w, http.StatusOK, categories)
}

func (h *ForumHandler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var req CategoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request")
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeMessage(w, http.StatusBadRequest, "Category name is required")
		return
	}

	if _, err := h.forumService.GetCategoryByName(r.Context(), req.Name); err == nil {
		writeMessage(w, http.StatusBadRequest, "Category already exists")
		return
	} else if !errors.Is(err, store.ErrNotFound) {
		writeMessage(w, http.StatusInternalServerError, "Failed to check category")
		return
	}

	category, err := h.forumService.CreateCategory(r.Context(), types.Category{
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		writeMessage(w, http.StatusInternalServerError, "Failed to create category")
		return
	}

	writeJSON(w, http.StatusCreated, category)
}

func (h *ForumHandler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "categoryID")
	if err != nil {
		writeMessage(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.forumService.DeleteCategory(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeMessage(w, http.StatusNotFound, "Category not found")
			return
		}
		writeMessage(w, http.StatusInternalServerError, "Failed to delete category")
		return
	}

	writeMessage(w, http.StatusOK, "Category deleted successfully")
}

func (h *ForumHandler) ListSubcategories(w http.ResponseWriter, r *http.Request) {
	categoryID, err := parseIDParam(r, "categoryID")
	if err != nil {
		writeMessage(w, http.StatusBadRequest, err.Error())
		return
	}

	if _, err := h.forumService.GetCategory(r.Context(), categoryID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeMessage(w, http.StatusNotFound, "Category not found")
			return
		}
		writeMessage(w, http.StatusInternalServerError, "Failed to fetch category")
		return
	}

	subcategories, err := h.forumService.ListSubcategories(r.Context(), categoryID)
	if err != nil {
		writeMessage(w, http.StatusInternalServerError, "Failed to list subcategories")
		return
	}
	writeJSON(w, http.StatusOK, subcategories)
}

func (h *ForumHandler) CreateSubcategory(w http.ResponseWriter, r *http.Request) {
	categoryID, err := parseIDParam(r, "categoryID")
	if err != nil {
		writeMessage(w, http.StatusBadRequest, err.Error())
		return
	}

	if _, err := h.forumService.GetCategory(r.Context(), categoryID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeMessage(w, http.StatusNotFound, "Category not found")
			return
		}
		writeMessage(w, http.StatusInternalServerError, "Failed to fetch category")
		return
	}

	var req SubcategoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request")
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeMessage(w, http.StatusBadRequest, "Subcategory name is required")
		return
	}

	subcategory, err := h.forumService.CreateSubcategory(r.Context(), types.Subcategory{
		CategoryID: categoryID,
		Name:       req.Name,
	})
	if err != nil {
		writeMessage(w, http.StatusInternalServerError, "Failed to create subcategory")
		return
	}

	writeJSON(w, http.StatusCreated, subcategory)
}

func (h *ForumHandler) DeleteSubcategory(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "subcategoryID")
	if err != nil {
		writeMessage(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.forumService.DeleteSubcategory(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeMessage(w, http.StatusNotFound, "Subcategory not found")
			return
		}
		writeMessage(w, http.StatusInternalServerError, "Failed to delete subcategory")
		return
	}

	writeMessage(w, http.StatusOK, "Subcategory deleted successfully")
}

func (h *ForumHandler) ListThreads(w http.ResponseWriter, r *http.Request) {
	subcategoryID, err := parseIDParam(r, "subcategoryID")
	if err != nil {
		writeMessage(w, http.StatusBadRequest, err.Error())
		return
	}

	if _, err := h.forumService.GetSubcategory(r.Context(), subcategoryID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeMessage(w, http.StatusNotFound, "Subcategory not found")
			return
		}
		writeMessage(w, http.StatusInternalServerError, "Failed to fetch subcategory")
		return
	}

	threads, err := h.forumService.ListThreads(r.Context(), subcategoryID)
	if err != nil {
		writeMessage(w, http.StatusInternalServerError, "Failed to list threads")
		return
	}
	writeJSON(w, http.StatusOK, threads)
}

func (h *ForumHandler) CreateThread(w http.ResponseWriter, r *http.Request) {
	subcategoryID, err := parseIDParam(r, "subcategoryID")
	if err != nil {
		writeMessage(w, http.StatusBadRequest, err.Error())
		return
	}

	userID, err := userIDFromContext(r.Context())
	if err != nil {
		writeMessage(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	if _, err := h.forumService.GetSubcategory(r.Context(), subcategoryID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeMessage(w, http.StatusNotFound, "Subcategory not found")
			return
		}
		writeMessage(w, http.StatusInternalServerError, "Failed to fetch subcategory")
		return
	}

	var req ThreadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request")
		return
	}

	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		writeMessage(w, http.StatusBadRequest, "Thread title is required")
		return
	}

	thread, err := h.forumService.CreateThread(r.Context(), types.Thread{
		Title:         req.Title,
		SubcategoryID: subcategoryID,
		UserID:        userID,
	})
	if err != nil {
		writeMessage(w, http.StatusInternalServerError, "Failed to create thread")
		return
	}

	h.publisher.Publish(r.Context(), events.ChannelThreadCreated, events.ContentEvent{
		Resource:   "thread",
		ResourceID: thread.ID,
		UserID:     userID,
	})
	writeJSON(w, http.StatusCreated, thread)
}

// GetThread returns a thread with its posts.
func (h *ForumHandler) GetThread(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "threadID")
	if err != nil {
		writeMessage(w, http.StatusBadRequest, err.Error())
		return
	}

	thread, err := h.forumService.GetThread(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeMessage(w, http.StatusNotFound, "Thread not found")
			return
		}
		writeMessage(w, http.StatusInternalServerError, "Failed to fetch thread")
		return
	}

	posts, err := h.forumService.ListPosts(r.Context(), id)
	if err != nil {
		writeMessage(w, http.StatusInternalServerError, "Failed to fetch posts")
		return
	}

	writeJSON(w, http.StatusOK, ThreadResponse{Thread: thread, Posts: posts})
}

// UpdateThread changes the thread title. The guard already resolved the
// thread and verified owner-or-admin.
func (h *ForumHandler) UpdateThread(w http.ResponseWriter, r *http.Request) {
	resource, ok := ResourceFromContext(r.Context())
	if !ok {
		writeMessage(w, http.StatusInternalServerError, "Failed to resolve thread")
		return
	}
	thread := resource.(types.Thread)

	var req ThreadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request")
		return
	}

	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		writeMessage(w, http.StatusBadRequest, "Thread title is required")
		return
	}

	thread.Title = req.Title
	updated, err := h.forumService.UpdateThread(r.Context(), thread)
	if err != nil {
		writeMessage(w, http.StatusInternalServerError, "Failed to update thread")
		return
	}

	writeJSON(w, http.StatusOK, updated)
}

func (h *ForumHandler) DeleteThread(w http.ResponseWriter, r *http.Request) {
	resource, ok := ResourceFromContext(r.Context())
	if !ok {
		writeMessage(w, http.StatusInternalServerError, "Failed to resolve thread")
		return
	}
	thread := resource.(types.Thread)

	if err := h.forumService.DeleteThread(r.Context(), thread.ID); err != nil {
		writeMessage(w, http.StatusInternalServerError, "Failed to delete thread")
		return
	}

	writeMessage(w, http.StatusOK, "Thread deleted successfully")
}

func (h *ForumHandler) CreatePost(w http.ResponseWriter, r *http.Request) {
	threadID, err := parseIDParam(r, "threadID")
	if err != nil {
		writeMessage(w, http.StatusBadRequest, err.Error())
		return
	}

	userID, err := userIDFromContext(r.Context())
	if err != nil {
		writeMessage(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	if _, err := h.forumService.GetThread(r.Context(), threadID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeMessage(w, http.StatusNotFound, "Thread not found")
			return
		}
		writeMessage(w, http.StatusInternalServerError, "Failed to fetch thread")
		return
	}

	var req PostRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request")
		return
	}

	req.Content = strings.TrimSpace(req.Content)
	if req.Content == "" {
		writeMessage(w, http.StatusBadRequest, "Post content is required")
		return
	}

	post, err := h.forumService.CreatePost(r.Context(), types.Post{
		Content:  req.Content,
		ThreadID: threadID,
		UserID:   userID,
	})
	if err != nil {
		writeMessage(w, http.StatusInternalServerError, "Failed to create post")
		return
	}

	h.publisher.Publish(r.Context(), events.ChannelPostCreated, events.ContentEvent{
		Resource:   "post",
		ResourceID: post.ID,
		UserID:     userID,
	})
	writeJSON(w, http.StatusCreated, post)
}

func (h *ForumHandler) UpdatePost(w http.ResponseWriter, r *http.Request) {
	resource, ok := ResourceFromContext(r.Context())
	if !ok {
		writeMessage(w, http.StatusInternalServerError, "Failed to resolve post")
		return
	}
	post := resource.(types.Post)

	var req PostRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request")
		return
	}

	req.Content = strings.TrimSpace(req.Content)
	if req.Content == "" {
		writeMessage(w, http.StatusBadRequest, "Post content is required")
		return
	}

	post.Content = req.Content
	updated, err := h.forumService.UpdatePost(r.Context(), post)
	if err != nil {
		writeMessage(w, http.StatusInternalServerError, "Failed to update post")
		return
	}

	writeJSON(w, http.StatusOK, updated)
}

func (h *ForumHandler) DeletePost(w http.ResponseWriter, r *http.Request) {
	resource, ok := ResourceFromContext(r.Context())
	if !ok {
		writeMessage(w, http.StatusInternalServerError, "Failed to resolve post")
		return
	}
	post := resource.(types.Post)

	if err := h.forumService.DeletePost(r.Context(), post.ID); err != nil {
		writeMessage(w, http.StatusInternalServerError, "Failed to delete post")
		return
	}

	writeMessage(w, http.StatusOK, "Post deleted successfully")
}

type CategoryRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type SubcategoryRequest struct {
	Name string `json:"name"`
}

type ThreadRequest struct {
	Title string `json:"title"`
}

type PostRequest struct {
	Content string `json:"content"`
}

// ThreadResponse is a thread with its posts.
type ThreadResponse struct {
	types.Thread
	Posts []types.Post `json:"posts"`
}
