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

// NewsHandler provides HTTP handlers for news articles. Reading is
// public; publishing requires a news admin role.
type NewsHandler struct {
	newsService *services.NewsService
	publisher   *events.Publisher
}

func NewNewsHandler(newsService *services.NewsService, publisher *events.Publisher) *NewsHandler {
	return &NewsHandler{
		newsService: newsService,
		publisher:   publisher,
	}
}

// NewsRouter registers news routes on the given router.
func NewsRouter(r chi.Router, newsService *services.NewsService, guard *Guard, publisher *events.Publisher) {
	handler := NewNewsHandler(newsService, publisher)
	newsAdmins := guard.Engine().Roles().NewsAdmins()

	newsResource := authz.Resource{
		Name:       "news",
		Lookup:     newsLookup(newsService),
		AdminRoles: newsAdmins,
	}

	r.Get("/", handler.ListNews)
	r.Get("/{newsID}", handler.GetNews)
	r.With(guard.RequireAuth, guard.RequireRole("news", newsAdmins)).Post("/", handler.CreateNews)
	r.With(guard.RequireAuth, guard.RequireOwner(newsResource, "newsID")).Put("/{newsID}", handler.UpdateNews)
	r.With(guard.RequireAuth, guard.RequireOwner(newsResource, "newsID")).Delete("/{newsID}", handler.DeleteNews)
}

func newsLookup(newsService *services.NewsService) authz.Lookup {
	return func(ctx context.Context, id int) (authz.Owned, error) {
		article, err := newsService.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		return article, nil
	}
}

func (h *NewsHandler) ListNews(w http.ResponseWriter, r *http.Request) {
	articles, err := h.newsService.List(r.Context())
	if err != nil {
		writeMessage(w, http.StatusInternalServerError, "Failed to list news")
		return
	}
	writeJSON(w, http.StatusOK, articles)
}

func (h *NewsHandler) GetNews(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "newsID")
	if err != nil {
		writeMessage(w, http.StatusBadRequest, err.Error())
		return
	}

	article, err := h.newsService.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeMessage(w, http.StatusNotFound, "News article not found")
			return
		}
		writeMessage(w, http.StatusInternalServerError, "Failed to fetch news article")
		return
	}

	writeJSON(w, http.StatusOK, article)
}

func (h *NewsHandler) CreateNews(w http.ResponseWriter, r *http.Request) {
	user, ok := UserFromContext(r.Context())
	if !ok {
		writeMessage(w, http.StatusInternalServerError, "Failed to resolve user")
		return
	}

	var req NewsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request")
		return
	}

	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" || req.Content == "" {
		writeMessage(w, http.StatusBadRequest, "Title and content are required")
		return
	}

	article, err := h.newsService.Create(r.Context(), types.News{
		Title:   req.Title,
		Content: req.Content,
		UserID:  user.ID,
	})
	if err != nil {
		writeMessage(w, http.StatusInternalServerError, "Failed to create news article")
		return
	}

	h.publisher.Publish(r.Context(), events.ChannelNewsPublished, events.ContentEvent{
		Resource:   "news",
		ResourceID: article.ID,
		UserID:     user.ID,
	})
	writeJSON(w, http.StatusCreated, article)
}

func (h *NewsHandler) UpdateNews(w http.ResponseWriter, r *http.Request) {
	resource, ok := ResourceFromContext(r.Context())
	if !ok {
		writeMessage(w, http.StatusInternalServerError, "Failed to resolve news article")
		return
	}
	article := resource.(types.News)

	var req NewsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request")
		return
	}

	if title := strings.TrimSpace(req.Title); title != "" {
		article.Title = title
	}
	if req.Content != "" {
		article.Content = req.Content
	}

	updated, err := h.newsService.Update(r.Context(), article)
	if err != nil {
		writeMessage(w, http.StatusInternalServerError, "Failed to update news article")
		return
	}

	writeJSON(w, http.StatusOK, updated)
}

func (h *NewsHandler) DeleteNews(w http.ResponseWriter, r *http.Request) {
	resource, ok := ResourceFromContext(r.Context())
	if !ok {
		writeMessage(w, http.StatusInternalServerError, "Failed to resolve news article")
		return
	}
	article := resource.(types.News)

	if err := h.newsService.Delete(r.Context(), article.ID); err != nil {
		writeMessage(w, http.StatusInternalServerError, "Failed to delete news article")
		return
	}

	writeMessage(w, http.StatusOK, "News article deleted successfully")
}

type NewsRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}
