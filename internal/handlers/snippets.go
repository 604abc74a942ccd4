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

// SnippetHandler provides HTTP handlers for code snippets.
type SnippetHandler struct {
	snippetService *services.SnippetService
	publisher      *events.Publisher
}

func NewSnippetHandler(snippetService *services.SnippetService, publisher *events.Publisher) *SnippetHandler {
	return &SnippetHandler{
		snippetService: snippetService,
		publisher:      publisher,
	}
}

// SnippetRouter registers snippet routes on the given router.
func SnippetRouter(r chi.Router, snippetService *services.SnippetService, guard *Guard, publisher *events.Publisher) {
	handler := NewSnippetHandler(snippetService, publisher)

	snippetResource := authz.Resource{
		Name:       "snippet",
		Lookup:     snippetLookup(snippetService),
		AdminRoles: guard.Engine().Roles().SnippetAdmins(),
	}

	r.Get("/", handler.ListSnippets)
	r.With(guard.RequireAuth).Post("/", handler.CreateSnippet)
	r.Get("/{snippetID}", handler.GetSnippet)
	r.With(guard.RequireAuth, guard.RequireOwner(snippetResource, "snippetID")).Put("/{snippetID}", handler.UpdateSnippet)
	r.With(guard.RequireAuth, guard.RequireOwner(snippetResource, "snippetID")).Delete("/{snippetID}", handler.DeleteSnippet)
}

func snippetLookup(snippetService *services.SnippetService) authz.Lookup {
	return func(ctx context.Context, id int) (authz.Owned, error) {
		snippet, err := snippetService.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		return snippet, nil
	}
}

// ListSnippets returns all snippets, optionally filtered by the
// "language" query parameter.
func (h *SnippetHandler) ListSnippets(w http.ResponseWriter, r *http.Request) {
	language := r.URL.Query().Get("language")

	snippets, err := h.snippetService.List(r.Context(), language)
	if err != nil {
		writeMessage(w, http.StatusInternalServerError, "Failed to list snippets")
		return
	}
	writeJSON(w, http.StatusOK, snippets)
}

func (h *SnippetHandler) GetSnippet(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "snippetID")
	if err != nil {
		writeMessage(w, http.StatusBadRequest, err.Error())
		return
	}

	snippet, err := h.snippetService.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeMessage(w, http.StatusNotFound, "Snippet not found")
			return
		}
		writeMessage(w, http.StatusInternalServerError, "Failed to fetch snippet")
		return
	}

	writeJSON(w, http.StatusOK, snippet)
}

func (h *SnippetHandler) CreateSnippet(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromContext(r.Context())
	if err != nil {
		writeMessage(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	var req SnippetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request")
		return
	}

	req.Title = strings.TrimSpace(req.Title)
	req.Language = strings.TrimSpace(req.Language)
	if req.Title == "" || req.Language == "" || req.Code == "" {
		writeMessage(w, http.StatusBadRequest, "Title, language and code are required")
		return
	}

	snippet, err := h.snippetService.Create(r.Context(), types.Snippet{
		Title:       req.Title,
		Description: req.Description,
		Language:    req.Language,
		Code:        req.Code,
		UserID:      userID,
	})
	if err != nil {
		writeMessage(w, http.StatusInternalServerError, "Failed to create snippet")
		return
	}

	h.publisher.Publish(r.Context(), events.ChannelSnippetCreated, events.ContentEvent{
		Resource:   "snippet",
		ResourceID: snippet.ID,
		UserID:     userID,
	})
	writeJSON(w, http.StatusCreated, snippet)
}

func (h *SnippetHandler) UpdateSnippet(w http.ResponseWriter, r *http.Request) {
	resource, ok := ResourceFromContext(r.Context())
	if !ok {
		writeMessage(w, http.StatusInternalServerError, "Failed to resolve snippet")
		return
	}
	snippet := resource.(types.Snippet)

	var req SnippetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request")
		return
	}

	if title := strings.TrimSpace(req.Title); title != "" {
		snippet.Title = title
	}
	if req.Description != "" {
		snippet.Description = req.Description
	}
	if language := strings.TrimSpace(req.Language); language != "" {
		snippet.Language = language
	}
	if req.Code != "" {
		snippet.Code = req.Code
	}

	updated, err := h.snippetService.Update(r.Context(), snippet)
	if err != nil {
		writeMessage(w, http.StatusInternalServerError, "Failed to update snippet")
		return
	}

	writeJSON(w, http.StatusOK, updated)
}

func (h *SnippetHandler) DeleteSnippet(w http.ResponseWriter, r *http.Request) {
	resource, ok := ResourceFromContext(r.Context())
	if !ok {
		writeMessage(w, http.StatusInternalServerError, "Failed to resolve snippet")
		return
	}
	snippet := resource.(types.Snippet)

	if err := h.snippetService.Delete(r.Context(), snippet.ID); err != nil {
		writeMessage(w, http.StatusInternalServerError, "Failed to delete snippet")
		return
	}

	writeMessage(w, http.StatusOK, "Snippet deleted successfully")
}

type SnippetRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Language    string `json:"language"`
	Code        string `json:"code"`
}
