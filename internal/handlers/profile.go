package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/devhub-se/apiserver/internal/services"
	"github.com/devhub-se/apiserver/internal/storage"
	"github.com/devhub-se/apiserver/internal/store"
	"github.com/go-chi/chi/v5"
)

const (
	maxDisplayNameLength = 60
	maxAvatarSize        = 2 << 20 // 2 MiB
)

// ProfileHandler exposes the current user's profile, public profile
// pages, and avatar upload/download. The storage backend may be nil
// when no object store is configured.
type ProfileHandler struct {
	userService *services.UserService
	storage     *storage.Storage
}

func NewProfileHandler(userService *services.UserService, storage *storage.Storage) *ProfileHandler {
	return &ProfileHandler{
		userService: userService,
		storage:     storage,
	}
}

// ProfileRouter registers profile routes on the given router.
func ProfileRouter(r chi.Router, userService *services.UserService, storage *storage.Storage, guard *Guard) {
	handler := NewProfileHandler(userService, storage)

	r.With(guard.RequireAuth).Get("/", handler.OwnProfile)
	r.Get("/users/{username}", handler.PublicProfile)
	r.With(guard.RequireAuth).Put("/users/{username}", handler.UpdateProfile)
	r.With(guard.RequireAuth).Put("/avatar", handler.UploadAvatar)
	r.Get("/users/{username}/avatar", handler.GetAvatar)
}

// OwnProfile returns the authenticated user's full profile.
func (h *ProfileHandler) OwnProfile(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromContext(r.Context())
	if err != nil {
		writeMessage(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	user, err := h.userService.GetByID(r.Context(), userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeMessage(w, http.StatusNotFound, "User not found")
			return
		}
		writeMessage(w, http.StatusInternalServerError, "Failed to fetch profile")
		return
	}

	writeJSON(w, http.StatusOK, user)
}

// PublicProfile returns the public fields of a user's profile.
func (h *ProfileHandler) PublicProfile(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")

	user, err := h.userService.GetByUsername(r.Context(), username)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeMessage(w, http.StatusNotFound, "User not found")
			return
		}
		writeMessage(w, http.StatusInternalServerError, "Failed to fetch profile")
		return
	}

	writeJSON(w, http.StatusOK, PublicProfileResponse{
		Username:    user.Username,
		DisplayName: user.DisplayName,
		AboutMe:     user.AboutMe,
		Website:     user.Website,
		Location:    user.Location,
		CreatedAt:   user.CreatedAt,
	})
}

// UpdateProfile changes profile fields. Users can only edit their own
// profile; a mismatch reads the same as a missing user.
func (h *ProfileHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromContext(r.Context())
	if err != nil {
		writeMessage(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	username := chi.URLParam(r, "username")
	user, err := h.userService.GetByUsername(r.Context(), username)
	if err != nil || user.ID != userID {
		writeMessage(w, http.StatusNotFound, "User not found or unauthorized")
		return
	}

	var req ProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request")
		return
	}

	if req.DisplayName != nil {
		displayName := strings.TrimSpace(*req.DisplayName)
		if len(displayName) > maxDisplayNameLength {
			writeMessage(w, http.StatusBadRequest, "Display name is too long")
			return
		}
		user.DisplayName = displayName
	}
	if req.AboutMe != nil {
		user.AboutMe = *req.AboutMe
	}
	if req.Website != nil {
		website := strings.TrimSpace(*req.Website)
		if website != "" && !strings.HasPrefix(website, "http://") && !strings.HasPrefix(website, "https://") {
			writeMessage(w, http.StatusBadRequest, "Website must start with http:// or https://")
			return
		}
		user.Website = website
	}
	if req.Location != nil {
		user.Location = *req.Location
	}

	updated, err := h.userService.Update(r.Context(), user)
	if err != nil {
		writeMessage(w, http.StatusInternalServerError, "Failed to update profile")
		return
	}

	writeJSON(w, http.StatusOK, updated)
}

// UploadAvatar accepts a multipart form with an "avatar" file part and
// stores it in the object store under a per-user key.
func (h *ProfileHandler) UploadAvatar(w http.ResponseWriter, r *http.Request) {
	if h.storage == nil {
		writeMessage(w, http.StatusServiceUnavailable, "Avatar storage is not configured")
		return
	}

	userID, err := userIDFromContext(r.Context())
	if err != nil {
		writeMessage(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	user, err := h.userService.GetByID(r.Context(), userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeMessage(w, http.StatusNotFound, "User not found")
			return
		}
		writeMessage(w, http.StatusInternalServerError, "Failed to fetch user")
		return
	}

	if err := r.ParseMultipartForm(maxAvatarSize); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid multipart form")
		return
	}

	file, header, err := r.FormFile("avatar")
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "Avatar file is required")
		return
	}
	defer file.Close()

	if header.Size > maxAvatarSize {
		writeMessage(w, http.StatusBadRequest, "Avatar file is too large")
		return
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	key := fmt.Sprintf("avatars/%d", user.ID)
	if err := h.storage.Put(r.Context(), key, file, header.Size, contentType); err != nil {
		writeMessage(w, http.StatusInternalServerError, "Failed to store avatar")
		return
	}

	user.AvatarKey = key
	if _, err := h.userService.Update(r.Context(), user); err != nil {
		writeMessage(w, http.StatusInternalServerError, "Failed to update profile")
		return
	}

	writeMessage(w, http.StatusOK, "Avatar uploaded successfully")
}

// GetAvatar streams a user's avatar from the object store.
func (h *ProfileHandler) GetAvatar(w http.ResponseWriter, r *http.Request) {
	if h.storage == nil {
		writeMessage(w, http.StatusServiceUnavailable, "Avatar storage is not configured")
		return
	}

	username := chi.URLParam(r, "username")
	user, err := h.userService.GetByUsername(r.Context(), username)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeMessage(w, http.StatusNotFound, "User not found")
			return
		}
		writeMessage(w, http.StatusInternalServerError, "Failed to fetch user")
		return
	}

	if user.AvatarKey == "" {
		writeMessage(w, http.StatusNotFound, "Avatar not found")
		return
	}

	object, err := h.storage.Get(r.Context(), user.AvatarKey)
	if err != nil {
		writeMessage(w, http.StatusNotFound, "Avatar not found")
		return
	}
	defer object.Close()

	w.Header().Set("Content-Type", "application/octet-stream")
	if _, err := io.Copy(w, object); err != nil {
		return
	}
}

// ProfileRequest uses pointers so absent fields are left untouched.
type ProfileRequest struct {
	DisplayName *string `json:"display_name"`
	AboutMe     *string `json:"about_me"`
	Website     *string `json:"website"`
	Location    *string `json:"location"`
}

// PublicProfileResponse omits email and other private fields.
type PublicProfileResponse struct {
	Username    string    `json:"username"`
	DisplayName string    `json:"display_name"`
	AboutMe     string    `json:"about_me"`
	Website     string    `json:"website"`
	Location    string    `json:"location"`
	CreatedAt   time.Time `json:"created_at"`
}
