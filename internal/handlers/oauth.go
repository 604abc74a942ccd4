package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/devhub-se/apiserver/internal/authz"
	"github.com/devhub-se/apiserver/internal/oauth"
	"github.com/devhub-se/apiserver/internal/services"
	"github.com/devhub-se/apiserver/internal/store"
	"github.com/devhub-se/apiserver/types"
	"github.com/go-chi/chi/v5"
)

const oauthStateCookie = "oauth_state"

// OAuthHandler implements social login. A provider identity maps onto a
// local account by external id first, then by verified email; otherwise
// a new account is provisioned with no password.
type OAuthHandler struct {
	userService *services.UserService
	manager     *oauth.Manager
	secret      []byte
}

func NewOAuthHandler(userService *services.UserService, manager *oauth.Manager, jwtSecret string) *OAuthHandler {
	return &OAuthHandler{
		userService: userService,
		manager:     manager,
		secret:      []byte(jwtSecret),
	}
}

// OAuthRouter registers social login routes on the given router.
func OAuthRouter(r chi.Router, userService *services.UserService, manager *oauth.Manager, jwtSecret string) {
	handler := NewOAuthHandler(userService, manager, jwtSecret)

	r.Get("/login/{provider}", handler.Login)
	r.Get("/callback/{provider}", handler.Callback)
}

// Login redirects the browser to the provider's consent page.
func (h *OAuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	provider := chi.URLParam(r, "provider")

	state, err := h.manager.StateToken()
	if err != nil {
		writeMessage(w, http.StatusInternalServerError, "Failed to start login")
		return
	}

	url, err := h.manager.AuthURL(provider, state)
	if err != nil {
		if errors.Is(err, oauth.ErrUnsupportedProvider) {
			writeMessage(w, http.StatusBadRequest, "Unsupported provider")
			return
		}
		writeMessage(w, http.StatusInternalServerError, "Failed to start login")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     oauthStateCookie,
		Value:    state,
		Path:     "/oauth",
		MaxAge:   int((10 * time.Minute).Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, url, http.StatusFound)
}

// Callback completes the code exchange and issues an access token.
func (h *OAuthHandler) Callback(w http.ResponseWriter, r *http.Request) {
	provider := chi.URLParam(r, "provider")

	cookie, err := r.Cookie(oauthStateCookie)
	if err != nil || cookie.Value == "" || cookie.Value != r.URL.Query().Get("state") {
		writeMessage(w, http.StatusBadRequest, "Invalid oauth state")
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		writeMessage(w, http.StatusBadRequest, "Authorization code is required")
		return
	}

	identity, err := h.manager.Exchange(r.Context(), provider, code)
	if err != nil {
		if errors.Is(err, oauth.ErrUnsupportedProvider) {
			writeMessage(w, http.StatusBadRequest, "Unsupported provider")
			return
		}
		writeMessage(w, http.StatusBadGateway, "Failed to authenticate with provider")
		return
	}

	user, err := h.resolveUser(r.Context(), identity)
	if err != nil {
		writeMessage(w, http.StatusInternalServerError, "Failed to sign in")
		return
	}

	token, err := issueToken(user.ID, h.secret, defaultTokenTTL)
	if err != nil {
		writeMessage(w, http.StatusInternalServerError, "Failed to issue token")
		return
	}

	writeJSON(w, http.StatusOK, AuthResponse{
		AccessToken: token,
		Username:    user.Username,
	})
}

// resolveUser finds or provisions the local account for a provider
// identity. Accounts found by email get the provider linked.
func (h *OAuthHandler) resolveUser(ctx context.Context, identity oauth.Identity) (types.User, error) {
	user, err := h.userService.GetByOAuth(ctx, identity.Provider, identity.ID)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return types.User{}, err
	}

	user, err = h.userService.GetByEmail(ctx, identity.Email)
	if err == nil {
		user.OAuthProvider = identity.Provider
		user.OAuthID = identity.ID
		return h.userService.Update(ctx, user)
	}
	if !errors.Is(err, store.ErrNotFound) {
		return types.User{}, err
	}

	username, err := h.pickUsername(ctx, identity.Username)
	if err != nil {
		return types.User{}, err
	}

	return h.userService.Create(ctx, types.User{
		Username:      username,
		Email:         identity.Email,
		Role:          authz.RoleUser,
		OAuthProvider: identity.Provider,
		OAuthID:       identity.ID,
	})
}

// pickUsername derives a free username from the provider's handle,
// appending a numeric suffix on collision.
func (h *OAuthHandler) pickUsername(ctx context.Context, base string) (string, error) {
	base = strings.ToLower(strings.ReplaceAll(strings.TrimSpace(base), " ", "_"))
	if base == "" {
		base = "user"
	}

	candidate := base
	for i := 1; i <= 50; i++ {
		_, err := h.userService.GetByUsername(ctx, candidate)
		if errors.Is(err, store.ErrNotFound) {
			return candidate, nil
		}
		if err != nil {
			return "", err
		}
		candidate = fmt.Sprintf("%s%d", base, i)
	}
	return "", errors.New("could not find a free username")
}
