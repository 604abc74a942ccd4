package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/devhub-se/apiserver/internal/authz"
	"github.com/devhub-se/apiserver/internal/events"
	"github.com/devhub-se/apiserver/internal/logging"
	"github.com/devhub-se/apiserver/internal/metrics"
)

// Guard attaches policy decisions to routes. Handlers behind a guard receive
// the resolved user (and resource, for ownership checks) through the request
// context and contain no access-control logic of their own.
type Guard struct {
	engine    *authz.Engine
	secret    []byte
	log       *slog.Logger
	publisher *events.Publisher
}

// NewGuard constructs a Guard around the policy engine.
func NewGuard(engine *authz.Engine, jwtSecret string, log *slog.Logger, publisher *events.Publisher) *Guard {
	return &Guard{
		engine:    engine,
		secret:    []byte(jwtSecret),
		log:       log,
		publisher: publisher,
	}
}

// Engine exposes the policy engine for resource descriptor wiring.
func (g *Guard) Engine() *authz.Engine {
	return g.engine
}

// RequireAuth enforces a valid identity token and injects the subject into
// the request context. It rejects with 401 before any handler runs.
func (g *Guard) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		subject, err := requestSubject(r, g.secret)
		if err != nil {
			metrics.AuthenticationTotal.WithLabelValues("denied").Inc()
			g.audit(r, "anonymous", "", 0, "unauthenticated")
			writeMessage(w, http.StatusUnauthorized, "Authentication required")
			return
		}

		metrics.AuthenticationTotal.WithLabelValues("ok").Inc()
		ctx := context.WithValue(r.Context(), contextSubjectKey, subject)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// OptionalAuth resolves an identity token when one is present and otherwise
// lets the request through anonymously. It never rejects.
func (g *Guard) OptionalAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		subject, err := requestSubject(r, g.secret)
		if err != nil {
			next.ServeHTTP(w, r)
			return
		}
		ctx := context.WithValue(r.Context(), contextSubjectKey, subject)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireRole gates an action on role membership. It must run inside
// RequireAuth. On permit the resolved user is injected into the context.
func (g *Guard) RequireRole(action string, allowed []string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			callerID, _ := userIDFromContext(r.Context())

			user, err := g.engine.AuthorizeRole(r.Context(), callerID, allowed)
			if err != nil {
				g.deny(w, r, action, 0, callerID, err)
				return
			}

			metrics.AuthorizationTotal.WithLabelValues(action, "permit", "").Inc()
			ctx := context.WithValue(r.Context(), contextUserKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireOwner gates an action on resource ownership with admin override.
// The target id is read from the named URL parameter. It must run inside
// RequireAuth. On permit both the user and the loaded resource are injected
// into the context.
func (g *Guard) RequireOwner(resource authz.Resource, urlParam string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			resourceID, err := parseIDParam(r, urlParam)
			if err != nil {
				writeMessage(w, http.StatusBadRequest, err.Error())
				return
			}

			callerID, _ := userIDFromContext(r.Context())

			user, target, err := g.engine.AuthorizeOwned(r.Context(), callerID, resource, resourceID)
			if err != nil {
				g.deny(w, r, resource.Name, resourceID, callerID, err)
				return
			}

			metrics.AuthorizationTotal.WithLabelValues(resource.Name, "permit", "").Inc()
			ctx := context.WithValue(r.Context(), contextUserKey, user)
			ctx = context.WithValue(ctx, contextResourceKey, target)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// deny maps a policy denial onto its HTTP status and produces the audit
// record. Bodies never say more than the coarse denial kind.
func (g *Guard) deny(w http.ResponseWriter, r *http.Request, resource string, resourceID, callerID int, err error) {
	actor := "anonymous"
	if callerID > 0 {
		actor = strconv.Itoa(callerID)
	}

	var status int
	var message, reason string
	switch {
	case errors.Is(err, authz.ErrUnauthenticated):
		status, message, reason = http.StatusUnauthorized, "Authentication required", "unauthenticated"
	case errors.Is(err, authz.ErrUserNotFound):
		status, message, reason = http.StatusNotFound, "User not found", "user_not_found"
	case errors.Is(err, authz.ErrResourceNotFound):
		status, message, reason = http.StatusNotFound, "Resource not found", "resource_not_found"
	case errors.Is(err, authz.ErrForbidden):
		status, message, reason = http.StatusForbidden, "Unauthorized", "forbidden"
	default:
		g.log.Error("authorization check failed", "resource", resource, logging.Err(err))
		writeMessage(w, http.StatusInternalServerError, "Failed to authorize request")
		return
	}

	metrics.AuthorizationTotal.WithLabelValues(resource, "deny", reason).Inc()
	g.audit(r, actor, resource, resourceID, reason)
	writeMessage(w, status, message)
}

func (g *Guard) audit(r *http.Request, actor, resource string, resourceID int, reason string) {
	action := r.Method + " " + r.URL.Path
	g.log.Warn("access denied",
		"actor", actor,
		"action", action,
		"resource", resource,
		"resource_id", resourceID,
		"reason", reason,
	)
	g.publisher.Publish(r.Context(), events.ChannelAccessDenied, events.AccessDeniedEvent{
		Actor:      actor,
		Action:     action,
		Resource:   resource,
		ResourceID: resourceID,
		Reason:     reason,
	})
}
