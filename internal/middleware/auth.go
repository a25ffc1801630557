package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/shinyyama/marketplace-backend/internal/auth"
	"github.com/shinyyama/marketplace-backend/internal/model"
	"github.com/shinyyama/marketplace-backend/internal/reqctx"
	"go.uber.org/zap"
)

const userKey = "user"

// SessionResolver is the part of auth.Gateway the middleware needs.
type SessionResolver interface {
	ResolveSession(ctx context.Context, token string) (*model.User, error)
	ResolveBearer(ctx context.Context, token string) (*model.User, error)
}

type AuthMiddleware struct {
	resolver SessionResolver
	cookie   string
	log      *zap.Logger
}

func NewAuthMiddleware(resolver SessionResolver, cookieName string, log *zap.Logger) *AuthMiddleware {
	if log == nil {
		log = zap.NewNop()
	}
	return &AuthMiddleware{resolver: resolver, cookie: cookieName, log: log}
}

// Authenticate resolves the actor from the session cookie or an
// Authorization: Bearer header. Anonymous requests pass through.
func (m *AuthMiddleware) Authenticate(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		u, err := m.resolve(c)
		if err != nil && !errors.Is(err, auth.ErrNoSession) {
			m.log.Warn("resolve actor", append(reqctx.Fields(c.Request().Context()), zap.Error(err))...)
		}
		if u != nil {
			c.Set(userKey, u)
			req := c.Request()
			c.SetRequest(req.WithContext(reqctx.WithActorID(req.Context(), u.ID)))
		}
		return next(c)
	}
}

func (m *AuthMiddleware) resolve(c echo.Context) (*model.User, error) {
	ctx := c.Request().Context()
	if ck, err := c.Cookie(m.cookie); err == nil && ck.Value != "" {
		return m.resolver.ResolveSession(ctx, ck.Value)
	}
	authz := c.Request().Header.Get(echo.HeaderAuthorization)
	if !strings.HasPrefix(authz, "Bearer ") {
		return nil, auth.ErrNoSession
	}
	token := strings.TrimSpace(strings.TrimPrefix(authz, "Bearer "))
	// Session tokens are accepted as bearer tokens for non-browser clients.
	u, err := m.resolver.ResolveSession(ctx, token)
	if err == nil || !errors.Is(err, auth.ErrNoSession) {
		return u, err
	}
	return m.resolver.ResolveBearer(ctx, token)
}

// RequireActor rejects requests without a resolved actor.
func RequireActor(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if CurrentUser(c) == nil {
			return c.JSON(http.StatusUnauthorized, errorBody("unauthorized", "login required"))
		}
		return next(c)
	}
}

// CurrentUser returns the resolved actor or nil.
func CurrentUser(c echo.Context) *model.User {
	u, _ := c.Get(userKey).(*model.User)
	return u
}

func errorBody(code, message string) map[string]map[string]string {
	return map[string]map[string]string{"error": {"code": code, "message": message}}
}
