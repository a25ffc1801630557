package server

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/shinyyama/marketplace-backend/internal/config"
	"github.com/shinyyama/marketplace-backend/internal/handler"
	appmw "github.com/shinyyama/marketplace-backend/internal/middleware"
	"go.uber.org/zap"
)

type Server struct {
	e       *echo.Echo
	limiter *appmw.RateLimiter
	done    chan struct{}
}

// BuildInfo is reported by /healthz.
type BuildInfo struct {
	SHA       string
	BuildTime string
}

func New(cfg *config.Config, svcs *Services, log *zap.Logger, build BuildInfo) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewRequestValidator()
	e.HTTPErrorHandler = errorHandler(log)

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(appmw.RequestContext)
	e.Use(middleware.BodyLimit("6M"))
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
		AllowOriginFunc:  allowOrigin(cfg.AllowedOrigins),
	}))

	authMw := appmw.NewAuthMiddleware(svcs.Gateway, cfg.SessionCookie, log)
	e.Use(authMw.Authenticate)
	e.Use(appmw.RequestLogger(log))

	limiter := appmw.NewRateLimiter(cfg.WriteRatePerMin, log)
	throttle := limiter.Handler

	if cfg.ImageStore == config.ImageStoreLocal && cfg.UploadDir != "" {
		e.Static("/uploads", cfg.UploadDir)
	}

	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"ok":         "true",
			"git_sha":    build.SHA,
			"build_time": build.BuildTime,
		})
	})

	authHandler := handler.NewAuthHandler(svcs.Identity, handler.CookieConfig{Name: cfg.SessionCookie, Secure: cfg.CookieSecure})
	userHandler := handler.NewUserHandler(svcs.Identity)
	listingHandler := handler.NewListingHandler(svcs.Catalog, svcs.Conversations)
	convHandler := handler.NewConversationHandler(svcs.Conversations, svcs.Ledger, svcs.Negotiation)
	notificationHandler := handler.NewNotificationHandler(svcs.Ledger)

	api := e.Group("/api")
	api.POST("/auth/register", authHandler.Register, throttle)
	api.POST("/auth/login", authHandler.Login, throttle)
	api.POST("/auth/logout", authHandler.Logout, appmw.RequireActor)

	api.GET("/me", userHandler.Me, appmw.RequireActor)
	api.PUT("/me", userHandler.UpdateMe, appmw.RequireActor)
	api.GET("/me/listings", listingHandler.ListMine, appmw.RequireActor)
	api.GET("/users/:id", userHandler.GetPublic)

	api.GET("/categories", listingHandler.Categories)
	api.GET("/listings", listingHandler.Search)
	api.POST("/listings", listingHandler.Create, appmw.RequireActor, throttle)
	api.POST("/listings/price-suggestion", listingHandler.SuggestPrice, appmw.RequireActor, throttle)
	api.GET("/listings/:id", listingHandler.Get)
	api.PUT("/listings/:id", listingHandler.Update, appmw.RequireActor)
	api.POST("/listings/:id/sold", listingHandler.MarkSold, appmw.RequireActor)
	api.DELETE("/listings/:id", listingHandler.Delete, appmw.RequireActor)
	api.POST("/listings/:id/conversations", convHandler.Start, appmw.RequireActor)

	api.GET("/conversations", convHandler.Inbox, appmw.RequireActor)
	api.GET("/notifications/unread", notificationHandler.Unread, appmw.RequireActor)

	conv := api.Group("/conversations/:id", appmw.RequireActor, appmw.RequireParticipant(svcs.Conversations))
	conv.GET("", convHandler.View)
	conv.GET("/messages", convHandler.Poll)
	conv.POST("/messages", convHandler.Append, throttle)
	conv.POST("/offers", convHandler.Propose, throttle)
	conv.POST("/offers/:offerId/respond", convHandler.Respond, throttle)
	conv.POST("/offers/:offerId/cancel", convHandler.Cancel, throttle)

	return &Server{e: e, limiter: limiter, done: make(chan struct{})}
}

// Handler exposes the router, mainly for httptest.
func (s *Server) Handler() http.Handler {
	return s.e
}

func (s *Server) Start(addr string) error {
	s.limiter.StartCleanup(10*time.Minute, s.done)
	return s.e.Start(addr)
}

func (s *Server) Shutdown(ctx context.Context) error {
	close(s.done)
	return s.e.Shutdown(ctx)
}

// allowOrigin admits local development origins plus the configured list.
func allowOrigin(allowed []string) func(string) (bool, error) {
	set := make(map[string]struct{}, len(allowed))
	for _, o := range allowed {
		if o = strings.TrimRight(strings.TrimSpace(o), "/"); o != "" {
			set[strings.ToLower(o)] = struct{}{}
		}
	}
	return func(origin string) (bool, error) {
		low := strings.ToLower(origin)
		u, err := url.Parse(low)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
			return false, nil
		}
		if host := u.Hostname(); host == "localhost" || host == "127.0.0.1" {
			return true, nil
		}
		_, ok := set[low]
		return ok, nil
	}
}

func errorHandler(log *zap.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}
		he, ok := err.(*echo.HTTPError)
		if !ok {
			he = echo.NewHTTPError(http.StatusInternalServerError, "internal server error").SetInternal(err)
		}
		body := he.Message
		if msg, ok := he.Message.(string); ok {
			body = handler.NewErrorResponse(errorCode(he.Code), msg)
		}
		if he.Code >= http.StatusInternalServerError && he.Internal != nil {
			log.Error("request failed", zap.Error(he.Internal), zap.String("path", c.Path()))
		}
		var werr error
		if c.Request().Method == http.MethodHead {
			werr = c.NoContent(he.Code)
		} else {
			werr = c.JSON(he.Code, body)
		}
		if werr != nil {
			log.Warn("write error response", zap.Error(werr))
		}
	}
}

func errorCode(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "bad_request"
	case http.StatusUnauthorized:
		return "unauthorized"
	case http.StatusNotFound:
		return "not_found"
	case http.StatusMethodNotAllowed:
		return "method_not_allowed"
	case http.StatusRequestEntityTooLarge:
		return "payload_too_large"
	case http.StatusTooManyRequests:
		return "rate_limited"
	}
	if status >= http.StatusInternalServerError {
		return "internal_error"
	}
	return "bad_request"
}
