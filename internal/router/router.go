package router // package router defines how HTTP routes are registered for the API

import (
	"database/sql"
	"strconv"

	"github.com/labstack/echo/v4" // import the Echo web framework to handle routing
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/iliyamo/ngo-portal/internal/config"
	"github.com/iliyamo/ngo-portal/internal/handler"    // import the handlers that implement business logic
	"github.com/iliyamo/ngo-portal/internal/middleware" // import middleware for JWT authentication and role enforcement
	"github.com/iliyamo/ngo-portal/internal/model"
	"github.com/iliyamo/ngo-portal/internal/repository"
	"github.com/iliyamo/ngo-portal/internal/service"
	"github.com/iliyamo/ngo-portal/internal/storage"
	"github.com/iliyamo/ngo-portal/internal/utils"
)

// Deps is everything the HTTP layer needs. Redis may be nil, which turns
// caching and rate limiting off.
type Deps struct {
	Cfg       config.Config
	DB        *sql.DB
	Store     *storage.Store
	Redis     *redis.Client
	Publisher service.Publisher
	Issuer    *utils.Issuer
	Log       *zap.Logger
}

// New builds the Echo instance with global middleware and every route.
func New(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = middleware.HTTPErrorHandler

	// "/api/events/" and "/api/events" name the same collection
	e.Pre(echomw.RemoveTrailingSlash())
	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(middleware.RequestLogger(d.Log))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: d.Cfg.CORSOrigins,
		AllowHeaders: []string{echo.HeaderAuthorization, echo.HeaderContentType, echo.HeaderAccept},
	}))
	e.Use(echomw.BodyLimit(strconv.FormatInt(d.Cfg.MaxUploadBytes, 10)))
	e.Use(middleware.NewTokenBucket(d.Cfg.RateLimit, d.Redis, d.Issuer))

	users := repository.NewUserRepo(d.DB)
	tokens := repository.NewTokenRepo(d.DB)
	auth := middleware.JWTAuth(d.Issuer, users)

	RegisterRoutes(e, d.Store)
	RegisterAuth(e, handler.NewAuthHandler(d.Cfg, users, tokens, d.Issuer))
	RegisterUsers(e, handler.NewUserHandler(users, d.Publisher, d.Cfg.BcryptCost), auth)
	RegisterAdmin(e, handler.NewAdminHandler(users, d.Publisher, d.Cfg.BcryptCost, d.Cfg.SeedAdmin), auth)
	RegisterDonations(e, handler.NewDonationHandler(repository.NewDonationRepo(d.DB)), auth)

	members := handler.NewMemberHandler(repository.NewMemberRepo(d.DB), d.Store, d.Publisher, d.Log)
	RegisterMembers(e, members, auth, cacheFor(d, "members"))

	for _, c := range []struct {
		prefix string
		kind   model.EventKind
	}{
		{"/api/events", model.CompletedEvents},
		{"/api/upcoming-events", model.UpcomingEvents},
	} {
		h := handler.NewEventHandler(repository.NewEventRepo(d.DB, c.kind), d.Store, d.Publisher, d.Log)
		RegisterEvents(e, c.prefix, h, auth, cacheFor(d, string(c.kind)))
	}
	return e
}

// cacheFor returns the read-cache and write-purge pair for one collection.
func cacheFor(d Deps, tag string) []echo.MiddlewareFunc {
	return []echo.MiddlewareFunc{
		middleware.PurgeOnWrite(d.Cfg.Cache, d.Redis, tag),
		middleware.NewRedisCache(d.Cfg.Cache, d.Redis, tag),
	}
}

// RegisterRoutes registers routes that do not require authentication: the
// welcome message, the health check and the uploaded assets under /static.
func RegisterRoutes(e *echo.Echo, store *storage.Store) {
	e.GET("/", handler.Root)
	// Map the GET request at path "/healthz" to the Health handler.  This
	// endpoint can be used by load balancers or monitoring systems to verify
	// that the service is up and running.
	e.GET("/healthz", handler.Health)
	e.StaticFS("/static", afero.NewIOFS(store.Fs()))
}

// RegisterAuth registers the token endpoints. None of them sit behind
// JWTAuth: /token and /token/refresh create sessions, and /logout accepts
// either a refresh token or a bearer token.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler) {
	e.POST("/token", a.Token)
	e.POST("/token/refresh", a.Refresh)
	e.POST("/logout", a.Logout)
}
