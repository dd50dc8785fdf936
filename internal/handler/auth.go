package handler

import (
	"net/http" // HTTP status codes and primitives
	"strings"  // string manipulation utilities
	"time"

	"github.com/labstack/echo/v4" // Echo framework for HTTP routing

	"github.com/iliyamo/ngo-portal/internal/config"
	"github.com/iliyamo/ngo-portal/internal/domain"
	"github.com/iliyamo/ngo-portal/internal/middleware"
	"github.com/iliyamo/ngo-portal/internal/model"
	"github.com/iliyamo/ngo-portal/internal/policy"
	"github.com/iliyamo/ngo-portal/internal/repository" // DB repositories
	"github.com/iliyamo/ngo-portal/internal/service"
	"github.com/iliyamo/ngo-portal/internal/utils" // helper functions (hashing, token issuing)
)

// errBadLogin is the only answer a failed login gets.
var errBadLogin = &domain.AppError{
	Code:    http.StatusUnauthorized,
	Message: "Incorrect username or password",
	Err:     domain.ErrUnauthenticated,
}

// AuthHandler bundles dependencies for auth endpoints.
type AuthHandler struct {
	Cfg    config.Config
	Users  *repository.UserRepo
	Tokens *repository.TokenRepo
	Issuer *utils.Issuer
}

func NewAuthHandler(cfg config.Config, u *repository.UserRepo, t *repository.TokenRepo, iss *utils.Issuer) *AuthHandler {
	return &AuthHandler{Cfg: cfg, Users: u, Tokens: t, Issuer: iss}
}

// ----- DTOs -----

type refreshReq struct {
	RefreshToken string `json:"refresh_token" form:"refresh_token"`
}

type tokenResp struct {
	AccessToken  string    `json:"access_token"`
	TokenType    string    `json:"token_type"`
	ExpiresAt    time.Time `json:"expires_at"`
	RefreshToken string    `json:"refresh_token"`
}

// Token: verify form credentials and return a new token pair.
func (h *AuthHandler) Token(c echo.Context) error {
	username := strings.TrimSpace(c.FormValue("username"))
	password := c.FormValue("password")
	if username == "" || password == "" {
		return middleware.RespondError(c, domain.NewValidationError("username and password are required"))
	}

	ctx, cancel := dbCtx(c)
	defer cancel()

	u, ok, err := service.Authenticate(ctx, h.Users, username, password)
	if err != nil {
		return middleware.RespondError(c, err)
	}
	if !ok {
		return middleware.RespondError(c, errBadLogin)
	}
	return h.issuePair(c, u)
}

// Refresh: validate by hash, revoke old, issue new.
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req refreshReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.RefreshToken) == "" {
		return middleware.RespondError(c, domain.NewValidationError("refresh_token required"))
	}
	hash := utils.HashRefreshRaw(strings.TrimSpace(req.RefreshToken))

	ctx, cancel := dbCtx(c)
	defer cancel()

	userID, err := h.Tokens.ValidateRefresh(ctx, hash)
	if err != nil {
		return middleware.RespondError(c, err)
	}
	if err := h.Tokens.RevokeByHash(ctx, hash); err != nil {
		return middleware.RespondError(c, err)
	}
	u, err := h.Users.GetByID(ctx, userID)
	if err != nil {
		return middleware.RespondError(c, err)
	}
	return h.issuePair(c, u)
}

// Logout supports two modes: a refresh_token in the body revokes that one
// session, otherwise a valid bearer token revokes every session of its user.
func (h *AuthHandler) Logout(c echo.Context) error {
	var req refreshReq
	_ = c.Bind(&req) // a bearer alone is enough
	refreshToken := strings.TrimSpace(req.RefreshToken)

	ctx, cancel := dbCtx(c)
	defer cancel()

	if refreshToken != "" {
		hash := utils.HashRefreshRaw(refreshToken)
		if _, err := h.Tokens.ValidateRefresh(ctx, hash); err != nil {
			return middleware.RespondError(c, err)
		}
		if err := h.Tokens.RevokeByHash(ctx, hash); err != nil {
			return middleware.RespondError(c, err)
		}
		return c.NoContent(http.StatusNoContent)
	}

	u, err := policy.CurrentUser(ctx, h.Issuer, h.Users, middleware.BearerToken(c))
	if err != nil {
		return middleware.RespondError(c, err)
	}
	if err := h.Tokens.RevokeAllForUser(ctx, u.ID); err != nil {
		return middleware.RespondError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *AuthHandler) issuePair(c echo.Context, u *model.User) error {
	access, err := h.Issuer.Issue(u.Username, h.Cfg.AccessTTL)
	if err != nil {
		return middleware.RespondError(c, err)
	}
	refresh, err := utils.NewRefreshToken(h.Cfg.RefreshTTLDays)
	if err != nil {
		return middleware.RespondError(c, err)
	}
	ctx, cancel := dbCtx(c)
	defer cancel()
	if err := h.Tokens.StoreRefresh(ctx, u.ID, utils.HashRefreshRaw(refresh.Raw), refresh.Exp); err != nil {
		return middleware.RespondError(c, err)
	}
	return c.JSON(http.StatusOK, tokenResp{
		AccessToken:  access.Token,
		TokenType:    "bearer",
		ExpiresAt:    access.Exp,
		RefreshToken: refresh.Raw, // raw back to client
	})
}
