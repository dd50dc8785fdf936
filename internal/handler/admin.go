package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/ngo-portal/internal/config"
	"github.com/iliyamo/ngo-portal/internal/domain"
	"github.com/iliyamo/ngo-portal/internal/middleware"
	q "github.com/iliyamo/ngo-portal/internal/queue"
	"github.com/iliyamo/ngo-portal/internal/repository"
	"github.com/iliyamo/ngo-portal/internal/service"
)

var errDeleteSelf = domain.NewBadRequestError("Admins cannot delete their own accounts")

// AdminHandler manages admin accounts and user removal.
type AdminHandler struct {
	Users      *repository.UserRepo
	Publisher  service.Publisher
	BcryptCost int
	Seed       config.SeedAdminConfig
}

func NewAdminHandler(users *repository.UserRepo, pub service.Publisher, cost int, seed config.SeedAdminConfig) *AdminHandler {
	return &AdminHandler{Users: users, Publisher: pub, BcryptCost: cost, Seed: seed}
}

// Create registers a new admin account.
func (h *AdminHandler) Create(c echo.Context) error {
	u, err := newUser(c, h.Users, h.BcryptCost, true)
	if err != nil {
		return middleware.RespondError(c, err)
	}
	actor := middleware.CurrentUser(c)
	service.PublishAsync(h.Publisher, q.NewActivity(q.AdminCreated, "users", u.ID, actor.ID, actor.Username))
	return c.JSON(http.StatusOK, u)
}

// List returns active admins.
func (h *AdminHandler) List(c echo.Context) error {
	page, err := pageFrom(c)
	if err != nil {
		return middleware.RespondError(c, err)
	}
	ctx, cancel := dbCtx(c)
	defer cancel()
	admins, err := h.Users.ListAdmins(ctx, page)
	if err != nil {
		return middleware.RespondError(c, err)
	}
	return c.JSON(http.StatusOK, admins)
}

// Update applies a partial update to any user.
func (h *AdminHandler) Update(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return middleware.RespondError(c, err)
	}
	ctx, cancel := dbCtx(c)
	defer cancel()
	existing, err := h.Users.GetByID(ctx, id)
	if err != nil {
		return middleware.RespondError(c, err)
	}
	updated, err := patchUser(c, h.Users, existing)
	if err != nil {
		return middleware.RespondError(c, err)
	}
	return c.JSON(http.StatusOK, updated)
}

// Delete removes a user. Admins cannot delete themselves, and users that
// still organize events or hold donations cannot be removed.
func (h *AdminHandler) Delete(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return middleware.RespondError(c, err)
	}
	actor := middleware.CurrentUser(c)
	if id == actor.ID {
		return middleware.RespondError(c, errDeleteSelf)
	}
	ctx, cancel := dbCtx(c)
	defer cancel()
	if err := h.Users.Delete(ctx, id); err != nil {
		return middleware.RespondError(c, err)
	}
	service.PublishAsync(h.Publisher, q.NewActivity(q.UserDeleted, "users", id, actor.ID, actor.Username))
	return c.NoContent(http.StatusNoContent)
}

// SeedAdmin creates the first admin. Public, but only works while no admin
// exists.
func (h *AdminHandler) SeedAdmin(c echo.Context) error {
	ctx, cancel := dbCtx(c)
	defer cancel()
	u, err := service.SeedAdmin(ctx, h.Users, h.Seed, h.BcryptCost)
	if err != nil {
		return middleware.RespondError(c, err)
	}
	service.PublishAsync(h.Publisher, q.NewActivity(q.AdminCreated, "users", u.ID, u.ID, u.Username))
	return c.JSON(http.StatusCreated, echo.Map{"message": "Initial admin user created successfully"})
}
