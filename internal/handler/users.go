package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/ngo-portal/internal/domain"
	"github.com/iliyamo/ngo-portal/internal/middleware"
	"github.com/iliyamo/ngo-portal/internal/model"
	q "github.com/iliyamo/ngo-portal/internal/queue"
	"github.com/iliyamo/ngo-portal/internal/repository"
	"github.com/iliyamo/ngo-portal/internal/service"
	"github.com/iliyamo/ngo-portal/internal/utils"
)

// UserHandler serves registration and the caller's own profile.
type UserHandler struct {
	Users      *repository.UserRepo
	Publisher  service.Publisher
	BcryptCost int
}

func NewUserHandler(users *repository.UserRepo, pub service.Publisher, cost int) *UserHandler {
	return &UserHandler{Users: users, Publisher: pub, BcryptCost: cost}
}

type createUserReq struct {
	Email     string  `json:"email"`
	Username  string  `json:"username"`
	Password  string  `json:"password"`
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
}

func (r *createUserReq) validate() error {
	r.Email = repository.NormalizeEmail(r.Email)
	r.Username = strings.TrimSpace(r.Username)
	switch {
	case !validEmail(r.Email):
		return domain.NewValidationError("a valid email is required")
	case r.Username == "":
		return domain.NewValidationError("username is required")
	case r.Password == "":
		return domain.NewValidationError("password is required")
	}
	return nil
}

// newUser validates req and stores a user with the given admin flag.
func newUser(c echo.Context, users *repository.UserRepo, cost int, admin bool) (*model.User, error) {
	var req createUserReq
	if err := bind(c, &req); err != nil {
		return nil, err
	}
	if err := req.validate(); err != nil {
		return nil, err
	}

	ctx, cancel := dbCtx(c)
	defer cancel()

	taken, err := users.ExistsByUsernameOrEmail(ctx, req.Username, req.Email)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, repository.ErrDuplicateUser
	}
	hash, err := utils.HashPassword(req.Password, cost)
	if err != nil {
		return nil, err
	}
	u := &model.User{
		Email:        req.Email,
		Username:     req.Username,
		PasswordHash: hash,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		IsActive:     true,
		IsAdmin:      admin,
	}
	// the unique indexes still catch a concurrent duplicate
	if err := users.Create(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// Register creates a regular user. Public.
func (h *UserHandler) Register(c echo.Context) error {
	u, err := newUser(c, h.Users, h.BcryptCost, false)
	if err != nil {
		return middleware.RespondError(c, err)
	}
	service.PublishAsync(h.Publisher, q.NewActivity(q.UserRegistered, "users", u.ID, u.ID, u.Username))
	return c.JSON(http.StatusOK, u)
}

// Me returns the authenticated user.
func (h *UserHandler) Me(c echo.Context) error {
	return c.JSON(http.StatusOK, middleware.CurrentUser(c))
}

// UpdateMe applies a partial profile update to the authenticated user.
// Renaming the account invalidates access tokens issued for the old name.
func (h *UserHandler) UpdateMe(c echo.Context) error {
	updated, err := patchUser(c, h.Users, middleware.CurrentUser(c))
	if err != nil {
		return middleware.RespondError(c, err)
	}
	return c.JSON(http.StatusOK, updated)
}

// List returns every user. Requires authentication.
func (h *UserHandler) List(c echo.Context) error {
	page, err := pageFrom(c)
	if err != nil {
		return middleware.RespondError(c, err)
	}
	ctx, cancel := dbCtx(c)
	defer cancel()
	users, err := h.Users.List(ctx, page)
	if err != nil {
		return middleware.RespondError(c, err)
	}
	return c.JSON(http.StatusOK, users)
}

// patchUser binds a UserPatch, validates it and writes the merged user.
func patchUser(c echo.Context, users *repository.UserRepo, existing *model.User) (*model.User, error) {
	var p model.UserPatch
	if err := bind(c, &p); err != nil {
		return nil, err
	}
	if p.Email != nil {
		e := repository.NormalizeEmail(*p.Email)
		if !validEmail(e) {
			return nil, domain.NewValidationError("a valid email is required")
		}
		p.Email = &e
	}
	if p.Username != nil {
		name := strings.TrimSpace(*p.Username)
		if name == "" {
			return nil, domain.NewValidationError("username cannot be empty")
		}
		p.Username = &name
	}

	updated := model.MergeUser(*existing, p)

	ctx, cancel := dbCtx(c)
	defer cancel()
	if err := users.Update(ctx, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}
