package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/ngo-portal/internal/domain"
	"github.com/iliyamo/ngo-portal/internal/middleware"
	"github.com/iliyamo/ngo-portal/internal/model"
	q "github.com/iliyamo/ngo-portal/internal/queue"
	"github.com/iliyamo/ngo-portal/internal/repository"
	"github.com/iliyamo/ngo-portal/internal/service"
	"github.com/iliyamo/ngo-portal/internal/storage"
	"github.com/iliyamo/ngo-portal/internal/utils"
)

// MemberHandler serves the team directory. Reads are public, writes are
// admin-only.
type MemberHandler struct {
	Members   *repository.MemberRepo
	Store     *storage.Store
	Publisher service.Publisher
	Log       *zap.Logger
}

func NewMemberHandler(members *repository.MemberRepo, store *storage.Store, pub service.Publisher, log *zap.Logger) *MemberHandler {
	return &MemberHandler{Members: members, Store: store, Publisher: pub, Log: log}
}

type memberReq struct {
	Name     string  `json:"name"`
	Position string  `json:"position"`
	Age      *int    `json:"age"`
	Photo    *string `json:"photo"`
	Bio      *string `json:"bio"`
}

func (r memberReq) toMember() (*model.Member, error) {
	m := &model.Member{
		Name:     strings.TrimSpace(r.Name),
		Position: strings.TrimSpace(r.Position),
		Photo:    r.Photo,
		Bio:      utils.SanitizeOptional(r.Bio),
	}
	switch {
	case m.Name == "":
		return nil, domain.NewValidationError("name is required")
	case m.Position == "":
		return nil, domain.NewValidationError("position is required")
	case r.Age == nil:
		return nil, domain.NewValidationError("age is required")
	case *r.Age < 0:
		return nil, domain.NewValidationError("age must not be negative")
	}
	m.Age = *r.Age
	return m, nil
}

// List returns members ordered by id.
func (h *MemberHandler) List(c echo.Context) error {
	page, err := pageFrom(c)
	if err != nil {
		return middleware.RespondError(c, err)
	}
	ctx, cancel := dbCtx(c)
	defer cancel()
	members, err := h.Members.List(ctx, page)
	if err != nil {
		return middleware.RespondError(c, err)
	}
	return c.JSON(http.StatusOK, members)
}

// Get returns one member.
func (h *MemberHandler) Get(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return middleware.RespondError(c, err)
	}
	ctx, cancel := dbCtx(c)
	defer cancel()
	m, err := h.Members.GetByID(ctx, id)
	if err != nil {
		return middleware.RespondError(c, err)
	}
	return c.JSON(http.StatusOK, m)
}

// Create adds a member from a JSON body.
func (h *MemberHandler) Create(c echo.Context) error {
	var req memberReq
	if err := bind(c, &req); err != nil {
		return middleware.RespondError(c, err)
	}
	m, err := req.toMember()
	if err != nil {
		return middleware.RespondError(c, err)
	}
	if err := h.insert(c, m); err != nil {
		return middleware.RespondError(c, err)
	}
	return c.JSON(http.StatusCreated, m)
}

// CreateWithImage adds a member from a multipart form with an optional
// photo, stored under a random name.
func (h *MemberHandler) CreateWithImage(c echo.Context) error {
	form, err := readForm(c)
	if err != nil {
		return middleware.RespondError(c, err)
	}
	req := memberReq{Bio: form.optional("bio")}
	if req.Name, err = form.required("name"); err != nil {
		return middleware.RespondError(c, err)
	}
	if req.Position, err = form.required("position"); err != nil {
		return middleware.RespondError(c, err)
	}
	ageRaw, err := form.required("age")
	if err != nil {
		return middleware.RespondError(c, err)
	}
	age, err := strconv.Atoi(ageRaw)
	if err != nil {
		return middleware.RespondError(c, domain.NewValidationError("age must be an integer"))
	}
	req.Age = &age

	m, err := req.toMember()
	if err != nil {
		return middleware.RespondError(c, err)
	}

	fh, err := formFile(c, "image")
	if err != nil {
		return middleware.RespondError(c, err)
	}
	if fh != nil {
		src, err := fh.Open()
		if err != nil {
			return middleware.RespondError(c, err)
		}
		path, err := h.Store.Save(storage.MemberImages, storage.RandomName(), src, storage.CleanExt(fh.Filename))
		_ = src.Close()
		if err != nil {
			return middleware.RespondError(c, err)
		}
		m.Photo = &path
	}

	if err := h.insert(c, m); err != nil {
		if m.Photo != nil {
			h.removeAsset(*m.Photo)
		}
		return middleware.RespondError(c, err)
	}
	return c.JSON(http.StatusOK, m)
}

func (h *MemberHandler) insert(c echo.Context, m *model.Member) error {
	ctx, cancel := dbCtx(c)
	defer cancel()
	if err := h.Members.Create(ctx, m); err != nil {
		return err
	}
	h.publish(c, q.MemberCreated, m.ID)
	return nil
}

// Update applies a partial JSON update.
func (h *MemberHandler) Update(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return middleware.RespondError(c, err)
	}
	var p model.MemberPatch
	if err := bind(c, &p); err != nil {
		return middleware.RespondError(c, err)
	}
	if p.Age != nil && *p.Age < 0 {
		return middleware.RespondError(c, domain.NewValidationError("age must not be negative"))
	}
	p.Bio = utils.SanitizeOptional(p.Bio)

	ctx, cancel := dbCtx(c)
	defer cancel()
	existing, err := h.Members.GetByID(ctx, id)
	if err != nil {
		return middleware.RespondError(c, err)
	}
	updated := model.MergeMember(*existing, p)
	if err := h.Members.Update(ctx, &updated); err != nil {
		return middleware.RespondError(c, err)
	}
	h.publish(c, q.MemberUpdated, id)
	return c.JSON(http.StatusOK, updated)
}

// Delete removes a member and, best effort, its uploaded photo.
func (h *MemberHandler) Delete(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return middleware.RespondError(c, err)
	}
	ctx, cancel := dbCtx(c)
	defer cancel()
	existing, err := h.Members.GetByID(ctx, id)
	if err != nil {
		return middleware.RespondError(c, err)
	}
	if err := h.Members.Delete(ctx, id); err != nil {
		return middleware.RespondError(c, err)
	}
	if existing.Photo != nil && strings.HasPrefix(*existing.Photo, storage.WebPrefix) {
		h.removeAsset(*existing.Photo)
	}
	h.publish(c, q.MemberDeleted, id)
	return c.NoContent(http.StatusNoContent)
}

func (h *MemberHandler) removeAsset(path string) {
	if err := h.Store.Remove(path); err != nil {
		h.Log.Warn("member asset cleanup failed", zap.String("path", path), zap.Error(err))
	}
}

func (h *MemberHandler) publish(c echo.Context, action string, id uint64) {
	actor := middleware.CurrentUser(c)
	service.PublishAsync(h.Publisher, q.NewActivity(action, "members", id, actor.ID, actor.Username))
}
