package handler

import (
	"fmt"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/ngo-portal/internal/domain"
	"github.com/iliyamo/ngo-portal/internal/middleware"
	"github.com/iliyamo/ngo-portal/internal/model"
	"github.com/iliyamo/ngo-portal/internal/policy"
	q "github.com/iliyamo/ngo-portal/internal/queue"
	"github.com/iliyamo/ngo-portal/internal/repository"
	"github.com/iliyamo/ngo-portal/internal/service"
	"github.com/iliyamo/ngo-portal/internal/storage"
	"github.com/iliyamo/ngo-portal/internal/utils"
)

// EventHandler serves one event collection. Completed and upcoming events
// get one handler each, differing only in table, asset directory and file
// prefix.
type EventHandler struct {
	Events    *repository.EventRepo
	Store     *storage.Store
	Publisher service.Publisher
	Log       *zap.Logger

	assetDir   string
	filePrefix string
}

func NewEventHandler(events *repository.EventRepo, store *storage.Store, pub service.Publisher, log *zap.Logger) *EventHandler {
	h := &EventHandler{Events: events, Store: store, Publisher: pub, Log: log,
		assetDir: storage.CompletedEvents, filePrefix: "event_"}
	if events.Kind() == model.UpcomingEvents {
		h.assetDir, h.filePrefix = storage.UpcomingEvents, "upcoming_"
	}
	return h
}

func (h *EventHandler) label() string { return h.Events.Kind().Label() }

// forbidden carries the collection-specific refusal message.
func (h *EventHandler) forbidden(verb string) error {
	return &domain.AppError{
		Code:    http.StatusForbidden,
		Message: fmt.Sprintf("Not authorized to %s this event", verb),
		Err:     domain.ErrForbidden,
	}
}

// List returns listable (active) events.
func (h *EventHandler) List(c echo.Context) error {
	page, err := pageFrom(c)
	if err != nil {
		return middleware.RespondError(c, err)
	}
	ctx, cancel := dbCtx(c)
	defer cancel()
	events, err := h.Events.ListActive(ctx, page)
	if err != nil {
		return middleware.RespondError(c, err)
	}
	return c.JSON(http.StatusOK, events)
}

// Get returns any fetchable event by id, soft-deleted ones included.
func (h *EventHandler) Get(c echo.Context) error {
	ev, err := h.load(c)
	if err != nil {
		return middleware.RespondError(c, err)
	}
	return c.JSON(http.StatusOK, ev)
}

func (h *EventHandler) load(c echo.Context) (*model.Event, error) {
	id, err := parseID(c, "id")
	if err != nil {
		return nil, err
	}
	ctx, cancel := dbCtx(c)
	defer cancel()
	ev, err := h.Events.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !ev.Fetchable() {
		return nil, repository.ErrEventNotFound
	}
	return ev, nil
}

// Create adds an event organized by the caller. Fields come from the form
// body or the query string; an optional image is stored as
// <prefix><id><ext> before the row commits.
func (h *EventHandler) Create(c echo.Context) error {
	form, err := readForm(c)
	if err != nil {
		return middleware.RespondError(c, err)
	}
	ev := &model.Event{OrganizerID: middleware.CurrentUser(c).ID}
	if ev.Title, err = form.required("title"); err != nil {
		return middleware.RespondError(c, err)
	}
	desc, err := form.required("description")
	if err != nil {
		return middleware.RespondError(c, err)
	}
	ev.Description = utils.SanitizeText(desc)
	rawDate, err := form.required("date")
	if err != nil {
		return middleware.RespondError(c, err)
	}
	if ev.Date, err = model.ParseDate(rawDate); err != nil {
		return middleware.RespondError(c, domain.NewValidationError("date must be YYYY-MM-DD"))
	}
	if loc := form.optional("location"); loc != nil && *loc != "" {
		ev.Location = loc
	}

	fh, err := formFile(c, "image")
	if err != nil {
		return middleware.RespondError(c, err)
	}
	var saved string
	var attach func(uint64) (string, error)
	if fh != nil {
		attach = func(id uint64) (string, error) {
			p, err := h.saveImage(fh, id)
			saved = p
			return p, err
		}
	}

	ctx, cancel := dbCtx(c)
	defer cancel()
	if err := h.Events.Create(ctx, ev, attach); err != nil {
		if saved != "" {
			h.removeAsset(saved)
		}
		return middleware.RespondError(c, err)
	}
	h.publish(c, q.EventCreated, ev)
	return c.JSON(http.StatusOK, ev)
}

// Update applies the fields present in the form, and replaces the image
// when one is uploaded. Only the organizer or an admin may update.
func (h *EventHandler) Update(c echo.Context) error {
	ev, err := h.load(c)
	if err != nil {
		return middleware.RespondError(c, err)
	}
	if err := policy.RequireOwnerOrAdmin(middleware.CurrentUser(c), ev, model.EventOrganizer); err != nil {
		return middleware.RespondError(c, h.forbidden("update"))
	}

	form, err := readForm(c)
	if err != nil {
		return middleware.RespondError(c, err)
	}
	patch, err := eventPatchFrom(form)
	if err != nil {
		return middleware.RespondError(c, err)
	}
	updated := model.MergeEvent(*ev, patch)

	fh, err := formFile(c, "image")
	if err != nil {
		return middleware.RespondError(c, err)
	}
	if patch.Empty() && fh == nil {
		return c.JSON(http.StatusOK, ev)
	}

	// the new image is written before the row and the old one removed after
	// it, so the stored path always names a file
	var saved string
	if fh != nil {
		if saved, err = h.saveImage(fh, ev.ID); err != nil {
			return middleware.RespondError(c, err)
		}
		updated.ImageURL = &saved
	}
	previous := ""
	if ev.ImageURL != nil {
		previous = *ev.ImageURL
	}

	ctx, cancel := dbCtx(c)
	defer cancel()
	if err := h.Events.Update(ctx, &updated); err != nil {
		if saved != "" && saved != previous {
			h.removeAsset(saved)
		}
		return middleware.RespondError(c, err)
	}
	if saved != "" && previous != "" && saved != previous {
		h.removeAsset(previous)
	}
	h.publish(c, q.EventUpdated, &updated)
	return c.JSON(http.StatusOK, updated)
}

// Delete soft-deletes the event. Deleting an inactive event again succeeds
// and changes nothing.
func (h *EventHandler) Delete(c echo.Context) error {
	ev, err := h.load(c)
	if err != nil {
		return middleware.RespondError(c, err)
	}
	if err := policy.RequireOwnerOrAdmin(middleware.CurrentUser(c), ev, model.EventOrganizer); err != nil {
		return middleware.RespondError(c, h.forbidden("delete"))
	}
	ctx, cancel := dbCtx(c)
	defer cancel()
	if err := h.Events.SoftDelete(ctx, ev.ID); err != nil {
		return middleware.RespondError(c, err)
	}
	h.publish(c, q.EventDeleted, ev)
	label := h.label()
	return c.JSON(http.StatusOK, echo.Map{
		"message": strings.ToUpper(label[:1]) + label[1:] + " deleted successfully",
	})
}

// eventPatchFrom builds a patch from the keys present in form. Blank title,
// description or date values are rejected.
func eventPatchFrom(form formFields) (model.EventPatch, error) {
	var p model.EventPatch
	if v := form.optional("title"); v != nil {
		if *v == "" {
			return p, domain.NewValidationError("title cannot be empty")
		}
		p.Title = v
	}
	if v := form.optional("description"); v != nil {
		if *v == "" {
			return p, domain.NewValidationError("description cannot be empty")
		}
		d := utils.SanitizeText(*v)
		p.Description = &d
	}
	if v := form.optional("date"); v != nil {
		d, err := model.ParseDate(*v)
		if err != nil {
			return p, domain.NewValidationError("date must be YYYY-MM-DD")
		}
		p.Date = &d
	}
	p.Location = form.optional("location")
	return p, nil
}

func (h *EventHandler) fileName(id uint64) string {
	return fmt.Sprintf("%s%d", h.filePrefix, id)
}

func (h *EventHandler) saveImage(fh *multipart.FileHeader, id uint64) (string, error) {
	src, err := fh.Open()
	if err != nil {
		return "", err
	}
	defer src.Close()
	return h.Store.Save(h.assetDir, h.fileName(id), src, storage.CleanExt(fh.Filename))
}

func (h *EventHandler) removeAsset(path string) {
	if err := h.Store.Remove(path); err != nil {
		h.Log.Warn("event asset cleanup failed", zap.String("path", path), zap.Error(err))
	}
}

func (h *EventHandler) publish(c echo.Context, action string, ev *model.Event) {
	actor := middleware.CurrentUser(c)
	a := q.NewActivity(action, string(h.Events.Kind()), ev.ID, actor.ID, actor.Username)
	a.Title = ev.Title
	service.PublishAsync(h.Publisher, a)
}
