package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/ngo-portal/internal/middleware"
	"github.com/iliyamo/ngo-portal/internal/repository"
)

// DonationHandler exposes donations read-only. Recording a donation is not
// part of this API.
type DonationHandler struct {
	Donations *repository.DonationRepo
}

func NewDonationHandler(d *repository.DonationRepo) *DonationHandler {
	return &DonationHandler{Donations: d}
}

// List returns all donations. Admin only.
func (h *DonationHandler) List(c echo.Context) error {
	page, err := pageFrom(c)
	if err != nil {
		return middleware.RespondError(c, err)
	}
	ctx, cancel := dbCtx(c)
	defer cancel()
	out, err := h.Donations.List(ctx, page)
	if err != nil {
		return middleware.RespondError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

// Mine returns the caller's own donations.
func (h *DonationHandler) Mine(c echo.Context) error {
	page, err := pageFrom(c)
	if err != nil {
		return middleware.RespondError(c, err)
	}
	ctx, cancel := dbCtx(c)
	defer cancel()
	out, err := h.Donations.ListByDonor(ctx, middleware.CurrentUser(c).ID, page)
	if err != nil {
		return middleware.RespondError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}
