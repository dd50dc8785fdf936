package handler // handler defines http handlers

import (
	"context"
	"errors"
	"mime/multipart"
	"net/http"
	"net/mail"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4" // echo defines request context types

	"github.com/iliyamo/ngo-portal/internal/domain"
	"github.com/iliyamo/ngo-portal/internal/repository" // repository holds data access layer
)

// dbTimeout bounds the storage work of a single request.
const dbTimeout = 5 * time.Second

func dbCtx(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), dbTimeout)
}

// parseID reads a positive integer path parameter.
func parseID(c echo.Context, name string) (uint64, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, domain.NewValidationError("invalid " + name)
	}
	return id, nil
}

// pageFrom reads skip and limit query parameters (defaults 0 and 100).
func pageFrom(c echo.Context) (repository.Page, error) {
	page := repository.Page{Limit: repository.DefaultLimit}
	if s := c.QueryParam("skip"); s != "" {
		n, err := strconv.ParseUint(s, 10, 64)
		if err != nil {
			return page, domain.NewValidationError("skip must be a non-negative integer")
		}
		page.Skip = n
	}
	if s := c.QueryParam("limit"); s != "" {
		n, err := strconv.ParseUint(s, 10, 64)
		if err != nil || n == 0 {
			return page, domain.NewValidationError("limit must be a positive integer")
		}
		page.Limit = n
	}
	return page, nil
}

// formFields holds the values of a form or query string, keeping track of
// which keys were sent at all.
type formFields map[string][]string

// readForm parses url-encoded or multipart bodies together with the query
// string.
func readForm(c echo.Context) (formFields, error) {
	values, err := c.FormParams()
	if err != nil {
		return nil, domain.NewValidationError("invalid form body")
	}
	return formFields(values), nil
}

// optional returns a pointer to the trimmed value when key was sent.
func (f formFields) optional(key string) *string {
	vs, ok := f[key]
	if !ok || len(vs) == 0 {
		return nil
	}
	v := strings.TrimSpace(vs[0])
	return &v
}

// required returns the trimmed value of key, failing when absent or blank.
func (f formFields) required(key string) (string, error) {
	v := f.optional(key)
	if v == nil || *v == "" {
		return "", domain.NewValidationError(key + " is required")
	}
	return *v, nil
}

// formFile returns the uploaded file under key, or nil when none was sent.
func formFile(c echo.Context, key string) (*multipart.FileHeader, error) {
	fh, err := c.FormFile(key)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			return nil, nil
		}
		return nil, domain.NewValidationError("invalid upload")
	}
	if fh.Filename == "" {
		return nil, nil
	}
	return fh, nil
}

// validEmail reports whether s is a bare address such as a@b.org.
func validEmail(s string) bool {
	addr, err := mail.ParseAddress(s)
	return err == nil && addr.Address == s && strings.Contains(s, "@")
}

func bind(c echo.Context, dst any) error {
	if err := c.Bind(dst); err != nil {
		return domain.NewValidationError("invalid request body")
	}
	return nil
}
