package service

import (
	"context"
	"errors"
	"net/http"

	"github.com/iliyamo/ngo-portal/internal/config"
	"github.com/iliyamo/ngo-portal/internal/domain"
	"github.com/iliyamo/ngo-portal/internal/model"
	"github.com/iliyamo/ngo-portal/internal/utils"
)

// ErrAdminExists is returned by SeedAdmin once any admin row exists.
var ErrAdminExists = &domain.AppError{
	Code:    http.StatusBadRequest,
	Message: "Admin user already exists. Use regular admin creation endpoint.",
	Err:     domain.ErrConflict,
}

// AdminStore is the part of the user repository seeding needs.
type AdminStore interface {
	AnyAdmin(ctx context.Context) (bool, error)
	Create(ctx context.Context, u *model.User) error
}

// SeedAdmin creates the initial admin account from an admin-less state. A
// concurrent seed that loses the race is reported as ErrAdminExists too; a
// regular account holding the seed identity surfaces as its conflict.
func SeedAdmin(ctx context.Context, users AdminStore, seed config.SeedAdminConfig, cost int) (*model.User, error) {
	exists, err := users.AnyAdmin(ctx)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrAdminExists
	}
	hash, err := utils.HashPassword(seed.Password, cost)
	if err != nil {
		return nil, err
	}
	u := &model.User{
		Email:        seed.Email,
		Username:     seed.Username,
		PasswordHash: hash,
		FirstName:    optional(seed.FirstName),
		LastName:     optional(seed.LastName),
		IsActive:     true,
		IsAdmin:      true,
	}
	if err := users.Create(ctx, u); err != nil {
		if !errors.Is(err, domain.ErrConflict) {
			return nil, err
		}
		// a conflict means either a concurrent seed won or a regular user
		// already holds the seed username or email
		if exists, aerr := users.AnyAdmin(ctx); aerr == nil && exists {
			return nil, ErrAdminExists
		}
		return nil, err
	}
	return u, nil
}

// EventCreator is the part of an event repository seeding needs.
type EventCreator interface {
	Create(ctx context.Context, ev *model.Event, attach func(id uint64) (string, error)) error
}

// SampleEvents returns the demonstration events loaded by the seed command.
func SampleEvents(organizerID uint64) []model.Event {
	loc := func(s string) *string { return &s }
	return []model.Event{
		{
			Title:       "Community Cleanup Drive",
			Description: "Join us for a community cleanup event to make our neighborhood cleaner and greener.",
			Date:        model.NewDate(2024, 6, 15),
			Location:    loc("Central Park"),
			OrganizerID: organizerID,
		},
		{
			Title:       "Food Distribution",
			Description: "Help us distribute food to those in need in our community.",
			Date:        model.NewDate(2024, 7, 1),
			Location:    loc("Community Center"),
			OrganizerID: organizerID,
		},
		{
			Title:       "Education Workshop",
			Description: "Free workshop on basic computer skills for underprivileged children.",
			Date:        model.NewDate(2024, 7, 15),
			Location:    loc("Public Library"),
			OrganizerID: organizerID,
		},
	}
}

// SeedEvents inserts the sample events organized by organizerID.
func SeedEvents(ctx context.Context, events EventCreator, organizerID uint64) (int, error) {
	n := 0
	for _, ev := range SampleEvents(organizerID) {
		ev := ev
		if err := events.Create(ctx, &ev, nil); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
