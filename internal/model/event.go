package model

// EventKind selects one of the two independent event collections. Both share
// one schema and one lifecycle; only storage and naming differ.
type EventKind string

const (
	CompletedEvents EventKind = "events"
	UpcomingEvents  EventKind = "upcoming_events"
)

// Table is the SQL table backing the collection.
func (k EventKind) Table() string { return string(k) }

// Label is the human name used in messages ("event", "upcoming event").
func (k EventKind) Label() string {
	if k == UpcomingEvents {
		return "upcoming event"
	}
	return "event"
}

// Event is a row of `events` or `upcoming_events`. OrganizerID is always the
// authenticated creator. Delete is soft: IsActive flips to false and the row
// stays.
type Event struct {
	ID          uint64  `db:"id" json:"id"`
	Title       string  `db:"title" json:"title"`
	Description string  `db:"description" json:"description"`
	Date        Date    `db:"date" json:"date"`
	Location    *string `db:"location" json:"location"`
	ImageURL    *string `db:"image_url" json:"image_url"`
	OrganizerID uint64  `db:"organizer_id" json:"organizer_id"`
	IsActive    bool    `db:"is_active" json:"is_active"`
}

// Listable reports whether the event shows up in collection listings.
func (e *Event) Listable() bool { return e.IsActive }

// Fetchable reports whether the event can be retrieved by id. Soft-deleted
// events stay fetchable; listings and direct reads deliberately differ.
func (e *Event) Fetchable() bool { return true }

// EventOrganizer is the owner accessor used by the owner-or-admin guard.
func EventOrganizer(e *Event) uint64 { return e.OrganizerID }

// EventPatch is a partial update of an event.
type EventPatch struct {
	Title       *string
	Description *string
	Date        *Date
	Location    *string
}

// Empty reports whether the patch changes nothing.
func (p EventPatch) Empty() bool {
	return p.Title == nil && p.Description == nil && p.Date == nil && p.Location == nil
}

// MergeEvent returns existing with every non-nil field of p applied. Identity,
// ownership, image and lifecycle fields are never touched.
func MergeEvent(existing Event, p EventPatch) Event {
	out := existing
	if p.Title != nil {
		out.Title = *p.Title
	}
	if p.Description != nil {
		out.Description = *p.Description
	}
	if p.Date != nil {
		out.Date = *p.Date
	}
	if p.Location != nil {
		out.Location = cloneString(p.Location)
	}
	return out
}
