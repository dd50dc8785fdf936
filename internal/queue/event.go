// Package queue defines message payloads exchanged over the message broker.
package queue

import "time"

// Activity names published after a successful write.
const (
	UserRegistered = "user.registered"
	UserDeleted    = "user.deleted"
	AdminCreated   = "admin.created"
	EventCreated   = "event.created"
	EventUpdated   = "event.updated"
	EventDeleted   = "event.deleted"
	MemberCreated  = "member.created"
	MemberUpdated  = "member.updated"
	MemberDeleted  = "member.deleted"
)

// ActivityEvent is published when a resource changes. It carries enough
// for the consumer to write an audit line without querying the database.
type ActivityEvent struct {
	Action     string `json:"action"`
	ActorID    uint64 `json:"actor_id"`
	Actor      string `json:"actor"`
	Collection string `json:"collection"`
	ResourceID uint64 `json:"resource_id"`
	Title      string `json:"title,omitempty"`
	At         string `json:"at"`
}

// NewActivity stamps an event with the current UTC time.
func NewActivity(action, collection string, resourceID, actorID uint64, actor string) ActivityEvent {
	return ActivityEvent{
		Action:     action,
		ActorID:    actorID,
		Actor:      actor,
		Collection: collection,
		ResourceID: resourceID,
		At:         time.Now().UTC().Format(time.RFC3339),
	}
}
