package model

import (
	"encoding/json"
	"testing"
	"time"
)

func strp(s string) *string { return &s }

func TestMergeEvent_OmittedFieldsUnchanged(t *testing.T) {
	existing := Event{
		ID:          7,
		Title:       "Community Cleanup Drive",
		Description: "Bring gloves",
		Date:        NewDate(2024, time.June, 15),
		Location:    strp("Central Park"),
		ImageURL:    strp("/static/completedEvents/event_7.jpg"),
		OrganizerID: 3,
		IsActive:    true,
	}

	got := MergeEvent(existing, EventPatch{Title: strp("Riverside Cleanup")})

	if got.Title != "Riverside Cleanup" {
		t.Errorf("Title = %q, want %q", got.Title, "Riverside Cleanup")
	}
	if got.Description != existing.Description {
		t.Errorf("Description changed to %q", got.Description)
	}
	if !got.Date.Equal(existing.Date) {
		t.Errorf("Date changed to %s", got.Date)
	}
	if got.Location == nil || *got.Location != "Central Park" {
		t.Errorf("Location changed to %v", got.Location)
	}
	if got.ID != 7 || got.OrganizerID != 3 || !got.IsActive || *got.ImageURL != *existing.ImageURL {
		t.Errorf("identity/lifecycle fields changed: %+v", got)
	}
	if existing.Title != "Community Cleanup Drive" {
		t.Errorf("MergeEvent mutated its input")
	}
}

func TestMergeEvent_EmptyPatch(t *testing.T) {
	existing := Event{ID: 1, Title: "A", Description: "B", Date: NewDate(2025, time.January, 2)}
	if !(EventPatch{}).Empty() {
		t.Fatal("zero patch should be empty")
	}
	got := MergeEvent(existing, EventPatch{})
	if got != existing {
		t.Errorf("MergeEvent(empty) = %+v, want %+v", got, existing)
	}
}

func TestMergeUser(t *testing.T) {
	existing := User{ID: 1, Email: "a@example.com", Username: "alice", FirstName: strp("Alice")}
	got := MergeUser(existing, UserPatch{LastName: strp("Liddell")})
	if got.Email != "a@example.com" || got.Username != "alice" || *got.FirstName != "Alice" {
		t.Errorf("unexpected change: %+v", got)
	}
	if got.LastName == nil || *got.LastName != "Liddell" {
		t.Errorf("LastName = %v, want Liddell", got.LastName)
	}
}

func TestMergeMember(t *testing.T) {
	age := 41
	existing := Member{ID: 2, Name: "Ravi", Position: "Treasurer", Age: 40}
	got := MergeMember(existing, MemberPatch{Age: &age})
	if got.Age != 41 || got.Name != "Ravi" || got.Position != "Treasurer" {
		t.Errorf("MergeMember = %+v", got)
	}
}

func TestDate_JSONAndScan(t *testing.T) {
	d := NewDate(2024, time.July, 1)
	b, err := json.Marshal(d)
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != `"2024-07-01"` {
		t.Errorf("Marshal = %s", b)
	}
	var back Date
	if err := json.Unmarshal(b, &back); err != nil || !back.Equal(d) {
		t.Errorf("Unmarshal = %v, %v", back, err)
	}

	var scanned Date
	if err := scanned.Scan(time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)); err != nil || !scanned.Equal(d) {
		t.Errorf("Scan(time) = %v, %v", scanned, err)
	}
	if err := scanned.Scan([]byte("2024-07-01 00:00:00")); err != nil || !scanned.Equal(d) {
		t.Errorf("Scan(bytes) = %v, %v", scanned, err)
	}
	if err := scanned.Scan(42); err == nil {
		t.Error("Scan(int) should fail")
	}
	if _, err := ParseDate("15/06/2024"); err == nil {
		t.Error("ParseDate accepted a non ISO date")
	}
}

func TestEventVisibility(t *testing.T) {
	ev := Event{IsActive: false}
	if ev.Listable() {
		t.Error("inactive event must not be listable")
	}
	if !ev.Fetchable() {
		t.Error("inactive event must stay fetchable")
	}
}
