package models

import (
	"time"

	"github.com/joshua-takyi/gatherly/internal/geo"
)

const DefaultEventCapacity = 50

type Event struct {
	ID           int64     `json:"id"`
	HostID       int64     `json:"host"`
	HostName     string    `json:"host_username"`
	Title        string    `json:"title" validate:"required,max=200"`
	Description  string    `json:"description"`
	CategoryID   *int64    `json:"category"`
	CategoryName *string   `json:"category_name"`
	StartTime    time.Time `json:"start_time" validate:"required"`
	EndTime      time.Time `json:"end_time" validate:"required,gtefield=StartTime"`
	LocationName string    `json:"location_name" validate:"required,max=200"`
	Address      string    `json:"address" validate:"required,max=300"`
	Lat          float64   `json:"lat" validate:"min=-90,max=90"`
	Lng          float64   `json:"lng" validate:"min=-180,max=180"`
	Capacity     int       `json:"capacity" validate:"min=1"`
	IsPublic     bool      `json:"is_public"`
	IsCancelled  bool      `json:"is_cancelled"`
	CreatedAt    time.Time `json:"created_at"`
}

// Location lets events flow through geo.Filter.
func (e *Event) Location() geo.Point {
	return geo.Point{Lat: e.Lat, Lng: e.Lng}
}

// VisibleTo reports whether viewerID may see the event. Nil means anonymous.
func (e *Event) VisibleTo(viewerID *int64) bool {
	if e.IsPublic {
		return true
	}
	return viewerID != nil && *viewerID == e.HostID
}

func (e *Event) IsHostedBy(userID int64) bool {
	return e.HostID == userID
}

// EventInput is the writable subset of an event. Nil fields are left
// untouched by a partial update.
type EventInput struct {
	Title        *string    `json:"title"`
	Description  *string    `json:"description"`
	CategoryID   *int64     `json:"category"`
	StartTime    *time.Time `json:"start_time"`
	EndTime      *time.Time `json:"end_time"`
	LocationName *string    `json:"location_name"`
	Address      *string    `json:"address"`
	Lat          *float64   `json:"lat"`
	Lng          *float64   `json:"lng"`
	Capacity     *int       `json:"capacity"`
	IsPublic     *bool      `json:"is_public"`
	IsCancelled  *bool      `json:"is_cancelled"`
}

// ApplyTo copies the set fields of in onto e.
func (in *EventInput) ApplyTo(e *Event) {
	if in.Title != nil {
		e.Title = *in.Title
	}
	if in.Description != nil {
		e.Description = *in.Description
	}
	if in.CategoryID != nil {
		e.CategoryID = in.CategoryID
	}
	if in.StartTime != nil {
		e.StartTime = *in.StartTime
	}
	if in.EndTime != nil {
		e.EndTime = *in.EndTime
	}
	if in.LocationName != nil {
		e.LocationName = *in.LocationName
	}
	if in.Address != nil {
		e.Address = *in.Address
	}
	if in.Lat != nil {
		e.Lat = *in.Lat
	}
	if in.Lng != nil {
		e.Lng = *in.Lng
	}
	if in.Capacity != nil {
		e.Capacity = *in.Capacity
	}
	if in.IsPublic != nil {
		e.IsPublic = *in.IsPublic
	}
	if in.IsCancelled != nil {
		e.IsCancelled = *in.IsCancelled
	}
}

// NewEventFromInput builds a fresh event with the model defaults applied
// (public, capacity 50) before the input is laid over them.
func NewEventFromInput(hostID int64, in *EventInput) *Event {
	e := &Event{
		HostID:   hostID,
		Capacity: DefaultEventCapacity,
		IsPublic: true,
	}
	in.ApplyTo(e)
	return e
}

// EventSummary is a list row.
type EventSummary struct {
	*Event
	AttendeeCount int `json:"attendee_count"`
}

type Attendee struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
}

// EventDetail is the single-event view.
type EventDetail struct {
	*Event
	AttendeeCount int         `json:"attendee_count"`
	Attendees     []*Attendee `json:"attendees"`
	IsJoined      bool        `json:"is_joined"`
}

// EventFilter narrows ListEvents. Box is an optional SQL-side prefilter.
type EventFilter struct {
	ViewerID *int64
	Box      *geo.BoundingBox
}

type Category struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// DefaultCategories seeds the category table.
var DefaultCategories = []string{"Music", "Food", "Comedy", "Fitness", "Biz", "Film", "Art", "Other"}
