package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/joshua-takyi/gatherly/internal/geo"
	"github.com/joshua-takyi/gatherly/internal/models"
)

type EventService struct {
	eventsRepo     models.EventsRepo
	categoriesRepo models.CategoriesRepo
	logger         *slog.Logger
}

func NewEventService(eventsRepo models.EventsRepo, categoriesRepo models.CategoriesRepo, logger *slog.Logger) *EventService {
	return &EventService{
		eventsRepo:     eventsRepo,
		categoriesRepo: categoriesRepo,
		logger:         logger,
	}
}

// ListEvents returns the events visible to viewerID, newest first. A nil
// query lists everything visible; otherwise only events within the radius
// are kept, in the same order.
func (es *EventService) ListEvents(ctx context.Context, viewerID *int64, q *geo.Query) ([]*models.EventSummary, error) {
	filter := models.EventFilter{ViewerID: viewerID}
	if q != nil {
		box := q.Box()
		filter.Box = &box
	}

	events, err := es.eventsRepo.ListEvents(ctx, filter)
	if err != nil {
		return nil, err
	}
	if q != nil {
		events = geo.Filter(events, *q)
	}

	ids := make([]int64, len(events))
	for i, e := range events {
		ids[i] = e.ID
	}
	counts, err := es.eventsRepo.CountActiveParticipations(ctx, ids)
	if err != nil {
		return nil, err
	}

	summaries := make([]*models.EventSummary, len(events))
	for i, e := range events {
		summaries[i] = &models.EventSummary{Event: e, AttendeeCount: counts[e.ID]}
	}
	return summaries, nil
}

func (es *EventService) GetEventDetail(ctx context.Context, id int64, viewerID *int64) (*models.EventDetail, error) {
	event, err := es.visibleEvent(ctx, id, viewerID)
	if err != nil {
		return nil, err
	}

	attendees, err := es.eventsRepo.ListAttendees(ctx, id)
	if err != nil {
		return nil, err
	}

	detail := &models.EventDetail{
		Event:         event,
		AttendeeCount: len(attendees),
		Attendees:     attendees,
	}
	if viewerID != nil {
		for _, a := range attendees {
			if a.ID == *viewerID {
				detail.IsJoined = true
				break
			}
		}
	}
	return detail, nil
}

func (es *EventService) CreateEvent(ctx context.Context, hostID int64, in *models.EventInput) (*models.Event, error) {
	event := models.NewEventFromInput(hostID, in)
	if err := es.validate(ctx, event); err != nil {
		return nil, err
	}

	created, err := es.eventsRepo.CreateEvent(ctx, event)
	if err != nil {
		return nil, err
	}

	es.logger.Info("Event created", "event_id", created.ID, "host_id", hostID)
	return created, nil
}

// UpdateEvent applies in to the event. A partial update only touches the
// fields present in in; a full update starts from the creation defaults.
func (es *EventService) UpdateEvent(ctx context.Context, id, userID int64, in *models.EventInput, partial bool) (*models.Event, error) {
	event, err := es.hostedEvent(ctx, id, userID)
	if err != nil {
		return nil, err
	}

	if partial {
		in.ApplyTo(event)
	} else {
		fresh := models.NewEventFromInput(event.HostID, in)
		fresh.ID = event.ID
		fresh.CreatedAt = event.CreatedAt
		event = fresh
	}
	if err := es.validate(ctx, event); err != nil {
		return nil, err
	}

	updated, err := es.eventsRepo.UpdateEvent(ctx, event)
	if err != nil {
		return nil, err
	}

	es.logger.Info("Event updated", "event_id", id, "host_id", userID, "partial", partial)
	return updated, nil
}

func (es *EventService) DeleteEvent(ctx context.Context, id, userID int64) error {
	if _, err := es.hostedEvent(ctx, id, userID); err != nil {
		return err
	}
	if err := es.eventsRepo.DeleteEvent(ctx, id); err != nil {
		return err
	}

	es.logger.Info("Event deleted", "event_id", id, "host_id", userID)
	return nil
}

func (es *EventService) visibleEvent(ctx context.Context, id int64, viewerID *int64) (*models.Event, error) {
	event, err := es.eventsRepo.GetEventByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !event.VisibleTo(viewerID) {
		return nil, models.ErrNotFound
	}
	return event, nil
}

// hostedEvent loads an event for a write. Invisible events are NotFound,
// visible ones owned by someone else are Forbidden.
func (es *EventService) hostedEvent(ctx context.Context, id, userID int64) (*models.Event, error) {
	event, err := es.visibleEvent(ctx, id, &userID)
	if err != nil {
		return nil, err
	}
	if !event.IsHostedBy(userID) {
		return nil, models.ErrForbidden
	}
	return event, nil
}

func (es *EventService) validate(ctx context.Context, event *models.Event) error {
	if err := models.Validate.Struct(event); err != nil {
		return fmt.Errorf("%w: %v", models.ErrInvalidInput, err)
	}
	if event.CategoryID == nil {
		return nil
	}
	if _, err := es.categoriesRepo.GetCategoryByID(ctx, *event.CategoryID); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return fmt.Errorf("%w: category %d does not exist", models.ErrInvalidInput, *event.CategoryID)
		}
		return err
	}
	return nil
}
