package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/joshua-takyi/gatherly/internal/models"
)

// ErrAnalyticsUnavailable is returned when no view store is configured.
var ErrAnalyticsUnavailable = errors.New("view analytics are not configured")

type EventViewService struct {
	viewsRepo  models.EventViewsRepo
	eventsRepo models.EventsRepo
	logger     *slog.Logger
	now        func() time.Time
}

// NewEventViewService accepts a nil viewsRepo, in which case tracking is a
// no-op and stats report ErrAnalyticsUnavailable.
func NewEventViewService(viewsRepo models.EventViewsRepo, eventsRepo models.EventsRepo, logger *slog.Logger) *EventViewService {
	return &EventViewService{
		viewsRepo:  viewsRepo,
		eventsRepo: eventsRepo,
		logger:     logger,
		now:        time.Now,
	}
}

// TrackView records that sessionID looked at event. Failures are logged and
// never reach the caller.
func (vs *EventViewService) TrackView(ctx context.Context, event *models.Event, viewerID *int64, sessionID, userAgent string) {
	if vs.viewsRepo == nil || sessionID == "" {
		return
	}
	err := vs.viewsRepo.TrackEventView(ctx, &models.EventView{
		EventID:   event.ID,
		HostID:    event.HostID,
		ViewerID:  viewerID,
		SessionID: sessionID,
		UserAgent: userAgent,
	})
	if err != nil {
		vs.logger.Warn("Failed to track event view", "event_id", event.ID, "error", err)
	}
}

// GetEventViewStats is restricted to the event's host.
func (vs *EventViewService) GetEventViewStats(ctx context.Context, eventID, userID int64) (*models.EventViewStats, error) {
	if vs.viewsRepo == nil {
		return nil, ErrAnalyticsUnavailable
	}

	event, err := vs.eventsRepo.GetEventByID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if !event.VisibleTo(&userID) {
		return nil, models.ErrNotFound
	}
	if !event.IsHostedBy(userID) {
		return nil, models.ErrForbidden
	}

	return vs.viewsRepo.GetEventViewStats(ctx, eventID, vs.now())
}
