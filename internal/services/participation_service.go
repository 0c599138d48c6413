package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/joshua-takyi/gatherly/internal/models"
)

type ParticipationService struct {
	participationRepo models.ParticipationRepo
	logger            *slog.Logger
}

func NewParticipationService(participationRepo models.ParticipationRepo, logger *slog.Logger) *ParticipationService {
	return &ParticipationService{
		participationRepo: participationRepo,
		logger:            logger,
	}
}

// Join adds userID to the event. Checks run under the event row lock in
// this order: visibility, host, capacity, existing membership.
func (ps *ParticipationService) Join(ctx context.Context, eventID, userID int64) (*models.EventParticipation, error) {
	var result *models.EventParticipation

	err := ps.participationRepo.WithEventLock(ctx, eventID, func(ctx context.Context, tx models.ParticipationTx, event *models.Event) error {
		if !event.VisibleTo(&userID) {
			return models.ErrNotFound
		}
		if event.IsHostedBy(userID) {
			return models.ErrForbidden
		}

		current, err := tx.CountActiveParticipations(ctx, eventID)
		if err != nil {
			return err
		}
		if current >= event.Capacity {
			return models.ErrCapacityExceeded
		}

		p, created, err := tx.GetOrCreateParticipation(ctx, eventID, userID)
		if err != nil {
			return err
		}
		if created {
			result = p
			return nil
		}
		if p.Status.IsActive() {
			return models.ErrAlreadyJoined
		}

		result, err = tx.SetParticipationStatus(ctx, p.ID, models.StatusJoined)
		return err
	})
	if err != nil {
		return nil, ps.fail("join", eventID, userID, err)
	}

	ps.logger.Info("Participation joined",
		"event_id", eventID,
		"user_id", userID,
		"participation_id", result.ID,
		"status", result.Status,
	)
	return result, nil
}

// Leave cancels userID's participation. The row is kept with status
// CANCELLED so a later Join reuses it.
func (ps *ParticipationService) Leave(ctx context.Context, eventID, userID int64) (*models.EventParticipation, error) {
	var result *models.EventParticipation

	err := ps.participationRepo.WithEventLock(ctx, eventID, func(ctx context.Context, tx models.ParticipationTx, event *models.Event) error {
		if !event.VisibleTo(&userID) {
			return models.ErrNotFound
		}

		p, err := tx.GetParticipation(ctx, eventID, userID)
		if errors.Is(err, models.ErrNotFound) {
			return models.ErrNotAParticipant
		}
		if err != nil {
			return err
		}
		if !p.Status.IsActive() {
			return models.ErrAlreadyLeft
		}

		result, err = tx.SetParticipationStatus(ctx, p.ID, models.StatusCancelled)
		return err
	})
	if err != nil {
		return nil, ps.fail("leave", eventID, userID, err)
	}

	ps.logger.Info("Participation cancelled",
		"event_id", eventID,
		"user_id", userID,
		"participation_id", result.ID,
		"status", result.Status,
	)
	return result, nil
}

// fail logs rejected transitions at debug and wraps the error for callers.
func (ps *ParticipationService) fail(op string, eventID, userID int64, err error) error {
	if isDomainError(err) {
		ps.logger.Debug("Participation rejected",
			"op", op,
			"event_id", eventID,
			"user_id", userID,
			"reason", err,
		)
		return err
	}
	return fmt.Errorf("failed to %s event %d: %w", op, eventID, err)
}

func isDomainError(err error) bool {
	for _, target := range []error{
		models.ErrNotFound,
		models.ErrForbidden,
		models.ErrCapacityExceeded,
		models.ErrAlreadyJoined,
		models.ErrAlreadyLeft,
		models.ErrNotAParticipant,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
