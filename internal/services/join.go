package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"fitevents/internal/domain"
)

// JoinCoordinator admits users to events. Every admission runs in one
// transaction that holds the invitation, capacity and participant row locks
// from the checks through the insert.
type JoinCoordinator struct {
	events      domain.EventRepository
	invitations domain.EventInvitationRepository
	runner      domain.JoinTxRunner
	guard       CapacityGuard
	ledger      *ParticipationLedger
	logger      *slog.Logger
}

var _ domain.JoinService = (*JoinCoordinator)(nil)

func NewJoinCoordinator(
	events domain.EventRepository,
	invitations domain.EventInvitationRepository,
	runner domain.JoinTxRunner,
	ledger *ParticipationLedger,
	logger *slog.Logger,
) *JoinCoordinator {
	return &JoinCoordinator{
		events:      events,
		invitations: invitations,
		runner:      runner,
		ledger:      ledger,
		logger:      logger,
	}
}

// RedeemCode joins userID to the event behind code. One-use codes are
// consumed in the same transaction as the insert.
func (c *JoinCoordinator) RedeemCode(ctx context.Context, code, userID string, now time.Time) (*domain.EventParticipant, error) {
	code = NormalizeInvitationCode(code)

	inv, err := c.invitations.GetByCode(ctx, code)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, c.rejected(ctx, "code", "", userID, domain.ErrInvalidInvitation)
		}
		return nil, fmt.Errorf("get invitation: %w", err)
	}
	if !inv.IsValid(now) {
		return nil, c.rejected(ctx, "code", inv.EventID, userID, domain.ErrInvalidInvitation)
	}
	event, err := c.events.GetByID(ctx, inv.EventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, c.rejected(ctx, "code", inv.EventID, userID, domain.ErrInvalidInvitation)
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	if event.IsAuthor(userID) {
		return nil, c.rejected(ctx, "code", event.ID, userID, domain.ErrAlreadyMember)
	}

	var joined *domain.EventParticipant
	err = c.runner.WithinJoinTx(ctx, func(ctx context.Context, tx domain.JoinTx) error {
		locked, err := tx.LockInvitationByCode(ctx, code)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return domain.ErrInvalidInvitation
			}
			return fmt.Errorf("lock invitation: %w", err)
		}
		// State read before the lock may be stale.
		if !locked.IsValid(now) {
			return domain.ErrInvalidInvitation
		}
		p, err := c.admit(ctx, tx, event.ID, userID, now)
		if err != nil {
			return err
		}
		if locked.IsOneUse {
			if err := tx.MarkInvitationUsed(ctx, locked.ID); err != nil {
				return err
			}
		}
		joined = p
		return nil
	})
	if err != nil {
		return nil, c.rejected(ctx, "code", event.ID, userID, err)
	}
	c.logger.InfoContext(ctx, "participant joined", "path", "code", "event_id", event.ID, "user_id", userID, "one_use", inv.IsOneUse)
	return joined, nil
}

// JoinPublicEvent joins userID to a public event without a code.
func (c *JoinCoordinator) JoinPublicEvent(ctx context.Context, eventID, userID string, now time.Time) (*domain.EventParticipant, error) {
	event, err := c.events.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	if !event.AdditionalInfo.PublicEvent {
		return nil, c.rejected(ctx, "public", eventID, userID, domain.ErrPrivateEvent)
	}
	if event.IsAuthor(userID) {
		return nil, c.rejected(ctx, "public", eventID, userID, domain.ErrAlreadyMember)
	}

	var joined *domain.EventParticipant
	err = c.runner.WithinJoinTx(ctx, func(ctx context.Context, tx domain.JoinTx) error {
		p, err := c.admit(ctx, tx, eventID, userID, now)
		if err != nil {
			return err
		}
		joined = p
		return nil
	})
	if err != nil {
		return nil, c.rejected(ctx, "public", eventID, userID, err)
	}
	c.logger.InfoContext(ctx, "participant joined", "path", "public", "event_id", eventID, "user_id", userID)
	return joined, nil
}

// admit runs the capacity and membership checks under lock and inserts the
// participant. Members are reported before a full event.
func (c *JoinCoordinator) admit(ctx context.Context, tx domain.JoinTx, eventID, userID string, now time.Time) (*domain.EventParticipant, error) {
	seats, err := c.guard.CheckAndReserve(ctx, tx, eventID)
	if err != nil {
		return nil, err
	}
	if _, err := tx.GetParticipant(ctx, eventID, userID); err == nil {
		return nil, domain.ErrAlreadyMember
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("get participant: %w", err)
	}
	if !seats.Available() {
		return nil, domain.ErrCapacityExceeded
	}
	p, created, err := c.ledger.Join(ctx, tx, eventID, userID, domain.RoleParticipant, now)
	if err != nil {
		return nil, err
	}
	if !created {
		return nil, domain.ErrAlreadyMember
	}
	return p, nil
}

// rejected logs expected join refusals at debug level and passes err through.
func (c *JoinCoordinator) rejected(ctx context.Context, path, eventID, userID string, err error) error {
	switch {
	case errors.Is(err, domain.ErrInvalidInvitation),
		errors.Is(err, domain.ErrCapacityExceeded),
		errors.Is(err, domain.ErrAlreadyMember),
		errors.Is(err, domain.ErrPrivateEvent):
		c.logger.DebugContext(ctx, "join rejected", "path", path, "event_id", eventID, "user_id", userID, "reason", err.Error())
		return err
	case errors.Is(err, domain.ErrNotFound):
		return err
	}
	return fmt.Errorf("join event: %w", err)
}

// NormalizeInvitationCode trims surrounding space and upper-cases code.
func NormalizeInvitationCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
