package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"fitevents/internal/domain"
)

type participantService struct {
	events         domain.EventRepository
	participants   domain.EventParticipantRepository
	ledger         *ParticipationLedger
	authority      *RoleAuthority
	contextTimeout time.Duration
	logger         *slog.Logger
}

// NewParticipantService returns the privileged participant management operations.
func NewParticipantService(
	events domain.EventRepository,
	participants domain.EventParticipantRepository,
	ledger *ParticipationLedger,
	authority *RoleAuthority,
	timeout time.Duration,
	logger *slog.Logger,
) domain.ParticipantService {
	return &participantService{
		events:         events,
		participants:   participants,
		ledger:         ledger,
		authority:      authority,
		contextTimeout: timeout,
		logger:         logger,
	}
}

// ListParticipants is open to privileged users, and to participants when the
// event shows its participant list.
func (s *participantService) ListParticipants(ctx context.Context, eventID, callerID string) ([]*domain.EventParticipant, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	event, err := s.getEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	privileged, err := s.authority.IsPrivileged(ctx, callerID, event)
	if err != nil {
		return nil, err
	}
	if !privileged {
		if !event.AdditionalInfo.ParticipantListShow {
			return nil, domain.ErrForbidden
		}
		if _, err := s.participants.GetByEventAndUser(ctx, eventID, callerID); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, domain.ErrForbidden
			}
			return nil, fmt.Errorf("get participant: %w", err)
		}
	}

	participants, err := s.participants.ListByEventID(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("list participants: %w", err)
	}
	if participants == nil {
		participants = []*domain.EventParticipant{}
	}
	return participants, nil
}

func (s *participantService) ChangeRole(ctx context.Context, eventID, participantID, callerID string, role domain.ParticipantRole) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if !role.Valid() {
		return false, domain.ErrInvalidRole
	}
	p, err := s.privilegedTarget(ctx, eventID, participantID, callerID)
	if err != nil {
		return false, err
	}
	changed, err := s.ledger.ChangeRole(ctx, p, role)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return false, domain.ErrNotFound
		}
		return false, err
	}
	if changed {
		s.logger.InfoContext(ctx, "participant role changed", "event_id", eventID, "participant_id", participantID, "role", role.String(), "by", callerID)
	}
	return changed, nil
}

func (s *participantService) Evict(ctx context.Context, eventID, participantID, callerID string) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	p, err := s.privilegedTarget(ctx, eventID, participantID, callerID)
	if err != nil {
		return err
	}
	if err := s.ledger.Evict(ctx, p); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrNotFound
		}
		return err
	}
	s.logger.InfoContext(ctx, "participant evicted", "event_id", eventID, "participant_id", participantID, "by", callerID)
	return nil
}

// privilegedTarget checks that callerID is privileged on the event and loads
// the participant, hiding participants of other events.
func (s *participantService) privilegedTarget(ctx context.Context, eventID, participantID, callerID string) (*domain.EventParticipant, error) {
	event, err := s.getEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if err := s.authority.RequirePrivileged(ctx, callerID, event); err != nil {
		return nil, err
	}
	p, err := s.participants.GetByID(ctx, participantID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get participant: %w", err)
	}
	if p.EventID != eventID {
		return nil, domain.ErrNotFound
	}
	return p, nil
}

func (s *participantService) getEvent(ctx context.Context, eventID string) (*domain.Event, error) {
	event, err := s.events.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	return event, nil
}
