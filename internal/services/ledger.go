package services

import (
	"context"
	"fmt"
	"time"

	"fitevents/internal/domain"
)

// ParticipationLedger owns the event_participants rows.
type ParticipationLedger struct {
	participants domain.EventParticipantRepository
}

func NewParticipationLedger(participants domain.EventParticipantRepository) *ParticipationLedger {
	return &ParticipationLedger{participants: participants}
}

// Join inserts the (event, user) pair inside tx. When the pair already exists
// the stored row is returned with created=false.
func (l *ParticipationLedger) Join(ctx context.Context, tx domain.JoinTx, eventID, userID string, role domain.ParticipantRole, now time.Time) (*domain.EventParticipant, bool, error) {
	if !role.Valid() {
		return nil, false, domain.ErrInvalidRole
	}
	p := domain.NewEventParticipant(eventID, userID, role, now)
	created, err := tx.InsertParticipant(ctx, p)
	if err != nil {
		return nil, false, fmt.Errorf("insert participant: %w", err)
	}
	return p, created, nil
}

func (l *ParticipationLedger) Evict(ctx context.Context, p *domain.EventParticipant) error {
	if err := l.participants.Delete(ctx, p.ID); err != nil {
		return fmt.Errorf("delete participant: %w", err)
	}
	return nil
}

// ChangeRole sets p's role. It reports changed=false and writes nothing when
// p already has role.
func (l *ParticipationLedger) ChangeRole(ctx context.Context, p *domain.EventParticipant, role domain.ParticipantRole) (bool, error) {
	if !role.Valid() {
		return false, domain.ErrInvalidRole
	}
	if p.Role == role {
		return false, nil
	}
	if err := l.participants.UpdateRole(ctx, p.ID, role); err != nil {
		return false, fmt.Errorf("update participant role: %w", err)
	}
	p.Role = role
	return true, nil
}
