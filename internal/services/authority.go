package services

import (
	"context"
	"errors"
	"fmt"

	"fitevents/internal/domain"
)

// RoleAuthority decides who may manage an event. The author is always
// privileged; other users need an admin or trainer participant row.
type RoleAuthority struct {
	participants domain.EventParticipantRepository
}

func NewRoleAuthority(participants domain.EventParticipantRepository) *RoleAuthority {
	return &RoleAuthority{participants: participants}
}

func (a *RoleAuthority) IsPrivileged(ctx context.Context, userID string, event *domain.Event) (bool, error) {
	if event.IsAuthor(userID) {
		return true, nil
	}
	if userID == "" {
		return false, nil
	}
	p, err := a.participants.GetByEventAndUser(ctx, event.ID, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("get participant: %w", err)
	}
	return p.Role.Privileged(), nil
}

// RequirePrivileged returns ErrForbidden unless userID is privileged on event.
func (a *RoleAuthority) RequirePrivileged(ctx context.Context, userID string, event *domain.Event) error {
	ok, err := a.IsPrivileged(ctx, userID, event)
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrForbidden
	}
	return nil
}

// RequireAuthor returns ErrForbidden unless userID is the event author.
func (a *RoleAuthority) RequireAuthor(userID string, event *domain.Event) error {
	if !event.IsAuthor(userID) {
		return domain.ErrForbidden
	}
	return nil
}
