package domain

import (
	"context"
	"time"
)

// InvitationCodeLength is the length of every generated invitation code.
const InvitationCodeLength = 8

// EventInvitation is an opaque code granting join access to an event.
// swagger:model EventInvitation
type EventInvitation struct {
	ID        string    `json:"id"`
	EventID   string    `json:"event_id"`
	Code      string    `json:"code"`
	CreatedBy string    `json:"created_by"`
	IsActive  bool      `json:"is_active"`
	IsOneUse  bool      `json:"is_one_use"`
	IsUsed    bool      `json:"is_used"`
	CreatedAt time.Time `json:"created_at"`

	// EventStartsAt is loaded together with the invitation; codes stop working once the event starts.
	EventStartsAt time.Time `json:"-"`
	// Link is the shareable URL for the code. Filled by the service, not stored.
	Link string `json:"link,omitempty"`
}

// IsValid reports whether the invitation can be redeemed at now.
func (i *EventInvitation) IsValid(now time.Time) bool {
	return i.IsActive && !i.IsUsed && !now.After(i.EventStartsAt)
}

// EventInvitationRepository defines storage operations for event invitations.
type EventInvitationRepository interface {
	// Create inserts the invitation. Returns ErrDuplicateCode when the code is taken.
	Create(ctx context.Context, inv *EventInvitation) error
	GetByCode(ctx context.Context, code string) (*EventInvitation, error)
	GetByID(ctx context.Context, id string) (*EventInvitation, error)
	SetActive(ctx context.Context, id string, active bool) error
	ListByEventID(ctx context.Context, eventID string, params PaginationParams) ([]*EventInvitation, int, error)
}

// InvitationService manages invitation codes for event authors.
type InvitationService interface {
	Create(ctx context.Context, eventID, createdBy string, isOneUse, isActive bool) (*EventInvitation, error)
	Lookup(ctx context.Context, code string) (*EventInvitation, error)
	Activate(ctx context.Context, eventID, invitationID, callerID string) (*EventInvitation, error)
	Deactivate(ctx context.Context, eventID, invitationID, callerID string) (*EventInvitation, error)
	List(ctx context.Context, eventID, callerID string, params PaginationParams) ([]*EventInvitation, int, error)
	Share(ctx context.Context, eventID, invitationID, callerID string, emails []string) (sent int, failed []string, err error)
}
