package domain

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// ParticipantRole is the closed set of roles a participant can hold in an event.
// The zero value is not a valid role.
type ParticipantRole uint8

const (
	RoleParticipant ParticipantRole = iota + 1
	RoleAdmin
	RoleTrainer
)

var participantRoleNames = map[ParticipantRole]string{
	RoleParticipant: "participant",
	RoleAdmin:       "admin",
	RoleTrainer:     "trainer",
}

// ParseParticipantRole maps a role name to its ParticipantRole. Returns ErrInvalidRole for unknown names.
func ParseParticipantRole(s string) (ParticipantRole, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for role, n := range participantRoleNames {
		if n == name {
			return role, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidRole, s)
}

func (r ParticipantRole) String() string {
	if n, ok := participantRoleNames[r]; ok {
		return n
	}
	return fmt.Sprintf("ParticipantRole(%d)", uint8(r))
}

// Valid reports whether r is one of the known roles.
func (r ParticipantRole) Valid() bool {
	_, ok := participantRoleNames[r]
	return ok
}

// Privileged reports whether the role may manage the event's participants.
func (r ParticipantRole) Privileged() bool {
	return r == RoleAdmin || r == RoleTrainer
}

// MarshalText implements encoding.TextMarshaler.
func (r ParticipantRole) MarshalText() ([]byte, error) {
	if !r.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidRole, uint8(r))
	}
	return []byte(r.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (r *ParticipantRole) UnmarshalText(b []byte) error {
	role, err := ParseParticipantRole(string(b))
	if err != nil {
		return err
	}
	*r = role
	return nil
}

// EventParticipant records a user's membership of an event.
// swagger:model EventParticipant
type EventParticipant struct {
	ID         string          `json:"id"`
	EventID    string          `json:"event_id"`
	UserID     string          `json:"user_id"`
	Role       ParticipantRole `json:"role" swaggertype:"string" enums:"participant,admin,trainer"`
	PaidStatus bool            `json:"paid_status"`
	Presence   *bool           `json:"presence"`
	CreatedAt  time.Time       `json:"created_at"`
}

// NewEventParticipant returns a participant with default paid/presence flags. ID is set by the repository.
func NewEventParticipant(eventID, userID string, role ParticipantRole, createdAt time.Time) *EventParticipant {
	presence := true
	return &EventParticipant{
		EventID:   eventID,
		UserID:    userID,
		Role:      role,
		Presence:  &presence,
		CreatedAt: createdAt,
	}
}

// EventParticipantRepository defines storage operations on participants outside the join transaction.
type EventParticipantRepository interface {
	GetByID(ctx context.Context, id string) (*EventParticipant, error)
	GetByEventAndUser(ctx context.Context, eventID, userID string) (*EventParticipant, error)
	ListByEventID(ctx context.Context, eventID string) ([]*EventParticipant, error)
	UpdateRole(ctx context.Context, id string, role ParticipantRole) error
	Delete(ctx context.Context, id string) error
}

// JoinTx is the set of statements run inside one join transaction.
// Lock methods block until the row locks are granted.
type JoinTx interface {
	// LockInvitationByCode selects the invitation FOR UPDATE. Returns ErrNotFound when absent.
	LockInvitationByCode(ctx context.Context, code string) (*EventInvitation, error)
	// LockEventCapacity selects the event's additional info FOR UPDATE and returns its places limit.
	LockEventCapacity(ctx context.Context, eventID string) (*int, error)
	// LockParticipants selects the event's participant rows FOR UPDATE and returns how many there are.
	LockParticipants(ctx context.Context, eventID string) (int, error)
	GetParticipant(ctx context.Context, eventID, userID string) (*EventParticipant, error)
	// InsertParticipant inserts p unless the (event, user) pair exists. created is false when it existed.
	InsertParticipant(ctx context.Context, p *EventParticipant) (created bool, err error)
	MarkInvitationUsed(ctx context.Context, invitationID string) error
}

// JoinTxRunner runs fn inside a single transaction. A non-nil error from fn rolls everything back.
type JoinTxRunner interface {
	WithinJoinTx(ctx context.Context, fn func(ctx context.Context, tx JoinTx) error) error
}

// JoinService joins users to events through invitation codes or the public path.
type JoinService interface {
	RedeemCode(ctx context.Context, code, userID string, now time.Time) (*EventParticipant, error)
	JoinPublicEvent(ctx context.Context, eventID, userID string, now time.Time) (*EventParticipant, error)
}

// ParticipantService exposes the privileged participant management operations.
type ParticipantService interface {
	ListParticipants(ctx context.Context, eventID, callerID string) ([]*EventParticipant, error)
	// ChangeRole returns changed=false when the participant already has role.
	ChangeRole(ctx context.Context, eventID, participantID, callerID string, role ParticipantRole) (changed bool, err error)
	Evict(ctx context.Context, eventID, participantID, callerID string) error
}
