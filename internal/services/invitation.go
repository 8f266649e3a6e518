package services

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"regexp"
	"strings"
	"time"

	"fitevents/internal/domain"
)

var invitationCodeAlphabet = []rune("ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789")

var emailRegexp = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// InvitationRegistry mints invitation codes and manages their lifecycle.
// Every management operation is restricted to the event author; admins and
// trainers manage participants but not invitations.
type InvitationRegistry struct {
	events         domain.EventRepository
	invitations    domain.EventInvitationRepository
	authority      *RoleAuthority
	emailService   domain.EmailService
	linkBase       string
	contextTimeout time.Duration
	logger         *slog.Logger

	now     func() time.Time
	newCode func() (string, error)
}

var _ domain.InvitationService = (*InvitationRegistry)(nil)

// NewInvitationRegistry returns a registry that builds share links as linkBase + code.
func NewInvitationRegistry(
	events domain.EventRepository,
	invitations domain.EventInvitationRepository,
	authority *RoleAuthority,
	emailService domain.EmailService,
	linkBase string,
	timeout time.Duration,
	logger *slog.Logger,
) *InvitationRegistry {
	return &InvitationRegistry{
		events:         events,
		invitations:    invitations,
		authority:      authority,
		emailService:   emailService,
		linkBase:       linkBase,
		contextTimeout: timeout,
		logger:         logger,
		now:            time.Now,
		newCode:        generateInvitationCode,
	}
}

func generateInvitationCode() (string, error) {
	b := make([]rune, domain.InvitationCodeLength)
	max := big.NewInt(int64(len(invitationCodeAlphabet)))
	for i := range b {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		b[i] = invitationCodeAlphabet[n.Int64()]
	}
	return string(b), nil
}

// Create mints a new code for the event. Only the author may create codes.
// A colliding code is regenerated until the insert succeeds or ctx ends.
func (s *InvitationRegistry) Create(ctx context.Context, eventID, createdBy string, isOneUse, isActive bool) (*domain.EventInvitation, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	event, err := s.getEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if err := s.authority.RequireAuthor(createdBy, event); err != nil {
		return nil, err
	}

	inv := &domain.EventInvitation{
		EventID:       eventID,
		CreatedBy:     createdBy,
		IsActive:      isActive,
		IsOneUse:      isOneUse,
		CreatedAt:     s.now(),
		EventStartsAt: event.StartsAt,
	}
	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("create invitation: %w", err)
		}
		code, err := s.newCode()
		if err != nil {
			return nil, fmt.Errorf("generate invitation code: %w", err)
		}
		inv.Code = code
		err = s.invitations.Create(ctx, inv)
		if err == nil {
			break
		}
		if !errors.Is(err, domain.ErrDuplicateCode) {
			return nil, fmt.Errorf("create invitation: %w", err)
		}
		s.logger.DebugContext(ctx, "invitation code collision", "event_id", eventID, "attempt", attempt)
	}
	inv.Link = s.link(inv.Code)
	return inv, nil
}

func (s *InvitationRegistry) Lookup(ctx context.Context, code string) (*domain.EventInvitation, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	inv, err := s.invitations.GetByCode(ctx, NormalizeInvitationCode(code))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get invitation: %w", err)
	}
	inv.Link = s.link(inv.Code)
	return inv, nil
}

func (s *InvitationRegistry) Activate(ctx context.Context, eventID, invitationID, callerID string) (*domain.EventInvitation, error) {
	return s.setActive(ctx, eventID, invitationID, callerID, true)
}

func (s *InvitationRegistry) Deactivate(ctx context.Context, eventID, invitationID, callerID string) (*domain.EventInvitation, error) {
	return s.setActive(ctx, eventID, invitationID, callerID, false)
}

// setActive is idempotent: an invitation already in the wanted state is returned unchanged.
func (s *InvitationRegistry) setActive(ctx context.Context, eventID, invitationID, callerID string, active bool) (*domain.EventInvitation, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	inv, err := s.authorInvitation(ctx, eventID, invitationID, callerID)
	if err != nil {
		return nil, err
	}
	if inv.IsActive != active {
		if err := s.invitations.SetActive(ctx, inv.ID, active); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, domain.ErrNotFound
			}
			return nil, fmt.Errorf("set invitation active: %w", err)
		}
		inv.IsActive = active
	}
	inv.Link = s.link(inv.Code)
	return inv, nil
}

func (s *InvitationRegistry) List(ctx context.Context, eventID, callerID string, params domain.PaginationParams) ([]*domain.EventInvitation, int, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	event, err := s.getEvent(ctx, eventID)
	if err != nil {
		return nil, 0, err
	}
	if err := s.authority.RequireAuthor(callerID, event); err != nil {
		return nil, 0, err
	}
	invs, total, err := s.invitations.ListByEventID(ctx, eventID, params)
	if err != nil {
		return nil, 0, fmt.Errorf("list event invitations: %w", err)
	}
	if invs == nil {
		invs = []*domain.EventInvitation{}
	}
	for _, inv := range invs {
		inv.Link = s.link(inv.Code)
	}
	return invs, total, nil
}

// Share e-mails the invitation link to each address. Addresses that are
// malformed or fail to send are returned in failed; duplicates are sent once.
func (s *InvitationRegistry) Share(ctx context.Context, eventID, invitationID, callerID string, emails []string) (sent int, failed []string, err error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	event, err := s.getEvent(ctx, eventID)
	if err != nil {
		return 0, nil, err
	}
	if err := s.authority.RequireAuthor(callerID, event); err != nil {
		return 0, nil, err
	}
	inv, err := s.getInvitation(ctx, eventID, invitationID)
	if err != nil {
		return 0, nil, err
	}
	if !inv.IsValid(s.now()) {
		return 0, nil, domain.ErrInvalidInvitation
	}

	failed = []string{}
	seen := make(map[string]struct{}, len(emails))
	for _, email := range emails {
		email = strings.TrimSpace(strings.ToLower(email))
		if email == "" {
			continue
		}
		if _, ok := seen[email]; ok {
			continue
		}
		seen[email] = struct{}{}
		if !emailRegexp.MatchString(email) {
			failed = append(failed, email)
			continue
		}
		data := &domain.InvitationEmailData{
			Email:      email,
			EventTitle: event.Title,
			StartsAt:   event.StartsAt.UTC().Format("2006-01-02 15:04 MST"),
			Code:       inv.Code,
			Link:       s.link(inv.Code),
		}
		if err := s.emailService.SendEventInvitation(ctx, data); err != nil {
			s.logger.WarnContext(ctx, "invitation email failed", "event_id", eventID, "invitation_id", inv.ID, "err", err)
			failed = append(failed, email)
			continue
		}
		sent++
	}
	return sent, failed, nil
}

func (s *InvitationRegistry) link(code string) string {
	if s.linkBase == "" {
		return ""
	}
	return s.linkBase + code
}

func (s *InvitationRegistry) getEvent(ctx context.Context, eventID string) (*domain.Event, error) {
	event, err := s.events.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	return event, nil
}

// getInvitation loads an invitation and hides ones that belong to another event.
func (s *InvitationRegistry) getInvitation(ctx context.Context, eventID, invitationID string) (*domain.EventInvitation, error) {
	inv, err := s.invitations.GetByID(ctx, invitationID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get invitation: %w", err)
	}
	if inv.EventID != eventID {
		return nil, domain.ErrNotFound
	}
	return inv, nil
}

func (s *InvitationRegistry) authorInvitation(ctx context.Context, eventID, invitationID, callerID string) (*domain.EventInvitation, error) {
	event, err := s.getEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if err := s.authority.RequireAuthor(callerID, event); err != nil {
		return nil, err
	}
	return s.getInvitation(ctx, eventID, invitationID)
}
