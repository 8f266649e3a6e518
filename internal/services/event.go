package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"fitevents/internal/domain"
)

type eventService struct {
	eventRepo      domain.EventRepository
	authority      *RoleAuthority
	contextTimeout time.Duration
	now            func() time.Time
}

func NewEventService(eventRepo domain.EventRepository, authority *RoleAuthority, timeout time.Duration) domain.EventService {
	return &eventService{
		eventRepo:      eventRepo,
		authority:      authority,
		contextTimeout: timeout,
		now:            time.Now,
	}
}

// CreateEvent stores the event and its additional info. The caller sets AuthorID.
func (s *eventService) CreateEvent(ctx context.Context, event *domain.Event) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if event.AuthorID == "" {
		return fmt.Errorf("event author is required: %w", domain.ErrInvalidInput)
	}
	event.Title = strings.TrimSpace(event.Title)
	if event.Title == "" {
		return fmt.Errorf("event title is required: %w", domain.ErrInvalidInput)
	}
	if event.AdditionalInfo.Price == "" {
		event.AdditionalInfo.Price = "0"
	}
	if event.AdditionalInfo.AdvancedLevel == "" {
		event.AdditionalInfo.AdvancedLevel = domain.LevelNone
	}
	if err := event.AdditionalInfo.Validate(); err != nil {
		return err
	}

	now := s.now()
	event.CreatedAt = now
	event.UpdatedAt = now

	if err := s.eventRepo.Create(ctx, event); err != nil {
		return fmt.Errorf("create event: %w", err)
	}
	return nil
}

func (s *eventService) GetEvent(ctx context.Context, eventID string) (*domain.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	return event, nil
}

// UpdateEvent applies upd for the author. The merged additional info must still
// validate; the database check constraints cover a concurrent update racing this
// one. Lowering the places limit below the current participant count is rejected
// by the repository with ErrInvalidInput.
func (s *eventService) UpdateEvent(ctx context.Context, eventID, callerID string, upd domain.EventUpdate) (*domain.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	if err := s.authority.RequireAuthor(callerID, event); err != nil {
		return nil, err
	}
	if upd.Title != nil && strings.TrimSpace(*upd.Title) == "" {
		return nil, fmt.Errorf("event title is required: %w", domain.ErrInvalidInput)
	}
	if err := upd.ApplyInfo(event.AdditionalInfo).Validate(); err != nil {
		return nil, err
	}
	updated, err := s.eventRepo.Update(ctx, eventID, upd)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		if errors.Is(err, domain.ErrInvalidInput) {
			return nil, err
		}
		return nil, fmt.Errorf("update event: %w", err)
	}
	return updated, nil
}
