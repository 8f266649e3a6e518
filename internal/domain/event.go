package domain

import (
	"context"
	"fmt"
	"strconv"
	"time"
)

// Advanced levels accepted for EventAdditionalInfo.AdvancedLevel.
const (
	LevelNone         = "none"
	LevelBeginner     = "begginer"
	LevelSemiAdvanced = "semi-advanced"
	LevelAdvanced     = "advanced"
	LevelAll          = "all"
)

// Age groups accepted for EventAdditionalInfo.AgeLimit. Empty means no limit.
const (
	AgeUnder12 = "<12"
	Age12To16  = "12 - 16"
	AgeNoLimit = ""
)

var advancedLevels = map[string]bool{
	LevelNone: true, LevelBeginner: true, LevelSemiAdvanced: true, LevelAdvanced: true, LevelAll: true,
}

var ageGroups = map[string]bool{
	AgeNoLimit: true, AgeUnder12: true, Age12To16: true,
}

// Event represents a scheduled activity owned by its author.
// swagger:model Event
type Event struct {
	ID           string    `json:"id"`
	AuthorID     string    `json:"author_id"`
	Title        string    `json:"title"`
	ShortDesc    string    `json:"short_desc"`
	LongDesc     *string   `json:"long_desc"`
	StartsAt     time.Time `json:"date_time_event"`
	DurationMin  int       `json:"duration_min"`
	Latitude     float64   `json:"latitude"`
	Longitude    float64   `json:"longitude"`
	Country      string    `json:"country"`
	City         string    `json:"city"`
	Street       string    `json:"street"`
	StreetNumber string    `json:"street_number"`
	FlatNumber   string    `json:"flat_number"`
	ZipCode      string    `json:"zip_code"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`

	AdditionalInfo EventAdditionalInfo `json:"additional_info"`
}

// EventAdditionalInfo holds the participation settings of an event. Its row is
// the lock target that serializes joins for the event.
// swagger:model EventAdditionalInfo
type EventAdditionalInfo struct {
	// PlacesLimit is the maximum number of participants; nil means unbounded.
	PlacesLimit         *int   `json:"places_for_people_limit"`
	PublicEvent         bool   `json:"public_event"`
	ParticipantListShow bool   `json:"participant_list_show"`
	AdvancedLevel       string `json:"advanced_level"`
	AgeLimit            string `json:"age_limit"`
	Free                bool   `json:"free"`
	Price               string `json:"price"`
	PaymentInApp        bool   `json:"payment_in_app"`
}

// Validate checks the closed choice sets and that a free event carries no price.
func (a EventAdditionalInfo) Validate() error {
	if a.PlacesLimit != nil && *a.PlacesLimit < 1 {
		return fmt.Errorf("places limit must be at least 1: %w", ErrInvalidInput)
	}
	if !advancedLevels[a.AdvancedLevel] {
		return fmt.Errorf("unknown advanced level %q: %w", a.AdvancedLevel, ErrInvalidInput)
	}
	if !ageGroups[a.AgeLimit] {
		return fmt.Errorf("unknown age limit %q: %w", a.AgeLimit, ErrInvalidInput)
	}
	price, err := strconv.ParseFloat(a.Price, 64)
	if err != nil {
		return fmt.Errorf("price %q is not a number: %w", a.Price, ErrInvalidInput)
	}
	if price < 0 {
		return fmt.Errorf("price must not be negative: %w", ErrInvalidInput)
	}
	if a.Free && price != 0 {
		return fmt.Errorf("free event cannot have a price: %w", ErrInvalidInput)
	}
	return nil
}

// IsAuthor reports whether userID owns the event.
func (e *Event) IsAuthor(userID string) bool {
	return userID != "" && e.AuthorID == userID
}

// EventUpdate carries the optional fields of an event update; nil fields are left unchanged.
type EventUpdate struct {
	Title               *string
	ShortDesc           *string
	LongDesc            *string
	StartsAt            *time.Time
	DurationMin         *int
	PlacesLimit         *int
	PublicEvent         *bool
	ParticipantListShow *bool
	AdvancedLevel       *string
	AgeLimit            *string
	Free                *bool
	Price               *string
	PaymentInApp        *bool
}

// ApplyInfo returns info with the additional info fields of u applied.
func (u EventUpdate) ApplyInfo(info EventAdditionalInfo) EventAdditionalInfo {
	if u.PlacesLimit != nil {
		info.PlacesLimit = u.PlacesLimit
	}
	if u.PublicEvent != nil {
		info.PublicEvent = *u.PublicEvent
	}
	if u.ParticipantListShow != nil {
		info.ParticipantListShow = *u.ParticipantListShow
	}
	if u.AdvancedLevel != nil {
		info.AdvancedLevel = *u.AdvancedLevel
	}
	if u.AgeLimit != nil {
		info.AgeLimit = *u.AgeLimit
	}
	if u.Free != nil {
		info.Free = *u.Free
	}
	if u.Price != nil {
		info.Price = *u.Price
	}
	if u.PaymentInApp != nil {
		info.PaymentInApp = *u.PaymentInApp
	}
	return info
}

// EventRepository defines the interface for event storage.
type EventRepository interface {
	// Create inserts the event and its additional info in one transaction.
	Create(ctx context.Context, event *Event) error
	GetByID(ctx context.Context, id string) (*Event, error)
	Update(ctx context.Context, eventID string, upd EventUpdate) (*Event, error)
}

// EventService defines event management operations.
type EventService interface {
	CreateEvent(ctx context.Context, event *Event) error
	GetEvent(ctx context.Context, eventID string) (*Event, error)
	UpdateEvent(ctx context.Context, eventID, callerID string, upd EventUpdate) (*Event, error)
}
