package controllers

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"fitevents/internal/delivery/http/helpers"
	"fitevents/internal/domain"
)

// AdditionalInfoRequest carries the participation settings of a new event.
type AdditionalInfoRequest struct {
	PlacesLimit         *int   `json:"places_for_people_limit"`
	PublicEvent         bool   `json:"public_event"`
	ParticipantListShow bool   `json:"participant_list_show"`
	AdvancedLevel       string `json:"advanced_level"`
	AgeLimit            string `json:"age_limit"`
	Free                bool   `json:"free"`
	Price               string `json:"price"`
	PaymentInApp        bool   `json:"payment_in_app"`
}

// CreateEventRequest is the request body for POST /events/. The caller becomes the author.
type CreateEventRequest struct {
	Title          string                `json:"title"`
	ShortDesc      string                `json:"short_desc"`
	LongDesc       *string               `json:"long_desc"`
	StartsAt       time.Time             `json:"date_time_event"`
	DurationMin    int                   `json:"duration_min"`
	Latitude       float64               `json:"latitude"`
	Longitude      float64               `json:"longitude"`
	Country        string                `json:"country"`
	City           string                `json:"city"`
	Street         string                `json:"street"`
	StreetNumber   string                `json:"street_number"`
	FlatNumber     string                `json:"flat_number"`
	ZipCode        string                `json:"zip_code"`
	AdditionalInfo AdditionalInfoRequest `json:"additional_info"`
}

// Validate implements Validator.
func (c CreateEventRequest) Validate() []string {
	var errs []string
	if strings.TrimSpace(c.Title) == "" {
		errs = append(errs, "title is required")
	}
	if c.StartsAt.IsZero() {
		errs = append(errs, "date_time_event is required")
	}
	if c.DurationMin < 0 {
		errs = append(errs, "duration_min must not be negative")
	}
	if c.Latitude < -90 || c.Latitude > 90 {
		errs = append(errs, "latitude must be between -90 and 90")
	}
	if c.Longitude < -180 || c.Longitude > 180 {
		errs = append(errs, "longitude must be between -180 and 180")
	}
	if c.AdditionalInfo.PlacesLimit != nil && *c.AdditionalInfo.PlacesLimit < 1 {
		errs = append(errs, "places_for_people_limit must be at least 1")
	}
	return errs
}

func (c CreateEventRequest) toEvent(authorID string) *domain.Event {
	return &domain.Event{
		AuthorID:     authorID,
		Title:        c.Title,
		ShortDesc:    c.ShortDesc,
		LongDesc:     c.LongDesc,
		StartsAt:     c.StartsAt,
		DurationMin:  c.DurationMin,
		Latitude:     c.Latitude,
		Longitude:    c.Longitude,
		Country:      c.Country,
		City:         c.City,
		Street:       c.Street,
		StreetNumber: c.StreetNumber,
		FlatNumber:   c.FlatNumber,
		ZipCode:      c.ZipCode,
		AdditionalInfo: domain.EventAdditionalInfo{
			PlacesLimit:         c.AdditionalInfo.PlacesLimit,
			PublicEvent:         c.AdditionalInfo.PublicEvent,
			ParticipantListShow: c.AdditionalInfo.ParticipantListShow,
			AdvancedLevel:       c.AdditionalInfo.AdvancedLevel,
			AgeLimit:            c.AdditionalInfo.AgeLimit,
			Free:                c.AdditionalInfo.Free,
			Price:               c.AdditionalInfo.Price,
			PaymentInApp:        c.AdditionalInfo.PaymentInApp,
		},
	}
}

// EventSuccessResponse is the success envelope for endpoints returning a single event.
type EventSuccessResponse struct {
	Data  *domain.Event     `json:"data"`
	Error *helpers.APIError `json:"error"`
}

// UpdateEventRequest is the request body for PATCH /events/{eventID}/. All fields optional; omitted fields are unchanged.
type UpdateEventRequest struct {
	Title               *string    `json:"title"`
	ShortDesc           *string    `json:"short_desc"`
	LongDesc            *string    `json:"long_desc"`
	StartsAt            *time.Time `json:"date_time_event"`
	DurationMin         *int       `json:"duration_min"`
	PlacesLimit         *int       `json:"places_for_people_limit"`
	PublicEvent         *bool      `json:"public_event"`
	ParticipantListShow *bool      `json:"participant_list_show"`
	AdvancedLevel       *string    `json:"advanced_level"`
	AgeLimit            *string    `json:"age_limit"`
	Free                *bool      `json:"free"`
	Price               *string    `json:"price"`
	PaymentInApp        *bool      `json:"payment_in_app"`
}

// Validate implements Validator.
func (u UpdateEventRequest) Validate() []string {
	var errs []string
	if u.Title != nil && strings.TrimSpace(*u.Title) == "" {
		errs = append(errs, "title cannot be empty")
	}
	if u.DurationMin != nil && *u.DurationMin < 0 {
		errs = append(errs, "duration_min must not be negative")
	}
	if u.PlacesLimit != nil && *u.PlacesLimit < 1 {
		errs = append(errs, "places_for_people_limit must be at least 1")
	}
	return errs
}

// EventController serves event creation, lookup and update.
type EventController struct {
	Logger  *slog.Logger
	Service domain.EventService
}

func NewEventController(logger *slog.Logger, svc domain.EventService) *EventController {
	return &EventController{
		Logger:  logger,
		Service: svc,
	}
}

// CreateEvent godoc
// @Summary Create an event
// @Description Creates an event and its participation settings. The authenticated user becomes the author. An omitted places_for_people_limit means unbounded.
// @Tags events
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param event body CreateEventRequest true "Event data"
// @Success 201 {object} controllers.EventSuccessResponse "data contains the created event"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/ [post]
func (c *EventController) CreateEvent(w http.ResponseWriter, r *http.Request) {
	var req CreateEventRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	event := req.toEvent(userID)
	if err := c.Service.CreateEvent(r.Context(), event); err != nil {
		writeServiceError(c.Logger, w, r, err, "event not found")
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusCreated, event)
}

// GetEvent godoc
// @Summary Get an event by ID
// @Description Returns the event with its participation settings. Requires authentication.
// @Tags events
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID (UUID)"
// @Success 200 {object} controllers.EventSuccessResponse "data contains the event"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{eventID}/ [get]
func (c *EventController) GetEvent(w http.ResponseWriter, r *http.Request) {
	eventID, ok := pathID(w, r, "eventID")
	if !ok {
		return
	}
	if _, ok := currentUser(w, r); !ok {
		return
	}
	event, err := c.Service.GetEvent(r.Context(), eventID)
	if err != nil {
		writeServiceError(c.Logger, w, r, err, "event not found")
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, event)
}

// UpdateEvent godoc
// @Summary Update an event
// @Description Updates event details and participation settings. Only the author can update. Lowering places_for_people_limit below the current participant count is rejected.
// @Tags events
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID (UUID)"
// @Param body body UpdateEventRequest true "Fields to update (all optional)"
// @Success 200 {object} controllers.EventSuccessResponse "data contains the updated event"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden (not author)"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{eventID}/ [patch]
func (c *EventController) UpdateEvent(w http.ResponseWriter, r *http.Request) {
	eventID, ok := pathID(w, r, "eventID")
	if !ok {
		return
	}
	var req UpdateEventRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	callerID, ok := currentUser(w, r)
	if !ok {
		return
	}
	event, err := c.Service.UpdateEvent(r.Context(), eventID, callerID, domain.EventUpdate{
		Title:               req.Title,
		ShortDesc:           req.ShortDesc,
		LongDesc:            req.LongDesc,
		StartsAt:            req.StartsAt,
		DurationMin:         req.DurationMin,
		PlacesLimit:         req.PlacesLimit,
		PublicEvent:         req.PublicEvent,
		ParticipantListShow: req.ParticipantListShow,
		AdvancedLevel:       req.AdvancedLevel,
		AgeLimit:            req.AgeLimit,
		Free:                req.Free,
		Price:               req.Price,
		PaymentInApp:        req.PaymentInApp,
	})
	if err != nil {
		writeServiceError(c.Logger, w, r, err, "event not found")
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, event)
}
