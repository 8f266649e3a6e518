package controllers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"fitevents/internal/delivery/http/helpers"
	"fitevents/internal/domain"
)

// JoinByCodeRequest is the request body for POST /event-inv-join/.
type JoinByCodeRequest struct {
	Code string `json:"code"`
}

// Validate implements Validator.
func (j JoinByCodeRequest) Validate() []string {
	if strings.TrimSpace(j.Code) == "" {
		return []string{"code is required"}
	}
	return nil
}

// JoinController serves the two join paths.
type JoinController struct {
	Logger  *slog.Logger
	Service domain.JoinService
	Now     func() time.Time
}

func NewJoinController(logger *slog.Logger, svc domain.JoinService) *JoinController {
	return &JoinController{
		Logger:  logger,
		Service: svc,
		Now:     time.Now,
	}
}

// JoinByCode godoc
// @Summary Join an event with an invitation code
// @Description Redeems an invitation code for the authenticated user. Unknown, inactive, used and expired codes all answer invalid_invitation. One-use codes are consumed on success.
// @Tags participation
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body JoinByCodeRequest true "Invitation code"
// @Success 200 {object} controllers.StatusSuccessResponse "data.status is success"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request, invalid_invitation, no_seats or already_member"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /event-inv-join/ [post]
func (c *JoinController) JoinByCode(w http.ResponseWriter, r *http.Request) {
	var req JoinByCodeRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	if _, err := c.Service.RedeemCode(r.Context(), req.Code, userID, c.Now()); err != nil {
		c.writeJoinError(w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, helpers.StatusResponse{Status: "success"})
}

// JoinPublicEvent godoc
// @Summary Join a public event
// @Description Joins the authenticated user to a public event without a code. Private events answer no_access_code.
// @Tags participation
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID (UUID)"
// @Success 200 {object} controllers.StatusSuccessResponse "data.status is success"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request, no_access_code, no_seats or already_member"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{eventID}/join_to_public_event/ [post]
func (c *JoinController) JoinPublicEvent(w http.ResponseWriter, r *http.Request) {
	eventID, ok := pathID(w, r, "eventID")
	if !ok {
		return
	}
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	if _, err := c.Service.JoinPublicEvent(r.Context(), eventID, userID, c.Now()); err != nil {
		c.writeJoinError(w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, helpers.StatusResponse{Status: "success"})
}

func (c *JoinController) writeJoinError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidInvitation):
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeInvalidInvitation, "invitation is invalid or expired")
	case errors.Is(err, domain.ErrCapacityExceeded):
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeNoSeats, "no seats available")
	case errors.Is(err, domain.ErrAlreadyMember):
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeAlreadyMember, "already a participant of this event")
	case errors.Is(err, domain.ErrPrivateEvent):
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeNoAccessCode, "event is private, an invitation code is required")
	default:
		writeServiceError(c.Logger, w, r, err, "event not found")
	}
}
