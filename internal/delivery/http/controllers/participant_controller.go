package controllers

import (
	"log/slog"
	"net/http"

	"fitevents/internal/delivery/http/helpers"
	"fitevents/internal/domain"
)

// ChangeRoleRequest is the request body for the change_role action. Role is one of participant, admin, trainer.
type ChangeRoleRequest struct {
	Role domain.ParticipantRole `json:"role" swaggertype:"string" enums:"participant,admin,trainer"`
}

// Validate implements Validator.
func (c ChangeRoleRequest) Validate() []string {
	if !c.Role.Valid() {
		return []string{"role is required"}
	}
	return nil
}

// ListParticipantsSuccessResponse is the success response envelope for GET /events/{eventID}/participants/ (200).
type ListParticipantsSuccessResponse struct {
	Data  []*domain.EventParticipant `json:"data"`
	Error *helpers.APIError          `json:"error"`
}

// ParticipantController exposes participant management to privileged members of an event.
type ParticipantController struct {
	Logger  *slog.Logger
	Service domain.ParticipantService
}

func NewParticipantController(logger *slog.Logger, svc domain.ParticipantService) *ParticipantController {
	return &ParticipantController{
		Logger:  logger,
		Service: svc,
	}
}

// ListParticipants godoc
// @Summary List participants of an event
// @Description Returns the event's participants. Allowed for the author, admins and trainers, and for participants when the event shows its participant list.
// @Tags participants
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID (UUID)"
// @Success 200 {object} controllers.ListParticipantsSuccessResponse "data contains the participants"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{eventID}/participants/ [get]
func (c *ParticipantController) ListParticipants(w http.ResponseWriter, r *http.Request) {
	eventID, ok := pathID(w, r, "eventID")
	if !ok {
		return
	}
	callerID, ok := currentUser(w, r)
	if !ok {
		return
	}
	list, err := c.Service.ListParticipants(r.Context(), eventID, callerID)
	if err != nil {
		writeServiceError(c.Logger, w, r, err, "event not found")
		return
	}
	if list == nil {
		list = []*domain.EventParticipant{}
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, list)
}

// ChangeRole godoc
// @Summary Change a participant's role
// @Description Sets the participant's role. Setting the current role again is reported as already has this role. Requires author, admin or trainer.
// @Tags participants
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID (UUID)"
// @Param participantID path string true "Participant ID (UUID)"
// @Param body body ChangeRoleRequest true "New role"
// @Success 200 {object} controllers.StatusSuccessResponse "data.status is role changed or already has this role"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{eventID}/participants/{participantID}/change_role/ [post]
func (c *ParticipantController) ChangeRole(w http.ResponseWriter, r *http.Request) {
	eventID, ok := pathID(w, r, "eventID")
	if !ok {
		return
	}
	participantID, ok := pathID(w, r, "participantID")
	if !ok {
		return
	}
	var req ChangeRoleRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	callerID, ok := currentUser(w, r)
	if !ok {
		return
	}
	changed, err := c.Service.ChangeRole(r.Context(), eventID, participantID, callerID, req.Role)
	if err != nil {
		writeServiceError(c.Logger, w, r, err, "participant not found")
		return
	}
	status := "role changed"
	if !changed {
		status = "already has this role"
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, helpers.StatusResponse{Status: status})
}

// RemoveParticipant godoc
// @Summary Remove a participant from an event
// @Description Deletes the participant record, freeing a seat. Requires author, admin or trainer.
// @Tags participants
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID (UUID)"
// @Param participantID path string true "Participant ID (UUID)"
// @Success 200 {object} controllers.StatusSuccessResponse "data.status is removed"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{eventID}/participants/{participantID}/ [delete]
func (c *ParticipantController) RemoveParticipant(w http.ResponseWriter, r *http.Request) {
	eventID, ok := pathID(w, r, "eventID")
	if !ok {
		return
	}
	participantID, ok := pathID(w, r, "participantID")
	if !ok {
		return
	}
	callerID, ok := currentUser(w, r)
	if !ok {
		return
	}
	if err := c.Service.Evict(r.Context(), eventID, participantID, callerID); err != nil {
		writeServiceError(c.Logger, w, r, err, "participant not found")
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, helpers.StatusResponse{Status: "removed"})
}
