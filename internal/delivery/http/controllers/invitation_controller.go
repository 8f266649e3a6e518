package controllers

import (
	"errors"
	"log/slog"
	"net/http"

	"fitevents/internal/delivery/http/helpers"
	"fitevents/internal/domain"
)

const maxShareEmails = 100

// CreateInvitationRequest is the request body for POST /events/{eventID}/invitations/.
// IsActive defaults to true when omitted.
type CreateInvitationRequest struct {
	IsOneUse bool  `json:"is_one_use"`
	IsActive *bool `json:"is_active"`
}

// InvitationSuccessResponse is the success envelope for endpoints returning a single invitation.
type InvitationSuccessResponse struct {
	Data  *domain.EventInvitation `json:"data"`
	Error *helpers.APIError       `json:"error"`
}

// ListInvitationsResponse is the data payload for GET /events/{eventID}/invitations/ (200).
type ListInvitationsResponse struct {
	Items      []*domain.EventInvitation `json:"items"`
	Pagination helpers.PaginationMeta    `json:"pagination"`
}

// ListInvitationsSuccessResponse is the success response envelope for GET /events/{eventID}/invitations/ (200).
type ListInvitationsSuccessResponse struct {
	Data  ListInvitationsResponse `json:"data"`
	Error *helpers.APIError       `json:"error"`
}

// ShareInvitationRequest is the request body for POST /events/{eventID}/invitations/{invitationID}/share/.
type ShareInvitationRequest struct {
	Emails []string `json:"emails"`
}

// Validate implements Validator.
func (s ShareInvitationRequest) Validate() []string {
	if len(s.Emails) == 0 {
		return []string{"emails is required"}
	}
	if len(s.Emails) > maxShareEmails {
		return []string{"at most 100 emails per request"}
	}
	return nil
}

// ShareInvitationResponse is the data payload of the share action.
type ShareInvitationResponse struct {
	Sent   int      `json:"sent"`
	Failed []string `json:"failed"`
}

// ShareInvitationSuccessResponse is the success response envelope of the share action.
type ShareInvitationSuccessResponse struct {
	Data  ShareInvitationResponse `json:"data"`
	Error *helpers.APIError       `json:"error"`
}

// InvitationController exposes invitation management to event authors.
type InvitationController struct {
	Logger  *slog.Logger
	Service domain.InvitationService
}

func NewInvitationController(logger *slog.Logger, svc domain.InvitationService) *InvitationController {
	return &InvitationController{
		Logger:  logger,
		Service: svc,
	}
}

// CreateInvitation godoc
// @Summary Create an invitation code
// @Description Creates an invitation code for the event. Only the event author can create codes. The response carries the code and its shareable link.
// @Tags invitations
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID (UUID)"
// @Param body body CreateInvitationRequest true "Invitation flags"
// @Success 201 {object} controllers.InvitationSuccessResponse "data contains the created invitation"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden (not author)"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{eventID}/invitations/ [post]
func (c *InvitationController) CreateInvitation(w http.ResponseWriter, r *http.Request) {
	eventID, ok := pathID(w, r, "eventID")
	if !ok {
		return
	}
	var req CreateInvitationRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	callerID, ok := currentUser(w, r)
	if !ok {
		return
	}
	isActive := true
	if req.IsActive != nil {
		isActive = *req.IsActive
	}
	inv, err := c.Service.Create(r.Context(), eventID, callerID, req.IsOneUse, isActive)
	if err != nil {
		writeServiceError(c.Logger, w, r, err, "event not found")
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusCreated, inv)
}

// ListInvitations godoc
// @Summary List invitation codes of an event
// @Description Returns a paginated list of the event's invitation codes, newest first. Only the event author can list.
// @Tags invitations
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID (UUID)"
// @Param page query int false "Page number (default 1)"
// @Param page_size query int false "Page size (default 20, max 100)"
// @Success 200 {object} controllers.ListInvitationsSuccessResponse "data contains items and pagination"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden (not author)"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{eventID}/invitations/ [get]
func (c *InvitationController) ListInvitations(w http.ResponseWriter, r *http.Request) {
	eventID, ok := pathID(w, r, "eventID")
	if !ok {
		return
	}
	callerID, ok := currentUser(w, r)
	if !ok {
		return
	}
	params := helpers.ParsePagination(r)
	list, total, err := c.Service.List(r.Context(), eventID, callerID, params)
	if err != nil {
		writeServiceError(c.Logger, w, r, err, "event not found")
		return
	}
	if list == nil {
		list = []*domain.EventInvitation{}
	}
	meta := helpers.NewPaginationMeta(params.Page, params.PageSize, total)
	helpers.WriteJSONSuccess(w, http.StatusOK, ListInvitationsResponse{Items: list, Pagination: meta})
}

// ActivateInvitation godoc
// @Summary Activate an invitation code
// @Description Marks the invitation active. Activating an active code is a no-op. Only the event author can activate.
// @Tags invitations
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID (UUID)"
// @Param invitationID path string true "Invitation ID (UUID)"
// @Success 200 {object} controllers.InvitationSuccessResponse "data contains the invitation"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden (not author)"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{eventID}/invitations/{invitationID}/activate/ [post]
func (c *InvitationController) ActivateInvitation(w http.ResponseWriter, r *http.Request) {
	c.setActive(w, r, true)
}

// DeactivateInvitation godoc
// @Summary Deactivate an invitation code
// @Description Marks the invitation inactive; later redemptions fail with invalid_invitation. Only the event author can deactivate.
// @Tags invitations
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID (UUID)"
// @Param invitationID path string true "Invitation ID (UUID)"
// @Success 200 {object} controllers.InvitationSuccessResponse "data contains the invitation"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden (not author)"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{eventID}/invitations/{invitationID}/deactivate/ [post]
func (c *InvitationController) DeactivateInvitation(w http.ResponseWriter, r *http.Request) {
	c.setActive(w, r, false)
}

func (c *InvitationController) setActive(w http.ResponseWriter, r *http.Request, active bool) {
	eventID, ok := pathID(w, r, "eventID")
	if !ok {
		return
	}
	invitationID, ok := pathID(w, r, "invitationID")
	if !ok {
		return
	}
	callerID, ok := currentUser(w, r)
	if !ok {
		return
	}
	toggle := c.Service.Deactivate
	if active {
		toggle = c.Service.Activate
	}
	inv, err := toggle(r.Context(), eventID, invitationID, callerID)
	if err != nil {
		writeServiceError(c.Logger, w, r, err, "invitation not found")
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, inv)
}

// ShareInvitation godoc
// @Summary Share an invitation code by email
// @Description Emails the code and its link to each address. Addresses that are malformed or could not be sent are returned in failed. Only the event author can share; inactive or used codes answer invalid_invitation.
// @Tags invitations
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID (UUID)"
// @Param invitationID path string true "Invitation ID (UUID)"
// @Param body body ShareInvitationRequest true "Recipient emails"
// @Success 200 {object} controllers.ShareInvitationSuccessResponse "data contains sent count and failed emails"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request or invalid_invitation"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden (not author)"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{eventID}/invitations/{invitationID}/share/ [post]
func (c *InvitationController) ShareInvitation(w http.ResponseWriter, r *http.Request) {
	eventID, ok := pathID(w, r, "eventID")
	if !ok {
		return
	}
	invitationID, ok := pathID(w, r, "invitationID")
	if !ok {
		return
	}
	var req ShareInvitationRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	callerID, ok := currentUser(w, r)
	if !ok {
		return
	}
	sent, failed, err := c.Service.Share(r.Context(), eventID, invitationID, callerID, req.Emails)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidInvitation) {
			helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeInvalidInvitation, "invitation is invalid or expired")
			return
		}
		writeServiceError(c.Logger, w, r, err, "invitation not found")
		return
	}
	if failed == nil {
		failed = []string{}
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, ShareInvitationResponse{Sent: sent, Failed: failed})
}
