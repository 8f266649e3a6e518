package controllers

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"fitevents/internal/delivery/http/helpers"
	"fitevents/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleInvitation(active bool) *domain.EventInvitation {
	return &domain.EventInvitation{
		ID:        testInvitationID,
		EventID:   testEventID,
		Code:      "ABCD1234",
		CreatedBy: testUserID,
		IsActive:  active,
		IsOneUse:  true,
		CreatedAt: testNow,
		Link:      "https://fit.example/join/ABCD1234",
	}
}

func TestInvitationController_CreateInvitation(t *testing.T) {
	tests := []struct {
		name       string
		eventID    string
		body       string
		noUser     bool
		svcErr     error
		wantStatus int
		wantCode   string
		wantOneUse bool
		wantActive bool
	}{
		{
			name:       "defaults to active",
			eventID:    testEventID,
			body:       `{"is_one_use":true}`,
			wantStatus: http.StatusCreated,
			wantOneUse: true,
			wantActive: true,
		},
		{
			name:       "explicitly inactive",
			eventID:    testEventID,
			body:       `{"is_one_use":false,"is_active":false}`,
			wantStatus: http.StatusCreated,
		},
		{name: "malformed eventID", eventID: "nope", body: `{}`, wantStatus: http.StatusBadRequest, wantCode: helpers.ErrCodeBadRequest},
		{name: "malformed body", eventID: testEventID, body: `{"is_one_use":"yes"}`, wantStatus: http.StatusBadRequest, wantCode: helpers.ErrCodeBadRequest},
		{name: "no user", eventID: testEventID, body: `{}`, noUser: true, wantStatus: http.StatusUnauthorized, wantCode: helpers.ErrCodeUnauthorized},
		{name: "not author", eventID: testEventID, body: `{}`, svcErr: domain.ErrForbidden, wantStatus: http.StatusForbidden, wantCode: helpers.ErrCodeForbidden},
		{name: "event not found", eventID: testEventID, body: `{}`, svcErr: domain.ErrNotFound, wantStatus: http.StatusNotFound, wantCode: helpers.ErrCodeNotFound},
		{name: "store failure", eventID: testEventID, body: `{}`, svcErr: errors.New("db down"), wantStatus: http.StatusInternalServerError, wantCode: helpers.ErrCodeInternalError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &fakeInvitationService{err: tt.svcErr, invitation: sampleInvitation(tt.wantActive)}
			c := NewInvitationController(testLogger, svc)
			req := testRequest{
				method: http.MethodPost,
				target: "/events/x/invitations/",
				body:   tt.body,
				path:   map[string]string{"eventID": tt.eventID},
				noUser: tt.noUser,
			}.build()
			rr := httptest.NewRecorder()

			c.CreateInvitation(rr, req)

			require.Equal(t, tt.wantStatus, rr.Code)
			if tt.wantCode != "" {
				apiErr := decodeEnvelope(t, rr, nil)
				require.NotNil(t, apiErr)
				assert.Equal(t, tt.wantCode, apiErr.Code)
				return
			}
			var got domain.EventInvitation
			decodeEnvelope(t, rr, &got)
			assert.Equal(t, "ABCD1234", got.Code)
			assert.Equal(t, "https://fit.example/join/ABCD1234", got.Link)
			assert.Equal(t, testEventID, svc.lastEventID)
			assert.Equal(t, testUserID, svc.lastCallerID)
			assert.Equal(t, tt.wantOneUse, svc.lastOneUse)
			assert.Equal(t, tt.wantActive, svc.lastActive)
		})
	}
}

func TestInvitationController_ListInvitations(t *testing.T) {
	t.Run("paginated", func(t *testing.T) {
		svc := &fakeInvitationService{
			list:  []*domain.EventInvitation{sampleInvitation(true), sampleInvitation(false)},
			total: 5,
		}
		c := NewInvitationController(testLogger, svc)
		req := testRequest{
			method: http.MethodGet,
			target: "/events/x/invitations/?page=2&page_size=2",
			path:   map[string]string{"eventID": testEventID},
		}.build()
		rr := httptest.NewRecorder()

		c.ListInvitations(rr, req)

		require.Equal(t, http.StatusOK, rr.Code)
		var got ListInvitationsResponse
		decodeEnvelope(t, rr, &got)
		assert.Len(t, got.Items, 2)
		assert.Equal(t, helpers.PaginationMeta{Page: 2, PageSize: 2, Total: 5, TotalPages: 3}, got.Pagination)
		assert.Equal(t, domain.PaginationParams{Page: 2, PageSize: 2}, svc.lastParams)
	})

	t.Run("empty list is an empty array", func(t *testing.T) {
		c := NewInvitationController(testLogger, &fakeInvitationService{})
		req := testRequest{method: http.MethodGet, target: "/events/x/invitations/", path: map[string]string{"eventID": testEventID}}.build()
		rr := httptest.NewRecorder()

		c.ListInvitations(rr, req)

		require.Equal(t, http.StatusOK, rr.Code)
		assert.Contains(t, rr.Body.String(), `"items":[]`)
	})

	t.Run("not author", func(t *testing.T) {
		c := NewInvitationController(testLogger, &fakeInvitationService{err: domain.ErrForbidden})
		req := testRequest{method: http.MethodGet, target: "/events/x/invitations/", path: map[string]string{"eventID": testEventID}}.build()
		rr := httptest.NewRecorder()

		c.ListInvitations(rr, req)

		require.Equal(t, http.StatusForbidden, rr.Code)
	})
}

func TestInvitationController_SetActive(t *testing.T) {
	tests := []struct {
		name         string
		activate     bool
		invitationID string
		svcErr       error
		wantStatus   int
		wantToggle   string
	}{
		{name: "activate", activate: true, invitationID: testInvitationID, wantStatus: http.StatusOK, wantToggle: "activate"},
		{name: "deactivate", invitationID: testInvitationID, wantStatus: http.StatusOK, wantToggle: "deactivate"},
		{name: "malformed invitationID", invitationID: "inv-1", wantStatus: http.StatusBadRequest},
		{name: "not found", invitationID: testInvitationID, svcErr: domain.ErrNotFound, wantStatus: http.StatusNotFound, wantToggle: "deactivate"},
		{name: "forbidden", activate: true, invitationID: testInvitationID, svcErr: domain.ErrForbidden, wantStatus: http.StatusForbidden, wantToggle: "activate"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &fakeInvitationService{err: tt.svcErr, invitation: sampleInvitation(tt.activate)}
			c := NewInvitationController(testLogger, svc)
			req := testRequest{
				method: http.MethodPost,
				target: "/events/x/invitations/y/",
				path:   map[string]string{"eventID": testEventID, "invitationID": tt.invitationID},
			}.build()
			rr := httptest.NewRecorder()

			if tt.activate {
				c.ActivateInvitation(rr, req)
			} else {
				c.DeactivateInvitation(rr, req)
			}

			require.Equal(t, tt.wantStatus, rr.Code)
			assert.Equal(t, tt.wantToggle, svc.lastToggle)
			if tt.wantStatus == http.StatusOK {
				var got domain.EventInvitation
				decodeEnvelope(t, rr, &got)
				assert.Equal(t, tt.activate, got.IsActive)
				assert.Equal(t, testInvitationID, svc.lastInvitationID)
			}
		})
	}
}

func TestInvitationController_ShareInvitation(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		svc        *fakeInvitationService
		wantStatus int
		wantCode   string
		wantSent   int
		wantFailed []string
	}{
		{
			name:       "success",
			body:       `{"emails":["ann@example.com","bad"]}`,
			svc:        &fakeInvitationService{sent: 1, failed: []string{"bad"}},
			wantStatus: http.StatusOK,
			wantSent:   1,
			wantFailed: []string{"bad"},
		},
		{
			name:       "nothing failed is an empty array",
			body:       `{"emails":["ann@example.com"]}`,
			svc:        &fakeInvitationService{sent: 1},
			wantStatus: http.StatusOK,
			wantSent:   1,
			wantFailed: []string{},
		},
		{
			name:       "no emails",
			body:       `{"emails":[]}`,
			svc:        &fakeInvitationService{},
			wantStatus: http.StatusBadRequest,
			wantCode:   helpers.ErrCodeBadRequest,
		},
		{
			name:       "invalid invitation",
			body:       `{"emails":["ann@example.com"]}`,
			svc:        &fakeInvitationService{err: domain.ErrInvalidInvitation},
			wantStatus: http.StatusBadRequest,
			wantCode:   helpers.ErrCodeInvalidInvitation,
		},
		{
			name:       "not author",
			body:       `{"emails":["ann@example.com"]}`,
			svc:        &fakeInvitationService{err: domain.ErrForbidden},
			wantStatus: http.StatusForbidden,
			wantCode:   helpers.ErrCodeForbidden,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewInvitationController(testLogger, tt.svc)
			req := testRequest{
				method: http.MethodPost,
				target: "/events/x/invitations/y/share/",
				body:   tt.body,
				path:   map[string]string{"eventID": testEventID, "invitationID": testInvitationID},
			}.build()
			rr := httptest.NewRecorder()

			c.ShareInvitation(rr, req)

			require.Equal(t, tt.wantStatus, rr.Code)
			if tt.wantCode != "" {
				apiErr := decodeEnvelope(t, rr, nil)
				require.NotNil(t, apiErr)
				assert.Equal(t, tt.wantCode, apiErr.Code)
				return
			}
			var got ShareInvitationResponse
			decodeEnvelope(t, rr, &got)
			assert.Equal(t, tt.wantSent, got.Sent)
			assert.Equal(t, tt.wantFailed, got.Failed)
			assert.Equal(t, []string{"ann@example.com"}, tt.svc.lastEmails[:1])
		})
	}
}

func TestShareInvitationRequest_Validate(t *testing.T) {
	emails := make([]string, maxShareEmails+1)
	for i := range emails {
		emails[i] = "a@example.com"
	}
	assert.NotEmpty(t, ShareInvitationRequest{Emails: emails}.Validate())
	assert.Empty(t, ShareInvitationRequest{Emails: emails[:maxShareEmails]}.Validate())
}
