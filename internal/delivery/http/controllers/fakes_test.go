package controllers

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"fitevents/internal/delivery/http/helpers"
	"fitevents/internal/delivery/http/middleware"
	"fitevents/internal/domain"

	"github.com/stretchr/testify/require"
)

// testLogger is a no-op logger for controller tests so we don't assert on log output.
var testLogger = slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))

const (
	testUserID       = "user-123"
	testEventID      = "6f1c2a44-8d1e-4c59-9a51-2b7e0d3c4f10"
	testInvitationID = "0b8a7e62-31f4-4f1d-8c6e-9d2a5b7c1e33"
	testParticipant  = "c4d5e6f7-1a2b-4c3d-8e9f-0a1b2c3d4e5f"
)

var testNow = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

type testRequest struct {
	method string
	target string
	body   string
	path   map[string]string
	noUser bool
}

func (tr testRequest) build() *http.Request {
	var body io.Reader
	if tr.body != "" {
		body = strings.NewReader(tr.body)
	}
	req := httptest.NewRequest(tr.method, "http://test"+tr.target, body)
	if tr.body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range tr.path {
		req.SetPathValue(k, v)
	}
	if !tr.noUser {
		req = req.WithContext(middleware.SetUserID(req.Context(), testUserID))
	}
	return req
}

// decodeEnvelope decodes the response envelope, decoding data into dest when dest is non-nil.
func decodeEnvelope(t *testing.T, rr *httptest.ResponseRecorder, dest any) *helpers.APIError {
	t.Helper()
	var raw struct {
		Data  json.RawMessage   `json:"data"`
		Error *helpers.APIError `json:"error"`
	}
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&raw))
	if dest != nil {
		require.NoError(t, json.Unmarshal(raw.Data, dest))
	}
	return raw.Error
}

// fakeJoinService implements domain.JoinService for handler tests.
type fakeJoinService struct {
	err         error
	lastCode    string
	lastEventID string
	lastUserID  string
	lastNow     time.Time
}

func (f *fakeJoinService) RedeemCode(_ context.Context, code, userID string, now time.Time) (*domain.EventParticipant, error) {
	f.lastCode, f.lastUserID, f.lastNow = code, userID, now
	if f.err != nil {
		return nil, f.err
	}
	return &domain.EventParticipant{ID: "p-1", UserID: userID, Role: domain.RoleParticipant}, nil
}

func (f *fakeJoinService) JoinPublicEvent(_ context.Context, eventID, userID string, now time.Time) (*domain.EventParticipant, error) {
	f.lastEventID, f.lastUserID, f.lastNow = eventID, userID, now
	if f.err != nil {
		return nil, f.err
	}
	return &domain.EventParticipant{ID: "p-1", EventID: eventID, UserID: userID, Role: domain.RoleParticipant}, nil
}

// fakeInvitationService implements domain.InvitationService for handler tests.
type fakeInvitationService struct {
	err        error
	invitation *domain.EventInvitation
	list       []*domain.EventInvitation
	total      int
	sent       int
	failed     []string

	lastEventID      string
	lastInvitationID string
	lastCallerID     string
	lastOneUse       bool
	lastActive       bool
	lastToggle       string
	lastParams       domain.PaginationParams
	lastEmails       []string
}

func (f *fakeInvitationService) Create(_ context.Context, eventID, createdBy string, isOneUse, isActive bool) (*domain.EventInvitation, error) {
	f.lastEventID, f.lastCallerID, f.lastOneUse, f.lastActive = eventID, createdBy, isOneUse, isActive
	return f.invitation, f.err
}

func (f *fakeInvitationService) Lookup(_ context.Context, _ string) (*domain.EventInvitation, error) {
	return f.invitation, f.err
}

func (f *fakeInvitationService) Activate(_ context.Context, eventID, invitationID, callerID string) (*domain.EventInvitation, error) {
	f.lastToggle = "activate"
	f.lastEventID, f.lastInvitationID, f.lastCallerID = eventID, invitationID, callerID
	return f.invitation, f.err
}

func (f *fakeInvitationService) Deactivate(_ context.Context, eventID, invitationID, callerID string) (*domain.EventInvitation, error) {
	f.lastToggle = "deactivate"
	f.lastEventID, f.lastInvitationID, f.lastCallerID = eventID, invitationID, callerID
	return f.invitation, f.err
}

func (f *fakeInvitationService) List(_ context.Context, eventID, callerID string, params domain.PaginationParams) ([]*domain.EventInvitation, int, error) {
	f.lastEventID, f.lastCallerID, f.lastParams = eventID, callerID, params
	return f.list, f.total, f.err
}

func (f *fakeInvitationService) Share(_ context.Context, eventID, invitationID, callerID string, emails []string) (int, []string, error) {
	f.lastEventID, f.lastInvitationID, f.lastCallerID, f.lastEmails = eventID, invitationID, callerID, emails
	return f.sent, f.failed, f.err
}

// fakeParticipantService implements domain.ParticipantService for handler tests.
type fakeParticipantService struct {
	err     error
	list    []*domain.EventParticipant
	changed bool

	lastEventID       string
	lastParticipantID string
	lastCallerID      string
	lastRole          domain.ParticipantRole
	evicted           bool
}

func (f *fakeParticipantService) ListParticipants(_ context.Context, eventID, callerID string) ([]*domain.EventParticipant, error) {
	f.lastEventID, f.lastCallerID = eventID, callerID
	return f.list, f.err
}

func (f *fakeParticipantService) ChangeRole(_ context.Context, eventID, participantID, callerID string, role domain.ParticipantRole) (bool, error) {
	f.lastEventID, f.lastParticipantID, f.lastCallerID, f.lastRole = eventID, participantID, callerID, role
	return f.changed, f.err
}

func (f *fakeParticipantService) Evict(_ context.Context, eventID, participantID, callerID string) error {
	f.lastEventID, f.lastParticipantID, f.lastCallerID = eventID, participantID, callerID
	if f.err != nil {
		return f.err
	}
	f.evicted = true
	return nil
}

// fakeEventService implements domain.EventService for handler tests.
type fakeEventService struct {
	err        error
	event      *domain.Event
	lastCreate *domain.Event
	lastID     string
	lastCaller string
	lastUpdate domain.EventUpdate
}

func (f *fakeEventService) CreateEvent(_ context.Context, event *domain.Event) error {
	f.lastCreate = event
	if f.err != nil {
		return f.err
	}
	event.ID = testEventID
	return nil
}

func (f *fakeEventService) GetEvent(_ context.Context, eventID string) (*domain.Event, error) {
	f.lastID = eventID
	return f.event, f.err
}

func (f *fakeEventService) UpdateEvent(_ context.Context, eventID, callerID string, upd domain.EventUpdate) (*domain.Event, error) {
	f.lastID, f.lastCaller, f.lastUpdate = eventID, callerID, upd
	return f.event, f.err
}
