package http

import (
	"net/http"

	httpSwagger "github.com/swaggo/http-swagger"

	"fitevents/internal/delivery/http/controllers"
)

// Controllers groups the handlers mounted by NewRouter.
type Controllers struct {
	Event       *controllers.EventController
	Invitation  *controllers.InvitationController
	Participant *controllers.ParticipantController
	Join        *controllers.JoinController
	Health      *controllers.HealthController
}

// NewRouter initializes the HTTP router with all application routes.
// requireAuth wraps every route except health and swagger.
func NewRouter(c Controllers, requireAuth func(http.HandlerFunc) http.HandlerFunc) *http.ServeMux {
	mux := http.NewServeMux()

	// Events
	mux.HandleFunc("POST /events/{$}", requireAuth(c.Event.CreateEvent))
	mux.HandleFunc("GET /events/{eventID}/{$}", requireAuth(c.Event.GetEvent))
	mux.HandleFunc("PATCH /events/{eventID}/{$}", requireAuth(c.Event.UpdateEvent))

	// Joining
	mux.HandleFunc("POST /event-inv-join/{$}", requireAuth(c.Join.JoinByCode))
	mux.HandleFunc("POST /events/{eventID}/join_to_public_event/{$}", requireAuth(c.Join.JoinPublicEvent))

	// Invitations
	mux.HandleFunc("POST /events/{eventID}/invitations/{$}", requireAuth(c.Invitation.CreateInvitation))
	mux.HandleFunc("GET /events/{eventID}/invitations/{$}", requireAuth(c.Invitation.ListInvitations))
	mux.HandleFunc("POST /events/{eventID}/invitations/{invitationID}/activate/{$}", requireAuth(c.Invitation.ActivateInvitation))
	mux.HandleFunc("POST /events/{eventID}/invitations/{invitationID}/deactivate/{$}", requireAuth(c.Invitation.DeactivateInvitation))
	mux.HandleFunc("POST /events/{eventID}/invitations/{invitationID}/share/{$}", requireAuth(c.Invitation.ShareInvitation))

	// Participants
	mux.HandleFunc("GET /events/{eventID}/participants/{$}", requireAuth(c.Participant.ListParticipants))
	mux.HandleFunc("POST /events/{eventID}/participants/{participantID}/change_role/{$}", requireAuth(c.Participant.ChangeRole))
	mux.HandleFunc("DELETE /events/{eventID}/participants/{participantID}/{$}", requireAuth(c.Participant.RemoveParticipant))

	mux.HandleFunc("GET /healthz", c.Health.Health)

	// Swagger
	mux.Handle("/swagger/", httpSwagger.WrapHandler)

	return mux
}
