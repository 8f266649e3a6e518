package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"sync"
	"time"

	"fitevents/internal/domain"
)

var discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

// memStore is an in-memory stand-in for the database. mu guards the maps;
// rowLock plays the role of the FOR UPDATE locks a join transaction holds.
type memStore struct {
	mu      sync.Mutex
	rowLock sync.Mutex
	nextID  int

	events       map[string]*domain.Event
	invitations  map[string]*domain.EventInvitation
	participants map[string]*domain.EventParticipant

	// whileWaiting, if set, runs when a transaction asks for the invitation
	// lock, standing in for a write committed by someone else meanwhile.
	whileWaiting func(s *memStore)
	// failInsert makes InsertParticipant fail.
	failInsert error
}

func newMemStore() *memStore {
	return &memStore{
		events:       make(map[string]*domain.Event),
		invitations:  make(map[string]*domain.EventInvitation),
		participants: make(map[string]*domain.EventParticipant),
	}
}

func (s *memStore) id(prefix string) string {
	s.nextID++
	return fmt.Sprintf("%s-%d", prefix, s.nextID)
}

func (s *memStore) addEvent(authorID string, limit *int, public bool, startsAt time.Time) *domain.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := &domain.Event{
		ID:       s.id("ev"),
		AuthorID: authorID,
		Title:    "Morning run",
		StartsAt: startsAt,
		AdditionalInfo: domain.EventAdditionalInfo{
			PlacesLimit:   limit,
			PublicEvent:   public,
			AdvancedLevel: domain.LevelNone,
			Price:         "0",
		},
	}
	s.events[e.ID] = e
	return e
}

func (s *memStore) addInvitation(eventID, code string, active, oneUse bool) *domain.EventInvitation {
	s.mu.Lock()
	defer s.mu.Unlock()
	inv := &domain.EventInvitation{
		ID:            s.id("inv"),
		EventID:       eventID,
		Code:          code,
		CreatedBy:     s.events[eventID].AuthorID,
		IsActive:      active,
		IsOneUse:      oneUse,
		EventStartsAt: s.events[eventID].StartsAt,
	}
	s.invitations[inv.ID] = inv
	return inv
}

func (s *memStore) addParticipant(eventID, userID string, role domain.ParticipantRole) *domain.EventParticipant {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := domain.NewEventParticipant(eventID, userID, role, time.Now())
	p.ID = s.id("p")
	s.participants[p.ID] = p
	return p
}

func (s *memStore) count(eventID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, p := range s.participants {
		if p.EventID == eventID {
			n++
		}
	}
	return n
}

func (s *memStore) invitation(id string) domain.EventInvitation {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.invitations[id]
}

func (s *memStore) participant(id string) (domain.EventParticipant, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.participants[id]
	if !ok {
		return domain.EventParticipant{}, false
	}
	return *p, true
}

func (s *memStore) findParticipant(eventID, userID string) *domain.EventParticipant {
	for _, p := range s.participants {
		if p.EventID == eventID && p.UserID == userID {
			cp := *p
			return &cp
		}
	}
	return nil
}

func (s *memStore) findInvitationByCode(code string) *domain.EventInvitation {
	for _, inv := range s.invitations {
		if inv.Code == code {
			cp := *inv
			return &cp
		}
	}
	return nil
}

type memEventRepo struct{ *memStore }

func (r memEventRepo) Create(ctx context.Context, e *domain.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	e.ID = r.id("ev")
	cp := *e
	r.events[e.ID] = &cp
	return nil
}

func (r memEventRepo) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.events[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *e
	return &cp, nil
}

func (r memEventRepo) Update(ctx context.Context, eventID string, upd domain.EventUpdate) (*domain.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.events[eventID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if upd.Title != nil {
		e.Title = *upd.Title
	}
	e.AdditionalInfo = upd.ApplyInfo(e.AdditionalInfo)
	cp := *e
	return &cp, nil
}

type memInvitationRepo struct{ *memStore }

func (r memInvitationRepo) Create(ctx context.Context, inv *domain.EventInvitation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.findInvitationByCode(inv.Code) != nil {
		return domain.ErrDuplicateCode
	}
	inv.ID = r.id("inv")
	cp := *inv
	r.invitations[inv.ID] = &cp
	return nil
}

func (r memInvitationRepo) GetByCode(ctx context.Context, code string) (*domain.EventInvitation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if inv := r.findInvitationByCode(code); inv != nil {
		return inv, nil
	}
	return nil, domain.ErrNotFound
}

func (r memInvitationRepo) GetByID(ctx context.Context, id string) (*domain.EventInvitation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	inv, ok := r.invitations[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *inv
	return &cp, nil
}

func (r memInvitationRepo) SetActive(ctx context.Context, id string, active bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	inv, ok := r.invitations[id]
	if !ok {
		return domain.ErrNotFound
	}
	inv.IsActive = active
	return nil
}

func (r memInvitationRepo) ListByEventID(ctx context.Context, eventID string, params domain.PaginationParams) ([]*domain.EventInvitation, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var all []*domain.EventInvitation
	for _, inv := range r.invitations {
		if inv.EventID == eventID {
			cp := *inv
			all = append(all, &cp)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	total := len(all)
	start := min(params.Offset(), total)
	end := min(start+params.Limit(), total)
	return all[start:end], total, nil
}

type memParticipantRepo struct{ *memStore }

func (r memParticipantRepo) GetByID(ctx context.Context, id string) (*domain.EventParticipant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.participants[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (r memParticipantRepo) GetByEventAndUser(ctx context.Context, eventID, userID string) (*domain.EventParticipant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p := r.findParticipant(eventID, userID); p != nil {
		return p, nil
	}
	return nil, domain.ErrNotFound
}

func (r memParticipantRepo) ListByEventID(ctx context.Context, eventID string) ([]*domain.EventParticipant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.EventParticipant
	for _, p := range r.participants {
		if p.EventID == eventID {
			cp := *p
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r memParticipantRepo) UpdateRole(ctx context.Context, id string, role domain.ParticipantRole) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.participants[id]
	if !ok {
		return domain.ErrNotFound
	}
	p.Role = role
	return nil
}

func (r memParticipantRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.participants[id]; !ok {
		return domain.ErrNotFound
	}
	delete(r.participants, id)
	return nil
}

// memTxRunner serializes transactions on rowLock and buffers writes until commit.
type memTxRunner struct{ *memStore }

func (r memTxRunner) WithinJoinTx(ctx context.Context, fn func(ctx context.Context, tx domain.JoinTx) error) error {
	r.rowLock.Lock()
	defer r.rowLock.Unlock()

	tx := &memTx{store: r.memStore}
	if err := fn(ctx, tx); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range tx.inserted {
		r.participants[p.ID] = p
	}
	for _, id := range tx.used {
		r.invitations[id].IsUsed = true
	}
	return nil
}

type memTx struct {
	store    *memStore
	inserted []*domain.EventParticipant
	used     []string
}

func (t *memTx) LockInvitationByCode(ctx context.Context, code string) (*domain.EventInvitation, error) {
	if t.store.whileWaiting != nil {
		t.store.whileWaiting(t.store)
	}
	t.store.mu.Lock()
	inv := t.store.findInvitationByCode(code)
	t.store.mu.Unlock()
	if inv == nil {
		return nil, domain.ErrNotFound
	}
	return inv, nil
}

func (t *memTx) LockEventCapacity(ctx context.Context, eventID string) (*int, error) {
	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	e, ok := t.store.events[eventID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return e.AdditionalInfo.PlacesLimit, nil
}

func (t *memTx) LockParticipants(ctx context.Context, eventID string) (int, error) {
	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	n := len(t.inserted)
	for _, p := range t.store.participants {
		if p.EventID == eventID {
			n++
		}
	}
	return n, nil
}

func (t *memTx) GetParticipant(ctx context.Context, eventID, userID string) (*domain.EventParticipant, error) {
	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	if p := t.store.findParticipant(eventID, userID); p != nil {
		return p, nil
	}
	return nil, domain.ErrNotFound
}

func (t *memTx) InsertParticipant(ctx context.Context, p *domain.EventParticipant) (bool, error) {
	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	if t.store.failInsert != nil {
		return false, t.store.failInsert
	}
	if existing := t.store.findParticipant(p.EventID, p.UserID); existing != nil {
		*p = *existing
		return false, nil
	}
	p.ID = t.store.id("p")
	cp := *p
	t.inserted = append(t.inserted, &cp)
	return true, nil
}

func (t *memTx) MarkInvitationUsed(ctx context.Context, invitationID string) error {
	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	inv, ok := t.store.invitations[invitationID]
	if !ok || !inv.IsOneUse || inv.IsUsed {
		return domain.ErrInvalidInvitation
	}
	t.used = append(t.used, invitationID)
	return nil
}

type fakeEmailService struct {
	mu   sync.Mutex
	sent []*domain.InvitationEmailData
	fail map[string]error
}

func (f *fakeEmailService) SendEventInvitation(ctx context.Context, data *domain.InvitationEmailData) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail[data.Email]; err != nil {
		return err
	}
	f.sent = append(f.sent, data)
	return nil
}

func ptr[T any](v T) *T {
	return &v
}
