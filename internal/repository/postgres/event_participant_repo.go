package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"fitevents/internal/domain"
)

const participantColumns = `id, event_id, user_id, role, paid_status, presence, created_at`

type eventParticipantRepository struct {
	DB *sql.DB
}

func NewEventParticipantRepository(db *sql.DB) domain.EventParticipantRepository {
	return &eventParticipantRepository{
		DB: db,
	}
}

func (r *eventParticipantRepository) GetByID(ctx context.Context, id string) (*domain.EventParticipant, error) {
	query := `SELECT ` + participantColumns + ` FROM event_participants WHERE id = $1`
	p, err := scanParticipant(r.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return p, nil
}

func (r *eventParticipantRepository) GetByEventAndUser(ctx context.Context, eventID, userID string) (*domain.EventParticipant, error) {
	return getParticipant(ctx, r.DB, eventID, userID)
}

func (r *eventParticipantRepository) ListByEventID(ctx context.Context, eventID string) ([]*domain.EventParticipant, error) {
	query := `
		SELECT ` + participantColumns + `
		FROM event_participants
		WHERE event_id = $1
		ORDER BY created_at, id
	`
	rows, err := r.DB.QueryContext(ctx, query, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	participants := make([]*domain.EventParticipant, 0)
	for rows.Next() {
		p, err := scanParticipant(rows)
		if err != nil {
			return nil, err
		}
		participants = append(participants, p)
	}
	return participants, rows.Err()
}

func (r *eventParticipantRepository) UpdateRole(ctx context.Context, id string, role domain.ParticipantRole) error {
	if !role.Valid() {
		return domain.ErrInvalidRole
	}
	query := `UPDATE event_participants SET role = $1 WHERE id = $2`
	result, err := r.DB.ExecContext(ctx, query, role.String(), id)
	if err != nil {
		return err
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *eventParticipantRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM event_participants WHERE id = $1`
	result, err := r.DB.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// queryRower is satisfied by *sql.DB and *sql.Tx.
type queryRower interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func getParticipant(ctx context.Context, q queryRower, eventID, userID string) (*domain.EventParticipant, error) {
	query := `SELECT ` + participantColumns + ` FROM event_participants WHERE event_id = $1 AND user_id = $2`
	p, err := scanParticipant(q.QueryRowContext(ctx, query, eventID, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return p, nil
}

func scanParticipant(row rowScanner) (*domain.EventParticipant, error) {
	p := &domain.EventParticipant{}
	var role string
	var presence sql.NullBool
	if err := row.Scan(&p.ID, &p.EventID, &p.UserID, &role, &p.PaidStatus, &presence, &p.CreatedAt); err != nil {
		return nil, err
	}
	parsed, err := domain.ParseParticipantRole(role)
	if err != nil {
		return nil, fmt.Errorf("participant %s: %w", p.ID, err)
	}
	p.Role = parsed
	if presence.Valid {
		p.Presence = &presence.Bool
	}
	return p, nil
}
