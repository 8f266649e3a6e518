package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"

	"fitevents/internal/domain"
)

const (
	uniqueViolation = "23505"

	invitationCodeConstraint = "event_invitations_code_key"
)

const invitationColumns = `
	i.id, i.event_id, i.code, i.created_by, i.is_active, i.is_one_use, i.is_used, i.created_at, e.date_time_event`

type eventInvitationRepository struct {
	DB *sql.DB
}

func NewEventInvitationRepository(db *sql.DB) domain.EventInvitationRepository {
	return &eventInvitationRepository{
		DB: db,
	}
}

func (r *eventInvitationRepository) Create(ctx context.Context, inv *domain.EventInvitation) error {
	query := `
		INSERT INTO event_invitations (event_id, code, created_by, is_active, is_one_use, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`
	err := r.DB.QueryRowContext(ctx, query, inv.EventID, inv.Code, inv.CreatedBy, inv.IsActive, inv.IsOneUse, inv.CreatedAt).
		Scan(&inv.ID)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation && pqErr.Constraint == invitationCodeConstraint {
			return domain.ErrDuplicateCode
		}
		return err
	}
	return nil
}

func (r *eventInvitationRepository) GetByCode(ctx context.Context, code string) (*domain.EventInvitation, error) {
	query := `
		SELECT ` + invitationColumns + `
		FROM event_invitations i
		JOIN events e ON e.id = i.event_id
		WHERE i.code = $1
	`
	return r.getOne(ctx, query, code)
}

func (r *eventInvitationRepository) GetByID(ctx context.Context, id string) (*domain.EventInvitation, error) {
	query := `
		SELECT ` + invitationColumns + `
		FROM event_invitations i
		JOIN events e ON e.id = i.event_id
		WHERE i.id = $1
	`
	return r.getOne(ctx, query, id)
}

func (r *eventInvitationRepository) getOne(ctx context.Context, query string, arg string) (*domain.EventInvitation, error) {
	inv, err := scanInvitation(r.DB.QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return inv, nil
}

func (r *eventInvitationRepository) SetActive(ctx context.Context, id string, active bool) error {
	query := `UPDATE event_invitations SET is_active = $1 WHERE id = $2`
	result, err := r.DB.ExecContext(ctx, query, active, id)
	if err != nil {
		return err
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *eventInvitationRepository) ListByEventID(ctx context.Context, eventID string, params domain.PaginationParams) ([]*domain.EventInvitation, int, error) {
	var total int
	countQuery := `SELECT COUNT(*) FROM event_invitations WHERE event_id = $1`
	if err := r.DB.QueryRowContext(ctx, countQuery, eventID).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `
		SELECT ` + invitationColumns + `
		FROM event_invitations i
		JOIN events e ON e.id = i.event_id
		WHERE i.event_id = $1
		ORDER BY i.created_at DESC
		LIMIT $2 OFFSET $3
	`
	rows, err := r.DB.QueryContext(ctx, query, eventID, params.Limit(), params.Offset())
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	invs := make([]*domain.EventInvitation, 0)
	for rows.Next() {
		inv, err := scanInvitation(rows)
		if err != nil {
			return nil, 0, err
		}
		invs = append(invs, inv)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return invs, total, nil
}

func scanInvitation(row rowScanner) (*domain.EventInvitation, error) {
	inv := &domain.EventInvitation{}
	err := row.Scan(&inv.ID, &inv.EventID, &inv.Code, &inv.CreatedBy, &inv.IsActive, &inv.IsOneUse, &inv.IsUsed, &inv.CreatedAt, &inv.EventStartsAt)
	if err != nil {
		return nil, err
	}
	return inv, nil
}
