package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"fitevents/internal/domain"
)

const foreignKeyViolation = "23503"

type joinTxRunner struct {
	DB *sql.DB
}

// NewJoinTxRunner returns a domain.JoinTxRunner that runs each join in one
// READ COMMITTED transaction; serialization comes from explicit FOR UPDATE locks.
func NewJoinTxRunner(db *sql.DB) domain.JoinTxRunner {
	return &joinTxRunner{DB: db}
}

func (r *joinTxRunner) WithinJoinTx(ctx context.Context, fn func(ctx context.Context, tx domain.JoinTx) error) (err error) {
	tx, err := r.DB.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return fmt.Errorf("begin join tx: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = fn(ctx, &joinTx{tx: tx}); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit join tx: %w", err)
	}
	return nil
}

type joinTx struct {
	tx *sql.Tx
}

func (t *joinTx) LockInvitationByCode(ctx context.Context, code string) (*domain.EventInvitation, error) {
	query := `
		SELECT ` + invitationColumns + `
		FROM event_invitations i
		JOIN events e ON e.id = i.event_id
		WHERE i.code = $1
		FOR UPDATE OF i
	`
	inv, err := scanInvitation(t.tx.QueryRowContext(ctx, query, code))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return inv, nil
}

func (t *joinTx) LockEventCapacity(ctx context.Context, eventID string) (*int, error) {
	query := `
		SELECT places_for_people_limit
		FROM event_additional_info
		WHERE event_id = $1
		FOR UPDATE
	`
	var limit sql.NullInt64
	if err := t.tx.QueryRowContext(ctx, query, eventID).Scan(&limit); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return intPtr(limit), nil
}

func (t *joinTx) LockParticipants(ctx context.Context, eventID string) (int, error) {
	query := `SELECT id FROM event_participants WHERE event_id = $1 FOR UPDATE`
	rows, err := t.tx.QueryContext(ctx, query, eventID)
	if err != nil {
		return 0, err
	}
	defer rows.Close()
	count := 0
	for rows.Next() {
		count++
	}
	return count, rows.Err()
}

func (t *joinTx) GetParticipant(ctx context.Context, eventID, userID string) (*domain.EventParticipant, error) {
	return getParticipant(ctx, t.tx, eventID, userID)
}

func (t *joinTx) InsertParticipant(ctx context.Context, p *domain.EventParticipant) (bool, error) {
	if !p.Role.Valid() {
		return false, domain.ErrInvalidRole
	}
	query := `
		INSERT INTO event_participants (event_id, user_id, role, paid_status, presence, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (event_id, user_id) DO NOTHING
		RETURNING id
	`
	err := t.tx.QueryRowContext(ctx, query, p.EventID, p.UserID, p.Role.String(), p.PaidStatus, p.Presence, p.CreatedAt).
		Scan(&p.ID)
	if err == nil {
		return true, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == foreignKeyViolation {
			return false, fmt.Errorf("unknown user %s: %w", p.UserID, domain.ErrInvalidInput)
		}
		return false, err
	}
	existing, err := getParticipant(ctx, t.tx, p.EventID, p.UserID)
	if err != nil {
		return false, fmt.Errorf("load existing participant: %w", err)
	}
	*p = *existing
	return false, nil
}

func (t *joinTx) MarkInvitationUsed(ctx context.Context, invitationID string) error {
	query := `
		UPDATE event_invitations
		SET is_used = TRUE
		WHERE id = $1 AND is_one_use AND NOT is_used
	`
	result, err := t.tx.ExecContext(ctx, query, invitationID)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows != 1 {
		return domain.ErrInvalidInvitation
	}
	return nil
}
