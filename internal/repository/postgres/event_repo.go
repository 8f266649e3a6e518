package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"fitevents/internal/domain"
)

const checkViolation = "23514"

const eventColumns = `
	e.id, e.author_id, e.title, e.short_desc, e.long_desc, e.date_time_event, e.duration_min,
	e.latitude, e.longitude, e.country, e.city, e.street, e.street_number, e.flat_number, e.zip_code,
	e.created_at, e.updated_at,
	a.places_for_people_limit, a.public_event, a.participant_list_show, a.advanced_level, a.age_limit,
	a.free, a.price, a.payment_in_app`

type eventRepository struct {
	DB *sql.DB
}

func NewEventRepository(db *sql.DB) domain.EventRepository {
	return &eventRepository{
		DB: db,
	}
}

func (r *eventRepository) Create(ctx context.Context, e *domain.Event) (err error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	query := `
		INSERT INTO events (author_id, title, short_desc, long_desc, date_time_event, duration_min,
			latitude, longitude, country, city, street, street_number, flat_number, zip_code, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		RETURNING id
	`
	err = tx.QueryRowContext(ctx, query,
		e.AuthorID, e.Title, e.ShortDesc, e.LongDesc, e.StartsAt, e.DurationMin,
		e.Latitude, e.Longitude, e.Country, e.City, e.Street, e.StreetNumber, e.FlatNumber, e.ZipCode,
		e.CreatedAt, e.UpdatedAt,
	).Scan(&e.ID)
	if err != nil {
		return err
	}

	info := e.AdditionalInfo
	infoQuery := `
		INSERT INTO event_additional_info (event_id, places_for_people_limit, public_event, participant_list_show,
			advanced_level, age_limit, free, price, payment_in_app)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	if _, err = tx.ExecContext(ctx, infoQuery,
		e.ID, nullInt(info.PlacesLimit), info.PublicEvent, info.ParticipantListShow,
		info.AdvancedLevel, info.AgeLimit, info.Free, info.Price, info.PaymentInApp,
	); err != nil {
		return mapCheckViolation(err)
	}
	return tx.Commit()
}

func (r *eventRepository) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	query := `
		SELECT ` + eventColumns + `
		FROM events e
		JOIN event_additional_info a ON a.event_id = e.id
		WHERE e.id = $1
	`
	e, err := scanEvent(r.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return e, nil
}

func (r *eventRepository) Update(ctx context.Context, eventID string, upd domain.EventUpdate) (_ *domain.Event, err error) {
	eventSet := []string{"updated_at = NOW()"}
	eventArgs := []any{}
	n := 1
	add := func(set *[]string, args *[]any, column string, value any) {
		*set = append(*set, fmt.Sprintf("%s = $%d", column, n))
		*args = append(*args, value)
		n++
	}
	if upd.Title != nil {
		add(&eventSet, &eventArgs, "title", *upd.Title)
	}
	if upd.ShortDesc != nil {
		add(&eventSet, &eventArgs, "short_desc", *upd.ShortDesc)
	}
	if upd.LongDesc != nil {
		add(&eventSet, &eventArgs, "long_desc", *upd.LongDesc)
	}
	if upd.StartsAt != nil {
		add(&eventSet, &eventArgs, "date_time_event", *upd.StartsAt)
	}
	if upd.DurationMin != nil {
		add(&eventSet, &eventArgs, "duration_min", *upd.DurationMin)
	}

	var infoSet []string
	var infoArgs []any
	n = 1
	if upd.PlacesLimit != nil {
		add(&infoSet, &infoArgs, "places_for_people_limit", *upd.PlacesLimit)
	}
	if upd.PublicEvent != nil {
		add(&infoSet, &infoArgs, "public_event", *upd.PublicEvent)
	}
	if upd.ParticipantListShow != nil {
		add(&infoSet, &infoArgs, "participant_list_show", *upd.ParticipantListShow)
	}
	if upd.AdvancedLevel != nil {
		add(&infoSet, &infoArgs, "advanced_level", *upd.AdvancedLevel)
	}
	if upd.AgeLimit != nil {
		add(&infoSet, &infoArgs, "age_limit", *upd.AgeLimit)
	}
	if upd.Free != nil {
		add(&infoSet, &infoArgs, "free", *upd.Free)
	}
	if upd.Price != nil {
		add(&infoSet, &infoArgs, "price", *upd.Price)
	}
	if upd.PaymentInApp != nil {
		add(&infoSet, &infoArgs, "payment_in_app", *upd.PaymentInApp)
	}

	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	eventArgs = append(eventArgs, eventID)
	query := fmt.Sprintf(`UPDATE events SET %s WHERE id = $%d`, strings.Join(eventSet, ", "), len(eventArgs))
	result, err := tx.ExecContext(ctx, query, eventArgs...)
	if err != nil {
		return nil, err
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return nil, domain.ErrNotFound
	}

	if len(infoSet) > 0 {
		// Takes the row lock joins serialize on; the participant count below runs under it.
		infoArgs = append(infoArgs, eventID)
		infoQuery := fmt.Sprintf(`UPDATE event_additional_info SET %s WHERE event_id = $%d`, strings.Join(infoSet, ", "), len(infoArgs))
		if _, err = tx.ExecContext(ctx, infoQuery, infoArgs...); err != nil {
			return nil, mapCheckViolation(err)
		}
	}
	if upd.PlacesLimit != nil {
		var taken int
		countQuery := `SELECT COUNT(*) FROM event_participants WHERE event_id = $1`
		if err = tx.QueryRowContext(ctx, countQuery, eventID).Scan(&taken); err != nil {
			return nil, err
		}
		if taken > *upd.PlacesLimit {
			return nil, fmt.Errorf("places limit %d is below %d participants: %w", *upd.PlacesLimit, taken, domain.ErrInvalidInput)
		}
	}

	getQuery := `
		SELECT ` + eventColumns + `
		FROM events e
		JOIN event_additional_info a ON a.event_id = e.id
		WHERE e.id = $1
	`
	e, err := scanEvent(tx.QueryRowContext(ctx, getQuery, eventID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	if err = tx.Commit(); err != nil {
		return nil, err
	}
	return e, nil
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanEvent(row rowScanner) (*domain.Event, error) {
	e := &domain.Event{}
	var longDesc sql.NullString
	var limit sql.NullInt64
	err := row.Scan(
		&e.ID, &e.AuthorID, &e.Title, &e.ShortDesc, &longDesc, &e.StartsAt, &e.DurationMin,
		&e.Latitude, &e.Longitude, &e.Country, &e.City, &e.Street, &e.StreetNumber, &e.FlatNumber, &e.ZipCode,
		&e.CreatedAt, &e.UpdatedAt,
		&limit, &e.AdditionalInfo.PublicEvent, &e.AdditionalInfo.ParticipantListShow,
		&e.AdditionalInfo.AdvancedLevel, &e.AdditionalInfo.AgeLimit,
		&e.AdditionalInfo.Free, &e.AdditionalInfo.Price, &e.AdditionalInfo.PaymentInApp,
	)
	if err != nil {
		return nil, err
	}
	if longDesc.Valid {
		e.LongDesc = &longDesc.String
	}
	e.AdditionalInfo.PlacesLimit = intPtr(limit)
	return e, nil
}

// mapCheckViolation turns a rejected additional info row into ErrInvalidInput.
func mapCheckViolation(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == checkViolation {
		return fmt.Errorf("%s: %w", pqErr.Constraint, domain.ErrInvalidInput)
	}
	return err
}

func nullInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}

func intPtr(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	n := int(v.Int64)
	return &n
}
