package services

import (
	"context"
	"fmt"

	"fitevents/internal/domain"
)

// SeatCheck is the capacity state observed under lock.
type SeatCheck struct {
	// Limit is nil for events without a places limit.
	Limit *int
	Taken int
}

// Available reports whether one more participant fits.
func (s SeatCheck) Available() bool {
	return s.Limit == nil || s.Taken < *s.Limit
}

// CapacityGuard reads an event's capacity inside a join transaction.
type CapacityGuard struct{}

// CheckAndReserve locks the event's additional info and participant rows in tx
// and reports the seat state. The locks are held until tx ends, so the result
// stays true for the rest of the transaction. A full event is not an error.
func (CapacityGuard) CheckAndReserve(ctx context.Context, tx domain.JoinTx, eventID string) (SeatCheck, error) {
	limit, err := tx.LockEventCapacity(ctx, eventID)
	if err != nil {
		return SeatCheck{}, fmt.Errorf("lock event capacity: %w", err)
	}
	taken, err := tx.LockParticipants(ctx, eventID)
	if err != nil {
		return SeatCheck{}, fmt.Errorf("lock participants: %w", err)
	}
	return SeatCheck{Limit: limit, Taken: taken}, nil
}
