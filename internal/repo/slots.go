package repo

import (
	"context"
	"fmt"
)

// ReserveSeat claims one seat of the turno. The conditional update is the
// serializing point: two concurrent claims on the last seat cannot both
// match occupied < total_seats.
func (r *repository) ReserveSeat(ctx context.Context, turnoID int64) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE turni
		SET occupied = occupied + 1
		WHERE id = $1 AND occupied < total_seats
	`, turnoID)
	if err != nil {
		return fmt.Errorf("failed to reserve seat: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read reserve result: %w", err)
	}
	if n > 0 {
		return nil
	}

	var exists bool
	if err := r.db.QueryRowContext(ctx, `
		SELECT EXISTS(SELECT 1 FROM turni WHERE id = $1)
	`, turnoID).Scan(&exists); err != nil {
		return fmt.Errorf("failed to check turno: %w", err)
	}
	if !exists {
		return ErrTurnoNotFound
	}
	return ErrSlotExhausted
}

// ReleaseSeat frees one seat, floored at zero. Releasing an already-empty
// turno is a no-op so cancellation and rejection paths may race safely.
func (r *repository) ReleaseSeat(ctx context.Context, turnoID int64) error {
	if _, err := r.db.ExecContext(ctx, `
		UPDATE turni
		SET occupied = GREATEST(occupied - 1, 0)
		WHERE id = $1
	`, turnoID); err != nil {
		return fmt.Errorf("failed to release seat: %w", err)
	}
	return nil
}
