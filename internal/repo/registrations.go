package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"circolo/internal/model"
)

const registrationColumns = `
	id, player_id, tournament_id, turno_id, backup_turno_id, stato, note, created_at, updated_at
`

func scanRegistration(row interface{ Scan(...any) error }) (*model.Registration, error) {
	var reg model.Registration
	err := row.Scan(
		&reg.ID,
		&reg.PlayerID,
		&reg.TournamentID,
		&reg.TurnoID,
		&reg.BackupTurnoID,
		&reg.Stato,
		&reg.Note,
		&reg.CreatedAt,
		&reg.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &reg, nil
}

func (r *repository) InsertRegistration(ctx context.Context, reg *model.Registration) (int64, error) {
	var id int64
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO registrations (player_id, tournament_id, turno_id, backup_turno_id, stato, note)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`, reg.PlayerID, reg.TournamentID, reg.TurnoID, reg.BackupTurnoID, reg.Stato, reg.Note).Scan(&id)
	if err != nil {
		// The partial unique index on (player_id, tournament_id) catches the
		// duplicate that raced past HasActiveRegistration.
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" && pqErr.Constraint == "registrations_active_pair_idx" {
			return 0, ErrRegistrationExists
		}
		return 0, fmt.Errorf("failed to insert registration: %w", err)
	}
	reg.ID = id
	return id, nil
}

func (r *repository) GetRegistrationByID(ctx context.Context, id int64) (*model.Registration, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+registrationColumns+`
		FROM registrations
		WHERE id = $1
	`, id)

	reg, err := scanRegistration(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRegistrationNotFound
		}
		return nil, fmt.Errorf("failed to get registration: %w", err)
	}
	return reg, nil
}

// HasActiveRegistration reports whether the player already holds a
// non-RIFIUTATA registration for the tournament.
func (r *repository) HasActiveRegistration(ctx context.Context, playerID, tournamentID int64) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `
		SELECT EXISTS(
			SELECT 1 FROM registrations
			WHERE player_id = $1 AND tournament_id = $2 AND stato != 'RIFIUTATA'
		)
	`, playerID, tournamentID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check duplicate registration: %w", err)
	}
	return exists, nil
}

func (r *repository) UpdateRegistrationStato(ctx context.Context, id int64, stato string) error {
	var updated int64
	err := r.db.QueryRowContext(ctx, `
		UPDATE registrations
		SET stato = $1, updated_at = NOW()
		WHERE id = $2
		RETURNING id
	`, stato, id).Scan(&updated)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrRegistrationNotFound
		}
		return fmt.Errorf("failed to update registration stato: %w", err)
	}
	return nil
}

func (r *repository) UpdateRegistrationTurno(ctx context.Context, id, turnoID int64) error {
	var updated int64
	err := r.db.QueryRowContext(ctx, `
		UPDATE registrations
		SET turno_id = $1, updated_at = NOW()
		WHERE id = $2
		RETURNING id
	`, turnoID, id).Scan(&updated)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrRegistrationNotFound
		}
		return fmt.Errorf("failed to update registration turno: %w", err)
	}
	return nil
}

// MarkRifiutata claims the transition to RIFIUTATA and releases the held
// seats in one transaction. The conditional update is the serializing point:
// of two concurrent rejections only one matches stato != 'RIFIUTATA', so the
// seats are decremented exactly once. Returns the row and whether this call
// won the claim; an already-rejected registration comes back unclaimed.
func (r *repository) MarkRifiutata(ctx context.Context, id int64) (*model.Registration, bool, error) {
	tx, err := r.db.Master.BeginTx(ctx, nil)
	if err != nil {
		return nil, false, fmt.Errorf("failed to start transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	row := tx.QueryRowContext(ctx, `
		UPDATE registrations
		SET stato = 'RIFIUTATA', updated_at = NOW()
		WHERE id = $1 AND stato != 'RIFIUTATA'
		RETURNING `+registrationColumns+`
	`, id)

	reg, err := scanRegistration(row)
	if err != nil {
		_ = tx.Rollback()
		if errors.Is(err, sql.ErrNoRows) {
			// Lost the claim or the row is gone; a plain read tells which.
			existing, getErr := r.GetRegistrationByID(ctx, id)
			if getErr != nil {
				return nil, false, getErr
			}
			return existing, false, nil
		}
		return nil, false, fmt.Errorf("failed to mark registration rejected: %w", err)
	}

	turnoIDs := []int64{reg.TurnoID}
	if reg.BackupTurnoID != nil {
		turnoIDs = append(turnoIDs, *reg.BackupTurnoID)
	}
	for _, turnoID := range turnoIDs {
		if _, err := tx.ExecContext(ctx, `
			UPDATE turni
			SET occupied = GREATEST(occupied - 1, 0)
			WHERE id = $1
		`, turnoID); err != nil {
			_ = tx.Rollback()
			return nil, false, fmt.Errorf("failed to release seat: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, false, fmt.Errorf("failed to commit rejection: %w", err)
	}
	return reg, true, nil
}

func (r *repository) DeleteRegistration(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx, `
		DELETE FROM registrations WHERE id = $1
	`, id); err != nil {
		return fmt.Errorf("failed to delete registration: %w", err)
	}
	return nil
}

func (r *repository) GetRegistrationsByTournamentID(ctx context.Context, tournamentID int64) ([]model.Registration, error) {
	return r.listRegistrations(ctx, `
		SELECT `+registrationColumns+`
		FROM registrations
		WHERE tournament_id = $1
		ORDER BY created_at ASC
	`, tournamentID)
}

func (r *repository) GetRegistrationsByPlayerID(ctx context.Context, playerID int64) ([]model.Registration, error) {
	return r.listRegistrations(ctx, `
		SELECT `+registrationColumns+`
		FROM registrations
		WHERE player_id = $1
		ORDER BY created_at DESC
	`, playerID)
}

func (r *repository) listRegistrations(ctx context.Context, query string, arg int64) ([]model.Registration, error) {
	rows, err := r.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("failed to get registrations: %w", err)
	}
	defer rows.Close()

	var regs []model.Registration
	for rows.Next() {
		reg, err := scanRegistration(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan registration: %w", err)
		}
		regs = append(regs, *reg)
	}

	return regs, nil
}
