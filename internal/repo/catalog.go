package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"circolo/internal/model"
)

func (r *repository) CreatePlayer(ctx context.Context, p *model.Player) (int64, error) {
	var id int64
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO players (full_name, email, fisb_number, certificate_expiry)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`, p.FullName, p.Email, p.FisbNumber, p.CertificateExpiry).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to insert player: %w", err)
	}
	p.ID = id
	return id, nil
}

func (r *repository) GetPlayerByID(ctx context.Context, id int64) (*model.Player, error) {
	var p model.Player
	err := r.db.QueryRowContext(ctx, `
		SELECT id, full_name, email, fisb_number, certificate_expiry, created_at
		FROM players
		WHERE id = $1
	`, id).Scan(&p.ID, &p.FullName, &p.Email, &p.FisbNumber, &p.CertificateExpiry, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPlayerNotFound
		}
		return nil, fmt.Errorf("failed to get player: %w", err)
	}
	return &p, nil
}

// CreateTournament inserts the tournament and its turni in one transaction
// so a tournament can never exist without its bookable slots.
func (r *repository) CreateTournament(ctx context.Context, t *model.Tournament, turni []model.Turno) (int64, error) {
	tx, err := r.db.Master.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to start transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	var id int64
	if err := tx.QueryRowContext(ctx, `
		INSERT INTO tournaments (name, fee_cents, status)
		VALUES ($1, $2, $3)
		RETURNING id
	`, t.Name, t.FeeCents, t.Status).Scan(&id); err != nil {
		_ = tx.Rollback()
		return 0, fmt.Errorf("failed to insert tournament: %w", err)
	}

	for i := range turni {
		if err := tx.QueryRowContext(ctx, `
			INSERT INTO turni (tournament_id, day, start_time, end_time, total_seats)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING id
		`, id, turni[i].Day, turni[i].StartTime, turni[i].EndTime, turni[i].TotalSeats).Scan(&turni[i].ID); err != nil {
			_ = tx.Rollback()
			return 0, fmt.Errorf("failed to insert turno: %w", err)
		}
		turni[i].TournamentID = id
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit tournament: %w", err)
	}

	t.ID = id
	return id, nil
}

func (r *repository) GetTournamentByID(ctx context.Context, id int64) (*model.Tournament, error) {
	var t model.Tournament
	err := r.db.QueryRowContext(ctx, `
		SELECT id, name, fee_cents, status, created_at
		FROM tournaments
		WHERE id = $1
	`, id).Scan(&t.ID, &t.Name, &t.FeeCents, &t.Status, &t.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTournamentNotFound
		}
		return nil, fmt.Errorf("failed to get tournament: %w", err)
	}
	return &t, nil
}

func (r *repository) GetAllTournaments(ctx context.Context) ([]model.Tournament, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, fee_cents, status, created_at
		FROM tournaments
		ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to get tournaments: %w", err)
	}
	defer rows.Close()

	var tournaments []model.Tournament
	for rows.Next() {
		var t model.Tournament
		if err := rows.Scan(&t.ID, &t.Name, &t.FeeCents, &t.Status, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan tournament: %w", err)
		}
		tournaments = append(tournaments, t)
	}

	return tournaments, nil
}

func (r *repository) GetTurnoByID(ctx context.Context, id int64) (*model.Turno, error) {
	var t model.Turno
	err := r.db.QueryRowContext(ctx, `
		SELECT id, tournament_id, day, start_time, end_time, total_seats, occupied
		FROM turni
		WHERE id = $1
	`, id).Scan(&t.ID, &t.TournamentID, &t.Day, &t.StartTime, &t.EndTime, &t.TotalSeats, &t.Occupied)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTurnoNotFound
		}
		return nil, fmt.Errorf("failed to get turno: %w", err)
	}
	return &t, nil
}

func (r *repository) GetTurniByTournamentID(ctx context.Context, tournamentID int64) ([]model.Turno, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, tournament_id, day, start_time, end_time, total_seats, occupied
		FROM turni
		WHERE tournament_id = $1
		ORDER BY day ASC, start_time ASC
	`, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to get turni: %w", err)
	}
	defer rows.Close()

	var turni []model.Turno
	for rows.Next() {
		var t model.Turno
		if err := rows.Scan(&t.ID, &t.TournamentID, &t.Day, &t.StartTime, &t.EndTime, &t.TotalSeats, &t.Occupied); err != nil {
			return nil, fmt.Errorf("failed to scan turno: %w", err)
		}
		turni = append(turni, t)
	}

	return turni, nil
}
