package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"circolo/internal/model"
)

const balanceQuery = `
	SELECT COALESCE(SUM(CASE WHEN kind = 'RICARICA' THEN amount_cents ELSE -amount_cents END), 0)
	FROM ledger_entries
	WHERE player_id = $1
`

// Debit appends an ADDEBITO entry after checking the balance under a lock
// on the player row, so two concurrent debits for the same player are
// serialized and cannot jointly overdraw. A zero amount is a successful
// no-op that writes nothing.
func (r *repository) Debit(ctx context.Context, playerID, amountCents int64, description string, originRegID *int64) (int64, error) {
	if amountCents < 0 {
		return 0, fmt.Errorf("debit amount must not be negative")
	}
	if amountCents == 0 {
		return 0, nil
	}

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

	var locked int64
	if err := tx.QueryRowContext(ctx, `
		SELECT id FROM players WHERE id = $1 FOR UPDATE
	`, playerID).Scan(&locked); err != nil {
		_ = tx.Rollback()
		return 0, ErrPlayerNotFound
	}

	var balance int64
	if err := tx.QueryRowContext(ctx, balanceQuery, playerID).Scan(&balance); err != nil {
		_ = tx.Rollback()
		return 0, fmt.Errorf("failed to compute balance: %w", err)
	}
	if balance < amountCents {
		_ = tx.Rollback()
		return 0, ErrInsufficientFunds
	}

	var id int64
	if err := tx.QueryRowContext(ctx, `
		INSERT INTO ledger_entries (player_id, kind, amount_cents, description, origin_registration_id)
		VALUES ($1, 'ADDEBITO', $2, $3, $4)
		RETURNING id
	`, playerID, amountCents, description, originRegID).Scan(&id); err != nil {
		_ = tx.Rollback()
		return 0, fmt.Errorf("failed to insert debit entry: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit debit: %w", err)
	}
	return id, nil
}

// Credit appends a RICARICA entry unconditionally.
func (r *repository) Credit(ctx context.Context, playerID, amountCents int64, description string, originRegID *int64) (int64, error) {
	if amountCents <= 0 {
		return 0, fmt.Errorf("credit amount must be positive")
	}

	var exists bool
	if err := r.db.QueryRowContext(ctx, `
		SELECT EXISTS(SELECT 1 FROM players WHERE id = $1)
	`, playerID).Scan(&exists); err != nil {
		return 0, fmt.Errorf("failed to check player: %w", err)
	}
	if !exists {
		return 0, ErrPlayerNotFound
	}

	var id int64
	if err := r.db.QueryRowContext(ctx, `
		INSERT INTO ledger_entries (player_id, kind, amount_cents, description, origin_registration_id)
		VALUES ($1, 'RICARICA', $2, $3, $4)
		RETURNING id
	`, playerID, amountCents, description, originRegID).Scan(&id); err != nil {
		return 0, fmt.Errorf("failed to insert credit entry: %w", err)
	}
	return id, nil
}

// RefundOnce credits back the ADDEBITO entry that references the origin
// registration, at most once. Returns false when nothing was charged for
// that origin or a refund already exists. The player row lock serializes
// concurrent refund attempts for the same origin.
func (r *repository) RefundOnce(ctx context.Context, originRegID int64, description string) (bool, error) {
	tx, err := r.db.Master.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("failed to start transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	var playerID, amountCents int64
	err = tx.QueryRowContext(ctx, `
		SELECT player_id, amount_cents
		FROM ledger_entries
		WHERE kind = 'ADDEBITO' AND origin_registration_id = $1
		ORDER BY id
		LIMIT 1
	`, originRegID).Scan(&playerID, &amountCents)
	if err != nil {
		_ = tx.Rollback()
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("failed to find charged fee: %w", err)
	}

	var locked int64
	if err := tx.QueryRowContext(ctx, `
		SELECT id FROM players WHERE id = $1 FOR UPDATE
	`, playerID).Scan(&locked); err != nil {
		_ = tx.Rollback()
		return false, ErrPlayerNotFound
	}

	var refunded bool
	if err := tx.QueryRowContext(ctx, `
		SELECT EXISTS(
			SELECT 1 FROM ledger_entries
			WHERE kind = 'RICARICA' AND origin_registration_id = $1
		)
	`, originRegID).Scan(&refunded); err != nil {
		_ = tx.Rollback()
		return false, fmt.Errorf("failed to check existing refund: %w", err)
	}
	if refunded {
		_ = tx.Rollback()
		return false, nil
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO ledger_entries (player_id, kind, amount_cents, description, origin_registration_id)
		VALUES ($1, 'RICARICA', $2, $3, $4)
	`, playerID, amountCents, description, originRegID); err != nil {
		_ = tx.Rollback()
		return false, fmt.Errorf("failed to insert refund entry: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit refund: %w", err)
	}
	return true, nil
}

// Balance is always the fold over the entry history, never a stored counter.
func (r *repository) Balance(ctx context.Context, playerID int64) (int64, error) {
	var exists bool
	if err := r.db.QueryRowContext(ctx, `
		SELECT EXISTS(SELECT 1 FROM players WHERE id = $1)
	`, playerID).Scan(&exists); err != nil {
		return 0, fmt.Errorf("failed to check player: %w", err)
	}
	if !exists {
		return 0, ErrPlayerNotFound
	}

	var balance int64
	if err := r.db.QueryRowContext(ctx, balanceQuery, playerID).Scan(&balance); err != nil {
		return 0, fmt.Errorf("failed to compute balance: %w", err)
	}
	return balance, nil
}

func (r *repository) LedgerEntries(ctx context.Context, playerID int64) ([]model.LedgerEntry, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, player_id, kind, amount_cents, description, origin_registration_id, created_at
		FROM ledger_entries
		WHERE player_id = $1
		ORDER BY created_at DESC, id DESC
	`, playerID)
	if err != nil {
		return nil, fmt.Errorf("failed to get ledger entries: %w", err)
	}
	defer rows.Close()

	var entries []model.LedgerEntry
	for rows.Next() {
		var e model.LedgerEntry
		if err := rows.Scan(
			&e.ID,
			&e.PlayerID,
			&e.Kind,
			&e.AmountCents,
			&e.Description,
			&e.OriginRegID,
			&e.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan ledger entry: %w", err)
		}
		entries = append(entries, e)
	}

	return entries, nil
}
