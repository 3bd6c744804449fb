// Package engine owns the registration state machine. It is the only
// component that mutates seat occupancy or the wallet ledger as a side
// effect of a registration change.
package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"circolo/internal/model"
	"circolo/internal/repo"
)

var (
	ErrDuplicateRegistration = errors.New("player already registered for this tournament")
	ErrCertificateExpired    = errors.New("medical certificate expired")
	ErrTournamentClosed      = errors.New("tournament already completed")
	ErrTurnoMismatch         = errors.New("turno does not belong to the tournament")
	ErrBackupEqualsPrimary   = errors.New("backup turno must differ from primary")
	ErrInvalidTransition     = errors.New("invalid registration state transition")
)

type Engine struct {
	repo repo.Repository
	log  *zerolog.Logger
	now  func() time.Time
}

func New(r repo.Repository, log *zerolog.Logger) *Engine {
	return &Engine{
		repo: r,
		log:  log,
		now:  time.Now,
	}
}

// Register creates a PENDENTE registration. Seats are reserved before the
// fee is debited; any step failure runs the compensations already collected
// in reverse order, so a failed attempt leaves every counter untouched.
func (e *Engine) Register(ctx context.Context, playerID, tournamentID, turnoID int64, backupTurnoID *int64, note string) (*model.Registration, error) {
	player, err := e.repo.GetPlayerByID(ctx, playerID)
	if err != nil {
		return nil, err
	}
	if player.CertificateExpiry != nil && player.CertificateExpiry.Before(e.now()) {
		return nil, ErrCertificateExpired
	}

	tournament, err := e.repo.GetTournamentByID(ctx, tournamentID)
	if err != nil {
		return nil, err
	}
	if tournament.Status == model.TournamentCompleted {
		return nil, ErrTournamentClosed
	}

	if err := e.checkTurno(ctx, tournamentID, turnoID); err != nil {
		return nil, err
	}
	if backupTurnoID != nil {
		if *backupTurnoID == turnoID {
			return nil, ErrBackupEqualsPrimary
		}
		if err := e.checkTurno(ctx, tournamentID, *backupTurnoID); err != nil {
			return nil, err
		}
	}

	duplicate, err := e.repo.HasActiveRegistration(ctx, playerID, tournamentID)
	if err != nil {
		return nil, err
	}
	if duplicate {
		return nil, ErrDuplicateRegistration
	}

	var compensations []func(context.Context)
	rollback := func() {
		for i := len(compensations) - 1; i >= 0; i-- {
			compensations[i](ctx)
		}
	}

	if err := e.repo.ReserveSeat(ctx, turnoID); err != nil {
		return nil, err
	}
	compensations = append(compensations, func(ctx context.Context) {
		if err := e.repo.ReleaseSeat(ctx, turnoID); err != nil {
			e.log.Error().Err(err).Int64("turno_id", turnoID).Msg("compensating seat release failed")
		}
	})

	if backupTurnoID != nil {
		if err := e.repo.ReserveSeat(ctx, *backupTurnoID); err != nil {
			rollback()
			return nil, err
		}
		backup := *backupTurnoID
		compensations = append(compensations, func(ctx context.Context) {
			if err := e.repo.ReleaseSeat(ctx, backup); err != nil {
				e.log.Error().Err(err).Int64("turno_id", backup).Msg("compensating seat release failed")
			}
		})
	}

	reg := &model.Registration{
		PlayerID:      playerID,
		TournamentID:  tournamentID,
		TurnoID:       turnoID,
		BackupTurnoID: backupTurnoID,
		Stato:         model.StatoPendente,
		Note:          note,
	}
	regID, err := e.repo.InsertRegistration(ctx, reg)
	if err != nil {
		rollback()
		if errors.Is(err, repo.ErrRegistrationExists) {
			return nil, ErrDuplicateRegistration
		}
		return nil, err
	}
	compensations = append(compensations, func(ctx context.Context) {
		if err := e.repo.DeleteRegistration(ctx, regID); err != nil {
			e.log.Error().Err(err).Int64("registration_id", regID).Msg("compensating registration delete failed")
		}
	})

	if tournament.FeeCents > 0 {
		description := fmt.Sprintf("Iscrizione torneo %q (registrazione #%d)", tournament.Name, regID)
		if _, err := e.repo.Debit(ctx, playerID, tournament.FeeCents, description, &regID); err != nil {
			rollback()
			return nil, err
		}
	}

	e.log.Info().
		Int64("registration_id", regID).
		Int64("player_id", playerID).
		Int64("tournament_id", tournamentID).
		Msg("registration created")
	return e.repo.GetRegistrationByID(ctx, regID)
}

// SetStato applies a staff state change. Moving to RIFIUTATA claims the
// transition and releases the held seats atomically, then refunds the fee at
// most once; CONFERMATA and MODIFICATA carry no side effects because the
// seats are held since creation. PENDENTE is the creation state and is not a
// valid target.
func (e *Engine) SetStato(ctx context.Context, regID int64, stato string) (*model.Registration, error) {
	if !model.ValidStato(stato) || stato == model.StatoPendente {
		return nil, ErrInvalidTransition
	}

	if stato == model.StatoRifiutata {
		return e.reject(ctx, regID)
	}

	reg, err := e.repo.GetRegistrationByID(ctx, regID)
	if err != nil {
		return nil, err
	}
	if reg.Stato == model.StatoRifiutata {
		return nil, ErrInvalidTransition
	}

	if err := e.repo.UpdateRegistrationStato(ctx, regID, stato); err != nil {
		return nil, err
	}

	e.log.Info().
		Int64("registration_id", regID).
		Str("stato", stato).
		Msg("registration stato updated")
	return e.repo.GetRegistrationByID(ctx, regID)
}

// reject flips the registration to RIFIUTATA. Only the claim winner gets the
// seats back, so racing rejections cannot release one seat twice. The refund
// runs on every call: RefundOnce is idempotent, which lets a rejection whose
// refund failed be retried by repeating it.
func (e *Engine) reject(ctx context.Context, regID int64) (*model.Registration, error) {
	reg, claimed, err := e.repo.MarkRifiutata(ctx, regID)
	if err != nil {
		return nil, err
	}
	if claimed {
		e.log.Info().
			Int64("registration_id", regID).
			Msg("registration rejected, seats released")
	}

	if err := e.refundFee(ctx, reg); err != nil {
		return nil, err
	}
	return reg, nil
}

// ChangeTurno moves the registration to another slot of the same
// tournament. The new seat is reserved before the old one is released, so a
// full target slot leaves the original seat intact.
func (e *Engine) ChangeTurno(ctx context.Context, regID, newTurnoID int64) (*model.Registration, error) {
	reg, err := e.repo.GetRegistrationByID(ctx, regID)
	if err != nil {
		return nil, err
	}
	if reg.Stato == model.StatoRifiutata {
		return nil, ErrInvalidTransition
	}
	if newTurnoID == reg.TurnoID {
		return reg, nil
	}
	if reg.BackupTurnoID != nil && newTurnoID == *reg.BackupTurnoID {
		return nil, ErrBackupEqualsPrimary
	}
	if err := e.checkTurno(ctx, reg.TournamentID, newTurnoID); err != nil {
		return nil, err
	}

	if err := e.repo.ReserveSeat(ctx, newTurnoID); err != nil {
		return nil, err
	}

	if err := e.repo.UpdateRegistrationTurno(ctx, regID, newTurnoID); err != nil {
		if relErr := e.repo.ReleaseSeat(ctx, newTurnoID); relErr != nil {
			e.log.Error().Err(relErr).Int64("turno_id", newTurnoID).Msg("compensating seat release failed")
		}
		return nil, err
	}
	if err := e.repo.ReleaseSeat(ctx, reg.TurnoID); err != nil {
		return nil, err
	}

	if err := e.repo.UpdateRegistrationStato(ctx, regID, model.StatoModificata); err != nil {
		return nil, err
	}

	e.log.Info().
		Int64("registration_id", regID).
		Int64("old_turno_id", reg.TurnoID).
		Int64("new_turno_id", newTurnoID).
		Msg("registration moved to another turno")
	return e.repo.GetRegistrationByID(ctx, regID)
}

// Cancel runs the rejection side effects and then removes the row.
// Cancelling an already-absent registration is a no-op success.
func (e *Engine) Cancel(ctx context.Context, regID int64) error {
	if _, err := e.reject(ctx, regID); err != nil {
		if errors.Is(err, repo.ErrRegistrationNotFound) {
			return nil
		}
		return err
	}

	if err := e.repo.DeleteRegistration(ctx, regID); err != nil {
		return err
	}

	e.log.Info().Int64("registration_id", regID).Msg("registration cancelled")
	return nil
}

func (e *Engine) checkTurno(ctx context.Context, tournamentID, turnoID int64) error {
	turno, err := e.repo.GetTurnoByID(ctx, turnoID)
	if err != nil {
		return err
	}
	if turno.TournamentID != tournamentID {
		return ErrTurnoMismatch
	}
	return nil
}

func (e *Engine) refundFee(ctx context.Context, reg *model.Registration) error {
	tournament, err := e.repo.GetTournamentByID(ctx, reg.TournamentID)
	if err != nil {
		return err
	}

	description := fmt.Sprintf("Rimborso quota torneo %q (registrazione #%d)", tournament.Name, reg.ID)
	refunded, err := e.repo.RefundOnce(ctx, reg.ID, description)
	if err != nil {
		return err
	}
	if refunded {
		e.log.Info().
			Int64("registration_id", reg.ID).
			Int64("player_id", reg.PlayerID).
			Msg("fee refunded")
	}
	return nil
}
