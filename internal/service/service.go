package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/rs/zerolog"
	"github.com/wb-go/wbf/ginext"

	"circolo/internal/dto"
	"circolo/internal/engine"
	"circolo/internal/model"
	"circolo/internal/rabbit"
	"circolo/internal/repo"
	"circolo/pkg/validator"
)

// Admissions is the slice of the registration engine the handlers need.
type Admissions interface {
	Register(ctx context.Context, playerID, tournamentID, turnoID int64, backupTurnoID *int64, note string) (*model.Registration, error)
	SetStato(ctx context.Context, regID int64, stato string) (*model.Registration, error)
	ChangeTurno(ctx context.Context, regID, newTurnoID int64) (*model.Registration, error)
	Cancel(ctx context.Context, regID int64) error
}

type Service interface {
	Register(ctx *ginext.Context)
	SetStato(ctx *ginext.Context)
	ChangeTurno(ctx *ginext.Context)
	CancelRegistration(ctx *ginext.Context)
	GetAvailability(ctx *ginext.Context)

	GetWallet(ctx *ginext.Context)
	Ricarica(ctx *ginext.Context)
	Addebito(ctx *ginext.Context)

	CreatePlayer(ctx *ginext.Context)
	GetPlayerRegistrations(ctx *ginext.Context)
	CreateTournament(ctx *ginext.Context)
	GetTournament(ctx *ginext.Context)
	GetAllTournaments(ctx *ginext.Context)
}

type service struct {
	engine Admissions
	repo   repo.Repository
	log    *zerolog.Logger
	rbt    *rabbit.Client
}

func NewService(eng Admissions, repo repo.Repository, logger *zerolog.Logger, rbt *rabbit.Client) Service {
	return &service{
		engine: eng,
		repo:   repo,
		log:    logger,
		rbt:    rbt,
	}
}

// failureResponse maps a domain error to an HTTP status and error code.
func failureResponse(err error) (int, string, string) {
	switch {
	case errors.Is(err, repo.ErrSlotExhausted):
		return 409, dto.SlotExhausted, "No seats left in the requested turno"
	case errors.Is(err, repo.ErrInsufficientFunds):
		return 409, dto.InsufficientFunds, "Wallet balance is too low"
	case errors.Is(err, engine.ErrDuplicateRegistration):
		return 409, dto.RegistrationDuplicate, "Player is already registered for this tournament"
	case errors.Is(err, engine.ErrCertificateExpired):
		return 409, dto.CertificateExpired, "Medical certificate has expired"
	case errors.Is(err, engine.ErrTournamentClosed):
		return 409, dto.TournamentClosed, "Tournament is already completed"
	case errors.Is(err, repo.ErrPlayerNotFound):
		return 404, dto.PlayerNotFound, "Player not found"
	case errors.Is(err, repo.ErrTournamentNotFound):
		return 404, dto.TournamentNotFound, "Tournament not found"
	case errors.Is(err, repo.ErrTurnoNotFound):
		return 404, dto.TurnoNotFound, "Turno not found"
	case errors.Is(err, repo.ErrRegistrationNotFound):
		return 404, dto.RegistrationNotFound, "Registration not found"
	case errors.Is(err, engine.ErrTurnoMismatch),
		errors.Is(err, engine.ErrBackupEqualsPrimary),
		errors.Is(err, engine.ErrInvalidTransition):
		return 400, dto.FieldIncorrect, err.Error()
	}
	return 500, dto.ServiceUnavailable, dto.InternalError
}

func (s *service) writeFailure(ctx *ginext.Context, err error) {
	status, code, desc := failureResponse(err)
	switch status {
	case 409:
		dto.ConflictResponseError(ctx, code, desc)
	case 404:
		dto.NotFoundResponseError(ctx, code, desc)
	case 400:
		dto.BadResponseError(ctx, code, desc)
	default:
		s.log.Error().Err(err).Msg("request failed")
		dto.InternalServerError(ctx)
	}
}

func (s *service) Register(ctx *ginext.Context) {
	var req dto.CreateRegistrationRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		dto.BadResponseError(ctx, dto.FieldIncorrect, "Invalid JSON format")
		return
	}
	if verr := validator.Validate(ctx, req); verr != nil {
		dto.BadResponseError(ctx, dto.FieldIncorrect, fmt.Sprintf("%v", verr))
		return
	}

	reg, err := s.engine.Register(ctx.Request.Context(), req.PlayerID, req.TournamentID, req.TurnoID, req.BackupTurnoID, req.Note)
	if err != nil {
		s.writeFailure(ctx, err)
		return
	}

	s.notify(reg)
	dto.SuccessCreatedResponse(ctx, registrationResponse(reg))
}

func (s *service) SetStato(ctx *ginext.Context) {
	regID, err := strconv.ParseInt(ctx.Param("id"), 10, 64)
	if err != nil {
		dto.BadResponseError(ctx, dto.FieldIncorrect, "Invalid registration ID")
		return
	}

	var req dto.UpdateStatoRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		dto.BadResponseError(ctx, dto.FieldIncorrect, "Invalid JSON format")
		return
	}
	if verr := validator.Validate(ctx, req); verr != nil {
		dto.BadResponseError(ctx, dto.FieldIncorrect, fmt.Sprintf("%v", verr))
		return
	}

	reg, err := s.engine.SetStato(ctx.Request.Context(), regID, req.Stato)
	if err != nil {
		s.writeFailure(ctx, err)
		return
	}

	s.notify(reg)
	dto.SuccessResponse(ctx, registrationResponse(reg))
}

func (s *service) ChangeTurno(ctx *ginext.Context) {
	regID, err := strconv.ParseInt(ctx.Param("id"), 10, 64)
	if err != nil {
		dto.BadResponseError(ctx, dto.FieldIncorrect, "Invalid registration ID")
		return
	}

	var req dto.ChangeTurnoRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		dto.BadResponseError(ctx, dto.FieldIncorrect, "Invalid JSON format")
		return
	}
	if verr := validator.Validate(ctx, req); verr != nil {
		dto.BadResponseError(ctx, dto.FieldIncorrect, fmt.Sprintf("%v", verr))
		return
	}

	reg, err := s.engine.ChangeTurno(ctx.Request.Context(), regID, req.TurnoID)
	if err != nil {
		s.writeFailure(ctx, err)
		return
	}

	s.notify(reg)
	dto.SuccessResponse(ctx, registrationResponse(reg))
}

func (s *service) CancelRegistration(ctx *ginext.Context) {
	regID, err := strconv.ParseInt(ctx.Param("id"), 10, 64)
	if err != nil {
		dto.BadResponseError(ctx, dto.FieldIncorrect, "Invalid registration ID")
		return
	}

	// Fetched before deletion so the notification still has the parties.
	reg, err := s.repo.GetRegistrationByID(ctx.Request.Context(), regID)
	if err != nil && !errors.Is(err, repo.ErrRegistrationNotFound) {
		s.writeFailure(ctx, err)
		return
	}

	if err := s.engine.Cancel(ctx.Request.Context(), regID); err != nil {
		s.writeFailure(ctx, err)
		return
	}

	if reg != nil {
		reg.Stato = model.StatoRifiutata
		s.notify(reg)
	}
	dto.SuccessResponse(ctx, map[string]any{"id": regID})
}

func (s *service) GetAvailability(ctx *ginext.Context) {
	tournamentID, err := strconv.ParseInt(ctx.Param("id"), 10, 64)
	if err != nil {
		dto.BadResponseError(ctx, dto.FieldIncorrect, "Invalid tournament ID")
		return
	}

	if _, err := s.repo.GetTournamentByID(ctx.Request.Context(), tournamentID); err != nil {
		s.writeFailure(ctx, err)
		return
	}

	turni, err := s.repo.GetTurniByTournamentID(ctx.Request.Context(), tournamentID)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to get turni")
		dto.InternalServerError(ctx)
		return
	}

	resp := dto.AvailabilityResponse{TournamentID: tournamentID}
	for _, t := range turni {
		resp.Turni = append(resp.Turni, dto.TurnoAvailability{
			TurnoID:   t.ID,
			Day:       t.Day,
			StartTime: t.StartTime,
			Total:     t.TotalSeats,
			Occupied:  t.Occupied,
			Remaining: t.TotalSeats - t.Occupied,
		})
	}

	dto.SuccessResponse(ctx, resp)
}

func (s *service) notify(reg *model.Registration) {
	if s.rbt == nil {
		return
	}

	msg := dto.RegistrationNotifyMessage{
		RegistrationID: reg.ID,
		PlayerID:       reg.PlayerID,
		TournamentID:   reg.TournamentID,
		Stato:          reg.Stato,
	}
	payload, err := json.Marshal(msg)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to marshal notify message")
		return
	}
	if err := s.rbt.Publish(payload); err != nil {
		s.log.Error().Err(err).Msg("failed to publish notify message to RabbitMQ")
	}
}

func registrationResponse(reg *model.Registration) dto.RegistrationResponse {
	return dto.RegistrationResponse{
		ID:            reg.ID,
		PlayerID:      reg.PlayerID,
		TournamentID:  reg.TournamentID,
		TurnoID:       reg.TurnoID,
		BackupTurnoID: reg.BackupTurnoID,
		Stato:         reg.Stato,
		Note:          reg.Note,
		CreatedAt:     reg.CreatedAt,
		UpdatedAt:     reg.UpdatedAt,
	}
}
