package service

import (
	"fmt"
	"strconv"

	"circolo/internal/dto"
	"circolo/internal/model"
	"circolo/pkg/validator"

	"github.com/wb-go/wbf/ginext"
)

func (s *service) CreatePlayer(ctx *ginext.Context) {
	var req dto.CreatePlayerRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		dto.BadResponseError(ctx, dto.FieldIncorrect, "Invalid JSON format")
		return
	}
	if verr := validator.Validate(ctx, req); verr != nil {
		dto.BadResponseError(ctx, dto.FieldIncorrect, fmt.Sprintf("%v", verr))
		return
	}

	player := &model.Player{
		FullName:          req.FullName,
		Email:             req.Email,
		FisbNumber:        req.FisbNumber,
		CertificateExpiry: req.CertificateExpiry,
	}
	id, err := s.repo.CreatePlayer(ctx.Request.Context(), player)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to create player")
		dto.InternalServerError(ctx)
		return
	}

	s.log.Info().Int64("player_id", id).Msg("player created")
	dto.SuccessCreatedResponse(ctx, map[string]any{"id": id})
}

func (s *service) GetPlayerRegistrations(ctx *ginext.Context) {
	playerID, err := strconv.ParseInt(ctx.Param("id"), 10, 64)
	if err != nil {
		dto.BadResponseError(ctx, dto.FieldIncorrect, "Invalid player ID")
		return
	}

	if _, err := s.repo.GetPlayerByID(ctx.Request.Context(), playerID); err != nil {
		s.writeFailure(ctx, err)
		return
	}

	regs, err := s.repo.GetRegistrationsByPlayerID(ctx.Request.Context(), playerID)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to get player registrations")
		dto.InternalServerError(ctx)
		return
	}

	resp := make([]dto.RegistrationResponse, 0, len(regs))
	for i := range regs {
		resp = append(resp, registrationResponse(&regs[i]))
	}
	dto.SuccessResponse(ctx, resp)
}

func (s *service) CreateTournament(ctx *ginext.Context) {
	var req dto.CreateTournamentRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		dto.BadResponseError(ctx, dto.FieldIncorrect, "Invalid JSON format")
		return
	}
	if verr := validator.Validate(ctx, req); verr != nil {
		dto.BadResponseError(ctx, dto.FieldIncorrect, fmt.Sprintf("%v", verr))
		return
	}

	tournament := &model.Tournament{
		Name:     req.Name,
		FeeCents: req.FeeCents,
		Status:   model.TournamentOpen,
	}
	turni := make([]model.Turno, 0, len(req.Turni))
	for _, t := range req.Turni {
		turni = append(turni, model.Turno{
			Day:        t.Day,
			StartTime:  t.StartTime,
			EndTime:    t.EndTime,
			TotalSeats: t.TotalSeats,
		})
	}

	id, err := s.repo.CreateTournament(ctx.Request.Context(), tournament, turni)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to create tournament")
		dto.InternalServerError(ctx)
		return
	}

	s.log.Info().Int64("tournament_id", id).Msg("tournament created")
	dto.SuccessCreatedResponse(ctx, map[string]any{"id": id, "turni": turni})
}

func (s *service) GetTournament(ctx *ginext.Context) {
	tournamentID, err := strconv.ParseInt(ctx.Param("id"), 10, 64)
	if err != nil {
		dto.BadResponseError(ctx, dto.FieldIncorrect, "Invalid tournament ID")
		return
	}

	tournament, err := s.repo.GetTournamentByID(ctx.Request.Context(), tournamentID)
	if err != nil {
		s.writeFailure(ctx, err)
		return
	}

	turni, err := s.repo.GetTurniByTournamentID(ctx.Request.Context(), tournamentID)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to get turni")
		dto.InternalServerError(ctx)
		return
	}

	resp := map[string]any{
		"tournament": tournament,
		"turni":      turni,
	}

	if ctx.Query("admin") == "true" {
		regs, err := s.repo.GetRegistrationsByTournamentID(ctx.Request.Context(), tournamentID)
		if err != nil {
			s.log.Error().Err(err).Msg("failed to get registrations for admin view")
			dto.InternalServerError(ctx)
			return
		}
		list := make([]dto.RegistrationResponse, 0, len(regs))
		for i := range regs {
			list = append(list, registrationResponse(&regs[i]))
		}
		resp["registrations"] = list
	}

	dto.SuccessResponse(ctx, resp)
}

func (s *service) GetAllTournaments(ctx *ginext.Context) {
	tournaments, err := s.repo.GetAllTournaments(ctx.Request.Context())
	if err != nil {
		s.log.Error().Err(err).Msg("failed to get tournaments")
		dto.InternalServerError(ctx)
		return
	}
	dto.SuccessResponse(ctx, tournaments)
}
