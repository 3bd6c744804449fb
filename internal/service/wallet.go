package service

import (
	"fmt"
	"strconv"

	"circolo/internal/dto"
	"circolo/pkg/validator"

	"github.com/wb-go/wbf/ginext"
)

func (s *service) GetWallet(ctx *ginext.Context) {
	playerID, err := strconv.ParseInt(ctx.Param("id"), 10, 64)
	if err != nil {
		dto.BadResponseError(ctx, dto.FieldIncorrect, "Invalid player ID")
		return
	}

	balance, err := s.repo.Balance(ctx.Request.Context(), playerID)
	if err != nil {
		s.writeFailure(ctx, err)
		return
	}

	entries, err := s.repo.LedgerEntries(ctx.Request.Context(), playerID)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to get ledger entries")
		dto.InternalServerError(ctx)
		return
	}

	resp := dto.WalletResponse{
		PlayerID:     playerID,
		BalanceCents: balance,
		Entries:      make([]dto.LedgerEntryResponse, 0, len(entries)),
	}
	for _, e := range entries {
		resp.Entries = append(resp.Entries, dto.LedgerEntryResponse{
			ID:          e.ID,
			Kind:        e.Kind,
			AmountCents: e.AmountCents,
			Description: e.Description,
			OriginRegID: e.OriginRegID,
			CreatedAt:   e.CreatedAt,
		})
	}

	dto.SuccessResponse(ctx, resp)
}

// Ricarica records a manual staff top-up.
func (s *service) Ricarica(ctx *ginext.Context) {
	req, ok := s.bindWalletEntry(ctx)
	if !ok {
		return
	}

	id, err := s.repo.Credit(ctx.Request.Context(), req.PlayerID, req.AmountCents, req.Description, nil)
	if err != nil {
		s.writeFailure(ctx, err)
		return
	}

	s.log.Info().
		Int64("entry_id", id).
		Int64("player_id", req.PlayerID).
		Int64("amount_cents", req.AmountCents).
		Msg("manual ricarica recorded")
	dto.SuccessCreatedResponse(ctx, map[string]any{"entry_id": id})
}

// Addebito records a manual staff charge, subject to the same
// balance-sufficiency rule as registration fees.
func (s *service) Addebito(ctx *ginext.Context) {
	req, ok := s.bindWalletEntry(ctx)
	if !ok {
		return
	}

	id, err := s.repo.Debit(ctx.Request.Context(), req.PlayerID, req.AmountCents, req.Description, nil)
	if err != nil {
		s.writeFailure(ctx, err)
		return
	}

	s.log.Info().
		Int64("entry_id", id).
		Int64("player_id", req.PlayerID).
		Int64("amount_cents", req.AmountCents).
		Msg("manual addebito recorded")
	dto.SuccessCreatedResponse(ctx, map[string]any{"entry_id": id})
}

func (s *service) bindWalletEntry(ctx *ginext.Context) (dto.WalletEntryRequest, bool) {
	var req dto.WalletEntryRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		dto.BadResponseError(ctx, dto.FieldIncorrect, "Invalid JSON format")
		return req, false
	}
	if verr := validator.Validate(ctx, req); verr != nil {
		dto.BadResponseError(ctx, dto.FieldIncorrect, fmt.Sprintf("%v", verr))
		return req, false
	}
	return req, true
}
