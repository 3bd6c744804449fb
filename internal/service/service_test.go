package service

import (
	"errors"
	"testing"

	"circolo/internal/dto"
	"circolo/internal/engine"
	"circolo/internal/repo"
)

func TestFailureResponseMapping(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"slot exhausted", repo.ErrSlotExhausted, 409, dto.SlotExhausted},
		{"insufficient funds", repo.ErrInsufficientFunds, 409, dto.InsufficientFunds},
		{"duplicate registration", engine.ErrDuplicateRegistration, 409, dto.RegistrationDuplicate},
		{"certificate expired", engine.ErrCertificateExpired, 409, dto.CertificateExpired},
		{"tournament closed", engine.ErrTournamentClosed, 409, dto.TournamentClosed},
		{"player not found", repo.ErrPlayerNotFound, 404, dto.PlayerNotFound},
		{"tournament not found", repo.ErrTournamentNotFound, 404, dto.TournamentNotFound},
		{"turno not found", repo.ErrTurnoNotFound, 404, dto.TurnoNotFound},
		{"registration not found", repo.ErrRegistrationNotFound, 404, dto.RegistrationNotFound},
		{"turno mismatch", engine.ErrTurnoMismatch, 400, dto.FieldIncorrect},
		{"backup equals primary", engine.ErrBackupEqualsPrimary, 400, dto.FieldIncorrect},
		{"invalid transition", engine.ErrInvalidTransition, 400, dto.FieldIncorrect},
		{"unknown error", errors.New("boom"), 500, dto.ServiceUnavailable},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			status, code, _ := failureResponse(tc.err)
			if status != tc.status || code != tc.code {
				t.Fatalf("failureResponse(%v) = (%d, %s), want (%d, %s)", tc.err, status, code, tc.status, tc.code)
			}
		})
	}
}

func TestFailureResponsePreservesWrappedErrors(t *testing.T) {
	wrapped := errors.Join(errors.New("while rejecting"), repo.ErrInsufficientFunds)
	status, code, _ := failureResponse(wrapped)
	if status != 409 || code != dto.InsufficientFunds {
		t.Fatalf("wrapped error mapped to (%d, %s), want (409, %s)", status, code, dto.InsufficientFunds)
	}
}
