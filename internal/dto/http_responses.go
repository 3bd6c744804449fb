package dto

import (
	"time"

	"github.com/wb-go/wbf/ginext"
)

const (
	FieldBadFormat     = "FIELD_BADFORMAT"
	FieldIncorrect     = "FIELD_INCORRECT"
	ServiceUnavailable = "SERVICE_UNAVAILABLE"
	InternalError      = "Service is currently unavailable. Please try again later."

	SlotExhausted         = "SLOT_EXHAUSTED"
	InsufficientFunds     = "INSUFFICIENT_FUNDS"
	RegistrationDuplicate = "REGISTRATION_DUPLICATE"
	CertificateExpired    = "CERTIFICATE_EXPIRED"
	TournamentClosed      = "TOURNAMENT_CLOSED"

	PlayerNotFound       = "PLAYER_NOT_FOUND"
	TournamentNotFound   = "TOURNAMENT_NOT_FOUND"
	TurnoNotFound        = "TURNO_NOT_FOUND"
	RegistrationNotFound = "REGISTRATION_NOT_FOUND"
)

type CreateRegistrationRequest struct {
	PlayerID      int64  `json:"player_id" validate:"required,gt=0"`
	TournamentID  int64  `json:"tournament_id" validate:"required,gt=0"`
	TurnoID       int64  `json:"turno_id" validate:"required,gt=0"`
	BackupTurnoID *int64 `json:"backup_turno_id,omitempty"`
	Note          string `json:"note" validate:"max=500"`
}

type UpdateStatoRequest struct {
	Stato string `json:"stato" validate:"required,stato"`
}

type ChangeTurnoRequest struct {
	TurnoID int64 `json:"turno_id" validate:"required,gt=0"`
}

type WalletEntryRequest struct {
	PlayerID    int64  `json:"player_id" validate:"required,gt=0"`
	AmountCents int64  `json:"amount_cents" validate:"required,gt=0"`
	Description string `json:"description" validate:"required,max=500"`
}

type CreatePlayerRequest struct {
	FullName          string     `json:"full_name" validate:"required,min=3,max=255"`
	Email             string     `json:"email" validate:"required,email"`
	FisbNumber        string     `json:"fisb_number" validate:"max=32"`
	CertificateExpiry *time.Time `json:"certificate_expiry,omitempty"`
}

type TurnoRequest struct {
	Day        time.Time  `json:"day" validate:"required"`
	StartTime  time.Time  `json:"start_time" validate:"required"`
	EndTime    *time.Time `json:"end_time,omitempty"`
	TotalSeats int        `json:"total_seats" validate:"required,positive"`
}

type CreateTournamentRequest struct {
	Name     string         `json:"name" validate:"required,max=255"`
	FeeCents int64          `json:"fee_cents" validate:"gte=0"`
	Turni    []TurnoRequest `json:"turni" validate:"required,min=1,dive"`
}

type RegistrationResponse struct {
	ID            int64     `json:"id"`
	PlayerID      int64     `json:"player_id"`
	TournamentID  int64     `json:"tournament_id"`
	TurnoID       int64     `json:"turno_id"`
	BackupTurnoID *int64    `json:"backup_turno_id,omitempty"`
	Stato         string    `json:"stato"`
	Note          string    `json:"note,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

type TurnoAvailability struct {
	TurnoID   int64     `json:"turno_id"`
	Day       time.Time `json:"day"`
	StartTime time.Time `json:"start_time"`
	Total     int       `json:"total"`
	Occupied  int       `json:"occupied"`
	Remaining int       `json:"remaining"`
}

type AvailabilityResponse struct {
	TournamentID int64               `json:"tournament_id"`
	Turni        []TurnoAvailability `json:"turni"`
}

type LedgerEntryResponse struct {
	ID          int64     `json:"id"`
	Kind        string    `json:"kind"`
	AmountCents int64     `json:"amount_cents"`
	Description string    `json:"description"`
	OriginRegID *int64    `json:"origin_registration_id,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

type WalletResponse struct {
	PlayerID     int64                 `json:"player_id"`
	BalanceCents int64                 `json:"balance_cents"`
	Entries      []LedgerEntryResponse `json:"entries"`
}

// RegistrationNotifyMessage is published to RabbitMQ on every registration
// state change so the notification worker can mail the player.
type RegistrationNotifyMessage struct {
	RegistrationID int64  `json:"registration_id"`
	PlayerID       int64  `json:"player_id"`
	TournamentID   int64  `json:"tournament_id"`
	Stato          string `json:"stato"`
}

type Response struct {
	Status string `json:"status"`
	Error  *Error `json:"error,omitempty"`
	Data   any    `json:"data,omitempty"`
}

type Error struct {
	Code string `json:"code"`
	Desc string `json:"desc"`
}

func BadResponseError(c *ginext.Context, code, desc string) {
	c.JSON(400, Response{
		Status: "error",
		Error: &Error{
			Code: code,
			Desc: desc,
		},
	})
}

func ConflictResponseError(c *ginext.Context, code, desc string) {
	c.JSON(409, Response{
		Status: "error",
		Error: &Error{
			Code: code,
			Desc: desc,
		},
	})
}

func NotFoundResponseError(c *ginext.Context, code, desc string) {
	c.JSON(404, Response{
		Status: "error",
		Error: &Error{
			Code: code,
			Desc: desc,
		},
	})
}

func InternalServerError(c *ginext.Context) {
	c.JSON(500, Response{
		Status: "error",
		Error: &Error{
			Code: ServiceUnavailable,
			Desc: InternalError,
		},
	})
}

func SuccessResponse(c *ginext.Context, data any) {
	c.JSON(200, Response{
		Status: "ok",
		Data:   data,
	})
}

func SuccessCreatedResponse(c *ginext.Context, data any) {
	c.JSON(201, Response{
		Status: "ok",
		Data:   data,
	})
}
