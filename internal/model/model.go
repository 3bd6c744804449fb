package model

import "time"

const (
	StatoPendente   = "PENDENTE"
	StatoConfermata = "CONFERMATA"
	StatoModificata = "MODIFICATA"
	StatoRifiutata  = "RIFIUTATA"
)

const (
	KindRicarica = "RICARICA"
	KindAddebito = "ADDEBITO"
)

const (
	TournamentOpen      = "open"
	TournamentCompleted = "completed"
)

type Player struct {
	ID                int64      `db:"id" json:"id"`
	FullName          string     `db:"full_name" json:"full_name"`
	Email             string     `db:"email" json:"email"`
	FisbNumber        string     `db:"fisb_number" json:"fisb_number,omitempty"`
	CertificateExpiry *time.Time `db:"certificate_expiry" json:"certificate_expiry,omitempty"`
	CreatedAt         time.Time  `db:"created_at" json:"created_at"`
}

type Tournament struct {
	ID        int64     `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	FeeCents  int64     `db:"fee_cents" json:"fee_cents"`
	Status    string    `db:"status" json:"status"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Turno is a bookable time slot of a tournament with a fixed seat count.
type Turno struct {
	ID           int64      `db:"id" json:"id"`
	TournamentID int64      `db:"tournament_id" json:"tournament_id"`
	Day          time.Time  `db:"day" json:"day"`
	StartTime    time.Time  `db:"start_time" json:"start_time"`
	EndTime      *time.Time `db:"end_time" json:"end_time,omitempty"`
	TotalSeats   int        `db:"total_seats" json:"total_seats"`
	Occupied     int        `db:"occupied" json:"occupied"`
}

type Registration struct {
	ID            int64     `db:"id" json:"id"`
	PlayerID      int64     `db:"player_id" json:"player_id"`
	TournamentID  int64     `db:"tournament_id" json:"tournament_id"`
	TurnoID       int64     `db:"turno_id" json:"turno_id"`
	BackupTurnoID *int64    `db:"backup_turno_id" json:"backup_turno_id,omitempty"`
	Stato         string    `db:"stato" json:"stato"`
	Note          string    `db:"note" json:"note,omitempty"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

// LedgerEntry is one immutable monetary record of a player's wallet.
// The sign is implied by Kind: RICARICA adds, ADDEBITO subtracts.
type LedgerEntry struct {
	ID          int64     `db:"id" json:"id"`
	PlayerID    int64     `db:"player_id" json:"player_id"`
	Kind        string    `db:"kind" json:"kind"`
	AmountCents int64     `db:"amount_cents" json:"amount_cents"`
	Description string    `db:"description" json:"description"`
	OriginRegID *int64    `db:"origin_registration_id" json:"origin_registration_id,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// SignedAmount returns the entry amount with the sign implied by its kind.
func (e LedgerEntry) SignedAmount() int64 {
	if e.Kind == KindAddebito {
		return -e.AmountCents
	}
	return e.AmountCents
}

// ValidStato reports whether s is one of the registration states.
func ValidStato(s string) bool {
	switch s {
	case StatoPendente, StatoConfermata, StatoModificata, StatoRifiutata:
		return true
	}
	return false
}
