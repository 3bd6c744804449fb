package repo

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/wb-go/wbf/dbpg"

	"circolo/internal/model"
)

var (
	ErrPlayerNotFound       = errors.New("player not found")
	ErrTournamentNotFound   = errors.New("tournament not found")
	ErrTurnoNotFound        = errors.New("turno not found")
	ErrRegistrationNotFound = errors.New("registration not found")
	ErrSlotExhausted        = errors.New("no seats left in turno")
	ErrInsufficientFunds    = errors.New("insufficient wallet balance")
	ErrRegistrationExists   = errors.New("active registration already exists")
)

type Repository interface {
	CreatePlayer(ctx context.Context, p *model.Player) (int64, error)
	GetPlayerByID(ctx context.Context, id int64) (*model.Player, error)

	CreateTournament(ctx context.Context, t *model.Tournament, turni []model.Turno) (int64, error)
	GetTournamentByID(ctx context.Context, id int64) (*model.Tournament, error)
	GetAllTournaments(ctx context.Context) ([]model.Tournament, error)
	GetTurnoByID(ctx context.Context, id int64) (*model.Turno, error)
	GetTurniByTournamentID(ctx context.Context, tournamentID int64) ([]model.Turno, error)

	ReserveSeat(ctx context.Context, turnoID int64) error
	ReleaseSeat(ctx context.Context, turnoID int64) error

	Debit(ctx context.Context, playerID, amountCents int64, description string, originRegID *int64) (int64, error)
	Credit(ctx context.Context, playerID, amountCents int64, description string, originRegID *int64) (int64, error)
	RefundOnce(ctx context.Context, originRegID int64, description string) (bool, error)
	Balance(ctx context.Context, playerID int64) (int64, error)
	LedgerEntries(ctx context.Context, playerID int64) ([]model.LedgerEntry, error)

	InsertRegistration(ctx context.Context, reg *model.Registration) (int64, error)
	GetRegistrationByID(ctx context.Context, id int64) (*model.Registration, error)
	HasActiveRegistration(ctx context.Context, playerID, tournamentID int64) (bool, error)
	UpdateRegistrationStato(ctx context.Context, id int64, stato string) error
	UpdateRegistrationTurno(ctx context.Context, id, turnoID int64) error
	MarkRifiutata(ctx context.Context, id int64) (*model.Registration, bool, error)
	DeleteRegistration(ctx context.Context, id int64) error
	GetRegistrationsByTournamentID(ctx context.Context, tournamentID int64) ([]model.Registration, error)
	GetRegistrationsByPlayerID(ctx context.Context, playerID int64) ([]model.Registration, error)

	MigrateUp(migrationsDir string) error
	MigrateDown(migrationsDir string) error
}

type repository struct {
	db  *dbpg.DB
	log *zerolog.Logger
}

func NewRepository(db *dbpg.DB, log *zerolog.Logger) (Repository, error) {
	if db == nil {
		return nil, fmt.Errorf("db cannot be nil")
	}
	if err := db.Master.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping DB: %w", err)
	}
	return &repository{db: db, log: log}, nil
}

func (r *repository) MigrateUp(migrationsDir string) error {
	return r.applyMigrations(migrationsDir, "*.up.sql")
}

func (r *repository) MigrateDown(migrationsDir string) error {
	return r.applyMigrations(migrationsDir, "*.down.sql")
}

func (r *repository) applyMigrations(migrationsDir, pattern string) error {
	files, err := filepath.Glob(filepath.Join(migrationsDir, pattern))
	if err != nil {
		return fmt.Errorf("failed to read migration files: %w", err)
	}

	for _, file := range files {
		sqlBytes, err := os.ReadFile(file)
		if err != nil {
			return fmt.Errorf("failed to read migration file %s: %w", file, err)
		}

		if _, err := r.db.ExecContext(context.Background(), string(sqlBytes)); err != nil {
			return fmt.Errorf("failed to apply migration %s: %w", file, err)
		}
	}

	r.log.Info().Msgf("Migrations %s applied from %s", pattern, migrationsDir)
	return nil
}
