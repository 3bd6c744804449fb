package engine

import (
	"context"
	"sync"
	"time"

	"circolo/internal/model"
	"circolo/internal/repo"
)

// fakeRepo mirrors the Postgres repository semantics in memory: the mutex
// plays the role of the row locks, so reserve and debit stay conditional
// check-and-write operations.
type fakeRepo struct {
	mu            sync.Mutex
	players       map[int64]*model.Player
	tournaments   map[int64]*model.Tournament
	turni         map[int64]*model.Turno
	registrations map[int64]*model.Registration
	entries       []model.LedgerEntry
	nextRegID     int64
	nextEntryID   int64

	// beforeInsert runs inside InsertRegistration before the uniqueness
	// check, with the lock held, to stage races deterministically.
	beforeInsert func()
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		players:       make(map[int64]*model.Player),
		tournaments:   make(map[int64]*model.Tournament),
		turni:         make(map[int64]*model.Turno),
		registrations: make(map[int64]*model.Registration),
	}
}

func (f *fakeRepo) addPlayer(id int64, certificateExpiry *time.Time) {
	f.players[id] = &model.Player{
		ID:                id,
		FullName:          "Test Player",
		Email:             "player@example.com",
		CertificateExpiry: certificateExpiry,
	}
}

func (f *fakeRepo) addTournament(id, feeCents int64, status string) {
	f.tournaments[id] = &model.Tournament{ID: id, Name: "Coppa Test", FeeCents: feeCents, Status: status}
}

func (f *fakeRepo) addTurno(id, tournamentID int64, total, occupied int) {
	f.turni[id] = &model.Turno{ID: id, TournamentID: tournamentID, TotalSeats: total, Occupied: occupied}
}

func (f *fakeRepo) topUp(playerID, amountCents int64) {
	f.nextEntryID++
	f.entries = append(f.entries, model.LedgerEntry{
		ID:          f.nextEntryID,
		PlayerID:    playerID,
		Kind:        model.KindRicarica,
		AmountCents: amountCents,
		Description: "ricarica manuale",
	})
}

func (f *fakeRepo) balanceLocked(playerID int64) int64 {
	var balance int64
	for _, e := range f.entries {
		if e.PlayerID == playerID {
			balance += e.SignedAmount()
		}
	}
	return balance
}

func (f *fakeRepo) occupied(turnoID int64) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.turni[turnoID].Occupied
}

func (f *fakeRepo) entriesFor(playerID int64) []model.LedgerEntry {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.LedgerEntry
	for _, e := range f.entries {
		if e.PlayerID == playerID {
			out = append(out, e)
		}
	}
	return out
}

func (f *fakeRepo) GetPlayerByID(_ context.Context, id int64) (*model.Player, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.players[id]
	if !ok {
		return nil, repo.ErrPlayerNotFound
	}
	cp := *p
	return &cp, nil
}

func (f *fakeRepo) CreatePlayer(_ context.Context, p *model.Player) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := int64(len(f.players) + 1)
	p.ID = id
	f.players[id] = p
	return id, nil
}

func (f *fakeRepo) CreateTournament(_ context.Context, t *model.Tournament, turni []model.Turno) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := int64(len(f.tournaments) + 1)
	t.ID = id
	f.tournaments[id] = t
	for i := range turni {
		turni[i].ID = int64(len(f.turni) + 1)
		turni[i].TournamentID = id
		cp := turni[i]
		f.turni[cp.ID] = &cp
	}
	return id, nil
}

func (f *fakeRepo) GetTournamentByID(_ context.Context, id int64) (*model.Tournament, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tournaments[id]
	if !ok {
		return nil, repo.ErrTournamentNotFound
	}
	cp := *t
	return &cp, nil
}

func (f *fakeRepo) GetAllTournaments(_ context.Context) ([]model.Tournament, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.Tournament
	for _, t := range f.tournaments {
		out = append(out, *t)
	}
	return out, nil
}

func (f *fakeRepo) GetTurnoByID(_ context.Context, id int64) (*model.Turno, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.turni[id]
	if !ok {
		return nil, repo.ErrTurnoNotFound
	}
	cp := *t
	return &cp, nil
}

func (f *fakeRepo) GetTurniByTournamentID(_ context.Context, tournamentID int64) ([]model.Turno, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.Turno
	for _, t := range f.turni {
		if t.TournamentID == tournamentID {
			out = append(out, *t)
		}
	}
	return out, nil
}

func (f *fakeRepo) ReserveSeat(_ context.Context, turnoID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.turni[turnoID]
	if !ok {
		return repo.ErrTurnoNotFound
	}
	if t.Occupied >= t.TotalSeats {
		return repo.ErrSlotExhausted
	}
	t.Occupied++
	return nil
}

func (f *fakeRepo) ReleaseSeat(_ context.Context, turnoID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if t, ok := f.turni[turnoID]; ok && t.Occupied > 0 {
		t.Occupied--
	}
	return nil
}

func (f *fakeRepo) Debit(_ context.Context, playerID, amountCents int64, description string, originRegID *int64) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.players[playerID]; !ok {
		return 0, repo.ErrPlayerNotFound
	}
	if amountCents == 0 {
		return 0, nil
	}
	if f.balanceLocked(playerID) < amountCents {
		return 0, repo.ErrInsufficientFunds
	}
	f.nextEntryID++
	f.entries = append(f.entries, model.LedgerEntry{
		ID:          f.nextEntryID,
		PlayerID:    playerID,
		Kind:        model.KindAddebito,
		AmountCents: amountCents,
		Description: description,
		OriginRegID: originRegID,
	})
	return f.nextEntryID, nil
}

func (f *fakeRepo) Credit(_ context.Context, playerID, amountCents int64, description string, originRegID *int64) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.players[playerID]; !ok {
		return 0, repo.ErrPlayerNotFound
	}
	f.nextEntryID++
	f.entries = append(f.entries, model.LedgerEntry{
		ID:          f.nextEntryID,
		PlayerID:    playerID,
		Kind:        model.KindRicarica,
		AmountCents: amountCents,
		Description: description,
		OriginRegID: originRegID,
	})
	return f.nextEntryID, nil
}

func (f *fakeRepo) RefundOnce(_ context.Context, originRegID int64, description string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var debit *model.LedgerEntry
	for i := range f.entries {
		e := &f.entries[i]
		if e.OriginRegID == nil || *e.OriginRegID != originRegID {
			continue
		}
		if e.Kind == model.KindRicarica {
			return false, nil
		}
		if debit == nil {
			debit = e
		}
	}
	if debit == nil {
		return false, nil
	}
	f.nextEntryID++
	origin := originRegID
	f.entries = append(f.entries, model.LedgerEntry{
		ID:          f.nextEntryID,
		PlayerID:    debit.PlayerID,
		Kind:        model.KindRicarica,
		AmountCents: debit.AmountCents,
		Description: description,
		OriginRegID: &origin,
	})
	return true, nil
}

func (f *fakeRepo) Balance(_ context.Context, playerID int64) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.players[playerID]; !ok {
		return 0, repo.ErrPlayerNotFound
	}
	return f.balanceLocked(playerID), nil
}

func (f *fakeRepo) LedgerEntries(_ context.Context, playerID int64) ([]model.LedgerEntry, error) {
	return f.entriesFor(playerID), nil
}

func (f *fakeRepo) InsertRegistration(_ context.Context, reg *model.Registration) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.beforeInsert != nil {
		f.beforeInsert()
	}
	// Same guarantee as the partial unique index on (player_id, tournament_id).
	for _, existing := range f.registrations {
		if existing.PlayerID == reg.PlayerID && existing.TournamentID == reg.TournamentID && existing.Stato != model.StatoRifiutata {
			return 0, repo.ErrRegistrationExists
		}
	}
	f.nextRegID++
	reg.ID = f.nextRegID
	reg.CreatedAt = time.Now()
	reg.UpdatedAt = reg.CreatedAt
	cp := *reg
	f.registrations[reg.ID] = &cp
	return reg.ID, nil
}

func (f *fakeRepo) GetRegistrationByID(_ context.Context, id int64) (*model.Registration, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	reg, ok := f.registrations[id]
	if !ok {
		return nil, repo.ErrRegistrationNotFound
	}
	cp := *reg
	return &cp, nil
}

func (f *fakeRepo) HasActiveRegistration(_ context.Context, playerID, tournamentID int64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, reg := range f.registrations {
		if reg.PlayerID == playerID && reg.TournamentID == tournamentID && reg.Stato != model.StatoRifiutata {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeRepo) UpdateRegistrationStato(_ context.Context, id int64, stato string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	reg, ok := f.registrations[id]
	if !ok {
		return repo.ErrRegistrationNotFound
	}
	reg.Stato = stato
	reg.UpdatedAt = time.Now()
	return nil
}

func (f *fakeRepo) UpdateRegistrationTurno(_ context.Context, id, turnoID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	reg, ok := f.registrations[id]
	if !ok {
		return repo.ErrRegistrationNotFound
	}
	reg.TurnoID = turnoID
	reg.UpdatedAt = time.Now()
	return nil
}

func (f *fakeRepo) MarkRifiutata(_ context.Context, id int64) (*model.Registration, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	reg, ok := f.registrations[id]
	if !ok {
		return nil, false, repo.ErrRegistrationNotFound
	}
	if reg.Stato == model.StatoRifiutata {
		cp := *reg
		return &cp, false, nil
	}
	reg.Stato = model.StatoRifiutata
	reg.UpdatedAt = time.Now()
	if t, ok := f.turni[reg.TurnoID]; ok && t.Occupied > 0 {
		t.Occupied--
	}
	if reg.BackupTurnoID != nil {
		if t, ok := f.turni[*reg.BackupTurnoID]; ok && t.Occupied > 0 {
			t.Occupied--
		}
	}
	cp := *reg
	return &cp, true, nil
}

func (f *fakeRepo) DeleteRegistration(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.registrations, id)
	return nil
}

func (f *fakeRepo) GetRegistrationsByTournamentID(_ context.Context, tournamentID int64) ([]model.Registration, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.Registration
	for _, reg := range f.registrations {
		if reg.TournamentID == tournamentID {
			out = append(out, *reg)
		}
	}
	return out, nil
}

func (f *fakeRepo) GetRegistrationsByPlayerID(_ context.Context, playerID int64) ([]model.Registration, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.Registration
	for _, reg := range f.registrations {
		if reg.PlayerID == playerID {
			out = append(out, *reg)
		}
	}
	return out, nil
}

func (f *fakeRepo) MigrateUp(string) error   { return nil }
func (f *fakeRepo) MigrateDown(string) error { return nil }
