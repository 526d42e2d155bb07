package schedule

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/clinisalud/citas-api/internal/db"
)

var (
	ErrNoTurnoActivo   = errors.New("at least one turno must be active")
	ErrTurnoInvalido   = errors.New("turno must be 'M' or 'T'")
	ErrCuposNegativos  = errors.New("cupos must be non-negative")
	ErrWeekdayInvalido = errors.New("weekdays must be in 0..6")
)

// SlotInUseError rejects a deletion that would orphan active citas still
// referencing the targeted slots.
type SlotInUseError struct {
	CitasActivas int
}

func (e *SlotInUseError) Error() string {
	return fmt.Sprintf("horario has %d active citas referencing it", e.CitasActivas)
}

type Service struct {
	repo Repository
	tx   db.TxRunner
}

func NewService(repo Repository, tx db.TxRunner) *Service {
	return &Service{repo: repo, tx: tx}
}

// GenerateMonthInput is a month's worth of slots described by a compact
// weekly template: which weekdays, which turnos, how many cupos each.
type GenerateMonthInput struct {
	MedicoID int64
	AreaID   int64
	Year     int
	Month    time.Month
	Weekdays []int         // 0=Lunes..6=Domingo; empty produces no slots
	Turnos   map[Turno]int // active turno -> cupos
}

// GenerateResult partitions the touched slots into created and updated.
type GenerateResult struct {
	Creados      []Horario
	Actualizados []Horario
}

// GenerateMonth materializes slots for every calendar day of the month
// whose weekday is selected, one per active turno, upserting by the
// (medico, fecha, turno) natural key. The whole expansion runs in a
// single transaction: a failure partway leaves no partial rows.
// Re-running with identical input is idempotent.
func (s *Service) GenerateMonth(ctx context.Context, in GenerateMonthInput) (*GenerateResult, error) {
	if len(in.Turnos) == 0 {
		return nil, ErrNoTurnoActivo
	}
	for turno, cupos := range in.Turnos {
		if !turno.Valid() {
			return nil, ErrTurnoInvalido
		}
		if cupos < 0 {
			return nil, ErrCuposNegativos
		}
	}
	selected := make(map[int]bool, len(in.Weekdays))
	for _, wd := range in.Weekdays {
		if wd < 0 || wd > 6 {
			return nil, ErrWeekdayInvalido
		}
		selected[wd] = true
	}

	start, end := MonthRange(in.Year, in.Month)

	var result GenerateResult
	err := s.tx(ctx, func(ctx context.Context) error {
		for fecha := start; !fecha.After(end); fecha = fecha.AddDate(0, 0, 1) {
			if !selected[DiaSemana(fecha)] {
				continue
			}
			// Stable turno order so created/updated listings read in
			// M-then-T order within a day.
			for _, turno := range []Turno{TurnoManana, TurnoTarde} {
				cupos, activo := in.Turnos[turno]
				if !activo {
					continue
				}
				h, created, err := s.upsert(ctx, in.MedicoID, in.AreaID, fecha, turno, cupos)
				if err != nil {
					return err
				}
				if created {
					result.Creados = append(result.Creados, *h)
				} else {
					result.Actualizados = append(result.Actualizados, *h)
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// UpsertSingle applies the upsert rule to one slot, via the legacy
// single-slot payload.
func (s *Service) UpsertSingle(ctx context.Context, medicoID, areaID int64, fecha time.Time, turno Turno, cupos int) (*Horario, bool, error) {
	if !turno.Valid() {
		return nil, false, ErrTurnoInvalido
	}
	if cupos < 0 {
		return nil, false, ErrCuposNegativos
	}

	var (
		h       *Horario
		created bool
	)
	err := s.tx(ctx, func(ctx context.Context) error {
		var err error
		h, created, err = s.upsert(ctx, medicoID, areaID, fecha, turno, cupos)
		return err
	})
	if err != nil {
		return nil, false, err
	}
	return h, created, nil
}

// SlotInput is one slot of a batch payload.
type SlotInput struct {
	MedicoID int64
	AreaID   int64
	Fecha    time.Time
	Turno    Turno
	Cupos    int
}

// UpsertBatch applies the upsert rule to every item inside one
// transaction. A failure on any item rolls back the whole batch, so the
// caller never sees a partially applied list.
func (s *Service) UpsertBatch(ctx context.Context, items []SlotInput) (*GenerateResult, error) {
	for _, item := range items {
		if !item.Turno.Valid() {
			return nil, ErrTurnoInvalido
		}
		if item.Cupos < 0 {
			return nil, ErrCuposNegativos
		}
	}

	var result GenerateResult
	err := s.tx(ctx, func(ctx context.Context) error {
		for _, item := range items {
			h, created, err := s.upsert(ctx, item.MedicoID, item.AreaID, item.Fecha, item.Turno, item.Cupos)
			if err != nil {
				return err
			}
			if created {
				result.Creados = append(result.Creados, *h)
			} else {
				result.Actualizados = append(result.Actualizados, *h)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// upsert must run inside a transaction opened by the caller.
func (s *Service) upsert(ctx context.Context, medicoID, areaID int64, fecha time.Time, turno Turno, cupos int) (*Horario, bool, error) {
	existing, err := s.repo.FindByNaturalKey(ctx, medicoID, fecha, turno)
	if err != nil && !errors.Is(err, ErrHorarioNotFound) {
		return nil, false, fmt.Errorf("find horario by natural key: %w", err)
	}

	if existing != nil {
		// Update in place; existing citas against the slot are untouched.
		if err := s.repo.UpdateAreaCupos(ctx, existing.ID, areaID, cupos); err != nil {
			return nil, false, fmt.Errorf("update horario: %w", err)
		}
		existing.AreaID = areaID
		existing.Cupos = cupos
		return existing, false, nil
	}

	h := &Horario{
		MedicoID:  medicoID,
		AreaID:    areaID,
		Fecha:     fecha,
		DiaSemana: DiaSemana(fecha),
		Turno:     turno,
		Cupos:     cupos,
	}
	if err := s.repo.Insert(ctx, h); err != nil {
		return nil, false, fmt.Errorf("insert horario: %w", err)
	}
	return h, true, nil
}

// List returns filtered slots with their remaining capacity, plus the
// total for pagination.
func (s *Service) List(ctx context.Context, f ListFilter, page, perPage int) ([]HorarioConCupos, int, error) {
	if page <= 0 {
		page = 1
	}
	if perPage <= 0 {
		perPage = 10
	}
	if perPage > 100 {
		perPage = 100
	}

	horarios, total, err := s.repo.List(ctx, f, perPage, (page-1)*perPage)
	if err != nil {
		return nil, 0, fmt.Errorf("list horarios: %w", err)
	}
	return horarios, total, nil
}

// DiaResumen groups a day's slots by turno for the calendar view.
type DiaResumen struct {
	Fecha     time.Time
	DiaSemana int
	Turnos    map[Turno]Horario
}

// MonthSummary returns a medico's slots for a month grouped by day.
func (s *Service) MonthSummary(ctx context.Context, medicoID int64, year int, month time.Month) ([]DiaResumen, error) {
	start, end := MonthRange(year, month)

	horarios, err := s.repo.ListByMedicoRange(ctx, medicoID, start, end)
	if err != nil {
		return nil, fmt.Errorf("list horarios for month: %w", err)
	}

	var dias []DiaResumen
	byFecha := make(map[time.Time]int)
	for _, h := range horarios {
		idx, ok := byFecha[h.Fecha]
		if !ok {
			dias = append(dias, DiaResumen{
				Fecha:     h.Fecha,
				DiaSemana: h.DiaSemana,
				Turnos:    make(map[Turno]Horario),
			})
			idx = len(dias) - 1
			byFecha[h.Fecha] = idx
		}
		dias[idx].Turnos[h.Turno] = h
	}
	return dias, nil
}

// Delete removes one slot, refusing while active citas reference it. The
// slot row is locked before counting so a concurrent admission cannot
// slip a cita in between the check and the delete.
func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.tx(ctx, func(ctx context.Context) error {
		if err := s.repo.LockByID(ctx, id); err != nil {
			return err
		}
		activas, err := s.repo.CountActiveCitas(ctx, id)
		if err != nil {
			return fmt.Errorf("count active citas: %w", err)
		}
		if activas > 0 {
			return &SlotInUseError{CitasActivas: activas}
		}
		return s.repo.Delete(ctx, id)
	})
}

// DeleteMonth removes a medico's slots in the month range, optionally one
// turno only. Refuses when any targeted slot still has active citas.
func (s *Service) DeleteMonth(ctx context.Context, medicoID int64, year int, month time.Month, turno *Turno) (int64, error) {
	if turno != nil && !turno.Valid() {
		return 0, ErrTurnoInvalido
	}
	start, end := MonthRange(year, month)

	var deleted int64
	err := s.tx(ctx, func(ctx context.Context) error {
		// Lock the targeted slot rows first. An in-flight admission holds
		// its slot's row lock, so the count below cannot miss a cita that
		// commits after it.
		if err := s.repo.LockByMedicoRange(ctx, medicoID, start, end, turno); err != nil {
			return fmt.Errorf("lock horarios in range: %w", err)
		}
		activas, err := s.repo.CountActiveCitasInRange(ctx, medicoID, start, end, turno)
		if err != nil {
			return fmt.Errorf("count active citas in range: %w", err)
		}
		if activas > 0 {
			return &SlotInUseError{CitasActivas: activas}
		}
		deleted, err = s.repo.DeleteByMedicoRange(ctx, medicoID, start, end, turno)
		return err
	})
	if err != nil {
		return 0, err
	}
	return deleted, nil
}

// Get returns one slot by id.
func (s *Service) Get(ctx context.Context, id int64) (*Horario, error) {
	return s.repo.GetByID(ctx, id)
}
