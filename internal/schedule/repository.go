package schedule

import (
	"context"
	"errors"
	"time"
)

var (
	ErrHorarioNotFound = errors.New("horario not found")
)

// ListFilter narrows slot listings. Fecha and the month range are
// mutually exclusive; the caller resolves that before building one.
type ListFilter struct {
	MedicoID   *int64
	AreaID     *int64
	Turno      *Turno
	Fecha      *time.Time
	DesdeFecha *time.Time
	HastaFecha *time.Time
}

// Repository contains all horario DB interactions needed by the service.
type Repository interface {
	GetByID(ctx context.Context, id int64) (*Horario, error)

	// Natural-key lookup backing the upsert rule.
	FindByNaturalKey(ctx context.Context, medicoID int64, fecha time.Time, turno Turno) (*Horario, error)

	Insert(ctx context.Context, h *Horario) error
	UpdateAreaCupos(ctx context.Context, id, areaID int64, cupos int) error

	// List returns one page of filtered slots plus the unpaged total.
	// Each slot carries its active-cita count, computed in a single
	// grouped join rather than per row.
	List(ctx context.Context, f ListFilter, limit, offset int) ([]HorarioConCupos, int, error)

	// ListByMedicoRange backs the month summary view.
	ListByMedicoRange(ctx context.Context, medicoID int64, desde, hasta time.Time) ([]Horario, error)

	Delete(ctx context.Context, id int64) error
	DeleteByMedicoRange(ctx context.Context, medicoID int64, desde, hasta time.Time, turno *Turno) (int64, error)

	// Row locks taken before the deletion guards above count active
	// citas, closing the window against a concurrent admission. Must be
	// called inside a transaction.
	LockByID(ctx context.Context, id int64) error
	LockByMedicoRange(ctx context.Context, medicoID int64, desde, hasta time.Time, turno *Turno) error

	// Active-cita counts guarding slot deletion.
	CountActiveCitas(ctx context.Context, horarioID int64) (int, error)
	CountActiveCitasInRange(ctx context.Context, medicoID int64, desde, hasta time.Time, turno *Turno) (int, error)
}
