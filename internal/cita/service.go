package cita

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/clinisalud/citas-api/internal/db"
	redisclient "github.com/clinisalud/citas-api/internal/redis"
)

var (
	ErrFechaMismatch   = errors.New("fecha does not match the horario's date")
	ErrEstadoInvalido  = errors.New("invalid estado")
	ErrSlotBeingBooked = errors.New("horario is currently being booked, please retry")
	ErrSintomasVacios  = errors.New("sintomas is required")
)

// CapacityError rejects an admission against a full slot, carrying the
// counts the caller needs to react.
type CapacityError struct {
	CuposTotales  int
	CuposOcupados int
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("horario is full: %d of %d cupos taken", e.CuposOcupados, e.CuposTotales)
}

// Actor identifies the staff user behind a mutation, for the historial.
// A nil Actor records the transition as system-generated.
type Actor struct {
	UsuarioID int64
	IPAddress string
}

type Service struct {
	repo   Repository
	locker redisclient.Locker
	tx     db.TxRunner
}

func NewService(repo Repository, locker redisclient.Locker, tx db.TxRunner) *Service {
	return &Service{repo: repo, locker: locker, tx: tx}
}

type AdmitInput struct {
	HorarioID  int64
	PacienteID int64
	Fecha      time.Time
	Sintomas   string

	DNIAcompanante      *string
	NombreAcompanante   *string
	TelefonoAcompanante *string
	DatosAdicionales    map[string]any
}

type AdmitResult struct {
	Cita           *Cita
	CuposRestantes int
}

// Admit decides whether a new cita may be booked against a slot. The
// count-then-insert sequence runs inside one transaction with the slot
// row locked (SELECT ... FOR UPDATE), so two concurrent admissions
// against the last free cupo cannot both pass the check. The per-slot
// Redis lock additionally serializes admissions across processes before
// the transaction opens.
func (s *Service) Admit(ctx context.Context, in AdmitInput) (*AdmitResult, error) {
	if in.Sintomas == "" {
		return nil, ErrSintomasVacios
	}

	var result *AdmitResult

	err := s.locker.WithSlotLock(ctx, in.HorarioID, func(lockCtx context.Context) error {
		return s.tx(lockCtx, func(txCtx context.Context) error {
			slot, err := s.repo.GetHorarioForUpdate(txCtx, in.HorarioID)
			if err != nil {
				return err
			}

			if !sameDate(slot.Fecha, in.Fecha) {
				return ErrFechaMismatch
			}

			exists, err := s.repo.PacienteExists(txCtx, in.PacienteID)
			if err != nil {
				return fmt.Errorf("check paciente: %w", err)
			}
			if !exists {
				return ErrPacienteNotFound
			}

			used, err := s.repo.CountActivas(txCtx, in.HorarioID)
			if err != nil {
				return fmt.Errorf("count active citas: %w", err)
			}
			if used >= slot.Cupos {
				return &CapacityError{CuposTotales: slot.Cupos, CuposOcupados: used}
			}

			fecha := slot.Fecha
			c := &Cita{
				PacienteID:          in.PacienteID,
				HorarioID:           &slot.ID,
				DoctorID:            &slot.MedicoID,
				AreaID:              &slot.AreaID,
				Area:                slot.AreaNombre,
				Fecha:               &fecha,
				Sintomas:            in.Sintomas,
				DNIAcompanante:      in.DNIAcompanante,
				NombreAcompanante:   in.NombreAcompanante,
				TelefonoAcompanante: in.TelefonoAcompanante,
				DatosAdicionales:    in.DatosAdicionales,
				Estado:              EstadoPendiente,
			}
			if err := s.repo.Insert(txCtx, c); err != nil {
				return fmt.Errorf("insert cita: %w", err)
			}

			if err := s.repo.InsertHistorial(txCtx, &HistorialEstado{
				CitaID:      c.ID,
				EstadoNuevo: EstadoPendiente,
			}); err != nil {
				return fmt.Errorf("insert historial: %w", err)
			}

			result = &AdmitResult{
				Cita:           c,
				CuposRestantes: slot.Cupos - (used + 1),
			}
			return nil
		})
	})
	if err != nil {
		if errors.Is(err, redisclient.ErrLockNotAcquired) {
			return nil, ErrSlotBeingBooked
		}
		return nil, err
	}

	return result, nil
}

// Disponibilidad describes a slot's capacity at read time, for the
// booking UI's pre-submit check.
type Disponibilidad struct {
	CuposTotales     int
	CuposOcupados    int
	CuposDisponibles int
}

// AvailableCapacity is a pure read for listings and display. It takes no
// lock and is never authoritative for admission, which re-derives the
// count under the slot row lock.
func (s *Service) AvailableCapacity(ctx context.Context, horarioID int64) (*Disponibilidad, error) {
	slot, err := s.repo.GetHorario(ctx, horarioID)
	if err != nil {
		return nil, err
	}
	used, err := s.repo.CountActivas(ctx, horarioID)
	if err != nil {
		return nil, err
	}
	return &Disponibilidad{
		CuposTotales:     slot.Cupos,
		CuposOcupados:    used,
		CuposDisponibles: slot.Cupos - used,
	}, nil
}

// UpdateInput applies replace-if-present semantics: every non-nil field
// overwrites the stored value, including DatosAdicionales, which is
// replaced wholesale rather than deep-merged.
type UpdateInput struct {
	DoctorID            *int64
	Area                *string
	Sintomas            *string
	Estado              *Estado
	DNIAcompanante      *string
	NombreAcompanante   *string
	TelefonoAcompanante *string
	DatosAdicionales    map[string]any
	Comentario          *string // historial reason for an estado change
}

// Update mutates a cita. An estado change appends a historial row inside
// the same transaction.
func (s *Service) Update(ctx context.Context, id int64, in UpdateInput, actor *Actor) (*CitaDetalle, error) {
	if in.Estado != nil && !in.Estado.Valid() {
		return nil, ErrEstadoInvalido
	}

	var updated *CitaDetalle
	err := s.tx(ctx, func(txCtx context.Context) error {
		detail, err := s.repo.GetByID(txCtx, id)
		if err != nil {
			return err
		}
		c := detail.Cita

		if in.DoctorID != nil {
			c.DoctorID = in.DoctorID
		}
		if in.Area != nil {
			c.Area = *in.Area
		}
		if in.Sintomas != nil {
			c.Sintomas = *in.Sintomas
		}
		if in.DNIAcompanante != nil {
			c.DNIAcompanante = in.DNIAcompanante
		}
		if in.NombreAcompanante != nil {
			c.NombreAcompanante = in.NombreAcompanante
		}
		if in.TelefonoAcompanante != nil {
			c.TelefonoAcompanante = in.TelefonoAcompanante
		}
		if in.DatosAdicionales != nil {
			c.DatosAdicionales = in.DatosAdicionales
		}

		var estadoAnterior *Estado
		if in.Estado != nil && *in.Estado != c.Estado {
			prev := c.Estado
			estadoAnterior = &prev
			c.Estado = *in.Estado
		}

		if err := s.repo.Update(txCtx, &c); err != nil {
			return fmt.Errorf("update cita: %w", err)
		}

		if estadoAnterior != nil {
			h := &HistorialEstado{
				CitaID:         c.ID,
				EstadoAnterior: estadoAnterior,
				EstadoNuevo:    c.Estado,
				Comentario:     in.Comentario,
			}
			if actor != nil {
				h.UsuarioID = &actor.UsuarioID
				if actor.IPAddress != "" {
					ip := actor.IPAddress
					h.IPAddress = &ip
				}
			}
			if err := s.repo.InsertHistorial(txCtx, h); err != nil {
				return fmt.Errorf("insert historial: %w", err)
			}
		}

		detail.Cita = c
		updated = detail
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *Service) Get(ctx context.Context, id int64) (*CitaDetalle, error) {
	return s.repo.GetByID(ctx, id)
}

// Delete removes a cita permanently. The historial rows cascade with it.
func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}

// List returns filtered citas plus the total for pagination. An empty
// result is not an error.
func (s *Service) List(ctx context.Context, f ListFilter, page, perPage int) ([]CitaDetalle, int, error) {
	if page <= 0 {
		page = 1
	}
	if perPage <= 0 {
		perPage = 10
	}
	if perPage > 100 {
		perPage = 100
	}

	citas, total, err := s.repo.List(ctx, f, perPage, (page-1)*perPage)
	if err != nil {
		return nil, 0, fmt.Errorf("list citas: %w", err)
	}
	return citas, total, nil
}

func (s *Service) Historial(ctx context.Context, citaID int64) ([]HistorialEstado, error) {
	if _, err := s.repo.GetByID(ctx, citaID); err != nil {
		return nil, err
	}
	return s.repo.ListHistorial(ctx, citaID)
}

func sameDate(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.UTC().Date()
	return ay == by && am == bm && ad == bd
}
