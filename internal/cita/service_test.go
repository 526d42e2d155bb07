package cita

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/clinisalud/citas-api/internal/db"
	"github.com/clinisalud/citas-api/internal/schedule"
)

type mockRepository struct {
	mu        sync.Mutex
	horarios  map[int64]*schedule.Horario
	pacientes map[int64]bool
	nextID    int64
	citas     map[int64]*Cita
	historial []HistorialEstado
}

func newMockRepository() *mockRepository {
	return &mockRepository{
		horarios:  make(map[int64]*schedule.Horario),
		pacientes: make(map[int64]bool),
		citas:     make(map[int64]*Cita),
	}
}

func (m *mockRepository) GetHorarioForUpdate(_ context.Context, horarioID int64) (*schedule.Horario, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	h, ok := m.horarios[horarioID]
	if !ok {
		return nil, schedule.ErrHorarioNotFound
	}
	copied := *h
	return &copied, nil
}

func (m *mockRepository) GetHorario(ctx context.Context, horarioID int64) (*schedule.Horario, error) {
	return m.GetHorarioForUpdate(ctx, horarioID)
}

func (m *mockRepository) CountActivas(_ context.Context, horarioID int64) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	count := 0
	for _, c := range m.citas {
		if c.HorarioID != nil && *c.HorarioID == horarioID && c.Estado.Activa() {
			count++
		}
	}
	return count, nil
}

func (m *mockRepository) PacienteExists(_ context.Context, pacienteID int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pacientes[pacienteID], nil
}

func (m *mockRepository) Insert(_ context.Context, c *Cita) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	c.ID = m.nextID
	c.FechaRegistro = time.Now()
	copied := *c
	m.citas[c.ID] = &copied
	return nil
}

func (m *mockRepository) GetByID(_ context.Context, id int64) (*CitaDetalle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.citas[id]
	if !ok {
		return nil, ErrCitaNotFound
	}
	copied := *c
	return &CitaDetalle{Cita: copied}, nil
}

func (m *mockRepository) Update(_ context.Context, c *Cita) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.citas[c.ID]; !ok {
		return ErrCitaNotFound
	}
	copied := *c
	m.citas[c.ID] = &copied
	return nil
}

func (m *mockRepository) Delete(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.citas[id]; !ok {
		return ErrCitaNotFound
	}
	delete(m.citas, id)
	return nil
}

func (m *mockRepository) List(_ context.Context, f ListFilter, limit, offset int) ([]CitaDetalle, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var matched []CitaDetalle
	for id := int64(1); id <= m.nextID; id++ {
		c, ok := m.citas[id]
		if !ok {
			continue
		}
		if f.PacienteID != nil && c.PacienteID != *f.PacienteID {
			continue
		}
		if f.Estado != nil && c.Estado != *f.Estado {
			continue
		}
		matched = append(matched, CitaDetalle{Cita: *c})
	}

	total := len(matched)
	if offset >= total {
		return nil, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return matched[offset:end], total, nil
}

func (m *mockRepository) InsertHistorial(_ context.Context, h *HistorialEstado) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	h.ID = int64(len(m.historial) + 1)
	h.FechaCambio = time.Now()
	m.historial = append(m.historial, *h)
	return nil
}

func (m *mockRepository) ListHistorial(_ context.Context, citaID int64) ([]HistorialEstado, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []HistorialEstado
	for _, h := range m.historial {
		if h.CitaID == citaID {
			out = append(out, h)
		}
	}
	return out, nil
}

// mutexLocker serializes slot sections the way the Redis lock does in
// production, without a Redis server.
type mutexLocker struct {
	mu sync.Mutex
}

func (l *mutexLocker) WithSlotLock(ctx context.Context, _ int64, fn func(context.Context) error) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return fn(ctx)
}

func passthroughTx(ctx context.Context, fn func(context.Context) error) error {
	return fn(ctx)
}

func newTestService(repo *mockRepository) *Service {
	return NewService(repo, &mutexLocker{}, db.TxRunner(passthroughTx))
}

func seedSlot(repo *mockRepository, id int64, cupos int) *schedule.Horario {
	h := &schedule.Horario{
		ID:         id,
		MedicoID:   10,
		AreaID:     3,
		AreaNombre: "Medicina General",
		Fecha:      schedule.Date(2025, time.May, 5),
		Turno:      schedule.TurnoManana,
		Cupos:      cupos,
	}
	repo.horarios[id] = h
	return h
}

func TestAdmitBooksSlotAndRecordsHistorial(t *testing.T) {
	repo := newMockRepository()
	svc := newTestService(repo)
	seedSlot(repo, 1, 5)
	repo.pacientes[7] = true

	result, err := svc.Admit(context.Background(), AdmitInput{
		HorarioID:  1,
		PacienteID: 7,
		Fecha:      schedule.Date(2025, time.May, 5),
		Sintomas:   "fiebre",
	})
	if err != nil {
		t.Fatalf("Admit: %v", err)
	}

	if result.Cita.Estado != EstadoPendiente {
		t.Errorf("estado = %s, want pendiente", result.Cita.Estado)
	}
	if result.CuposRestantes != 4 {
		t.Errorf("cupos restantes = %d, want 4", result.CuposRestantes)
	}
	if result.Cita.DoctorID == nil || *result.Cita.DoctorID != 10 {
		t.Error("doctor_id not denormalized from the slot")
	}
	if result.Cita.Area != "Medicina General" {
		t.Errorf("area = %q, want denormalized name", result.Cita.Area)
	}
	if len(repo.historial) != 1 {
		t.Fatalf("historial rows = %d, want 1", len(repo.historial))
	}
	if repo.historial[0].EstadoAnterior != nil {
		t.Error("initial historial row should have nil estado_anterior")
	}
}

func TestAdmitRejectsWhenFull(t *testing.T) {
	repo := newMockRepository()
	svc := newTestService(repo)
	seedSlot(repo, 1, 2)

	fecha := schedule.Date(2025, time.May, 5)
	for paciente := int64(1); paciente <= 2; paciente++ {
		repo.pacientes[paciente] = true
		if _, err := svc.Admit(context.Background(), AdmitInput{
			HorarioID: 1, PacienteID: paciente, Fecha: fecha, Sintomas: "control",
		}); err != nil {
			t.Fatalf("Admit %d: %v", paciente, err)
		}
	}

	repo.pacientes[3] = true
	_, err := svc.Admit(context.Background(), AdmitInput{
		HorarioID: 1, PacienteID: 3, Fecha: fecha, Sintomas: "control",
	})

	var capacity *CapacityError
	if !errors.As(err, &capacity) {
		t.Fatalf("Admit error = %v, want CapacityError", err)
	}
	if capacity.CuposTotales != 2 || capacity.CuposOcupados != 2 {
		t.Errorf("CapacityError = %+v, want totales=2 ocupados=2", capacity)
	}
}

func TestAdmitCancelledCitaFreesCapacity(t *testing.T) {
	repo := newMockRepository()
	svc := newTestService(repo)
	seedSlot(repo, 1, 1)
	repo.pacientes[1] = true
	repo.pacientes[2] = true

	fecha := schedule.Date(2025, time.May, 5)
	first, err := svc.Admit(context.Background(), AdmitInput{
		HorarioID: 1, PacienteID: 1, Fecha: fecha, Sintomas: "dolor",
	})
	if err != nil {
		t.Fatalf("first Admit: %v", err)
	}

	if _, err := svc.Admit(context.Background(), AdmitInput{
		HorarioID: 1, PacienteID: 2, Fecha: fecha, Sintomas: "dolor",
	}); err == nil {
		t.Fatal("second Admit should fail while slot is full")
	}

	cancelada := EstadoCancelada
	if _, err := svc.Update(context.Background(), first.Cita.ID, UpdateInput{Estado: &cancelada}, nil); err != nil {
		t.Fatalf("cancel: %v", err)
	}

	if _, err := svc.Admit(context.Background(), AdmitInput{
		HorarioID: 1, PacienteID: 2, Fecha: fecha, Sintomas: "dolor",
	}); err != nil {
		t.Fatalf("Admit after cancellation: %v", err)
	}
}

func TestAdmitValidation(t *testing.T) {
	repo := newMockRepository()
	svc := newTestService(repo)
	seedSlot(repo, 1, 5)
	repo.pacientes[7] = true

	t.Run("empty sintomas", func(t *testing.T) {
		_, err := svc.Admit(context.Background(), AdmitInput{
			HorarioID: 1, PacienteID: 7, Fecha: schedule.Date(2025, time.May, 5),
		})
		if !errors.Is(err, ErrSintomasVacios) {
			t.Errorf("error = %v, want ErrSintomasVacios", err)
		}
	})

	t.Run("fecha mismatch leaves no row", func(t *testing.T) {
		_, err := svc.Admit(context.Background(), AdmitInput{
			HorarioID: 1, PacienteID: 7, Fecha: schedule.Date(2025, time.May, 6), Sintomas: "x",
		})
		if !errors.Is(err, ErrFechaMismatch) {
			t.Errorf("error = %v, want ErrFechaMismatch", err)
		}
		if len(repo.citas) != 0 {
			t.Error("cita persisted despite fecha mismatch")
		}
	})

	t.Run("unknown paciente", func(t *testing.T) {
		_, err := svc.Admit(context.Background(), AdmitInput{
			HorarioID: 1, PacienteID: 99, Fecha: schedule.Date(2025, time.May, 5), Sintomas: "x",
		})
		if !errors.Is(err, ErrPacienteNotFound) {
			t.Errorf("error = %v, want ErrPacienteNotFound", err)
		}
	})

	t.Run("unknown horario", func(t *testing.T) {
		_, err := svc.Admit(context.Background(), AdmitInput{
			HorarioID: 42, PacienteID: 7, Fecha: schedule.Date(2025, time.May, 5), Sintomas: "x",
		})
		if !errors.Is(err, schedule.ErrHorarioNotFound) {
			t.Errorf("error = %v, want ErrHorarioNotFound", err)
		}
	})
}

func TestConcurrentAdmissionsNeverOverbook(t *testing.T) {
	repo := newMockRepository()
	svc := newTestService(repo)
	seedSlot(repo, 1, 1)

	const attempts = 10
	fecha := schedule.Date(2025, time.May, 5)
	for i := int64(1); i <= attempts; i++ {
		repo.pacientes[i] = true
	}

	var wg sync.WaitGroup
	errs := make([]error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			_, errs[worker] = svc.Admit(context.Background(), AdmitInput{
				HorarioID:  1,
				PacienteID: int64(worker + 1),
				Fecha:      fecha,
				Sintomas:   "urgencia",
			})
		}(i)
	}
	wg.Wait()

	succeeded := 0
	rejected := 0
	for _, err := range errs {
		var capacity *CapacityError
		switch {
		case err == nil:
			succeeded++
		case errors.As(err, &capacity):
			rejected++
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}

	if succeeded != 1 {
		t.Errorf("succeeded = %d, want exactly 1 for a single cupo", succeeded)
	}
	if rejected != attempts-1 {
		t.Errorf("rejected = %d, want %d", rejected, attempts-1)
	}
}

func TestUpdateEstadoAppendsHistorial(t *testing.T) {
	repo := newMockRepository()
	svc := newTestService(repo)
	seedSlot(repo, 1, 5)
	repo.pacientes[7] = true

	result, err := svc.Admit(context.Background(), AdmitInput{
		HorarioID: 1, PacienteID: 7, Fecha: schedule.Date(2025, time.May, 5), Sintomas: "control",
	})
	if err != nil {
		t.Fatalf("Admit: %v", err)
	}

	confirmada := EstadoConfirmada
	comentario := "paciente llamado"
	actor := &Actor{UsuarioID: 3, IPAddress: "10.0.0.9"}
	updated, err := svc.Update(context.Background(), result.Cita.ID, UpdateInput{
		Estado:     &confirmada,
		Comentario: &comentario,
	}, actor)
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.Estado != EstadoConfirmada {
		t.Errorf("estado = %s, want confirmada", updated.Estado)
	}

	if len(repo.historial) != 2 {
		t.Fatalf("historial rows = %d, want 2", len(repo.historial))
	}
	last := repo.historial[1]
	if last.EstadoAnterior == nil || *last.EstadoAnterior != EstadoPendiente {
		t.Error("historial estado_anterior should be pendiente")
	}
	if last.EstadoNuevo != EstadoConfirmada {
		t.Errorf("historial estado_nuevo = %s, want confirmada", last.EstadoNuevo)
	}
	if last.UsuarioID == nil || *last.UsuarioID != 3 {
		t.Error("historial should carry the acting usuario")
	}
	if last.IPAddress == nil || *last.IPAddress != "10.0.0.9" {
		t.Error("historial should carry the actor's IP")
	}

	// Same estado again: no extra historial row.
	if _, err := svc.Update(context.Background(), result.Cita.ID, UpdateInput{Estado: &confirmada}, actor); err != nil {
		t.Fatalf("idempotent update: %v", err)
	}
	if len(repo.historial) != 2 {
		t.Errorf("historial rows = %d after no-op estado update, want 2", len(repo.historial))
	}
}

func TestUpdateReplacesDatosAdicionales(t *testing.T) {
	repo := newMockRepository()
	svc := newTestService(repo)
	seedSlot(repo, 1, 5)
	repo.pacientes[7] = true

	result, err := svc.Admit(context.Background(), AdmitInput{
		HorarioID:  1,
		PacienteID: 7,
		Fecha:      schedule.Date(2025, time.May, 5),
		Sintomas:   "control",
		DatosAdicionales: map[string]any{
			"peso":     "70kg",
			"alergias": "penicilina",
		},
	})
	if err != nil {
		t.Fatalf("Admit: %v", err)
	}

	updated, err := svc.Update(context.Background(), result.Cita.ID, UpdateInput{
		DatosAdicionales: map[string]any{"peso": "72kg"},
	}, nil)
	if err != nil {
		t.Fatalf("Update: %v", err)
	}

	if len(updated.DatosAdicionales) != 1 {
		t.Errorf("datos_adicionales has %d keys, want replacement not merge", len(updated.DatosAdicionales))
	}
	if updated.DatosAdicionales["peso"] != "72kg" {
		t.Errorf("peso = %v, want 72kg", updated.DatosAdicionales["peso"])
	}
	if _, ok := updated.DatosAdicionales["alergias"]; ok {
		t.Error("alergias survived a wholesale replace")
	}
}

func TestUpdateRejectsInvalidEstado(t *testing.T) {
	svc := newTestService(newMockRepository())

	bogus := Estado("perdido")
	_, err := svc.Update(context.Background(), 1, UpdateInput{Estado: &bogus}, nil)
	if !errors.Is(err, ErrEstadoInvalido) {
		t.Errorf("error = %v, want ErrEstadoInvalido", err)
	}
}

func TestListPagination(t *testing.T) {
	repo := newMockRepository()
	svc := newTestService(repo)
	seedSlot(repo, 1, 100)

	fecha := schedule.Date(2025, time.May, 5)
	for i := int64(1); i <= 25; i++ {
		repo.pacientes[i] = true
		if _, err := svc.Admit(context.Background(), AdmitInput{
			HorarioID: 1, PacienteID: i, Fecha: fecha, Sintomas: "control",
		}); err != nil {
			t.Fatalf("Admit %d: %v", i, err)
		}
	}

	citas, total, err := svc.List(context.Background(), ListFilter{}, 2, 10)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if total != 25 {
		t.Errorf("total = %d, want 25", total)
	}
	if len(citas) != 10 {
		t.Errorf("page size = %d, want 10", len(citas))
	}

	// Out-of-range page and defaults.
	citas, total, err = svc.List(context.Background(), ListFilter{}, 9, 10)
	if err != nil {
		t.Fatalf("List page 9: %v", err)
	}
	if total != 25 || len(citas) != 0 {
		t.Errorf("page 9: total=%d len=%d, want 25 and empty page", total, len(citas))
	}

	citas, _, err = svc.List(context.Background(), ListFilter{}, 0, 0)
	if err != nil {
		t.Fatalf("List defaults: %v", err)
	}
	if len(citas) != 10 {
		t.Errorf("default per_page produced %d rows, want 10", len(citas))
	}
}

func TestAvailableCapacityReadsWithoutBooking(t *testing.T) {
	repo := newMockRepository()
	svc := newTestService(repo)
	seedSlot(repo, 1, 5)
	repo.pacientes[7] = true

	fecha := schedule.Date(2025, time.May, 5)
	if _, err := svc.Admit(context.Background(), AdmitInput{
		HorarioID: 1, PacienteID: 7, Fecha: fecha, Sintomas: "control",
	}); err != nil {
		t.Fatalf("Admit: %v", err)
	}

	disp, err := svc.AvailableCapacity(context.Background(), 1)
	if err != nil {
		t.Fatalf("AvailableCapacity: %v", err)
	}
	if disp.CuposTotales != 5 || disp.CuposOcupados != 1 || disp.CuposDisponibles != 4 {
		t.Errorf("disponibilidad = %+v, want 5 total, 1 taken, 4 free", disp)
	}

	_, err = svc.AvailableCapacity(context.Background(), 99)
	if !errors.Is(err, schedule.ErrHorarioNotFound) {
		t.Errorf("unknown slot error = %v, want ErrHorarioNotFound", err)
	}
}
