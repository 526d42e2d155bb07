package api

import (
	"net/http/httptest"
	"testing"
	"time"
)

func TestQueryDate(t *testing.T) {
	r := httptest.NewRequest("GET", "/api/horarios?fecha=2025-05-05", nil)
	got, err := queryDate(r, "fecha")
	if err != nil {
		t.Fatalf("queryDate: %v", err)
	}
	want := time.Date(2025, time.May, 5, 0, 0, 0, 0, time.UTC)
	if got == nil || !got.Equal(want) {
		t.Errorf("fecha = %v, want %s", got, want)
	}

	r = httptest.NewRequest("GET", "/api/horarios", nil)
	got, err = queryDate(r, "fecha")
	if err != nil || got != nil {
		t.Errorf("absent param: got %v, %v, want nil, nil", got, err)
	}

	for _, raw := range []string{"05-05-2025", "2025-13-40", "not-a-date"} {
		r = httptest.NewRequest("GET", "/api/horarios?fecha="+raw, nil)
		if _, err := queryDate(r, "fecha"); err == nil {
			t.Errorf("queryDate(%q) should fail", raw)
		}
	}
}

func TestQueryMonth(t *testing.T) {
	r := httptest.NewRequest("GET", "/api/horarios?mes=2025-09", nil)
	desde, hasta, err := queryMonth(r, "mes")
	if err != nil {
		t.Fatalf("queryMonth: %v", err)
	}
	wantDesde := time.Date(2025, time.September, 1, 0, 0, 0, 0, time.UTC)
	wantHasta := time.Date(2025, time.September, 30, 0, 0, 0, 0, time.UTC)
	if desde == nil || !desde.Equal(wantDesde) {
		t.Errorf("desde = %v, want %s", desde, wantDesde)
	}
	if hasta == nil || !hasta.Equal(wantHasta) {
		t.Errorf("hasta = %v, want %s", hasta, wantHasta)
	}

	r = httptest.NewRequest("GET", "/api/horarios", nil)
	desde, hasta, err = queryMonth(r, "mes")
	if err != nil || desde != nil || hasta != nil {
		t.Error("absent param should yield nil bounds and no error")
	}

	for _, raw := range []string{"2025", "sep-2025", "2025-00"} {
		r = httptest.NewRequest("GET", "/api/horarios?mes="+raw, nil)
		if _, _, err := queryMonth(r, "mes"); err == nil {
			t.Errorf("queryMonth(%q) should fail", raw)
		}
	}
}
