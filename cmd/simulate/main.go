package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

// simulate fires many concurrent admissions at the same horario. With a
// slot of N cupos and more than N workers, exactly N requests should
// succeed and the rest come back 409.

type admitRequest struct {
	HorarioID  int64  `json:"horario_id"`
	PacienteID int64  `json:"paciente_id"`
	Fecha      string `json:"fecha"`
	Sintomas   string `json:"sintomas"`
}

type results struct {
	success  int64
	conflict int64
	errored  int64

	mu        sync.Mutex
	latencies []time.Duration
}

func (r *results) record(latency time.Duration, status int) {
	switch {
	case status == http.StatusCreated:
		atomic.AddInt64(&r.success, 1)
	case status == http.StatusConflict:
		atomic.AddInt64(&r.conflict, 1)
	default:
		atomic.AddInt64(&r.errored, 1)
	}

	r.mu.Lock()
	r.latencies = append(r.latencies, latency)
	r.mu.Unlock()
}

func (r *results) percentile(p int) time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.latencies) == 0 {
		return 0
	}
	sorted := make([]time.Duration, len(r.latencies))
	copy(sorted, r.latencies)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	idx := len(sorted) * p / 100
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}

func main() {
	var (
		baseURL      = flag.String("url", "http://localhost:8080", "API base URL")
		horarioID    = flag.Int64("horario", 0, "horario id to contend on")
		fecha        = flag.String("fecha", time.Now().UTC().Format("2006-01-02"), "cita date, must match the horario")
		workers      = flag.Int("workers", 20, "concurrent admission attempts")
		pacienteBase = flag.Int64("paciente-base", 1, "first paciente id; worker i books paciente base+i")
	)
	flag.Parse()

	if *horarioID <= 0 {
		log.Fatal("-horario is required")
	}

	log.Printf("firing %d concurrent admissions at horario %d", *workers, *horarioID)

	client := &http.Client{Timeout: 10 * time.Second}
	var res results
	var wg sync.WaitGroup

	start := time.Now()
	for i := 0; i < *workers; i++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()

			body, _ := json.Marshal(admitRequest{
				HorarioID:  *horarioID,
				PacienteID: *pacienteBase + int64(worker),
				Fecha:      *fecha,
				Sintomas:   "simulated admission",
			})

			attemptStart := time.Now()
			resp, err := client.Post(*baseURL+"/api/citas", "application/json", bytes.NewReader(body))
			latency := time.Since(attemptStart)
			if err != nil {
				log.Printf("worker %d: request failed: %v", worker, err)
				res.record(latency, 0)
				return
			}
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()

			res.record(latency, resp.StatusCode)
		}(i)
	}
	wg.Wait()

	fmt.Printf("\nfinished in %s\n", time.Since(start))
	fmt.Printf("success:  %d\n", res.success)
	fmt.Printf("conflict: %d\n", res.conflict)
	fmt.Printf("errored:  %d\n", res.errored)
	fmt.Printf("latency p50=%s p95=%s\n", res.percentile(50), res.percentile(95))

	if res.errored > 0 {
		log.Fatal("some requests errored; capacity accounting unverified")
	}
	fmt.Println("\nadmitted count should equal the horario's cupos; everything else must be a conflict")
}
