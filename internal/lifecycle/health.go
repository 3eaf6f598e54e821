package lifecycle

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync/atomic"

	"github.com/Kamron201111/telegram-stars-bot/internal/health"
)

// HealthChecker exposes liveness and readiness probes.
type HealthChecker interface {
	Liveness(ctx context.Context) error
	Readiness(ctx context.Context) error
}

// Probes answers the liveness and readiness endpoints of the ops server.
type Probes struct {
	checker  *health.Checker
	draining atomic.Bool
	log      *slog.Logger
}

// NewProbes creates a new Probes instance.
func NewProbes(checker *health.Checker, log *slog.Logger) *Probes {
	if log == nil {
		log = slog.Default()
	}
	return &Probes{checker: checker, log: log}
}

// Liveness reports success while the process is running.
func (p *Probes) Liveness(context.Context) error {
	p.log.Debug("liveness probe called")
	return nil
}

// Readiness fails once shutdown has begun or a critical component is down.
// Degraded components, e.g. Redis, keep the bot ready.
func (p *Probes) Readiness(ctx context.Context) error {
	return p.readiness(p.report(ctx))
}

func (p *Probes) report(ctx context.Context) *health.Report {
	if p.checker == nil {
		return nil
	}
	report := p.checker.Check(ctx)
	return &report
}

func (p *Probes) readiness(report *health.Report) error {
	if p.draining.Load() {
		return errors.New("shutting down")
	}
	if report != nil && report.Status == health.StatusDown {
		return fmt.Errorf("not ready: %v", report.Components)
	}
	return nil
}

// Drain marks the process as not ready.
func (p *Probes) Drain() {
	p.draining.Store(true)
}

// Register mounts /healthz and /readyz on mux.
func (p *Probes) Register(mux *http.ServeMux) {
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		p.respond(w, p.Liveness(r.Context()), nil)
	})
	mux.HandleFunc("/readyz", func(w http.ResponseWriter, r *http.Request) {
		report := p.report(r.Context())
		p.respond(w, p.readiness(report), report)
	})
}

func (p *Probes) respond(w http.ResponseWriter, err error, report *health.Report) {
	w.Header().Set("Content-Type", "application/json")

	status := http.StatusOK
	if err != nil {
		status = http.StatusServiceUnavailable
	}
	w.WriteHeader(status)

	body := map[string]any{"ok": err == nil}
	if report != nil {
		body["status"] = report.Status
		body["components"] = report.Components
	}
	if encodeErr := json.NewEncoder(w).Encode(body); encodeErr != nil {
		p.log.Debug("failed to write probe response", slog.Any("error", encodeErr))
	}
}
