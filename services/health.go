package services

import (
	"context"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"who-dashboard/providers"
)

// HealthReport ist das Ergebnis der letzten Backend-Prüfung.
type HealthReport struct {
	Checked   bool      `json:"checked"`
	Up        bool      `json:"up"`
	Status    string    `json:"status,omitempty"`
	Error     string    `json:"error,omitempty"`
	CheckedAt time.Time `json:"checked_at"`
}

// HealthMonitor prüft periodisch, ob das WHO-Backend erreichbar ist.
type HealthMonitor struct {
	api     providers.HealthAPI
	timeout time.Duration
	logger  *zap.Logger
	metrics *Metrics

	mu   sync.RWMutex
	last HealthReport
}

// NewHealthMonitor erstellt einen neuen Monitor.
func NewHealthMonitor(api providers.HealthAPI, timeout time.Duration, logger *zap.Logger, metrics *Metrics) *HealthMonitor {
	return &HealthMonitor{api: api, timeout: timeout, logger: logger, metrics: metrics}
}

// Check fragt den Health-Endpunkt ab und merkt sich das Ergebnis.
func (h *HealthMonitor) Check(ctx context.Context) HealthReport {
	if h.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.timeout)
		defer cancel()
	}

	report := HealthReport{Checked: true, CheckedAt: time.Now().UTC()}
	started := time.Now()
	status, err := h.api.Health(ctx)
	h.metrics.BackendLatency.WithLabelValues("health").Observe(time.Since(started).Seconds())

	if err != nil {
		h.logger.Warn("Backend health check failed", zap.Error(err))
		report.Error = err.Error()
		h.metrics.BackendUp.Set(0)
	} else {
		report.Up = true
		report.Status = status.Status
		h.metrics.BackendUp.Set(1)
	}

	h.mu.Lock()
	h.last = report
	h.mu.Unlock()
	return report
}

// Last gibt das letzte Prüfergebnis zurück.
func (h *HealthMonitor) Last() HealthReport {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.last
}

// Schedule registriert die periodische Prüfung beim Cron-Scheduler.
func (h *HealthMonitor) Schedule(c *cron.Cron, schedule string) (cron.EntryID, error) {
	return c.AddFunc(schedule, func() {
		h.Check(context.Background())
	})
}
