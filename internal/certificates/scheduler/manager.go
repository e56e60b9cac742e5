package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"event-system/feedback-portal/feedback-portal-backend/internal/certificates"
)

// SweepService is the slice of the dispatch service the sweep manager drives.
type SweepService interface {
	ListAutoSendTemplates(ctx context.Context) ([]certificates.CertificateTemplate, error)
	ProcessAutoSend(ctx context.Context, templateID string) (*certificates.SweepResult, error)
}

// Manager periodically sweeps every active auto-send template. Each sweep is
// independent; a template's failure is logged and the others still run.
type Manager struct {
	cron         *cron.Cron
	service      SweepService
	logger       *zap.Logger
	schedule     string
	sweepTimeout time.Duration

	mu      sync.Mutex
	running bool
}

// NewManager creates a sweep manager. schedule is a cron expression
// (robfig/cron syntax, "@every 1m" style supported); sweepTimeout bounds one
// full sweep pass.
func NewManager(service SweepService, logger *zap.Logger, schedule string, sweepTimeout time.Duration) *Manager {
	if schedule == "" {
		schedule = "@every 1m"
	}
	if sweepTimeout <= 0 {
		sweepTimeout = 10 * time.Minute
	}
	return &Manager{
		cron:         cron.New(),
		service:      service,
		logger:       logger,
		schedule:     schedule,
		sweepTimeout: sweepTimeout,
	}
}

// Start registers the sweep job and starts the scheduler.
func (m *Manager) Start() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.running {
		return fmt.Errorf("sweep manager already running")
	}

	if _, err := m.cron.AddFunc(m.schedule, m.sweepAll); err != nil {
		return fmt.Errorf("invalid sweep schedule %q: %w", m.schedule, err)
	}

	m.cron.Start()
	m.running = true
	m.logger.Info("Auto-send sweep manager started", zap.String("schedule", m.schedule))
	return nil
}

// Stop halts the scheduler and waits for a running sweep to finish.
func (m *Manager) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.running {
		return
	}

	<-m.cron.Stop().Done()
	m.running = false
	m.logger.Info("Auto-send sweep manager stopped")
}

func (m *Manager) sweepAll() {
	ctx, cancel := context.WithTimeout(context.Background(), m.sweepTimeout)
	defer cancel()

	templates, err := m.service.ListAutoSendTemplates(ctx)
	if err != nil {
		m.logger.Error("Failed to list auto-send templates", zap.Error(err))
		return
	}

	for _, tpl := range templates {
		if ctx.Err() != nil {
			return
		}

		result, err := m.service.ProcessAutoSend(ctx, tpl.ID)
		if err != nil {
			m.logger.Error("Auto-send sweep failed",
				zap.String("certificate_id", tpl.ID),
				zap.Error(err))
			continue
		}

		if result.Processed > 0 {
			m.logger.Info("Auto-send sweep completed",
				zap.String("certificate_id", tpl.ID),
				zap.Int("processed", result.Processed),
				zap.Int("sent", result.Sent),
				zap.Int("errors", result.Errors))
		}
	}
}
