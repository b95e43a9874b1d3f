// Package health runs component health checks behind the status
// server's /health, /ready and /live endpoints.
package health

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// Status represents the health status of a component.
type Status string

const (
	StatusOK       Status = "ok"
	StatusDegraded Status = "degraded"
	StatusDown     Status = "down"
)

// Check represents a health check result.
type Check struct {
	Name        string                 `json:"name"`
	Status      Status                 `json:"status"`
	Message     string                 `json:"message,omitempty"`
	LastChecked time.Time              `json:"last_checked"`
	DurationMS  float64                `json:"duration_ms"`
	Details     map[string]interface{} `json:"details,omitempty"`
}

// Checker is implemented by components that report their health. A
// checker may return a degraded result with nil error via Details.
type Checker interface {
	Name() string
	Check(ctx context.Context) *Check
}

// Manager manages health checkers and caches their latest results.
type Manager struct {
	checkers []Checker
	results  map[string]*Check
	mu       sync.RWMutex
	logger   *logrus.Logger
}

// NewManager creates a new health check manager.
func NewManager(logger *logrus.Logger) *Manager {
	return &Manager{
		checkers: make([]Checker, 0),
		results:  make(map[string]*Check),
		logger:   logger,
	}
}

// Register adds a new health checker.
func (m *Manager) Register(checker Checker) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.checkers = append(m.checkers, checker)
	m.logger.WithField("checker", checker.Name()).Debug("Registered health checker")
}

// RunChecks executes all registered health checks.
func (m *Manager) RunChecks(ctx context.Context) map[string]*Check {
	m.mu.RLock()
	checkers := append([]Checker(nil), m.checkers...)
	m.mu.RUnlock()

	results := make(map[string]*Check, len(checkers))

	for _, c := range checkers {
		checkCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		start := time.Now()
		check := c.Check(checkCtx)
		cancel()

		check.Name = c.Name()
		check.LastChecked = time.Now()
		check.DurationMS = float64(time.Since(start).Milliseconds())

		if check.Status != StatusOK {
			m.logger.WithFields(logrus.Fields{
				"checker": c.Name(),
				"status":  check.Status,
				"message": check.Message,
			}).Warn("Health check not ok")
		}

		results[check.Name] = check
	}

	m.mu.Lock()
	for name, check := range results {
		m.results[name] = check
	}
	m.mu.Unlock()

	return results
}

// GetResults returns the latest health check results.
func (m *Manager) GetResults() map[string]*Check {
	m.mu.RLock()
	defer m.mu.RUnlock()

	results := make(map[string]*Check, len(m.results))
	for k, v := range m.results {
		checkCopy := *v
		results[k] = &checkCopy
	}
	return results
}

// GetOverallStatus returns the overall system health status.
func (m *Manager) GetOverallStatus() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if len(m.results) == 0 {
		return StatusDown
	}

	status := StatusOK
	for _, check := range m.results {
		switch check.Status {
		case StatusDown:
			return StatusDown
		case StatusDegraded:
			status = StatusDegraded
		}
	}
	return status
}

// StartPeriodicChecks runs health checks on an interval until the
// context is cancelled.
func (m *Manager) StartPeriodicChecks(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	m.RunChecks(ctx)

	for {
		select {
		case <-ticker.C:
			m.RunChecks(ctx)
		case <-ctx.Done():
			m.logger.Info("Stopping periodic health checks")
			return
		}
	}
}
