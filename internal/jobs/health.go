package jobs

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"
)

type Pinger interface {
	Ping(ctx context.Context, timeout time.Duration) error
}

// RemoteStatus is the outcome of the most recent probe. A zero CheckedAt
// means no probe has finished yet.
type RemoteStatus struct {
	Healthy   bool      `json:"healthy"`
	CheckedAt time.Time `json:"checkedAt"`
	LatencyMs int64     `json:"latencyMs"`
	Error     string    `json:"error,omitempty"`
}

// HealthMonitor probes the authentication service on an interval so
// /health can report it without a remote call per request.
type HealthMonitor struct {
	pinger   Pinger
	interval time.Duration
	timeout  time.Duration
	status   atomic.Pointer[RemoteStatus]
	done     chan struct{}
	stopOnce sync.Once
}

func NewHealthMonitor(pinger Pinger, interval, timeout time.Duration) *HealthMonitor {
	return &HealthMonitor{
		pinger:   pinger,
		interval: interval,
		timeout:  timeout,
		done:     make(chan struct{}),
	}
}

func (m *HealthMonitor) Start() {
	go m.run()
	log.Info().Dur("interval", m.interval).Msg("health monitor started")
}

func (m *HealthMonitor) Stop() {
	m.stopOnce.Do(func() {
		close(m.done)
		log.Info().Msg("health monitor stopped")
	})
}

func (m *HealthMonitor) run() {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	m.Probe(context.Background())

	for {
		select {
		case <-m.done:
			return
		case <-ticker.C:
			m.Probe(context.Background())
		}
	}
}

// Probe pings the remote once and records the outcome.
func (m *HealthMonitor) Probe(ctx context.Context) RemoteStatus {
	start := time.Now()
	err := m.pinger.Ping(ctx, m.timeout)

	status := RemoteStatus{
		Healthy:   err == nil,
		CheckedAt: time.Now(),
		LatencyMs: time.Since(start).Milliseconds(),
	}
	if err != nil {
		status.Error = err.Error()
	}

	prev := m.status.Swap(&status)
	if prev == nil || prev.Healthy != status.Healthy {
		if status.Healthy {
			log.Info().Int64("latencyMs", status.LatencyMs).Msg("authentication service is healthy")
		} else {
			log.Warn().Str("error", status.Error).Msg("authentication service is unhealthy")
		}
	}
	return status
}

func (m *HealthMonitor) Status() RemoteStatus {
	if s := m.status.Load(); s != nil {
		return *s
	}
	return RemoteStatus{}
}
