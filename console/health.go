package console

import (
	"context"
	"net/http"
	"time"

	"github.com/myfamilydoc/go-console-client/transport"
)

// HealthStatus is the backend's health report plus the measured round-trip.
type HealthStatus struct {
	Status       string                     `json:"status"`
	Timestamp    string                     `json:"timestamp"`
	Version      string                     `json:"version,omitempty"`
	Uptime       int64                      `json:"uptime,omitempty"`
	Services     map[string]DependencyState `json:"services,omitempty"`
	ResponseTime time.Duration              `json:"-"`
}

// DependencyState is the health of one backend dependency.
type DependencyState struct {
	Status       string `json:"status"`
	ResponseTime int64  `json:"responseTime,omitempty"`
}

// HealthService probes the backend.
type HealthService struct {
	client *transport.Client
}

func NewHealthService(client *transport.Client) *HealthService {
	return &HealthService{client: client}
}

// Check fetches the backend health report, measuring the round-trip.
func (s *HealthService) Check(ctx context.Context) (*HealthStatus, error) {
	start := time.Now()
	var status HealthStatus
	if err := s.client.Call(ctx, http.MethodGet, "/auth/health", nil, &status); err != nil {
		return nil, err
	}
	status.ResponseTime = time.Since(start)
	return &status, nil
}

// Ping reports whether the backend is reachable at all.
func (s *HealthService) Ping(ctx context.Context) (reachable bool, rtt time.Duration) {
	start := time.Now()
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	err := s.client.Call(ctx, http.MethodGet, "/auth/health", nil, nil)
	return err == nil, time.Since(start)
}
