package health

import (
	"context"
	"time"

	"github.com/arti-chat/core/internal/overlay"
	"github.com/arti-chat/core/internal/store"
)

// Checker performs the daemon's health checks: the store connection
// and the overlay client's published address. Which checks run is
// controlled by config.HealthConfig.Checks, mirroring the teacher's
// checker taking a narrow set of dependencies rather than reaching
// into global state.
type Checker struct {
	store   *store.Store
	client  overlay.Client
	enabled map[string]bool
}

// NewChecker builds a Checker. checks lists which named checks to run
// ("store", "overlay"); an empty list runs both.
func NewChecker(db *store.Store, client overlay.Client, checks []string) *Checker {
	enabled := map[string]bool{"store": true, "overlay": true}
	if len(checks) > 0 {
		enabled = make(map[string]bool, len(checks))
		for _, c := range checks {
			enabled[c] = true
		}
	}
	return &Checker{store: db, client: client, enabled: enabled}
}

// CheckAll runs every enabled check and folds the results into one
// HealthStatus, the worst individual status winning.
func (c *Checker) CheckAll(ctx context.Context) *HealthStatus {
	status := &HealthStatus{
		Timestamp: time.Now(),
		Status:    StatusHealthy,
		Checks:    make(map[string]Check),
	}

	if c.enabled["store"] {
		check := c.checkStore()
		status.Checks["store"] = check
		status.merge(check)
	}
	if c.enabled["overlay"] {
		check := c.checkOverlay(ctx)
		status.Checks["overlay"] = check
		status.merge(check)
	}
	return status
}

func (c *Checker) checkStore() Check {
	if c.store == nil {
		return Check{Status: StatusUnhealthy, Detail: "store not configured"}
	}
	if err := c.store.Ping(); err != nil {
		return Check{Status: StatusUnhealthy, Detail: err.Error()}
	}
	return Check{Status: StatusHealthy}
}

// checkOverlay confirms the overlay client still reports a published
// address; it does not dial out, since that belongs to the
// PingHiddenService RPC's deliberately bounded reachability test
// (spec §9) rather than a liveness probe that must return instantly.
func (c *Checker) checkOverlay(_ context.Context) Check {
	if c.client == nil {
		return Check{Status: StatusUnhealthy, Detail: "overlay client not configured"}
	}
	addr, err := c.client.LocalAddress()
	if err != nil || addr == "" {
		return Check{Status: StatusDegraded, Detail: "no published hidden service address"}
	}
	return Check{Status: StatusHealthy}
}

func (s *HealthStatus) merge(check Check) {
	if check.Status == StatusUnhealthy {
		s.Status = StatusUnhealthy
	} else if check.Status == StatusDegraded && s.Status == StatusHealthy {
		s.Status = StatusDegraded
	}
	if check.Status != StatusHealthy && check.Detail != "" {
		s.Errors = append(s.Errors, check.Detail)
	}
}
