package postgres

import (
	"context"
	"fmt"
)

// HealthCheck reports whether the designation store is reachable and migrated.
type HealthCheck struct {
	pool Pool
}

// NewHealthCheck creates a PostgreSQL health checker.
func NewHealthCheck(pool Pool) *HealthCheck {
	return &HealthCheck{pool: pool}
}

// Ping queries the designations table, so an unmigrated database is unhealthy.
func (h *HealthCheck) Ping(ctx context.Context) error {
	if _, err := h.pool.Exec(ctx, "SELECT 1 FROM pegged_channels LIMIT 1"); err != nil {
		return fmt.Errorf("designation store: %w", err)
	}
	return nil
}

// Name returns the dependency name.
func (h *HealthCheck) Name() string {
	return "postgresql"
}
