// Package memory holds in-process implementations of the storage ports, used
// when Postgres or Redis are disabled.
package memory

import (
	"context"
	"sort"
	"sync"

	"stable-channels/internal/core/domain"
	"stable-channels/internal/core/ports"
)

var _ ports.DesignationRepository = (*DesignationRepo)(nil)

// DesignationRepo keeps designations in a map keyed by channel id.
type DesignationRepo struct {
	mu    sync.RWMutex
	items map[domain.ChannelID]domain.Designation
}

// NewDesignationRepo creates an empty store.
func NewDesignationRepo() *DesignationRepo {
	return &DesignationRepo{items: make(map[domain.ChannelID]domain.Designation)}
}

// Upsert stores a copy of d.
func (r *DesignationRepo) Upsert(_ context.Context, d *domain.Designation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored := *d
	if existing, ok := r.items[d.ChannelID]; ok && !existing.CreatedAt.IsZero() {
		stored.CreatedAt = existing.CreatedAt
	}
	r.items[d.ChannelID] = stored
	return nil
}

// List returns designations ordered by channel id.
func (r *DesignationRepo) List(_ context.Context) ([]domain.Designation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.Designation, 0, len(r.items))
	for _, d := range r.items {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ChannelID.String() < out[j].ChannelID.String() })
	return out, nil
}

// Delete removes a designation if present.
func (r *DesignationRepo) Delete(_ context.Context, channelID domain.ChannelID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.items, channelID)
	return nil
}
