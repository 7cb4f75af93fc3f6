package in_memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/olyamironova/escrow-engine/internal/domain"
	"github.com/olyamironova/escrow-engine/internal/port"
)

var _ port.AssetRegistry = (*Registry)(nil)

// Registry is an in-process asset registry with safe-transfer semantics:
// custody moves only when from matches the recorded owner.
type Registry struct {
	mu     sync.Mutex
	owners map[uint64]domain.Address
}

func NewRegistry() *Registry {
	return &Registry{owners: make(map[uint64]domain.Address)}
}

// Mint records a freshly issued asset (test/bootstrap helper).
func (r *Registry) Mint(owner domain.Address, assetID uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.owners[assetID] = owner
}

func (r *Registry) OwnerOf(ctx context.Context, assetID uint64) (domain.Address, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	owner, ok := r.owners[assetID]
	if !ok {
		return "", fmt.Errorf("registry: asset %d not found", assetID)
	}
	return owner, nil
}

func (r *Registry) TransferCustody(ctx context.Context, from, to domain.Address, assetID uint64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	owner, ok := r.owners[assetID]
	if !ok {
		return fmt.Errorf("registry: asset %d not found", assetID)
	}
	if owner != from {
		return fmt.Errorf("registry: %s is not the owner of asset %d", from, assetID)
	}
	r.owners[assetID] = to
	return nil
}
