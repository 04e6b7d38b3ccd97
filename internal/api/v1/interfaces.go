package v1

import (
	"context"

	"github.com/harborline/stockgate/internal/domain"
)

// InventoryExecutor runs the fixed upstream inventory query on behalf of a
// validated session. The production implementation builds a per-request
// upstream client; tests substitute a counting mock.
type InventoryExecutor interface {
	FetchInventory(ctx context.Context, sess *domain.Session) (*domain.InventoryQueryData, error)
}
