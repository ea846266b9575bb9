package ports

import (
	"context"

	"github.com/sonic-net/sonic-pacd/internal/core/domain"
)

// AuditLog persists a record of every admin-surface operation (who, what,
// when, and the domain.Result it produced), distinct from RADIUS
// accounting, which spec.md section 1 excludes as a non-goal.
type AuditLog interface {
	Record(ctx context.Context, entry domain.AuditEntry) error
	Recent(ctx context.Context, limit int) ([]domain.AuditEntry, error)
}
