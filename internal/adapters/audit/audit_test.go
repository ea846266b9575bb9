package audit

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/sonic-net/sonic-pacd/internal/core/domain"
	"github.com/stretchr/testify/require"
)

func TestAdapter_RecordAndRecent(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "audit.db")
	a, err := New(dbPath)
	require.NoError(t, err)
	defer a.Close()

	ctx := context.Background()
	require.NoError(t, a.Record(ctx, domain.AuditEntry{
		Operation: "HostModeSet",
		PhysPort:  1,
		Params:    `{"mode":"multi-auth"}`,
		Result:    "Success",
	}))
	require.NoError(t, a.Record(ctx, domain.AuditEntry{
		Operation: "MaxUsersSet",
		PhysPort:  1,
		Params:    `{"maxUsers":4}`,
		Result:    "Success",
	}))

	entries, err := a.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	for _, e := range entries {
		require.NotEmpty(t, e.ID)
		require.NotZero(t, e.Timestamp)
	}
}

func TestAdapter_RecentRespectsLimit(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "audit.db")
	a, err := New(dbPath)
	require.NoError(t, err)
	defer a.Close()

	ctx := context.Background()
	for i := 0; i < 5; i++ {
		require.NoError(t, a.Record(ctx, domain.AuditEntry{
			Operation: "PortInit",
			PhysPort:  uint32(i),
			Result:    "Success",
		}))
	}

	entries, err := a.Recent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, entries, 2)
}
