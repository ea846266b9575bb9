package ports

import "github.com/sonic-net/sonic-pacd/internal/core/domain"

// LogicalPortRegistry is the per-port logical-port (client slot) store
// (spec.md section 4.2): stable slot ordering per physical port, keyed by
// the packed LogicalPortKey.
type LogicalPortRegistry interface {
	// Create allocates a new logical port for mac on physPort, returning
	// its key. Fails with CapacityExceeded once MaxUsers slots are used.
	Create(physPort uint32, mac domain.MACAddr) (domain.LogicalPortKey, domain.Result)

	// CreateSynthetic allocates a logical port not tied to a learned MAC,
	// used for the ForceAuth/ForceUnauth accounting slots.
	CreateSynthetic(physPort uint32) (domain.LogicalPortKey, domain.Result)

	Delete(key domain.LogicalPortKey) domain.Result

	Get(key domain.LogicalPortKey) (*domain.LogicalPort, domain.Result)

	// FirstPort / NextPort iterate logical ports in stable slot order
	// within a single physical port. FirstPort returns a seed cursor for
	// physPort (slot 0, "before the first slot") to pass to NextPort.
	FirstPort(physPort uint32) (domain.LogicalPortKey, domain.Result)
	NextPort(cursor domain.LogicalPortKey) (domain.LogicalPortKey, domain.Result)

	// Count returns the number of logical ports currently allocated on
	// physPort.
	Count(physPort uint32) int

	// SetMaxUsers sets the logical-port slot cap enforced by Create
	// (spec.md section 4.1, "port.max_users").
	SetMaxUsers(physPort uint32, maxUsers int)
}
