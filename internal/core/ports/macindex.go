package ports

import "github.com/sonic-net/sonic-pacd/internal/core/domain"

// MacIndex is the MAC-to-logical-port reverse index used to detect
// roaming (spec.md section 4.3): a station's MAC can only be bound to one
// logical port across the whole switch at a time.
type MacIndex interface {
	// Bind records that mac now owns key, returning the logical port it
	// previously owned (if any) so the caller can tear it down as part
	// of roam handling.
	Bind(mac domain.MACAddr, key domain.LogicalPortKey) (previous domain.LogicalPortKey, hadPrevious bool)

	Unbind(mac domain.MACAddr)

	Lookup(mac domain.MACAddr) (domain.LogicalPortKey, bool)
}
