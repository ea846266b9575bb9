package domain

import "time"

// AuditEntry records one admin-surface operation for the audit log
// (spec.md section 6), independent of RADIUS accounting.
type AuditEntry struct {
	ID        string
	Timestamp time.Time
	Operation string
	PhysPort  uint32
	Params    string
	Result    string
}
