package domain

import "time"

// MaxUsersPerPort bounds the slot space packed into a LogicalPortKey
// (12 bits) and the largest value max_users_set can configure for a port
// under MultiAuth host mode.
const MaxUsersPerPort = 64

// DefaultQuietPeriod is the held/quiet-period duration applied when a
// port has not been explicitly configured, in seconds.
const DefaultQuietPeriod = 60

// DefaultReauthPeriod is the reauthentication interval applied when a
// port has not been explicitly configured and RADIUS supplies no
// Session-Timeout, in seconds.
const DefaultReauthPeriod = 3600

// ClientTimeoutSweepPeriod is the period of the periodic sweep that
// catches logical ports stuck past AUTHMGR_CLIENT_TIMEOUT in the
// original implementation (auth_mgr_db.h), independent of the
// per-client held/reauth timers.
const ClientTimeoutSweepPeriod = 300 * time.Second

// AppTimerTick is the application timer wheel's tick granularity.
const AppTimerTick = 1 * time.Second

// WriteLockTimeout bounds how long an orchestrator operation waits to
// acquire the AuthMgr write lock before failing with Busy (spec.md
// section 5, "per-operation write-lock acquisition takes a millisecond
// timeout").
const WriteLockTimeout = 100 * time.Millisecond
