package domain

// SmEvent is one of the client state machine events from spec.md
// section 4.8.
type SmEvent int

const (
	EvInitialize SmEvent = iota
	EvStartAuthenticate
	EvAuthSuccess
	EvNotSuccessNoNextMethod
	EvNotSuccessNextMethod
	EvHeldTimerExpired
	EvStopAuthenticate
	EvHigherMethodAdded
	EvReauthenticate
	EvAuthenticatedRxStart
	EvAuthFail
	EvAbortAndRestart
	// evNone is returned by the event generator when no event should be
	// fed back into the FSM this round.
	evNone
)

func (e SmEvent) String() string {
	switch e {
	case EvInitialize:
		return "Initialize"
	case EvStartAuthenticate:
		return "StartAuthenticate"
	case EvAuthSuccess:
		return "AuthSuccess"
	case EvNotSuccessNoNextMethod:
		return "NotSuccessNoNextMethod"
	case EvNotSuccessNextMethod:
		return "NotSuccessNextMethod"
	case EvHeldTimerExpired:
		return "HeldTimerExpired"
	case EvStopAuthenticate:
		return "StopAuthenticate"
	case EvHigherMethodAdded:
		return "HigherMethodAdded"
	case EvReauthenticate:
		return "Reauthenticate"
	case EvAuthenticatedRxStart:
		return "AuthenticatedRxStart"
	case EvAuthFail:
		return "AuthFail"
	case EvAbortAndRestart:
		return "AbortAndRestart"
	default:
		return "None"
	}
}

// NoEvent is exported so packages outside domain can test for "the event
// generator produced nothing this round" without reaching into the
// unexported sentinel.
const NoEvent = evNone
