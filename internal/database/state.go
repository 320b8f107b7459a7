package database

// State is the persistence connection state reported by health checks.
// The numeric values follow the usual driver ready-state order.
type State int32

const (
	StateDisconnected State = iota
	StateConnected
	StateConnecting
	StateDisconnecting
)

func (s State) String() string {
	switch s {
	case StateConnected:
		return "connected"
	case StateConnecting:
		return "connecting"
	case StateDisconnecting:
		return "disconnecting"
	default:
		return "disconnected"
	}
}

// Status is a point-in-time snapshot of the supervisor.
type Status struct {
	State            State
	Attempts         int
	RetriesExhausted bool
	LastError        error
}
