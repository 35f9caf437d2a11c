package tracker

// State represents a tracker session's lifecycle stage:
// Initial → Running (events flow) ↔ Paused (calls accepted, their events
// dropped; plugins keep running)
// → Destroyed (terminal). Guarded by an atomic.Int32 in Tracker rather than
// a mutex, mirroring connectivity/breaker.go's BreakerState enum.
type State int32

const (
	StateInitial State = iota
	StateRunning
	StatePaused
	StateDestroyed
)

func (s State) String() string {
	switch s {
	case StateInitial:
		return "initial"
	case StateRunning:
		return "running"
	case StatePaused:
		return "paused"
	case StateDestroyed:
		return "destroyed"
	default:
		return "unknown"
	}
}
