package monitor

// State represents the lifecycle state of the monitor engine.
type State string

const (
	// StateIdle indicates the engine has been created but not started.
	StateIdle State = "idle"

	// StateInitializing indicates session setup is in progress: registry
	// build, cursor seeding, handler registration.
	StateInitializing State = "initializing"

	// StateRunning indicates all three ingestion paths are active.
	StateRunning State = "running"

	// StateStopping indicates graceful shutdown is in progress.
	StateStopping State = "stopping"

	// StateStopped indicates the session has terminated. A new session
	// re-initializes from scratch.
	StateStopped State = "stopped"
)

// IsTerminal returns true if this state is a terminal state for the session.
func (s State) IsTerminal() bool {
	return s == StateStopped
}

// CanTransitionTo returns true if transitioning to the target state is valid.
func (s State) CanTransitionTo(target State) bool {
	switch s {
	case StateIdle:
		return target == StateInitializing
	case StateInitializing:
		return target == StateRunning || target == StateStopped
	case StateRunning:
		return target == StateStopping
	case StateStopping:
		return target == StateStopped
	case StateStopped:
		return false
	default:
		return false
	}
}
