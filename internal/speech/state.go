package speech

// WorkerState is the lifecycle state of the speech worker.
type WorkerState int32

const (
	// StateStarting is the state before the worker goroutine runs.
	StateStarting WorkerState = iota
	// StateGreeting is set while the greeting is being spoken.
	StateGreeting
	// StateDraining is set while the worker receives from the queue.
	StateDraining
	// StateTerminated is set once the queue is closed and drained.
	StateTerminated
)

// String returns the string representation of the state.
func (s WorkerState) String() string {
	switch s {
	case StateStarting:
		return "starting"
	case StateGreeting:
		return "greeting"
	case StateDraining:
		return "draining"
	case StateTerminated:
		return "terminated"
	default:
		return "unknown"
	}
}
