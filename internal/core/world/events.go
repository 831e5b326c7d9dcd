package world

// Initialize is published once, when the world starts.
type Initialize struct{}

// Reset is published after the scene partition has been cleared.
type Reset struct{}

// Shutdown is published before every entity is deactivated.
type Shutdown struct{}

// ErrorEvent carries a soft error reported by a collaborator, such as a
// scene loader rejecting untrusted input. The core never publishes it for
// contract violations; those panic.
type ErrorEvent struct {
	Source string
	Err    error
}

func (e ErrorEvent) Error() string {
	return e.Source + ": " + e.Err.Error()
}

func (e ErrorEvent) Unwrap() error { return e.Err }
