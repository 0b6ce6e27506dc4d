package archon

// factory implements the factory pattern for archon's top-level constructors.
type factory struct{}

// Factory is the package's global factory instance.
var Factory factory

// NewWorld creates a new World with the given options applied over the
// defaults.
func (f factory) NewWorld(opts ...ConfigOption) *World {
	return NewWorld(opts...)
}

// NewScheduler creates a new, empty Scheduler.
func (f factory) NewScheduler() *Scheduler {
	return NewScheduler()
}

// NewActionEncoder creates a new ActionEncoder bound to w.
func (f factory) NewActionEncoder(w *World) *ActionEncoder {
	return NewActionEncoder(w)
}
