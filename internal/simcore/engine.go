package simcore

// Engine drives the simulation clock, dispatching events to their handlers
// in time order. Modeled on akita's SerialEngine.
type Engine interface {
	Schedule(e Event)
	CurrentTime() VTimeInSec
	Run() error
}

// SerialEngine runs events one at a time on the calling goroutine.
type SerialEngine struct {
	queue EventQueue
	now   VTimeInSec
}

// NewSerialEngine creates a SerialEngine with an empty queue.
func NewSerialEngine() *SerialEngine {
	return &SerialEngine{queue: NewEventQueue()}
}

// Schedule enqueues an event for future delivery.
func (e *SerialEngine) Schedule(evt Event) {
	e.queue.Push(evt)
}

// CurrentTime returns the engine's current time: the time of the most
// recently handled event after Run, or the argument of the latest Tick.
func (e *SerialEngine) CurrentTime() VTimeInSec {
	return e.now
}

// Run drains the queue, invoking each event's handler in time order.
func (e *SerialEngine) Run() error {
	for e.queue.Len() > 0 {
		evt := e.queue.Pop()
		e.now = evt.Time()
		if err := evt.Handler().Handle(evt); err != nil {
			return err
		}
	}
	return nil
}

// Pending reports whether any event remains queued.
func (e *SerialEngine) Pending() bool {
	return e.queue.Len() > 0
}

// PeekNextTime returns the time of the next scheduled event without
// removing it. Callers must check Pending first.
func (e *SerialEngine) PeekNextTime() VTimeInSec {
	return e.queue.Peek().Time()
}

// Tick runs every event due at or before now, advancing e.now to now.
func (e *SerialEngine) Tick(now VTimeInSec) error {
	for e.queue.Len() > 0 && e.queue.Peek().Time() <= now {
		evt := e.queue.Pop()
		e.now = evt.Time()
		if err := evt.Handler().Handle(evt); err != nil {
			return err
		}
	}
	e.now = now
	return nil
}
