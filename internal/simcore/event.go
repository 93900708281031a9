package simcore

import "github.com/bsapcie/exerciser/internal/simcore/id"

// VTimeInSec defines simulated time in seconds.
type VTimeInSec float64

// Handler handles events scheduled against it.
type Handler interface {
	Handle(e Event) error
}

// Event is something scheduled to happen at a future time.
type Event interface {
	Time() VTimeInSec
	Handler() Handler
}

// EventBase provides the common fields of an Event.
type EventBase struct {
	ID      string
	time    VTimeInSec
	handler Handler
}

// NewEventBase creates an EventBase for time t handled by h.
func NewEventBase(t VTimeInSec, h Handler) *EventBase {
	return &EventBase{
		ID:      id.GetGenerator().Generate(),
		time:    t,
		handler: h,
	}
}

// Time returns when the event is due.
func (e *EventBase) Time() VTimeInSec { return e.time }

// Handler returns the component that handles the event.
func (e *EventBase) Handler() Handler { return e.handler }
