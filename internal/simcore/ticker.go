package simcore

// Ticker is anything that can advance by one logical step, reporting
// whether it did any work. Modeled on akita's sim.Ticker.
type Ticker interface {
	Tick() bool
}

// TickToQuiescence repeatedly ticks t until it reports no further progress,
// implementing the §5 scheduling model: "repeatedly tick all components in
// a deterministic order until no valid signal is asserted". maxSteps bounds
// runaway loops caused by a programming error in a Ticker implementation.
func TickToQuiescence(t Ticker, maxSteps int) int {
	steps := 0
	for steps < maxSteps {
		if !t.Tick() {
			break
		}
		steps++
	}
	return steps
}

// TickingComponent is a Component whose behavior is entirely driven by a
// Ticker (typically a *MiddlewareHolder aggregating several Middleware).
// Modeled on akita's sim.TickingComponent, simplified to the synchronous,
// single-threaded driver loop this module uses instead of akita's
// event-driven TickScheduler.
type TickingComponent struct {
	*ComponentBase
	Engine Engine
	Freq   Freq
	ticker Ticker
}

// NewTickingComponent wires a ComponentBase, clock frequency, engine, and
// driving Ticker into a TickingComponent.
func NewTickingComponent(
	name string, engine Engine, freq Freq, ticker Ticker,
) *TickingComponent {
	return &TickingComponent{
		ComponentBase: NewComponentBase(name),
		Engine:        engine,
		Freq:          freq,
		ticker:        ticker,
	}
}

// Tick advances the component by one step, ticking its Ticker once;
// RunToQuiescence repeats this until no progress is made.
func (c *TickingComponent) Tick() bool {
	return c.ticker.Tick()
}

// RunToQuiescence ticks the component until it stops making progress.
func (c *TickingComponent) RunToQuiescence(maxSteps int) int {
	return TickToQuiescence(c, maxSteps)
}

// Handle satisfies Handler for components driven by the Engine's event
// queue (used for deferred completions such as DMA timeouts).
func (c *TickingComponent) Handle(e Event) error {
	c.RunToQuiescence(1 << 16)
	return nil
}
