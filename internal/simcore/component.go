package simcore

// Named is anything addressable by a unique name.
type Named interface {
	Name() string
}

// Component is a node in the simulation graph that owns ports and can
// handle events scheduled against it. Modeled on akita's Component.
type Component interface {
	Named
	Handler
	GetPortByName(name string) Port
}

// ComponentBase provides the common bookkeeping every Component needs.
type ComponentBase struct {
	name  string
	ports map[string]Port
}

// NewComponentBase creates a ComponentBase with the given name.
func NewComponentBase(name string) *ComponentBase {
	return &ComponentBase{name: name, ports: make(map[string]Port)}
}

// Name returns the component's name.
func (c *ComponentBase) Name() string { return c.name }

// AddPort registers a port under the component.
func (c *ComponentBase) AddPort(p Port) {
	c.ports[p.Name()] = p
}

// GetPortByName looks up a previously added port.
func (c *ComponentBase) GetPortByName(name string) Port {
	return c.ports[name]
}
