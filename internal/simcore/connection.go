package simcore

// Connection forwards Msg between the Ports plugged into it.
type Connection interface {
	PlugIn(p Port)
	Tick() bool
}

// DirectConnection forwards, with zero simulated latency, from each
// plugged-in port's outgoing buffer straight into the matching
// downstream port's incoming buffer. It round-robins among its ports to
// avoid starving any single producer, mirroring akita's DirectConnection.
type DirectConnection struct {
	ports []Port
	pairs map[string]Port // src port name -> dst port
	next  int
}

// NewDirectConnection creates an empty zero-latency connection.
func NewDirectConnection() *DirectConnection {
	return &DirectConnection{pairs: make(map[string]Port)}
}

// PlugIn registers a port with the connection.
func (c *DirectConnection) PlugIn(p Port) {
	c.ports = append(c.ports, p)
}

// Wire declares that messages sent on src's outgoing buffer are delivered
// to dst's incoming buffer.
func (c *DirectConnection) Wire(src, dst Port) {
	c.PlugIn(src)
	c.pairs[src.Name()] = dst
}

// Tick forwards one message per wired source port, round-robin, returning
// true if any message was forwarded.
func (c *DirectConnection) Tick() bool {
	if len(c.ports) == 0 {
		return false
	}
	progress := false
	for i := 0; i < len(c.ports); i++ {
		idx := (c.next + i) % len(c.ports)
		src := c.ports[idx]
		dst, ok := c.pairs[src.Name()]
		if !ok {
			continue
		}
		m := src.PeekOutgoing()
		if m == nil {
			continue
		}
		if err := dst.Deliver(m); err != nil {
			continue
		}
		src.RetrieveOutgoing()
		progress = true
		c.next = (idx + 1) % len(c.ports)
	}
	return progress
}
