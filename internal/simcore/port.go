package simcore

// Port is a named endpoint a Component uses to exchange Msg with its
// Connection. Modeled on akita's defaultPort: an outgoing buffer drained by
// the Connection, and an incoming buffer filled by the Connection.
type Port interface {
	Name() string
	CanSend() bool
	Send(m Msg) error
	Deliver(m Msg) error
	RetrieveIncoming() Msg
	PeekIncoming() Msg
	RetrieveOutgoing() Msg
	PeekOutgoing() Msg
}

type defaultPort struct {
	name     string
	outgoing Buffer
	incoming Buffer
}

// NewPort creates a Port with bufSize-deep incoming and outgoing buffers. A
// bufSize of 0 means unbounded.
func NewPort(name string, bufSize int) Port {
	return &defaultPort{
		name:     name,
		outgoing: NewBuffer(name+".out", bufSize),
		incoming: NewBuffer(name+".in", bufSize),
	}
}

func (p *defaultPort) Name() string { return p.name }

func (p *defaultPort) CanSend() bool { return p.outgoing.CanPush() }

func (p *defaultPort) Send(m Msg) error {
	if !p.outgoing.CanPush() {
		return errPortBusy(p.name)
	}
	p.outgoing.Push(m)
	return nil
}

func (p *defaultPort) Deliver(m Msg) error {
	if !p.incoming.CanPush() {
		return errPortBusy(p.name)
	}
	p.incoming.Push(m)
	return nil
}

func (p *defaultPort) RetrieveIncoming() Msg { return p.incoming.Pop() }
func (p *defaultPort) PeekIncoming() Msg     { return p.incoming.Peek() }
func (p *defaultPort) RetrieveOutgoing() Msg { return p.outgoing.Pop() }
func (p *defaultPort) PeekOutgoing() Msg     { return p.outgoing.Peek() }

type portBusyError struct{ port string }

func (e portBusyError) Error() string { return "port " + e.port + " cannot accept message" }

func errPortBusy(port string) error { return portBusyError{port: port} }
