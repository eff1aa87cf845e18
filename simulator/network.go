package simulator

// A Node is a machine on a virtual network.
type Node struct {
	// Nodes are compared by address, and pointers to
	// zero-size values need not be distinct.
	_ byte
}

// NewNode creates a new, unique Node.
func NewNode() *Node {
	return &Node{}
}

// Port opens a new Port on the Node.
func (n *Node) Port(loop *EventLoop) *Port {
	return &Port{Node: n, Incoming: loop.Stream()}
}

// A Port is an endpoint on a Node. Messages are sent from
// one Port to another.
type Port struct {
	// Node is the machine the Port lives on.
	Node *Node

	// Incoming carries *Message values addressed to the
	// Port.
	Incoming *EventStream
}

// Recv blocks until the next message arrives.
func (p *Port) Recv(h *Handle) *Message {
	return h.Poll(p.Incoming).Message.(*Message)
}

// A Message is a unit of data moving between Ports.
//
// Size is measured in bytes and only affects timing; the
// payload itself travels by reference.
type Message struct {
	Source  *Port
	Dest    *Port
	Message interface{}
	Size    float64
}

// A Network moves Messages between Ports.
type Network interface {
	// Send hands messages to the network. Each one that
	// is delivered shows up on its Dest.Incoming stream.
	//
	// Send never blocks. Passing a batch of messages in
	// one call lets the network plan them together, which
	// is cheaper than re-planning after every message.
	Send(h *Handle, msgs ...*Message)
}

// A RandomNetwork delays every message by an independent
// random amount.
type RandomNetwork struct {
	// MaxLatency bounds the random delay.
	// If it is 0, it is treated as 1.
	MaxLatency float64
}

// Send schedules each message with a delay drawn
// uniformly from [0, MaxLatency) using h.Rand.
func (r RandomNetwork) Send(h *Handle, msgs ...*Message) {
	maxLatency := r.MaxLatency
	if maxLatency == 0 {
		maxLatency = 1
	}
	for _, msg := range msgs {
		h.Schedule(msg.Dest.Incoming, msg, h.Rand().Float64()*maxLatency)
	}
}
