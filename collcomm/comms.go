// Package collcomm implements point-to-point and
// collective communication between the nodes of a
// simulated network.
package collcomm

import (
	"fmt"

	"github.com/unixpickle/distsort/simulator"
	"github.com/unixpickle/essentials"
)

// packetHeaderSize is the simulated size, in bytes, of
// the framing around every payload.
const packetHeaderSize = 8

// A Packet is what travels between two Comms.
//
// The payload carries its own length, so a receiver never
// needs to know in advance how much data is coming.
type Packet struct {
	Tag     string
	Payload []float64

	// Abort is set instead of Payload when the sender
	// gave up on the operation named by Tag.
	Abort string
}

// Size is the simulated wire size of the packet.
func (p *Packet) Size() float64 {
	return float64(packetHeaderSize + len(p.Tag) + len(p.Abort) + 8*len(p.Payload))
}

// An AbortError is returned when a peer aborts the
// operation a node is waiting on.
type AbortError struct {
	Rank   int
	Tag    string
	Reason string
}

func (a *AbortError) Error() string {
	return fmt.Sprintf("rank %d aborted %q: %s", a.Rank, a.Tag, a.Reason)
}

// Comms is one node's view of a group of connected nodes.
//
// Every send is labeled with Tag, and every receive only
// returns packets with a matching Tag. Packets for other
// tags that show up early are held until asked for, so a
// node can move through a sequence of phases (with
// WithTag) without a fast peer's next-phase traffic being
// mistaken for the current phase.
type Comms struct {
	// Handle is the node's main Goroutine's handle on the
	// event loop.
	Handle *simulator.Handle

	// Port is the current node's port.
	Port *simulator.Port

	// Ports contains a port for every node in the group,
	// including this one, in rank order.
	Ports []*simulator.Port

	// Network is the network connecting the nodes.
	Network simulator.Network

	// Tag labels the current operation.
	Tag string

	mailbox *mailbox
}

// SpawnComms creates a Comms for every node and calls f
// for each one in its own Goroutine on the loop.
//
// The Goroutines are named "rank <i>" so that deadlocks
// can be traced back to nodes.
func SpawnComms(loop *simulator.EventLoop, network simulator.Network, nodes []*simulator.Node,
	f func(c *Comms)) {
	ports := make([]*simulator.Port, len(nodes))
	for i, node := range nodes {
		ports[i] = node.Port(loop)
	}
	for i := range nodes {
		port := ports[i]
		loop.GoNamed(fmt.Sprintf("rank %d", i), func(h *simulator.Handle) {
			f(&Comms{
				Handle:  h,
				Port:    port,
				Ports:   ports,
				Network: network,
				mailbox: &mailbox{},
			})
		})
	}
}

// WithTag returns a view of c that sends and receives
// under a different tag. The view shares c's buffer of
// early packets.
func (c *Comms) WithTag(tag string) *Comms {
	c.box()
	res := *c
	res.Tag = tag
	return &res
}

// Size gets the number of nodes.
func (c *Comms) Size() int {
	return len(c.Ports)
}

// Index returns the current node's rank.
func (c *Comms) Index() int {
	return c.IndexOf(c.Port)
}

// IndexOf returns the rank of any node's port.
func (c *Comms) IndexOf(p *simulator.Port) int {
	for i, port := range c.Ports {
		if port == p {
			return i
		}
	}
	panic("unreachable")
}

// Send schedules a vector to be sent to rank dst.
//
// The caller must not modify vec afterwards.
func (c *Comms) Send(dst int, vec []float64) {
	c.Network.Send(c.Handle, c.message(dst, &Packet{Tag: c.Tag, Payload: vec}))
}

// SendEach sends vecs[i] to rank i for every rank other
// than the current one, as a single batch.
//
// Empty vectors are still sent, so every peer gets
// exactly one packet.
func (c *Comms) SendEach(vecs [][]float64) {
	if len(vecs) != len(c.Ports) {
		panic("need one vector per node")
	}
	self := c.Index()
	messages := make([]*simulator.Message, 0, len(c.Ports)-1)
	for i, vec := range vecs {
		if i != self {
			messages = append(messages, c.message(i, &Packet{Tag: c.Tag, Payload: vec}))
		}
	}
	c.Network.Send(c.Handle, messages...)
}

// Bcast sends a vector to every other node.
func (c *Comms) Bcast(vec []float64) {
	vecs := make([][]float64, len(c.Ports))
	for i := range vecs {
		vecs[i] = vec
	}
	c.SendEach(vecs)
}

// Abort tells every other node that this node has given
// up on the current operation.
func (c *Comms) Abort(reason string) {
	self := c.Index()
	messages := make([]*simulator.Message, 0, len(c.Ports)-1)
	for i := range c.Ports {
		if i != self {
			messages = append(messages, c.message(i, &Packet{Tag: c.Tag, Abort: reason}))
		}
	}
	c.Network.Send(c.Handle, messages...)
}

// RecvErr receives the next vector sent under c.Tag and
// the rank that sent it.
//
// If the sender aborted, an *AbortError is returned.
func (c *Comms) RecvErr() ([]float64, int, error) {
	msg := c.box().recv(c.Handle, c.Port, c.Tag)
	packet := msg.Message.(*Packet)
	rank := c.IndexOf(msg.Source)
	if packet.Abort != "" {
		return nil, rank, &AbortError{Rank: rank, Tag: packet.Tag, Reason: packet.Abort}
	}
	return packet.Payload, rank, nil
}

// Recv is like RecvErr, but treats an abort as a
// protocol violation and panics.
func (c *Comms) Recv() ([]float64, int) {
	vec, rank, err := c.RecvErr()
	if err != nil {
		panic(err)
	}
	return vec, rank
}

func (c *Comms) message(dst int, p *Packet) *simulator.Message {
	return &simulator.Message{
		Source:  c.Port,
		Dest:    c.Ports[dst],
		Message: p,
		Size:    p.Size(),
	}
}

func (c *Comms) box() *mailbox {
	if c.mailbox == nil {
		c.mailbox = &mailbox{}
	}
	return c.mailbox
}

// A mailbox holds packets that arrived before anybody
// asked for their tag.
type mailbox struct {
	early []*simulator.Message
}

func (m *mailbox) recv(h *simulator.Handle, port *simulator.Port, tag string) *simulator.Message {
	for i, msg := range m.early {
		if msg.Message.(*Packet).Tag == tag {
			essentials.OrderedDelete(&m.early, i)
			return msg
		}
	}
	for {
		msg := port.Recv(h)
		if msg.Message.(*Packet).Tag == tag {
			return msg
		}
		m.early = append(m.early, msg)
	}
}
