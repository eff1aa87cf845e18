package simulator

import "sync"

// A MeteredNetwork passes messages on to another Network
// and records how many messages and bytes went over each
// link.
type MeteredNetwork struct {
	Network Network

	lock     sync.Mutex
	index    map[*Node]int
	bytes    *ConnMat
	messages *ConnMat
}

// NewMeteredNetwork wraps network, which must only carry
// messages between the given nodes.
func NewMeteredNetwork(network Network, nodes []*Node) *MeteredNetwork {
	index := make(map[*Node]int, len(nodes))
	for i, node := range nodes {
		index[node] = i
	}
	return &MeteredNetwork{
		Network:  network,
		index:    index,
		bytes:    NewConnMat(len(nodes)),
		messages: NewConnMat(len(nodes)),
	}
}

// Send counts msgs and forwards them.
//
// Messages are counted when they are sent, whether or not
// the underlying network delivers them.
func (m *MeteredNetwork) Send(h *Handle, msgs ...*Message) {
	m.lock.Lock()
	for _, msg := range msgs {
		src, ok1 := m.index[msg.Source.Node]
		dst, ok2 := m.index[msg.Dest.Node]
		if !ok1 || !ok2 {
			m.lock.Unlock()
			panic("message endpoint is not on the network")
		}
		m.bytes.Add(src, dst, msg.Size)
		m.messages.Add(src, dst, 1)
	}
	m.lock.Unlock()

	m.Network.Send(h, msgs...)
}

// Bytes returns a copy of the bytes sent so far on each
// link.
func (m *MeteredNetwork) Bytes() *ConnMat {
	m.lock.Lock()
	defer m.lock.Unlock()
	return m.bytes.Clone()
}

// Messages returns a copy of the number of messages sent
// so far on each link.
func (m *MeteredNetwork) Messages() *ConnMat {
	m.lock.Lock()
	defer m.lock.Unlock()
	return m.messages.Clone()
}
