package simulator

import (
	"sync"

	"github.com/unixpickle/essentials"
)

// An OrderedNetwork delivers the messages bound for a
// node one after another, in the order they were sent,
// with a random latency on each.
//
// Nodes can be taken down with SetDown, which drops all
// traffic to and from them.
type OrderedNetwork struct {
	Rate             float64
	MaxRandomLatency float64

	lock      sync.Mutex
	nextTimes map[*Node]float64
	downNodes map[*Node]bool
	timers    map[*Node][]*Timer
}

// NewOrderedNetwork creates an OrderedNetwork with the
// given per-node receive rate (bytes per unit time) and
// maximum random latency.
func NewOrderedNetwork(rate float64, maxRandomLatency float64) *OrderedNetwork {
	return &OrderedNetwork{
		Rate:             rate,
		MaxRandomLatency: maxRandomLatency,
		nextTimes:        map[*Node]float64{},
		downNodes:        map[*Node]bool{},
		timers:           map[*Node][]*Timer{},
	}
}

// Send queues the messages behind anything already bound
// for the same destination. Messages to or from a down
// node are dropped.
func (o *OrderedNetwork) Send(h *Handle, msgs ...*Message) {
	o.lock.Lock()
	defer o.lock.Unlock()

	o.dropFiredTimers(h)

	now := h.Time()
	for _, msg := range msgs {
		src := msg.Source.Node
		dest := msg.Dest.Node
		if o.downNodes[src] || o.downNodes[dest] {
			continue
		}
		delay := h.Rand().Float64()*o.MaxRandomLatency + msg.Size/o.Rate
		if busyUntil, ok := o.nextTimes[dest]; ok && busyUntil > now {
			delay += busyUntil - now
		}
		timer := h.Schedule(msg.Dest.Incoming, msg, delay)
		o.nextTimes[dest] = now + delay
		o.timers[dest] = append(o.timers[dest], timer)
		o.timers[src] = append(o.timers[src], timer)
	}
}

// SetDown marks a node as down or back up. Taking a node
// down cancels every message in flight to or from it.
func (o *OrderedNetwork) SetDown(h *Handle, node *Node, down bool) {
	o.lock.Lock()
	defer o.lock.Unlock()

	o.downNodes[node] = down
	if !down {
		return
	}

	delete(o.nextTimes, node)

	o.dropFiredTimers(h)
	canceled := map[*Timer]bool{}
	for _, t := range o.timers[node] {
		canceled[t] = true
		h.Cancel(t)
	}
	delete(o.timers, node)
	o.filterTimers(func(t *Timer) bool {
		return !canceled[t]
	})
}

func (o *OrderedNetwork) dropFiredTimers(h *Handle) {
	now := h.Time()
	o.filterTimers(func(t *Timer) bool {
		return t.Time() >= now
	})
}

func (o *OrderedNetwork) filterTimers(keep func(t *Timer) bool) {
	for node, timers := range o.timers {
		timers := timers
		for i := 0; i < len(timers); i++ {
			if !keep(timers[i]) {
				essentials.UnorderedDelete(&timers, i)
				i--
			}
		}
		o.timers[node] = timers
	}
}
