package simulator

import (
	"math"
	"sync"
)

// A SwitcherNetwork routes every message through a
// Switcher. Messages that share links at the same time
// split the bandwidth, so large transfers slow each other
// down.
//
// Each Send catches the transfers already in flight up to
// the current time, adds the new ones, and reschedules
// every delivery that has not happened yet.
type SwitcherNetwork struct {
	lock sync.Mutex

	switcher  Switcher
	numNodes  int
	nodeIndex map[*Node]int
	latency   float64

	inFlight   []*transfer
	lastUpdate float64
}

// NewSwitcherNetwork creates a SwitcherNetwork over the
// given nodes.
//
// Every message pays latency before its bytes start to
// flow. The latency period is counted as link usage, so
// it can delay other messages; this overstates
// congestion somewhat compared to a real network.
func NewSwitcherNetwork(switcher Switcher, nodes []*Node, latency float64) *SwitcherNetwork {
	index := make(map[*Node]int, len(nodes))
	for i, node := range nodes {
		index[node] = i
	}
	return &SwitcherNetwork{
		switcher:  switcher,
		numNodes:  len(nodes),
		nodeIndex: index,
		latency:   latency,
	}
}

// Send adds messages to the network.
func (s *SwitcherNetwork) Send(h *Handle, msgs ...*Message) {
	s.lock.Lock()
	defer s.lock.Unlock()

	now := h.Time()
	pending := s.catchUp(h, now)
	for _, msg := range msgs {
		src, ok1 := s.nodeIndex[msg.Source.Node]
		dst, ok2 := s.nodeIndex[msg.Dest.Node]
		if !ok1 || !ok2 {
			panic("message endpoint is not on the network")
		}
		pending = append(pending, &transfer{
			msg:     msg,
			src:     src,
			dst:     dst,
			latency: s.latency,
			size:    msg.Size,
		})
	}

	s.flow(pending, math.Inf(1), func(i int, offset float64) {
		t := pending[i]
		t.timer = h.Schedule(t.msg.Dest.Incoming, t.msg, offset)
	})
	s.inFlight = pending
	s.lastUpdate = now
}

// catchUp advances the in-flight transfers to now and
// returns the ones still undelivered, with their timers
// canceled.
func (s *SwitcherNetwork) catchUp(h *Handle, now float64) []*transfer {
	var pending []*transfer
	for _, t := range s.flow(s.inFlight, now-s.lastUpdate, nil) {
		if t.timer.Time() <= now {
			// Rounding disagreed with the timer, which has
			// fired or is about to.
			continue
		}
		h.Cancel(t.timer)
		pending = append(pending, t)
	}
	return pending
}

// flow runs the transfers forward for up to limit units
// of time without modifying them.
//
// Rates stay fixed until the next transfer completes, at
// which point the switcher is consulted again. For every
// transfer that completes within limit, finished (if
// non-nil) gets its index in ts and its completion offset.
// The rest are returned as advanced copies.
func (s *SwitcherNetwork) flow(ts []*transfer, limit float64,
	finished func(i int, offset float64)) []*transfer {
	state := make([]transfer, len(ts))
	active := make([]int, len(ts))
	for i, t := range ts {
		state[i] = *t
		active[i] = i
	}

	var clock float64
	for len(active) > 0 {
		s.assignRates(state, active)
		step := math.Inf(1)
		for _, i := range active {
			step = math.Min(step, state[i].eta())
		}
		if clock+step > limit {
			for _, i := range active {
				state[i].advance(limit - clock)
			}
			break
		}
		clock += step
		remaining := active[:0]
		for _, i := range active {
			if state[i].eta() == step {
				if finished != nil {
					finished(i, clock)
				}
			} else {
				state[i].advance(step)
				remaining = append(remaining, i)
			}
		}
		active = remaining
	}

	res := make([]*transfer, len(active))
	for j, i := range active {
		t := state[i]
		res[j] = &t
	}
	return res
}

// assignRates asks the switcher how fast each active
// transfer moves. Transfers on the same link split it
// evenly.
func (s *SwitcherNetwork) assignRates(state []transfer, active []int) {
	links := NewConnMat(s.numNodes)
	shares := NewConnMat(s.numNodes)
	for _, i := range active {
		t := &state[i]
		links.Set(t.src, t.dst, 1)
		shares.Add(t.src, t.dst, 1)
	}
	s.switcher.SwitchedRates(links)
	for _, i := range active {
		t := &state[i]
		t.rate = links.Get(t.src, t.dst) / shares.Get(t.src, t.dst)
	}
}

// A transfer is a message partway through the network.
type transfer struct {
	msg      *Message
	src, dst int
	timer    *Timer

	// Remaining latency and bytes.
	latency float64
	size    float64

	rate float64
}

// eta is the time left until the transfer completes at
// its current rate.
func (t *transfer) eta() float64 {
	if t.size <= 0 {
		return math.Max(0, t.latency)
	}
	return math.Max(0, t.latency) + t.size/t.rate
}

func (t *transfer) advance(elapsed float64) {
	if elapsed < t.latency {
		t.latency -= elapsed
		return
	}
	elapsed -= math.Max(0, t.latency)
	t.latency = 0
	t.size -= t.rate * elapsed
}
