package simulator

import (
	"fmt"
	"math"
	"math/rand"
	"sort"
	"strings"
	"sync"

	"github.com/unixpickle/essentials"
)

// An EventStream is a one-way queue of events delivered
// through an EventLoop.
//
// A stream belongs to the loop that created it.
type EventStream struct {
	loop    *EventLoop
	pending []interface{}
}

// An Event is a message that arrived on an EventStream.
type Event struct {
	Message interface{}
	Stream  *EventStream
}

// A Timer is a pending delivery of an event at some
// point in virtual time.
type Timer struct {
	time  float64
	event *Event
}

// Time gets the virtual time at which the timer fires.
//
// While the loop's clock is below Time(), the timer is
// guaranteed not to have fired.
func (t *Timer) Time() float64 {
	return t.time
}

// A Handle is how a single Goroutine talks to an
// EventLoop. Handles must not be shared.
type Handle struct {
	*EventLoop

	name string
	rng  *rand.Rand

	// Set only while the Goroutine is blocked in Poll.
	pollStreams []*EventStream
	pollChan    chan<- *Event
}

// Name returns the label given to the Goroutine in
// EventLoop.GoNamed, or an empty string.
func (h *Handle) Name() string {
	return h.name
}

// Rand returns the Handle's own random source.
//
// It is seeded from the loop when the Goroutine starts,
// so with NewSeededEventLoop and a fixed spawn order each
// Goroutine sees the same numbers on every run.
func (h *Handle) Rand() *rand.Rand {
	return h.rng
}

// Poll blocks until an event is available on one of the
// streams and returns it.
//
// Streams are checked for already-queued events in the
// order they are passed.
func (h *Handle) Poll(streams ...*EventStream) *Event {
	ch := make(chan *Event, 1)
	h.modifyHandles(func() {
		if h.pollStreams != nil {
			panic("Handle is shared between Goroutines")
		}
		for _, stream := range streams {
			if len(stream.pending) > 0 {
				msg := stream.pending[0]
				essentials.OrderedDelete(&stream.pending, 0)
				ch <- &Event{Message: msg, Stream: stream}
				return
			}
		}
		h.pollStreams = streams
		h.pollChan = ch
	})
	return <-ch
}

// Schedule arranges for msg to arrive on stream after
// delay units of virtual time.
func (h *Handle) Schedule(stream *EventStream, msg interface{}, delay float64) *Timer {
	if stream.loop != h.EventLoop {
		panic("EventStream is not associated with the correct EventLoop")
	}
	var timer *Timer
	h.modify(func() {
		timer = &Timer{
			time:  h.time + delay,
			event: &Event{Message: msg, Stream: stream},
		}
		if math.IsInf(timer.time, 0) || math.IsNaN(timer.time) {
			panic(fmt.Sprintf("invalid deadline: %f", timer.time))
		}
		h.timers = append(h.timers, timer)
	})
	return timer
}

// Cancel removes a timer if it has not fired yet.
func (h *Handle) Cancel(t *Timer) {
	h.modify(func() {
		for i, timer := range h.timers {
			if timer == t {
				essentials.UnorderedDelete(&h.timers, i)
				return
			}
		}
	})
}

// Sleep blocks for delay units of virtual time.
func (h *Handle) Sleep(delay float64) {
	stream := h.Stream()
	h.Schedule(stream, nil, delay)
	h.Poll(stream)
}

// A DeadlockError is returned by EventLoop.Run when every
// live Goroutine is polling and nothing is scheduled.
type DeadlockError struct {
	// Time is the virtual time at which progress stopped.
	Time float64

	// Blocked lists the names of the stuck Goroutines,
	// sorted. Unnamed Goroutines are listed as "?".
	Blocked []string
}

func (d *DeadlockError) Error() string {
	return fmt.Sprintf("deadlock at t=%g: all Handles are polling (%s)",
		d.Time, strings.Join(d.Blocked, ", "))
}

// An EventLoop schedules events for a simulated
// distributed system in virtual time.
//
// Every Goroutine that uses the loop must be started with
// Go or GoNamed. Virtual time only advances while all of
// them are blocked in Poll, so real computation between
// polls takes no virtual time unless it calls Sleep.
type EventLoop struct {
	lock    sync.Mutex
	timers  []*Timer
	handles []*Handle
	rng     *rand.Rand

	time float64

	running  bool
	notifyCh chan struct{}
}

// NewEventLoop creates an event loop whose clock starts
// at 0, with a randomly seeded random source.
func NewEventLoop() *EventLoop {
	return NewSeededEventLoop(rand.Int63())
}

// NewSeededEventLoop creates an event loop whose random
// choices all derive from seed.
//
// Ties between simultaneous timers and every Handle's
// Rand are then reproducible, provided Goroutines are
// started in the same order.
func NewSeededEventLoop(seed int64) *EventLoop {
	return &EventLoop{
		notifyCh: make(chan struct{}, 1),
		rng:      rand.New(rand.NewSource(seed)),
	}
}

// Stream creates a new EventStream on the loop.
func (e *EventLoop) Stream() *EventStream {
	return &EventStream{loop: e}
}

// Go runs f in a new Goroutine with its own Handle.
func (e *EventLoop) Go(f func(h *Handle)) {
	e.GoNamed("", f)
}

// GoNamed is like Go, but labels the Handle so that a
// DeadlockError can say which Goroutines were stuck.
func (e *EventLoop) GoNamed(name string, f func(h *Handle)) {
	h := &Handle{EventLoop: e, name: name}
	e.lock.Lock()
	h.rng = rand.New(rand.NewSource(e.rng.Int63()))
	e.handles = append(e.handles, h)
	e.lock.Unlock()
	go func() {
		defer e.release(h)
		f(h)
	}()
}

func (e *EventLoop) release(h *Handle) {
	e.modifyHandles(func() {
		for i, handle := range e.handles {
			if handle == h {
				essentials.UnorderedDelete(&e.handles, i)
				return
			}
		}
		panic("cannot free handle that does not exist")
	})
}

// Run drives the loop until every Goroutine has returned.
//
// It returns a *DeadlockError if the Goroutines block
// forever. Run must not be called concurrently.
func (e *EventLoop) Run() error {
	e.lock.Lock()
	if e.running {
		e.lock.Unlock()
		panic("EventLoop is already running.")
	}
	e.running = true
	e.lock.Unlock()

	defer func() {
		e.lock.Lock()
		e.running = false
		e.lock.Unlock()
	}()

	for range e.notifyCh {
		if shouldContinue, err := e.step(); !shouldContinue {
			return err
		}
	}

	panic("unreachable")
}

// Time gets the current virtual time.
func (e *EventLoop) Time() float64 {
	e.lock.Lock()
	defer e.lock.Unlock()
	return e.time
}

// modify runs f with the loop locked. f must not change
// which handles are polling.
func (e *EventLoop) modify(f func()) {
	e.lock.Lock()
	defer e.lock.Unlock()
	f()
}

// modifyHandles runs f with the loop locked and then
// wakes the scheduler, since f may have changed which
// handles are polling.
func (e *EventLoop) modifyHandles(f func()) {
	e.lock.Lock()
	defer func() {
		e.lock.Unlock()
		select {
		case e.notifyCh <- struct{}{}:
		default:
		}
	}()
	f()
}

// step delivers the next timer, if every handle is idle.
//
// The first return value is false once the loop should
// stop, in which case the error reports a deadlock, if
// there was one.
func (e *EventLoop) step() (bool, error) {
	e.lock.Lock()
	defer e.lock.Unlock()

	if len(e.handles) == 0 {
		return false, nil
	}

	for _, h := range e.handles {
		if len(h.pollStreams) == 0 {
			// Somebody is still computing in real time.
			return true, nil
		}
	}

	for len(e.timers) > 0 {
		// Ties between equal deadlines are broken at random.
		indices := e.rng.Perm(len(e.timers))

		minTimerIdx := indices[0]
		for _, i := range indices[1:] {
			if e.timers[i].time < e.timers[minTimerIdx].time {
				minTimerIdx = i
			}
		}
		timer := e.timers[minTimerIdx]

		essentials.UnorderedDelete(&e.timers, minTimerIdx)
		e.time = math.Max(e.time, timer.time)
		if e.deliver(timer.event) {
			return true, nil
		}
	}

	return false, e.deadlockError()
}

func (e *EventLoop) deadlockError() *DeadlockError {
	res := &DeadlockError{Time: e.time}
	for _, h := range e.handles {
		name := h.Name()
		if name == "" {
			name = "?"
		}
		res.Blocked = append(res.Blocked, name)
	}
	sort.Strings(res.Blocked)
	return res
}

// deliver hands the event to a polling handle, or queues
// it on the stream if nobody is listening. It reports
// whether a handle was woken up.
func (e *EventLoop) deliver(event *Event) bool {
	// Receivers sharing a stream are woken in random order.
	indices := e.rng.Perm(len(e.handles))
	for _, i := range indices {
		h := e.handles[i]
		for _, stream := range h.pollStreams {
			if stream == event.Stream {
				h.pollChan <- event
				h.pollChan = nil
				h.pollStreams = nil
				return true
			}
		}
	}
	event.Stream.pending = append(event.Stream.pending, event.Message)
	return false
}
