/*
 * m65832 - Cycle-stamped event scheduler.
 *
 * Grounded on github.com/rcornwell/S370 emu/event/event.go's relative-
 * delta linked list (each node stores cycles-until-fire relative to
 * its predecessor, so Advance only ever touches the head), adapted two
 * ways: state lives on an owned *Scheduler instead of a package-level
 * `var el EventList` (DESIGN NOTES section 9), and each node stamps an
 * absolute fire cycle plus a monotonic sequence number so two events
 * due on the same cycle fire in registration order rather than
 * whichever happened to be spliced in first.
 */
package sched

// Callback receives the scheduler's current cycle count and the
// caller-supplied argument when an event fires.
type Callback func(cycle uint64, arg int)

// Token identifies a scheduled event for Cancel.
type Token uint64

type event struct {
	token Token
	at    uint64
	seq   uint64
	cb    Callback
	arg   int
}

// Scheduler is an owned, cycle-stamped event queue. One instance per
// machine (sched.New), never a package-level singleton.
type Scheduler struct {
	now     uint64
	nextSeq uint64
	nextTok Token
	events  []event // kept sorted by (at, seq)
}

// New creates an empty scheduler starting at cycle 0.
func New() *Scheduler {
	return &Scheduler{}
}

// Now returns the current cycle count.
func (s *Scheduler) Now() uint64 { return s.now }

// After schedules cb to fire delay cycles from now (delay==0 fires
// inline, immediately, matching the teacher's time==0 fast path) and
// returns a Token that can be passed to Cancel.
func (s *Scheduler) After(delay uint64, arg int, cb Callback) Token {
	if delay == 0 {
		cb(s.now, arg)
		return 0
	}

	tok := s.nextTok + 1
	s.nextTok = tok
	ev := event{token: tok, at: s.now + delay, seq: s.nextSeq, cb: cb, arg: arg}
	s.nextSeq++

	i := 0
	for ; i < len(s.events); i++ {
		if ev.at < s.events[i].at || (ev.at == s.events[i].at && ev.seq < s.events[i].seq) {
			break
		}
	}
	s.events = append(s.events, event{})
	copy(s.events[i+1:], s.events[i:])
	s.events[i] = ev
	return tok
}

// Cancel removes a previously scheduled event, if it has not yet
// fired. A zero or unknown Token is a silent no-op.
func (s *Scheduler) Cancel(tok Token) {
	if tok == 0 {
		return
	}
	for i, ev := range s.events {
		if ev.token == tok {
			s.events = append(s.events[:i], s.events[i+1:]...)
			return
		}
	}
}

// Advance moves the clock forward by delta cycles, firing every event
// whose fire cycle has been reached, in (at, seq) order.
func (s *Scheduler) Advance(delta uint64) {
	s.now += delta
	for len(s.events) > 0 && s.events[0].at <= s.now {
		ev := s.events[0]
		s.events = s.events[1:]
		ev.cb(s.now, ev.arg)
	}
}

// Pending reports how many events remain queued.
func (s *Scheduler) Pending() int { return len(s.events) }
