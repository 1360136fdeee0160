/*
 * m65832 - $C030 speaker toggle device.
 *
 * Grounded on the teacher's device-as-state-machine shape (emu/device,
 * emu/model1052) generalized per spec.md section 4.8 and 4.4 of
 * DESIGN NOTES ("cycle-time coroutines" - a pull-based, cycle-stamped
 * iterator of toggle events rather than a cooperative thread).
 */
package devpage

import "github.com/m65832/m65832/bus"

// Toggle records one state change of the speaker, stamped with the
// cycle it occurred on.
type Toggle struct {
	Cycle uint64
	State bool
}

// Speaker is the classic one-bit $C030 soft switch: any data access
// (read or write) toggles its internal state; a debug peek must never
// toggle it.
type Speaker struct {
	state   bool
	history []Toggle
	cycle   func() uint64
}

// NewSpeaker creates a speaker whose toggle history is stamped using
// cycle, typically the owning CPU's cumulative cycle counter.
func NewSpeaker(cycle func() uint64) *Speaker {
	return &Speaker{cycle: cycle}
}

// Access implements Handler.
func (s *Speaker) Access(offset uint32, width int, intent bus.Intent, writeVal uint32) (uint32, bool) {
	if intent.IsDebug() {
		return boolToWord(s.state), true
	}
	s.state = !s.state
	s.history = append(s.history, Toggle{Cycle: s.cycle(), State: s.state})
	return boolToWord(s.state), true
}

// State reports the speaker's current state.
func (s *Speaker) State() bool { return s.state }

// Toggles returns a copy of the recorded toggle history.
func (s *Speaker) Toggles() []Toggle {
	out := make([]Toggle, len(s.history))
	copy(out, s.history)
	return out
}

// SoftSwitches implements SoftSwitchProvider.
func (s *Speaker) SoftSwitches() []SoftSwitchInfo {
	return []SoftSwitchInfo{
		{Name: "SPEAKER", Address: 0xC030, State: s.state, Description: "one-bit speaker toggle"},
	}
}

func boolToWord(b bool) uint32 {
	if b {
		return 1
	}
	return 0
}

var _ Handler = (*Speaker)(nil)
var _ SoftSwitchProvider = (*Speaker)(nil)
