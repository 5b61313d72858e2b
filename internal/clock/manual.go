package clock

import (
	"sort"
	"time"
)

// Manual is a controllable scheduler for tests. Time only moves when
// Advance or SetTime is called; due callbacks run synchronously on the
// calling goroutine, in deadline order, matching the cooperative
// single-threaded model the decoder assumes.
type Manual struct {
	now     time.Time
	pending []*manualTimer
	seq     int
}

type manualTimer struct {
	owner    *Manual
	deadline time.Time
	seq      int
	fn       func()
	fired    bool
	canceled bool
}

// NewManual creates a manual scheduler starting at the given time.
func NewManual(start time.Time) *Manual {
	return &Manual{now: start}
}

// Now returns the current manual time.
func (m *Manual) Now() time.Time { return m.now }

// AfterFunc registers fn to run once time advances past d.
func (m *Manual) AfterFunc(d time.Duration, fn func()) Timer {
	m.seq++
	t := &manualTimer{owner: m, deadline: m.now.Add(d), seq: m.seq, fn: fn}
	m.pending = append(m.pending, t)
	return t
}

// Advance moves time forward, firing every timer whose deadline falls
// within the window. Callbacks may schedule further timers; those fire
// too if they land inside the same window.
func (m *Manual) Advance(d time.Duration) {
	m.SetTime(m.now.Add(d))
}

// SetTime jumps to an absolute time, firing due timers along the way.
func (m *Manual) SetTime(target time.Time) {
	for {
		next := m.nextDue(target)
		if next == nil {
			break
		}
		if next.deadline.After(m.now) {
			m.now = next.deadline
		}
		next.fired = true
		next.fn()
	}
	if target.After(m.now) {
		m.now = target
	}
}

// nextDue pops the earliest live timer with deadline <= target.
func (m *Manual) nextDue(target time.Time) *manualTimer {
	live := m.pending[:0]
	var due []*manualTimer
	for _, t := range m.pending {
		if t.fired || t.canceled {
			continue
		}
		if !t.deadline.After(target) {
			due = append(due, t)
		}
		live = append(live, t)
	}
	m.pending = live

	if len(due) == 0 {
		return nil
	}
	sort.Slice(due, func(i, j int) bool {
		if !due[i].deadline.Equal(due[j].deadline) {
			return due[i].deadline.Before(due[j].deadline)
		}
		return due[i].seq < due[j].seq
	})
	return due[0]
}

// PendingCount returns the number of timers that are armed and not yet
// fired or canceled.
func (m *Manual) PendingCount() int {
	n := 0
	for _, t := range m.pending {
		if !t.fired && !t.canceled {
			n++
		}
	}
	return n
}

func (t *manualTimer) Cancel() bool {
	if t.fired || t.canceled {
		return false
	}
	t.canceled = true
	return true
}
