// Package reminder schedules one-shot notifications such as "shift starts
// in 15 minutes". A Scheduler owns all of its timers; nothing is global.
package reminder

import (
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/Tiliavir/work-time-tracker/internal/model"
)

// Timer is the part of *time.Timer the scheduler needs.
type Timer interface {
	Stop() bool
}

// AfterFunc starts a timer that calls f after d.
type AfterFunc func(d time.Duration, f func()) Timer

func stdAfterFunc(d time.Duration, f func()) Timer { return time.AfterFunc(d, f) }

// Handle identifies a scheduled reminder.
type Handle uint64

// Reminder is a message due at a point in time.
type Reminder struct {
	At      time.Time
	Message string
}

type pending struct {
	Reminder
	timer Timer
}

// Scheduler fires reminders through a notify callback.
type Scheduler struct {
	mu        sync.Mutex
	now       func() time.Time
	afterFunc AfterFunc
	notify    func(Reminder)
	next      Handle
	pending   map[Handle]*pending
}

// Option customises a Scheduler.
type Option func(*Scheduler)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) { s.now = now }
}

// WithAfterFunc replaces time.AfterFunc.
func WithAfterFunc(f AfterFunc) Option {
	return func(s *Scheduler) { s.afterFunc = f }
}

// New returns a Scheduler that calls notify when a reminder is due. notify
// runs on the timer's goroutine.
func New(notify func(Reminder), opts ...Option) *Scheduler {
	s := &Scheduler{
		now:       time.Now,
		afterFunc: stdAfterFunc,
		notify:    notify,
		pending:   make(map[Handle]*pending),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Schedule arranges for msg to be delivered at at. A time in the past fires
// immediately.
func (s *Scheduler) Schedule(at time.Time, msg string) Handle {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.next++
	h := s.next
	p := &pending{Reminder: Reminder{At: at, Message: msg}}
	s.pending[h] = p
	p.timer = s.afterFunc(max(at.Sub(s.now()), 0), func() { s.fire(h) })
	slog.Debug("reminder scheduled", "handle", h, "at", at, "message", msg)
	return h
}

func (s *Scheduler) fire(h Handle) {
	s.mu.Lock()
	p, ok := s.pending[h]
	delete(s.pending, h)
	s.mu.Unlock()
	if ok {
		s.notify(p.Reminder)
	}
}

// Cancel stops the reminder behind h. It reports whether the reminder was
// still pending.
func (s *Scheduler) Cancel(h Handle) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.pending[h]
	if !ok {
		return false
	}
	p.timer.Stop()
	delete(s.pending, h)
	return true
}

// CancelAll stops every pending reminder.
func (s *Scheduler) CancelAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for h, p := range s.pending {
		p.timer.Stop()
		delete(s.pending, h)
	}
}

// Pending returns the reminders not yet fired, earliest first.
func (s *Scheduler) Pending() []Reminder {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Reminder, 0, len(s.pending))
	for _, p := range s.pending {
		out = append(out, p.Reminder)
	}
	slices.SortFunc(out, func(a, b Reminder) int { return a.At.Compare(b.At) })
	return out
}

// ShiftReminders returns start and end reminders for the shift planned on
// day, each lead before the event. An end hour not after the start hour
// belongs to the next day. Unplanned, leave and rest days yield none.
func ShiftReminders(day time.Time, info model.DayInfo, settings model.WorkSettings, lead time.Duration) []Reminder {
	id, ok := info.ShiftID()
	if !ok {
		return nil
	}
	sh, found := settings.FindShift(id)
	if !found || sh.IsRest() {
		return nil
	}

	name := sh.Name
	if name == "" {
		name = sh.ID
	}
	y, m, d := day.Date()
	var out []Reminder
	var start time.Time
	if sh.StartHour != nil {
		start = time.Date(y, m, d, *sh.StartHour, 0, 0, 0, day.Location())
		out = append(out, Reminder{At: start.Add(-lead), Message: fmt.Sprintf("%s shift starts at %s", name, start.Format("15:04"))})
	}
	if sh.EndHour != nil {
		end := time.Date(y, m, d, *sh.EndHour, 0, 0, 0, day.Location())
		if !start.IsZero() && !end.After(start) {
			end = end.AddDate(0, 0, 1)
		}
		out = append(out, Reminder{At: end.Add(-lead), Message: fmt.Sprintf("%s shift ends at %s", name, end.Format("15:04"))})
	}
	return out
}
