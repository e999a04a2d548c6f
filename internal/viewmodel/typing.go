package viewmodel

import "time"

const DefaultTypingIdle = 2 * time.Second

// TypingEmitter debounces the viewer's own typing notifications: start on
// the first keystroke after being idle, stop after a quiet period or when
// the message is sent.
type TypingEmitter struct {
	idle   time.Duration
	active bool
	last   time.Time
}

func NewTypingEmitter(idle time.Duration) TypingEmitter {
	if idle <= 0 {
		idle = DefaultTypingIdle
	}
	return TypingEmitter{idle: idle}
}

// Keystroke records input at now and reports whether typing:start is due.
func (e TypingEmitter) Keystroke(now time.Time) (TypingEmitter, bool) {
	e.last = now
	if e.active {
		return e, false
	}
	e.active = true
	return e, true
}

// Tick reports whether typing:stop is due because the input went quiet.
func (e TypingEmitter) Tick(now time.Time) (TypingEmitter, bool) {
	if !e.active || now.Sub(e.last) < e.idle {
		return e, false
	}
	e.active = false
	return e, true
}

// Sent reports whether typing:stop is due because the message went out.
func (e TypingEmitter) Sent() (TypingEmitter, bool) {
	if !e.active {
		return e, false
	}
	e.active = false
	return e, true
}

func (e TypingEmitter) Active() bool { return e.active }

func (e TypingEmitter) Idle() time.Duration { return e.idle }
