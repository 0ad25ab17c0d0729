package chatclient

import (
	"sync"
	"time"
)

const typingIdle = time.Second

// Timer is the slice of *time.Timer the debouncer needs, so tests can
// fire it by hand.
type Timer interface {
	Reset(d time.Duration) bool
	Stop() bool
}

type TimerFactory func(d time.Duration, fn func()) *time.Timer

// typingDebouncer collapses a burst of keystrokes into one
// typing:true and a trailing typing:false after the idle window.
type typingDebouncer struct {
	mu     sync.Mutex
	active bool
	timer  Timer

	newTimer func(d time.Duration, fn func()) Timer
	notify   func(isTyping bool)
}

func newTypingDebouncer(factory TimerFactory, notify func(bool)) *typingDebouncer {
	return &typingDebouncer{
		newTimer: func(d time.Duration, fn func()) Timer {
			return factory(d, fn)
		},
		notify: notify,
	}
}

func newTypingDebouncerWithTimer(newTimer func(d time.Duration, fn func()) Timer, notify func(bool)) *typingDebouncer {
	return &typingDebouncer{
		newTimer: newTimer,
		notify:   notify,
	}
}

func (d *typingDebouncer) keystroke() {
	d.mu.Lock()
	wasActive := d.active
	d.active = true
	if d.timer == nil {
		d.timer = d.newTimer(typingIdle, d.idle)
	} else {
		d.timer.Reset(typingIdle)
	}
	d.mu.Unlock()

	if !wasActive {
		d.notify(true)
	}
}

func (d *typingDebouncer) idle() {
	d.mu.Lock()
	wasActive := d.active
	d.active = false
	d.mu.Unlock()

	if wasActive {
		d.notify(false)
	}
}

func (d *typingDebouncer) stop() {
	d.mu.Lock()
	if d.timer != nil {
		d.timer.Stop()
	}
	wasActive := d.active
	d.active = false
	d.mu.Unlock()

	if wasActive {
		d.notify(false)
	}
}
