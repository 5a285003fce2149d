package midi

import (
	"runtime"
	"sync"
)

// Loop runs queued functions one at a time on a single goroutine that is
// locked to its OS thread. Transport start/stop calls go through it.
type Loop struct {
	funcs chan func()
	quit  chan struct{}
	done  chan struct{}
	once  sync.Once
}

// NewLoop starts the loop goroutine
func NewLoop() *Loop {
	l := &Loop{
		funcs: make(chan func(), 16),
		quit:  make(chan struct{}),
		done:  make(chan struct{}),
	}
	go l.run()
	return l
}

func (l *Loop) run() {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	defer close(l.done)

	for {
		select {
		case <-l.quit:
			// drain what was queued before Close
			for {
				select {
				case fn := <-l.funcs:
					fn()
				default:
					return
				}
			}
		case fn := <-l.funcs:
			fn()
		}
	}
}

// Post queues fn. Functions posted after Close are dropped.
func (l *Loop) Post(fn func()) {
	select {
	case <-l.quit:
		return
	default:
	}
	select {
	case l.funcs <- fn:
	case <-l.quit:
	}
}

// Do runs fn on the loop and blocks until it returns. It must not be
// called from a function already running on the loop.
func (l *Loop) Do(fn func()) {
	finished := make(chan struct{})
	l.Post(func() {
		defer close(finished)
		fn()
	})
	select {
	case <-finished:
	case <-l.done:
	}
}

// Close stops the loop after running everything already queued
func (l *Loop) Close() {
	l.once.Do(func() { close(l.quit) })
	<-l.done
}
