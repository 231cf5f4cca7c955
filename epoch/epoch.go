package epoch

import (
	"context"
	"time"
)

// Epoch runs f on its own goroutine each time true arrives on C. Sending
// false stops the routine. Only one run of f is in progress at a time.
type Epoch struct {
	f    func()
	c    chan bool
	done chan struct{}
}

func NewEpoch(f func()) *Epoch {
	return &Epoch{
		f:    f,
		c:    make(chan bool),
		done: make(chan struct{}),
	}
}

func (e *Epoch) C() chan<- bool {
	return e.c
}

// Done is closed once the routine has returned.
func (e *Epoch) Done() <-chan struct{} {
	return e.done
}

func (e *Epoch) StartEpochRoutine() {
	defer close(e.done)
	for flg := range e.c {
		if !flg {
			return
		}
		e.f()
	}
}

// Drive triggers the routine every interval until ctx ends, then stops it.
// A tick that arrives while f is still running is dropped.
func (e *Epoch) Drive(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			select {
			case e.c <- false:
			case <-e.done:
			}
			return
		case <-ticker.C:
			select {
			case e.c <- true:
			default:
			}
		}
	}
}
