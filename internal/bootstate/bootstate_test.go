package bootstate_test

import (
	"testing"
	"time"

	"devd/internal/bootstate"
)

func TestDoneStartsFalse(t *testing.T) {
	state := bootstate.New()
	if state.Done() {
		t.Fatal("fresh state reports done")
	}
	select {
	case <-state.Wait():
		t.Fatal("wait channel closed before completion")
	default:
	}
}

func TestSetDonePublishes(t *testing.T) {
	state := bootstate.New()
	state.SetDone()

	if !state.Done() {
		t.Fatal("Done() false after SetDone")
	}
	select {
	case <-state.Wait():
	case <-time.After(time.Second):
		t.Fatal("wait channel not closed after SetDone")
	}
}

func TestSetDoneIsIdempotent(t *testing.T) {
	state := bootstate.New()
	state.SetDone()
	state.SetDone()
	if !state.Done() {
		t.Fatal("Done() false after repeated SetDone")
	}
}

func TestWaitUnblocksConcurrentWaiters(t *testing.T) {
	state := bootstate.New()
	released := make(chan struct{}, 3)
	for i := 0; i < 3; i++ {
		go func() {
			<-state.Wait()
			released <- struct{}{}
		}()
	}

	state.SetDone()
	for i := 0; i < 3; i++ {
		select {
		case <-released:
		case <-time.After(time.Second):
			t.Fatal("waiter not released")
		}
	}
}
