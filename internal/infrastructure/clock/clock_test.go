package clock

import (
	"testing"
	"time"
)

func TestReal(t *testing.T) {
	c := New()

	before := time.Now()
	now := c.Now()
	if now.Before(before) {
		t.Errorf("Now went backwards: %s < %s", now, before)
	}

	select {
	case <-c.After(time.Millisecond):
	case <-time.After(time.Second):
		t.Fatal("After did not fire")
	}
}

func TestFake_AdvanceFiresDueWaiters(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewFake(start)

	short := c.After(time.Hour)
	long := c.After(24 * time.Hour)

	if c.Waiters() != 2 {
		t.Fatalf("expected 2 waiters, got %d", c.Waiters())
	}

	c.Advance(time.Hour)

	select {
	case got := <-short:
		if !got.Equal(start.Add(time.Hour)) {
			t.Errorf("expected fire time %s, got %s", start.Add(time.Hour), got)
		}
	default:
		t.Fatal("expected short waiter to fire")
	}

	select {
	case <-long:
		t.Fatal("long waiter fired early")
	default:
	}

	c.Set(start.Add(48 * time.Hour))
	select {
	case <-long:
	default:
		t.Fatal("expected long waiter to fire after Set")
	}

	if c.Waiters() != 0 {
		t.Errorf("expected no waiters, got %d", c.Waiters())
	}
}

func TestFake_NonPositiveDurationFiresImmediately(t *testing.T) {
	c := NewFake(time.Unix(0, 0))

	select {
	case <-c.After(0):
	default:
		t.Fatal("expected immediate fire")
	}
}

func TestFake_BlockUntil(t *testing.T) {
	c := NewFake(time.Unix(0, 0))

	go func() {
		time.Sleep(5 * time.Millisecond)
		c.After(time.Minute)
	}()

	if !c.BlockUntil(1, time.Second) {
		t.Fatal("waiter was never registered")
	}
	if c.BlockUntil(2, 10*time.Millisecond) {
		t.Error("unexpected second waiter")
	}
}
