package clock

import (
	"testing"
	"time"
)

func TestSystem_Now(t *testing.T) {
	before := time.Now()
	actual := System{}.Now()
	after := time.Now()

	if actual.Before(before) || actual.After(after) {
		t.Errorf("System.Now() = %v, expected between %v and %v", actual, before, after)
	}
	if actual.Location() != time.UTC {
		t.Errorf("System.Now() should be UTC, got %v", actual.Location())
	}
}

func TestFake(t *testing.T) {
	start := time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)
	clk := NewFake(start)

	t.Run("returns frozen time", func(t *testing.T) {
		first := clk.Now()
		time.Sleep(time.Millisecond)
		if !clk.Now().Equal(first) || !first.Equal(start) {
			t.Errorf("Fake.Now() drifted: got %v, want %v", clk.Now(), start)
		}
	})

	t.Run("advance moves forward", func(t *testing.T) {
		got := clk.Advance(90 * time.Minute)
		want := start.Add(90 * time.Minute)
		if !got.Equal(want) || !clk.Now().Equal(want) {
			t.Errorf("Advance = %v, want %v", got, want)
		}
	})

	t.Run("set overrides", func(t *testing.T) {
		target := time.Date(2030, 6, 1, 0, 0, 0, 0, time.UTC)
		clk.Set(target)
		if !clk.Now().Equal(target) {
			t.Errorf("Now() = %v after Set, want %v", clk.Now(), target)
		}
	})
}
