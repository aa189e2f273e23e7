package testfixtures

import "testing"

func TestIDGenerator(t *testing.T) {
	t.Run("yields a sequential series", func(t *testing.T) {
		gen := NewIDGenerator("booking")
		for i, want := range []string{"booking-1", "booking-2", "booking-3"} {
			if got := gen.Next(); got != want {
				t.Fatalf("call %d: got %q, want %q", i+1, got, want)
			}
		}
	})

	t.Run("empty prefix falls back to id", func(t *testing.T) {
		if got := NewIDGenerator("").Next(); got != "id-1" {
			t.Fatalf("got %q, want id-1", got)
		}
	})

	t.Run("counter and prefix can be reset", func(t *testing.T) {
		gen := NewIDGenerator("resource")
		_ = gen.Next()
		gen.SetCounter(0)
		gen.SetPrefix("res")
		if got := gen.Next(); got != "res-1" {
			t.Fatalf("got %q after reset, want res-1", got)
		}
	})
}
