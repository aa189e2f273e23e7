package application

import "testing"

func TestStatus_CanTransitionTo(t *testing.T) {
	t.Parallel()

	allowed := []struct{ from, to Status }{
		{StatusReserved, StatusCheckedIn},
		{StatusReserved, StatusCancelled},
		{StatusReserved, StatusNoShow},
		{StatusCheckedIn, StatusCompleted},
		{StatusCheckedIn, StatusCancelled},
	}
	for _, tc := range allowed {
		if !tc.from.CanTransitionTo(tc.to) {
			t.Fatalf("expected %s -> %s to be legal", tc.from, tc.to)
		}
	}

	forbidden := []struct{ from, to Status }{
		{StatusReserved, StatusCompleted},
		{StatusCheckedIn, StatusNoShow},
		{StatusCompleted, StatusReserved},
		{StatusCancelled, StatusCheckedIn},
		{StatusNoShow, StatusCancelled},
		{StatusCompleted, StatusCancelled},
	}
	for _, tc := range forbidden {
		if tc.from.CanTransitionTo(tc.to) {
			t.Fatalf("expected %s -> %s to be illegal", tc.from, tc.to)
		}
	}
}

func TestStatus_TerminalAndBlocks(t *testing.T) {
	t.Parallel()

	for _, status := range []Status{StatusCompleted, StatusCancelled, StatusNoShow} {
		if !status.Terminal() {
			t.Fatalf("expected %s to be terminal", status)
		}
		if status.Blocks() {
			t.Fatalf("expected %s not to block", status)
		}
	}
	for _, status := range []Status{StatusReserved, StatusCheckedIn} {
		if status.Terminal() {
			t.Fatalf("expected %s not to be terminal", status)
		}
		if !status.Blocks() {
			t.Fatalf("expected %s to block", status)
		}
	}
}

func TestStatus_Valid(t *testing.T) {
	t.Parallel()

	for _, status := range []Status{StatusReserved, StatusCheckedIn, StatusCompleted, StatusCancelled, StatusNoShow} {
		if !status.Valid() {
			t.Fatalf("expected %s to be valid", status)
		}
	}
	if Status("pending").Valid() {
		t.Fatal("expected unknown status to be invalid")
	}
}
