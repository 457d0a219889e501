package statemachine

import (
	"errors"
	"testing"

	"camion_tracker/internal/models"
)

func TestCanTransitionForwardOnly(t *testing.T) {
	tests := []struct {
		from, to models.TruckStatus
		ok       bool
	}{
		{models.StatusWaiting, models.StatusLoaded, true},
		{models.StatusLoaded, models.StatusToPay, true},
		{models.StatusToPay, models.StatusExited, true},
		{models.StatusWaiting, models.StatusToPay, false},
		{models.StatusWaiting, models.StatusExited, false},
		{models.StatusLoaded, models.StatusWaiting, false},
		{models.StatusExited, models.StatusWaiting, false},
		{models.StatusExited, models.StatusExited, false},
		{models.StatusToPay, models.StatusToPay, false},
	}
	for _, tt := range tests {
		err := CanTransition(tt.from, tt.to)
		if tt.ok && err != nil {
			t.Errorf("%s -> %s: unexpected error %v", tt.from, tt.to, err)
		}
		if !tt.ok {
			if err == nil {
				t.Errorf("%s -> %s: expected refusal", tt.from, tt.to)
			} else if !errors.Is(err, ErrTransitionRefused) {
				t.Errorf("%s -> %s: error %v does not wrap ErrTransitionRefused", tt.from, tt.to, err)
			}
		}
	}
}

func TestValidTransitionsFrom(t *testing.T) {
	if got := ValidTransitionsFrom(models.StatusWaiting); len(got) != 1 || got[0] != models.StatusLoaded {
		t.Fatalf("from waiting: got %v", got)
	}
	if got := ValidTransitionsFrom(models.StatusExited); len(got) != 0 {
		t.Fatalf("exited should be terminal, got %v", got)
	}
}

func TestIsKnown(t *testing.T) {
	for _, s := range models.AllStatuses {
		if !IsKnown(s) {
			t.Errorf("%s should be known", s)
		}
	}
	if IsKnown("perdu") {
		t.Error("unknown status accepted")
	}
}

func TestTransitionsReturnsCopy(t *testing.T) {
	ts := Transitions()
	ts[0].Action = "x"
	if Transitions()[0].Action == "x" {
		t.Fatal("Transitions leaked internal slice")
	}
}
