package statemachine

import (
	"errors"
	"fmt"
	"strings"

	"camion_tracker/internal/models"
)

// ErrTransitionRefused is wrapped by every error CanTransition returns.
var ErrTransitionRefused = errors.New("transition refusée")

// Transition is one allowed move of the truck lifecycle and the endpoint action that performs it.
type Transition struct {
	From   models.TruckStatus `json:"de"`
	To     models.TruckStatus `json:"vers"`
	Action string             `json:"action"`
}

// transitions only ever move forward: waiting -> loaded -> to-pay -> exited.
var transitions = []Transition{
	{From: models.StatusWaiting, To: models.StatusLoaded, Action: "charger"},
	{From: models.StatusLoaded, To: models.StatusToPay, Action: "valider-chargement"},
	{From: models.StatusToPay, To: models.StatusExited, Action: "sortie"},
}

type transitionKey struct {
	From models.TruckStatus
	To   models.TruckStatus
}

var transitionMap = func() map[transitionKey]bool {
	m := make(map[transitionKey]bool, len(transitions))
	for _, t := range transitions {
		m[transitionKey{t.From, t.To}] = true
	}
	return m
}()

// IsKnown reports whether s belongs to the status enum.
func IsKnown(s models.TruckStatus) bool {
	for _, known := range models.AllStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// ValidTransitionsFrom returns the states reachable from status in one step.
func ValidTransitionsFrom(status models.TruckStatus) []models.TruckStatus {
	nexts := []models.TruckStatus{}
	for _, t := range transitions {
		if t.From == status {
			nexts = append(nexts, t.To)
		}
	}
	return nexts
}

// CanTransition checks that a truck in state from may move to state to.
func CanTransition(from, to models.TruckStatus) error {
	if transitionMap[transitionKey{from, to}] {
		return nil
	}
	return fmt.Errorf("%w: %s → %s (états suivants possibles : %s)",
		ErrTransitionRefused, from, to, describeValidFrom(from))
}

// Transitions returns the full lifecycle for documentation.
func Transitions() []Transition {
	out := make([]Transition, len(transitions))
	copy(out, transitions)
	return out
}

func describeValidFrom(status models.TruckStatus) string {
	nexts := ValidTransitionsFrom(status)
	if len(nexts) == 0 {
		return "aucun (état final)"
	}
	names := make([]string, len(nexts))
	for i, s := range nexts {
		names[i] = string(s)
	}
	return strings.Join(names, ", ")
}
