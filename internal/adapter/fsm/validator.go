package fsm

import (
	"context"
	"errors"

	loopfsm "github.com/looplab/fsm"

	"github.com/neomorfeo/cinelist/internal/domain"
)

// Compile-time check: Validator implements domain.TransitionValidator.
var _ domain.TransitionValidator = (*Validator)(nil)

// statusEvents groups domain.StatusTransitions by event and destination, so
// "drop" from planned and from watching becomes one EventDesc with two sources.
var statusEvents = groupTransitions(domain.StatusTransitions)

func groupTransitions(transitions []domain.StatusTransition) []loopfsm.EventDesc {
	type key struct{ event, dst string }
	grouped := make(map[key][]string)
	var order []key

	for _, t := range transitions {
		k := key{event: string(t.Event), dst: string(t.Dst)}
		if _, seen := grouped[k]; !seen {
			order = append(order, k)
		}
		grouped[k] = append(grouped[k], string(t.Src))
	}

	out := make([]loopfsm.EventDesc, 0, len(order))
	for _, k := range order {
		out = append(out, loopfsm.EventDesc{Name: k.event, Src: grouped[k], Dst: k.dst})
	}
	return out
}

// Validator checks watch status changes with looplab/fsm. looplab machines
// hold their current state, so Apply builds a fresh one seeded with the
// item's status on every call.
type Validator struct{}

// New creates a Validator over domain.StatusTransitions.
func New() *Validator {
	return &Validator{}
}

// Apply returns the status event leads to from current, or a
// *domain.TransitionError when the event is not allowed there.
func (v *Validator) Apply(ctx context.Context, current domain.WatchStatus, event domain.StatusEvent) (domain.WatchStatus, error) {
	machine := loopfsm.NewFSM(string(current), statusEvents, nil)

	if err := machine.Event(ctx, string(event)); err != nil {
		var invalidEvent loopfsm.InvalidEventError
		var unknownEvent loopfsm.UnknownEventError
		var noTransition loopfsm.NoTransitionError
		if errors.As(err, &invalidEvent) || errors.As(err, &unknownEvent) || errors.As(err, &noTransition) {
			return "", &domain.TransitionError{Event: event, Current: current}
		}
		return "", err
	}

	return domain.WatchStatus(machine.Current()), nil
}
