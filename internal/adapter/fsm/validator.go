package fsm

import (
	"context"
	"errors"

	loopfsm "github.com/looplab/fsm"

	"github.com/neomorfeo/lifegarden/internal/domain"
)

// Compile-time check: Validator implements domain.TransitionValidator.
var _ domain.TransitionValidator = (*Validator)(nil)

// events is domain.Transitions in looplab/fsm form. Transitions sharing an
// event and destination collapse into one EventDesc with several sources,
// so "wither" reaches dead from both okay and healthy.
var events = buildEvents(domain.Transitions)

func buildEvents(transitions []domain.Transition) []loopfsm.EventDesc {
	type key struct {
		event domain.Event
		dst   domain.Health
	}
	grouped := make(map[key][]string)
	var order []key

	for _, t := range transitions {
		k := key{event: t.Event, dst: t.Dst}
		if _, seen := grouped[k]; !seen {
			order = append(order, k)
		}
		grouped[k] = append(grouped[k], string(t.Src))
	}

	out := make([]loopfsm.EventDesc, 0, len(order))
	for _, k := range order {
		out = append(out, loopfsm.EventDesc{
			Name: string(k.event),
			Src:  grouped[k],
			Dst:  string(k.dst),
		})
	}
	return out
}

// Validator checks plant health changes against the lifecycle using
// looplab/fsm. The machine is stateful, so each Apply builds a fresh one
// starting at the plant's current health.
type Validator struct{}

// New creates a new FSM-backed health validator.
func New() *Validator {
	return &Validator{}
}

// Apply returns the health a plant reaches when event fires from current,
// or a domain.TransitionError when the lifecycle has no such edge.
func (v *Validator) Apply(ctx context.Context, current domain.Health, event domain.Event) (domain.Health, error) {
	machine := loopfsm.NewFSM(string(current), events, nil)

	if err := machine.Event(ctx, string(event)); err != nil {
		var invalidEvent loopfsm.InvalidEventError
		var unknownEvent loopfsm.UnknownEventError
		var noTransition loopfsm.NoTransitionError
		if errors.As(err, &invalidEvent) || errors.As(err, &unknownEvent) || errors.As(err, &noTransition) {
			return "", &domain.TransitionError{Event: event, Current: current}
		}
		return "", err
	}

	return domain.Health(machine.Current()), nil
}
