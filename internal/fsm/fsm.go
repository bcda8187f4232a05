// Package fsm wraps github.com/looplab/fsm behind a small interface
// tailored to driving a SASL negotiation (internal/auth): named states,
// named events, optional guards, and an action that runs on entering a
// state.
// file: internal/fsm/fsm.go
package fsm

import (
	"context"
	"sync"

	"github.com/cockroachdb/errors"
	lfsm "github.com/looplab/fsm"

	"github.com/dkoosis/thriftrt/internal/logging"
)

// State names a node in the machine (e.g. "negotiating", "authenticated").
type State string

// Event names a trigger that may move the machine between states (e.g.
// "start", "challenge", "complete").
type Event string

// TransitionAction runs after a transition lands on its destination
// state. data is whatever was passed to FSM.Transition.
type TransitionAction func(ctx context.Context, event Event, data interface{}) error

// GuardCondition runs before a transition is allowed to proceed. A
// guard returning false cancels the transition.
type GuardCondition func(ctx context.Context, event Event, data interface{}) bool

// Transition defines one edge: From any of the listed source states,
// Event moves the machine to To, subject to Condition, then runs Action.
type Transition struct {
	From      []State
	To        State
	Event     Event
	Action    TransitionAction
	Condition GuardCondition
}

// FSM is the negotiation state machine used by internal/auth's SASL
// transport to track its start/negotiating/complete/failed progress.
type FSM interface {
	// AddTransition stores a transition definition. Call Build() once all
	// transitions have been added.
	AddTransition(transition Transition) FSM
	// Build finalizes the configuration and constructs the underlying
	// machine. Must be called before any other method.
	Build() error
	// CurrentState returns the current state.
	CurrentState() State
	// CanTransition reports whether event is defined for the current state.
	// It does not evaluate guards.
	CanTransition(event Event) bool
	// Transition attempts to fire event, running any guard and action.
	Transition(ctx context.Context, event Event, data interface{}) error
}

type loopFSM struct {
	initialState State
	logger       logging.Logger
	transitions  []Transition

	mu       sync.RWMutex
	fsm      *lfsm.FSM
	buildErr error

	callbackMap  lfsm.Callbacks
	eventDescMap map[string]lfsm.EventDesc
}

// NewFSM creates a builder seeded at initialState. Add transitions with
// AddTransition, then call Build.
func NewFSM(initialState State, logger logging.Logger) FSM {
	return &loopFSM{
		initialState: initialState,
		logger:       logging.OrNoop(logger).WithField("component", "fsm"),
		transitions:  make([]Transition, 0),
	}
}

func (l *loopFSM) AddTransition(t Transition) FSM {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.fsm != nil {
		if l.buildErr == nil {
			l.buildErr = errors.New("cannot AddTransition after Build")
		}
		return l
	}
	if len(t.From) == 0 {
		if l.buildErr == nil {
			l.buildErr = errors.Newf("transition for event %q has no From states", t.Event)
		}
		return l
	}
	l.transitions = append(l.transitions, t)
	return l
}

func (l *loopFSM) Build() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.fsm != nil {
		return l.buildErr
	}
	if l.buildErr != nil {
		return l.buildErr
	}

	l.callbackMap = make(lfsm.Callbacks)
	l.eventDescMap = make(map[string]lfsm.EventDesc)
	processedEvents := make(map[Event]struct{})

	for i, t := range l.transitions {
		eventName := string(t.Event)
		toStateStr := string(t.To)
		fromStatesStr := make([]string, len(t.From))
		for j, s := range t.From {
			fromStatesStr[j] = string(s)
		}

		desc, exists := l.eventDescMap[eventName]
		if !exists {
			desc = lfsm.EventDesc{Name: eventName, Dst: toStateStr}
		} else if desc.Dst != toStateStr {
			l.buildErr = errors.Newf(
				"event %q has conflicting destinations %q and %q; split into separate events",
				eventName, desc.Dst, toStateStr)
			return l.buildErr
		}
		desc.Src = append(desc.Src, fromStatesStr...)
		l.eventDescMap[eventName] = desc

		if _, done := processedEvents[t.Event]; !done {
			if t.Condition != nil {
				l.callbackMap["before_"+eventName] = l.createGuardCallback(t)
			}
			processedEvents[t.Event] = struct{}{}
		}
		if t.Action != nil {
			enterName := "enter_" + toStateStr
			l.callbackMap[enterName] = l.createActionCallback(i, l.callbackMap[enterName])
		}
	}

	finalEvents := make([]lfsm.EventDesc, 0, len(l.eventDescMap))
	for _, desc := range l.eventDescMap {
		seen := make(map[string]struct{}, len(desc.Src))
		deduped := make([]string, 0, len(desc.Src))
		for _, s := range desc.Src {
			if _, ok := seen[s]; !ok {
				seen[s] = struct{}{}
				deduped = append(deduped, s)
			}
		}
		desc.Src = deduped
		finalEvents = append(finalEvents, desc)
	}

	l.fsm = lfsm.NewFSM(string(l.initialState), finalEvents, l.callbackMap)
	return nil
}

func (l *loopFSM) createGuardCallback(t Transition) lfsm.Callback {
	return func(ctx context.Context, e *lfsm.Event) {
		relevant := false
		for _, src := range t.From {
			if e.Src == string(src) {
				relevant = true
				break
			}
		}
		if !relevant {
			return
		}
		var data interface{}
		if len(e.Args) > 0 {
			data = e.Args[0]
		}
		if !t.Condition(ctx, t.Event, data) {
			e.Cancel(errors.Newf("guard for event %q from state %q failed", t.Event, e.Src))
		}
	}
}

func (l *loopFSM) createActionCallback(transitionIndex int, next lfsm.Callback) lfsm.Callback {
	return func(ctx context.Context, e *lfsm.Event) {
		l.mu.RLock()
		var matched *Transition
		if transitionIndex < len(l.transitions) {
			candidate := l.transitions[transitionIndex]
			if string(candidate.Event) == e.Event {
				for _, src := range candidate.From {
					if string(src) == e.Src {
						matched = &candidate
						break
					}
				}
			}
		}
		l.mu.RUnlock()

		if matched != nil && matched.Action != nil {
			var data interface{}
			if len(e.Args) > 0 {
				data = e.Args[0]
			}
			if err := matched.Action(ctx, matched.Event, data); err != nil {
				l.logger.Error("transition action failed", "event", matched.Event, "to", matched.To, "error", err)
			}
		}
		if next != nil {
			next(ctx, e)
		}
	}
}

func (l *loopFSM) CurrentState() State {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.fsm == nil {
		return l.initialState
	}
	return State(l.fsm.Current())
}

func (l *loopFSM) CanTransition(event Event) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.fsm == nil {
		return false
	}
	return l.fsm.Can(string(event))
}

func (l *loopFSM) Transition(ctx context.Context, event Event, data interface{}) error {
	l.mu.RLock()
	if l.fsm == nil {
		l.mu.RUnlock()
		return errors.New("fsm: Transition called before Build")
	}
	instance := l.fsm
	l.mu.RUnlock()

	args := []interface{}{}
	if data != nil {
		args = append(args, data)
	}

	err := instance.Event(ctx, string(event), args...)
	if err == nil {
		return nil
	}

	var noTransition lfsm.NoTransitionError
	var invalidEvent lfsm.InvalidEventError
	var unknownEvent lfsm.UnknownEventError
	var canceled lfsm.CanceledError
	var inTransition lfsm.InTransitionError

	switch {
	case errors.As(err, &noTransition), errors.As(err, &invalidEvent), errors.As(err, &unknownEvent):
		return errors.Wrapf(err, "event %q not valid from state %q", event, l.CurrentState())
	case errors.As(err, &canceled):
		return errors.Wrapf(err, "event %q cancelled by guard", event)
	case errors.As(err, &inTransition):
		return errors.Wrapf(err, "event %q arrived while another transition was in flight", event)
	default:
		return errors.Wrapf(err, "transition on event %q from state %q failed", event, l.CurrentState())
	}
}
