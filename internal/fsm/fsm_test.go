// file: internal/fsm/fsm_test.go
package fsm

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func newTwoStepMachine(t *testing.T, guard GuardCondition, action TransitionAction) FSM {
	t.Helper()
	m := NewFSM("start", nil)
	m.AddTransition(Transition{
		From:      []State{"start"},
		To:        "challenged",
		Event:     "begin",
		Condition: guard,
	})
	m.AddTransition(Transition{
		From:   []State{"challenged"},
		To:     "done",
		Event:  "complete",
		Action: action,
	})
	require.NoError(t, m.Build())
	return m
}

func TestFSMTransitionsThroughStates(t *testing.T) {
	m := newTwoStepMachine(t, nil, nil)
	require.Equal(t, State("start"), m.CurrentState())
	require.True(t, m.CanTransition("begin"))
	require.False(t, m.CanTransition("complete"))

	require.NoError(t, m.Transition(context.Background(), "begin", nil))
	require.Equal(t, State("challenged"), m.CurrentState())

	require.NoError(t, m.Transition(context.Background(), "complete", nil))
	require.Equal(t, State("done"), m.CurrentState())
}

func TestFSMRejectsEventNotValidFromCurrentState(t *testing.T) {
	m := newTwoStepMachine(t, nil, nil)
	err := m.Transition(context.Background(), "complete", nil)
	require.Error(t, err)
}

func TestFSMGuardCancelsTransition(t *testing.T) {
	m := newTwoStepMachine(t, func(ctx context.Context, event Event, data interface{}) bool {
		return false
	}, nil)
	err := m.Transition(context.Background(), "begin", nil)
	require.Error(t, err)
	require.Equal(t, State("start"), m.CurrentState())
}

func TestFSMActionReceivesEventData(t *testing.T) {
	var seen interface{}
	m := newTwoStepMachine(t, nil, func(ctx context.Context, event Event, data interface{}) error {
		seen = data
		return nil
	})
	require.NoError(t, m.Transition(context.Background(), "begin", nil))
	require.NoError(t, m.Transition(context.Background(), "complete", "payload"))
	require.Equal(t, "payload", seen)
}

func TestFSMTransitionBeforeBuildFails(t *testing.T) {
	m := NewFSM("start", nil)
	m.AddTransition(Transition{From: []State{"start"}, To: "end", Event: "go"})
	err := m.Transition(context.Background(), "go", nil)
	require.Error(t, err)
}

func TestFSMAddTransitionWithNoFromStatesFailsBuild(t *testing.T) {
	m := NewFSM("start", nil)
	m.AddTransition(Transition{To: "end", Event: "go"})
	err := m.Build()
	require.Error(t, err)
}

func TestFSMConflictingEventDestinationsFailsBuild(t *testing.T) {
	m := NewFSM("start", nil)
	m.AddTransition(Transition{From: []State{"start"}, To: "a", Event: "go"})
	m.AddTransition(Transition{From: []State{"other"}, To: "b", Event: "go"})
	err := m.Build()
	require.Error(t, err)
}
