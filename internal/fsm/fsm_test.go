package fsm

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTransitionHappyPath(t *testing.T) {
	s := StateIdle

	next, err := Transition(s, EventStart)
	require.NoError(t, err)
	require.Equal(t, StateRecording, next)

	next, err = Transition(next, EventStop)
	require.NoError(t, err)
	require.Equal(t, StateUploading, next)

	next, err = Transition(next, EventUploaded)
	require.NoError(t, err)
	require.Equal(t, StateProcessing, next)

	next, err = Transition(next, EventCompleted)
	require.NoError(t, err)
	require.Equal(t, StateResults, next)

	next, err = Transition(next, EventReset)
	require.NoError(t, err)
	require.Equal(t, StateIdle, next)
}

func TestTransitionFailFromAnyStateGoesError(t *testing.T) {
	states := []State{StateIdle, StateRecording, StateUploading, StateProcessing, StateResults, StateError}
	for _, state := range states {
		next, err := Transition(state, EventFail)
		require.NoError(t, err)
		require.Equal(t, StateError, next)
	}
}

func TestTransitionCancelReturnsToIdleFromActivePhases(t *testing.T) {
	states := []State{StateRecording, StateUploading, StateProcessing}
	for _, state := range states {
		next, err := Transition(state, EventCancel)
		require.NoError(t, err)
		require.Equal(t, StateIdle, next)
	}
}

func TestTransitionMatrixInvalidTransitions(t *testing.T) {
	tests := []struct {
		name    string
		state   State
		event   Event
		want    State
		wantErr bool
	}{
		{name: "idle stop invalid", state: StateIdle, event: EventStop, want: StateIdle, wantErr: true},
		{name: "idle cancel invalid", state: StateIdle, event: EventCancel, want: StateIdle, wantErr: true},
		{name: "idle completed invalid", state: StateIdle, event: EventCompleted, want: StateIdle, wantErr: true},
		{name: "recording start invalid", state: StateRecording, event: EventStart, want: StateRecording, wantErr: true},
		{name: "recording completed invalid", state: StateRecording, event: EventCompleted, want: StateRecording, wantErr: true},
		{name: "uploading stop invalid", state: StateUploading, event: EventStop, want: StateUploading, wantErr: true},
		{name: "uploading completed invalid", state: StateUploading, event: EventCompleted, want: StateUploading, wantErr: true},
		{name: "processing stop invalid", state: StateProcessing, event: EventStop, want: StateProcessing, wantErr: true},
		{name: "processing uploaded invalid", state: StateProcessing, event: EventUploaded, want: StateProcessing, wantErr: true},
		{name: "results start invalid", state: StateResults, event: EventStart, want: StateResults, wantErr: true},
		{name: "results reset valid", state: StateResults, event: EventReset, want: StateIdle, wantErr: false},
		{name: "error start invalid", state: StateError, event: EventStart, want: StateError, wantErr: true},
		{name: "error reset valid", state: StateError, event: EventReset, want: StateIdle, wantErr: false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			next, err := Transition(tc.state, tc.event)
			require.Equal(t, tc.want, next)
			if tc.wantErr {
				require.Error(t, err)
				require.Contains(t, err.Error(), "invalid transition")
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestTransitionUnknownState(t *testing.T) {
	next, err := Transition(State("bogus"), EventStart)
	require.Error(t, err)
	require.Equal(t, State("bogus"), next)
	require.Contains(t, err.Error(), "unknown state")
}
