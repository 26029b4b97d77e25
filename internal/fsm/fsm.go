package fsm

import "fmt"

type State string

type Event string

const (
	StateIdle       State = "idle"
	StateRecording  State = "recording"
	StateUploading  State = "uploading"
	StateProcessing State = "processing"
	StateResults    State = "results"
	StateError      State = "error"
)

const (
	EventStart     Event = "start"
	EventStop      Event = "stop"
	EventCancel    Event = "cancel"
	EventUploaded  Event = "uploaded"
	EventCompleted Event = "completed"
	EventFail      Event = "fail"
	EventReset     Event = "reset"
)

// Transition applies one event to the current phase. Exactly one of
// recording/uploading/processing is ever active; invalid events leave the
// phase unchanged and report an error.
func Transition(current State, event Event) (State, error) {
	if event == EventFail {
		return StateError, nil
	}

	switch current {
	case StateIdle:
		switch event {
		case EventStart:
			return StateRecording, nil
		default:
			return current, invalidTransition(current, event)
		}
	case StateRecording:
		switch event {
		case EventStop:
			return StateUploading, nil
		case EventCancel:
			return StateIdle, nil
		default:
			return current, invalidTransition(current, event)
		}
	case StateUploading:
		switch event {
		case EventUploaded:
			return StateProcessing, nil
		case EventCancel:
			return StateIdle, nil
		default:
			return current, invalidTransition(current, event)
		}
	case StateProcessing:
		switch event {
		case EventCompleted:
			return StateResults, nil
		case EventCancel:
			return StateIdle, nil
		default:
			return current, invalidTransition(current, event)
		}
	case StateResults:
		switch event {
		case EventReset:
			return StateIdle, nil
		default:
			return current, invalidTransition(current, event)
		}
	case StateError:
		switch event {
		case EventReset:
			return StateIdle, nil
		default:
			return current, invalidTransition(current, event)
		}
	default:
		return current, fmt.Errorf("unknown state %q", current)
	}
}

func invalidTransition(state State, event Event) error {
	return fmt.Errorf("invalid transition: %s --(%s)--> ?", state, event)
}
