package midi

import (
	"fmt"
	"sync"

	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"

	"go-jamtyper/debug"
)

// Action is a transport command received over MIDI
type Action int

const (
	ActionNone Action = iota
	ActionToggle
	ActionStart
	ActionPause
)

func (a Action) String() string {
	switch a {
	case ActionToggle:
		return "toggle"
	case ActionStart:
		return "start"
	case ActionPause:
		return "pause"
	}
	return "none"
}

// TransportNotes maps note numbers to actions. A negative note is unused.
type TransportNotes struct {
	Toggle int
	Start  int
	Pause  int
}

// Action returns what a note-on of key triggers
func (tn TransportNotes) Action(key uint8) Action {
	switch int(key) {
	case tn.Toggle:
		return ActionToggle
	case tn.Start:
		return ActionStart
	case tn.Pause:
		return ActionPause
	}
	return ActionNone
}

// TransportInput listens on a MIDI input and turns note-ons into
// transport actions
type TransportInput struct {
	id       string
	notes    TransportNotes
	stopFunc func()

	mu      sync.Mutex
	closed  bool
	actions chan Action
}

// NewTransportInput creates the listener without opening a port
func NewTransportInput(id string, notes TransportNotes) *TransportInput {
	return &TransportInput{
		id:      id,
		notes:   notes,
		actions: make(chan Action, 8),
	}
}

// Listen opens inPort and starts translating messages
func (ti *TransportInput) Listen(inPort drivers.In) error {
	stop, err := gomidi.ListenTo(inPort, ti.handle)
	if err != nil {
		return fmt.Errorf("open input %s: %w", inPort.String(), err)
	}
	ti.stopFunc = stop
	debug.Log("input", "listening on %s", inPort.String())
	return nil
}

func (ti *TransportInput) handle(msg gomidi.Message, timestampms int32) {
	var channel, key, velocity uint8
	if !msg.GetNoteOn(&channel, &key, &velocity) || velocity == 0 {
		return
	}
	action := ti.notes.Action(key)
	if action == ActionNone {
		return
	}
	debug.Log("input", "%s: note %d -> %s", ti.id, key, action)

	ti.mu.Lock()
	defer ti.mu.Unlock()
	if ti.closed {
		return
	}
	select {
	case ti.actions <- action:
	default:
	}
}

// Actions returns the channel of received actions
func (ti *TransportInput) Actions() <-chan Action {
	return ti.actions
}

// ID returns the port name the input listens on
func (ti *TransportInput) ID() string {
	return ti.id
}

// Close stops listening. The actions channel is closed.
func (ti *TransportInput) Close() error {
	if ti.stopFunc != nil {
		ti.stopFunc()
		ti.stopFunc = nil
	}
	ti.mu.Lock()
	defer ti.mu.Unlock()
	if !ti.closed {
		ti.closed = true
		close(ti.actions)
	}
	return nil
}
