package midi

import (
	"context"
	"sync"
	"time"

	"go-jamtyper/debug"
)

// InputEvent is emitted when the transport controller connects/disconnects
type InputEvent struct {
	Type InputEventType
	ID   string
}

type InputEventType int

const (
	InputConnected InputEventType = iota
	InputDisconnected
)

// InputManager handles hot-plug detection of transport controllers. Every
// input port matching the configured name gets a TransportInput, and their
// actions are merged into one channel.
type InputManager struct {
	want     string
	notes    TransportNotes
	pollRate time.Duration

	// port discovery and opening, replaced in tests
	list func() ([]string, error)
	open func(id string, notes TransportNotes) (*TransportInput, error)

	mu      sync.Mutex
	inputs  map[string]*TransportInput
	events  chan InputEvent
	actions chan Action
	done    chan struct{}
	wg      sync.WaitGroup
}

// NewInputManager watches for inputs named like portName
func NewInputManager(portName string, notes TransportNotes) *InputManager {
	return &InputManager{
		want:     portName,
		notes:    notes,
		pollRate: time.Second,
		list:     listInputNames,
		open:     openInput,
		inputs:   make(map[string]*TransportInput),
		events:   make(chan InputEvent, 16),
		actions:  make(chan Action, 16),
		done:     make(chan struct{}),
	}
}

func listInputNames() ([]string, error) {
	ports, err := ListPorts(PortScanTimeout)
	if err != nil {
		return nil, err
	}
	names := make([]string, len(ports.Ins))
	for i, p := range ports.Ins {
		names[i] = p.String()
	}
	return names, nil
}

func openInput(id string, notes TransportNotes) (*TransportInput, error) {
	ports, err := ListPorts(PortScanTimeout)
	if err != nil {
		return nil, err
	}
	port, err := ports.FindIn(id)
	if err != nil {
		return nil, err
	}
	ti := NewTransportInput(id, notes)
	if err := ti.Listen(port); err != nil {
		return nil, err
	}
	return ti, nil
}

// Events returns a channel of connect/disconnect events
func (im *InputManager) Events() <-chan InputEvent {
	return im.events
}

// Actions returns the merged transport actions of every connected input.
// It is closed when Run returns.
func (im *InputManager) Actions() <-chan Action {
	return im.actions
}

// Connected returns the IDs of the open inputs
func (im *InputManager) Connected() []string {
	im.mu.Lock()
	defer im.mu.Unlock()
	ids := make([]string, 0, len(im.inputs))
	for id := range im.inputs {
		ids = append(ids, id)
	}
	return ids
}

// Run starts the polling loop (blocking - run in goroutine)
func (im *InputManager) Run(ctx context.Context) {
	ticker := time.NewTicker(im.pollRate)
	defer ticker.Stop()

	im.scan()

	for {
		select {
		case <-ctx.Done():
			close(im.done)
			im.closeAll()
			im.wg.Wait()
			close(im.actions)
			close(im.events)
			return
		case <-ticker.C:
			im.scan()
		}
	}
}

func (im *InputManager) scan() {
	names, err := im.list()
	if err != nil {
		// CoreMIDI hangs now and then, try again next poll
		debug.LogEvery(10, "input", "scan: %v", err)
		return
	}

	seen := make(map[string]bool)
	for _, name := range names {
		if !matchPort(name, im.want) {
			continue
		}
		seen[name] = true

		im.mu.Lock()
		_, exists := im.inputs[name]
		im.mu.Unlock()
		if exists {
			continue
		}

		ti, err := im.open(name, im.notes)
		if err != nil {
			debug.Log("input", "open %s: %v", name, err)
			continue
		}

		im.mu.Lock()
		im.inputs[name] = ti
		im.mu.Unlock()

		im.wg.Add(1)
		go im.forward(ti)
		im.emit(InputEvent{Type: InputConnected, ID: name})
	}

	im.mu.Lock()
	var gone []string
	for id, ti := range im.inputs {
		if !seen[id] {
			ti.Close()
			delete(im.inputs, id)
			gone = append(gone, id)
		}
	}
	im.mu.Unlock()
	for _, id := range gone {
		im.emit(InputEvent{Type: InputDisconnected, ID: id})
	}
}

// forward copies the actions of one input until it is closed
func (im *InputManager) forward(ti *TransportInput) {
	defer im.wg.Done()
	for a := range ti.Actions() {
		select {
		case im.actions <- a:
		case <-im.done:
			return
		}
	}
}

func (im *InputManager) emit(ev InputEvent) {
	select {
	case im.events <- ev:
	default:
		debug.Log("input", "event dropped: %+v", ev)
	}
}

func (im *InputManager) closeAll() {
	im.mu.Lock()
	defer im.mu.Unlock()
	for _, ti := range im.inputs {
		ti.Close()
	}
	im.inputs = make(map[string]*TransportInput)
}
