package midi

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"

	"go-jamtyper/debug"
	"go-jamtyper/sequencer"
	"go-jamtyper/song"
)

// ErrPortNotFound is returned when no port matches a configured name
var ErrPortNotFound = errors.New("midi port not found")

// ErrPortScanTimeout is returned when the driver does not answer
var ErrPortScanTimeout = errors.New("midi port scan timed out")

// PortScanTimeout bounds how long listing ports may take (CoreMIDI can hang)
const PortScanTimeout = 3 * time.Second

// Ports is a snapshot of the available ports
type Ports struct {
	Ins  []drivers.In
	Outs []drivers.Out
}

// ListPorts asks the driver for its ports, giving up after timeout
func ListPorts(timeout time.Duration) (Ports, error) {
	ch := make(chan Ports, 1)
	go func() {
		ch <- Ports{Ins: gomidi.GetInPorts(), Outs: gomidi.GetOutPorts()}
	}()

	select {
	case p := <-ch:
		return p, nil
	case <-time.After(timeout):
		// User needs to run: sudo killall coreaudiod midiserver
		return Ports{}, ErrPortScanTimeout
	}
}

// matchPort reports whether a port name matches a configured name: exact,
// or a case-insensitive substring so "IAC" finds "IAC Driver Bus 1".
func matchPort(portName, want string) bool {
	if portName == want {
		return true
	}
	return want != "" && strings.Contains(strings.ToLower(portName), strings.ToLower(want))
}

// FindOut returns the first output port matching name
func (p Ports) FindOut(name string) (drivers.Out, error) {
	for _, port := range p.Outs {
		if matchPort(port.String(), name) {
			return port, nil
		}
	}
	return nil, fmt.Errorf("%w: output %q", ErrPortNotFound, name)
}

// FindIn returns the first input port matching name
func (p Ports) FindIn(name string) (drivers.In, error) {
	for _, port := range p.Ins {
		if matchPort(port.String(), name) {
			return port, nil
		}
	}
	return nil, fmt.Errorf("%w: input %q", ErrPortNotFound, name)
}

// Outputs opens output ports lazily and shares one sender per port
type Outputs struct {
	mu      sync.RWMutex
	senders map[string]Sender
	list    func() (Ports, error)
}

// NewOutputs creates an empty sender cache
func NewOutputs() *Outputs {
	return &Outputs{
		senders: make(map[string]Sender),
		list:    func() (Ports, error) { return ListPorts(PortScanTimeout) },
	}
}

// Sender returns a sender for the given port name, lazily opening it
func (o *Outputs) Sender(portName string) (Sender, error) {
	if portName == "" {
		return nil, fmt.Errorf("%w: no output configured", ErrPortNotFound)
	}

	o.mu.RLock()
	if sender, ok := o.senders[portName]; ok {
		o.mu.RUnlock()
		return sender, nil
	}
	o.mu.RUnlock()

	o.mu.Lock()
	defer o.mu.Unlock()

	// Double-check after acquiring write lock
	if sender, ok := o.senders[portName]; ok {
		return sender, nil
	}

	ports, err := o.list()
	if err != nil {
		return nil, err
	}
	port, err := ports.FindOut(portName)
	if err != nil {
		return nil, err
	}
	send, err := gomidi.SendTo(port)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", port.String(), err)
	}
	debug.Log("midi", "opened output %s", port.String())
	o.senders[portName] = send
	return send, nil
}

// Panic sends all-notes-off on every channel of every open port
func (o *Outputs) Panic() {
	o.mu.RLock()
	defer o.mu.RUnlock()
	for name, send := range o.senders {
		for ch := uint8(0); ch < 16; ch++ {
			if err := send(gomidi.ControlChange(ch, 123, 0)); err != nil {
				debug.Log("midi", "panic %s: %v", name, err)
				break
			}
		}
	}
}

// Close shuts the driver down, closing every port
func (o *Outputs) Close() {
	o.mu.Lock()
	o.senders = make(map[string]Sender)
	o.mu.Unlock()
	gomidi.CloseDriver()
}

// NewFactory builds MIDI instruments sending on send. Track i of a song
// plays on ChannelFor(i, channels).
func NewFactory(send Sender, channels []int, timers sequencer.Timers) sequencer.Factory {
	return func(track song.TrackID, index int, s *song.Song) (sequencer.Instrument, error) {
		ch := ChannelFor(index, channels)
		debug.Log("midi", "track=%s -> ch %d", track, ch+1)
		return NewInstrument(track, ch, send, timers, s), nil
	}
}
