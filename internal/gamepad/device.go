package gamepad

import (
	"encoding/binary"
	"io"
	"os"
	"sync"

	"github.com/pkg/errors"
)

// State is the part of a controller the navigator cares about.
type State struct {
	Left    bool
	Right   bool
	Primary bool
}

// Source reports controller state.
type Source interface {
	// State returns the latest state and whether the controller is still
	// connected.
	State() (State, bool)
	Close() error
}

// Linux joystick API (linux/joystick.h).
const (
	eventSize = 8

	eventButton = 0x01
	eventAxis   = 0x02
	eventInit   = 0x80

	buttonPrimary   = 0  // A / cross
	buttonDpadLeft  = 14 // standard mapping d-pad
	buttonDpadRight = 15
	axisHatX        = 6 // d-pad reported as a hat on most pads

	axisThreshold = 16384
)

type event struct {
	Value  int16
	Type   uint8
	Number uint8
}

func decodeEvent(b []byte) event {
	// struct js_event { __u32 time; __s16 value; __u8 type; __u8 number; }
	return event{
		Value:  int16(binary.NativeEndian.Uint16(b[4:6])),
		Type:   b[6],
		Number: b[7],
	}
}

// Device reads a Linux joystick device (/dev/input/jsN) in the background.
type Device struct {
	r io.ReadCloser

	mu        sync.Mutex
	buttons   map[uint8]bool
	hatX      int16
	connected bool
	err       error
}

// Open opens the joystick device at path and starts reading events.
func Open(path string) (Source, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open gamepad %s", path)
	}
	return NewDevice(f), nil
}

// NewDevice reads js_event records from r until it fails or is closed.
func NewDevice(r io.ReadCloser) *Device {
	d := &Device{
		r:         r,
		buttons:   make(map[uint8]bool),
		connected: true,
	}
	go d.readLoop()
	return d
}

func (d *Device) readLoop() {
	buf := make([]byte, eventSize)
	for {
		if _, err := io.ReadFull(d.r, buf); err != nil {
			d.mu.Lock()
			d.connected = false
			d.err = err
			d.mu.Unlock()
			return
		}
		d.apply(decodeEvent(buf))
	}
}

func (d *Device) apply(ev event) {
	d.mu.Lock()
	defer d.mu.Unlock()
	switch ev.Type &^ eventInit {
	case eventButton:
		d.buttons[ev.Number] = ev.Value != 0
	case eventAxis:
		if ev.Number == axisHatX {
			d.hatX = ev.Value
		}
	}
}

// State implements Source.
func (d *Device) State() (State, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return State{
		Left:    d.buttons[buttonDpadLeft] || d.hatX <= -axisThreshold,
		Right:   d.buttons[buttonDpadRight] || d.hatX >= axisThreshold,
		Primary: d.buttons[buttonPrimary],
	}, d.connected
}

// Err returns the error that ended the read loop, if any.
func (d *Device) Err() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.err
}

// Close closes the device. The reader exits on its next failed read.
func (d *Device) Close() error {
	return d.r.Close()
}
