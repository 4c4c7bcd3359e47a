// Package cal implements the CAL adapter facade (spec §4.3): a typed, safe
// wrapper over a pluggable native capture/encode backend. The facade is the
// only place in the module that would speak to such a backend; Backend is
// the seam a real CGO binding would implement. This module ships a software
// loopback backend so the session and dispatcher layers are fully
// exercisable without any native dependency.
package cal

import "fmt"

// BackendConfig is handed to Backend.InitServer verbatim: the adapter's
// current bitrate, framerate, out-of-band SRTP key material, and the
// (possibly client-edited) capability dictionary.
type BackendConfig struct {
	IP            string
	Port          int
	Bitrate       uint32
	Framerate     uint32
	SrtpOutParams string
	CalOptionDict map[string]string
}

// MouseEventIn is the facade-level mouse event, after button-code mapping.
type MouseEventIn struct {
	Move   *MouseMoveIn
	Button *MouseButtonIn
}

// MouseMoveIn is an absolute pointer position.
type MouseMoveIn struct {
	X, Y float64
}

// MouseButtonIn is a mapped Linux input-event-code button state.
type MouseButtonIn struct {
	Code    int
	Pressed bool
}

// KeyboardEventIn is a raw Linux evdev keycode press/release.
type KeyboardEventIn struct {
	KeyCode int32
	Pressed bool
}

// Backend is the seam to the native capture/encode library (the CAL
// backend). Every method is synchronous from the adapter's point of view:
// the backend is either non-blocking or runs its own threads, so the
// facade never suspends on it (spec §4.3).
type Backend interface {
	// Open loads the backend and returns its default capability dictionary.
	Open(pluginName string) (defaultOptions map[string]string, err error)
	// InitServer configures the backend for streaming and returns the SDP
	// description string to hand to the peer.
	InitServer(cfg BackendConfig) (sdp string, err error)
	// Start begins media emission.
	Start() error
	// Stop halts media emission and releases media resources.
	Stop() error
	// WriteMouse injects a mouse event into the virtual input device.
	WriteMouse(ev MouseEventIn) error
	// WriteKeyboard injects a keyboard event into the virtual input device.
	WriteKeyboard(ev KeyboardEventIn) error
}

// BackendError is an opaque, numeric backend failure (spec §7 class 3),
// reported to the client as EdssErrData without leaking backend internals.
type BackendError struct {
	Code    int32
	Message string
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("cal: backend error %d: %s", e.Code, e.Message)
}

// Linux input-event-codes for the three mouse buttons the facade
// understands (spec §4.3). Any other button ordinal is dropped by the
// caller before it reaches the backend.
const (
	btnLeft   = 0x110
	btnRight  = 0x111
	btnMiddle = 0x112
)
