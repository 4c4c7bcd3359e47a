package cal

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"net"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/yuv418/echodawn/internal/protocol"
)

// srtpOutParamsLen is the number of random bytes making up the outbound
// SRTP key material, generated once per Adapter at Open (spec §4.3).
const srtpOutParamsLen = 40

var (
	// ErrStreamAlreadySetup is returned by InitServer when stream_setup is
	// already true.
	ErrStreamAlreadySetup = errors.New("cal: stream already set up")
	// ErrStreamNotSetup is returned by Start when stream_setup is false.
	ErrStreamNotSetup = errors.New("cal: stream not set up")
	// ErrAlreadyStreaming is returned by Start when streaming is already true.
	ErrAlreadyStreaming = errors.New("cal: already streaming")
	// ErrNotStreaming is returned by Stop/WriteMouse/WriteKeyboard when
	// streaming is false.
	ErrNotStreaming = errors.New("cal: not streaming")
)

// Adapter is the safe facade over a CAL Backend (spec §3, §4.3). It is
// exclusively owned by one Session for the lifetime of one connection.
type Adapter struct {
	backend Backend

	ip   net.IP
	port int

	bitrate   uint32
	framerate uint32

	srtpOutParams string
	calOptionDict map[string]string
	sdp           string

	streamSetup bool
	streaming   bool

	log zerolog.Logger
}

// Open loads the named backend, queries its default capability dictionary,
// and generates fresh SRTP out-parameters. This is the "open" operation of
// spec §4.3's operation table.
func Open(pluginName string, ip net.IP, port int) (*Adapter, error) {
	backend, err := newBackend(pluginName)
	if err != nil {
		return nil, err
	}

	dict, err := backend.Open(pluginName)
	if err != nil {
		return nil, fmt.Errorf("cal: open backend %q: %w", pluginName, err)
	}

	srtpParams, err := generateSrtpOutParams()
	if err != nil {
		return nil, fmt.Errorf("cal: generate srtp out-params: %w", err)
	}

	a := &Adapter{
		backend:       backend,
		ip:            ip,
		port:          port,
		srtpOutParams: srtpParams,
		calOptionDict: dict,
		log:           log.Logger.With().Str("component", "cal.Adapter").Str("plugin", pluginName).Logger(),
	}
	a.log.Debug().Msg("adapter opened")
	return a, nil
}

func generateSrtpOutParams() (string, error) {
	buf := make([]byte, srtpOutParamsLen)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(buf), nil
}

// CalOptionDict returns the current capability dictionary. The caller (the
// session, on behalf of the client) may mutate a copy and pass it to
// SetCalOptionDict before InitServer.
func (a *Adapter) CalOptionDict() map[string]string {
	out := make(map[string]string, len(a.calOptionDict))
	for k, v := range a.calOptionDict {
		out[k] = v
	}
	return out
}

// SetCalOptionDict replaces the capability dictionary wholesale, the way a
// client-supplied SetupStream payload does (spec §4.3).
func (a *Adapter) SetCalOptionDict(dict map[string]string) {
	a.calOptionDict = dict
}

// StreamSetup reports whether InitServer has succeeded and CloseStream/Stop
// has not yet reverted it.
func (a *Adapter) StreamSetup() bool { return a.streamSetup }

// Streaming reports whether Start has succeeded and Stop has not yet
// reverted it.
func (a *Adapter) Streaming() bool { return a.streaming }

// Sdp returns the SDP string produced by InitServer. It is only meaningful
// when StreamSetup() is true (spec §3 invariant).
func (a *Adapter) Sdp() string { return a.sdp }

// InitServer configures the backend with the current bitrate, framerate,
// capability dictionary, and out-params, and records the returned SDP. This
// is the "init_server" operation; precondition !stream_setup.
func (a *Adapter) InitServer(bitrate, framerate uint32) (string, error) {
	if a.streamSetup {
		return "", ErrStreamAlreadySetup
	}

	a.bitrate = bitrate
	a.framerate = framerate

	sdp, err := a.backend.InitServer(BackendConfig{
		IP:            a.ip.String(),
		Port:          a.port,
		Bitrate:       a.bitrate,
		Framerate:     a.framerate,
		SrtpOutParams: a.srtpOutParams,
		CalOptionDict: a.calOptionDict,
	})
	if err != nil {
		return "", err
	}

	a.sdp = sdp
	a.streamSetup = true
	a.log.Debug().Uint32("bitrate", bitrate).Uint32("framerate", framerate).Msg("stream configured")
	return sdp, nil
}

// Start begins media emission. Precondition: stream_setup && !streaming.
func (a *Adapter) Start() error {
	if !a.streamSetup {
		return ErrStreamNotSetup
	}
	if a.streaming {
		return ErrAlreadyStreaming
	}
	if err := a.backend.Start(); err != nil {
		return err
	}
	a.streaming = true
	a.log.Debug().Msg("streaming started")
	return nil
}

// Stop halts media emission. Precondition: streaming.
func (a *Adapter) Stop() error {
	if !a.streaming {
		return ErrNotStreaming
	}
	if err := a.backend.Stop(); err != nil {
		return err
	}
	a.streaming = false
	a.streamSetup = false
	a.sdp = ""
	a.log.Debug().Msg("streaming stopped")
	return nil
}

// WriteMouse injects a mapped mouse move or button event. Precondition:
// streaming. An unrecognised button ordinal is silently dropped (spec
// §4.3) rather than erroring.
func (a *Adapter) WriteMouse(ev *protocol.MouseEvent) error {
	if !a.streaming {
		return ErrNotStreaming
	}
	in, ok := mapMouseEvent(ev)
	if !ok {
		return nil
	}
	return a.backend.WriteMouse(in)
}

// WriteKeyboard injects a raw Linux evdev keycode press/release.
// Precondition: streaming.
func (a *Adapter) WriteKeyboard(ev *protocol.KeyboardEvent) error {
	if !a.streaming {
		return ErrNotStreaming
	}
	return a.backend.WriteKeyboard(KeyboardEventIn{KeyCode: ev.KeyCode, Pressed: ev.Pressed})
}

// Close releases the adapter's backend resources. It is idempotent: it is a
// no-op unless the adapter is currently streaming, matching spec §9's
// resolution of the dropped-mid-StreamConfigured open question (only
// streaming == true triggers a synthetic close).
func (a *Adapter) Close() error {
	if !a.streaming {
		return nil
	}
	return a.Stop()
}

func mapMouseEvent(ev *protocol.MouseEvent) (MouseEventIn, bool) {
	switch {
	case ev.Move != nil:
		return MouseEventIn{Move: &MouseMoveIn{X: ev.Move.X, Y: ev.Move.Y}}, true
	case ev.Button != nil:
		code, ok := mapMouseButton(ev.Button.Button)
		if !ok {
			return MouseEventIn{}, false
		}
		return MouseEventIn{Button: &MouseButtonIn{Code: code, Pressed: ev.Button.Pressed}}, true
	default:
		return MouseEventIn{}, false
	}
}

func mapMouseButton(b protocol.MouseButton) (int, bool) {
	switch b {
	case protocol.MouseButtonLeft:
		return btnLeft, true
	case protocol.MouseButtonRight:
		return btnRight, true
	case protocol.MouseButtonMiddle:
		return btnMiddle, true
	default:
		return 0, false
	}
}
