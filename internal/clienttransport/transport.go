package clienttransport

import (
	"fmt"
	"net"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/yuv418/echodawn/internal/protocol"
)

// Transport is one live connection to the server: the client-side
// equivalent of EdcsClient in the original implementation. It is driven
// exclusively by the broker's worker loop (spec §4.6), never concurrently.
type Transport struct {
	conn net.Conn
	log  zerolog.Logger
}

// Connect dials and TLS-handshakes a new Transport.
func Connect(cfg DialConfig) (*Transport, error) {
	conn, err := Dial(cfg)
	if err != nil {
		return nil, err
	}
	return &Transport{
		conn: conn,
		log:  log.Logger.With().Str("component", "clienttransport.Transport").Logger(),
	}, nil
}

// NewWithConn wraps an already-established connection as a Transport,
// bypassing Dial's TLS handshake. Exposed for tests that drive the wire
// protocol over a net.Pipe.
func NewWithConn(conn net.Conn) *Transport {
	return &Transport{conn: conn, log: log.Logger.With().Str("component", "clienttransport.Transport").Logger()}
}

// Close closes the underlying connection.
func (t *Transport) Close() error { return t.conn.Close() }

// send writes msg as a framed request and, unless it is a fire-and-forget
// input event, reads back and decodes the framed Response (spec §4.6).
func (t *Transport) send(msg *protocol.Message) (*protocol.Response, error) {
	payload, err := protocol.EncodeMessage(msg)
	if err != nil {
		return nil, fmt.Errorf("clienttransport: encode %s: %w", msg.Type, err)
	}
	t.log.Trace().Str("type", string(msg.Type)).Msg("writing request")
	if err := protocol.WriteFrame(t.conn, payload); err != nil {
		return nil, fmt.Errorf("clienttransport: write %s: %w", msg.Type, err)
	}

	if msg.IsInputEvent() {
		return nil, nil
	}

	respPayload, err := protocol.ReadFrame(t.conn, protocol.DefaultMaxFrameSize)
	if err != nil {
		return nil, fmt.Errorf("clienttransport: read response to %s: %w", msg.Type, err)
	}
	resp, err := protocol.DecodeResponse(respPayload)
	if err != nil {
		return nil, fmt.Errorf("clienttransport: decode response to %s: %w", msg.Type, err)
	}
	t.log.Trace().Str("type", string(msg.Type)).Str("status", resp.Status.String()).Msg("read response")
	return resp, nil
}

// SetupEdcs issues the SetupEdcs RPC.
func (t *Transport) SetupEdcs(bitrate, framerate uint32) (*protocol.Response, error) {
	return t.send(protocol.NewSetupEdcs(bitrate, framerate))
}

// SetupStream issues the SetupStream RPC.
func (t *Transport) SetupStream(calOptionDict map[string]string) (*protocol.Response, error) {
	return t.send(protocol.NewSetupStream(calOptionDict))
}

// StartStream issues the StartStream RPC.
func (t *Transport) StartStream() (*protocol.Response, error) {
	return t.send(protocol.NewStartStream())
}

// UpdateStream issues the UpdateStream RPC.
func (t *Transport) UpdateStream(bitrate, framerate uint32) (*protocol.Response, error) {
	return t.send(protocol.NewUpdateStream(bitrate, framerate))
}

// CloseStream issues the CloseStream RPC.
func (t *Transport) CloseStream() (*protocol.Response, error) {
	return t.send(protocol.NewCloseStream())
}

// WriteMouseMove sends a fire-and-forget pointer move; its response is
// always nil (spec §4.6).
func (t *Transport) WriteMouseMove(x, y float64) error {
	_, err := t.send(protocol.NewMouseMove(x, y))
	return err
}

// WriteMouseButton sends a fire-and-forget button press/release.
func (t *Transport) WriteMouseButton(btn protocol.MouseButton, pressed bool) error {
	_, err := t.send(protocol.NewMouseButton(btn, pressed))
	return err
}

// WriteKeyboardEvent sends a fire-and-forget key press/release. Callers on
// platforms with a virtual-keycode space must translate to Linux evdev
// codes before calling this (spec §4.3/§6).
func (t *Transport) WriteKeyboardEvent(keyCode int32, pressed bool) error {
	_, err := t.send(protocol.NewKeyboardEvent(keyCode, pressed))
	return err
}
