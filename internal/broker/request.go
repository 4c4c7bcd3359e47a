package broker

import (
	"github.com/yuv418/echodawn/internal/clienttransport"
	"github.com/yuv418/echodawn/internal/protocol"
)

// RequestKind discriminates the operations the UI can push to the broker.
// This mirrors ChannelEdcsRequest in the original implementation's blocking
// client bridge (spec §4.6).
type RequestKind int

const (
	ReqNewClient RequestKind = iota
	ReqSetupEdcs
	ReqSetupStream
	ReqStartStream
	ReqUpdateStream
	ReqCloseStream
	ReqWriteMouseMove
	ReqWriteMouseButton
	ReqWriteKeyboardEvent
)

// IsInputEvent reports whether this request kind is a fire-and-forget input
// event: exempt from in-flight de-duplication and never produces a recv
// entry (spec §4.6).
func (k RequestKind) IsInputEvent() bool {
	switch k {
	case ReqWriteMouseMove, ReqWriteMouseButton, ReqWriteKeyboardEvent:
		return true
	default:
		return false
	}
}

// Request is a single item pushed from the UI thread to the broker's
// worker. Only the fields relevant to Kind are populated.
type Request struct {
	Kind RequestKind

	DialConfig clienttransport.DialConfig

	Bitrate   uint32
	Framerate uint32

	CalOptionDict map[string]string

	X, Y float64

	Button  protocol.MouseButton
	Pressed bool

	KeyCode int32
}

// NewClientRequest builds a request to establish a fresh client connection.
func NewClientRequest(cfg clienttransport.DialConfig) Request {
	return Request{Kind: ReqNewClient, DialConfig: cfg}
}

// SetupEdcsRequest builds a SetupEdcs request.
func SetupEdcsRequest(bitrate, framerate uint32) Request {
	return Request{Kind: ReqSetupEdcs, Bitrate: bitrate, Framerate: framerate}
}

// SetupStreamRequest builds a SetupStream request.
func SetupStreamRequest(calOptionDict map[string]string) Request {
	return Request{Kind: ReqSetupStream, CalOptionDict: calOptionDict}
}

// StartStreamRequest builds a StartStream request.
func StartStreamRequest() Request { return Request{Kind: ReqStartStream} }

// UpdateStreamRequest builds an UpdateStream request.
func UpdateStreamRequest(bitrate, framerate uint32) Request {
	return Request{Kind: ReqUpdateStream, Bitrate: bitrate, Framerate: framerate}
}

// CloseStreamRequest builds a CloseStream request.
func CloseStreamRequest() Request { return Request{Kind: ReqCloseStream} }

// WriteMouseMoveRequest builds a fire-and-forget pointer move request.
func WriteMouseMoveRequest(x, y float64) Request {
	return Request{Kind: ReqWriteMouseMove, X: x, Y: y}
}

// WriteMouseButtonRequest builds a fire-and-forget button request.
func WriteMouseButtonRequest(btn protocol.MouseButton, pressed bool) Request {
	return Request{Kind: ReqWriteMouseButton, Button: btn, Pressed: pressed}
}

// WriteKeyboardEventRequest builds a fire-and-forget keyboard request.
func WriteKeyboardEventRequest(keyCode int32, pressed bool) Request {
	return Request{Kind: ReqWriteKeyboardEvent, KeyCode: keyCode, Pressed: pressed}
}

// ResponseKind discriminates what arrived on the broker's recv queue.
// Mirrors ChannelEdcsResponse in the original blocking client bridge.
type ResponseKind int

const (
	RespClientInitialised ResponseKind = iota
	RespClientInitError
	RespInvalidClient
	RespRPC
)

// Response is one item the UI thread receives from recv.
type Response struct {
	Kind ResponseKind

	// RPC is the decoded protocol Response, set only when Kind == RespRPC
	// and the RPC itself succeeded.
	RPC *protocol.Response

	// Err carries a connection or RPC failure (RespClientInitError, or
	// RespRPC with a transport-level error rather than a decoded Response).
	Err error
}
