package protocol

// MessageType discriminates the control-channel request a Message carries.
type MessageType string

const (
	SetupEdcs        MessageType = "setup_edcs"
	SetupStream      MessageType = "setup_stream"
	StartStream      MessageType = "start_stream"
	CloseStream      MessageType = "close_stream"
	UpdateStream     MessageType = "update_stream"
	WriteMouseEvent  MessageType = "write_mouse_event"
	WriteKeyboard    MessageType = "write_keyboard_event"
)

// Status is the response status taxonomy from spec §6. Values are stable
// integers so both peers can agree on the schema ahead of time.
type Status int

const (
	Ok Status = iota
	InvalidRequest
	UninitialisedEdss
	EdcsAlreadySetup
	StreamAlreadySetup
	StreamAlreadyStarted
	StreamNotStarted
	EdssErr
)

func (s Status) String() string {
	switch s {
	case Ok:
		return "Ok"
	case InvalidRequest:
		return "InvalidRequest"
	case UninitialisedEdss:
		return "UninitialisedEdss"
	case EdcsAlreadySetup:
		return "EdcsAlreadySetup"
	case StreamAlreadySetup:
		return "StreamAlreadySetup"
	case StreamAlreadyStarted:
		return "StreamAlreadyStarted"
	case StreamNotStarted:
		return "StreamNotStarted"
	case EdssErr:
		return "EdssErr"
	default:
		return "Unknown"
	}
}

// MouseButton enumerates the mouse buttons the facade understands. Any other
// ordinal is dropped silently by the adapter per spec §4.3.
type MouseButton int

const (
	MouseButtonLeft MouseButton = iota
	MouseButtonRight
	MouseButtonMiddle
)

// SetupEdcsParams is the payload of a SetupEdcs request.
type SetupEdcsParams struct {
	Bitrate   uint32 `bencode:"bitrate"`
	Framerate uint32 `bencode:"framerate"`
}

// SetupStreamParams is the payload of a SetupStream request. CalOptionDict
// is the (possibly client-edited) capability dictionary to hand to the CAL
// backend verbatim.
type SetupStreamParams struct {
	CalOptionDict map[string]string `bencode:"cal_option_dict"`
}

// MouseMove is a relative-to-surface absolute pointer position.
type MouseMove struct {
	X float64 `bencode:"x"`
	Y float64 `bencode:"y"`
}

// MouseButtonState is a button press or release.
type MouseButtonState struct {
	Button  MouseButton `bencode:"button"`
	Pressed bool        `bencode:"pressed"`
}

// MouseEvent is the payload of a WriteMouseEvent request: exactly one of
// Move or Button is set.
type MouseEvent struct {
	Move   *MouseMove        `bencode:"move,omitempty"`
	Button *MouseButtonState `bencode:"btn,omitempty"`
}

// KeyboardEvent is the payload of a WriteKeyboardEvent request. KeyCode is a
// raw Linux evdev keycode; the sender is responsible for translating from
// any platform-local keycode space before sending (see spec §4.3/§6).
type KeyboardEvent struct {
	KeyCode int32 `bencode:"key_code"`
	Pressed bool  `bencode:"pressed"`
}

// Message is the control-channel request unit. Exactly one payload field is
// populated, selected by Type; this mirrors the teacher's RequestRtp, which
// embeds one struct per payload family rather than using a Go interface, so
// the same struct can be marshalled directly by the bencode encoder.
type Message struct {
	Type MessageType `bencode:"type"`

	SetupEdcsParams   *SetupEdcsParams   `bencode:"setup_edcs_params,omitempty"`
	SetupStreamParams *SetupStreamParams `bencode:"setup_stream_params,omitempty"`
	MouseEvent        *MouseEvent        `bencode:"mouse_event,omitempty"`
	KeyboardEvent     *KeyboardEvent     `bencode:"keyboard_event,omitempty"`
}

// NewSetupEdcs builds a SetupEdcs request.
func NewSetupEdcs(bitrate, framerate uint32) *Message {
	return &Message{
		Type:            SetupEdcs,
		SetupEdcsParams: &SetupEdcsParams{Bitrate: bitrate, Framerate: framerate},
	}
}

// NewSetupStream builds a SetupStream request.
func NewSetupStream(calOptionDict map[string]string) *Message {
	return &Message{
		Type:              SetupStream,
		SetupStreamParams: &SetupStreamParams{CalOptionDict: calOptionDict},
	}
}

// NewStartStream builds a StartStream request (no payload).
func NewStartStream() *Message { return &Message{Type: StartStream} }

// NewCloseStream builds a CloseStream request (no payload).
func NewCloseStream() *Message { return &Message{Type: CloseStream} }

// NewUpdateStream builds an UpdateStream request.
func NewUpdateStream(bitrate, framerate uint32) *Message {
	return &Message{
		Type:            UpdateStream,
		SetupEdcsParams: &SetupEdcsParams{Bitrate: bitrate, Framerate: framerate},
	}
}

// NewMouseMove builds a WriteMouseEvent request carrying a pointer move.
func NewMouseMove(x, y float64) *Message {
	return &Message{Type: WriteMouseEvent, MouseEvent: &MouseEvent{Move: &MouseMove{X: x, Y: y}}}
}

// NewMouseButton builds a WriteMouseEvent request carrying a button state.
func NewMouseButton(btn MouseButton, pressed bool) *Message {
	return &Message{Type: WriteMouseEvent, MouseEvent: &MouseEvent{Button: &MouseButtonState{Button: btn, Pressed: pressed}}}
}

// NewKeyboardEvent builds a WriteKeyboardEvent request.
func NewKeyboardEvent(keyCode int32, pressed bool) *Message {
	return &Message{Type: WriteKeyboard, KeyboardEvent: &KeyboardEvent{KeyCode: keyCode, Pressed: pressed}}
}

// IsInputEvent reports whether m is a fire-and-forget input event, which
// never produces a Response (spec §3, §4.6).
func (m *Message) IsInputEvent() bool {
	return m.Type == WriteMouseEvent || m.Type == WriteKeyboard
}

// StreamParamsEcho is the bitrate/framerate pair echoed back in
// SetupStreamData, confirming what the backend actually applied.
type StreamParamsEcho struct {
	Framerate uint32 `bencode:"framerate"`
	Bitrate   uint32 `bencode:"bitrate"`
}

// SetupEdcsData is the payload of a successful SetupEdcs response.
type SetupEdcsData struct {
	CalOptionDict map[string]string `bencode:"cal_option_dict"`
}

// SetupStreamData is the payload of a successful SetupStream response.
type SetupStreamData struct {
	OutStreamParams StreamParamsEcho `bencode:"out_stream_params"`
	Sdp             string           `bencode:"sdp"`
}

// InvalidRequestData explains a malformed-payload rejection.
type InvalidRequestData struct {
	Reason string `bencode:"reason"`
}

// EdssErrData carries an opaque CAL backend error code.
type EdssErrData struct {
	Code int32 `bencode:"code"`
}

// Response mirrors a Message one-to-one, except input-event requests, which
// produce no Response at all (spec §3).
type Response struct {
	Status Status `bencode:"status"`

	SetupEdcsData      *SetupEdcsData      `bencode:"setup_edcs_data,omitempty"`
	SetupStreamData    *SetupStreamData    `bencode:"setup_stream_data,omitempty"`
	InvalidRequestData *InvalidRequestData `bencode:"invalid_request_data,omitempty"`
	EdssErrData        *EdssErrData        `bencode:"edss_err_data,omitempty"`
}

// NewOkResponse builds a bare Ok response with no payload.
func NewOkResponse() *Response { return &Response{Status: Ok} }

// NewStatusResponse builds a payload-less response carrying a non-Ok status.
func NewStatusResponse(status Status) *Response { return &Response{Status: status} }
