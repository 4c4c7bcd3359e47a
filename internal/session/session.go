// Package session implements the server-side per-connection state machine
// (spec §4.4): phase ordering, the single adapter invariant, and the
// cleanup guarantee that a streaming adapter is always stopped before its
// session is discarded.
package session

import (
	"errors"
	"net"
	"sync"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/yuv418/echodawn/internal/cal"
	"github.com/yuv418/echodawn/internal/protocol"
)

// Phase is the five-state session lifecycle from spec §3/§4.4.
type Phase int

const (
	Fresh Phase = iota
	AdapterInitialised
	StreamConfigured
	Streaming
	Closed
)

func (p Phase) String() string {
	switch p {
	case Fresh:
		return "Fresh"
	case AdapterInitialised:
		return "AdapterInitialised"
	case StreamConfigured:
		return "StreamConfigured"
	case Streaming:
		return "Streaming"
	case Closed:
		return "Closed"
	default:
		return "Unknown"
	}
}

// PluginConfig names the CAL backend to open for this session and the
// network endpoint its media stream will bind (spec §6 edss_config).
type PluginConfig struct {
	PluginName string
	IP         net.IP
	Port       int
}

// Session is one connection's server-side state: at most one Adapter, and
// the current Phase (spec §3). Session holds its own mutex across each
// single message handling call (and across Phase and Close), so state-machine
// mutations are linearised (spec §4.4 "Thread-safety").
type Session struct {
	mu sync.Mutex

	id      string
	plugin  PluginConfig
	phase   Phase
	adapter *cal.Adapter

	pendingBitrate   uint32
	pendingFramerate uint32

	log zerolog.Logger
}

// New creates a Fresh session for one accepted connection.
func New(id string, plugin PluginConfig) *Session {
	return &Session{
		id:     id,
		plugin: plugin,
		phase:  Fresh,
		log:    log.Logger.With().Str("component", "session.Session").Str("session_id", id).Logger(),
	}
}

// Phase returns the session's current phase.
func (s *Session) Phase() Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

// Handle applies one decoded Message to the state machine and returns the
// Response to send, or nil if none should be sent (fire-and-forget input
// events, spec §3). Handle takes the session's mutex for the duration of
// the call; it does not suspend.
func (s *Session) Handle(msg *protocol.Message) *protocol.Response {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase == Fresh && msg.Type != protocol.SetupEdcs &&
		msg.Type != protocol.WriteMouseEvent && msg.Type != protocol.WriteKeyboard && msg.Type != protocol.UpdateStream {
		return protocol.NewStatusResponse(protocol.UninitialisedEdss)
	}
	if s.phase == Closed {
		return protocol.NewStatusResponse(protocol.StreamNotStarted)
	}

	switch msg.Type {
	case protocol.SetupEdcs:
		return s.handleSetupEdcs(msg.SetupEdcsParams)
	case protocol.SetupStream:
		return s.handleSetupStream(msg.SetupStreamParams)
	case protocol.StartStream:
		return s.handleStartStream()
	case protocol.UpdateStream:
		return s.handleUpdateStream(msg.SetupEdcsParams)
	case protocol.CloseStream:
		return s.handleCloseStream()
	case protocol.WriteMouseEvent:
		return s.handleWriteMouse(msg.MouseEvent)
	case protocol.WriteKeyboard:
		return s.handleWriteKeyboard(msg.KeyboardEvent)
	default:
		return &protocol.Response{
			Status:             protocol.InvalidRequest,
			InvalidRequestData: &protocol.InvalidRequestData{Reason: "unknown message type"},
		}
	}
}

func (s *Session) handleSetupEdcs(params *protocol.SetupEdcsParams) *protocol.Response {
	if s.phase != Fresh {
		return protocol.NewStatusResponse(protocol.EdcsAlreadySetup)
	}
	if params == nil {
		return &protocol.Response{Status: protocol.InvalidRequest, InvalidRequestData: &protocol.InvalidRequestData{Reason: "missing setup_edcs_params"}}
	}

	adapter, err := cal.Open(s.plugin.PluginName, s.plugin.IP, s.plugin.Port)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to open cal adapter")
		return backendErrResponse(err)
	}

	s.adapter = adapter
	s.pendingBitrate = params.Bitrate
	s.pendingFramerate = params.Framerate
	s.phase = AdapterInitialised
	s.log.Info().Msg("adapter opened, session initialised")
	return &protocol.Response{
		Status:        protocol.Ok,
		SetupEdcsData: &protocol.SetupEdcsData{CalOptionDict: adapter.CalOptionDict()},
	}
}

func (s *Session) handleSetupStream(params *protocol.SetupStreamParams) *protocol.Response {
	if s.phase == StreamConfigured || s.phase == Streaming {
		return protocol.NewStatusResponse(protocol.StreamAlreadySetup)
	}
	if params != nil && params.CalOptionDict != nil {
		s.adapter.SetCalOptionDict(params.CalOptionDict)
	}

	sdp, err := s.adapter.InitServer(s.bitrate(), s.framerate())
	if err != nil {
		s.log.Error().Err(err).Msg("setup_stream failed")
		return backendErrResponse(err)
	}

	s.phase = StreamConfigured
	s.log.Info().Msg("stream configured")
	return &protocol.Response{
		Status: protocol.Ok,
		SetupStreamData: &protocol.SetupStreamData{
			OutStreamParams: protocol.StreamParamsEcho{Framerate: s.framerate(), Bitrate: s.bitrate()},
			Sdp:             sdp,
		},
	}
}

func (s *Session) handleStartStream() *protocol.Response {
	if s.phase == Streaming {
		return protocol.NewStatusResponse(protocol.StreamAlreadyStarted)
	}
	if s.phase != StreamConfigured {
		return protocol.NewStatusResponse(protocol.StreamNotStarted)
	}
	if err := s.adapter.Start(); err != nil {
		s.log.Error().Err(err).Msg("start_stream failed")
		return backendErrResponse(err)
	}
	s.phase = Streaming
	s.log.Info().Msg("streaming started")
	return protocol.NewOkResponse()
}

func (s *Session) handleUpdateStream(params *protocol.SetupEdcsParams) *protocol.Response {
	if s.phase != Streaming {
		return protocol.NewStatusResponse(protocol.StreamNotStarted)
	}
	if params != nil {
		s.setBitrateFramerate(params.Bitrate, params.Framerate)
	}
	s.log.Debug().Msg("stream parameters updated")
	return protocol.NewOkResponse()
}

func (s *Session) handleCloseStream() *protocol.Response {
	if s.phase != Streaming && s.phase != StreamConfigured && s.phase != AdapterInitialised {
		return protocol.NewStatusResponse(protocol.StreamNotStarted)
	}
	s.closeAdapterLocked()
	s.phase = Closed
	s.log.Info().Msg("stream closed")
	return protocol.NewOkResponse()
}

func (s *Session) handleWriteMouse(ev *protocol.MouseEvent) *protocol.Response {
	if s.phase != Streaming {
		return protocol.NewStatusResponse(protocol.StreamNotStarted)
	}
	if err := s.adapter.WriteMouse(ev); err != nil {
		s.log.Error().Err(err).Msg("write_mouse_event failed")
	}
	return nil
}

func (s *Session) handleWriteKeyboard(ev *protocol.KeyboardEvent) *protocol.Response {
	if s.phase != Streaming {
		return protocol.NewStatusResponse(protocol.StreamNotStarted)
	}
	if err := s.adapter.WriteKeyboard(ev); err != nil {
		s.log.Error().Err(err).Msg("write_keyboard_event failed")
	}
	return nil
}

// Close is the automatic cleanup path (spec §4.4 "Automatic cleanup"): it
// synthesises a CloseStream if the adapter is streaming, so the backend
// always sees a paired init/close regardless of how the connection ended.
// Per spec §9, only streaming == true triggers the synthetic close; a
// session dropped mid-StreamConfigured does not.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase == Closed {
		return
	}
	s.closeAdapterLocked()
	s.phase = Closed
}

func (s *Session) closeAdapterLocked() {
	if s.adapter == nil {
		return
	}
	if err := s.adapter.Close(); err != nil {
		s.log.Error().Err(err).Msg("adapter close failed")
	}
}

// bitrate/framerate are staged in SetupEdcs and may be refreshed by
// UpdateStream; stored on the session rather than the adapter so
// handleSetupStream can pass them to InitServer uniformly.
func (s *Session) bitrate() uint32   { return s.pendingBitrate }
func (s *Session) framerate() uint32 { return s.pendingFramerate }

func (s *Session) setBitrateFramerate(bitrate, framerate uint32) {
	s.pendingBitrate = bitrate
	s.pendingFramerate = framerate
}

func backendErrResponse(err error) *protocol.Response {
	var code int32 = -1
	var be *cal.BackendError
	if errors.As(err, &be) {
		code = be.Code
	}
	return &protocol.Response{Status: protocol.EdssErr, EdssErrData: &protocol.EdssErrData{Code: code}}
}
