// Package mirror implements the client session mirror (spec §4.7): it
// tracks a local copy of the server-side session phase, driven entirely by
// responses read off the broker's recv queue, so the UI can gate which
// requests it is allowed to send next without round-tripping to ask.
package mirror

import (
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/yuv418/echodawn/internal/broker"
	"github.com/yuv418/echodawn/internal/protocol"
)

// ClientPhase is the client-side mirror of the server's session.Phase,
// specialised to what the UI needs to decide (spec §4.7).
type ClientPhase int

const (
	// Idle: no connection attempt outstanding and none established.
	Idle ClientPhase = iota
	// Connecting: a NewClient request has been pushed; awaiting its result.
	Connecting
	// AwaitSetupEdcs: connected, waiting for the user to supply bitrate and
	// framerate and issue SetupEdcs.
	AwaitSetupEdcs
	// AwaitSetupStream: SetupEdcs succeeded; the capability dictionary has
	// been merged into StreamConfig and awaits SetupStream.
	AwaitSetupStream
	// Handoff: SetupStream succeeded; the SDP has been handed to the
	// decoder and the mirror no longer drives protocol-advancing requests
	// (StartStream/UpdateStream/CloseStream are now issued directly by the
	// streaming UI, not gated by the mirror).
	Handoff
)

func (p ClientPhase) String() string {
	switch p {
	case Idle:
		return "Idle"
	case Connecting:
		return "Connecting"
	case AwaitSetupEdcs:
		return "AwaitSetupEdcs"
	case AwaitSetupStream:
		return "AwaitSetupStream"
	case Handoff:
		return "Handoff"
	default:
		return "Unknown"
	}
}

// StreamConfig accumulates what the user needs to fill in across the
// SetupEdcs/SetupStream round trip: the capability dictionary echoed back
// by SetupEdcs is merged here so the operator can edit backend-specific
// fields before SetupStream is sent (spec §4.7).
type StreamConfig struct {
	Bitrate       uint32
	Framerate     uint32
	CalOptionDict map[string]string

	// Sdp is populated once SetupStream succeeds; non-empty only in
	// Handoff.
	Sdp             string
	OutStreamParams protocol.StreamParamsEcho
}

// Mirror tracks ClientPhase and StreamConfig from the sequence of
// broker.Response values observed on recv. It does not itself talk to the
// broker; callers feed it responses via Apply.
type Mirror struct {
	phase  ClientPhase
	config StreamConfig

	// lastErr is the most recent error surfaced to the UI's debug area
	// (spec §5 "errors observed on recv are surfaced to the UI's debug
	// area verbatim").
	lastErr error

	log zerolog.Logger
}

// New returns a Mirror in the Idle phase.
func New() *Mirror {
	return &Mirror{log: log.Logger.With().Str("component", "mirror.Mirror").Logger()}
}

// Phase returns the current client phase.
func (m *Mirror) Phase() ClientPhase { return m.phase }

// Config returns the accumulated stream configuration. Callers may mutate
// the returned CalOptionDict before the next SetupStream request.
func (m *Mirror) Config() *StreamConfig { return &m.config }

// LastErr returns the most recently observed error, or nil.
func (m *Mirror) LastErr() error { return m.lastErr }

// BeginConnect transitions Idle -> Connecting. Called by the UI immediately
// after pushing a NewClient request, before any response has arrived.
func (m *Mirror) BeginConnect() {
	m.phase = Connecting
	m.lastErr = nil
}

// Apply advances the mirror in response to one broker.Response. It is the
// single dispatch site for all mirror transitions (spec §7 redesign note:
// "driven from a single dispatch site, not from constructors").
func (m *Mirror) Apply(resp broker.Response) {
	switch resp.Kind {
	case broker.RespClientInitialised:
		m.applyClientInitialised()
	case broker.RespClientInitError:
		m.applyFailure(resp.Err)
	case broker.RespInvalidClient:
		m.applyFailure(broker.ErrNoClient)
	case broker.RespRPC:
		m.applyRPC(resp)
	}
}

func (m *Mirror) applyClientInitialised() {
	m.phase = AwaitSetupEdcs
	m.lastErr = nil
}

func (m *Mirror) applyFailure(err error) {
	m.lastErr = err
	m.log.Error().Err(err).Str("phase", m.phase.String()).Msg("reverting to Idle")
	// A failed connection or a failed RPC in a non-terminal phase reverts
	// to Idle; no automatic retry (spec §5).
	if m.phase != Handoff {
		m.phase = Idle
	}
}

func (m *Mirror) applyRPC(resp broker.Response) {
	if resp.Err != nil {
		m.applyFailure(resp.Err)
		return
	}
	if resp.RPC == nil {
		return
	}
	if resp.RPC.Status != protocol.Ok {
		m.applyFailure(&protocol.StatusError{Status: resp.RPC.Status})
		return
	}
	m.lastErr = nil

	switch {
	case resp.RPC.SetupEdcsData != nil:
		m.config.CalOptionDict = resp.RPC.SetupEdcsData.CalOptionDict
		m.phase = AwaitSetupStream
	case resp.RPC.SetupStreamData != nil:
		m.config.Sdp = resp.RPC.SetupStreamData.Sdp
		m.config.OutStreamParams = resp.RPC.SetupStreamData.OutStreamParams
		m.phase = Handoff
	}
	// StartStream/UpdateStream/CloseStream acknowledgements carry no
	// payload and do not move the mirror phase; they are meaningful only
	// once in Handoff, where the mirror no longer gates requests.
}
