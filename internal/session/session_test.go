package session

import (
	"net"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/yuv418/echodawn/internal/protocol"
)

func testPlugin() PluginConfig {
	return PluginConfig{PluginName: "loopback", IP: net.ParseIP("127.0.0.1"), Port: 5004}
}

func TestFullSetupStartCloseSequence(t *testing.T) {
	s := New("t1", testPlugin())
	require.Equal(t, Fresh, s.Phase())

	resp := s.Handle(protocol.NewSetupEdcs(10_000_000, 60))
	require.Equal(t, protocol.Ok, resp.Status)
	require.NotNil(t, resp.SetupEdcsData)
	require.Equal(t, AdapterInitialised, s.Phase())

	resp = s.Handle(protocol.NewSetupStream(map[string]string{"vgpuId": "2"}))
	require.Equal(t, protocol.Ok, resp.Status)
	require.NotNil(t, resp.SetupStreamData)
	require.NotEmpty(t, resp.SetupStreamData.Sdp)
	require.Equal(t, StreamConfigured, s.Phase())

	resp = s.Handle(protocol.NewStartStream())
	require.Equal(t, protocol.Ok, resp.Status)
	require.Equal(t, Streaming, s.Phase())

	resp = s.Handle(protocol.NewMouseMove(100, 200))
	require.Nil(t, resp)
	resp = s.Handle(protocol.NewMouseMove(101, 200))
	require.Nil(t, resp)

	resp = s.Handle(protocol.NewCloseStream())
	require.Equal(t, protocol.Ok, resp.Status)
	require.Equal(t, Closed, s.Phase())
}

func TestMessageBeforeSetupEdcsReturnsUninitialisedEdss(t *testing.T) {
	s := New("t2", testPlugin())
	resp := s.Handle(protocol.NewStartStream())
	require.Equal(t, protocol.UninitialisedEdss, resp.Status)
	require.Equal(t, Fresh, s.Phase())
}

// TestInputEventBeforeSetupEdcsReturnsStreamNotStarted pins spec.md §8
// scenario 6: a WriteKeyboardEvent/WriteMouseEvent/UpdateStream sent before
// SetupEdcs must fall through to its own handler and answer
// StreamNotStarted, not UninitialisedEdss — those handlers never touch the
// nil adapter because they themselves gate on phase == Streaming.
func TestInputEventBeforeSetupEdcsReturnsStreamNotStarted(t *testing.T) {
	s := New("t2b", testPlugin())

	resp := s.Handle(protocol.NewKeyboardEvent(30, true))
	require.Equal(t, protocol.StreamNotStarted, resp.Status)
	require.Equal(t, Fresh, s.Phase())

	resp = s.Handle(protocol.NewMouseMove(1, 1))
	require.Equal(t, protocol.StreamNotStarted, resp.Status)
	require.Equal(t, Fresh, s.Phase())

	resp = s.Handle(protocol.NewUpdateStream(1, 1))
	require.Equal(t, protocol.StreamNotStarted, resp.Status)
	require.Equal(t, Fresh, s.Phase())
}

func TestRepeatedSetupEdcsReturnsEdcsAlreadySetup(t *testing.T) {
	s := New("t3", testPlugin())
	resp := s.Handle(protocol.NewSetupEdcs(1, 1))
	require.Equal(t, protocol.Ok, resp.Status)

	resp = s.Handle(protocol.NewSetupEdcs(1, 1))
	require.Equal(t, protocol.EdcsAlreadySetup, resp.Status)

	resp = s.Handle(protocol.NewSetupEdcs(1, 1))
	require.Equal(t, protocol.EdcsAlreadySetup, resp.Status)
}

func TestSetupStreamTwiceReturnsStreamAlreadySetup(t *testing.T) {
	s := New("t4", testPlugin())
	require.Equal(t, protocol.Ok, s.Handle(protocol.NewSetupEdcs(1, 1)).Status)
	require.Equal(t, protocol.Ok, s.Handle(protocol.NewSetupStream(nil)).Status)

	resp := s.Handle(protocol.NewSetupStream(nil))
	require.Equal(t, protocol.StreamAlreadySetup, resp.Status)
}

func TestStartStreamTwiceReturnsStreamAlreadyStarted(t *testing.T) {
	s := New("t5", testPlugin())
	require.Equal(t, protocol.Ok, s.Handle(protocol.NewSetupEdcs(1, 1)).Status)
	require.Equal(t, protocol.Ok, s.Handle(protocol.NewSetupStream(nil)).Status)
	require.Equal(t, protocol.Ok, s.Handle(protocol.NewStartStream()).Status)

	resp := s.Handle(protocol.NewStartStream())
	require.Equal(t, protocol.StreamAlreadyStarted, resp.Status)
}

func TestInputEventBeforeStreamingReturnsStreamNotStarted(t *testing.T) {
	s := New("t6", testPlugin())
	require.Equal(t, protocol.Ok, s.Handle(protocol.NewSetupEdcs(1, 1)).Status)

	resp := s.Handle(protocol.NewMouseMove(1, 1))
	require.Equal(t, protocol.StreamNotStarted, resp.Status)

	resp = s.Handle(protocol.NewKeyboardEvent(1, true))
	require.Equal(t, protocol.StreamNotStarted, resp.Status)
}

func TestUpdateStreamOnlyLegalWhileStreaming(t *testing.T) {
	s := New("t7", testPlugin())
	resp := s.Handle(protocol.NewUpdateStream(1, 1))
	require.Equal(t, protocol.StreamNotStarted, resp.Status)

	require.Equal(t, protocol.Ok, s.Handle(protocol.NewSetupEdcs(1, 1)).Status)
	require.Equal(t, protocol.Ok, s.Handle(protocol.NewSetupStream(nil)).Status)
	require.Equal(t, protocol.Ok, s.Handle(protocol.NewStartStream()).Status)

	resp = s.Handle(protocol.NewUpdateStream(2_000_000, 30))
	require.Equal(t, protocol.Ok, resp.Status)
	require.Equal(t, Streaming, s.Phase())
}

func TestCloseOnDropSynthesisesCloseOnlyWhenStreaming(t *testing.T) {
	// Dropped mid-StreamConfigured: no adapter.Streaming() was ever true, so
	// Close still transitions the session but never calls backend Stop
	// (verified indirectly: Close must not error).
	s := New("t8", testPlugin())
	require.Equal(t, protocol.Ok, s.Handle(protocol.NewSetupEdcs(1, 1)).Status)
	require.Equal(t, protocol.Ok, s.Handle(protocol.NewSetupStream(nil)).Status)

	s.Close()
	require.Equal(t, Closed, s.Phase())
}

func TestCloseAfterStreamingIsIdempotent(t *testing.T) {
	s := New("t9", testPlugin())
	require.Equal(t, protocol.Ok, s.Handle(protocol.NewSetupEdcs(1, 1)).Status)
	require.Equal(t, protocol.Ok, s.Handle(protocol.NewSetupStream(nil)).Status)
	require.Equal(t, protocol.Ok, s.Handle(protocol.NewStartStream()).Status)

	s.Close()
	require.Equal(t, Closed, s.Phase())
	s.Close() // must not panic or error
	require.Equal(t, Closed, s.Phase())
}

func TestUnknownCalOptionKeySurfacesAsEdssErr(t *testing.T) {
	s := New("t10", testPlugin())
	require.Equal(t, protocol.Ok, s.Handle(protocol.NewSetupEdcs(1, 1)).Status)

	resp := s.Handle(protocol.NewSetupStream(map[string]string{"bogus": "x"}))
	require.Equal(t, protocol.EdssErr, resp.Status)
	require.NotNil(t, resp.EdssErrData)
}
