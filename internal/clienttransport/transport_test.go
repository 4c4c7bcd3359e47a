package clienttransport

import (
	"net"
	"testing"

	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/require"

	"github.com/yuv418/echodawn/internal/protocol"
)

// fakeServer reads one request per iteration and, unless it is an input
// event, writes back a canned Ok response. It exits when the connection
// closes.
func fakeServer(t *testing.T, conn net.Conn) {
	t.Helper()
	for {
		payload, err := protocol.ReadFrame(conn, protocol.DefaultMaxFrameSize)
		if err != nil {
			return
		}
		msg, err := protocol.DecodeMessage(payload)
		require.NoError(t, err)
		if msg.IsInputEvent() {
			continue
		}
		resp := protocol.NewOkResponse()
		respPayload, err := protocol.EncodeResponse(resp)
		require.NoError(t, err)
		require.NoError(t, protocol.WriteFrame(conn, respPayload))
	}
}

func newTestTransport(conn net.Conn) *Transport {
	return &Transport{conn: conn, log: log.Logger}
}

func TestTransportRPCRoundTrip(t *testing.T) {
	clientConn, serverConn := net.Pipe()
	defer clientConn.Close()
	go fakeServer(t, serverConn)

	tr := newTestTransport(clientConn)
	resp, err := tr.SetupEdcs(10_000_000, 60)
	require.NoError(t, err)
	require.Equal(t, protocol.Ok, resp.Status)

	resp, err = tr.StartStream()
	require.NoError(t, err)
	require.Equal(t, protocol.Ok, resp.Status)
}

func TestTransportInputEventsProduceNoResponse(t *testing.T) {
	clientConn, serverConn := net.Pipe()
	defer clientConn.Close()
	go fakeServer(t, serverConn)

	require.NoError(t, tr(clientConn).WriteMouseMove(1, 2))
	require.NoError(t, tr(clientConn).WriteMouseButton(protocol.MouseButtonLeft, true))
	require.NoError(t, tr(clientConn).WriteKeyboardEvent(30, true))
}

func tr(conn net.Conn) *Transport { return newTestTransport(conn) }
