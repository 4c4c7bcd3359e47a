package cal

import (
	"net"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/yuv418/echodawn/internal/protocol"
)

func TestAdapterLifecycleHappyPath(t *testing.T) {
	a, err := Open("loopback", net.ParseIP("127.0.0.1"), 5000)
	require.NoError(t, err)
	require.False(t, a.StreamSetup())
	require.False(t, a.Streaming())
	require.NotEmpty(t, a.CalOptionDict())

	sdp, err := a.InitServer(10_000_000, 60)
	require.NoError(t, err)
	require.NotEmpty(t, sdp)
	require.True(t, a.StreamSetup())
	require.Equal(t, sdp, a.Sdp())

	require.NoError(t, a.Start())
	require.True(t, a.Streaming())

	require.NoError(t, a.WriteMouse(protocol.NewMouseMove(1, 2).MouseEvent))
	require.NoError(t, a.WriteKeyboard(protocol.NewKeyboardEvent(30, true).KeyboardEvent))

	require.NoError(t, a.Stop())
	require.False(t, a.Streaming())
	require.False(t, a.StreamSetup())
}

func TestAdapterInitServerTwiceErrors(t *testing.T) {
	a, err := Open("loopback", net.ParseIP("127.0.0.1"), 5000)
	require.NoError(t, err)
	_, err = a.InitServer(1, 1)
	require.NoError(t, err)
	_, err = a.InitServer(1, 1)
	require.ErrorIs(t, err, ErrStreamAlreadySetup)
}

func TestAdapterStartBeforeInitServerErrors(t *testing.T) {
	a, err := Open("loopback", net.ParseIP("127.0.0.1"), 5000)
	require.NoError(t, err)
	require.ErrorIs(t, a.Start(), ErrStreamNotSetup)
}

func TestAdapterStartTwiceErrors(t *testing.T) {
	a, err := Open("loopback", net.ParseIP("127.0.0.1"), 5000)
	require.NoError(t, err)
	_, err = a.InitServer(1, 1)
	require.NoError(t, err)
	require.NoError(t, a.Start())
	require.ErrorIs(t, a.Start(), ErrAlreadyStreaming)
}

func TestAdapterInputBeforeStreamingErrors(t *testing.T) {
	a, err := Open("loopback", net.ParseIP("127.0.0.1"), 5000)
	require.NoError(t, err)
	require.ErrorIs(t, a.WriteMouse(protocol.NewMouseMove(0, 0).MouseEvent), ErrNotStreaming)
	require.ErrorIs(t, a.WriteKeyboard(protocol.NewKeyboardEvent(1, true).KeyboardEvent), ErrNotStreaming)
}

func TestAdapterCloseOnlyStopsWhenStreaming(t *testing.T) {
	a, err := Open("loopback", net.ParseIP("127.0.0.1"), 5000)
	require.NoError(t, err)

	// Never streamed: Close is a no-op, not an error.
	require.NoError(t, a.Close())

	_, err = a.InitServer(1, 1)
	require.NoError(t, err)
	require.NoError(t, a.Start())
	require.NoError(t, a.Close())
	require.False(t, a.Streaming())
}

func TestAdapterUnknownCalOptionKeyIsBackendError(t *testing.T) {
	a, err := Open("loopback", net.ParseIP("127.0.0.1"), 5000)
	require.NoError(t, err)
	a.SetCalOptionDict(map[string]string{"not-a-real-option": "1"})

	_, err = a.InitServer(1, 1)
	require.Error(t, err)
	var backendErr *BackendError
	require.ErrorAs(t, err, &backendErr)
	require.Equal(t, errUnknownOptionCode, backendErr.Code)
}

func TestMapMouseButtonDropsUnknownOrdinal(t *testing.T) {
	_, ok := mapMouseButton(protocol.MouseButton(99))
	require.False(t, ok)
}
