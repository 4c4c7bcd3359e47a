package protocol

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMessageEncodeDecodeRoundTrip(t *testing.T) {
	cases := []*Message{
		NewSetupEdcs(10_000_000, 60),
		NewSetupStream(map[string]string{"vgpuId": "2"}),
		NewStartStream(),
		NewCloseStream(),
		NewUpdateStream(20_000_000, 30),
		NewMouseMove(100, 200),
		NewMouseButton(MouseButtonLeft, true),
		NewKeyboardEvent(30, true),
	}
	for _, m := range cases {
		payload, err := EncodeMessage(m)
		require.NoError(t, err)

		got, err := DecodeMessage(payload)
		require.NoError(t, err)
		require.Equal(t, m, got)
	}
}

func TestResponseEncodeDecodeRoundTrip(t *testing.T) {
	cases := []*Response{
		NewOkResponse(),
		NewStatusResponse(StreamNotStarted),
		{Status: Ok, SetupEdcsData: &SetupEdcsData{CalOptionDict: map[string]string{"vgpuId": ""}}},
		{Status: Ok, SetupStreamData: &SetupStreamData{
			OutStreamParams: StreamParamsEcho{Framerate: 60, Bitrate: 10_000_000},
			Sdp:             "v=0...",
		}},
		{Status: InvalidRequest, InvalidRequestData: &InvalidRequestData{Reason: "bad payload"}},
		{Status: EdssErr, EdssErrData: &EdssErrData{Code: 7}},
	}
	for _, r := range cases {
		payload, err := EncodeResponse(r)
		require.NoError(t, err)

		got, err := DecodeResponse(payload)
		require.NoError(t, err)
		require.Equal(t, r, got)
	}
}

func TestDecodeMessageMalformedPayload(t *testing.T) {
	_, err := DecodeMessage([]byte("not bencode at all"))
	require.ErrorIs(t, err, ErrMalformedPayload)
}

func TestIsInputEvent(t *testing.T) {
	require.True(t, NewMouseMove(0, 0).IsInputEvent())
	require.True(t, NewKeyboardEvent(1, false).IsInputEvent())
	require.False(t, NewSetupEdcs(1, 1).IsInputEvent())
}
