package serverconn

import (
	"errors"
	"io"
	"net"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/yuv418/echodawn/internal/protocol"
	"github.com/yuv418/echodawn/internal/session"
)

// HandleConn owns one accepted connection end-to-end (spec §4.5): it reads
// frames, decodes them, drives a freshly created Session, and writes back a
// Response when one exists. It returns only when the connection ends, after
// which the caller's defer (or HandleConn itself) guarantees the session's
// synthetic close has run.
func HandleConn(conn net.Conn, plugin session.PluginConfig, maxFrameSize uint64) {
	defer conn.Close()

	id := uuid.NewString()
	clog := log.Logger.With().Str("component", "serverconn.dispatcher").Str("session_id", id).Str("peer", conn.RemoteAddr().String()).Logger()
	clog.Info().Msg("connection accepted")

	sess := session.New(id, plugin)
	defer sess.Close() // automatic cleanup path, spec §4.4

	for {
		if err := handleOneFrame(conn, sess, maxFrameSize, clog); err != nil {
			if errors.Is(err, io.EOF) {
				clog.Debug().Msg("connection closed by peer")
			} else {
				clog.Error().Err(err).Msg("connection loop ended")
			}
			return
		}
	}
}

// handleOneFrame reads, decodes, dispatches, and (if needed) responds to
// exactly one request. Framing errors (truncated/oversized frame) are
// fatal to the connection; payload-decode errors produce an InvalidRequest
// response and the loop continues (spec §7 class 1).
func handleOneFrame(conn net.Conn, sess *session.Session, maxFrameSize uint64, clog zerolog.Logger) error {
	payload, err := protocol.ReadFrame(conn, maxFrameSize)
	if err != nil {
		if errors.Is(err, protocol.ErrTruncated) {
			return io.EOF
		}
		return err
	}

	msg, err := protocol.DecodeMessage(payload)
	if err != nil {
		clog.Debug().Err(err).Msg("malformed request payload")
		return writeResponse(conn, &protocol.Response{
			Status:             protocol.InvalidRequest,
			InvalidRequestData: &protocol.InvalidRequestData{Reason: err.Error()},
		})
	}

	resp := sess.Handle(msg)
	if resp == nil {
		return nil // fire-and-forget input event, spec §3
	}
	return writeResponse(conn, resp)
}

func writeResponse(conn net.Conn, resp *protocol.Response) error {
	payload, err := protocol.EncodeResponse(resp)
	if err != nil {
		return err
	}
	return protocol.WriteFrame(conn, payload)
}
