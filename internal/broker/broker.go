// Package broker implements the client-side request broker (spec §4.6): it
// bridges a synchronous UI thread to an asynchronous transport running on
// its own worker goroutine, via bounded push / unbounded recv queues, and
// de-duplicates in-flight protocol-advancing requests.
package broker

import (
	"errors"
	"sync"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/yuv418/echodawn/internal/clienttransport"
	"github.com/yuv418/echodawn/internal/protocol"
)

// pushBufferSize bounds the push queue. A capacity of one would be
// sufficient for protocol-advancing requests alone (the UI serialises those
// against the mirror's phase), but input events share the queue and are
// exempt from in-flight de-duplication, so a small extra buffer keeps a
// burst of mouse-move events from being rejected outright (spec §4.6).
const pushBufferSize = 32

// ErrRequestInFlight is returned by Push when a protocol-advancing request
// is already pending a response and another one is pushed before it
// resolves (spec §4.6 "in-flight de-duplication").
var ErrRequestInFlight = errors.New("broker: a protocol-advancing request is already in flight")

// ErrPushFull is returned by Push when the bounded push queue has no room.
// The UI thread must never block on Push (it cannot suspend on I/O), so
// this is reported back rather than blocking.
var ErrPushFull = errors.New("broker: push queue full")

// ErrNoClient is the cause associated with a RespInvalidClient response,
// which recv carries (with a nil Err) when a request was pushed before any
// NewClient request succeeded.
var ErrNoClient = errors.New("broker: no connected client")

// Broker bridges the UI thread to the transport worker goroutine.
type Broker struct {
	push chan Request
	recv *unboundedQueue[Response]

	pendingMu   sync.Mutex
	pendingRecv bool

	transport *clienttransport.Transport

	log zerolog.Logger
}

// New starts a Broker and its worker goroutine. There is no client
// connection until a NewClientRequest is pushed.
func New() *Broker {
	b := &Broker{
		push: make(chan Request, pushBufferSize),
		recv: newUnboundedQueue[Response](),
		log:  log.Logger.With().Str("component", "broker.Broker").Logger(),
	}
	go b.run()
	return b
}

// Push enqueues req for the worker. Protocol-advancing requests are
// rejected with ErrRequestInFlight while a prior one is still pending;
// input events are always accepted (subject to queue capacity).
func (b *Broker) Push(req Request) error {
	if !req.Kind.IsInputEvent() {
		b.pendingMu.Lock()
		if b.pendingRecv {
			b.pendingMu.Unlock()
			return ErrRequestInFlight
		}
		b.pendingRecv = true
		b.pendingMu.Unlock()
	}

	select {
	case b.push <- req:
		return nil
	default:
		if !req.Kind.IsInputEvent() {
			b.clearPending()
		}
		return ErrPushFull
	}
}

// Recv blocks for the next broker response. ok is false once Close has
// been called and the queue is drained.
func (b *Broker) Recv() (Response, bool) { return b.recv.Recv() }

// TryRecv returns the next broker response without blocking, for a UI loop
// that handles at most N per frame (spec §9 Design Notes).
func (b *Broker) TryRecv() (Response, bool) { return b.recv.TryRecv() }

// Close closes the push queue. The worker drains whatever was already
// queued and then exits; this is how a connection attempt in progress is
// cancelled (spec §5).
func (b *Broker) Close() {
	close(b.push)
}

func (b *Broker) clearPending() {
	b.pendingMu.Lock()
	b.pendingRecv = false
	b.pendingMu.Unlock()
}

func (b *Broker) run() {
	for req := range b.push {
		b.handle(req)
	}
	b.recv.Close()
}

func (b *Broker) handle(req Request) {
	if req.Kind == ReqNewClient {
		b.handleNewClient(req)
		return
	}

	if b.transport == nil {
		if !req.Kind.IsInputEvent() {
			b.clearPending()
			b.recv.Send(Response{Kind: RespInvalidClient})
		}
		return
	}

	resp, err := b.dispatch(req)
	if req.Kind.IsInputEvent() {
		if err != nil {
			b.log.Error().Err(err).Str("kind", kindName(req.Kind)).Msg("input event send failed")
		}
		return // never produce a recv entry for input events, spec §4.6
	}

	b.clearPending()
	b.recv.Send(Response{Kind: RespRPC, RPC: resp, Err: err})
}

func (b *Broker) handleNewClient(req Request) {
	tr, err := clienttransport.Connect(req.DialConfig)
	if err != nil {
		b.log.Error().Err(err).Msg("connect failed")
		b.clearPending()
		b.recv.Send(Response{Kind: RespClientInitError, Err: err})
		return
	}
	b.transport = tr
	b.clearPending()
	b.recv.Send(Response{Kind: RespClientInitialised})
}

func (b *Broker) dispatch(req Request) (*protocol.Response, error) {
	switch req.Kind {
	case ReqSetupEdcs:
		return b.transport.SetupEdcs(req.Bitrate, req.Framerate)
	case ReqSetupStream:
		return b.transport.SetupStream(req.CalOptionDict)
	case ReqStartStream:
		return b.transport.StartStream()
	case ReqUpdateStream:
		return b.transport.UpdateStream(req.Bitrate, req.Framerate)
	case ReqCloseStream:
		return b.transport.CloseStream()
	case ReqWriteMouseMove:
		return nil, b.transport.WriteMouseMove(req.X, req.Y)
	case ReqWriteMouseButton:
		return nil, b.transport.WriteMouseButton(req.Button, req.Pressed)
	case ReqWriteKeyboardEvent:
		return nil, b.transport.WriteKeyboardEvent(req.KeyCode, req.Pressed)
	default:
		return nil, errors.New("broker: unknown request kind")
	}
}

func kindName(k RequestKind) string {
	switch k {
	case ReqNewClient:
		return "NewClient"
	case ReqSetupEdcs:
		return "SetupEdcs"
	case ReqSetupStream:
		return "SetupStream"
	case ReqStartStream:
		return "StartStream"
	case ReqUpdateStream:
		return "UpdateStream"
	case ReqCloseStream:
		return "CloseStream"
	case ReqWriteMouseMove:
		return "WriteMouseMove"
	case ReqWriteMouseButton:
		return "WriteMouseButton"
	case ReqWriteKeyboardEvent:
		return "WriteKeyboardEvent"
	default:
		return "Unknown"
	}
}
