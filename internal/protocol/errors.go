package protocol

import "errors"

// ErrMalformedPayload is returned by DecodeMessage/DecodeResponse when the
// payload bytes do not parse as a bencode dict, or parse but cannot be
// decoded into the message/response struct (spec §4.1, §7 class 1).
var ErrMalformedPayload = errors.New("protocol: malformed payload")

// StatusError wraps a non-Ok Status so session/dispatcher code can
// errors.Is/errors.As against the status taxonomy instead of comparing ints
// by hand.
type StatusError struct {
	Status Status
}

func (e *StatusError) Error() string { return "protocol: " + e.Status.String() }

// Sentinel errors for each non-Ok status, for errors.Is against StatusError.
var (
	ErrInvalidRequest       = &StatusError{Status: InvalidRequest}
	ErrUninitialisedEdss    = &StatusError{Status: UninitialisedEdss}
	ErrEdcsAlreadySetup     = &StatusError{Status: EdcsAlreadySetup}
	ErrStreamAlreadySetup   = &StatusError{Status: StreamAlreadySetup}
	ErrStreamAlreadyStarted = &StatusError{Status: StreamAlreadyStarted}
	ErrStreamNotStarted     = &StatusError{Status: StreamNotStarted}
	ErrEdssErr              = &StatusError{Status: EdssErr}
)

func (e *StatusError) Is(target error) bool {
	other, ok := target.(*StatusError)
	if !ok {
		return false
	}
	return other.Status == e.Status
}
