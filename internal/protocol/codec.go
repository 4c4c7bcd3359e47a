package protocol

import (
	"fmt"

	"github.com/anacrolix/torrent/bencode"
	"github.com/mitchellh/mapstructure"
	ben "github.com/stefanovazzocell/bencode"
)

// EncodeMessage marshals a Message to its wire payload bytes (bencode TLV,
// no length prefix — WriteFrame/ReadFrame own that).
func EncodeMessage(m *Message) ([]byte, error) {
	data, err := bencode.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("protocol: encode message: %w", err)
	}
	return data, nil
}

// EncodeResponse marshals a Response to its wire payload bytes.
func EncodeResponse(r *Response) ([]byte, error) {
	data, err := bencode.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("protocol: encode response: %w", err)
	}
	return data, nil
}

// decodeDict parses raw bencode payload bytes into a generic dict, the way
// the teacher's DecodeResposta parses an RTP engine reply before handing it
// to mapstructure.
func decodeDict(payload []byte) (map[string]interface{}, error) {
	if len(payload) == 0 {
		return map[string]interface{}{}, nil
	}
	raw, err := ben.NewParserFromString(string(payload)).AsDict()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	return raw, nil
}

func newDecoder(tagName string, result interface{}) (*mapstructure.Decoder, error) {
	return mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          tagName,
		Result:           result,
		WeaklyTypedInput: true,
	})
}

// DecodeMessage parses wire payload bytes into a Message. Payload-shape
// errors (bytes that are not a bencode dict, or a field value that cannot be
// decoded into its struct field) surface as ErrMalformedPayload; the caller
// (the dispatcher) turns that into an InvalidRequest response without
// tearing down the connection. Which payload fields are present is not
// checked against the declared Type.
func DecodeMessage(payload []byte) (*Message, error) {
	raw, err := decodeDict(payload)
	if err != nil {
		return nil, err
	}
	var m Message
	dec, err := newDecoder("bencode", &m)
	if err != nil {
		return nil, fmt.Errorf("protocol: build decoder: %w", err)
	}
	if err := dec.Decode(raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	return &m, nil
}

// DecodeResponse parses wire payload bytes into a Response.
func DecodeResponse(payload []byte) (*Response, error) {
	raw, err := decodeDict(payload)
	if err != nil {
		return nil, err
	}
	var r Response
	dec, err := newDecoder("bencode", &r)
	if err != nil {
		return nil, fmt.Errorf("protocol: build decoder: %w", err)
	}
	if err := dec.Decode(raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	return &r, nil
}
