// Package codec is the CBOR encoding used wherever this module
// serializes structured values of its own:
// backend records, gRPC messages, and broadcast events.
//
// Encoding is Core Deterministic (RFC 8949 §4.2),
// so equal values always produce equal bytes.
package codec

import (
	"reflect"

	"github.com/fxamacker/cbor/v2"
)

var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	var err error

	encOptions := cbor.CoreDetEncOptions()
	encOptions.Time = cbor.TimeRFC3339Nano
	encOptions.TextMarshaler = cbor.TextMarshalerTextString
	encMode, err = encOptions.EncMode()
	if err != nil {
		panic("codec: CBOR encoder initialization failed: " + err.Error())
	}

	decMode, err = cbor.DecOptions{
		DefaultMapType:  reflect.TypeOf(map[string]any(nil)),
		TextUnmarshaler: cbor.TextUnmarshalerTextString,
	}.DecMode()
	if err != nil {
		panic("codec: CBOR decoder initialization failed: " + err.Error())
	}
}

// Marshal encodes v.
func Marshal(v any) ([]byte, error) {
	return encMode.Marshal(v)
}

// Unmarshal decodes data into v.
// Unknown fields are ignored.
func Unmarshal(data []byte, v any) error {
	return decMode.Unmarshal(data, v)
}

// Name is the name under which the gRPC codec is registered.
const Name = "cbor"

// GRPC implements google.golang.org/grpc/encoding.Codec.
type GRPC struct{}

// Marshal implements encoding.Codec.
func (GRPC) Marshal(v interface{}) ([]byte, error) { return Marshal(v) }

// Unmarshal implements encoding.Codec.
func (GRPC) Unmarshal(data []byte, v interface{}) error { return Unmarshal(data, v) }

// Name implements encoding.Codec.
func (GRPC) Name() string { return Name }
