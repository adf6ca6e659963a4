package adapter

import (
	"fmt"
	"reflect"

	"github.com/fxamacker/cbor/v2"

	"shapemap/keyvalue"
	"shapemap/mapping"
)

// encMode uses Core Deterministic Encoding: the same tree always encodes to
// the same bytes.
var encMode cbor.EncMode

// decMode decodes maps of any-typed targets as map[string]any.
var decMode cbor.DecMode

func init() {
	var err error

	encOptions := cbor.CoreDetEncOptions()
	encOptions.Time = cbor.TimeRFC3339Nano
	encMode, err = encOptions.EncMode()
	if err != nil {
		panic("adapter: CBOR encoder initialization failed: " + err.Error())
	}

	decMode, err = cbor.DecOptions{
		DefaultMapType: reflect.TypeOf(map[string]any(nil)),
	}.DecMode()
	if err != nil {
		panic("adapter: CBOR decoder initialization failed: " + err.Error())
	}
}

// CBOR reads and writes CBOR data items.
type CBOR struct{}

func (CBOR) Format() mapping.Format { return mapping.FormatCBOR }

func (CBOR) Parse(data []byte) (any, error) {
	var v any
	if err := decMode.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("parse cbor: %w", err)
	}
	return v, nil
}

func (CBOR) Build(v any, _ BuildOptions) ([]byte, error) {
	out, err := encMode.Marshal(keyvalue.Plain(v))
	if err != nil {
		return nil, fmt.Errorf("build cbor: %w", err)
	}
	return out, nil
}
