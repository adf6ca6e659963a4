package adapter

import (
	"bytes"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"

	"shapemap/keyvalue"
	"shapemap/mapping"
)

// MsgPack reads and writes MessagePack. Map keys are written sorted so the
// same tree always encodes to the same bytes.
type MsgPack struct{}

func (MsgPack) Format() mapping.Format { return mapping.FormatMsgPack }

// Parse decodes integers as int64 or uint64 and floats as float64.
func (MsgPack) Parse(data []byte) (any, error) {
	dec := msgpack.NewDecoder(bytes.NewReader(data))
	dec.UseLooseInterfaceDecoding(true)

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("parse msgpack: %w", err)
	}
	return v, nil
}

func (MsgPack) Build(v any, _ BuildOptions) ([]byte, error) {
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.SetSortMapKeys(true)
	if err := enc.Encode(keyvalue.Plain(v)); err != nil {
		return nil, fmt.Errorf("build msgpack: %w", err)
	}
	return buf.Bytes(), nil
}
