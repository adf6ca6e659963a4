// Package adapter reads and writes serialized documents for every format
// the engine supports. Adapters only move bytes to generic trees and back;
// the mapping itself lives in the keyvalue and xmlmap packages.
package adapter

import (
	"errors"
	"fmt"

	"shapemap/mapping"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported format")
	ErrUnexpectedValue   = errors.New("unexpected value for format")
)

// BuildOptions tune document output.
type BuildOptions struct {
	// Pretty enables indentation for formats that support it.
	Pretty bool
	// Indent is the indentation width used when Pretty is set.
	Indent int
	// Declaration writes the XML declaration.
	Declaration bool
}

func (o BuildOptions) indent() int {
	if !o.Pretty {
		return 0
	}
	if o.Indent <= 0 {
		return 2
	}
	return o.Indent
}

// Adapter converts between document bytes and the generic tree of one
// format. Key-value formats produce maps, slices and scalars; XML produces
// an *xmltree.Node.
type Adapter interface {
	Format() mapping.Format
	Parse(data []byte) (any, error)
	Build(v any, opts BuildOptions) ([]byte, error)
}

// For returns the adapter of f. The hash format has no byte form.
func For(f mapping.Format) (Adapter, error) {
	switch f {
	case mapping.FormatJSON:
		return JSON{}, nil
	case mapping.FormatYAML:
		return YAML{}, nil
	case mapping.FormatTOML:
		return TOML{}, nil
	case mapping.FormatCBOR:
		return CBOR{}, nil
	case mapping.FormatMsgPack:
		return MsgPack{}, nil
	case mapping.FormatXML:
		return XML{}, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, f)
	}
}
