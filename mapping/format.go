package mapping

import (
	"fmt"
	"strings"
)

// Format identifies a serialization format.
type Format string

const (
	FormatJSON    Format = "json"
	FormatYAML    Format = "yaml"
	FormatTOML    Format = "toml"
	FormatCBOR    Format = "cbor"
	FormatMsgPack Format = "msgpack"
	FormatHash    Format = "hash"
	FormatXML     Format = "xml"
)

// KeyValueFormats lists the formats served by key-value mappings.
var KeyValueFormats = []Format{FormatJSON, FormatYAML, FormatTOML, FormatCBOR, FormatMsgPack, FormatHash}

// IsKeyValue reports whether f is rendered through a key-value mapping.
func (f Format) IsKeyValue() bool {
	switch f {
	case FormatJSON, FormatYAML, FormatTOML, FormatCBOR, FormatMsgPack, FormatHash:
		return true
	default:
		return false
	}
}

// ParseFormat parses a format name, accepting common file extensions.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(s, ".")) {
	case "json", "jsonc":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	case "toml":
		return FormatTOML, nil
	case "cbor":
		return FormatCBOR, nil
	case "msgpack", "mpk":
		return FormatMsgPack, nil
	case "hash":
		return FormatHash, nil
	case "xml":
		return FormatXML, nil
	default:
		return "", fmt.Errorf("unknown format %q", s)
	}
}
