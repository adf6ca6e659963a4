package adapter

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/ohler55/ojg/oj"
	"github.com/tidwall/jsonc"

	"shapemap/mapping"
)

// JSON reads JSON, tolerating comments and trailing commas, and writes
// objects in their insertion order.
type JSON struct{}

func (JSON) Format() mapping.Format { return mapping.FormatJSON }

func (JSON) Parse(data []byte) (any, error) {
	v, err := oj.Parse(jsonc.ToJSON(data))
	if err != nil {
		return nil, fmt.Errorf("parse json: %w", err)
	}
	return v, nil
}

func (JSON) Build(v any, opts BuildOptions) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if n := opts.indent(); n > 0 {
		enc.SetIndent("", string(bytes.Repeat([]byte(" "), n)))
	}
	if err := enc.Encode(v); err != nil {
		return nil, fmt.Errorf("build json: %w", err)
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}
