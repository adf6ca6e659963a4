package adapter

import (
	"fmt"

	"github.com/pelletier/go-toml/v2"

	"shapemap/keyvalue"
	"shapemap/mapping"
)

// TOML reads and writes TOML documents. TOML has no null, so nil values are
// left out on output; the document root must be a table.
type TOML struct{}

func (TOML) Format() mapping.Format { return mapping.FormatTOML }

func (TOML) Parse(data []byte) (any, error) {
	var v map[string]any
	if err := toml.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("parse toml: %w", err)
	}
	return v, nil
}

func (TOML) Build(v any, opts BuildOptions) ([]byte, error) {
	table, ok := dropNils(keyvalue.Plain(v)).(map[string]any)
	if !ok {
		return nil, fmt.Errorf("build toml: %w: root is %T, want a table", ErrUnexpectedValue, v)
	}
	out, err := toml.Marshal(table)
	if err != nil {
		return nil, fmt.Errorf("build toml: %w", err)
	}
	return out, nil
}

func dropNils(v any) any {
	switch t := v.(type) {
	case map[string]any:
		for k, x := range t {
			if x == nil {
				delete(t, k)
				continue
			}
			t[k] = dropNils(x)
		}
		return t
	case []any:
		out := t[:0]
		for _, x := range t {
			if x != nil {
				out = append(out, dropNils(x))
			}
		}
		return out
	default:
		return v
	}
}
