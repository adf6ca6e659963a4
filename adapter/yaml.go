package adapter

import (
	"bytes"
	"fmt"

	"gopkg.in/yaml.v3"

	"shapemap/keyvalue"
	"shapemap/mapping"
)

// YAML reads and writes YAML documents. Object key order is kept on output.
type YAML struct{}

func (YAML) Format() mapping.Format { return mapping.FormatYAML }

func (YAML) Parse(data []byte) (any, error) {
	var v any
	if err := yaml.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}
	return v, nil
}

func (YAML) Build(v any, opts BuildOptions) ([]byte, error) {
	node, err := yamlNode(v)
	if err != nil {
		return nil, fmt.Errorf("build yaml: %w", err)
	}
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	if n := opts.indent(); n > 0 {
		enc.SetIndent(n)
	}
	if err := enc.Encode(node); err != nil {
		return nil, fmt.Errorf("build yaml: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("build yaml: %w", err)
	}
	return buf.Bytes(), nil
}

// yamlNode converts a key-value tree into a node tree so that ordered
// objects keep their key order.
func yamlNode(v any) (*yaml.Node, error) {
	switch t := v.(type) {
	case *keyvalue.Object:
		n := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		for p := t.Oldest(); p != nil; p = p.Next() {
			val, err := yamlNode(p.Value)
			if err != nil {
				return nil, err
			}
			n.Content = append(n.Content, &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: p.Key}, val)
		}
		return n, nil
	case map[string]any:
		obj, _ := keyvalue.AsObject(t)
		return yamlNode(obj)
	case []any:
		n := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
		for _, item := range t {
			val, err := yamlNode(item)
			if err != nil {
				return nil, err
			}
			n.Content = append(n.Content, val)
		}
		return n, nil
	default:
		n := &yaml.Node{}
		if err := n.Encode(v); err != nil {
			return nil, err
		}
		return n, nil
	}
}
