package adapter

import (
	"fmt"

	"shapemap/mapping"
	"shapemap/xmltree"
)

// XML reads and writes element trees.
type XML struct{}

func (XML) Format() mapping.Format { return mapping.FormatXML }

func (XML) Parse(data []byte) (any, error) {
	node, err := xmltree.Parse(data, xmltree.ParseOptions{})
	if err != nil {
		return nil, err
	}
	return node, nil
}

func (XML) Build(v any, opts BuildOptions) ([]byte, error) {
	node, ok := v.(*xmltree.Node)
	if !ok {
		return nil, fmt.Errorf("build xml: %w: %T", ErrUnexpectedValue, v)
	}
	return xmltree.Build(node, xmltree.BuildOptions{Indent: opts.indent(), Declaration: opts.Declaration})
}
