// Package xmltree is a small namespace-aware XML node model backed by
// etree. The XML transform works on these nodes; etree only parses and
// writes them.
package xmltree

import (
	"strings"
)

// Kind is the node kind.
type Kind int

const (
	ElementNode Kind = iota
	TextNode
	CDataNode
)

// Attr is an attribute with its resolved namespace URI.
type Attr struct {
	Name      string
	Prefix    string
	Namespace string
	Value     string
}

// QName returns prefix:name, or name without a prefix.
func (a Attr) QName() string { return qname(a.Prefix, a.Name) }

// Decl is a namespace declaration. An empty Prefix declares the default
// namespace.
type Decl struct {
	Prefix string
	URI    string
}

// Node is an element, text or CDATA node.
type Node struct {
	Kind      Kind
	Name      string
	Prefix    string
	Namespace string
	Attrs     []Attr
	Decls     []Decl
	Children  []*Node
	Text      string
}

// NewElement returns an element node without namespace.
func NewElement(name string) *Node {
	return &Node{Kind: ElementNode, Name: name}
}

// NewText returns a text node.
func NewText(s string) *Node {
	return &Node{Kind: TextNode, Text: s}
}

// NewCData returns a CDATA node.
func NewCData(s string) *Node {
	return &Node{Kind: CDataNode, Text: s}
}

// QName returns prefix:name, or name without a prefix.
func (n *Node) QName() string { return qname(n.Prefix, n.Name) }

// AddChild appends c and returns it.
func (n *Node) AddChild(c *Node) *Node {
	n.Children = append(n.Children, c)
	return c
}

// SetAttr adds or replaces an attribute matched by name and namespace.
func (n *Node) SetAttr(a Attr) {
	for i := range n.Attrs {
		if n.Attrs[i].Name == a.Name && n.Attrs[i].Namespace == a.Namespace {
			n.Attrs[i] = a
			return
		}
	}
	n.Attrs = append(n.Attrs, a)
}

// Attr returns the attribute called name in namespace uri.
func (n *Node) Attr(name, uri string) (Attr, bool) {
	for _, a := range n.Attrs {
		if a.Name == name && a.Namespace == uri {
			return a, true
		}
	}
	return Attr{}, false
}

// Declare adds a namespace declaration unless the prefix is already
// declared on n.
func (n *Node) Declare(prefix, uri string) {
	for _, d := range n.Decls {
		if d.Prefix == prefix {
			return
		}
	}
	n.Decls = append(n.Decls, Decl{Prefix: prefix, URI: uri})
}

// Declared returns the URI n itself binds to prefix.
func (n *Node) Declared(prefix string) (string, bool) {
	for _, d := range n.Decls {
		if d.Prefix == prefix {
			return d.URI, true
		}
	}

	return "", false
}

// Elements returns the element children.
func (n *Node) Elements() []*Node {
	var out []*Node
	for _, c := range n.Children {
		if c.Kind == ElementNode {
			out = append(out, c)
		}
	}
	return out
}

// TextContent concatenates the direct text and CDATA children.
func (n *Node) TextContent() string {
	var b strings.Builder
	for _, c := range n.Children {
		if c.Kind != ElementNode {
			b.WriteString(c.Text)
		}
	}
	return b.String()
}

// CDataContent concatenates the direct CDATA children.
func (n *Node) CDataContent() (string, bool) {
	var b strings.Builder
	found := false
	for _, c := range n.Children {
		if c.Kind == CDataNode {
			b.WriteString(c.Text)
			found = true
		}
	}
	return b.String(), found
}

// HasMixedContent reports whether n has both element children and
// non-blank text.
func (n *Node) HasMixedContent() bool {
	elems, text := false, false
	for _, c := range n.Children {
		switch {
		case c.Kind == ElementNode:
			elems = true
		case strings.TrimSpace(c.Text) != "":
			text = true
		}
	}
	return elems && text
}

// Walk visits n and its element descendants depth first.
func (n *Node) Walk(fn func(*Node)) {
	fn(n)
	for _, c := range n.Children {
		if c.Kind == ElementNode {
			c.Walk(fn)
		}
	}
}

func qname(prefix, name string) string {
	if prefix == "" {
		return name
	}
	return prefix + ":" + name
}
