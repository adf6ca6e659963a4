package xmltree

import (
	"fmt"
	"strings"

	"github.com/beevik/etree"

	"shapemap/xmlns"
)

// ParseOptions tune Parse.
type ParseOptions struct {
	// KeepWhitespace keeps whitespace-only text nodes.
	KeepWhitespace bool
}

// Parse reads a document and returns its root element.
func Parse(data []byte, opts ParseOptions) (*Node, error) {
	doc := etree.NewDocument()
	doc.ReadSettings.PreserveCData = true
	if err := doc.ReadFromBytes(data); err != nil {
		return nil, fmt.Errorf("parse xml: %w", err)
	}
	root := doc.Root()
	if root == nil {
		return nil, fmt.Errorf("parse xml: document has no root element")
	}
	return fromEtree(root, opts), nil
}

// ParseFragment reads a sequence of nodes, as captured by InnerXML.
func ParseFragment(raw string, opts ParseOptions) ([]*Node, error) {
	wrapper, err := Parse([]byte("<fragment>"+raw+"</fragment>"), opts)
	if err != nil {
		return nil, err
	}
	return wrapper.Children, nil
}

func fromEtree(e *etree.Element, opts ParseOptions) *Node {
	n := &Node{
		Kind:      ElementNode,
		Name:      e.Tag,
		Prefix:    e.Space,
		Namespace: e.NamespaceURI(),
	}
	for _, a := range e.Attr {
		switch {
		case a.Space == "xmlns":
			n.Decls = append(n.Decls, Decl{Prefix: a.Key, URI: a.Value})
		case a.Space == "" && a.Key == "xmlns":
			n.Decls = append(n.Decls, Decl{URI: a.Value})
		default:
			uri := a.NamespaceURI()
			if a.Space == "xml" {
				uri = xmlns.XMLNamespaceURI
			}
			n.Attrs = append(n.Attrs, Attr{Name: a.Key, Prefix: a.Space, Namespace: uri, Value: a.Value})
		}
	}
	for _, tok := range e.Child {
		switch t := tok.(type) {
		case *etree.Element:
			n.Children = append(n.Children, fromEtree(t, opts))
		case *etree.CharData:
			if t.IsCData() {
				n.Children = append(n.Children, NewCData(t.Data))
				continue
			}
			if !opts.KeepWhitespace && strings.TrimSpace(t.Data) == "" {
				continue
			}
			n.Children = append(n.Children, NewText(t.Data))
		}
	}
	return n
}

// BuildOptions tune Build.
type BuildOptions struct {
	// Indent is the number of spaces per level; 0 writes compact output.
	Indent int
	// Declaration writes the <?xml?> header.
	Declaration bool
}

// Build writes root as a document. Indentation is skipped when any
// element carries mixed content, since it would change the text.
func Build(root *Node, opts BuildOptions) ([]byte, error) {
	doc := etree.NewDocument()
	if opts.Declaration {
		doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)
	}
	toEtree(doc.CreateElement(root.QName()), root)
	if opts.Indent > 0 && !anyMixed(root) {
		doc.Indent(opts.Indent)
	}
	out, err := doc.WriteToBytes()
	if err != nil {
		return nil, fmt.Errorf("build xml: %w", err)
	}
	return out, nil
}

func anyMixed(root *Node) bool {
	mixed := false
	root.Walk(func(n *Node) {
		if n.HasMixedContent() {
			mixed = true
		}
	})
	return mixed
}

func toEtree(e *etree.Element, n *Node) {
	for _, d := range n.Decls {
		if d.Prefix == "" {
			e.CreateAttr("xmlns", d.URI)
			continue
		}
		e.CreateAttr("xmlns:"+d.Prefix, d.URI)
	}
	for _, a := range n.Attrs {
		e.CreateAttr(a.QName(), a.Value)
	}
	for _, c := range n.Children {
		switch c.Kind {
		case ElementNode:
			toEtree(e.CreateElement(c.QName()), c)
		case CDataNode:
			e.CreateCData(c.Text)
		default:
			e.CreateText(c.Text)
		}
	}
}

// InnerXML writes the children of n without the surrounding tags.
func (n *Node) InnerXML() (string, error) {
	wrapper := &Node{Kind: ElementNode, Name: "fragment", Children: n.Children}
	out, err := Build(wrapper, BuildOptions{})
	if err != nil {
		return "", err
	}
	s := string(out)
	if s == "<fragment/>" {
		return "", nil
	}
	s = strings.TrimPrefix(s, "<fragment>")
	return strings.TrimSuffix(s, "</fragment>"), nil
}
