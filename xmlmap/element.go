package xmlmap

import (
	"shapemap/xmlns"
	"shapemap/xmltree"
)

// element is a node of the export tree before prefixes are decided.
type element struct {
	node     *xmltree.Node
	ns       *xmlns.Namespace
	form     xmlns.Form
	refs     []Reference
	attrNS   map[string]*xmlns.Namespace
	children []*element
}

func newElement(name string, ns *xmlns.Namespace) *element {
	n := xmltree.NewElement(name)
	n.Namespace = xmlns.URIOf(ns)
	return &element{node: n, ns: ns}
}

// newTypedElement returns a leaf element. Elements whose namespace comes
// from their value type are qualified so they pick up the planned prefix.
func newTypedElement(name string, ns *xmlns.Namespace, typed bool, form xmlns.Form) *element {
	e := newElement(name, ns)
	e.form = form
	if typed {
		e.form = xmlns.FormQualified
	}
	return e
}

// addChild appends c as an element child.
func (e *element) addChild(c *element) {
	e.node.AddChild(c.node)
	e.children = append(e.children, c)
}

// addText appends a text or CDATA node.
func (e *element) addText(s string, cdata bool) {
	if cdata {
		e.node.AddChild(xmltree.NewCData(s))
		return
	}
	e.node.AddChild(xmltree.NewText(s))
}

// setAttr adds an attribute qualified with ns, which may be nil.
func (e *element) setAttr(name string, ns *xmlns.Namespace, value string) {
	e.node.SetAttr(xmltree.Attr{Name: name, Namespace: xmlns.URIOf(ns), Value: value})
	if ns == nil {
		return
	}
	if e.attrNS == nil {
		e.attrNS = make(map[string]*xmlns.Namespace)
	}
	e.attrNS[ns.URI] = ns
}

// walk visits e and its element descendants.
func (e *element) walk(fn func(*element)) {
	fn(e)
	for _, c := range e.children {
		c.walk(fn)
	}
}
