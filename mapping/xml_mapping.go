package mapping

import (
	"errors"
	"fmt"
	"slices"

	"shapemap/xmlns"
)

// XMLOption configures an XML rule.
type XMLOption interface {
	applyXML(*XMLRule)
}

type xmlOption func(*XMLRule)

func (o xmlOption) applyXML(r *XMLRule) { o(r) }

// Namespace qualifies the rule with ns. A nil ns explicitly removes any
// namespace the element would otherwise inherit.
func Namespace(ns *xmlns.Namespace) XMLOption {
	return xmlOption(func(r *XMLRule) {
		r.namespace = ns
		r.namespaceSet = true
	})
}

// Form overrides the mapping's element or attribute form default.
func Form(f xmlns.Form) XMLOption {
	return xmlOption(func(r *XMLRule) { r.form = f })
}

// CDATA writes the value as a CDATA section.
func CDATA() XMLOption {
	return xmlOption(func(r *XMLRule) { r.cdata = true })
}

// XMLKind is the node kind an XML rule binds.
type XMLKind int

const (
	KindElement XMLKind = iota
	KindAttribute
	KindContent
	KindRaw
	KindInstances
)

// XMLRule maps one element, attribute or text node.
type XMLRule struct {
	Rule
	kind         XMLKind
	namespace    *xmlns.Namespace
	namespaceSet bool
	form         xmlns.Form
	cdata        bool
}

func (r *XMLRule) Kind() XMLKind { return r.kind }

// Namespace returns the explicit namespace and whether one was declared.
func (r *XMLRule) Namespace() (*xmlns.Namespace, bool) { return r.namespace, r.namespaceSet }

func (r *XMLRule) Form() xmlns.Form { return r.form }

func (r *XMLRule) IsCDATA() bool { return r.cdata }

func (r *XMLRule) clone() *XMLRule {
	c := *r
	c.Rule = r.Rule.clone()
	c.namespace = r.namespace.Clone()
	return &c
}

// XMLMapping is the rule set of a model for XML.
type XMLMapping struct {
	root          string
	namespace     *xmlns.Namespace
	ordered       bool
	mixed         bool
	rules         []*XMLRule
	sequences     [][]string
	scope         []xmlns.ScopeEntry
	elementForm   xmlns.Form
	attributeForm xmlns.Form
	errs          []error
}

func newXMLMapping(root string) *XMLMapping {
	return &XMLMapping{root: root}
}

func (m *XMLMapping) Root(name string) *XMLMapping {
	m.root = name
	return m
}

// Namespace sets the namespace of the root element.
func (m *XMLMapping) Namespace(uri, prefix string) *XMLMapping {
	m.namespace = xmlns.New(uri, prefix)
	return m
}

// Ordered preserves element order on round trips.
func (m *XMLMapping) Ordered() *XMLMapping {
	m.ordered = true
	return m
}

// MixedContent interleaves text with elements. It implies Ordered.
func (m *XMLMapping) MixedContent() *XMLMapping {
	m.mixed = true
	m.ordered = true
	return m
}

// Sequence requires the named elements to appear in the given order.
func (m *XMLMapping) Sequence(names ...string) *XMLMapping {
	m.sequences = append(m.sequences, names)
	return m
}

// NamespaceScope declares ns on the root element.
func (m *XMLMapping) NamespaceScope(ns *xmlns.Namespace, mode xmlns.ScopeMode) *XMLMapping {
	m.scope = append(m.scope, xmlns.ScopeEntry{Namespace: ns, Mode: mode})
	return m
}

func (m *XMLMapping) ElementFormDefault(f xmlns.Form) *XMLMapping {
	m.elementForm = f
	return m
}

func (m *XMLMapping) AttributeFormDefault(f xmlns.Form) *XMLMapping {
	m.attributeForm = f
	return m
}

func (m *XMLMapping) MapElement(name, to string, opts ...XMLOption) *XMLMapping {
	return m.add(name, to, KindElement, opts)
}

func (m *XMLMapping) MapAttribute(name, to string, opts ...XMLOption) *XMLMapping {
	return m.add(name, to, KindAttribute, opts)
}

// MapContent binds the element's text to to.
func (m *XMLMapping) MapContent(to string, opts ...XMLOption) *XMLMapping {
	return m.add("", to, KindContent, opts)
}

// MapAll captures the raw inner XML of the element.
func (m *XMLMapping) MapAll(to string, opts ...XMLOption) *XMLMapping {
	return m.add("", to, KindRaw, opts)
}

// MapInstances maps every child element called name to the collection to.
func (m *XMLMapping) MapInstances(name, to string, opts ...XMLOption) *XMLMapping {
	return m.add(name, to, KindInstances, opts)
}

func (m *XMLMapping) add(name, to string, kind XMLKind, opts []XMLOption) *XMLMapping {
	r := &XMLRule{Rule: Rule{to: to}, kind: kind}
	if name != "" {
		r.names = []string{name}
	}
	for _, o := range opts {
		o.applyXML(r)
	}
	m.insert(r)
	return m
}

func (m *XMLMapping) insert(r *XMLRule) {
	if m.Raw() != nil || (r.kind == KindRaw && len(m.rules) > 0) {
		m.errs = append(m.errs, fmt.Errorf("%w: %s", ErrMapAllConflict, r.to))
		return
	}
	if r.kind == KindInstances && m.Instances() != nil {
		m.errs = append(m.errs, fmt.Errorf("%w: %s", ErrRootMappingConflict, r.to))
		return
	}
	if r.kind == KindContent && m.Content() != nil {
		m.errs = append(m.errs, fmt.Errorf("%w: content", ErrDuplicateMapping))
		return
	}
	for _, o := range m.rules {
		if o.kind == r.kind && o.Name() != "" && o.Name() == r.Name() && xmlns.URIOf(o.namespace) == xmlns.URIOf(r.namespace) {
			m.errs = append(m.errs, fmt.Errorf("%w: %s", ErrDuplicateMapping, r.Name()))
			return
		}
	}
	m.rules = append(m.rules, r)
}

func (m *XMLMapping) RootName() string { return m.root }

func (m *XMLMapping) RootNamespace() *xmlns.Namespace { return m.namespace }

func (m *XMLMapping) IsOrdered() bool { return m.ordered }

func (m *XMLMapping) IsMixed() bool { return m.mixed }

func (m *XMLMapping) Sequences() [][]string { return m.sequences }

func (m *XMLMapping) Scope() []xmlns.ScopeEntry { return m.scope }

func (m *XMLMapping) ElementForm() xmlns.Form { return m.elementForm }

func (m *XMLMapping) AttributeForm() xmlns.Form { return m.attributeForm }

// Rules returns every rule in declaration order.
func (m *XMLMapping) Rules() []*XMLRule { return m.rules }

func (m *XMLMapping) Elements() []*XMLRule { return m.ofKind(KindElement) }

func (m *XMLMapping) Attributes() []*XMLRule { return m.ofKind(KindAttribute) }

func (m *XMLMapping) Content() *XMLRule { return m.first(KindContent) }

func (m *XMLMapping) Raw() *XMLRule { return m.first(KindRaw) }

func (m *XMLMapping) Instances() *XMLRule { return m.first(KindInstances) }

func (m *XMLMapping) ofKind(k XMLKind) []*XMLRule {
	var out []*XMLRule
	for _, r := range m.rules {
		if r.kind == k {
			out = append(out, r)
		}
	}
	return out
}

func (m *XMLMapping) first(k XMLKind) *XMLRule {
	for _, r := range m.rules {
		if r.kind == k {
			return r
		}
	}
	return nil
}

// HasElement reports whether an element or instances rule answers to name.
func (m *XMLMapping) HasElement(name string) bool {
	for _, r := range m.rules {
		if (r.kind == KindElement || r.kind == KindInstances) && r.HasName(name) {
			return true
		}
	}
	return false
}

// Err reports configuration errors recorded while the mapping was built.
func (m *XMLMapping) Err() error { return errors.Join(m.errs...) }

func (m *XMLMapping) clone() *XMLMapping {
	c := *m
	c.namespace = m.namespace.Clone()
	c.rules = nil
	for _, r := range m.rules {
		c.rules = append(c.rules, r.clone())
	}
	c.sequences = make([][]string, len(m.sequences))
	for i, s := range m.sequences {
		c.sequences[i] = slices.Clone(s)
	}
	c.scope = slices.Clone(m.scope)
	c.errs = slices.Clone(m.errs)
	return &c
}

func (m *XMLMapping) importRules(o *XMLMapping) {
	for _, r := range o.rules {
		m.insert(r.clone())
	}
	m.sequences = append(m.sequences, o.sequences...)
}
