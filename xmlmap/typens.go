package xmlmap

import (
	"fmt"
	"strings"

	"shapemap/mapping"
	"shapemap/xmlns"
)

// Placement says where a type namespace declaration is written.
type Placement int

const (
	// PlacementRoot declares on the document element.
	PlacementRoot Placement = iota
	// PlacementParent declares on the element enclosing the typed element.
	PlacementParent
	// PlacementInline declares on the element carrying the typed attribute.
	PlacementInline
)

func (p Placement) String() string {
	switch p {
	case PlacementRoot:
		return "root"
	case PlacementParent:
		return "parent"
	default:
		return "inline"
	}
}

// Reference is a rule whose attribute type carries its own namespace.
type Reference struct {
	Rule        *mapping.XMLRule
	Attribute   string
	Namespace   *xmlns.Namespace
	IsAttribute bool
	// Context is the local name of the element the rule belongs to.
	Context string
}

// CollectTypeNamespaces returns a reference for every element or attribute
// rule of xm whose attribute type declares a namespace. Rules with an
// explicit namespace are skipped.
func CollectTypeNamespaces(m *mapping.Model, xm *mapping.XMLMapping) []Reference {
	var refs []Reference
	for _, r := range xm.Rules() {
		if r.Kind() != mapping.KindElement && r.Kind() != mapping.KindAttribute {
			continue
		}
		if _, explicit := r.Namespace(); explicit {
			continue
		}
		attr, ok := r.TargetModel(m).Attr(r.To())
		if !ok {
			continue
		}
		nsType, ok := attr.Type().(mapping.Namespaced)
		if !ok || nsType.XMLNamespace() == nil {
			continue
		}
		refs = append(refs, Reference{
			Rule:        r,
			Attribute:   attr.Name(),
			Namespace:   nsType.XMLNamespace(),
			IsAttribute: r.Kind() == mapping.KindAttribute,
			Context:     xm.RootName(),
		})
	}
	return refs
}

// resolveReference reports whether ref needs a declaration inside an
// element in namespace enclosing. Typed elements sharing the enclosing
// namespace inherit it; attributes always need a prefix.
func resolveReference(ref Reference, enclosing *xmlns.Namespace) bool {
	if ref.IsAttribute {
		return true
	}
	return !xmlns.SameURI(ref.Namespace, enclosing)
}

// Declaration is a planned xmlns:prefix declaration.
type Declaration struct {
	Prefix    string
	URI       string
	Placement Placement
	Reference Reference
}

// Planner assigns prefixes to type namespaces. Existing declarations are
// matched by URI, so a namespace already in scope is never declared twice.
type Planner struct {
	byURI    map[string]string
	byPrefix map[string]string
	scoped   map[string]bool
	counters map[string]int
}

// NewPlanner returns a planner seeded with the declarations in scope, URI
// to prefix. Scope lists the namespaces the mapping hoists to the root.
func NewPlanner(existing map[string]string, scope []xmlns.ScopeEntry) *Planner {
	p := &Planner{
		byURI:    make(map[string]string, len(existing)),
		byPrefix: make(map[string]string, len(existing)),
		scoped:   make(map[string]bool, len(scope)),
		counters: make(map[string]int),
	}
	for uri, prefix := range existing {
		if prefix == "" {
			continue
		}
		p.byURI[uri] = prefix
		p.byPrefix[prefix] = uri
	}
	for _, e := range scope {
		if e.Namespace != nil {
			p.scoped[e.Namespace.URI] = true
		}
	}
	return p
}

// Reserve keeps prefix away from planned declarations. The element's own
// namespace reserves its preferred prefix before its decision is made.
func (p *Planner) Reserve(prefix, uri string) {
	if prefix == "" {
		return
	}

	if _, taken := p.byPrefix[prefix]; !taken {
		p.byPrefix[prefix] = uri
	}
}

// Plan returns the declarations refs need, in reference order.
func (p *Planner) Plan(refs []Reference) []Declaration {
	var out []Declaration
	for _, ref := range refs {
		uri := ref.Namespace.URI
		if _, ok := p.byURI[uri]; ok {
			continue
		}
		prefix := p.prefixFor(ref)
		p.byURI[uri] = prefix
		p.byPrefix[prefix] = uri
		out = append(out, Declaration{
			Prefix:    prefix,
			URI:       uri,
			Placement: p.placementFor(ref),
			Reference: ref,
		})
	}
	return out
}

// Prefix returns the prefix planned or found for uri.
func (p *Planner) Prefix(uri string) (string, bool) {
	prefix, ok := p.byURI[uri]
	return prefix, ok
}

func (p *Planner) placementFor(ref Reference) Placement {
	switch {
	case p.scoped[ref.Namespace.URI]:
		return PlacementRoot
	case ref.IsAttribute:
		return PlacementInline
	default:
		return PlacementParent
	}
}

func (p *Planner) prefixFor(ref Reference) string {
	if want := ref.Namespace.Prefix; want != "" {
		if _, taken := p.byPrefix[want]; !taken {
			return want
		}
	}
	context := strings.ToLower(ref.Context)
	for {
		p.counters[context]++
		candidate := fmt.Sprintf("tn%s%d", context, p.counters[context])
		if _, taken := p.byPrefix[candidate]; !taken {
			return candidate
		}
	}
}
