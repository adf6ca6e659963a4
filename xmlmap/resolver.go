package xmlmap

import (
	"fmt"
	"log/slog"
	"maps"

	"shapemap/xmlns"
)

// scope is the set of namespace declarations visible at an element.
type scope struct {
	prefixes map[string]string // prefix -> uri
	uris     map[string]string // uri -> prefix
	def      string
}

func newScope() scope {
	return scope{prefixes: map[string]string{}, uris: map[string]string{}}
}

func (s scope) clone() scope {
	return scope{prefixes: maps.Clone(s.prefixes), uris: maps.Clone(s.uris), def: s.def}
}

func (s *scope) bind(prefix, uri string) {
	if prefix == "" {
		s.def = uri
		return
	}
	if old, ok := s.prefixes[prefix]; ok && s.uris[old] == prefix {
		delete(s.uris, old)
	}
	s.prefixes[prefix] = uri
	s.uris[uri] = prefix
}

// hoisted returns the declarations in scope, URI to prefix, with the
// default namespace under an empty prefix unless the URI also has one.
func (s scope) hoisted() map[string]string {
	out := maps.Clone(s.uris)
	if s.def != "" {
		if _, ok := out[s.def]; !ok {
			out[s.def] = ""
		}
	}
	return out
}

type parentInfo struct {
	format xmlns.Format
	ns     *xmlns.Namespace
	prefix string
}

// Resolver assigns prefixes and namespace declarations to an export tree.
type Resolver struct {
	engine *xmlns.Engine
	opts   xmlns.Options
	logger *slog.Logger

	root      *element
	generated int
	peeked    int
	used      map[string]bool
	attrUsed  map[string]bool
}

// NewResolver returns a resolver. A nil engine uses the default rule chain.
func NewResolver(engine *xmlns.Engine, opts xmlns.Options, logger *slog.Logger) *Resolver {
	if engine == nil {
		engine = xmlns.NewEngine()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{engine: engine, opts: opts, logger: logger}
}

// Resolve decides every element of the tree rooted at root.
func (r *Resolver) Resolve(root *element) error {
	r.root = root
	r.generated = 0
	r.used = map[string]bool{}
	r.attrUsed = map[string]bool{}
	root.walk(func(e *element) {
		if e.ns != nil {
			r.used[e.ns.URI] = true
		}
		for uri := range e.attrNS {
			r.used[uri] = true
			r.attrUsed[uri] = true
		}
	})
	return r.walk(root, parentInfo{}, newScope())
}

func (r *Resolver) walk(e *element, parent parentInfo, sc scope) error {
	sc = sc.clone()
	node := e.node
	isRoot := e == r.root

	if isRoot {
		r.declareScope(e, &sc)
	}

	typePrefixes := r.planTypes(e, &sc, isRoot)

	info := parentInfo{format: xmlns.FormatDefault}
	if e.ns == nil {
		if sc.def != "" {
			node.Declare("", "")
			sc.bind("", "")
		}

		node.Prefix = ""
	} else {
		fallback := ""
		if e.ns.Prefix == "" {
			fallback = r.peekPrefix(sc)
		}

		ctx := xmlns.DecisionContext{
			Namespace:                e.ns,
			IsRoot:                   isRoot,
			RootNamespace:            r.root.ns,
			ParentFormat:             parent.format,
			ParentNamespace:          parent.ns,
			ParentPrefix:             parent.prefix,
			ParentHoisted:            sc.hoisted(),
			Form:                     e.form,
			UsedInAttributes:         r.attrUsed[e.ns.URI],
			UsedInDocument:           r.used[e.ns.URI],
			TypeNamespacesNeedPrefix: len(typePrefixes) > 0,
			FallbackPrefix:           fallback,
			Options:                  r.opts,
		}

		d, err := r.engine.Decide(ctx)
		if err != nil {
			return fmt.Errorf("element %s: %w", node.Name, err)
		}

		if d.UsesPrefix() && fallback != "" && d.Prefix() == fallback {
			r.generated = r.peeked
		}

		prefix := r.apply(e, d, &sc)
		info = parentInfo{format: d.Format(), ns: e.ns, prefix: prefix}
	}

	r.qualifyAttrs(e, &sc)

	for _, c := range e.children {
		if err := r.walk(c, info, sc); err != nil {
			return err
		}
	}

	return nil
}

// declareScope writes the mapping's namespace scope on the root element.
func (r *Resolver) declareScope(root *element, sc *scope) {
	for _, entry := range r.opts.Scope {
		ns := entry.Namespace
		if ns == nil || xmlns.SameURI(ns, root.ns) {
			continue
		}
		if entry.Mode == xmlns.ScopeAuto && !r.used[ns.URI] {
			continue
		}
		prefix := ns.Prefix
		if prefix == "" || sc.prefixes[prefix] != "" {
			prefix = r.nextPrefix(*sc)
		}
		root.node.Declare(prefix, ns.URI)
		sc.bind(prefix, ns.URI)
	}
}

// planTypes declares the type namespaces of e and returns their prefixes.
// The prefix e itself may take is reserved first, so a type namespace never
// claims it for another URI.
func (r *Resolver) planTypes(e *element, sc *scope, isRoot bool) map[string]string {
	var needed []Reference
	for _, ref := range e.refs {
		if resolveReference(ref, e.ns) {
			needed = append(needed, ref)
		}
	}

	if len(needed) == 0 {
		return nil
	}

	planner := NewPlanner(sc.hoisted(), r.opts.Scope)
	if e.ns != nil {
		planner.Reserve(e.ns.Prefix, e.ns.URI)

		if isRoot {
			planner.Reserve(r.opts.Prefix.Name(), e.ns.URI)
		}
	}

	for _, d := range planner.Plan(needed) {
		target := e
		if d.Placement == PlacementRoot {
			target = r.root
		}

		target.node.Declare(d.Prefix, d.URI)
		sc.bind(d.Prefix, d.URI)
		r.logger.Debug("type namespace declared",
			"prefix", d.Prefix, "uri", d.URI, "placement", d.Placement.String(), "attribute", d.Reference.Attribute)
	}

	out := make(map[string]string, len(needed))
	for _, ref := range needed {
		if p, ok := planner.Prefix(ref.Namespace.URI); ok {
			out[ref.Namespace.URI] = p
		}
	}

	return out
}

// apply writes decision d on e and returns the prefix used. A prefix the
// node already binds to another URI is replaced by a generated one.
func (r *Resolver) apply(e *element, d xmlns.Decision, sc *scope) string {
	uri := e.ns.URI
	if d.UsesDefault() {
		if sc.def != uri {
			e.node.Declare("", uri)
			sc.bind("", uri)
		}

		e.node.Prefix = ""

		return ""
	}

	prefix := d.Prefix()
	if bound, ok := e.node.Declared(prefix); ok && bound != uri {
		prefix = r.nextPrefix(*sc)
		r.logger.Debug("prefix already bound on element",
			"element", e.node.Name, "prefix", d.Prefix(), "bound", bound, "replacement", prefix)
	}

	if sc.prefixes[prefix] != uri {
		e.node.Declare(prefix, uri)
		sc.bind(prefix, uri)
	}

	e.node.Prefix = prefix

	return prefix
}

// qualifyAttrs prefixes namespaced attributes, declaring what is missing.
// The default namespace never applies to attributes.
func (r *Resolver) qualifyAttrs(e *element, sc *scope) {
	for i := range e.node.Attrs {
		a := &e.node.Attrs[i]
		switch a.Namespace {
		case "":
			continue
		case xmlns.XMLNamespaceURI:
			a.Prefix = "xml"
			continue
		}
		if p, ok := sc.uris[a.Namespace]; ok {
			a.Prefix = p
			continue
		}
		prefix := ""
		if ns := e.attrNS[a.Namespace]; ns != nil {
			prefix = ns.Prefix
		}
		if prefix == "" || sc.prefixes[prefix] != "" {
			prefix = r.nextPrefix(*sc)
		}
		e.node.Declare(prefix, a.Namespace)
		sc.bind(prefix, a.Namespace)
		a.Prefix = prefix
	}
}

// peekPrefix returns the next generated prefix without consuming it.
func (r *Resolver) peekPrefix(sc scope) string {
	n := r.generated
	for {
		n++
		p := fmt.Sprintf("ns%d", n)
		if _, taken := sc.prefixes[p]; !taken {
			r.peeked = n
			return p
		}
	}
}

func (r *Resolver) nextPrefix(sc scope) string {
	for {
		r.generated++
		p := fmt.Sprintf("ns%d", r.generated)
		if _, taken := sc.prefixes[p]; !taken {
			return p
		}
	}
}
