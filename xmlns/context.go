package xmlns

// Options are the caller-level inputs shared by every element of one
// serialization pass.
type Options struct {
	// Prefix is the explicit prefix override for the root model's namespace.
	Prefix PrefixOption
	// AlwaysPrefix is set when the root explicitly requested prefixed output.
	AlwaysPrefix bool
	// Preserved maps namespace URI to the form observed while parsing.
	Preserved map[string]Preserved
	// Scope lists namespaces hoisted to the document root.
	Scope []ScopeEntry
}

// ScopeFor returns the scope entry for uri.
func (o Options) ScopeFor(uri string) (ScopeEntry, bool) {
	for _, e := range o.Scope {
		if e.Namespace != nil && e.Namespace.URI == uri {
			return e, true
		}
	}

	return ScopeEntry{}, false
}

// DecisionContext is the snapshot a rule decides from. It is built once per
// element; rules must treat it, including its maps, as read-only.
type DecisionContext struct {
	// Namespace of the element being decided. Never nil when handed to the engine.
	Namespace *Namespace
	// IsRoot is true for the document element.
	IsRoot bool
	// RootNamespace is the namespace of the document element.
	RootNamespace *Namespace

	ParentFormat    Format
	ParentNamespace *Namespace
	ParentPrefix    string
	// ParentHoisted holds the declarations in scope at the parent, URI to
	// prefix; an empty prefix is a default-namespace declaration.
	ParentHoisted map[string]string

	// Form is the element form override of the mapping rule.
	Form Form
	// UsedInAttributes is true when the namespace qualifies an attribute
	// anywhere in the document.
	UsedInAttributes bool
	// UsedInDocument is true when any element or attribute uses the namespace.
	UsedInDocument bool
	// TypeNamespacesNeedPrefix is true when type-level namespaces planned for
	// this element must be written in prefix form.
	TypeNamespacesNeedPrefix bool
	// FallbackPrefix is used when the namespace has no preferred prefix.
	FallbackPrefix string

	Options Options
}

func (c DecisionContext) uri() string {
	return URIOf(c.Namespace)
}

func (c DecisionContext) sameAsParent() bool {
	return !c.IsRoot && SameURI(c.Namespace, c.ParentNamespace)
}

func (c DecisionContext) sameAsRoot() bool {
	return SameURI(c.Namespace, c.RootNamespace)
}

// preferredPrefix picks an in-scope prefix for the namespace, then its own
// preferred prefix, then the fallback.
func (c DecisionContext) preferredPrefix() string {
	if p, ok := c.ParentHoisted[c.uri()]; ok && p != "" {
		return p
	}

	if c.Namespace != nil && c.Namespace.Prefix != "" {
		return c.Namespace.Prefix
	}

	return c.FallbackPrefix
}

func (c DecisionContext) canPrefix() bool {
	return c.preferredPrefix() != ""
}
