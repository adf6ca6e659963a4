package xmlns

import "fmt"

//go:generate go tool stringer -type=Format -trimprefix=Format -output=format_string.go

// Well-known namespace URIs.
const (
	XMLNamespaceURI   = "http://www.w3.org/XML/1998/namespace"
	XMLNSNamespaceURI = "http://www.w3.org/2000/xmlns/"
	XSINamespaceURI   = "http://www.w3.org/2001/XMLSchema-instance"
)

// XSI is the schema-instance namespace used for xsi:nil and xsi:schemaLocation.
var XSI = &Namespace{URI: XSINamespaceURI, Prefix: "xsi"}

// Namespace is an XML namespace URI together with the prefix it prefers
// whenever it has to be written in prefixed form.
type Namespace struct {
	URI    string
	Prefix string
}

// New returns a namespace. An empty prefix means the namespace has no
// preferred prefix and one is generated when a prefix is required.
func New(uri, prefix string) *Namespace {
	return &Namespace{URI: uri, Prefix: prefix}
}

// SameURI reports whether both namespaces are non-nil and share a URI.
func SameURI(a, b *Namespace) bool {
	return a != nil && b != nil && a.URI == b.URI
}

// URIOf returns the namespace URI or an empty string for nil.
func URIOf(n *Namespace) string {
	if n == nil {
		return ""
	}

	return n.URI
}

// Clone returns a copy of n, or nil.
func (n *Namespace) Clone() *Namespace {
	if n == nil {
		return nil
	}

	c := *n

	return &c
}

func (n *Namespace) String() string {
	if n == nil {
		return "<none>"
	}

	if n.Prefix == "" {
		return n.URI
	}

	return fmt.Sprintf("%s=%s", n.Prefix, n.URI)
}

// Format is how an element's namespace is written.
type Format int

const (
	// FormatDefault writes the namespace as the default namespace (no prefix).
	FormatDefault Format = iota
	// FormatPrefix writes the element name with a namespace prefix.
	FormatPrefix
)

// Form is the per-mapping element form override.
type Form int

const (
	FormUnset Form = iota
	FormQualified
	FormUnqualified
)

func (f Form) String() string {
	switch f {
	case FormQualified:
		return "qualified"
	case FormUnqualified:
		return "unqualified"
	default:
		return "unset"
	}
}

// ScopeMode controls when a namespace configured in a namespace scope is
// hoisted to the document root.
type ScopeMode int

const (
	// ScopeAlways declares the namespace on the root whether or not it is used.
	ScopeAlways ScopeMode = iota
	// ScopeAuto declares the namespace on the root only when the document uses it.
	ScopeAuto
)

// ScopeEntry is one namespace of a root namespace scope.
type ScopeEntry struct {
	Namespace *Namespace
	Mode      ScopeMode
}

// Preserved is the form a namespace had in parsed input.
type Preserved struct {
	Format Format
	Prefix string
}

// PrefixOption is the caller-supplied prefix override. The zero value means
// no override.
type PrefixOption struct {
	set     bool
	enabled bool
	name    string
}

// PrefixEnabled requests (true) or forbids (false) a prefix.
func PrefixEnabled(enabled bool) PrefixOption {
	return PrefixOption{set: true, enabled: enabled}
}

// PrefixNamed requests the given prefix.
func PrefixNamed(name string) PrefixOption {
	return PrefixOption{set: true, enabled: name != "", name: name}
}

// IsSet reports whether an override was given.
func (p PrefixOption) IsSet() bool { return p.set }

// Enabled reports whether a prefix was requested.
func (p PrefixOption) Enabled() bool { return p.set && p.enabled }

// Name returns the explicitly requested prefix, if any.
func (p PrefixOption) Name() string { return p.name }
