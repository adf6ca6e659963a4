package xmlns

import (
	"errors"
	"fmt"
)

// ErrInvalidDecision is returned for a prefix decision without a prefix.
var ErrInvalidDecision = errors.New("xmlns: prefix decision requires a prefix")

// Decision is the immutable outcome for one element.
type Decision struct {
	format    Format
	prefix    string
	namespace *Namespace
	reason    string
}

// PrefixDecision returns a decision to write the element with prefix.
func PrefixDecision(prefix string, ns *Namespace, reason string) Decision {
	return Decision{format: FormatPrefix, prefix: prefix, namespace: ns, reason: reason}
}

// DefaultDecision returns a decision to rely on the default namespace.
func DefaultDecision(ns *Namespace, reason string) Decision {
	return Decision{format: FormatDefault, namespace: ns, reason: reason}
}

func (d Decision) Format() Format { return d.format }
func (d Decision) Prefix() string { return d.prefix }
func (d Decision) Namespace() *Namespace { return d.namespace }
func (d Decision) Reason() string { return d.reason }
func (d Decision) UsesPrefix() bool { return d.format == FormatPrefix }
func (d Decision) UsesDefault() bool { return d.format == FormatDefault }
func (d Decision) NamespaceURI() string { return URIOf(d.namespace) }

func (d Decision) withReason(r string) Decision {
	d.reason = r
	return d
}

// Validate checks the prefix-iff-prefix-format invariant.
func (d Decision) Validate() error {
	if d.format == FormatPrefix && d.prefix == "" {
		return fmt.Errorf("%w (namespace %s)", ErrInvalidDecision, d.namespace)
	}

	if d.format == FormatDefault && d.prefix != "" {
		return fmt.Errorf("xmlns: default decision carries prefix %q", d.prefix)
	}

	return nil
}

// Equal compares format, prefix and namespace URI. The reason is diagnostic
// only and does not take part.
func (d Decision) Equal(o Decision) bool {
	return d.format == o.format &&
		d.prefix == o.prefix &&
		URIOf(d.namespace) == URIOf(o.namespace)
}

func (d Decision) String() string {
	if d.format == FormatPrefix {
		return fmt.Sprintf("prefix %s:%s (%s)", d.prefix, URIOf(d.namespace), d.reason)
	}

	return fmt.Sprintf("default %s (%s)", URIOf(d.namespace), d.reason)
}
