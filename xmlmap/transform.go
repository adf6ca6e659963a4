package xmlmap

import (
	"log/slog"
	"slices"

	"shapemap/mapping"
	"shapemap/xmlns"
	"shapemap/xmltree"
)

// Options tune a single transform call.
type Options struct {
	// Mapping overrides the model's resolved XML mapping.
	Mapping *mapping.XMLMapping
	// Prefix is the explicit prefix option for the root namespace.
	Prefix xmlns.PrefixOption
	// Only and Except filter top-level rules by target attribute.
	Only   []string
	Except []string
	// ValueMap overrides value-map entries of every rule, nested models
	// included.
	ValueMap *mapping.ValueMap
}

func (o Options) selects(attr string) bool {
	if len(o.Only) > 0 && !slices.Contains(o.Only, attr) {
		return false
	}

	return !slices.Contains(o.Except, attr)
}

// nested returns the options handed to nested models.
func (o Options) nested() Options {
	return Options{ValueMap: o.ValueMap}
}

// Transform converts between instances and XML node trees.
type Transform struct {
	registry *mapping.Registry
	engine   *xmlns.Engine
	logger   *slog.Logger
}

// New returns a transform. The registry resolves polymorphic
// discriminators; a nil engine uses the default decision chain and a nil
// logger slog.Default().
func New(registry *mapping.Registry, engine *xmlns.Engine, logger *slog.Logger) *Transform {
	if engine == nil {
		engine = xmlns.NewEngine()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Transform{registry: registry, engine: engine, logger: logger}
}

func (t *Transform) mappingFor(m *mapping.Model, opts Options) *mapping.XMLMapping {
	if opts.Mapping != nil {
		return opts.Mapping
	}
	return m.XMLMapping()
}

// elementNamespace resolves the namespace of an element rule inside a
// mapping whose own namespace is parent. An explicit rule namespace wins,
// then a namespaced type, then the nested model's namespace. Unqualified
// elements have none; the rest inherit parent.
func elementNamespace(r *mapping.XMLRule, xm *mapping.XMLMapping, attr *mapping.Attribute, item any, parent *xmlns.Namespace) (*xmlns.Namespace, bool) {
	if ns, ok := r.Namespace(); ok {
		return ns, false
	}
	if attr != nil {
		if nsType, ok := attr.Type().(mapping.Namespaced); ok && nsType.XMLNamespace() != nil {
			return nsType.XMLNamespace(), true
		}
	}
	if inst, ok := item.(*mapping.Instance); ok && inst != nil {
		if ns := inst.Model().XMLMapping().RootNamespace(); ns != nil {
			return ns, false
		}
	} else if attr != nil {
		if m, ok := attr.Model(); ok {
			if ns := m.XMLMapping().RootNamespace(); ns != nil {
				return ns, false
			}
		}
	}
	if formOf(r, xm.ElementForm()) == xmlns.FormUnqualified {
		return nil, false
	}
	return parent, false
}

// attributeNamespace resolves the namespace of an attribute rule.
// Attributes are unqualified unless declared otherwise.
func attributeNamespace(r *mapping.XMLRule, xm *mapping.XMLMapping, attr *mapping.Attribute, parent *xmlns.Namespace) *xmlns.Namespace {
	if ns, ok := r.Namespace(); ok {
		return ns
	}
	if attr != nil {
		if nsType, ok := attr.Type().(mapping.Namespaced); ok && nsType.XMLNamespace() != nil {
			return nsType.XMLNamespace()
		}
	}
	if formOf(r, xm.AttributeForm()) == xmlns.FormQualified {
		return parent
	}
	return nil
}

func formOf(r *mapping.XMLRule, fallback xmlns.Form) xmlns.Form {
	if r.Form() != xmlns.FormUnset {
		return r.Form()
	}
	return fallback
}

// matchesElement reports whether n answers to rule r. The namespace is
// compared only when the rule declares one explicitly.
func matchesElement(n *xmltree.Node, r *mapping.XMLRule) bool {
	if n.Kind != xmltree.ElementNode || !r.HasName(n.Name) {
		return false
	}
	if ns, explicit := r.Namespace(); explicit {
		return xmlns.URIOf(ns) == n.Namespace
	}
	return true
}

// findElementRule returns the element or instances rule answering to a
// captured child.
func findElementRule(xm *mapping.XMLMapping, name, uri string) *mapping.XMLRule {
	var loose *mapping.XMLRule
	for _, r := range xm.Rules() {
		if r.Kind() != mapping.KindElement && r.Kind() != mapping.KindInstances {
			continue
		}
		if !r.HasName(name) {
			continue
		}
		ns, explicit := r.Namespace()
		if explicit && xmlns.URIOf(ns) == uri {
			return r
		}
		if !explicit && loose == nil {
			loose = r
		}
	}
	return loose
}
