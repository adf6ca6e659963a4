package mapping

import (
	"errors"
	"fmt"
	"slices"
)

// KeyValueOption configures a key-value rule.
type KeyValueOption interface {
	applyKeyValue(*KeyValueRule)
}

type keyValueOption func(*KeyValueRule)

func (o keyValueOption) applyKeyValue(r *KeyValueRule) { o(r) }

// ChildKind selects what part of a keyed entry a child mapping reads.
type ChildKind int

const (
	ChildKey ChildKind = iota
	ChildValue
	ChildPath
)

// ChildMapping binds an attribute of the nested model to the key, the
// value, or a path inside the value of a keyed entry.
type ChildMapping struct {
	Attribute string
	Kind      ChildKind
	Path      []string
}

func MapKey(attr string) ChildMapping { return ChildMapping{Attribute: attr, Kind: ChildKey} }

func MapValue(attr string) ChildMapping { return ChildMapping{Attribute: attr, Kind: ChildValue} }

func MapPath(attr string, path ...string) ChildMapping {
	return ChildMapping{Attribute: attr, Kind: ChildPath, Path: path}
}

// ChildMappings reads a keyed object into a collection of nested instances,
// one per key.
func ChildMappings(ms ...ChildMapping) KeyValueOption {
	return keyValueOption(func(r *KeyValueRule) { r.childMappings = append(r.childMappings, ms...) })
}

// RootMappings reads the whole document as a keyed object into the target
// collection. It makes the rule the mapping's root mapping.
func RootMappings(ms ...ChildMapping) KeyValueOption {
	return keyValueOption(func(r *KeyValueRule) { r.rootMappings = append(r.rootMappings, ms...) })
}

// Path reads the value with a JSONPath expression instead of the rule name.
// Path rules are import only.
func Path(expr string) KeyValueOption {
	return keyValueOption(func(r *KeyValueRule) { r.path = expr })
}

// KeyValueRule maps one key of a key-value document.
type KeyValueRule struct {
	Rule
	childMappings []ChildMapping
	rootMappings  []ChildMapping
	path          string
	raw           bool
	instances     bool
}

func (r *KeyValueRule) ChildMappings() []ChildMapping { return r.childMappings }

func (r *KeyValueRule) RootMappings() []ChildMapping { return r.rootMappings }

func (r *KeyValueRule) Path() string { return r.path }

// IsRaw reports a "map all" rule.
func (r *KeyValueRule) IsRaw() bool { return r.raw }

// IsInstances reports a rule mapping the whole document to a collection.
func (r *KeyValueRule) IsInstances() bool { return r.instances }

// IsRootMapping reports whether the rule consumes the whole document.
func (r *KeyValueRule) IsRootMapping() bool {
	return r.raw || r.instances || len(r.rootMappings) > 0
}

func (r *KeyValueRule) clone() *KeyValueRule {
	c := *r
	c.Rule = r.Rule.clone()
	c.childMappings = slices.Clone(r.childMappings)
	c.rootMappings = slices.Clone(r.rootMappings)
	return &c
}

// KeyValueMapping is the ordered rule set of a model for key-value formats.
type KeyValueMapping struct {
	root  string
	rules []*KeyValueRule
	errs  []error
}

func newKeyValueMapping() *KeyValueMapping {
	return &KeyValueMapping{}
}

// Root wraps documents in a single key.
func (m *KeyValueMapping) Root(name string) *KeyValueMapping {
	m.root = name
	return m
}

func (m *KeyValueMapping) RootName() string { return m.root }

// Map binds the document key name to the attribute to.
func (m *KeyValueMapping) Map(name, to string, opts ...KeyValueOption) *KeyValueMapping {
	r := &KeyValueRule{Rule: Rule{names: []string{name}, to: to}}
	for _, o := range opts {
		o.applyKeyValue(r)
	}
	m.add(r)
	return m
}

// MapAll stores the whole document, unparsed, in the attribute to.
func (m *KeyValueMapping) MapAll(to string, opts ...KeyValueOption) *KeyValueMapping {
	r := &KeyValueRule{Rule: Rule{to: to}, raw: true}
	for _, o := range opts {
		o.applyKeyValue(r)
	}
	m.add(r)
	return m
}

// MapInstances maps a top-level list to the collection attribute to.
func (m *KeyValueMapping) MapInstances(to string, opts ...KeyValueOption) *KeyValueMapping {
	r := &KeyValueRule{Rule: Rule{to: to}, instances: true}
	for _, o := range opts {
		o.applyKeyValue(r)
	}
	m.add(r)
	return m
}

func (m *KeyValueMapping) add(r *KeyValueRule) {
	if root := m.RootRule(); root != nil {
		if root.raw || r.raw {
			m.errs = append(m.errs, fmt.Errorf("%w: %s", ErrMapAllConflict, r.to))
			return
		}
		m.errs = append(m.errs, fmt.Errorf("%w: %s", ErrRootMappingConflict, r.to))
		return
	}
	if r.IsRootMapping() && len(m.rules) > 0 {
		if r.raw {
			m.errs = append(m.errs, fmt.Errorf("%w: %s", ErrMapAllConflict, r.to))
			return
		}
		m.errs = append(m.errs, fmt.Errorf("%w: %s", ErrRootMappingConflict, r.to))
		return
	}
	if name := r.Name(); name != "" {
		if _, dup := m.Find(name); dup {
			m.errs = append(m.errs, fmt.Errorf("%w: %s", ErrDuplicateMapping, name))
			return
		}
	}
	m.rules = append(m.rules, r)
}

// Rules returns the rules in declaration order.
func (m *KeyValueMapping) Rules() []*KeyValueRule { return m.rules }

// Find returns the rule answering to name, primary or alias.
func (m *KeyValueMapping) Find(name string) (*KeyValueRule, bool) {
	for _, r := range m.rules {
		if r.HasName(name) {
			return r, true
		}
	}
	return nil, false
}

// FindTo returns the first rule targeting the attribute to.
func (m *KeyValueMapping) FindTo(to string) (*KeyValueRule, bool) {
	for _, r := range m.rules {
		if r.to == to && r.delegate == "" {
			return r, true
		}
	}
	return nil, false
}

// RootRule returns the rule consuming the whole document, if any.
func (m *KeyValueMapping) RootRule() *KeyValueRule {
	for _, r := range m.rules {
		if r.IsRootMapping() {
			return r
		}
	}
	return nil
}

// Err reports configuration errors recorded while the mapping was built.
func (m *KeyValueMapping) Err() error { return errors.Join(m.errs...) }

func (m *KeyValueMapping) clone() *KeyValueMapping {
	c := &KeyValueMapping{root: m.root, errs: slices.Clone(m.errs)}
	for _, r := range m.rules {
		c.rules = append(c.rules, r.clone())
	}
	return c
}

// importRules appends copies of o's rules, skipping names already mapped.
func (m *KeyValueMapping) importRules(o *KeyValueMapping) {
	for _, r := range o.rules {
		if name := r.Name(); name != "" {
			if _, ok := m.Find(name); ok {
				continue
			}
		}
		m.add(r.clone())
	}
}
