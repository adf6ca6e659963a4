package mapping

import (
	"errors"
	"fmt"
	"slices"
)

// SortOrder orders the items of a collection model.
type SortOrder int

const (
	Ascending SortOrder = iota
	Descending
)

// SortSpec sorts collection items by an attribute of the item model.
type SortSpec struct {
	By    string
	Order SortOrder
}

// ChoiceGroup requires between Min and Max of Attributes to be present.
type ChoiceGroup struct {
	Min, Max   int
	Attributes []string
}

// Model declares attributes and per-format mappings.
type Model struct {
	name      string
	parent    *Model
	attrs     []*Attribute
	keyValue  *KeyValueMapping
	perFormat map[Format]*KeyValueMapping
	xml       *XMLMapping
	choices   []ChoiceGroup
	instances string
	sort      *SortSpec
	errs      []error
}

// ModelOption configures a new model.
type ModelOption func(*Model)

// Extends copies the attributes and mappings of parent into the new model
// and records the subtype relation.
func Extends(parent *Model) ModelOption {
	return func(m *Model) {
		m.parent = parent
		for _, a := range parent.attrs {
			m.attrs = append(m.attrs, a.clone())
		}
		if parent.keyValue != nil {
			m.keyValue = parent.keyValue.clone()
		}
		for f, kv := range parent.perFormat {
			m.perFormatMapping()[f] = kv.clone()
		}
		if parent.xml != nil {
			m.xml = parent.xml.clone()
			if m.xml.root == parent.name {
				m.xml.root = m.name
			}
		}
		m.choices = slices.Clone(parent.choices)
		m.instances = parent.instances
		if parent.sort != nil {
			s := *parent.sort
			m.sort = &s
		}
	}
}

// NewModel returns an empty model called name.
func NewModel(name string, opts ...ModelOption) *Model {
	m := &Model{name: name}
	for _, o := range opts {
		o(m)
	}
	return m
}

func (m *Model) TypeName() string { return m.name }

func (m *Model) Name() string { return m.name }

func (m *Model) Parent() *Model { return m.parent }

// IsA reports whether m is o or derives from it.
func (m *Model) IsA(o *Model) bool {
	for c := m; c != nil; c = c.parent {
		if c == o {
			return true
		}
	}
	return false
}

// Attribute declares an attribute. Redeclaring a name replaces it in
// place.
func (m *Model) Attribute(name string, t Type, opts ...AttributeOption) *Model {
	a := &Attribute{name: name, typ: t}
	for _, o := range opts {
		o(a)
	}
	if err := a.validate(); err != nil {
		m.errs = append(m.errs, fmt.Errorf("%s: %w", m.name, err))
	}
	if i := m.attrIndex(name); i >= 0 {
		m.attrs[i] = a
		return m
	}
	m.attrs = append(m.attrs, a)
	return m
}

func (m *Model) attrIndex(name string) int {
	return slices.IndexFunc(m.attrs, func(a *Attribute) bool { return a.name == name })
}

// Attr returns the attribute called name.
func (m *Model) Attr(name string) (*Attribute, bool) {
	if i := m.attrIndex(name); i >= 0 {
		return m.attrs[i], true
	}
	return nil, false
}

// Attributes returns the attributes in declaration order.
func (m *Model) Attributes() []*Attribute { return m.attrs }

// Import copies the attributes and mapping rules of o into m. Attributes
// already declared on m are kept.
func (m *Model) Import(o *Model) *Model {
	for _, a := range o.attrs {
		if m.attrIndex(a.name) < 0 {
			m.attrs = append(m.attrs, a.clone())
		}
	}
	if o.keyValue != nil {
		m.KeyValue().importRules(o.keyValue)
	}
	for f, kv := range o.perFormat {
		m.KeyValueFor(f).importRules(kv)
	}
	if o.xml != nil {
		m.XML().importRules(o.xml)
	}
	m.choices = append(m.choices, o.choices...)
	return m
}

// KeyValue returns the mapping shared by all key-value formats, creating
// it on first use.
func (m *Model) KeyValue() *KeyValueMapping {
	if m.keyValue == nil {
		m.keyValue = newKeyValueMapping()
	}
	return m.keyValue
}

// KeyValueFor returns a mapping used only for format f, creating it on
// first use.
func (m *Model) KeyValueFor(f Format) *KeyValueMapping {
	pf := m.perFormatMapping()
	if pf[f] == nil {
		pf[f] = newKeyValueMapping()
	}
	return pf[f]
}

func (m *Model) perFormatMapping() map[Format]*KeyValueMapping {
	if m.perFormat == nil {
		m.perFormat = make(map[Format]*KeyValueMapping)
	}
	return m.perFormat
}

// KeyValueMapping resolves the mapping for f: the format-specific one, the
// shared one, or a default mapping every attribute under its own name.
func (m *Model) KeyValueMapping(f Format) *KeyValueMapping {
	if kv := m.perFormat[f]; kv != nil {
		return kv
	}
	if m.keyValue != nil {
		return m.keyValue
	}
	kv := newKeyValueMapping()
	if m.instances != "" {
		return kv.MapInstances(m.instances)
	}
	for _, a := range m.attrs {
		kv.Map(a.name, a.name)
	}
	return kv
}

// XML returns the XML mapping, creating it on first use with the model
// name as root.
func (m *Model) XML() *XMLMapping {
	if m.xml == nil {
		m.xml = newXMLMapping(m.name)
	}
	return m.xml
}

// XMLMapping resolves the XML mapping, defaulting to one element per
// attribute.
func (m *Model) XMLMapping() *XMLMapping {
	if m.xml != nil {
		return m.xml
	}
	x := newXMLMapping(m.name)
	for _, a := range m.attrs {
		if a.name == m.instances {
			if item, ok := a.Model(); ok {
				x.MapInstances(item.XMLMapping().RootName(), a.name)
				continue
			}
		}
		x.MapElement(a.name, a.name)
	}
	return x
}

// Choice requires between lo and hi of attrs to be present.
func (m *Model) Choice(lo, hi int, attrs ...string) *Model {
	m.choices = append(m.choices, ChoiceGroup{Min: lo, Max: hi, Attributes: attrs})
	return m
}

func (m *Model) Choices() []ChoiceGroup { return m.choices }

// Instances makes m a collection model whose items live in attr.
func (m *Model) Instances(attr string, item Type) *Model {
	m.instances = attr
	return m.Attribute(attr, item, CollectionAny())
}

// InstancesAttr returns the items attribute of a collection model.
func (m *Model) InstancesAttr() string { return m.instances }

// Sort orders collection items on every read.
func (m *Model) Sort(by string, order SortOrder) *Model {
	m.sort = &SortSpec{By: by, Order: order}
	return m
}

func (m *Model) SortSpec() *SortSpec { return m.sort }

// Err reports every configuration error of the model and its mappings.
func (m *Model) Err() error {
	errs := slices.Clone(m.errs)
	if m.keyValue != nil {
		errs = append(errs, m.keyValue.Err())
	}
	for _, f := range KeyValueFormats {
		if kv := m.perFormat[f]; kv != nil {
			errs = append(errs, kv.Err())
		}
	}
	if m.xml != nil {
		errs = append(errs, m.xml.Err())
		if m.sort != nil && m.xml.ordered {
			errs = append(errs, &SortingConfigurationConflictError{Model: m.name})
		}
	}
	if m.sort != nil && m.instances == "" {
		errs = append(errs, fmt.Errorf("%s: sort requires a collection model", m.name))
	}
	for _, c := range m.choices {
		for _, a := range c.Attributes {
			if m.attrIndex(a) < 0 {
				errs = append(errs, &UnknownAttributeError{Attribute: a, Model: m.name})
			}
		}
	}
	return errors.Join(errs...)
}

// New returns an empty instance of m.
func (m *Model) New() *Instance {
	return &Instance{model: m, values: make(map[string]any)}
}

// Build returns an instance with values assigned.
func (m *Model) Build(values map[string]any) (*Instance, error) {
	inst := m.New()
	for _, a := range m.attrs {
		v, ok := values[a.name]
		if !ok {
			continue
		}
		if err := inst.Set(a.name, v); err != nil {
			return nil, err
		}
	}
	for k := range values {
		if m.attrIndex(k) < 0 {
			return nil, &UnknownAttributeError{Attribute: k, Model: m.name}
		}
	}
	return inst, nil
}

// MustBuild is Build that panics on error.
func (m *Model) MustBuild(values map[string]any) *Instance {
	inst, err := m.Build(values)
	if err != nil {
		panic(err)
	}
	return inst
}
