package mapping

import (
	"fmt"
	"maps"
	"slices"
)

// Document receives values written by a custom To method.
type Document interface {
	Set(name string, value any)
}

// Methods replaces plain attribute access for a rule. To writes into the
// output document; From consumes the raw document value.
type Methods struct {
	To   func(inst *Instance, doc Document) error
	From func(inst *Instance, value any) error
}

// PolymorphicMap selects a nested model by discriminator. Key is the
// serialized discriminator name; Classes maps its values to model names.
type PolymorphicMap struct {
	Key     string
	Classes map[string]string
}

// ModelFor returns the model name registered for a discriminator value.
func (p *PolymorphicMap) ModelFor(value string) (string, bool) {
	name, ok := p.Classes[value]
	return name, ok
}

// ValueFor is the reverse of ModelFor.
func (p *PolymorphicMap) ValueFor(model string) (string, bool) {
	for _, k := range slices.Sorted(maps.Keys(p.Classes)) {
		if p.Classes[k] == model {
			return k, true
		}
	}
	return "", false
}

// Rule is the format-independent part of a mapping rule.
type Rule struct {
	names         []string
	to            string
	delegate      string
	policies      Policies
	renderDefault bool
	methods       *Methods
	polymorphic   *PolymorphicMap
	transform     Transform
	override      *ValueMap
}

// Option configures the format-independent part of a rule. It applies to
// key-value and XML rules alike.
type Option func(*Rule)

func (o Option) applyKeyValue(r *KeyValueRule) { o(&r.Rule) }

func (o Option) applyXML(r *XMLRule) { o(&r.Rule) }

// Aliases adds names accepted on read. The first declared name is written.
func Aliases(names ...string) Option {
	return func(r *Rule) { r.names = append(r.names, names...) }
}

// Delegate reads and writes the target attribute on the nested instance
// held by attr.
func Delegate(attr string) Option {
	return func(r *Rule) { r.delegate = attr }
}

// WithMethods installs custom accessors.
func WithMethods(m Methods) Option {
	return func(r *Rule) { r.methods = &m }
}

// PolymorphicBy selects nested models by the discriminator key.
func PolymorphicBy(key string, classes map[string]string) Option {
	return func(r *Rule) {
		r.polymorphic = &PolymorphicMap{Key: key, Classes: maps.Clone(classes)}
	}
}

// WithTransform attaches a value transform to the rule.
func WithTransform(t Transform) Option {
	return func(r *Rule) { r.transform = t }
}

func RenderNil(p Policy) Option { return func(r *Rule) { r.policies.RenderNil = p } }

func RenderEmpty(p Policy) Option { return func(r *Rule) { r.policies.RenderEmpty = p } }

// RenderDefault renders values that come from the attribute default.
func RenderDefault() Option { return func(r *Rule) { r.renderDefault = true } }

func TreatNil(p Policy) Option { return func(r *Rule) { r.policies.TreatNil = p } }

func TreatEmpty(p Policy) Option { return func(r *Rule) { r.policies.TreatEmpty = p } }

func TreatOmitted(p Policy) Option { return func(r *Rule) { r.policies.TreatOmitted = p } }

// WithValueMap overrides individual entries of the resolved table.
func WithValueMap(vm ValueMap) Option {
	return func(r *Rule) { r.override = &vm }
}

// Name returns the name written on export.
func (r *Rule) Name() string {
	if len(r.names) == 0 {
		return ""
	}

	return r.names[0]
}

// Names returns the primary name followed by the aliases.
func (r *Rule) Names() []string { return r.names }

// HasName reports whether name is one of the rule's names.
func (r *Rule) HasName(name string) bool { return slices.Contains(r.names, name) }

func (r *Rule) To() string { return r.to }

func (r *Rule) DelegateTo() string { return r.delegate }

func (r *Rule) Methods() *Methods { return r.methods }

func (r *Rule) Polymorphic() *PolymorphicMap { return r.polymorphic }

func (r *Rule) Transform() Transform { return r.transform }

func (r *Rule) RendersDefault() bool { return r.renderDefault }

// HasCustomTo reports whether export goes through a custom method.
func (r *Rule) HasCustomTo() bool { return r.methods != nil && r.methods.To != nil }

// HasCustomFrom reports whether import goes through a custom method.
func (r *Rule) HasCustomFrom() bool { return r.methods != nil && r.methods.From != nil }

// ValueMap returns the resolved table, with override applied on top of the
// rule's own override.
func (r *Rule) ValueMap(override *ValueMap) ValueMap {
	return NewValueMap(r.policies).merge(r.override).merge(override)
}

// Render reports whether value is written. A value coming from the
// attribute default is rendered only with RenderDefault. override is the
// per-call table and may be nil.
func (r *Rule) Render(value any, inst *Instance, override *ValueMap) bool {
	if inst != nil && r.delegate == "" && inst.UsingDefault(r.to) {
		return r.renderDefault
	}

	s := Classify(value)
	if s == StatePresent {
		return true
	}

	return r.ValueMap(override).Resolve(Export, s) != StateOmitted
}

// Treat reports whether an incoming value is assigned.
func (r *Rule) Treat(value any, override *ValueMap) bool {
	s := Classify(value)
	if s == StatePresent {
		return true
	}

	return r.ValueMap(override).Resolve(Import, s) != StateOmitted
}

// ExportState returns what a non-present value renders as.
func (r *Rule) ExportState(value any, override *ValueMap) ValueState {
	return r.ValueMap(override).Resolve(Export, Classify(value))
}

// ImportState returns what a non-present incoming value becomes.
func (r *Rule) ImportState(value any, override *ValueMap) ValueState {
	return r.ValueMap(override).Resolve(Import, Classify(value))
}

// Serialize reads the rule's value from inst, following the delegate.
func (r *Rule) Serialize(inst *Instance) any {
	if r.delegate == "" {
		return inst.Get(r.to)
	}

	d, ok := inst.Get(r.delegate).(*Instance)
	if !ok || d == nil {
		return Uninitialized
	}

	return d.Get(r.to)
}

// Deserialize assigns an already cast value to inst. A custom From method
// wins, then delegation, then the import transforms and plain assignment.
func (r *Rule) Deserialize(inst *Instance, value any, format Format) error {
	if r.HasCustomFrom() {
		return r.methods.From(inst, value)
	}

	target := inst

	if r.delegate != "" {
		d, err := r.delegateInstance(inst)
		if err != nil {
			return err
		}

		target = d
	}

	attr, ok := target.model.Attr(r.to)
	if !ok {
		return &UnknownAttributeError{Attribute: r.to, Model: target.model.Name()}
	}

	if Classify(value) == StatePresent {
		v, err := ImportValue(value, r, attr, format)
		if err != nil {
			return fmt.Errorf("%s: %w", r.to, err)
		}

		value = v
	}

	target.assign(r.to, value)

	return nil
}

// delegateInstance returns the nested instance held by the delegate
// attribute, creating it when unset.
func (r *Rule) delegateInstance(inst *Instance) (*Instance, error) {
	if d, ok := inst.Get(r.delegate).(*Instance); ok && d != nil {
		return d, nil
	}

	attr, ok := inst.model.Attr(r.delegate)
	if !ok {
		return nil, &UnknownAttributeError{Attribute: r.delegate, Model: inst.model.Name()}
	}

	m, ok := attr.Model()
	if !ok {
		return nil, fmt.Errorf("delegate %s of %s is not a model", r.delegate, inst.model.Name())
	}

	d := m.New()
	inst.assign(r.delegate, d)

	return d, nil
}

// TargetModel returns the model that owns the rule's target attribute.
func (r *Rule) TargetModel(m *Model) *Model {
	if r.delegate == "" {
		return m
	}

	if attr, ok := m.Attr(r.delegate); ok {
		if dm, ok := attr.Model(); ok {
			return dm
		}
	}

	return m
}

func (r Rule) clone() Rule {
	c := r
	c.names = slices.Clone(r.names)

	if r.polymorphic != nil {
		p := *r.polymorphic
		p.Classes = maps.Clone(r.polymorphic.Classes)
		c.polymorphic = &p
	}

	if r.methods != nil {
		m := *r.methods
		c.methods = &m
	}

	if r.override != nil {
		vm := r.override.merge(&ValueMap{})
		c.override = &vm
	}

	return c
}
