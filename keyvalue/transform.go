package keyvalue

import (
	"errors"
	"fmt"
	"slices"

	"github.com/spf13/cast"

	"shapemap/mapping"
)

// ErrNotObject is returned when a document that must be an object is not.
var ErrNotObject = errors.New("document is not an object")

// Options tune a single transform call.
type Options struct {
	// Mapping overrides the model's resolved mapping.
	Mapping *mapping.KeyValueMapping
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

// nested returns the options handed to nested models: no mapping override
// and no attribute filter.
func (o Options) nested() Options {
	return Options{ValueMap: o.ValueMap}
}

// Transform converts between instances and key-value trees for one format.
type Transform struct {
	registry *mapping.Registry
	format   mapping.Format
}

// New returns a transform for format. The registry resolves polymorphic
// discriminators and may be nil when no rule uses them.
func New(registry *mapping.Registry, format mapping.Format) *Transform {
	return &Transform{registry: registry, format: format}
}

func (t *Transform) Format() mapping.Format { return t.format }

func (t *Transform) mappingFor(m *mapping.Model, opts Options) *mapping.KeyValueMapping {
	if opts.Mapping != nil {
		return opts.Mapping
	}

	return m.KeyValueMapping(t.format)
}

// ModelToData renders inst into an ordered key-value tree. A model with
// configuration errors is rejected.
func (t *Transform) ModelToData(inst *mapping.Instance, opts Options) (any, error) {
	kv := t.mappingFor(inst.Model(), opts)

	root := NewElement(RootKey, nil)
	if err := t.fill(root, inst, kv, opts); err != nil {
		return nil, err
	}

	out := root.ToHash()
	if name := kv.RootName(); name != "" {
		wrapped := NewObject()
		wrapped.Set(name, out)

		return wrapped, nil
	}

	return out, nil
}

// fill adds the rendered rules of inst to el.
func (t *Transform) fill(el *Element, inst *mapping.Instance, kv *mapping.KeyValueMapping, opts Options) error {
	if err := inst.Model().Err(); err != nil {
		return err
	}

	if rr := kv.RootRule(); rr != nil {
		return t.fillRoot(el, inst, rr, opts)
	}

	for _, r := range kv.Rules() {
		if !opts.selects(r.To()) || r.Path() != "" {
			continue
		}

		if r.HasCustomTo() {
			if err := r.Methods().To(inst, el); err != nil {
				return fmt.Errorf("%s: %w", r.Name(), err)
			}

			continue
		}

		owner := r.TargetModel(inst.Model())
		attr, ok := owner.Attr(r.To())
		if !ok {
			return &mapping.UnknownAttributeError{Attribute: r.To(), Model: owner.Name()}
		}

		v := r.Serialize(inst)
		if !r.Render(v, inst, opts.ValueMap) {
			continue
		}

		child, err := t.renderRule(r, attr, v, opts)
		if err != nil {
			return err
		}

		el.Add(child)
	}

	return nil
}

func (t *Transform) renderRule(r *mapping.KeyValueRule, attr *mapping.Attribute, v any, opts Options) (*Element, error) {
	name := r.Name()
	if mapping.Classify(v) != mapping.StatePresent {
		if r.ExportState(v, opts.ValueMap) == mapping.StateEmpty {
			return NewElement(name, emptyOut(attr)), nil
		}

		return NewElement(name, nil), nil
	}

	v, err := mapping.ExportValue(v, &r.Rule, attr, t.format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}

	if cms := r.ChildMappings(); len(cms) > 0 {
		out, err := t.childMappingsOut(v, cms)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}

		return NewElement(name, out), nil
	}

	if items, ok := v.([]any); ok {
		list := make([]any, 0, len(items))
		for _, item := range items {
			out, err := t.renderValue(item, attr, r, opts)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", name, err)
			}

			list = append(list, out)
		}

		return NewElement(name, list), nil
	}

	if nested, ok := v.(*mapping.Instance); ok {
		el := NewElement(name, nil)
		if err := t.fillNested(el, nested, r, opts); err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}

		return el, nil
	}

	out, err := mapping.SerializeValue(attr.Type(), v, t.format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}

	return NewElement(name, out), nil
}

// renderValue renders one collection item.
func (t *Transform) renderValue(v any, attr *mapping.Attribute, r *mapping.KeyValueRule, opts Options) (any, error) {
	nested, ok := v.(*mapping.Instance)
	if !ok {
		return mapping.SerializeValue(attr.Type(), v, t.format)
	}

	el := NewElement("", nil)
	if err := t.fillNested(el, nested, r, opts); err != nil {
		return nil, err
	}

	return el.Content(), nil
}

// fillNested renders a nested instance, adding the polymorphic
// discriminator when the rule declares one.
func (t *Transform) fillNested(el *Element, nested *mapping.Instance, r *mapping.KeyValueRule, opts Options) error {
	kv := nested.Model().KeyValueMapping(t.format)
	if err := t.fill(el, nested, kv, opts.nested()); err != nil {
		return err
	}

	if poly := r.Polymorphic(); poly != nil && kv.RootRule() == nil {
		if _, exists := el.Find(poly.Key); !exists {
			if value, ok := poly.ValueFor(nested.Model().Name()); ok {
				el.Children = append([]any{NewElement(poly.Key, value)}, el.Children...)
			}
		}
	}

	if len(el.Children) == 0 && el.Value == nil && kv.RootRule() == nil {
		el.Value = NewObject()
	}

	return nil
}

func (t *Transform) fillRoot(el *Element, inst *mapping.Instance, rr *mapping.KeyValueRule, opts Options) error {
	owner := rr.TargetModel(inst.Model())
	attr, ok := owner.Attr(rr.To())
	if !ok {
		return &mapping.UnknownAttributeError{Attribute: rr.To(), Model: owner.Name()}
	}

	v := rr.Serialize(inst)

	switch {
	case rr.IsRaw():
		if mapping.Classify(v) == mapping.StateOmitted {
			return nil
		}

		out, err := mapping.ExportValue(v, &rr.Rule, attr, t.format)
		if err != nil {
			return err
		}

		el.Value = out
	case rr.IsInstances():
		if !attr.IsCollection() {
			return &mapping.CollectionTrueMissingError{Attribute: attr.Name(), Model: owner.Name()}
		}

		items, _ := v.([]any)
		list := make([]any, 0, len(items))
		for _, item := range items {
			out, err := t.renderValue(item, attr, rr, opts)
			if err != nil {
				return err
			}

			list = append(list, out)
		}

		el.Value = list
	default:
		out, err := t.childMappingsOut(v, rr.RootMappings())
		if err != nil {
			return err
		}

		el.Value = out
	}

	return nil
}

// childMappingsOut renders a collection of instances as an object keyed by
// the ChildKey attribute of each item.
func (t *Transform) childMappingsOut(v any, cms []mapping.ChildMapping) (*Object, error) {
	obj := NewObject()
	items, _ := v.([]any)

	for _, item := range items {
		inst, ok := item.(*mapping.Instance)
		if !ok {
			return nil, fmt.Errorf("child mapping item %T is not an instance", item)
		}

		var (
			key   string
			value any
		)

		nested := NewObject()
		for _, cm := range cms {
			switch cm.Kind {
			case mapping.ChildKey:
				key = cast.ToString(inst.Get(cm.Attribute))
			case mapping.ChildValue:
				value = t.plainValue(inst, cm.Attribute)
			case mapping.ChildPath:
				if v := t.plainValue(inst, cm.Attribute); v != nil {
					setPath(nested, cm.Path, v)
				}
			}
		}

		if value == nil {
			value = nested
		}

		obj.Set(key, value)
	}

	return obj, nil
}

func (t *Transform) plainValue(inst *mapping.Instance, name string) any {
	v := inst.Get(name)
	if mapping.Classify(v) == mapping.StateOmitted {
		return nil
	}

	if attr, ok := inst.Model().Attr(name); ok {
		if out, err := mapping.SerializeValue(attr.Type(), v, t.format); err == nil {
			return out
		}
	}

	return v
}

func emptyOut(attr *mapping.Attribute) any {
	if attr.IsCollection() {
		return []any{}
	}

	if _, ok := attr.Model(); ok {
		return NewObject()
	}

	return ""
}

// DataToModel builds an instance of m from a key-value tree. A model with
// configuration errors is rejected.
func (t *Transform) DataToModel(data any, m *mapping.Model, opts Options) (*mapping.Instance, error) {
	if err := m.Err(); err != nil {
		return nil, err
	}

	kv := t.mappingFor(m, opts)
	if name := kv.RootName(); name != "" {
		if inner, ok := lookup(data, name); ok {
			data = inner
		}
	}

	inst := m.New()
	if rr := kv.RootRule(); rr != nil {
		if err := t.readRoot(inst, data, rr, opts); err != nil {
			return nil, err
		}

		return inst, nil
	}

	doc, ok := AsObject(data)
	if !ok {
		return nil, fmt.Errorf("%s: %w (got %T)", m.Name(), ErrNotObject, data)
	}

	for _, r := range kv.Rules() {
		if !opts.selects(r.To()) {
			continue
		}

		if err := t.readRule(inst, doc, r, opts); err != nil {
			return nil, err
		}
	}

	return inst, nil
}

func (t *Transform) readRule(inst *mapping.Instance, doc *Object, r *mapping.KeyValueRule, opts Options) error {
	owner := r.TargetModel(inst.Model())
	attr, ok := owner.Attr(r.To())
	if !ok && !r.HasCustomFrom() {
		return &mapping.UnknownAttributeError{Attribute: r.To(), Model: owner.Name()}
	}

	if attr != nil && attr.IsDerived() {
		return nil
	}

	ex, err := extract(doc, r)
	if err != nil {
		return err
	}

	if r.HasCustomFrom() {
		if !ex.found {
			return nil
		}

		return r.Deserialize(inst, Plain(ex.value), t.format)
	}

	if mapping.Classify(ex.value) != mapping.StatePresent {
		switch r.ImportState(ex.value, opts.ValueMap) {
		case mapping.StateNil:
			return r.Deserialize(inst, nil, t.format)
		case mapping.StateEmpty:
			return r.Deserialize(inst, attr.Empty(), t.format)
		default:
			return nil
		}
	}

	var v any
	if cms := r.ChildMappings(); len(cms) > 0 {
		v, err = t.childMappingsIn(ex.value, attr, cms)
	} else {
		v, err = t.castValue(ex.value, owner, attr, r, opts)
	}

	if err != nil {
		return fmt.Errorf("%s: %w", r.Name(), err)
	}

	return r.Deserialize(inst, v, t.format)
}

func (t *Transform) readRoot(inst *mapping.Instance, data any, rr *mapping.KeyValueRule, opts Options) error {
	attr, ok := inst.Model().Attr(rr.To())
	if !ok {
		return &mapping.UnknownAttributeError{Attribute: rr.To(), Model: inst.Model().Name()}
	}

	switch {
	case rr.IsRaw():
		return rr.Deserialize(inst, Plain(data), t.format)
	case rr.IsInstances():
		if !attr.IsCollection() {
			return &mapping.CollectionTrueMissingError{Attribute: attr.Name(), Model: inst.Model().Name()}
		}

		v, err := t.castValue(data, inst.Model(), attr, rr, opts)
		if err != nil {
			return err
		}

		return rr.Deserialize(inst, v, t.format)
	default:
		v, err := t.childMappingsIn(data, attr, rr.RootMappings())
		if err != nil {
			return err
		}

		return rr.Deserialize(inst, v, t.format)
	}
}

// castValue casts a raw document value for attr. Collections accept a
// single value as a one-item list; scalars reject lists.
func (t *Transform) castValue(raw any, owner *mapping.Model, attr *mapping.Attribute, r *mapping.KeyValueRule, opts Options) (any, error) {
	list, isList := raw.([]any)
	if attr.IsCollection() {
		if !isList {
			list = []any{raw}
		}

		out := make([]any, 0, len(list))
		for _, item := range list {
			v, err := t.castOne(item, attr, r, opts)
			if err != nil {
				return nil, err
			}

			out = append(out, v)
		}

		return out, nil
	}

	if isList && attr.Type() != mapping.Any {
		return nil, &mapping.CollectionTrueMissingError{Attribute: attr.Name(), Model: owner.Name()}
	}

	return t.castOne(raw, attr, r, opts)
}

func (t *Transform) castOne(raw any, attr *mapping.Attribute, r *mapping.KeyValueRule, opts Options) (any, error) {
	m, ok := attr.Model()
	if !ok {
		return mapping.CastValue(attr.Type(), Plain(raw), t.format)
	}

	if raw == nil {
		return nil, nil
	}

	if poly := r.Polymorphic(); poly != nil {
		resolved, err := t.polymorphicModel(raw, attr, poly)
		if err != nil {
			return nil, err
		}

		m = resolved
	}

	return t.DataToModel(raw, m, opts.nested())
}

func (t *Transform) polymorphicModel(raw any, attr *mapping.Attribute, poly *mapping.PolymorphicMap) (*mapping.Model, error) {
	declared, _ := attr.Model()

	disc, ok := lookup(raw, poly.Key)
	if !ok {
		return declared, nil
	}

	name, ok := poly.ModelFor(cast.ToString(disc))
	if !ok {
		return nil, &mapping.PolymorphicTypeError{Attribute: attr.Name(), Value: cast.ToString(disc)}
	}

	if t.registry == nil {
		return nil, fmt.Errorf("%s: %w: no registry to resolve %s", attr.Name(), mapping.ErrUnknownModel, name)
	}

	return t.registry.ResolvePolymorphic(attr, name)
}

// childMappingsIn reads an object into instances of the attribute's model,
// one per key.
func (t *Transform) childMappingsIn(raw any, attr *mapping.Attribute, cms []mapping.ChildMapping) ([]any, error) {
	item, ok := attr.Model()
	if !ok {
		return nil, fmt.Errorf("child mappings on %s require a model type", attr.Name())
	}

	obj, ok := AsObject(raw)
	if !ok {
		return nil, fmt.Errorf("%s: %w", attr.Name(), ErrNotObject)
	}

	out := make([]any, 0, obj.Len())
	for p := obj.Oldest(); p != nil; p = p.Next() {
		inst := item.New()

		for _, cm := range cms {
			var (
				v     any
				found bool
			)

			switch cm.Kind {
			case mapping.ChildKey:
				v, found = p.Key, true
			case mapping.ChildValue:
				v, found = p.Value, true
			case mapping.ChildPath:
				v, found = dig(p.Value, cm.Path)
			}

			if !found {
				continue
			}

			a, ok := item.Attr(cm.Attribute)
			if !ok {
				return nil, &mapping.UnknownAttributeError{Attribute: cm.Attribute, Model: item.Name()}
			}

			cv, err := mapping.CastValue(a.Type(), Plain(v), t.format)
			if err != nil {
				return nil, fmt.Errorf("%s.%s: %w", item.Name(), cm.Attribute, err)
			}

			if err := inst.Set(cm.Attribute, cv); err != nil {
				return nil, err
			}
		}

		out = append(out, inst)
	}

	return out, nil
}
