package mapping

import (
	"fmt"
	"slices"
)

// Unbounded marks an open end of a collection range.
const Unbounded = -1

// Range is a collection arity. Max may be Unbounded; Min may not.
type Range struct {
	Min, Max int
}

// Contains reports whether n lies within the range.
func (r Range) Contains(n int) bool {
	if n < r.Min {
		return false
	}
	return r.Max == Unbounded || n <= r.Max
}

func (r Range) String() string {
	lo := "*"
	if r.Min != Unbounded {
		lo = fmt.Sprint(r.Min)
	}
	if r.Max == Unbounded {
		return lo + ".."
	}
	return fmt.Sprintf("%s..%d", lo, r.Max)
}

func (r Range) validate() bool {
	if r.Min == Unbounded || r.Min < 0 {
		return false
	}
	return r.Max == Unbounded || r.Max >= r.Min
}

// Attribute is a declared, typed field of a model.
type Attribute struct {
	name            string
	typ             Type
	collection      *Range
	defaultValue    any
	defaultFn       func() any
	hasDefault      bool
	polymorphic     []string
	polymorphicAny  bool
	transform       Transform
	initializeEmpty bool
	required        bool
	derived         func(*Instance) any
}

// AttributeOption configures an attribute declaration.
type AttributeOption func(*Attribute)

// Collection declares the attribute as a collection with the given arity.
func Collection(lo, hi int) AttributeOption {
	return func(a *Attribute) { a.collection = &Range{Min: lo, Max: hi} }
}

// CollectionAny declares an unbounded collection.
func CollectionAny() AttributeOption {
	return Collection(0, Unbounded)
}

// Default sets a static default value. Slice defaults are copied on read.
func Default(v any) AttributeOption {
	return func(a *Attribute) {
		a.defaultValue = v
		a.defaultFn = nil
		a.hasDefault = true
	}
}

// DefaultFunc sets a default computed on every read.
func DefaultFunc(fn func() any) AttributeOption {
	return func(a *Attribute) {
		a.defaultFn = fn
		a.hasDefault = true
	}
}

// Polymorphic restricts values to the named models.
func Polymorphic(models ...string) AttributeOption {
	return func(a *Attribute) { a.polymorphic = append(a.polymorphic, models...) }
}

// PolymorphicAny accepts any subtype of the declared model.
func PolymorphicAny() AttributeOption {
	return func(a *Attribute) { a.polymorphicAny = true }
}

// WithAttributeTransform attaches a value transform to the attribute.
func WithAttributeTransform(t Transform) AttributeOption {
	return func(a *Attribute) { a.transform = t }
}

// InitializeEmpty makes an unset collection read as an empty slice.
func InitializeEmpty() AttributeOption {
	return func(a *Attribute) { a.initializeEmpty = true }
}

// Required makes validation fail when the attribute has no value.
func Required() AttributeOption {
	return func(a *Attribute) { a.required = true }
}

// Derived declares a computed attribute. Derived attributes are serialized
// but never assigned from documents.
func Derived(fn func(*Instance) any) AttributeOption {
	return func(a *Attribute) { a.derived = fn }
}

func (a *Attribute) Name() string { return a.name }

func (a *Attribute) Type() Type { return a.typ }

func (a *Attribute) IsCollection() bool { return a.collection != nil }

// Collection returns the arity; the zero Range for scalar attributes.
func (a *Attribute) Collection() Range {
	if a.collection == nil {
		return Range{}
	}
	return *a.collection
}

func (a *Attribute) HasDefault() bool { return a.hasDefault || (a.initializeEmpty && a.IsCollection()) }

// Default returns a fresh copy of the default value.
func (a *Attribute) Default() any {
	switch {
	case a.defaultFn != nil:
		return a.defaultFn()
	case a.hasDefault:
		return cloneValue(a.defaultValue)
	case a.initializeEmpty && a.IsCollection():
		return []any{}
	default:
		return Uninitialized
	}
}

func (a *Attribute) Transform() Transform { return a.transform }

func (a *Attribute) IsRequired() bool { return a.required }

func (a *Attribute) IsDerived() bool { return a.derived != nil }

// Polymorphic returns the permitted model names and whether any subtype of
// the declared model is accepted.
func (a *Attribute) Polymorphic() (names []string, subtypes bool) {
	return a.polymorphic, a.polymorphicAny
}

// IsPolymorphic reports whether the attribute accepts more than its declared
// model.
func (a *Attribute) IsPolymorphic() bool { return len(a.polymorphic) > 0 || a.polymorphicAny }

// Model returns the nested model type of the attribute, if it has one.
func (a *Attribute) Model() (*Model, bool) {
	m, ok := a.typ.(*Model)
	return m, ok
}

// Empty returns the value an "empty" state assigns to the attribute.
func (a *Attribute) Empty() any {
	if a.IsCollection() {
		return []any{}
	}
	if m, ok := a.Model(); ok {
		return m.New()
	}
	if a.typ == String {
		return ""
	}
	if vt, ok := a.typ.(namespacedType); ok && vt.ValueType == String {
		return ""
	}
	return nil
}

func (a *Attribute) validate() error {
	if a.collection != nil && !a.collection.validate() {
		return &InvalidCollectionRangeError{Attribute: a.name, Range: *a.collection}
	}
	if a.initializeEmpty && a.collection == nil {
		return fmt.Errorf("%s: %w", a.name, ErrInitializeEmptyRequiresCollection)
	}
	return nil
}

func (a *Attribute) clone() *Attribute {
	c := *a
	if a.collection != nil {
		r := *a.collection
		c.collection = &r
	}
	c.polymorphic = slices.Clone(a.polymorphic)
	return &c
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case []any:
		out := make([]any, len(t))
		copy(out, t)
		return out
	case []string:
		return slices.Clone(t)
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, x := range t {
			out[k] = x
		}
		return out
	default:
		return v
	}
}
