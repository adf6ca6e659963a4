package mapping

import (
	"cmp"
	"maps"
	"reflect"
	"slices"

	"github.com/spf13/cast"

	"shapemap/xmlns"
)

type uninitialized struct{}

func (uninitialized) String() string { return "<uninitialized>" }

// Uninitialized is the value of an attribute that was never set and has no
// default.
var Uninitialized any = uninitialized{}

// IsUninitialized reports whether v is the Uninitialized sentinel.
func IsUninitialized(v any) bool {
	_, ok := v.(uninitialized)
	return ok
}

// OrderKind is the kind of a captured XML child node.
type OrderKind int

const (
	OrderElement OrderKind = iota
	OrderText
)

// OrderItem is one child node of an ordered XML element.
type OrderItem struct {
	Kind      OrderKind
	Name      string
	Namespace string
	Text      string
}

// XMLState holds document details captured on read and reproduced on
// write.
type XMLState struct {
	SchemaLocation string
	Namespaces     map[string]xmlns.Preserved
	Order          []OrderItem
}

// Instance holds attribute values of one model object.
type Instance struct {
	model  *Model
	values map[string]any
	xml    *XMLState
}

func (i *Instance) Model() *Model { return i.model }

// Get returns the value of name: the assigned value, the computed value of
// a derived attribute, the default, or Uninitialized.
func (i *Instance) Get(name string) any {
	if v, ok := i.values[name]; ok {
		return i.sorted(name, v)
	}
	attr, ok := i.model.Attr(name)
	if !ok {
		return Uninitialized
	}
	if attr.derived != nil {
		return attr.derived(i)
	}
	return attr.Default()
}

// Set assigns value to a declared attribute.
func (i *Instance) Set(name string, value any) error {
	if _, ok := i.model.Attr(name); !ok {
		return &UnknownAttributeError{Attribute: name, Model: i.model.name}
	}
	i.assign(name, value)
	return nil
}

// MustSet is Set that panics on error, returning i for chaining.
func (i *Instance) MustSet(name string, value any) *Instance {
	if err := i.Set(name, value); err != nil {
		panic(err)
	}
	return i
}

func (i *Instance) assign(name string, value any) {
	if IsUninitialized(value) {
		delete(i.values, name)
		return
	}
	i.values[name] = value
}

// Unset forgets the assigned value of name.
func (i *Instance) Unset(name string) { delete(i.values, name) }

// IsSet reports whether name holds an assigned value.
func (i *Instance) IsSet(name string) bool {
	_, ok := i.values[name]
	return ok
}

// UsingDefault reports whether reading name yields its declared default.
func (i *Instance) UsingDefault(name string) bool {
	if i.IsSet(name) {
		return false
	}
	attr, ok := i.model.Attr(name)
	return ok && attr.derived == nil && attr.HasDefault()
}

// Values returns a copy of the assigned values.
func (i *Instance) Values() map[string]any { return maps.Clone(i.values) }

// XML returns the captured XML state, creating it on first use.
func (i *Instance) XML() *XMLState {
	if i.xml == nil {
		i.xml = &XMLState{}
	}
	return i.xml
}

// XMLState returns the captured XML state or nil.
func (i *Instance) XMLState() *XMLState { return i.xml }

// sorted applies the model sort to the items of a collection model.
func (i *Instance) sorted(name string, v any) any {
	s := i.model.sort
	items, ok := v.([]any)
	if s == nil || name != i.model.instances || !ok {
		return v
	}
	out := slices.Clone(items)
	slices.SortStableFunc(out, func(a, b any) int {
		c := compareValues(sortKey(a, s.By), sortKey(b, s.By))
		if s.Order == Descending {
			return -c
		}
		return c
	})
	return out
}

func sortKey(item any, by string) any {
	if in, ok := item.(*Instance); ok {
		return in.Get(by)
	}
	return item
}

func compareValues(a, b any) int {
	if af, err := cast.ToFloat64E(a); err == nil {
		if bf, err := cast.ToFloat64E(b); err == nil {
			return cmp.Compare(af, bf)
		}
	}
	return cmp.Compare(cast.ToString(a), cast.ToString(b))
}

// Equal reports whether both instances share a model and every attribute
// reads the same value, comparing nested instances recursively.
func (i *Instance) Equal(o *Instance) bool {
	if i == nil || o == nil {
		return i == o
	}
	if i.model != o.model {
		return false
	}
	for _, a := range i.model.attrs {
		if !valuesEqual(i.Get(a.name), o.Get(a.name)) {
			return false
		}
	}
	return true
}

func valuesEqual(a, b any) bool {
	switch x := a.(type) {
	case *Instance:
		y, ok := b.(*Instance)
		return ok && x.Equal(y)
	case []any:
		y, ok := b.([]any)
		if !ok || len(x) != len(y) {
			return false
		}
		for k := range x {
			if !valuesEqual(x[k], y[k]) {
				return false
			}
		}
		return true
	}
	return reflect.DeepEqual(a, b)
}
