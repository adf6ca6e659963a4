// Package keyvalue transforms model instances to and from generic key-value
// trees, the shape shared by JSON, YAML, TOML, CBOR and plain hashes.
package keyvalue

import (
	"fmt"
	"maps"
	"slices"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// RootKey marks the synthetic root element of a document.
const RootKey = "__root__"

// Object is the ordered map used for key-value documents.
type Object = orderedmap.OrderedMap[string, any]

// NewObject returns an empty ordered object.
func NewObject() *Object {
	return orderedmap.New[string, any]()
}

// Element is one node of the intermediate content tree. Children hold
// *Element values or raw values.
type Element struct {
	Key      string
	Value    any
	Children []any
}

// NewElement returns an element without children.
func NewElement(key string, value any) *Element {
	return &Element{Key: key, Value: value}
}

// Add appends children and returns e.
func (e *Element) Add(children ...any) *Element {
	e.Children = append(e.Children, children...)
	return e
}

// Set implements mapping.Document for custom export methods.
func (e *Element) Set(name string, value any) {
	e.Add(NewElement(name, value))
}

// Find returns the first child element called key.
func (e *Element) Find(key string) (*Element, bool) {
	for _, c := range e.Children {
		if el, ok := c.(*Element); ok && el.Key == key {
			return el, true
		}
	}
	return nil, false
}

// ToHash resolves the element into {key: content}. The root element
// resolves to its bare content, or an empty object when it has none.
func (e *Element) ToHash() any {
	content := e.Content()
	if e.Key == RootKey {
		if content == nil {
			return NewObject()
		}
		return content
	}
	obj := NewObject()
	obj.Set(e.Key, content)
	return obj
}

// Content resolves the children: all elements become an object, all raw
// values an array, and a mix an array in child order where each element
// keeps its key as a one-entry {key: content} object. Without children
// the element's own value is returned.
func (e *Element) Content() any {
	if len(e.Children) == 0 {
		return e.Value
	}
	elems, raws := 0, 0
	for _, c := range e.Children {
		if _, ok := c.(*Element); ok {
			elems++
		} else {
			raws++
		}
	}
	switch {
	case raws == 0:
		obj := NewObject()
		for _, c := range e.Children {
			el := c.(*Element)
			obj.Set(el.Key, el.Content())
		}
		return obj
	case elems == 0:
		return slices.Clone(e.Children)
	default:
		out := make([]any, 0, len(e.Children))
		for _, c := range e.Children {
			if el, ok := c.(*Element); ok {
				out = append(out, el.ToHash())
				continue
			}
			out = append(out, c)
		}
		return out
	}
}

// Plain converts ordered objects inside v into map[string]any.
func Plain(v any) any {
	switch t := v.(type) {
	case *Object:
		out := make(map[string]any, t.Len())
		for p := t.Oldest(); p != nil; p = p.Next() {
			out[p.Key] = Plain(p.Value)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, x := range t {
			out[k] = Plain(x)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, x := range t {
			out[fmt.Sprint(k)] = Plain(x)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, x := range t {
			out[i] = Plain(x)
		}
		return out
	default:
		return v
	}
}

// AsObject returns v as an ordered object. Plain maps are ordered by key.
func AsObject(v any) (*Object, bool) {
	switch t := v.(type) {
	case *Object:
		return t, true
	case map[string]any:
		obj := NewObject()
		for _, k := range slices.Sorted(maps.Keys(t)) {
			obj.Set(k, t[k])
		}
		return obj, true
	case map[any]any:
		keys := make([]string, 0, len(t))
		byKey := make(map[string]any, len(t))
		for k, x := range t {
			s := fmt.Sprint(k)
			keys = append(keys, s)
			byKey[s] = x
		}
		slices.Sort(keys)
		obj := NewObject()
		for _, k := range keys {
			obj.Set(k, byKey[k])
		}
		return obj, true
	default:
		return nil, false
	}
}
