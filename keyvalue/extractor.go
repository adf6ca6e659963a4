package keyvalue

import (
	"fmt"

	"github.com/ohler55/ojg/jp"

	"shapemap/mapping"
)

// extraction is the raw value picked for a rule.
type extraction struct {
	value any
	found bool
}

// extract picks the raw value of r from doc: the first rule name present,
// then the rule's JSONPath, then Uninitialized. A missing value of an
// attribute with a default stays Uninitialized so the instance keeps
// reading its default.
func extract(doc *Object, r *mapping.KeyValueRule) (extraction, error) {
	for _, name := range r.Names() {
		if v, ok := doc.Get(name); ok {
			return extraction{value: v, found: true}, nil
		}
	}
	if expr := r.Path(); expr != "" {
		x, err := jp.ParseString(expr)
		if err != nil {
			return extraction{}, fmt.Errorf("path %q: %w", expr, err)
		}
		if got := x.Get(Plain(doc)); len(got) > 0 {
			return extraction{value: got[0], found: true}, nil
		}
	}
	return extraction{value: mapping.Uninitialized}, nil
}

// lookup reads key from a document value that may not be an object.
func lookup(v any, key string) (any, bool) {
	obj, ok := AsObject(v)
	if !ok {
		return nil, false
	}
	return obj.Get(key)
}

// dig follows path through nested objects.
func dig(v any, path []string) (any, bool) {
	for _, p := range path {
		next, ok := lookup(v, p)
		if !ok {
			return nil, false
		}
		v = next
	}
	return v, true
}

// setPath writes v at path inside obj, creating intermediate objects.
func setPath(obj *Object, path []string, v any) {
	for _, p := range path[:len(path)-1] {
		next, ok := obj.Get(p)
		child, isObj := next.(*Object)
		if !ok || !isObj {
			child = NewObject()
			obj.Set(p, child)
		}
		obj = child
	}
	obj.Set(path[len(path)-1], v)
}
