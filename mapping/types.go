package mapping

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cast"

	"shapemap/xmlns"
)

// Type is the declared type of an attribute: a ValueType caster or a nested
// *Model.
type Type interface {
	TypeName() string
}

// ValueType casts raw document values into attribute values and back.
type ValueType interface {
	Type
	Cast(raw any, format Format) (any, error)
	Serialize(value any, format Format) (any, error)
}

// Namespaced is implemented by types that carry their own XML namespace.
type Namespaced interface {
	XMLNamespace() *xmlns.Namespace
}

// Built-in value types.
var (
	String  ValueType = stringType{}
	Integer ValueType = integerType{}
	Float   ValueType = floatType{}
	Boolean ValueType = booleanType{}
	Time    ValueType = timeType{}
	Any     ValueType = anyType{}
)

type stringType struct{}

func (stringType) TypeName() string { return "string" }

func (stringType) Cast(raw any, _ Format) (any, error) {
	if raw == nil {
		return nil, nil
	}
	return cast.ToStringE(raw)
}

func (stringType) Serialize(v any, _ Format) (any, error) {
	if v == nil {
		return nil, nil
	}
	return cast.ToStringE(v)
}

type integerType struct{}

func (integerType) TypeName() string { return "integer" }

func (integerType) Cast(raw any, _ Format) (any, error) {
	if raw == nil {
		return nil, nil
	}
	return cast.ToInt64E(raw)
}

func (integerType) Serialize(v any, f Format) (any, error) {
	if v == nil {
		return nil, nil
	}
	n, err := cast.ToInt64E(v)
	if err != nil {
		return nil, err
	}
	if f == FormatXML {
		return strconv.FormatInt(n, 10), nil
	}
	return n, nil
}

type floatType struct{}

func (floatType) TypeName() string { return "float" }

func (floatType) Cast(raw any, _ Format) (any, error) {
	if raw == nil {
		return nil, nil
	}
	return cast.ToFloat64E(raw)
}

func (floatType) Serialize(v any, f Format) (any, error) {
	if v == nil {
		return nil, nil
	}
	n, err := cast.ToFloat64E(v)
	if err != nil {
		return nil, err
	}
	if f == FormatXML {
		return strconv.FormatFloat(n, 'g', -1, 64), nil
	}
	return n, nil
}

type booleanType struct{}

func (booleanType) TypeName() string { return "boolean" }

func (booleanType) Cast(raw any, _ Format) (any, error) {
	if raw == nil {
		return nil, nil
	}
	return cast.ToBoolE(raw)
}

func (booleanType) Serialize(v any, f Format) (any, error) {
	if v == nil {
		return nil, nil
	}
	b, err := cast.ToBoolE(v)
	if err != nil {
		return nil, err
	}
	if f == FormatXML {
		return strconv.FormatBool(b), nil
	}
	return b, nil
}

type timeType struct{}

func (timeType) TypeName() string { return "time" }

func (timeType) Cast(raw any, _ Format) (any, error) {
	if raw == nil {
		return nil, nil
	}
	return cast.ToTimeE(raw)
}

// Serialize renders RFC 3339 everywhere except the binary formats and hash,
// which keep the time.Time value.
func (timeType) Serialize(v any, f Format) (any, error) {
	if v == nil {
		return nil, nil
	}
	t, err := cast.ToTimeE(v)
	if err != nil {
		return nil, err
	}
	if f == FormatCBOR || f == FormatMsgPack || f == FormatHash {
		return t, nil
	}
	return t.Format(time.RFC3339Nano), nil
}

// anyType passes values through untouched. Raw "map all" rules use it.
type anyType struct{}

func (anyType) TypeName() string { return "any" }

func (anyType) Cast(raw any, _ Format) (any, error) { return raw, nil }

func (anyType) Serialize(v any, _ Format) (any, error) { return v, nil }

type namespacedType struct {
	ValueType
	ns *xmlns.Namespace
}

func (t namespacedType) XMLNamespace() *xmlns.Namespace { return t.ns }

// WithNamespace wraps t so that values of the type are qualified with ns in
// XML documents.
func WithNamespace(t ValueType, ns *xmlns.Namespace) ValueType {
	return namespacedType{ValueType: t, ns: ns}
}

// NamespaceOf returns the XML namespace a type carries, if any. Models
// report the namespace of their XML mapping.
func NamespaceOf(t Type) *xmlns.Namespace {
	switch v := t.(type) {
	case Namespaced:
		return v.XMLNamespace()
	case *Model:
		if v.xml != nil {
			return v.xml.namespace
		}
	}
	return nil
}

// CastValue casts raw with t when t is a ValueType. Nested models and nil
// pass through.
func CastValue(t Type, raw any, format Format) (any, error) {
	vt, ok := t.(ValueType)
	if !ok || raw == nil {
		return raw, nil
	}
	v, err := vt.Cast(raw, format)
	if err != nil {
		return nil, fmt.Errorf("cast %s: %w", vt.TypeName(), err)
	}
	return v, nil
}

// SerializeValue is the export dual of CastValue.
func SerializeValue(t Type, v any, format Format) (any, error) {
	vt, ok := t.(ValueType)
	if !ok || v == nil {
		return v, nil
	}
	out, err := vt.Serialize(v, format)
	if err != nil {
		return nil, fmt.Errorf("serialize %s: %w", vt.TypeName(), err)
	}
	return out, nil
}
