package model

import (
	"math"
	"reflect"
	"sort"
)

// Attrs holds node or mark attributes. Integral numbers are normalized to
// int so that values decoded from JSON compare equal to values set in code.
type Attrs map[string]any

// AttributeSpec declares one attribute. Attributes without a default must
// be supplied on creation when Required is set.
type AttributeSpec struct {
	Default  any
	Required bool
}

// Int returns the named attribute as an int, or 0.
func (a Attrs) Int(name string) int {
	switch v := a[name].(type) {
	case int:
		return v
	case float64:
		return int(v)
	default:
		return 0
	}
}

// Bool returns the named attribute as a bool, or false.
func (a Attrs) Bool(name string) bool {
	b, _ := a[name].(bool)
	return b
}

// String returns the named attribute as a string, or "".
func (a Attrs) String(name string) string {
	s, _ := a[name].(string)
	return s
}

// With returns a copy of a with name set to v.
func (a Attrs) With(name string, v any) Attrs {
	out := make(Attrs, len(a)+1)
	for k, x := range a {
		out[k] = x
	}
	out[name] = normalizeAttrValue(v)
	return out
}

// Clone returns a shallow copy of a.
func (a Attrs) Clone() Attrs {
	if a == nil {
		return nil
	}
	out := make(Attrs, len(a))
	for k, v := range a {
		out[k] = v
	}
	return out
}

func (a Attrs) keys() []string {
	keys := make([]string, 0, len(a))
	for k := range a {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Eq reports whether a and b hold equal values.
func (a Attrs) Eq(b Attrs) bool { return attrsEqual(a, b) }

func attrsEqual(a, b Attrs) bool {
	if len(a) != len(b) {
		return false
	}
	for k, av := range a {
		bv, ok := b[k]
		if !ok || !reflect.DeepEqual(av, bv) {
			return false
		}
	}
	return true
}

func normalizeAttrValue(v any) any {
	switch x := v.(type) {
	case int8:
		return int(x)
	case int16:
		return int(x)
	case int32:
		return int(x)
	case int64:
		return int(x)
	case uint:
		return int(x)
	case uint8:
		return int(x)
	case uint16:
		return int(x)
	case uint32:
		return int(x)
	case float32:
		return normalizeAttrValue(float64(x))
	case float64:
		if x == math.Trunc(x) && math.Abs(x) < 1<<53 {
			return int(x)
		}
		return x
	default:
		return v
	}
}

// computeAttrs fills defaults and rejects unknown or missing attributes.
func computeAttrs(typeName string, specs map[string]AttributeSpec, given Attrs) (Attrs, error) {
	for k := range given {
		if _, ok := specs[k]; !ok {
			return nil, violation(typeName, "unknown attribute %q", k)
		}
	}
	if len(specs) == 0 {
		return nil, nil
	}
	out := make(Attrs, len(specs))
	for name, spec := range specs {
		if v, ok := given[name]; ok {
			out[name] = normalizeAttrValue(v)
			continue
		}
		if spec.Required {
			return nil, violation(typeName, "missing required attribute %q", name)
		}
		out[name] = normalizeAttrValue(spec.Default)
	}
	return out, nil
}
