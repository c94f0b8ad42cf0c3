// Package schema derives small JSON schemas for scenario actions from Go
// structs and checks decoded actions against them. Only the
// object/properties/required subset plus numeric minimum/maximum is
// supported.
package schema

import (
	"fmt"
	"reflect"
	"sort"
	"strings"
)

// ValidationError reports the first action field that violates the schema.
type ValidationError struct {
	Field   string `json:"field"`
	Value   any    `json:"value,omitempty"`
	Message string `json:"message"`
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("field %q: %s", e.Field, e.Message)
}

// FromStruct builds an object schema from a struct value or pointer.
// Property names follow the json tag and a description tag is copied over.
// Non-pointer fields without omitempty are required.
func FromStruct(v any) map[string]any {
	properties := map[string]any{}
	var required []any

	t := reflect.TypeOf(v)
	for t != nil && t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t != nil && t.Kind() == reflect.Struct {
		for i := 0; i < t.NumField(); i++ {
			f := t.Field(i)
			name, omitempty, ok := jsonName(f)
			if !ok {
				continue
			}
			prop := map[string]any{"type": typeOf(f.Type)}
			if d := f.Tag.Get("description"); d != "" {
				prop["description"] = d
			}
			properties[name] = prop
			if !omitempty && f.Type.Kind() != reflect.Ptr {
				required = append(required, name)
			}
		}
	}

	s := map[string]any{"type": "object", "properties": properties}
	if len(required) > 0 {
		s["required"] = required
	}
	return s
}

// WithRange sets minimum and maximum on a numeric property and returns s.
// Unknown properties are left alone.
func WithRange(s map[string]any, field string, lo, hi float64) map[string]any {
	props, _ := s["properties"].(map[string]any)
	if prop, ok := props[field].(map[string]any); ok {
		prop["minimum"] = lo
		prop["maximum"] = hi
	}
	return s
}

// Validate checks a decoded action against s. Extra fields are allowed.
// Fields are checked in required-list order, then in sorted name order, so
// the reported error is stable.
func Validate(action map[string]any, s map[string]any) error {
	for _, name := range stringList(s["required"]) {
		if _, ok := action[name]; !ok {
			return &ValidationError{Field: name, Message: "required field is missing"}
		}
	}

	props, _ := s["properties"].(map[string]any)
	for _, name := range sortedKeys(action) {
		prop, ok := props[name].(map[string]any)
		if !ok {
			continue
		}
		if err := checkValue(name, action[name], prop); err != nil {
			return err
		}
	}
	return nil
}

func checkValue(name string, value any, prop map[string]any) error {
	if value == nil {
		return nil
	}
	want, _ := prop["type"].(string)
	if !matchesType(value, want) {
		return &ValidationError{Field: name, Value: value, Message: fmt.Sprintf("expected %s, got %T", want, value)}
	}

	n, isNum := toFloat(value)
	if !isNum {
		return nil
	}
	if lo, ok := toFloat(prop["minimum"]); ok && n < lo {
		return &ValidationError{Field: name, Value: value, Message: fmt.Sprintf("must be >= %v", lo)}
	}
	if hi, ok := toFloat(prop["maximum"]); ok && n > hi {
		return &ValidationError{Field: name, Value: value, Message: fmt.Sprintf("must be <= %v", hi)}
	}
	return nil
}

func jsonName(f reflect.StructField) (name string, omitempty bool, ok bool) {
	if !f.IsExported() {
		return "", false, false
	}
	tag := f.Tag.Get("json")
	if tag == "-" {
		return "", false, false
	}
	name, opts, _ := strings.Cut(tag, ",")
	if name == "" {
		name = f.Name
	}
	for _, o := range strings.Split(opts, ",") {
		if strings.TrimSpace(o) == "omitempty" {
			omitempty = true
		}
	}
	return name, omitempty, true
}

func typeOf(t reflect.Type) string {
	switch t.Kind() {
	case reflect.Ptr:
		return typeOf(t.Elem())
	case reflect.Bool:
		return "boolean"
	case reflect.String:
		return "string"
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return "integer"
	case reflect.Float32, reflect.Float64:
		return "number"
	case reflect.Slice, reflect.Array:
		return "array"
	case reflect.Map, reflect.Struct:
		return "object"
	default:
		return "string"
	}
}

func matchesType(v any, want string) bool {
	switch want {
	case "string":
		_, ok := v.(string)
		return ok
	case "boolean":
		_, ok := v.(bool)
		return ok
	case "integer":
		n, ok := toFloat(v)
		return ok && n == float64(int64(n))
	case "number":
		_, ok := toFloat(v)
		return ok
	case "array":
		_, ok := v.([]any)
		return ok
	case "object":
		_, ok := v.(map[string]any)
		return ok
	default:
		return true
	}
}

// toFloat accepts Go numeric kinds as well as JSON-decoded float64.
func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	default:
		return 0, false
	}
}

func stringList(v any) []string {
	switch r := v.(type) {
	case []string:
		return r
	case []any:
		out := make([]string, 0, len(r))
		for _, e := range r {
			if s, ok := e.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
