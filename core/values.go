package core

import (
	"encoding/json"
	"math"
	"reflect"
	"strconv"
)

// Observation is the agent-visible projection of scenario state.
type Observation map[string]any

// Action is an agent decision. It must be JSON-serializable.
type Action map[string]any

// Hints is scenario metadata handed to agents (action schema, bounds, ...).
type Hints map[string]any

// Scores maps agent ids to their score.
type Scores map[string]float64

// Int returns the integer stored under key. Numbers decoded from JSON
// (float64, json.Number) are accepted when they carry no fractional part.
func (a Action) Int(key string) (int, bool) {
	switch v := a[key].(type) {
	case int:
		return v, true
	case int32:
		return int(v), true
	case int64:
		return int(v), true
	case float64:
		if v != math.Trunc(v) || math.IsInf(v, 0) {
			return 0, false
		}
		return int(v), true
	case json.Number:
		n, err := strconv.Atoi(v.String())
		if err != nil {
			return 0, false
		}
		return n, true
	default:
		return 0, false
	}
}

// String returns the string stored under key.
func (a Action) String(key string) (string, bool) {
	s, ok := a[key].(string)
	return s, ok
}

// Clone returns a shallow copy of the action.
func (a Action) Clone() Action {
	if a == nil {
		return nil
	}
	out := make(Action, len(a))
	for k, v := range a {
		out[k] = v
	}
	return out
}

// Clone returns a copy of the scores.
func (s Scores) Clone() Scores {
	out := make(Scores, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// Winner returns the agent with the strictly highest score, or "" when the
// top score is shared. order fixes the iteration order.
func Winner(scores Scores, order []string) string {
	winner := ""
	best := math.Inf(-1)
	tied := false
	for _, id := range order {
		v, ok := scores[id]
		if !ok {
			continue
		}
		switch {
		case v > best:
			best, winner, tied = v, id, false
		case v == best:
			tied = true
		}
	}
	if tied {
		return ""
	}
	return winner
}

// DeepCopy copies v so the result shares no mutable structure with it.
// Maps, slices, arrays and pointers are copied at every depth whatever their
// element types, so typed values such as [][]int or map[string]int are
// isolated as well. Exported struct fields are copied recursively.
// Unexported fields are copied shallowly. v must not contain cycles.
func DeepCopy(v any) any {
	if v == nil {
		return nil
	}
	return deepCopy(reflect.ValueOf(v)).Interface()
}

func deepCopy(v reflect.Value) reflect.Value {
	switch v.Kind() {
	case reflect.Map:
		if v.IsNil() {
			return v
		}
		out := reflect.MakeMapWithSize(v.Type(), v.Len())
		iter := v.MapRange()
		for iter.Next() {
			out.SetMapIndex(iter.Key(), deepCopy(iter.Value()))
		}
		return out
	case reflect.Slice:
		if v.IsNil() {
			return v
		}
		out := reflect.MakeSlice(v.Type(), v.Len(), v.Len())
		for i := 0; i < v.Len(); i++ {
			out.Index(i).Set(deepCopy(v.Index(i)))
		}
		return out
	case reflect.Array:
		out := reflect.New(v.Type()).Elem()
		for i := 0; i < v.Len(); i++ {
			out.Index(i).Set(deepCopy(v.Index(i)))
		}
		return out
	case reflect.Pointer:
		if v.IsNil() {
			return v
		}
		out := reflect.New(v.Type().Elem())
		out.Elem().Set(deepCopy(v.Elem()))
		return out
	case reflect.Interface:
		if v.IsNil() {
			return v
		}
		out := reflect.New(v.Type()).Elem()
		out.Set(deepCopy(v.Elem()))
		return out
	case reflect.Struct:
		out := reflect.New(v.Type()).Elem()
		out.Set(v)
		for i := 0; i < v.NumField(); i++ {
			if f := out.Field(i); f.CanSet() {
				f.Set(deepCopy(v.Field(i)))
			}
		}
		return out
	default:
		return v
	}
}
