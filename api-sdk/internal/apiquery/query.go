// Package apiquery encodes request parameter structs into URL query strings
// using `query:"name,omitempty"` struct tags.
package apiquery

import (
	"fmt"
	"net/url"
	"reflect"
	"strconv"
	"strings"
	"time"
)

type Queryer interface {
	URLQuery() url.Values
}

const queryStructTag = "query"

type parsedStructTag struct {
	name      string
	omitempty bool
}

func parseQueryStructTag(field reflect.StructField) (parsedStructTag, bool) {
	raw, ok := field.Tag.Lookup(queryStructTag)
	if !ok || raw == "-" {
		return parsedStructTag{}, false
	}

	parts := strings.Split(raw, ",")
	tag := parsedStructTag{name: parts[0]}
	for _, part := range parts[1:] {
		if part == "omitempty" {
			tag.omitempty = true
		}
	}
	if tag.name == "" {
		tag.name = field.Name
	}
	return tag, true
}

// Marshal encodes the exported, tagged fields of a struct (or pointer to
// struct). Slices are joined with commas.
func Marshal(value any) url.Values {
	kv := url.Values{}

	val := reflect.ValueOf(value)
	for val.Kind() == reflect.Pointer {
		if val.IsNil() {
			return kv
		}
		val = val.Elem()
	}
	if val.Kind() != reflect.Struct {
		return kv
	}

	typ := val.Type()
	for i := 0; i < typ.NumField(); i++ {
		field := typ.Field(i)
		if !field.IsExported() {
			continue
		}
		tag, ok := parseQueryStructTag(field)
		if !ok {
			continue
		}

		fv := val.Field(i)
		if tag.omitempty && fv.IsZero() {
			continue
		}

		if s, ok := encode(fv); ok {
			kv.Set(tag.name, s)
		}
	}

	return kv
}

func encode(v reflect.Value) (string, bool) {
	if t, ok := v.Interface().(time.Time); ok {
		return t.Format(time.RFC3339), true
	}

	switch v.Kind() {
	case reflect.Pointer:
		if v.IsNil() {
			return "", false
		}
		return encode(v.Elem())
	case reflect.String:
		return v.String(), true
	case reflect.Bool:
		return strconv.FormatBool(v.Bool()), true
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(v.Int(), 10), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.FormatUint(v.Uint(), 10), true
	case reflect.Float32, reflect.Float64:
		return strconv.FormatFloat(v.Float(), 'f', -1, 64), true
	case reflect.Slice, reflect.Array:
		parts := make([]string, 0, v.Len())
		for i := 0; i < v.Len(); i++ {
			if s, ok := encode(v.Index(i)); ok {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, ","), true
	default:
		return fmt.Sprint(v.Interface()), true
	}
}
