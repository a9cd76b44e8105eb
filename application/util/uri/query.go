package uri

import (
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"
)

// BuildQuery encodes params as "key=value" pairs joined by '&'.
//
// Nested maps and slices are flattened with bracket notation
// ("filter[name]=x&ids[0]=1"). Map keys are sorted. Nil values and empty
// containers are skipped, booleans are written as "1" and "0".
func BuildQuery(params map[string]any, enc EncType) string {
	if enc == 0 {
		enc = EncRFC1738
	}

	pairs := make([]string, 0, len(params))
	for _, key := range sortedKeys(params) {
		pairs = appendPairs(pairs, key, params[key], enc)
	}

	return strings.Join(pairs, "&")
}

func appendPairs(pairs []string, key string, value any, enc EncType) []string {
	if value == nil {
		return pairs
	}

	switch v := value.(type) {
	case string:
		return append(pairs, Escape(key, enc)+"="+Escape(v, enc))
	case bool:
		if v {
			return append(pairs, Escape(key, enc)+"=1")
		}
		return append(pairs, Escape(key, enc)+"=0")
	case map[string]any:
		for _, k := range sortedKeys(v) {
			pairs = appendPairs(pairs, key+"["+k+"]", v[k], enc)
		}
		return pairs
	case []any:
		for i, elem := range v {
			pairs = appendPairs(pairs, key+"["+strconv.Itoa(i)+"]", elem, enc)
		}
		return pairs
	case fmt.Stringer:
		return append(pairs, Escape(key, enc)+"="+Escape(v.String(), enc))
	}

	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return pairs
		}
		return appendPairs(pairs, key, rv.Elem().Interface(), enc)
	case reflect.Slice, reflect.Array:
		for i := 0; i < rv.Len(); i++ {
			pairs = appendPairs(pairs, key+"["+strconv.Itoa(i)+"]", rv.Index(i).Interface(), enc)
		}
		return pairs
	case reflect.Map:
		keys := make([]string, 0, rv.Len())
		values := make(map[string]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			k := scalarString(iter.Key())
			keys = append(keys, k)
			values[k] = iter.Value().Interface()
		}
		sort.Strings(keys)
		for _, k := range keys {
			pairs = appendPairs(pairs, key+"["+k+"]", values[k], enc)
		}
		return pairs
	}

	return append(pairs, Escape(key, enc)+"="+Escape(scalarString(rv), enc))
}

func scalarString(rv reflect.Value) string {
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(rv.Int(), 10)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.FormatUint(rv.Uint(), 10)
	case reflect.Float32, reflect.Float64:
		return strconv.FormatFloat(rv.Float(), 'f', -1, 64)
	case reflect.Bool:
		if rv.Bool() {
			return "1"
		}
		return "0"
	case reflect.String:
		return rv.String()
	}
	return fmt.Sprint(rv.Interface())
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// AppendQuery adds query to rawURL, keeping any query and fragment already there.
func AppendQuery(rawURL, query string) string {
	if query == "" {
		return rawURL
	}

	base, frag, hasFrag := strings.Cut(rawURL, "#")

	switch {
	case !strings.Contains(base, "?"):
		base += "?" + query
	case strings.HasSuffix(base, "?"), strings.HasSuffix(base, "&"):
		base += query
	default:
		base += "&" + query
	}

	if hasFrag {
		return base + "#" + frag
	}
	return base
}
