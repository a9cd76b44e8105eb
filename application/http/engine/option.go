package engine

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

type Option int

const (
	// OptHeader includes every received head in the output.
	OptHeader Option = iota + 1
	// OptReturnTransfer returns the output instead of writing it elsewhere.
	OptReturnTransfer
	OptFollowLocation
	OptMaxRedirs
	OptAutoReferer
	OptUserAgent
	OptReferer
	// OptHTTPHeader is a list of "Name: Value" lines.
	OptHTTPHeader
	OptPostFields
	OptHTTPGet
	OptNoBody
	OptPost
	OptCustomRequest
	// OptConnectTimeout and OptTimeout are in milliseconds.
	OptConnectTimeout
	OptTimeout
)

var optionNames = map[Option]string{
	OptHeader:         "HEADER",
	OptReturnTransfer: "RETURNTRANSFER",
	OptFollowLocation: "FOLLOWLOCATION",
	OptMaxRedirs:      "MAXREDIRS",
	OptAutoReferer:    "AUTOREFERER",
	OptUserAgent:      "USERAGENT",
	OptReferer:        "REFERER",
	OptHTTPHeader:     "HTTPHEADER",
	OptPostFields:     "POSTFIELDS",
	OptHTTPGet:        "HTTPGET",
	OptNoBody:         "NOBODY",
	OptPost:           "POST",
	OptCustomRequest:  "CUSTOMREQUEST",
	OptConnectTimeout: "CONNECTTIMEOUT_MS",
	OptTimeout:        "TIMEOUT_MS",
}

func (o Option) String() string {
	if name, ok := optionNames[o]; ok {
		return name
	}
	return "OPTION(" + strconv.Itoa(int(o)) + ")"
}

// ParseOption looks an option up by its name, case-insensitively.
func ParseOption(name string) (Option, bool) {
	name = strings.TrimPrefix(strings.ToUpper(name), "CURLOPT_")
	for o, n := range optionNames {
		if n == name {
			return o, true
		}
	}
	return 0, false
}

type Kind uint8

const (
	KindNull Kind = iota
	KindString
	KindBool
	KindInt
	KindStrings
)

// Value is an option value. The zero Value is null.
type Value struct {
	kind Kind
	s    string
	b    bool
	i    int64
	list []string
}

var Null = Value{}

func String(s string) Value { return Value{kind: KindString, s: s} }

func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

func Int(i int64) Value { return Value{kind: KindInt, i: i} }

func Strings(list ...string) Value {
	clone := make([]string, len(list))
	copy(clone, list)
	return Value{kind: KindStrings, list: clone}
}

// ValueOf converts a decoded configuration value. Integers of any size,
// strings, booleans and lists of strings are accepted; nil is [Null].
func ValueOf(v any) (Value, error) {
	switch v := v.(type) {
	case nil:
		return Null, nil
	case Value:
		return v, nil
	case string:
		return String(v), nil
	case bool:
		return Bool(v), nil
	case int:
		return Int(int64(v)), nil
	case int64:
		return Int(v), nil
	case uint64:
		return Int(int64(v)), nil
	case float64:
		if v != float64(int64(v)) {
			return Null, errors.Errorf("option value %v is not an integer", v)
		}
		return Int(int64(v)), nil
	case []string:
		return Strings(v...), nil
	case []any:
		list := make([]string, 0, len(v))
		for _, elem := range v {
			s, ok := elem.(string)
			if !ok {
				return Null, errors.Errorf("option list element %v (%T) is not a string", elem, elem)
			}
			list = append(list, s)
		}
		return Strings(list...), nil
	}
	return Null, errors.Errorf("unsupported option value type %T", v)
}

func (v Value) Kind() Kind { return v.kind }

// IsEmpty reports whether v is null or an empty string.
func (v Value) IsEmpty() bool {
	return v.kind == KindNull || (v.kind == KindString && v.s == "")
}

// Str returns the string form of v. Booleans are "1" or "", lists are
// joined by CRLF.
func (v Value) Str() string {
	switch v.kind {
	case KindString:
		return v.s
	case KindBool:
		if v.b {
			return "1"
		}
		return ""
	case KindInt:
		return strconv.FormatInt(v.i, 10)
	case KindStrings:
		return strings.Join(v.list, "\r\n")
	}
	return ""
}

// Truthy follows the engine's loose reading of flags: non-zero integers and
// non-empty strings are true.
func (v Value) Truthy() bool {
	switch v.kind {
	case KindBool:
		return v.b
	case KindInt:
		return v.i != 0
	case KindString:
		return v.s != "" && v.s != "0"
	case KindStrings:
		return len(v.list) > 0
	}
	return false
}

func (v Value) Int64() int64 {
	switch v.kind {
	case KindInt:
		return v.i
	case KindBool:
		if v.b {
			return 1
		}
	case KindString:
		n, _ := strconv.ParseInt(strings.TrimSpace(v.s), 10, 64)
		return n
	}
	return 0
}

func (v Value) List() []string {
	switch v.kind {
	case KindStrings:
		clone := make([]string, len(v.list))
		copy(clone, v.list)
		return clone
	case KindString:
		return []string{v.s}
	}
	return nil
}

func (v Value) String() string {
	switch v.kind {
	case KindNull:
		return "<null>"
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindStrings:
		return "[" + strings.Join(v.list, ", ") + "]"
	}
	return v.Str()
}

type Options map[Option]Value

func (o Options) Clone() Options {
	clone := make(Options, len(o))
	for k, v := range o {
		clone[k] = v
	}
	return clone
}

func (o Options) Has(opt Option) bool {
	_, ok := o[opt]
	return ok
}

// Resolve merges overrides onto defaults and drops every entry left null or
// empty. Neither input is modified.
func Resolve(defaults, overrides Options) Options {
	resolved := make(Options, len(defaults)+len(overrides))
	for k, v := range defaults {
		resolved[k] = v
	}
	for k, v := range overrides {
		resolved[k] = v
	}

	for k, v := range resolved {
		if v.IsEmpty() {
			delete(resolved, k)
		}
	}

	return resolved
}
