package engine

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"time"
)

// ValueKind tags the variant held by a Value
type ValueKind int

const (
	ValueNull ValueKind = iota
	ValueString
	ValueInteger
	ValueBoolean
)

// Value is a single field value: null, string, integer or boolean.
// The zero Value is Null.
type Value struct {
	kind ValueKind
	s    string
	i    int64
	b    bool
}

// Null returns the null value
func Null() Value { return Value{} }

// String wraps a string
func String(s string) Value { return Value{kind: ValueString, s: s} }

// Integer wraps an integer
func Integer(i int64) Value { return Value{kind: ValueInteger, i: i} }

// Boolean wraps a boolean
func Boolean(b bool) Value { return Value{kind: ValueBoolean, b: b} }

// Kind reports the variant
func (v Value) Kind() ValueKind { return v.kind }

// IsNull reports whether v is the null value
func (v Value) IsNull() bool { return v.kind == ValueNull }

// Str returns the string payload and whether v is a String
func (v Value) Str() (string, bool) { return v.s, v.kind == ValueString }

// Int returns the integer payload and whether v is an Integer
func (v Value) Int() (int64, bool) { return v.i, v.kind == ValueInteger }

// Bool returns the boolean payload and whether v is a Boolean
func (v Value) Bool() (bool, bool) { return v.b, v.kind == ValueBoolean }

// IsEmpty reports null, the empty string, integer zero and false. The
// string "0" is a present value.
func (v Value) IsEmpty() bool {
	switch v.kind {
	case ValueNull:
		return true
	case ValueString:
		return v.s == ""
	case ValueInteger:
		return v.i == 0
	case ValueBoolean:
		return !v.b
	default:
		return false
	}
}

// Text renders the value the way it would appear in a message or query
func (v Value) Text() string {
	switch v.kind {
	case ValueString:
		return v.s
	case ValueInteger:
		return strconv.FormatInt(v.i, 10)
	case ValueBoolean:
		if v.b {
			return "1"
		}
		return "0"
	default:
		return ""
	}
}

// Interface returns the value as a driver argument
func (v Value) Interface() any {
	switch v.kind {
	case ValueString:
		return v.s
	case ValueInteger:
		return v.i
	case ValueBoolean:
		return v.b
	default:
		return nil
	}
}

// Equal compares kind and payload
func (v Value) Equal(other Value) bool {
	return v == other
}

func (v Value) String() string {
	switch v.kind {
	case ValueNull:
		return "null"
	case ValueString:
		return strconv.Quote(v.s)
	default:
		return v.Text()
	}
}

// MarshalJSON encodes the value as its natural JSON form
func (v Value) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.Interface())
}

// UnmarshalJSON decodes any JSON scalar into a Value
func (v *Value) UnmarshalJSON(data []byte) error {
	var raw any
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		return err
	}
	val, err := ValueOf(raw)
	if err != nil {
		return err
	}
	*v = val
	return nil
}

// ValueOf converts a loosely typed Go value, as produced by encoding/json
// or a database driver, into a Value.
func ValueOf(raw any) (Value, error) {
	switch x := raw.(type) {
	case nil:
		return Null(), nil
	case Value:
		return x, nil
	case string:
		return String(x), nil
	case []byte:
		return String(string(x)), nil
	case bool:
		return Boolean(x), nil
	case int:
		return Integer(int64(x)), nil
	case int8:
		return Integer(int64(x)), nil
	case int16:
		return Integer(int64(x)), nil
	case int32:
		return Integer(int64(x)), nil
	case int64:
		return Integer(x), nil
	case uint:
		return Integer(int64(x)), nil
	case uint8:
		return Integer(int64(x)), nil
	case uint16:
		return Integer(int64(x)), nil
	case uint32:
		return Integer(int64(x)), nil
	case uint64:
		if x > math.MaxInt64 {
			return String(strconv.FormatUint(x, 10)), nil
		}
		return Integer(int64(x)), nil
	case float32:
		return floatValue(float64(x)), nil
	case float64:
		return floatValue(x), nil
	case json.Number:
		if i, err := x.Int64(); err == nil {
			return Integer(i), nil
		}
		return String(x.String()), nil
	case time.Time:
		return String(x.Format(TimestampLayout)), nil
	case fmt.Stringer:
		return String(x.String()), nil
	default:
		return Null(), fmt.Errorf("unsupported value type %T", raw)
	}
}

func floatValue(f float64) Value {
	if f == math.Trunc(f) && math.Abs(f) < 1<<53 {
		return Integer(int64(f))
	}
	return String(strconv.FormatFloat(f, 'f', -1, 64))
}

// Record is one row's proposed data keyed by column name
type Record map[string]Value

// RecordFromMap converts decoded JSON or other loose input into a Record
func RecordFromMap(in map[string]any) (Record, error) {
	rec := make(Record, len(in))
	for key, raw := range in {
		v, err := ValueOf(raw)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", key, err)
		}
		rec[key] = v
	}
	return rec, nil
}

// Get returns the field's value, Null when absent
func (r Record) Get(field string) Value {
	return r[field]
}

// Has reports whether the field is present, even if null
func (r Record) Has(field string) bool {
	_, ok := r[field]
	return ok
}

// Clone returns a shallow copy
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Fields returns the record's keys sorted
func (r Record) Fields() []string {
	keys := make([]string, 0, len(r))
	for k := range r {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Map converts the record back into driver arguments
func (r Record) Map() map[string]any {
	out := make(map[string]any, len(r))
	for k, v := range r {
		out[k] = v.Interface()
	}
	return out
}
