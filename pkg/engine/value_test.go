package engine

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestValueOf(t *testing.T) {
	id := uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")

	tests := []struct {
		name string
		in   any
		want Value
	}{
		{"nil", nil, Null()},
		{"string", "bob", String("bob")},
		{"bytes", []byte("raw"), String("raw")},
		{"bool", true, Boolean(true)},
		{"int", 7, Integer(7)},
		{"int32", int32(-3), Integer(-3)},
		{"uint8", uint8(255), Integer(255)},
		{"huge uint64", uint64(math.MaxUint64), String("18446744073709551615")},
		{"whole float", 42.0, Integer(42)},
		{"fractional float", 1.5, String("1.5")},
		{"json integer", json.Number("12"), Integer(12)},
		{"json decimal", json.Number("12.50"), String("12.50")},
		{"time", time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC), String("2024-01-02 03:04:05")},
		{"stringer", id, String(id.String())},
		{"value", Integer(9), Integer(9)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ValueOf(tt.in)
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestValueOf_Unsupported(t *testing.T) {
	_, err := ValueOf(map[string]any{"nested": true})
	require.Error(t, err)

	_, err = RecordFromMap(map[string]any{"tags": []any{"a"}})
	require.Error(t, err)
	require.Contains(t, err.Error(), "field tags")
}

func TestValue_IsEmpty(t *testing.T) {
	require.True(t, Null().IsEmpty())
	require.True(t, String("").IsEmpty())
	require.True(t, Integer(0).IsEmpty())
	require.True(t, Boolean(false).IsEmpty())

	require.False(t, String("0").IsEmpty())
	require.False(t, String(" ").IsEmpty())
	require.False(t, Integer(-1).IsEmpty())
	require.False(t, Boolean(true).IsEmpty())
}

func TestValue_Text(t *testing.T) {
	require.Equal(t, "", Null().Text())
	require.Equal(t, "abc", String("abc").Text())
	require.Equal(t, "-12", Integer(-12).Text())
	require.Equal(t, "1", Boolean(true).Text())
	require.Equal(t, "0", Boolean(false).Text())

	require.Equal(t, "null", Null().String())
	require.Equal(t, `"abc"`, String("abc").String())
}

func TestValue_JSON(t *testing.T) {
	rec := Record{
		"name":  String("Bob"),
		"age":   Integer(30),
		"admin": Boolean(false),
		"bio":   Null(),
	}

	data, err := json.Marshal(rec)
	require.NoError(t, err)
	require.JSONEq(t, `{"name":"Bob","age":30,"admin":false,"bio":null}`, string(data))

	var back Record
	require.NoError(t, json.Unmarshal(data, &back))
	require.Equal(t, rec, back)
}

func TestValue_UnmarshalLargeInteger(t *testing.T) {
	var v Value
	require.NoError(t, json.Unmarshal([]byte("9007199254740993"), &v))
	require.Equal(t, Integer(9007199254740993), v)
}

func TestRecord_CloneIsIndependent(t *testing.T) {
	rec := Record{"a": Integer(1)}
	clone := rec.Clone()
	clone["a"] = Integer(2)
	clone["b"] = Integer(3)

	require.Equal(t, Record{"a": Integer(1)}, rec)
	require.Equal(t, []string{"a", "b"}, clone.Fields())
	require.True(t, clone.Has("b"))
	require.True(t, rec.Get("missing").IsNull())
	require.Equal(t, map[string]any{"a": int64(2), "b": int64(3)}, clone.Map())
}
