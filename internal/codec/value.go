// Package codec turns MongoDB documents into the JSON export format.
//
// Documents keep their stored field order. ObjectIDs become their hex string,
// datetimes become ISO-8601 text, and any value without a JSON rendering is
// rejected with an *UnsupportedTypeError instead of being dropped.
package codec

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Object is a JSON object with ordered members.
type Object []Member

type Member struct {
	Key   string
	Value interface{}
}

// UnsupportedTypeError reports a value that has no JSON rendering.
type UnsupportedTypeError struct {
	Path string
	Type string
}

func (e *UnsupportedTypeError) Error() string {
	return fmt.Sprintf("codec: unsupported value type %s at %q", e.Type, e.Path)
}

// EncodeDocument converts a document into an Object. The result only holds
// nil, bool, string, json.Number, Object and []interface{} values.
func EncodeDocument(doc bson.D) (Object, error) {
	return encodeD(doc, "")
}

// EncodeValue converts a single BSON value. path is used in error messages.
func EncodeValue(v interface{}, path string) (interface{}, error) {
	switch val := v.(type) {
	case nil, primitive.Null:
		return nil, nil
	case bool:
		return val, nil
	case string:
		return encodeString(val, path)
	case primitive.Symbol:
		return encodeString(string(val), path)
	case primitive.JavaScript:
		return encodeString(string(val), path)
	case primitive.CodeWithScope:
		return encodeString(string(val.Code), path)
	case primitive.Undefined:
		return nil, nil
	case int:
		return json.Number(strconv.FormatInt(int64(val), 10)), nil
	case int8:
		return json.Number(strconv.FormatInt(int64(val), 10)), nil
	case int16:
		return json.Number(strconv.FormatInt(int64(val), 10)), nil
	case int32:
		return json.Number(strconv.FormatInt(int64(val), 10)), nil
	case int64:
		return json.Number(strconv.FormatInt(val, 10)), nil
	case uint8:
		return json.Number(strconv.FormatUint(uint64(val), 10)), nil
	case uint16:
		return json.Number(strconv.FormatUint(uint64(val), 10)), nil
	case uint32:
		return json.Number(strconv.FormatUint(uint64(val), 10)), nil
	case uint64:
		return json.Number(strconv.FormatUint(val, 10)), nil
	case float32:
		return encodeFloat(float64(val), 32, path)
	case float64:
		return encodeFloat(val, 64, path)
	case json.Number:
		return val, nil
	case primitive.ObjectID:
		return val.Hex(), nil
	case primitive.DateTime:
		return FormatTime(val.Time().UTC()), nil
	case time.Time:
		return FormatTime(val), nil
	case bson.D:
		return encodeD(val, path)
	case bson.M:
		return encodeMap(val, path)
	case map[string]interface{}:
		return encodeMap(val, path)
	case bson.A:
		return encodeArray(val, path)
	case []interface{}:
		return encodeArray(val, path)
	case []bson.D:
		out := make([]interface{}, len(val))
		for i, d := range val {
			o, err := encodeD(d, indexPath(path, i))
			if err != nil {
				return nil, err
			}
			out[i] = o
		}
		return out, nil
	case []string:
		out := make([]interface{}, len(val))
		for i, s := range val {
			v, err := encodeString(s, indexPath(path, i))
			if err != nil {
				return nil, err
			}
			out[i] = v
		}
		return out, nil
	default:
		return nil, &UnsupportedTypeError{Path: path, Type: fmt.Sprintf("%T", v)}
	}
}

// encodeString rejects bytes that are not UTF-8; the JSON encoder would
// otherwise replace them with U+FFFD.
func encodeString(s, path string) (interface{}, error) {
	if !utf8.ValidString(s) {
		return nil, &UnsupportedTypeError{Path: path, Type: "invalid UTF-8 string"}
	}
	return s, nil
}

func checkKey(key, path string) error {
	if !utf8.ValidString(key) {
		return &UnsupportedTypeError{Path: path, Type: "invalid UTF-8 key"}
	}
	return nil
}

func encodeD(doc bson.D, path string) (Object, error) {
	out := make(Object, 0, len(doc))
	for _, e := range doc {
		if err := checkKey(e.Key, path); err != nil {
			return nil, err
		}
		v, err := EncodeValue(e.Value, fieldPath(path, e.Key))
		if err != nil {
			return nil, err
		}
		out = append(out, Member{Key: e.Key, Value: v})
	}
	return out, nil
}

// encodeMap sorts keys; Go maps carry no field order.
func encodeMap(m map[string]interface{}, path string) (Object, error) {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make(Object, 0, len(m))
	for _, k := range keys {
		if err := checkKey(k, path); err != nil {
			return nil, err
		}
		v, err := EncodeValue(m[k], fieldPath(path, k))
		if err != nil {
			return nil, err
		}
		out = append(out, Member{Key: k, Value: v})
	}
	return out, nil
}

func encodeArray(a []interface{}, path string) ([]interface{}, error) {
	out := make([]interface{}, len(a))
	for i, item := range a {
		v, err := EncodeValue(item, indexPath(path, i))
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func encodeFloat(f float64, bits int, path string) (interface{}, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, &UnsupportedTypeError{Path: path, Type: strconv.FormatFloat(f, 'g', -1, 64)}
	}
	return json.Number(FormatFloat(f, bits)), nil
}

// FormatFloat renders the shortest representation that round-trips, always
// marking the value as floating point: 42 becomes "42.0", 1e16 stays
// exponential, 0.0001 stays positional.
func FormatFloat(f float64, bits int) string {
	abs := math.Abs(f)
	if abs != 0 && (abs < 1e-4 || abs >= 1e16) {
		return strconv.FormatFloat(f, 'e', -1, bits)
	}
	s := strconv.FormatFloat(f, 'f', -1, bits)
	if !strings.ContainsAny(s, ".") {
		s += ".0"
	}
	return s
}

// FormatTime renders t as ISO-8601 with microsecond precision. The fraction
// is omitted when zero; the offset is omitted for UTC.
func FormatTime(t time.Time) string {
	var b strings.Builder
	b.WriteString(t.Format("2006-01-02T15:04:05"))
	if us := t.Nanosecond() / 1000; us != 0 {
		fmt.Fprintf(&b, ".%06d", us)
	}
	if t.Location() != time.UTC {
		b.WriteString(t.Format("-07:00"))
	}
	return b.String()
}

func fieldPath(parent, key string) string {
	if parent == "" {
		return key
	}
	return parent + "." + key
}

func indexPath(parent string, i int) string {
	return parent + "[" + strconv.Itoa(i) + "]"
}
