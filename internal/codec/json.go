package codec

import (
	"bytes"
	"encoding/json"
	"fmt"
)

const indent = "  "

// MarshalIndent renders an encoded value as JSON. Every line after the first
// starts with prefix. Non-ASCII and HTML characters are written unescaped.
func MarshalIndent(v interface{}, prefix string) ([]byte, error) {
	var compact bytes.Buffer
	if err := appendJSON(&compact, v); err != nil {
		return nil, err
	}
	var out bytes.Buffer
	if err := json.Indent(&out, compact.Bytes(), prefix, indent); err != nil {
		return nil, fmt.Errorf("codec: indent: %w", err)
	}
	return out.Bytes(), nil
}

func appendJSON(buf *bytes.Buffer, v interface{}) error {
	switch val := v.(type) {
	case nil:
		buf.WriteString("null")
	case bool:
		if val {
			buf.WriteString("true")
		} else {
			buf.WriteString("false")
		}
	case string:
		return appendString(buf, val)
	case json.Number:
		buf.WriteString(val.String())
	case Object:
		buf.WriteByte('{')
		for i, m := range val {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := appendString(buf, m.Key); err != nil {
				return err
			}
			buf.WriteByte(':')
			if err := appendJSON(buf, m.Value); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
	case []interface{}:
		buf.WriteByte('[')
		for i, item := range val {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := appendJSON(buf, item); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	default:
		return &UnsupportedTypeError{Type: fmt.Sprintf("%T", v)}
	}
	return nil
}

func appendString(buf *bytes.Buffer, s string) error {
	var tmp bytes.Buffer
	enc := json.NewEncoder(&tmp)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return err
	}
	// Encode terminates every value with a newline
	b := tmp.Bytes()[:tmp.Len()-1]
	unescapeLineSeparators(buf, b)
	return nil
}

// unescapeLineSeparators copies an encoded JSON string into buf, writing
// U+2028 and U+2029 raw. encoding/json always escapes both.
func unescapeLineSeparators(buf *bytes.Buffer, b []byte) {
	for i := 0; i < len(b); i++ {
		if b[i] != '\\' || i+1 >= len(b) {
			buf.WriteByte(b[i])
			continue
		}
		if b[i+1] == 'u' && i+6 <= len(b) {
			switch string(b[i+2 : i+6]) {
			case "2028":
				buf.WriteRune('\u2028')
				i += 5
				continue
			case "2029":
				buf.WriteRune('\u2029')
				i += 5
				continue
			}
		}
		// keep the escape pair intact so "\\u2028" text is not rewritten
		buf.WriteByte(b[i])
		buf.WriteByte(b[i+1])
		i++
	}
}
