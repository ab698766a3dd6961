package extract

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// Kinds of top-level JSON values.
const (
	KindArray   = "array"
	KindObject  = "object"
	KindString  = "string"
	KindNumber  = "number"
	KindBoolean = "boolean"
	KindNull    = "null"
)

type field struct {
	Key   string
	Value json.RawMessage
}

// Body is a decoded callback payload. Object fields keep document order so the
// nested scan is deterministic.
type Body struct {
	Raw    json.RawMessage
	Kind   string
	Array  []json.RawMessage
	Fields []field
	Str    string
}

func parseBody(raw []byte) (*Body, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || !json.Valid(raw) {
		return nil, ErrInvalidJSON
	}
	b := &Body{Raw: json.RawMessage(raw), Kind: kindOf(raw)}
	switch b.Kind {
	case KindArray:
		if err := json.Unmarshal(raw, &b.Array); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidJSON, err)
		}
	case KindObject:
		fields, err := orderedFields(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidJSON, err)
		}
		b.Fields = fields
	case KindString:
		if err := json.Unmarshal(raw, &b.Str); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidJSON, err)
		}
	}
	return b, nil
}

// Get returns the value of a top-level field. Duplicate keys resolve to the last one.
func (b *Body) Get(key string) (json.RawMessage, bool) {
	var (
		v     json.RawMessage
		found bool
	)
	for _, f := range b.Fields {
		if f.Key == key {
			v, found = f.Value, true
		}
	}
	return v, found
}

// Keys lists top-level object keys in document order.
func (b *Body) Keys() []string {
	keys := make([]string, 0, len(b.Fields))
	for _, f := range b.Fields {
		keys = append(keys, f.Key)
	}
	return keys
}

func orderedFields(raw []byte) ([]field, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	if _, err := dec.Token(); err != nil { // {
		return nil, err
	}
	var fields []field
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("unexpected object key %v", tok)
		}
		var v json.RawMessage
		if err := dec.Decode(&v); err != nil {
			return nil, err
		}
		fields = append(fields, field{Key: key, Value: v})
	}
	return fields, nil
}

func kindOf(raw []byte) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return KindNull
	}
	switch raw[0] {
	case '[':
		return KindArray
	case '{':
		return KindObject
	case '"':
		return KindString
	case 't', 'f':
		return KindBoolean
	case 'n':
		return KindNull
	default:
		return KindNumber
	}
}

// asArray decodes raw when it is a JSON array.
func asArray(raw json.RawMessage) ([]json.RawMessage, bool) {
	if kindOf(raw) != KindArray {
		return nil, false
	}
	var arr []json.RawMessage
	if err := json.Unmarshal(raw, &arr); err != nil {
		return nil, false
	}
	return arr, true
}

func asString(raw json.RawMessage) (string, bool) {
	if kindOf(raw) != KindString {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", false
	}
	return s, true
}

// truthy follows JavaScript truthiness, which is what the automation's field
// presence checks were written against.
func truthy(raw json.RawMessage) bool {
	switch kindOf(raw) {
	case KindNull:
		return false
	case KindBoolean:
		return bytes.Equal(bytes.TrimSpace(raw), []byte("true"))
	case KindString:
		s, _ := asString(raw)
		return s != ""
	case KindNumber:
		f, err := strconv.ParseFloat(string(bytes.TrimSpace(raw)), 64)
		return err == nil && f != 0
	default:
		return true
	}
}
