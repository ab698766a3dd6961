// Package extract normalises the loosely shaped callbacks sent by the document
// automation into a flat list of parsed-order records.
//
// Extraction runs an ordered list of named decoders and stops at the first one that
// yields at least one record. A body that carries an explicit list (a bare array, or an
// items, data or orders array) ends the chain even when that list is empty; only the
// chat-completion fallback may still fill it.
package extract

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
)

// DefaultSessionID is used when a callback carries no session id.
const DefaultSessionID = "default"

// ErrInvalidJSON is returned when the callback body is not valid JSON.
var ErrInvalidJSON = errors.New("invalid JSON in request body")

// Decoder names, in precedence order.
const (
	DecoderArray          = "array"
	DecoderItemsField     = "items-field"
	DecoderDataField      = "data-field"
	DecoderOrdersField    = "orders-field"
	DecoderSingleObject   = "single-object"
	DecoderNestedScan     = "nested-scan"
	DecoderStringEncoded  = "string-encoded"
	DecoderChatCompletion = "chat-completion"
)

// Decoder turns a body into records. It returns nil when the body does not have
// its shape. An Explicit decoder that returns a non-nil empty list ends the chain.
type Decoder struct {
	Name     string
	Decode   func(b *Body) []json.RawMessage
	Explicit bool
}

var decoders = []Decoder{
	{Name: DecoderArray, Decode: decodeArray, Explicit: true},
	{Name: DecoderItemsField, Decode: decodeItemsField, Explicit: true},
	{Name: DecoderDataField, Decode: fieldArray("data"), Explicit: true},
	{Name: DecoderOrdersField, Decode: fieldArray("orders"), Explicit: true},
	{Name: DecoderSingleObject, Decode: decodeSingleObject},
	{Name: DecoderNestedScan, Decode: decodeNestedScan},
	{Name: DecoderStringEncoded, Decode: decodeStringEncoded},
	{Name: DecoderChatCompletion, Decode: decodeChatCompletion},
}

// Decoders returns the decoder chain in precedence order.
func Decoders() []Decoder {
	out := make([]Decoder, len(decoders))
	copy(out, decoders)
	return out
}

// Result is the outcome of an extraction.
type Result struct {
	SessionID string
	// SessionDefaulted is set when the body carried no session id.
	SessionDefaulted bool
	Items            []json.RawMessage
	// Decoder names the decoder that ended the chain; empty when nothing matched.
	Decoder string
	Body    *Body
}

// Extract parses raw and runs the decoder chain. Only ErrInvalidJSON is returned;
// an unrecognised shape yields a Result with no items.
func Extract(raw []byte) (Result, error) {
	b, err := parseBody(raw)
	if err != nil {
		return Result{}, err
	}

	res := Result{Body: b, Items: []json.RawMessage{}}
	res.SessionID, res.SessionDefaulted = sessionID(b)

	for _, d := range decoders {
		items := d.Decode(b)
		if len(items) > 0 {
			res.Items = items
			res.Decoder = d.Name
			break
		}
		if d.Explicit && items != nil {
			res.Decoder = d.Name
			if chat := decodeChatCompletion(b); len(chat) > 0 {
				res.Items = chat
				res.Decoder = DecoderChatCompletion
			}
			break
		}
	}
	return res, nil
}

func sessionID(b *Body) (string, bool) {
	for _, key := range []string{"session_id", "sessionId"} {
		v, ok := b.Get(key)
		if !ok || !truthy(v) {
			continue
		}
		if s, ok := asString(v); ok {
			return s, false
		}
		if kindOf(v) == KindNumber {
			return string(bytes.TrimSpace(v)), false
		}
	}
	return DefaultSessionID, true
}

func decodeArray(b *Body) []json.RawMessage {
	if b.Kind != KindArray {
		return nil
	}
	return b.Array
}

// decodeItemsField declines a lone grouped order, whose own items field is the list
// of product names rather than a list of records.
func decodeItemsField(b *Body) []json.RawMessage {
	if isGroupedOrder(b) {
		return nil
	}
	return fieldArray("items")(b)
}

func isGroupedOrder(b *Body) bool {
	v, ok := b.Get("item_quantities")
	if !ok || kindOf(v) != KindObject {
		return false
	}
	items, _ := b.Get("items")
	arr, ok := asArray(items)
	if !ok {
		return false
	}
	for _, it := range arr {
		if kindOf(it) != KindString {
			return false
		}
	}
	return true
}

func fieldArray(key string) func(b *Body) []json.RawMessage {
	return func(b *Body) []json.RawMessage {
		v, ok := b.Get(key)
		if !ok {
			return nil
		}
		arr, _ := asArray(v)
		return arr
	}
}

// singleOrderKeys mark an object that is itself one parsed order.
var singleOrderKeys = []string{"order_id", "client_name", "venue_name"}

func decodeSingleObject(b *Body) []json.RawMessage {
	if b.Kind != KindObject {
		return nil
	}
	has := func(key string) bool {
		v, ok := b.Get(key)
		return ok && truthy(v)
	}
	match := has("item_quantities") && has("venue_name")
	for _, k := range singleOrderKeys {
		match = match || has(k)
	}
	if !match {
		return nil
	}
	return []json.RawMessage{b.Raw}
}

func decodeNestedScan(b *Body) []json.RawMessage {
	if b.Kind != KindObject {
		return nil
	}
	envelope := isChatCompletion(b)
	for _, f := range b.Fields {
		if envelope && f.Key == "choices" {
			continue
		}
		if arr, ok := asArray(f.Value); ok && len(arr) > 0 {
			return arr
		}
	}
	return nil
}

func decodeStringEncoded(b *Body) []json.RawMessage {
	if b.Kind != KindString {
		return nil
	}
	return listOrItems(stripFences(b.Str))
}

func decodeChatCompletion(b *Body) []json.RawMessage {
	content, ok := chatContent(b)
	if !ok {
		return nil
	}
	return listOrItems(stripFences(content))
}

func isChatCompletion(b *Body) bool {
	_, ok := chatMessage(b)
	return ok
}

func chatMessage(b *Body) (map[string]json.RawMessage, bool) {
	v, ok := b.Get("choices")
	if !ok {
		return nil, false
	}
	choices, ok := asArray(v)
	if !ok || len(choices) == 0 {
		return nil, false
	}
	var first struct {
		Message map[string]json.RawMessage `json:"message"`
	}
	if err := json.Unmarshal(choices[0], &first); err != nil || first.Message == nil {
		return nil, false
	}
	return first.Message, true
}

func chatContent(b *Body) (string, bool) {
	msg, ok := chatMessage(b)
	if !ok {
		return "", false
	}
	return asString(msg["content"])
}

// listOrItems decodes text holding either an array or an object with an items array.
func listOrItems(text string) []json.RawMessage {
	raw := []byte(strings.TrimSpace(text))
	if !json.Valid(raw) {
		return nil
	}
	if arr, ok := asArray(raw); ok {
		return arr
	}
	if kindOf(raw) != KindObject {
		return nil
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil
	}
	arr, _ := asArray(obj["items"])
	return arr
}

// stripFences removes a surrounding markdown code fence, which chat models often
// wrap JSON answers in.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[i+1:]
	}
	return strings.TrimSuffix(strings.TrimSpace(s), "```")
}
